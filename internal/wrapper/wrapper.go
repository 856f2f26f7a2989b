// Package wrapper implements the L2 construct: an ergonomic front over exactly one
// resource construct that it either owns (created as its default child) or merely
// references.
package wrapper

import (
	"fmt"
	"strings"

	"github.com/iancoleman/strcase"

	"github.com/json-to-terraform/constructs/internal/construct"
	"github.com/json-to-terraform/constructs/internal/property"
	"github.com/json-to-terraform/constructs/internal/resource"
)

// Mode is the provenance of a wrapper's resource.
type Mode uint8

const (
	// Owning wrappers created their resource as their own child.
	Owning Mode = iota
	// Referencing wrappers front a resource (or external id) they do not own.
	Referencing
)

func (m Mode) String() string {
	if m == Owning {
		return "owning"
	}
	return "referencing"
}

// PolicyType is the type tag of the resources created by Grant.
const PolicyType = "X::IAM::Policy"

// Provenance ties a wrapper to the resource it fronts. Resource is nil for wrappers
// built from an external identifier.
type Provenance struct {
	Mode       Mode
	Resource   *resource.Resource
	ExternalID string
}

// Wrapper is an L2 construct.
type Wrapper struct {
	node   *construct.Node
	typ    string
	prov   Provenance
	shadow *property.Bag
	grants int
}

// New creates an owning wrapper together with its resource, added as the child
// "Resource" and designated as the wrapper's default child.
func New(scope *construct.Node, id, typ string, opts ...resource.Option) (*Wrapper, error) {
	n, err := construct.New(scope, id)
	if err != nil {
		return nil, err
	}
	r, err := resource.New(n, construct.ResourceID, typ, opts...)
	if err != nil {
		return nil, err
	}
	if err := n.SetDefaultChild(r.Node()); err != nil {
		return nil, err
	}
	w := &Wrapper{node: n, typ: typ, prov: Provenance{Mode: Owning, Resource: r}, shadow: property.NewBag()}
	n.Bind(w)
	return w, nil
}

// Wrap creates a referencing wrapper over an existing resource. The wrapper never
// affects how r is synthesized. A second referencing wrapper over the same resource is
// allowed but annotated with a warning.
func Wrap(scope *construct.Node, id string, r *resource.Resource) (*Wrapper, error) {
	if r == nil {
		return nil, fmt.Errorf("wrap %q: nil resource", id)
	}
	n, err := construct.New(scope, id)
	if err != nil {
		return nil, err
	}
	if count := r.TrackReference(); count > 1 {
		n.AddWarning(fmt.Sprintf(
			"%d referencing wrappers front %s; they are views of one resource, not separate resources",
			count, r.Node().Path()))
	}
	w := &Wrapper{node: n, typ: r.Type(), prov: Provenance{Mode: Referencing, Resource: r}, shadow: property.NewBag()}
	n.Bind(w)
	return w, nil
}

// FromLookup creates a referencing wrapper over a resource that lives outside the tree,
// identified by externalID.
func FromLookup(scope *construct.Node, id, typ, externalID string) (*Wrapper, error) {
	n, err := construct.New(scope, id)
	if err != nil {
		return nil, err
	}
	w := &Wrapper{node: n, typ: typ, prov: Provenance{Mode: Referencing, ExternalID: externalID}, shadow: property.NewBag()}
	n.Bind(w)
	return w, nil
}

// Of returns the wrapper bound to n.
func Of(n *construct.Node) (*Wrapper, bool) {
	w, ok := n.Element().(*Wrapper)
	return w, ok
}

// DefaultResource is the escape hatch from an L2 construct to its L1 resource.
func DefaultResource(n *construct.Node) (*resource.Resource, bool) {
	c, ok := n.DefaultChild()
	if !ok {
		return nil, false
	}
	return resource.Of(c)
}

// Node returns the wrapper's own construct node.
func (w *Wrapper) Node() *construct.Node { return w.node }

// Type returns the type tag of the fronted resource.
func (w *Wrapper) Type() string { return w.typ }

// Provenance records how the wrapper fronts its resource.
func (w *Wrapper) Provenance() Provenance { return w.prov }

// Owns reports whether the wrapper created its resource.
func (w *Wrapper) Owns() bool { return w.prov.Mode == Owning }

// Resource returns the fronted resource; nil for lookups.
func (w *Wrapper) Resource() *resource.Resource { return w.prov.Resource }

// SetProperty sets a high-level property. Each dotted part of name is converted to
// PascalCase ("versioning_configuration.status" -> VersioningConfiguration.Status).
// Owning wrappers write through to their resource; referencing wrappers only record
// the value locally.
func (w *Wrapper) SetProperty(name string, value any) error {
	p := propertyPath(name)
	if w.Owns() {
		return w.prov.Resource.Properties().Set(p, value)
	}
	return w.shadow.Set(p, value)
}

// Property reads a high-level property through the same name conversion. Referencing
// wrappers prefer their local values over the referenced resource's.
func (w *Wrapper) Property(name string) (any, bool) {
	p := propertyPath(name)
	if !w.Owns() {
		if v, ok := w.shadow.Get(p); ok {
			return v, true
		}
	}
	if w.prov.Resource == nil {
		return nil, false
	}
	return w.prov.Resource.Properties().Get(p)
}

func propertyPath(name string) property.Path {
	parts := strings.Split(name, ".")
	p := make(property.Path, len(parts))
	for i, s := range parts {
		p[i] = property.Key(strcase.ToCamel(s))
	}
	return p
}

// Grant allows grantee to perform actions on the wrapped resource. It creates a new
// policy resource under the wrapper and leaves the wrapped resource untouched.
func (w *Wrapper) Grant(grantee string, actions ...string) (*resource.Resource, error) {
	var target any = w.prov.ExternalID
	if r := w.prov.Resource; r != nil {
		target = r.GetAtt("Arn")
	}
	w.grants++
	policy, err := resource.New(w.node, fmt.Sprintf("Grant%d", w.grants), PolicyType)
	if err != nil {
		w.grants--
		return nil, err
	}
	statement := property.BagOf(
		"Effect", "Allow",
		"Action", actions,
		"Resource", target,
	)
	props := policy.Properties()
	props.Put("PolicyDocument", property.BagOf("Version", "2012-10-17", "Statement", []any{statement}))
	props.Put("Roles", []string{grantee})
	return policy, nil
}
