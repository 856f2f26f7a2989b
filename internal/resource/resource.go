// Package resource implements the L1 construct: one node that renders exactly one
// entry of the synthesized template.
package resource

import (
	"errors"
	"slices"

	"github.com/samber/oops"

	"github.com/json-to-terraform/constructs/internal/construct"
	"github.com/json-to-terraform/constructs/internal/override"
	"github.com/json-to-terraform/constructs/internal/property"
)

// Well known resource options.
const (
	OptionMetadata       = "Metadata"
	OptionDependsOn      = "DependsOn"
	OptionDeletionPolicy = "DeletionPolicy"
	OptionUpdatePolicy   = "UpdatePolicy"
	OptionCondition      = "Condition"
)

// ErrReservedOption is returned for option names that collide with the entry layout.
var ErrReservedOption = errors.New("reserved resource option")

var reservedOptions = []string{"Type", "Properties"}

// Resource is a construct holding one declarative resource: a type tag, typed
// properties, resource options, and a log of raw overrides.
type Resource struct {
	node      *construct.Node
	typ       string
	props     *property.Bag
	options   *property.Bag
	overrides override.Log
	dependsOn []*Resource
	referrers int
}

// Option configures New.
type Option func(*Resource)

// WithProperties seeds the typed properties. The bag is taken over, not copied.
func WithProperties(b *property.Bag) Option {
	return func(r *Resource) {
		if b != nil {
			r.props = b
		}
	}
}

// New adds a resource construct with the given type tag to scope.
func New(scope *construct.Node, id, typ string, opts ...Option) (*Resource, error) {
	n, err := construct.New(scope, id)
	if err != nil {
		return nil, err
	}
	r := &Resource{
		node:    n,
		typ:     typ,
		props:   property.NewBag(),
		options: property.NewBag(),
	}
	for _, o := range opts {
		o(r)
	}
	n.Bind(r)
	return r, nil
}

// Of returns the resource bound to n, if any.
func Of(n *construct.Node) (*Resource, bool) {
	r, ok := n.Element().(*Resource)
	return r, ok
}

// Node returns the tree node of the resource.
func (r *Resource) Node() *construct.Node { return r.node }

// Type returns the resource type tag, e.g. "X::Storage::Bucket".
func (r *Resource) Type() string { return r.typ }

// Properties returns the typed property bag. Overrides are not reflected here.
func (r *Resource) Properties() *property.Bag { return r.props }

// Property returns the typed value at the dotted path.
func (r *Resource) Property(path string) (any, bool) {
	p, err := property.ParsePath(path)
	if err != nil {
		return nil, false
	}
	return r.props.Get(p)
}

// SetProperty writes a typed property. Errors are returned immediately.
func (r *Resource) SetProperty(path string, value any) error {
	p, err := property.ParsePath(path)
	if err != nil {
		return err
	}
	if err := r.props.Set(p, value); err != nil {
		return oops.With("resource", r.node.Path()).Wrap(err)
	}
	return nil
}

// AddOverride logs a raw SET at the property path. It is applied at synthesis, after
// typed properties, and wins over them. Keys are passed through untransformed.
func (r *Resource) AddOverride(path string, value any) {
	r.overrides.AddSet(path, value)
}

// AddDeletionOverride logs a raw DELETE at the property path.
func (r *Resource) AddDeletionOverride(path string) {
	r.overrides.AddDelete(path)
}

// Overrides returns a copy of the override log.
func (r *Resource) Overrides() override.Log { return slices.Clone(r.overrides) }

// SetOption stores a resource option such as Metadata or DeletionPolicy. Options are
// rendered next to the properties, never inside them.
func (r *Resource) SetOption(name string, value any) error {
	if name == "" || slices.Contains(reservedOptions, name) {
		return oops.Code("RESERVED_OPTION").
			With("resource", r.node.Path()).
			With("option", name).
			Wrapf(ErrReservedOption, "option name %q is reserved", name)
	}
	r.options.Put(name, value)
	return nil
}

// Option returns a resource option.
func (r *Resource) Option(name string) (any, bool) { return r.options.Value(name) }

// Options returns a copy of the resource options.
func (r *Resource) Options() *property.Bag { return r.options.Clone() }

// AddDependency makes r depend on other. Rendered as a sorted DependsOn option.
func (r *Resource) AddDependency(other *Resource) {
	if other == nil || other == r || slices.Contains(r.dependsOn, other) {
		return
	}
	r.dependsOn = append(r.dependsOn, other)
}

// Dependencies returns the resources r depends on, in the order they were added.
func (r *Resource) Dependencies() []*Resource { return slices.Clone(r.dependsOn) }

// Resolve returns the rendered properties: a copy of the typed bag with the override
// log replayed on top.
func (r *Resource) Resolve(policy property.IndexPolicy) (*property.Bag, error) {
	out := r.props.Clone()
	if err := override.ApplyAll(out, r.overrides, policy); err != nil {
		return nil, oops.With("resource", r.node.Path()).Wrap(err)
	}
	return out, nil
}

// TrackReference counts referencing wrappers built over r and returns the new count.
func (r *Resource) TrackReference() int {
	r.referrers++
	return r.referrers
}
