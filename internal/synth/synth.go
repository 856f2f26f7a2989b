// Package synth turns a construct tree into a declarative template document.
package synth

import (
	"errors"
	"slices"
	"strings"

	"github.com/samber/oops"

	"github.com/json-to-terraform/constructs/internal/construct"
	"github.com/json-to-terraform/constructs/internal/dependency"
	"github.com/json-to-terraform/constructs/internal/property"
	"github.com/json-to-terraform/constructs/internal/resource"
)

// DefaultSeparator joins the construct ids that make up a logical id.
const DefaultSeparator = "-"

var (
	// ErrDuplicateLogicalID is returned when two resources render under the same logical id.
	ErrDuplicateLogicalID = errors.New("duplicate logical id")
	// ErrUnresolvedReference is returned when a token or dependency points at a construct
	// that is not a resource of the synthesized tree.
	ErrUnresolvedReference = errors.New("unresolved reference")
	// ErrInvalidDependsOn is returned when a DependsOn option is neither a logical id nor
	// a list of them.
	ErrInvalidDependsOn = errors.New("invalid DependsOn")
	// ErrDependencyCycle is returned when DependsOn relations form a cycle.
	ErrDependencyCycle = dependency.ErrCycle
)

// Options configures a synthesis run.
type Options struct {
	Separator   string
	IndexPolicy property.IndexPolicy
	Description string
}

// DefaultOptions returns the options used when none are given.
func DefaultOptions() Options {
	return Options{Separator: DefaultSeparator, IndexPolicy: property.Reject}
}

// Option changes Options.
type Option func(*Options)

// WithSeparator sets the string joining construct ids in logical ids.
func WithSeparator(sep string) Option {
	return func(o *Options) { o.Separator = sep }
}

// WithIndexPolicy sets how overrides treat indexes past the end of a sequence.
func WithIndexPolicy(p property.IndexPolicy) Option {
	return func(o *Options) { o.IndexPolicy = p }
}

// WithDescription sets the template description.
func WithDescription(d string) Option {
	return func(o *Options) { o.Description = d }
}

// Warning is a non-fatal annotation found on a construct.
type Warning struct {
	Path    string
	Message string
}

// Entry is one rendered resource.
type Entry struct {
	LogicalID  string
	Path       string
	Type       string
	Properties *property.Bag
	// Options holds resource options in insertion order, DependsOn last.
	Options *property.Bag
}

// Body returns the entry as it appears under Resources.
func (e *Entry) Body() *property.Bag {
	b := property.BagOf("Type", e.Type, "Properties", e.Properties)
	for k, v := range e.Options.All() {
		b.Put(k, v)
	}
	return b
}

// Document is the result of a synthesis run.
type Document struct {
	Description string
	Resources   []*Entry
	Warnings    []Warning
}

// Resource returns the entry with the given logical id.
func (d *Document) Resource(logicalID string) (*Entry, bool) {
	for _, e := range d.Resources {
		if e.LogicalID == logicalID {
			return e, true
		}
	}
	return nil, false
}

// Template returns the document as an ordered bag.
func (d *Document) Template() *property.Bag {
	t := property.NewBag()
	if d.Description != "" {
		t.Put("Description", d.Description)
	}
	resources := property.NewBag()
	for _, e := range d.Resources {
		resources.Put(e.LogicalID, e.Body())
	}
	t.Put("Resources", resources)
	return t
}

// MarshalJSON renders the template as ordered JSON.
func (d *Document) MarshalJSON() ([]byte, error) { return d.Template().MarshalJSON() }

// MarshalYAML renders the template as an ordered YAML mapping.
func (d *Document) MarshalYAML() (any, error) { return property.YAMLNode(d.Template()) }

// LogicalID derives the logical id of n: the ids below the root joined by sep, with
// "Default" components hidden and a trailing "Resource" component dropped.
func LogicalID(n *construct.Node, sep string) string {
	var ids []string
	for cur := n; cur.Parent() != nil; cur = cur.Parent() {
		ids = append(ids, cur.ID())
	}
	slices.Reverse(ids)

	visible := make([]string, 0, len(ids))
	for _, id := range ids {
		if id != construct.DefaultID {
			visible = append(visible, id)
		}
	}
	if len(visible) > 1 && visible[len(visible)-1] == construct.ResourceID {
		visible = visible[:len(visible)-1]
	}
	if len(visible) == 0 {
		visible = ids
	}
	return strings.Join(visible, sep)
}

// resolver maps tree paths of resource constructs to their logical ids.
type resolver map[string]string

func (r resolver) LogicalID(path string) (string, error) {
	id, ok := r[path]
	if !ok {
		return "", oops.Code("UNRESOLVED_REFERENCE").
			With("target", path).
			Wrapf(ErrUnresolvedReference, "no resource construct at %q", path)
	}
	return id, nil
}

// Synthesize renders every resource construct below root, depth-first in insertion
// order. Any error aborts the whole document.
func Synthesize(root *construct.Node, opts ...Option) (*Document, error) {
	o := DefaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if o.Separator == "" {
		o.Separator = DefaultSeparator
	}

	doc := &Document{Description: o.Description}
	var resources []*resource.Resource
	ids := resolver{}
	owners := map[string]string{}

	for n := range root.Walk() {
		for _, msg := range n.Warnings() {
			doc.Warnings = append(doc.Warnings, Warning{Path: n.Path(), Message: msg})
		}
		r, ok := resource.Of(n)
		if !ok {
			continue
		}
		id := LogicalID(n, o.Separator)
		if prev, dup := owners[id]; dup {
			return nil, oops.Code("DUPLICATE_LOGICAL_ID").
				With("logical_id", id).
				With("paths", []string{prev, n.Path()}).
				Wrapf(ErrDuplicateLogicalID, "%q and %q both render as %q", prev, n.Path(), id)
		}
		owners[id] = n.Path()
		ids[n.Path()] = id
		resources = append(resources, r)
	}

	var edges []dependency.Edge
	for _, r := range resources {
		e, err := render(r, ids, o)
		if err != nil {
			return nil, err
		}
		if deps, ok := e.Options.Value(resource.OptionDependsOn); ok {
			for _, d := range deps.([]any) {
				if _, known := owners[d.(string)]; !known {
					return nil, oops.Code("UNRESOLVED_REFERENCE").
						With("resource", e.Path).
						With("depends_on", d).
						Wrapf(ErrUnresolvedReference, "%s depends on unknown logical id %q", e.LogicalID, d)
				}
				edges = append(edges, dependency.Edge{Source: d.(string), Target: e.LogicalID})
			}
		}
		doc.Resources = append(doc.Resources, e)
	}

	logicalIDs := make([]string, len(doc.Resources))
	for i, e := range doc.Resources {
		logicalIDs[i] = e.LogicalID
	}
	if _, err := dependency.Resolve(logicalIDs, edges); err != nil {
		var cycle *dependency.CycleError
		if errors.As(err, &cycle) {
			return nil, oops.Code("DEPENDENCY_CYCLE").
				With("logical_ids", cycle.Nodes).
				Wrapf(err, "DependsOn cycle between %s", strings.Join(cycle.Nodes, ", "))
		}
		return nil, err
	}
	return doc, nil
}

func render(r *resource.Resource, ids resolver, o Options) (*Entry, error) {
	path := r.Node().Path()
	errb := oops.With("resource", path)

	props, err := r.Resolve(o.IndexPolicy)
	if err != nil {
		return nil, err
	}
	if _, err := property.ResolveTokens(props, ids); err != nil {
		return nil, errb.Wrap(err)
	}

	options := r.Options()
	if _, err := property.ResolveTokens(options, ids); err != nil {
		return nil, errb.Wrap(err)
	}

	deps, err := dependsOn(r, options, ids)
	if err != nil {
		return nil, errb.Wrap(err)
	}
	options.Remove(resource.OptionDependsOn)
	if len(deps) > 0 {
		options.Put(resource.OptionDependsOn, deps)
	}

	return &Entry{
		LogicalID:  ids[path],
		Path:       path,
		Type:       r.Type(),
		Properties: props,
		Options:    options,
	}, nil
}

// dependsOn merges explicit dependencies with a DependsOn option given as a string or a
// list of strings. The result is sorted and free of duplicates.
func dependsOn(r *resource.Resource, options *property.Bag, ids resolver) ([]string, error) {
	var deps []string
	for _, d := range r.Dependencies() {
		id, err := ids.LogicalID(d.Node().Path())
		if err != nil {
			return nil, err
		}
		deps = append(deps, id)
	}
	if v, ok := options.Value(resource.OptionDependsOn); ok {
		switch x := v.(type) {
		case string:
			deps = append(deps, x)
		case []any:
			for _, item := range x {
				s, ok := item.(string)
				if !ok {
					return nil, oops.Code("INVALID_DEPENDS_ON").
						With("entry", item).
						Wrapf(ErrInvalidDependsOn, "DependsOn entries must be logical ids, got %T", item)
				}
				deps = append(deps, s)
			}
		default:
			return nil, oops.Code("INVALID_DEPENDS_ON").
				With("value", v).
				Wrapf(ErrInvalidDependsOn, "DependsOn must be a logical id or a list of them, got %T", v)
		}
	}
	slices.Sort(deps)
	return slices.Compact(deps), nil
}
