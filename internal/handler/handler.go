// Package handler registers the construct kinds a manifest can use.
package handler

import (
	"fmt"
	"slices"

	"github.com/samber/oops"

	"github.com/json-to-terraform/constructs/internal/construct"
	"github.com/json-to-terraform/constructs/internal/manifest"
	"github.com/json-to-terraform/constructs/internal/registry"
	"github.com/json-to-terraform/constructs/internal/resource"
	"github.com/json-to-terraform/constructs/internal/result"
	"github.com/json-to-terraform/constructs/internal/wrapper"
)

// Type tags of the resources built by the typed kinds.
const (
	BucketType   = "X::Storage::Bucket"
	FunctionType = "X::Compute::Function"
	QueueType    = "X::Messaging::Queue"
)

// Scope is an alias for registry.Scope so handlers read naturally.
type Scope = registry.Scope

func validationError(msg, suggestion string) result.Error {
	return result.Error{Type: "validation_error", Severity: "error", Message: msg, Suggestion: suggestion}
}

func bestPractice(msg, suggestion string) result.Warning {
	return result.Warning{Type: "best_practice", Severity: "warning", Message: msg, Suggestion: suggestion}
}

// decodeErrors decodes c's properties into out and reports a failure as a validation error.
func decodeErrors(c *manifest.Construct, out any, suggestion string) []result.Error {
	if err := c.Decode(out); err != nil {
		return []result.Error{validationError(err.Error(), suggestion)}
	}
	return nil
}

// configure applies the manifest's options and raw overrides to r.
func configure(r *resource.Resource, c *manifest.Construct) error {
	for k, v := range c.Options.All() {
		if err := r.SetOption(k, v); err != nil {
			return err
		}
	}
	for _, o := range c.Overrides {
		if o.Delete {
			r.AddDeletionOverride(o.Path)
		} else {
			r.AddOverride(o.Path, o.Value)
		}
	}
	for _, p := range c.DeletionOverrides {
		r.AddDeletionOverride(p)
	}
	return nil
}

func grant(w *wrapper.Wrapper, c *manifest.Construct) error {
	for _, g := range c.Grants {
		if _, err := w.Grant(g.Grantee, g.Actions...); err != nil {
			return err
		}
	}
	return nil
}

func validateGrants(c *manifest.Construct) []result.Error {
	var errs []result.Error
	for i, g := range c.Grants {
		if g.Grantee == "" || len(g.Actions) == 0 {
			errs = append(errs, validationError(
				fmt.Sprintf("grant %d needs a grantee and at least one action", i),
				"Set grants[].grantee and grants[].actions"))
		}
	}
	return errs
}

// resourceAt returns the resource construct a manifest path designates: the resource
// itself, or the default resource of a wrapper.
func resourceAt(scope Scope, path string) (*resource.Resource, error) {
	n, ok := scope.Lookup(path)
	if !ok {
		return nil, oops.Code("UNKNOWN_TARGET").
			With("target", path).
			Errorf("construct %q is not declared before this one", path)
	}
	if r, ok := resource.Of(n); ok {
		return r, nil
	}
	if r, ok := wrapper.DefaultResource(n); ok {
		return r, nil
	}
	return nil, oops.Code("UNKNOWN_TARGET").
		With("target", path).
		Errorf("construct %q has no resource", path)
}

// setter writes wrapper properties and keeps the first error.
type setter struct {
	w   *wrapper.Wrapper
	err error
}

func (s *setter) set(name string, v any) {
	if s.err == nil {
		s.err = s.w.SetProperty(name, v)
	}
}

// tagList renders tags as a Key/Value list sorted by key.
func tagList(tags map[string]string) []any {
	keys := make([]string, 0, len(tags))
	for k := range tags {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	out := make([]any, len(keys))
	for i, k := range keys {
		out[i] = map[string]any{"Key": k, "Value": tags[k]}
	}
	return out
}

// group is a plain scope with no resource of its own.
type groupHandler struct{}

func init() {
	registry.Default.Register("group", groupHandler{})
}

func (groupHandler) Kind() string { return "group" }

func (groupHandler) Validate(c *manifest.Construct) ([]result.Error, []result.Warning) {
	var warns []result.Warning
	if c.Properties.Len() > 0 || c.Options.Len() > 0 || len(c.Overrides) > 0 {
		warns = append(warns, bestPractice("group has no resource; properties and overrides are ignored",
			"Move them to a resource inside the group"))
	}
	return nil, warns
}

func (groupHandler) Build(scope Scope, c *manifest.Construct) (*construct.Node, error) {
	return construct.New(scope.Node, c.ID)
}
