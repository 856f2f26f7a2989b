package handler

import (
	"github.com/json-to-terraform/constructs/internal/construct"
	"github.com/json-to-terraform/constructs/internal/manifest"
	"github.com/json-to-terraform/constructs/internal/registry"
	"github.com/json-to-terraform/constructs/internal/result"
	"github.com/json-to-terraform/constructs/internal/wrapper"
)

// referenceHandler builds a referencing wrapper over a resource declared earlier in the
// manifest. Its properties stay local to the wrapper.
type referenceHandler struct{}

func init() {
	registry.Default.Register("reference", referenceHandler{})
}

func (referenceHandler) Kind() string { return "reference" }

func (referenceHandler) Validate(c *manifest.Construct) ([]result.Error, []result.Warning) {
	var errs []result.Error
	var warns []result.Warning
	if c.Target == "" {
		errs = append(errs, validationError("target is required",
			"Set target to the path of a resource or wrapper declared earlier (e.g. Storage/Assets)"))
	}
	if c.Options.Len() > 0 || len(c.Overrides) > 0 || len(c.DeletionOverrides) > 0 {
		errs = append(errs, validationError("a reference cannot change the referenced resource",
			"Move options and overrides to the construct that owns the resource"))
	}
	if c.Properties.Len() > 0 {
		warns = append(warns, bestPractice("reference properties are not rendered",
			"Set the property on the owning construct instead"))
	}
	return append(errs, validateGrants(c)...), warns
}

func (referenceHandler) Build(scope Scope, c *manifest.Construct) (*construct.Node, error) {
	r, err := resourceAt(scope, c.Target)
	if err != nil {
		return nil, err
	}
	w, err := wrapper.Wrap(scope.Node, c.ID, r)
	if err != nil {
		return nil, err
	}
	for k, v := range c.Properties.All() {
		if err := w.SetProperty(k, v); err != nil {
			return nil, err
		}
	}
	if err := grant(w, c); err != nil {
		return nil, err
	}
	return w.Node(), nil
}
