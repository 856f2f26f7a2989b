package handler

import (
	"github.com/json-to-terraform/constructs/internal/construct"
	"github.com/json-to-terraform/constructs/internal/manifest"
	"github.com/json-to-terraform/constructs/internal/registry"
	"github.com/json-to-terraform/constructs/internal/result"
	"github.com/json-to-terraform/constructs/internal/wrapper"
)

// lookupHandler fronts a resource that exists outside the app.
type lookupHandler struct{}

func init() {
	registry.Default.Register("lookup", lookupHandler{})
}

func (lookupHandler) Kind() string { return "lookup" }

func (lookupHandler) Validate(c *manifest.Construct) ([]result.Error, []result.Warning) {
	var errs []result.Error
	if c.Type == "" {
		errs = append(errs, validationError("type is required", "Set type (e.g. X::Storage::Bucket)"))
	}
	if c.ExternalID == "" {
		errs = append(errs, validationError("external_id is required", "Set external_id to the resource's ARN or name"))
	}
	if c.Options.Len() > 0 || len(c.Overrides) > 0 || len(c.DeletionOverrides) > 0 {
		errs = append(errs, validationError("a lookup has no resource to configure",
			"Remove options and overrides"))
	}
	return append(errs, validateGrants(c)...), nil
}

func (lookupHandler) Build(scope Scope, c *manifest.Construct) (*construct.Node, error) {
	w, err := wrapper.FromLookup(scope.Node, c.ID, c.Type, c.ExternalID)
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
