package handler

import (
	"github.com/json-to-terraform/constructs/internal/construct"
	"github.com/json-to-terraform/constructs/internal/manifest"
	"github.com/json-to-terraform/constructs/internal/registry"
	"github.com/json-to-terraform/constructs/internal/resource"
	"github.com/json-to-terraform/constructs/internal/result"
)

// resourceHandler builds a raw L1 resource. Property keys are used as written.
type resourceHandler struct{}

func init() {
	registry.Default.Register("resource", resourceHandler{})
}

func (resourceHandler) Kind() string { return "resource" }

func (resourceHandler) Validate(c *manifest.Construct) ([]result.Error, []result.Warning) {
	var errs []result.Error
	if c.Type == "" {
		errs = append(errs, validationError("type is required", "Set type (e.g. X::Storage::Bucket)"))
	}
	return errs, nil
}

func (resourceHandler) Build(scope Scope, c *manifest.Construct) (*construct.Node, error) {
	r, err := resource.New(scope.Node, c.ID, c.Type, resource.WithProperties(c.Properties.Clone()))
	if err != nil {
		return nil, err
	}
	if err := configure(r, c); err != nil {
		return nil, err
	}
	return r.Node(), nil
}
