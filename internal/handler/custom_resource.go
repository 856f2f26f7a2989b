package handler

import (
	"github.com/json-to-terraform/constructs/internal/construct"
	"github.com/json-to-terraform/constructs/internal/customresource"
	"github.com/json-to-terraform/constructs/internal/manifest"
	"github.com/json-to-terraform/constructs/internal/registry"
	"github.com/json-to-terraform/constructs/internal/result"
)

type customResourceProps struct {
	ServiceToken string         `mapstructure:"service_token"`
	Provider     string         `mapstructure:"provider"`
	ResourceType string         `mapstructure:"resource_type"`
	Rest         map[string]any `mapstructure:",remain"`
}

var customResourceKeys = []string{"service_token", "provider", "resource_type"}

type customResourceHandler struct{}

func init() {
	registry.Default.Register("custom_resource", customResourceHandler{})
}

func (customResourceHandler) Kind() string { return "custom_resource" }

func (customResourceHandler) Validate(c *manifest.Construct) ([]result.Error, []result.Warning) {
	var p customResourceProps
	errs := decodeErrors(c, &p, "Use service_token or provider, plus resource_type")
	if len(errs) == 0 {
		switch {
		case p.ServiceToken == "" && p.Provider == "":
			errs = append(errs, validationError("service_token or provider is required",
				"Set properties.provider to a function declared earlier, or service_token to its ARN"))
		case p.ServiceToken != "" && p.Provider != "":
			errs = append(errs, validationError("service_token and provider are mutually exclusive",
				"Keep only one of them"))
		}
	}
	return errs, nil
}

func (customResourceHandler) Build(scope Scope, c *manifest.Construct) (*construct.Node, error) {
	var p customResourceProps
	if err := c.Decode(&p); err != nil {
		return nil, err
	}
	var token any = p.ServiceToken
	if p.Provider != "" {
		fn, err := resourceAt(scope, p.Provider)
		if err != nil {
			return nil, err
		}
		token = fn.GetAtt("Arn")
	}

	props := c.Properties.Clone()
	for _, k := range customResourceKeys {
		props.Remove(k)
	}
	r, err := customresource.New(scope.Node, c.ID, customresource.Props{
		ServiceToken: token,
		ResourceType: p.ResourceType,
		Properties:   props,
	})
	if err != nil {
		return nil, err
	}
	if err := configure(r, c); err != nil {
		return nil, err
	}
	return r.Node(), nil
}
