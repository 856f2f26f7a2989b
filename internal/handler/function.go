package handler

import (
	"fmt"

	"github.com/json-to-terraform/constructs/internal/construct"
	"github.com/json-to-terraform/constructs/internal/manifest"
	"github.com/json-to-terraform/constructs/internal/registry"
	"github.com/json-to-terraform/constructs/internal/result"
	"github.com/json-to-terraform/constructs/internal/wrapper"
)

type functionProps struct {
	FunctionName string            `mapstructure:"function_name"`
	Runtime      string            `mapstructure:"runtime"`
	Handler      string            `mapstructure:"handler"`
	Code         string            `mapstructure:"code"`
	Role         string            `mapstructure:"role"`
	MemorySize   int               `mapstructure:"memory_size"`
	Timeout      int               `mapstructure:"timeout"`
	Environment  map[string]string `mapstructure:"environment"`
	Tags         map[string]string `mapstructure:"tags"`
}

type functionHandler struct{}

func init() {
	registry.Default.Register("function", functionHandler{})
}

func (functionHandler) Kind() string { return "function" }

func (functionHandler) Validate(c *manifest.Construct) ([]result.Error, []result.Warning) {
	var p functionProps
	errs := decodeErrors(c, &p, "Use function_name, runtime, handler, code, role, memory_size, timeout, environment, tags")
	var warns []result.Warning
	if len(errs) == 0 {
		if p.Runtime == "" {
			errs = append(errs, validationError("runtime is required", "Set properties.runtime (e.g. python3.12)"))
		}
		if p.Handler == "" {
			errs = append(errs, validationError("handler is required", "Set properties.handler (e.g. index.handler)"))
		}
		if p.MemorySize != 0 && (p.MemorySize < 128 || p.MemorySize > 10240) {
			errs = append(errs, validationError(fmt.Sprintf("memory_size %d is out of range", p.MemorySize),
				"Use a value between 128 and 10240"))
		}
		if p.Timeout < 0 || p.Timeout > 900 {
			errs = append(errs, validationError(fmt.Sprintf("timeout %d is out of range", p.Timeout),
				"Use a value between 1 and 900 seconds"))
		}
		if p.Role == "" {
			warns = append(warns, bestPractice("function has no role",
				"Set properties.role so the function runs with least privilege"))
		}
	}
	return append(errs, validateGrants(c)...), warns
}

func (functionHandler) Build(scope Scope, c *manifest.Construct) (*construct.Node, error) {
	var p functionProps
	if err := c.Decode(&p); err != nil {
		return nil, err
	}
	w, err := wrapper.New(scope.Node, c.ID, FunctionType)
	if err != nil {
		return nil, err
	}

	if p.MemorySize == 0 {
		p.MemorySize = 128
	}
	if p.Timeout == 0 {
		p.Timeout = 3
	}
	s := setter{w: w}
	if p.FunctionName != "" {
		s.set("function_name", p.FunctionName)
	}
	s.set("runtime", p.Runtime)
	s.set("handler", p.Handler)
	if p.Code != "" {
		s.set("code.zip_file", p.Code)
	}
	if p.Role != "" {
		s.set("role", p.Role)
	}
	s.set("memory_size", p.MemorySize)
	s.set("timeout", p.Timeout)
	if len(p.Environment) > 0 {
		s.set("environment.variables", p.Environment)
	}
	if len(p.Tags) > 0 {
		s.set("tags", tagList(p.Tags))
	}
	if s.err != nil {
		return nil, s.err
	}

	if err := configure(w.Resource(), c); err != nil {
		return nil, err
	}
	if err := grant(w, c); err != nil {
		return nil, err
	}
	return w.Node(), nil
}
