// Package app runs the synthesis pipeline: manifest in, rendered template files out.
package app

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/samber/oops"

	"github.com/json-to-terraform/constructs/internal/construct"
	"github.com/json-to-terraform/constructs/internal/logger"
	"github.com/json-to-terraform/constructs/internal/manifest"
	"github.com/json-to-terraform/constructs/internal/registry"
	"github.com/json-to-terraform/constructs/internal/render"
	"github.com/json-to-terraform/constructs/internal/resource"
	"github.com/json-to-terraform/constructs/internal/result"
	"github.com/json-to-terraform/constructs/internal/synth"
	"github.com/json-to-terraform/constructs/internal/wrapper"
)

// App synthesizes manifests into template files.
type App struct {
	opts Options
	reg  *registry.Registry
	log  *slog.Logger
}

// New returns a new app with the given options, using the default kind registry.
func New(opts Options) *App {
	return NewWithRegistry(opts, registry.Default)
}

// NewWithRegistry returns a new app that resolves kinds through reg.
func NewWithRegistry(opts Options, reg *registry.Registry) *App {
	if opts.Separator == "" {
		opts.Separator = synth.DefaultSeparator
	}
	l := opts.Logger
	if l == nil {
		l = logger.Default
	}
	return &App{opts: opts, reg: reg, log: l}
}

// Synthesize validates the manifest, builds the construct tree, synthesizes it and
// renders the configured formats. Problems with the manifest are reported in the
// result; the error return is reserved for rendering failures.
func (a *App) Synthesize(m *manifest.Manifest) (*result.SynthResult, error) {
	out := &result.SynthResult{Success: true}

	// 1. Manifest-level validation
	for _, e := range manifest.Validate(m) {
		out.Fail(result.Error{
			Type: e.Type, Severity: e.Severity, Path: e.Path,
			Message: e.Message, Suggestion: e.Suggestion,
		})
	}
	if !out.Success {
		return out, nil
	}

	// 2. Kind validation
	for path, c := range m.Walk() {
		h, ok := a.reg.Get(c.Kind)
		if !ok {
			out.Fail(result.Error{
				Type: "validation_error", Severity: "error", Path: path,
				Message:    "unsupported kind: " + c.Kind,
				Suggestion: "Use one of: " + strings.Join(a.reg.ListSupportedKinds(), ", "),
			})
			continue
		}
		errs, warns := h.Validate(c)
		for _, e := range errs {
			e.Path = path
			out.Fail(e)
		}
		for _, w := range warns {
			w.Path = path
			out.Warnings = append(out.Warnings, w)
		}
	}
	if !out.Success {
		return out, nil
	}

	// 3. Build the tree in manifest order, then wire dependencies
	root := construct.NewRoot("")
	nodes := make(map[string]*construct.Node)
	scope := registry.Scope{Lookup: func(path string) (*construct.Node, bool) {
		n, ok := nodes[path]
		return n, ok
	}}
	for path, c := range m.Walk() {
		parent := root
		if i := strings.LastIndex(path, "/"); i >= 0 {
			parent = nodes[path[:i]]
		}
		h, _ := a.reg.Get(c.Kind)
		scope.Node = parent
		n, err := h.Build(scope, c)
		if err != nil {
			out.Fail(errorFor("build_error", path, err))
			return out, nil
		}
		nodes[path] = n
	}
	for path, c := range m.Walk() {
		if err := wireDependencies(scope, nodes[path], c); err != nil {
			out.Fail(errorFor("dependency_error", path, err))
		}
	}
	if !out.Success {
		return out, nil
	}

	// 4. Synthesize
	doc, err := synth.Synthesize(root,
		synth.WithSeparator(a.opts.Separator),
		synth.WithIndexPolicy(a.opts.IndexPolicy),
		synth.WithDescription(m.Description),
	)
	if err != nil {
		logger.LogError(a.log, "synthesis failed", err)
		out.Fail(errorFor("synthesis_error", "", err))
		return out, nil
	}
	for _, w := range doc.Warnings {
		a.log.Warn("construct warning", "path", w.Path, "message", w.Message)
		out.Warnings = append(out.Warnings, result.Warning{
			Type: "anti_pattern", Severity: "warning", Path: w.Path, Message: w.Message,
			Suggestion: "Keep a single referencing wrapper per resource",
		})
	}

	// 5. Render files
	b := render.NewBuilder(a.opts.Formats...)
	if err := b.AddDocument(doc); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	out.Files = b.Build()
	a.log.Info("synthesized", "name", m.Name, "resources", len(doc.Resources), "files", b.Names())
	return out, nil
}

// wireDependencies makes the resource built for c depend on the resources named in
// c.DependsOn. It runs once the whole tree exists, so forward references are fine.
func wireDependencies(scope registry.Scope, n *construct.Node, c *manifest.Construct) error {
	if len(c.DependsOn) == 0 {
		return nil
	}
	r, ok := resource.Of(n)
	if !ok {
		if r, ok = wrapper.DefaultResource(n); !ok {
			return oops.Code("NO_RESOURCE").Errorf("kind %q has no resource to attach depends_on to", c.Kind)
		}
	}
	for _, target := range c.DependsOn {
		dn, ok := scope.Lookup(target)
		if !ok {
			return oops.Code("UNKNOWN_TARGET").With("target", target).Errorf("depends_on target %q does not exist", target)
		}
		dep, ok := resource.Of(dn)
		if !ok {
			if dep, ok = wrapper.DefaultResource(dn); !ok {
				return oops.Code("NO_RESOURCE").With("target", target).Errorf("depends_on target %q has no resource", target)
			}
		}
		r.AddDependency(dep)
	}
	return nil
}

func errorFor(typ, path string, err error) result.Error {
	e := result.Error{Type: typ, Severity: "error", Path: path, Message: err.Error()}
	if oopsErr, ok := oops.AsOops(err); ok {
		if code := oopsErr.Code(); code != nil {
			e.Code = fmt.Sprint(code)
		}
		if e.Path == "" {
			if p, ok := oopsErr.Context()["resource"].(string); ok {
				e.Path = p
			}
		}
	}
	return e
}
