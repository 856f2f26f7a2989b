package registry

import (
	"slices"
	"sync"

	"github.com/json-to-terraform/constructs/internal/construct"
	"github.com/json-to-terraform/constructs/internal/manifest"
	"github.com/json-to-terraform/constructs/internal/result"
)

// Scope is what a handler builds into: the parent node plus access to constructs that
// were built earlier.
type Scope struct {
	Node *construct.Node
	// Lookup returns the node built for a manifest path (ids joined by "/").
	Lookup func(path string) (*construct.Node, bool)
}

// KindHandler is the interface each construct kind handler must implement.
type KindHandler interface {
	Kind() string
	Validate(c *manifest.Construct) ([]result.Error, []result.Warning)
	// Build adds the construct to scope and returns the node its children go under.
	Build(scope Scope, c *manifest.Construct) (*construct.Node, error)
}

// Default is the global handler registry.
var Default = New()

// Registry holds construct kind handlers.
type Registry struct {
	mu       sync.RWMutex
	handlers map[string]KindHandler
}

// New returns a new empty registry.
func New() *Registry {
	return &Registry{handlers: make(map[string]KindHandler)}
}

// Register adds a handler for the given kind.
func (r *Registry) Register(kind string, h KindHandler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlers[kind] = h
}

// Get returns the handler for the kind, or nil and false.
func (r *Registry) Get(kind string) (KindHandler, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	h, ok := r.handlers[kind]
	return h, ok
}

// ListSupportedKinds returns all registered kinds, sorted.
func (r *Registry) ListSupportedKinds() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	kinds := make([]string, 0, len(r.handlers))
	for k := range r.handlers {
		kinds = append(kinds, k)
	}
	slices.Sort(kinds)
	return kinds
}
