// Package construct implements the composition tree. Every construct owns a Node; nodes
// are added to their scope at creation time and are never removed.
package construct

import (
	"errors"
	"iter"
	"slices"
	"strings"

	"github.com/samber/oops"
)

// PathSeparator joins ids in Node.Path.
const PathSeparator = "/"

const (
	// ResourceID is the conventional id of the resource a wrapper owns.
	ResourceID = "Resource"
	// DefaultID marks a child that stands in for its parent.
	DefaultID = "Default"
)

var (
	// ErrDuplicateID is returned when a sibling already uses the id.
	ErrDuplicateID = errors.New("duplicate construct id")
	// ErrNotAChild is returned when a default child is not a direct child of the node.
	ErrNotAChild = errors.New("not a child of this construct")
	// ErrInvalidID is returned for empty ids or ids containing the path separator.
	ErrInvalidID = errors.New("invalid construct id")
)

// Node is a tree node. The parent link is a plain back pointer; a node owns its children.
type Node struct {
	id           string
	parent       *Node
	children     []*Node
	byID         map[string]*Node
	defaultChild string
	element      any
	warnings     []string
}

// NewRoot returns a node with no parent.
func NewRoot(id string) *Node {
	return &Node{id: id, byID: map[string]*Node{}}
}

// New creates a node with the given id and adds it to scope. The tree is left unchanged
// when the id is invalid or already used by a sibling.
func New(scope *Node, id string) (*Node, error) {
	if scope == nil {
		return nil, oops.Code("INVALID_ID").With("id", id).Errorf("construct %q has no scope", id)
	}
	if id == "" || strings.Contains(id, PathSeparator) {
		return nil, oops.Code("INVALID_ID").
			With("scope", scope.Path()).
			With("id", id).
			Wrapf(ErrInvalidID, "id %q must be non-empty and must not contain %q", id, PathSeparator)
	}
	if _, ok := scope.byID[id]; ok {
		return nil, oops.Code("DUPLICATE_ID").
			With("scope", scope.Path()).
			With("id", id).
			Wrapf(ErrDuplicateID, "there is already a construct with id %q in %q", id, scope.Path())
	}
	n := &Node{id: id, parent: scope, byID: map[string]*Node{}}
	if scope.byID == nil {
		scope.byID = map[string]*Node{}
	}
	scope.children = append(scope.children, n)
	scope.byID[id] = n
	return n, nil
}

// ID returns the node id, unique among its siblings.
func (n *Node) ID() string { return n.id }

// Parent returns the enclosing scope, or nil for a root.
func (n *Node) Parent() *Node { return n.parent }

// Children returns the children in insertion order.
func (n *Node) Children() []*Node { return slices.Clone(n.children) }

// Child returns the direct child with the given id.
func (n *Node) Child(id string) (*Node, bool) {
	c, ok := n.byID[id]
	return c, ok
}

// Root returns the top of the tree.
func (n *Node) Root() *Node {
	root := n
	for a := range n.Ancestors() {
		root = a
	}
	return root
}

// Ancestors yields the parent, the grandparent, and so on up to the root. The sequence
// is lazy and restarts from n each time it is ranged over.
func (n *Node) Ancestors() iter.Seq[*Node] {
	return func(yield func(*Node) bool) {
		for a := n.parent; a != nil; a = a.parent {
			if !yield(a) {
				return
			}
		}
	}
}

// FindAncestor returns the nearest ancestor matching pred.
func (n *Node) FindAncestor(pred func(*Node) bool) (*Node, bool) {
	for a := range n.Ancestors() {
		if pred(a) {
			return a, true
		}
	}
	return nil, false
}

// Scopes returns the ids from the root down to n.
func (n *Node) Scopes() []string {
	ids := []string{n.id}
	for a := range n.Ancestors() {
		ids = append(ids, a.id)
	}
	slices.Reverse(ids)
	return ids
}

// Path is the separator-joined list of ids from the root to n. An empty root id is
// left out.
func (n *Node) Path() string {
	ids := n.Scopes()
	if len(ids) > 0 && ids[0] == "" {
		ids = ids[1:]
	}
	return strings.Join(ids, PathSeparator)
}

// SetDefaultChild designates child as the node that represents n's underlying resource.
func (n *Node) SetDefaultChild(child *Node) error {
	if child == nil || child.parent != n {
		id := ""
		if child != nil {
			id = child.Path()
		}
		return oops.Code("NOT_A_CHILD").
			With("scope", n.Path()).
			With("child", id).
			Wrapf(ErrNotAChild, "%q is not a child of %q", id, n.Path())
	}
	n.defaultChild = child.id
	return nil
}

// DefaultChild returns the designated default child, falling back to a child with id
// "Resource" or "Default".
func (n *Node) DefaultChild() (*Node, bool) {
	if n.defaultChild != "" {
		return n.Child(n.defaultChild)
	}
	if c, ok := n.byID[ResourceID]; ok {
		return c, true
	}
	c, ok := n.byID[DefaultID]
	return c, ok
}

// Walk yields n and every descendant depth-first in child insertion order.
func (n *Node) Walk() iter.Seq[*Node] {
	return func(yield func(*Node) bool) {
		n.walk(yield)
	}
}

func (n *Node) walk(yield func(*Node) bool) bool {
	if !yield(n) {
		return false
	}
	for _, c := range n.children {
		if !c.walk(yield) {
			return false
		}
	}
	return true
}

// Bind attaches the construct object that owns this node.
func (n *Node) Bind(element any) { n.element = element }

// Element returns the object attached with Bind.
func (n *Node) Element() any { return n.element }

// AddWarning records a warning annotation on the node.
func (n *Node) AddWarning(msg string) { n.warnings = append(n.warnings, msg) }

// Warnings returns the node's own warning annotations.
func (n *Node) Warnings() []string { return slices.Clone(n.warnings) }
