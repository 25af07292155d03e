package axtree

import (
	"fmt"

	"github.com/livefir/anchor"
)

// Handle is a weak reference to a node: a tree and an ID. It implements
// anchor.Node and anchor.Rooted. Once the node is removed every accessor
// reports a stale node.
type Handle struct {
	tree *Tree
	id   ID
}

var (
	_ anchor.Node   = Handle{}
	_ anchor.Rooted = Handle{}
)

func (h Handle) record() *record {
	if h.tree == nil {
		return nil
	}
	return h.tree.nodes[h.id]
}

// ID returns the arena ID of the node.
func (h Handle) ID() ID {
	return h.id
}

// Valid reports whether the node still exists.
func (h Handle) Valid() bool {
	if h.tree == nil {
		return false
	}
	h.tree.mu.RLock()
	defer h.tree.mu.RUnlock()
	return h.record() != nil
}

// Role returns anchor.RoleNone for removed nodes.
func (h Handle) Role() anchor.Role {
	if h.tree == nil {
		return anchor.RoleNone
	}
	h.tree.mu.RLock()
	defer h.tree.mu.RUnlock()

	rec := h.record()
	if rec == nil {
		return anchor.RoleNone
	}
	return rec.role
}

// Parent returns nil at the desktop and for removed nodes.
func (h Handle) Parent() anchor.Node {
	if h.tree == nil {
		return nil
	}
	h.tree.mu.RLock()
	defer h.tree.mu.RUnlock()

	rec := h.record()
	if rec == nil || rec.parent == 0 {
		return nil
	}
	return Handle{tree: h.tree, id: rec.parent}
}

// Children returns handles for the node's children in order.
func (h Handle) Children() []anchor.Node {
	if h.tree == nil {
		return nil
	}
	h.tree.mu.RLock()
	defer h.tree.mu.RUnlock()

	rec := h.record()
	if rec == nil {
		return nil
	}
	out := make([]anchor.Node, len(rec.children))
	for i, id := range rec.children {
		out[i] = Handle{tree: h.tree, id: id}
	}
	return out
}

// IndexInParent returns -1 for the desktop and for removed nodes.
func (h Handle) IndexInParent() int {
	if h.tree == nil {
		return -1
	}
	h.tree.mu.RLock()
	defer h.tree.mu.RUnlock()
	return h.tree.indexOf(h.id)
}

func (t *Tree) indexOf(id ID) int {
	rec, ok := t.nodes[id]
	if !ok {
		return -1
	}
	parent, ok := t.nodes[rec.parent]
	if !ok {
		return -1
	}
	for i, child := range parent.children {
		if child == id {
			return i
		}
	}
	return -1
}

// Root returns the desktop when the node is still connected to it.
func (h Handle) Root() anchor.Node {
	if h.tree == nil {
		return nil
	}
	h.tree.mu.RLock()
	defer h.tree.mu.RUnlock()

	rec := h.record()
	for rec != nil && rec.parent != 0 {
		rec = h.tree.nodes[rec.parent]
	}
	if rec == nil || rec.id != h.tree.root {
		return nil
	}
	return Handle{tree: h.tree, id: rec.id}
}

// Name returns the accessible name.
func (h Handle) Name() string {
	if h.tree == nil {
		return ""
	}
	h.tree.mu.RLock()
	defer h.tree.mu.RUnlock()

	if rec := h.record(); rec != nil {
		return rec.name
	}
	return ""
}

// Tag returns the source element tag, empty for nodes not built from markup.
func (h Handle) Tag() string {
	if h.tree == nil {
		return ""
	}
	h.tree.mu.RLock()
	defer h.tree.mu.RUnlock()

	if rec := h.record(); rec != nil {
		return rec.tag
	}
	return ""
}

// Attr returns a source attribute value.
func (h Handle) Attr(key string) string {
	if h.tree == nil {
		return ""
	}
	h.tree.mu.RLock()
	defer h.tree.mu.RUnlock()

	if rec := h.record(); rec != nil {
		return rec.attrs[key]
	}
	return ""
}

func (h Handle) String() string {
	if h.tree == nil {
		return "<nil>"
	}
	h.tree.mu.RLock()
	defer h.tree.mu.RUnlock()

	rec := h.record()
	if rec == nil {
		return fmt.Sprintf("<stale %d>", h.id)
	}
	s := fmt.Sprintf("%s %d", rec.role, rec.id)
	if rec.name != "" {
		s += fmt.Sprintf(" %q", rec.name)
	}
	if domID := rec.attrs["id"]; domID != "" {
		s += " #" + domID
	}
	return s
}
