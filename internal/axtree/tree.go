// Package axtree is an in-memory accessibility tree that hosts anchor
// strategies. Nodes live in an arena keyed by ID and handles resolve their
// ID on every access, so a handle to a removed node goes stale instead of
// keeping the removed subtree alive.
package axtree

import (
	"errors"
	"fmt"
	"sync"

	"github.com/livefir/anchor"
	"go.uber.org/zap"
)

// ID identifies a node within one Tree. IDs are never reused.
type ID int64

var (
	// ErrNodeNotFound is returned when a lookup matches nothing.
	ErrNodeNotFound = errors.New("node not found")

	// ErrDetached is returned when a mutation targets a node that is no
	// longer part of the tree.
	ErrDetached = errors.New("node is detached")

	// ErrEmptyMarkup is returned when markup produces no nodes.
	ErrEmptyMarkup = errors.New("markup produced no nodes")

	// ErrProtectedNode is returned when a mutation targets the desktop or window node.
	ErrProtectedNode = errors.New("desktop and window nodes cannot be mutated")
)

type record struct {
	id       ID
	role     anchor.Role
	name     string
	tag      string
	attrs    map[string]string
	parent   ID
	children []ID
}

// Tree is a mutable accessibility tree: desktop -> window -> document -> content.
//
// Thread-safe: reads through handles take a read lock, mutations take the
// write lock.
type Tree struct {
	mu       sync.RWMutex
	nodes    map[ID]*record
	nextID   ID
	root     ID
	window   ID
	document ID

	logger *zap.Logger
	minify bool
}

// Option configures a Tree.
type Option func(*Tree)

// WithLogger sets the logger used for mutation debug output.
func WithLogger(logger *zap.Logger) Option {
	return func(t *Tree) {
		if logger != nil {
			t.logger = logger
		}
	}
}

// WithoutMinify keeps markup as written. Whitespace-only text is still dropped.
func WithoutMinify() Option {
	return func(t *Tree) { t.minify = false }
}

// New creates a tree holding only the desktop and window nodes.
func New(opts ...Option) *Tree {
	t := &Tree{
		nodes:  make(map[ID]*record),
		logger: zap.NewNop(),
		minify: true,
	}
	for _, opt := range opts {
		opt(t)
	}

	t.root = t.add(0, RoleDesktop, "", "", nil)
	t.window = t.add(t.root, anchor.RoleWindow, "", "", nil)
	return t
}

// add creates a record and appends it to parent. Callers hold the write lock
// or own the tree exclusively.
func (t *Tree) add(parent ID, role anchor.Role, name, tag string, attrs map[string]string) ID {
	t.nextID++
	id := t.nextID
	t.nodes[id] = &record{
		id:     id,
		role:   role,
		name:   name,
		tag:    tag,
		attrs:  attrs,
		parent: parent,
	}
	if p, ok := t.nodes[parent]; ok {
		p.children = append(p.children, id)
	}
	return id
}

// Root returns the desktop node.
func (t *Tree) Root() Handle {
	return Handle{tree: t, id: t.root}
}

// Window returns the window node, the default recovery boundary.
func (t *Tree) Window() Handle {
	return Handle{tree: t, id: t.window}
}

// Document returns the current document node. The zero Handle is returned
// when no document is loaded.
func (t *Tree) Document() Handle {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if _, ok := t.nodes[t.document]; !ok {
		return Handle{}
	}
	return Handle{tree: t, id: t.document}
}

// Lookup returns the handle for id if the node exists.
func (t *Tree) Lookup(id ID) (Handle, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if _, ok := t.nodes[id]; !ok {
		return Handle{}, fmt.Errorf("id %d: %w", id, ErrNodeNotFound)
	}
	return Handle{tree: t, id: id}, nil
}

// Len returns the number of live nodes, desktop and window included.
func (t *Tree) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.nodes)
}

// Walk visits live nodes depth-first starting at the desktop. Returning
// false from fn skips the node's children. The tree is not locked while fn
// runs, so fn may use handles and mutate the tree; later visits reflect the
// tree as it was when Walk started.
func (t *Tree) Walk(fn func(h Handle, depth int) bool) {
	type visit struct {
		id    ID
		depth int
	}

	t.mu.RLock()
	var order []visit
	var collect func(id ID, depth int)
	collect = func(id ID, depth int) {
		rec, ok := t.nodes[id]
		if !ok {
			return
		}
		order = append(order, visit{id: id, depth: depth})
		for _, child := range rec.children {
			collect(child, depth+1)
		}
	}
	collect(t.root, 0)
	t.mu.RUnlock()

	skipBelow := -1
	for _, v := range order {
		if skipBelow >= 0 {
			if v.depth > skipBelow {
				continue
			}
			skipBelow = -1
		}
		if !fn(Handle{tree: t, id: v.id}, v.depth) {
			skipBelow = v.depth
		}
	}
}

// Find returns the first node, in depth-first order, matching pred.
func (t *Tree) Find(pred func(Handle) bool) (Handle, error) {
	var found Handle
	t.Walk(func(h Handle, _ int) bool {
		if found.tree != nil {
			return false
		}
		if pred(h) {
			found = h
			return false
		}
		return true
	})
	if found.tree == nil {
		return Handle{}, ErrNodeNotFound
	}
	return found, nil
}

// FindByDOMID returns the node whose markup carried id="domID".
func (t *Tree) FindByDOMID(domID string) (Handle, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if id, ok := t.findRecord(t.root, func(rec *record) bool {
		return rec.attrs["id"] == domID
	}); ok {
		return Handle{tree: t, id: id}, nil
	}
	return Handle{}, fmt.Errorf("#%s: %w", domID, ErrNodeNotFound)
}

// findRecord searches the subtree at id depth-first. Callers hold a lock.
func (t *Tree) findRecord(id ID, pred func(*record) bool) (ID, bool) {
	rec, ok := t.nodes[id]
	if !ok {
		return 0, false
	}
	if pred(rec) {
		return id, true
	}
	for _, child := range rec.children {
		if found, ok := t.findRecord(child, pred); ok {
			return found, true
		}
	}
	return 0, false
}

// resolve converts a node to a live record of this tree.
func (t *Tree) resolve(n anchor.Node) (*record, error) {
	h, ok := n.(Handle)
	if !ok || h.tree != t {
		return nil, fmt.Errorf("node does not belong to this tree: %w", ErrNodeNotFound)
	}
	rec, ok := t.nodes[h.id]
	if !ok {
		return nil, fmt.Errorf("id %d: %w", h.id, ErrDetached)
	}
	return rec, nil
}

// unlink removes id from its parent's children and returns its former position.
func (t *Tree) unlink(rec *record) int {
	parent, ok := t.nodes[rec.parent]
	if !ok {
		return -1
	}
	for i, child := range parent.children {
		if child == rec.id {
			parent.children = append(parent.children[:i], parent.children[i+1:]...)
			return i
		}
	}
	return -1
}

// drop deletes a subtree from the arena and returns the number of records removed.
func (t *Tree) drop(id ID) int {
	rec, ok := t.nodes[id]
	if !ok {
		return 0
	}
	removed := 1
	for _, child := range rec.children {
		removed += t.drop(child)
	}
	delete(t.nodes, id)
	if id == t.document {
		t.document = 0
	}
	return removed
}

// insertAt moves freshly built children of parent (appended at the end by
// add) to position index.
func (t *Tree) insertAt(parent *record, ids []ID, index int) {
	if index < 0 || index >= len(parent.children)-len(ids) {
		return
	}
	kept := parent.children[:len(parent.children)-len(ids)]
	reordered := make([]ID, 0, len(parent.children))
	reordered = append(reordered, kept[:index]...)
	reordered = append(reordered, ids...)
	reordered = append(reordered, kept[index:]...)
	parent.children = reordered
}

func (t *Tree) protected(rec *record) bool {
	return rec.id == t.root || rec.id == t.window
}
