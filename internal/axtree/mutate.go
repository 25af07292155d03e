package axtree

import (
	"fmt"
	"strings"

	"github.com/livefir/anchor"
	"go.uber.org/zap"
)

// Remove deletes n and its subtree. Handles to removed nodes go stale.
func (t *Tree) Remove(n anchor.Node) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	rec, err := t.resolve(n)
	if err != nil {
		return err
	}
	if t.protected(rec) {
		return ErrProtectedNode
	}

	t.unlink(rec)
	removed := t.drop(rec.id)

	t.logger.Debug("node removed",
		zap.Int64("id", int64(rec.id)),
		zap.String("role", string(rec.role)),
		zap.Int("records", removed))
	return nil
}

// Replace re-renders n from markup at the same position, the way a UI
// framework rebuilds a component. The new nodes get fresh IDs, so handles
// into the old subtree go stale.
func (t *Tree) Replace(n anchor.Node, markup string) ([]Handle, error) {
	nodes, err := t.parseFragment(markup)
	if err != nil {
		return nil, err
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	rec, err := t.resolve(n)
	if err != nil {
		return nil, err
	}
	if t.protected(rec) {
		return nil, ErrProtectedNode
	}
	parent, ok := t.nodes[rec.parent]
	if !ok {
		return nil, fmt.Errorf("id %d has no parent: %w", rec.id, ErrDetached)
	}

	ids := t.buildFragment(nodes, parent.id)
	if len(ids) == 0 {
		return nil, ErrEmptyMarkup
	}
	index := t.unlink(rec)
	removed := t.drop(rec.id)
	t.insertAt(parent, ids, index)

	t.logger.Debug("subtree replaced",
		zap.Int64("id", int64(rec.id)),
		zap.Int("index", index),
		zap.Int("removed", removed),
		zap.Int("added", len(ids)))
	return t.handles(ids), nil
}

// ReplaceChildren removes every child of n and builds new ones from markup.
// Empty markup just clears the children.
func (t *Tree) ReplaceChildren(n anchor.Node, markup string) ([]Handle, error) {
	var ids []ID

	t.mu.Lock()
	defer t.mu.Unlock()

	rec, err := t.resolve(n)
	if err != nil {
		return nil, err
	}
	if rec.id == t.root {
		return nil, ErrProtectedNode
	}

	for _, child := range rec.children {
		t.drop(child)
	}
	rec.children = nil

	if strings.TrimSpace(markup) != "" {
		nodes, err := t.parseFragment(markup)
		if err != nil {
			return nil, err
		}
		ids = t.buildFragment(nodes, rec.id)
	}

	t.logger.Debug("children replaced",
		zap.Int64("id", int64(rec.id)),
		zap.Int("added", len(ids)))
	return t.handles(ids), nil
}

// Insert builds markup under parent at index. An index past the end appends.
func (t *Tree) Insert(parent anchor.Node, index int, markup string) ([]Handle, error) {
	nodes, err := t.parseFragment(markup)
	if err != nil {
		return nil, err
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	rec, err := t.resolve(parent)
	if err != nil {
		return nil, err
	}
	if rec.id == t.root {
		return nil, ErrProtectedNode
	}

	ids := t.buildFragment(nodes, rec.id)
	if len(ids) == 0 {
		return nil, ErrEmptyMarkup
	}
	t.insertAt(rec, ids, index)

	t.logger.Debug("nodes inserted",
		zap.Int64("parent", int64(rec.id)),
		zap.Int("index", index),
		zap.Int("added", len(ids)))
	return t.handles(ids), nil
}

// Rerender replaces the whole document below the window with one parsed
// from markup. The window survives, which is what lets strategies bounded
// by it recover into the new document.
func (t *Tree) Rerender(markup string) (Handle, error) {
	doc, err := t.parseDocument(markup)
	if err != nil {
		return Handle{}, err
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	removed := 0
	if rec, ok := t.nodes[t.document]; ok {
		t.unlink(rec)
		removed = t.drop(rec.id)
	}
	id := t.buildDocument(doc)

	t.logger.Debug("document rerendered",
		zap.Int64("document", int64(id)),
		zap.Int("removed", removed))
	return Handle{tree: t, id: id}, nil
}

// SetRole changes the role of n in place. Setting anchor.RoleNone makes
// handles to n stale without removing it.
func (t *Tree) SetRole(n anchor.Node, role anchor.Role) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	rec, err := t.resolve(n)
	if err != nil {
		return err
	}
	previous := rec.role
	rec.role = role

	t.logger.Debug("role changed",
		zap.Int64("id", int64(rec.id)),
		zap.String("from", string(previous)),
		zap.String("to", string(role)))
	return nil
}

func (t *Tree) handles(ids []ID) []Handle {
	out := make([]Handle, len(ids))
	for i, id := range ids {
		out[i] = Handle{tree: t, id: id}
	}
	return out
}
