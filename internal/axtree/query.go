package axtree

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/livefir/anchor"
)

// Select resolves a selector against the current document.
//
// "#name" matches the element whose id attribute is name. Anything else is
// a role path below the document such as "main/list/listItem[2]", where
// [n] picks the n-th child with that role (1-based). The empty selector
// selects the document itself.
func (t *Tree) Select(selector string) (Handle, error) {
	selector = strings.TrimSpace(selector)
	if strings.HasPrefix(selector, "#") {
		return t.FindByDOMID(selector[1:])
	}

	t.mu.RLock()
	defer t.mu.RUnlock()

	current, ok := t.nodes[t.document]
	if !ok {
		return Handle{}, fmt.Errorf("no document loaded: %w", ErrNodeNotFound)
	}

	for _, segment := range strings.Split(selector, "/") {
		if segment == "" {
			continue
		}
		role, nth, err := parseSegment(segment)
		if err != nil {
			return Handle{}, fmt.Errorf("selector %q: %w", selector, err)
		}

		next := t.nthChild(current, role, nth)
		if next == nil {
			return Handle{}, fmt.Errorf("selector %q at %q: %w", selector, segment, ErrNodeNotFound)
		}
		current = next
	}

	return Handle{tree: t, id: current.id}, nil
}

func parseSegment(segment string) (anchor.Role, int, error) {
	open := strings.IndexByte(segment, '[')
	if open < 0 {
		return anchor.Role(segment), 1, nil
	}
	if !strings.HasSuffix(segment, "]") || open == 0 {
		return "", 0, fmt.Errorf("malformed segment %q", segment)
	}
	nth, err := strconv.Atoi(segment[open+1 : len(segment)-1])
	if err != nil || nth < 1 {
		return "", 0, fmt.Errorf("malformed index in %q", segment)
	}
	return anchor.Role(segment[:open]), nth, nil
}

func (t *Tree) nthChild(rec *record, role anchor.Role, nth int) *record {
	seen := 0
	for _, id := range rec.children {
		child, ok := t.nodes[id]
		if !ok || child.role != role {
			continue
		}
		seen++
		if seen == nth {
			return child
		}
	}
	return nil
}

// Path returns the role path of n below the document, in the form accepted
// by Select. Nodes above the document return their role; stale nodes
// return the empty string.
func (t *Tree) Path(n anchor.Node) string {
	t.mu.RLock()
	defer t.mu.RUnlock()

	rec, err := t.resolve(n)
	if err != nil {
		return ""
	}

	start := rec
	var segments []string
	for rec.id != t.document {
		parent, ok := t.nodes[rec.parent]
		if !ok {
			// ran past the desktop without meeting the document
			return string(start.role)
		}
		segments = append(segments, t.segment(parent, rec))
		rec = parent
	}

	for i, j := 0, len(segments)-1; i < j; i, j = i+1, j-1 {
		segments[i], segments[j] = segments[j], segments[i]
	}
	return strings.Join(segments, "/")
}

func (t *Tree) segment(parent, rec *record) string {
	position := 0
	for _, id := range parent.children {
		sibling, ok := t.nodes[id]
		if !ok || sibling.role != rec.role {
			continue
		}
		position++
		if id == rec.id {
			break
		}
	}
	if position > 1 {
		return fmt.Sprintf("%s[%d]", rec.role, position)
	}
	return string(rec.role)
}

// Dump writes an indented outline of the tree.
func (t *Tree) Dump(w io.Writer) error {
	var err error
	t.Walk(func(h Handle, depth int) bool {
		if err != nil {
			return false
		}
		_, err = fmt.Fprintf(w, "%s%s\n", strings.Repeat("  ", depth), h)
		return true
	})
	return err
}
