package axtree

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Load builds a tree whose document is parsed from markup.
func Load(markup string, opts ...Option) (*Tree, error) {
	t := New(opts...)

	doc, err := t.parseDocument(markup)
	if err != nil {
		return nil, err
	}
	t.buildDocument(doc)

	t.logger.Debug("document loaded", zap.Int("nodes", len(t.nodes)))
	return t, nil
}

func (t *Tree) prepare(markup string) string {
	if t.minify {
		return normalizeMarkup(markup)
	}
	return markup
}

func (t *Tree) parseDocument(markup string) (*html.Node, error) {
	doc, err := html.Parse(strings.NewReader(t.prepare(markup)))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}
	return doc, nil
}

// parseFragment parses markup in a body context.
func (t *Tree) parseFragment(markup string) ([]*html.Node, error) {
	if strings.TrimSpace(markup) == "" {
		return nil, ErrEmptyMarkup
	}

	context := &html.Node{Type: html.ElementNode, Data: "body", DataAtom: atom.Body}
	nodes, err := html.ParseFragment(strings.NewReader(t.prepare(markup)), context)
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML fragment: %w", err)
	}
	return nodes, nil
}

// buildDocument attaches a rootWebArea for doc under the window. The
// document title becomes its name.
func (t *Tree) buildDocument(doc *html.Node) ID {
	t.document = t.add(t.window, RoleRootWebArea, documentTitle(doc), "", nil)
	for c := doc.FirstChild; c != nil; c = c.NextSibling {
		t.build(c, t.document)
	}
	return t.document
}

// buildFragment appends nodes under parent and returns the top-level IDs.
func (t *Tree) buildFragment(nodes []*html.Node, parent ID) []ID {
	var ids []ID
	for _, n := range nodes {
		ids = append(ids, t.build(n, parent)...)
	}
	return ids
}

// build converts n into records under parent. It returns the IDs created
// directly under parent: none for skipped nodes, several for flattened ones.
func (t *Tree) build(n *html.Node, parent ID) []ID {
	switch n.Type {
	case html.TextNode:
		text := collapse(n.Data)
		if text == "" {
			return nil
		}
		return []ID{t.add(parent, RoleStaticText, text, "", nil)}

	case html.ElementNode:
		if skipped[n.DataAtom] || hidden(n) {
			return nil
		}
		if flattened[n.DataAtom] {
			var ids []ID
			for c := n.FirstChild; c != nil; c = c.NextSibling {
				ids = append(ids, t.build(c, parent)...)
			}
			return ids
		}

		role := roleFor(n)
		id := t.add(parent, role, nameFor(n, role), n.Data, attrMap(n))
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			t.build(c, id)
		}
		return []ID{id}

	default:
		// comments and doctypes
		return nil
	}
}

func attrMap(n *html.Node) map[string]string {
	if len(n.Attr) == 0 {
		return nil
	}
	attrs := make(map[string]string, len(n.Attr))
	for _, a := range n.Attr {
		attrs[a.Key] = a.Val
	}
	return attrs
}

func documentTitle(doc *html.Node) string {
	var find func(n *html.Node) string
	find = func(n *html.Node) string {
		if n.Type == html.ElementNode && n.DataAtom == atom.Title {
			return collapse(textContent(n))
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if title := find(c); title != "" {
				return title
			}
		}
		return ""
	}
	return find(doc)
}
