package axtree

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/chromedp/cdproto/accessibility"
	"github.com/chromedp/chromedp"
	"github.com/livefir/anchor"
	"go.uber.org/zap"
)

// ErrNoAXRoot is returned when a CDP accessibility tree has no root node.
var ErrNoAXRoot = errors.New("accessibility tree has no root")

// FromAXNodes builds a tree from the nodes returned by Chrome's
// Accessibility.getFullAXTree. The AX root becomes the document. Ignored
// nodes are left out and their children are attached to the nearest
// included ancestor.
func FromAXNodes(nodes []*accessibility.Node, opts ...Option) (*Tree, error) {
	byID := make(map[accessibility.NodeID]*accessibility.Node, len(nodes))
	var root *accessibility.Node
	for _, n := range nodes {
		if n == nil {
			continue
		}
		byID[n.NodeID] = n
		if root == nil && n.ParentID == "" {
			root = n
		}
	}
	if root == nil {
		return nil, ErrNoAXRoot
	}

	t := New(opts...)
	visited := make(map[accessibility.NodeID]bool, len(nodes))

	var add func(n *accessibility.Node, parent ID)
	add = func(n *accessibility.Node, parent ID) {
		if visited[n.NodeID] {
			return
		}
		visited[n.NodeID] = true

		id := parent
		if !n.Ignored || n == root {
			id = t.add(parent, axRole(n), axString(n.Name), "", axAttrs(n))
		}
		for _, childID := range n.ChildIDs {
			if child, ok := byID[childID]; ok {
				add(child, id)
			}
		}
	}
	add(root, t.window)

	if children := t.nodes[t.window].children; len(children) > 0 {
		t.document = children[0]
	}

	t.logger.Debug("accessibility tree loaded",
		zap.Int("cdp_nodes", len(nodes)),
		zap.Int("nodes", len(t.nodes)))
	return t, nil
}

// Fetch opens url in a headless browser and loads its accessibility tree.
func Fetch(ctx context.Context, url string, opts ...Option) (*Tree, error) {
	allocOpts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
	)

	allocCtx, cancel := chromedp.NewExecAllocator(ctx, allocOpts...)
	defer cancel()

	browserCtx, cancel := chromedp.NewContext(allocCtx)
	defer cancel()

	var nodes []*accessibility.Node
	err := chromedp.Run(browserCtx,
		chromedp.Navigate(url),
		chromedp.ActionFunc(func(ctx context.Context) error {
			if err := accessibility.Enable().Do(ctx); err != nil {
				return err
			}
			var err error
			nodes, err = accessibility.GetFullAXTree().Do(ctx)
			return err
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch accessibility tree of %s: %w", url, err)
	}

	return FromAXNodes(nodes, opts...)
}

func axRole(n *accessibility.Node) anchor.Role {
	role := axString(n.Role)
	if role == "" {
		return RoleGeneric
	}
	return anchor.Role(role)
}

// axString decodes string-typed AX values. Other value types yield "".
func axString(v *accessibility.Value) string {
	if v == nil || len(v.Value) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal([]byte(v.Value), &s); err != nil {
		return ""
	}
	return s
}

func axAttrs(n *accessibility.Node) map[string]string {
	attrs := map[string]string{"ax_id": string(n.NodeID)}
	if n.BackendDOMNodeID != 0 {
		attrs["backend_dom_node_id"] = strconv.FormatInt(int64(n.BackendDOMNodeID), 10)
	}
	return attrs
}
