package axtree

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os/exec"
	"testing"
	"time"

	"github.com/chromedp/cdproto/accessibility"
	"github.com/chromedp/cdproto/cdp"
	"github.com/livefir/anchor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func axValue(s string) *accessibility.Value {
	return &accessibility.Value{Value: []byte(fmt.Sprintf("%q", s))}
}

func axNodes() []*accessibility.Node {
	return []*accessibility.Node{
		{NodeID: "1", Role: axValue("RootWebArea"), Name: axValue("Page"), ChildIDs: []accessibility.NodeID{"2", "3"}},
		{NodeID: "2", ParentID: "1", Ignored: true, Role: axValue("none"), ChildIDs: []accessibility.NodeID{"4"}},
		{NodeID: "3", ParentID: "1", Role: axValue("StaticText"), Name: axValue("hello")},
		{NodeID: "4", ParentID: "2", Role: axValue("button"), Name: axValue("Go"), BackendDOMNodeID: cdp.BackendNodeID(42), ChildIDs: []accessibility.NodeID{"1"}},
	}
}

func TestFromAXNodes(t *testing.T) {
	tree, err := FromAXNodes(axNodes())
	require.NoError(t, err)

	doc := tree.Document()
	require.True(t, doc.Valid())
	assert.Equal(t, anchor.Role("RootWebArea"), doc.Role())
	assert.Equal(t, "Page", doc.Name())
	assert.Equal(t, tree.Window(), doc.Parent())

	children := doc.Children()
	require.Len(t, children, 2, "the ignored node is replaced by its child")
	button := children[0].(Handle)
	assert.Equal(t, RoleButton, button.Role())
	assert.Equal(t, "Go", button.Name())
	assert.Equal(t, "42", button.Attr("backend_dom_node_id"))
	assert.Equal(t, "4", button.Attr("ax_id"))
	assert.Empty(t, button.Children(), "the cycle back to the root is not followed")

	assert.Equal(t, anchor.Role("StaticText"), children[1].Role())
	assert.Equal(t, 5, tree.Len())
}

func TestFromAXNodes_Errors(t *testing.T) {
	_, err := FromAXNodes(nil)
	assert.ErrorIs(t, err, ErrNoAXRoot)

	orphans := []*accessibility.Node{{NodeID: "9", ParentID: "8"}}
	_, err = FromAXNodes(orphans)
	assert.ErrorIs(t, err, ErrNoAXRoot)
}

func TestFromAXNodes_RecoveryAfterReload(t *testing.T) {
	tree, err := FromAXNodes(axNodes())
	require.NoError(t, err)
	button := tree.Document().Children()[0]
	s := anchor.NewTreePath(button)

	require.NoError(t, tree.Remove(tree.Document()))
	_, err = tree.Rerender(`<button>Go</button>`)
	require.NoError(t, err)

	got := s.Node()
	assert.Equal(t, RoleButton, got.Role())
	assert.False(t, s.RequiresRecovery())
}

func TestAXString(t *testing.T) {
	assert.Equal(t, "", axString(nil))
	assert.Equal(t, "", axString(&accessibility.Value{}))
	assert.Equal(t, "", axString(&accessibility.Value{Value: []byte("12")}))
	assert.Equal(t, "ok", axString(axValue("ok")))
}

func TestFetch(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping browser test in short mode")
	}
	if _, err := exec.LookPath("google-chrome"); err != nil {
		if _, err := exec.LookPath("chromium"); err != nil {
			t.Skip("no Chrome binary available")
		}
	}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		fmt.Fprint(w, inboxHTML)
	}))
	defer server.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	tree, err := Fetch(ctx, server.URL)
	require.NoError(t, err)

	button, err := tree.Find(func(h Handle) bool {
		return h.Role() == RoleButton && h.Name() == "Open"
	})
	require.NoError(t, err)
	assert.NotEmpty(t, button.Attr("backend_dom_node_id"))
}
