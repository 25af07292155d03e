package anchor

import (
	"fmt"
	"testing"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fakeRoles = []string{"group", "button", "link", "list", "listItem", "heading", "paragraph"}

// randomTree grows a window-rooted tree and returns it with all its nodes.
func randomTree(f *gofakeit.Faker, depth int) (*fakeNode, []*fakeNode) {
	root := newFake("window", RoleWindow)
	all := []*fakeNode{root}

	var grow func(parent *fakeNode, level int)
	grow = func(parent *fakeNode, level int) {
		if level >= depth {
			return
		}
		for i := f.IntRange(1, 4); i > 0; i-- {
			child := newFake(fmt.Sprintf("%s-%d", f.Noun(), len(all)), Role(f.RandomString(fakeRoles)))
			parent.appendChild(child)
			all = append(all, child)
			grow(child, level+1)
		}
	}
	grow(root, 0)

	return root, all
}

func TestProperty_RandomTrees(t *testing.T) {
	f := gofakeit.New(20240611)

	for round := 0; round < 200; round++ {
		root, all := randomTree(f, f.IntRange(1, 5))
		target := all[f.IntRange(1, len(all)-1)]

		path := NewTreePath(target)
		ancestry := NewAncestry(target)

		snap := path.Snapshot()
		require.Equal(t, snap.Len(), len(snap.ChildIndices), "round %d: lock-step", round)
		require.Same(t, target, snap.Ancestry[0])
		require.Same(t, root, snap.Ancestry[snap.Len()-1])

		// untouched tree: reads never recover
		require.Same(t, target, path.Node())

		victim := all[f.IntRange(0, len(all)-1)]
		remove(victim)

		for _, s := range []*Strategy{path, ancestry} {
			got := s.Node()
			require.NotNil(t, got, "round %d", round)

			anyValid := false
			for _, n := range snap.Ancestry {
				if isValid(n, DefaultAttached) {
					anyValid = true
					break
				}
			}

			if !anyValid {
				assert.Same(t, target, got, "round %d: fallback keeps the original", round)
				continue
			}
			assert.False(t, IsStale(got), "round %d: recovered node must be live", round)
		}
	}
}
