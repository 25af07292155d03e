package anchor

// fakeNode is a minimal host tree used by the strategy tests.
type fakeNode struct {
	name     string
	role     Role
	parent   *fakeNode
	children []*fakeNode
	detached bool
}

func newFake(name string, role Role, children ...*fakeNode) *fakeNode {
	n := &fakeNode{name: name, role: role}
	for _, c := range children {
		n.appendChild(c)
	}
	return n
}

func (n *fakeNode) appendChild(c *fakeNode) {
	if c != nil {
		c.parent = n
	}
	n.children = append(n.children, c)
}

// setChild replaces the child at i, growing the slice with empty slots.
func (n *fakeNode) setChild(i int, c *fakeNode) {
	for len(n.children) <= i {
		n.children = append(n.children, nil)
	}
	if old := n.children[i]; old != nil {
		old.parent = nil
	}
	c.parent = n
	n.children[i] = c
}

func (n *fakeNode) Role() Role { return n.role }

func (n *fakeNode) Parent() Node {
	if n.parent == nil {
		return nil
	}
	return n.parent
}

func (n *fakeNode) Children() []Node {
	out := make([]Node, len(n.children))
	for i, c := range n.children {
		if c != nil {
			out[i] = c
		}
	}
	return out
}

func (n *fakeNode) IndexInParent() int {
	if n.parent == nil {
		return -1
	}
	for i, c := range n.parent.children {
		if c == n {
			return i
		}
	}
	return -1
}

func (n *fakeNode) Root() Node {
	if n.detached || n.role == RoleNone {
		return nil
	}
	r := n
	for r.parent != nil {
		if r.parent.detached {
			return nil
		}
		r = r.parent
	}
	return r
}

// destroy marks n and its subtree dead, the way a host reports deleted nodes.
func destroy(n *fakeNode) {
	n.role = RoleNone
	n.detached = true
	for _, c := range n.children {
		if c != nil {
			destroy(c)
		}
	}
}

func nodeName(n Node) string {
	if f, ok := n.(*fakeNode); ok && f != nil {
		return f.name
	}
	return "<nil>"
}

// remove destroys n and unlinks it from its parent, shifting later siblings.
func remove(n *fakeNode) {
	if p := n.parent; p != nil {
		i := n.IndexInParent()
		p.children = append(p.children[:i], p.children[i+1:]...)
		n.parent = nil
	}
	destroy(n)
}
