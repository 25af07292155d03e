package anchor

// Role identifies the category of a node in a host tree.
// The empty role means the role is undefined, which is how a host
// reports that the node behind a handle was destroyed or detached.
type Role string

const (
	// RoleNone is the undefined role of a stale node.
	RoleNone Role = ""

	// RoleWindow is the default boundary role that stops ancestry capture.
	RoleWindow Role = "window"
)

// Node is a handle into a live, mutable tree owned by a host
// (an accessibility tree, a DOM, a widget tree).
//
// Parent must be a non-owning reference and must return a nil interface,
// not a typed nil, at the root. Children are ordered and their
// indices are meaningful: IndexInParent of a child equals its position in
// Parent().Children() at the time the call is made.
type Node interface {
	Role() Role
	Parent() Node
	Children() []Node
	IndexInParent() int
}

// Rooted is implemented by hosts that can tell whether a node is still
// attached to a live tree. Root returns nil for detached nodes.
type Rooted interface {
	Root() Node
}

// AttachedFunc reports whether a node is still attached to a live tree.
type AttachedFunc func(Node) bool

// DefaultAttached uses the Rooted capability when the host provides it and
// otherwise treats any node with a defined role as attached.
func DefaultAttached(n Node) bool {
	if n == nil {
		return false
	}
	if r, ok := n.(Rooted); ok {
		return r.Root() != nil
	}
	return n.Role() != RoleNone
}

// IsStale reports whether a handle needs recovery: it is nil or its role
// is undefined.
func IsStale(n Node) bool {
	return n == nil || n.Role() == RoleNone
}

// isValid is the stronger check used when scanning captured ancestry: the
// node must exist, have a role and still be attached.
func isValid(n Node, attached AttachedFunc) bool {
	return n != nil && n.Role() != RoleNone && attached(n)
}
