// Package anchor keeps references into mutable UI trees usable after the
// node they point at is destroyed.
//
// A Strategy wraps a Node handle and captures its ancestry when created.
// Every read through Strategy.Node re-validates the handle; when the host
// has destroyed or detached the node, the strategy recovers an equivalent
// handle from the captured ancestry instead of failing:
//
//	s := anchor.NewTreePath(focused)
//	// ... the host re-renders the subtree ...
//	node := s.Node() // same position in the new tree, or its nearest surviving ancestor
//
// Recovery never returns an error. When nothing survives, the stale handle
// is returned and callers detect it with IsStale.
package anchor

import "go.uber.org/zap"

// Strategy mediates access to a node that may go stale.
//
// A Strategy is not safe for concurrent use. It never mutates the tree;
// it only replaces its own current handle when recovery succeeds.
type Strategy struct {
	current   Node
	snapshot  Snapshot
	kind      Kind
	opts      options
	recoverFn RecoverFunc
}

// New creates a strategy of the given kind for node.
func New(node Node, kind Kind, opts ...Option) *Strategy {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	fn := o.recoverFn
	if fn == nil {
		fn = recovererFor(kind)
	}

	withIndices := kind == PathDescent || o.recoverFn != nil
	withAncestry := kind != NoRecovery || o.recoverFn != nil

	s := &Strategy{
		current:   node,
		kind:      kind,
		opts:      o,
		recoverFn: fn,
	}
	if withAncestry {
		s.snapshot = capture(node, o.boundary, o.excludeBoundary, withIndices)
	}
	return s
}

// NewBasic creates a strategy that validates but never recovers.
func NewBasic(node Node, opts ...Option) *Strategy {
	return New(node, NoRecovery, opts...)
}

// NewAncestry creates a strategy that recovers to the nearest surviving ancestor.
func NewAncestry(node Node, opts ...Option) *Strategy {
	return New(node, AncestorMatch, opts...)
}

// NewTreePath creates a strategy that recovers by re-walking captured child
// positions below the nearest surviving ancestor.
func NewTreePath(node Node, opts ...Option) *Strategy {
	return New(node, PathDescent, opts...)
}

// Node returns the current handle, recovering it first when it is stale.
// If recovery yields nothing the stale handle is kept and returned.
func (s *Strategy) Node() Node {
	if !s.RequiresRecovery() {
		return s.current
	}

	res := s.recoverFn(&s.snapshot, s.opts.attached)
	if res.Node != nil {
		s.current = res.Node
	}
	s.report(res)
	return s.current
}

// RequiresRecovery reports whether the current handle is stale, without
// attempting recovery.
func (s *Strategy) RequiresRecovery() bool {
	return IsStale(s.current)
}

// Kind returns the recovery kind the strategy was created with.
func (s *Strategy) Kind() Kind {
	return s.kind
}

// Name returns the label set with WithName.
func (s *Strategy) Name() string {
	return s.opts.name
}

// Snapshot returns a copy of the captured ancestry.
func (s *Strategy) Snapshot() Snapshot {
	return Snapshot{
		Ancestry:     append([]Node(nil), s.snapshot.Ancestry...),
		ChildIndices: append([]int(nil), s.snapshot.ChildIndices...),
	}
}

func (s *Strategy) report(res Result) {
	event := Event{
		Name:          s.opts.name,
		Kind:          s.kind,
		Outcome:       res.Outcome,
		AncestorIndex: res.AncestorIndex,
		Descended:     res.Descended,
		Depth:         s.snapshot.Len(),
	}

	s.opts.logger.Debug("node recovered",
		zap.String("name", event.Name),
		zap.Stringer("kind", event.Kind),
		zap.Stringer("outcome", event.Outcome),
		zap.Int("ancestor_index", event.AncestorIndex),
		zap.Int("descended", event.Descended),
		zap.Int("depth", event.Depth))

	if s.opts.observer != nil {
		s.opts.observer.ObserveRecovery(event)
	}
}
