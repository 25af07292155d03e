package anchor

// Kind selects how a Strategy recovers a stale node.
type Kind int

const (
	// NoRecovery keeps the stale node.
	NoRecovery Kind = iota
	// AncestorMatch returns the nearest captured ancestor that is still valid.
	AncestorMatch
	// PathDescent finds the nearest valid ancestor and walks back down using
	// the captured child indices.
	PathDescent
)

// String returns the configuration name of the kind.
func (k Kind) String() string {
	switch k {
	case NoRecovery:
		return "none"
	case AncestorMatch:
		return "ancestry"
	case PathDescent:
		return "tree_path"
	default:
		return "unknown"
	}
}

// ParseKind maps a configuration name back to a Kind.
func ParseKind(name string) (Kind, bool) {
	switch name {
	case "none":
		return NoRecovery, true
	case "ancestry":
		return AncestorMatch, true
	case "tree_path":
		return PathDescent, true
	}
	return NoRecovery, false
}

// Result is what a RecoverFunc found.
type Result struct {
	// Node is the recovered handle, nil when nothing could be recovered.
	Node Node
	// AncestorIndex is the ancestry index recovery started from.
	AncestorIndex int
	// Descended counts the child links followed below that ancestor.
	Descended int
	// Outcome classifies the result.
	Outcome Outcome
}

// RecoverFunc computes a replacement for a stale node from its snapshot.
// It must not mutate the snapshot or the tree.
type RecoverFunc func(s *Snapshot, attached AttachedFunc) Result

func recovererFor(k Kind) RecoverFunc {
	switch k {
	case AncestorMatch:
		return recoverAncestor
	case PathDescent:
		return recoverPath
	default:
		return recoverNothing
	}
}

func recoverNothing(*Snapshot, AttachedFunc) Result {
	return Result{Outcome: OutcomeUnrecovered}
}

func recoverAncestor(s *Snapshot, attached AttachedFunc) Result {
	index := s.FirstValidIndex(attached)
	node := s.At(index)
	return Result{
		Node:          node,
		AncestorIndex: index,
		Outcome:       classify(node, index, 0, attached),
	}
}

func recoverPath(s *Snapshot, attached AttachedFunc) Result {
	index := s.FirstValidIndex(attached)
	if index == 0 {
		node := s.At(0)
		return Result{Node: node, Outcome: classify(node, 0, 0, attached)}
	}

	node := s.Ancestry[index]
	descended := 0
	for j := index - 1; j >= 0; j-- {
		children := node.Children()
		childIndex := s.ChildIndices[j]
		if childIndex < 0 || childIndex >= len(children) || children[childIndex] == nil {
			break
		}
		node = children[childIndex]
		descended++
	}

	return Result{
		Node:          node,
		AncestorIndex: index,
		Descended:     descended,
		Outcome:       classify(node, index, descended, attached),
	}
}

// classify labels a recovery. Starting at index 0 is only exact when the
// captured node itself is valid; otherwise FirstValidIndex fell back.
func classify(node Node, index, descended int, attached AttachedFunc) Outcome {
	switch {
	case index == 0 && isValid(node, attached):
		return OutcomeExact
	case index == 0:
		return OutcomeUnrecovered
	case descended == index:
		return OutcomeExact
	default:
		return OutcomeAncestor
	}
}
