package anchor

// Snapshot is the ancestry of a node captured once from the live tree.
// It is never refreshed: it is the last known good shape of the path from
// the node up to its boundary ancestor.
type Snapshot struct {
	// Ancestry starts at the captured node and follows parent links.
	// Ancestry[i+1] is the parent of Ancestry[i] at capture time.
	Ancestry []Node

	// ChildIndices is recorded in lock-step with Ancestry when the
	// strategy descends on recovery. ChildIndices[i] is the position of
	// Ancestry[i] within the children of Ancestry[i+1].
	ChildIndices []int
}

// capture walks from node to the root, stopping at the first node whose
// role is boundary. The boundary node is part of the chain and its parent
// is not, unless excludeBoundary asks for the legacy walk that stops
// before appending it. The captured node itself never ends the walk.
func capture(node Node, boundary Role, excludeBoundary, withIndices bool) Snapshot {
	var s Snapshot
	for walker := node; walker != nil; {
		s.Ancestry = append(s.Ancestry, walker)
		if withIndices {
			s.ChildIndices = append(s.ChildIndices, walker.IndexInParent())
		}
		if !excludeBoundary && len(s.Ancestry) > 1 && walker.Role() == boundary {
			break
		}

		walker = walker.Parent()
		if excludeBoundary && walker != nil && walker.Role() == boundary {
			break
		}
	}
	return s
}

// Len returns the number of captured ancestors, the node itself included.
func (s *Snapshot) Len() int {
	return len(s.Ancestry)
}

// FirstValidIndex scans the ancestry from the captured node upward and
// returns the index of the first entry that is still valid and attached.
// It returns 0 when no entry qualifies.
func (s *Snapshot) FirstValidIndex(attached AttachedFunc) int {
	for i, n := range s.Ancestry {
		if isValid(n, attached) {
			return i
		}
	}
	return 0
}

// At returns the captured ancestor at index i, or nil when out of range.
func (s *Snapshot) At(i int) Node {
	if i < 0 || i >= len(s.Ancestry) {
		return nil
	}
	return s.Ancestry[i]
}
