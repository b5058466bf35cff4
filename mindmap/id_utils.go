package mindmap

import "fmt"

// NodeID formats the positional identifier used for nodes without a source id.
func NodeID(index int) string {
	return fmt.Sprintf("node_%d", index)
}

// EnsureUniqueNodeIDs ensures all nodes have unique, non-empty IDs.
// If any ID is missing or duplicated, every node is renumbered by position and true is returned.
func EnsureUniqueNodeIDs(nodes []*Node) bool {
	if len(nodes) == 0 {
		return false
	}

	seen := make(map[string]bool, len(nodes))
	needsReassignment := false
	for _, n := range nodes {
		if n.ID == "" || seen[n.ID] {
			needsReassignment = true
			break
		}
		seen[n.ID] = true
	}

	if !needsReassignment {
		return false
	}

	// Renumber everything so connections can't silently point at the wrong duplicate
	for i, n := range nodes {
		n.ID = NodeID(i)
	}
	return true
}
