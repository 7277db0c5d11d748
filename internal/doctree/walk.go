package doctree

// Action tells Walk how to proceed after visiting a node.
type Action int

const (
	// Continue descends into the node's children.
	Continue Action = iota
	// SkipChildren moves to the next sibling without descending.
	SkipChildren
)

// Visitor is called once per node in depth-first pre-order. Returning a
// non-nil replacement swaps the node in its parent's child list; the
// replacement's subtree is not visited in the same walk, and the old subtree
// is abandoned. Replacement is applied by the walker, never by the visitor
// mutating live iteration state.
type Visitor func(n *Node) (Action, *Node)

// Walk traverses a forest of nodes in document order. Traversal order is
// deterministic and independent of what earlier visitors replaced, so error
// messages produced during a walk are reproducible across runs.
func Walk(forest []*Node, v Visitor) {
	walkSlice(forest, v)
}

func walkSlice(nodes []*Node, v Visitor) {
	for i := range nodes {
		action, replacement := v(nodes[i])
		if replacement != nil {
			nodes[i] = replacement
			continue
		}
		if action == SkipChildren {
			continue
		}
		walkSlice(nodes[i].Children, v)
	}
}
