package mindmap

// Walk visits the subtree rooted at n in pre-order. Returning false from fn skips that node's children.
func Walk(n *Node, fn func(node *Node, depth int) bool) {
	walk(n, 0, fn)
}

func walk(n *Node, depth int, fn func(*Node, int) bool) {
	if n == nil {
		return
	}
	if !fn(n, depth) {
		return
	}
	for _, c := range n.Children {
		walk(c, depth+1, fn)
	}
}

// BreadthFirst returns the nodes reachable from root level by level, children in their stored order.
// Each node appears once even if the structure was corrupted into a DAG.
func BreadthFirst(root *Node) []*Node {
	if root == nil {
		return nil
	}

	var order []*Node
	seen := make(map[*Node]bool)
	queue := []*Node{root}
	for len(queue) > 0 {
		n := queue[0]
		queue = queue[1:]
		if seen[n] {
			continue
		}
		seen[n] = true
		order = append(order, n)
		queue = append(queue, n.Children...)
	}
	return order
}

// Count returns the number of nodes reachable from root.
func Count(root *Node) int {
	return len(BreadthFirst(root))
}

// Clone creates a deep copy of the subtree rooted at n.
func Clone(n *Node) *Node {
	if n == nil {
		return nil
	}
	c := &Node{
		ID:       n.ID,
		Text:     n.Text,
		Level:    n.Level,
		X:        n.X,
		Y:        n.Y,
		ParentID: n.ParentID,
	}
	if len(n.Children) > 0 {
		c.Children = make([]*Node, len(n.Children))
		for i, child := range n.Children {
			c.Children[i] = Clone(child)
		}
	}
	return c
}

// Detach returns flat copies of nodes with all tree links cleared.
func Detach(nodes []*Node) []*Node {
	out := make([]*Node, len(nodes))
	for i, n := range nodes {
		out[i] = &Node{
			ID:    n.ID,
			Text:  n.Text,
			Level: n.Level,
			X:     n.X,
			Y:     n.Y,
		}
	}
	return out
}
