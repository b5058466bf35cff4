package mindmap_test

import (
	"testing"

	"mindreel/mindmap"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleTree() (*mindmap.Node, []*mindmap.Node) {
	root := &mindmap.Node{ID: "node_0", Text: "Root"}
	a := &mindmap.Node{ID: "node_1", Text: "A", Level: 1}
	b := &mindmap.Node{ID: "node_2", Text: "B", Level: 1}
	a1 := &mindmap.Node{ID: "node_3", Text: "A1", Level: 2}
	root.AddChild(a)
	root.AddChild(b)
	a.AddChild(a1)
	return root, []*mindmap.Node{root, a, b, a1}
}

func TestBreadthFirst(t *testing.T) {
	root, _ := sampleTree()

	var texts []string
	for _, n := range mindmap.BreadthFirst(root) {
		texts = append(texts, n.Text)
	}
	assert.Equal(t, []string{"Root", "A", "B", "A1"}, texts)
	assert.Nil(t, mindmap.BreadthFirst(nil))
}

func TestWalkDepthAndPruning(t *testing.T) {
	root, _ := sampleTree()

	depths := map[string]int{}
	mindmap.Walk(root, func(n *mindmap.Node, depth int) bool {
		depths[n.Text] = depth
		return n.Text != "A"
	})

	assert.Equal(t, 0, depths["Root"])
	assert.Equal(t, 1, depths["A"])
	assert.Equal(t, 1, depths["B"])
	_, visited := depths["A1"]
	assert.False(t, visited, "children of a pruned node must not be visited")
}

func TestAddChildSetsBackReference(t *testing.T) {
	root, _ := sampleTree()
	for _, c := range root.Children {
		assert.Equal(t, root.ID, c.ParentID)
	}
	assert.True(t, root.IsRoot())
	assert.False(t, root.IsLeaf())
}

func TestCloneIsDeep(t *testing.T) {
	root, _ := sampleTree()
	clone := mindmap.Clone(root)

	clone.Children[0].Text = "changed"
	assert.Equal(t, "A", root.Children[0].Text)
	assert.Equal(t, mindmap.Count(root), mindmap.Count(clone))
}

func TestDataLookup(t *testing.T) {
	root, nodes := sampleTree()
	d := mindmap.New("Sample", root, nodes, nil, "")

	require.NotEmpty(t, d.ID)
	assert.False(t, d.CreatedAt.IsZero())
	assert.Equal(t, "A1", d.Node("node_3").Text)
	assert.Nil(t, d.Node("missing"))
	assert.False(t, d.IsEmpty())

	literal := &mindmap.Data{Nodes: nodes}
	assert.Equal(t, "B", literal.Node("node_2").Text)
}

func TestEnsureUniqueNodeIDs(t *testing.T) {
	tests := []struct {
		name     string
		ids      []string
		want     []string
		reassign bool
	}{
		{"unique ids untouched", []string{"a", "b"}, []string{"a", "b"}, false},
		{"duplicates renumbered", []string{"a", "a"}, []string{"node_0", "node_1"}, true},
		{"missing renumbered", []string{"a", ""}, []string{"node_0", "node_1"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var nodes []*mindmap.Node
			for _, id := range tt.ids {
				nodes = append(nodes, &mindmap.Node{ID: id})
			}
			assert.Equal(t, tt.reassign, mindmap.EnsureUniqueNodeIDs(nodes))
			for i, n := range nodes {
				assert.Equal(t, tt.want[i], n.ID)
			}
		})
	}
}
