package hierarchy_test

import (
	"errors"
	"testing"

	"mindreel/failure"
	"mindreel/hierarchy"
	"mindreel/mindmap"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func node(id, text string, x, y float64) *mindmap.Node {
	return &mindmap.Node{ID: id, Text: text, X: x, Y: y}
}

// assertSingleParentTree checks every non-root node is reachable from root by exactly one path.
func assertSingleParentTree(t *testing.T, res *hierarchy.Result) {
	t.Helper()
	require.NotNil(t, res.Root)

	visits := map[string]int{}
	mindmap.Walk(res.Root, func(n *mindmap.Node, depth int) bool {
		visits[n.ID]++
		assert.Equal(t, depth, n.Level, "level of %s", n.ID)
		for _, c := range n.Children {
			assert.Equal(t, n.ID, c.ParentID)
		}
		return visits[n.ID] == 1
	})
	for _, n := range res.Nodes {
		if contains(res.Detached, n.ID) {
			continue
		}
		assert.Equal(t, 1, visits[n.ID], "paths to %s", n.ID)
	}
}

func contains(ids []string, id string) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

func TestBandsLevel(t *testing.T) {
	bands := hierarchy.DefaultBands
	tests := []struct {
		x    float64
		want int
	}{
		{-30, 0},
		{0, 0},
		{99.9, 0},
		{100, 1},
		{460.38, 1},
		{900, 2},
		{1500, 3},
		{2000, 4},
		{5000, 5},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, bands.Level(tt.x), "x=%v", tt.x)
	}
	assert.True(t, bands.Ascending())
	assert.False(t, hierarchy.Bands{100, 100}.Ascending())
	assert.Equal(t, 500.0, bands.Start(2))
	assert.Equal(t, 0.0, bands.Start(0))
}

func TestGeometricRootWithTwoChildren(t *testing.T) {
	nodes := []*mindmap.Node{
		node("node_0", "Topic", 0, 0),
		node("node_1", "A", 300, -50),
		node("node_2", "B", 300, 50),
	}

	res, err := hierarchy.NewGeometricBuilder(nil).Build(nodes, nil)
	require.NoError(t, err)

	require.NotNil(t, res.Root)
	assert.Equal(t, "Topic", res.Root.Text)
	require.Len(t, res.Root.Children, 2)
	for _, c := range res.Root.Children {
		assert.Equal(t, res.Root.ID, c.ParentID)
	}
	assertSingleParentTree(t, res)

	// The input is left untouched
	assert.Empty(t, nodes[1].ParentID)
	assert.Empty(t, nodes[0].Children)
}

func TestGeometricNearestVerticalParent(t *testing.T) {
	nodes := []*mindmap.Node{
		node("c1", "Upper child", 700, -150),
		node("r", "Root", 0, 0),
		node("a", "Upper", 300, -100),
		node("b", "Lower", 300, 100),
		node("c2", "Lower child", 700, 120),
		node("c3", "Middle child", 700, -10),
	}

	res, err := hierarchy.NewGeometricBuilder(hierarchy.DefaultBands).Build(nodes, nil)
	require.NoError(t, err)
	assertSingleParentTree(t, res)

	byID := map[string]*mindmap.Node{}
	for _, n := range res.Nodes {
		byID[n.ID] = n
	}
	assert.Equal(t, "r", res.Root.ID)
	assert.Equal(t, "a", byID["c1"].ParentID)
	assert.Equal(t, "b", byID["c2"].ParentID)
	assert.Equal(t, "a", byID["c3"].ParentID)
	assert.Equal(t, 2, byID["c3"].Level)
}

func TestGeometricTieGoesToFirstSeen(t *testing.T) {
	nodes := []*mindmap.Node{
		node("r", "Root", 0, 0),
		node("a", "First", 300, -100),
		node("b", "Second", 300, 100),
		node("c", "Between", 700, 0),
	}

	res, err := hierarchy.NewGeometricBuilder(nil).Build(nodes, nil)
	require.NoError(t, err)
	assert.Equal(t, "a", res.Nodes[3].ParentID)
}

func TestGeometricBandGapAndBandZeroNodes(t *testing.T) {
	nodes := []*mindmap.Node{
		node("r", "Root", 0, 0),
		node("near", "Near root", 50, 40),  // band 0, treated as level 1
		node("far", "Far away", 1200, 40), // band 3, nothing at band 2
	}

	res, err := hierarchy.NewGeometricBuilder(nil).Build(nodes, nil)
	require.NoError(t, err)
	assertSingleParentTree(t, res)

	assert.Equal(t, "r", res.Nodes[1].ParentID)
	assert.Equal(t, 1, res.Nodes[1].Level)
	assert.Equal(t, "near", res.Nodes[2].ParentID)
	assert.Equal(t, 2, res.Nodes[2].Level)
}

func TestEmptyInputHasNoRoot(t *testing.T) {
	builders := []hierarchy.Builder{
		hierarchy.NewGeometricBuilder(nil),
		hierarchy.NewEdgeBuilder(hierarchy.RootStrict, nil),
		hierarchy.NewBuilder(hierarchy.DefaultOptions()),
	}
	for _, b := range builders {
		t.Run(b.Name(), func(t *testing.T) {
			res, err := b.Build(nil, nil)
			require.NoError(t, err)
			assert.Nil(t, res.Root)
		})
	}
}

func TestEdgeBuilder(t *testing.T) {
	nodes := []*mindmap.Node{
		node("r", "Root", 0, 0),
		node("a", "A", 0, 0),
		node("b", "B", 0, 0),
		node("a1", "A1", 0, 0),
	}
	conns := []mindmap.Connection{
		{Source: "r", Target: "a"},
		{Source: "r", Target: "b"},
		{Source: "a", Target: "a1"},
		{Source: "b", Target: "a1"},      // second parent
		{Source: "a1", Target: "r"},      // cycle
		{Source: "r", Target: "missing"}, // unknown id
	}

	res, err := hierarchy.NewEdgeBuilder(hierarchy.RootStrict, nil).Build(nodes, conns)
	require.NoError(t, err)
	assertSingleParentTree(t, res)

	assert.Equal(t, "r", res.Root.ID)
	assert.Len(t, res.Rejected, 3)
	assert.Equal(t, 2, res.Nodes[3].Level)
	assert.Empty(t, res.Detached)
}

func TestEdgeBuilderAmbiguousRoots(t *testing.T) {
	nodes := []*mindmap.Node{
		node("r1", "Root one", 0, 0),
		node("r2", "Root two", 10, 0),
		node("c", "Child", 300, 0),
	}
	conns := []mindmap.Connection{{Source: "r1", Target: "c"}}

	t.Run("strict", func(t *testing.T) {
		res, err := hierarchy.NewEdgeBuilder(hierarchy.RootStrict, nil).Build(nodes, conns)
		require.Error(t, err)
		assert.True(t, errors.Is(err, failure.ErrHierarchyAmbiguous))
		assert.Nil(t, res.Root)
		assert.Equal(t, []string{"r1", "r2"}, res.Candidates)
	})

	t.Run("first", func(t *testing.T) {
		res, err := hierarchy.NewEdgeBuilder(hierarchy.RootFirst, nil).Build(nodes, conns)
		require.NoError(t, err)
		assert.Equal(t, "r1", res.Root.ID)
		assert.Equal(t, []string{"r2"}, res.Detached)
	})

	t.Run("geometric", func(t *testing.T) {
		res, err := hierarchy.NewBuilder(hierarchy.Options{RootPolicy: hierarchy.RootGeometric}).Build(nodes, conns)
		require.NoError(t, err)
		assert.Equal(t, "geometric", res.Strategy)
		assert.Equal(t, "r1", res.Root.ID)
		assertSingleParentTree(t, res)
	})
}

func TestParseRootPolicy(t *testing.T) {
	for in, want := range map[string]hierarchy.RootPolicy{
		"":          hierarchy.RootStrict,
		"strict":    hierarchy.RootStrict,
		"FIRST":     hierarchy.RootFirst,
		"geometric": hierarchy.RootGeometric,
	} {
		got, err := hierarchy.ParseRootPolicy(in)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	_, err := hierarchy.ParseRootPolicy("random")
	assert.Error(t, err)
}
