package timeline

import (
	"bytes"
	"encoding/json"
	"testing"

	"mindreel/mindmap"
	"mindreel/transcript"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleTree() (*mindmap.Node, []*mindmap.Node) {
	root := &mindmap.Node{ID: "root", Text: "Topic"}
	a := &mindmap.Node{ID: "a", Text: "Topic A", Level: 1}
	b := &mindmap.Node{ID: "b", Text: "Hardware Basis", Level: 1}
	a1 := &mindmap.Node{ID: "a1", Text: "Grafikkarten Speicher", Level: 2}
	root.AddChild(a)
	root.AddChild(b)
	a.AddChild(a1)
	return root, []*mindmap.Node{root, a, b, a1}
}

func TestCadenceThreeNodes(t *testing.T) {
	root := &mindmap.Node{ID: "r", Text: "Root"}
	root.AddChild(&mindmap.Node{ID: "x", Text: "Xray"})
	root.AddChild(&mindmap.Node{ID: "y", Text: "Yankee"})

	g := NewGenerator(Options{PausePerNode: 2.0})
	tl := g.Cadence(root)

	require.Len(t, tl.Steps, 3)
	for i, want := range []float64{0, 2, 4} {
		assert.Equal(t, want, tl.Steps[i].Timestamp)
		assert.Equal(t, Expand, tl.Steps[i].Action)
		assert.Equal(t, 2.0, tl.Steps[i].Duration)
	}
	assert.Equal(t, 6.0, tl.TotalDuration)
	assert.Equal(t, []string{"r", "x", "y"}, []string{tl.Steps[0].NodeID, tl.Steps[1].NodeID, tl.Steps[2].NodeID})
}

func TestCadenceBreadthFirstOrder(t *testing.T) {
	root, _ := sampleTree()
	tl := NewGenerator(DefaultOptions()).Cadence(root)

	var ids []string
	for _, s := range tl.Steps {
		ids = append(ids, s.NodeID)
	}
	assert.Equal(t, []string{"root", "a", "b", "a1"}, ids)
	assert.Equal(t, 12.0, tl.TotalDuration)
	assert.Equal(t, 9.0, tl.Steps[3].Timestamp)
}

func TestCadenceEmpty(t *testing.T) {
	tl := NewGenerator(DefaultOptions()).Cadence(nil)
	assert.Equal(t, 0, tl.Len())
	assert.Equal(t, 0.0, tl.TotalDuration)
}

func TestFromSegmentsSingleMatch(t *testing.T) {
	root := &mindmap.Node{ID: "root", Text: "Course Overview"}
	a := &mindmap.Node{ID: "a", Text: "Topic A", Level: 1}
	root.AddChild(a)
	data := mindmap.New("Course", root, []*mindmap.Node{root, a}, nil, "")
	segs := []transcript.Segment{
		{Start: 0, End: 5, Text: "intro"},
		{Start: 5, End: 10, Text: "topic A details"},
	}

	tl := NewGenerator(DefaultOptions()).FromSegments(data, segs)

	require.Len(t, tl.Steps, 1)
	assert.Equal(t, Step{Timestamp: 5, Action: Expand, NodeID: "a", NodeText: "Topic A", Duration: 5}, tl.Steps[0])
	assert.Zero(t, tl.Count(Collapse))
	assert.Equal(t, 10.0, tl.TotalDuration)
	assert.Equal(t, "a", segs[1].MatchedNodeID)
	assert.Empty(t, segs[0].MatchedNodeID)
}

func TestFromSegmentsTieGoesToFirstNode(t *testing.T) {
	root, nodes := sampleTree()
	data := mindmap.New("Topic", root, nodes, nil, "")
	segs := []transcript.Segment{{Start: 5, End: 10, Text: "topic A details"}}

	tl := NewGenerator(DefaultOptions()).FromSegments(data, segs)
	require.Len(t, tl.Steps, 1)
	assert.Equal(t, "root", tl.Steps[0].NodeID)
}

func TestFromSegmentsCollapsesPrevious(t *testing.T) {
	root, nodes := sampleTree()
	data := mindmap.New("Topic", root, nodes, nil, "")
	segs := []transcript.Segment{
		{Start: 1, End: 4, Text: "Wir sprechen über Hardware und die Basis"},
		{Start: 4, End: 6, Text: "Noch mehr Hardware Basis"},
		{Start: 6, End: 9, Text: "Grafikkarten brauchen viel Speicher"},
		{Start: 9, End: 12, Text: "nothing relevant here"},
	}

	tl := NewGenerator(DefaultOptions()).FromSegments(data, segs)

	require.Len(t, tl.Steps, 3)
	assert.Equal(t, Step{Timestamp: 1, Action: Expand, NodeID: "b", NodeText: "Hardware Basis", Duration: 3}, tl.Steps[0])
	assert.Equal(t, Step{Timestamp: 5.5, Action: Collapse, NodeID: "b", NodeText: "Hardware Basis", Duration: 0.5}, tl.Steps[1])
	assert.Equal(t, Step{Timestamp: 6, Action: Expand, NodeID: "a1", NodeText: "Grafikkarten Speicher", Duration: 3}, tl.Steps[2])
	assert.Equal(t, 12.0, tl.TotalDuration)

	assert.Equal(t, "b", segs[0].MatchedNodeID)
	assert.Empty(t, segs[1].MatchedNodeID, "same node again does not re-trigger")
	assert.Equal(t, "a1", segs[2].MatchedNodeID)
}

func TestFromSegmentsCollapseClamped(t *testing.T) {
	root, nodes := sampleTree()
	data := mindmap.New("Topic", root, nodes, nil, "")
	segs := []transcript.Segment{
		{Start: 0, End: 0.2, Text: "hardware basis"},
		{Start: 0.2, End: 3, Text: "grafikkarten speicher"},
	}

	tl := NewGenerator(DefaultOptions()).FromSegments(data, segs)
	require.Len(t, tl.Steps, 3)
	assert.Equal(t, Collapse, tl.Steps[1].Action)
	assert.Equal(t, 0.0, tl.Steps[1].Timestamp)
	assertNonDecreasing(t, tl)
}

func TestFromSegmentsThreshold(t *testing.T) {
	root, nodes := sampleTree()
	data := mindmap.New("Topic", root, nodes, nil, "")
	segs := []transcript.Segment{{Start: 0, End: 3, Text: "hardware plus five other unrelated words"}}

	tl := NewGenerator(DefaultOptions()).FromSegments(data, segs)
	assert.Empty(t, tl.Steps)
	assert.Equal(t, 3.0, tl.TotalDuration)

	lenient := NewGenerator(Options{MatchThreshold: 0.1, CollapseLead: 0.5}).FromSegments(data, segs)
	assert.Len(t, lenient.Steps, 1)
}

func TestFromSegmentsUsesSuppliedKeywords(t *testing.T) {
	root, nodes := sampleTree()
	data := mindmap.New("Topic", root, nodes, nil, "")
	segs := []transcript.Segment{{Start: 1, End: 2, Text: "", Keywords: []string{"grafikkarten", "speicher"}}}

	tl := NewGenerator(DefaultOptions()).FromSegments(data, segs)
	require.Len(t, tl.Steps, 1)
	assert.Equal(t, "a1", tl.Steps[0].NodeID)
}

func TestFromSegmentsEmpty(t *testing.T) {
	root, nodes := sampleTree()
	g := NewGenerator(DefaultOptions())

	tl := g.FromSegments(mindmap.New("Topic", root, nodes, nil, ""), nil)
	assert.Equal(t, 0, tl.Len())
	assert.Equal(t, 0.0, tl.TotalDuration)

	tl = g.FromSegments(mindmap.New("Empty", nil, nil, nil, ""), []transcript.Segment{{Start: 0, End: 1, Text: "x"}})
	assert.Equal(t, 0, tl.Len())
}

func TestTimelineJSON(t *testing.T) {
	tl := &Timeline{
		Steps: []Step{
			{Timestamp: 0, Action: Expand, NodeID: "r", NodeText: "Root", Duration: 3},
			{Timestamp: 3, Action: Focus, NodeID: "a", NodeText: "Alpha", Duration: 1},
		},
		TotalDuration: 4,
	}

	var buf bytes.Buffer
	require.NoError(t, tl.Encode(&buf))

	var raw map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &raw))
	first := raw["steps"].([]any)[0].(map[string]any)
	assert.Equal(t, "expand", first["action"])
	assert.Equal(t, "Root", first["node_text"])
	assert.Equal(t, 4.0, raw["total_duration"])

	back, err := Decode(&buf)
	require.NoError(t, err)
	assert.Equal(t, tl, back)

	_, err = Decode(bytes.NewBufferString(`{"steps":[{"action":"explode"}]}`))
	assert.Error(t, err)
}

func TestParseAction(t *testing.T) {
	for _, a := range []Action{Expand, Collapse, Highlight, Focus} {
		got, err := ParseAction(a.String())
		require.NoError(t, err)
		assert.Equal(t, a, got)
	}
	_, err := ParseAction("zoom")
	assert.Error(t, err)
	assert.Equal(t, "Action(9)", Action(9).String())
}

func assertNonDecreasing(t *testing.T, tl *Timeline) {
	t.Helper()
	for i := 1; i < len(tl.Steps); i++ {
		assert.GreaterOrEqual(t, tl.Steps[i].Timestamp, tl.Steps[i-1].Timestamp)
	}
}
