package timeline

import (
	"sort"

	"mindreel/keywords"
	"mindreel/mindmap"
	"mindreel/transcript"
)

const (
	// DefaultPausePerNode is the cadence between reveals when no audio is supplied.
	DefaultPausePerNode = 3.0
	// DefaultMatchThreshold is the minimum keyword score for a segment to reveal a node.
	DefaultMatchThreshold = 0.3
	// DefaultCollapseLead is how long before a new reveal the previous node collapses.
	DefaultCollapseLead = 0.5
)

// Options configure a Generator.
type Options struct {
	PausePerNode   float64
	MatchThreshold float64
	CollapseLead   float64
	Analyzer       *keywords.Analyzer
}

// DefaultOptions returns the standard cadence, threshold and collapse lead.
func DefaultOptions() Options {
	return Options{
		PausePerNode:   DefaultPausePerNode,
		MatchThreshold: DefaultMatchThreshold,
		CollapseLead:   DefaultCollapseLead,
	}
}

// Generator builds timelines. Both strategies are pure functions of their inputs.
type Generator struct {
	opts Options
}

// NewGenerator creates a generator. A nil analyzer uses the default stop words.
func NewGenerator(opts Options) *Generator {
	if opts.Analyzer == nil {
		opts.Analyzer = keywords.NewAnalyzer()
	}
	return &Generator{opts: opts}
}

// Cadence visits the tree breadth-first and expands one node every PausePerNode seconds.
func (g *Generator) Cadence(root *mindmap.Node) *Timeline {
	pause := g.opts.PausePerNode
	t := &Timeline{Steps: []Step{}}

	for i, n := range mindmap.BreadthFirst(root) {
		t.Steps = append(t.Steps, Step{
			Timestamp: float64(i) * pause,
			Action:    Expand,
			NodeID:    n.ID,
			NodeText:  n.Text,
			Duration:  pause,
		})
	}
	t.TotalDuration = float64(len(t.Steps)) * pause
	return t
}

// FromSegments reveals, for each narrated segment in chronological order, the node whose
// keywords best match the narration. A new match collapses the previously active node
// just before the reveal. Segments whose best score is below the threshold leave a gap.
//
// The matched node id is recorded on each segment that triggered a reveal.
func (g *Generator) FromSegments(data *mindmap.Data, segments []transcript.Segment) *Timeline {
	t := &Timeline{Steps: []Step{}}
	if data.IsEmpty() || len(segments) == 0 {
		return t
	}

	index := keywords.NewIndex(g.opts.Analyzer, data.Nodes)

	order := make([]int, len(segments))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return segments[order[a]].Start < segments[order[b]].Start
	})

	var active *mindmap.Node
	for _, i := range order {
		seg := &segments[i]

		words := seg.Keywords
		if len(words) == 0 {
			words = g.opts.Analyzer.Extract(seg.Text)
		}

		id, score, ok := index.Best(words)
		if !ok || score < g.opts.MatchThreshold {
			continue
		}
		if active != nil && active.ID == id {
			continue
		}
		node := data.Node(id)
		if node == nil {
			continue
		}

		if active != nil {
			at := seg.Start - g.opts.CollapseLead
			if at < 0 {
				at = 0
			}
			if last := t.Steps[len(t.Steps)-1].Timestamp; at < last {
				at = last
			}
			t.Steps = append(t.Steps, Step{
				Timestamp: at,
				Action:    Collapse,
				NodeID:    active.ID,
				NodeText:  active.Text,
				Duration:  g.opts.CollapseLead,
			})
		}

		t.Steps = append(t.Steps, Step{
			Timestamp: seg.Start,
			Action:    Expand,
			NodeID:    node.ID,
			NodeText:  node.Text,
			Duration:  seg.End - seg.Start,
		})
		active = node
		seg.MatchedNodeID = node.ID
	}

	t.TotalDuration = segments[order[len(order)-1]].End
	return t
}
