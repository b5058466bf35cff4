package hierarchy

import (
	"math"
	"sort"

	"mindreel/mindmap"
)

// GeometricBuilder reconstructs the tree from coordinates alone.
type GeometricBuilder struct {
	bands Bands
}

// NewGeometricBuilder creates a GeometricBuilder using the given x bands.
func NewGeometricBuilder(bands Bands) *GeometricBuilder {
	if len(bands) == 0 {
		bands = DefaultBands
	}
	return &GeometricBuilder{bands: bands}
}

// Name implements Builder
func (g *GeometricBuilder) Name() string {
	return "geometric"
}

// Build implements Builder. Connections are ignored.
func (g *GeometricBuilder) Build(nodes []*mindmap.Node, _ []mindmap.Connection) (*Result, error) {
	if len(nodes) == 0 {
		return &Result{Strategy: g.Name()}, nil
	}

	work := mindmap.Detach(nodes)

	// Stable so equal x keeps input order, which makes tie-breaking deterministic
	order := make([]*mindmap.Node, len(work))
	copy(order, work)
	sort.SliceStable(order, func(i, j int) bool {
		return order[i].X < order[j].X
	})

	root := order[0]
	rest := order[1:]

	band := make(map[*mindmap.Node]int, len(work))
	band[root] = 0
	for _, n := range rest {
		b := g.bands.Level(n.X)
		if b < 1 {
			// Only the root may occupy band 0
			b = 1
		}
		band[n] = b
	}

	sort.SliceStable(rest, func(i, j int) bool {
		return band[rest[i]] < band[rest[j]]
	})

	byBand := map[int][]*mindmap.Node{0: {root}}
	for _, n := range rest {
		b := band[n]
		parentBand := b - 1
		for parentBand > 0 && len(byBand[parentBand]) == 0 {
			parentBand--
		}
		nearest(byBand[parentBand], n.Y).AddChild(n)
		byBand[b] = append(byBand[b], n)
	}

	assignDepths(root, work)
	return &Result{Root: root, Nodes: work, Strategy: g.Name()}, nil
}

// nearest returns the candidate with minimal vertical offset from y; the first one wins ties.
func nearest(candidates []*mindmap.Node, y float64) *mindmap.Node {
	var best *mindmap.Node
	bestDist := math.Inf(1)
	for _, c := range candidates {
		if d := math.Abs(c.Y - y); d < bestDist {
			best, bestDist = c, d
		}
	}
	if best == nil && len(candidates) > 0 {
		best = candidates[0]
	}
	return best
}
