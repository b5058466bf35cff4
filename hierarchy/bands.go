// Package hierarchy rebuilds a rooted mindmap tree from a flat node list.
//
// Two strategies exist. EdgeBuilder trusts explicit source/target edges found in the markup.
// GeometricBuilder recovers the tree from layout coordinates alone: the source layout places
// depth along the x axis only, so nodes are bucketed into x bands and each node adopts the
// vertically nearest node of the previous band as parent. The geometric result is approximate
// and should be replaced by EdgeBuilder whenever the markup exposes real relationships.
package hierarchy

// Bands are ascending upper x bounds; a node whose x is below Bands[i] sits at depth i.
// Anything at or beyond the last bound sits at depth len(Bands).
type Bands []float64

// DefaultBands match the hosted notebook layout: the root is drawn near x=0 and each level
// is pushed further right with successively wider gaps.
var DefaultBands = Bands{100, 500, 1000, 1600, 2300}

// Level returns the provisional depth for a node at x.
func (b Bands) Level(x float64) int {
	for i, bound := range b {
		if x < bound {
			return i
		}
	}
	return len(b)
}

// Start returns the lower x bound of the band for level, used when synthesising coordinates.
func (b Bands) Start(level int) float64 {
	if level <= 0 || len(b) == 0 {
		return 0
	}
	if level > len(b) {
		level = len(b)
	}
	return b[level-1]
}

// Ascending reports whether the bounds are strictly increasing.
func (b Bands) Ascending() bool {
	for i := 1; i < len(b); i++ {
		if b[i] <= b[i-1] {
			return false
		}
	}
	return true
}
