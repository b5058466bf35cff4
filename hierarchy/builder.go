package hierarchy

import (
	"fmt"
	"strings"

	"mindreel/mindmap"
)

// Builder turns a flat node list into a rooted tree.
type Builder interface {
	// Build returns tree-linked copies of nodes. The input nodes are not modified.
	// An empty input yields a result with a nil Root and no error.
	Build(nodes []*mindmap.Node, connections []mindmap.Connection) (*Result, error)

	// Name returns the name of this strategy.
	Name() string
}

// Result is the outcome of a build.
type Result struct {
	Root       *mindmap.Node
	Nodes      []*mindmap.Node      // All nodes in input order, tree-linked
	Strategy   string               // Name of the builder that produced Root
	Candidates []string             // Parent-less node ids when the edge path was ambiguous
	Rejected   []mindmap.Connection // Edges dropped to keep one parent per node and no cycles
	Detached   []string             // Node ids not reachable from Root
}

// RootPolicy decides what the explicit-edge path does when it finds zero or several roots.
type RootPolicy string

const (
	// RootStrict leaves the tree without a root and reports HierarchyAmbiguous.
	RootStrict RootPolicy = "strict"
	// RootFirst takes the first parent-less node in input order.
	RootFirst RootPolicy = "first"
	// RootGeometric discards the edges and reconstructs from coordinates.
	RootGeometric RootPolicy = "geometric"
)

// ParseRootPolicy converts a string to a RootPolicy
func ParseRootPolicy(s string) (RootPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "strict":
		return RootStrict, nil
	case "first":
		return RootFirst, nil
	case "geometric":
		return RootGeometric, nil
	default:
		return "", fmt.Errorf("unknown root policy: %s", s)
	}
}

// Options configure NewBuilder.
type Options struct {
	Bands      Bands
	RootPolicy RootPolicy
}

// DefaultOptions returns the default bands and the strict root policy.
func DefaultOptions() Options {
	return Options{Bands: DefaultBands, RootPolicy: RootStrict}
}

// AutoBuilder uses explicit edges when the markup supplied any and geometry otherwise.
type AutoBuilder struct {
	edges     *EdgeBuilder
	geometric *GeometricBuilder
}

// NewBuilder creates the default strategy selector.
func NewBuilder(opts Options) *AutoBuilder {
	if len(opts.Bands) == 0 {
		opts.Bands = DefaultBands
	}
	geometric := NewGeometricBuilder(opts.Bands)
	return &AutoBuilder{
		edges:     NewEdgeBuilder(opts.RootPolicy, geometric),
		geometric: geometric,
	}
}

// Build implements Builder
func (a *AutoBuilder) Build(nodes []*mindmap.Node, connections []mindmap.Connection) (*Result, error) {
	if len(connections) > 0 {
		return a.edges.Build(nodes, connections)
	}
	return a.geometric.Build(nodes, nil)
}

// Name implements Builder
func (a *AutoBuilder) Name() string {
	return "auto"
}

// assignDepths rewrites Level to the tree depth and returns ids not reachable from root.
func assignDepths(root *mindmap.Node, nodes []*mindmap.Node) []string {
	reached := make(map[*mindmap.Node]bool, len(nodes))
	mindmap.Walk(root, func(n *mindmap.Node, depth int) bool {
		n.Level = depth
		reached[n] = true
		return true
	})

	var detached []string
	for _, n := range nodes {
		if !reached[n] {
			detached = append(detached, n.ID)
		}
	}
	return detached
}
