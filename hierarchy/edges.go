package hierarchy

import (
	"fmt"
	"strings"

	"mindreel/failure"
	"mindreel/mindmap"
)

// EdgeBuilder attaches each connection target under its source.
type EdgeBuilder struct {
	policy   RootPolicy
	fallback Builder
}

// NewEdgeBuilder creates an EdgeBuilder. fallback is used by the geometric root policy.
func NewEdgeBuilder(policy RootPolicy, fallback Builder) *EdgeBuilder {
	if policy == "" {
		policy = RootStrict
	}
	return &EdgeBuilder{policy: policy, fallback: fallback}
}

// Name implements Builder
func (e *EdgeBuilder) Name() string {
	return "edges"
}

// Build implements Builder
func (e *EdgeBuilder) Build(nodes []*mindmap.Node, connections []mindmap.Connection) (*Result, error) {
	if len(nodes) == 0 {
		return &Result{Strategy: e.Name()}, nil
	}

	work := mindmap.Detach(nodes)
	byID := make(map[string]*mindmap.Node, len(work))
	for _, n := range work {
		byID[n.ID] = n
	}

	result := &Result{Nodes: work, Strategy: e.Name()}
	for _, conn := range connections {
		source, target := byID[conn.Source], byID[conn.Target]
		switch {
		case source == nil || target == nil:
			result.Rejected = append(result.Rejected, conn)
		case source == target:
			result.Rejected = append(result.Rejected, conn)
		case target.ParentID != "":
			// Second parent
			result.Rejected = append(result.Rejected, conn)
		case isAncestor(target, source, byID):
			// Would close a cycle
			result.Rejected = append(result.Rejected, conn)
		default:
			source.AddChild(target)
		}
	}

	var roots []*mindmap.Node
	for _, n := range work {
		if n.ParentID == "" {
			roots = append(roots, n)
		}
	}

	if len(roots) == 1 {
		result.Root = roots[0]
		result.Detached = assignDepths(result.Root, work)
		return result, nil
	}

	for _, r := range roots {
		result.Candidates = append(result.Candidates, r.ID)
	}

	switch e.policy {
	case RootFirst:
		if len(roots) > 0 {
			result.Root = roots[0]
			result.Detached = assignDepths(result.Root, work)
			return result, nil
		}
	case RootGeometric:
		if e.fallback != nil {
			fallback, err := e.fallback.Build(nodes, nil)
			if fallback != nil {
				fallback.Candidates = result.Candidates
				fallback.Rejected = result.Rejected
			}
			return fallback, err
		}
	}

	return result, failure.New(failure.KindHierarchyAmbiguous, "build",
		fmt.Sprintf("%d root candidates [%s]", len(roots), strings.Join(result.Candidates, ", ")))
}

// isAncestor reports whether candidate is node itself or one of its ancestors.
func isAncestor(candidate, node *mindmap.Node, byID map[string]*mindmap.Node) bool {
	for steps := 0; node != nil && steps <= len(byID); steps++ {
		if node == candidate {
			return true
		}
		if node.ParentID == "" {
			return false
		}
		node = byID[node.ParentID]
	}
	return false
}
