// Package validation checks extracted trees and planned timelines against the
// invariants the animation relies on.
package validation

import (
	"fmt"

	"mindreel/mindmap"
	"mindreel/timeline"
)

// ValidationError represents a validation error with location information.
type ValidationError struct {
	NodeID  string
	Index   int // Step index for timeline errors, -1 otherwise
	Context string
	Message string
}

// String formats validation errors as a string.
func (e ValidationError) String() string {
	if e.Index >= 0 {
		return fmt.Sprintf("step %d [%s]: %s", e.Index, e.Context, e.Message)
	}
	if e.NodeID != "" {
		return fmt.Sprintf("%s [%s]: %s", e.NodeID, e.Context, e.Message)
	}
	return fmt.Sprintf("[%s]: %s", e.Context, e.Message)
}

// TreeValidator checks that the hierarchy is a rooted tree: one path from the root to
// every node, matching back-references and unique ids.
type TreeValidator struct {
	errors []ValidationError
	// Options
	checkLevels bool // Require level to equal tree depth
	requireRoot bool // Report an error when nodes exist but no root was built
}

// NewTreeValidator creates a new validator with default settings.
func NewTreeValidator() *TreeValidator {
	return &TreeValidator{checkLevels: true}
}

// SetRequireRoot enables or disables reporting a missing root.
func (v *TreeValidator) SetRequireRoot(require bool) {
	v.requireRoot = require
}

// SetCheckLevels enables or disables the level == depth check.
func (v *TreeValidator) SetCheckLevels(check bool) {
	v.checkLevels = check
}

// Validate checks d and returns every violation found.
func (v *TreeValidator) Validate(d *mindmap.Data) []ValidationError {
	v.errors = nil
	if d == nil {
		return nil
	}

	seenIDs := make(map[string]bool, len(d.Nodes))
	for _, n := range d.Nodes {
		switch {
		case n.ID == "":
			v.addError("", "ids", "node %q has an empty id", n.Text)
		case seenIDs[n.ID]:
			v.addError(n.ID, "ids", "duplicate id")
		}
		seenIDs[n.ID] = true
	}

	if d.Root == nil {
		if v.requireRoot && len(d.Nodes) > 0 {
			v.addError("", "root", "%d nodes but no root", len(d.Nodes))
		}
		return v.errors
	}
	if d.Root.ParentID != "" {
		v.addError(d.Root.ID, "root", "root has parent %q", d.Root.ParentID)
	}

	reached := make(map[*mindmap.Node]bool)
	v.walk(d.Root, nil, 0, reached)

	for _, n := range d.Nodes {
		if !reached[n] {
			v.addError(n.ID, "reachability", "node %q is not reachable from the root", n.Text)
		}
	}
	return v.errors
}

func (v *TreeValidator) walk(n, parent *mindmap.Node, depth int, reached map[*mindmap.Node]bool) {
	if reached[n] {
		v.addError(n.ID, "structure", "node reached by more than one path")
		return
	}
	reached[n] = true

	if parent != nil && n.ParentID != parent.ID {
		v.addError(n.ID, "structure", "parent_id %q but attached under %q", n.ParentID, parent.ID)
	}
	if v.checkLevels && n.Level != depth {
		v.addError(n.ID, "levels", "level %d at depth %d", n.Level, depth)
	}
	for _, c := range n.Children {
		v.walk(c, n, depth+1, reached)
	}
}

func (v *TreeValidator) addError(nodeID, context, format string, args ...interface{}) {
	v.errors = append(v.errors, ValidationError{
		NodeID:  nodeID,
		Index:   -1,
		Context: context,
		Message: fmt.Sprintf(format, args...),
	})
}

// TimelineValidator checks that a plan can be executed: non-negative, non-decreasing
// timestamps, known actions and nodes that exist in the mindmap.
type TimelineValidator struct {
	errors []ValidationError
}

// NewTimelineValidator creates a new timeline validator.
func NewTimelineValidator() *TimelineValidator {
	return &TimelineValidator{}
}

// Validate checks tl. Node references are only checked when d is not nil.
func (v *TimelineValidator) Validate(tl *timeline.Timeline, d *mindmap.Data) []ValidationError {
	v.errors = nil
	if tl == nil {
		return nil
	}

	last := 0.0
	for i, s := range tl.Steps {
		if s.Timestamp < 0 {
			v.addError(i, s.NodeID, "timing", "negative timestamp %.3f", s.Timestamp)
		}
		if s.Timestamp < last {
			v.addError(i, s.NodeID, "timing", "timestamp %.3f before previous %.3f", s.Timestamp, last)
		}
		if s.Timestamp > last {
			last = s.Timestamp
		}
		if s.Duration < 0 {
			v.addError(i, s.NodeID, "timing", "negative duration %.3f", s.Duration)
		}
		if _, err := timeline.ParseAction(s.Action.String()); err != nil {
			v.addError(i, s.NodeID, "action", "%s", err)
		}
		if s.NodeText == "" {
			v.addError(i, s.NodeID, "node", "empty node text")
		}
		if d != nil && d.Node(s.NodeID) == nil {
			v.addError(i, s.NodeID, "node", "unknown node %q", s.NodeID)
		}
	}

	if tl.TotalDuration < last {
		v.addError(len(tl.Steps)-1, "", "timing", "total_duration %.3f shorter than last timestamp %.3f", tl.TotalDuration, last)
	}
	return v.errors
}

func (v *TimelineValidator) addError(index int, nodeID, context, format string, args ...interface{}) {
	v.errors = append(v.errors, ValidationError{
		NodeID:  nodeID,
		Index:   index,
		Context: context,
		Message: fmt.Sprintf(format, args...),
	})
}
