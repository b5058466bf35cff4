// Package timeline plans when each mindmap node is revealed, either on a fixed cadence
// or in step with narrated audio.
package timeline

import (
	"encoding/json"
	"fmt"
	"io"
)

// Step is one scheduled action at an absolute time from the animation start.
type Step struct {
	Timestamp float64 `json:"timestamp"`
	Action    Action  `json:"action"`
	NodeID    string  `json:"node_id"`
	NodeText  string  `json:"node_text"`
	Duration  float64 `json:"duration"` // Dwell after the action, in seconds
}

// End returns when the step's dwell finishes.
func (s Step) End() float64 {
	return s.Timestamp + s.Duration
}

// Timeline is an ordered animation plan. Timestamps never decrease.
type Timeline struct {
	Steps         []Step  `json:"steps"`
	TotalDuration float64 `json:"total_duration"`
}

// Len returns the number of steps.
func (t *Timeline) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Steps)
}

// Count returns how many steps perform action a.
func (t *Timeline) Count(a Action) int {
	n := 0
	for _, s := range t.Steps {
		if s.Action == a {
			n++
		}
	}
	return n
}

// Encode writes the timeline as indented JSON.
func (t *Timeline) Encode(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(t)
}

// Decode reads a timeline previously written by Encode.
func Decode(r io.Reader) (*Timeline, error) {
	var t Timeline
	if err := json.NewDecoder(r).Decode(&t); err != nil {
		return nil, fmt.Errorf("failed to decode timeline: %w", err)
	}
	if t.Steps == nil {
		t.Steps = []Step{}
	}
	return &t, nil
}
