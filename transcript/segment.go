// Package transcript holds narration segments produced by an external speech-to-text step.
package transcript

import (
	"fmt"

	"mindreel/keywords"
)

// Segment is one narrated interval of the audio track, in seconds from the start.
type Segment struct {
	Start         float64  `json:"start_time"`
	End           float64  `json:"end_time"`
	Text          string   `json:"text"`
	Keywords      []string `json:"keywords,omitempty"`
	MatchedNodeID string   `json:"matched_node_id,omitempty"`
}

// Duration returns the length of the segment.
func (s Segment) Duration() float64 {
	return s.End - s.Start
}

// Validate checks the transcriber contract: every segment has start <= end,
// no negative times, and starts never decrease across the list.
func Validate(segments []Segment) error {
	prev := 0.0
	for i, s := range segments {
		if s.Start < 0 || s.End < 0 {
			return fmt.Errorf("segment %d: negative time (%.3f-%.3f)", i, s.Start, s.End)
		}
		if s.Start > s.End {
			return fmt.Errorf("segment %d: start %.3f after end %.3f", i, s.Start, s.End)
		}
		if s.Start < prev {
			return fmt.Errorf("segment %d: start %.3f before previous start %.3f", i, s.Start, prev)
		}
		prev = s.Start
	}
	return nil
}

// Annotate fills in keywords for segments that have none.
func Annotate(segments []Segment, analyzer *keywords.Analyzer) {
	if analyzer == nil {
		analyzer = keywords.NewAnalyzer()
	}
	for i := range segments {
		if len(segments[i].Keywords) == 0 {
			segments[i].Keywords = analyzer.Extract(segments[i].Text)
		}
	}
}
