package pipeline

import (
	"fmt"

	"go.uber.org/zap"

	"mindreel/mindmap"
	"mindreel/timeline"
	"mindreel/transcript"
	"mindreel/validation"
)

// Planner builds the animation timeline for extracted data.
type Planner struct {
	generator *timeline.Generator
	validator *validation.TimelineValidator
	logger    *zap.Logger
}

// NewPlanner creates a planner. logger may be nil.
func NewPlanner(opts timeline.Options, logger *zap.Logger) *Planner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Planner{
		generator: timeline.NewGenerator(opts),
		validator: validation.NewTimelineValidator(),
		logger:    logger,
	}
}

// Plan returns a cadence timeline, or an audio-synced one when segments are given.
// Segments must satisfy the transcript contract; matched node ids are written back to them.
func (p *Planner) Plan(d *mindmap.Data, segments []transcript.Segment) (*timeline.Timeline, error) {
	if d == nil {
		return nil, fmt.Errorf("mindmap is nil")
	}

	var tl *timeline.Timeline
	strategy := "cadence"
	if len(segments) > 0 {
		if err := transcript.Validate(segments); err != nil {
			return nil, fmt.Errorf("invalid transcript: %w", err)
		}
		tl = p.generator.FromSegments(d, segments)
		strategy = "audio"
	} else {
		tl = p.generator.Cadence(d.Root)
	}

	// The generators uphold these invariants, a violation is a bug
	if problems := p.validator.Validate(tl, d); len(problems) > 0 {
		for _, v := range problems {
			p.logger.Error("invalid timeline step", zap.String("problem", v.String()))
		}
		return nil, fmt.Errorf("generated timeline failed validation: %s", problems[0])
	}

	matched := 0
	for _, s := range segments {
		if s.MatchedNodeID != "" {
			matched++
		}
	}
	p.logger.Info("timeline planned",
		zap.String("strategy", strategy),
		zap.Int("steps", tl.Len()),
		zap.Int("segments", len(segments)),
		zap.Int("segments_matched", matched),
		zap.Float64("total_duration", tl.TotalDuration))
	return tl, nil
}
