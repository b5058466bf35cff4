package animation

import (
	"errors"
	"time"
)

// State is the lifecycle of one engine.
type State int

const (
	Idle State = iota
	Playing
	Finished
)

func (s State) String() string {
	switch s {
	case Idle:
		return "IDLE"
	case Playing:
		return "PLAYING"
	case Finished:
		return "FINISHED"
	default:
		return "UNKNOWN"
	}
}

// ErrBusy is returned when Run is called while a run is already playing.
var ErrBusy = errors.New("animation already playing")

// ErrNoTimeline is returned when Run is given a nil timeline.
var ErrNoTimeline = errors.New("no timeline to play")

// Status summarises a run for callers.
type Status string

const (
	StatusReady   Status = "ready"
	StatusPartial Status = "partial"
	StatusFailed  Status = "failed"
)

// SkippedStep records why a step was not carried out.
type SkippedStep struct {
	Index  int
	Action string
	NodeID string
	Reason string
}

// Result reports what a run did.
type Result struct {
	Status         Status
	StepsTotal     int
	StepsExecuted  int
	StepsSkipped   int
	Skipped        []SkippedStep
	Collapsed      int // Toggles clicked while collapsing to the initial state
	Expanded       int // Toggles clicked for the final overview
	FramesCaptured int
	RecorderErrors int
	VideoPath      string
	Elapsed        time.Duration
}

func (r *Result) finalize(aborted bool) {
	switch {
	case aborted:
		r.Status = StatusFailed
	case r.StepsSkipped > 0 || r.RecorderErrors > 0:
		r.Status = StatusPartial
	default:
		r.Status = StatusReady
	}
}
