package pipeline

import (
	"mindreel/animation"
)

// Summary is the structured status printed after a full run.
type Summary struct {
	Status         Status  `json:"status"`
	Extraction     *Report `json:"extraction,omitempty"`
	StepsPlanned   int     `json:"steps_planned"`
	StepsExecuted  int     `json:"steps_executed"`
	StepsSkipped   int     `json:"steps_skipped"`
	FramesCaptured int     `json:"frames_captured"`
	VideoPath      string  `json:"video_path,omitempty"`
	ElapsedSeconds float64 `json:"elapsed_seconds"`
	Error          string  `json:"error,omitempty"`
}

// Summarize combines the extraction report with an animation result. The overall
// status is the worse of the two; a run error is always failed.
func Summarize(rep *Report, res *animation.Result, runErr error) Summary {
	s := Summary{Status: StatusReady, Extraction: rep}
	if rep != nil {
		s.Status = rep.Status
	}
	if res != nil {
		s.StepsPlanned = res.StepsTotal
		s.StepsExecuted = res.StepsExecuted
		s.StepsSkipped = res.StepsSkipped
		s.FramesCaptured = res.FramesCaptured
		s.VideoPath = res.VideoPath
		s.ElapsedSeconds = res.Elapsed.Seconds()
		s.Status = worse(s.Status, Status(res.Status))
	}
	if runErr != nil {
		s.Status = StatusFailed
		s.Error = runErr.Error()
	}
	return s
}
