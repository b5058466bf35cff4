package animation

import (
	"context"
	"time"
)

// NodeHandle identifies one rendered node group. Key is private to the driver that issued it.
type NodeHandle struct {
	Key        string
	Text       string
	Expandable bool // False for leaves, which have no toggle
}

// Driver is the UI the engine animates. Implementations must be safe to call from one
// goroutine at a time; the engine never issues concurrent calls.
type Driver interface {
	// FindNodeByText returns the first rendered node whose label contains the first
	// 25 characters of text. ok is false when no node matches.
	FindNodeByText(ctx context.Context, text string) (h NodeHandle, ok bool, err error)
	// IsExpanded reads the node's visible toggle marker.
	IsExpanded(ctx context.Context, h NodeHandle) (bool, error)
	ClickExpandToggle(ctx context.Context, h NodeHandle) error
	ScrollIntoView(ctx context.Context, h NodeHandle) error
	// QueryAllNodeGroups returns every currently rendered node in document order.
	QueryAllNodeGroups(ctx context.Context) ([]NodeHandle, error)
	CurrentLocation(ctx context.Context) (string, error)
}

// Navigator is implemented by drivers that can load a page.
type Navigator interface {
	Navigate(ctx context.Context, url string) error
}

// Highlighter is implemented by drivers that can draw emphasis around a node.
type Highlighter interface {
	Highlight(ctx context.Context, h NodeHandle) error
	ClearHighlight(ctx context.Context) error
}

// Releaser is implemented by drivers holding per-run resources such as injected overlays.
type Releaser interface {
	Release(ctx context.Context) error
}

// Recorder captures frames while the animation runs and assembles them into a video.
type Recorder interface {
	Start(ctx context.Context) error
	CaptureFrame(ctx context.Context, label string) error
	Stop(ctx context.Context) error
	// AssembleVideo encodes the captured frames and returns the written path.
	AssembleVideo(ctx context.Context, filename string, fps int) (string, error)
}

// Clock abstracts time so runs can be tested without sleeping.
type Clock interface {
	Now() time.Time
	// Sleep blocks for d or until ctx is done, returning ctx.Err() in the latter case.
	Sleep(ctx context.Context, d time.Duration) error
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

func (realClock) Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Observer receives run statistics. metrics.Collector implements it.
type Observer interface {
	ObserveStep(action, outcome string)
	ObserveFrame(ok bool)
	ObserveRun(status string, elapsed time.Duration)
}

type nopObserver struct{}

func (nopObserver) ObserveStep(string, string) {}

func (nopObserver) ObserveFrame(bool) {}

func (nopObserver) ObserveRun(string, time.Duration) {}
