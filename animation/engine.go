// Package animation plays a timeline against a UI driver, node by node, optionally recording it.
//
// A run collapses the mindmap to its root, executes each step at its absolute timestamp,
// then expands everything for a closing overview. Failures inside a single step are
// logged and the step is skipped; failures anywhere else abort the run. Teardown (stopping
// the recorder, assembling the video, releasing driver resources) always happens.
package animation

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"mindreel/failure"
	"mindreel/timeline"
)

// Options tune the engine's pacing and failure policy.
type Options struct {
	SettleDelay     time.Duration // Wait after each toggle for the UI transition
	BulkPasses      int           // Maximum passes for collapse-all and expand-all
	StepRetries     int           // Extra attempts for a failing driver call inside a step
	RetryDelay      time.Duration
	BreakerFailures uint32        // Consecutive driver failures that open the breaker
	BreakerCooldown time.Duration // How long the breaker stays open
	TargetURL       string        // Navigate here first unless the driver is already on it
	Record          bool
	VideoPath       string
	FPS             int
	Clock           Clock
}

// DefaultOptions returns the standard engine settings.
func DefaultOptions() Options {
	return Options{
		SettleDelay:     500 * time.Millisecond,
		BulkPasses:      5,
		StepRetries:     2,
		RetryDelay:      300 * time.Millisecond,
		BreakerFailures: 5,
		BreakerCooldown: 30 * time.Second,
		FPS:             15,
	}
}

// Engine runs one animation at a time.
type Engine struct {
	driver   Driver
	recorder Recorder
	opts     Options
	clock    Clock
	logger   *zap.Logger
	observer Observer
	breaker  *gobreaker.CircuitBreaker

	mu       sync.Mutex
	state    State
	expanded map[string]bool // Node ids expanded by the current run
	order    []string
}

// NewEngine creates an engine. recorder, logger and observer may be nil.
func NewEngine(driver Driver, recorder Recorder, opts Options, logger *zap.Logger, observer Observer) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	if observer == nil {
		observer = nopObserver{}
	}
	defaults := DefaultOptions()
	if opts.BulkPasses <= 0 {
		opts.BulkPasses = defaults.BulkPasses
	}
	if opts.StepRetries < 0 {
		opts.StepRetries = 0
	}
	if opts.BreakerFailures == 0 {
		opts.BreakerFailures = defaults.BreakerFailures
	}
	if opts.BreakerCooldown <= 0 {
		opts.BreakerCooldown = defaults.BreakerCooldown
	}
	if opts.FPS <= 0 {
		opts.FPS = defaults.FPS
	}
	clock := opts.Clock
	if clock == nil {
		clock = realClock{}
	}

	e := &Engine{
		driver:   driver,
		recorder: recorder,
		opts:     opts,
		clock:    clock,
		logger:   logger,
		observer: observer,
		expanded: make(map[string]bool),
	}
	e.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "ui-driver",
		MaxRequests: 1,
		Timeout:     opts.BreakerCooldown,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= opts.BreakerFailures
		},
		IsSuccessful: func(err error) bool {
			// Missing nodes and cancellation say nothing about driver health
			return err == nil ||
				errors.Is(err, failure.ErrNodeNotFound) ||
				errors.Is(err, context.Canceled) ||
				errors.Is(err, context.DeadlineExceeded)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()))
		},
	})
	return e
}

// State returns the current lifecycle state.
func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

func (e *Engine) setState(s State) {
	e.mu.Lock()
	e.state = s
	e.mu.Unlock()
}

// Expanded returns the ids the current run has expanded, in expansion order.
func (e *Engine) Expanded() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	ids := make([]string, 0, len(e.order))
	for _, id := range e.order {
		if e.expanded[id] {
			ids = append(ids, id)
		}
	}
	return ids
}

func (e *Engine) markExpanded(id string, on bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if on && !e.expanded[id] {
		e.order = append(e.order, id)
	}
	e.expanded[id] = on
}

func (e *Engine) resetExpanded() {
	e.mu.Lock()
	e.expanded = make(map[string]bool)
	e.order = nil
	e.mu.Unlock()
}

// Run plays tl to completion. On an unrecoverable failure or cancellation the state
// returns to Idle and the error is returned along with the partial result.
func (e *Engine) Run(ctx context.Context, tl *timeline.Timeline) (res *Result, err error) {
	if tl == nil {
		return nil, ErrNoTimeline
	}

	e.mu.Lock()
	if e.state == Playing {
		e.mu.Unlock()
		return nil, ErrBusy
	}
	e.state = Playing
	e.mu.Unlock()

	res = &Result{StepsTotal: tl.Len()}
	started := e.clock.Now()
	recording := false

	e.logger.Info("animation started", zap.Int("steps", tl.Len()), zap.Float64("total_duration", tl.TotalDuration))

	defer func() {
		e.teardown(context.WithoutCancel(ctx), res, recording)

		if err != nil {
			e.setState(Idle)
			e.logger.Error("animation aborted", zap.Error(err))
		} else {
			e.setState(Finished)
		}
		res.Elapsed = e.clock.Now().Sub(started)
		res.finalize(err != nil)
		e.observer.ObserveRun(string(res.Status), res.Elapsed)
		e.logger.Info("animation finished",
			zap.String("status", string(res.Status)),
			zap.Int("executed", res.StepsExecuted),
			zap.Int("skipped", res.StepsSkipped),
			zap.Duration("elapsed", res.Elapsed))
	}()

	e.resetExpanded()

	if err = e.ensureLocation(ctx); err != nil {
		return res, err
	}

	if e.opts.Record && e.recorder != nil {
		if rerr := e.recorder.Start(ctx); rerr != nil {
			res.RecorderErrors++
			e.logger.Warn("recorder failed to start, continuing without recording",
				zap.Error(failure.Wrap(failure.KindRecorder, "start", rerr)))
		} else {
			recording = true
		}
	}

	if res.Collapsed, err = e.collapseAll(ctx); err != nil {
		return res, err
	}
	if err = e.clock.Sleep(ctx, e.opts.SettleDelay); err != nil {
		return res, err
	}
	e.capture(ctx, res, recording, "initial state")

	// Steps are scheduled against this anchor so slow steps don't push later ones back
	anchor := e.clock.Now()
	for i, step := range tl.Steps {
		if err = ctx.Err(); err != nil {
			return res, err
		}
		if err = e.sleepUntil(ctx, anchor, step.Timestamp); err != nil {
			return res, err
		}

		if err = e.runStep(ctx, i, step, res); err != nil {
			return res, err
		}

		if err = e.clock.Sleep(ctx, seconds(step.Duration)); err != nil {
			return res, err
		}
		e.capture(ctx, res, recording, fmt.Sprintf("%s: %s", step.Action, step.NodeText))
	}

	if res.Expanded, err = e.expandAll(ctx); err != nil {
		return res, err
	}
	e.capture(ctx, res, recording, "final overview")
	return res, nil
}

// runStep dispatches one step and decides whether its failure is skippable.
func (e *Engine) runStep(ctx context.Context, index int, step timeline.Step, res *Result) error {
	err := e.dispatch(ctx, step)
	if err == nil {
		res.StepsExecuted++
		e.observer.ObserveStep(step.Action.String(), "executed")
		return nil
	}

	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	if !errors.Is(err, failure.ErrNodeNotFound) && !errors.Is(err, failure.ErrDriver) {
		return err
	}

	res.StepsSkipped++
	res.Skipped = append(res.Skipped, SkippedStep{
		Index:  index,
		Action: step.Action.String(),
		NodeID: step.NodeID,
		Reason: err.Error(),
	})
	e.observer.ObserveStep(step.Action.String(), "skipped")
	e.logger.Warn("step skipped",
		zap.Int("index", index),
		zap.String("action", step.Action.String()),
		zap.String("node_id", step.NodeID),
		zap.String("node_text", step.NodeText),
		zap.Error(err))
	return nil
}

func (e *Engine) ensureLocation(ctx context.Context) error {
	if e.opts.TargetURL == "" {
		return nil
	}

	loc, err := e.driver.CurrentLocation(ctx)
	if err != nil {
		return failure.Wrap(failure.KindDriver, "location", err)
	}
	if strings.Contains(loc, e.opts.TargetURL) {
		return nil
	}

	nav, ok := e.driver.(Navigator)
	if !ok {
		return failure.New(failure.KindDriver, "navigate", "driver cannot navigate to "+e.opts.TargetURL)
	}
	e.logger.Info("navigating", zap.String("from", loc), zap.String("to", e.opts.TargetURL))
	if err := nav.Navigate(ctx, e.opts.TargetURL); err != nil {
		return failure.Wrap(failure.KindDriver, "navigate", err)
	}
	return nil
}

func (e *Engine) sleepUntil(ctx context.Context, anchor time.Time, timestamp float64) error {
	wait := anchor.Add(seconds(timestamp)).Sub(e.clock.Now())
	if wait <= 0 {
		return ctx.Err()
	}
	return e.clock.Sleep(ctx, wait)
}

func (e *Engine) capture(ctx context.Context, res *Result, recording bool, label string) {
	if !recording {
		return
	}
	if err := e.recorder.CaptureFrame(ctx, label); err != nil {
		res.RecorderErrors++
		e.observer.ObserveFrame(false)
		e.logger.Warn("frame capture failed",
			zap.String("label", label),
			zap.Error(failure.Wrap(failure.KindRecorder, "capture", err)))
		return
	}
	res.FramesCaptured++
	e.observer.ObserveFrame(true)
}

func (e *Engine) teardown(ctx context.Context, res *Result, recording bool) {
	if recording {
		if err := e.recorder.Stop(ctx); err != nil {
			res.RecorderErrors++
			e.logger.Warn("recorder stop failed", zap.Error(failure.Wrap(failure.KindRecorder, "stop", err)))
		}
		if res.FramesCaptured > 0 && e.opts.VideoPath != "" {
			path, err := e.recorder.AssembleVideo(ctx, e.opts.VideoPath, e.opts.FPS)
			if err != nil {
				res.RecorderErrors++
				e.logger.Warn("video assembly failed", zap.Error(failure.Wrap(failure.KindRecorder, "assemble", err)))
			} else {
				res.VideoPath = path
				e.logger.Info("video saved", zap.String("path", path))
			}
		}
	}

	if r, ok := e.driver.(Releaser); ok {
		if err := r.Release(ctx); err != nil {
			e.logger.Warn("driver release failed", zap.Error(err))
		}
	}
}

func seconds(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}
