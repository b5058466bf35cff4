package animation

import (
	"context"
	"errors"
	"fmt"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"mindreel/failure"
	"mindreel/timeline"
)

// dispatch performs one step. Returned errors are classified by runStep.
func (e *Engine) dispatch(ctx context.Context, step timeline.Step) error {
	switch step.Action {
	case timeline.Expand:
		return e.expand(ctx, step)
	case timeline.Collapse:
		return e.collapse(ctx, step)
	case timeline.Highlight:
		return e.highlight(ctx, step)
	case timeline.Focus:
		return e.focus(ctx, step)
	default:
		return fmt.Errorf("unknown action %v for node %s", step.Action, step.NodeID)
	}
}

func (e *Engine) expand(ctx context.Context, step timeline.Step) error {
	h, err := e.find(ctx, step)
	if err != nil {
		return err
	}
	if !h.Expandable {
		// Leaves are revealed by their parent
		e.markExpanded(step.NodeID, true)
		return nil
	}

	var open bool
	if err := e.call(ctx, "is expanded", func() (err error) {
		open, err = e.driver.IsExpanded(ctx, h)
		return err
	}); err != nil {
		return err
	}
	if !open {
		if err := e.call(ctx, "expand", func() error { return e.driver.ClickExpandToggle(ctx, h) }); err != nil {
			return err
		}
		if err := e.clock.Sleep(ctx, e.opts.SettleDelay); err != nil {
			return err
		}
	}
	e.markExpanded(step.NodeID, true)
	return nil
}

func (e *Engine) collapse(ctx context.Context, step timeline.Step) error {
	h, err := e.find(ctx, step)
	if err != nil {
		return err
	}

	var open bool
	if err := e.call(ctx, "is expanded", func() (err error) {
		open, err = e.driver.IsExpanded(ctx, h)
		return err
	}); err != nil {
		return err
	}
	if open {
		if err := e.call(ctx, "collapse", func() error { return e.driver.ClickExpandToggle(ctx, h) }); err != nil {
			return err
		}
		if err := e.clock.Sleep(ctx, e.opts.SettleDelay); err != nil {
			return err
		}
	}
	e.markExpanded(step.NodeID, false)
	return nil
}

func (e *Engine) focus(ctx context.Context, step timeline.Step) error {
	h, err := e.find(ctx, step)
	if err != nil {
		return err
	}
	return e.call(ctx, "scroll", func() error { return e.driver.ScrollIntoView(ctx, h) })
}

func (e *Engine) highlight(ctx context.Context, step timeline.Step) error {
	h, err := e.find(ctx, step)
	if err != nil {
		return err
	}
	if err := e.call(ctx, "scroll", func() error { return e.driver.ScrollIntoView(ctx, h) }); err != nil {
		return err
	}

	hl, ok := e.driver.(Highlighter)
	if !ok {
		return nil
	}
	if err := e.call(ctx, "highlight", func() error { return hl.Highlight(ctx, h) }); err != nil {
		return err
	}
	if err := e.clock.Sleep(ctx, e.opts.SettleDelay); err != nil {
		return err
	}
	return e.call(ctx, "clear highlight", func() error { return hl.ClearHighlight(ctx) })
}

func (e *Engine) find(ctx context.Context, step timeline.Step) (NodeHandle, error) {
	var h NodeHandle
	var found bool
	err := e.call(ctx, "find", func() (err error) {
		h, found, err = e.driver.FindNodeByText(ctx, step.NodeText)
		return err
	})
	if err != nil {
		return NodeHandle{}, err
	}
	if !found {
		return NodeHandle{}, failure.New(failure.KindNodeNotFound, "find", fmt.Sprintf("no node matching %q", step.NodeText))
	}
	return h, nil
}

// call runs one driver operation through the breaker, retrying driver failures.
// Errors come back as DRIVER_FAILURE unless they already carry a kind.
func (e *Engine) call(ctx context.Context, op string, fn func() error) error {
	var err error
	for attempt := 0; attempt <= e.opts.StepRetries; attempt++ {
		if attempt > 0 {
			if serr := e.clock.Sleep(ctx, e.opts.RetryDelay); serr != nil {
				return serr
			}
			e.logger.Debug("retrying driver call", zap.String("op", op), zap.Int("attempt", attempt+1))
		}

		_, err = e.breaker.Execute(func() (interface{}, error) {
			return nil, fn()
		})
		if err == nil {
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			break
		}
		if failure.KindOf(err) != "" && !errors.Is(err, failure.ErrDriver) {
			return err
		}
	}

	if errors.Is(err, failure.ErrDriver) {
		return err
	}
	return failure.Wrap(failure.KindDriver, op, err)
}

// collapseAll clicks every expanded toggle, deepest first, until a pass changes nothing
// or BulkPasses is reached. Failures here abort the run.
func (e *Engine) collapseAll(ctx context.Context) (int, error) {
	total, err := e.bulk(ctx, "collapse all", true)
	e.resetExpanded()
	return total, err
}

// expandAll clicks every collapsed toggle until a pass changes nothing or BulkPasses is reached.
func (e *Engine) expandAll(ctx context.Context) (int, error) {
	return e.bulk(ctx, "expand all", false)
}

func (e *Engine) bulk(ctx context.Context, op string, collapse bool) (int, error) {
	total := 0
	for pass := 0; pass < e.opts.BulkPasses; pass++ {
		handles, err := e.driver.QueryAllNodeGroups(ctx)
		if err != nil {
			return total, failure.Wrap(failure.KindDriver, op, err)
		}

		clicked := 0
		for i := range handles {
			h := handles[i]
			if collapse {
				h = handles[len(handles)-1-i]
			}
			if !h.Expandable {
				continue
			}

			open, err := e.driver.IsExpanded(ctx, h)
			if err != nil {
				return total, failure.Wrap(failure.KindDriver, op, err)
			}
			if open != collapse {
				continue
			}
			if err := e.driver.ClickExpandToggle(ctx, h); err != nil {
				return total, failure.Wrap(failure.KindDriver, op, err)
			}
			clicked++
		}

		total += clicked
		if clicked == 0 {
			e.logger.Info(op+" complete", zap.Int("toggled", total), zap.Int("passes", pass+1))
			return total, nil
		}
		e.logger.Debug(op+" pass", zap.Int("pass", pass+1), zap.Int("toggled", clicked))
		if err := e.clock.Sleep(ctx, e.opts.SettleDelay); err != nil {
			return total, err
		}
	}

	e.logger.Warn(op+" stopped at pass limit", zap.Int("passes", e.opts.BulkPasses), zap.Int("toggled", total))
	return total, nil
}
