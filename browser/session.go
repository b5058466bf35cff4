// Package browser drives the hosted notebook page through the Chrome DevTools protocol.
package browser

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/chromedp/cdproto/emulation"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"
)

// SessionConfig selects how the browser is reached.
type SessionConfig struct {
	RemoteURL     string // DevTools endpoint of an already running Chrome; empty launches one
	Headless      bool
	UserDataDir   string
	Width         int
	Height        int
	ActionTimeout time.Duration
}

// Session owns one automated page. It is created once, shared by reference with the
// driver and recorder, and must be closed explicitly.
type Session struct {
	cfg    SessionConfig
	logger *zap.Logger

	ctx         context.Context
	cancel      context.CancelFunc
	cancelAlloc context.CancelFunc

	mu     sync.Mutex
	closed bool
}

// ErrSessionClosed is returned by Run after Close.
var ErrSessionClosed = errors.New("browser session closed")

// NewSession starts or attaches to Chrome and opens the page used for the run.
func NewSession(parent context.Context, cfg SessionConfig, logger *zap.Logger) (*Session, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		cfg.Width, cfg.Height = 1920, 1080
	}
	if cfg.ActionTimeout <= 0 {
		cfg.ActionTimeout = 30 * time.Second
	}

	var allocCtx context.Context
	var cancelAlloc context.CancelFunc
	if cfg.RemoteURL != "" {
		allocCtx, cancelAlloc = chromedp.NewRemoteAllocator(parent, cfg.RemoteURL)
	} else {
		opts := append(chromedp.DefaultExecAllocatorOptions[:],
			chromedp.Flag("headless", cfg.Headless),
			chromedp.WindowSize(cfg.Width, cfg.Height),
		)
		if cfg.UserDataDir != "" {
			opts = append(opts, chromedp.UserDataDir(cfg.UserDataDir))
		}
		allocCtx, cancelAlloc = chromedp.NewExecAllocator(parent, opts...)
	}

	sugar := logger.Sugar()
	ctx, cancel := chromedp.NewContext(allocCtx,
		chromedp.WithLogf(sugar.Debugf),
		chromedp.WithErrorf(sugar.Warnf),
	)

	// The first Run starts the browser and attaches the tab
	if err := chromedp.Run(ctx, emulation.SetDeviceMetricsOverride(int64(cfg.Width), int64(cfg.Height), 1, false)); err != nil {
		cancel()
		cancelAlloc()
		return nil, fmt.Errorf("failed to start browser session: %w", err)
	}

	logger.Info("browser session ready",
		zap.Bool("remote", cfg.RemoteURL != ""),
		zap.Int("width", cfg.Width),
		zap.Int("height", cfg.Height))

	return &Session{
		cfg:         cfg,
		logger:      logger,
		ctx:         ctx,
		cancel:      cancel,
		cancelAlloc: cancelAlloc,
	}, nil
}

// Run executes actions on the session page. The call stops when ctx is done or the
// action timeout passes, without closing the tab.
func (s *Session) Run(ctx context.Context, actions ...chromedp.Action) error {
	s.mu.Lock()
	closed := s.closed
	s.mu.Unlock()
	if closed {
		return ErrSessionClosed
	}

	runCtx, cancel := context.WithTimeout(s.ctx, s.cfg.ActionTimeout)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	err := chromedp.Run(runCtx, actions...)
	if err != nil && ctx.Err() != nil {
		return ctx.Err()
	}
	return err
}

// Close shuts the tab and, for launched browsers, the browser process.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true

	err := chromedp.Cancel(s.ctx)
	s.cancel()
	s.cancelAlloc()
	if err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("failed to close browser session: %w", err)
	}
	s.logger.Info("browser session closed")
	return nil
}
