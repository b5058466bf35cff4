package browser

import (
	"context"
	"fmt"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
)

// Screenshots captures the session viewport as PNG frames for recorder.FrameRecorder.
type Screenshots struct {
	session *Session
}

// NewScreenshots creates a frame source on session.
func NewScreenshots(session *Session) *Screenshots {
	return &Screenshots{session: session}
}

// Capture returns one PNG of the current viewport.
func (s *Screenshots) Capture(ctx context.Context) ([]byte, error) {
	var buf []byte
	err := s.session.Run(ctx, chromedp.ActionFunc(func(ctx context.Context) error {
		data, err := page.CaptureScreenshot().
			WithFormat(page.CaptureScreenshotFormatPng).
			WithFromSurface(true).
			Do(ctx)
		if err != nil {
			return err
		}
		buf = data
		return nil
	}))
	if err != nil {
		return nil, fmt.Errorf("capture screenshot: %w", err)
	}
	return buf, nil
}
