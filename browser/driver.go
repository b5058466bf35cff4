package browser

import (
	"context"
	"fmt"
	"strings"

	"github.com/chromedp/chromedp"
	"go.uber.org/zap"

	"mindreel/animation"
)

const matchPrefix = 25

type nodeGroup struct {
	Key        string `json:"key"`
	Text       string `json:"text"`
	Expandable bool   `json:"expandable"`
}

// Driver implements animation.Driver against the mindmap rendered in the session page.
type Driver struct {
	session *Session
	logger  *zap.Logger
}

// NewDriver creates a driver on session.
func NewDriver(session *Session, logger *zap.Logger) *Driver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Driver{session: session, logger: logger}
}

// QueryAllNodeGroups returns every rendered node group in document order.
func (d *Driver) QueryAllNodeGroups(ctx context.Context) ([]animation.NodeHandle, error) {
	var groups []nodeGroup
	if err := d.session.Run(ctx, chromedp.Evaluate(nodeGroupsJS, &groups)); err != nil {
		return nil, fmt.Errorf("query node groups: %w", err)
	}
	handles := make([]animation.NodeHandle, len(groups))
	for i, g := range groups {
		handles[i] = animation.NodeHandle{Key: g.Key, Text: g.Text, Expandable: g.Expandable}
	}
	return handles, nil
}

// FindNodeByText returns the first rendered node whose label contains the first 25 runes of text.
func (d *Driver) FindNodeByText(ctx context.Context, text string) (animation.NodeHandle, bool, error) {
	handles, err := d.QueryAllNodeGroups(ctx)
	if err != nil {
		return animation.NodeHandle{}, false, err
	}
	h, ok := matchHandle(handles, text)
	return h, ok, nil
}

func matchHandle(handles []animation.NodeHandle, text string) (animation.NodeHandle, bool) {
	prefix := []rune(strings.TrimSpace(text))
	if len(prefix) == 0 {
		return animation.NodeHandle{}, false
	}
	if len(prefix) > matchPrefix {
		prefix = prefix[:matchPrefix]
	}
	for _, h := range handles {
		if strings.Contains(h.Text, string(prefix)) {
			return h, true
		}
	}
	return animation.NodeHandle{}, false
}

// IsExpanded reads the node's expand symbol: "<" means expanded.
func (d *Driver) IsExpanded(ctx context.Context, h animation.NodeHandle) (bool, error) {
	var open *bool
	if err := d.session.Run(ctx, chromedp.Evaluate(isExpandedJS(h.Key), &open)); err != nil {
		return false, fmt.Errorf("read toggle of %q: %w", h.Text, err)
	}
	if open == nil {
		return false, fmt.Errorf("node %q is no longer rendered", h.Text)
	}
	return *open, nil
}

// ClickExpandToggle dispatches a click on the node's toggle circle.
func (d *Driver) ClickExpandToggle(ctx context.Context, h animation.NodeHandle) error {
	return d.evalNode(ctx, "click toggle", h, clickToggleJS(h.Key))
}

// ScrollIntoView centres the node in the viewport.
func (d *Driver) ScrollIntoView(ctx context.Context, h animation.NodeHandle) error {
	return d.evalNode(ctx, "scroll", h, scrollIntoViewJS(h.Key))
}

// Highlight outlines the node's box.
func (d *Driver) Highlight(ctx context.Context, h animation.NodeHandle) error {
	return d.evalNode(ctx, "highlight", h, highlightJS(h.Key))
}

// ClearHighlight restores every outlined box.
func (d *Driver) ClearHighlight(ctx context.Context) error {
	var ok bool
	return d.session.Run(ctx, chromedp.Evaluate(clearHighlightJS, &ok))
}

// Release removes injected emphasis. The session itself stays open for its owner to close.
func (d *Driver) Release(ctx context.Context) error {
	return d.ClearHighlight(ctx)
}

// CurrentLocation returns the page URL.
func (d *Driver) CurrentLocation(ctx context.Context) (string, error) {
	var url string
	if err := d.session.Run(ctx, chromedp.Location(&url)); err != nil {
		return "", err
	}
	return url, nil
}

// Navigate loads url and waits for the document body.
func (d *Driver) Navigate(ctx context.Context, url string) error {
	d.logger.Info("navigating", zap.String("url", url))
	return d.session.Run(ctx,
		chromedp.Navigate(url),
		chromedp.WaitReady("body", chromedp.ByQuery),
	)
}

// SVGMarkup returns the outer markup of every svg element on the page, for the importer
// to choose the mindmap from.
func (d *Driver) SVGMarkup(ctx context.Context) ([]string, error) {
	var markup []string
	if err := d.session.Run(ctx, chromedp.Evaluate(svgMarkupJS, &markup)); err != nil {
		return nil, fmt.Errorf("read svg markup: %w", err)
	}
	return markup, nil
}

func (d *Driver) evalNode(ctx context.Context, op string, h animation.NodeHandle, script string) error {
	var ok *bool
	if err := d.session.Run(ctx, chromedp.Evaluate(script, &ok)); err != nil {
		return fmt.Errorf("%s %q: %w", op, h.Text, err)
	}
	if ok == nil {
		return fmt.Errorf("%s %q: node is no longer rendered", op, h.Text)
	}
	if !*ok {
		return fmt.Errorf("%s %q: node has no target element", op, h.Text)
	}
	return nil
}
