// Package terminal renders a mindmap as a collapsible outline in the terminal and lets the
// animation engine drive it like the hosted notebook page.
package terminal

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/gdamore/tcell/v2"
	"github.com/mattn/go-runewidth"
	"go.uber.org/zap"

	"mindreel/animation"
	"mindreel/mindmap"
)

const (
	// matchPrefix is how much of a label is compared when locating a node.
	matchPrefix = 25
	headerRows  = 2
)

var (
	styleDefault   = tcell.StyleDefault
	styleTitle     = tcell.StyleDefault.Bold(true)
	styleMarker    = tcell.StyleDefault.Foreground(tcell.ColorYellow)
	styleHighlight = tcell.StyleDefault.Reverse(true)
	styleFocus     = tcell.StyleDefault.Underline(true)
)

type row struct {
	node  *mindmap.Node
	depth int
}

// Driver draws the tree on a tcell screen. Children are only drawn while their parent is expanded.
type Driver struct {
	screen tcell.Screen
	data   *mindmap.Data
	logger *zap.Logger

	mu          sync.Mutex
	expanded    map[string]bool
	highlighted string
	focused     string
	top         int // First visible row when the outline is taller than the screen
}

// NewDriver creates a driver on an initialised screen. Every node with children starts
// expanded, matching how the notebook first shows a generated mindmap.
func NewDriver(screen tcell.Screen, data *mindmap.Data, logger *zap.Logger) (*Driver, error) {
	if screen == nil {
		return nil, fmt.Errorf("terminal driver needs a screen")
	}
	if data == nil || data.Root == nil {
		return nil, fmt.Errorf("terminal driver needs a mindmap with a root")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	d := &Driver{
		screen:   screen,
		data:     data,
		logger:   logger,
		expanded: make(map[string]bool),
	}
	mindmap.Walk(data.Root, func(n *mindmap.Node, _ int) bool {
		if !n.IsLeaf() {
			d.expanded[n.ID] = true
		}
		return true
	})
	d.draw()
	return d, nil
}

// rows lists the visible nodes in document order. Callers hold mu.
func (d *Driver) rows() []row {
	var out []row
	mindmap.Walk(d.data.Root, func(n *mindmap.Node, depth int) bool {
		out = append(out, row{node: n, depth: depth})
		return d.expanded[n.ID]
	})
	return out
}

func handleFor(n *mindmap.Node) animation.NodeHandle {
	return animation.NodeHandle{Key: n.ID, Text: n.Text, Expandable: !n.IsLeaf()}
}

// FindNodeByText returns the first visible node whose label contains the first 25 runes of text.
func (d *Driver) FindNodeByText(ctx context.Context, text string) (animation.NodeHandle, bool, error) {
	if err := ctx.Err(); err != nil {
		return animation.NodeHandle{}, false, err
	}
	prefix := []rune(strings.TrimSpace(text))
	if len(prefix) > matchPrefix {
		prefix = prefix[:matchPrefix]
	}
	if len(prefix) == 0 {
		return animation.NodeHandle{}, false, nil
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	for _, r := range d.rows() {
		if strings.Contains(r.node.Text, string(prefix)) {
			return handleFor(r.node), true, nil
		}
	}
	return animation.NodeHandle{}, false, nil
}

// IsExpanded reports the node's toggle marker state.
func (d *Driver) IsExpanded(ctx context.Context, h animation.NodeHandle) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.visible(h.Key) == nil {
		return false, fmt.Errorf("node %s is not rendered", h.Key)
	}
	return d.expanded[h.Key], nil
}

// ClickExpandToggle flips the node between expanded and collapsed and redraws.
func (d *Driver) ClickExpandToggle(ctx context.Context, h animation.NodeHandle) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	d.mu.Lock()
	defer d.mu.Unlock()

	n := d.visible(h.Key)
	if n == nil {
		return fmt.Errorf("node %s is not rendered", h.Key)
	}
	if n.IsLeaf() {
		return fmt.Errorf("node %s has no toggle", h.Key)
	}
	d.expanded[n.ID] = !d.expanded[n.ID]
	d.logger.Debug("toggled", zap.String("node_id", n.ID), zap.Bool("expanded", d.expanded[n.ID]))
	d.draw()
	return nil
}

// ScrollIntoView moves the viewport so the node's row is on screen and marks it focused.
func (d *Driver) ScrollIntoView(ctx context.Context, h animation.NodeHandle) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	rows := d.rows()
	idx := -1
	for i, r := range rows {
		if r.node.ID == h.Key {
			idx = i
			break
		}
	}
	if idx < 0 {
		return fmt.Errorf("node %s is not rendered", h.Key)
	}

	_, height := d.screen.Size()
	page := height - headerRows
	if page < 1 {
		page = 1
	}
	switch {
	case idx < d.top:
		d.top = idx
	case idx >= d.top+page:
		d.top = idx - page + 1
	}
	d.focused = h.Key
	d.draw()
	return nil
}

// QueryAllNodeGroups returns every visible node in document order.
func (d *Driver) QueryAllNodeGroups(ctx context.Context) ([]animation.NodeHandle, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	d.mu.Lock()
	defer d.mu.Unlock()

	rows := d.rows()
	handles := make([]animation.NodeHandle, len(rows))
	for i, r := range rows {
		handles[i] = handleFor(r.node)
	}
	return handles, nil
}

// CurrentLocation identifies the mindmap being shown.
func (d *Driver) CurrentLocation(ctx context.Context) (string, error) {
	return "mindreel://" + d.data.ID, nil
}

// Highlight draws the node's row in reverse video.
func (d *Driver) Highlight(ctx context.Context, h animation.NodeHandle) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.highlighted = h.Key
	d.draw()
	return nil
}

// ClearHighlight removes any highlight.
func (d *Driver) ClearHighlight(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.highlighted = ""
	d.draw()
	return nil
}

// Release drops per-run emphasis so the screen shows the plain outline.
func (d *Driver) Release(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.highlighted = ""
	d.focused = ""
	d.draw()
	return nil
}

// Screen returns the screen the driver draws on.
func (d *Driver) Screen() tcell.Screen {
	return d.screen
}

func (d *Driver) visible(id string) *mindmap.Node {
	for _, r := range d.rows() {
		if r.node.ID == id {
			return r.node
		}
	}
	return nil
}

// draw repaints the whole screen. Callers hold mu.
func (d *Driver) draw() {
	d.screen.Clear()
	width, height := d.screen.Size()

	title := d.data.Title
	if title == "" {
		title = "Mindmap"
	}
	putString(d.screen, 0, 0, width, title, styleTitle)

	rows := d.rows()
	y := headerRows
	for i := d.top; i < len(rows) && y < height; i++ {
		d.drawRow(rows[i], y, width)
		y++
	}
	d.screen.Show()
}

func (d *Driver) drawRow(r row, y, width int) {
	style := styleDefault
	switch r.node.ID {
	case d.highlighted:
		style = styleHighlight
	case d.focused:
		style = styleFocus
	}

	x := putString(d.screen, r.depth*2, y, width, r.node.Text, style)
	if r.node.IsLeaf() {
		return
	}
	marker := ">"
	if d.expanded[r.node.ID] {
		marker = "<"
	}
	putString(d.screen, x+1, y, width, marker, styleMarker)
}

// putString writes s from column x, honouring wide runes, and returns the column after it.
func putString(s tcell.Screen, x, y, width int, text string, style tcell.Style) int {
	for _, r := range text {
		w := runewidth.RuneWidth(r)
		if w == 0 {
			w = 1
		}
		if x+w > width {
			break
		}
		s.SetContent(x, y, r, nil, style)
		x += w
	}
	return x
}
