package terminal

import (
	"context"

	"github.com/gdamore/tcell/v2"
)

// Interact lets a user browse the outline: arrows move the focus, space or enter toggles,
// e expands everything, c collapses everything, q or escape quits.
func (d *Driver) Interact(ctx context.Context) error {
	events := make(chan tcell.Event)
	quit := make(chan struct{})
	go d.screen.ChannelEvents(events, quit)
	defer close(quit)

	d.mu.Lock()
	if d.focused == "" {
		d.focused = d.data.Root.ID
	}
	d.draw()
	d.mu.Unlock()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			switch ev := ev.(type) {
			case *tcell.EventResize:
				d.screen.Sync()
			case *tcell.EventKey:
				if d.handleKey(ev) {
					return nil
				}
			}
		}
	}
}

// handleKey applies one key press and reports whether the viewer should exit.
func (d *Driver) handleKey(ev *tcell.EventKey) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	switch ev.Key() {
	case tcell.KeyEscape, tcell.KeyCtrlC:
		return true
	case tcell.KeyUp:
		d.moveFocus(-1)
	case tcell.KeyDown:
		d.moveFocus(1)
	case tcell.KeyEnter:
		d.toggleFocused()
	case tcell.KeyRune:
		switch ev.Rune() {
		case 'q':
			return true
		case ' ':
			d.toggleFocused()
		case 'k':
			d.moveFocus(-1)
		case 'j':
			d.moveFocus(1)
		case 'e':
			d.setAll(true)
		case 'c':
			d.setAll(false)
		}
	}
	d.draw()
	return false
}

func (d *Driver) moveFocus(delta int) {
	rows := d.rows()
	idx := 0
	for i, r := range rows {
		if r.node.ID == d.focused {
			idx = i
			break
		}
	}
	idx += delta
	if idx < 0 {
		idx = 0
	}
	if idx >= len(rows) {
		idx = len(rows) - 1
	}
	d.focused = rows[idx].node.ID

	_, height := d.screen.Size()
	page := height - headerRows
	switch {
	case idx < d.top:
		d.top = idx
	case page > 0 && idx >= d.top+page:
		d.top = idx - page + 1
	}
}

func (d *Driver) toggleFocused() {
	if n := d.visible(d.focused); n != nil && !n.IsLeaf() {
		d.expanded[n.ID] = !d.expanded[n.ID]
	}
}

func (d *Driver) setAll(open bool) {
	for _, n := range d.data.Nodes {
		if !n.IsLeaf() {
			d.expanded[n.ID] = open
		}
	}
	if !open {
		d.focused = d.data.Root.ID
		d.top = 0
	}
}
