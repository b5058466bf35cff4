package animation

import (
	"context"
	"errors"
	"strings"
	"time"
)

type fakeClock struct {
	now    time.Time
	slept  time.Duration
	sleeps int
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Sleep(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if d > 0 {
		c.now = c.now.Add(d)
		c.slept += d
	}
	c.sleeps++
	return nil
}

type fakeNode struct {
	id       string
	text     string
	expanded bool
	children []*fakeNode
}

func (n *fakeNode) add(children ...*fakeNode) *fakeNode {
	n.children = append(n.children, children...)
	return n
}

// fakeDriver renders a collapsible tree: children are only visible while their parent is expanded.
type fakeDriver struct {
	root  *fakeNode
	clock *fakeClock

	findCost  time.Duration
	findTimes []time.Time
	finds     int
	onFind    func(text string)

	clicks    map[string]int
	failClick map[string]int // Remaining failures per node
	stuck     bool // Clicks are accepted but change nothing
	findErr   error
	queryErr  error

	location string
	scrolled []string
	released bool
}

func newFakeDriver(clock *fakeClock, expanded bool) *fakeDriver {
	gpu := &fakeNode{id: "gpu", text: "GPU Speicher"}
	hw := (&fakeNode{id: "hw", text: "Technische Basis & Hardware", expanded: expanded}).add(gpu)
	uc := &fakeNode{id: "uc", text: "Praktische Use Cases"}
	root := (&fakeNode{id: "root", text: "Private & Corporate LLM Masterclass", expanded: expanded}).add(hw, uc)

	return &fakeDriver{
		root:      root,
		clock:     clock,
		clicks:    make(map[string]int),
		failClick: make(map[string]int),
		location:  "https://notebook.example.com/notebook/abc",
	}
}

func (d *fakeDriver) visible() []*fakeNode {
	var out []*fakeNode
	var walk func(n *fakeNode)
	walk = func(n *fakeNode) {
		out = append(out, n)
		if n.expanded {
			for _, c := range n.children {
				walk(c)
			}
		}
	}
	walk(d.root)
	return out
}

func (d *fakeDriver) lookup(key string) *fakeNode {
	var found *fakeNode
	var walk func(n *fakeNode)
	walk = func(n *fakeNode) {
		if n.id == key {
			found = n
		}
		for _, c := range n.children {
			walk(c)
		}
	}
	walk(d.root)
	return found
}

func handleFor(n *fakeNode) NodeHandle {
	return NodeHandle{Key: n.id, Text: n.text, Expandable: len(n.children) > 0}
}

func (d *fakeDriver) FindNodeByText(ctx context.Context, text string) (NodeHandle, bool, error) {
	d.finds++
	d.findTimes = append(d.findTimes, d.clock.Now())
	if d.onFind != nil {
		d.onFind(text)
	}
	d.clock.now = d.clock.now.Add(d.findCost)
	if d.findErr != nil {
		return NodeHandle{}, false, d.findErr
	}

	prefix := []rune(text)
	if len(prefix) > 25 {
		prefix = prefix[:25]
	}
	for _, n := range d.visible() {
		if strings.Contains(n.text, string(prefix)) {
			return handleFor(n), true, nil
		}
	}
	return NodeHandle{}, false, nil
}

func (d *fakeDriver) IsExpanded(ctx context.Context, h NodeHandle) (bool, error) {
	n := d.lookup(h.Key)
	if n == nil {
		return false, errors.New("stale handle")
	}
	return n.expanded, nil
}

func (d *fakeDriver) ClickExpandToggle(ctx context.Context, h NodeHandle) error {
	d.clicks[h.Key]++
	if d.failClick[h.Key] > 0 {
		d.failClick[h.Key]--
		return errors.New("click intercepted by overlay")
	}
	if !d.stuck {
		n := d.lookup(h.Key)
		n.expanded = !n.expanded
	}
	return nil
}

func (d *fakeDriver) ScrollIntoView(ctx context.Context, h NodeHandle) error {
	d.scrolled = append(d.scrolled, h.Key)
	return nil
}

func (d *fakeDriver) QueryAllNodeGroups(ctx context.Context) ([]NodeHandle, error) {
	if d.queryErr != nil {
		return nil, d.queryErr
	}
	var out []NodeHandle
	for _, n := range d.visible() {
		out = append(out, handleFor(n))
	}
	return out, nil
}

func (d *fakeDriver) CurrentLocation(ctx context.Context) (string, error) {
	return d.location, nil
}

func (d *fakeDriver) Release(ctx context.Context) error {
	d.released = true
	return nil
}

type navigatingDriver struct {
	*fakeDriver
	navigated []string
	navErr    error
}

func (d *navigatingDriver) Navigate(ctx context.Context, url string) error {
	if d.navErr != nil {
		return d.navErr
	}
	d.navigated = append(d.navigated, url)
	d.location = url
	return nil
}

type highlightingDriver struct {
	*fakeDriver
	highlighted []string
	cleared     int
}

func (d *highlightingDriver) Highlight(ctx context.Context, h NodeHandle) error {
	d.highlighted = append(d.highlighted, h.Key)
	return nil
}

func (d *highlightingDriver) ClearHighlight(ctx context.Context) error {
	d.cleared++
	return nil
}

type fakeRecorder struct {
	started     bool
	stopped     bool
	labels      []string
	startErr    error
	captureErr  error
	assembled   string
	assembleFPS int
}

func (r *fakeRecorder) Start(ctx context.Context) error {
	if r.startErr != nil {
		return r.startErr
	}
	r.started = true
	return nil
}

func (r *fakeRecorder) CaptureFrame(ctx context.Context, label string) error {
	if r.captureErr != nil {
		return r.captureErr
	}
	r.labels = append(r.labels, label)
	return nil
}

func (r *fakeRecorder) Stop(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.stopped = true
	return nil
}

func (r *fakeRecorder) AssembleVideo(ctx context.Context, filename string, fps int) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	r.assembled = filename
	r.assembleFPS = fps
	return filename, nil
}

type countingObserver struct {
	steps  map[string]int
	frames int
	runs   []string
}

func (o *countingObserver) ObserveStep(action, outcome string) {
	if o.steps == nil {
		o.steps = make(map[string]int)
	}
	o.steps[action+"/"+outcome]++
}

func (o *countingObserver) ObserveFrame(ok bool) {
	if ok {
		o.frames++
	}
}

func (o *countingObserver) ObserveRun(status string, elapsed time.Duration) {
	o.runs = append(o.runs, status)
}
