package terminal

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/gdamore/tcell/v2"
)

// frame is one captured screen with its offset from the start of recording.
type frame struct {
	at    time.Duration
	label string
	text  string
}

// CastRecorder snapshots a tcell screen at each capture and writes the frames as an
// asciicast v2 file, which terminal players replay with the original timing.
type CastRecorder struct {
	screen tcell.Screen
	now    func() time.Time

	mu      sync.Mutex
	started time.Time
	frames  []frame
	running bool
}

// NewCastRecorder creates a recorder for screen.
func NewCastRecorder(screen tcell.Screen) *CastRecorder {
	return &CastRecorder{screen: screen, now: time.Now}
}

// Start begins a new recording, discarding any previous frames.
func (r *CastRecorder) Start(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.started = r.now()
	r.frames = nil
	r.running = true
	return nil
}

// CaptureFrame stores the current screen contents.
func (r *CastRecorder) CaptureFrame(ctx context.Context, label string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.running {
		return fmt.Errorf("recorder not started")
	}
	r.frames = append(r.frames, frame{
		at:    r.now().Sub(r.started),
		label: label,
		text:  Snapshot(r.screen),
	})
	return nil
}

// Stop ends the recording. Frames stay available for AssembleVideo.
func (r *CastRecorder) Stop(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.running = false
	return nil
}

// Frames returns how many frames were captured.
func (r *CastRecorder) Frames() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.frames)
}

// AssembleVideo writes the frames to filename as asciicast v2. The extension is forced
// to .cast. fps is ignored because frames keep their capture times.
func (r *CastRecorder) AssembleVideo(ctx context.Context, filename string, fps int) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.frames) == 0 {
		return "", fmt.Errorf("no frames captured")
	}
	path := strings.TrimSuffix(filename, filepath.Ext(filename)) + ".cast"
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", err
	}

	f, err := os.Create(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	width, height := r.screen.Size()
	header := map[string]any{
		"version":   2,
		"width":     width,
		"height":    height,
		"timestamp": r.started.Unix(),
		"title":     r.frames[0].label,
	}
	if err := writeJSONLine(w, header); err != nil {
		return "", err
	}
	for _, fr := range r.frames {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		event := []any{fr.at.Seconds(), "o", "\x1b[H\x1b[2J" + fr.text}
		if err := writeJSONLine(w, event); err != nil {
			return "", err
		}
	}
	if err := w.Flush(); err != nil {
		return "", err
	}
	return path, nil
}

func writeJSONLine(w *bufio.Writer, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	if _, err := w.Write(data); err != nil {
		return err
	}
	return w.WriteByte('\n')
}

// Snapshot returns the screen's text, one line per row with trailing blanks trimmed.
func Snapshot(s tcell.Screen) string {
	width, height := s.Size()
	lines := make([]string, height)
	for y := 0; y < height; y++ {
		var b strings.Builder
		for x := 0; x < width; {
			r, _, _, w := s.GetContent(x, y)
			if r == 0 {
				r = ' '
			}
			b.WriteRune(r)
			if w < 1 {
				w = 1
			}
			x += w
		}
		lines[y] = strings.TrimRight(b.String(), " ")
	}
	return strings.TrimRight(strings.Join(lines, "\r\n"), "\r\n")
}
