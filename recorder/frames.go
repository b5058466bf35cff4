package recorder

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"mindreel/failure"
)

// FrameSource produces one PNG image of the current UI.
type FrameSource interface {
	Capture(ctx context.Context) ([]byte, error)
}

// Config controls where frames and videos are written.
type Config struct {
	WorkDir    string // Parent of the per-run frame directory, os.TempDir when empty
	OutputDir  string // Directory for relative video filenames
	KeepFrames bool
}

type capturedFrame struct {
	path  string
	label string
	at    time.Duration
}

// FrameRecorder implements animation.Recorder. Frames are captured only at step
// boundaries, so each frame is held on screen until the next one in the assembled video.
type FrameRecorder struct {
	source FrameSource
	ffmpeg *FFmpeg
	cfg    Config
	logger *zap.Logger
	now    func() time.Time

	mu      sync.Mutex
	dir     string
	started time.Time
	stopped time.Time
	frames  []capturedFrame
	running bool
}

// NewFrameRecorder creates a recorder capturing from source.
func NewFrameRecorder(source FrameSource, ffmpeg *FFmpeg, cfg Config, logger *zap.Logger) *FrameRecorder {
	if ffmpeg == nil {
		ffmpeg = NewFFmpeg("")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FrameRecorder{source: source, ffmpeg: ffmpeg, cfg: cfg, logger: logger, now: time.Now}
}

// Start creates a fresh frame directory.
func (r *FrameRecorder) Start(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.cleanupLocked()
	dir, err := os.MkdirTemp(r.cfg.WorkDir, "mindreel-frames-*")
	if err != nil {
		return failure.Wrap(failure.KindRecorder, "start", err)
	}
	r.dir = dir
	r.frames = nil
	r.started = r.now()
	r.stopped = time.Time{}
	r.running = true
	r.logger.Debug("recording started", zap.String("dir", dir))
	return nil
}

// CaptureFrame writes the current image to the frame directory.
func (r *FrameRecorder) CaptureFrame(ctx context.Context, label string) error {
	r.mu.Lock()
	running, dir, n := r.running, r.dir, len(r.frames)
	r.mu.Unlock()
	if !running {
		return failure.New(failure.KindRecorder, "capture", "recorder not started")
	}

	data, err := r.source.Capture(ctx)
	if err != nil {
		return failure.Wrap(failure.KindRecorder, "capture", err)
	}
	path := filepath.Join(dir, fmt.Sprintf("frame_%05d.png", n))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return failure.Wrap(failure.KindRecorder, "capture", err)
	}

	r.mu.Lock()
	r.frames = append(r.frames, capturedFrame{path: path, label: label, at: r.now().Sub(r.started)})
	r.mu.Unlock()
	return nil
}

// Stop ends capture. The last frame is held until this moment.
func (r *FrameRecorder) Stop(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.running {
		r.stopped = r.now()
		r.running = false
	}
	return nil
}

// Frames returns how many frames were captured.
func (r *FrameRecorder) Frames() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.frames)
}

// AssembleVideo encodes the captured frames to filename (".mp4" is enforced) and removes
// the frame directory unless KeepFrames is set.
func (r *FrameRecorder) AssembleVideo(ctx context.Context, filename string, fps int) (string, error) {
	r.mu.Lock()
	frames := append([]capturedFrame(nil), r.frames...)
	end := r.stopped.Sub(r.started)
	if r.stopped.IsZero() {
		end = r.now().Sub(r.started)
	}
	dir := r.dir
	r.mu.Unlock()

	if len(frames) == 0 {
		return "", failure.New(failure.KindRecorder, "assemble", "no frames captured")
	}
	if fps <= 0 {
		fps = 15
	}
	if !r.cfg.KeepFrames {
		defer func() {
			r.mu.Lock()
			r.cleanupLocked()
			r.mu.Unlock()
		}()
	}

	output := videoPath(r.cfg.OutputDir, filename)
	if err := os.MkdirAll(filepath.Dir(output), 0o755); err != nil {
		return "", failure.Wrap(failure.KindRecorder, "assemble", err)
	}

	listPath := filepath.Join(dir, "frames.txt")
	list := concatList(frames, end, time.Second/time.Duration(fps))
	if err := os.WriteFile(listPath, []byte(list), 0o644); err != nil {
		return "", failure.Wrap(failure.KindRecorder, "assemble", err)
	}

	r.logger.Info("encoding video",
		zap.Int("frames", len(frames)),
		zap.Int("fps", fps),
		zap.String("output", output))
	if err := r.ffmpeg.Encode(ctx, listPath, fps, output); err != nil {
		return "", failure.Wrap(failure.KindRecorder, "assemble", err)
	}
	return output, nil
}

func (r *FrameRecorder) cleanupLocked() {
	if r.dir == "" {
		return
	}
	if err := os.RemoveAll(r.dir); err != nil {
		r.logger.Warn("failed to remove frame directory", zap.String("dir", r.dir), zap.Error(err))
	}
	r.dir = ""
}

func videoPath(outputDir, filename string) string {
	if ext := filepath.Ext(filename); ext != ".mp4" {
		filename = strings.TrimSuffix(filename, ext) + ".mp4"
	}
	if filepath.IsAbs(filename) || outputDir == "" {
		return filename
	}
	return filepath.Join(outputDir, filename)
}

// concatList writes an ffmpeg concat demuxer script. Each frame lasts until the next
// capture; the last one until end. No frame is shorter than one output frame.
func concatList(frames []capturedFrame, end, minDur time.Duration) string {
	var b strings.Builder
	b.WriteString("ffconcat version 1.0\n")
	for i, f := range frames {
		next := end
		if i+1 < len(frames) {
			next = frames[i+1].at
		}
		d := next - f.at
		if d < minDur {
			d = minDur
		}
		fmt.Fprintf(&b, "# %s\n", strings.ReplaceAll(f.label, "\n", " "))
		fmt.Fprintf(&b, "file '%s'\n", quotePath(f.path))
		fmt.Fprintf(&b, "duration %s\n", strconv.FormatFloat(d.Seconds(), 'f', 3, 64))
	}
	// The demuxer ignores the duration of the final entry unless the file is repeated
	fmt.Fprintf(&b, "file '%s'\n", quotePath(frames[len(frames)-1].path))
	return b.String()
}

func quotePath(p string) string {
	return strings.ReplaceAll(p, "'", `'\''`)
}
