// Package recorder captures frames from a live driver and assembles them into a video with ffmpeg.
package recorder

import (
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
)

// Runner executes an external command and returns its combined output.
type Runner func(ctx context.Context, name string, args ...string) ([]byte, error)

func execRunner(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).CombinedOutput()
}

// FFmpeg invokes the ffmpeg binary.
type FFmpeg struct {
	Path string
	Run  Runner
}

// NewFFmpeg returns an encoder using the binary at path, or "ffmpeg" from PATH.
func NewFFmpeg(path string) *FFmpeg {
	if path == "" {
		path = "ffmpeg"
	}
	return &FFmpeg{Path: path, Run: execRunner}
}

// Available reports whether the binary can be found.
func (f *FFmpeg) Available() bool {
	_, err := exec.LookPath(f.Path)
	return err == nil
}

func encodeArgs(concatList string, fps int, output string) []string {
	return []string{
		"-y",
		"-f", "concat",
		"-safe", "0",
		"-i", concatList,
		"-vf", "pad=ceil(iw/2)*2:ceil(ih/2)*2",
		"-r", strconv.Itoa(fps),
		"-c:v", "libx264",
		"-preset", "fast",
		"-crf", "23",
		"-pix_fmt", "yuv420p",
		output,
	}
}

func mergeArgs(video, audio, output string) []string {
	return []string{
		"-y",
		"-i", video,
		"-i", audio,
		"-c:v", "copy",
		"-c:a", "aac",
		"-b:a", "192k",
		"-shortest",
		output,
	}
}

// Encode renders the frames listed in a concat demuxer file to an H.264 video.
func (f *FFmpeg) Encode(ctx context.Context, concatList string, fps int, output string) error {
	return f.run(ctx, encodeArgs(concatList, fps, output))
}

// MergeAudio muxes narration into video without re-encoding the picture. The result is
// cut to the shorter stream.
func (f *FFmpeg) MergeAudio(ctx context.Context, video, audio, output string) error {
	return f.run(ctx, mergeArgs(video, audio, output))
}

func (f *FFmpeg) run(ctx context.Context, args []string) error {
	run := f.Run
	if run == nil {
		run = execRunner
	}
	out, err := run(ctx, f.Path, args...)
	if err != nil {
		return fmt.Errorf("%s failed: %w: %s", f.Path, err, lastLines(string(out), 5))
	}
	return nil
}

func lastLines(s string, n int) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return strings.Join(lines, " | ")
}
