package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"mindreel/browser"
	"mindreel/export"
	"mindreel/markdown"
	"mindreel/mindmap"
	"mindreel/pipeline"
	"mindreel/recorder"
	"mindreel/timeline"
	"mindreel/transcript"
	"mindreel/validation"
	"mindreel/watcher"
)

// source names where a mindmap comes from: a markup file or a live notebook page.
type source struct {
	file   string
	format string
	url    string
}

// load extracts the mindmap from s. Page extraction opens a short-lived browser session.
func (a *app) load(ctx context.Context, s source) (*mindmap.Data, *pipeline.Report, error) {
	if s.file != "" {
		return a.loadFile(s.file, s.format)
	}
	if s.url == "" {
		return nil, nil, fmt.Errorf("please provide a markup file or -url")
	}

	session, err := browser.NewSession(ctx, a.cfg.SessionConfig(), a.logger)
	if err != nil {
		return nil, nil, err
	}
	defer session.Close()
	return a.loadPage(ctx, browser.NewDriver(session, a.logger), s.url)
}

func (a *app) loadFile(path, format string) (*mindmap.Data, *pipeline.Report, error) {
	if format == "" {
		return a.extractor().ExtractFile(path)
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return a.extractor().Extract(path, format, string(content))
}

func (a *app) loadPage(ctx context.Context, driver *browser.Driver, url string) (*mindmap.Data, *pipeline.Report, error) {
	if err := driver.Navigate(ctx, url); err != nil {
		return nil, nil, err
	}
	// Let the mindmap finish its first layout
	select {
	case <-ctx.Done():
		return nil, nil, ctx.Err()
	case <-time.After(a.cfg.Animation.SettleDelay):
	}
	return a.extractor().ExtractPage(ctx, driver)
}

// plan builds the timeline, synced to the transcript when one is given.
func (a *app) plan(d *mindmap.Data, transcriptFile string) (*timeline.Timeline, error) {
	var segments []transcript.Segment
	if transcriptFile != "" {
		var err error
		if segments, err = transcript.Load(transcriptFile); err != nil {
			return nil, err
		}
	}
	return pipeline.NewPlanner(a.cfg.TimelineOptions(), a.logger).Plan(d, segments)
}

// timelineFor reads a saved timeline when timelineFile is set and plans one otherwise.
func (a *app) timelineFor(d *mindmap.Data, timelineFile, transcriptFile string) (*timeline.Timeline, error) {
	if timelineFile == "" {
		return a.plan(d, transcriptFile)
	}

	f, err := os.Open(timelineFile)
	if err != nil {
		return nil, fmt.Errorf("opening timeline: %w", err)
	}
	defer f.Close()

	tl, err := timeline.Decode(f)
	if err != nil {
		return nil, err
	}
	if problems := validation.NewTimelineValidator().Validate(tl, d); len(problems) > 0 {
		for _, p := range problems {
			a.logger.Warn("invalid timeline step", zap.String("problem", p.String()))
		}
		return nil, fmt.Errorf("timeline %s does not fit this mindmap: %s", timelineFile, problems[0])
	}
	return tl, nil
}

func runExtract(ctx context.Context, args []string) error {
	fs, g := newFlagSet("extract", "[markup file]")
	inputFormat := fs.String("input-format", "", "Input format: svg, json, outline (auto-detect if not specified)")
	pageURL := fs.String("url", "", "Read the rendered mindmap from this notebook page instead of a file")
	withTimeline := fs.Bool("timeline", false, "Also save a cadence timeline in the bundle")
	transcriptFile := fs.String("transcript", "", "Also save a timeline synced to this transcript (JSON or SRT)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	a, err := g.setup()
	if err != nil {
		return err
	}
	defer a.close()

	data, rep, err := a.load(ctx, source{file: fs.Arg(0), format: *inputFormat, url: *pageURL})
	if err != nil {
		return err
	}

	out := struct {
		Report *pipeline.Report   `json:"report"`
		Files  map[string]string `json:"files,omitempty"`
	}{Report: rep}

	if rep.Status != pipeline.StatusFailed {
		var tl *timeline.Timeline
		if *withTimeline || *transcriptFile != "" {
			if tl, err = a.plan(data, *transcriptFile); err != nil {
				return err
			}
		}
		if out.Files, err = export.SaveBundle(a.cfg.Output.Dir, data, tl, time.Now()); err != nil {
			return err
		}
		kinds := make([]string, 0, len(out.Files))
		for kind := range out.Files {
			kinds = append(kinds, kind)
		}
		sort.Strings(kinds)
		for _, kind := range kinds {
			a.logger.Info("saved artifact", zap.String("kind", kind), zap.String("path", out.Files[kind]))
		}
	}
	return printJSON(out, rep.Status)
}

func runPlan(ctx context.Context, args []string) error {
	fs, g := newFlagSet("plan", "[markup file]")
	inputFormat := fs.String("input-format", "", "Input format: svg, json, outline (auto-detect if not specified)")
	pageURL := fs.String("url", "", "Read the rendered mindmap from this notebook page instead of a file")
	transcriptFile := fs.String("transcript", "", "Sync the timeline to this transcript (JSON or SRT)")
	outputFile := fs.String("o", "", "Output file (default: stdout)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	a, err := g.setup()
	if err != nil {
		return err
	}
	defer a.close()

	data, rep, err := a.load(ctx, source{file: fs.Arg(0), format: *inputFormat, url: *pageURL})
	if err != nil {
		return err
	}
	if rep.Status == pipeline.StatusFailed {
		return printJSON(rep, rep.Status)
	}

	tl, err := a.plan(data, *transcriptFile)
	if err != nil {
		return err
	}
	var sb strings.Builder
	if err := tl.Encode(&sb); err != nil {
		return err
	}
	return writeOutput(*outputFile, strings.TrimRight(sb.String(), "\n"))
}

func runExport(ctx context.Context, args []string) error {
	fs, g := newFlagSet("export", "[markup file]")
	inputFormat := fs.String("input-format", "", "Input format: svg, json, outline (auto-detect if not specified)")
	pageURL := fs.String("url", "", "Read the rendered mindmap from this notebook page instead of a file")
	format := fs.String("format", "json", "Export format: json, flat, markdown, mermaid, svg")
	outputFile := fs.String("o", "", "Output file (default: stdout, or the -embed document)")
	embed := fs.String("embed", "", "Write a mermaid mindmap into a ```mermaid block of this markdown file")
	blockIndex := fs.Int("block", 0, "Which mindmap block to replace with -embed (1-based, 0 = the only one)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *embed != "" {
		*format = string(export.FormatMermaid)
	}

	exportFormat, err := export.ParseFormat(*format)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Available formats: %v\n", export.GetAvailableFormats())
		return err
	}
	exporter, err := export.NewExporter(exportFormat)
	if err != nil {
		return err
	}

	a, err := g.setup()
	if err != nil {
		return err
	}
	defer a.close()

	data, rep, err := a.load(ctx, source{file: fs.Arg(0), format: *inputFormat, url: *pageURL})
	if err != nil {
		return err
	}
	if rep.Status == pipeline.StatusFailed {
		return printJSON(rep, rep.Status)
	}

	output, err := exporter.Export(data)
	if err != nil {
		return fmt.Errorf("exporting mindmap: %w", err)
	}
	if *embed == "" {
		return writeOutput(*outputFile, output)
	}

	doc, err := os.ReadFile(*embed)
	if err != nil {
		return fmt.Errorf("reading markdown file: %w", err)
	}
	updated, err := markdown.Embed(string(doc), output, *blockIndex)
	if err != nil {
		return fmt.Errorf("%s: %w", *embed, err)
	}
	target := *outputFile
	if target == "" {
		target = *embed
	}
	return writeOutput(target, updated)
}

func runWatch(ctx context.Context, args []string) error {
	fs, g := newFlagSet("watch", "<markup file>")
	debounce := fs.Duration("debounce", 300*time.Millisecond, "Quiet period after the last write before re-extracting")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		fs.Usage()
		return fmt.Errorf("watch needs exactly one markup file")
	}

	a, err := g.setup()
	if err != nil {
		return err
	}
	defer a.close()

	w, err := watcher.New(fs.Arg(0), *debounce, a.logger)
	if err != nil {
		return err
	}

	extract := func(_ context.Context, path string) {
		data, rep, err := a.extractor().ExtractFile(path)
		if err != nil {
			a.logger.Error("extraction failed", zap.String("file", path), zap.Error(err))
			return
		}
		if rep.Status == pipeline.StatusFailed {
			a.logger.Warn("no mindmap found", zap.String("file", path), zap.Strings("problems", rep.Problems))
			return
		}
		paths, err := export.SaveBundle(a.cfg.Output.Dir, data, nil, time.Now())
		if err != nil {
			a.logger.Error("saving bundle failed", zap.Error(err))
			return
		}
		a.logger.Info("bundle saved",
			zap.String("status", string(rep.Status)),
			zap.Int("nodes", rep.NodesInTree),
			zap.String("json", paths["json"]))
	}

	if _, err := os.Stat(w.Path()); err == nil {
		extract(ctx, w.Path())
	}
	return w.Run(ctx, extract)
}

func runMergeAudio(ctx context.Context, args []string) error {
	fs, g := newFlagSet("merge-audio", "<video> <audio> [output]")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() < 2 {
		fs.Usage()
		return fmt.Errorf("merge-audio needs a video and an audio file")
	}

	a, err := g.setup()
	if err != nil {
		return err
	}
	defer a.close()

	video, audio := fs.Arg(0), fs.Arg(1)
	output := fs.Arg(2)
	if output == "" {
		output = withAudioName(video)
	}

	ff := recorder.NewFFmpeg(a.cfg.Recording.FFmpegPath)
	if !ff.Available() {
		return fmt.Errorf("ffmpeg not found at %q", ff.Path)
	}
	if err := ff.MergeAudio(ctx, video, audio, output); err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "Successfully merged audio into %s\n", output)
	return nil
}

// withAudioName turns "x.mp4" into "x_with_audio.mp4".
func withAudioName(video string) string {
	ext := filepath.Ext(video)
	return strings.TrimSuffix(video, ext) + "_with_audio" + ext
}
