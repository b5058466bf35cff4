package main

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/gdamore/tcell/v2"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"mindreel/animation"
	"mindreel/browser"
	"mindreel/export"
	"mindreel/mindmap"
	"mindreel/pipeline"
	"mindreel/recorder"
	"mindreel/terminal"
	"mindreel/timeline"
)

func runView(ctx context.Context, args []string) error {
	fs, g := newFlagSet("view", "<markup file>")
	inputFormat := fs.String("input-format", "", "Input format: svg, json, outline (auto-detect if not specified)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		fs.Usage()
		return fmt.Errorf("view needs a markup file")
	}

	a, err := g.setup()
	if err != nil {
		return err
	}
	defer a.close()

	data, rep, err := a.loadFile(fs.Arg(0), *inputFormat)
	if err != nil {
		return err
	}
	if data.Root == nil {
		return printJSON(rep, pipeline.StatusFailed)
	}

	screen, err := openScreen()
	if err != nil {
		return err
	}
	defer screen.Fini()

	driver, err := terminal.NewDriver(screen, data, quiet(a.logger))
	if err != nil {
		return err
	}
	if err := driver.Interact(ctx); err != nil && ctx.Err() == nil {
		return err
	}
	return nil
}

func runAnimate(ctx context.Context, args []string) error {
	fs, g := newFlagSet("animate", "[markup file]")
	inputFormat := fs.String("input-format", "", "Input format: svg, json, outline (auto-detect if not specified)")
	driverName := fs.String("driver", "terminal", "UI driver: terminal or browser")
	pageURL := fs.String("url", "", "Notebook page to animate (browser driver)")
	timelineFile := fs.String("timeline", "", "Play this saved timeline instead of planning one")
	transcriptFile := fs.String("transcript", "", "Sync the timeline to this transcript (JSON or SRT)")
	record := fs.Bool("record", false, "Record the run (video for browser, asciicast for terminal)")
	audio := fs.String("audio", "", "Merge this narration track into the recorded video (browser driver)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	a, err := g.setup()
	if err != nil {
		return err
	}
	defer a.close()

	if *record {
		a.cfg.Recording.Enabled = true
	}

	run := animateRun{
		file:           fs.Arg(0),
		format:         *inputFormat,
		url:            *pageURL,
		timelineFile:   *timelineFile,
		transcriptFile: *transcriptFile,
		audio:          *audio,
	}

	var summary pipeline.Summary
	switch *driverName {
	case "terminal":
		summary, err = a.animateTerminal(ctx, run)
	case "browser":
		summary, err = a.animateBrowser(ctx, run)
	default:
		return fmt.Errorf("unknown driver %q (want terminal or browser)", *driverName)
	}
	if err != nil {
		return err
	}
	return printJSON(summary, summary.Status)
}

// animateRun carries the inputs of one animate invocation.
type animateRun struct {
	file           string
	format         string
	url            string
	timelineFile   string
	transcriptFile string
	audio          string
}

// videoName is the base file name for a recording of d started now.
func videoName(d *mindmap.Data) string {
	return export.BaseName(d.Title, time.Now()) + ".mp4"
}

func (a *app) animateTerminal(ctx context.Context, run animateRun) (pipeline.Summary, error) {
	if run.file == "" {
		return pipeline.Summary{}, fmt.Errorf("the terminal driver needs a markup file")
	}

	data, rep, err := a.loadFile(run.file, run.format)
	if err != nil {
		return pipeline.Summary{}, err
	}
	if data.Root == nil {
		return pipeline.Summarize(rep, nil, fmt.Errorf("no mindmap root to animate")), nil
	}

	tl, err := a.timelineFor(data, run.timelineFile, run.transcriptFile)
	if err != nil {
		return pipeline.Summary{}, err
	}

	screen, err := openScreen()
	if err != nil {
		return pipeline.Summary{}, err
	}
	defer screen.Fini()

	logger := quiet(a.logger)
	driver, err := terminal.NewDriver(screen, data, logger)
	if err != nil {
		return pipeline.Summary{}, err
	}

	var rec animation.Recorder
	if a.cfg.Recording.Enabled {
		rec = terminal.NewCastRecorder(screen)
	}

	opts := a.cfg.AnimationOptions(filepath.Join(a.cfg.Output.Dir, videoName(data)))
	opts.Record = rec != nil
	// A terminal has no page to navigate to
	opts.TargetURL = ""

	res, runErr := animation.NewEngine(driver, rec, opts, logger, a.collector).Run(ctx, tl)
	return pipeline.Summarize(rep, res, runErr), nil
}

func (a *app) animateBrowser(ctx context.Context, run animateRun) (pipeline.Summary, error) {
	url := run.url
	if url == "" {
		url = a.cfg.Animation.TargetURL
	}
	if url == "" {
		return pipeline.Summary{}, fmt.Errorf("the browser driver needs -url or animation.target_url")
	}

	var ff *recorder.FFmpeg
	if a.cfg.Recording.Enabled || run.audio != "" {
		ff = recorder.NewFFmpeg(a.cfg.Recording.FFmpegPath)
		if !ff.Available() {
			return pipeline.Summary{}, fmt.Errorf("recording needs ffmpeg, not found at %q", ff.Path)
		}
	}

	session, err := browser.NewSession(ctx, a.cfg.SessionConfig(), a.logger)
	if err != nil {
		return pipeline.Summary{}, err
	}
	defer session.Close()
	driver := browser.NewDriver(session, a.logger)

	var (
		data *mindmap.Data
		rep  *pipeline.Report
	)
	if run.file != "" {
		data, rep, err = a.loadFile(run.file, run.format)
	} else {
		data, rep, err = a.loadPage(ctx, driver, url)
	}
	if err != nil {
		return pipeline.Summary{}, err
	}
	if rep.Status == pipeline.StatusFailed {
		return pipeline.Summarize(rep, nil, nil), nil
	}

	var tl *timeline.Timeline
	if tl, err = a.timelineFor(data, run.timelineFile, run.transcriptFile); err != nil {
		return pipeline.Summary{}, err
	}

	var rec animation.Recorder
	if a.cfg.Recording.Enabled {
		rec = recorder.NewFrameRecorder(browser.NewScreenshots(session), ff, a.cfg.RecorderConfig(), a.logger)
	}

	opts := a.cfg.AnimationOptions(videoName(data))
	opts.Record = rec != nil
	opts.TargetURL = url

	res, runErr := animation.NewEngine(driver, rec, opts, a.logger, a.collector).Run(ctx, tl)

	if runErr == nil && run.audio != "" && res.VideoPath != "" {
		merged := withAudioName(res.VideoPath)
		if err := ff.MergeAudio(ctx, res.VideoPath, run.audio, merged); err != nil {
			a.logger.Error("audio merge failed", zap.String("video", res.VideoPath), zap.Error(err))
			res.RecorderErrors++
			res.Status = animation.StatusPartial
		} else {
			a.logger.Info("audio merged", zap.String("video", merged))
			res.VideoPath = merged
		}
	}
	return pipeline.Summarize(rep, res, runErr), nil
}

func openScreen() (tcell.Screen, error) {
	screen, err := tcell.NewScreen()
	if err != nil {
		return nil, fmt.Errorf("opening terminal: %w", err)
	}
	if err := screen.Init(); err != nil {
		return nil, fmt.Errorf("initialising terminal: %w", err)
	}
	return screen, nil
}

// quiet keeps the log stream to errors while tcell owns the terminal.
func quiet(logger *zap.Logger) *zap.Logger {
	return logger.WithOptions(zap.IncreaseLevel(zapcore.ErrorLevel))
}
