package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"mindreel/config"
	"mindreel/logging"
	"mindreel/metrics"
	"mindreel/pipeline"
)

// errFailed signals that a command ran but its result status is failed.
var errFailed = errors.New("run failed")

type command struct {
	name    string
	summary string
	run     func(ctx context.Context, args []string) error
}

func commands() []command {
	return []command{
		{"extract", "Extract a mindmap from markup or a live page and save the artifact bundle", runExtract},
		{"plan", "Generate an animation timeline (cadence or transcript-synced)", runPlan},
		{"animate", "Play a timeline in the terminal or a browser, optionally recording video", runAnimate},
		{"export", "Convert a mindmap to json, flat, markdown, mermaid or svg", runExport},
		{"view", "Browse a mindmap interactively in the terminal", runView},
		{"watch", "Re-extract and save the bundle whenever a markup file changes", runWatch},
		{"merge-audio", "Add a narration track to a recorded video", runMergeAudio},
	}
}

func usage() {
	fmt.Fprintf(os.Stderr, "Usage: %s <command> [options] [file]\n\n", os.Args[0])
	fmt.Fprintf(os.Stderr, "Turns a notebook mindmap into a narrated, animated walkthrough.\n\n")
	fmt.Fprintf(os.Stderr, "Commands:\n")
	for _, c := range commands() {
		fmt.Fprintf(os.Stderr, "  %-12s %s\n", c.name, c.summary)
	}
	fmt.Fprintf(os.Stderr, "\nRun '%s <command> -help' for the options of a command.\n", os.Args[0])
	fmt.Fprintf(os.Stderr, "\nExamples:\n")
	fmt.Fprintf(os.Stderr, "  %s extract mindmap.svg                       # Save svg/json/md bundle to ./output\n", os.Args[0])
	fmt.Fprintf(os.Stderr, "  %s extract -url https://notebooklm.google.com/notebook/abc\n", os.Args[0])
	fmt.Fprintf(os.Stderr, "  %s plan -transcript narration.srt mindmap.svg\n", os.Args[0])
	fmt.Fprintf(os.Stderr, "  %s animate -record mindmap.json              # Terminal replay saved as .cast\n", os.Args[0])
	fmt.Fprintf(os.Stderr, "  %s animate -driver browser -record -audio narration.mp3 -url https://...\n", os.Args[0])
	fmt.Fprintf(os.Stderr, "  %s export -format mermaid -o map.mmd mindmap.svg\n", os.Args[0])
}

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	name := os.Args[1]
	if name == "-h" || name == "-help" || name == "--help" || name == "help" {
		usage()
		os.Exit(0)
	}

	var cmd *command
	for _, c := range commands() {
		if c.name == name {
			cmd = &c
			break
		}
	}
	if cmd == nil {
		fmt.Fprintf(os.Stderr, "Error: unknown command %q\n\n", name)
		usage()
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := cmd.run(ctx, os.Args[2:])
	stop()

	switch {
	case err == nil:
	case errors.Is(err, flag.ErrHelp):
		os.Exit(0)
	case errors.Is(err, errFailed):
		os.Exit(2)
	default:
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// globalFlags are accepted by every command.
type globalFlags struct {
	configFile string
	envFile    string
	logLevel   string
	outDir     string
}

func newFlagSet(name, args string) (*flag.FlagSet, *globalFlags) {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	g := &globalFlags{}
	fs.StringVar(&g.configFile, "config", "", "YAML configuration file")
	fs.StringVar(&g.envFile, "env", ".env", "Environment file with MINDREEL_* overrides (ignored when missing)")
	fs.StringVar(&g.logLevel, "log-level", "", "Override the log level: debug, info, warn, error")
	fs.StringVar(&g.outDir, "out", "", "Override the output directory")
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s %s [options] %s\n\nOptions:\n", os.Args[0], name, args)
		fs.PrintDefaults()
	}
	return fs, g
}

// app holds what every command needs once flags are parsed.
type app struct {
	cfg       *config.Config
	logger    *zap.Logger
	collector *metrics.Collector
	server    *http.Server
}

func (g *globalFlags) setup() (*app, error) {
	cfg, err := config.Load(g.configFile, g.envFile)
	if err != nil {
		return nil, err
	}
	if g.logLevel != "" {
		cfg.Log.Level = g.logLevel
	}
	if g.outDir != "" {
		cfg.Output.Dir = g.outDir
	}

	logger, err := logging.New(cfg.Log.Level, cfg.Log.Environment)
	if err != nil {
		return nil, err
	}
	logger.Debug("configuration loaded", zap.Strings("sources", cfg.LoadedFrom))

	a := &app{cfg: cfg, logger: logger, collector: metrics.NewCollector("mindreel")}
	if cfg.Metrics.Enabled {
		mux := http.NewServeMux()
		mux.Handle(cfg.Metrics.Path, a.collector.Handler())
		a.server = &http.Server{
			Addr:              cfg.Metrics.Addr,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("metrics server stopped", zap.Error(err))
			}
		}()
		logger.Info("serving metrics", zap.String("addr", cfg.Metrics.Addr), zap.String("path", cfg.Metrics.Path))
	}
	return a, nil
}

func (a *app) close() {
	if a.server != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = a.server.Shutdown(ctx)
	}
	_ = a.logger.Sync()
}

func (a *app) extractor() *pipeline.Extractor {
	return pipeline.NewExtractor(a.cfg.ImporterOptions(), a.cfg.HierarchyOptions(), a.logger, a.collector)
}

// printJSON writes v to stdout and maps a failed status to errFailed.
func printJSON(v any, status pipeline.Status) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return err
	}
	if status == pipeline.StatusFailed {
		return errFailed
	}
	return nil
}

// writeOutput writes content to path, or stdout when path is empty.
func writeOutput(path, content string) error {
	if path == "" {
		fmt.Println(content)
		return nil
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return fmt.Errorf("writing output: %w", err)
	}
	fmt.Fprintf(os.Stderr, "Successfully exported to %s\n", path)
	return nil
}
