// Package config loads run settings from defaults, an optional YAML file, an optional
// .env file and MINDREEL_* environment variables, in increasing priority.
package config

import (
	"time"

	"mindreel/animation"
	"mindreel/browser"
	"mindreel/hierarchy"
	"mindreel/importer"
	"mindreel/recorder"
	"mindreel/timeline"
)

// Config is the complete run configuration.
type Config struct {
	Log       Log       `yaml:"log"`
	Parser    Parser    `yaml:"parser"`
	Hierarchy Hierarchy `yaml:"hierarchy"`
	Timeline  Timeline  `yaml:"timeline"`
	Animation Animation `yaml:"animation"`
	Recording Recording `yaml:"recording"`
	Browser   Browser   `yaml:"browser"`
	Output    Output    `yaml:"output"`
	Metrics   Metrics   `yaml:"metrics"`

	// LoadedFrom lists the sources applied, lowest priority first
	LoadedFrom []string `yaml:"-"`
}

// Log configures the zap logger.
type Log struct {
	Level       string `yaml:"level" validate:"oneof=debug info warn error"`
	Environment string `yaml:"environment" validate:"oneof=development production"`
}

// Parser configures diagram selection and node extraction.
type Parser struct {
	MinSVGBytes   int       `yaml:"min_svg_bytes" validate:"gte=0"`
	MinTextLength int       `yaml:"min_text_length" validate:"gte=1"`
	LevelBands    []float64 `yaml:"level_bands" validate:"min=1,ascending,dive,gte=0"`
}

// Hierarchy configures tree reconstruction.
type Hierarchy struct {
	RootPolicy string `yaml:"root_policy" validate:"oneof=strict first geometric"`
}

// Timeline configures plan generation.
type Timeline struct {
	PausePerNode   float64 `yaml:"pause_per_node" validate:"gt=0"`
	MatchThreshold float64 `yaml:"match_threshold" validate:"gte=0,lte=1"`
	CollapseLead   float64 `yaml:"collapse_lead" validate:"gte=0"`
}

// Animation configures the engine.
type Animation struct {
	SettleDelay     time.Duration `yaml:"settle_delay" validate:"gte=0"`
	BulkPasses      int           `yaml:"bulk_passes" validate:"min=1,max=20"`
	StepRetries     int           `yaml:"step_retries" validate:"gte=0,lte=10"`
	RetryDelay      time.Duration `yaml:"retry_delay" validate:"gte=0"`
	BreakerFailures uint32        `yaml:"breaker_failures" validate:"gte=1"`
	BreakerCooldown time.Duration `yaml:"breaker_cooldown" validate:"gte=0"`
	TargetURL       string        `yaml:"target_url" validate:"omitempty,url"`
}

// Recording configures frame capture and encoding.
type Recording struct {
	Enabled    bool   `yaml:"enabled"`
	FPS        int    `yaml:"fps" validate:"min=1,max=60"`
	FFmpegPath string `yaml:"ffmpeg_path"`
	WorkDir    string `yaml:"work_dir"`
	KeepFrames bool   `yaml:"keep_frames"`
}

// Browser configures the DevTools session.
type Browser struct {
	CDPURL        string        `yaml:"cdp_url" validate:"omitempty,url"`
	Headless      bool          `yaml:"headless"`
	UserDataDir   string        `yaml:"user_data_dir"`
	Width         int           `yaml:"width" validate:"gt=0"`
	Height        int           `yaml:"height" validate:"gt=0"`
	ActionTimeout time.Duration `yaml:"action_timeout" validate:"gt=0"`
}

// Output configures where artifacts are written.
type Output struct {
	Dir string `yaml:"dir" validate:"required"`
}

// Metrics configures the Prometheus endpoint.
type Metrics struct {
	Enabled bool   `yaml:"enabled"`
	Addr    string `yaml:"addr" validate:"required_if=Enabled true"`
	Path    string `yaml:"path" validate:"startswith=/"`
}

// Default returns the configuration used when no other source sets a value.
func Default() *Config {
	imp := importer.DefaultOptions()
	tl := timeline.DefaultOptions()
	anim := animation.DefaultOptions()
	return &Config{
		Log: Log{
			Level:       "info",
			Environment: "development",
		},
		Parser: Parser{
			MinSVGBytes:   imp.MinCandidateBytes,
			MinTextLength: imp.MinTextLength,
			LevelBands:    append([]float64(nil), hierarchy.DefaultBands...),
		},
		Hierarchy: Hierarchy{
			RootPolicy: string(hierarchy.RootStrict),
		},
		Timeline: Timeline{
			PausePerNode:   tl.PausePerNode,
			MatchThreshold: tl.MatchThreshold,
			CollapseLead:   tl.CollapseLead,
		},
		Animation: Animation{
			SettleDelay:     anim.SettleDelay,
			BulkPasses:      anim.BulkPasses,
			StepRetries:     anim.StepRetries,
			RetryDelay:      anim.RetryDelay,
			BreakerFailures: anim.BreakerFailures,
			BreakerCooldown: anim.BreakerCooldown,
		},
		Recording: Recording{
			FPS:        anim.FPS,
			FFmpegPath: "ffmpeg",
		},
		Browser: Browser{
			Headless:      true,
			Width:         1920,
			Height:        1080,
			ActionTimeout: 30 * time.Second,
		},
		Output: Output{
			Dir: "output",
		},
		Metrics: Metrics{
			Addr: ":9090",
			Path: "/metrics",
		},
	}
}

// ImporterOptions returns the parser settings.
func (c *Config) ImporterOptions() importer.Options {
	return importer.Options{
		Bands:             hierarchy.Bands(c.Parser.LevelBands),
		MinTextLength:     c.Parser.MinTextLength,
		MinCandidateBytes: c.Parser.MinSVGBytes,
	}
}

// HierarchyOptions returns the tree reconstruction settings.
func (c *Config) HierarchyOptions() hierarchy.Options {
	policy, err := hierarchy.ParseRootPolicy(c.Hierarchy.RootPolicy)
	if err != nil {
		policy = hierarchy.RootStrict
	}
	return hierarchy.Options{Bands: hierarchy.Bands(c.Parser.LevelBands), RootPolicy: policy}
}

// TimelineOptions returns the plan generation settings.
func (c *Config) TimelineOptions() timeline.Options {
	return timeline.Options{
		PausePerNode:   c.Timeline.PausePerNode,
		MatchThreshold: c.Timeline.MatchThreshold,
		CollapseLead:   c.Timeline.CollapseLead,
	}
}

// AnimationOptions returns the engine settings. videoPath is empty when not recording.
func (c *Config) AnimationOptions(videoPath string) animation.Options {
	return animation.Options{
		SettleDelay:     c.Animation.SettleDelay,
		BulkPasses:      c.Animation.BulkPasses,
		StepRetries:     c.Animation.StepRetries,
		RetryDelay:      c.Animation.RetryDelay,
		BreakerFailures: c.Animation.BreakerFailures,
		BreakerCooldown: c.Animation.BreakerCooldown,
		TargetURL:       c.Animation.TargetURL,
		Record:          c.Recording.Enabled,
		VideoPath:       videoPath,
		FPS:             c.Recording.FPS,
	}
}

// RecorderConfig returns the frame recorder settings.
func (c *Config) RecorderConfig() recorder.Config {
	return recorder.Config{
		WorkDir:    c.Recording.WorkDir,
		OutputDir:  c.Output.Dir,
		KeepFrames: c.Recording.KeepFrames,
	}
}

// SessionConfig returns the browser session settings.
func (c *Config) SessionConfig() browser.SessionConfig {
	return browser.SessionConfig{
		RemoteURL:     c.Browser.CDPURL,
		Headless:      c.Browser.Headless,
		UserDataDir:   c.Browser.UserDataDir,
		Width:         c.Browser.Width,
		Height:        c.Browser.Height,
		ActionTimeout: c.Browser.ActionTimeout,
	}
}
