package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mindreel/hierarchy"
)

func envMap(vars map[string]string) func(string) (string, bool) {
	return func(key string) (string, bool) {
		v, ok := vars[key]
		return v, ok
	}
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestDefaultsAreValid(t *testing.T) {
	cfg, err := (&Loader{Lookup: envMap(nil)}).Load()
	require.NoError(t, err)

	assert.Equal(t, []string{"defaults"}, cfg.LoadedFrom)
	assert.Equal(t, 5000, cfg.Parser.MinSVGBytes)
	assert.Equal(t, 2, cfg.Parser.MinTextLength)
	assert.Equal(t, []float64{100, 500, 1000, 1600, 2300}, cfg.Parser.LevelBands)
	assert.Equal(t, "strict", cfg.Hierarchy.RootPolicy)
	assert.Equal(t, 3.0, cfg.Timeline.PausePerNode)
	assert.Equal(t, 0.3, cfg.Timeline.MatchThreshold)
	assert.Equal(t, 0.5, cfg.Timeline.CollapseLead)
	assert.Equal(t, 500*time.Millisecond, cfg.Animation.SettleDelay)
	assert.Equal(t, 5, cfg.Animation.BulkPasses)
	assert.Equal(t, 2, cfg.Animation.StepRetries)
	assert.Equal(t, 15, cfg.Recording.FPS)
}

func TestLayering(t *testing.T) {
	dir := t.TempDir()
	yamlPath := writeFile(t, dir, "mindreel.yaml", `
log:
  level: debug
timeline:
  pause_per_node: 2.5
  match_threshold: 0.4
animation:
  settle_delay: 800ms
  bulk_passes: 10
hierarchy:
  root_policy: first
`)
	envPath := writeFile(t, dir, ".env", "MINDREEL_PAUSE_PER_NODE=4\nMINDREEL_OUTPUT_DIR=from-dotenv\n")

	cfg, err := (&Loader{
		File:    yamlPath,
		EnvFile: envPath,
		Lookup:  envMap(map[string]string{"MINDREEL_PAUSE_PER_NODE": "5", "MINDREEL_RECORD": "true"}),
	}).Load()
	require.NoError(t, err)

	assert.Equal(t, []string{"defaults", yamlPath, envPath, "environment"}, cfg.LoadedFrom)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, 0.4, cfg.Timeline.MatchThreshold)
	assert.Equal(t, 800*time.Millisecond, cfg.Animation.SettleDelay)
	assert.Equal(t, 10, cfg.Animation.BulkPasses)
	assert.Equal(t, 5.0, cfg.Timeline.PausePerNode, "process environment wins over .env and YAML")
	assert.Equal(t, "from-dotenv", cfg.Output.Dir)
	assert.True(t, cfg.Recording.Enabled)
	assert.Equal(t, hierarchy.RootFirst, cfg.HierarchyOptions().RootPolicy)
}

func TestMissingFiles(t *testing.T) {
	dir := t.TempDir()

	_, err := (&Loader{File: filepath.Join(dir, "absent.yaml"), Lookup: envMap(nil)}).Load()
	assert.ErrorContains(t, err, "failed to read config")

	cfg, err := (&Loader{EnvFile: filepath.Join(dir, ".env"), Lookup: envMap(nil)}).Load()
	require.NoError(t, err, "a missing .env file is ignored")
	assert.Equal(t, []string{"defaults"}, cfg.LoadedFrom)
}

func TestUnknownYAMLField(t *testing.T) {
	path := writeFile(t, t.TempDir(), "bad.yaml", "timeline:\n  pause: 2\n")
	_, err := (&Loader{File: path, Lookup: envMap(nil)}).Load()
	assert.ErrorContains(t, err, "field pause not found")
}

func TestEnvironmentParsing(t *testing.T) {
	cfg, err := (&Loader{Lookup: envMap(map[string]string{
		"MINDREEL_LEVEL_BANDS": "50, 400,900",
		"MINDREEL_STEP_RETRIES": "4",
		"MINDREEL_SETTLE_DELAY": "1s",
		"MINDREEL_HEADLESS":     "false",
		"MINDREEL_LOG_LEVEL":    " ",
	})}).Load()
	require.NoError(t, err)
	assert.Equal(t, []float64{50, 400, 900}, cfg.Parser.LevelBands)
	assert.Equal(t, 4, cfg.Animation.StepRetries)
	assert.Equal(t, time.Second, cfg.Animation.SettleDelay)
	assert.False(t, cfg.Browser.Headless)
	assert.Equal(t, "info", cfg.Log.Level, "blank values are ignored")

	_, err = (&Loader{Lookup: envMap(map[string]string{"MINDREEL_FPS": "fast"})}).Load()
	assert.ErrorContains(t, err, "invalid MINDREEL_FPS")
}

func TestValidation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		errMsg string
	}{
		{"threshold above one", func(c *Config) { c.Timeline.MatchThreshold = 1.5 }, "Timeline.MatchThreshold must be at most 1"},
		{"zero pause", func(c *Config) { c.Timeline.PausePerNode = 0 }, "Timeline.PausePerNode must be greater than 0"},
		{"too many passes", func(c *Config) { c.Animation.BulkPasses = 50 }, "Animation.BulkPasses must be at most 20"},
		{"bands out of order", func(c *Config) { c.Parser.LevelBands = []float64{100, 50} }, "Parser.LevelBands must be strictly ascending"},
		{"negative band", func(c *Config) { c.Parser.LevelBands = []float64{-5, 50} }, "Parser.LevelBands[0] must be at least 0"},
		{"unknown policy", func(c *Config) { c.Hierarchy.RootPolicy = "vote" }, "Hierarchy.RootPolicy must be one of: strict first geometric"},
		{"bad target", func(c *Config) { c.Animation.TargetURL = "notebook" }, "Animation.TargetURL must be a valid URL"},
		{"metrics without addr", func(c *Config) { c.Metrics.Enabled = true; c.Metrics.Addr = "" }, "Metrics.Addr is required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestOptionConversions(t *testing.T) {
	cfg := Default()
	cfg.Recording.Enabled = true
	cfg.Animation.TargetURL = "https://notebook.example/nb/1"

	imp := cfg.ImporterOptions()
	assert.Equal(t, 5000, imp.MinCandidateBytes)
	assert.Equal(t, hierarchy.DefaultBands, imp.Bands)

	anim := cfg.AnimationOptions("out/run.mp4")
	assert.True(t, anim.Record)
	assert.Equal(t, "out/run.mp4", anim.VideoPath)
	assert.Equal(t, "https://notebook.example/nb/1", anim.TargetURL)

	assert.Equal(t, "output", cfg.RecorderConfig().OutputDir)
	assert.Equal(t, 1920, cfg.SessionConfig().Width)
	assert.Equal(t, 0.3, cfg.TimelineOptions().MatchThreshold)
}
