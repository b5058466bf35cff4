package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "MINDREEL_"

// Loader applies configuration sources in order:
//  1. Default values (in code)
//  2. YAML file, when a path is given
//  3. .env file, when present
//  4. Environment variables (highest priority)
type Loader struct {
	// File is the YAML config path. Empty skips the file; a missing explicit file is an error.
	File string
	// EnvFile is the dotenv path. A missing file is ignored.
	EnvFile string
	// Lookup reads process variables, os.LookupEnv when nil.
	Lookup func(string) (string, bool)
}

// Load runs the default loader.
func Load(file, envFile string) (*Config, error) {
	return (&Loader{File: file, EnvFile: envFile}).Load()
}

// Load builds, overlays and validates the configuration.
func (l *Loader) Load() (*Config, error) {
	cfg := Default()
	cfg.LoadedFrom = append(cfg.LoadedFrom, "defaults")

	if l.File != "" {
		if err := loadYAML(l.File, cfg); err != nil {
			return nil, err
		}
		cfg.LoadedFrom = append(cfg.LoadedFrom, l.File)
	}

	dotenv := map[string]string{}
	if l.EnvFile != "" {
		vars, err := godotenv.Read(l.EnvFile)
		switch {
		case err == nil:
			dotenv = vars
			cfg.LoadedFrom = append(cfg.LoadedFrom, l.EnvFile)
		case !errors.Is(err, os.ErrNotExist):
			return nil, fmt.Errorf("failed to read %s: %w", l.EnvFile, err)
		}
	}

	lookup := l.Lookup
	if lookup == nil {
		lookup = os.LookupEnv
	}
	// Process variables win over the .env file
	get := func(key string) (string, bool) {
		if v, ok := lookup(key); ok {
			return v, true
		}
		v, ok := dotenv[key]
		return v, ok
	}
	applied, err := applyEnvironment(cfg, get)
	if err != nil {
		return nil, err
	}
	if applied {
		cfg.LoadedFrom = append(cfg.LoadedFrom, "environment")
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

func loadYAML(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config: %w", err)
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return nil
}

type envBinding struct {
	key   string
	apply func(cfg *Config, value string) error
}

var envBindings = []envBinding{
	{"LOG_LEVEL", func(c *Config, v string) error { c.Log.Level = strings.ToLower(v); return nil }},
	{"ENV", func(c *Config, v string) error { c.Log.Environment = strings.ToLower(v); return nil }},
	{"MIN_SVG_BYTES", intVar(func(c *Config) *int { return &c.Parser.MinSVGBytes })},
	{"MIN_TEXT_LENGTH", intVar(func(c *Config) *int { return &c.Parser.MinTextLength })},
	{"LEVEL_BANDS", func(c *Config, v string) error {
		bands, err := parseFloats(v)
		if err != nil {
			return err
		}
		c.Parser.LevelBands = bands
		return nil
	}},
	{"ROOT_POLICY", func(c *Config, v string) error { c.Hierarchy.RootPolicy = strings.ToLower(v); return nil }},
	{"PAUSE_PER_NODE", floatVar(func(c *Config) *float64 { return &c.Timeline.PausePerNode })},
	{"MATCH_THRESHOLD", floatVar(func(c *Config) *float64 { return &c.Timeline.MatchThreshold })},
	{"COLLAPSE_LEAD", floatVar(func(c *Config) *float64 { return &c.Timeline.CollapseLead })},
	{"SETTLE_DELAY", durationVar(func(c *Config) *time.Duration { return &c.Animation.SettleDelay })},
	{"BULK_PASSES", intVar(func(c *Config) *int { return &c.Animation.BulkPasses })},
	{"STEP_RETRIES", intVar(func(c *Config) *int { return &c.Animation.StepRetries })},
	{"TARGET_URL", func(c *Config, v string) error { c.Animation.TargetURL = v; return nil }},
	{"RECORD", boolVar(func(c *Config) *bool { return &c.Recording.Enabled })},
	{"FPS", intVar(func(c *Config) *int { return &c.Recording.FPS })},
	{"FFMPEG", func(c *Config, v string) error { c.Recording.FFmpegPath = v; return nil }},
	{"CDP_URL", func(c *Config, v string) error { c.Browser.CDPURL = v; return nil }},
	{"HEADLESS", boolVar(func(c *Config) *bool { return &c.Browser.Headless })},
	{"OUTPUT_DIR", func(c *Config, v string) error { c.Output.Dir = v; return nil }},
	{"METRICS", boolVar(func(c *Config) *bool { return &c.Metrics.Enabled })},
	{"METRICS_ADDR", func(c *Config, v string) error { c.Metrics.Addr = v; return nil }},
}

func applyEnvironment(cfg *Config, get func(string) (string, bool)) (bool, error) {
	applied := false
	for _, b := range envBindings {
		v, ok := get(EnvPrefix + b.key)
		if !ok || strings.TrimSpace(v) == "" {
			continue
		}
		if err := b.apply(cfg, strings.TrimSpace(v)); err != nil {
			return false, fmt.Errorf("invalid %s%s: %w", EnvPrefix, b.key, err)
		}
		applied = true
	}
	return applied, nil
}

func intVar(field func(*Config) *int) func(*Config, string) error {
	return func(c *Config, v string) error {
		n, err := strconv.Atoi(v)
		if err != nil {
			return err
		}
		*field(c) = n
		return nil
	}
}

func floatVar(field func(*Config) *float64) func(*Config, string) error {
	return func(c *Config, v string) error {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return err
		}
		*field(c) = f
		return nil
	}
}

func boolVar(field func(*Config) *bool) func(*Config, string) error {
	return func(c *Config, v string) error {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return err
		}
		*field(c) = b
		return nil
	}
}

func durationVar(field func(*Config) *time.Duration) func(*Config, string) error {
	return func(c *Config, v string) error {
		d, err := time.ParseDuration(v)
		if err != nil {
			return err
		}
		*field(c) = d
		return nil
	}
}

func parseFloats(s string) ([]float64, error) {
	var out []float64
	for _, part := range strings.Split(s, ",") {
		f, err := strconv.ParseFloat(strings.TrimSpace(part), 64)
		if err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, nil
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("ascending", func(fl validator.FieldLevel) bool {
		bands, ok := fl.Field().Interface().([]float64)
		if !ok {
			return false
		}
		for i := 1; i < len(bands); i++ {
			if bands[i] <= bands[i-1] {
				return false
			}
		}
		return true
	})
	return v
}

// Validate checks the struct tags and reports every violation in one error.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return formatValidationError(err)
	}
	return nil
}

func formatValidationError(err error) error {
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return err
	}
	messages := make([]string, 0, len(validationErrors))
	for _, e := range validationErrors {
		messages = append(messages, formatFieldError(e))
	}
	return errors.New(strings.Join(messages, "; "))
}

func formatFieldError(e validator.FieldError) string {
	field := strings.TrimPrefix(e.Namespace(), "Config.")

	switch e.Tag() {
	case "required", "required_if":
		return fmt.Sprintf("%s is required", field)
	case "min", "gte":
		return fmt.Sprintf("%s must be at least %s", field, e.Param())
	case "max", "lte":
		return fmt.Sprintf("%s must be at most %s", field, e.Param())
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", field, e.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, e.Param())
	case "ascending":
		return fmt.Sprintf("%s must be strictly ascending", field)
	case "url":
		return fmt.Sprintf("%s must be a valid URL", field)
	default:
		return fmt.Sprintf("%s is invalid", field)
	}
}
