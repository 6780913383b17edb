// Package config loads hhreplay settings from an optional HCL file, an
// optional .env file and HHREPLAY_* environment variables, in that order of
// increasing precedence.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"

	"github.com/AkatukiSora/hhreplay/internal/ranges"
	"github.com/AkatukiSora/hhreplay/internal/replay"
	"github.com/AkatukiSora/hhreplay/internal/watcher"
)

// DefaultFile is the config file looked up when none is given.
const DefaultFile = "hhreplay.hcl"

// Config is the resolved application configuration.
type Config struct {
	DatabasePath string `env:"HHREPLAY_DB"`

	HandsDir     string        `env:"HHREPLAY_HANDS_DIR"`
	HandsPattern string        `env:"HHREPLAY_HANDS_PATTERN"`
	Workers      int           `env:"HHREPLAY_WORKERS"`
	PollInterval time.Duration `env:"HHREPLAY_POLL_INTERVAL"`

	// RangesBase prefixes every chart path. RangesRoot or RangesURL, when
	// set, are probed for the chart file variants.
	RangesBase string `env:"HHREPLAY_RANGES_BASE"`
	RangesRoot string `env:"HHREPLAY_RANGES_ROOT"`
	RangesURL  string `env:"HHREPLAY_RANGES_URL"`

	AutoplayInterval time.Duration `env:"HHREPLAY_AUTOPLAY_INTERVAL"`

	LogLevel string `env:"HHREPLAY_LOG_LEVEL"`
	Debug    bool   `env:"HHREPLAY_DEBUG"`
}

// fileConfig mirrors the HCL layout. Every block is optional.
type fileConfig struct {
	Database *databaseBlock `hcl:"database,block"`
	Hands    *handsBlock    `hcl:"hands,block"`
	Ranges   *rangesBlock   `hcl:"ranges,block"`
	Replay   *replayBlock   `hcl:"replay,block"`
	Log      *logBlock      `hcl:"log,block"`
}

type databaseBlock struct {
	Path string `hcl:"path,optional"`
}

type handsBlock struct {
	Dir          string `hcl:"dir,optional"`
	Pattern      string `hcl:"pattern,optional"`
	Workers      int    `hcl:"workers,optional"`
	PollInterval string `hcl:"poll_interval,optional"`
}

type rangesBlock struct {
	Base string `hcl:"base,optional"`
	Root string `hcl:"root,optional"`
	URL  string `hcl:"url,optional"`
}

type replayBlock struct {
	AutoplayInterval string `hcl:"autoplay_interval,optional"`
}

type logBlock struct {
	Level string `hcl:"level,optional"`
	Debug bool   `hcl:"debug,optional"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		DatabasePath:     defaultDatabasePath(),
		HandsDir:         ".",
		HandsPattern:     watcher.DefaultPattern,
		Workers:          4,
		PollInterval:     watcher.DefaultPollInterval,
		RangesBase:       ranges.DefaultBase,
		AutoplayInterval: replay.DefaultAutoplayInterval,
		LogLevel:         "info",
	}
}

func defaultDatabasePath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "hhreplay.db"
	}
	return filepath.Join(dir, "hhreplay", "hands.db")
}

// Load resolves the configuration. A missing config file yields defaults.
// envFile names a dotenv file to load first; ".env" is tried when empty.
func Load(path, envFile string) (*Config, error) {
	if err := loadDotEnv(envFile); err != nil {
		return nil, err
	}

	cfg := Default()
	if path != "" {
		if err := cfg.applyFile(path); err != nil {
			return nil, err
		}
	}
	if err := cleanenv.ReadEnv(cfg); err != nil {
		return nil, fmt.Errorf("read environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func loadDotEnv(envFile string) error {
	explicit := envFile != ""
	if !explicit {
		envFile = ".env"
	}
	if _, err := os.Stat(envFile); err != nil {
		if !explicit && errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("env file %s: %w", envFile, err)
	}
	if err := godotenv.Load(envFile); err != nil {
		return fmt.Errorf("load env file %s: %w", envFile, err)
	}
	return nil
}

func (c *Config) applyFile(path string) error {
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return nil
	}

	parser := hclparse.NewParser()
	file, diags := parser.ParseHCLFile(path)
	if diags.HasErrors() {
		return fmt.Errorf("failed to parse HCL file: %s", diags.Error())
	}

	var fc fileConfig
	diags = gohcl.DecodeBody(file.Body, nil, &fc)
	if diags.HasErrors() {
		return fmt.Errorf("failed to decode HCL: %s", diags.Error())
	}

	if b := fc.Database; b != nil && b.Path != "" {
		c.DatabasePath = b.Path
	}
	if b := fc.Hands; b != nil {
		setString(&c.HandsDir, b.Dir)
		setString(&c.HandsPattern, b.Pattern)
		if b.Workers > 0 {
			c.Workers = b.Workers
		}
		if err := setDuration(&c.PollInterval, b.PollInterval, "hands.poll_interval"); err != nil {
			return err
		}
	}
	if b := fc.Ranges; b != nil {
		setString(&c.RangesBase, b.Base)
		setString(&c.RangesRoot, b.Root)
		setString(&c.RangesURL, b.URL)
	}
	if b := fc.Replay; b != nil {
		if err := setDuration(&c.AutoplayInterval, b.AutoplayInterval, "replay.autoplay_interval"); err != nil {
			return err
		}
	}
	if b := fc.Log; b != nil {
		setString(&c.LogLevel, b.Level)
		c.Debug = c.Debug || b.Debug
	}
	return nil
}

// Validate checks value ranges.
func (c *Config) Validate() error {
	if c.DatabasePath == "" {
		return fmt.Errorf("database path is required")
	}
	if c.Workers <= 0 {
		return fmt.Errorf("workers must be positive")
	}
	if c.PollInterval <= 0 {
		return fmt.Errorf("poll interval must be positive")
	}
	if c.AutoplayInterval <= 0 {
		return fmt.Errorf("autoplay interval must be positive")
	}
	if _, err := filepath.Match(c.HandsPattern, ""); err != nil {
		return fmt.Errorf("invalid hands pattern %q: %w", c.HandsPattern, err)
	}

	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[strings.ToLower(c.LogLevel)] {
		return fmt.Errorf("invalid log level: %s", c.LogLevel)
	}
	return nil
}

// RangeProber returns the prober implied by RangesURL or RangesRoot, or nil.
func (c *Config) RangeProber() ranges.Prober {
	switch {
	case c.RangesURL != "":
		return ranges.HTTPProber{BaseURL: c.RangesURL}
	case c.RangesRoot != "":
		return ranges.DirProber{Root: c.RangesRoot}
	}
	return nil
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func setDuration(dst *time.Duration, v, name string) error {
	if v == "" {
		return nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	*dst = d
	return nil
}
