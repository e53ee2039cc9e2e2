// Package config loads tsprobe configuration from defaults, an optional
// YAML file and TSPROBE_ environment variables using Viper.
package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"runtime"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/zsiec/tsproto/ingest/srt"
)

// EnvPrefix prefixes every environment variable, with dots and dashes in
// keys replaced by underscores: inspect.shards -> TSPROBE_INSPECT_SHARDS.
const EnvPrefix = "TSPROBE"

// Default configuration values.
const (
	defaultListenAddr = ":6000"
	defaultOutput     = "text"
)

// Config holds all tsprobe configuration.
type Config struct {
	Logging LoggingConfig `mapstructure:"logging" yaml:"logging"`
	Inspect InspectConfig `mapstructure:"inspect" yaml:"inspect"`
	SRT     SRTConfig     `mapstructure:"srt" yaml:"srt"`
}

// LoggingConfig selects the slog level and handler.
type LoggingConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
}

// InspectConfig tunes stream inspection.
type InspectConfig struct {
	Shards int    `mapstructure:"shards" yaml:"shards"`
	Output string `mapstructure:"output" yaml:"output"`
	// Events prints every event as it happens rather than a summary only.
	Events bool `mapstructure:"events" yaml:"events"`
}

// SRTConfig configures SRT ingest.
type SRTConfig struct {
	Listen      string            `mapstructure:"listen" yaml:"listen"`
	DialTimeout time.Duration     `mapstructure:"dial_timeout" yaml:"dial_timeout"`
	Pulls       []srt.PullRequest `mapstructure:"pulls" yaml:"pulls"`
}

// SetDefaults configures default values for all configuration options.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")

	v.SetDefault("inspect.shards", runtime.NumCPU())
	v.SetDefault("inspect.output", defaultOutput)
	v.SetDefault("inspect.events", false)

	v.SetDefault("srt.listen", defaultListenAddr)
	v.SetDefault("srt.dial_timeout", srt.DefaultDialTimeout)
	v.SetDefault("srt.pulls", []srt.PullRequest{})
}

// Init prepares v: defaults, the config file (configFile, or .tsprobe.yaml
// in the home directory, the working directory and /etc/tsprobe) and
// environment variables.
func Init(v *viper.Viper, configFile, home string) {
	SetDefaults(v)
	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		if home != "" {
			v.AddConfigPath(home)
		}
		v.AddConfigPath(".")
		v.AddConfigPath("/etc/tsprobe")
		v.SetConfigType("yaml")
		v.SetConfigName(".tsprobe")
	}
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
}

// Load reads the config file, if any, and decodes v into a validated
// Config. A missing config file is not an error.
func Load(v *viper.Viper) (*Config, error) {
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}
	cfg.Logging.Level = strings.ToLower(cfg.Logging.Level)
	cfg.Logging.Format = strings.ToLower(cfg.Logging.Format)
	cfg.Inspect.Output = strings.ToLower(cfg.Inspect.Output)
	if cfg.Logging.Level == "warning" {
		cfg.Logging.Level = "warn"
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}
	return &cfg, nil
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[c.Logging.Level] {
		return fmt.Errorf("logging.level must be one of: debug, info, warn, error")
	}
	validFormats := map[string]bool{"json": true, "text": true}
	if !validFormats[c.Logging.Format] {
		return fmt.Errorf("logging.format must be one of: json, text")
	}

	if c.Inspect.Shards < 0 {
		return fmt.Errorf("inspect.shards must not be negative")
	}
	validOutputs := map[string]bool{"text": true, "json": true, "yaml": true}
	if !validOutputs[c.Inspect.Output] {
		return fmt.Errorf("inspect.output must be one of: text, json, yaml")
	}

	if c.SRT.Listen == "" {
		return fmt.Errorf("srt.listen is required")
	}
	for i, p := range c.SRT.Pulls {
		if p.Address == "" || p.StreamKey == "" {
			return fmt.Errorf("srt.pulls[%d] needs address and stream_key", i)
		}
	}
	return nil
}

// NewLogger builds the slog logger the configuration describes.
func (c LoggingConfig) NewLogger(w io.Writer) *slog.Logger {
	var level slog.Level
	switch c.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if c.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}
