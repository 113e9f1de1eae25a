// Package config resolves CLI settings. Flags win over CONSTRUCT_*
// environment variables, which win over the --config file.
package config

import (
	"fmt"
	"io"
	"log/slog"
	"slices"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Thomvis/Construct-sub002/internal/store"
)

// EnvPrefix prefixes environment variables, e.g. CONSTRUCT_DATABASE.
const EnvPrefix = "CONSTRUCT"

// Config holds the resolved settings.
type Config struct {
	Database   string `mapstructure:"database"`
	Driver     string `mapstructure:"driver"`
	LogLevel   string `mapstructure:"log_level"`
	LogFormat  string `mapstructure:"log_format"`
	MaxReaders int    `mapstructure:"max_readers"`
}

// Flag names bound to config keys.
var flagKeys = map[string]string{
	"db":          "database",
	"driver":      "driver",
	"log-level":   "log_level",
	"log-format":  "log_format",
	"max-readers": "max_readers",
}

// Load resolves the configuration for cmd. Flags that cmd does not define
// are ignored, so Load works for any subcommand.
func Load(cmd *cobra.Command) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	if err := bindFlags(cmd, v); err != nil {
		return nil, fmt.Errorf("failed to bind flags: %w", err)
	}

	if f := cmd.Flags().Lookup("config"); f != nil && f.Value.String() != "" {
		v.SetConfigFile(f.Value.String())
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("database", "")
	v.SetDefault("driver", store.DefaultDriver)
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "text")
	v.SetDefault("max_readers", store.DefaultMaxReaders)
}

func bindFlags(cmd *cobra.Command, v *viper.Viper) error {
	for flag, key := range flagKeys {
		f := cmd.Flags().Lookup(flag)
		if f == nil {
			continue
		}
		if err := v.BindPFlag(key, f); err != nil {
			return err
		}
	}
	return nil
}

func validate(cfg *Config) error {
	if !slices.Contains(store.Drivers(), cfg.Driver) {
		return fmt.Errorf("driver %q is not available (available: %s)", cfg.Driver, strings.Join(store.Drivers(), ", "))
	}
	if _, err := ParseLevel(cfg.LogLevel); err != nil {
		return err
	}
	if cfg.LogFormat != "text" && cfg.LogFormat != "json" {
		return fmt.Errorf("log_format must be text or json, got %q", cfg.LogFormat)
	}
	if cfg.MaxReaders < 1 {
		return fmt.Errorf("max_readers must be at least 1, got %d", cfg.MaxReaders)
	}
	return nil
}

// RequireDatabase fails when no database path is configured.
func (c *Config) RequireDatabase() error {
	if c.Database == "" {
		return fmt.Errorf("database is required: specify via --db flag, config file, or %s_DATABASE environment variable", EnvPrefix)
	}
	return nil
}

// ParseLevel parses debug, info, warn or error.
func ParseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return 0, fmt.Errorf("invalid log level %q", s)
	}
	return level, nil
}

// NewLogger builds the logger described by c, writing to w.
func (c *Config) NewLogger(w io.Writer) *slog.Logger {
	level, err := ParseLevel(c.LogLevel)
	if err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if c.LogFormat == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}
