// Package config loads tabq settings and header declaration files.
//
// Settings are layered by viper: defaults, then the config file, then
// TABQ_* environment variables, then command-line flags.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"golang.org/x/text/language"
)

// EnvPrefix is the environment variable prefix, e.g. TABQ_STRICT_CASE.
const EnvPrefix = "TABQ"

// Config holds engine and CLI settings.
type Config struct {
	StrictCase    bool   `mapstructure:"strict_case"`
	IgnoreSymbols string `mapstructure:"ignore_symbols"`
	CacheSize     int    `mapstructure:"cache_size"`
	Language      string `mapstructure:"language"` // BCP 47 tag for string collation
	Format        string `mapstructure:"format"`
	Verbose       bool   `mapstructure:"verbose"`
	LogLevel      string `mapstructure:"log_level"`
	SeqURL        string `mapstructure:"seq_url"`
	Headers       string `mapstructure:"headers"` // Header declaration file
	Outbox        string `mapstructure:"outbox"`  // SQLite edit outbox path
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		IgnoreSymbols: "_- ",
		CacheSize:     128,
		Language:      "und",
		Format:        "text",
		LogLevel:      "warn",
	}
}

// flagKeys maps config keys to the CLI flags that override them.
var flagKeys = map[string]string{
	"strict_case":    "strict-case",
	"ignore_symbols": "ignore-symbols",
	"cache_size":     "cache-size",
	"language":       "language",
	"format":         "format",
	"verbose":        "verbose",
	"log_level":      "log-level",
	"seq_url":        "seq-url",
	"headers":        "headers",
	"outbox":         "outbox",
}

// Load resolves the layered configuration. path names an explicit config
// file; when empty, tabq.{yaml,json,toml} in the working directory is used
// if present. flags may be nil. Only flags the user actually set override
// lower layers.
func Load(path string, flags *pflag.FlagSet) (Config, error) {
	v := viper.New()

	def := Default()
	v.SetDefault("strict_case", def.StrictCase)
	v.SetDefault("ignore_symbols", def.IgnoreSymbols)
	v.SetDefault("cache_size", def.CacheSize)
	v.SetDefault("language", def.Language)
	v.SetDefault("format", def.Format)
	v.SetDefault("verbose", def.Verbose)
	v.SetDefault("log_level", def.LogLevel)
	v.SetDefault("seq_url", def.SeqURL)
	v.SetDefault("headers", def.Headers)
	v.SetDefault("outbox", def.Outbox)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
	} else {
		v.SetConfigName("tabq")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return Config{}, fmt.Errorf("read config: %w", err)
			}
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if flags != nil {
		for key, name := range flagKeys {
			f := flags.Lookup(name)
			if f == nil || !f.Changed {
				continue
			}
			if err := v.BindPFlag(key, f); err != nil {
				return Config{}, fmt.Errorf("bind flag %s: %w", name, err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	slog.Debug("config loaded", slog.String("file", v.ConfigFileUsed()))
	return cfg, nil
}

// Validate checks settings that cannot be checked by type alone.
func (c Config) Validate() error {
	if _, err := c.Tag(); err != nil {
		return err
	}
	if _, err := c.Level(); err != nil {
		return err
	}
	switch c.Format {
	case "text", "json":
	default:
		return fmt.Errorf("invalid format %q: must be text or json", c.Format)
	}
	return nil
}

// Tag parses Language.
func (c Config) Tag() (language.Tag, error) {
	if c.Language == "" {
		return language.Und, nil
	}
	tag, err := language.Parse(c.Language)
	if err != nil {
		return language.Und, fmt.Errorf("invalid language %q: %w", c.Language, err)
	}
	return tag, nil
}

// Level returns the log level. Verbose forces debug.
func (c Config) Level() (slog.Level, error) {
	if c.Verbose {
		return slog.LevelDebug, nil
	}
	var level slog.Level
	if c.LogLevel == "" {
		return slog.LevelWarn, nil
	}
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return 0, fmt.Errorf("invalid log level %q: %w", c.LogLevel, err)
	}
	return level, nil
}
