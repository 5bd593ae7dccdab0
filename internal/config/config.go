// Package config loads jt settings from config.toml, JT_* environment
// variables and an optional .env file in the working directory.
package config

import (
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/mschirtzinger/jobtrack/internal/store"
)

// EnvPrefix is prepended to every environment override, with dots in the
// key replaced by underscores: supabase.url becomes JT_SUPABASE_URL.
const EnvPrefix = "JT"

// Config is the effective configuration.
type Config struct {
	Backend     string         `mapstructure:"backend"`
	Supabase    SupabaseConfig `mapstructure:"supabase"`
	Postgres    PostgresConfig `mapstructure:"postgres"`
	SQLite      SQLiteConfig   `mapstructure:"sqlite"`
	SessionFile string         `mapstructure:"session_file"`
	Timeout     time.Duration  `mapstructure:"timeout"`
	Log         LogConfig      `mapstructure:"log"`

	// File is the config file that was read, empty when none was found.
	File string `mapstructure:"-"`
}

type SupabaseConfig struct {
	URL     string `mapstructure:"url"`
	AnonKey string `mapstructure:"anon_key"`
}

type PostgresConfig struct {
	DSN string `mapstructure:"dsn"`
}

type SQLiteConfig struct {
	Path string `mapstructure:"path"`
}

// LogConfig controls diagnostic logging. Command output is never logged.
type LogConfig struct {
	File       string `mapstructure:"file"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
	Verbose    bool   `mapstructure:"verbose"`
}

// Dir returns the directory holding config.toml and the default data files.
func Dir() string {
	base, err := os.UserConfigDir()
	if err != nil {
		home, _ := os.UserHomeDir()
		base = filepath.Join(home, ".config")
	}
	return filepath.Join(base, "jobtrack")
}

// DefaultPath is where config.toml is looked up when --config is not given.
func DefaultPath() string {
	return filepath.Join(Dir(), "config.toml")
}

// Default returns the configuration used when nothing is set.
func Default() *Config {
	dir := Dir()
	return &Config{
		Backend:     store.BackendSQLite,
		SQLite:      SQLiteConfig{Path: filepath.Join(dir, "jobtrack.db")},
		SessionFile: filepath.Join(dir, "session.toml"),
		Timeout:     30 * time.Second,
		Log: LogConfig{
			MaxSizeMB:  10,
			MaxBackups: 3,
			MaxAgeDays: 28,
		},
	}
}

func setDefaults(v *viper.Viper) {
	d := Default()
	v.SetDefault("backend", d.Backend)
	v.SetDefault("supabase.url", d.Supabase.URL)
	v.SetDefault("supabase.anon_key", d.Supabase.AnonKey)
	v.SetDefault("postgres.dsn", d.Postgres.DSN)
	v.SetDefault("sqlite.path", d.SQLite.Path)
	v.SetDefault("session_file", d.SessionFile)
	v.SetDefault("timeout", d.Timeout)
	v.SetDefault("log.file", d.Log.File)
	v.SetDefault("log.max_size_mb", d.Log.MaxSizeMB)
	v.SetDefault("log.max_backups", d.Log.MaxBackups)
	v.SetDefault("log.max_age_days", d.Log.MaxAgeDays)
	v.SetDefault("log.verbose", d.Log.Verbose)
}

// Load reads the configuration. An explicit path must exist; without one,
// a missing config.toml in Dir falls back to defaults. Values from a .env
// file in the working directory are exported before the environment is
// consulted, without overriding variables already set.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("toml")
	} else {
		v.SetConfigName("config")
		v.SetConfigType("toml")
		v.AddConfigPath(Dir())
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	cfg.File = v.ConfigFileUsed()
	cfg.Backend = strings.ToLower(strings.TrimSpace(cfg.Backend))
	cfg.SQLite.Path = expandHome(cfg.SQLite.Path)
	cfg.SessionFile = expandHome(cfg.SessionFile)
	cfg.Log.File = expandHome(cfg.Log.File)
	return cfg, nil
}

// Validate checks that the selected backend has what it needs.
func (c *Config) Validate() error {
	if !slices.Contains(store.Backends, c.Backend) {
		return fmt.Errorf("invalid backend %q (want one of %s)", c.Backend, strings.Join(store.Backends, ", "))
	}

	switch c.Backend {
	case store.BackendSupabase:
		if err := c.Supabase.validate(); err != nil {
			return err
		}
	case store.BackendPostgres:
		if c.Postgres.DSN == "" {
			return fmt.Errorf("postgres.dsn is required for the postgres backend")
		}
		// Records go over the DSN; accounts still come from the project's auth API.
		if err := c.Supabase.validate(); err != nil {
			return err
		}
	case store.BackendSQLite:
		if c.SQLite.Path == "" {
			return fmt.Errorf("sqlite.path is required for the sqlite backend")
		}
	}

	if c.SessionFile == "" {
		return fmt.Errorf("session_file must not be empty")
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive (got %s)", c.Timeout)
	}
	if c.Log.MaxSizeMB < 0 || c.Log.MaxBackups < 0 || c.Log.MaxAgeDays < 0 {
		return fmt.Errorf("log rotation limits must not be negative")
	}
	return nil
}

func (s SupabaseConfig) validate() error {
	if s.URL == "" {
		return fmt.Errorf("supabase.url is required")
	}
	u, err := url.Parse(s.URL)
	if err != nil || (u.Scheme != "https" && u.Scheme != "http") || u.Host == "" {
		return fmt.Errorf("supabase.url must be an http(s) URL (got %q)", s.URL)
	}
	if s.AnonKey == "" {
		return fmt.Errorf("supabase.anon_key is required")
	}
	return nil
}

// values is the file representation. Durations are written as strings so
// the file reads back through viper unchanged.
func (c *Config) values(redact bool) map[string]any {
	anonKey, dsn := c.Supabase.AnonKey, c.Postgres.DSN
	if redact {
		anonKey = redacted(anonKey)
		dsn = redactDSN(dsn)
	}
	return map[string]any{
		"backend":      c.Backend,
		"session_file": c.SessionFile,
		"timeout":      c.Timeout.String(),
		"supabase": map[string]any{
			"url":      c.Supabase.URL,
			"anon_key": anonKey,
		},
		"postgres": map[string]any{"dsn": dsn},
		"sqlite":   map[string]any{"path": c.SQLite.Path},
		"log": map[string]any{
			"file":         c.Log.File,
			"max_size_mb":  c.Log.MaxSizeMB,
			"max_backups":  c.Log.MaxBackups,
			"max_age_days": c.Log.MaxAgeDays,
			"verbose":      c.Log.Verbose,
		},
	}
}

// Encode writes c as TOML. With redact set, secrets are masked.
func (c *Config) Encode(w io.Writer, redact bool) error {
	return toml.NewEncoder(w).Encode(c.values(redact))
}

// WriteDefault writes the default configuration to path. It refuses to
// replace an existing file unless force is set.
func WriteDefault(path string, force bool) error {
	if !force {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("config file already exists: %s (use --force to overwrite)", path)
		}
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	if err := Default().Encode(f, false); err != nil {
		f.Close()
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return f.Close()
}

func expandHome(p string) string {
	if p == "~" || strings.HasPrefix(p, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, strings.TrimPrefix(p, "~"))
		}
	}
	return p
}

func redacted(s string) string {
	if s == "" {
		return ""
	}
	if len(s) <= 8 {
		return "********"
	}
	return s[:4] + "..." + s[len(s)-4:]
}

func redactDSN(dsn string) string {
	u, err := url.Parse(dsn)
	if err != nil || u.User == nil {
		return dsn
	}
	if _, ok := u.User.Password(); ok {
		u.User = url.UserPassword(u.User.Username(), "xxxxx")
	}
	return u.String()
}
