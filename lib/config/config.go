// Copyright 2026 The DbLogger Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// EnvironmentVariable names the config file when --config is absent.
const EnvironmentVariable = "DBLOGGER_CONFIG"

// Environment represents the deployment environment.
type Environment string

const (
	// Development is for a developer watching their own application.
	Development Environment = "development"
	// Production is for capturing traces from deployed services.
	Production Environment = "production"
)

// Config is the complete DbLogger configuration.
type Config struct {
	// Environment selects which override section applies.
	Environment Environment `yaml:"environment"`

	Settings `yaml:",inline"`

	// Development and Production hold per-environment overrides in the
	// same shape as Settings. They are kept as raw nodes so only the
	// keys actually present are merged. An absent section has Kind 0.
	Development yaml.Node `yaml:"development,omitempty"`
	Production  yaml.Node `yaml:"production,omitempty"`
}

// Settings is everything an environment section can override.
type Settings struct {
	Paths   PathsConfig   `yaml:"paths"`
	Logging LoggingConfig `yaml:"logging"`
	Pipe    PipeConfig    `yaml:"pipe"`
	File    FileConfig    `yaml:"file"`
	Viewer  ViewerConfig  `yaml:"viewer"`
}

// PathsConfig configures directory locations.
type PathsConfig struct {
	// Root is the base directory for DbLogger data. Available to other
	// paths as ${DBLOGGER_ROOT}.
	Root string `yaml:"root"`
}

// LoggingConfig configures the binaries' own diagnostics.
type LoggingConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `yaml:"level"`

	// Format is auto (text on a terminal, JSON otherwise), text, or
	// json.
	Format string `yaml:"format"`
}

// PipeConfig configures the cross-process transport.
type PipeConfig struct {
	// Enabled starts a pipe writer in producers.
	Enabled bool `yaml:"enabled"`

	// SocketPath is where the writer listens and the reader dials.
	SocketPath string `yaml:"socket_path"`

	// GracePeriod bounds how long a closing writer waits for queued
	// items. Default: 3s
	GracePeriod string `yaml:"grace_period"`

	// DrainTimeout bounds one item exchange. Default: 5s
	DrainTimeout string `yaml:"drain_timeout"`

	// ReconnectBackoff is the reader's pause when no writer is
	// listening. Default: 100ms
	ReconnectBackoff string `yaml:"reconnect_backoff"`

	// CloseTimeout bounds how long a closing reader waits for its
	// loop. Default: 2s
	CloseTimeout string `yaml:"close_timeout"`

	// Compression is none, lz4, or zstd.
	Compression string `yaml:"compression"`

	// CompressionThreshold is the smallest text, in bytes, that is
	// compressed.
	CompressionThreshold int `yaml:"compression_threshold"`

	// MaxItemSize limits one encoded item on the reader side.
	MaxItemSize int64 `yaml:"max_item_size"`
}

// FileConfig configures the per-source log file sink.
type FileConfig struct {
	Enabled   bool   `yaml:"enabled"`
	Directory string `yaml:"directory"`
}

// ViewerConfig configures dblogger-tail's rendering.
type ViewerConfig struct {
	// SlowQueryMilliseconds is the duration drawn in full red.
	SlowQueryMilliseconds int `yaml:"slow_query_ms"`

	// ShowStackTrace prints each record's captured stack.
	ShowStackTrace bool `yaml:"show_stack_trace"`

	// Color is auto, always, or never.
	Color string `yaml:"color"`
}

// Default returns the configuration used when no file is given. Paths
// still contain ${...} patterns; Resolve and LoadFile expand them.
func Default() *Config {
	return &Config{
		Environment: Development,
		Settings: Settings{
			Paths: PathsConfig{
				Root: filepath.Join("${HOME}", ".cache", "dblogger"),
			},
			Logging: LoggingConfig{
				Level:  "info",
				Format: "auto",
			},
			Pipe: PipeConfig{
				Enabled:              true,
				SocketPath:           defaultSocketPath(),
				GracePeriod:          "3s",
				DrainTimeout:         "5s",
				ReconnectBackoff:     "100ms",
				CloseTimeout:         "2s",
				Compression:          "zstd",
				CompressionThreshold: 4096,
				MaxItemSize:          16 << 20,
			},
			File: FileConfig{
				Enabled:   false,
				Directory: filepath.Join("${DBLOGGER_ROOT}", "logs"),
			},
			Viewer: ViewerConfig{
				SlowQueryMilliseconds: 30000,
				ShowStackTrace:        false,
				Color:                 "auto",
			},
		},
	}
}

// defaultSocketPath prefers the per-user runtime directory, which is
// private to the user and short enough for sun_path.
func defaultSocketPath() string {
	if runtimeDirectory := os.Getenv("XDG_RUNTIME_DIR"); runtimeDirectory != "" {
		return filepath.Join(runtimeDirectory, "dblogger.sock")
	}
	return filepath.Join(os.TempDir(), "dblogger-"+strconv.Itoa(os.Getuid())+".sock")
}

// Resolve loads the configuration named by flagPath, or by
// DBLOGGER_CONFIG when flagPath is empty. With neither set it returns
// Default, expanded.
func Resolve(flagPath string) (*Config, error) {
	path := flagPath
	if path == "" {
		path = os.Getenv(EnvironmentVariable)
	}
	if path == "" {
		cfg := Default()
		if err := cfg.applyEnvironmentOverrides(); err != nil {
			return nil, err
		}
		cfg.expandVariables()
		return cfg, nil
	}
	return LoadFile(path)
}

// LoadFile loads configuration from a specific file path.
func LoadFile(path string) (*Config, error) {
	cfg := Default()

	if err := cfg.loadFile(path); err != nil {
		return nil, fmt.Errorf("loading config %s: %w", path, err)
	}
	if err := cfg.applyEnvironmentOverrides(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	cfg.expandVariables()

	return cfg, nil
}

// loadFile merges a YAML file into the current config. Keys absent
// from the file keep their current values.
func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, c)
}

// applyEnvironmentOverrides merges the section matching Environment
// over Settings.
func (c *Config) applyEnvironmentOverrides() error {
	var overrides *yaml.Node

	switch c.Environment {
	case Development:
		overrides = &c.Development
	case Production:
		overrides = &c.Production
		if absent(overrides) {
			// Production default: machine-readable logs.
			c.Logging.Format = "json"
			return nil
		}
	}

	if overrides == nil || absent(overrides) {
		return nil
	}
	if err := overrides.Decode(&c.Settings); err != nil {
		return fmt.Errorf("%s overrides: %w", c.Environment, err)
	}
	return nil
}

// absent reports an override section that is missing or empty.
func absent(node *yaml.Node) bool {
	return node.Kind == 0 || node.ShortTag() == "!!null"
}

// expandVariables expands ${VAR} and ${VAR:-default} patterns in paths.
func (c *Config) expandVariables() {
	vars := map[string]string{
		"HOME": os.Getenv("HOME"),
	}

	c.Paths.Root = expandVars(c.Paths.Root, vars)
	vars["DBLOGGER_ROOT"] = c.Paths.Root

	c.Pipe.SocketPath = expandVars(c.Pipe.SocketPath, vars)
	c.File.Directory = expandVars(c.File.Directory, vars)
}

var varPattern = regexp.MustCompile(`\$\{([^}:]+)(?::-([^}]*))?\}`)

// expandVars expands ${VAR} and ${VAR:-default}, checking vars before
// the process environment.
func expandVars(s string, vars map[string]string) string {
	return varPattern.ReplaceAllStringFunc(s, func(match string) string {
		parts := varPattern.FindStringSubmatch(match)
		name, defaultValue := parts[1], parts[2]

		if value, ok := vars[name]; ok && value != "" {
			return value
		}
		if value := os.Getenv(name); value != "" {
			return value
		}
		return defaultValue
	})
}

// Validate checks the configuration for errors, reporting all of them.
func (c *Config) Validate() error {
	var errs []error

	if c.Environment != Development && c.Environment != Production {
		errs = append(errs, fmt.Errorf("invalid environment: %q", c.Environment))
	}

	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("logging.level must be one of debug, info, warn, error; got %q", c.Logging.Level))
	}
	switch c.Logging.Format {
	case "auto", "text", "json":
	default:
		errs = append(errs, fmt.Errorf("logging.format must be one of auto, text, json; got %q", c.Logging.Format))
	}

	if c.Pipe.SocketPath == "" {
		errs = append(errs, errors.New("pipe.socket_path is required"))
	}
	durations := []struct {
		name  string
		value string
	}{
		{"pipe.grace_period", c.Pipe.GracePeriod},
		{"pipe.drain_timeout", c.Pipe.DrainTimeout},
		{"pipe.reconnect_backoff", c.Pipe.ReconnectBackoff},
		{"pipe.close_timeout", c.Pipe.CloseTimeout},
	}
	for _, duration := range durations {
		if _, err := parsePositiveDuration(duration.value); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", duration.name, err))
		}
	}
	switch c.Pipe.Compression {
	case "none", "lz4", "zstd":
	default:
		errs = append(errs, fmt.Errorf("pipe.compression must be one of none, lz4, zstd; got %q", c.Pipe.Compression))
	}
	if c.Pipe.CompressionThreshold < 0 {
		errs = append(errs, fmt.Errorf("pipe.compression_threshold must not be negative"))
	}
	if c.Pipe.MaxItemSize < 0 {
		errs = append(errs, fmt.Errorf("pipe.max_item_size must not be negative"))
	}

	if c.File.Enabled && c.File.Directory == "" {
		errs = append(errs, errors.New("file.directory is required when file.enabled is set"))
	}

	if c.Viewer.SlowQueryMilliseconds <= 0 {
		errs = append(errs, errors.New("viewer.slow_query_ms must be positive"))
	}
	switch c.Viewer.Color {
	case "auto", "always", "never":
	default:
		errs = append(errs, fmt.Errorf("viewer.color must be one of auto, always, never; got %q", c.Viewer.Color))
	}

	return errors.Join(errs...)
}

// EnsurePaths creates the directories the enabled components write
// into: the socket's parent when the pipe is enabled, and the file
// sink's directory when it is.
func (c *Config) EnsurePaths() error {
	var paths []string
	if c.Pipe.Enabled {
		paths = append(paths, filepath.Dir(c.Pipe.SocketPath))
	}
	if c.File.Enabled {
		paths = append(paths, c.File.Directory)
	}
	for _, path := range paths {
		if path == "" || path == "." {
			continue
		}
		if err := os.MkdirAll(path, 0o755); err != nil {
			return fmt.Errorf("creating %s: %w", path, err)
		}
	}
	return nil
}

func parsePositiveDuration(value string) (time.Duration, error) {
	duration, err := time.ParseDuration(value)
	if err != nil {
		return 0, err
	}
	if duration <= 0 {
		return 0, fmt.Errorf("must be positive, got %s", value)
	}
	return duration, nil
}

// Durations parsed from PipeConfig. Call Validate first; invalid
// values yield zero, which the pipe package replaces with its
// defaults.

// GracePeriodDuration returns GracePeriod as a time.Duration.
func (p PipeConfig) GracePeriodDuration() time.Duration {
	duration, _ := parsePositiveDuration(p.GracePeriod)
	return duration
}

// DrainTimeoutDuration returns DrainTimeout as a time.Duration.
func (p PipeConfig) DrainTimeoutDuration() time.Duration {
	duration, _ := parsePositiveDuration(p.DrainTimeout)
	return duration
}

// ReconnectBackoffDuration returns ReconnectBackoff as a time.Duration.
func (p PipeConfig) ReconnectBackoffDuration() time.Duration {
	duration, _ := parsePositiveDuration(p.ReconnectBackoff)
	return duration
}

// CloseTimeoutDuration returns CloseTimeout as a time.Duration.
func (p PipeConfig) CloseTimeoutDuration() time.Duration {
	duration, _ := parsePositiveDuration(p.CloseTimeout)
	return duration
}
