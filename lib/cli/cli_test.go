// Copyright 2026 The DbLogger Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/spf13/pflag"

	"github.com/dblogger/dblogger/lib/config"
	"github.com/dblogger/dblogger/lib/process"
)

func TestNewLoggerFormats(t *testing.T) {
	tests := []struct {
		name       string
		format     string
		isTerminal bool
		wantJSON   bool
	}{
		{"auto on terminal", "auto", true, false},
		{"auto piped", "auto", false, true},
		{"forced text", "text", false, false},
		{"forced json", "json", true, true},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			var output bytes.Buffer
			logger, err := newLogger(&output, test.isTerminal, config.LoggingConfig{Level: "info", Format: test.format})
			if err != nil {
				t.Fatal(err)
			}
			logger.Info("pipe writer listening", "socket", "/tmp/x.sock")

			isJSON := json.Valid(bytes.TrimSpace(output.Bytes()))
			if isJSON != test.wantJSON {
				t.Errorf("JSON output = %v, want %v: %s", isJSON, test.wantJSON, output.String())
			}
		})
	}
}

func TestNewLoggerLevel(t *testing.T) {
	var output bytes.Buffer
	logger, err := newLogger(&output, false, config.LoggingConfig{Level: "warn", Format: "json"})
	if err != nil {
		t.Fatal(err)
	}
	logger.Info("hidden")
	logger.Warn("shown")
	if strings.Contains(output.String(), "hidden") || !strings.Contains(output.String(), "shown") {
		t.Errorf("level filtering failed: %s", output.String())
	}
}

func TestNewLoggerRejectsUnknownSettings(t *testing.T) {
	if _, err := newLogger(&bytes.Buffer{}, false, config.LoggingConfig{Level: "loud"}); err == nil {
		t.Error("unknown level accepted")
	}
	if _, err := newLogger(&bytes.Buffer{}, false, config.LoggingConfig{Level: "info", Format: "xml"}); err == nil {
		t.Error("unknown format accepted")
	}
}

func TestParseLevel(t *testing.T) {
	for name, want := range map[string]slog.Level{
		"debug": slog.LevelDebug,
		"info":  slog.LevelInfo,
		"":      slog.LevelInfo,
		"warn":  slog.LevelWarn,
		"error": slog.LevelError,
	} {
		got, err := ParseLevel(name)
		if err != nil || got != want {
			t.Errorf("ParseLevel(%q) = %v, %v; want %v", name, got, err, want)
		}
	}
}

func TestParseHelpAndUsage(t *testing.T) {
	var flags CommonFlags
	flagSet := pflag.NewFlagSet("dblogger-test", pflag.ContinueOnError)
	flags.AddFlags(flagSet)

	// --help is a registered bool, so pflag parses it normally.
	help, err := Parse(flagSet, []string{"--help"})
	if err != nil || help || !flags.ShowHelp {
		t.Errorf("Parse(--help) = %v, %v; ShowHelp=%v", help, err, flags.ShowHelp)
	}

	flagSet = pflag.NewFlagSet("dblogger-test", pflag.ContinueOnError)
	flags.AddFlags(flagSet)
	_, err = Parse(flagSet, []string{"--no-such-flag"})
	var exitError *process.ExitError
	if !errors.As(err, &exitError) || exitError.Code != ExitUsage {
		t.Errorf("Parse(unknown flag) = %v, want a usage error", err)
	}
}

func TestLoadConfigAppliesLogLevel(t *testing.T) {
	t.Setenv(config.EnvironmentVariable, "")
	flags := CommonFlags{LogLevel: "debug"}
	cfg, err := flags.LoadConfig()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Logging.Level = %q, want debug", cfg.Logging.Level)
	}

	flags.LogLevel = "loud"
	_, err = flags.LoadConfig()
	var exitError *process.ExitError
	if !errors.As(err, &exitError) || exitError.Code != ExitUsage {
		t.Errorf("LoadConfig with bad level = %v, want a usage error", err)
	}
}
