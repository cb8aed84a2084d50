// Copyright 2026 The DbLogger Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/pflag"

	"github.com/dblogger/dblogger/lib/config"
	"github.com/dblogger/dblogger/lib/process"
)

// ExitUsage is the exit code for command-line mistakes.
const ExitUsage = 2

// CommonFlags are accepted by every DbLogger binary.
type CommonFlags struct {
	ConfigPath  string
	LogLevel    string
	ShowVersion bool
	ShowHelp    bool
}

// AddFlags registers the common flags on flagSet.
func (f *CommonFlags) AddFlags(flagSet *pflag.FlagSet) {
	flagSet.StringVar(&f.ConfigPath, "config", "", "path to a YAML config file (default: $"+config.EnvironmentVariable+", then built-in defaults)")
	flagSet.StringVar(&f.LogLevel, "log-level", "", "override logging.level (debug, info, warn, error)")
	flagSet.BoolVar(&f.ShowVersion, "version", false, "print version information and exit")
	flagSet.BoolVarP(&f.ShowHelp, "help", "h", false, "show help")
}

// LoadConfig resolves the config file named by the flags, applies the
// flag overrides, and validates the result.
func (f *CommonFlags) LoadConfig() (*config.Config, error) {
	cfg, err := config.Resolve(f.ConfigPath)
	if err != nil {
		return nil, err
	}
	if f.LogLevel != "" {
		cfg.Logging.Level = f.LogLevel
	}
	if err := cfg.Validate(); err != nil {
		return nil, Usage("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Parse parses args into flagSet. It reports help requests through
// the returned bool so callers can print their own help text.
func Parse(flagSet *pflag.FlagSet, args []string) (help bool, err error) {
	flagSet.SetOutput(io.Discard)
	if err := flagSet.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return true, nil
		}
		return false, Usage("%w", err)
	}
	return false, nil
}

// Usage returns an error that makes process.Fatal exit with ExitUsage.
func Usage(format string, args ...any) error {
	return &process.ExitError{Code: ExitUsage, Err: fmt.Errorf(format, args...)}
}

// PrintDefaults writes the flag table after a help text.
func PrintDefaults(output io.Writer, flagSet *pflag.FlagSet) {
	flagSet.SetOutput(output)
	flagSet.PrintDefaults()
}
