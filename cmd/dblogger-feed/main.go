// Copyright 2026 The DbLogger Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/pflag"

	"github.com/dblogger/dblogger/lib/capture"
	"github.com/dblogger/dblogger/lib/cli"
	"github.com/dblogger/dblogger/lib/dblogger"
	"github.com/dblogger/dblogger/lib/process"
	"github.com/dblogger/dblogger/lib/version"
)

const binaryName = "dblogger-feed"

// maxLineLength bounds one input line. Parameter dumps of large blobs
// run long.
const maxLineLength = 16 << 20

func main() {
	if err := run(os.Args[1:], os.Stdin, os.Stdout); err != nil {
		process.Fatal(err)
	}
}

func run(args []string, stdin io.Reader, stdout io.Writer) error {
	var (
		common       cli.CommonFlags
		sourceName   string
		inputPath    string
		reset        bool
		pipeEnabled  bool
		noPipe       bool
		socketPath   string
		logDirectory string
	)
	flagSet := pflag.NewFlagSet(binaryName, pflag.ContinueOnError)
	common.AddFlags(flagSet)
	flagSet.StringVarP(&sourceName, "source", "s", "", "source name the records are attributed to (required)")
	flagSet.StringVarP(&inputPath, "file", "f", "", "read trace text from this file instead of stdin")
	flagSet.BoolVar(&reset, "reset", false, "reset every sink before feeding")
	flagSet.BoolVar(&pipeEnabled, "pipe", false, "send records to the pipe (overrides pipe.enabled)")
	flagSet.BoolVar(&noPipe, "no-pipe", false, "do not send records to the pipe")
	flagSet.StringVar(&socketPath, "socket", "", "pipe socket path (overrides pipe.socket_path)")
	flagSet.StringVar(&logDirectory, "log-dir", "", "write per-source log files to this directory")

	help, err := cli.Parse(flagSet, args)
	if err != nil {
		return err
	}
	if help || common.ShowHelp {
		printHelp(stdout, flagSet)
		return nil
	}
	if common.ShowVersion {
		version.Print(binaryName)
		return nil
	}
	if flagSet.NArg() > 0 {
		return cli.Usage("unexpected argument %q", flagSet.Arg(0))
	}
	if sourceName == "" {
		return cli.Usage("--source is required")
	}
	if pipeEnabled && noPipe {
		return cli.Usage("--pipe and --no-pipe are mutually exclusive")
	}

	cfg, err := common.LoadConfig()
	if err != nil {
		return err
	}
	switch {
	case pipeEnabled:
		cfg.Pipe.Enabled = true
	case noPipe:
		cfg.Pipe.Enabled = false
	}
	if socketPath != "" {
		cfg.Pipe.SocketPath = socketPath
	}
	if logDirectory != "" {
		cfg.File.Enabled = true
		cfg.File.Directory = logDirectory
	}
	if !cfg.Pipe.Enabled && !cfg.File.Enabled {
		return cli.Usage("no sink enabled: pass --pipe or --log-dir")
	}
	if err := cfg.EnsurePaths(); err != nil {
		return err
	}

	logger, err := cli.NewLogger(cfg.Logging)
	if err != nil {
		return cli.Usage("%w", err)
	}
	logger = logger.With("binary", binaryName, "source", sourceName)

	input := stdin
	if inputPath != "" {
		file, err := os.Open(inputPath)
		if err != nil {
			return fmt.Errorf("opening input: %w", err)
		}
		defer file.Close()
		input = file
	}

	options, err := dblogger.OptionsFromConfig(cfg, logger)
	if err != nil {
		return cli.Usage("%w", err)
	}
	logs, err := dblogger.New(options)
	if err != nil {
		return err
	}

	var feedErr error
	if reset {
		feedErr = logs.Reset()
	}
	records := 0
	if feedErr == nil {
		records, feedErr = feed(input, logs.Router(), sourceName)
	}
	closeErr := logs.Close()

	attributes := []any{"records", records}
	if writer := logs.Writer(); writer != nil {
		stats := writer.Stats()
		attributes = append(attributes, "session", writer.Session(), "sent", stats.Sent, "dropped", stats.Dropped)
	}
	logger.Info("feed finished", attributes...)

	return errors.Join(feedErr, closeErr)
}

// feed sends each line of input to router as one fragment for
// sourceName and completes the record at each blank line. Runs of
// blank lines complete at most one record. It returns the number of
// records completed.
func feed(input io.Reader, router *capture.Router, sourceName string) (int, error) {
	scanner := bufio.NewScanner(input)
	scanner.Buffer(make([]byte, 64*1024), maxLineLength)

	records := 0
	pending := false
	for scanner.Scan() {
		line := strings.TrimSuffix(scanner.Text(), "\r")
		if line == "" {
			if !pending {
				continue
			}
			if err := router.Complete(sourceName); err != nil {
				return records, fmt.Errorf("completing record %d: %w", records+1, err)
			}
			records++
			pending = false
			continue
		}
		if err := router.WriteLine(sourceName, line); err != nil {
			return records, fmt.Errorf("adding fragment to record %d: %w", records+1, err)
		}
		pending = true
	}
	if err := scanner.Err(); err != nil {
		return records, fmt.Errorf("reading input: %w", err)
	}
	if pending {
		if err := router.Complete(sourceName); err != nil {
			return records, fmt.Errorf("completing record %d: %w", records+1, err)
		}
		records++
	}
	return records, nil
}

func printHelp(output io.Writer, flagSet *pflag.FlagSet) {
	fmt.Fprint(output, `dblogger-feed - Replay SQL trace text into DbLogger sinks

USAGE
    dblogger-feed --source <name> [flags] < trace.sql

Each input line is one fragment; a blank line completes a record.

EXAMPLES
    # Show a saved trace in a running dblogger-tail
    dblogger-feed --source BlogContext --pipe --file trace.sql

    # Start the BlogContext log file over and append a trace
    dblogger-feed --source BlogContext --no-pipe --log-dir ./logs --reset < trace.sql

FLAGS
`)
	cli.PrintDefaults(output, flagSet)
}
