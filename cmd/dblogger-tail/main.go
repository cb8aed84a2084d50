// Copyright 2026 The DbLogger Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"
	"golang.org/x/term"

	"github.com/dblogger/dblogger/lib/cli"
	"github.com/dblogger/dblogger/lib/pipe"
	"github.com/dblogger/dblogger/lib/process"
	"github.com/dblogger/dblogger/lib/version"
)

const binaryName = "dblogger-tail"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	isTerminal := term.IsTerminal(int(os.Stdout.Fd()))
	if err := run(ctx, os.Args[1:], os.Stdout, isTerminal); err != nil {
		stop()
		process.Fatal(err)
	}
}

func run(ctx context.Context, args []string, stdout io.Writer, isTerminal bool) error {
	var (
		common                cli.CommonFlags
		socketPath            string
		colorMode             string
		showStackTrace        bool
		slowQueryMilliseconds int
	)
	flagSet := pflag.NewFlagSet(binaryName, pflag.ContinueOnError)
	common.AddFlags(flagSet)
	flagSet.StringVar(&socketPath, "socket", "", "pipe socket path (overrides pipe.socket_path)")
	flagSet.StringVar(&colorMode, "color", "", "auto, always, or never (overrides viewer.color)")
	flagSet.BoolVar(&showStackTrace, "stack", false, "print each record's stack trace")
	flagSet.IntVar(&slowQueryMilliseconds, "slow-ms", 0, "duration drawn fully red (overrides viewer.slow_query_ms)")

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
	if slowQueryMilliseconds < 0 {
		return cli.Usage("--slow-ms must be positive")
	}

	cfg, err := common.LoadConfig()
	if err != nil {
		return err
	}
	if socketPath != "" {
		cfg.Pipe.SocketPath = socketPath
	}
	if colorMode != "" {
		cfg.Viewer.Color = colorMode
	}
	if showStackTrace {
		cfg.Viewer.ShowStackTrace = true
	}
	if slowQueryMilliseconds > 0 {
		cfg.Viewer.SlowQueryMilliseconds = slowQueryMilliseconds
	}

	profile, err := colorProfile(cfg.Viewer.Color, isTerminal)
	if err != nil {
		return cli.Usage("%w", err)
	}
	logger, err := cli.NewLogger(cfg.Logging)
	if err != nil {
		return cli.Usage("%w", err)
	}
	logger = logger.With("binary", binaryName, "socket", cfg.Pipe.SocketPath)

	reader, err := pipe.NewReader(pipe.ReaderConfig{
		SocketPath:       cfg.Pipe.SocketPath,
		Logger:           logger,
		ReconnectBackoff: cfg.Pipe.ReconnectBackoffDuration(),
		CloseTimeout:     cfg.Pipe.CloseTimeoutDuration(),
		MaxItemSize:      cfg.Pipe.MaxItemSize,
	})
	if err != nil {
		return err
	}

	output := newViewer(stdout, viewerOptions{
		profile:               profile,
		slowQueryMilliseconds: cfg.Viewer.SlowQueryMilliseconds,
		showStackTrace:        cfg.Viewer.ShowStackTrace,
	})
	reader.OnEntry(output.Entry)
	reader.OnReset(output.Reset)

	if err := reader.Start(ctx); err != nil {
		return err
	}
	logger.Info("waiting for records")

	<-ctx.Done()
	logger.Info("shutting down", "received", reader.Received())
	return reader.Close()
}

func printHelp(output io.Writer, flagSet *pflag.FlagSet) {
	fmt.Fprint(output, `dblogger-tail - Print SQL records from DbLogger producers

USAGE
    dblogger-tail [flags]

Runs until interrupted. Producers can start and stop freely; the tail
reconnects to each new one.

EXAMPLES
    # Follow the default socket
    dblogger-tail

    # Show stack traces and treat anything over a second as slow
    dblogger-tail --stack --slow-ms 1000

FLAGS
`)
	cli.PrintDefaults(output, flagSet)
}
