// Copyright 2026 The DbLogger Authors
// SPDX-License-Identifier: Apache-2.0

package dblogger

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/dblogger/dblogger/lib/capture"
	"github.com/dblogger/dblogger/lib/config"
	"github.com/dblogger/dblogger/lib/pipe"
	"github.com/dblogger/dblogger/lib/sink"
)

// Options configures New.
type Options struct {
	Logger *slog.Logger

	// LogDirectory enables a FileSink rooted there.
	LogDirectory string

	// Pipe enables a pipe Writer configured by PipeWriter. The
	// writer's Logger defaults to Logger.
	Pipe       bool
	PipeWriter pipe.WriterConfig

	// AssemblerFactory replaces the default fragment assembler.
	AssemblerFactory capture.AssemblerFactory
}

// OptionsFromConfig maps a loaded configuration onto Options.
func OptionsFromConfig(cfg *config.Config, logger *slog.Logger) (Options, error) {
	compression, err := pipe.ParseCompression(cfg.Pipe.Compression)
	if err != nil {
		return Options{}, fmt.Errorf("pipe.compression: %w", err)
	}
	options := Options{
		Logger: logger,
		Pipe:   cfg.Pipe.Enabled,
		PipeWriter: pipe.WriterConfig{
			SocketPath:           cfg.Pipe.SocketPath,
			GracePeriod:          cfg.Pipe.GracePeriodDuration(),
			DrainTimeout:         cfg.Pipe.DrainTimeoutDuration(),
			Compression:          compression,
			CompressionThreshold: cfg.Pipe.CompressionThreshold,
		},
	}
	if cfg.File.Enabled {
		options.LogDirectory = cfg.File.Directory
	}
	return options, nil
}

// Context is one process's capture pipeline.
type Context struct {
	logger   *slog.Logger
	router   *capture.Router
	fileSink *sink.FileSink
	writer   *pipe.Writer

	mu    sync.Mutex
	owned []capture.Sink

	closeOnce sync.Once
	closeErr  error
}

// New builds a Context and registers the sinks Options enables: the
// file sink first, then the pipe writer.
func New(options Options) (*Context, error) {
	logger := options.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	routerOptions := []capture.Option{capture.WithLogger(logger)}
	if options.AssemblerFactory != nil {
		routerOptions = append(routerOptions, capture.WithAssemblerFactory(options.AssemblerFactory))
	}
	logs := &Context{
		logger: logger,
		router: capture.NewRouter(routerOptions...),
	}

	if options.LogDirectory != "" {
		fileSink, err := sink.NewFileSink(options.LogDirectory, logger)
		if err != nil {
			return nil, err
		}
		logs.fileSink = fileSink
		logs.RegisterSink(fileSink)
	}

	if options.Pipe {
		writerConfig := options.PipeWriter
		if writerConfig.Logger == nil {
			writerConfig.Logger = logger
		}
		writer, err := pipe.NewWriter(writerConfig)
		if err != nil {
			return nil, err
		}
		logs.writer = writer
		logs.RegisterSink(writer)
	}

	return logs, nil
}

// Router returns the context's router.
func (c *Context) Router() *capture.Router { return c.router }

// Writer returns the pipe writer, or nil when the pipe is disabled.
func (c *Context) Writer() *pipe.Writer { return c.writer }

// FileSink returns the file sink, or nil when no log directory is set.
func (c *Context) FileSink() *sink.FileSink { return c.fileSink }

// RegisterSink adds s to the router and to the sinks Reset covers.
func (c *Context) RegisterSink(s capture.Sink) {
	c.router.RegisterSink(s)
	c.mu.Lock()
	c.owned = append(c.owned, s)
	c.mu.Unlock()
}

// Fragments returns the logging hook callback for sourceName.
func (c *Context) Fragments(sourceName string) func(text string) error {
	return c.router.Fragments(sourceName)
}

// TextWriter returns an io.Writer for sourceName where each Write is one
// fragment.
func (c *Context) TextWriter(sourceName string) io.Writer {
	return c.router.Writer(sourceName)
}

// Reset resets every sink registered through the context, in
// registration order, and reports all failures.
func (c *Context) Reset() error {
	c.mu.Lock()
	owned := append([]capture.Sink(nil), c.owned...)
	c.mu.Unlock()

	var errs []error
	for index, s := range owned {
		if err := s.Reset(); err != nil {
			errs = append(errs, fmt.Errorf("resetting sink %d (%T): %w", index, s, err))
		}
	}
	c.logger.Debug("sinks reset", "count", len(owned), "failed", len(errs))
	return errors.Join(errs...)
}

// Close disposes the pipe writer, waiting at most its grace period for
// queued records. Close is idempotent.
func (c *Context) Close() error {
	c.closeOnce.Do(func() {
		if c.writer != nil {
			c.closeErr = c.writer.Close()
			stats := c.writer.Stats()
			c.logger.Info("dblogger closed", "sent", stats.Sent, "dropped", stats.Dropped)
		}
	})
	return c.closeErr
}
