// Copyright 2026 The DbLogger Authors
// SPDX-License-Identifier: Apache-2.0

package capture

import (
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"

	"github.com/dblogger/dblogger/lib/entry"
)

// Router maps source names to assemblers and delivers every completed
// record to the registered sinks. A Router is safe for concurrent use.
type Router struct {
	logger       *slog.Logger
	newAssembler AssemblerFactory

	mu         sync.Mutex
	assemblers map[string]Assembler
	sinks      []Sink
}

// Option configures a Router.
type Option func(*Router)

// WithAssemblerFactory replaces the default Builder-based factory.
func WithAssemblerFactory(factory AssemblerFactory) Option {
	return func(r *Router) { r.newAssembler = factory }
}

// WithLogger sets the logger used for routing diagnostics. The default
// discards everything.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Router) { r.logger = logger }
}

// NewRouter returns a Router with no sinks.
func NewRouter(options ...Option) *Router {
	router := &Router{
		logger:       slog.New(slog.DiscardHandler),
		newAssembler: func(sourceName string) Assembler { return NewBuilder(sourceName) },
		assemblers:   make(map[string]Assembler),
	}
	for _, option := range options {
		option(router)
	}
	return router
}

// Assembler returns the assembler for sourceName, creating it on first
// use. Lookup ignores case: "BlogContext" and "blogcontext" share one
// assembler, and records carry the spelling seen first. It panics if
// sourceName is empty.
func (r *Router) Assembler(sourceName string) Assembler {
	if sourceName == "" {
		panic("capture.Router.Assembler: source name is required")
	}
	key := strings.ToLower(sourceName)

	r.mu.Lock()
	defer r.mu.Unlock()
	if assembler, exists := r.assemblers[key]; exists {
		return assembler
	}
	assembler := r.newAssembler(sourceName)
	assembler.SetCompletionHandler(r.dispatch)
	r.assemblers[key] = assembler
	r.logger.Debug("assembler created", "source", sourceName)
	return assembler
}

// RegisterSink appends sink to the delivery list. Registering the same
// sink twice delivers every record to it twice. Sinks cannot be
// removed.
func (r *Router) RegisterSink(sink Sink) {
	if sink == nil {
		panic("capture.Router.RegisterSink: sink is nil")
	}
	r.mu.Lock()
	r.sinks = append(r.sinks, sink)
	r.mu.Unlock()
}

// Sinks returns a snapshot of the registered sinks in delivery order.
func (r *Router) Sinks() []Sink {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Sink(nil), r.sinks...)
}

// AddFragment delivers text to the assembler for sourceName.
func (r *Router) AddFragment(sourceName, text string) error {
	return r.Assembler(sourceName).AddFragment(text)
}

// WriteLine delivers text followed by entry.Newline as one fragment.
// An empty text is therefore the completion marker.
func (r *Router) WriteLine(sourceName, text string) error {
	return r.AddFragment(sourceName, text+entry.Newline)
}

// Complete delivers the completion marker for sourceName.
func (r *Router) Complete(sourceName string) error {
	return r.AddFragment(sourceName, entry.Newline)
}

// Fragments returns a callback suitable for installing as a database
// layer's logging hook: each call is one fragment for sourceName.
func (r *Router) Fragments(sourceName string) func(text string) error {
	assembler := r.Assembler(sourceName)
	return assembler.AddFragment
}

// Writer returns an io.Writer whose every Write call is one fragment
// for sourceName. Use it where a logging hook expects a text writer.
func (r *Router) Writer(sourceName string) io.Writer {
	return &fragmentWriter{assembler: r.Assembler(sourceName)}
}

// dispatch writes record to each sink in registration order. The first
// sink error stops delivery; later sinks do not see the record.
func (r *Router) dispatch(record *entry.Record) error {
	for index, sink := range r.Sinks() {
		if err := sink.Write(record); err != nil {
			return fmt.Errorf("sink %d (%T) writing record from %q: %w", index, sink, record.SourceName(), err)
		}
	}
	return nil
}

type fragmentWriter struct {
	assembler Assembler
}

func (w *fragmentWriter) Write(p []byte) (int, error) {
	// The fragment is consumed even when a sink fails.
	return len(p), w.assembler.AddFragment(string(p))
}
