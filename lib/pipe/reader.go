// Copyright 2026 The DbLogger Authors
// SPDX-License-Identifier: Apache-2.0

package pipe

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dblogger/dblogger/lib/clock"
	"github.com/dblogger/dblogger/lib/codec"
	"github.com/dblogger/dblogger/lib/entry"
	"github.com/dblogger/dblogger/lib/netutil"
)

// Reader defaults.
const (
	DefaultReconnectBackoff = 100 * time.Millisecond
	DefaultCloseTimeout     = 2 * time.Second
	DefaultMaxItemSize      = 16 << 20
)

// maxItemSizeLimit caps both MaxItemSize and the declared size of a
// compressed payload.
const maxItemSizeLimit = 256 << 20

// maxDiagnosticLength truncates the CBOR diagnostic logged for an
// undecodable item.
const maxDiagnosticLength = 512

// ReaderConfig configures NewReader. Zero values select the defaults.
type ReaderConfig struct {
	// SocketPath is the writer's socket. Required.
	SocketPath string

	Logger *slog.Logger
	Clock  clock.Clock

	// ReconnectBackoff is the pause after a failed dial or a bad item.
	ReconnectBackoff time.Duration

	// CloseTimeout bounds how long Close waits for the loop to exit.
	CloseTimeout time.Duration

	// MaxItemSize limits the encoded size of one item.
	MaxItemSize int64
}

// Reader is the consuming end of the pipe. Register observers with
// OnEntry and OnReset, then call Start.
type Reader struct {
	socketPath       string
	logger           *slog.Logger
	clock            clock.Clock
	reconnectBackoff time.Duration
	closeTimeout     time.Duration
	maxItemSize      int64

	// dial connects to the writer. Tests replace it to count attempts.
	dial func(ctx context.Context) (net.Conn, error)

	observersMu    sync.Mutex
	entryObservers []func(*entry.Record)
	resetObservers []func()

	state    atomic.Int32
	received atomic.Uint64

	// lastSession is owned by the run goroutine.
	lastSession string

	mu        sync.Mutex
	started   bool
	closed    bool
	cancel    context.CancelFunc
	done      chan struct{}
	closeOnce sync.Once
	closeErr  error
}

// NewReader returns a Reader that is not yet running.
func NewReader(config ReaderConfig) (*Reader, error) {
	if config.SocketPath == "" {
		return nil, errors.New("pipe reader: socket path is required")
	}
	if config.Logger == nil {
		config.Logger = slog.New(slog.DiscardHandler)
	}
	if config.Clock == nil {
		config.Clock = clock.Real()
	}
	if config.ReconnectBackoff <= 0 {
		config.ReconnectBackoff = DefaultReconnectBackoff
	}
	if config.CloseTimeout <= 0 {
		config.CloseTimeout = DefaultCloseTimeout
	}
	if config.MaxItemSize <= 0 {
		config.MaxItemSize = DefaultMaxItemSize
	}
	if config.MaxItemSize > maxItemSizeLimit {
		return nil, fmt.Errorf("pipe reader: max item size %d exceeds limit %d", config.MaxItemSize, maxItemSizeLimit)
	}

	reader := &Reader{
		socketPath:       config.SocketPath,
		logger:           config.Logger.With("socket", config.SocketPath),
		clock:            config.Clock,
		reconnectBackoff: config.ReconnectBackoff,
		closeTimeout:     config.CloseTimeout,
		maxItemSize:      config.MaxItemSize,
	}
	var dialer net.Dialer
	reader.dial = func(ctx context.Context) (net.Conn, error) {
		return dialer.DialContext(ctx, "unix", reader.socketPath)
	}
	return reader, nil
}

// OnEntry registers observer for every received record. Observers run
// on the reader goroutine, in registration order; the writer waits for
// them before sending the next item.
func (r *Reader) OnEntry(observer func(*entry.Record)) {
	r.observersMu.Lock()
	r.entryObservers = append(r.entryObservers, observer)
	r.observersMu.Unlock()
}

// OnReset registers observer for every received reset marker.
func (r *Reader) OnReset(observer func()) {
	r.observersMu.Lock()
	r.resetObservers = append(r.resetObservers, observer)
	r.observersMu.Unlock()
}

// State returns the current loop state.
func (r *Reader) State() State { return State(r.state.Load()) }

// Received returns the number of items dispatched so far.
func (r *Reader) Received() uint64 { return r.received.Load() }

// Start launches the read loop. It runs until ctx is cancelled or
// Close is called.
func (r *Reader) Start(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return ErrClosed
	}
	if r.started {
		return errors.New("pipe reader: already started")
	}
	r.started = true

	ctx, r.cancel = context.WithCancel(ctx)
	r.done = make(chan struct{})
	go r.run(ctx, r.done)
	return nil
}

// Done returns a channel closed when the read loop exits. It is nil
// before Start.
func (r *Reader) Done() <-chan struct{} {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.done
}

// Close stops the loop and waits up to CloseTimeout for it to exit. A
// loop that does not exit in time (an observer that never returns) is
// reported as an error and abandoned. Close is idempotent.
func (r *Reader) Close() error {
	r.closeOnce.Do(func() {
		r.mu.Lock()
		r.closed = true
		cancel, done := r.cancel, r.done
		r.mu.Unlock()

		if cancel != nil {
			cancel()
			select {
			case <-done:
			case <-r.clock.After(r.closeTimeout):
				r.closeErr = fmt.Errorf("pipe reader: loop did not stop within %s", r.closeTimeout)
			}
		}
		r.setState(StateDisposed)
	})
	return r.closeErr
}

func (r *Reader) setState(state State) { r.state.Store(int32(state)) }

func (r *Reader) run(ctx context.Context, done chan struct{}) {
	defer close(done)
	defer r.setState(StateDisposed)

	for {
		if ctx.Err() != nil {
			return
		}

		r.setState(StateConnecting)
		conn, err := r.dial(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			r.logger.Debug("pipe writer not available", "error", err)
			if !r.backoff(ctx) {
				return
			}
			continue
		}
		if ctx.Err() != nil {
			conn.Close()
			return
		}

		r.setState(StateConnected)
		item, err := r.receive(ctx, conn)
		if err == nil {
			r.dispatch(item)
		}
		conn.Close()
		r.setState(StateIdle)

		if err != nil {
			if ctx.Err() != nil {
				return
			}
			if netutil.IsDisconnect(err) {
				r.logger.Debug("pipe connection ended without an item", "error", err)
			} else {
				r.logger.Warn("pipe item rejected", "error", err)
			}
			if !r.backoff(ctx) {
				return
			}
		}
	}
}

// backoff waits ReconnectBackoff. It returns false if ctx ended first.
func (r *Reader) backoff(ctx context.Context) bool {
	select {
	case <-r.clock.After(r.reconnectBackoff):
		return true
	case <-ctx.Done():
		return false
	}
}

// receive reads exactly one item from conn. Cancelling ctx closes conn
// so a reader blocked on an idle writer wakes up.
func (r *Reader) receive(ctx context.Context, conn net.Conn) (Item, error) {
	stop := context.AfterFunc(ctx, func() { conn.Close() })
	defer stop()

	if unixConn, ok := conn.(*net.UnixConn); ok {
		if err := verifyPeer(unixConn); err != nil {
			return Item{}, fmt.Errorf("rejecting pipe writer: %w", err)
		}
	}

	var raw codec.RawMessage
	if err := codec.NewDecoder(io.LimitReader(conn, r.maxItemSize)).Decode(&raw); err != nil {
		return Item{}, fmt.Errorf("reading item: %w", err)
	}

	var item Item
	if err := codec.Unmarshal(raw, &item); err != nil {
		return Item{}, fmt.Errorf("decoding item %s: %w", diagnose(raw), err)
	}
	if err := item.Validate(); err != nil {
		return Item{}, fmt.Errorf("item %s: %w", diagnose(raw), err)
	}
	return item, nil
}

func (r *Reader) dispatch(item Item) {
	if item.Session != "" && item.Session != r.lastSession {
		if r.lastSession == "" {
			r.logger.Info("connected to pipe writer", "session", item.Session)
		} else {
			r.logger.Info("pipe writer restarted", "previous_session", r.lastSession, "session", item.Session)
		}
		r.lastSession = item.Session
	}
	r.received.Add(1)

	r.observersMu.Lock()
	entryObservers := slices.Clone(r.entryObservers)
	resetObservers := slices.Clone(r.resetObservers)
	r.observersMu.Unlock()

	if item.Reset {
		for _, observer := range resetObservers {
			observer()
		}
		return
	}

	record, err := item.Record()
	if err != nil {
		r.logger.Warn("pipe entry could not be restored", "error", err)
		return
	}
	for _, observer := range entryObservers {
		observer(record)
	}
}

// diagnose renders raw in CBOR diagnostic notation for logs.
func diagnose(raw []byte) string {
	diagnostic, err := codec.Diagnose(raw)
	if err != nil {
		return fmt.Sprintf("(%d undecodable bytes)", len(raw))
	}
	if len(diagnostic) > maxDiagnosticLength {
		return diagnostic[:maxDiagnosticLength] + "..."
	}
	return diagnostic
}
