// Copyright 2026 The DbLogger Authors
// SPDX-License-Identifier: Apache-2.0

package pipe

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"net"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/dblogger/dblogger/lib/clock"
	"github.com/dblogger/dblogger/lib/codec"
	"github.com/dblogger/dblogger/lib/entry"
)

// ErrClosed is returned by operations on a closed Writer or Reader.
var ErrClosed = errors.New("pipe is closed")

// Writer defaults.
const (
	DefaultGracePeriod          = 3 * time.Second
	DefaultDrainTimeout         = 5 * time.Second
	DefaultCompressionThreshold = 4096
)

// aLongTimeAgo is a deadline in the past, used to unblock pending
// socket operations immediately.
var aLongTimeAgo = time.Unix(1, 0)

// WriterConfig configures NewWriter. Zero durations and thresholds
// select the defaults.
type WriterConfig struct {
	// SocketPath is where the writer listens. Required.
	SocketPath string

	Logger *slog.Logger
	Clock  clock.Clock

	// GracePeriod bounds how long Close waits for queued items to
	// reach a reader.
	GracePeriod time.Duration

	// DrainTimeout bounds one exchange: writing the item and waiting
	// for the reader to close its side.
	DrainTimeout time.Duration

	// Compression is applied to entry text of at least
	// CompressionThreshold bytes.
	Compression          Compression
	CompressionThreshold int
}

// WriterStats is a snapshot of a Writer's counters.
type WriterStats struct {
	// Sent counts items a reader confirmed.
	Sent uint64
	// Dropped counts items lost to I/O errors or discarded by Close.
	Dropped uint64
	// Queued is the number of items waiting, including one in flight.
	Queued int
}

// Writer is the producing end of the pipe. It implements
// capture.Sink: Write and Reset enqueue without blocking, and a single
// goroutine delivers items in order.
type Writer struct {
	socketPath           string
	logger               *slog.Logger
	clock                clock.Clock
	gracePeriod          time.Duration
	drainTimeout         time.Duration
	compression          Compression
	compressionThreshold int
	session              string

	queue   *queue
	state   atomic.Int32
	sent    atomic.Uint64
	dropped atomic.Uint64

	// listener is owned by the run goroutine.
	listener *net.UnixListener

	cancel    context.CancelFunc
	done      chan struct{}
	closeOnce sync.Once
}

// NewWriter starts a Writer. The socket is created when the first
// item is queued, replacing any stale socket file at the path.
func NewWriter(config WriterConfig) (*Writer, error) {
	if config.SocketPath == "" {
		return nil, errors.New("pipe writer: socket path is required")
	}
	if config.Logger == nil {
		config.Logger = slog.New(slog.DiscardHandler)
	}
	if config.Clock == nil {
		config.Clock = clock.Real()
	}
	if config.GracePeriod <= 0 {
		config.GracePeriod = DefaultGracePeriod
	}
	if config.DrainTimeout <= 0 {
		config.DrainTimeout = DefaultDrainTimeout
	}
	if config.CompressionThreshold <= 0 {
		config.CompressionThreshold = DefaultCompressionThreshold
	}

	ctx, cancel := context.WithCancel(context.Background())
	writer := &Writer{
		socketPath:           config.SocketPath,
		clock:                config.Clock,
		gracePeriod:          config.GracePeriod,
		drainTimeout:         config.DrainTimeout,
		compression:          config.Compression,
		compressionThreshold: config.CompressionThreshold,
		session:              uuid.NewString(),
		queue:                newQueue(),
		cancel:               cancel,
		done:                 make(chan struct{}),
	}
	writer.logger = config.Logger.With("socket", config.SocketPath, "session", writer.session)

	go writer.run(ctx)
	return writer, nil
}

// SocketPath returns the path the writer listens on.
func (w *Writer) SocketPath() string { return w.socketPath }

// Session returns the identifier stamped on this writer's items.
func (w *Writer) Session() string { return w.session }

// State returns the current loop state.
func (w *Writer) State() State { return State(w.state.Load()) }

// Stats returns a snapshot of the writer's counters.
func (w *Writer) Stats() WriterStats {
	return WriterStats{
		Sent:    w.sent.Load(),
		Dropped: w.dropped.Load(),
		Queued:  w.queue.len(),
	}
}

// Enqueue validates item, stamps the writer's session on it, and
// queues it for delivery.
func (w *Writer) Enqueue(item Item) error {
	if err := item.Validate(); err != nil {
		return err
	}
	item.Session = w.session
	return w.queue.push(item)
}

// Write queues record for delivery.
func (w *Writer) Write(record *entry.Record) error {
	item, err := CompressedEntryItem(record, w.compression, w.compressionThreshold)
	if err != nil {
		return err
	}
	return w.Enqueue(item)
}

// Reset queues a reset marker. Readers see it in order with entries.
func (w *Writer) Reset() error {
	return w.Enqueue(ResetItem())
}

// Close refuses further items, waits up to the grace period for the
// queue to drain, then stops the loop, removes the socket, and
// discards anything still queued. Close is idempotent.
func (w *Writer) Close() error {
	w.closeOnce.Do(func() {
		w.queue.close()

		select {
		case <-w.queue.emptied():
		case <-w.done:
		case <-w.clock.After(w.gracePeriod):
			w.logger.Warn("pipe writer grace period expired", "queued", w.queue.len())
		}

		w.cancel()
		<-w.done

		if remaining := w.queue.discard(); remaining > 0 {
			w.dropped.Add(uint64(remaining))
			w.logger.Warn("pipe writer closed with undelivered items", "dropped", remaining)
		}
		w.setState(StateDisposed)
		w.logger.Debug("pipe writer closed", "sent", w.sent.Load(), "dropped", w.dropped.Load())
	})
	return nil
}

func (w *Writer) setState(state State) { w.state.Store(int32(state)) }

// run delivers queued items one connection at a time until ctx is
// cancelled. An item stays at the head of the queue until its
// exchange finishes, so Close can tell when everything has gone out.
func (w *Writer) run(ctx context.Context) {
	defer close(w.done)
	defer w.closeListener()

	for {
		item, ok := w.queue.peek()
		if !ok {
			w.setState(StateIdle)
			select {
			case <-w.queue.wake():
				continue
			case <-ctx.Done():
				return
			}
		}

		err := w.send(ctx, item)
		if err != nil && ctx.Err() != nil {
			// Close discards the item with the rest of the queue.
			return
		}
		w.queue.pop()
		if err != nil {
			w.dropped.Add(1)
			w.logger.Warn("pipe item dropped", "item", item.String(), "error", err)
			continue
		}
		w.sent.Add(1)
	}
}

// send performs one exchange: accept a reader, write item, half-close,
// and wait for the reader to close its side.
func (w *Writer) send(ctx context.Context, item Item) error {
	w.setState(StateConnecting)
	conn, err := w.accept(ctx)
	if err != nil {
		return err
	}
	defer conn.Close()

	// The deadline must be set before AfterFunc can fire; once ctx is
	// done, the past deadline must stay in place.
	conn.SetDeadline(time.Now().Add(w.drainTimeout))
	stop := context.AfterFunc(ctx, func() { conn.SetDeadline(aLongTimeAgo) })
	defer stop()

	w.setState(StateConnected)
	if err := codec.NewEncoder(conn).Encode(item); err != nil {
		return fmt.Errorf("writing %s: %w", item.String(), err)
	}
	if err := conn.CloseWrite(); err != nil {
		return fmt.Errorf("half-closing after %s: %w", item.String(), err)
	}

	w.setState(StateDraining)
	if _, err := io.Copy(io.Discard, conn); err != nil {
		return fmt.Errorf("waiting for reader to consume %s: %w", item.String(), err)
	}
	return nil
}

// accept returns the next reader connection from a peer running as
// the same user. Connections from other users are closed and skipped.
// A failed Accept discards the listener so the next attempt listens
// afresh.
func (w *Writer) accept(ctx context.Context) (*net.UnixConn, error) {
	for {
		listener, err := w.ensureListener()
		if err != nil {
			return nil, err
		}

		stop := context.AfterFunc(ctx, func() { listener.SetDeadline(aLongTimeAgo) })
		conn, err := listener.AcceptUnix()
		stop()
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			w.closeListener()
			return nil, fmt.Errorf("accepting reader: %w", err)
		}

		if err := verifyPeer(conn); err != nil {
			conn.Close()
			w.logger.Warn("rejected pipe reader", "error", err)
			continue
		}
		return conn, nil
	}
}

func (w *Writer) ensureListener() (*net.UnixListener, error) {
	if w.listener != nil {
		return w.listener, nil
	}

	if err := os.Remove(w.socketPath); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("removing stale socket %s: %w", w.socketPath, err)
	}
	listener, err := net.ListenUnix("unix", &net.UnixAddr{Name: w.socketPath, Net: "unix"})
	if err != nil {
		return nil, fmt.Errorf("listening on %s: %w", w.socketPath, err)
	}
	if err := os.Chmod(w.socketPath, 0o600); err != nil {
		listener.Close()
		return nil, fmt.Errorf("restricting socket %s: %w", w.socketPath, err)
	}

	w.listener = listener
	w.logger.Info("pipe writer listening")
	return listener, nil
}

// closeListener closes the listener, which also unlinks the socket
// file.
func (w *Writer) closeListener() {
	if w.listener == nil {
		return
	}
	if err := w.listener.Close(); err != nil && !errors.Is(err, net.ErrClosed) {
		w.logger.Debug("closing pipe listener", "error", err)
	}
	w.listener = nil
}
