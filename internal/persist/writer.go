// Package persist writes state snapshots to a blob store from a single
// background goroutine. Callers never wait on storage: a newer snapshot
// replaces one that has not been written yet.
package persist

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/claude/levelgym/internal/metrics"
	"github.com/claude/levelgym/internal/storage"
)

const DefaultWriteTimeout = 5 * time.Second

type op struct {
	clear bool
	data  []byte
}

func (o op) name() string {
	if o.clear {
		return "clear"
	}
	return "save"
}

// Writer serializes snapshot writes for one key. Only the latest pending
// operation is kept.
type Writer struct {
	blobs   storage.BlobStore
	key     string
	timeout time.Duration
	log     *slog.Logger
	metrics *metrics.Manager

	mu      sync.Mutex
	pending *op
	closed  bool

	wake      chan struct{}
	flushes   chan chan struct{}
	quit      chan struct{}
	done      chan struct{}
	closeOnce sync.Once
}

// New starts the writer goroutine. Close must be called to stop it.
func New(blobs storage.BlobStore, key string, writeTimeout time.Duration, log *slog.Logger, m *metrics.Manager) *Writer {
	if writeTimeout <= 0 {
		writeTimeout = DefaultWriteTimeout
	}
	if m == nil {
		m = metrics.Discard()
	}
	w := &Writer{
		blobs:   blobs,
		key:     key,
		timeout: writeTimeout,
		log:     log.With("component", "persist", "key", key),
		metrics: m,
		wake:    make(chan struct{}, 1),
		flushes: make(chan chan struct{}),
		quit:    make(chan struct{}),
		done:    make(chan struct{}),
	}
	go w.run()
	return w
}

// Load reads the stored snapshot. It returns nil data when nothing is stored.
func (w *Writer) Load(ctx context.Context) ([]byte, error) {
	data, err := w.blobs.Get(ctx, w.key)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w", w.key, err)
	}
	return data, nil
}

// Save schedules data to be written.
func (w *Writer) Save(data []byte) {
	w.enqueue(op{data: data})
}

// Clear schedules the stored snapshot to be deleted.
func (w *Writer) Clear() {
	w.enqueue(op{clear: true})
}

func (w *Writer) enqueue(o op) {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		w.log.Warn("writer closed, dropping operation", "op", o.name())
		return
	}
	if w.pending != nil {
		w.metrics.CounterPersistCoalesce.Inc()
	}
	w.pending = &o
	w.mu.Unlock()

	select {
	case w.wake <- struct{}{}:
	default:
	}
}

// Flush blocks until every operation scheduled before the call is written.
func (w *Writer) Flush(ctx context.Context) error {
	reply := make(chan struct{})
	select {
	case w.flushes <- reply:
	case <-w.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case <-reply:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close writes whatever is pending and stops the goroutine. It is safe to
// call more than once.
func (w *Writer) Close() error {
	w.closeOnce.Do(func() {
		w.mu.Lock()
		w.closed = true
		w.mu.Unlock()
		close(w.quit)
	})
	<-w.done
	return nil
}

func (w *Writer) run() {
	defer close(w.done)
	for {
		select {
		case <-w.wake:
			w.drain()
		case reply := <-w.flushes:
			w.drain()
			close(reply)
		case <-w.quit:
			w.drain()
			return
		}
	}
}

func (w *Writer) drain() {
	for {
		w.mu.Lock()
		next := w.pending
		w.pending = nil
		w.mu.Unlock()
		if next == nil {
			return
		}
		w.write(*next)
	}
}

func (w *Writer) write(o op) {
	ctx, cancel := context.WithTimeout(context.Background(), w.timeout)
	defer cancel()

	start := time.Now()
	var err error
	if o.clear {
		err = w.blobs.Delete(ctx, w.key)
	} else {
		err = w.blobs.Put(ctx, w.key, o.data)
	}
	w.metrics.HistPersistDuration.Observe(time.Since(start).Seconds())

	if err != nil {
		w.metrics.CounterPersistWrites.WithLabelValues(o.name(), "error").Inc()
		w.log.Error("snapshot write failed", "op", o.name(), "error", err)
		return
	}
	w.metrics.CounterPersistWrites.WithLabelValues(o.name(), "ok").Inc()
	w.log.Debug("snapshot written", "op", o.name(), "bytes", len(o.data))
}
