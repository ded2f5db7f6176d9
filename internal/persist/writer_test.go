package persist

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/claude/levelgym/internal/metrics"
	"github.com/claude/levelgym/internal/storage"
)

const key = "soloLevelingGym_data"

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// gatedStore records writes in order. When gate is set, every Put reports on
// started and waits for gate before returning.
type gatedStore struct {
	*storage.MemoryStore
	mu      sync.Mutex
	writes  []string
	started chan struct{}
	gate    chan struct{}
	putErr  error
}

func newGatedStore() *gatedStore {
	return &gatedStore{MemoryStore: storage.NewMemoryStore()}
}

func (g *gatedStore) Put(ctx context.Context, k string, data []byte) error {
	g.mu.Lock()
	g.writes = append(g.writes, string(data))
	started, gate, putErr := g.started, g.gate, g.putErr
	g.mu.Unlock()

	if gate != nil {
		started <- struct{}{}
		<-gate
	}
	if putErr != nil {
		return putErr
	}
	return g.MemoryStore.Put(ctx, k, data)
}

func (g *gatedStore) Delete(ctx context.Context, k string) error {
	g.mu.Lock()
	g.writes = append(g.writes, "<delete>")
	g.mu.Unlock()
	return g.MemoryStore.Delete(ctx, k)
}

func (g *gatedStore) recorded() []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]string(nil), g.writes...)
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestWriter_LoadNotFound(t *testing.T) {
	w := New(newGatedStore(), key, time.Second, testLogger(), nil)
	defer w.Close()

	data, err := w.Load(context.Background())
	require.NoError(t, err)
	assert.Nil(t, data)
}

func TestWriter_SaveFlushLoad(t *testing.T) {
	blobs := newGatedStore()
	w := New(blobs, key, time.Second, testLogger(), nil)
	defer w.Close()

	w.Save([]byte("a"))
	require.NoError(t, w.Flush(context.Background()))

	data, err := w.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "a", string(data))
}

func TestWriter_Coalesces(t *testing.T) {
	blobs := newGatedStore()
	blobs.started = make(chan struct{})
	blobs.gate = make(chan struct{})
	m, _ := metrics.NewTestManagerAndRegistry()
	w := New(blobs, key, time.Second, testLogger(), m)
	defer w.Close()

	w.Save([]byte("a"))
	<-blobs.started // "a" is being written

	w.Save([]byte("b"))
	w.Save([]byte("c"))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CounterPersistCoalesce))

	blobs.gate <- struct{}{}
	<-blobs.started
	blobs.gate <- struct{}{}
	require.NoError(t, w.Flush(context.Background()))

	assert.Equal(t, []string{"a", "c"}, blobs.recorded())
	assert.Equal(t, 2.0, testutil.ToFloat64(m.CounterPersistWrites.WithLabelValues("save", "ok")))

	data, err := w.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "c", string(data))
}

func TestWriter_ClearReplacesPendingSave(t *testing.T) {
	blobs := newGatedStore()
	require.NoError(t, blobs.MemoryStore.Put(context.Background(), key, []byte("old")))
	blobs.started = make(chan struct{})
	blobs.gate = make(chan struct{})
	w := New(blobs, key, time.Second, testLogger(), nil)
	defer w.Close()

	w.Save([]byte("a"))
	<-blobs.started
	w.Save([]byte("b"))
	w.Clear()
	blobs.gate <- struct{}{}
	require.NoError(t, w.Flush(context.Background()))

	assert.Equal(t, []string{"a", "<delete>"}, blobs.recorded())
	data, err := w.Load(context.Background())
	require.NoError(t, err)
	assert.Nil(t, data)
}

func TestWriter_WriteErrorIsCounted(t *testing.T) {
	blobs := newGatedStore()
	blobs.putErr = errors.New("disk full")
	m, _ := metrics.NewTestManagerAndRegistry()
	w := New(blobs, key, time.Second, testLogger(), m)
	defer w.Close()

	w.Save([]byte("a"))
	require.NoError(t, w.Flush(context.Background()))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CounterPersistWrites.WithLabelValues("save", "error")))
}

func TestWriter_CloseWritesPendingAndIsIdempotent(t *testing.T) {
	blobs := newGatedStore()
	w := New(blobs, key, time.Second, testLogger(), nil)

	w.Save([]byte("a"))
	require.NoError(t, w.Close())
	require.NoError(t, w.Close())
	assert.Equal(t, []string{"a"}, blobs.recorded())

	// after close, saves are dropped and flush returns immediately
	w.Save([]byte("b"))
	require.NoError(t, w.Flush(context.Background()))
	assert.Equal(t, []string{"a"}, blobs.recorded())
}

func TestWriter_FlushHonorsContext(t *testing.T) {
	blobs := newGatedStore()
	blobs.started = make(chan struct{})
	blobs.gate = make(chan struct{})
	w := New(blobs, key, time.Second, testLogger(), nil)

	w.Save([]byte("a"))
	<-blobs.started

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, w.Flush(ctx), context.DeadlineExceeded)

	blobs.gate <- struct{}{}
	require.NoError(t, w.Close())
}
