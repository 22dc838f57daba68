package cleanup

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// flakyReleaser fails the first n calls per ref.
type flakyReleaser struct {
	mu       sync.Mutex
	failures int
	calls    map[string]int
	released []string
}

func (r *flakyReleaser) Delete(_ context.Context, ref string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls[ref]++
	if r.calls[ref] <= r.failures {
		return errors.New("storage unavailable")
	}
	r.released = append(r.released, ref)
	return nil
}

func (r *flakyReleaser) snapshot() ([]string, map[string]int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	calls := make(map[string]int, len(r.calls))
	for k, v := range r.calls {
		calls[k] = v
	}
	return append([]string(nil), r.released...), calls
}

func testConfig() ProcessorConfig {
	cfg := DefaultConfig()
	cfg.RetryDelay = time.Millisecond
	cfg.ShutdownTimeout = 5 * time.Second
	return cfg
}

func TestProcessor_RetriesUntilReleased(t *testing.T) {
	r := &flakyReleaser{failures: 2, calls: map[string]int{}}
	p := NewProcessor(r, zap.NewNop(), testConfig())
	require.NoError(t, p.Start())

	require.NoError(t, p.Submit(Job{Ref: "thumb.png", Origin: "map:1"}))
	require.NoError(t, p.Stop())

	released, calls := r.snapshot()
	assert.Equal(t, []string{"thumb.png"}, released)
	assert.Equal(t, 3, calls["thumb.png"])
}

func TestProcessor_GivesUpAfterMaxAttempts(t *testing.T) {
	r := &flakyReleaser{failures: 10, calls: map[string]int{}}
	p := NewProcessor(r, zap.NewNop(), testConfig())
	require.NoError(t, p.Start())

	require.NoError(t, p.Submit(Job{Ref: "photo.jpg"}))
	require.NoError(t, p.Stop())

	released, calls := r.snapshot()
	assert.Empty(t, released)
	assert.Equal(t, 3, calls["photo.jpg"])
}

func TestProcessor_Lifecycle(t *testing.T) {
	r := &flakyReleaser{calls: map[string]int{}}
	cfg := testConfig()
	cfg.WorkerCount = 0
	cfg.BufferSize = 1
	p := NewProcessor(r, zap.NewNop(), cfg)

	assert.ErrorIs(t, p.Submit(Job{Ref: "a"}), ErrNotStarted)
	assert.ErrorIs(t, p.Stop(), ErrNotStarted)

	require.NoError(t, p.Start())
	assert.Error(t, p.Start())

	// No workers: the second job overflows the buffer
	require.NoError(t, p.Submit(Job{Ref: "a"}))
	assert.ErrorIs(t, p.Submit(Job{Ref: "b"}), ErrQueueFull)

	stats := p.Stats()
	assert.Equal(t, 1, stats["queue_length"])
	assert.Equal(t, true, stats["started"])
}
