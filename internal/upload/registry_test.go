package upload

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRegistry(t *testing.T, ttl time.Duration) *Registry {
	t.Helper()
	spool, err := NewSpool(t.TempDir())
	require.NoError(t, err)
	r := NewRegistry(Deps{Uploader: &fakeUploader{}, Tracker: fastTracker(), Spool: spool}, ttl)
	t.Cleanup(r.Close)
	return r
}

func TestRegistry_Lifecycle(t *testing.T) {
	r := newTestRegistry(t, time.Minute)

	c, err := r.Create()
	require.NoError(t, err)
	assert.NotEmpty(t, c.ID())
	assert.Equal(t, 1, r.Len())

	got, err := r.Get(c.ID())
	require.NoError(t, err)
	assert.Same(t, c, got)

	require.NoError(t, r.Delete(c.ID()))
	assert.Equal(t, 0, r.Len())
	assert.ErrorIs(t, r.Delete(c.ID()), ErrSessionNotFound)

	_, err = r.Get(c.ID())
	assert.ErrorIs(t, err, ErrSessionNotFound)
	assert.ErrorIs(t, c.SelectFile(Selection{}), ErrClosed)
}

func TestRegistry_SweepClosesIdleSessions(t *testing.T) {
	r := newTestRegistry(t, time.Minute)

	idle, err := r.Create()
	require.NoError(t, err)
	watched, err := r.Create()
	require.NoError(t, err)
	_, unsubscribe := watched.Subscribe()
	defer unsubscribe()

	assert.Equal(t, 0, r.Sweep(time.Now()))
	assert.Equal(t, 1, r.Sweep(time.Now().Add(2*time.Minute)))

	_, err = r.Get(idle.ID())
	assert.ErrorIs(t, err, ErrSessionNotFound)
	_, err = r.Get(watched.ID())
	assert.NoError(t, err)
}

func TestRegistry_Configure(t *testing.T) {
	r := newTestRegistry(t, time.Minute)
	before, err := r.Create()
	require.NoError(t, err)

	r.Configure(Deps{Uploader: &fakeUploader{}, Tracker: fastTracker(), Spool: before.deps.Spool, MaxBytes: 10}, time.Hour)
	after, err := r.Create()
	require.NoError(t, err)

	assert.Equal(t, int64(10), after.deps.MaxBytes)
	assert.Equal(t, DefaultMaxBytes, before.deps.MaxBytes)
	assert.Equal(t, 0, r.Sweep(time.Now().Add(30*time.Minute)))
}

func TestRegistry_RunStopsWithContext(t *testing.T) {
	r := newTestRegistry(t, time.Nanosecond)
	_, err := r.Create()
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		r.Run(ctx, time.Millisecond)
		close(done)
	}()

	require.Eventually(t, func() bool { return r.Len() == 0 }, time.Second, time.Millisecond)
	cancel()
	<-done
}

func TestRegistry_CloseRejectsNewSessions(t *testing.T) {
	r := newTestRegistry(t, time.Minute)
	c, err := r.Create()
	require.NoError(t, err)

	r.Close()
	assert.Equal(t, 0, r.Len())
	assert.ErrorIs(t, c.Submit(context.Background()), ErrClosed)

	_, err = r.Create()
	assert.ErrorIs(t, err, ErrClosed)
}
