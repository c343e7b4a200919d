package upload

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/ManuGH/stemsplit/internal/log"
	"github.com/ManuGH/stemsplit/internal/metrics"
)

// Registry owns the controllers of all open page sessions.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*Controller
	deps     Deps
	ttl      time.Duration
	closed   bool
	logger   zerolog.Logger
}

// NewRegistry creates an empty registry. New sessions use deps; sessions
// idle for longer than ttl are closed by Sweep.
func NewRegistry(deps Deps, ttl time.Duration) *Registry {
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	return &Registry{
		sessions: make(map[string]*Controller),
		deps:     deps,
		ttl:      ttl,
		logger:   log.WithComponent("sessions"),
	}
}

// Create opens a new session.
func (r *Registry) Create() (*Controller, error) {
	id := uuid.NewString()

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return nil, ErrClosed
	}
	c := NewController(id, r.deps)
	r.sessions[id] = c
	metrics.SessionOpened()

	r.logger.Debug().Str("event", "session.created").Str(log.FieldSessionID, id).Msg("session created")
	return c, nil
}

// Get looks up a session.
func (r *Registry) Get(id string) (*Controller, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return c, nil
}

// Delete closes and forgets a session.
func (r *Registry) Delete(id string) error {
	c, ok := r.remove(id)
	if !ok {
		return ErrSessionNotFound
	}
	c.Close()
	metrics.SessionClosed("client")
	return nil
}

func (r *Registry) remove(id string) (*Controller, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.sessions[id]
	if ok {
		delete(r.sessions, id)
	}
	return c, ok
}

// Len returns the number of open sessions.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// Configure replaces the collaborators and TTL used for new sessions.
// Existing sessions keep theirs.
func (r *Registry) Configure(deps Deps, ttl time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.deps = deps
	if ttl > 0 {
		r.ttl = ttl
	}
}

// Sweep closes sessions that have been idle longer than the TTL.
func (r *Registry) Sweep(now time.Time) int {
	r.mu.RLock()
	ttl := r.ttl
	var idle []string
	for id, c := range r.sessions {
		if c.Idle(now, ttl) {
			idle = append(idle, id)
		}
	}
	r.mu.RUnlock()

	n := 0
	for _, id := range idle {
		c, ok := r.remove(id)
		if !ok {
			continue
		}
		c.Close()
		metrics.SessionClosed("idle")
		n++
	}
	if n > 0 {
		r.logger.Info().Str("event", "session.swept").Int("count", n).Msg("closed idle sessions")
	}
	return n
}

// Run sweeps every interval until ctx is done.
func (r *Registry) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			r.Sweep(now)
		}
	}
}

// Close closes every session and rejects new ones.
func (r *Registry) Close() {
	r.mu.Lock()
	r.closed = true
	sessions := r.sessions
	r.sessions = make(map[string]*Controller)
	r.mu.Unlock()

	var wg sync.WaitGroup
	for _, c := range sessions {
		wg.Add(1)
		go func(c *Controller) {
			defer wg.Done()
			c.Close()
			metrics.SessionClosed("shutdown")
		}(c)
	}
	wg.Wait()

	if len(sessions) > 0 {
		r.logger.Info().Str("event", "session.shutdown").Int("count", len(sessions)).Msg("closed all sessions")
	}
}
