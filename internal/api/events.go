package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/ManuGH/stemsplit/internal/log"
)

// handleEvents streams session state as server-sent events. Every snapshot
// is an "state" event; comments keep idle connections open.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	c, ok := s.session(w, r)
	if !ok {
		return
	}

	rc := http.NewResponseController(w)
	// Streams outlive the server write timeout.
	_ = rc.SetWriteDeadline(time.Time{})

	h := w.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	h.Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	if err := rc.Flush(); err != nil {
		return
	}

	states, cancel := c.Subscribe()
	defer cancel()

	heartbeat := time.NewTicker(s.heartbeat)
	defer heartbeat.Stop()

	logger := log.WithComponentFromContext(r.Context(), "events")
	for {
		select {
		case <-r.Context().Done():
			return
		case <-heartbeat.C:
			if _, err := fmt.Fprint(w, ": ping\n\n"); err != nil {
				return
			}
		case st, open := <-states:
			if !open {
				return
			}
			data, err := json.Marshal(st)
			if err != nil {
				logger.Error().Err(err).Str("event", "events.encode_failed").Msg("encode session state")
				return
			}
			if _, err := fmt.Fprintf(w, "id: %d\nevent: state\ndata: %s\n\n", st.Seq, data); err != nil {
				return
			}
		}
		if err := rc.Flush(); err != nil {
			return
		}
	}
}
