package middleware

import (
	"net/http"
	"regexp"

	"github.com/google/uuid"

	"github.com/ManuGH/stemsplit/internal/api/problem"
	"github.com/ManuGH/stemsplit/internal/log"
)

var validRequestID = regexp.MustCompile(`^[A-Za-z0-9._-]{1,128}$`)

// RequestID adds a correlation ID to every request. A well-formed incoming
// X-Request-ID is kept.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqID := r.Header.Get(problem.HeaderRequestID)
		if !validRequestID.MatchString(reqID) {
			reqID = uuid.NewString()
		}
		w.Header().Set(problem.HeaderRequestID, reqID)
		ctx := log.ContextWithRequestID(r.Context(), reqID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
