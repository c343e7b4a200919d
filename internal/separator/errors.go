package separator

import (
	"context"
	"errors"
	"fmt"

	"github.com/ManuGH/stemsplit/internal/resilience"
)

var (
	// ErrNoJobID is returned when a status lookup is attempted without a job ID.
	ErrNoJobID = errors.New("separator: missing job id")
)

// StatusError is returned for non-2xx backend responses.
type StatusError struct {
	Op   string
	Code int
	Body string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("separator %s: unexpected status %d", e.Op, e.Code)
	}
	return fmt.Sprintf("separator %s: unexpected status %d: %s", e.Op, e.Code, e.Body)
}

// Temporary reports whether retrying later could succeed.
func (e *StatusError) Temporary() bool {
	return e.Code >= 500 || e.Code == 429
}

// countsAgainstBreaker treats client errors and cancellation as the caller's fault.
func countsAgainstBreaker(err error) bool {
	if errors.Is(err, context.Canceled) {
		return false
	}
	var se *StatusError
	if errors.As(err, &se) {
		return se.Temporary()
	}
	return true
}

func isCircuitOpen(err error) bool {
	return errors.Is(err, resilience.ErrCircuitOpen)
}
