// SPDX-License-Identifier: MIT

package daemon

import (
	"errors"
	"net/http"

	"github.com/rs/zerolog"
)

var (
	ErrMissingLogger     = errors.New("daemon: logger is required")
	ErrMissingAPIHandler = errors.New("daemon: site handler is required")
	ErrMissingManager    = errors.New("daemon: manager is required")
	// ErrMetricsAddr means a metrics handler was supplied without a listen address.
	ErrMetricsAddr = errors.New("daemon: metrics handler needs an address")

	ErrManagerNotStarted     = errors.New("daemon: manager not started")
	ErrManagerAlreadyStarted = errors.New("daemon: manager already started")
)

// Deps are the collaborators of a Manager.
type Deps struct {
	Logger zerolog.Logger

	// APIHandler serves the site, its assets and the session API.
	APIHandler http.Handler

	// MetricsHandler is served on its own listener at MetricsAddr. Optional.
	MetricsHandler http.Handler
	MetricsAddr    string
}

// Validate reports the first missing or inconsistent dependency.
func (d *Deps) Validate() error {
	switch {
	case d.Logger.GetLevel() == zerolog.Disabled:
		return ErrMissingLogger
	case d.APIHandler == nil:
		return ErrMissingAPIHandler
	case d.MetricsHandler != nil && d.MetricsAddr == "":
		return ErrMetricsAddr
	}
	return nil
}
