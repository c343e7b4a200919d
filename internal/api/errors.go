// SPDX-License-Identifier: MIT

package api

import (
	"encoding/json"
	"errors"
	"net"
	"net/http"

	"github.com/ManuGH/stemsplit/internal/api/problem"
	"github.com/ManuGH/stemsplit/internal/log"
	"github.com/ManuGH/stemsplit/internal/resilience"
	"github.com/ManuGH/stemsplit/internal/upload"
)

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

type apiError struct {
	status int
	typ    string
	title  string
	code   string
}

// errorTable maps workflow errors to problem responses. Order matters:
// the first match wins.
var errorTable = []struct {
	err error
	apiError
}{
	{upload.ErrNoFile, apiError{http.StatusBadRequest, "upload/no_file", "Bad Request", "NO_FILE"}},
	{upload.ErrUnsupportedType, apiError{http.StatusUnsupportedMediaType, "upload/unsupported_type", "Unsupported Media Type", "UNSUPPORTED_TYPE"}},
	{upload.ErrEmptyFile, apiError{http.StatusBadRequest, "upload/empty_file", "Bad Request", "EMPTY_FILE"}},
	{upload.ErrFileTooLarge, apiError{http.StatusRequestEntityTooLarge, "upload/too_large", "Payload Too Large", "FILE_TOO_LARGE"}},
	{upload.ErrUnknownModel, apiError{http.StatusBadRequest, "upload/unknown_model", "Bad Request", "UNKNOWN_MODEL"}},
	{upload.ErrUnknownFormat, apiError{http.StatusBadRequest, "upload/unknown_format", "Bad Request", "UNKNOWN_FORMAT"}},
	{upload.ErrBusy, apiError{http.StatusConflict, "upload/busy", "Conflict", "UPLOAD_IN_PROGRESS"}},
	{upload.ErrAlreadyUploaded, apiError{http.StatusConflict, "upload/already_uploaded", "Conflict", "ALREADY_UPLOADED"}},
	{upload.ErrSessionNotFound, apiError{http.StatusNotFound, "session/not_found", "Not Found", "SESSION_NOT_FOUND"}},
	{upload.ErrClosed, apiError{http.StatusGone, "session/closed", "Gone", "SESSION_CLOSED"}},
	{resilience.ErrCircuitOpen, apiError{http.StatusServiceUnavailable, "separator/unavailable", "Service Unavailable", "SEPARATOR_UNAVAILABLE"}},
}

var errUploadTimeout = apiError{http.StatusRequestTimeout, "upload/timeout", "Request Timeout", "UPLOAD_TIMEOUT"}

var errInternal = apiError{http.StatusInternalServerError, "system/internal", "Internal Server Error", "INTERNAL"}

func classify(err error) apiError {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return apiError{http.StatusRequestEntityTooLarge, "upload/too_large", "Payload Too Large", "FILE_TOO_LARGE"}
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return errUploadTimeout
	}
	for _, e := range errorTable {
		if errors.Is(err, e.err) {
			return e.apiError
		}
	}
	return errInternal
}

// writeError writes the problem response for err. Unknown errors are logged
// and never echoed to the client.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	e := classify(err)
	detail := err.Error()
	if e.status >= http.StatusInternalServerError && e.code == errInternal.code {
		logger := log.WithComponentFromContext(r.Context(), "api")
		logger.Error().
			Err(err).
			Str("event", "api.internal_error").
			Str("path", r.URL.Path).
			Msg("request failed")
		detail = "An unexpected error occurred. Please try again later."
	}
	problem.Write(w, r, e.status, e.typ, e.title, e.code, detail, nil)
}

func writeBadRequest(w http.ResponseWriter, r *http.Request, code, detail string) {
	problem.Write(w, r, http.StatusBadRequest, "request/invalid", "Bad Request", code, detail, nil)
}
