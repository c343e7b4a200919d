// Package problem writes RFC 7807 problem details.
package problem

import (
	"encoding/json"
	"net/http"

	"github.com/ManuGH/stemsplit/internal/log"
)

const (
	// HeaderRequestID carries the correlation ID on requests and responses.
	HeaderRequestID = "X-Request-ID"
	// JSONKeyRequestID is the problem body field holding the correlation ID.
	JSONKeyRequestID = "requestId"
)

// Write writes an RFC 7807 problem details response.
//
//   - problemType: machine identifier such as "upload/no_file".
//   - title: short human label such as "Bad Request".
//   - code: stable upper-case code such as "NO_FILE".
//   - detail: explanation of this occurrence, shown to users.
func Write(w http.ResponseWriter, r *http.Request, status int, problemType, title, code, detail string, extra map[string]any) {
	instance := ""
	reqID := ""
	if r != nil {
		instance = r.URL.EscapedPath()
		reqID = log.RequestIDFromContext(r.Context())
	} else {
		log.L().Error().Str("type", problemType).Int("status", status).Msg("problem.Write called with nil request")
	}
	if reqID == "" {
		reqID = w.Header().Get(HeaderRequestID)
	}

	res := map[string]any{
		"type":   problemType,
		"title":  title,
		"status": status,
		"code":   code,
	}
	if reqID != "" {
		res[JSONKeyRequestID] = reqID
	}
	if detail != "" {
		res["detail"] = detail
	}
	if instance != "" {
		res["instance"] = instance
	}
	for k, v := range extra {
		switch k {
		case "type", "title", "status", "detail", "instance", "code":
			log.L().Warn().Str("key", k).Str("problem_type", problemType).Msg("ignoring reserved key in problem extras")
			continue
		}
		res[k] = v
	}

	if reqID != "" {
		w.Header().Set(HeaderRequestID, reqID)
	}
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(res); err != nil {
		log.L().Error().Err(err).Str("type", problemType).Int("status", status).Msg("failed to encode problem response")
	}
}
