// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package log

// Canonical field name constants for structured logging.
const (
	// Identity fields
	FieldSessionID = "session_id"
	FieldRequestID = "request_id"
	FieldJobID     = "job_id"

	// Process fields
	FieldEvent     = "event"
	FieldComponent = "component"

	// Upload fields
	FieldFileName  = "file_name"
	FieldFileSize  = "file_size"
	FieldMediaKind = "media_kind"
	FieldModel     = "model"
	FieldProgress  = "progress"

	// State fields
	FieldOldState = "old_state"
	FieldNewState = "new_state"

	// Path / URL fields
	FieldPath    = "path"
	FieldBaseURL = "base_url"
)
