// SPDX-License-Identifier: MIT

package telemetry

import (
	"go.opentelemetry.io/otel/attribute"
)

// Attribute keys shared by HTTP middleware and the upload workflow.
const (
	HTTPMethodKey     = "http.method"
	HTTPStatusCodeKey = "http.status_code"
	HTTPRouteKey      = "http.route"
	HTTPURLKey        = "http.url"

	SessionIDKey = "upload.session_id"
	FileNameKey  = "upload.file_name"
	FileSizeKey  = "upload.file_size"
	MediaKindKey = "upload.media_kind"
	ModelKey     = "upload.model"

	JobIDKey     = "job.id"
	JobStatusKey = "job.status"
	TrackerKey   = "job.tracker"

	ErrorKey     = "error"
	ErrorTypeKey = "error.type"
)

// HTTPAttributes creates common HTTP span attributes.
func HTTPAttributes(method, route, url string, statusCode int) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String(HTTPMethodKey, method),
		attribute.String(HTTPRouteKey, route),
		attribute.String(HTTPURLKey, url),
		attribute.Int(HTTPStatusCodeKey, statusCode),
	}
}

// UploadAttributes describes the file being sent upstream. Empty values are omitted.
func UploadAttributes(sessionID, fileName, mediaKind, model string, size int64) []attribute.KeyValue {
	attrs := make([]attribute.KeyValue, 0, 5)
	if sessionID != "" {
		attrs = append(attrs, attribute.String(SessionIDKey, sessionID))
	}
	if fileName != "" {
		attrs = append(attrs, attribute.String(FileNameKey, fileName))
	}
	if mediaKind != "" {
		attrs = append(attrs, attribute.String(MediaKindKey, mediaKind))
	}
	if model != "" {
		attrs = append(attrs, attribute.String(ModelKey, model))
	}
	attrs = append(attrs, attribute.Int64(FileSizeKey, size))
	return attrs
}

// JobAttributes creates job-related span attributes.
func JobAttributes(jobID, status, tracker string) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String(JobIDKey, jobID),
		attribute.String(JobStatusKey, status),
		attribute.String(TrackerKey, tracker),
	}
}

// ErrorAttributes creates error-related span attributes.
func ErrorAttributes(errorType string) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.Bool(ErrorKey, true),
		attribute.String(ErrorTypeKey, errorType),
	}
}
