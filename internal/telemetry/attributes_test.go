// SPDX-License-Identifier: MIT
package telemetry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.opentelemetry.io/otel/attribute"
)

func TestHTTPAttributes(t *testing.T) {
	attrs := HTTPAttributes("GET", "/api/v1/sessions/{id}", "/api/v1/sessions/abc", 200)

	assert.Len(t, attrs, 4)
	assert.Equal(t, "GET", lookup(attrs, HTTPMethodKey).AsString())
	assert.Equal(t, int64(200), lookup(attrs, HTTPStatusCodeKey).AsInt64())
}

func TestUploadAttributes_OmitsEmpty(t *testing.T) {
	attrs := UploadAttributes("", "song.mp3", "", "standard", 42)

	assert.Len(t, attrs, 3)
	assert.Equal(t, "song.mp3", lookup(attrs, FileNameKey).AsString())
	assert.Equal(t, int64(42), lookup(attrs, FileSizeKey).AsInt64())
	assert.Equal(t, attribute.INVALID, lookup(attrs, SessionIDKey).Type())
}

func TestJobAttributes(t *testing.T) {
	attrs := JobAttributes("job-1", "completed", "simulated")
	assert.Equal(t, "completed", lookup(attrs, JobStatusKey).AsString())
	assert.Equal(t, "simulated", lookup(attrs, TrackerKey).AsString())
}

func lookup(attrs []attribute.KeyValue, key string) attribute.Value {
	for _, a := range attrs {
		if string(a.Key) == key {
			return a.Value
		}
	}
	return attribute.Value{}
}
