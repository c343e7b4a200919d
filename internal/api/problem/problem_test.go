package problem

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ManuGH/stemsplit/internal/log"
)

func TestWrite(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/sessions/abc/submit", nil)
	req = req.WithContext(log.ContextWithRequestID(req.Context(), "req-1"))
	rr := httptest.NewRecorder()

	Write(rr, req, http.StatusBadRequest, "upload/no_file", "Bad Request", "NO_FILE", "Please select a file first",
		map[string]any{"sessionId": "abc", "status": 999})

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "application/problem+json", rr.Header().Get("Content-Type"))
	assert.Equal(t, "req-1", rr.Header().Get(HeaderRequestID))

	var body map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Equal(t, "upload/no_file", body["type"])
	assert.Equal(t, "NO_FILE", body["code"])
	assert.Equal(t, "Please select a file first", body["detail"])
	assert.Equal(t, "/api/v1/sessions/abc/submit", body["instance"])
	assert.Equal(t, "req-1", body[JSONKeyRequestID])
	assert.Equal(t, "abc", body["sessionId"])
	assert.EqualValues(t, http.StatusBadRequest, body["status"], "reserved keys cannot be overridden")
}

func TestWrite_FallsBackToResponseHeader(t *testing.T) {
	rr := httptest.NewRecorder()
	rr.Header().Set(HeaderRequestID, "hdr-7")
	Write(rr, httptest.NewRequest(http.MethodGet, "/x", nil), http.StatusNotFound, "system/not_found", "Not Found", "NOT_FOUND", "", nil)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Equal(t, "hdr-7", body[JSONKeyRequestID])
	assert.NotContains(t, body, "detail")
}
