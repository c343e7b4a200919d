package httpx

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

func TestNewClient_DefaultTimeoutAndTransport(t *testing.T) {
	client := NewClient(0)
	assert.Equal(t, defaultClientTimeout, client.Timeout)

	transport, ok := client.Transport.(*http.Transport)
	require.True(t, ok, "transport type = %T", client.Transport)
	assert.Equal(t, defaultMaxIdleConns, transport.MaxIdleConns)
	assert.Equal(t, defaultMaxIdleConnsPerHost, transport.MaxIdleConnsPerHost)
	assert.Equal(t, defaultIdleConnTimeout, transport.IdleConnTimeout)
}

func TestNewClient_CapsDialAndHeaderTimeouts(t *testing.T) {
	client := NewClient(10 * time.Second)
	transport, ok := client.Transport.(*http.Transport)
	require.True(t, ok)
	assert.Equal(t, defaultDialTimeout, transport.TLSHandshakeTimeout)
	assert.Equal(t, defaultResponseHeaderTimeout, transport.ResponseHeaderTimeout)
}

func TestNewClient_UsesShortTimeoutAsProvided(t *testing.T) {
	want := 1500 * time.Millisecond
	client := NewClient(want)
	transport, ok := client.Transport.(*http.Transport)
	require.True(t, ok)
	assert.Equal(t, want, client.Timeout)
	assert.Equal(t, want, transport.TLSHandshakeTimeout)
	assert.Equal(t, want, transport.ResponseHeaderTimeout)
}

func TestNewClient_HeaderTimeoutOverride(t *testing.T) {
	client := NewClient(5*time.Minute, WithResponseHeaderTimeout(2*time.Minute))
	transport, ok := client.Transport.(*http.Transport)
	require.True(t, ok)
	assert.Equal(t, 2*time.Minute, transport.ResponseHeaderTimeout)
	assert.Equal(t, defaultDialTimeout, transport.TLSHandshakeTimeout)
}

func TestNewClient_TracingWrapsTransport(t *testing.T) {
	client := NewClient(time.Second, WithTracing("separator"))
	_, ok := client.Transport.(*otelhttp.Transport)
	require.True(t, ok, "transport type = %T", client.Transport)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	resp, err := client.Get(srv.URL)
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
}
