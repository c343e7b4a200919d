// Package httpx builds the outbound HTTP clients used to talk to the
// separation backend.
package httpx

import (
	"net"
	"net/http"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const (
	defaultClientTimeout         = 5 * time.Second
	defaultDialTimeout           = 3 * time.Second
	defaultResponseHeaderTimeout = 3 * time.Second
	defaultIdleConnTimeout       = 30 * time.Second
	defaultExpectContinueTimeout = 1 * time.Second
	defaultMaxIdleConns          = 16
	defaultMaxIdleConnsPerHost   = 4
)

type options struct {
	headerTimeout time.Duration
	traced        bool
	spanName      string
}

// Option tunes NewClient.
type Option func(*options)

// WithResponseHeaderTimeout overrides the cap on waiting for response headers.
// Uploads need a longer window than status probes because the backend answers
// only after it has stored the whole body.
func WithResponseHeaderTimeout(d time.Duration) Option {
	return func(o *options) { o.headerTimeout = d }
}

// WithTracing wraps the transport with otelhttp. Spans are named after the
// given operation prefix.
func WithTracing(name string) Option {
	return func(o *options) {
		o.traced = true
		o.spanName = name
	}
}

// NewClient returns a hardened HTTP client.
func NewClient(timeout time.Duration, opts ...Option) *http.Client {
	if timeout <= 0 {
		timeout = defaultClientTimeout
	}

	var o options
	for _, opt := range opts {
		opt(&o)
	}

	dialTimeout := min(timeout, defaultDialTimeout)

	responseHeaderTimeout := min(timeout, defaultResponseHeaderTimeout)
	if o.headerTimeout > 0 {
		responseHeaderTimeout = min(timeout, o.headerTimeout)
	}

	var transport http.RoundTripper = &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           (&net.Dialer{Timeout: dialTimeout, KeepAlive: 30 * time.Second}).DialContext,
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          defaultMaxIdleConns,
		MaxIdleConnsPerHost:   defaultMaxIdleConnsPerHost,
		IdleConnTimeout:       defaultIdleConnTimeout,
		TLSHandshakeTimeout:   dialTimeout,
		ResponseHeaderTimeout: responseHeaderTimeout,
		ExpectContinueTimeout: defaultExpectContinueTimeout,
	}

	if o.traced {
		prefix := o.spanName
		transport = otelhttp.NewTransport(transport,
			otelhttp.WithSpanNameFormatter(func(_ string, r *http.Request) string {
				return prefix + " " + r.Method + " " + r.URL.Path
			}),
		)
	}

	return &http.Client{
		Timeout:   timeout,
		Transport: transport,
	}
}
