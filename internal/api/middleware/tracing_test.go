package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestTracing_NamesSpanByRoute(t *testing.T) {
	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() { otel.SetTracerProvider(prev) })

	r := chi.NewRouter()
	r.Use(Tracing("stemsplit-test"))
	r.Get("/api/v1/sessions/{id}", ok)
	r.Get("/boom", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/v1/sessions/abc?secret=1", nil))
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/boom", nil))

	spans := exporter.GetSpans()
	require.Len(t, spans, 2)
	assert.Equal(t, "GET /api/v1/sessions/{id}", spans[0].Name)
	assert.Equal(t, codes.Ok, spans[0].Status.Code)
	for _, kv := range spans[0].Attributes {
		assert.NotContains(t, kv.Value.Emit(), "secret")
	}
	assert.Equal(t, "GET /boom", spans[1].Name)
	assert.Equal(t, codes.Error, spans[1].Status.Code)
}
