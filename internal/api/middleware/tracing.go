// SPDX-License-Identifier: MIT

package middleware

import (
	"net/http"

	chimw "github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	"github.com/ManuGH/stemsplit/internal/api/problem"
	"github.com/ManuGH/stemsplit/internal/telemetry"
)

// Tracing starts a server span per request and continues W3C trace context
// from the caller.
func Tracing(tracerName string) func(http.Handler) http.Handler {
	tracer := telemetry.Tracer(tracerName)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := otel.GetTextMapPropagator().Extract(r.Context(), propagation.HeaderCarrier(r.Header))

			// Query values never reach traces.
			urlLabel := r.URL.Path
			if r.URL.RawQuery != "" {
				urlLabel += "?"
			}

			ctx, span := tracer.Start(ctx, r.Method+" "+r.URL.Path, trace.WithSpanKind(trace.SpanKindServer))
			defer span.End()

			ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
			r = r.WithContext(ctx)
			next.ServeHTTP(ww, r)

			// The route pattern is only known once chi has matched.
			route := routePattern(r)
			span.SetName(r.Method + " " + route)

			status := ww.Status()
			attrs := telemetry.HTTPAttributes(r.Method, route, urlLabel, status)
			if reqID := ww.Header().Get(problem.HeaderRequestID); reqID != "" {
				attrs = append(attrs, attribute.String("http.requestId", reqID))
			}
			span.SetAttributes(attrs...)

			if status >= 500 {
				span.SetStatus(codes.Error, http.StatusText(status))
			} else {
				span.SetStatus(codes.Ok, "")
			}
		})
	}
}
