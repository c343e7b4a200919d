// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package log provides structured logging utilities.
package log

import (
	"context"

	"github.com/rs/zerolog"
)

type ctxKey int

const (
	requestIDKey ctxKey = iota
	sessionIDKey
	jobIDKey
)

// correlation lists the context values copied onto loggers, in field order.
var correlation = [...]struct {
	key   ctxKey
	field string
}{
	{requestIDKey, FieldRequestID},
	{sessionIDKey, FieldSessionID},
	{jobIDKey, FieldJobID},
}

func withValue(ctx context.Context, key ctxKey, id string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, key, id)
}

func stringFromContext(ctx context.Context, key ctxKey) string {
	if ctx == nil {
		return ""
	}
	v, _ := ctx.Value(key).(string)
	return v
}

// ContextWithRequestID tags ctx with the HTTP request ID.
func ContextWithRequestID(ctx context.Context, id string) context.Context {
	return withValue(ctx, requestIDKey, id)
}

// ContextWithSessionID tags ctx with an upload session ID.
func ContextWithSessionID(ctx context.Context, id string) context.Context {
	return withValue(ctx, sessionIDKey, id)
}

// ContextWithJobID tags ctx with a backend job ID.
func ContextWithJobID(ctx context.Context, id string) context.Context {
	return withValue(ctx, jobIDKey, id)
}

func RequestIDFromContext(ctx context.Context) string { return stringFromContext(ctx, requestIDKey) }
func SessionIDFromContext(ctx context.Context) string { return stringFromContext(ctx, sessionIDKey) }
func JobIDFromContext(ctx context.Context) string     { return stringFromContext(ctx, jobIDKey) }

// WithContext adds the correlation IDs found in ctx to logger. The logger is
// returned as is when ctx carries none.
func WithContext(ctx context.Context, logger zerolog.Logger) zerolog.Logger {
	if ctx == nil {
		return logger
	}
	var (
		builder zerolog.Context
		added   bool
	)
	for _, c := range correlation {
		v := stringFromContext(ctx, c.key)
		if v == "" {
			continue
		}
		if !added {
			builder = logger.With()
			added = true
		}
		builder = builder.Str(c.field, v)
	}
	if !added {
		return logger
	}
	return builder.Logger()
}

// WithComponentFromContext is WithContext applied to a component logger.
func WithComponentFromContext(ctx context.Context, component string) zerolog.Logger {
	return WithContext(ctx, WithComponent(component))
}
