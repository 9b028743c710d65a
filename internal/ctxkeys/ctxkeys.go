// Package ctxkeys defines the context keys the engine attaches to requests
// before dispatch, so processors and probes can correlate their own logs and
// backend calls with the originating request.
package ctxkeys

import "context"

type contextKey string

const (
	requestIDKey contextKey = "request_id"
	modelIDKey   contextKey = "model_id"
)

// WithRequestID attaches the request ID.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey, id)
}

// RequestID returns the request ID attached by the engine.
func RequestID(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(requestIDKey).(string)
	if !ok || v == "" {
		return "", false
	}
	return v, true
}

// WithModelID attaches the model the request targets.
func WithModelID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, modelIDKey, id)
}

// ModelID returns the model ID attached by the engine.
func ModelID(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(modelIDKey).(string)
	if !ok || v == "" {
		return "", false
	}
	return v, true
}
