package application

import "context"

type ctxKey int

const requestIDKey ctxKey = iota

// WithRequestID attaches the inbound request id so it can ride along as the
// trace id on emitted events.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	if requestID == "" {
		return ctx
	}
	return context.WithValue(ctx, requestIDKey, requestID)
}

func requestTrace(ctx context.Context) string {
	if v, ok := ctx.Value(requestIDKey).(string); ok {
		return v
	}
	return ""
}

// RequestIDFromContext exposes the request id to transport layers for
// response headers and access logs.
func RequestIDFromContext(ctx context.Context) string {
	return requestTrace(ctx)
}
