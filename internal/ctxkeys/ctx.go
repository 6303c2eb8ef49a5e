package ctxkeys

import (
	"context"
)

// contextKey is a type for context keys to avoid collisions
type contextKey string

const (
	AttemptIDKey contextKey = "attempt_id"
	ContentIDKey contextKey = "content_id"
	RequestIDKey contextKey = "request_id"
)

func AttemptID(ctx context.Context) string {
	id, _ := ctx.Value(AttemptIDKey).(string)
	return id
}

func WithAttemptID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, AttemptIDKey, id)
}

func ContentID(ctx context.Context) string {
	id, _ := ctx.Value(ContentIDKey).(string)
	return id
}

func WithContentID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ContentIDKey, id)
}

func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(RequestIDKey).(string)
	return id
}

func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, RequestIDKey, id)
}
