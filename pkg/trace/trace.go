package trace

import (
	"context"

	"github.com/google/uuid"
)

type ctxKey string

const TraceIDKey ctxKey = "trace_id"

// WithTraceID stores id on ctx, generating one when id is empty.
func WithTraceID(ctx context.Context, id string) context.Context {
	if id == "" {
		id = uuid.NewString()
	}
	return context.WithValue(ctx, TraceIDKey, id)
}

func TraceIDFromContext(ctx context.Context) string {
	if v := ctx.Value(TraceIDKey); v != nil {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}
