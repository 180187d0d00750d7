package logger

import (
	"context"

	"go.uber.org/zap"
)

type fieldsKey struct{}

// requestFields are the per-request values every log line carries.
type requestFields struct {
	requestID string
	userID    string
}

func fieldsFrom(ctx context.Context) requestFields {
	f, _ := ctx.Value(fieldsKey{}).(requestFields)
	return f
}

func WithRequestID(ctx context.Context, requestID string) context.Context {
	f := fieldsFrom(ctx)
	f.requestID = requestID
	return context.WithValue(ctx, fieldsKey{}, f)
}

// WithUserID tags later log lines of the request with the acting user.
func WithUserID(ctx context.Context, userID string) context.Context {
	f := fieldsFrom(ctx)
	f.userID = userID
	return context.WithValue(ctx, fieldsKey{}, f)
}

func RequestIDFrom(ctx context.Context) string {
	return fieldsFrom(ctx).requestID
}

// FromCtx returns the global logger with request_id and user_id attached
// when the context has them.
func FromCtx(ctx context.Context) *zap.Logger {
	f := fieldsFrom(ctx)

	fields := make([]zap.Field, 0, 2)
	if f.requestID != "" {
		fields = append(fields, zap.String("request_id", f.requestID))
	}
	if f.userID != "" {
		fields = append(fields, zap.String("user_id", f.userID))
	}
	if len(fields) == 0 {
		return L()
	}
	return L().With(fields...)
}
