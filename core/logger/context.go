package logger

import (
	"context"
	"log/slog"
)

type ctxKey int

const (
	keyLogger ctxKey = iota
	keyRID
	keyHandler
	keyUpdate
)

// updateMeta identifies the Telegram update being handled.
type updateMeta struct {
	updateID int
	userID   int64
	chatID   int64
}

func with(ctx context.Context, k ctxKey, v any) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, k, v)
}

func value[T any](ctx context.Context, k ctxKey) T {
	var zero T
	if ctx == nil {
		return zero
	}
	v, _ := ctx.Value(k).(T)
	return v
}

// WithLogger stores log in ctx for use by LogEvent.
func WithLogger(ctx context.Context, log *slog.Logger) context.Context {
	if log == nil {
		return with(ctx, keyLogger, L)
	}
	return with(ctx, keyLogger, log)
}

// FromContext returns the logger stored in ctx, or L.
func FromContext(ctx context.Context) *slog.Logger {
	if l := value[*slog.Logger](ctx, keyLogger); l != nil {
		return l
	}
	return L
}

// WithRID attaches the correlation id of the current update.
func WithRID(ctx context.Context, rid string) context.Context {
	return with(ctx, keyRID, rid)
}

// RIDFrom returns the correlation id, if any.
func RIDFrom(ctx context.Context) string { return value[string](ctx, keyRID) }

// WithHandler names the handler serving the update.
func WithHandler(ctx context.Context, name string) context.Context {
	if name == "" {
		return with(ctx, keyHandler, HandlerFrom(ctx))
	}
	return with(ctx, keyHandler, name)
}

// HandlerFrom returns the handler name, if any.
func HandlerFrom(ctx context.Context) string { return value[string](ctx, keyHandler) }

// WithUpdateMeta attaches the update, user and chat identifiers.
func WithUpdateMeta(ctx context.Context, updateID int, userID, chatID int64) context.Context {
	return with(ctx, keyUpdate, updateMeta{updateID: updateID, userID: userID, chatID: chatID})
}

// UpdateIDFrom returns the update id, or 0.
func UpdateIDFrom(ctx context.Context) int { return value[updateMeta](ctx, keyUpdate).updateID }

// UserIDFrom returns the sender id, or 0.
func UserIDFrom(ctx context.Context) int64 { return value[updateMeta](ctx, keyUpdate).userID }

// ChatIDFrom returns the chat id, or 0.
func ChatIDFrom(ctx context.Context) int64 { return value[updateMeta](ctx, keyUpdate).chatID }
