// Package router turns the registry and fallbacks into telebot routes.
// Every route logs one handler.handled line per update.
package router

import (
	"log/slog"
	"time"

	"github.com/m3rciful/coursebot/core/logger"
	tghelpers "github.com/m3rciful/coursebot/core/telegram/helpers"
	"github.com/m3rciful/coursebot/core/telegram/middleware"

	tele "gopkg.in/telebot.v4"
)

// handled runs fn under the handler name and logs its outcome.
func handled(c tele.Context, name string, fn tele.HandlerFunc, extra ...slog.Attr) error {
	start := time.Now()
	ctx := tghelpers.WithHandler(c, name)
	err := fn(c)

	replies := middleware.RepliesOf(c)
	attrs := append([]slog.Attr{
		slog.String("status", statusOf(err)),
		slog.Int("messages", replies.Messages),
		slog.Bool("kb", replies.Keyboard),
		slog.Duration("duration", time.Since(start)),
	}, extra...)
	if err != nil {
		attrs = append(attrs, slog.String("err", logger.SanitizeLimit(err.Error(), 256)))
	}
	logger.Info(ctx, "tg", "handler.handled", attrs...)
	return err
}

func statusOf(err error) string {
	if err != nil {
		return "fail"
	}
	return "ok"
}

// skipped logs an update that no handler took.
func skipped(c tele.Context, name string) error {
	logger.Info(tghelpers.WithHandler(c, name), "tg", "handler.handled",
		slog.String("status", "skip"),
	)
	return nil
}
