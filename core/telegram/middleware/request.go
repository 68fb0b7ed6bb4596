package middleware

import (
	"log/slog"

	"github.com/m3rciful/coursebot/core/logger"
	"github.com/m3rciful/coursebot/core/telegram/callbacks"
	tghelpers "github.com/m3rciful/coursebot/core/telegram/helpers"

	tele "gopkg.in/telebot.v4"
)

const receivedKey = "update_logged"

// Correlate attaches the request context (rid, update, user and chat ids)
// to c and writes a sampled debug line for the incoming update. Applying it
// twice to the same update logs once.
func Correlate(next tele.HandlerFunc) tele.HandlerFunc {
	return func(c tele.Context) error {
		ctx := tghelpers.BuildContext(c)
		if c.Get(receivedKey) != nil || !logger.ShouldSampleDebug() {
			return next(c)
		}
		c.Set(receivedKey, true)

		attrs := []slog.Attr{slog.String("status", "ok")}
		if chat := c.Chat(); chat != nil {
			attrs = append(attrs, slog.String("chat_type", string(chat.Type)))
		}
		if u := c.Sender(); u != nil && u.Username != "" {
			attrs = append(attrs, slog.String("username", logger.SanitizeLimit(u.Username, 64)))
		}
		if cb := c.Callback(); cb != nil {
			unique, payload := callbacks.ParseCallbackData(cb)
			attrs = append(attrs,
				slog.String("kind", "callback:"+logger.SanitizeLimit(unique, 64)),
				slog.String("payload", logger.SanitizeLimit(payload, 128)),
			)
		} else if text := c.Text(); text != "" {
			attrs = append(attrs,
				slog.String("kind", "text"),
				slog.String("payload", logger.SanitizeLimit(text, 128)),
			)
		}
		logger.Debug(ctx, "tg", "update.received", attrs...)
		return next(c)
	}
}
