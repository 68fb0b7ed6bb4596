package middleware

import (
	"fmt"
	"log/slog"
	"runtime/debug"

	"github.com/m3rciful/coursebot/core/logger"
	tghelpers "github.com/m3rciful/coursebot/core/telegram/helpers"

	tele "gopkg.in/telebot.v4"
)

// Recover logs and swallows a handler panic so one bad update
// cannot stop the poller.
func Recover(next tele.HandlerFunc) tele.HandlerFunc {
	return func(c tele.Context) error {
		defer func() {
			r := recover()
			if r == nil {
				return
			}
			logger.Error(tghelpers.BuildContext(c), "tg", "handler.panic",
				slog.String("status", "fail"),
				slog.String("err", fmt.Sprint(r)),
				slog.String("stack", string(debug.Stack())),
			)
		}()
		return next(c)
	}
}
