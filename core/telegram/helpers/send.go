// Package helpers carries the per-update request context and the reply
// helpers handlers use.
package helpers

import (
	"errors"
	"log/slog"
	"sync/atomic"

	"github.com/m3rciful/coursebot/core/logger"
	"github.com/m3rciful/coursebot/core/telegram/sender"

	tele "gopkg.in/telebot.v4"
)

var dispatcher atomic.Pointer[sender.Dispatcher]

// SetDispatcher routes SendText through d. Nil sends inline.
func SetDispatcher(d *sender.Dispatcher) {
	dispatcher.Store(d)
}

// SendText replies to the current chat with plain text. With a dispatcher
// set the send is queued; a full or closed queue falls back to sending
// inline.
func SendText(c tele.Context, text string, opts ...*tele.SendOptions) error {
	send := func() error {
		if len(opts) > 0 && opts[0] != nil {
			return c.Send(text, opts[0])
		}
		return c.Send(text)
	}
	d := dispatcher.Load()
	if d == nil {
		return send()
	}

	ctx := BuildContext(c)
	err := d.Enqueue(ctx, "send.text", "sendMessage", send)
	if errors.Is(err, sender.ErrQueueFull) || errors.Is(err, sender.ErrQueueClosed) {
		logger.Warn(ctx, "tg.sender", "queue.fallback", slog.String("err", err.Error()))
		return send()
	}
	return err
}

// EditMD replaces the text of the message behind the pressed button,
// parsed as Markdown.
func EditMD(c tele.Context, text string, markup ...*tele.ReplyMarkup) error {
	opts := &tele.SendOptions{ParseMode: tele.ModeMarkdown}
	if len(markup) > 0 {
		opts.ReplyMarkup = markup[0]
	}
	return c.Edit(text, opts)
}
