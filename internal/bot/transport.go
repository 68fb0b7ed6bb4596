package bot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/m3rciful/coursebot/core/logger"

	tele "gopkg.in/telebot.v4"
)

var errNotBound = errors.New("bot: transport is not bound to a bot")

// API is the part of *tele.Bot used to push messages to arbitrary chats.
type API interface {
	Send(to tele.Recipient, what interface{}, opts ...interface{}) (*tele.Message, error)
}

// Transport delivers items by Telegram file id. It is created before the bot
// exists and bound once the runtime has built it.
type Transport struct {
	api atomic.Pointer[API]
}

// NewTransport returns a transport, optionally bound to api.
func NewTransport(api API) *Transport {
	t := &Transport{}
	if api != nil {
		t.Bind(api)
	}
	return t
}

// Bind sets the bot used for sending.
func (t *Transport) Bind(api API) {
	t.api.Store(&api)
}

func (t *Transport) SendText(ctx context.Context, chatID int64, text string) error {
	return t.send(ctx, "sendMessage", chatID, text)
}

func (t *Transport) SendPhoto(ctx context.Context, chatID int64, fileID, caption string) error {
	return t.send(ctx, "sendPhoto", chatID, &tele.Photo{File: tele.File{FileID: fileID}, Caption: caption})
}

func (t *Transport) SendDocument(ctx context.Context, chatID int64, fileID, caption string) error {
	return t.send(ctx, "sendDocument", chatID, &tele.Document{File: tele.File{FileID: fileID}, Caption: caption})
}

func (t *Transport) SendVideo(ctx context.Context, chatID int64, fileID, caption string) error {
	return t.send(ctx, "sendVideo", chatID, &tele.Video{File: tele.File{FileID: fileID}, Caption: caption})
}

func (t *Transport) SendAudio(ctx context.Context, chatID int64, fileID, caption string) error {
	return t.send(ctx, "sendAudio", chatID, &tele.Audio{File: tele.File{FileID: fileID}, Caption: caption})
}

func (t *Transport) SendVoice(ctx context.Context, chatID int64, fileID, caption string) error {
	return t.send(ctx, "sendVoice", chatID, &tele.Voice{File: tele.File{FileID: fileID}, Caption: caption})
}

func (t *Transport) send(ctx context.Context, endpoint string, chatID int64, what interface{}) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	api := t.api.Load()
	if api == nil {
		return errNotBound
	}
	if _, err := (*api).Send(tele.ChatID(chatID), what); err != nil {
		logger.Debug(ctx, "tg.sender", "send.failed",
			slog.String("status", "fail"),
			slog.String("endpoint", endpoint),
			slog.Int64("chat_id", chatID),
			slog.String("err", logger.SanitizeLimit(err.Error(), 256)),
		)
		return fmt.Errorf("%s: %w", endpoint, err)
	}
	return nil
}
