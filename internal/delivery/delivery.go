// Package delivery sends catalog items to chats through the transport's
// kind-specific send operations.
package delivery

import (
	"context"
	"fmt"

	"github.com/m3rciful/coursebot/internal/catalog"
)

// Transport is the outbound side of the chat platform.
type Transport interface {
	SendText(ctx context.Context, chatID int64, text string) error
	SendPhoto(ctx context.Context, chatID int64, fileID, caption string) error
	SendDocument(ctx context.Context, chatID int64, fileID, caption string) error
	SendVideo(ctx context.Context, chatID int64, fileID, caption string) error
	SendAudio(ctx context.Context, chatID int64, fileID, caption string) error
	SendVoice(ctx context.Context, chatID int64, fileID, caption string) error
}

// Result is the outcome of one send.
type Result struct {
	ChatID int64
	Item   catalog.Item
	Err    error
}

// OK reports whether the send succeeded.
func (r Result) OK() bool { return r.Err == nil }

// Deliver sends a single item, picking the send operation from its kind.
func Deliver(ctx context.Context, t Transport, chatID int64, item catalog.Item) Result {
	return Result{ChatID: chatID, Item: item, Err: send(ctx, t, chatID, item)}
}

// DeliverAll sends items in order. A failed item does not stop the rest;
// onFail, when set, runs right after the failed send and before the next item.
func DeliverAll(ctx context.Context, t Transport, chatID int64, items []catalog.Item, onFail func(Result)) []Result {
	out := make([]Result, 0, len(items))
	for _, it := range items {
		res := Deliver(ctx, t, chatID, it)
		out = append(out, res)
		if !res.OK() && onFail != nil {
			onFail(res)
		}
	}
	return out
}

// Summary counts successes and failures.
func Summary(results []Result) (ok, failed int) {
	for _, r := range results {
		if r.OK() {
			ok++
		} else {
			failed++
		}
	}
	return ok, failed
}

func send(ctx context.Context, t Transport, chatID int64, it catalog.Item) error {
	if err := it.Validate(); err != nil {
		return err
	}
	switch it.Kind {
	case catalog.KindText:
		return t.SendText(ctx, chatID, it.Text)
	case catalog.KindPhoto:
		return t.SendPhoto(ctx, chatID, it.FileID, it.Caption)
	case catalog.KindDocument:
		return t.SendDocument(ctx, chatID, it.FileID, it.Caption)
	case catalog.KindVideo:
		return t.SendVideo(ctx, chatID, it.FileID, it.Caption)
	case catalog.KindAudio:
		return t.SendAudio(ctx, chatID, it.FileID, it.Caption)
	case catalog.KindVoice:
		return t.SendVoice(ctx, chatID, it.FileID, it.Caption)
	}
	return fmt.Errorf("delivery: unsupported kind %q", it.Kind)
}
