// Package ingest implements the admin flow that captures one message into
// a content slot.
//
// Per admin the session moves between two states:
//
//	idle ──Begin(slot)──▶ awaiting_content ──Capture ok──▶ idle (+ last captured)
//	                            │
//	                            └──Capture unsupported──▶ awaiting_content
//
// The last captured item survives later captures until replaced and is
// what the broadcast keyword resends.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/m3rciful/coursebot/core/logger"
	"github.com/m3rciful/coursebot/core/telegram/state"
	"github.com/m3rciful/coursebot/internal/catalog"

	tele "gopkg.in/telebot.v4"
)

// StateAwaitingContent is the FSM step while the next admin message is captured.
const StateAwaitingContent state.State = "ingest.awaiting_content"

const (
	keyTarget = "ingest.target"
	keyLast   = "ingest.last_captured"
)

var (
	// ErrUnauthorized is returned when a non-admin tries to start ingestion.
	ErrUnauthorized = errors.New("ingest: admin only")
	// ErrNotArmed is returned when no slot is waiting for content.
	ErrNotArmed = errors.New("ingest: no slot awaiting content")
	// ErrUnsupportedContent is returned for messages that map to no item kind.
	ErrUnsupportedContent = errors.New("ingest: unsupported message type")
)

// Captured points at the most recently stored item.
type Captured struct {
	Ref      catalog.SlotRef
	Item     catalog.Item
	Position int
}

// Gate guards ingestion behind the admin identity.
type Gate struct {
	adminID  int64
	store    *catalog.Store
	sessions state.Manager
}

// NewGate wires a gate to the content store and the session manager.
func NewGate(adminID int64, store *catalog.Store, sessions state.Manager) *Gate {
	return &Gate{adminID: adminID, store: store, sessions: sessions}
}

// IsAdmin reports whether id is the configured administrator.
func (g *Gate) IsAdmin(id int64) bool {
	return g.adminID != 0 && id == g.adminID
}

// Begin arms capture of the admin's next message into ref.
func (g *Gate) Begin(ctx context.Context, actor int64, ref catalog.SlotRef) error {
	if !g.IsAdmin(actor) {
		logger.Warn(ctx, "service.ingest", "ingest.denied",
			slog.String("status", "skip"),
			slog.Int64("user_id", actor),
		)
		return ErrUnauthorized
	}
	if _, err := g.store.Items(ref); err != nil {
		return err
	}
	g.sessions.SetTemp(actor, keyTarget, ref)
	g.sessions.SetState(actor, StateAwaitingContent)
	logger.Info(ctx, "service.ingest", "ingest.armed",
		slog.String("status", "ok"),
		slog.String("subject", ref.Subject),
		slog.String("topic", ref.Topic),
		slog.String("slot", string(ref.Kind)),
		slog.String("lecture", ref.Lecture),
	)
	return nil
}

// Pending returns the slot awaiting content, if any.
func (g *Gate) Pending(actor int64) (catalog.SlotRef, bool) {
	if g.sessions.GetState(actor) != StateAwaitingContent {
		return catalog.SlotRef{}, false
	}
	return state.Temp[catalog.SlotRef](g.sessions, actor, keyTarget)
}

// Capture stores msg into the pending slot. Without a pending slot it does
// nothing and returns ErrNotArmed. Unclassifiable messages return
// ErrUnsupportedContent and keep the slot pending so the admin can retry.
func (g *Gate) Capture(ctx context.Context, actor int64, msg *tele.Message) (Captured, error) {
	ref, ok := g.Pending(actor)
	if !ok || !g.IsAdmin(actor) {
		return Captured{}, ErrNotArmed
	}
	item, ok := Classify(msg)
	if !ok {
		logger.Info(ctx, "service.ingest", "ingest.unsupported",
			slog.String("status", "skip"),
			slog.Int64("user_id", actor),
		)
		return Captured{}, ErrUnsupportedContent
	}
	pos, err := g.store.Append(ctx, ref, item)
	if err != nil {
		return Captured{}, fmt.Errorf("ingest: store item: %w", err)
	}
	got := Captured{Ref: ref, Item: item, Position: pos}
	g.sessions.ClearTemp(actor, keyTarget)
	g.sessions.ClearState(actor)
	g.sessions.SetTemp(actor, keyLast, got)
	logger.Info(ctx, "service.ingest", "ingest.captured",
		slog.String("status", "ok"),
		slog.String("kind", string(item.Kind)),
		slog.String("subject", ref.Subject),
		slog.String("topic", ref.Topic),
		slog.String("slot", string(ref.Kind)),
		slog.String("lecture", ref.Lecture),
	)
	return got, nil
}

// LastCaptured returns the admin's most recently captured item.
func (g *Gate) LastCaptured(actor int64) (Captured, bool) {
	return state.Temp[Captured](g.sessions, actor, keyLast)
}

// Classify maps a message to an item. The probe order is fixed: plain text
// (no entities, not sent via a bot), then photo, document, video, audio and
// voice. The first match wins.
func Classify(msg *tele.Message) (catalog.Item, bool) {
	if msg == nil {
		return catalog.Item{}, false
	}
	switch {
	case msg.Text != "" && msg.Via == nil && len(msg.Entities) == 0:
		return catalog.TextItem(msg.Text), true
	case msg.Photo != nil && msg.Photo.FileID != "":
		return catalog.MediaItem(catalog.KindPhoto, msg.Photo.FileID, msg.Caption), true
	case msg.Document != nil && msg.Document.FileID != "":
		return catalog.MediaItem(catalog.KindDocument, msg.Document.FileID, msg.Caption), true
	case msg.Video != nil && msg.Video.FileID != "":
		return catalog.MediaItem(catalog.KindVideo, msg.Video.FileID, msg.Caption), true
	case msg.Audio != nil && msg.Audio.FileID != "":
		return catalog.MediaItem(catalog.KindAudio, msg.Audio.FileID, msg.Caption), true
	case msg.Voice != nil && msg.Voice.FileID != "":
		return catalog.MediaItem(catalog.KindVoice, msg.Voice.FileID, msg.Caption), true
	}
	return catalog.Item{}, false
}
