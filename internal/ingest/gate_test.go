package ingest

import (
	"context"
	"errors"
	"testing"

	"github.com/m3rciful/coursebot/core/telegram/state"
	"github.com/m3rciful/coursebot/internal/catalog"

	tele "gopkg.in/telebot.v4"
)

const adminID int64 = 5774252730

func newGate(t *testing.T) (*Gate, *catalog.Store) {
	t.Helper()
	store, err := catalog.New(catalog.DefaultSeed(), catalog.Options{})
	if err != nil {
		t.Fatalf("store: %v", err)
	}
	return NewGate(adminID, store, state.NewMemoryManager()), store
}

func TestClassifyPriority(t *testing.T) {
	photo := &tele.Photo{File: tele.File{FileID: "ph"}}
	doc := &tele.Document{File: tele.File{FileID: "doc"}}
	cases := []struct {
		name string
		msg  *tele.Message
		kind catalog.ItemKind
		ok   bool
	}{
		{"plain text", &tele.Message{Text: "تمرين 1"}, catalog.KindText, true},
		{"text with entities", &tele.Message{Text: "see https://x", Entities: tele.Entities{{Type: tele.EntityURL}}}, "", false},
		{"text via bot", &tele.Message{Text: "x", Via: &tele.User{ID: 1}}, "", false},
		{"photo", &tele.Message{Photo: photo, Caption: "c"}, catalog.KindPhoto, true},
		{"photo beats document", &tele.Message{Photo: photo, Document: doc}, catalog.KindPhoto, true},
		{"document", &tele.Message{Document: doc}, catalog.KindDocument, true},
		{"video", &tele.Message{Video: &tele.Video{File: tele.File{FileID: "v"}}}, catalog.KindVideo, true},
		{"audio", &tele.Message{Audio: &tele.Audio{File: tele.File{FileID: "a"}}}, catalog.KindAudio, true},
		{"voice", &tele.Message{Voice: &tele.Voice{File: tele.File{FileID: "vo"}}}, catalog.KindVoice, true},
		{"sticker", &tele.Message{Sticker: &tele.Sticker{File: tele.File{FileID: "s"}}}, "", false},
		{"nil", nil, "", false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			item, ok := Classify(tc.msg)
			if ok != tc.ok {
				t.Fatalf("ok = %v, want %v", ok, tc.ok)
			}
			if ok && item.Kind != tc.kind {
				t.Fatalf("kind = %s, want %s", item.Kind, tc.kind)
			}
		})
	}
	item, _ := Classify(&tele.Message{Photo: photo, Caption: "c"})
	if item.FileID != "ph" || item.Caption != "c" {
		t.Fatalf("photo item = %+v", item)
	}
}

func TestBeginRequiresAdmin(t *testing.T) {
	g, _ := newGate(t)
	ref := catalog.Assignments("الرياضيات", "الهياكل المقاطعة")
	if err := g.Begin(context.Background(), 42, ref); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("err = %v, want ErrUnauthorized", err)
	}
	if _, ok := g.Pending(42); ok {
		t.Fatal("non-admin must not get a pending slot")
	}
}

func TestBeginRejectsUnknownSlot(t *testing.T) {
	g, _ := newGate(t)
	err := g.Begin(context.Background(), adminID, catalog.Lecture("الرياضيات", "الهياكل المقاطعة", "nope"))
	if !errors.Is(err, catalog.ErrUnknownSlot) {
		t.Fatalf("err = %v", err)
	}
}

func TestCaptureWithoutCursorIsNoop(t *testing.T) {
	g, store := newGate(t)
	ref := catalog.Assignments("الرياضيات", "الهياكل المقاطعة")
	if _, err := g.Capture(context.Background(), adminID, &tele.Message{Text: "x"}); !errors.Is(err, ErrNotArmed) {
		t.Fatalf("err = %v, want ErrNotArmed", err)
	}
	if items, _ := store.Items(ref); len(items) != 0 {
		t.Fatalf("store changed: %v", items)
	}
	if _, ok := g.LastCaptured(adminID); ok {
		t.Fatal("nothing should be captured")
	}
}

func TestCaptureStoresOnceAndClearsCursor(t *testing.T) {
	g, store := newGate(t)
	ctx := context.Background()
	ref := catalog.Assignments("الرياضيات", "الهياكل المقاطعة")
	if err := g.Begin(ctx, adminID, ref); err != nil {
		t.Fatalf("begin: %v", err)
	}
	got, err := g.Capture(ctx, adminID, &tele.Message{Text: "تمرين 1"})
	if err != nil {
		t.Fatalf("capture: %v", err)
	}
	if got.Ref != ref || got.Item.Text != "تمرين 1" || got.Position != 1 {
		t.Fatalf("captured = %+v", got)
	}
	if _, err := g.Capture(ctx, adminID, &tele.Message{Text: "second"}); !errors.Is(err, ErrNotArmed) {
		t.Fatalf("second capture err = %v, want ErrNotArmed", err)
	}
	items, _ := store.Items(ref)
	if len(items) != 1 || items[0].Kind != catalog.KindText || items[0].Text != "تمرين 1" {
		t.Fatalf("items = %+v", items)
	}
	last, ok := g.LastCaptured(adminID)
	if !ok || last.Item.Text != "تمرين 1" {
		t.Fatalf("last = %+v, %v", last, ok)
	}
}

func TestUnsupportedKeepsCursor(t *testing.T) {
	g, store := newGate(t)
	ctx := context.Background()
	ref := catalog.Lecture("الرياضيات", "الهياكل المقاطعة", catalog.DefaultLecturePrefix+" 1")
	if err := g.Begin(ctx, adminID, ref); err != nil {
		t.Fatalf("begin: %v", err)
	}
	sticker := &tele.Message{Sticker: &tele.Sticker{File: tele.File{FileID: "s"}}}
	if _, err := g.Capture(ctx, adminID, sticker); !errors.Is(err, ErrUnsupportedContent) {
		t.Fatalf("err = %v, want ErrUnsupportedContent", err)
	}
	if pending, ok := g.Pending(adminID); !ok || pending != ref {
		t.Fatalf("pending = %+v, %v", pending, ok)
	}
	doc := &tele.Message{Document: &tele.Document{File: tele.File{FileID: "pdf"}}, Caption: "notes"}
	if _, err := g.Capture(ctx, adminID, doc); err != nil {
		t.Fatalf("retry capture: %v", err)
	}
	items, _ := store.Items(ref)
	if len(items) != 1 || items[0].Kind != catalog.KindDocument || items[0].Caption != "notes" {
		t.Fatalf("items = %+v", items)
	}
}
