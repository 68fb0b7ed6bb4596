package bot

import (
	"context"
	"errors"
	"strings"
	"testing"

	tg "github.com/m3rciful/coursebot/core/telegram"
	"github.com/m3rciful/coursebot/core/telegram/state"
	"github.com/m3rciful/coursebot/internal/broadcast"
	"github.com/m3rciful/coursebot/internal/catalog"
	"github.com/m3rciful/coursebot/internal/delivery/deliverytest"
	"github.com/m3rciful/coursebot/internal/menu"
	"github.com/m3rciful/coursebot/internal/nav"
	"github.com/m3rciful/coursebot/internal/users"

	tele "gopkg.in/telebot.v4"
)

const (
	adminID = int64(1)
	math    = "الرياضيات"
	stats   = "الإحصاء والاحتمالات"
)

type harness struct {
	svc      *Service
	reg      *tg.Registry
	store    *catalog.Store
	users    *users.Registry
	sessions state.Manager
	tr       *deliverytest.Transport
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	store, err := catalog.New(catalog.DefaultSeed(), catalog.Options{})
	if err != nil {
		t.Fatalf("store: %v", err)
	}
	h := &harness{
		reg:      tg.NewRegistry(),
		store:    store,
		users:    users.NewRegistry(nil),
		sessions: state.NewMemoryManager(),
		tr:       deliverytest.New(),
	}
	h.svc = New(Settings{AdminID: adminID}, h.store, h.users, h.sessions, h.tr)
	if err := h.svc.Register(h.reg); err != nil {
		t.Fatalf("register: %v", err)
	}
	return h
}

func (h *harness) press(t *testing.T, userID int64, tok nav.Token) *fakeContext {
	t.Helper()
	return h.callback(t, userID, string(tok.Action), tok.Payload())
}

func (h *harness) callback(t *testing.T, userID int64, unique, payload string) *fakeContext {
	t.Helper()
	fn, ok := h.reg.GetCallback(unique)
	if !ok {
		t.Fatalf("no callback %q", unique)
	}
	c := newCallbackContext(userID, unique, payload)
	if err := fn(c); err != nil {
		t.Fatalf("callback %s|%s: %v", unique, payload, err)
	}
	return c
}

func (h *harness) command(t *testing.T, userID int64, name string) *fakeContext {
	t.Helper()
	cmd, ok := h.reg.Command(name)
	if !ok {
		t.Fatalf("no command %q", name)
	}
	c := newMessageContext(userID, &tele.Message{Text: name})
	if err := cmd.Handler(c); err != nil {
		t.Fatalf("command %s: %v", name, err)
	}
	return c
}

// message routes like the text and media routes: active sessions first,
// then the unknown-text handler.
func (h *harness) message(t *testing.T, userID int64, msg *tele.Message) *fakeContext {
	t.Helper()
	c := newMessageContext(userID, msg)
	var err error
	if h.sessions.InProgress(userID) {
		err = h.sessions.ManagerHandler(c)
	} else {
		err = h.svc.UnknownText()(c)
	}
	if err != nil {
		t.Fatalf("message: %v", err)
	}
	return c
}

func TestStartWelcomesAndNotifiesAdminOnce(t *testing.T) {
	h := newHarness(t)

	c := h.command(t, 10, "/start")
	texts := c.sentTexts()
	if len(texts) != 2 || texts[0] != menu.DefaultWelcome || texts[1] != menu.TextChooseSubject {
		t.Fatalf("sent = %q", texts)
	}
	if m := markupOf(c.sent[0]); m == nil || len(m.ReplyKeyboard) != 1 {
		t.Fatalf("welcome should carry the contact keyboard, got %+v", m)
	}
	if m := markupOf(c.sent[1]); m == nil || len(m.InlineKeyboard) != len(catalog.DefaultSeed()) {
		t.Fatalf("home markup = %+v", m)
	}
	if h.users.Count() != 1 {
		t.Fatalf("count = %d", h.users.Count())
	}
	notices := h.tr.To(adminID)
	if len(notices) != 1 || !strings.Contains(notices[0].Text, "10") {
		t.Fatalf("admin notices = %+v", notices)
	}

	h.command(t, 10, "/start")
	if got := len(h.tr.To(adminID)); got != 1 {
		t.Fatalf("repeat visit notified admin again: %d notices", got)
	}
}

func TestAdminFirstVisitIsAnnouncedToo(t *testing.T) {
	h := newHarness(t)
	h.command(t, adminID, "/start")
	notices := h.tr.To(adminID)
	if len(notices) != 1 || !strings.Contains(notices[0].Text, "1") {
		t.Fatalf("admin notices = %+v", notices)
	}
	h.command(t, adminID, "/start")
	if got := len(h.tr.To(adminID)); got != 1 {
		t.Fatalf("repeat visit notified again: %d notices", got)
	}
}

func TestNavigationEditsViews(t *testing.T) {
	h := newHarness(t)

	c := h.press(t, 10, nav.Subject(2))
	if !strings.Contains(c.lastEdit(), math) {
		t.Fatalf("topics text = %q", c.lastEdit())
	}
	if rows := markupOf(c.edits[0]).InlineKeyboard; len(rows) != 3 {
		t.Fatalf("topic rows = %d, want 2 topics + home", len(rows))
	}

	c = h.press(t, 10, nav.Topic(2, 1))
	if rows := markupOf(c.edits[0]).InlineKeyboard; len(rows) != 3 {
		t.Fatalf("user slot rows = %d", len(rows))
	}
	c = h.press(t, adminID, nav.Topic(2, 1))
	if rows := markupOf(c.edits[0]).InlineKeyboard; len(rows) != 4 {
		t.Fatalf("admin slot rows = %d", len(rows))
	}

	c = h.press(t, 10, nav.Back(2))
	if rows := markupOf(c.edits[0]).InlineKeyboard; len(rows) != 3 {
		t.Fatalf("back rows = %d", len(rows))
	}
	c = h.press(t, 10, nav.Home())
	if c.lastEdit() != menu.TextChooseSubject {
		t.Fatalf("home text = %q", c.lastEdit())
	}
}

func TestShowEmptySlot(t *testing.T) {
	h := newHarness(t)
	h.press(t, 10, nav.Show(2, 1, nav.AssignmentsSlot()))
	sent := h.tr.To(10)
	if len(sent) != 1 || sent[0].Text != menu.EmptySlot(catalog.Assignments(math, stats)) {
		t.Fatalf("sent = %+v", sent)
	}
}

func TestAdminPushCaptureThenShow(t *testing.T) {
	h := newHarness(t)
	ref := catalog.Lecture(math, stats, h.store.DefaultLecture())

	c := h.press(t, adminID, nav.Push(2, 1, nav.LectureSlot(0)))
	if c.lastEdit() != menu.TextAwaitContent {
		t.Fatalf("prompt = %q", c.lastEdit())
	}
	if got, ok := h.svc.Gate().Pending(adminID); !ok || got != ref {
		t.Fatalf("pending = %+v, %v", got, ok)
	}

	c = h.message(t, adminID, &tele.Message{
		Document: &tele.Document{File: tele.File{FileID: "doc-1"}},
		Caption:  "slides",
	})
	if texts := c.sentTexts(); len(texts) != 1 || texts[0] != menu.Captured(ref, broadcast.DefaultKeyword) {
		t.Fatalf("confirmation = %q", texts)
	}
	if _, ok := h.svc.Gate().Pending(adminID); ok {
		t.Fatal("cursor should be cleared after capture")
	}

	h.press(t, 10, nav.Show(2, 1, nav.LectureSlot(0)))
	sent := h.tr.To(10)
	if len(sent) != 2 {
		t.Fatalf("sent = %+v", sent)
	}
	if sent[0].Text != menu.SlotHeading(ref) {
		t.Fatalf("heading = %q", sent[0].Text)
	}
	if sent[1].Op != "document" || sent[1].FileID != "doc-1" || sent[1].Caption != "slides" {
		t.Fatalf("item = %+v", sent[1])
	}
}

func TestPushedExerciseIsShownToUsers(t *testing.T) {
	h := newHarness(t)
	ref := catalog.Assignments(math, "الهياكل المقاطعة")

	h.press(t, adminID, nav.Push(2, 0, nav.AssignmentsSlot()))
	h.message(t, adminID, &tele.Message{Text: "تمرين 1"})
	c := h.message(t, adminID, &tele.Message{Text: "تمرين 2"})
	if len(c.sent) != 0 {
		t.Fatalf("second message got replies: %+v", c.sent)
	}
	if items, _ := h.store.Items(ref); len(items) != 1 || items[0].Kind != catalog.KindText || items[0].Text != "تمرين 1" {
		t.Fatalf("items = %+v", items)
	}

	h.press(t, 10, nav.Show(2, 0, nav.AssignmentsSlot()))
	sent := h.tr.To(10)
	if len(sent) != 2 || sent[0].Text != menu.SlotHeading(ref) || sent[1].Op != "text" || sent[1].Text != "تمرين 1" {
		t.Fatalf("user saw %+v", sent)
	}
}

func TestNonAdminButtonsAreDenied(t *testing.T) {
	h := newHarness(t)

	c := h.press(t, 10, nav.Push(0, 0, nav.AssignmentsSlot()))
	if c.lastEdit() != menu.TextAdminOnlyButton {
		t.Fatalf("push denial = %q", c.lastEdit())
	}
	if h.sessions.InProgress(10) {
		t.Fatal("non-admin must not be armed")
	}

	subject, _ := h.store.SubjectAt(0)
	c = h.press(t, 10, nav.AddLecture(0, 0))
	if c.lastEdit() != menu.TextAdminOnlyButton {
		t.Fatalf("add lecture denial = %q", c.lastEdit())
	}
	if lectures, _ := h.store.Lectures(subject, "عام"); len(lectures) != 1 {
		t.Fatalf("lectures = %v", lectures)
	}

	c = h.press(t, 10, nav.AdminUsers())
	if c.lastEdit() != menu.TextAdminOnlyButton || len(c.sent) != 0 {
		t.Fatalf("users denial edit=%q sent=%d", c.lastEdit(), len(c.sent))
	}
}

func TestAdminAddsLecture(t *testing.T) {
	h := newHarness(t)
	subject, _ := h.store.SubjectAt(0)

	c := h.press(t, adminID, nav.AddLecture(0, 0))
	want := menu.LectureAdded(subject, "عام", h.store.LecturePrefix()+" 2")
	if c.lastEdit() != want {
		t.Fatalf("confirmation = %q, want %q", c.lastEdit(), want)
	}
	if lectures, _ := h.store.Lectures(subject, "عام"); len(lectures) != 2 {
		t.Fatalf("lectures = %v", lectures)
	}
	if len(c.sent) != 1 {
		t.Fatalf("refresh messages = %d", len(c.sent))
	}
	if rows := markupOf(c.sent[0]).InlineKeyboard; len(rows) != 5 {
		t.Fatalf("refreshed rows = %d, want assignments + 2 lectures + add + nav", len(rows))
	}
}

func TestUnsupportedContentKeepsCursor(t *testing.T) {
	h := newHarness(t)
	h.press(t, adminID, nav.Push(0, 0, nav.AssignmentsSlot()))

	c := h.message(t, adminID, &tele.Message{Sticker: &tele.Sticker{File: tele.File{FileID: "st"}}})
	if texts := c.sentTexts(); len(texts) != 1 || texts[0] != menu.TextUnsupported {
		t.Fatalf("reply = %q", texts)
	}
	if _, ok := h.svc.Gate().Pending(adminID); !ok {
		t.Fatal("cursor should survive unsupported content")
	}
}

func TestShowReportsFailedItemInline(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	ref := catalog.Assignments(math, stats)
	for _, it := range []catalog.Item{
		catalog.MediaItem(catalog.KindDocument, "a", ""),
		catalog.MediaItem(catalog.KindDocument, "b", ""),
		catalog.TextItem("last"),
	} {
		if _, err := h.store.Append(ctx, ref, it); err != nil {
			t.Fatalf("append: %v", err)
		}
	}
	h.tr.FailFileID("b", errors.New("boom"))

	h.press(t, 10, nav.Show(2, 1, nav.AssignmentsSlot()))
	sent := h.tr.To(10)
	if len(sent) != 4 {
		t.Fatalf("sent = %+v", sent)
	}
	if sent[1].FileID != "a" || !strings.Contains(sent[2].Text, "boom") || sent[3].Text != "last" {
		t.Fatalf("order = %+v", sent)
	}
}

func TestBroadcastKeyword(t *testing.T) {
	h := newHarness(t)
	h.command(t, 10, "/start")
	h.command(t, 11, "/start")

	c := h.message(t, adminID, &tele.Message{Text: broadcast.DefaultKeyword})
	if texts := c.sentTexts(); len(texts) != 1 || texts[0] != menu.TextNothingToSend {
		t.Fatalf("reply = %q", texts)
	}

	h.press(t, adminID, nav.Push(0, 0, nav.AssignmentsSlot()))
	h.message(t, adminID, &tele.Message{Text: "hello"})

	c = h.message(t, 10, &tele.Message{Text: broadcast.DefaultKeyword})
	if len(c.sent) != 0 {
		t.Fatalf("non-admin keyword got replies: %+v", c.sent)
	}

	c = h.message(t, adminID, &tele.Message{Text: "  " + broadcast.DefaultKeyword + " "})
	if texts := c.sentTexts(); len(texts) != 1 || texts[0] != menu.BroadcastDone(2) {
		t.Fatalf("report = %q", texts)
	}
	for _, id := range []int64{10, 11} {
		got := h.tr.To(id)
		if len(got) != 1 || got[0].Text != "hello" {
			t.Fatalf("user %d got %+v", id, got)
		}
	}
}

func TestContactSavesOwnPhoneOnly(t *testing.T) {
	h := newHarness(t)
	h.command(t, 10, "/start")

	foreign := newMessageContext(10, &tele.Message{Contact: &tele.Contact{PhoneNumber: "+999", UserID: 77}})
	if err := h.svc.HandleContact(foreign); err != nil {
		t.Fatalf("contact: %v", err)
	}
	if u, _ := h.users.Get(10); u.Phone != "" {
		t.Fatalf("foreign contact stored: %q", u.Phone)
	}

	c := newMessageContext(10, &tele.Message{Contact: &tele.Contact{PhoneNumber: "+123", UserID: 10}})
	if err := h.svc.HandleContact(c); err != nil {
		t.Fatalf("contact: %v", err)
	}
	if u, _ := h.users.Get(10); u.Phone != "+123" {
		t.Fatalf("phone = %q", u.Phone)
	}
	if texts := c.sentTexts(); len(texts) != 1 || texts[0] != menu.TextPhoneSaved {
		t.Fatalf("reply = %q", texts)
	}
	if m := markupOf(c.sent[0]); m == nil || !m.RemoveKeyboard {
		t.Fatal("reply should remove the contact keyboard")
	}
}

func TestUsersExport(t *testing.T) {
	h := newHarness(t)
	h.command(t, 10, "/start")

	c := h.command(t, 10, "/users")
	if texts := c.sentTexts(); len(texts) != 1 || texts[0] != menu.TextAdminOnlyCmd {
		t.Fatalf("non-admin reply = %q", texts)
	}

	for _, c := range []*fakeContext{
		h.command(t, adminID, "/users"),
		h.press(t, adminID, nav.AdminUsers()),
	} {
		if len(c.sent) != 2 {
			t.Fatalf("sent = %+v", c.sent)
		}
		doc, ok := c.sent[1].What.(*tele.Document)
		if !ok {
			t.Fatalf("second message is %T", c.sent[1].What)
		}
		if doc.FileName != menu.UsersFileName || doc.Caption != menu.UsersCaption(1) {
			t.Fatalf("document = %+v", doc)
		}
	}
}

func TestAdminPanel(t *testing.T) {
	h := newHarness(t)
	c := h.command(t, 10, "/admin")
	if texts := c.sentTexts(); len(texts) != 1 || texts[0] != menu.TextAdminOnlyCmd {
		t.Fatalf("non-admin reply = %q", texts)
	}
	c = h.command(t, adminID, "/admin")
	if texts := c.sentTexts(); len(texts) != 1 || texts[0] != menu.TextAdminPanel {
		t.Fatalf("panel = %q", texts)
	}
}

func TestMalformedAndStaleCallbacks(t *testing.T) {
	h := newHarness(t)

	c := h.callback(t, 10, string(nav.ActionSubject), "x")
	if texts := c.sentTexts(); len(texts) != 1 || texts[0] != menu.TextUnknownAction {
		t.Fatalf("malformed reply = %q", texts)
	}
	for _, tok := range []nav.Token{
		nav.Subject(99),
		nav.Topic(0, 5),
		nav.Show(0, 0, nav.LectureSlot(5)),
	} {
		c := h.press(t, 10, tok)
		if texts := c.sentTexts(); len(texts) != 1 || texts[0] != menu.TextStale {
			t.Fatalf("%s: reply = %q", tok.Payload(), texts)
		}
	}
}

func TestUnknownCallbackFallback(t *testing.T) {
	h := newHarness(t)
	c := newCallbackContext(10, "nope", "")
	if err := h.reg.CallbackNotFound()(c); err != nil {
		t.Fatalf("fallback: %v", err)
	}
	if texts := c.sentTexts(); len(texts) != 1 || texts[0] != menu.TextUnknownAction {
		t.Fatalf("reply = %q", texts)
	}
}
