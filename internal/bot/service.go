// Package bot binds the course catalog, ingestion gate, broadcaster and user
// registry to Telegram updates.
package bot

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/m3rciful/coursebot/core/logger"
	tg "github.com/m3rciful/coursebot/core/telegram"
	"github.com/m3rciful/coursebot/core/telegram/commands"
	tghelpers "github.com/m3rciful/coursebot/core/telegram/helpers"
	"github.com/m3rciful/coursebot/core/telegram/keyboard"
	"github.com/m3rciful/coursebot/core/telegram/state"
	"github.com/m3rciful/coursebot/internal/broadcast"
	"github.com/m3rciful/coursebot/internal/catalog"
	"github.com/m3rciful/coursebot/internal/delivery"
	"github.com/m3rciful/coursebot/internal/ingest"
	"github.com/m3rciful/coursebot/internal/menu"
	"github.com/m3rciful/coursebot/internal/nav"
	"github.com/m3rciful/coursebot/internal/users"

	tele "gopkg.in/telebot.v4"
)

// Settings are the bot-level knobs taken from configuration.
type Settings struct {
	AdminID          int64
	WelcomeText      string
	BroadcastKeyword string

	// BroadcastPerSecond caps broadcast sends; 0 sends as fast as Telegram answers.
	BroadcastPerSecond float64
}

// Service holds the stores and renders every interaction.
type Service struct {
	settings  Settings
	catalog   *catalog.Store
	users     *users.Registry
	sessions  state.Manager
	gate      *ingest.Gate
	broadcast *broadcast.Dispatcher
	menu      *menu.Menu
	transport delivery.Transport
}

// New wires the service and registers the capture step on sessions.
func New(settings Settings, store *catalog.Store, reg *users.Registry, sessions state.Manager, transport delivery.Transport) *Service {
	if strings.TrimSpace(settings.WelcomeText) == "" {
		settings.WelcomeText = menu.DefaultWelcome
	}
	gate := ingest.NewGate(settings.AdminID, store, sessions)
	caster := broadcast.NewDispatcher(settings.BroadcastKeyword, gate, reg, transport)
	caster.SetRate(settings.BroadcastPerSecond)
	s := &Service{
		settings:  settings,
		catalog:   store,
		users:     reg,
		sessions:  sessions,
		gate:      gate,
		broadcast: caster,
		menu:      menu.New(store),
		transport: transport,
	}
	sessions.Handle(ingest.StateAwaitingContent, s.handleCapture)
	return s
}

// Gate exposes the ingestion gate.
func (s *Service) Gate() *ingest.Gate { return s.gate }

// Register adds the commands and navigation callbacks to reg.
func (s *Service) Register(reg *tg.Registry) error {
	for name, cmd := range map[string]commands.Command{
		"/start": {Handler: s.handleStart, Description: "القائمة الرئيسية"},
		"/admin": {Handler: s.handleAdmin, Description: "لوحة المشرف", AdminOnly: true},
		"/users": {Handler: s.handleUsers, Description: "تصدير المستخدمين", AdminOnly: true},
	} {
		if err := reg.RegisterCommand(name, cmd); err != nil {
			return err
		}
	}

	for _, cb := range []struct {
		action nav.Action
		run    navHandler
	}{
		{nav.ActionHome, s.navHome},
		{nav.ActionSubject, s.navTopics},
		{nav.ActionBack, s.navTopics},
		{nav.ActionTopic, s.navSlots},
		{nav.ActionShow, s.navShow},
		{nav.ActionPush, s.navPush},
		{nav.ActionAddLecture, s.navAddLecture},
		{nav.ActionAdminUsers, s.navAdminUsers},
	} {
		if err := reg.RegisterCallback(string(cb.action), s.onNav(cb.action, cb.run)); err != nil {
			return err
		}
	}
	reg.SetCallbackNotFound(s.UnknownCallback())
	return nil
}

// RejectAdminCommand answers non-admins who call an admin command.
func (s *Service) RejectAdminCommand(c tele.Context) error {
	return tghelpers.SendText(c, menu.TextAdminOnlyCmd)
}

// UnknownText handles text that matched no command: the broadcast keyword
// from the admin, silence otherwise.
func (s *Service) UnknownText() tele.HandlerFunc {
	return s.handleText
}

// UnknownMedia handles content sent outside an ingestion step.
func (s *Service) UnknownMedia() tele.HandlerFunc {
	return func(c tele.Context) error {
		logger.Debug(tghelpers.BuildContext(c), "tg", "media.ignored",
			slog.String("status", "skip"),
		)
		return nil
	}
}

// UnknownCallback answers buttons whose action is not registered.
func (s *Service) UnknownCallback() tele.HandlerFunc {
	return func(c tele.Context) error {
		return tghelpers.SendText(c, menu.TextUnknownAction)
	}
}

func (s *Service) isAdmin(c tele.Context) bool {
	u := c.Sender()
	return u != nil && s.gate.IsAdmin(u.ID)
}

func (s *Service) handleStart(c tele.Context) error {
	ctx := tghelpers.WithHandler(c, "start")
	if u := c.Sender(); u != nil {
		rec, created, err := s.users.RecordVisit(ctx, u.ID, displayName(u), u.Username)
		if err != nil {
			logger.Warn(ctx, "service.users", "visit.record_failed",
				slog.String("status", "fail"),
				slog.String("err", err.Error()),
			)
		} else if created {
			s.notifyAdmin(ctx, rec)
		}
	}

	if err := tghelpers.SendText(c, s.settings.WelcomeText, &tele.SendOptions{ReplyMarkup: menu.ContactKeyboard()}); err != nil {
		return err
	}
	home := s.menu.Home()
	return tghelpers.SendText(c, home.Text, &tele.SendOptions{ReplyMarkup: home.Markup})
}

func (s *Service) notifyAdmin(ctx context.Context, u users.User) {
	if s.settings.AdminID == 0 {
		return
	}
	text := menu.NewUserNotice(u.Name, u.Username, u.ID, u.Phone, s.users.Count())
	if err := s.transport.SendText(ctx, s.settings.AdminID, text); err != nil {
		logger.Warn(ctx, "service.users", "admin.notify_failed",
			slog.String("status", "fail"),
			slog.Int64("user_id", u.ID),
			slog.String("err", err.Error()),
		)
	}
}

// HandleContact stores the phone number the user shared about themselves.
func (s *Service) HandleContact(c tele.Context) error {
	ctx := tghelpers.WithHandler(c, "contact")
	msg, u := c.Message(), c.Sender()
	if msg == nil || msg.Contact == nil || u == nil {
		return nil
	}
	if msg.Contact.UserID != 0 && msg.Contact.UserID != u.ID {
		logger.Info(ctx, "service.users", "phone.foreign_contact",
			slog.String("status", "skip"),
			slog.Int64("user_id", u.ID),
		)
		return nil
	}
	if _, err := s.users.RecordPhone(ctx, u.ID, msg.Contact.PhoneNumber); err != nil {
		logger.Error(ctx, "service.users", "phone.record_failed",
			slog.String("status", "fail"),
			slog.String("err", err.Error()),
		)
		return tghelpers.SendText(c, menu.TextSaveFailed)
	}
	return tghelpers.SendText(c, menu.TextPhoneSaved, &tele.SendOptions{ReplyMarkup: keyboard.RemoveKeyboard()})
}

func (s *Service) handleAdmin(c tele.Context) error {
	if !s.isAdmin(c) {
		return s.RejectAdminCommand(c)
	}
	v := s.menu.AdminPanel()
	return tghelpers.SendText(c, v.Text, &tele.SendOptions{ReplyMarkup: v.Markup})
}

func (s *Service) handleUsers(c tele.Context) error {
	if !s.isAdmin(c) {
		return s.RejectAdminCommand(c)
	}
	return s.exportUsers(tghelpers.WithHandler(c, "users.export"), c)
}

func (s *Service) exportUsers(ctx context.Context, c tele.Context) error {
	if err := c.Send(menu.TextPreparingUsers); err != nil {
		return err
	}
	count := s.users.Count()
	doc := &tele.Document{
		File:     tele.FromReader(bytes.NewReader(s.users.Export())),
		FileName: menu.UsersFileName,
		MIME:     "text/csv",
		Caption:  menu.UsersCaption(count),
	}
	if err := c.Send(doc); err != nil {
		return err
	}
	logger.Info(ctx, "service.users", "users.exported",
		slog.String("status", "ok"),
		slog.Int("users", count),
	)
	return nil
}

func (s *Service) handleCapture(c tele.Context) error {
	ctx := tghelpers.WithHandler(c, "ingest.capture")
	got, err := s.gate.Capture(ctx, c.Sender().ID, c.Message())
	switch {
	case err == nil:
		return tghelpers.SendText(c, menu.Captured(got.Ref, s.broadcast.Keyword()))
	case errors.Is(err, ingest.ErrNotArmed):
		return nil
	case errors.Is(err, ingest.ErrUnsupportedContent):
		return tghelpers.SendText(c, menu.TextUnsupported)
	}
	logger.Error(ctx, "service.ingest", "ingest.store_failed",
		slog.String("status", "fail"),
		slog.String("err", err.Error()),
	)
	return tghelpers.SendText(c, menu.TextSaveFailed)
}

func (s *Service) handleText(c tele.Context) error {
	if !s.broadcast.IsTrigger(c.Text()) {
		return nil
	}
	ctx := tghelpers.WithHandler(c, "broadcast")
	rep, err := s.broadcast.Trigger(ctx, c.Sender().ID)
	switch {
	case errors.Is(err, broadcast.ErrUnauthorized):
		return nil
	case errors.Is(err, broadcast.ErrNothingToBroadcast):
		return tghelpers.SendText(c, menu.TextNothingToSend)
	case err != nil:
		return err
	}
	return tghelpers.SendText(c, menu.BroadcastDone(rep.Sent))
}

func displayName(u *tele.User) string {
	name := strings.TrimSpace(u.FirstName + " " + u.LastName)
	if name == "" {
		name = u.Username
	}
	return name
}
