package bot

import (
	"context"
	"errors"
	"log/slog"

	"github.com/m3rciful/coursebot/core/logger"
	"github.com/m3rciful/coursebot/core/telegram/callbacks"
	tghelpers "github.com/m3rciful/coursebot/core/telegram/helpers"
	"github.com/m3rciful/coursebot/internal/catalog"
	"github.com/m3rciful/coursebot/internal/delivery"
	"github.com/m3rciful/coursebot/internal/menu"
	"github.com/m3rciful/coursebot/internal/nav"

	tele "gopkg.in/telebot.v4"
)

type navHandler func(ctx context.Context, c tele.Context, tok nav.Token) error

// onNav decodes the button token and runs h. Tokens that no longer resolve
// against the catalog get the stale-menu notice.
func (s *Service) onNav(action nav.Action, h navHandler) tele.HandlerFunc {
	return func(c tele.Context) error {
		ctx := tghelpers.WithHandler(c, "nav."+string(action))
		tok, err := nav.Decode(callbacks.ParseCallbackData(c.Callback()))
		if err != nil {
			logger.Warn(ctx, "tg", "nav.malformed",
				slog.String("status", "fail"),
				slog.String("err", err.Error()),
			)
			return tghelpers.SendText(c, menu.TextUnknownAction)
		}
		err = h(ctx, c, tok)
		if isStale(err) {
			logger.Info(ctx, "tg", "nav.stale",
				slog.String("status", "skip"),
				slog.String("err", err.Error()),
			)
			return tghelpers.SendText(c, menu.TextStale)
		}
		return err
	}
}

func isStale(err error) bool {
	return errors.Is(err, catalog.ErrUnknownSubject) ||
		errors.Is(err, catalog.ErrUnknownTopic) ||
		errors.Is(err, catalog.ErrUnknownSlot)
}

func editView(c tele.Context, v menu.View) error {
	return c.EditOrSend(v.Text, v.Markup)
}

func (s *Service) navHome(_ context.Context, c tele.Context, _ nav.Token) error {
	return editView(c, s.menu.Home())
}

func (s *Service) navTopics(_ context.Context, c tele.Context, tok nav.Token) error {
	v, err := s.menu.Topics(tok.Subject)
	if err != nil {
		return err
	}
	return editView(c, v)
}

func (s *Service) navSlots(_ context.Context, c tele.Context, tok nav.Token) error {
	v, err := s.menu.Slots(tok.Subject, tok.Topic, s.isAdmin(c))
	if err != nil {
		return err
	}
	return editView(c, v)
}

func (s *Service) navShow(ctx context.Context, c tele.Context, tok nav.Token) error {
	ref, err := tok.SlotRef(s.catalog)
	if err != nil {
		return err
	}
	items, err := s.catalog.Items(ref)
	if err != nil {
		return err
	}
	return s.renderSlot(ctx, c.Chat().ID, ref, items)
}

// renderSlot sends the heading and then each item in order. A failed item
// is reported in place and the rest still go out.
func (s *Service) renderSlot(ctx context.Context, chatID int64, ref catalog.SlotRef, items []catalog.Item) error {
	if len(items) == 0 {
		return s.transport.SendText(ctx, chatID, menu.EmptySlot(ref))
	}
	if err := s.transport.SendText(ctx, chatID, menu.SlotHeading(ref)); err != nil {
		return err
	}
	results := delivery.DeliverAll(ctx, s.transport, chatID, items, func(res delivery.Result) {
		if err := s.transport.SendText(ctx, chatID, menu.ItemFailed(res.Err)); err != nil {
			logger.Warn(ctx, "service.catalog", "slot.notice_failed",
				slog.String("status", "fail"),
				slog.String("err", err.Error()),
			)
		}
	})
	ok, failed := delivery.Summary(results)
	logger.Info(ctx, "service.catalog", "slot.rendered",
		slog.String("status", "ok"),
		slog.String("subject", ref.Subject),
		slog.String("topic", ref.Topic),
		slog.String("slot", string(ref.Kind)),
		slog.String("lecture", ref.Lecture),
		slog.Int("sent", ok),
		slog.Int("failed", failed),
	)
	return nil
}

func (s *Service) navPush(ctx context.Context, c tele.Context, tok nav.Token) error {
	if !s.isAdmin(c) {
		return c.Edit(menu.TextAdminOnlyButton)
	}
	ref, err := tok.SlotRef(s.catalog)
	if err != nil {
		return err
	}
	if err := s.gate.Begin(ctx, c.Sender().ID, ref); err != nil {
		return err
	}
	return tghelpers.EditMD(c, menu.TextAwaitContent)
}

func (s *Service) navAddLecture(ctx context.Context, c tele.Context, tok nav.Token) error {
	if !s.isAdmin(c) {
		return c.Edit(menu.TextAdminOnlyButton)
	}
	subject, topic, err := tok.TopicNames(s.catalog)
	if err != nil {
		return err
	}
	name, err := s.catalog.AddLecture(ctx, subject, topic)
	if isStale(err) {
		return err
	}
	if err != nil {
		logger.Error(ctx, "service.catalog", "lecture.add_failed",
			slog.String("status", "fail"),
			slog.String("err", err.Error()),
		)
		return tghelpers.SendText(c, menu.TextSaveFailed)
	}
	if err := c.Edit(menu.LectureAdded(subject, topic, name)); err != nil {
		return err
	}
	v, err := s.menu.SlotsRefresh(tok.Subject, tok.Topic)
	if err != nil {
		return err
	}
	return tghelpers.SendText(c, v.Text, &tele.SendOptions{ReplyMarkup: v.Markup})
}

func (s *Service) navAdminUsers(ctx context.Context, c tele.Context, _ nav.Token) error {
	if !s.isAdmin(c) {
		return c.Edit(menu.TextAdminOnlyButton)
	}
	return s.exportUsers(ctx, c)
}
