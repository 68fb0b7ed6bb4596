package router

import (
	"log/slog"
	"strings"

	"github.com/m3rciful/coursebot/core/logger"
	tg "github.com/m3rciful/coursebot/core/telegram"
	"github.com/m3rciful/coursebot/core/telegram/callbacks"
	"github.com/m3rciful/coursebot/core/telegram/middleware"

	tele "gopkg.in/telebot.v4"
)

// CommandRouteOptions configures CommandRoutes.
type CommandRouteOptions struct {
	AdminID       int64
	OnAdminReject tele.HandlerFunc
}

// CommandRoutes returns one route per registered command. Admin-only
// commands are guarded by middleware.AdminOnly.
func CommandRoutes(reg *tg.Registry, opts CommandRouteOptions) []tg.Route {
	admin := middleware.AdminOnly(middleware.AdminOptions{AdminID: opts.AdminID, OnReject: opts.OnAdminReject})
	cmds := reg.Commands()
	routes := make([]tg.Route, 0, len(cmds))
	for name, cmd := range cmds {
		h := cmd.Handler
		if cmd.AdminOnly {
			h = admin(h)
		}
		label := "cmd." + strings.TrimPrefix(name, "/")
		routes = append(routes, tg.Route{
			Endpoint: name,
			Handler:  func(c tele.Context) error { return handled(c, label, h) },
		})
	}

	logger.TWire.Info("",
		slog.String("event", "routes.commands"),
		slog.Int("count", len(cmds)),
		slog.Int("callbacks", len(reg.ListCallbacks())),
	)
	return routes
}

// CallbackOptions configures CallbackRoute.
type CallbackOptions struct {
	// NotFound runs when the registry has no handler for the unique and
	// no registry-level fallback is set.
	NotFound tele.HandlerFunc
}

// CallbackRoute answers every button press and dispatches it by unique.
func CallbackRoute(reg *tg.Registry, opts CallbackOptions) tg.Route {
	return tg.Route{
		Endpoint: tele.OnCallback,
		Handler: func(c tele.Context) error {
			cb := c.Callback()
			if cb == nil {
				return nil
			}
			_ = c.Respond()

			unique, _ := callbacks.ParseCallbackData(cb)
			name := "cb." + unique
			if h, ok := reg.GetCallback(unique); ok {
				return handled(c, name, h)
			}
			fallback := reg.CallbackNotFound()
			if fallback == nil {
				fallback = opts.NotFound
			}
			if fallback == nil {
				return skipped(c, name)
			}
			return handled(c, name, fallback, slog.String("cause", "not_found"))
		},
	}
}

// Session is the part of the session manager the message routes need.
type Session interface {
	InProgress(userID int64) bool
	ManagerHandler(c tele.Context) error
}

// MediaEndpoints are the non-text message kinds routed to an active
// session. Kinds a session step cannot store still reach it so it can
// reject them.
var MediaEndpoints = []string{
	tele.OnPhoto,
	tele.OnDocument,
	tele.OnVideo,
	tele.OnAudio,
	tele.OnVoice,
	tele.OnSticker,
	tele.OnAnimation,
	tele.OnVideoNote,
	tele.OnLocation,
}

// TextOptions holds the handlers for messages no session claims.
type TextOptions struct {
	UnknownText  tele.HandlerFunc
	UnknownMedia tele.HandlerFunc
	Contact      tele.HandlerFunc
}

// TextRoutes routes text and media to the sender's active session first
// and to the fallbacks otherwise. A shared contact goes to opts.Contact.
func TextRoutes(sessions Session, opts TextOptions) []tg.Route {
	bySession := func(name string, fallback tele.HandlerFunc) tele.HandlerFunc {
		return func(c tele.Context) error {
			if u := c.Sender(); sessions != nil && u != nil && sessions.InProgress(u.ID) {
				return handled(c, "session", sessions.ManagerHandler)
			}
			if fallback == nil {
				return skipped(c, name)
			}
			return handled(c, name, fallback)
		}
	}

	routes := []tg.Route{{Endpoint: tele.OnText, Handler: bySession("text", opts.UnknownText)}}
	media := bySession("media", opts.UnknownMedia)
	for _, ep := range MediaEndpoints {
		routes = append(routes, tg.Route{Endpoint: ep, Handler: media})
	}
	if opts.Contact != nil {
		routes = append(routes, tg.Route{
			Endpoint: tele.OnContact,
			Handler:  func(c tele.Context) error { return handled(c, "contact", opts.Contact) },
		})
	}
	return routes
}
