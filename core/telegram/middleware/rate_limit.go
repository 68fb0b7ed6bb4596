package middleware

import (
	"log/slog"
	"sync"
	"time"

	coreconfig "github.com/m3rciful/coursebot/core/config"
	"github.com/m3rciful/coursebot/core/logger"
	tghelpers "github.com/m3rciful/coursebot/core/telegram/helpers"
	"golang.org/x/time/rate"

	tele "gopkg.in/telebot.v4"
)

// RateLimitOptions configures RateLimit.
type RateLimitOptions struct {
	// Interval is the minimum gap between two updates from one user.
	Interval time.Duration
	// Exclude lists update kinds ("callback", "message", "inline_query")
	// that are never limited.
	Exclude   map[string]struct{}
	// Exempt lists users that are never limited.
	Exempt    map[int64]struct{}
	OnLimited tele.HandlerFunc
}

// RateLimit drops updates that arrive from the same user faster than
// opts.Interval. A zero interval disables it.
func RateLimit(opts RateLimitOptions) tele.MiddlewareFunc {
	var (
		mu    sync.Mutex
		users = make(map[int64]*rate.Limiter)
	)
	allow := func(userID int64) bool {
		mu.Lock()
		defer mu.Unlock()
		l, ok := users[userID]
		if !ok {
			l = rate.NewLimiter(rate.Every(opts.Interval), 1)
			users[userID] = l
		}
		return l.Allow()
	}

	return func(next tele.HandlerFunc) tele.HandlerFunc {
		return func(c tele.Context) error {
			u := c.Sender()
			if u == nil || opts.Interval <= 0 {
				return next(c)
			}
			if _, skip := opts.Exempt[u.ID]; skip {
				return next(c)
			}
			if _, skip := opts.Exclude[updateKind(c.Update())]; skip {
				return next(c)
			}
			if allow(u.ID) {
				return next(c)
			}
			logger.Warn(tghelpers.BuildContext(c), "tg", "update.rate_limited",
				slog.String("status", "skip"),
			)
			if opts.OnLimited != nil {
				return opts.OnLimited(c)
			}
			return nil
		}
	}
}

func updateKind(upd tele.Update) string {
	switch {
	case upd.Callback != nil:
		return coreconfig.UpdateCallback
	case upd.Message != nil:
		return coreconfig.UpdateMessage
	case upd.Query != nil:
		return coreconfig.UpdateInlineQuery
	}
	return "other"
}
