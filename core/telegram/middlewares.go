package telegram

import (
	"time"

	coreconfig "github.com/m3rciful/coursebot/core/config"
	"github.com/m3rciful/coursebot/core/telegram/middleware"

	tele "gopkg.in/telebot.v4"
)

// DefaultMiddlewares is the global chain: panic recovery, the per-user rate
// limit when rate_limit.interval_ms is set, request correlation and reply
// counting. The admin is never rate limited so uploads sent in quick
// succession all reach the ingestion step.
func DefaultMiddlewares(cfg *coreconfig.Config, onLimited tele.HandlerFunc) []Middleware {
	mws := []Middleware{{Name: "recover", Use: middleware.Recover}}

	if cfg != nil && cfg.RateLimit.IntervalMS > 0 {
		exclude := make(map[string]struct{}, len(cfg.RateLimit.ExcludeUpdates))
		for _, kind := range cfg.RateLimit.ExcludeUpdates {
			exclude[kind] = struct{}{}
		}
		mws = append(mws, Middleware{Name: "rate_limit", Use: middleware.RateLimit(middleware.RateLimitOptions{
			Interval:  time.Duration(cfg.RateLimit.IntervalMS) * time.Millisecond,
			Exclude:   exclude,
			Exempt:    map[int64]struct{}{cfg.Telegram.AdminID: {}},
			OnLimited: onLimited,
		})})
	}

	return append(mws,
		Middleware{Name: "correlate", Use: middleware.Correlate},
		Middleware{Name: "replies", Use: middleware.CountReplies},
	)
}
