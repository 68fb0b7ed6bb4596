// Package broadcast resends the admin's last captured item to every user.
package broadcast

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/m3rciful/coursebot/core/logger"
	"github.com/m3rciful/coursebot/internal/delivery"
	"github.com/m3rciful/coursebot/internal/ingest"
)

// DefaultKeyword triggers a broadcast when no keyword is configured.
const DefaultKeyword = "بث"

var (
	// ErrUnauthorized is returned when a non-admin sends the keyword.
	ErrUnauthorized = errors.New("broadcast: admin only")
	// ErrNothingToBroadcast is returned when the admin has captured nothing yet.
	ErrNothingToBroadcast = errors.New("broadcast: nothing captured")
)

// Source yields the item to resend.
type Source interface {
	IsAdmin(id int64) bool
	LastCaptured(actor int64) (ingest.Captured, bool)
}

// Audience yields a snapshot of recipients.
type Audience interface {
	IDs() []int64
}

// Report summarizes one broadcast run.
type Report struct {
	ID         string
	Captured   ingest.Captured
	Recipients int
	Sent       int
	Failed     int
}

// Dispatcher runs broadcasts.
type Dispatcher struct {
	keyword   string
	source    Source
	audience  Audience
	transport delivery.Transport
	pace      *rate.Limiter
}

// NewDispatcher builds a dispatcher. An empty keyword falls back to DefaultKeyword.
func NewDispatcher(keyword string, source Source, audience Audience, transport delivery.Transport) *Dispatcher {
	keyword = normalize(keyword)
	if keyword == "" {
		keyword = DefaultKeyword
	}
	return &Dispatcher{keyword: keyword, source: source, audience: audience, transport: transport}
}

// SetRate caps sends at perSecond messages; 0 removes the cap. Telegram
// throttles bots that exceed about 30 messages per second.
func (d *Dispatcher) SetRate(perSecond float64) {
	if perSecond <= 0 {
		d.pace = nil
		return
	}
	d.pace = rate.NewLimiter(rate.Limit(perSecond), 1)
}

// Keyword returns the normalized trigger word.
func (d *Dispatcher) Keyword() string { return d.keyword }

// IsTrigger reports whether text is the broadcast keyword after trimming and lowercasing.
func (d *Dispatcher) IsTrigger(text string) bool {
	return normalize(text) == d.keyword
}

// Trigger resends the admin's last captured item to every registered user.
// Per-user failures are counted, never retried, and never stop the loop.
// Cancelling ctx stops it; recipients not reached count as failed.
func (d *Dispatcher) Trigger(ctx context.Context, actor int64) (Report, error) {
	if !d.source.IsAdmin(actor) {
		return Report{}, ErrUnauthorized
	}
	captured, ok := d.source.LastCaptured(actor)
	if !ok {
		return Report{}, ErrNothingToBroadcast
	}
	start := time.Now()
	recipients := d.audience.IDs()
	rep := Report{ID: uuid.NewString(), Captured: captured, Recipients: len(recipients)}
	for i, id := range recipients {
		if err := d.wait(ctx); err != nil {
			rep.Failed += len(recipients) - i
			logger.Warn(ctx, "service.broadcast", "broadcast.interrupted",
				slog.String("status", "fail"),
				slog.String("broadcast_id", rep.ID),
				slog.Int("left", len(recipients)-i),
				slog.String("err", err.Error()),
			)
			break
		}
		res := delivery.Deliver(ctx, d.transport, id, captured.Item)
		if res.OK() {
			rep.Sent++
			continue
		}
		rep.Failed++
		logger.Debug(ctx, "service.broadcast", "broadcast.recipient_failed",
			slog.String("status", "fail"),
			slog.String("broadcast_id", rep.ID),
			slog.Int64("chat_id", id),
			slog.String("err", logger.SanitizeLimit(res.Err.Error(), 256)),
		)
	}
	logger.Info(ctx, "service.broadcast", "broadcast.done",
		slog.String("status", "ok"),
		slog.String("broadcast_id", rep.ID),
		slog.String("kind", string(captured.Item.Kind)),
		slog.Int("recipients", rep.Recipients),
		slog.Int("sent", rep.Sent),
		slog.Int("failed", rep.Failed),
		slog.Duration("duration", logger.RoundMS(time.Since(start))),
	)
	return rep, nil
}

func (d *Dispatcher) wait(ctx context.Context) error {
	if d.pace == nil {
		return ctx.Err()
	}
	return d.pace.Wait(ctx)
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
