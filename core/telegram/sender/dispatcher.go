// Package sender runs outgoing Telegram calls on a small worker pool with
// bounded retries for transient network failures.
package sender

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"regexp"
	"sync"
	"sync/atomic"
	"time"

	"github.com/m3rciful/coursebot/core/logger"
	"github.com/m3rciful/coursebot/core/telegram/netutil"

	tele "gopkg.in/telebot.v4"
)

var (
	// ErrQueueClosed is returned by Enqueue after Close.
	ErrQueueClosed = errors.New("telegram sender: queue closed")
	// ErrQueueFull is returned when the job could not be queued without blocking.
	ErrQueueFull = errors.New("telegram sender: queue full")

	tokenRe = regexp.MustCompile(`bot[0-9]+:[A-Za-z0-9_-]+`)
)

// Options tunes the dispatcher. Zero values select the defaults.
type Options struct {
	QueueSize    int           // default 256
	Workers      int           // default 4; 1 keeps sends in enqueue order
	MaxRetries   int           // extra attempts after the first
	RetryBackoff time.Duration // multiplied by the attempt number; default 2s
	MaxDuration  time.Duration // budget for one job including retries; default 12s
}

func (o Options) withDefaults() Options {
	if o.QueueSize <= 0 {
		o.QueueSize = 256
	}
	if o.Workers <= 0 {
		o.Workers = 4
	}
	o.MaxRetries = max(o.MaxRetries, 0)
	if o.RetryBackoff <= 0 {
		o.RetryBackoff = 2 * time.Second
	}
	if o.MaxDuration <= 0 {
		o.MaxDuration = 12 * time.Second
	}
	return o
}

type job struct {
	ctx    context.Context
	action string
	method string
	run    func() error
}

// Dispatcher executes queued Telegram calls in the background.
type Dispatcher struct {
	opts Options
	jobs chan job
	wg   sync.WaitGroup

	mu     sync.RWMutex
	closed bool
	failed atomic.Uint64
}

// NewDispatcher starts opts.Workers goroutines.
func NewDispatcher(opts Options) *Dispatcher {
	opts = opts.withDefaults()
	d := &Dispatcher{opts: opts, jobs: make(chan job, opts.QueueSize)}
	d.wg.Add(opts.Workers)
	for range opts.Workers {
		go func() {
			defer d.wg.Done()
			for j := range d.jobs {
				d.process(j)
			}
		}()
	}
	return d
}

// Enqueue queues run without blocking. action names the operation for
// logs and method is the Bot API method it calls. run may be invoked more
// than once.
func (d *Dispatcher) Enqueue(ctx context.Context, action, method string, run func() error) error {
	if run == nil {
		return errors.New("telegram sender: nil run function")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		return ErrQueueClosed
	}
	select {
	case d.jobs <- job{ctx: ctx, action: action, method: method, run: run}:
		return nil
	default:
		return ErrQueueFull
	}
}

// ErrorCount reports how many jobs failed for good.
func (d *Dispatcher) ErrorCount() uint64 {
	return d.failed.Load()
}

// Close rejects new jobs, lets the workers finish the queue and waits.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	if !d.closed {
		d.closed = true
		close(d.jobs)
	}
	d.mu.Unlock()
	d.wg.Wait()
}

func (d *Dispatcher) process(j job) {
	ctx, cancel := context.WithTimeout(j.ctx, d.opts.MaxDuration)
	defer cancel()

	start := time.Now()
	attrs := []slog.Attr{slog.String("action", j.action), slog.String("method", j.method)}
	attempts := d.opts.MaxRetries + 1

	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err = ctx.Err(); err != nil {
			break
		}
		if err = j.run(); err == nil {
			logger.Debug(j.ctx, "tg.sender", "send.ok", append(attrs,
				slog.Int("attempts", attempt),
				slog.Duration("duration", time.Since(start)),
			)...)
			return
		}
		if attempt == attempts || !netutil.ShouldRetry(err) {
			break
		}

		delay := d.opts.RetryBackoff * time.Duration(attempt)
		logger.Debug(j.ctx, "tg.sender", "send.retry", append(attrs,
			slog.Int("attempt", attempt),
			slog.Duration("backoff", delay),
		)...)
		select {
		case <-ctx.Done():
		case <-time.After(delay):
		}
	}

	d.failed.Add(1)
	logger.Error(j.ctx, "tg.sender", "send.failed", append(attrs,
		slog.String("err", redact(err)),
		slog.Int("http_code", statusOf(err)),
		slog.Duration("duration", time.Since(start)),
	)...)
}

// redact hides bot tokens that net/http echoes back inside URLs.
func redact(err error) string {
	if err == nil {
		return ""
	}
	return tokenRe.ReplaceAllString(err.Error(), "bot<redacted>")
}

func statusOf(err error) int {
	var apiErr *tele.Error
	var flood tele.FloodError
	switch {
	case errors.As(err, &apiErr):
		return apiErr.Code
	case errors.As(err, &flood):
		return http.StatusTooManyRequests
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	}
	return 0
}
