// Package telegram runs a telebot bot built from routes, middlewares and
// a command registry, and stops it when the context ends.
package telegram

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	coreconfig "github.com/m3rciful/coursebot/core/config"
	"github.com/m3rciful/coursebot/core/logger"
	tghelpers "github.com/m3rciful/coursebot/core/telegram/helpers"
	tgsender "github.com/m3rciful/coursebot/core/telegram/sender"
	"golang.org/x/sync/errgroup"

	tele "gopkg.in/telebot.v4"
)

// Middleware is a named global middleware passed to bot.Use.
type Middleware struct {
	Name string
	Use  tele.MiddlewareFunc
}

// Route binds a handler to a telebot endpoint (a command, tele.OnText, ...).
type Route struct {
	Endpoint any
	Handler  tele.HandlerFunc
}

// RunOptions describes the bot RunTelegram builds.
type RunOptions struct {
	Config   *coreconfig.Config
	Registry *Registry

	// DispatcherOptions configures the queue behind the send helpers.
	DispatcherOptions tgsender.Options

	Middlewares []Middleware
	Routes      []Route

	// Synchronous handles updates one at a time in arrival order.
	Synchronous bool

	OnStart func(ctx context.Context, rt Runtime) error
	OnStop  func(ctx context.Context, rt Runtime) error
}

// Runtime is what lifecycle hooks get to see.
type Runtime struct {
	Bot        *tele.Bot
	Dispatcher *tgsender.Dispatcher
	Registry   *Registry
}

// RunTelegram builds the bot, runs it until ctx is done and then calls
// OnStop. A cancelled context is a clean shutdown.
func RunTelegram(ctx context.Context, opts RunOptions) error {
	cfg := opts.Config
	if cfg == nil {
		return fmt.Errorf("telegram: nil config provided")
	}
	reg := opts.Registry
	if reg == nil {
		reg = NewRegistry()
	}

	started := time.Now()
	poller := NewPoller(cfg)
	bot, err := tele.NewBot(tele.Settings{
		Token:       cfg.Telegram.Token,
		Poller:      poller,
		Client:      NewHTTPClient(cfg.Telegram.HTTPRetries),
		Synchronous: opts.Synchronous,
		OnError:     logBotError,
	})
	if err != nil {
		return fmt.Errorf("telegram: bot initialization failed: %w", err)
	}
	logMode(ctx, bot, poller, time.Since(started))

	for _, mw := range opts.Middlewares {
		if mw.Use != nil {
			bot.Use(mw.Use)
		}
	}
	for _, r := range opts.Routes {
		if r.Endpoint != nil && r.Handler != nil {
			bot.Handle(r.Endpoint, r.Handler)
		}
	}
	if err := bot.SetCommands(reg.MenuCommands()); err != nil {
		logger.TWire.Warn("", slog.String("event", "commands.set"), slog.String("status", "fail"),
			slog.String("err", err.Error()))
	}

	dispatcher := tgsender.NewDispatcher(opts.DispatcherOptions)
	tghelpers.SetDispatcher(dispatcher)
	defer func() {
		dispatcher.Close()
		tghelpers.SetDispatcher(nil)
	}()

	rt := Runtime{Bot: bot, Dispatcher: dispatcher, Registry: reg}
	if opts.OnStart != nil {
		if err := opts.OnStart(ctx, rt); err != nil {
			return err
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	stopped := make(chan struct{})
	g.Go(func() error {
		defer close(stopped)
		bot.Start()
		return nil
	})
	g.Go(func() error {
		select {
		case <-gctx.Done():
			bot.Stop()
		case <-stopped:
		}
		return nil
	})
	_ = g.Wait()

	if opts.OnStop != nil {
		if err := opts.OnStop(context.WithoutCancel(ctx), rt); err != nil {
			return err
		}
	}
	if err := ctx.Err(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func logMode(ctx context.Context, bot *tele.Bot, poller tele.Poller, took time.Duration) {
	switch p := poller.(type) {
	case *tele.Webhook:
		logger.Info(ctx, "tg", "mode",
			slog.String("mode", "webhook"),
			slog.String("listen", p.Listen),
			slog.String("public_url", p.Endpoint.PublicURL),
			slog.Duration("duration", took),
		)
	case *tele.LongPoller:
		logger.Info(ctx, "tg", "mode",
			slog.String("mode", "longpoll"),
			slog.Duration("timeout", p.Timeout),
			slog.Duration("duration", took),
		)
		// A webhook left over from an earlier deployment blocks getUpdates.
		if err := bot.RemoveWebhook(); err != nil {
			logger.Warn(ctx, "tg", "webhook.remove", slog.String("status", "fail"), slog.String("err", err.Error()))
		}
	}
}

func logBotError(err error, c tele.Context) {
	ctx := context.Background()
	if c != nil {
		ctx = tghelpers.BuildContext(c)
	}
	logger.Error(ctx, "tg", "bot.error",
		slog.String("status", "fail"),
		slog.String("err", logger.SanitizeLimit(err.Error(), 256)),
	)
}
