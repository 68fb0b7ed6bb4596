// Package app assembles the course bot: configuration, persistence,
// stores and the Telegram routes.
package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/m3rciful/coursebot/core/bootstrap"
	"github.com/m3rciful/coursebot/core/logger"
	tg "github.com/m3rciful/coursebot/core/telegram"
	"github.com/m3rciful/coursebot/core/telegram/router"
	tgsender "github.com/m3rciful/coursebot/core/telegram/sender"
	"github.com/m3rciful/coursebot/core/telegram/state"
	"github.com/m3rciful/coursebot/core/telegram/ui"
	"github.com/m3rciful/coursebot/internal/bot"
	"github.com/m3rciful/coursebot/internal/catalog"
	"github.com/m3rciful/coursebot/internal/storage/sqlstore"
	"github.com/m3rciful/coursebot/internal/users"
)

// App owns the stores and the Telegram wiring for one process.
type App struct {
	cfg       *Config
	infra     *bootstrap.Result
	store     *catalog.Store
	users     *users.Registry
	sessions  state.Manager
	transport *bot.Transport
	service   *bot.Service
	registry  *tg.Registry
}

// Bootstrap connects storage, replays the journal into fresh stores and
// registers the bot handlers.
func Bootstrap(ctx context.Context, cfg *Config, opts bootstrap.Options) (*App, error) {
	if cfg == nil {
		return nil, fmt.Errorf("app: nil config provided")
	}
	opts.Config = &cfg.Config
	opts.Database = cfg.Database
	opts.Modules.Seeders = append(opts.Modules.Seeders, sqlstore.CatalogSeeder(cfg.Catalog))

	infra, err := bootstrap.Run(ctx, opts)
	if err != nil {
		return nil, err
	}

	store, err := catalog.New(cfg.Catalog, catalog.Options{LecturePrefix: cfg.Bot.LecturePrefix})
	if err != nil {
		_ = infra.Close()
		return nil, fmt.Errorf("app: build catalog: %w", err)
	}
	registry := users.NewRegistry(nil)

	if infra.DB != nil {
		journal := sqlstore.New(infra.DB)
		if _, err := journal.Replay(ctx, store, registry); err != nil {
			_ = infra.Close()
			return nil, fmt.Errorf("app: %w", err)
		}
		store.SetJournal(journal)
		registry.SetJournal(journal)
	}

	a := &App{
		cfg:       cfg,
		infra:     infra,
		store:     store,
		users:     registry,
		sessions:  state.NewMemoryManager(),
		transport: bot.NewTransport(nil),
		registry:  tg.NewRegistry(),
	}
	a.service = bot.New(bot.Settings{
		AdminID:            cfg.Telegram.AdminID,
		WelcomeText:        cfg.Bot.WelcomeText,
		BroadcastKeyword:   cfg.Bot.BroadcastKeyword,
		BroadcastPerSecond: cfg.Bot.BroadcastPerSecond,
	}, store, registry, a.sessions, a.transport)
	if err := a.service.Register(a.registry); err != nil {
		_ = infra.Close()
		return nil, fmt.Errorf("app: register handlers: %w", err)
	}

	logger.Info(ctx, "app", "app.bootstrapped",
		slog.String("status", "ok"),
		slog.String("driver", cfg.Database.Driver),
		slog.Int("users", registry.Count()),
	)
	return a, nil
}

// TelegramRunOptions builds the routes and lifecycle hooks. Updates are
// handled one at a time and helper sends go through a single worker so
// replies keep their order.
func (a *App) TelegramRunOptions() (tg.RunOptions, error) {
	var fallbacks ui.FallbackProvider = a.service
	routes := router.CommandRoutes(a.registry, router.CommandRouteOptions{
		AdminID:       a.cfg.Telegram.AdminID,
		OnAdminReject: a.service.RejectAdminCommand,
	})
	routes = append(routes, router.CallbackRoute(a.registry, router.CallbackOptions{
		NotFound: fallbacks.UnknownCallback(),
	}))
	routes = append(routes, router.TextRoutes(a.sessions, router.TextOptions{
		UnknownText:  fallbacks.UnknownText(),
		UnknownMedia: fallbacks.UnknownMedia(),
		Contact:      a.service.HandleContact,
	})...)

	return tg.RunOptions{
		Config:            &a.cfg.Config,
		Registry:          a.registry,
		DispatcherOptions: tgsender.Options{Workers: 1},
		Middlewares:       tg.DefaultMiddlewares(&a.cfg.Config, nil),
		Routes:            routes,
		Synchronous:       true,
		OnStart: func(_ context.Context, rt tg.Runtime) error {
			a.transport.Bind(rt.Bot)
			return nil
		},
		OnStop: func(context.Context, tg.Runtime) error {
			return a.infra.Close()
		},
	}, nil
}
