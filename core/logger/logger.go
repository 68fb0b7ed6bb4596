// Package logger is the process-wide structured log: one line per event,
// keyed by component and event name, written asynchronously to stdout and
// optional files.
package logger

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"runtime"
	"strings"
	"sync"

	"github.com/m3rciful/coursebot/core/buildinfo"
	coreconfig "github.com/m3rciful/coursebot/core/config"
)

var (
	initOnce sync.Once
	closeMu  sync.Mutex
	closed   bool

	sinks   []*asyncWriter
	closers []io.Closer

	levelVar slog.LevelVar
	debugs   sampler

	// L is the root logger. It discards output until InitLogger runs.
	L = slog.New(slog.DiscardHandler)

	// DB, TG, MIG and TWire are component loggers for the infrastructure layers.
	DB    *slog.Logger
	TG    *slog.Logger
	MIG   *slog.Logger
	TWire *slog.Logger
)

func init() { bindComponents() }

// InitLogger installs the structured handler described by cfg.Logging.
// Only the first call has any effect.
func InitLogger(cfg *coreconfig.Config) error {
	var err error
	initOnce.Do(func() {
		opts := optionsFrom(cfg)
		levelVar.Set(opts.level)
		debugs.set(opts.sampleNum, opts.sampleDen)

		var main, errs []io.Writer
		main, errs, closers, err = openSinks(opts)
		if err != nil {
			return
		}
		out := newAsyncWriter(main, 64*1024)
		sinks = append(sinks, out)
		var errOut *asyncWriter
		if len(errs) > 0 {
			errOut = newAsyncWriter(errs, 16*1024)
			sinks = append(sinks, errOut)
		}

		L = slog.New(&handler{
			level:  &levelVar,
			out:    out,
			errOut: errOut,
			json:   opts.json,
			order:  opts.order,
		})
		slog.SetDefault(L)
		bindComponents()

		build := buildinfo.Read()
		L.LogAttrs(context.Background(), slog.LevelInfo, "",
			slog.String("component", "app"),
			slog.String("event", "startup"),
			slog.String("go_version", runtime.Version()),
			slog.String("build_version", build.Version),
			slog.String("build_commit", build.Commit),
			slog.String("build_time", build.Date),
			slog.String("cfg_profile", opts.profile),
		)
	})
	return err
}

func bindComponents() {
	DB = L.With("component", "db")
	TG = L.With("component", "tg")
	MIG = L.With("component", "db.migrate")
	TWire = L.With("component", "tg.wire")
}

// Shutdown drains pending lines and closes every file sink.
func Shutdown() error {
	closeMu.Lock()
	defer closeMu.Unlock()
	if closed {
		return nil
	}
	closed = true

	var errs []error
	for _, w := range sinks {
		errs = append(errs, w.Close())
	}
	for _, c := range closers {
		errs = append(errs, c.Close())
	}
	return errors.Join(errs...)
}

// Background is a readability alias used at call sites with no request scope.
func Background() context.Context {
	return context.Background()
}

// Component returns the root logger scoped to name.
func Component(name string) *slog.Logger {
	name = strings.TrimSpace(name)
	if name == "" {
		return L
	}
	return L.With("component", name)
}

// LogEvent writes one event through logg, falling back to the logger
// carried by ctx.
func LogEvent(ctx context.Context, logg *slog.Logger, level slog.Level, event string, attrs ...slog.Attr) {
	if logg == nil {
		logg = FromContext(ctx)
	}
	if event != "" {
		attrs = append([]slog.Attr{slog.String("event", event)}, attrs...)
	}
	logg.LogAttrs(ctx, level, "", attrs...)
}

// Debug logs a debug-level event for component.
func Debug(ctx context.Context, component, event string, attrs ...slog.Attr) {
	LogEvent(ctx, Component(component), slog.LevelDebug, event, attrs...)
}

// Info logs an info-level event for component.
func Info(ctx context.Context, component, event string, attrs ...slog.Attr) {
	LogEvent(ctx, Component(component), slog.LevelInfo, event, attrs...)
}

// Warn logs a warn-level event for component.
func Warn(ctx context.Context, component, event string, attrs ...slog.Attr) {
	LogEvent(ctx, Component(component), slog.LevelWarn, event, attrs...)
}

// Error logs an error-level event for component.
func Error(ctx context.Context, component, event string, attrs ...slog.Attr) {
	LogEvent(ctx, Component(component), slog.LevelError, event, attrs...)
}

// ShouldSampleDebug reports whether a high-volume debug event should be
// written. TRACE=1 in the environment disables sampling.
func ShouldSampleDebug() bool {
	return debugs.allow()
}
