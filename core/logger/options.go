package logger

import (
	"io"
	"log"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	coreconfig "github.com/m3rciful/coursebot/core/config"
)

// Keys written first, in this order. Everything else follows alphabetically.
var defaultKeyOrder = []string{
	"ts", "level", "component", "event", "status",
	"rid", "rid_full", "ts_unix_nano",
	"update_id", "user_id", "chat_id", "chat_type", "handler",
	"subject", "topic", "slot", "lecture", "kind",
	"recipients", "sent", "failed", "users", "items", "lectures",
	"duration_ms", "count", "payload", "username", "mode",
	"listen", "public_url", "http_code", "db", "host", "port",
	"err", "err_code", "cause", "retryable", "attempts", "backoff_ms",
}

type options struct {
	level     slog.Level
	json      bool
	order     []string
	profile   string
	sampleNum int
	sampleDen int
	dir       string
	mainFile  string
	errFile   string
}

func optionsFrom(cfg *coreconfig.Config) options {
	opts := options{
		level:     slog.LevelInfo,
		json:      true,
		order:     defaultKeyOrder,
		profile:   "prod",
		sampleNum: 1,
		sampleDen: 50,
	}
	if cfg == nil {
		return opts
	}
	lc := cfg.Logging

	if p := strings.ToLower(strings.TrimSpace(lc.Profile)); p != "" {
		opts.profile = p
	}
	switch strings.ToLower(strings.TrimSpace(lc.Format)) {
	case "kv", "text", "pretty":
		opts.json = false
	case "json":
	default:
		opts.json = opts.profile != "debug" && opts.profile != "dev"
	}

	switch strings.ToLower(strings.TrimSpace(lc.Level)) {
	case "debug":
		opts.level = slog.LevelDebug
	case "warn", "warning":
		opts.level = slog.LevelWarn
	case "error":
		opts.level = slog.LevelError
	}

	if raw := strings.TrimSpace(lc.KeysOrder); raw != "" && raw != "default" {
		var order []string
		for _, k := range strings.Split(raw, ",") {
			if k = strings.TrimSpace(k); k != "" {
				order = append(order, k)
			}
		}
		if len(order) > 0 {
			opts.order = order
		}
	}

	if spec := strings.TrimSpace(lc.DebugSample); spec != "" {
		opts.sampleNum, opts.sampleDen = parseRatio(spec)
	}
	if truthy(os.Getenv("TRACE")) || truthy(os.Getenv("LOG_TRACE")) {
		opts.sampleNum, opts.sampleDen = 0, 0
	}

	opts.dir = strings.TrimSpace(lc.Dir)
	opts.mainFile = strings.TrimSpace(lc.BotFile)
	opts.errFile = strings.TrimSpace(lc.ErrorsFile)
	return opts
}

// parseRatio accepts "n/d" or a bare "d" meaning 1/d. Zero or garbage
// disables sampling.
func parseRatio(spec string) (int, int) {
	if num, den, ok := strings.Cut(spec, "/"); ok {
		n, err1 := strconv.Atoi(strings.TrimSpace(num))
		d, err2 := strconv.Atoi(strings.TrimSpace(den))
		if err1 == nil && err2 == nil && n > 0 && d > 0 {
			return min(n, d), d
		}
		return 0, 0
	}
	if d, err := strconv.Atoi(spec); err == nil && d > 0 {
		return 1, d
	}
	return 0, 0
}

func truthy(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "on", "yes":
		return true
	}
	return false
}

// openSinks always writes to stdout. Files that cannot be opened are
// reported on the standard logger and skipped.
func openSinks(opts options) (main, errs []io.Writer, closers []io.Closer, err error) {
	main = []io.Writer{os.Stdout}
	if opts.dir == "" {
		return main, nil, nil, nil
	}
	open := func(name string) *os.File {
		if name == "" {
			return nil
		}
		if err := os.MkdirAll(opts.dir, 0o755); err != nil {
			log.Printf("logger: create %s: %v", opts.dir, err)
			return nil
		}
		path := filepath.Join(opts.dir, name)
		f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			log.Printf("logger: open %s: %v", path, err)
			return nil
		}
		closers = append(closers, f)
		return f
	}
	if f := open(opts.mainFile); f != nil {
		main = append(main, f)
	}
	if f := open(opts.errFile); f != nil {
		errs = append(errs, f)
	}
	return main, errs, closers, nil
}

// sampler lets num out of every den calls through. A zero ratio lets
// everything through.
type sampler struct {
	mu       sync.Mutex
	num, den int
	n        int
}

func (s *sampler) set(num, den int) {
	s.mu.Lock()
	s.num, s.den, s.n = num, den, 0
	s.mu.Unlock()
}

func (s *sampler) allow() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.num <= 0 || s.den <= 0 {
		return true
	}
	s.n = s.n%s.den + 1
	return s.n <= s.num
}
