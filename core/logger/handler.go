package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"slices"
	"strconv"
	"strings"
	"time"
)

const tsLayout = "2006-01-02T15:04:05.000Z07:00"

// handler renders records as one line of JSON or key=value pairs with a
// stable key order. Error records are also copied to errOut.
type handler struct {
	level  slog.Leveler
	out    *asyncWriter
	errOut *asyncWriter
	json   bool
	order  []string

	attrs  []slog.Attr
	prefix string
}

func (h *handler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

func (h *handler) Handle(ctx context.Context, r slog.Record) error {
	if h.out == nil {
		return fmt.Errorf("logger: writer not initialized")
	}

	e := entry{}
	ts := r.Time.UTC()
	e["ts"] = ts.Truncate(time.Millisecond).Format(tsLayout)
	e["level"] = r.Level.String()
	if h.json {
		e["ts_unix_nano"] = ts.UnixNano()
	}
	for _, a := range h.attrs {
		e.add(h.prefix, a)
	}
	r.Attrs(func(a slog.Attr) bool {
		e.add(h.prefix, a)
		return true
	})
	e.fromContext(ctx)

	if rid, _ := e["rid"].(string); rid != "" {
		if short := CompactRID(rid); short != rid {
			if h.json {
				e.setDefault("rid_full", rid)
			}
			e["rid"] = short
		}
	}
	if r.Message != "" {
		e.setDefault("event", r.Message)
	}
	e.setDefault("event", "unknown")
	e.setDefault("component", "app")
	if s, ok := e["status"].(string); ok {
		e["status"] = strings.ToLower(s)
	}

	var line []byte
	if h.json {
		var err error
		if line, err = e.json(h.order); err != nil {
			return err
		}
	} else {
		line = e.kv(h.order)
	}
	line = append(line, '\n')

	if h.errOut != nil && r.Level >= slog.LevelError {
		if err := h.errOut.Write(line); err != nil {
			return err
		}
	}
	return h.out.Write(line)
}

func (h *handler) WithAttrs(attrs []slog.Attr) slog.Handler {
	clone := *h
	clone.attrs = append(slices.Clip(h.attrs), attrs...)
	return &clone
}

func (h *handler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	clone := *h
	clone.prefix = joinKey(h.prefix, name)
	return &clone
}

func joinKey(prefix, key string) string {
	switch {
	case prefix == "":
		return key
	case key == "":
		return prefix
	}
	return prefix + "." + key
}

// entry holds the flattened fields of one record. Empty strings and nil
// values are never stored.
type entry map[string]any

func (e entry) setDefault(key string, v any) {
	if _, ok := e[key]; !ok {
		e[key] = v
	}
}

func (e entry) add(prefix string, a slog.Attr) {
	key := joinKey(prefix, a.Key)
	v := a.Value.Resolve()
	if v.Kind() == slog.KindGroup {
		for _, child := range v.Group() {
			e.add(key, child)
		}
		return
	}
	if key == "" {
		return
	}

	var out any
	switch v.Kind() {
	case slog.KindString:
		out = strings.TrimSpace(v.String())
	case slog.KindInt64:
		out = v.Int64()
	case slog.KindUint64:
		out = v.Uint64()
	case slog.KindFloat64:
		out = v.Float64()
	case slog.KindBool:
		out = v.Bool()
	case slog.KindDuration:
		key, out = durationField(key, v.Duration())
	case slog.KindTime:
		out = v.Time().UTC().Format(time.RFC3339Nano)
	default:
		switch x := v.Any().(type) {
		case nil:
		case error:
			out = x.Error()
		case time.Duration:
			key, out = durationField(key, x)
		case fmt.Stringer:
			out = x.String()
		default:
			out = fmt.Sprint(x)
		}
	}
	if out == nil || out == "" {
		return
	}
	e[key] = out
}

// durationField reports durations in whole milliseconds under a key
// ending in _ms.
func durationField(key string, d time.Duration) (string, int64) {
	if !strings.HasSuffix(key, "_ms") {
		key += "_ms"
	}
	return key, RoundMS(d).Milliseconds()
}

func (e entry) fromContext(ctx context.Context) {
	if ctx == nil {
		return
	}
	if rid := RIDFrom(ctx); rid != "" {
		e.setDefault("rid", rid)
	}
	if id := UpdateIDFrom(ctx); id != 0 {
		e.setDefault("update_id", int64(id))
	}
	if id := UserIDFrom(ctx); id != 0 {
		e.setDefault("user_id", id)
	}
	if id := ChatIDFrom(ctx); id != 0 {
		e.setDefault("chat_id", id)
	}
	if name := HandlerFrom(ctx); name != "" {
		e.setDefault("handler", name)
	}
}

// keys lists the present keys: those named in order first, then the rest
// sorted.
func (e entry) keys(order []string) []string {
	keys := make([]string, 0, len(e))
	seen := make(map[string]bool, len(e))
	for _, k := range order {
		if _, ok := e[k]; ok && !seen[k] {
			keys = append(keys, k)
			seen[k] = true
		}
	}
	head := len(keys)
	for k := range e {
		if !seen[k] {
			keys = append(keys, k)
		}
	}
	slices.Sort(keys[head:])
	return keys
}

func (e entry) json(order []string) ([]byte, error) {
	var b bytes.Buffer
	b.WriteByte('{')
	for i, k := range e.keys(order) {
		v, err := json.Marshal(e[k])
		if err != nil {
			return nil, fmt.Errorf("logger: encode %s: %w", k, err)
		}
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.Quote(k))
		b.WriteByte(':')
		b.Write(v)
	}
	b.WriteByte('}')
	return b.Bytes(), nil
}

func (e entry) kv(order []string) []byte {
	var b bytes.Buffer
	for i, k := range e.keys(order) {
		if i > 0 {
			b.WriteByte(' ')
		}
		s := fmt.Sprint(e[k])
		if strings.ContainsFunc(s, func(r rune) bool { return r <= ' ' || r == '=' || r == '"' }) {
			s = strconv.Quote(s)
		}
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(s)
	}
	return b.Bytes()
}
