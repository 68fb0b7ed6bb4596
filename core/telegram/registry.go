package telegram

import (
	"context"
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"strings"
	"sync"

	"github.com/m3rciful/coursebot/core/logger"
	"github.com/m3rciful/coursebot/core/telegram/commands"

	tele "gopkg.in/telebot.v4"
)

// Registry maps slash commands and callback uniques to handlers.
// Registration happens before the bot starts; lookups are safe at any time.
type Registry struct {
	mu               sync.RWMutex
	commands         map[string]commands.Command
	callbacks        map[string]tele.HandlerFunc
	callbackNotFound tele.HandlerFunc
}

// NewRegistry returns an empty registry whose unknown-callback handler
// only acknowledges the button press.
func NewRegistry() *Registry {
	return &Registry{
		commands:  make(map[string]commands.Command),
		callbacks: make(map[string]tele.HandlerFunc),
		callbackNotFound: func(c tele.Context) error {
			return c.Respond(&tele.CallbackResponse{Text: "Unsupported action"})
		},
	}
}

// RegisterCommand adds name, which must start with a slash.
func (r *Registry) RegisterCommand(name string, cmd commands.Command) error {
	switch {
	case !strings.HasPrefix(name, "/") || len(name) < 2:
		return r.rejected("command", name, "bad name")
	case cmd.Handler == nil || cmd.Description == "":
		return r.rejected("command", name, "incomplete")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.commands[name]; ok {
		return r.rejected("command", name, "duplicate")
	}
	r.commands[name] = cmd
	return nil
}

// RegisterCallback binds handler to a callback unique.
func (r *Registry) RegisterCallback(unique string, handler tele.HandlerFunc) error {
	if unique == "" || handler == nil {
		return r.rejected("callback", unique, "incomplete")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.callbacks[unique]; ok {
		return r.rejected("callback", unique, "duplicate")
	}
	r.callbacks[unique] = handler
	return nil
}

func (r *Registry) rejected(kind, name, reason string) error {
	logger.TWire.LogAttrs(context.Background(), slog.LevelWarn, "",
		slog.String("event", "register.rejected"),
		slog.String("kind", kind),
		slog.String("name", name),
		slog.String("cause", reason),
	)
	return fmt.Errorf("telegram: %s %q: %s", kind, name, reason)
}

// Command returns the command registered under name.
func (r *Registry) Command(name string) (commands.Command, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	cmd, ok := r.commands[name]
	return cmd, ok
}

// Commands returns a copy of the command table.
func (r *Registry) Commands() map[string]commands.Command {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return maps.Clone(r.commands)
}

// MenuCommands lists the public commands for the Telegram command menu,
// sorted by name.
func (r *Registry) MenuCommands() []tele.Command {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var list []tele.Command
	for _, name := range slices.Sorted(maps.Keys(r.commands)) {
		if cmd := r.commands[name]; !cmd.AdminOnly {
			list = append(list, tele.Command{Text: name, Description: cmd.Description})
		}
	}
	return list
}

// GetCallback returns the handler bound to unique.
func (r *Registry) GetCallback(unique string) (tele.HandlerFunc, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	h, ok := r.callbacks[unique]
	return h, ok
}

// ListCallbacks returns the registered uniques, sorted.
func (r *Registry) ListCallbacks() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Sorted(maps.Keys(r.callbacks))
}

// SetCallbackNotFound replaces the handler for unregistered uniques.
func (r *Registry) SetCallbackNotFound(h tele.HandlerFunc) {
	if h == nil {
		return
	}
	r.mu.Lock()
	r.callbackNotFound = h
	r.mu.Unlock()
}

// CallbackNotFound returns the handler for unregistered uniques.
func (r *Registry) CallbackNotFound() tele.HandlerFunc {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.callbackNotFound
}
