package state

import (
	"log/slog"
	"sync"

	"github.com/m3rciful/coursebot/core/logger"
	tghelpers "github.com/m3rciful/coursebot/core/telegram/helpers"

	tele "gopkg.in/telebot.v4"
)

type userSession struct {
	step    State
	scratch map[string]any
}

type memoryManager struct {
	mu       sync.RWMutex
	users    map[int64]*userSession
	handlers map[State]tele.HandlerFunc
}

// NewMemoryManager returns a Manager that keeps sessions in process memory.
// They are lost on restart.
func NewMemoryManager() Manager {
	return &memoryManager{
		users:    make(map[int64]*userSession),
		handlers: make(map[State]tele.HandlerFunc),
	}
}

// update runs fn on the user's session, creating it when missing.
func (m *memoryManager) update(userID int64, fn func(*userSession)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.users[userID]
	if !ok {
		s = &userSession{step: StateIdle, scratch: map[string]any{}}
		m.users[userID] = s
	}
	fn(s)
}

func (m *memoryManager) SetState(userID int64, st State) {
	m.update(userID, func(s *userSession) { s.step = st })
}

func (m *memoryManager) ClearState(userID int64) {
	m.update(userID, func(s *userSession) { s.step = StateIdle })
}

func (m *memoryManager) GetState(userID int64) State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if s, ok := m.users[userID]; ok {
		return s.step
	}
	return StateIdle
}

func (m *memoryManager) SetTemp(userID int64, key string, value any) {
	m.update(userID, func(s *userSession) { s.scratch[key] = value })
}

func (m *memoryManager) ClearTemp(userID int64, key string) {
	m.update(userID, func(s *userSession) { delete(s.scratch, key) })
}

func (m *memoryManager) GetTemp(userID int64, key string) (any, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if s, ok := m.users[userID]; ok {
		v, ok := s.scratch[key]
		return v, ok
	}
	return nil, false
}

func (m *memoryManager) Handle(st State, h tele.HandlerFunc) {
	if h == nil || st == StateIdle {
		return
	}
	m.mu.Lock()
	m.handlers[st] = h
	m.mu.Unlock()
}

// handler returns the handler of the user's current step.
func (m *memoryManager) handler(userID int64) (State, tele.HandlerFunc) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.users[userID]
	if !ok {
		return StateIdle, nil
	}
	return s.step, m.handlers[s.step]
}

// InProgress reports whether the user is in a step that has a handler.
func (m *memoryManager) InProgress(userID int64) bool {
	_, h := m.handler(userID)
	return h != nil
}

// ManagerHandler passes c to the handler of the sender's current step.
func (m *memoryManager) ManagerHandler(c tele.Context) error {
	st, h := m.handler(c.Sender().ID)
	ctx := tghelpers.BuildContext(c)
	if h == nil {
		logger.Debug(ctx, "tg", "session.dispatch", slog.String("status", "skip"), slog.String("kind", string(st)))
		return nil
	}
	logger.Debug(ctx, "tg", "session.dispatch", slog.String("status", "ok"), slog.String("kind", string(st)))
	return h(c)
}
