package state

import tele "gopkg.in/telebot.v4"

// State names a conversation step.
type State string

// StateIdle means no conversation is in progress.
const StateIdle State = "idle"

// Manager tracks each user's step and scratch values and routes the
// user's messages to the handler of the current step.
type Manager interface {
	SetState(userID int64, st State)
	GetState(userID int64) State
	// ClearState returns the user to StateIdle and keeps scratch values.
	ClearState(userID int64)

	SetTemp(userID int64, key string, value any)
	GetTemp(userID int64, key string) (any, bool)
	ClearTemp(userID int64, key string)

	Handle(st State, h tele.HandlerFunc)
	InProgress(userID int64) bool
	ManagerHandler(c tele.Context) error
}

// Temp reads a scratch value of type T.
func Temp[T any](m Manager, userID int64, key string) (T, bool) {
	v, _ := m.GetTemp(userID, key)
	t, ok := v.(T)
	return t, ok
}
