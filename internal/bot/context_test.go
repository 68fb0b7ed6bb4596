package bot

import (
	tele "gopkg.in/telebot.v4"
)

type outgoing struct {
	What any
	Opts []any
}

// fakeContext implements the parts of tele.Context the handlers touch.
// Anything else panics through the nil embedded interface.
type fakeContext struct {
	tele.Context

	sender *tele.User
	chat   *tele.Chat
	msg    *tele.Message
	cb     *tele.Callback
	store  map[string]any

	sent  []outgoing
	edits []outgoing
}

func newMessageContext(userID int64, msg *tele.Message) *fakeContext {
	user := &tele.User{ID: userID, FirstName: "User", Username: "u"}
	chat := &tele.Chat{ID: userID, Type: tele.ChatPrivate}
	if msg == nil {
		msg = &tele.Message{}
	}
	msg.Sender, msg.Chat = user, chat
	return &fakeContext{sender: user, chat: chat, msg: msg, store: map[string]any{}}
}

func newCallbackContext(userID int64, unique, payload string) *fakeContext {
	c := newMessageContext(userID, &tele.Message{ID: 42})
	c.cb = &tele.Callback{ID: "cb", Sender: c.sender, Message: c.msg, Unique: unique, Data: payload}
	return c
}

func (f *fakeContext) Sender() *tele.User       { return f.sender }
func (f *fakeContext) Chat() *tele.Chat         { return f.chat }
func (f *fakeContext) Message() *tele.Message   { return f.msg }
func (f *fakeContext) Callback() *tele.Callback { return f.cb }
func (f *fakeContext) Get(key string) any       { return f.store[key] }
func (f *fakeContext) Set(key string, v any)    { f.store[key] = v }

func (f *fakeContext) Text() string {
	if f.cb != nil || f.msg == nil {
		return ""
	}
	return f.msg.Text
}

func (f *fakeContext) Update() tele.Update {
	if f.cb != nil {
		return tele.Update{ID: 7, Callback: f.cb}
	}
	return tele.Update{ID: 7, Message: f.msg}
}

func (f *fakeContext) Send(what any, opts ...any) error {
	f.sent = append(f.sent, outgoing{What: what, Opts: opts})
	return nil
}

func (f *fakeContext) Edit(what any, opts ...any) error {
	f.edits = append(f.edits, outgoing{What: what, Opts: opts})
	return nil
}

func (f *fakeContext) EditOrSend(what any, opts ...any) error {
	return f.Edit(what, opts...)
}

func (f *fakeContext) Respond(...*tele.CallbackResponse) error { return nil }

func (f *fakeContext) sentTexts() []string {
	var out []string
	for _, o := range f.sent {
		if s, ok := o.What.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

func (f *fakeContext) lastEdit() string {
	if len(f.edits) == 0 {
		return ""
	}
	s, _ := f.edits[len(f.edits)-1].What.(string)
	return s
}

func markupOf(o outgoing) *tele.ReplyMarkup {
	for _, opt := range o.Opts {
		switch v := opt.(type) {
		case *tele.ReplyMarkup:
			return v
		case *tele.SendOptions:
			if v != nil {
				return v.ReplyMarkup
			}
		}
	}
	return nil
}
