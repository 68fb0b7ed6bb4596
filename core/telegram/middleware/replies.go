package middleware

import tele "gopkg.in/telebot.v4"

const repliesKey = "replies"

// Replies counts what a handler sent back for one update.
type Replies struct {
	Messages int
	Keyboard bool
}

// countingContext records successful sends and edits in a Replies value.
type countingContext struct {
	tele.Context
	r *Replies
}

func (c countingContext) note(err error, opts []any) error {
	if err != nil {
		return err
	}
	c.r.Messages++
	for _, o := range opts {
		switch v := o.(type) {
		case *tele.ReplyMarkup:
			c.r.Keyboard = c.r.Keyboard || v != nil
		case *tele.SendOptions:
			c.r.Keyboard = c.r.Keyboard || (v != nil && v.ReplyMarkup != nil)
		}
	}
	return nil
}

func (c countingContext) Send(what any, opts ...any) error {
	return c.note(c.Context.Send(what, opts...), opts)
}

func (c countingContext) Reply(what any, opts ...any) error {
	return c.note(c.Context.Reply(what, opts...), opts)
}

func (c countingContext) Edit(what any, opts ...any) error {
	return c.note(c.Context.Edit(what, opts...), opts)
}

func (c countingContext) EditOrSend(what any, opts ...any) error {
	return c.note(c.Context.EditOrSend(what, opts...), opts)
}

// CountReplies wraps the context so RepliesOf can report what the handler
// sent.
func CountReplies(next tele.HandlerFunc) tele.HandlerFunc {
	return func(c tele.Context) error {
		r := &Replies{}
		c.Set(repliesKey, r)
		return next(countingContext{Context: c, r: r})
	}
}

// RepliesOf returns the counters set up by CountReplies, or zero values.
func RepliesOf(c tele.Context) Replies {
	if r, ok := c.Get(repliesKey).(*Replies); ok {
		return *r
	}
	return Replies{}
}
