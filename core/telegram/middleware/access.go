// Package middleware holds the telebot middlewares shared by every route.
package middleware

import tele "gopkg.in/telebot.v4"

// AdminOptions configures AdminOnly.
type AdminOptions struct {
	AdminID  int64
	OnReject tele.HandlerFunc
}

// AdminOnly lets only opts.AdminID through. Everyone else gets OnReject,
// or silence when it is nil.
func AdminOnly(opts AdminOptions) tele.MiddlewareFunc {
	return func(next tele.HandlerFunc) tele.HandlerFunc {
		return func(c tele.Context) error {
			if u := c.Sender(); u != nil && u.ID == opts.AdminID {
				return next(c)
			}
			if opts.OnReject != nil {
				return opts.OnReject(c)
			}
			return nil
		}
	}
}
