// Package ui names the handlers a bot supplies for updates nothing else
// claims.
package ui

import tele "gopkg.in/telebot.v4"

// FallbackProvider supplies the handlers for text, media and button
// presses that match no command, callback or active session.
type FallbackProvider interface {
	UnknownText() tele.HandlerFunc
	UnknownMedia() tele.HandlerFunc
	UnknownCallback() tele.HandlerFunc
}
