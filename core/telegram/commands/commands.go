// Package commands describes slash commands kept in the telegram registry.
package commands

import tele "gopkg.in/telebot.v4"

// Command is one slash command. Admin-only commands are wrapped in the
// admin check and left out of the public command menu.
type Command struct {
	Handler     tele.HandlerFunc
	Description string
	AdminOnly   bool
}
