// Package state keeps per-user conversation steps for the bot: the current
// step, scratch values for it, and the handler that owns each step.
package state
