// Package state provides a lightweight FSM/session manager for Telegram bots.
// Sessions are keyed by chat id so conversations in different chats never
// interfere. The package is intentionally domain-agnostic so it can be
// reused across bots.
package state
