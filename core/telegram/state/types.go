package state

import (
	"time"

	tele "gopkg.in/telebot.v4"
)

// State identifies a finite-state-machine step used in conversations.
type State string

const (
	// StateIdle indicates there is no active conversation in the chat.
	StateIdle State = "idle"
)

// Session stores the conversation step for a chat.
type Session struct {
	State     State
	StartedAt time.Time
}

// Manager orchestrates per-chat sessions and FSM state transitions.
// At most one session exists per chat id; setting a state while a session
// is live replaces the step in place, and Clear discards the session.
type Manager interface {
	Get(chatID int64) Session
	Set(chatID int64, st State)
	Clear(chatID int64)

	GetState(chatID int64) State
	HasState(chatID int64) bool

	InProgress(chatID int64) bool
	ManagerHandler(c tele.Context) error
}
