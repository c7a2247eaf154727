// Package conversation drives the admin dialog: a small per-chat state
// machine for listing known chats, blocking ids, and sending messages on the
// bot's behalf.
package conversation

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/m3rciful/coinbot/core/logger"
	"github.com/m3rciful/coinbot/core/telegram/state"
	"github.com/m3rciful/coinbot/directory"
	"log/slog"
)

// Conversation states, keyed per chat in the FSM manager.
const (
	StateSelectingAction    state.State = "selecting_action"
	StateSelectingRecipient state.State = "selecting_recipient"
	StateWritingMessage     state.State = "writing_message"
)

// Action identifies a menu choice. The values double as callback keys.
type Action string

const (
	ActionUsers  Action = "admin_users"
	ActionGroups Action = "admin_groups"
	ActionBlock  Action = "admin_block"
	ActionSend   Action = "admin_send"
)

// Label returns the button caption shown in the admin menu.
func (a Action) Label() string {
	switch a {
	case ActionUsers:
		return "👥 Users"
	case ActionGroups:
		return "👥 Groups"
	case ActionBlock:
		return "🚫 Block"
	case ActionSend:
		return "✉️ Send"
	}
	return string(a)
}

// MenuActions lists the menu choices in display order.
func MenuActions() []Action {
	return []Action{ActionUsers, ActionGroups, ActionBlock, ActionSend}
}

// ErrNotActive is returned when input arrives for a chat without a live
// conversation in the expected state. Callers drop such input silently.
var ErrNotActive = errors.New("conversation: not active")

// Transport delivers messages to arbitrary chats on the bot's behalf.
type Transport interface {
	SendText(ctx context.Context, chatID int64, body string) error
}

// Reply is what the engine wants shown to the admin after a step.
type Reply struct {
	Text string
	// Done marks the conversation finished; no further input is expected.
	Done bool
}

const (
	menuText      = "What would you like to do?"
	blockPrompt   = "Send the id to block. Prefix group ids with \"g\" (e.g. g-100123)."
	sendPrompt    = "Send the message as: recipient | message"
	sendUsage     = "Wrong format. Use: recipient | message"
	cancelledText = "Cancelled."
)

// Engine runs admin conversations. Sessions are keyed by chat id, so two
// admins in different chats never share state and a second /admin in the
// same chat replaces the running conversation.
type Engine struct {
	store     directory.Store
	transport Transport
	sessions  state.Manager
}

// NewEngine wires the conversation engine.
func NewEngine(store directory.Store, transport Transport, sessions state.Manager) *Engine {
	return &Engine{store: store, transport: transport, sessions: sessions}
}

// Start opens (or restarts) the admin conversation for a chat and returns
// the menu to display.
func (e *Engine) Start(ctx context.Context, chatID int64) Reply {
	e.sessions.Set(chatID, StateSelectingAction)
	logger.Conv.LogAttrs(ctx, slog.LevelInfo, "session.start",
		slog.Int64("chat_id", chatID),
	)
	return Reply{Text: menuText}
}

// SelectAction handles a menu tap. Taps arriving while the chat is not in
// the menu step return ErrNotActive and change nothing.
func (e *Engine) SelectAction(ctx context.Context, chatID int64, action Action) (Reply, error) {
	if e.sessions.GetState(chatID) != StateSelectingAction {
		return Reply{}, ErrNotActive
	}

	switch action {
	case ActionUsers:
		e.sessions.Clear(chatID)
		text, err := e.renderListing(ctx, directory.KindUser)
		if err != nil {
			return Reply{}, err
		}
		return Reply{Text: text, Done: true}, nil

	case ActionGroups:
		e.sessions.Clear(chatID)
		text, err := e.renderListing(ctx, directory.KindGroup)
		if err != nil {
			return Reply{}, err
		}
		return Reply{Text: text, Done: true}, nil

	case ActionBlock:
		e.sessions.Set(chatID, StateSelectingRecipient)
		return Reply{Text: blockPrompt}, nil

	case ActionSend:
		e.sessions.Set(chatID, StateWritingMessage)
		return Reply{Text: sendPrompt}, nil
	}

	return Reply{}, fmt.Errorf("conversation: unknown action %q", action)
}

// HandleText routes a text message into the running conversation step.
func (e *Engine) HandleText(ctx context.Context, chatID int64, text string) (Reply, error) {
	switch e.sessions.GetState(chatID) {
	case StateSelectingRecipient:
		return e.handleBlockTarget(ctx, chatID, text)
	case StateWritingMessage:
		return e.handleSendInput(ctx, chatID, text)
	}
	return Reply{}, ErrNotActive
}

// Cancel aborts any running conversation in the chat.
func (e *Engine) Cancel(ctx context.Context, chatID int64) Reply {
	e.sessions.Clear(chatID)
	logger.Conv.LogAttrs(ctx, slog.LevelInfo, "session.cancel",
		slog.Int64("chat_id", chatID),
	)
	return Reply{Text: cancelledText, Done: true}
}

// InProgress reports whether the chat has a live conversation.
func (e *Engine) InProgress(chatID int64) bool {
	return e.sessions.InProgress(chatID)
}

// handleBlockTarget always ends the session: whatever the admin typed is
// filed as a literal identifier, the only parsing being the group prefix.
func (e *Engine) handleBlockTarget(ctx context.Context, chatID int64, target string) (Reply, error) {
	target = strings.TrimSpace(target)
	if err := e.store.Block(ctx, target); err != nil {
		if errors.Is(err, directory.ErrEmptyTarget) {
			e.sessions.Clear(chatID)
			return Reply{Text: "Empty id, nothing blocked.", Done: true}, nil
		}
		logger.Conv.LogAttrs(ctx, slog.LevelError, "block.failed",
			slog.Int64("chat_id", chatID),
			slog.String("target", logger.SanitizeLimit(target, 64)),
			slog.String("err", err.Error()),
		)
		return Reply{}, err
	}

	e.sessions.Clear(chatID)
	namespace, id, _ := directory.SplitTarget(target)
	logger.Conv.LogAttrs(ctx, slog.LevelInfo, "block.done",
		slog.Int64("chat_id", chatID),
		slog.String("namespace", namespace),
		slog.String("target", id),
	)
	return Reply{Text: fmt.Sprintf("🚫 Blocked %s/%s", namespace, id), Done: true}, nil
}

// handleSendInput ends the session on any outcome: a wrong field count
// aborts with a format error rather than waiting for another try.
func (e *Engine) handleSendInput(ctx context.Context, chatID int64, input string) (Reply, error) {
	e.sessions.Clear(chatID)

	parts := strings.Split(input, "|")
	if len(parts) != 2 {
		return Reply{Text: sendUsage, Done: true}, nil
	}
	recipientRaw := strings.TrimSpace(parts[0])
	body := strings.TrimSpace(parts[1])
	if recipientRaw == "" || body == "" {
		return Reply{Text: sendUsage, Done: true}, nil
	}

	recipient, err := parseRecipient(recipientRaw)
	if err != nil {
		return Reply{Text: "Bad recipient id. " + sendUsage, Done: true}, nil
	}

	if err := e.transport.SendText(ctx, recipient, body); err != nil {
		logger.Conv.LogAttrs(ctx, slog.LevelError, "send.failed",
			slog.Int64("chat_id", chatID),
			slog.Int64("recipient", recipient),
			slog.String("err", err.Error()),
		)
		return Reply{Text: fmt.Sprintf("❌ Delivery to %d failed: %s", recipient, err), Done: true}, nil
	}

	logger.Conv.LogAttrs(ctx, slog.LevelInfo, "send.done",
		slog.Int64("chat_id", chatID),
		slog.Int64("recipient", recipient),
	)
	return Reply{Text: fmt.Sprintf("✅ Delivered to %d", recipient), Done: true}, nil
}

// parseRecipient accepts a bare chat id, optionally carrying the same "g"
// prefix used by block targets.
func parseRecipient(raw string) (int64, error) {
	_, id, err := directory.SplitTarget(raw)
	if err != nil {
		return 0, err
	}
	return strconv.ParseInt(id, 10, 64)
}

func (e *Engine) renderListing(ctx context.Context, kind string) (string, error) {
	var (
		records []directory.ChatRecord
		err     error
		header  string
		empty   string
	)
	if kind == directory.KindGroup {
		records, err = e.store.ListGroups(ctx)
		header, empty = "Known groups:", "No groups yet."
	} else {
		records, err = e.store.ListUsers(ctx)
		header, empty = "Known users:", "No users yet."
	}
	if err != nil {
		return "", fmt.Errorf("conversation: listing %s: %w", kind, err)
	}
	if len(records) == 0 {
		return empty, nil
	}

	var b strings.Builder
	b.WriteString(header)
	for _, rec := range records {
		b.WriteString("\n")
		b.WriteString(rec.ID)
		if rec.DisplayName != "" {
			b.WriteString(" | ")
			b.WriteString(rec.DisplayName)
		}
		if !rec.LastSeen.IsZero() {
			b.WriteString(" (seen ")
			b.WriteString(rec.LastSeen.UTC().Format(time.DateTime))
			b.WriteString(")")
		}
	}
	return b.String(), nil
}
