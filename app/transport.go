package app

import (
	"context"
	"errors"
	"sync/atomic"

	tele "gopkg.in/telebot.v4"
)

// errTransportNotReady is returned for sends attempted before the bot is up.
var errTransportNotReady = errors.New("app: bot transport not ready")

// botTransport delivers messages to arbitrary chats. The underlying bot only
// exists once the Telegram runtime has started, so it is bound late.
type botTransport struct {
	bot atomic.Pointer[tele.Bot]
}

func newBotTransport() *botTransport {
	return &botTransport{}
}

// Bind attaches the live bot instance.
func (t *botTransport) Bind(b *tele.Bot) {
	t.bot.Store(b)
}

// SendText implements conversation.Transport.
func (t *botTransport) SendText(_ context.Context, chatID int64, body string) error {
	bot := t.bot.Load()
	if bot == nil {
		return errTransportNotReady
	}
	_, err := bot.Send(tele.ChatID(chatID), body)
	return err
}
