package app

import (
	"errors"

	"github.com/m3rciful/coinbot/conversation"
	"github.com/m3rciful/coinbot/core/logger"
	coretelegram "github.com/m3rciful/coinbot/core/telegram"
	"github.com/m3rciful/coinbot/core/telegram/callbacks"
	"github.com/m3rciful/coinbot/core/telegram/commands"
	tghelpers "github.com/m3rciful/coinbot/core/telegram/helpers"
	"github.com/m3rciful/coinbot/core/telegram/keyboard"
	"github.com/m3rciful/coinbot/core/telegram/state"
	"github.com/m3rciful/coinbot/quote"
	"github.com/m3rciful/coinbot/token"
	"log/slog"

	tele "gopkg.in/telebot.v4"
)

const (
	startText       = "Hi! Send /p SYMBOL to get a coin quote, e.g. /p btc."
	priceUsage      = "Usage: /p SYMBOL (e.g. /p btc)"
	notFoundText    = "Unknown symbol. Check the ticker and try again."
	unavailableText = "Market data is unavailable right now, try again later."
	refreshLabel    = "🔄 Refresh"
	menuHintText    = "Use the menu buttons, or /cancel to quit."
)

func (a *App) registerHandlers(reg *coretelegram.Registry) {
	reg.RegisterCommand("/start", commands.Command{
		Handler:     a.handleStart,
		Description: "Start the bot",
	})
	reg.RegisterCommand("/p", commands.Command{
		Handler:     a.handlePrice,
		Description: "Coin price by ticker symbol",
		Aliases:     []string{"/price"},
	})
	reg.RegisterCommand("/admin", commands.Command{
		Handler:     a.handleAdmin,
		Description: "Admin console",
		AdminOnly:   true,
		Hidden:      true,
	})
	reg.RegisterCommand("/cancel", commands.Command{
		Handler:     a.handleCancel,
		Description: "Cancel the running conversation",
		AdminOnly:   true,
		Hidden:      true,
	})

	_ = reg.RegisterCallback(token.ActionRefresh, a.handleRefresh)
	for _, action := range conversation.MenuActions() {
		_ = reg.RegisterCallback(string(action), a.handleAdminAction(action))
	}

	state.RegisterHandler(conversation.StateSelectingAction, a.handleMenuHint)
	state.RegisterHandler(conversation.StateSelectingRecipient, a.handleConversationText)
	state.RegisterHandler(conversation.StateWritingMessage, a.handleConversationText)
}

func (a *App) handleStart(c tele.Context) error {
	return tghelpers.SendText(c, startText)
}

func (a *App) handlePrice(c tele.Context) error {
	ctx := tghelpers.BuildContext(c)
	args := c.Args()
	if len(args) == 0 {
		return tghelpers.SendText(c, priceUsage)
	}

	snap, err := a.quotes.Lookup(ctx, args[0])
	switch {
	case errors.Is(err, quote.ErrNotFound):
		return tghelpers.SendText(c, notFoundText)
	case err != nil:
		return tghelpers.SendText(c, unavailableText)
	}

	return tghelpers.SendMD(c, quote.RenderCard(snap), a.refreshMarkup(snap))
}

func (a *App) handleRefresh(c tele.Context) error {
	ctx := tghelpers.BuildContext(c)

	tok, err := token.Decode(callbacks.CallbackPayload(c))
	if err != nil || tok.Action != token.ActionRefresh {
		logger.TG.LogAttrs(ctx, slog.LevelWarn, "refresh.bad_token",
			slog.String("err", errString(err)),
		)
		return nil
	}

	snap, err := a.quotes.Lookup(ctx, tok.Symbol)
	switch {
	case errors.Is(err, quote.ErrNotFound):
		_ = c.Respond(&tele.CallbackResponse{Text: notFoundText})
		return nil
	case err != nil:
		_ = c.Respond(&tele.CallbackResponse{Text: unavailableText})
		return nil
	}

	return tghelpers.EditOrSendMD(c, quote.RenderCard(snap), a.refreshMarkup(snap))
}

// refreshMarkup attaches the refresh button carrying the snapshot token.
// A snapshot whose symbol cannot be encoded gets no button.
func (a *App) refreshMarkup(snap quote.Snapshot) *tele.ReplyMarkup {
	raw, err := token.Encode(token.ActionRefresh, snap.Symbol, snap.MarketCapUSD)
	if err != nil {
		return nil
	}
	return keyboard.InlineButtons([]keyboard.InlineBtn{{
		Text:   refreshLabel,
		Unique: token.ActionRefresh,
		Data:   raw,
	}})
}

func (a *App) handleAdmin(c tele.Context) error {
	chat := c.Chat()
	if chat == nil {
		return nil
	}
	ctx := tghelpers.BuildContext(c)
	reply := a.engine.Start(ctx, chat.ID)

	buttons := make([]keyboard.InlineBtn, 0, len(conversation.MenuActions()))
	for _, action := range conversation.MenuActions() {
		buttons = append(buttons, keyboard.InlineBtn{
			Text:   action.Label(),
			Unique: string(action),
		})
	}
	markup := keyboard.InlineButtonsNPerRow(buttons, 2)
	return tghelpers.SendText(c, reply.Text, &tele.SendOptions{ReplyMarkup: markup})
}

func (a *App) handleAdminAction(action conversation.Action) tele.HandlerFunc {
	return func(c tele.Context) error {
		chat := c.Chat()
		sender := c.Sender()
		if chat == nil || sender == nil || !a.cfg.Core.Telegram.IsAdmin(sender.ID) {
			return nil
		}
		ctx := tghelpers.BuildContext(c)

		reply, err := a.engine.SelectAction(ctx, chat.ID, action)
		if errors.Is(err, conversation.ErrNotActive) {
			return nil
		}
		if err != nil {
			return err
		}
		return tghelpers.SendText(c, reply.Text)
	}
}

func (a *App) handleCancel(c tele.Context) error {
	chat := c.Chat()
	if chat == nil {
		return nil
	}
	ctx := tghelpers.BuildContext(c)
	reply := a.engine.Cancel(ctx, chat.ID)
	return tghelpers.SendText(c, reply.Text)
}

// handleConversationText feeds chat text into the running admin conversation.
// Only admins may drive it; text from anyone else in the same chat is ignored.
func (a *App) handleConversationText(c tele.Context) error {
	chat := c.Chat()
	sender := c.Sender()
	if chat == nil || sender == nil || !a.cfg.Core.Telegram.IsAdmin(sender.ID) {
		return nil
	}
	ctx := tghelpers.BuildContext(c)

	reply, err := a.engine.HandleText(ctx, chat.ID, c.Text())
	if errors.Is(err, conversation.ErrNotActive) {
		return nil
	}
	if err != nil {
		return err
	}
	return tghelpers.SendText(c, reply.Text)
}

func (a *App) handleMenuHint(c tele.Context) error {
	sender := c.Sender()
	if sender == nil || !a.cfg.Core.Telegram.IsAdmin(sender.ID) {
		return nil
	}
	return tghelpers.SendText(c, menuHintText)
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
