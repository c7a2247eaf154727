package middleware

import (
	"context"
	"strconv"

	"github.com/m3rciful/coinbot/core/logger"
	tghelpers "github.com/m3rciful/coinbot/core/telegram/helpers"
	"log/slog"

	tele "gopkg.in/telebot.v4"
)

// AdminOptions defines how admin-only checks should behave.
type AdminOptions struct {
	AdminIDs []int64
	OnReject tele.HandlerFunc
}

func (o AdminOptions) allows(userID int64) bool {
	for _, id := range o.AdminIDs {
		if id == userID {
			return true
		}
	}
	return false
}

// AdminOnlyMiddleware ensures that only listed admin users can invoke downstream handlers.
// Non-admin callers are dropped silently unless OnReject is provided.
func AdminOnlyMiddleware(opts AdminOptions) tele.MiddlewareFunc {
	return func(next tele.HandlerFunc) tele.HandlerFunc {
		return func(c tele.Context) error {
			if len(opts.AdminIDs) > 0 && !opts.allows(c.Sender().ID) {
				if opts.OnReject != nil {
					return opts.OnReject(c)
				}
				return nil
			}
			return next(c)
		}
	}
}

// BlockChecker reports whether a chat/user pair is on the block list.
// Identifiers are the directory's opaque string ids.
type BlockChecker interface {
	IsBlocked(ctx context.Context, chatID, userID string) (bool, error)
}

// BlockGuardMiddleware silently drops updates from blocked chats or users.
// Lookup failures fail open: blocking is a policy layer and a storage hiccup
// must not take the bot down with it.
func BlockGuardMiddleware(checker BlockChecker) tele.MiddlewareFunc {
	return func(next tele.HandlerFunc) tele.HandlerFunc {
		return func(c tele.Context) error {
			if checker == nil {
				return next(c)
			}
			chat := c.Chat()
			user := c.Sender()
			if chat == nil || user == nil {
				return next(c)
			}

			ctx := tghelpers.BuildContext(c)
			chatID := strconv.FormatInt(chat.ID, 10)
			userID := strconv.FormatInt(user.ID, 10)

			blocked, err := checker.IsBlocked(ctx, chatID, userID)
			if err != nil {
				logger.Warn(ctx, "tg", "block.check_failed",
					slog.Int64("chat_id", chat.ID),
					slog.Int64("user_id", user.ID),
					slog.String("err", err.Error()),
				)
				return next(c)
			}
			if blocked {
				logger.Debug(ctx, "tg", "update.blocked",
					slog.String("status", "skip"),
					slog.Int64("chat_id", chat.ID),
					slog.Int64("user_id", user.ID),
				)
				return nil
			}
			return next(c)
		}
	}
}
