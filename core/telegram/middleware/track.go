package middleware

import (
	"context"
	"strconv"
	"time"

	"github.com/m3rciful/coinbot/core/logger"
	tghelpers "github.com/m3rciful/coinbot/core/telegram/helpers"
	"log/slog"

	tele "gopkg.in/telebot.v4"
)

// Chat kinds recorded by the tracker.
const (
	KindUser  = "user"
	KindGroup = "group"
)

// SeenRecorder upserts a chat sighting into the chat directory.
type SeenRecorder interface {
	RecordSeen(ctx context.Context, chatID, kind, displayName string, seenAt time.Time) error
}

// TrackMiddleware records every inbound update into the chat directory
// before any handler runs. Recording is best effort: a failure is logged
// and the update proceeds.
func TrackMiddleware(recorder SeenRecorder) tele.MiddlewareFunc {
	return func(next tele.HandlerFunc) tele.HandlerFunc {
		return func(c tele.Context) error {
			if recorder == nil {
				return next(c)
			}
			chat := c.Chat()
			if chat == nil {
				return next(c)
			}

			ctx := tghelpers.BuildContext(c)
			kind := KindGroup
			if chat.Type == tele.ChatPrivate {
				kind = KindUser
			}
			if err := recorder.RecordSeen(ctx, strconv.FormatInt(chat.ID, 10), kind, chatDisplayName(chat), time.Now()); err != nil {
				logger.Warn(ctx, "tg", "track.failed",
					slog.Int64("chat_id", chat.ID),
					slog.String("chat_type", string(chat.Type)),
					slog.String("err", err.Error()),
				)
			}
			return next(c)
		}
	}
}

func chatDisplayName(chat *tele.Chat) string {
	if chat == nil {
		return ""
	}
	if chat.Type == tele.ChatPrivate {
		name := chat.FirstName
		if chat.LastName != "" {
			if name != "" {
				name += " "
			}
			name += chat.LastName
		}
		if name == "" {
			name = chat.Username
		}
		return name
	}
	return chat.Title
}
