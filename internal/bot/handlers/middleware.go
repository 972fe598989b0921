// Package handlers contains Telegram bot command and message handlers,
// along with their registration logic and middleware.
package handlers

import (
	"context"
	"fmt"
	"time"

	tgbot "github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/croplink/agrobot/internal/ratelimit"
)

// AdminOnly creates a middleware that checks if the message sender is the
// configured admin user. Anyone else gets the not-authorized message and
// processing stops.
func AdminOnly(deps HandlerDeps) tgbot.Middleware {
	return func(next tgbot.HandlerFunc) tgbot.HandlerFunc {
		return func(ctx context.Context, bot *tgbot.Bot, update *models.Update) {
			if update.Message == nil || update.Message.From == nil {
				next(ctx, bot, update)
				return
			}

			userID := update.Message.From.ID
			if userID != deps.Config.Telegram.AdminUserID {
				chatID := update.Message.Chat.ID
				log := deps.Logger.With("middleware", "AdminOnly")
				log.WarnContext(ctx, "Unauthorized access attempt", "user_id", userID, "chat_id", chatID)
				sendReply(ctx, bot, log, chatID, deps.Config.Messages.NotAuthorized, nil)
				return
			}

			next(ctx, bot, update)
		}
	}
}

// UserGuard creates the middleware applied to every user-facing command:
// banned accounts are rejected, the command rate bucket is charged, and
// the trust model and interaction counters are fed.
func UserGuard(deps HandlerDeps) tgbot.Middleware {
	return func(next tgbot.HandlerFunc) tgbot.HandlerFunc {
		return func(ctx context.Context, bot *tgbot.Bot, update *models.Update) {
			if update.Message == nil || update.Message.From == nil {
				return
			}

			chatID := update.Message.Chat.ID
			log := deps.Logger.With("middleware", "UserGuard")

			account, err := deps.Store.EnsureAccount(ctx, chatID)
			if err != nil {
				log.ErrorContext(ctx, "Failed to ensure account", "error", err, "chat_id", chatID)
				sendReply(ctx, bot, log, chatID, deps.Config.Messages.GeneralError, nil)
				return
			}
			if account.IsBanned {
				sendReply(ctx, bot, log, chatID, deps.Config.Messages.Banned, nil)
				return
			}

			decision := deps.Governor.Consume(chatID, ratelimit.Command)
			if !decision.Allowed {
				text := fmt.Sprintf("%s Try again in %s.",
					deps.Config.Messages.RateLimited, decision.RetryAfter.Round(time.Second))
				sendReply(ctx, bot, log, chatID, text, nil)
				return
			}

			deps.Governor.RecordCommand(chatID)
			if err := deps.Store.TouchInteraction(ctx, chatID, true); err != nil {
				log.WarnContext(ctx, "Failed to touch interaction", "error", err, "chat_id", chatID)
			}

			next(ctx, bot, update)
		}
	}
}
