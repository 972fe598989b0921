package handlers

import (
	"context"
	"log/slog"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

// sendReply sends text to a chat, attaching quick replies as a one-time
// reply keyboard when present. Send failures are logged, not returned;
// handlers have nobody to propagate them to.
func sendReply(ctx context.Context, b *bot.Bot, log *slog.Logger, chatID int64, text string, quickReplies []string) {
	params := &bot.SendMessageParams{ChatID: chatID, Text: text}

	if len(quickReplies) > 0 {
		keyboard := make([][]models.KeyboardButton, 0, len(quickReplies))
		for _, reply := range quickReplies {
			keyboard = append(keyboard, []models.KeyboardButton{{Text: reply}})
		}
		params.ReplyMarkup = &models.ReplyKeyboardMarkup{
			Keyboard:        keyboard,
			ResizeKeyboard:  true,
			OneTimeKeyboard: true,
		}
	}

	if _, err := b.SendMessage(ctx, params); err != nil {
		log.ErrorContext(ctx, "Failed to send reply", "error", err, "chat_id", chatID)
	}
}

// commandArgs returns the whitespace-separated arguments after the
// command word itself.
func commandArgs(text string) []string {
	fields := strings.Fields(text)
	if len(fields) <= 1 {
		return nil
	}
	return fields[1:]
}
