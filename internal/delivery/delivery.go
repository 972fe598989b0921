// Package delivery abstracts pushing a rendered message to one chat
// participant. Broadcast jobs and handlers depend on the Sender
// interface so tests can substitute a fake channel.
package delivery

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

// Sender is the delivery channel contract. Failures are per-call and
// must be catchable by the caller; one recipient's failure never affects
// another's.
type Sender interface {
	Send(ctx context.Context, chatID int64, text string, quickReplies []string) error
}

type telegramSender struct {
	bot *bot.Bot
	log *slog.Logger
}

// NewTelegramSender wraps a Telegram bot as a Sender. Quick replies are
// rendered as a one-time reply keyboard.
func NewTelegramSender(b *bot.Bot, log *slog.Logger) Sender {
	return &telegramSender{
		bot: b,
		log: log.With("component", "telegram_sender"),
	}
}

func (s *telegramSender) Send(ctx context.Context, chatID int64, text string, quickReplies []string) error {
	params := &bot.SendMessageParams{
		ChatID: chatID,
		Text:   text,
	}

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

	if _, err := s.bot.SendMessage(ctx, params); err != nil {
		s.log.DebugContext(ctx, "Send failed", "chat_id", chatID, "error", err)
		return fmt.Errorf("failed to send message to chat %d: %w", chatID, err)
	}
	return nil
}
