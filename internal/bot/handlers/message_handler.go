package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/croplink/agrobot/internal/database"
	"github.com/croplink/agrobot/internal/intent"
	"github.com/croplink/agrobot/internal/ratelimit"
)

type messageHandler struct {
	deps HandlerDeps
}

// NewMessageHandler creates the default handler for free-text messages:
// classify the intent, extract entities, generate a response, and record
// the exchange. Generation is total, so the user always gets a reply.
func NewMessageHandler(deps HandlerDeps) bot.HandlerFunc {
	return messageHandler{deps}.Handle
}

func (h messageHandler) Handle(ctx context.Context, b *bot.Bot, update *models.Update) {
	deps := h.deps
	log := deps.Logger.With("handler", "message")

	msg := update.Message
	if msg == nil || msg.From == nil || strings.TrimSpace(msg.Text) == "" {
		log.DebugContext(ctx, "Ignoring update with nil message, empty text, or nil sender", "update_id", update.ID)
		return
	}
	if strings.HasPrefix(msg.Text, "/") {
		// Unknown commands fall through to the default handler; they are
		// not conversation.
		log.DebugContext(ctx, "Ignoring unknown command", "chat_id", msg.Chat.ID)
		return
	}

	chatID := msg.Chat.ID

	account, err := deps.Store.EnsureAccount(ctx, chatID)
	if err != nil {
		log.ErrorContext(ctx, "Failed to ensure account", "error", err, "chat_id", chatID)
		sendReply(ctx, b, log, chatID, deps.Config.Messages.GeneralError, nil)
		return
	}
	if account.IsBanned {
		sendReply(ctx, b, log, chatID, deps.Config.Messages.Banned, nil)
		return
	}

	decision := deps.Governor.Consume(chatID, ratelimit.Message)
	if !decision.Allowed {
		text := fmt.Sprintf("%s Try again in %s.",
			deps.Config.Messages.RateLimited, decision.RetryAfter.Round(time.Second))
		sendReply(ctx, b, log, chatID, text, nil)
		return
	}
	deps.Governor.RecordMessage(chatID)

	start := time.Now()
	classified := intent.Classify(msg.Text)
	entities := intent.ExtractEntities(msg.Text)
	response := deps.Responder.Generate(ctx, classified, entities, msg.Text, account)
	latency := time.Since(start)

	log.InfoContext(ctx, "Handled message",
		"chat_id", chatID, "intent", classified.String(),
		"entities", len(entities), "confidence", response.Confidence,
		"latency", latency)

	sendReply(ctx, b, log, chatID, response.Text, response.QuickReplies)

	entitiesJSON, err := json.Marshal(entities)
	if err != nil {
		entitiesJSON = []byte("[]")
	}
	conversation := &database.Conversation{
		ChatID:     chatID,
		Message:    msg.Text,
		Response:   response.Text,
		Intent:     classified.String(),
		Entities:   string(entitiesJSON),
		Confidence: response.Confidence,
		ModelTag:   response.ModelTag,
		LatencyMS:  latency.Milliseconds(),
	}
	if err := deps.Store.SaveConversation(ctx, conversation); err != nil {
		log.WarnContext(ctx, "Failed to save conversation", "error", err, "chat_id", chatID)
	}
	if err := deps.Store.TouchInteraction(ctx, chatID, false); err != nil {
		log.WarnContext(ctx, "Failed to touch interaction", "error", err, "chat_id", chatID)
	}
}
