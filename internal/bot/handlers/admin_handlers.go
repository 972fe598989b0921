package handlers

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/croplink/agrobot/internal/database"
)

// NewStatsHandler returns a handler for the admin /stats command.
func NewStatsHandler(deps HandlerDeps) bot.HandlerFunc {
	return statsHandler{deps}.Handle
}

type statsHandler struct {
	deps HandlerDeps
}

func (h statsHandler) Handle(ctx context.Context, b *bot.Bot, update *models.Update) {
	log := h.deps.Logger.With("handler", "stats")

	if update.Message == nil || update.Message.From == nil {
		return
	}
	chatID := update.Message.Chat.ID

	total, err := h.deps.Store.CountAccounts(ctx)
	if err != nil {
		log.ErrorContext(ctx, "Failed to count accounts", "error", err, "chat_id", chatID)
		sendReply(ctx, b, log, chatID, h.deps.Config.Messages.GeneralError, nil)
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("📊 Stats\n\nAccounts: %d\n", total))

	// Optional per-user drill-down: /stats <chat_id>
	if args := commandArgs(update.Message.Text); len(args) == 1 {
		if target, err := strconv.ParseInt(args[0], 10, 64); err == nil {
			since := time.Now().UTC().AddDate(0, 0, -30)
			count, _ := h.deps.Store.CountConversationsSince(ctx, target, since)
			sb.WriteString(fmt.Sprintf("\nUser %d over 30 days:\nConversations: %d\n", target, count))
			sb.WriteString(fmt.Sprintf("Trust score: %.2f\n", h.deps.Governor.TrustScore(target)))

			if breakdown, err := h.deps.Store.IntentBreakdown(ctx, target, since); err == nil {
				for _, row := range breakdown {
					sb.WriteString(fmt.Sprintf("  %s: %d\n", row.Intent, row.Count))
				}
			}
		}
	}

	sendReply(ctx, b, log, chatID, strings.TrimSpace(sb.String()), nil)
}

// NewBanHandler returns a handler for the admin /ban <chat_id> [reason] command.
func NewBanHandler(deps HandlerDeps) bot.HandlerFunc {
	return banHandler{deps: deps, ban: true}.Handle
}

// NewUnbanHandler returns a handler for the admin /unban <chat_id> command.
func NewUnbanHandler(deps HandlerDeps) bot.HandlerFunc {
	return banHandler{deps: deps, ban: false}.Handle
}

type banHandler struct {
	deps HandlerDeps
	ban  bool
}

func (h banHandler) Handle(ctx context.Context, b *bot.Bot, update *models.Update) {
	name := "unban"
	if h.ban {
		name = "ban"
	}
	log := h.deps.Logger.With("handler", name)

	if update.Message == nil || update.Message.From == nil {
		return
	}
	chatID := update.Message.Chat.ID

	args := commandArgs(update.Message.Text)
	if len(args) == 0 {
		sendReply(ctx, b, log, chatID, fmt.Sprintf("Usage: /%s <chat_id> [reason]", name), nil)
		return
	}

	target, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		sendReply(ctx, b, log, chatID, "chat_id must be a number.", nil)
		return
	}

	reason := ""
	if h.ban && len(args) > 1 {
		reason = strings.Join(args[1:], " ")
	}

	if err := h.deps.Store.SetBanned(ctx, target, h.ban, reason); err != nil {
		log.ErrorContext(ctx, "Failed to update ban state", "error", err, "target", target)
		sendReply(ctx, b, log, chatID, h.deps.Config.Messages.GeneralError, nil)
		return
	}

	if h.ban {
		h.deps.Governor.RecordReport(target)
		sendReply(ctx, b, log, chatID, fmt.Sprintf("🚫 Banned %d.", target), nil)
	} else {
		h.deps.Governor.ResetAll(target)
		sendReply(ctx, b, log, chatID, fmt.Sprintf("✅ Unbanned %d.", target), nil)
	}
}

// NewGrantHandler returns a handler for the admin
// /grant <chat_id> <free|premium|pro> [days] command.
func NewGrantHandler(deps HandlerDeps) bot.HandlerFunc {
	return grantHandler{deps}.Handle
}

type grantHandler struct {
	deps HandlerDeps
}

func (h grantHandler) Handle(ctx context.Context, b *bot.Bot, update *models.Update) {
	log := h.deps.Logger.With("handler", "grant")

	if update.Message == nil || update.Message.From == nil {
		return
	}
	chatID := update.Message.Chat.ID

	args := commandArgs(update.Message.Text)
	if len(args) < 2 {
		sendReply(ctx, b, log, chatID, "Usage: /grant <chat_id> <free|premium|pro> [days]", nil)
		return
	}

	target, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		sendReply(ctx, b, log, chatID, "chat_id must be a number.", nil)
		return
	}

	tier := strings.ToLower(args[1])
	var expiresAt time.Time
	if tier != database.TierFree {
		days := 30
		if len(args) > 2 {
			if parsed, err := strconv.Atoi(args[2]); err == nil && parsed > 0 {
				days = parsed
			}
		}
		expiresAt = time.Now().UTC().AddDate(0, 0, days)
	}

	if err := h.deps.Store.SetSubscription(ctx, target, tier, expiresAt); err != nil {
		log.ErrorContext(ctx, "Failed to update subscription", "error", err, "target", target)
		sendReply(ctx, b, log, chatID, h.deps.Config.Messages.GeneralError, nil)
		return
	}

	log.InfoContext(ctx, "Subscription granted", "target", target, "tier", tier)
	sendReply(ctx, b, log, chatID, fmt.Sprintf("⭐ %d is now on the %s tier.", target, tier), nil)
}
