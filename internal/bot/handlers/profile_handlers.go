package handlers

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/croplink/agrobot/internal/database"
)

// NewProfileHandler returns a handler for the /profile command.
func NewProfileHandler(deps HandlerDeps) bot.HandlerFunc {
	return profileHandler{deps}.Handle
}

type profileHandler struct {
	deps HandlerDeps
}

func (h profileHandler) Handle(ctx context.Context, b *bot.Bot, update *models.Update) {
	log := h.deps.Logger.With("handler", "profile")

	if update.Message == nil || update.Message.From == nil {
		return
	}
	chatID := update.Message.Chat.ID

	account, err := h.deps.Store.GetAccount(ctx, chatID)
	if err != nil || account == nil {
		log.ErrorContext(ctx, "Failed to load account for profile", "error", err, "chat_id", chatID)
		sendReply(ctx, b, log, chatID, h.deps.Config.Messages.GeneralError, nil)
		return
	}

	sendReply(ctx, b, log, chatID, renderProfile(account), nil)
}

func renderProfile(a *database.Account) string {
	orUnset := func(s string) string {
		if strings.TrimSpace(s) == "" {
			return "not set"
		}
		return s
	}

	location := orUnset(strings.TrimSpace(strings.Join(nonEmpty(a.City, a.State, a.Country), ", ")))
	coords := "not set"
	if a.HasCoordinates() {
		coords = fmt.Sprintf("%.4f, %.4f", a.Latitude.Float64, a.Longitude.Float64)
	}

	return fmt.Sprintf(
		"👤 Your profile\n\n"+
			"Location: %s\n"+
			"Coordinates: %s\n"+
			"Crops: %s\n"+
			"Experience: %s\n"+
			"Tier: %s\n\n"+
			"Notifications: weather %s, market %s, tips %s, alerts %s",
		location, coords, orUnset(a.Crops), orUnset(a.Experience), a.Tier,
		onOff(a.NotifyWeather), onOff(a.NotifyMarket), onOff(a.NotifyTips), onOff(a.NotifyAlerts))
}

func nonEmpty(parts ...string) []string {
	var out []string
	for _, p := range parts {
		if strings.TrimSpace(p) != "" {
			out = append(out, p)
		}
	}
	return out
}

func onOff(v bool) string {
	if v {
		return "on"
	}
	return "off"
}

// NewSetLocationHandler returns a handler for /setlocation <lat> <lon> [city].
func NewSetLocationHandler(deps HandlerDeps) bot.HandlerFunc {
	return setLocationHandler{deps}.Handle
}

type setLocationHandler struct {
	deps HandlerDeps
}

func (h setLocationHandler) Handle(ctx context.Context, b *bot.Bot, update *models.Update) {
	log := h.deps.Logger.With("handler", "setlocation")

	if update.Message == nil || update.Message.From == nil {
		return
	}
	chatID := update.Message.Chat.ID

	args := commandArgs(update.Message.Text)
	if len(args) < 2 {
		sendReply(ctx, b, log, chatID, "Usage: /setlocation <latitude> <longitude> [city]", nil)
		return
	}

	lat, errLat := strconv.ParseFloat(args[0], 64)
	lon, errLon := strconv.ParseFloat(args[1], 64)
	if errLat != nil || errLon != nil || lat < -90 || lat > 90 || lon < -180 || lon > 180 {
		sendReply(ctx, b, log, chatID, "Coordinates must be numbers: latitude -90..90, longitude -180..180.", nil)
		return
	}

	account, err := h.deps.Store.GetAccount(ctx, chatID)
	if err != nil || account == nil {
		log.ErrorContext(ctx, "Failed to load account for setlocation", "error", err, "chat_id", chatID)
		sendReply(ctx, b, log, chatID, h.deps.Config.Messages.GeneralError, nil)
		return
	}

	account.Latitude = sql.NullFloat64{Float64: lat, Valid: true}
	account.Longitude = sql.NullFloat64{Float64: lon, Valid: true}
	if len(args) > 2 {
		account.City = strings.Join(args[2:], " ")
	}

	if err := h.deps.Store.UpsertAccount(ctx, account); err != nil {
		log.ErrorContext(ctx, "Failed to save location", "error", err, "chat_id", chatID)
		sendReply(ctx, b, log, chatID, h.deps.Config.Messages.GeneralError, nil)
		return
	}

	log.InfoContext(ctx, "Location updated", "chat_id", chatID)
	sendReply(ctx, b, log, chatID, "📍 Location saved. Daily weather updates will use these coordinates.", nil)
}

// NewSetCropsHandler returns a handler for /setcrops <crop,crop,...>.
func NewSetCropsHandler(deps HandlerDeps) bot.HandlerFunc {
	return setCropsHandler{deps}.Handle
}

type setCropsHandler struct {
	deps HandlerDeps
}

func (h setCropsHandler) Handle(ctx context.Context, b *bot.Bot, update *models.Update) {
	log := h.deps.Logger.With("handler", "setcrops")

	if update.Message == nil || update.Message.From == nil {
		return
	}
	chatID := update.Message.Chat.ID

	args := commandArgs(update.Message.Text)
	if len(args) == 0 {
		sendReply(ctx, b, log, chatID, "Usage: /setcrops corn,wheat,tomato", nil)
		return
	}

	var crops []string
	for _, part := range strings.Split(strings.Join(args, ","), ",") {
		if part = strings.ToLower(strings.TrimSpace(part)); part != "" {
			crops = append(crops, part)
		}
	}
	if len(crops) == 0 {
		sendReply(ctx, b, log, chatID, "Usage: /setcrops corn,wheat,tomato", nil)
		return
	}

	account, err := h.deps.Store.GetAccount(ctx, chatID)
	if err != nil || account == nil {
		log.ErrorContext(ctx, "Failed to load account for setcrops", "error", err, "chat_id", chatID)
		sendReply(ctx, b, log, chatID, h.deps.Config.Messages.GeneralError, nil)
		return
	}

	account.Crops = strings.Join(crops, ",")
	if err := h.deps.Store.UpsertAccount(ctx, account); err != nil {
		log.ErrorContext(ctx, "Failed to save crops", "error", err, "chat_id", chatID)
		sendReply(ctx, b, log, chatID, h.deps.Config.Messages.GeneralError, nil)
		return
	}

	log.InfoContext(ctx, "Crops updated", "chat_id", chatID, "crops", account.Crops)
	sendReply(ctx, b, log, chatID, fmt.Sprintf("🌱 Crops saved: %s", account.Crops), nil)
}

// NewNotifyHandler returns a handler for /notify <weather|market|tips|alerts|all|off>.
// Each named flag is toggled; all and off set every flag at once.
func NewNotifyHandler(deps HandlerDeps) bot.HandlerFunc {
	return notifyHandler{deps}.Handle
}

type notifyHandler struct {
	deps HandlerDeps
}

func (h notifyHandler) Handle(ctx context.Context, b *bot.Bot, update *models.Update) {
	log := h.deps.Logger.With("handler", "notify")

	if update.Message == nil || update.Message.From == nil {
		return
	}
	chatID := update.Message.Chat.ID

	args := commandArgs(update.Message.Text)
	if len(args) != 1 {
		sendReply(ctx, b, log, chatID, "Usage: /notify weather|market|tips|alerts|all|off", nil)
		return
	}

	account, err := h.deps.Store.GetAccount(ctx, chatID)
	if err != nil || account == nil {
		log.ErrorContext(ctx, "Failed to load account for notify", "error", err, "chat_id", chatID)
		sendReply(ctx, b, log, chatID, h.deps.Config.Messages.GeneralError, nil)
		return
	}

	switch strings.ToLower(args[0]) {
	case "weather":
		account.NotifyWeather = !account.NotifyWeather
	case "market":
		account.NotifyMarket = !account.NotifyMarket
	case "tips":
		account.NotifyTips = !account.NotifyTips
	case "alerts":
		account.NotifyAlerts = !account.NotifyAlerts
	case "all":
		account.NotifyWeather, account.NotifyMarket, account.NotifyTips, account.NotifyAlerts = true, true, true, true
	case "off":
		account.NotifyWeather, account.NotifyMarket, account.NotifyTips, account.NotifyAlerts = false, false, false, false
	default:
		sendReply(ctx, b, log, chatID, "Usage: /notify weather|market|tips|alerts|all|off", nil)
		return
	}

	if err := h.deps.Store.UpsertAccount(ctx, account); err != nil {
		log.ErrorContext(ctx, "Failed to save notification preferences", "error", err, "chat_id", chatID)
		sendReply(ctx, b, log, chatID, h.deps.Config.Messages.GeneralError, nil)
		return
	}

	sendReply(ctx, b, log, chatID, fmt.Sprintf(
		"🔔 Notifications: weather %s, market %s, tips %s, alerts %s",
		onOff(account.NotifyWeather), onOff(account.NotifyMarket),
		onOff(account.NotifyTips), onOff(account.NotifyAlerts)), nil)
}

// NewDeleteMeHandler returns a handler for /delete_me, which removes the
// account and its conversation history.
func NewDeleteMeHandler(deps HandlerDeps) bot.HandlerFunc {
	return deleteMeHandler{deps}.Handle
}

type deleteMeHandler struct {
	deps HandlerDeps
}

func (h deleteMeHandler) Handle(ctx context.Context, b *bot.Bot, update *models.Update) {
	log := h.deps.Logger.With("handler", "delete_me")

	if update.Message == nil || update.Message.From == nil {
		return
	}
	chatID := update.Message.Chat.ID

	if err := h.deps.Store.DeleteAccount(ctx, chatID); err != nil {
		log.ErrorContext(ctx, "Failed to delete account", "error", err, "chat_id", chatID)
		sendReply(ctx, b, log, chatID, h.deps.Config.Messages.GeneralError, nil)
		return
	}

	h.deps.Governor.ResetAll(chatID)
	log.InfoContext(ctx, "Account deleted on user request", "chat_id", chatID)
	sendReply(ctx, b, log, chatID, "🗑️ Your account and conversation history have been deleted. Send /start to begin again.", nil)
}
