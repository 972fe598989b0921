// Package main contains the entrypoint for the AgroBot Telegram application.
package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	tgbot "github.com/go-telegram/bot"

	"github.com/croplink/agrobot/internal/advisor"
	"github.com/croplink/agrobot/internal/bot"
	"github.com/croplink/agrobot/internal/bot/handlers"
	"github.com/croplink/agrobot/internal/bot/tasks"
	"github.com/croplink/agrobot/internal/config"
	"github.com/croplink/agrobot/internal/database"
	"github.com/croplink/agrobot/internal/delivery"
	"github.com/croplink/agrobot/internal/logger"
	"github.com/croplink/agrobot/internal/market"
	"github.com/croplink/agrobot/internal/news"
	"github.com/croplink/agrobot/internal/ratelimit"
	"github.com/croplink/agrobot/internal/responder"
	"github.com/croplink/agrobot/internal/telegram"
	"github.com/croplink/agrobot/internal/weather"

	_ "modernc.org/sqlite"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	exitCode := run(ctx)
	stop()
	os.Exit(exitCode)
}

// run initializes all application components, starts the bot, and blocks
// until shutdown. Only a database connect failure or missing credentials
// are fatal; provider outages degrade to fallbacks at runtime.
func run(ctx context.Context) int {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		return 1
	}

	log := logger.New(cfg.Logger.Level, cfg.Logger.JSON)
	slog.SetDefault(log)
	log.Info("Logger initialized", "level", cfg.Logger.Level, "json", cfg.Logger.JSON)

	db, err := database.NewDB(cfg.Database.Path)
	if err != nil {
		log.Error("Failed to connect to database", "path", cfg.Database.Path, "error", err)
		return 1
	}
	defer database.CloseDB(db)
	store := database.NewStore(db, log)

	advisorClient, err := advisor.NewClient(ctx, cfg.Gemini, log)
	if err != nil {
		log.Error("Failed to initialize advice backend", "error", err)
		return 1
	}

	weatherProvider := weather.NewProvider(cfg.Weather, log)
	newsProvider := news.NewProvider(cfg.News, log)
	marketProvider := market.NewProvider(cfg.Market, log)

	governor := ratelimit.NewGovernor(map[ratelimit.Bucket]ratelimit.Limit{
		ratelimit.API:     {Capacity: cfg.RateLimit.API.Capacity, Window: cfg.RateLimit.API.Window},
		ratelimit.Command: {Capacity: cfg.RateLimit.Command.Capacity, Window: cfg.RateLimit.Command.Window},
		ratelimit.Message: {Capacity: cfg.RateLimit.Message.Capacity, Window: cfg.RateLimit.Message.Window},
		ratelimit.Premium: {Capacity: cfg.RateLimit.Premium.Capacity, Window: cfg.RateLimit.Premium.Window},
	}, log)

	respond := responder.New(advisorClient, newsProvider, cfg.Gemini.WordBudget, log)

	hDeps := handlers.HandlerDeps{
		Logger:    log,
		Config:    cfg,
		Store:     store,
		Responder: respond,
		Governor:  governor,
	}

	botOpts := []tgbot.Option{
		tgbot.WithMiddlewares(logger.Middleware(log)),
		tgbot.WithDefaultHandler(handlers.NewMessageHandler(hDeps)),
	}
	tg, err := telegram.NewTelegramBot(cfg.Telegram.Token, log, botOpts...)
	if err != nil {
		log.Error("Failed to create Telegram bot", "error", err)
		return 1
	}

	cfg.Telegram.BotInfo, err = tg.GetMe(ctx)
	if err != nil {
		log.Error("Failed to get bot info", "error", err)
		return 1
	}
	log.Info("Retrieved bot info", "bot_id", cfg.Telegram.BotInfo.ID, "bot_username", cfg.Telegram.BotInfo.Username)

	tDeps := tasks.TaskDeps{
		Logger:   log,
		Config:   cfg,
		Store:    store,
		Advisor:  advisorClient,
		Weather:  weatherProvider,
		Market:   marketProvider,
		Sender:   delivery.NewTelegramSender(tg, log),
		Governor: governor,
	}

	sched, err := bot.NewScheduler(log, &cfg.Scheduler, tasks.RegisterAllTasks(tDeps))
	if err != nil {
		log.Error("Failed to create scheduler", "error", err)
		return 1
	}
	hDeps.Jobs = sched

	cmdHandlers := handlers.RegisterAllCommands(hDeps)
	if err := telegram.RegisterHandlers(tg, log, cmdHandlers); err != nil {
		log.Error("Failed to register Telegram handlers", "error", err)
		return 1
	}

	app := bot.NewBot(log, cfg, db, store, tg, sched)

	log.Info("Starting bot...")
	runErr := app.Run(ctx)
	log.Info("Bot run loop finished. Initiating shutdown...")

	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		log.Error("Bot stopped due to error", "error", runErr)
		time.Sleep(time.Second)
		return 1
	}

	log.Info("Bot stopped gracefully.")
	time.Sleep(time.Second)
	return 0
}
