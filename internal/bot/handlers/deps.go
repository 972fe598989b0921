package handlers

import (
	"log/slog"

	"github.com/croplink/agrobot/internal/bot"
	"github.com/croplink/agrobot/internal/config"
	"github.com/croplink/agrobot/internal/database"
	"github.com/croplink/agrobot/internal/ratelimit"
	"github.com/croplink/agrobot/internal/responder"
)

// JobController is the slice of the scheduler the operator commands use.
// *bot.Scheduler satisfies it.
type JobController interface {
	StopJob(name string) error
	StartJob(name string) error
	JobStates() []bot.JobStatus
}

// HandlerDeps provides dependencies for Telegram command handlers.
type HandlerDeps struct {
	Logger    *slog.Logger
	Config    *config.Config
	Store     database.Store
	Responder *responder.Responder
	Governor  *ratelimit.Governor
	Jobs      JobController
}
