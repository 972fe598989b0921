// Package tasks implements the scheduled broadcast and maintenance jobs.
// Each job queries the directory of eligible accounts, renders one
// message per account, and hands it to the delivery channel with a
// fixed pacing delay between sends.
package tasks

import (
	"context"
	"log/slog"
	"time"

	"github.com/croplink/agrobot/internal/advisor"
	"github.com/croplink/agrobot/internal/config"
	"github.com/croplink/agrobot/internal/database"
	"github.com/croplink/agrobot/internal/delivery"
	"github.com/croplink/agrobot/internal/market"
	"github.com/croplink/agrobot/internal/ratelimit"
	"github.com/croplink/agrobot/internal/weather"
)

// ScheduledTaskFunc is the signature of every scheduled task. The
// context comes from the scheduler and must be respected for
// cancellation.
type ScheduledTaskFunc func(ctx context.Context) error

// TaskDeps contains the dependencies shared by all scheduled tasks.
type TaskDeps struct {
	Logger   *slog.Logger
	Config   *config.Config
	Store    database.Store
	Advisor  advisor.Client
	Weather  weather.Provider
	Market   market.Provider
	Sender   delivery.Sender
	Governor *ratelimit.Governor
}

// RegisterAllTasks returns the map of all scheduled tasks, keyed by the
// names used in the scheduler configuration.
func RegisterAllTasks(deps TaskDeps) map[string]ScheduledTaskFunc {
	tasks := map[string]ScheduledTaskFunc{
		config.TaskWeatherUpdate:   newWeatherUpdateTask(deps),
		config.TaskMarketUpdate:    newMarketUpdateTask(deps),
		config.TaskDailyTips:       newDailyTipsTask(deps),
		config.TaskWeeklySummary:   newWeeklySummaryTask(deps),
		config.TaskWeatherAlerts:   newWeatherAlertsTask(deps),
		config.TaskMarketAlerts:    newMarketAlertsTask(deps),
		config.TaskCleanup:         newCleanupTask(deps),
		config.TaskEngagementCheck: newEngagementCheckTask(deps),
	}

	deps.Logger.Info("Initialized scheduled tasks", "count", len(tasks))
	return tasks
}

// sendDelay returns the configured pacing delay for a task.
func (d TaskDeps) sendDelay(taskName string) time.Duration {
	if cfg, ok := d.Config.Scheduler.Tasks[taskName]; ok {
		return cfg.SendDelay
	}
	return 0
}
