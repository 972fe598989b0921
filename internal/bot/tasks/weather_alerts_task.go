package tasks

import (
	"context"

	"github.com/croplink/agrobot/internal/config"
	"github.com/croplink/agrobot/internal/database"
)

// newWeatherAlertsTask creates the severe weather warning job. Each
// eligible account's own coordinates are checked; accounts whose
// forecast crosses no alert threshold are skipped.
func newWeatherAlertsTask(deps TaskDeps) ScheduledTaskFunc {
	log := deps.Logger.With("task", config.TaskWeatherAlerts)

	return func(ctx context.Context) error {
		eligibility := database.Eligibility{Flag: database.FlagAlerts, RequireCoordinates: true}
		_, err := deps.broadcast(ctx, log, eligibility, deps.sendDelay(config.TaskWeatherAlerts),
			func(ctx context.Context, account *database.Account) (string, error) {
				conditions, err := deps.fetchConditions(ctx, account)
				if err != nil {
					return "", err
				}

				alert := conditions.Alert()
				if alert == "" {
					return "", errSkipRecipient
				}
				return alert, nil
			})
		return err
	}
}
