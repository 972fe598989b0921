package tasks

import (
	"context"
	"time"

	"github.com/croplink/agrobot/internal/advisor"
	"github.com/croplink/agrobot/internal/config"
	"github.com/croplink/agrobot/internal/database"
	"github.com/croplink/agrobot/internal/knowledge"
)

// newDailyTipsTask creates the daily tip broadcast. The day's static
// tip is expanded once per run by the advice backend; the raw tip is
// the fallback when the backend is down.
func newDailyTipsTask(deps TaskDeps) ScheduledTaskFunc {
	log := deps.Logger.With("task", config.TaskDailyTips)

	return func(ctx context.Context) error {
		tip := knowledge.TipOfTheDay(time.Now().UTC().YearDay())

		message, err := deps.Advisor.Advise(ctx, advisor.TipPrompt(tip, deps.Config.Gemini.WordBudget))
		if err != nil {
			log.WarnContext(ctx, "Advice backend failed, sending raw tip", "error", err)
			message = tip
		}

		eligibility := database.Eligibility{Flag: database.FlagTips}
		_, err = deps.broadcast(ctx, log, eligibility, deps.sendDelay(config.TaskDailyTips),
			func(ctx context.Context, account *database.Account) (string, error) {
				return message, nil
			})
		return err
	}
}
