package tasks

import (
	"context"
	"time"

	"github.com/croplink/agrobot/internal/config"
	"github.com/croplink/agrobot/internal/database"
	"github.com/croplink/agrobot/internal/knowledge"
)

// inactivityWindow is how long an account must be silent before it gets
// a re-engagement nudge.
const inactivityWindow = 14 * 24 * time.Hour

// newEngagementCheckTask creates the re-engagement job. Bumping the
// interaction timestamp when the nudge goes out guarantees at most one
// nudge per inactivity window, even if the recipient stays silent.
func newEngagementCheckTask(deps TaskDeps) ScheduledTaskFunc {
	log := deps.Logger.With("task", config.TaskEngagementCheck)

	return func(ctx context.Context) error {
		since := time.Now().UTC().Add(-inactivityWindow)

		eligibility := database.Eligibility{Flag: database.FlagAny, InactiveSince: since}
		_, err := deps.broadcast(ctx, log, eligibility, deps.sendDelay(config.TaskEngagementCheck),
			func(ctx context.Context, account *database.Account) (string, error) {
				if err := deps.Store.TouchInteraction(ctx, account.ChatID, false); err != nil {
					log.WarnContext(ctx, "Failed to bump interaction after nudge",
						"chat_id", account.ChatID, "error", err)
				}

				tip := knowledge.TipOfTheDay(time.Now().UTC().YearDay())
				return "👋 We haven't heard from you in a while!\n\n" +
					"Here's a tip to get you going: " + tip + "\n\n" +
					"Ask me about weather, prices, or your crops anytime.", nil
			})
		return err
	}
}
