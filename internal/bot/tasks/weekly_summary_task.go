package tasks

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/croplink/agrobot/internal/config"
	"github.com/croplink/agrobot/internal/database"
)

const summaryWindow = 7 * 24 * time.Hour

// newWeeklySummaryTask creates the weekly activity recap. Accounts with
// no conversations during the window are skipped, not failed.
func newWeeklySummaryTask(deps TaskDeps) ScheduledTaskFunc {
	log := deps.Logger.With("task", config.TaskWeeklySummary)

	return func(ctx context.Context) error {
		since := time.Now().UTC().Add(-summaryWindow)

		eligibility := database.Eligibility{Flag: database.FlagAny}
		_, err := deps.broadcast(ctx, log, eligibility, deps.sendDelay(config.TaskWeeklySummary),
			func(ctx context.Context, account *database.Account) (string, error) {
				count, err := deps.Store.CountConversationsSince(ctx, account.ChatID, since)
				if err != nil {
					return "", err
				}
				if count == 0 {
					return "", errSkipRecipient
				}

				breakdown, err := deps.Store.IntentBreakdown(ctx, account.ChatID, since)
				if err != nil {
					return "", err
				}

				return renderSummaryMessage(count, breakdown), nil
			})
		return err
	}
}

func renderSummaryMessage(count int64, breakdown []database.IntentCount) string {
	var sb strings.Builder
	sb.WriteString("📊 Your week on AgroBot\n\n")
	sb.WriteString(fmt.Sprintf("You asked %d question", count))
	if count != 1 {
		sb.WriteString("s")
	}
	sb.WriteString(" this week.\n")

	if len(breakdown) > 0 {
		sb.WriteString(fmt.Sprintf("Your top topic was %s (%d time", breakdown[0].Intent, breakdown[0].Count))
		if breakdown[0].Count != 1 {
			sb.WriteString("s")
		}
		sb.WriteString(").\n")
	}

	sb.WriteString("\nKeep the questions coming! 🌱")
	return sb.String()
}
