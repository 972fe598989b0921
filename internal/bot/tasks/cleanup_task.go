package tasks

import (
	"context"
	"time"

	"github.com/croplink/agrobot/internal/config"
	"github.com/croplink/agrobot/internal/database"
)

// newCleanupTask creates the retention job: purge expired snapshots,
// trim each account's conversation history to the configured depth, and
// reclaim database space.
func newCleanupTask(deps TaskDeps) ScheduledTaskFunc {
	log := deps.Logger.With("task", config.TaskCleanup)

	return func(ctx context.Context) error {
		cutoff := time.Now().UTC().AddDate(0, 0, -deps.Config.Database.SnapshotRetainDays)
		purged, err := deps.Store.PurgeSnapshotsBefore(ctx, cutoff)
		if err != nil {
			return err
		}

		accounts, err := deps.Store.ListEligible(ctx, database.Eligibility{Flag: database.FlagNone})
		if err != nil {
			return err
		}

		var trimmed int64
		keep := deps.Config.Database.ConversationsPerUser
		for _, account := range accounts {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			removed, err := deps.Store.TrimConversations(ctx, account.ChatID, keep)
			if err != nil {
				log.WarnContext(ctx, "Failed to trim conversations",
					"chat_id", account.ChatID, "error", err)
				continue
			}
			trimmed += removed
		}

		if err := deps.Store.RunMaintenance(ctx); err != nil {
			return err
		}

		log.InfoContext(ctx, "Cleanup completed",
			"snapshots_purged", purged, "conversations_trimmed", trimmed)
		return nil
	}
}
