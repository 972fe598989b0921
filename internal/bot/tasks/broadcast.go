package tasks

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/croplink/agrobot/internal/database"
	"github.com/croplink/agrobot/internal/ratelimit"
)

// errSkipRecipient tells the broadcast loop to silently pass over a
// recipient (no content for them this round); it is not counted as a
// delivery failure.
var errSkipRecipient = errors.New("skip recipient")

// renderFunc produces the message for one recipient. Returning
// errSkipRecipient skips the account; any other error is logged and
// counted as a failure, and the batch continues.
type renderFunc func(ctx context.Context, account *database.Account) (string, error)

// broadcastResult summarizes one fan-out run.
type broadcastResult struct {
	Eligible int
	Sent     int
	Failed   int
	Skipped  int
}

// broadcast runs the shared fan-out loop: query eligible accounts,
// render and deliver strictly sequentially with a pacing delay between
// sends. Per-recipient failures never abort the batch; delivery is
// at-least-once (a crash mid-run may double-send on the next firing).
func (d TaskDeps) broadcast(ctx context.Context, log *slog.Logger, eligibility database.Eligibility, delay time.Duration, render renderFunc) (broadcastResult, error) {
	var result broadcastResult

	accounts, err := d.Store.ListEligible(ctx, eligibility)
	if err != nil {
		return result, err
	}
	result.Eligible = len(accounts)

	if len(accounts) == 0 {
		log.InfoContext(ctx, "No eligible accounts for broadcast")
		return result, nil
	}

	pacer := ratelimit.NewPacer(delay)
	for _, account := range accounts {
		if err := pacer.Wait(ctx); err != nil {
			log.WarnContext(ctx, "Broadcast interrupted by shutdown",
				"sent", result.Sent, "remaining", result.Eligible-result.Sent-result.Failed-result.Skipped)
			return result, err
		}

		text, err := render(ctx, account)
		switch {
		case errors.Is(err, errSkipRecipient):
			result.Skipped++
			continue
		case err != nil:
			result.Failed++
			log.WarnContext(ctx, "Failed to render broadcast message",
				"chat_id", account.ChatID, "error", err)
			continue
		}

		if err := d.Sender.Send(ctx, account.ChatID, text, nil); err != nil {
			result.Failed++
			log.WarnContext(ctx, "Failed to deliver broadcast message",
				"chat_id", account.ChatID, "error", err)
			continue
		}
		result.Sent++
	}

	log.InfoContext(ctx, "Broadcast completed",
		"eligible", result.Eligible, "sent", result.Sent,
		"failed", result.Failed, "skipped", result.Skipped)
	return result, nil
}
