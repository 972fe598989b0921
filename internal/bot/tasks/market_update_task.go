package tasks

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/croplink/agrobot/internal/config"
	"github.com/croplink/agrobot/internal/database"
	"github.com/croplink/agrobot/internal/market"
)

const marketSnapshotValidity = 24 * time.Hour

// newMarketUpdateTask creates the daily market price broadcast. Prices
// are fetched once per run; on provider failure the latest fresh
// snapshot substitutes.
func newMarketUpdateTask(deps TaskDeps) ScheduledTaskFunc {
	log := deps.Logger.With("task", config.TaskMarketUpdate)

	return func(ctx context.Context) error {
		prices, err := deps.Market.Prices(ctx)
		if err != nil {
			log.WarnContext(ctx, "Market provider failed, trying snapshot", "error", err)
			prices = deps.snapshotPrices(ctx)
			if prices == nil {
				return fmt.Errorf("no live prices and no fresh snapshot: %w", err)
			}
		} else {
			deps.saveMarketSnapshot(ctx, log, prices)
		}

		message := renderMarketMessage(prices)

		eligibility := database.Eligibility{Flag: database.FlagMarket}
		_, err = deps.broadcast(ctx, log, eligibility, deps.sendDelay(config.TaskMarketUpdate),
			func(ctx context.Context, account *database.Account) (string, error) {
				return message, nil
			})
		return err
	}
}

func (d TaskDeps) snapshotPrices(ctx context.Context) []market.Price {
	snapshot, err := d.Store.LatestSnapshot(ctx, database.SnapshotMarket)
	if err != nil || snapshot == nil || !snapshot.Fresh(time.Now().UTC()) {
		return nil
	}

	var prices []market.Price
	if err := json.Unmarshal([]byte(snapshot.Payload), &prices); err != nil {
		return nil
	}
	return prices
}

func (d TaskDeps) saveMarketSnapshot(ctx context.Context, log *slog.Logger, prices []market.Price) {
	payload, err := json.Marshal(prices)
	if err != nil {
		log.WarnContext(ctx, "Failed to marshal market snapshot", "error", err)
		return
	}

	now := time.Now().UTC()
	snapshot := &database.Snapshot{
		Kind:        database.SnapshotMarket,
		Source:      "market-api",
		Payload:     string(payload),
		LastUpdated: now,
		ValidUntil:  sql.NullTime{Time: now.Add(marketSnapshotValidity), Valid: true},
	}
	if err := d.Store.SaveSnapshot(ctx, snapshot); err != nil {
		log.WarnContext(ctx, "Failed to save market snapshot", "error", err)
	}
}

func renderMarketMessage(prices []market.Price) string {
	var sb strings.Builder
	sb.WriteString("📈 Today's market prices\n\n")

	shown := prices
	if len(shown) > 8 {
		shown = shown[:8]
	}
	for _, p := range shown {
		arrow := "→"
		if p.Change > 0 {
			arrow = "↑"
		} else if p.Change < 0 {
			arrow = "↓"
		}
		sb.WriteString(fmt.Sprintf("%s: %.2f/%s %s %.1f%%\n", p.Crop, p.Price, p.Unit, arrow, p.Change))
	}

	return strings.TrimSpace(sb.String())
}
