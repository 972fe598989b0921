package tasks

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/croplink/agrobot/internal/config"
	"github.com/croplink/agrobot/internal/database"
	"github.com/croplink/agrobot/internal/market"
)

// marketSwingThreshold is the relative price move that triggers an
// alert, compared against the last stored market snapshot.
const marketSwingThreshold = 0.10

// newMarketAlertsTask creates the price swing alert job. Live prices
// are compared against the previous market snapshot; if no crop moved
// past the threshold the run ends without sending anything.
func newMarketAlertsTask(deps TaskDeps) ScheduledTaskFunc {
	log := deps.Logger.With("task", config.TaskMarketAlerts)

	return func(ctx context.Context) error {
		current, err := deps.Market.Prices(ctx)
		if err != nil {
			return fmt.Errorf("market provider unavailable: %w", err)
		}

		previous := deps.snapshotPrices(ctx)
		if previous == nil {
			log.InfoContext(ctx, "No previous market snapshot, skipping swing check")
			return nil
		}

		swings := priceSwings(previous, current, marketSwingThreshold)
		if len(swings) == 0 {
			log.InfoContext(ctx, "No significant price swings")
			return nil
		}

		message := renderSwingMessage(swings)

		eligibility := database.Eligibility{Flag: database.FlagAlerts}
		_, err = deps.broadcast(ctx, log, eligibility, deps.sendDelay(config.TaskMarketAlerts),
			func(ctx context.Context, account *database.Account) (string, error) {
				return message, nil
			})
		return err
	}
}

type priceSwing struct {
	Crop     string
	Previous float64
	Current  float64
	Relative float64
}

// priceSwings matches crops by name and returns those whose price moved
// by at least threshold relative to the previous reading.
func priceSwings(previous, current []market.Price, threshold float64) []priceSwing {
	prior := make(map[string]float64, len(previous))
	for _, p := range previous {
		prior[strings.ToLower(p.Crop)] = p.Price
	}

	var swings []priceSwing
	for _, p := range current {
		old, ok := prior[strings.ToLower(p.Crop)]
		if !ok || old == 0 {
			continue
		}
		relative := (p.Price - old) / old
		if math.Abs(relative) >= threshold {
			swings = append(swings, priceSwing{
				Crop:     p.Crop,
				Previous: old,
				Current:  p.Price,
				Relative: relative,
			})
		}
	}
	return swings
}

func renderSwingMessage(swings []priceSwing) string {
	var sb strings.Builder
	sb.WriteString("🚨 Market price alert\n\n")
	for _, s := range swings {
		direction := "up"
		if s.Relative < 0 {
			direction = "down"
		}
		sb.WriteString(fmt.Sprintf("%s is %s %.0f%%: %.2f → %.2f\n",
			s.Crop, direction, math.Abs(s.Relative)*100, s.Previous, s.Current))
	}
	sb.WriteString("\nConsider timing your sales accordingly.")
	return sb.String()
}
