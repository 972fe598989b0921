package tasks

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/croplink/agrobot/internal/config"
	"github.com/croplink/agrobot/internal/database"
	"github.com/croplink/agrobot/internal/ratelimit"
	"github.com/croplink/agrobot/internal/weather"
)

// weatherSnapshotValidity bounds how long a stored weather snapshot may
// substitute for a live reading.
const weatherSnapshotValidity = 6 * time.Hour

// newWeatherUpdateTask creates the daily weather broadcast. Eligible
// accounts have weather notifications on, are not banned, and have
// coordinates set.
func newWeatherUpdateTask(deps TaskDeps) ScheduledTaskFunc {
	log := deps.Logger.With("task", config.TaskWeatherUpdate)

	return func(ctx context.Context) error {
		snapshotSaved := false

		eligibility := database.Eligibility{Flag: database.FlagWeather, RequireCoordinates: true}
		_, err := deps.broadcast(ctx, log, eligibility, deps.sendDelay(config.TaskWeatherUpdate),
			func(ctx context.Context, account *database.Account) (string, error) {
				conditions, err := deps.fetchConditions(ctx, account)
				if err != nil {
					// Stale-data fallback before giving up on this recipient.
					conditions = deps.snapshotConditions(ctx)
					if conditions == nil {
						return "", fmt.Errorf("no live weather and no fresh snapshot: %w", err)
					}
				} else if !snapshotSaved {
					deps.saveWeatherSnapshot(ctx, log, conditions)
					snapshotSaved = true
				}

				return renderWeatherMessage(account, conditions), nil
			})
		return err
	}
}

// fetchConditions pulls current weather for the account's coordinates,
// charging the account's API rate bucket first.
func (d TaskDeps) fetchConditions(ctx context.Context, account *database.Account) (*weather.Conditions, error) {
	bucket := ratelimit.API
	if account.Tier == database.TierPremium || account.Tier == database.TierPro {
		bucket = ratelimit.Premium
	}
	if decision := d.Governor.Consume(account.ChatID, bucket); !decision.Allowed {
		return nil, fmt.Errorf("api rate limit exceeded, retry after %s", decision.RetryAfter)
	}

	return d.Weather.Current(ctx, account.Latitude.Float64, account.Longitude.Float64)
}

// snapshotConditions returns the most recent weather snapshot if it is
// still within its validity window, or nil.
func (d TaskDeps) snapshotConditions(ctx context.Context) *weather.Conditions {
	snapshot, err := d.Store.LatestSnapshot(ctx, database.SnapshotWeather)
	if err != nil || snapshot == nil || !snapshot.Fresh(time.Now().UTC()) {
		return nil
	}

	var conditions weather.Conditions
	if err := json.Unmarshal([]byte(snapshot.Payload), &conditions); err != nil {
		return nil
	}
	return &conditions
}

func (d TaskDeps) saveWeatherSnapshot(ctx context.Context, log *slog.Logger, conditions *weather.Conditions) {
	payload, err := json.Marshal(conditions)
	if err != nil {
		log.WarnContext(ctx, "Failed to marshal weather snapshot", "error", err)
		return
	}

	now := time.Now().UTC()
	snapshot := &database.Snapshot{
		Kind:        database.SnapshotWeather,
		Source:      "weather-api",
		Payload:     string(payload),
		LastUpdated: now,
		ValidUntil:  sql.NullTime{Time: now.Add(weatherSnapshotValidity), Valid: true},
	}
	if err := d.Store.SaveSnapshot(ctx, snapshot); err != nil {
		log.WarnContext(ctx, "Failed to save weather snapshot", "error", err)
	}
}

func renderWeatherMessage(account *database.Account, c *weather.Conditions) string {
	location := account.City
	if location == "" {
		location = "your farm"
	}

	return fmt.Sprintf(
		"🌤️ Daily weather for %s\n\n"+
			"Temperature: %.1f°C\n"+
			"Humidity: %.0f%%\n"+
			"Wind: %.1f m/s\n"+
			"Conditions: %s",
		location, c.Temperature, c.Humidity, c.WindSpeed, c.Description)
}
