package tasks

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/croplink/agrobot/internal/config"
	"github.com/croplink/agrobot/internal/database"
	"github.com/croplink/agrobot/internal/market"
	"github.com/croplink/agrobot/internal/ratelimit"
	"github.com/croplink/agrobot/internal/weather"
)

type fakeWeather struct {
	conditions *weather.Conditions
	err        error
}

func (f *fakeWeather) Current(context.Context, float64, float64) (*weather.Conditions, error) {
	return f.conditions, f.err
}

func (f *fakeWeather) Forecast(context.Context, float64, float64, int) ([]weather.DayForecast, error) {
	return nil, f.err
}

type fakeMarket struct {
	prices []market.Price
	err    error
}

func (f *fakeMarket) Prices(context.Context) ([]market.Price, error) {
	return f.prices, f.err
}

type fakeAdvisor struct {
	reply string
	err   error
}

func (f *fakeAdvisor) Advise(context.Context, string) (string, error) {
	return f.reply, f.err
}

func (f *fakeAdvisor) ModelTag() string { return "fake-model" }

func openGovernor() *ratelimit.Governor {
	return ratelimit.NewGovernor(map[ratelimit.Bucket]ratelimit.Limit{
		ratelimit.API:     {Capacity: 1000, Window: time.Minute},
		ratelimit.Premium: {Capacity: 1000, Window: time.Minute},
	}, testLogger())
}

func testConfig() *config.Config {
	return &config.Config{
		Gemini:   config.GeminiConfig{WordBudget: 150},
		Database: config.DatabaseConfig{SnapshotRetainDays: 30, ConversationsPerUser: 100},
		Scheduler: config.SchedulerConfig{
			Tasks: map[string]config.TaskConfig{},
		},
	}
}

func locatedAccount(chatID int64) *database.Account {
	a := account(chatID)
	a.Latitude = sql.NullFloat64{Float64: 12.97, Valid: true}
	a.Longitude = sql.NullFloat64{Float64: 77.59, Valid: true}
	return a
}

func TestWeatherUpdateTaskBroadcastsAndSavesSnapshot(t *testing.T) {
	t.Parallel()

	store := newFakeStore(locatedAccount(1), locatedAccount(2))
	sender := &fakeSender{}
	deps := TaskDeps{
		Logger:   testLogger(),
		Config:   testConfig(),
		Store:    store,
		Weather:  &fakeWeather{conditions: &weather.Conditions{Temperature: 28, Humidity: 60, WindSpeed: 3, Description: "clear sky"}},
		Sender:   sender,
		Governor: openGovernor(),
	}

	if err := newWeatherUpdateTask(deps)(context.Background()); err != nil {
		t.Fatalf("weather update task error = %v", err)
	}

	if len(sender.sent) != 2 {
		t.Errorf("sent to %d chats, want 2", len(sender.sent))
	}
	// Snapshot saved once per run, not once per recipient.
	if len(store.savedSnapshots) != 1 {
		t.Fatalf("saved %d snapshots, want 1", len(store.savedSnapshots))
	}
	if store.savedSnapshots[0].Kind != database.SnapshotWeather {
		t.Errorf("snapshot kind = %q, want weather", store.savedSnapshots[0].Kind)
	}
}

func TestWeatherUpdateTaskFallsBackToSnapshot(t *testing.T) {
	t.Parallel()

	store := newFakeStore(locatedAccount(1))
	payload, _ := json.Marshal(&weather.Conditions{Temperature: 21, Description: "stored reading"})
	store.snapshots[database.SnapshotWeather] = &database.Snapshot{
		Kind:        database.SnapshotWeather,
		Payload:     string(payload),
		LastUpdated: time.Now().UTC(),
		ValidUntil:  sql.NullTime{Time: time.Now().UTC().Add(time.Hour), Valid: true},
	}

	sender := &fakeSender{}
	deps := TaskDeps{
		Logger:   testLogger(),
		Config:   testConfig(),
		Store:    store,
		Weather:  &fakeWeather{err: errors.New("provider down")},
		Sender:   sender,
		Governor: openGovernor(),
	}

	if err := newWeatherUpdateTask(deps)(context.Background()); err != nil {
		t.Fatalf("weather update task error = %v", err)
	}
	if len(sender.sent) != 1 {
		t.Errorf("sent to %d chats, want 1 via snapshot fallback", len(sender.sent))
	}
}

func TestWeatherUpdateTaskNoDataFailsRecipientOnly(t *testing.T) {
	t.Parallel()

	store := newFakeStore(locatedAccount(1))
	sender := &fakeSender{}
	deps := TaskDeps{
		Logger:   testLogger(),
		Config:   testConfig(),
		Store:    store,
		Weather:  &fakeWeather{err: errors.New("provider down")},
		Sender:   sender,
		Governor: openGovernor(),
	}

	// No fresh snapshot either: the recipient fails, the job itself does not.
	if err := newWeatherUpdateTask(deps)(context.Background()); err != nil {
		t.Fatalf("weather update task error = %v", err)
	}
	if len(sender.sent) != 0 {
		t.Errorf("sent %d messages with no data available, want 0", len(sender.sent))
	}
}

func TestMarketUpdateTaskFallsBackToSnapshot(t *testing.T) {
	t.Parallel()

	store := newFakeStore(account(1))
	payload, _ := json.Marshal([]market.Price{{Crop: "wheat", Unit: "quintal", Price: 2200}})
	store.snapshots[database.SnapshotMarket] = &database.Snapshot{
		Kind:        database.SnapshotMarket,
		Payload:     string(payload),
		LastUpdated: time.Now().UTC(),
	}

	sender := &fakeSender{}
	deps := TaskDeps{
		Logger: testLogger(),
		Config: testConfig(),
		Store:  store,
		Market: &fakeMarket{err: errors.New("provider down")},
		Sender: sender,
	}

	if err := newMarketUpdateTask(deps)(context.Background()); err != nil {
		t.Fatalf("market update task error = %v", err)
	}
	if len(sender.sent) != 1 {
		t.Errorf("sent to %d chats, want 1 via snapshot fallback", len(sender.sent))
	}
}

func TestDailyTipsTaskFallsBackToRawTip(t *testing.T) {
	t.Parallel()

	store := newFakeStore(account(1))
	sender := &fakeSender{}
	deps := TaskDeps{
		Logger:  testLogger(),
		Config:  testConfig(),
		Store:   store,
		Advisor: &fakeAdvisor{err: errors.New("backend down")},
		Sender:  sender,
	}

	if err := newDailyTipsTask(deps)(context.Background()); err != nil {
		t.Fatalf("daily tips task error = %v", err)
	}
	if len(sender.sent) != 1 {
		t.Errorf("sent to %d chats, want 1 with the raw tip", len(sender.sent))
	}
}

func TestWeeklySummaryTaskSkipsQuietUsers(t *testing.T) {
	t.Parallel()

	store := newFakeStore(account(1), account(2))
	store.convCounts[1] = 12
	store.breakdowns[1] = []database.IntentCount{{Intent: "weather", Count: 7}}
	// Account 2 had no activity this week.

	sender := &fakeSender{}
	deps := TaskDeps{Logger: testLogger(), Config: testConfig(), Store: store, Sender: sender}

	if err := newWeeklySummaryTask(deps)(context.Background()); err != nil {
		t.Fatalf("weekly summary task error = %v", err)
	}
	if len(sender.sent) != 1 || sender.sent[0] != 1 {
		t.Errorf("sent to %v, want only chat 1", sender.sent)
	}
}

func TestCleanupTask(t *testing.T) {
	t.Parallel()

	store := newFakeStore(account(1), account(2))
	deps := TaskDeps{Logger: testLogger(), Config: testConfig(), Store: store, Sender: &fakeSender{}}

	before := time.Now().UTC().AddDate(0, 0, -30)
	if err := newCleanupTask(deps)(context.Background()); err != nil {
		t.Fatalf("cleanup task error = %v", err)
	}
	after := time.Now().UTC().AddDate(0, 0, -30)

	if store.purgeCutoff.Before(before) || store.purgeCutoff.After(after) {
		t.Errorf("purge cutoff = %v, want 30 days before now", store.purgeCutoff)
	}
	if len(store.trimmed) != 2 {
		t.Fatalf("trimmed %d accounts, want 2", len(store.trimmed))
	}
	for chatID, keep := range store.trimmed {
		if keep != 100 {
			t.Errorf("chat %d trimmed to %d, want configured 100", chatID, keep)
		}
	}
	if store.maintenance != 1 {
		t.Errorf("maintenance ran %d times, want 1", store.maintenance)
	}
}

func TestEngagementCheckTouchesNudgedAccounts(t *testing.T) {
	t.Parallel()

	store := newFakeStore(account(1), account(2))
	sender := &fakeSender{}
	deps := TaskDeps{Logger: testLogger(), Config: testConfig(), Store: store, Sender: sender}

	if err := newEngagementCheckTask(deps)(context.Background()); err != nil {
		t.Fatalf("engagement check task error = %v", err)
	}
	if len(sender.sent) != 2 {
		t.Errorf("sent %d nudges, want 2", len(sender.sent))
	}
	// Bumping last_interaction caps the nudge at one per window.
	if len(store.touched) != 2 {
		t.Errorf("touched %d accounts, want 2", len(store.touched))
	}
}

func TestMarketAlertsPriceSwings(t *testing.T) {
	t.Parallel()

	previous := []market.Price{
		{Crop: "wheat", Price: 2000},
		{Crop: "onion", Price: 1000},
		{Crop: "rice", Price: 3000},
	}
	current := []market.Price{
		{Crop: "wheat", Price: 2250}, // +12.5%
		{Crop: "onion", Price: 950},  // -5%
		{Crop: "rice", Price: 2650},  // -11.7%
		{Crop: "cotton", Price: 500}, // no previous reading
	}

	swings := priceSwings(previous, current, 0.10)
	if len(swings) != 2 {
		t.Fatalf("got %d swings, want 2: %+v", len(swings), swings)
	}
	if swings[0].Crop != "wheat" || swings[0].Relative <= 0 {
		t.Errorf("first swing = %+v, want wheat moving up", swings[0])
	}
	if swings[1].Crop != "rice" || swings[1].Relative >= 0 {
		t.Errorf("second swing = %+v, want rice moving down", swings[1])
	}
}

func TestMarketAlertsNoSnapshotSendsNothing(t *testing.T) {
	t.Parallel()

	store := newFakeStore(account(1))
	sender := &fakeSender{}
	deps := TaskDeps{
		Logger: testLogger(),
		Config: testConfig(),
		Store:  store,
		Market: &fakeMarket{prices: []market.Price{{Crop: "wheat", Price: 2000}}},
		Sender: sender,
	}

	if err := newMarketAlertsTask(deps)(context.Background()); err != nil {
		t.Fatalf("market alerts task error = %v", err)
	}
	if len(sender.sent) != 0 {
		t.Errorf("sent %d alerts without a baseline snapshot, want 0", len(sender.sent))
	}
}

func TestWeatherAlertsOnlyOnThreshold(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name       string
		conditions *weather.Conditions
		wantSent   int
	}{
		{
			name:       "mild conditions send nothing",
			conditions: &weather.Conditions{Temperature: 25, WindSpeed: 4},
			wantSent:   0,
		},
		{
			name:       "heat alert",
			conditions: &weather.Conditions{Temperature: 45, WindSpeed: 4},
			wantSent:   1,
		},
		{
			name:       "frost alert",
			conditions: &weather.Conditions{Temperature: 0, WindSpeed: 2},
			wantSent:   1,
		},
		{
			name:       "storm alert",
			conditions: &weather.Conditions{Temperature: 25, Condition: "Thunderstorm"},
			wantSent:   1,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			store := newFakeStore(locatedAccount(1))
			sender := &fakeSender{}
			deps := TaskDeps{
				Logger:   testLogger(),
				Config:   testConfig(),
				Store:    store,
				Weather:  &fakeWeather{conditions: tc.conditions},
				Sender:   sender,
				Governor: openGovernor(),
			}

			if err := newWeatherAlertsTask(deps)(context.Background()); err != nil {
				t.Fatalf("weather alerts task error = %v", err)
			}
			if len(sender.sent) != tc.wantSent {
				t.Errorf("sent %d alerts, want %d", len(sender.sent), tc.wantSent)
			}
		})
	}
}
