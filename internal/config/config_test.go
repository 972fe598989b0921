package config_test

import (
	"testing"
	"time"

	"github.com/croplink/agrobot/internal/config"
)

func setCredentials(t *testing.T) {
	t.Helper()
	t.Setenv("BOT_TELEGRAM_TOKEN", "123456:test-token")
	t.Setenv("BOT_TELEGRAM_ADMIN_ID", "42")
	t.Setenv("BOT_GEMINI_API_KEY", "test-api-key")
}

func TestLoadFromEnvironment(t *testing.T) {
	setCredentials(t)

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Telegram.Token != "123456:test-token" {
		t.Errorf("Telegram.Token = %q, want env value", cfg.Telegram.Token)
	}
	if cfg.Telegram.AdminUserID != 42 {
		t.Errorf("Telegram.AdminUserID = %d, want 42", cfg.Telegram.AdminUserID)
	}
	if cfg.Gemini.APIKey != "test-api-key" {
		t.Errorf("Gemini.APIKey = %q, want env value", cfg.Gemini.APIKey)
	}
}

func TestLoadDefaults(t *testing.T) {
	setCredentials(t)

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Logger.Level != "info" {
		t.Errorf("Logger.Level = %q, want info", cfg.Logger.Level)
	}
	if cfg.Gemini.WordBudget != 150 {
		t.Errorf("Gemini.WordBudget = %d, want 150", cfg.Gemini.WordBudget)
	}
	if cfg.Database.SnapshotRetainDays != 30 {
		t.Errorf("Database.SnapshotRetainDays = %d, want 30", cfg.Database.SnapshotRetainDays)
	}
	if cfg.Database.ConversationsPerUser != 100 {
		t.Errorf("Database.ConversationsPerUser = %d, want 100", cfg.Database.ConversationsPerUser)
	}

	if cfg.RateLimit.Message.Capacity != 60 || cfg.RateLimit.Message.Window != time.Minute {
		t.Errorf("RateLimit.Message = %d per %s, want 60 per 1m",
			cfg.RateLimit.Message.Capacity, cfg.RateLimit.Message.Window)
	}
	if cfg.RateLimit.Premium.Capacity <= cfg.RateLimit.API.Capacity {
		t.Errorf("premium capacity %d should exceed api capacity %d",
			cfg.RateLimit.Premium.Capacity, cfg.RateLimit.API.Capacity)
	}
}

func TestLoadAllTasksConfigured(t *testing.T) {
	setCredentials(t)

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	expected := []string{
		config.TaskWeatherUpdate,
		config.TaskMarketUpdate,
		config.TaskDailyTips,
		config.TaskWeeklySummary,
		config.TaskWeatherAlerts,
		config.TaskMarketAlerts,
		config.TaskCleanup,
		config.TaskEngagementCheck,
	}
	if len(cfg.Scheduler.Tasks) != len(expected) {
		t.Errorf("got %d configured tasks, want %d", len(cfg.Scheduler.Tasks), len(expected))
	}
	for _, name := range expected {
		task, ok := cfg.Scheduler.Tasks[name]
		if !ok {
			t.Errorf("task %q has no default configuration", name)
			continue
		}
		if !task.Enabled {
			t.Errorf("task %q disabled by default, want enabled", name)
		}
		if task.Schedule == "" {
			t.Errorf("task %q has no default schedule", name)
		}
	}
}

func TestLoadMissingCredentials(t *testing.T) {
	t.Setenv("BOT_TELEGRAM_TOKEN", "")
	t.Setenv("BOT_TELEGRAM_ADMIN_ID", "0")
	t.Setenv("BOT_GEMINI_API_KEY", "")

	if _, err := config.Load(); err == nil {
		t.Fatal("Load() error = nil, want validation error without credentials")
	}
}

func TestLoadEnvOverridesDefault(t *testing.T) {
	setCredentials(t)
	t.Setenv("BOT_LOGGER_LEVEL", "debug")
	t.Setenv("BOT_DATABASE_PATH", "/tmp/override.db")

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Logger.Level != "debug" {
		t.Errorf("Logger.Level = %q, want debug from env", cfg.Logger.Level)
	}
	if cfg.Database.Path != "/tmp/override.db" {
		t.Errorf("Database.Path = %q, want env override", cfg.Database.Path)
	}
}
