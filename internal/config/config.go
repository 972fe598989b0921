// Package config provides configuration loading, validation, and defaults
// for the AgroBot application. Values come from config.yaml, BOT_-prefixed
// environment variables, and built-in defaults, in that order of precedence.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/go-telegram/bot/models"
	"github.com/spf13/viper"
)

// Config defines the application configuration for all components:
// logging, Telegram transport, AI integration, content providers,
// database, scheduler, and rate limiting.
type Config struct {
	Logger    LoggerConfig    `mapstructure:"logger"`
	Telegram  TelegramConfig  `mapstructure:"telegram"`
	Gemini    GeminiConfig    `mapstructure:"gemini"`
	Weather   WeatherConfig   `mapstructure:"weather"`
	News      NewsConfig      `mapstructure:"news"`
	Market    MarketConfig    `mapstructure:"market"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Scheduler SchedulerConfig `mapstructure:"scheduler"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
	Messages  MessagesConfig  `mapstructure:"messages"`
}

// LoggerConfig controls log level and output format.
type LoggerConfig struct {
	Level string `mapstructure:"level" validate:"oneof=debug info warn error"`
	JSON  bool   `mapstructure:"json"`
}

// TelegramConfig holds the bot token and admin user.
// BotInfo is populated at startup from the Telegram API.
type TelegramConfig struct {
	Token       string `mapstructure:"token"    validate:"required"`
	AdminUserID int64  `mapstructure:"admin_id" validate:"required,gt=0"`

	BotInfo *models.User `mapstructure:"-"`
}

// GeminiConfig holds settings for the generative advice backend.
type GeminiConfig struct {
	APIKey            string        `mapstructure:"api_key" validate:"required"`
	ModelName         string        `mapstructure:"model"`
	Temperature       float32       `mapstructure:"temperature" validate:"min=0,max=2"`
	SystemInstruction string        `mapstructure:"system_instruction"`
	MaxRetries        int           `mapstructure:"max_retries" validate:"min=0,max=10"`
	RetryDelaySeconds int           `mapstructure:"retry_delay_seconds" validate:"min=1,max=60"`
	Timeout           time.Duration `mapstructure:"timeout" validate:"min=1s,max=10m"`
	WordBudget        int           `mapstructure:"word_budget" validate:"min=50,max=500"`
}

// WeatherConfig holds settings for the weather provider HTTP client.
type WeatherConfig struct {
	BaseURL     string        `mapstructure:"base_url" validate:"url"`
	APIKey      string        `mapstructure:"api_key"`
	Timeout     time.Duration `mapstructure:"timeout" validate:"min=1s,max=2m"`
	MaxAttempts int           `mapstructure:"max_attempts" validate:"min=1,max=10"`
}

// NewsConfig maps news categories to RSS feed URLs.
type NewsConfig struct {
	Feeds       map[string]string `mapstructure:"feeds"`
	Timeout     time.Duration     `mapstructure:"timeout" validate:"min=1s,max=2m"`
	MaxArticles int               `mapstructure:"max_articles" validate:"min=1,max=10"`
}

// MarketConfig holds settings for the market price provider HTTP client.
type MarketConfig struct {
	BaseURL     string        `mapstructure:"base_url" validate:"url"`
	Timeout     time.Duration `mapstructure:"timeout" validate:"min=1s,max=2m"`
	MaxAttempts int           `mapstructure:"max_attempts" validate:"min=1,max=10"`
}

// DatabaseConfig holds the SQLite path and retention settings.
type DatabaseConfig struct {
	Path                 string `mapstructure:"path"`
	SnapshotRetainDays   int    `mapstructure:"snapshot_retain_days" validate:"min=1,max=365"`
	ConversationsPerUser int    `mapstructure:"conversations_per_user" validate:"min=1,max=1000"`
}

// TaskConfig configures a single scheduled task.
type TaskConfig struct {
	Enabled   bool          `mapstructure:"enabled"`
	Schedule  string        `mapstructure:"schedule"`
	SendDelay time.Duration `mapstructure:"send_delay"`
}

// SchedulerConfig configures the job scheduler and its tasks.
type SchedulerConfig struct {
	Timezone string                `mapstructure:"timezone"`
	Tasks    map[string]TaskConfig `mapstructure:"tasks"`
}

// BucketConfig configures one rate limit bucket.
type BucketConfig struct {
	Capacity int           `mapstructure:"capacity" validate:"min=1"`
	Window   time.Duration `mapstructure:"window" validate:"min=1s"`
}

// RateLimitConfig configures the per-identity rate governor.
type RateLimitConfig struct {
	API     BucketConfig `mapstructure:"api"`
	Command BucketConfig `mapstructure:"command"`
	Message BucketConfig `mapstructure:"message"`
	Premium BucketConfig `mapstructure:"premium"`
}

// MessagesConfig holds user-facing message templates.
type MessagesConfig struct {
	Welcome       string `mapstructure:"welcome"`
	NotAuthorized string `mapstructure:"not_authorized"`
	Banned        string `mapstructure:"banned"`
	RateLimited   string `mapstructure:"rate_limited"`
	GeneralError  string `mapstructure:"general_error"`
}

// Load reads configuration from config.yaml and BOT_* environment
// variables, applies defaults, and validates the result. A missing config
// file is not an error; missing required credentials are.
func Load() (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	v.SetEnvPrefix("BOT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// No config file is fine, defaults plus env vars apply.
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}
