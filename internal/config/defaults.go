package config

import (
	"time"

	"github.com/spf13/viper"
)

// Task names registered with the scheduler. The keys under
// scheduler.tasks in config.yaml must match these.
const (
	TaskWeatherUpdate   = "weather_update"
	TaskMarketUpdate    = "market_update"
	TaskDailyTips       = "daily_tips"
	TaskWeeklySummary   = "weekly_summary"
	TaskWeatherAlerts   = "weather_alerts"
	TaskMarketAlerts    = "market_alerts"
	TaskCleanup         = "cleanup"
	TaskEngagementCheck = "engagement_check"
)

// defaultSchedules holds the built-in cron expression for each task.
// All of them can be overridden per task in config.yaml.
var defaultSchedules = map[string]string{
	TaskWeatherUpdate:   "0 7 * * *",
	TaskMarketUpdate:    "0 8 * * *",
	TaskDailyTips:       "0 9 * * *",
	TaskWeeklySummary:   "0 10 * * 0",
	TaskWeatherAlerts:   "0 */3 * * *",
	TaskMarketAlerts:    "30 */6 * * *",
	TaskCleanup:         "0 3 * * *",
	TaskEngagementCheck: "0 12 * * *",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.json", true)

	// Credentials have no usable default, but the keys must exist for
	// environment-only values to bind during unmarshal.
	v.SetDefault("telegram.token", "")
	v.SetDefault("telegram.admin_id", 0)
	v.SetDefault("gemini.api_key", "")

	v.SetDefault("gemini.model", "gemini-2.0-flash")
	v.SetDefault("gemini.temperature", 0.7)
	v.SetDefault("gemini.system_instruction",
		"You are an experienced agronomist assisting smallholder farmers. "+
			"Give practical, region-aware advice in plain language.")
	v.SetDefault("gemini.max_retries", 2)
	v.SetDefault("gemini.retry_delay_seconds", 2)
	v.SetDefault("gemini.timeout", 2*time.Minute)
	v.SetDefault("gemini.word_budget", 150)

	v.SetDefault("weather.base_url", "https://api.openweathermap.org/data/2.5")
	v.SetDefault("weather.timeout", 15*time.Second)
	v.SetDefault("weather.max_attempts", 3)

	v.SetDefault("news.timeout", 20*time.Second)
	v.SetDefault("news.max_articles", 3)
	v.SetDefault("news.feeds", map[string]string{})

	v.SetDefault("market.base_url", "https://api.data.gov.in/resource")
	v.SetDefault("market.timeout", 15*time.Second)
	v.SetDefault("market.max_attempts", 3)

	v.SetDefault("database.path", "agrobot.db")
	v.SetDefault("database.snapshot_retain_days", 30)
	v.SetDefault("database.conversations_per_user", 100)

	v.SetDefault("scheduler.timezone", "UTC")
	for name, schedule := range defaultSchedules {
		v.SetDefault("scheduler.tasks."+name+".enabled", true)
		v.SetDefault("scheduler.tasks."+name+".schedule", schedule)
		v.SetDefault("scheduler.tasks."+name+".send_delay", 100*time.Millisecond)
	}

	v.SetDefault("rate_limit.api.capacity", 100)
	v.SetDefault("rate_limit.api.window", 15*time.Minute)
	v.SetDefault("rate_limit.command.capacity", 30)
	v.SetDefault("rate_limit.command.window", time.Minute)
	v.SetDefault("rate_limit.message.capacity", 60)
	v.SetDefault("rate_limit.message.window", time.Minute)
	v.SetDefault("rate_limit.premium.capacity", 200)
	v.SetDefault("rate_limit.premium.window", 15*time.Minute)

	v.SetDefault("messages.welcome",
		"👋 Welcome to AgroBot! Ask me about weather, crops, pests, irrigation, or market prices.")
	v.SetDefault("messages.not_authorized", "🚫 You are not authorized to use this command.")
	v.SetDefault("messages.banned", "🚫 Your account is suspended. Contact support if you believe this is a mistake.")
	v.SetDefault("messages.rate_limited", "⏱️ You're sending messages too fast.")
	v.SetDefault("messages.general_error", "❌ Something went wrong. Please try again later.")
}
