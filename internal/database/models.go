package database

import (
	"database/sql"
	"strings"
	"time"
)

// Subscription tiers.
const (
	TierFree    = "free"
	TierPremium = "premium"
	TierPro     = "pro"
)

// Snapshot kinds. New data is always a new snapshot row, never an update.
const (
	SnapshotWeather = "weather"
	SnapshotMarket  = "market"
	SnapshotTips    = "tips"
	SnapshotFacts   = "facts"
	SnapshotNews    = "news"
)

// Account represents one chat participant: profile, notification
// preferences, permission flags, subscription, and usage counters.
// ChatID is the Telegram chat id and the sole natural key; every
// scheduling and delivery lookup keys off it.
type Account struct {
	ID        uint      `db:"id"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`

	ChatID int64 `db:"chat_id"`

	Country     string          `db:"country"`
	State       string          `db:"state"`
	City        string          `db:"city"`
	Latitude    sql.NullFloat64 `db:"latitude"`
	Longitude   sql.NullFloat64 `db:"longitude"`
	FarmSize    float64         `db:"farm_size"`
	Crops       string          `db:"crops"` // comma-separated crop tags
	FarmingType string          `db:"farming_type"`
	Experience  string          `db:"experience"`

	NotifyWeather bool `db:"notify_weather"`
	NotifyMarket  bool `db:"notify_market"`
	NotifyTips    bool `db:"notify_tips"`
	NotifyAlerts  bool `db:"notify_alerts"`

	IsAdmin     bool   `db:"is_admin"`
	IsModerator bool   `db:"is_moderator"`
	IsBanned    bool   `db:"is_banned"`
	BanReason   string `db:"ban_reason"`

	Tier          string       `db:"tier"`
	TierExpiresAt sql.NullTime `db:"tier_expires_at"`

	MessageCount    int64     `db:"message_count"`
	CommandCount    int64     `db:"command_count"`
	ReportCount     int64     `db:"report_count"`
	LastInteraction time.Time `db:"last_interaction"`
}

// HasCoordinates reports whether the account has a usable location for
// weather lookups.
func (a *Account) HasCoordinates() bool {
	return a.Latitude.Valid && a.Longitude.Valid
}

// CropTags returns the account's crop interests as a slice.
func (a *Account) CropTags() []string {
	if a.Crops == "" {
		return nil
	}
	return splitCSV(a.Crops)
}

// Snapshot is an immutable, timestamped bundle of externally sourced
// content. Payload is a JSON document whose shape depends on Kind.
// Staleness is judged at read time against ValidUntil and LastUpdated.
type Snapshot struct {
	ID        uint      `db:"id"`
	CreatedAt time.Time `db:"created_at"`

	Kind        string       `db:"kind"`
	Source      string       `db:"source"`
	Payload     string       `db:"payload"`
	LastUpdated time.Time    `db:"last_updated"`
	ValidUntil  sql.NullTime `db:"valid_until"`
}

// Fresh reports whether the snapshot is still valid at the given time.
// A snapshot without an explicit validity window never expires here;
// callers that care compare LastUpdated themselves.
func (s *Snapshot) Fresh(now time.Time) bool {
	if !s.ValidUntil.Valid {
		return true
	}
	return now.Before(s.ValidUntil.Time)
}

// Conversation records one inbound message and the generated response.
// Rows are append-only; only Rating may be attached later.
type Conversation struct {
	ID        uint      `db:"id"`
	CreatedAt time.Time `db:"created_at"`

	ChatID     int64         `db:"chat_id"`
	Message    string        `db:"message"`
	Response   string        `db:"response"`
	Intent     string        `db:"intent"`
	Entities   string        `db:"entities"` // JSON array of {type, value}
	Confidence float64       `db:"confidence"`
	ModelTag   string        `db:"model_tag"`
	LatencyMS  int64         `db:"latency_ms"`
	Rating     sql.NullInt64 `db:"rating"`
}

// IntentCount is one row of the analytics intent breakdown.
type IntentCount struct {
	Intent string `db:"intent"`
	Count  int64  `db:"count"`
}

func splitCSV(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
