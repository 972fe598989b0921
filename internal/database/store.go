package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"
)

// NotificationFlag selects which notification preference an eligibility
// query filters on.
type NotificationFlag int

const (
	// FlagNone applies no notification filter.
	FlagNone NotificationFlag = iota
	// FlagAny requires at least one notification preference enabled.
	FlagAny
	FlagWeather
	FlagMarket
	FlagTips
	FlagAlerts
)

// Eligibility is the predicate a broadcast job applies to the accounts
// table. Banned accounts are always excluded.
type Eligibility struct {
	Flag               NotificationFlag
	RequireCoordinates bool
	// InactiveSince, when non-zero, selects accounts whose last
	// interaction is older than this time (re-engagement jobs).
	InactiveSince time.Time
}

// Store defines the data access interface. All methods accept a context
// for cancellation and timeouts.
type Store interface {
	// Ping checks the database connection.
	Ping(ctx context.Context) error

	// GetAccount retrieves an account by chat ID. Returns nil, nil if not found.
	GetAccount(ctx context.Context, chatID int64) (*Account, error)

	// EnsureAccount returns the account for chatID, creating a default
	// one on first contact.
	EnsureAccount(ctx context.Context, chatID int64) (*Account, error)

	// UpsertAccount inserts or updates an account keyed on chat ID.
	UpsertAccount(ctx context.Context, account *Account) error

	// TouchInteraction bumps the message or command counter and the
	// last interaction timestamp.
	TouchInteraction(ctx context.Context, chatID int64, command bool) error

	// ListEligible returns accounts matching the eligibility predicate,
	// in stable query order.
	ListEligible(ctx context.Context, e Eligibility) ([]*Account, error)

	// SetBanned bans or unbans an account.
	SetBanned(ctx context.Context, chatID int64, banned bool, reason string) error

	// SetSubscription updates an account's subscription tier and expiry.
	SetSubscription(ctx context.Context, chatID int64, tier string, expiresAt time.Time) error

	// DeleteAccount removes an account and all its conversation records.
	DeleteAccount(ctx context.Context, chatID int64) error

	// CountAccounts returns the total number of accounts.
	CountAccounts(ctx context.Context) (int64, error)

	// SaveSnapshot inserts a new content snapshot. Snapshots are immutable.
	SaveSnapshot(ctx context.Context, snapshot *Snapshot) error

	// LatestSnapshot returns the most recent snapshot of the given kind,
	// or nil, nil if none exists. Staleness is the caller's call.
	LatestSnapshot(ctx context.Context, kind string) (*Snapshot, error)

	// PurgeSnapshotsBefore deletes snapshots last updated before cutoff
	// and returns the number removed.
	PurgeSnapshotsBefore(ctx context.Context, cutoff time.Time) (int64, error)

	// SaveConversation appends a conversation record.
	SaveConversation(ctx context.Context, conversation *Conversation) error

	// RateConversation attaches a late satisfaction rating to a record.
	RateConversation(ctx context.Context, id uint, rating int) error

	// TrimConversations deletes all but the most recent keep records for
	// a chat and returns the number removed.
	TrimConversations(ctx context.Context, chatID int64, keep int) (int64, error)

	// CountConversationsSince counts a chat's records created after since.
	CountConversationsSince(ctx context.Context, chatID int64, since time.Time) (int64, error)

	// IntentBreakdown aggregates a chat's records by intent since the
	// given time, most frequent first.
	IntentBreakdown(ctx context.Context, chatID int64, since time.Time) ([]IntentCount, error)

	// RunMaintenance performs database maintenance (VACUUM).
	RunMaintenance(ctx context.Context) error
}

type sqlxStore struct {
	db     *sqlx.DB
	logger *slog.Logger
}

// NewStore creates a Store backed by sqlx. It requires a connected
// sqlx.DB instance and a logger.
func NewStore(db *sqlx.DB, logger *slog.Logger) Store {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &sqlxStore{
		db:     db,
		logger: logger.With("component", "store"),
	}
}

func (s *sqlxStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

const accountColumns = `id, created_at, updated_at, chat_id,
	country, state, city, latitude, longitude, farm_size, crops, farming_type, experience,
	notify_weather, notify_market, notify_tips, notify_alerts,
	is_admin, is_moderator, is_banned, ban_reason,
	tier, tier_expires_at,
	message_count, command_count, report_count, last_interaction`

func (s *sqlxStore) GetAccount(ctx context.Context, chatID int64) (*Account, error) {
	if chatID == 0 {
		return nil, fmt.Errorf("chat_id cannot be zero")
	}

	var account Account
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE chat_id = ?`

	err := s.db.GetContext(ctx, &account, query, chatID)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		s.logger.DebugContext(ctx, "No account found", "chat_id", chatID)
		return nil, nil
	case err != nil:
		s.logger.ErrorContext(ctx, "Error getting account", "chat_id", chatID, "error", err)
		return nil, fmt.Errorf("failed to get account for chat %d: %w", chatID, err)
	}

	return &account, nil
}

func (s *sqlxStore) EnsureAccount(ctx context.Context, chatID int64) (*Account, error) {
	account, err := s.GetAccount(ctx, chatID)
	if err != nil {
		return nil, err
	}
	if account != nil {
		return account, nil
	}

	now := time.Now().UTC()
	account = &Account{
		ChatID:          chatID,
		CreatedAt:       now,
		UpdatedAt:       now,
		Tier:            TierFree,
		LastInteraction: now,
	}
	if err := s.UpsertAccount(ctx, account); err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "Created account on first contact", "chat_id", chatID)
	return account, nil
}

func (s *sqlxStore) UpsertAccount(ctx context.Context, account *Account) error {
	if account == nil {
		return fmt.Errorf("cannot save nil account")
	}
	if account.ChatID == 0 {
		return fmt.Errorf("account must have a non-zero chat_id")
	}

	now := time.Now().UTC()
	account.UpdatedAt = now
	if account.CreatedAt.IsZero() {
		account.CreatedAt = now
	}
	if account.LastInteraction.IsZero() {
		account.LastInteraction = now
	}
	if account.Tier == "" {
		account.Tier = TierFree
	}

	query := `
		INSERT INTO accounts (
			created_at, updated_at, chat_id,
			country, state, city, latitude, longitude, farm_size, crops, farming_type, experience,
			notify_weather, notify_market, notify_tips, notify_alerts,
			is_admin, is_moderator, is_banned, ban_reason,
			tier, tier_expires_at,
			message_count, command_count, report_count, last_interaction
		) VALUES (
			:created_at, :updated_at, :chat_id,
			:country, :state, :city, :latitude, :longitude, :farm_size, :crops, :farming_type, :experience,
			:notify_weather, :notify_market, :notify_tips, :notify_alerts,
			:is_admin, :is_moderator, :is_banned, :ban_reason,
			:tier, :tier_expires_at,
			:message_count, :command_count, :report_count, :last_interaction
		)
		ON CONFLICT (chat_id) DO UPDATE SET
			updated_at = excluded.updated_at,
			country = excluded.country,
			state = excluded.state,
			city = excluded.city,
			latitude = excluded.latitude,
			longitude = excluded.longitude,
			farm_size = excluded.farm_size,
			crops = excluded.crops,
			farming_type = excluded.farming_type,
			experience = excluded.experience,
			notify_weather = excluded.notify_weather,
			notify_market = excluded.notify_market,
			notify_tips = excluded.notify_tips,
			notify_alerts = excluded.notify_alerts,
			is_admin = excluded.is_admin,
			is_moderator = excluded.is_moderator,
			is_banned = excluded.is_banned,
			ban_reason = excluded.ban_reason,
			tier = excluded.tier,
			tier_expires_at = excluded.tier_expires_at
	`

	result, err := s.db.NamedExecContext(ctx, query, account)
	if err != nil {
		s.logger.ErrorContext(ctx, "Error saving account", "chat_id", account.ChatID, "error", err)
		return fmt.Errorf("failed to save account for chat %d: %w", account.ChatID, err)
	}

	if account.ID == 0 {
		if id, err := result.LastInsertId(); err == nil {
			//nolint:gosec // integer overflow conversion is acceptable here
			account.ID = uint(id)
		}
	}

	s.logger.DebugContext(ctx, "Account saved", "chat_id", account.ChatID)
	return nil
}

func (s *sqlxStore) TouchInteraction(ctx context.Context, chatID int64, command bool) error {
	column := "message_count"
	if command {
		column = "command_count"
	}

	query := fmt.Sprintf(`
		UPDATE accounts
		SET %s = %s + 1, last_interaction = ?, updated_at = ?
		WHERE chat_id = ?`, column, column)

	now := time.Now().UTC()
	result, err := s.db.ExecContext(ctx, query, now, now, chatID)
	if err != nil {
		s.logger.ErrorContext(ctx, "Error touching interaction", "chat_id", chatID, "error", err)
		return fmt.Errorf("failed to touch interaction for chat %d: %w", chatID, err)
	}

	if affected, err := result.RowsAffected(); err == nil && affected != 1 {
		s.logger.WarnContext(ctx, "Touch interaction affected unexpected rows",
			"chat_id", chatID, "affected", affected)
	}
	return nil
}

func (s *sqlxStore) ListEligible(ctx context.Context, e Eligibility) ([]*Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE is_banned = 0`
	var args []any

	switch e.Flag {
	case FlagWeather:
		query += ` AND notify_weather = 1`
	case FlagMarket:
		query += ` AND notify_market = 1`
	case FlagTips:
		query += ` AND notify_tips = 1`
	case FlagAlerts:
		query += ` AND notify_alerts = 1`
	case FlagAny:
		query += ` AND (notify_weather = 1 OR notify_market = 1 OR notify_tips = 1 OR notify_alerts = 1)`
	case FlagNone:
		// no notification filter
	}

	if e.RequireCoordinates {
		query += ` AND latitude IS NOT NULL AND longitude IS NOT NULL`
	}
	if !e.InactiveSince.IsZero() {
		query += ` AND last_interaction < ?`
		args = append(args, e.InactiveSince)
	}

	// Deterministic delivery order within a job run.
	query += ` ORDER BY id ASC`

	var accounts []*Account
	if err := s.db.SelectContext(ctx, &accounts, query, args...); err != nil {
		s.logger.ErrorContext(ctx, "Error listing eligible accounts", "error", err)
		return nil, fmt.Errorf("failed to list eligible accounts: %w", err)
	}

	s.logger.DebugContext(ctx, "Listed eligible accounts", "count", len(accounts))
	return accounts, nil
}

func (s *sqlxStore) SetBanned(ctx context.Context, chatID int64, banned bool, reason string) error {
	if !banned {
		reason = ""
	}

	query := `UPDATE accounts SET is_banned = ?, ban_reason = ?, updated_at = ? WHERE chat_id = ?`
	result, err := s.db.ExecContext(ctx, query, banned, reason, time.Now().UTC(), chatID)
	if err != nil {
		s.logger.ErrorContext(ctx, "Error updating ban state", "chat_id", chatID, "error", err)
		return fmt.Errorf("failed to update ban state for chat %d: %w", chatID, err)
	}

	if affected, _ := result.RowsAffected(); affected == 0 {
		return fmt.Errorf("no account found for chat %d", chatID)
	}

	s.logger.InfoContext(ctx, "Ban state updated", "chat_id", chatID, "banned", banned)
	return nil
}

func (s *sqlxStore) SetSubscription(ctx context.Context, chatID int64, tier string, expiresAt time.Time) error {
	if tier != TierFree && tier != TierPremium && tier != TierPro {
		return fmt.Errorf("invalid subscription tier %q", tier)
	}

	expiry := sql.NullTime{}
	if !expiresAt.IsZero() {
		expiry = sql.NullTime{Time: expiresAt, Valid: true}
	}

	query := `UPDATE accounts SET tier = ?, tier_expires_at = ?, updated_at = ? WHERE chat_id = ?`
	result, err := s.db.ExecContext(ctx, query, tier, expiry, time.Now().UTC(), chatID)
	if err != nil {
		s.logger.ErrorContext(ctx, "Error updating subscription", "chat_id", chatID, "error", err)
		return fmt.Errorf("failed to update subscription for chat %d: %w", chatID, err)
	}

	if affected, _ := result.RowsAffected(); affected == 0 {
		return fmt.Errorf("no account found for chat %d", chatID)
	}

	s.logger.InfoContext(ctx, "Subscription updated", "chat_id", chatID, "tier", tier)
	return nil
}

func (s *sqlxStore) DeleteAccount(ctx context.Context, chatID int64) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction for account deletion: %w", err)
	}
	defer func() {
		if tx != nil {
			if rollbackErr := tx.Rollback(); rollbackErr != nil && !errors.Is(rollbackErr, sql.ErrTxDone) {
				s.logger.WarnContext(ctx, "Error rolling back transaction", "error", rollbackErr)
			}
		}
	}()

	if _, err := tx.ExecContext(ctx, `DELETE FROM conversations WHERE chat_id = ?`, chatID); err != nil {
		s.logger.ErrorContext(ctx, "Error deleting conversations for account", "chat_id", chatID, "error", err)
		return fmt.Errorf("failed to delete conversations for chat %d: %w", chatID, err)
	}

	result, err := tx.ExecContext(ctx, `DELETE FROM accounts WHERE chat_id = ?`, chatID)
	if err != nil {
		s.logger.ErrorContext(ctx, "Error deleting account", "chat_id", chatID, "error", err)
		return fmt.Errorf("failed to delete account for chat %d: %w", chatID, err)
	}

	if affected, _ := result.RowsAffected(); affected == 0 {
		return fmt.Errorf("no account found for chat %d", chatID)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit account deletion: %w", err)
	}
	tx = nil

	s.logger.InfoContext(ctx, "Account deleted with conversation history", "chat_id", chatID)
	return nil
}

func (s *sqlxStore) CountAccounts(ctx context.Context) (int64, error) {
	var count int64
	if err := s.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM accounts`); err != nil {
		return 0, fmt.Errorf("failed to count accounts: %w", err)
	}
	return count, nil
}

func (s *sqlxStore) SaveSnapshot(ctx context.Context, snapshot *Snapshot) error {
	if snapshot == nil {
		return fmt.Errorf("cannot save nil snapshot")
	}
	if snapshot.Kind == "" {
		return fmt.Errorf("snapshot must have a kind")
	}
	if snapshot.LastUpdated.IsZero() {
		snapshot.LastUpdated = time.Now().UTC()
	}
	snapshot.CreatedAt = time.Now().UTC()

	query := `
		INSERT INTO snapshots (created_at, kind, source, payload, last_updated, valid_until)
		VALUES (:created_at, :kind, :source, :payload, :last_updated, :valid_until)`

	result, err := s.db.NamedExecContext(ctx, query, snapshot)
	if err != nil {
		s.logger.ErrorContext(ctx, "Error saving snapshot", "kind", snapshot.Kind, "error", err)
		return fmt.Errorf("failed to save %s snapshot: %w", snapshot.Kind, err)
	}

	if id, err := result.LastInsertId(); err == nil {
		//nolint:gosec // integer overflow conversion is acceptable here
		snapshot.ID = uint(id)
	}

	s.logger.DebugContext(ctx, "Snapshot saved", "kind", snapshot.Kind, "source", snapshot.Source)
	return nil
}

func (s *sqlxStore) LatestSnapshot(ctx context.Context, kind string) (*Snapshot, error) {
	var snapshot Snapshot
	query := `
		SELECT id, created_at, kind, source, payload, last_updated, valid_until
		FROM snapshots
		WHERE kind = ?
		ORDER BY last_updated DESC, id DESC
		LIMIT 1`

	err := s.db.GetContext(ctx, &snapshot, query, kind)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		s.logger.DebugContext(ctx, "No snapshot found", "kind", kind)
		return nil, nil
	case err != nil:
		s.logger.ErrorContext(ctx, "Error getting latest snapshot", "kind", kind, "error", err)
		return nil, fmt.Errorf("failed to get latest %s snapshot: %w", kind, err)
	}

	return &snapshot, nil
}

func (s *sqlxStore) PurgeSnapshotsBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	result, err := s.db.ExecContext(ctx, `DELETE FROM snapshots WHERE last_updated < ?`, cutoff)
	if err != nil {
		s.logger.ErrorContext(ctx, "Error purging snapshots", "cutoff", cutoff, "error", err)
		return 0, fmt.Errorf("failed to purge snapshots before %s: %w", cutoff, err)
	}

	count, _ := result.RowsAffected()
	s.logger.InfoContext(ctx, "Purged old snapshots", "cutoff", cutoff, "count", count)
	return count, nil
}

func (s *sqlxStore) SaveConversation(ctx context.Context, conversation *Conversation) error {
	if conversation == nil {
		return fmt.Errorf("cannot save nil conversation")
	}
	if conversation.ChatID == 0 {
		return fmt.Errorf("conversation must have a non-zero chat_id")
	}
	if conversation.Entities == "" {
		conversation.Entities = "[]"
	}
	conversation.CreatedAt = time.Now().UTC()

	query := `
		INSERT INTO conversations (created_at, chat_id, message, response, intent, entities, confidence, model_tag, latency_ms, rating)
		VALUES (:created_at, :chat_id, :message, :response, :intent, :entities, :confidence, :model_tag, :latency_ms, :rating)`

	result, err := s.db.NamedExecContext(ctx, query, conversation)
	if err != nil {
		s.logger.ErrorContext(ctx, "Error saving conversation", "chat_id", conversation.ChatID, "error", err)
		return fmt.Errorf("failed to save conversation for chat %d: %w", conversation.ChatID, err)
	}

	if id, err := result.LastInsertId(); err == nil {
		//nolint:gosec // integer overflow conversion is acceptable here
		conversation.ID = uint(id)
	}

	s.logger.DebugContext(ctx, "Conversation saved",
		"chat_id", conversation.ChatID, "intent", conversation.Intent)
	return nil
}

func (s *sqlxStore) RateConversation(ctx context.Context, id uint, rating int) error {
	if rating < 1 || rating > 5 {
		return fmt.Errorf("rating must be between 1 and 5, got %d", rating)
	}

	result, err := s.db.ExecContext(ctx, `UPDATE conversations SET rating = ? WHERE id = ?`, rating, id)
	if err != nil {
		s.logger.ErrorContext(ctx, "Error rating conversation", "id", id, "error", err)
		return fmt.Errorf("failed to rate conversation %d: %w", id, err)
	}

	if affected, _ := result.RowsAffected(); affected == 0 {
		return fmt.Errorf("no conversation found with id %d", id)
	}
	return nil
}

func (s *sqlxStore) TrimConversations(ctx context.Context, chatID int64, keep int) (int64, error) {
	if keep <= 0 {
		return 0, fmt.Errorf("keep must be positive, got %d", keep)
	}

	query := `
		DELETE FROM conversations
		WHERE chat_id = ? AND id NOT IN (
			SELECT id FROM conversations
			WHERE chat_id = ?
			ORDER BY created_at DESC, id DESC
			LIMIT ?
		)`

	result, err := s.db.ExecContext(ctx, query, chatID, chatID, keep)
	if err != nil {
		s.logger.ErrorContext(ctx, "Error trimming conversations", "chat_id", chatID, "error", err)
		return 0, fmt.Errorf("failed to trim conversations for chat %d: %w", chatID, err)
	}

	count, _ := result.RowsAffected()
	if count > 0 {
		s.logger.DebugContext(ctx, "Trimmed conversations", "chat_id", chatID, "removed", count)
	}
	return count, nil
}

func (s *sqlxStore) CountConversationsSince(ctx context.Context, chatID int64, since time.Time) (int64, error) {
	var count int64
	query := `SELECT COUNT(*) FROM conversations WHERE chat_id = ? AND created_at >= ?`
	if err := s.db.GetContext(ctx, &count, query, chatID, since); err != nil {
		return 0, fmt.Errorf("failed to count conversations for chat %d: %w", chatID, err)
	}
	return count, nil
}

func (s *sqlxStore) IntentBreakdown(ctx context.Context, chatID int64, since time.Time) ([]IntentCount, error) {
	var breakdown []IntentCount
	query := `
		SELECT intent, COUNT(*) AS count
		FROM conversations
		WHERE chat_id = ? AND created_at >= ?
		GROUP BY intent
		ORDER BY count DESC, intent ASC`

	if err := s.db.SelectContext(ctx, &breakdown, query, chatID, since); err != nil {
		s.logger.ErrorContext(ctx, "Error aggregating intents", "chat_id", chatID, "error", err)
		return nil, fmt.Errorf("failed to aggregate intents for chat %d: %w", chatID, err)
	}
	return breakdown, nil
}

func (s *sqlxStore) RunMaintenance(ctx context.Context) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}

	s.logger.InfoContext(ctx, "Starting database maintenance (VACUUM)...")

	if _, err := s.db.ExecContext(ctx, "VACUUM;"); err != nil {
		s.logger.ErrorContext(ctx, "Database maintenance failed", "error", err)
		return fmt.Errorf("failed to execute VACUUM: %w", err)
	}

	s.logger.InfoContext(ctx, "Database maintenance completed.")
	return nil
}
