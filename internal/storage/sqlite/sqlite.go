package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"guardian/internal/policy"
	"guardian/internal/storage"

	_ "github.com/mattn/go-sqlite3"
)

// SQLiteStorage implements storage.Store using SQLite
type SQLiteStorage struct {
	db *sql.DB
}

// New creates a new SQLite storage instance
func New(dbPath string) (*SQLiteStorage, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Serialize writers; the ledger may accumulate from several sessions
	db.SetMaxOpenConns(1)

	s := &SQLiteStorage{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return s, nil
}

// migrate creates the database schema
func (s *SQLiteStorage) migrate() error {
	schema := `
		CREATE TABLE IF NOT EXISTS settings (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL,
			updated_at DATETIME NOT NULL
		);

		CREATE TABLE IF NOT EXISTS daily_usage (
			day TEXT PRIMARY KEY,
			minutes INTEGER NOT NULL DEFAULT 0,
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL
		);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Close closes the database connection
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

// getSetting reads a raw setting value; ok is false when the key is absent
func (s *SQLiteStorage) getSetting(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM settings WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to read setting %s: %w", key, err)
	}
	return value, true, nil
}

// setSetting writes a raw setting value under its key
func (s *SQLiteStorage) setSetting(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO settings (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`, key, value, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to write setting %s: %w", key, err)
	}
	return nil
}

// getJSONSetting decodes a setting into out; ok is false when absent
func (s *SQLiteStorage) getJSONSetting(ctx context.Context, key string, out interface{}) (bool, error) {
	raw, ok, err := s.getSetting(ctx, key)
	if err != nil || !ok {
		return ok, err
	}
	if err := json.Unmarshal([]byte(raw), out); err != nil {
		return false, fmt.Errorf("%w: %s: %v", storage.ErrCorruptRecord, key, err)
	}
	return true, nil
}

// setJSONSetting encodes value and writes it under key
func (s *SQLiteStorage) setJSONSetting(ctx context.Context, key string, value interface{}) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal setting %s: %w", key, err)
	}
	return s.setSetting(ctx, key, string(data))
}

// GetParentPassword returns the stored parental password, or nil when unset
func (s *SQLiteStorage) GetParentPassword(ctx context.Context) (*string, error) {
	value, ok, err := s.getSetting(ctx, storage.KeyParentPassword)
	if err != nil || !ok {
		return nil, err
	}
	return &value, nil
}

// SaveParentPassword persists the parental password value
func (s *SQLiteStorage) SaveParentPassword(ctx context.Context, value string) error {
	return s.setSetting(ctx, storage.KeyParentPassword, value)
}

// GetTimeLimit returns the stored time-limit settings, or nil when unset
func (s *SQLiteStorage) GetTimeLimit(ctx context.Context) (*policy.TimeLimitSettings, error) {
	var settings policy.TimeLimitSettings
	ok, err := s.getJSONSetting(ctx, storage.KeyTimeLimits, &settings)
	if err != nil || !ok {
		return nil, err
	}
	return &settings, nil
}

// SaveTimeLimit persists time-limit settings
func (s *SQLiteStorage) SaveTimeLimit(ctx context.Context, settings policy.TimeLimitSettings) error {
	return s.setJSONSetting(ctx, storage.KeyTimeLimits, settings)
}

// GetBedtime returns the stored bedtime schedule, or nil when unset
func (s *SQLiteStorage) GetBedtime(ctx context.Context) (*policy.BedtimeSchedule, error) {
	var schedule policy.BedtimeSchedule
	ok, err := s.getJSONSetting(ctx, storage.KeyTimeRestriction, &schedule)
	if err != nil || !ok {
		return nil, err
	}
	return &schedule, nil
}

// SaveBedtime persists the bedtime schedule
func (s *SQLiteStorage) SaveBedtime(ctx context.Context, schedule policy.BedtimeSchedule) error {
	return s.setJSONSetting(ctx, storage.KeyTimeRestriction, schedule)
}

// GetContentFilter returns the stored content filter, or nil when unset
func (s *SQLiteStorage) GetContentFilter(ctx context.Context) (*policy.ContentFilterSettings, error) {
	var settings policy.ContentFilterSettings
	ok, err := s.getJSONSetting(ctx, storage.KeyContentFilters, &settings)
	if err != nil || !ok {
		return nil, err
	}
	return &settings, nil
}

// SaveContentFilter persists the content filter keyword list
func (s *SQLiteStorage) SaveContentFilter(ctx context.Context, settings policy.ContentFilterSettings) error {
	return s.setJSONSetting(ctx, storage.KeyContentFilters, settings)
}

// GetBlockedUsers returns the stored block list, or nil when unset
func (s *SQLiteStorage) GetBlockedUsers(ctx context.Context) ([]policy.BlockedUser, error) {
	var users []policy.BlockedUser
	ok, err := s.getJSONSetting(ctx, storage.KeyBlockedUsers, &users)
	if err != nil || !ok {
		return nil, err
	}
	return users, nil
}

// SaveBlockedUsers persists the full block list
func (s *SQLiteStorage) SaveBlockedUsers(ctx context.Context, users []policy.BlockedUser) error {
	if users == nil {
		users = []policy.BlockedUser{}
	}
	return s.setJSONSetting(ctx, storage.KeyBlockedUsers, users)
}

// GetDailyUsage returns accumulated minutes for a day, 0 when absent
func (s *SQLiteStorage) GetDailyUsage(ctx context.Context, day string) (int, error) {
	var minutes int
	err := s.db.QueryRowContext(ctx, `SELECT minutes FROM daily_usage WHERE day = ?`, day).Scan(&minutes)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read daily usage for %s: %w", day, err)
	}
	return minutes, nil
}

// IncrementDailyUsage adds minutes to a day's total, creating the row if
// absent. The upsert is atomic, so concurrent increments always sum.
func (s *SQLiteStorage) IncrementDailyUsage(ctx context.Context, day string, minutes int) error {
	now := time.Now().UTC()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO daily_usage (day, minutes, created_at, updated_at) VALUES (?, ?, ?, ?)
		ON CONFLICT(day) DO UPDATE SET minutes = minutes + excluded.minutes, updated_at = excluded.updated_at
	`, day, minutes, now, now)
	if err != nil {
		return fmt.Errorf("failed to increment daily usage for %s: %w", day, err)
	}
	return nil
}

var _ storage.Store = (*SQLiteStorage)(nil)
