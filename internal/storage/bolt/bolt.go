package bolt

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.etcd.io/bbolt"

	"guardian/internal/policy"
	"guardian/internal/storage"
)

const (
	bucketSettings   = "settings"
	bucketDailyUsage = "daily_usage"
)

// Store implements storage.Store using bbolt
type Store struct {
	db *bbolt.DB
}

// Open opens a BoltDB-backed store
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create data dir: %w", err)
		}
	}

	db, err := bbolt.Open(path, 0o600, &bbolt.Options{Timeout: 2 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("open bolt db: %w", err)
	}

	store := &Store{db: db}
	if err := store.ensureBuckets(); err != nil {
		_ = db.Close()
		return nil, err
	}

	return store, nil
}

func (s *Store) ensureBuckets() error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		for _, name := range []string{bucketSettings, bucketDailyUsage} {
			if _, err := tx.CreateBucketIfNotExists([]byte(name)); err != nil {
				return fmt.Errorf("create bucket %s: %w", name, err)
			}
		}
		return nil
	})
}

// Close closes the underlying database
func (s *Store) Close() error {
	return s.db.Close()
}

// getSetting reads a raw setting; the returned slice is nil when absent
func (s *Store) getSetting(ctx context.Context, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var value []byte
	err := s.db.View(func(tx *bbolt.Tx) error {
		raw := tx.Bucket([]byte(bucketSettings)).Get([]byte(key))
		if raw != nil {
			value = make([]byte, len(raw))
			copy(value, raw)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to read setting %s: %w", key, err)
	}
	return value, nil
}

func (s *Store) putSetting(ctx context.Context, key string, value []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	err := s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket([]byte(bucketSettings)).Put([]byte(key), value)
	})
	if err != nil {
		return fmt.Errorf("failed to write setting %s: %w", key, err)
	}
	return nil
}

func (s *Store) getJSONSetting(ctx context.Context, key string, out interface{}) (bool, error) {
	raw, err := s.getSetting(ctx, key)
	if err != nil || raw == nil {
		return false, err
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return false, fmt.Errorf("%w: %s: %v", storage.ErrCorruptRecord, key, err)
	}
	return true, nil
}

func (s *Store) putJSONSetting(ctx context.Context, key string, value interface{}) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal setting %s: %w", key, err)
	}
	return s.putSetting(ctx, key, data)
}

// GetParentPassword returns the stored parental password, or nil when unset
func (s *Store) GetParentPassword(ctx context.Context) (*string, error) {
	raw, err := s.getSetting(ctx, storage.KeyParentPassword)
	if err != nil || raw == nil {
		return nil, err
	}
	value := string(raw)
	return &value, nil
}

// SaveParentPassword persists the parental password value
func (s *Store) SaveParentPassword(ctx context.Context, value string) error {
	return s.putSetting(ctx, storage.KeyParentPassword, []byte(value))
}

// GetTimeLimit returns the stored time-limit settings, or nil when unset
func (s *Store) GetTimeLimit(ctx context.Context) (*policy.TimeLimitSettings, error) {
	var settings policy.TimeLimitSettings
	ok, err := s.getJSONSetting(ctx, storage.KeyTimeLimits, &settings)
	if err != nil || !ok {
		return nil, err
	}
	return &settings, nil
}

// SaveTimeLimit persists time-limit settings
func (s *Store) SaveTimeLimit(ctx context.Context, settings policy.TimeLimitSettings) error {
	return s.putJSONSetting(ctx, storage.KeyTimeLimits, settings)
}

// GetBedtime returns the stored bedtime schedule, or nil when unset
func (s *Store) GetBedtime(ctx context.Context) (*policy.BedtimeSchedule, error) {
	var schedule policy.BedtimeSchedule
	ok, err := s.getJSONSetting(ctx, storage.KeyTimeRestriction, &schedule)
	if err != nil || !ok {
		return nil, err
	}
	return &schedule, nil
}

// SaveBedtime persists the bedtime schedule
func (s *Store) SaveBedtime(ctx context.Context, schedule policy.BedtimeSchedule) error {
	return s.putJSONSetting(ctx, storage.KeyTimeRestriction, schedule)
}

// GetContentFilter returns the stored content filter, or nil when unset
func (s *Store) GetContentFilter(ctx context.Context) (*policy.ContentFilterSettings, error) {
	var settings policy.ContentFilterSettings
	ok, err := s.getJSONSetting(ctx, storage.KeyContentFilters, &settings)
	if err != nil || !ok {
		return nil, err
	}
	return &settings, nil
}

// SaveContentFilter persists the content filter keyword list
func (s *Store) SaveContentFilter(ctx context.Context, settings policy.ContentFilterSettings) error {
	return s.putJSONSetting(ctx, storage.KeyContentFilters, settings)
}

// GetBlockedUsers returns the stored block list, or nil when unset
func (s *Store) GetBlockedUsers(ctx context.Context) ([]policy.BlockedUser, error) {
	var users []policy.BlockedUser
	ok, err := s.getJSONSetting(ctx, storage.KeyBlockedUsers, &users)
	if err != nil || !ok {
		return nil, err
	}
	return users, nil
}

// SaveBlockedUsers persists the full block list
func (s *Store) SaveBlockedUsers(ctx context.Context, users []policy.BlockedUser) error {
	if users == nil {
		users = []policy.BlockedUser{}
	}
	return s.putJSONSetting(ctx, storage.KeyBlockedUsers, users)
}

// GetDailyUsage returns accumulated minutes for a day, 0 when absent
func (s *Store) GetDailyUsage(ctx context.Context, day string) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	var minutes int
	err := s.db.View(func(tx *bbolt.Tx) error {
		raw := tx.Bucket([]byte(bucketDailyUsage)).Get([]byte(day))
		if raw != nil {
			minutes = int(decodeMinutes(raw))
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("failed to read daily usage for %s: %w", day, err)
	}
	return minutes, nil
}

// IncrementDailyUsage adds minutes to a day's total. Bolt serializes update
// transactions, so the read-modify-write is atomic across callers.
func (s *Store) IncrementDailyUsage(ctx context.Context, day string, minutes int) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	err := s.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(bucketDailyUsage))

		var total int64
		if raw := bucket.Get([]byte(day)); raw != nil {
			total = decodeMinutes(raw)
		}
		total += int64(minutes)

		return bucket.Put([]byte(day), encodeMinutes(total))
	})
	if err != nil {
		return fmt.Errorf("failed to increment daily usage for %s: %w", day, err)
	}
	return nil
}

func encodeMinutes(minutes int64) []byte {
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, uint64(minutes))
	return buf
}

func decodeMinutes(raw []byte) int64 {
	if len(raw) != 8 {
		return 0
	}
	return int64(binary.BigEndian.Uint64(raw))
}

var _ storage.Store = (*Store)(nil)
