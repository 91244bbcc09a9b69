package policy

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
)

// DayKeyLayout is the calendar-day bucket format for usage entries. Keys are
// derived from the device-local clock, not UTC.
const DayKeyLayout = "2006-01-02"

// UsageStorage defines the persistence operations the ledger needs
type UsageStorage interface {
	GetDailyUsage(ctx context.Context, day string) (int, error)
	IncrementDailyUsage(ctx context.Context, day string, minutes int) error
}

// UsageLedger tracks accumulated engagement minutes keyed by calendar day.
// A day's total only ever grows while that day is current; entries for past
// days are frozen and kept for inspection.
type UsageLedger struct {
	storage UsageStorage
	clock   Clock
	logger  *slog.Logger
	mu      sync.Mutex
}

// NewUsageLedger creates a usage ledger over the given storage
func NewUsageLedger(storage UsageStorage, clock Clock, logger *slog.Logger) *UsageLedger {
	if clock == nil {
		clock = RealClock{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &UsageLedger{
		storage: storage,
		clock:   clock,
		logger:  logger.With("component", "ledger"),
	}
}

// TodayKey returns the day key for the local wall clock at call time
func (l *UsageLedger) TodayKey() string {
	return l.clock.Now().Format(DayKeyLayout)
}

// Accumulate adds minutes to the existing total for the day, creating the
// entry if absent. Calls from concurrent viewing sessions are serialized so
// that every contribution lands; the result is a sum, never a last write.
func (l *UsageLedger) Accumulate(ctx context.Context, day string, minutes int) error {
	if minutes < 0 {
		return ErrNegativeMinutes
	}
	if minutes == 0 {
		return nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.storage.IncrementDailyUsage(ctx, day, minutes); err != nil {
		return fmt.Errorf("failed to accumulate usage for %s: %w", day, err)
	}

	l.logger.Debug("Usage accumulated",
		"day", day,
		"minutes", minutes)

	return nil
}

// TotalFor returns the accumulated minutes for the day, or 0 when no entry
// exists yet.
func (l *UsageLedger) TotalFor(ctx context.Context, day string) (int, error) {
	minutes, err := l.storage.GetDailyUsage(ctx, day)
	if err != nil {
		return 0, fmt.Errorf("failed to read usage for %s: %w", day, err)
	}
	return minutes, nil
}
