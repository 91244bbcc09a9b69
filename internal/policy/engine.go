package policy

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"

	"guardian/internal/idgen"
)

// Engine is the policy engine service. It owns the in-memory configuration,
// the session-scoped override flag, the usage ledger and the tracker, and
// exposes the verdict and screening operations the UI layer calls.
//
// Construct one Engine at process start and pass it by reference to all
// consumers. Evaluation always runs against a snapshot of the current
// configuration, never against values captured earlier.
type Engine struct {
	storage Storage
	ledger  *UsageLedger
	tracker *Tracker
	clock   Clock
	logger  *slog.Logger

	mu  sync.RWMutex // guards cfg
	cfg PolicyConfig

	// Session-scoped bypass. In memory only; cleared on restart, no TTL.
	override atomic.Bool
}

// NewEngine creates the engine and loads the persisted configuration.
// Unreadable or malformed sections fall back to the permissive default: the
// engine fails open rather than locking the viewer out on a bad read.
func NewEngine(storage Storage, clock Clock, logger *slog.Logger) *Engine {
	if clock == nil {
		clock = RealClock{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "engine")

	ledger := NewUsageLedger(storage, clock, logger)

	e := &Engine{
		storage: storage,
		ledger:  ledger,
		tracker: NewTracker(ledger, clock, logger),
		clock:   clock,
		logger:  logger,
	}
	e.cfg = e.loadConfig(context.Background())

	return e
}

// loadConfig assembles the policy configuration from storage, one section at
// a time. Every failure degrades that section to its default.
func (e *Engine) loadConfig(ctx context.Context) PolicyConfig {
	cfg := DefaultPolicyConfig()

	if password, err := e.storage.GetParentPassword(ctx); err != nil {
		e.logger.Warn("Failed to load parent password, treating as unset", "error", err)
	} else {
		cfg.ParentPassword = password
	}

	if limit, err := e.storage.GetTimeLimit(ctx); err != nil {
		e.logger.Warn("Failed to load time limit settings, using defaults", "error", err)
	} else if limit != nil {
		cfg.TimeLimit = *limit
	}

	if bedtime, err := e.storage.GetBedtime(ctx); err != nil {
		e.logger.Warn("Failed to load bedtime schedule, using defaults", "error", err)
	} else if bedtime != nil {
		cfg.Bedtime = *bedtime
	}

	if filter, err := e.storage.GetContentFilter(ctx); err != nil {
		e.logger.Warn("Failed to load content filter, using defaults", "error", err)
	} else if filter != nil {
		cfg.ContentFilter = *filter
	}

	if blocked, err := e.storage.GetBlockedUsers(ctx); err != nil {
		e.logger.Warn("Failed to load blocked users, using empty list", "error", err)
	} else if blocked != nil {
		cfg.BlockedUsers = blocked
	}

	return cfg
}

// Config returns a snapshot of the current configuration
func (e *Engine) Config() PolicyConfig {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.snapshotLocked()
}

// snapshotLocked copies the config so callers never share the blocked-users
// slice with the engine. Callers must hold at least a read lock.
func (e *Engine) snapshotLocked() PolicyConfig {
	cfg := e.cfg
	cfg.BlockedUsers = make([]BlockedUser, len(e.cfg.BlockedUsers))
	copy(cfg.BlockedUsers, e.cfg.BlockedUsers)
	return cfg
}

// Verdict computes the current policy verdict from the wall clock, the
// configuration snapshot and today's accumulated usage. A usage read failure
// is logged and treated as zero minutes, consistent with fail-open loading.
func (e *Engine) Verdict(ctx context.Context) Verdict {
	cfg := e.Config()
	usage := e.todayUsage(ctx)
	return Evaluate(e.clock.Now(), cfg, usage, e.override.Load())
}

// CurrentWarning returns the advisory approaching-limit warning, or nil
func (e *Engine) CurrentWarning(ctx context.Context) *Warning {
	return ApproachingLimit(e.Config(), e.todayUsage(ctx))
}

func (e *Engine) todayUsage(ctx context.Context) int {
	usage, err := e.ledger.TotalFor(ctx, e.ledger.TodayKey())
	if err != nil {
		e.logger.Warn("Failed to read today's usage, treating as zero", "error", err)
		return 0
	}
	return usage
}

// CheckContent screens text against the configured keyword list. An active
// override bypasses the filter entirely.
func (e *Engine) CheckContent(text string) FilterResult {
	if e.override.Load() {
		return FilterResult{Allowed: true, Matched: []string{}}
	}
	return CheckContent(text, e.Config().ContentFilter.Keywords)
}

// IsUserBlocked checks the block list for a username. An active override
// bypasses the block list.
func (e *Engine) IsUserBlocked(username string) bool {
	if e.override.Load() {
		return false
	}
	return IsBlocked(username, e.Config().BlockedUsers)
}

// RequestOverride verifies the supplied parent password and, on success,
// installs the session-scoped bypass. The grant is never persisted and holds
// until the process exits.
func (e *Engine) RequestOverride(password string) error {
	e.mu.RLock()
	stored := e.cfg.ParentPassword
	e.mu.RUnlock()

	if err := VerifyParentPassword(password, stored); err != nil {
		return err
	}

	e.override.Store(true)
	e.logger.Info("Parental override granted for this session")
	return nil
}

// OverrideActive reports whether the session-scoped bypass is in effect
func (e *Engine) OverrideActive() bool {
	return e.override.Load()
}

// UsageSummary reports today's minutes against the configured limit
func (e *Engine) UsageSummary(ctx context.Context) (UsageSummary, error) {
	usage, err := e.ledger.TotalFor(ctx, e.ledger.TodayKey())
	if err != nil {
		return UsageSummary{}, err
	}

	cfg := e.Config()
	summary := UsageSummary{TodayMinutes: usage}
	if cfg.TimeLimit.Enabled {
		summary.DailyLimit = cfg.TimeLimit.DailyLimitMinutes
		summary.Remaining = remainingMinutes(cfg, usage)
	}
	return summary, nil
}

// StartTracking opens a viewing-session handle for a content surface
func (e *Engine) StartTracking() *TrackingSession {
	return e.tracker.Start()
}

// StopTracking stops the tracking session with the given ID and returns the
// minutes recorded.
func (e *Engine) StopTracking(ctx context.Context, id string) (int, error) {
	session, err := e.tracker.Get(id)
	if err != nil {
		return 0, err
	}
	return session.Stop(ctx)
}

// ActiveTracking lists currently running viewing sessions
func (e *Engine) ActiveTracking() []TrackingInfo {
	return e.tracker.Active()
}

// SetParentPassword hashes and persists a new parental password
func (e *Engine) SetParentPassword(ctx context.Context, password string) error {
	hash, err := HashParentPassword(password)
	if err != nil {
		return fmt.Errorf("failed to hash parent password: %w", err)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.storage.SaveParentPassword(ctx, hash); err != nil {
		return fmt.Errorf("failed to save parent password: %w", err)
	}

	e.cfg.ParentPassword = &hash
	return nil
}

// UpdateTimeLimit validates and persists new time-limit settings. The next
// evaluation sees them without a restart. On a failed save the in-memory
// configuration is left unchanged.
func (e *Engine) UpdateTimeLimit(ctx context.Context, settings TimeLimitSettings) error {
	if err := settings.Validate(); err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.storage.SaveTimeLimit(ctx, settings); err != nil {
		return fmt.Errorf("failed to save time limit settings: %w", err)
	}

	e.cfg.TimeLimit = settings
	e.logger.Info("Time limit settings updated",
		"enabled", settings.Enabled,
		"daily_limit", settings.DailyLimitMinutes)
	return nil
}

// UpdateBedtime validates and persists a new bedtime schedule
func (e *Engine) UpdateBedtime(ctx context.Context, schedule BedtimeSchedule) error {
	if err := schedule.Validate(); err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.storage.SaveBedtime(ctx, schedule); err != nil {
		return fmt.Errorf("failed to save bedtime schedule: %w", err)
	}

	e.cfg.Bedtime = schedule
	e.logger.Info("Bedtime schedule updated",
		"enabled", schedule.Enabled,
		"start", schedule.StartTime,
		"end", schedule.EndTime)
	return nil
}

// UpdateContentFilter validates and persists a new keyword list
func (e *Engine) UpdateContentFilter(ctx context.Context, settings ContentFilterSettings) error {
	if err := settings.Validate(); err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.storage.SaveContentFilter(ctx, settings); err != nil {
		return fmt.Errorf("failed to save content filter: %w", err)
	}

	e.cfg.ContentFilter = settings
	e.logger.Info("Content filter updated", "keywords", len(settings.Keywords))
	return nil
}

// BlockUser adds a username to the block list and persists it. Blocking an
// already-blocked username, compared case-insensitively, is a no-op that
// returns the existing entry; case variants never create duplicates.
func (e *Engine) BlockUser(ctx context.Context, username string) (BlockedUser, error) {
	normalized := NormalizeUsername(username)
	if normalized == "" {
		return BlockedUser{}, ErrInvalidUsername
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	for _, entry := range e.cfg.BlockedUsers {
		if NormalizeUsername(entry.Username) == normalized {
			return entry, nil
		}
	}

	entry := BlockedUser{
		ID:        idgen.NewBlockedUser(),
		Username:  strings.TrimSpace(username),
		BlockedAt: e.clock.Now(),
	}

	updated := make([]BlockedUser, 0, len(e.cfg.BlockedUsers)+1)
	updated = append(updated, e.cfg.BlockedUsers...)
	updated = append(updated, entry)

	if err := e.storage.SaveBlockedUsers(ctx, updated); err != nil {
		return BlockedUser{}, fmt.Errorf("failed to save blocked users: %w", err)
	}

	e.cfg.BlockedUsers = updated
	e.logger.Info("User blocked", "username", entry.Username, "id", entry.ID)
	return entry, nil
}

// UnblockUser removes a block-list entry by ID and persists the change
func (e *Engine) UnblockUser(ctx context.Context, id string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	updated := make([]BlockedUser, 0, len(e.cfg.BlockedUsers))
	found := false
	for _, entry := range e.cfg.BlockedUsers {
		if entry.ID == id {
			found = true
			continue
		}
		updated = append(updated, entry)
	}
	if !found {
		return ErrBlockedUserNotFound
	}

	if err := e.storage.SaveBlockedUsers(ctx, updated); err != nil {
		return fmt.Errorf("failed to save blocked users: %w", err)
	}

	e.cfg.BlockedUsers = updated
	e.logger.Info("User unblocked", "id", id)
	return nil
}

// BlockedUsers returns a snapshot of the block list
func (e *Engine) BlockedUsers() []BlockedUser {
	e.mu.RLock()
	defer e.mu.RUnlock()
	users := make([]BlockedUser, len(e.cfg.BlockedUsers))
	copy(users, e.cfg.BlockedUsers)
	return users
}

var _ EngineInterface = (*Engine)(nil)
