package policy

import (
	"errors"
	"strings"
	"time"
)

// VerdictKind identifies which policy decision currently applies
type VerdictKind string

const (
	VerdictAllowed           VerdictKind = "allowed"
	VerdictTimeLimitExceeded VerdictKind = "time_limit_exceeded"
	VerdictBedtimeRestricted VerdictKind = "bedtime_restricted"
)

// Verdict is the engine's current allow/deny decision. It is recomputed on
// every evaluation and never persisted. Exactly one kind holds at a time.
type Verdict struct {
	Kind             VerdictKind `json:"kind"`
	RemainingMinutes int         `json:"remaining_minutes"` // 0 unless Kind is allowed with an enabled limit
	WindowEnd        string      `json:"window_end,omitempty"`
}

// Allowed returns true if the verdict permits content consumption
func (v Verdict) Allowed() bool {
	return v.Kind == VerdictAllowed
}

// Warning is the advisory approaching-limit signal. It never changes the
// verdict.
type Warning struct {
	RemainingMinutes int `json:"remaining_minutes"`
}

// TimeLimitSettings configures the daily screen-time limit
type TimeLimitSettings struct {
	Enabled           bool `json:"enabled"`
	DailyLimitMinutes int  `json:"daily_limit"` // whole minutes per day
}

// BedtimeSchedule configures the restricted time-of-day window. Times are
// "HH:MM" on the device-local clock; StartTime > EndTime denotes an overnight
// window that crosses midnight.
type BedtimeSchedule struct {
	Enabled   bool   `json:"enabled"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
}

// ContentFilterSettings configures keyword-based content screening
type ContentFilterSettings struct {
	Keywords []string `json:"keywords"`
}

// BlockedUser is a block-list entry. Uniqueness is by case-insensitive
// username.
type BlockedUser struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	BlockedAt time.Time `json:"blocked_at"`
}

// PolicyConfig is the full parental-control configuration. It is loaded once
// at startup and mutated only through explicit update operations.
//
// ParentPassword is nil when no password has been configured, which is a
// distinct state from a configured empty password. The value is either a
// bcrypt hash or a legacy plaintext token migrated from the source app.
type PolicyConfig struct {
	TimeLimit      TimeLimitSettings
	Bedtime        BedtimeSchedule
	ContentFilter  ContentFilterSettings
	BlockedUsers   []BlockedUser
	ParentPassword *string
}

// DefaultPolicyConfig returns the permissive first-run configuration: all
// restrictions disabled, empty lists, no parent password. It is also the
// fallback when persisted configuration cannot be read or decoded.
func DefaultPolicyConfig() PolicyConfig {
	return PolicyConfig{
		TimeLimit:     TimeLimitSettings{},
		Bedtime:       BedtimeSchedule{},
		ContentFilter: ContentFilterSettings{Keywords: []string{}},
		BlockedUsers:  []BlockedUser{},
	}
}

// Validation and verification errors
var (
	ErrInvalidDailyLimit     = errors.New("daily limit must not be negative")
	ErrInvalidTimeOfDay      = errors.New("time of day must be in HH:MM format")
	ErrEmptyKeyword          = errors.New("filter keywords cannot be empty")
	ErrInvalidUsername       = errors.New("username cannot be empty")
	ErrBlockedUserNotFound   = errors.New("blocked user not found")
	ErrNegativeMinutes       = errors.New("minutes must not be negative")
	ErrPasswordNotConfigured = errors.New("parent password is not configured")
	ErrPasswordMismatch      = errors.New("parent password does not match")
	ErrTrackingNotFound      = errors.New("tracking session not found")
)

// Validate validates TimeLimitSettings
func (t TimeLimitSettings) Validate() error {
	if t.DailyLimitMinutes < 0 {
		return ErrInvalidDailyLimit
	}
	return nil
}

// Validate validates a BedtimeSchedule. Times must parse even when the
// schedule is disabled so a later enable cannot surface a stale bad value.
func (b BedtimeSchedule) Validate() error {
	if b.StartTime == "" && b.EndTime == "" && !b.Enabled {
		return nil
	}
	if _, err := ParseTimeOfDay(b.StartTime); err != nil {
		return err
	}
	if _, err := ParseTimeOfDay(b.EndTime); err != nil {
		return err
	}
	return nil
}

// Validate validates ContentFilterSettings
func (f ContentFilterSettings) Validate() error {
	for _, kw := range f.Keywords {
		if strings.TrimSpace(kw) == "" {
			return ErrEmptyKeyword
		}
	}
	return nil
}

// HasParentPassword reports whether a parent password has been configured
func (c PolicyConfig) HasParentPassword() bool {
	return c.ParentPassword != nil
}

// UsageSummary reports today's usage against the configured limit
type UsageSummary struct {
	TodayMinutes int `json:"today_minutes"`
	DailyLimit   int `json:"daily_limit"` // 0 when the time limit is disabled
	Remaining    int `json:"remaining"`   // clamped to 0; 0 when the limit is disabled
}
