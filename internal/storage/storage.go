package storage

import (
	"errors"

	"guardian/internal/policy"
)

// Store defines the interface for policy persistence. Implementations keep
// each configuration section under its own well-known key, so saving one
// section never touches another:
//
//	parent_password   -> string
//	time_limits       -> {enabled, daily_limit}
//	time_restrictions -> {enabled, start_time, end_time}
//	content_filters   -> {keywords}
//	blocked_users     -> [{id, username, blocked_at}]
//
// plus per-day usage minutes keyed by YYYY-MM-DD. Getters return a nil value
// (or 0 minutes) when nothing has been persisted; decode failures are
// wrapped with ErrCorruptRecord so callers can fall back to defaults.
type Store interface {
	policy.Storage

	// Lifecycle
	Close() error
}

// ErrCorruptRecord marks a persisted value that could not be decoded
var ErrCorruptRecord = errors.New("corrupt record")

// Well-known setting keys shared by all backends
const (
	KeyParentPassword  = "parent_password"
	KeyTimeLimits      = "time_limits"
	KeyTimeRestriction = "time_restrictions"
	KeyContentFilters  = "content_filters"
	KeyBlockedUsers    = "blocked_users"
)
