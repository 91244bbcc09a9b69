package idgen

import (
	"github.com/google/uuid"
)

// ID prefixes for different models
const (
	PrefixBlockedUser = "usr_"
	PrefixTracking    = "trk_"
)

// NewBlockedUser generates a new block-list entry ID with usr_ prefix
func NewBlockedUser() string {
	return PrefixBlockedUser + uuid.New().String()
}

// NewTracking generates a new tracking session ID with trk_ prefix
func NewTracking() string {
	return PrefixTracking + uuid.New().String()
}

// New generates a generic UUID without prefix (for internal use only)
func New() string {
	return uuid.New().String()
}
