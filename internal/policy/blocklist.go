package policy

import "strings"

// NormalizeUsername canonicalizes a username for block-list comparison.
// Usernames are compared case-insensitively.
func NormalizeUsername(username string) string {
	return strings.ToLower(strings.TrimSpace(username))
}

// IsBlocked checks whether username appears in the blocked set, compared
// case-insensitively.
func IsBlocked(username string, blocked []BlockedUser) bool {
	normalized := NormalizeUsername(username)
	if normalized == "" {
		return false
	}

	for _, entry := range blocked {
		if NormalizeUsername(entry.Username) == normalized {
			return true
		}
	}
	return false
}
