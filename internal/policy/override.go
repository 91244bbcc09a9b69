package policy

import (
	"crypto/subtle"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// VerifyParentPassword checks a supplied password against the stored parental
// password. A nil stored value means no password has been configured, which
// is reported as ErrPasswordNotConfigured so callers can route to a setup
// flow instead of a retry prompt. A wrong password is ErrPasswordMismatch.
//
// Stored values written by HashParentPassword are bcrypt hashes. Values
// migrated from the source app may be plaintext tokens; those are compared in
// constant time.
//
// Verification never touches persistent state. On success the caller installs
// the in-memory override flag, which lives only for the running process.
func VerifyParentPassword(supplied string, stored *string) error {
	if stored == nil {
		return ErrPasswordNotConfigured
	}

	if isBcryptHash(*stored) {
		if err := bcrypt.CompareHashAndPassword([]byte(*stored), []byte(supplied)); err != nil {
			return ErrPasswordMismatch
		}
		return nil
	}

	if subtle.ConstantTimeCompare([]byte(*stored), []byte(supplied)) != 1 {
		return ErrPasswordMismatch
	}
	return nil
}

// HashParentPassword hashes a parental password for storage
func HashParentPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

func isBcryptHash(value string) bool {
	return strings.HasPrefix(value, "$2a$") ||
		strings.HasPrefix(value, "$2b$") ||
		strings.HasPrefix(value, "$2y$")
}
