// Package credentials implements password storage for accounts: pluggable
// encoding policies, the rotation history blob, and failed-login lockout.
package credentials

import "time"

// Policy decides how passwords are encoded and compared, how much history
// is kept and when repeated login failures lock an account.
type Policy interface {
	// Encode returns the stored form of plain. Blank encodes to blank.
	Encode(plain string) (string, error)
	// Decode returns the clear-text form of encoded, or false when the
	// encoding is irreversible.
	Decode(encoded string) (string, bool)
	// Check reports whether entered matches the stored encoded password.
	Check(entered, encoded string) bool
	// RequiredUniquePasswordCount is the number of most recent passwords,
	// current one included, that may not be reused. <=0 keeps no history.
	RequiredUniquePasswordCount() int
	FailedLoginSuspendEnabled() bool
	FailedLoginAttemptInterval() time.Duration
	// FailedLoginAttemptSuspendTime returns the epoch second an account
	// with failCount recent failures should stay suspended until, or 0.
	FailedLoginAttemptSuspendTime(failCount int, asOf int64) int64
}

// Validator is implemented by policies that vet new passwords.
type Validator interface {
	ValidateNewPassword(newPass string, priorEncoded []string) error
}

// AgePolicy is implemented by policies with a maximum password age.
type AgePolicy interface {
	HasPasswordExpired(changeTime, now int64) bool
}
