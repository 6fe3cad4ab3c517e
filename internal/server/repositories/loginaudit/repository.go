// Package loginaudit records login attempts and answers failed-attempt counts
// for the lockout logic.
package loginaudit

import "context"

const (
	EventLogin         = "login"
	EventPasswordReset = "password_reset"
	EventPasswordSet   = "password_set"

	// EventLoginRefused is a login turned away by the status gate before the
	// password was checked. It does not count towards the lockout.
	EventLoginRefused = "login_refused"
)

type Event struct {
	AccountID string
	UserID    string
	Time      int64
	Type      string
	Success   bool
	Detail    string
}

type Repository interface {
	RecordEvent(ctx context.Context, e Event) error
	RecordFailure(ctx context.Context, accountID, userID string, at int64, detail string) error
	// CountFailures counts failed logins of the account at or after since.
	CountFailures(ctx context.Context, accountID string, since int64) (int, error)
}
