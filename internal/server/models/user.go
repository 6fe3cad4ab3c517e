package models

// User is a login under an account. Only the lifecycle fields that take
// part in status evaluation are modelled here.
type User struct {
	AccountID string
	UserID    string

	IsActive         bool
	DeletedTime      int64
	ExpirationTime   int64
	SuspendUntilTime int64
}

func (u *User) IsDeleted() bool {
	return u.DeletedTime > 0
}

// IsExpiredAt treats an inactive user as expired.
func (u *User) IsExpiredAt(now int64) bool {
	if !u.IsActive {
		return true
	}
	return u.ExpirationTime > 0 && u.ExpirationTime < now
}

func (u *User) IsSuspendedAt(now int64) bool {
	return u.SuspendUntilTime > 0 && u.SuspendUntilTime >= now
}
