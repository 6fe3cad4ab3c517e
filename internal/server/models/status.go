package models

// Status is the derived usability of an account. It is computed on every
// evaluation and never stored.
type Status int

const (
	StatusActive Status = iota
	StatusUndefined
	StatusDeleted
	StatusInactive
	StatusInactiveViaManager
	StatusExpired
	StatusExpiredViaManager
	StatusSuspended
	StatusSuspendedViaManager
	StatusError
)

var statusNames = [...]string{
	StatusActive:              "ACTIVE",
	StatusUndefined:           "UNDEFINED",
	StatusDeleted:             "DELETED",
	StatusInactive:            "INACTIVE",
	StatusInactiveViaManager:  "INACTIVE_VIA_MANAGER",
	StatusExpired:             "EXPIRED",
	StatusExpiredViaManager:   "EXPIRED_VIA_MANAGER",
	StatusSuspended:           "SUSPENDED",
	StatusSuspendedViaManager: "SUSPENDED_VIA_MANAGER",
	StatusError:               "ERROR",
}

func (s Status) String() string {
	if s < 0 || int(s) >= len(statusNames) {
		return "ERROR"
	}
	return statusNames[s]
}

// IsUsable reports whether the status allows login.
func (s Status) IsUsable() bool {
	return s == StatusActive
}
