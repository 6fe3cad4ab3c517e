// Package models holds the records shared by the governance service:
// accounts, their users and devices, historical event records, and the
// derived account status.
package models

import (
	"strings"
)

// GeocoderMode selects how much reverse geocoding an account receives.
type GeocoderMode string

const (
	GeocoderNone    GeocoderMode = "none"
	GeocoderGeozone GeocoderMode = "geozone"
	GeocoderPartial GeocoderMode = "partial"
	GeocoderFull    GeocoderMode = "full"
)

// ParseGeocoderMode maps a stored code onto a GeocoderMode. Blank or
// unknown values yield dft.
func ParseGeocoderMode(code string, dft GeocoderMode) GeocoderMode {
	switch m := GeocoderMode(strings.ToLower(strings.TrimSpace(code))); m {
	case GeocoderNone, GeocoderGeozone, GeocoderPartial, GeocoderFull:
		return m
	default:
		return dft
	}
}

// MaxPingCount is the upper bound of the 16-bit ping counters.
const MaxPingCount = 0xFFFF

// UnlimitedDevices is the MaximumDevices value meaning no device limit.
const UnlimitedDevices = -1

// Account is the tenant record. Times are epoch seconds; zero means unset.
type Account struct {
	AccountID   string
	Description string

	IsActive         bool
	DeletedTime      int64
	ExpirationTime   int64
	SuspendUntilTime int64

	IsAccountManager bool
	ManagerID        string

	EncodedPassword  string
	TempPassword     string
	LastPasswords    string
	PasswdChangeTime int64
	PasswdQueryTime  int64

	MaximumDevices int64
	TotalPingCount int
	MaxPingCount   int

	GeocoderMode GeocoderMode

	SMSProperties  map[string]string
	SMTPProperties map[string]string
}

// NormalizeAccountID trims and lower-cases an account identifier.
func NormalizeAccountID(id string) string {
	return strings.ToLower(strings.TrimSpace(id))
}

// NewAccount returns an active account with no limits and full geocoding.
func NewAccount(id string) *Account {
	return &Account{
		AccountID:      NormalizeAccountID(id),
		IsActive:       true,
		MaximumDevices: UnlimitedDevices,
		GeocoderMode:   GeocoderFull,
	}
}

// IsManaged reports whether the account is gated by a separate manager
// account: it names a manager and is not itself a manager.
func (a *Account) IsManaged() bool {
	return strings.TrimSpace(a.ManagerID) != "" && !a.IsAccountManager
}

func (a *Account) IsDeleted() bool {
	return a.DeletedTime > 0
}

// IsExpiredAt reports whether the account's own expiration has passed.
func (a *Account) IsExpiredAt(now int64) bool {
	return a.ExpirationTime > 0 && a.ExpirationTime < now
}

// IsSuspendedAt reports whether the account's own suspension is in effect.
func (a *Account) IsSuspendedAt(now int64) bool {
	return a.SuspendUntilTime > 0 && a.SuspendUntilTime >= now
}

func (a *Account) SetTotalPingCount(v int) {
	a.TotalPingCount = clampPing(v)
}

func (a *Account) SetMaxPingCount(v int) {
	a.MaxPingCount = clampPing(v)
}

// ExceedsMaxPingCount reports whether the total ping count has reached the
// configured maximum. A zero maximum disables the check.
func (a *Account) ExceedsMaxPingCount() bool {
	return a.MaxPingCount > 0 && a.TotalPingCount >= a.MaxPingCount
}

// CanAddDevice reports whether another device fits under MaximumDevices
// given the current device count.
func (a *Account) CanAddDevice(current int) bool {
	if a.MaximumDevices < 0 {
		return true
	}
	return int64(current) < a.MaximumDevices
}

func clampPing(v int) int {
	switch {
	case v < 0:
		return 0
	case v > MaxPingCount:
		return MaxPingCount
	default:
		return v
	}
}
