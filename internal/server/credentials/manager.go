package credentials

import (
	"context"
	"fmt"
	"time"

	"github.com/dmitrijs2005/tenantgov/internal/common"
	"github.com/dmitrijs2005/tenantgov/internal/logging"
	"github.com/dmitrijs2005/tenantgov/internal/server/models"
)

// AccountSaver persists an account after a lockout.
type AccountSaver interface {
	Save(ctx context.Context, acct *models.Account) error
}

// SuspendUpdater is an optional AccountSaver extension that writes only the
// suspension column.
type SuspendUpdater interface {
	UpdateSuspendUntil(ctx context.Context, accountID string, until int64) error
}

// LoginAuditSource counts failed logins recorded for an account.
type LoginAuditSource interface {
	CountFailures(ctx context.Context, accountID string, since int64) (int, error)
}

// Manager applies a Policy to accounts: password changes, rotation history,
// password checks and failed-login lockout. It never persists password
// changes itself; callers save the account.
type Manager struct {
	policy        Policy
	store         AccountSaver
	audit         LoginAuditSource
	logger        logging.Logger
	historyBudget int
	now           func() time.Time
	tempPassword  func() (string, error)
}

type Option func(*Manager)

// WithClock overrides the time source used for change times and lockouts.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

// WithHistoryBudget sets the maximum stored length of the rotation history
// blob. <=0 is unbounded.
func WithHistoryBudget(n int) Option {
	return func(m *Manager) { m.historyBudget = n }
}

// WithTempPasswordGenerator replaces the generator used by ResetPassword.
func WithTempPasswordGenerator(gen func() (string, error)) Option {
	return func(m *Manager) { m.tempPassword = gen }
}

func NewManager(policy Policy, store AccountSaver, audit LoginAuditSource, logger logging.Logger, opts ...Option) *Manager {
	m := &Manager{
		policy:       policy,
		store:        store,
		audit:        audit,
		logger:       logger.With("module", "credentials"),
		now:          time.Now,
		tempPassword: NewTempPassword,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *Manager) Policy() Policy {
	return m.policy
}

// SetPassword encodes plain and stores it on acct, pushing the replaced
// password onto the rotation history. A temporary password is also kept in
// clear text until the next non-temporary change.
func (m *Manager) SetPassword(acct *models.Account, plain string, isTemporary bool) error {
	enc, err := m.policy.Encode(plain)
	if err != nil {
		return fmt.Errorf("%w: %v", common.ErrPasswordEncoding, err)
	}

	if enc != acct.EncodedPassword {
		m.AddLastPassword(acct, acct.EncodedPassword)
		acct.EncodedPassword = enc
		acct.PasswdChangeTime = m.now().Unix()
	}

	if isTemporary {
		acct.TempPassword = plain
	} else {
		acct.TempPassword = ""
	}
	return nil
}

// ChangePassword validates plain against the policy, when it supports
// validation, and sets it as a permanent password.
func (m *Manager) ChangePassword(acct *models.Account, plain string) error {
	if v, ok := m.policy.(Validator); ok {
		if err := v.ValidateNewPassword(plain, m.LastEncodedPasswords(acct)); err != nil {
			return err
		}
	}
	return m.SetPassword(acct, plain, false)
}

// ResetPassword assigns a random temporary password and returns it.
func (m *Manager) ResetPassword(acct *models.Account) (string, error) {
	plain, err := m.tempPassword()
	if err != nil {
		return "", fmt.Errorf("generate password: %w", err)
	}
	if err := m.SetPassword(acct, plain, true); err != nil {
		return "", err
	}
	return plain, nil
}

// AddLastPassword puts encoded at the head of the rotation history and keeps
// at most RequiredUniquePasswordCount entries.
func (m *Manager) AddLastPassword(acct *models.Account, encoded string) {
	n := m.policy.RequiredUniquePasswordCount()
	if n <= 0 {
		acct.LastPasswords = ""
		return
	}

	list := make([]string, 0, n)
	list = append(list, encoded)
	for _, p := range DecodeHistory(acct.LastPasswords) {
		if len(list) >= n {
			break
		}
		list = append(list, p)
	}
	acct.LastPasswords = EncodeHistory(list, m.historyBudget)
}

// LastEncodedPasswords returns the current password followed by up to N-1
// previous ones, most recent first. Empty when history is disabled.
func (m *Manager) LastEncodedPasswords(acct *models.Account) []string {
	n := m.policy.RequiredUniquePasswordCount()
	if n <= 0 {
		return nil
	}

	list := []string{acct.EncodedPassword}
	if n == 1 {
		return list
	}
	for _, p := range DecodeHistory(acct.LastPasswords) {
		if len(list) >= n {
			break
		}
		list = append(list, p)
	}
	return list
}

// CheckPassword reports whether entered matches the account password.
// On mismatch with suspendOnFailure set the failure is counted towards a
// lockout. Only a failure to count prior failures is returned as an error.
func (m *Manager) CheckPassword(ctx context.Context, acct *models.Account, entered string, suspendOnFailure bool) (bool, error) {
	if m.policy.Check(entered, acct.EncodedPassword) {
		return true, nil
	}
	if suspendOnFailure {
		if _, err := m.SuspendOnLoginFailureAttempt(ctx, acct, true); err != nil {
			return false, err
		}
	}
	return false, nil
}

// SuspendOnLoginFailureAttempt suspends acct when the failures inside the
// policy window reach the limit. The suspension only ever moves later.
// It reports whether the limit was reached.
func (m *Manager) SuspendOnLoginFailureAttempt(ctx context.Context, acct *models.Account, addCurrentFailure bool) (bool, error) {
	if !m.policy.FailedLoginSuspendEnabled() {
		return false, nil
	}

	asOf := m.now().Unix()
	since := asOf - int64(m.policy.FailedLoginAttemptInterval()/time.Second)

	failCount, err := m.audit.CountFailures(ctx, acct.AccountID, since)
	if err != nil {
		return false, fmt.Errorf("count login failures: %w", err)
	}
	if addCurrentFailure {
		failCount++
	}

	until := m.policy.FailedLoginAttemptSuspendTime(failCount, asOf)
	if until <= 0 {
		return false, nil
	}

	if until > acct.SuspendUntilTime {
		acct.SuspendUntilTime = until
		m.persistSuspend(ctx, acct)
	}
	return true, nil
}

func (m *Manager) persistSuspend(ctx context.Context, acct *models.Account) {
	var err error
	if u, ok := m.store.(SuspendUpdater); ok {
		err = u.UpdateSuspendUntil(ctx, acct.AccountID, acct.SuspendUntilTime)
	} else {
		err = m.store.Save(ctx, acct)
	}
	if err != nil {
		m.logger.Error(ctx, "lockout not persisted", "account", acct.AccountID, "suspend_until", acct.SuspendUntilTime, "error", err)
		return
	}
	m.logger.Warn(ctx, "account suspended after failed logins", "account", acct.AccountID, "suspend_until", acct.SuspendUntilTime)
}

// PasswordExpired reports whether the account password is older than the
// policy allows. Policies without an age limit never expire passwords.
func (m *Manager) PasswordExpired(acct *models.Account) bool {
	if ap, ok := m.policy.(AgePolicy); ok {
		return ap.HasPasswordExpired(acct.PasswdChangeTime, m.now().Unix())
	}
	return false
}
