// Package status derives the usability of an account from its lifecycle
// flags and the state of the accounts that manage it.
//
// Checks run in a fixed order and the first match wins: undefined, deleted,
// inactive, inactive via manager, expired, expired via manager, suspended,
// suspended via manager, then (for user evaluations) the user's own state.
// Evaluation never fails; lookup problems surface as StatusError.
package status

import (
	"context"
	"errors"
	"time"

	"github.com/dmitrijs2005/tenantgov/internal/common"
	"github.com/dmitrijs2005/tenantgov/internal/logging"
	"github.com/dmitrijs2005/tenantgov/internal/server/models"
)

// AccountSource loads accounts and resolves manager references.
type AccountSource interface {
	Load(ctx context.Context, accountID string) (*models.Account, error)
	FindManagers(ctx context.Context, managerID string) ([]*models.Account, error)
}

type Engine struct {
	accounts AccountSource
	logger   logging.Logger
	now      func() time.Time
}

type Option func(*Engine)

// WithClock overrides the time source used for expiry and suspension checks.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

func NewEngine(accounts AccountSource, logger logging.Logger, opts ...Option) *Engine {
	e := &Engine{
		accounts: accounts,
		logger:   logger.With("module", "status_engine"),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Evaluate returns the status of the account itself.
func (e *Engine) Evaluate(ctx context.Context, acct *models.Account) models.Status {
	return e.evaluate(ctx, acct, nil)
}

// EvaluateUser returns the status of a user under acct. Account and manager
// checks take precedence; the user's own deleted, expired or suspended state
// is reported only when the account itself is active.
func (e *Engine) EvaluateUser(ctx context.Context, acct *models.Account, user *models.User) models.Status {
	return e.evaluate(ctx, acct, user)
}

// EvaluateID loads the account and evaluates it. An unknown id is
// StatusUndefined, any other load failure StatusError.
func (e *Engine) EvaluateID(ctx context.Context, accountID string) models.Status {
	acct, err := e.accounts.Load(ctx, models.NormalizeAccountID(accountID))
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return models.StatusUndefined
		}
		e.logger.Error(ctx, "account load failed", "account", accountID, "error", err)
		return models.StatusError
	}
	return e.evaluate(ctx, acct, nil)
}

func (e *Engine) evaluate(ctx context.Context, acct *models.Account, user *models.User) models.Status {
	if acct == nil {
		return models.StatusUndefined
	}
	if acct.IsDeleted() {
		return models.StatusDeleted
	}
	if !acct.IsActive {
		return models.StatusInactive
	}

	var managers []*models.Account
	if acct.IsManaged() {
		found, err := e.accounts.FindManagers(ctx, acct.ManagerID)
		if err != nil {
			e.logger.Error(ctx, "manager lookup failed", "account", acct.AccountID, "manager", acct.ManagerID, "error", err)
			return models.StatusError
		}
		// a managed account whose manager cannot be found may not be used
		if len(found) == 0 {
			return models.StatusInactiveViaManager
		}
		visited := map[string]struct{}{acct.AccountID: {}}
		for _, m := range found {
			active, err := e.isActive(ctx, m, visited, 1)
			if err != nil {
				e.logger.Error(ctx, "manager lookup failed", "account", acct.AccountID, "manager", acct.ManagerID, "error", err)
				return models.StatusError
			}
			if !active {
				return models.StatusInactiveViaManager
			}
		}
		managers = found
	}

	now := e.now().Unix()

	if acct.IsExpiredAt(now) {
		return models.StatusExpired
	}
	for _, m := range managers {
		if m.IsExpiredAt(now) {
			return models.StatusExpiredViaManager
		}
	}

	if acct.IsSuspendedAt(now) {
		return models.StatusSuspended
	}
	for _, m := range managers {
		if m.IsSuspendedAt(now) {
			return models.StatusSuspendedViaManager
		}
	}

	if user != nil {
		switch {
		case user.IsDeleted():
			return models.StatusDeleted
		case user.IsExpiredAt(now):
			return models.StatusExpired
		case user.IsSuspendedAt(now):
			return models.StatusSuspended
		}
	}

	return models.StatusActive
}

// isActive reports whether acct is active and not deleted, following its
// own manager chain if it is managed. Revisiting an account or exceeding
// MaxDelegationDepth counts as not active.
func (e *Engine) isActive(ctx context.Context, acct *models.Account, visited map[string]struct{}, depth int) (bool, error) {
	if acct == nil || acct.IsDeleted() || !acct.IsActive {
		return false, nil
	}
	if !acct.IsManaged() {
		return true, nil
	}
	if _, seen := visited[acct.AccountID]; seen {
		e.logger.Warn(ctx, "manager cycle detected", "account", acct.AccountID)
		return false, nil
	}
	if depth >= common.MaxDelegationDepth {
		e.logger.Warn(ctx, "manager chain too deep", "account", acct.AccountID, "depth", depth)
		return false, nil
	}
	visited[acct.AccountID] = struct{}{}

	managers, err := e.accounts.FindManagers(ctx, acct.ManagerID)
	if err != nil {
		return false, err
	}
	if len(managers) == 0 {
		return false, nil
	}
	for _, m := range managers {
		active, err := e.isActive(ctx, m, visited, depth+1)
		if err != nil || !active {
			return false, err
		}
	}
	return true, nil
}
