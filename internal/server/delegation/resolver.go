package delegation

import (
	"context"
	"sync"

	"github.com/dmitrijs2005/tenantgov/internal/logging"
	"github.com/dmitrijs2005/tenantgov/internal/server/models"
)

type Kind string

const (
	KindSMTP Kind = "smtp"
	KindSMS  Kind = "sms"
)

func (k Kind) local(acct *models.Account) Properties {
	if k == KindSMS {
		return acct.SMSProperties
	}
	return acct.SMTPProperties
}

// ManagerFinder resolves the accounts behind a manager reference.
type ManagerFinder interface {
	FindManagers(ctx context.Context, managerID string) ([]*models.Account, error)
}

// DefaultsProvider supplies the system level tier for an account.
type DefaultsProvider interface {
	Defaults(ctx context.Context, kind Kind, acct *models.Account) Properties
}

// StaticDefaults serves the same defaults to every account.
type StaticDefaults struct {
	SMTP Properties
	SMS  Properties
}

func (s StaticDefaults) Defaults(_ context.Context, kind Kind, _ *models.Account) Properties {
	if kind == KindSMS {
		return s.SMS
	}
	return s.SMTP
}

type Resolver struct {
	managers ManagerFinder
	defaults DefaultsProvider
	logger   logging.Logger
}

func NewResolver(managers ManagerFinder, defaults DefaultsProvider, logger logging.Logger) *Resolver {
	return &Resolver{
		managers: managers,
		defaults: defaults,
		logger:   logger.With("module", "delegation"),
	}
}

// For returns the property view of acct. The view builds each chain on
// first use and keeps it for its lifetime; obtain one view per loaded
// account instance.
func (r *Resolver) For(acct *models.Account) *AccountProperties {
	return &AccountProperties{r: r, acct: acct}
}

// Chain builds the chain of kind for acct without caching.
func (r *Resolver) Chain(ctx context.Context, kind Kind, acct *models.Account) *Chain {
	return r.build(ctx, kind, acct, true)
}

func (r *Resolver) build(ctx context.Context, kind Kind, acct *models.Account, viaManager bool) *Chain {
	var delegate *Chain
	if viaManager && acct.IsManaged() {
		if mgr := r.firstManager(ctx, acct); mgr != nil {
			// the manager contributes its own tier and the system defaults only
			delegate = r.build(ctx, kind, mgr, false)
		}
	}
	if delegate == nil {
		delegate = r.defaultsChain(ctx, kind, acct)
	}

	if props := kind.local(acct); defined(props) {
		return NewChain(props, delegate)
	}
	return delegate
}

func (r *Resolver) defaultsChain(ctx context.Context, kind Kind, acct *models.Account) *Chain {
	if r.defaults == nil {
		return nil
	}
	props := r.defaults.Defaults(ctx, kind, acct)
	if len(props) == 0 {
		return nil
	}
	return NewChain(props, nil)
}

func (r *Resolver) firstManager(ctx context.Context, acct *models.Account) *models.Account {
	managers, err := r.managers.FindManagers(ctx, acct.ManagerID)
	if err != nil {
		r.logger.Warn(ctx, "manager lookup failed, using defaults", "account", acct.AccountID, "manager", acct.ManagerID, "error", err)
		return nil
	}
	for _, m := range managers {
		if m != nil && m.AccountID != acct.AccountID {
			return m
		}
	}
	return nil
}

// AccountProperties caches the resolved chains of one account instance.
type AccountProperties struct {
	r    *Resolver
	acct *models.Account

	smtpOnce sync.Once
	smtp     *Chain
	smsOnce  sync.Once
	sms      *Chain
}

func (p *AccountProperties) SMTP(ctx context.Context) *Chain {
	p.smtpOnce.Do(func() { p.smtp = p.r.Chain(ctx, KindSMTP, p.acct) })
	return p.smtp
}

func (p *AccountProperties) SMS(ctx context.Context) *Chain {
	p.smsOnce.Do(func() { p.sms = p.r.Chain(ctx, KindSMS, p.acct) })
	return p.sms
}

// Chain returns the cached chain for kind.
func (p *AccountProperties) Chain(ctx context.Context, kind Kind) *Chain {
	if kind == KindSMS {
		return p.SMS(ctx)
	}
	return p.SMTP(ctx)
}

// Get resolves key through the chain of kind.
func (p *AccountProperties) Get(ctx context.Context, kind Kind, key string) (string, bool) {
	return p.Chain(ctx, kind).Get(key)
}

func ParseKind(s string) (Kind, bool) {
	switch Kind(s) {
	case KindSMTP, KindSMS:
		return Kind(s), true
	}
	return "", false
}
