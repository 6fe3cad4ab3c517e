package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/tenantgov/internal/common"
	"github.com/dmitrijs2005/tenantgov/internal/dbx"
	"github.com/dmitrijs2005/tenantgov/internal/logging"
	"github.com/dmitrijs2005/tenantgov/internal/server/config"
	"github.com/dmitrijs2005/tenantgov/internal/server/credentials"
	"github.com/dmitrijs2005/tenantgov/internal/server/delegation"
	"github.com/dmitrijs2005/tenantgov/internal/server/models"
	"github.com/dmitrijs2005/tenantgov/internal/server/repositories/loginaudit"
	"github.com/dmitrijs2005/tenantgov/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/tenantgov/internal/server/status"
)

// LoginResult describes an accepted login.
type LoginResult struct {
	Status models.Status
	// PasswordExpired is set when the password is older than the policy allows.
	PasswordExpired bool
	// MustChangePassword is set while the account runs on a temporary password.
	MustChangePassword bool
}

type AccountService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	policy      credentials.Policy
	defaults    delegation.DefaultsProvider
	logger      logging.Logger

	historyBudget int
	now           func() time.Time
	tempPassword  func() (string, error)
}

type Option func(*AccountService)

func WithClock(now func() time.Time) Option {
	return func(s *AccountService) { s.now = now }
}

func WithTempPasswordGenerator(gen func() (string, error)) Option {
	return func(s *AccountService) { s.tempPassword = gen }
}

func NewAccountService(db *sql.DB, m repomanager.RepositoryManager, policy credentials.Policy, cfg *config.Config, logger logging.Logger, opts ...Option) *AccountService {
	s := &AccountService{
		db:          db,
		repomanager: m,
		policy:      policy,
		defaults: delegation.StaticDefaults{
			SMTP: cfg.SMTPDefaults,
			SMS:  cfg.SMSDefaults,
		},
		logger:        logger.With("module", "account_service"),
		historyBudget: cfg.LastPasswordsMaxLength,
		now:           time.Now,
		tempPassword:  credentials.NewTempPassword,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *AccountService) engine(db dbx.DBTX) *status.Engine {
	return status.NewEngine(s.repomanager.Accounts(db), s.logger, status.WithClock(s.now))
}

func (s *AccountService) manager(db dbx.DBTX) *credentials.Manager {
	return credentials.NewManager(s.policy, s.repomanager.Accounts(db), s.repomanager.LoginAudit(db), s.logger,
		credentials.WithClock(s.now),
		credentials.WithHistoryBudget(s.historyBudget),
		credentials.WithTempPasswordGenerator(s.tempPassword),
	)
}

// Status evaluates the account, or the user under it when userID is set.
// Unknown accounts and users are StatusUndefined; lookup failures are
// StatusError.
func (s *AccountService) Status(ctx context.Context, accountID, userID string) models.Status {
	if userID == "" {
		return s.engine(s.db).EvaluateID(ctx, accountID)
	}

	acct, st := s.loadForStatus(ctx, accountID)
	if acct == nil {
		return st
	}
	user, err := s.repomanager.Users(s.db).Load(ctx, acct.AccountID, userID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return models.StatusUndefined
		}
		s.logger.Error(ctx, "user load failed", "account", acct.AccountID, "user", userID, "error", err)
		return models.StatusError
	}
	return s.engine(s.db).EvaluateUser(ctx, acct, user)
}

func (s *AccountService) loadForStatus(ctx context.Context, accountID string) (*models.Account, models.Status) {
	acct, err := s.repomanager.Accounts(s.db).Load(ctx, models.NormalizeAccountID(accountID))
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, models.StatusUndefined
		}
		s.logger.Error(ctx, "account load failed", "account", accountID, "error", err)
		return nil, models.StatusError
	}
	return acct, models.StatusActive
}

// Login gates on the account status and then checks the password. A wrong
// password counts towards the failed-login lockout and is audited. A status
// refusal is audited as login_refused and leaves the lockout count alone.
func (s *AccountService) Login(ctx context.Context, accountID, userID, password string) (*LoginResult, error) {
	acct, err := s.repomanager.Accounts(s.db).Load(ctx, models.NormalizeAccountID(accountID))
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorUnauthorized
		}
		return nil, fmt.Errorf("%w: %v", common.ErrorInternal, err)
	}

	var st models.Status
	if userID == "" {
		st = s.engine(s.db).Evaluate(ctx, acct)
	} else {
		user, err := s.repomanager.Users(s.db).Load(ctx, acct.AccountID, userID)
		switch {
		case errors.Is(err, common.ErrorNotFound):
			return nil, common.ErrorUnauthorized
		case err != nil:
			return nil, fmt.Errorf("%w: %v", common.ErrorInternal, err)
		}
		st = s.engine(s.db).EvaluateUser(ctx, acct, user)
	}

	audit := s.repomanager.LoginAudit(s.db)
	if !st.IsUsable() {
		s.recordRefusal(ctx, audit, acct.AccountID, userID, "status "+st.String())
		return &LoginResult{Status: st}, fmt.Errorf("%w: %s", common.ErrAccountNotUsable, st)
	}

	mgr := s.manager(s.db)
	ok, err := mgr.CheckPassword(ctx, acct, password, true)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrorInternal, err)
	}
	if !ok {
		s.recordFailure(ctx, audit, acct.AccountID, userID, "bad password")
		return nil, common.ErrorUnauthorized
	}

	if err := audit.RecordEvent(ctx, loginaudit.Event{
		AccountID: acct.AccountID,
		UserID:    userID,
		Time:      s.now().Unix(),
		Type:      loginaudit.EventLogin,
		Success:   true,
	}); err != nil {
		s.logger.Warn(ctx, "login audit failed", "account", acct.AccountID, "error", err)
	}

	return &LoginResult{
		Status:             st,
		PasswordExpired:    mgr.PasswordExpired(acct),
		MustChangePassword: acct.TempPassword != "",
	}, nil
}

func (s *AccountService) recordFailure(ctx context.Context, audit loginaudit.Repository, accountID, userID, detail string) {
	if err := audit.RecordFailure(ctx, accountID, userID, s.now().Unix(), detail); err != nil {
		s.logger.Warn(ctx, "login audit failed", "account", accountID, "error", err)
	}
}

func (s *AccountService) recordRefusal(ctx context.Context, audit loginaudit.Repository, accountID, userID, detail string) {
	err := audit.RecordEvent(ctx, loginaudit.Event{
		AccountID: accountID,
		UserID:    userID,
		Time:      s.now().Unix(),
		Type:      loginaudit.EventLoginRefused,
		Detail:    detail,
	})
	if err != nil {
		s.logger.Warn(ctx, "login audit failed", "account", accountID, "error", err)
	}
}

// ResetPassword assigns a temporary password and returns it in clear text.
func (s *AccountService) ResetPassword(ctx context.Context, accountID, actor string) (string, error) {
	var plain string
	err := s.updatePassword(ctx, accountID, actor, loginaudit.EventPasswordReset, func(mgr *credentials.Manager, acct *models.Account) error {
		var err error
		plain, err = mgr.ResetPassword(acct)
		return err
	})
	if err != nil {
		return "", err
	}
	return plain, nil
}

// SetPassword validates and sets a new permanent password.
func (s *AccountService) SetPassword(ctx context.Context, accountID, actor, newPassword string) error {
	return s.updatePassword(ctx, accountID, actor, loginaudit.EventPasswordSet, func(mgr *credentials.Manager, acct *models.Account) error {
		return mgr.ChangePassword(acct, newPassword)
	})
}

// ChangePassword is SetPassword for the account owner, who has to present
// the current password first.
func (s *AccountService) ChangePassword(ctx context.Context, accountID, actor, oldPassword, newPassword string) error {
	return s.updatePassword(ctx, accountID, actor, loginaudit.EventPasswordSet, func(mgr *credentials.Manager, acct *models.Account) error {
		ok, err := mgr.CheckPassword(ctx, acct, oldPassword, false)
		if err != nil {
			return err
		}
		if !ok {
			return common.ErrorUnauthorized
		}
		return mgr.ChangePassword(acct, newPassword)
	})
}

func (s *AccountService) updatePassword(ctx context.Context, accountID, actor, event string, apply func(*credentials.Manager, *models.Account) error) error {
	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Accounts(tx)

		acct, err := repo.Load(ctx, models.NormalizeAccountID(accountID))
		if err != nil {
			return err
		}
		if err := apply(s.manager(tx), acct); err != nil {
			return err
		}
		if err := repo.UpdatePasswordFields(ctx, acct); err != nil {
			return err
		}
		return s.repomanager.LoginAudit(tx).RecordEvent(ctx, loginaudit.Event{
			AccountID: acct.AccountID,
			UserID:    actor,
			Time:      s.now().Unix(),
			Type:      event,
			Success:   true,
		})
	})
}

// Property resolves key through the account's delegate chain of kind.
func (s *AccountService) Property(ctx context.Context, kind delegation.Kind, accountID, key string) (string, bool, error) {
	acct, err := s.repomanager.Accounts(s.db).Load(ctx, models.NormalizeAccountID(accountID))
	if err != nil {
		return "", false, err
	}
	resolver := delegation.NewResolver(s.repomanager.Accounts(s.db), s.defaults, s.logger)
	v, ok := resolver.For(acct).Get(ctx, kind, key)
	return v, ok, nil
}

func (s *AccountService) SMTPProperty(ctx context.Context, accountID, key string) (string, bool, error) {
	return s.Property(ctx, delegation.KindSMTP, accountID, key)
}

func (s *AccountService) SMSProperty(ctx context.Context, accountID, key string) (string, bool, error) {
	return s.Property(ctx, delegation.KindSMS, accountID, key)
}
