// Package accounts persists tenant accounts.
package accounts

import (
	"context"

	"github.com/dmitrijs2005/tenantgov/internal/server/models"
)

// Filter narrows ListAccountIDs. The zero value lists every account.
type Filter struct {
	ActiveOnly     bool
	GeocodedOnly   bool
	ExcludeDeleted bool
}

type Repository interface {
	Exists(ctx context.Context, accountID string) (bool, error)
	Load(ctx context.Context, accountID string) (*models.Account, error)
	Save(ctx context.Context, acct *models.Account) error
	UpdatePasswordFields(ctx context.Context, acct *models.Account) error
	UpdateSuspendUntil(ctx context.Context, accountID string, until int64) error
	FindManagers(ctx context.Context, managerID string) ([]*models.Account, error)
	ListAccountIDs(ctx context.Context, f Filter) ([]string, error)
}
