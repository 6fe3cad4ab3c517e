package users

import (
	"context"

	"github.com/dmitrijs2005/tenantgov/internal/server/models"
)

type Repository interface {
	Load(ctx context.Context, accountID, userID string) (*models.User, error)
}
