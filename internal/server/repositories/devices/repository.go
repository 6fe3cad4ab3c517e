package devices

import (
	"context"

	"github.com/dmitrijs2005/tenantgov/internal/server/models"
)

type Repository interface {
	ListDeviceIDs(ctx context.Context, accountID string) ([]string, error)
	Load(ctx context.Context, accountID, deviceID string) (*models.Device, error)
}
