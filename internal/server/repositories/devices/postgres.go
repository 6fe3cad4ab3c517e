package devices

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/tenantgov/internal/common"
	"github.com/dmitrijs2005/tenantgov/internal/dbx"
	"github.com/dmitrijs2005/tenantgov/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) ListDeviceIDs(ctx context.Context, accountID string) ([]string, error) {
	query :=
		`SELECT device_id FROM devices
		 WHERE account_id = $1
		 ORDER BY device_id`

	rows, err := r.db.QueryContext(ctx, query, accountID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return ids, nil
}

func (r *PostgresRepository) Load(ctx context.Context, accountID, deviceID string) (*models.Device, error) {
	query :=
		`SELECT account_id, device_id, description, is_active
		 FROM devices
		 WHERE account_id = $1 AND device_id = $2`

	d := &models.Device{}
	err := r.db.QueryRowContext(ctx, query, accountID, deviceID).
		Scan(&d.AccountID, &d.DeviceID, &d.Description, &d.IsActive)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return d, nil
}
