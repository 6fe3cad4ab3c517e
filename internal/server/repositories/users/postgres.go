package users

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

func (r *PostgresRepository) Load(ctx context.Context, accountID, userID string) (*models.User, error) {
	query :=
		`SELECT account_id, user_id, is_active, deleted_time, expiration_time, suspend_until_time
		 FROM users
		 WHERE account_id = $1 AND user_id = $2`

	u := &models.User{}
	err := r.db.QueryRowContext(ctx, query, accountID, userID).
		Scan(&u.AccountID, &u.UserID, &u.IsActive, &u.DeletedTime, &u.ExpirationTime, &u.SuspendUntilTime)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return u, nil
}
