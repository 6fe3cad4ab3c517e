package loginaudit

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/tenantgov/internal/dbx"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) RecordEvent(ctx context.Context, e Event) error {
	query :=
		`INSERT INTO login_audit (account_id, user_id, event_time, event_type, success, detail)
		 VALUES ($1, $2, $3, $4, $5, $6)`

	if _, err := r.db.ExecContext(ctx, query, e.AccountID, e.UserID, e.Time, e.Type, e.Success, e.Detail); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) RecordFailure(ctx context.Context, accountID, userID string, at int64, detail string) error {
	return r.RecordEvent(ctx, Event{
		AccountID: accountID,
		UserID:    userID,
		Time:      at,
		Type:      EventLogin,
		Detail:    detail,
	})
}

func (r *PostgresRepository) CountFailures(ctx context.Context, accountID string, since int64) (int, error) {
	query :=
		`SELECT COUNT(*) FROM login_audit
		 WHERE account_id = $1 AND event_type = $2 AND NOT success AND event_time >= $3`

	var n int
	if err := r.db.QueryRowContext(ctx, query, accountID, EventLogin, since).Scan(&n); err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return n, nil
}
