package accounts

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/tenantgov/internal/common"
	"github.com/dmitrijs2005/tenantgov/internal/dbx"
	"github.com/dmitrijs2005/tenantgov/internal/server/models"
)

const accountColumns = `account_id, description, is_active, deleted_time, expiration_time,
		 suspend_until_time, is_account_manager, manager_id, password, temp_password,
		 last_passwords, passwd_change_time, passwd_query_time, maximum_devices,
		 total_ping_count, max_ping_count, geocoder_mode, sms_properties, smtp_properties`

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAccount(row rowScanner) (*models.Account, error) {
	var (
		a         models.Account
		totalPing int
		maxPing   int
		mode      string
		sms       []byte
		smtp      []byte
	)
	err := row.Scan(&a.AccountID, &a.Description, &a.IsActive, &a.DeletedTime, &a.ExpirationTime,
		&a.SuspendUntilTime, &a.IsAccountManager, &a.ManagerID, &a.EncodedPassword, &a.TempPassword,
		&a.LastPasswords, &a.PasswdChangeTime, &a.PasswdQueryTime, &a.MaximumDevices,
		&totalPing, &maxPing, &mode, &sms, &smtp)
	if err != nil {
		return nil, err
	}
	a.SetTotalPingCount(totalPing)
	a.SetMaxPingCount(maxPing)
	a.GeocoderMode = models.ParseGeocoderMode(mode, models.GeocoderFull)
	if a.SMSProperties, err = decodeProps(sms); err != nil {
		return nil, fmt.Errorf("sms properties of %s: %w", a.AccountID, err)
	}
	if a.SMTPProperties, err = decodeProps(smtp); err != nil {
		return nil, fmt.Errorf("smtp properties of %s: %w", a.AccountID, err)
	}
	return &a, nil
}

func decodeProps(b []byte) (map[string]string, error) {
	if len(b) == 0 {
		return nil, nil
	}
	var m map[string]string
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, err
	}
	if len(m) == 0 {
		return nil, nil
	}
	return m, nil
}

func encodeProps(m map[string]string) ([]byte, error) {
	if m == nil {
		m = map[string]string{}
	}
	return json.Marshal(m)
}

func (r *PostgresRepository) Exists(ctx context.Context, accountID string) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM accounts WHERE account_id = $1)`

	var ok bool
	if err := r.db.QueryRowContext(ctx, query, accountID).Scan(&ok); err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	return ok, nil
}

func (r *PostgresRepository) Load(ctx context.Context, accountID string) (*models.Account, error) {
	query := `SELECT ` + accountColumns + `
		 FROM accounts
		 WHERE account_id = $1`

	a, err := scanAccount(r.db.QueryRowContext(ctx, query, accountID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return a, nil
}

// Save inserts the account or overwrites every column of an existing row.
func (r *PostgresRepository) Save(ctx context.Context, a *models.Account) error {
	sms, err := encodeProps(a.SMSProperties)
	if err != nil {
		return fmt.Errorf("encode sms properties: %w", err)
	}
	smtp, err := encodeProps(a.SMTPProperties)
	if err != nil {
		return fmt.Errorf("encode smtp properties: %w", err)
	}

	query :=
		`INSERT INTO accounts (` + accountColumns + `)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)
		 ON CONFLICT (account_id) DO UPDATE SET
		 description = EXCLUDED.description,
		 is_active = EXCLUDED.is_active,
		 deleted_time = EXCLUDED.deleted_time,
		 expiration_time = EXCLUDED.expiration_time,
		 suspend_until_time = EXCLUDED.suspend_until_time,
		 is_account_manager = EXCLUDED.is_account_manager,
		 manager_id = EXCLUDED.manager_id,
		 password = EXCLUDED.password,
		 temp_password = EXCLUDED.temp_password,
		 last_passwords = EXCLUDED.last_passwords,
		 passwd_change_time = EXCLUDED.passwd_change_time,
		 passwd_query_time = EXCLUDED.passwd_query_time,
		 maximum_devices = EXCLUDED.maximum_devices,
		 total_ping_count = EXCLUDED.total_ping_count,
		 max_ping_count = EXCLUDED.max_ping_count,
		 geocoder_mode = EXCLUDED.geocoder_mode,
		 sms_properties = EXCLUDED.sms_properties,
		 smtp_properties = EXCLUDED.smtp_properties`

	_, err = r.db.ExecContext(ctx, query,
		a.AccountID, a.Description, a.IsActive, a.DeletedTime, a.ExpirationTime,
		a.SuspendUntilTime, a.IsAccountManager, a.ManagerID, a.EncodedPassword, a.TempPassword,
		a.LastPasswords, a.PasswdChangeTime, a.PasswdQueryTime, a.MaximumDevices,
		a.TotalPingCount, a.MaxPingCount, string(a.GeocoderMode), sms, smtp)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

// UpdatePasswordFields writes only the password related columns.
func (r *PostgresRepository) UpdatePasswordFields(ctx context.Context, a *models.Account) error {
	query :=
		`UPDATE accounts
		 SET password = $2, temp_password = $3, last_passwords = $4, passwd_change_time = $5
		 WHERE account_id = $1`

	res, err := r.db.ExecContext(ctx, query,
		a.AccountID, a.EncodedPassword, a.TempPassword, a.LastPasswords, a.PasswdChangeTime)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}

// UpdateSuspendUntil only ever moves the suspension forward.
func (r *PostgresRepository) UpdateSuspendUntil(ctx context.Context, accountID string, until int64) error {
	query :=
		`UPDATE accounts SET suspend_until_time = $2
		 WHERE account_id = $1 AND suspend_until_time < $2`

	if _, err := r.db.ExecContext(ctx, query, accountID, until); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

// FindManagers returns the manager accounts carrying managerID, ordered by id.
func (r *PostgresRepository) FindManagers(ctx context.Context, managerID string) ([]*models.Account, error) {
	query := `SELECT ` + accountColumns + `
		 FROM accounts
		 WHERE manager_id = $1 AND is_account_manager
		 ORDER BY account_id`

	rows, err := r.db.QueryContext(ctx, query, managerID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var out []*models.Account
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return out, nil
}

func (r *PostgresRepository) ListAccountIDs(ctx context.Context, f Filter) ([]string, error) {
	query :=
		`SELECT account_id FROM accounts
		 WHERE ($1 = FALSE OR is_active)
		 AND ($2 = FALSE OR geocoder_mode <> 'none')
		 AND ($3 = FALSE OR deleted_time = 0)
		 ORDER BY account_id`

	rows, err := r.db.QueryContext(ctx, query, f.ActiveOnly, f.GeocodedOnly, f.ExcludeDeleted)
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
