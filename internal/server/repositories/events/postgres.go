package events

import (
	"context"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/tenantgov/internal/dbx"
	"github.com/dmitrijs2005/tenantgov/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func buildScanQuery(f Filter) string {
	var b strings.Builder
	b.WriteString(`SELECT account_id, device_id, timestamp, status_code, latitude, longitude, address
		 FROM events
		 WHERE account_id = $1 AND device_id = $2 AND timestamp >= $3 AND timestamp < $4`)
	if f.BlankAddressOnly {
		b.WriteString(` AND address = ''`)
	}
	if f.ValidGPSOnly {
		b.WriteString(` AND latitude BETWEEN -90 AND 90 AND longitude BETWEEN -180 AND 180` +
			` AND (abs(latitude) >= 0.0001 OR abs(longitude) >= 0.0001)`)
	}
	b.WriteString(` ORDER BY timestamp, status_code`)
	return b.String()
}

// ScanRange reads the whole slice before calling h, so the handler may be slow
// and may write through the same repository without holding a cursor open.
func (r *PostgresRepository) ScanRange(ctx context.Context, accountID, deviceID string, start, end int64, f Filter, h Handler) (ScanResult, error) {
	var res ScanResult

	rows, err := r.db.QueryContext(ctx, buildScanQuery(f), accountID, deviceID, start, end)
	if err != nil {
		return res, fmt.Errorf("db error: %w", err)
	}

	var batch []*models.EventRecord
	for rows.Next() {
		rec := &models.EventRecord{}
		if err := rows.Scan(&rec.AccountID, &rec.DeviceID, &rec.Timestamp, &rec.StatusCode,
			&rec.GeoPoint.Latitude, &rec.GeoPoint.Longitude, &rec.Address); err != nil {
			rows.Close()
			return res, fmt.Errorf("db error: %w", err)
		}
		batch = append(batch, rec)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return res, fmt.Errorf("db error: %w", err)
	}
	rows.Close()

	for _, rec := range batch {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		res.Read++
		switch h(ctx, rec) {
		case Skip:
			res.Skipped++
		case Stop:
			res.Matched++
			res.Stopped = true
			return res, nil
		default:
			res.Matched++
		}
	}
	return res, nil
}

func (r *PostgresRepository) UpdateAddress(ctx context.Context, rec *models.EventRecord) (bool, error) {
	query :=
		`UPDATE events SET address = $5
		 WHERE account_id = $1 AND device_id = $2 AND timestamp = $3 AND status_code = $4 AND address = ''`

	res, err := r.db.ExecContext(ctx, query, rec.AccountID, rec.DeviceID, rec.Timestamp, rec.StatusCode, rec.Address)
	if err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	return n > 0, nil
}
