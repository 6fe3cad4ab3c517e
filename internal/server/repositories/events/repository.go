// Package events reads and annotates historical device position reports.
package events

import (
	"context"

	"github.com/dmitrijs2005/tenantgov/internal/server/models"
)

// Verdict is returned by a Handler for every record passed to it.
type Verdict int

const (
	// Continue counts the record as matched and moves on.
	Continue Verdict = iota
	// Skip moves on without counting the record.
	Skip
	// Stop ends the scan after the current record.
	Stop
)

// Filter narrows the rows a scan selects.
type Filter struct {
	BlankAddressOnly bool
	ValidGPSOnly     bool
}

type Handler func(ctx context.Context, rec *models.EventRecord) Verdict

// ScanResult reports how a scan ended.
type ScanResult struct {
	Read    int
	Matched int
	Skipped int
	Stopped bool
}

type Repository interface {
	// ScanRange hands every record of the device in [start, end) that passes
	// f to h, ordered by timestamp.
	ScanRange(ctx context.Context, accountID, deviceID string, start, end int64, f Filter, h Handler) (ScanResult, error)
	// UpdateAddress stores rec.Address only if the stored address is still
	// blank. It reports whether a row changed.
	UpdateAddress(ctx context.Context, rec *models.EventRecord) (bool, error)
}
