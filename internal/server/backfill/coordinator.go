// Package backfill fills in missing addresses of historical event records.
//
// A run lists the accounts that receive geocoding, queues one task per
// device on a bounded worker pool and walks each device's records in
// 12 hour slices. Records that already have an address or lack a usable
// position are skipped; the rest are reverse geocoded and updated only if
// their address is still blank. Failures of single records are logged and
// the walk continues; a task whose account or device cannot be loaded is
// abandoned.
package backfill

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/tenantgov/internal/logging"
	"github.com/dmitrijs2005/tenantgov/internal/server/geocoder"
	"github.com/dmitrijs2005/tenantgov/internal/server/models"
	"github.com/dmitrijs2005/tenantgov/internal/server/repositories/accounts"
	"github.com/dmitrijs2005/tenantgov/internal/server/repositories/events"
	"github.com/dmitrijs2005/tenantgov/internal/workerpool"
	"github.com/google/uuid"
)

const (
	SliceDuration        = 12 * time.Hour
	DefaultRetryDelay    = 5 * time.Second
	DefaultDrainInterval = time.Second
)

var (
	ErrInvalidRange = errors.New("backfill: start must be before end")
	ErrAborted      = errors.New("backfill: aborted")
)

type AccountSource interface {
	ListAccountIDs(ctx context.Context, f accounts.Filter) ([]string, error)
	Load(ctx context.Context, accountID string) (*models.Account, error)
}

type DeviceSource interface {
	ListDeviceIDs(ctx context.Context, accountID string) ([]string, error)
	Load(ctx context.Context, accountID, deviceID string) (*models.Device, error)
}

type RecordSource interface {
	ScanRange(ctx context.Context, accountID, deviceID string, start, end int64, f events.Filter, h events.Handler) (events.ScanResult, error)
	UpdateAddress(ctx context.Context, rec *models.EventRecord) (bool, error)
}

// ReportSink stores a run summary under key.
type ReportSink interface {
	PutJSON(ctx context.Context, key string, v any) error
}

type Coordinator struct {
	accounts AccountSource
	devices  DeviceSource
	records  RecordSource
	geocoder geocoder.Resolver
	logger   logging.Logger

	metrics *Metrics
	sink    ReportSink
	now           func() time.Time
	retryDelay    time.Duration
	drainInterval time.Duration
}

type Option func(*Coordinator)

func WithMetrics(m *Metrics) Option {
	return func(c *Coordinator) { c.metrics = m }
}

// WithReportSink uploads the summary of every completed run.
func WithReportSink(s ReportSink) Option {
	return func(c *Coordinator) { c.sink = s }
}

func WithClock(now func() time.Time) Option {
	return func(c *Coordinator) { c.now = now }
}

// WithRetryDelay sets the pause after a submission found the queue full.
func WithRetryDelay(d time.Duration) Option {
	return func(c *Coordinator) { c.retryDelay = d }
}

// WithDrainInterval sets how often the drain loop polls for active tasks.
func WithDrainInterval(d time.Duration) Option {
	return func(c *Coordinator) { c.drainInterval = d }
}

func NewCoordinator(accts AccountSource, devs DeviceSource, records RecordSource, geo geocoder.Resolver, logger logging.Logger, opts ...Option) *Coordinator {
	c := &Coordinator{
		accounts:      accts,
		devices:       devs,
		records:       records,
		geocoder:      geo,
		logger:        logger.With("module", "backfill"),
		now:           time.Now,
		retryDelay:    DefaultRetryDelay,
		drainInterval: DefaultDrainInterval,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.metrics == nil {
		c.metrics = NewMetrics(nil)
	}
	return c
}

// Run backfills records in [start, end) with poolSize workers. It returns
// once every submitted task has finished, or early with ErrAborted when ctx
// is cancelled while tasks are still being submitted. A cancel during the
// drain still waits for running tasks and then reports ErrAborted.
func (c *Coordinator) Run(ctx context.Context, start, end time.Time, poolSize int) (*Summary, error) {
	if !start.Before(end) {
		return nil, ErrInvalidRange
	}

	t := &tally{sum: Summary{
		RunID:      uuid.NewString(),
		RangeStart: start,
		RangeEnd:   end,
		StartedAt:  c.now(),
	}}
	logger := c.logger.With("run_id", t.sum.RunID)

	ids, err := c.accounts.ListAccountIDs(ctx, accounts.Filter{GeocodedOnly: true})
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}

	pool := workerpool.New(ctx, poolSize, logger)
	t.update(func(s *Summary) { s.PoolSize = pool.Size() })

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			pool.Stop()
		case <-done:
		}
	}()

	logger.Info(ctx, "backfill started", "from", start, "to", end, "pool", pool.Size(), "accounts", len(ids))

	from, to := start.Unix(), end.Unix()
	for _, id := range ids {
		acct, err := c.accounts.Load(ctx, id)
		if err != nil {
			logger.Warn(ctx, "account skipped", "account", id, "error", err)
			t.update(func(s *Summary) { s.AccountsSkipped++ })
			continue
		}
		if acct.GeocoderMode == models.GeocoderNone {
			t.update(func(s *Summary) { s.AccountsSkipped++ })
			continue
		}

		devIDs, err := c.devices.ListDeviceIDs(ctx, acct.AccountID)
		if err != nil {
			logger.Warn(ctx, "device list failed", "account", acct.AccountID, "error", err)
			t.update(func(s *Summary) { s.AccountsSkipped++ })
			continue
		}
		t.update(func(s *Summary) { s.Accounts++ })

		for _, devID := range devIDs {
			accountID, deviceID := acct.AccountID, devID
			task := func(ctx context.Context) {
				c.runTask(ctx, logger, t, accountID, deviceID, from, to)
			}
			if err := c.submit(ctx, pool, task); err != nil {
				logger.Warn(ctx, "backfill aborted while submitting", "account", accountID, "device", deviceID)
				sum := t.snapshot()
				sum.Aborted = true
				sum.FinishedAt = c.now()
				return &sum, fmt.Errorf("%w: %v", ErrAborted, err)
			}
			t.update(func(s *Summary) { s.Tasks++ })
		}
	}

	c.drain(pool)

	sum := t.snapshot()
	sum.FinishedAt = c.now()
	if err := ctx.Err(); err != nil {
		sum.Aborted = true
		logger.Warn(ctx, "backfill cancelled during drain", "tasks", sum.Tasks)
		return &sum, fmt.Errorf("%w: %v", ErrAborted, err)
	}
	logger.Info(ctx, "backfill finished",
		"tasks", sum.Tasks,
		"updated", sum.RecordsUpdated,
		"skipped", sum.RecordsSkipped,
		"duration", sum.Duration())

	if c.sink != nil {
		if err := c.sink.PutJSON(ctx, sum.ReportKey(), &sum); err != nil {
			logger.Error(ctx, "summary upload failed", "key", sum.ReportKey(), "error", err)
		}
	}
	return &sum, nil
}

// submit retries a full queue every retryDelay until the task is accepted
// or the pool stops.
func (c *Coordinator) submit(ctx context.Context, pool *workerpool.Pool, task workerpool.Task) error {
	for {
		err := pool.TrySubmit(task)
		if !errors.Is(err, workerpool.ErrQueueFull) {
			return err
		}
		c.metrics.QueueFull.Inc()

		timer := time.NewTimer(c.retryDelay)
		select {
		case <-ctx.Done():
			timer.Stop()
			pool.Stop()
			return workerpool.ErrStopped
		case <-timer.C:
		}
	}
}

func (c *Coordinator) drain(pool *workerpool.Pool) {
	pool.Stop()

	ticker := time.NewTicker(c.drainInterval)
	defer ticker.Stop()
	for pool.Active() > 0 {
		<-ticker.C
	}
	_ = pool.Wait()
}

func (c *Coordinator) runTask(ctx context.Context, logger logging.Logger, t *tally, accountID, deviceID string, from, to int64) {
	began := time.Now()
	defer func() { c.metrics.TaskDuration.Observe(time.Since(began).Seconds()) }()

	logger = logger.With("account", accountID, "device", deviceID)

	acct, err := c.accounts.Load(ctx, accountID)
	if err != nil {
		c.abandon(ctx, logger, t, "account", err)
		return
	}
	dev, err := c.devices.Load(ctx, acct.AccountID, deviceID)
	if err != nil {
		c.abandon(ctx, logger, t, "device", err)
		return
	}

	var st taskStats
	filter := events.Filter{BlankAddressOnly: true, ValidGPSOnly: true}
	handler := func(ctx context.Context, rec *models.EventRecord) events.Verdict {
		return c.handleRecord(ctx, logger, rec, &st)
	}

	step := int64(SliceDuration / time.Second)
	result := resultDone
	for sliceStart := from; sliceStart < to; sliceStart += step {
		sliceEnd := min(sliceStart+step, to)
		if _, err := c.records.ScanRange(ctx, acct.AccountID, dev.DeviceID, sliceStart, sliceEnd, filter, handler); err != nil {
			if ctx.Err() != nil {
				result = resultCancelled
				break
			}
			logger.Error(ctx, "slice scan failed", "from", sliceStart, "to", sliceEnd, "error", err)
		}
	}

	c.metrics.Tasks.WithLabelValues(result).Inc()
	t.update(func(s *Summary) {
		s.RecordsUpdated += st.updated
		s.RecordsSkipped += st.skipped
		s.GeocodeFailures += st.geocodeFailures
		s.UpdateFailures += st.updateFailures
	})
	logger.Debug(ctx, "task finished", "result", result, "updated", st.updated, "skipped", st.skipped)
}

func (c *Coordinator) abandon(ctx context.Context, logger logging.Logger, t *tally, what string, err error) {
	logger.Warn(ctx, "task abandoned", "load", what, "error", err)
	c.metrics.Tasks.WithLabelValues(resultAbandoned).Inc()
	t.update(func(s *Summary) { s.TasksAbandoned++ })
}

func (c *Coordinator) handleRecord(ctx context.Context, logger logging.Logger, rec *models.EventRecord, st *taskStats) events.Verdict {
	if rec.HasAddress() {
		return c.skip(st, reasonHasAddress)
	}
	if !rec.GeoPoint.IsValid() {
		return c.skip(st, reasonInvalidPosition)
	}

	addr, err := c.geocoder.ReverseGeocode(ctx, rec.GeoPoint, false)
	if err != nil {
		st.geocodeFailures++
		c.metrics.GeocodeFailures.Inc()
		logger.Warn(ctx, "reverse geocode failed", "timestamp", rec.Timestamp, "point", rec.GeoPoint.String(), "error", err)
		return events.Skip
	}
	if !addr.HasFullAddress() {
		return c.skip(st, reasonNoAddress)
	}

	// another writer may have filled the record since the scan
	if rec.HasAddress() {
		return c.skip(st, reasonUpdatedElsewhere)
	}
	rec.Address = addr.FullAddress

	changed, err := c.records.UpdateAddress(ctx, rec)
	if err != nil {
		st.updateFailures++
		c.metrics.UpdateFailures.Inc()
		logger.Error(ctx, "address update failed", "timestamp", rec.Timestamp, "error", err)
		return events.Skip
	}
	if !changed {
		return c.skip(st, reasonUpdatedElsewhere)
	}

	st.updated++
	c.metrics.RecordsUpdated.Inc()
	return events.Continue
}

func (c *Coordinator) skip(st *taskStats, reason string) events.Verdict {
	st.skipped++
	c.metrics.RecordsSkipped.WithLabelValues(reason).Inc()
	return events.Skip
}
