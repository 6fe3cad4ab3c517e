package server

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/dmitrijs2005/tenantgov/internal/logging"
	"github.com/dmitrijs2005/tenantgov/internal/server/backfill"
	"github.com/dmitrijs2005/tenantgov/internal/server/config"
	"github.com/dmitrijs2005/tenantgov/internal/server/geocoder"
	"github.com/dmitrijs2005/tenantgov/internal/server/reports"
	"github.com/dmitrijs2005/tenantgov/internal/server/repositories/repomanager"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"
)

const (
	geocodeCacheSize   = 10000
	geocodeCacheMaxAge = 24 * time.Hour

	pushJobName = "tenantgov_backfill"
	pushTimeout = 10 * time.Second
)

// BackfillJob runs one address backfill against the configured database.
type BackfillJob struct {
	config      *config.Config
	logger      logging.Logger
	db          *sql.DB
	coordinator *backfill.Coordinator
	registry    *prometheus.Registry
}

// NewBackfillJob wires the coordinator. Its metrics live in a registry of
// their own that is pushed to the Pushgateway after the run, when one is
// configured. With no S3 bucket configured summaries are not uploaded.
func NewBackfillJob(ctx context.Context, c *config.Config, logger logging.Logger) (*BackfillJob, error) {
	db, err := sql.Open("pgx", c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	geo := geocoder.NewCached(
		geocoder.NewRateLimited(
			geocoder.NewHTTPResolver(c.Geocoder.URL, c.Geocoder.UserAgent, c.Geocoder.Timeout),
			c.Geocoder.MinInterval),
		geocodeCacheSize, geocodeCacheMaxAge)

	reg := prometheus.NewRegistry()
	opts := []backfill.Option{backfill.WithMetrics(backfill.NewMetrics(reg))}
	if c.S3Bucket != "" {
		sink, err := reports.NewS3SinkFromConfig(ctx, c)
		if err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("report sink: %w", err)
		}
		opts = append(opts, backfill.WithReportSink(sink))
	}

	rm := repomanager.NewPostgresRepositoryManager()
	coord := backfill.NewCoordinator(rm.Accounts(db), rm.Devices(db), rm.Events(db), geo, logger, opts...)

	return &BackfillJob{config: c, logger: logger.With("module", "backfill"), db: db, coordinator: coord, registry: reg}, nil
}

// Run backfills [start, end) with poolSize workers, or the configured pool
// size when poolSize is not positive. SIGINT and SIGTERM abort the run.
func (j *BackfillJob) Run(ctx context.Context, start, end time.Time, poolSize int) (*backfill.Summary, error) {
	defer j.db.Close()

	ctx, stop := signalContext(ctx)
	defer stop()

	if poolSize <= 0 {
		poolSize = j.config.BackfillPoolSize
	}
	sum, err := j.coordinator.Run(ctx, start, end, poolSize)
	if sum != nil {
		j.pushMetrics(sum.RunID)
	}
	return sum, err
}

// pushMetrics sends the run's counters to the Pushgateway grouped by run id.
// A failed push is logged and does not fail the run.
func (j *BackfillJob) pushMetrics(runID string) {
	if j.config.PushGatewayURL == "" {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), pushTimeout)
	defer cancel()

	err := push.New(j.config.PushGatewayURL, pushJobName).
		Gatherer(j.registry).
		Grouping("run_id", runID).
		PushContext(ctx)
	if err != nil {
		j.logger.Warn(ctx, "metrics push failed", "run_id", runID, "error", err)
		return
	}
	j.logger.Info(ctx, "metrics pushed", "run_id", runID, "gateway", j.config.PushGatewayURL)
}
