// Package server wires the governance service and the address backfill
// job: configuration, database, migrations, repositories and listeners.
package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dmitrijs2005/tenantgov/internal/logging"
	"github.com/dmitrijs2005/tenantgov/internal/server/config"
	"github.com/dmitrijs2005/tenantgov/internal/server/credentials"
	"github.com/dmitrijs2005/tenantgov/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/tenantgov/internal/server/services"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	gs "github.com/dmitrijs2005/tenantgov/internal/server/grpc"

	_ "github.com/jackc/pgx/v5/stdlib"
)

const shutdownTimeout = 5 * time.Second

type App struct {
	config         *config.Config
	logger         logging.Logger
	db             *sql.DB
	repomanager    repomanager.RepositoryManager
	accountService *services.AccountService
	registry       *prometheus.Registry
}

func NewApp(c *config.Config) (*App, error) {

	logger := logging.NewSlogLogger(slog.New(slog.NewJSONHandler(os.Stdout, nil)))

	db, err := sql.Open("pgx", c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	policy, err := credentials.NewGeneralPolicy(c.Password)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("password policy: %w", err)
	}

	rm := repomanager.NewPostgresRepositoryManager()
	as := services.NewAccountService(db, rm, policy, c, logger)

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	return &App{
		config:         c,
		logger:         logger,
		db:             db,
		repomanager:    rm,
		accountService: as,
		registry:       reg,
	}, nil
}

// signalContext is cancelled on SIGINT, SIGTERM or SIGQUIT.
func signalContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
}

func (app *App) startMetricsServer(ctx context.Context) error {
	if app.config.MetricsAddr == "" {
		return nil
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(app.registry, promhttp.HandlerOpts{}))
	srv := &http.Server{
		Addr:              app.config.MetricsAddr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			app.logger.Warn(ctx, "metrics server shutdown", "error", err)
		}
	}()

	app.logger.Info(ctx, "Starting metrics server", "address", app.config.MetricsAddr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("metrics server: %w", err)
	}
	return nil
}

// Run migrates the database and serves until ctx is cancelled or a signal
// arrives. A listener failure stops the other listener too.
func (app *App) Run(ctx context.Context) error {
	defer app.db.Close()

	ctx, stop := signalContext(ctx)
	defer stop()

	app.logger.Info(ctx, "Starting app...")

	if err := app.repomanager.RunMigrations(ctx, app.db); err != nil {
		return fmt.Errorf("migrations: %w", err)
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return gs.NewGRPCServer(app.config.EndpointAddrGRPC, app.logger, app.accountService, app.config.AdminTokenSecret).Run(ctx)
	})
	g.Go(func() error {
		return app.startMetricsServer(ctx)
	})

	err := g.Wait()
	app.logger.Info(context.Background(), "App stopped")
	return err
}
