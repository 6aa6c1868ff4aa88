package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"github.com/shopspring/decimal"

	"github.com/parkdesk/parkdesk/cmd/parkdesk/cli"
	"github.com/parkdesk/parkdesk/internal/app"
	"github.com/parkdesk/parkdesk/internal/auth"
	"github.com/parkdesk/parkdesk/internal/billing"
	"github.com/parkdesk/parkdesk/internal/cars"
	"github.com/parkdesk/parkdesk/internal/clients"
	jobmetrics "github.com/parkdesk/parkdesk/internal/jobs"
	"github.com/parkdesk/parkdesk/internal/observability"
	"github.com/parkdesk/parkdesk/internal/payments"
	"github.com/parkdesk/parkdesk/internal/permits"
	"github.com/parkdesk/parkdesk/internal/platform/cache"
	"github.com/parkdesk/parkdesk/internal/platform/db"
	"github.com/parkdesk/parkdesk/internal/reports"
	"github.com/parkdesk/parkdesk/internal/shared"
	"github.com/parkdesk/parkdesk/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	decimal.MarshalJSONWithoutQuotes = true

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}
	logger := app.NewLogger(cfg)
	redisOpts := asynq.RedisClientOpt{Addr: cfg.RedisAddr, Password: cfg.RedisPassword, DB: cfg.RedisDB}

	if len(os.Args) > 1 && os.Args[1] == "billing" {
		billingCLI := cli.NewBillingCLI(redisOpts)
		code := billingCLI.Run(ctx, os.Args[2:], os.Stdout, os.Stderr)
		if err := billingCLI.Close(); err != nil {
			logger.Warn("billing cli close", slog.Any("error", err))
		}
		os.Exit(code)
	}

	if err := run(ctx, cfg, logger, redisOpts); err != nil {
		logger.Error("parkdesk exited", slog.Any("error", err))
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *app.Config, logger *slog.Logger, redisOpts asynq.RedisClientOpt) error {
	if cfg.DBAutoMigrate {
		if err := db.Migrate(cfg.PGDSN); err != nil {
			return err
		}
	}

	pool, err := db.New(ctx, cfg.PGDSN, db.PoolOptions{})
	if err != nil {
		return err
	}
	defer pool.Close()

	redisClient, err := cache.New(ctx, cache.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword, DB: cfg.RedisDB})
	if err != nil {
		return err
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	metrics := observability.NewMetrics()
	loc := cfg.BillingLocation()

	billingEngine := billing.NewEngine(billing.NewRepository(pool), logger, loc)
	billingService := billing.NewService(
		billingEngine,
		shared.NewRunLock(redisClient, cfg.BillingLockTTL),
		jobmetrics.NewMetrics(metrics.Registerer()),
		logger,
		loc,
	)

	inspector := asynq.NewInspector(redisOpts)
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()

	router := app.NewRouter(app.RouterParams{
		Logger:  logger,
		Config:  cfg,
		Metrics: metrics,
		API: []app.RouteMounter{
			auth.NewHandler(logger, auth.NewService(auth.NewRepository(pool))),
			clients.NewHandler(logger, clients.NewService(clients.NewRepository(pool))),
			cars.NewHandler(logger, cars.NewService(cars.NewRepository(pool))),
			permits.NewHandler(logger, permits.NewService(permits.NewRepository(pool), logger, loc)),
			billing.NewHandler(logger, billingService),
			payments.NewHandler(logger, payments.NewService(payments.NewRepository(pool))),
			reports.NewHandler(logger, reports.NewService(reports.NewRepository(pool))),
		},
		JobHandler: jobs.NewHandler(inspector, logger),
		Ready: func(r *http.Request) error {
			pingCtx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			return errors.Join(pool.Ping(pingCtx), redisClient.Ping(pingCtx).Err())
		},
	})

	server := &http.Server{
		Addr:              cfg.AppAddr,
		Handler:           router,
		ReadTimeout:       cfg.AppReadTimeout,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      cfg.AppWriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr), slog.String("billing_tz", loc.String()))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
