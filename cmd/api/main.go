package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/multierr"

	"github.com/labledger/labledger-backend/api/routes"
	"github.com/labledger/labledger-backend/internal/auth"
	"github.com/labledger/labledger-backend/internal/custody"
	"github.com/labledger/labledger-backend/internal/detection"
	"github.com/labledger/labledger-backend/internal/inventory"
	"github.com/labledger/labledger-backend/internal/ledger"
	"github.com/labledger/labledger-backend/internal/reports"
	"github.com/labledger/labledger-backend/internal/students"
	"github.com/labledger/labledger-backend/pkg/config"
	"github.com/labledger/labledger-backend/pkg/db"
	"github.com/labledger/labledger-backend/pkg/instance"
	"github.com/labledger/labledger-backend/pkg/logger"
	"github.com/labledger/labledger-backend/pkg/metrics"
	"github.com/labledger/labledger-backend/pkg/migrate"
	"github.com/labledger/labledger-backend/pkg/redis"
)

const shutdownTimeout = 15 * time.Second

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       cfg.App.LogLevel,
		Format:      cfg.App.LogFormat,
		WarnStack:   cfg.App.LogWarnStack,
	})

	if err := run(cfg, logg); err != nil {
		logg.Error(context.Background(), "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logg *logger.Logger) (err error) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dbClient, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		return err
	}
	defer func() {
		err = multierr.Append(err, dbClient.Close())
	}()

	if err := migrate.MaybeRun(ctx, cfg, logg, dbClient); err != nil {
		return err
	}

	var redisClient *redis.Client
	if cfg.Redis.Enabled() {
		redisClient, err = redis.New(ctx, cfg.Redis, logg)
		if err != nil {
			return err
		}
		defer func() {
			err = multierr.Append(err, redisClient.Close())
		}()
	} else {
		logg.Warn(ctx, "redis not configured; detection rate limiting disabled")
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	ledgerSvc, err := ledger.NewService(ledger.NewRepository(dbClient.DB()))
	if err != nil {
		return err
	}
	inventorySvc, err := inventory.NewService(inventory.NewRepository(dbClient.DB()), ledgerSvc, dbClient, logg)
	if err != nil {
		return err
	}
	studentSvc, err := students.NewService(students.NewRepository(dbClient.DB()), ledgerSvc, dbClient, logg)
	if err != nil {
		return err
	}
	custodySvc, err := custody.NewService(dbClient, studentSvc, inventorySvc, ledgerSvc, metrics.NewCustodyMetrics(registry), logg)
	if err != nil {
		return err
	}
	reportSvc, err := reports.NewService(reports.NewRepository(dbClient.DB()), ledgerSvc, studentSvc)
	if err != nil {
		return err
	}

	var detector detection.Detector = detection.DisabledDetector{}
	if cfg.Detector.Enabled() {
		detector, err = detection.NewHTTPDetector(cfg.Detector)
		if err != nil {
			return err
		}
	}
	detectionSvc, err := detection.NewService(detector, nil, inventorySvc, logg)
	if err != nil {
		return err
	}

	authSvc, err := auth.NewService(auth.ServiceParams{Admin: cfg.Admin, JWT: cfg.JWT, Logger: logg})
	if err != nil {
		return err
	}
	if !cfg.Admin.LoginEnabled() {
		logg.Warn(ctx, "admin password login disabled; use admin-token to mint tokens")
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx = logg.WithFields(ctx, map[string]any{
		"env":      cfg.App.Env,
		"addr":     addr,
		"driver":   cfg.DB.Driver,
		"detector": cfg.Detector.Enabled(),
		"instance": instance.GetID(),
	})

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(routes.Deps{
			Config:    cfg,
			Auth:      authSvc,
			Logger:    logg,
			DB:        dbClient,
			Redis:     redisClient,
			Gatherer:  registry,
			Custody:   custodySvc,
			Students:  studentSvc,
			Inventory: inventorySvc,
			Reports:   reportSvc,
			Detection: detectionSvc,
			Now:       time.Now,
		}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logg.Info(ctx, "starting api server")
		serveErr <- server.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	logg.Info(ctx, "shutting down api server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
