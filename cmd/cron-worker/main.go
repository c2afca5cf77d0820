package main

import (
	"context"
	"errors"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/labledger/labledger-backend/internal/cron"
	"github.com/labledger/labledger-backend/internal/inventory"
	"github.com/labledger/labledger-backend/internal/ledger"
	"github.com/labledger/labledger-backend/pkg/config"
	"github.com/labledger/labledger-backend/pkg/db"
	"github.com/labledger/labledger-backend/pkg/instance"
	"github.com/labledger/labledger-backend/pkg/logger"
	"github.com/labledger/labledger-backend/pkg/metrics"
	"github.com/labledger/labledger-backend/pkg/migrate"
	"github.com/labledger/labledger-backend/pkg/redis"
)

func main() {
	once := flag.Bool("once", false, "run every job a single time and exit")
	jobName := flag.String("job", "", "run only the named job once and exit")
	flag.Parse()

	logg := logger.New(logger.Options{ServiceName: "cron-worker"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "cron-worker",
		Level:       cfg.App.LogLevel,
		Format:      cfg.App.LogFormat,
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRun(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run migrations", err)
		os.Exit(1)
	}

	var lock cron.Lock = cron.NewLocalLock()
	if cfg.Redis.Enabled() {
		redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
		if err != nil {
			logg.Error(context.Background(), "failed to bootstrap redis", err)
			os.Exit(1)
		}
		defer func() {
			if err := redisClient.Close(); err != nil {
				logg.Error(context.Background(), "error closing redis", err)
			}
		}()
		lock, err = cron.NewRedisLock(redisClient, redisClient.LockKey("cron-worker:"+envOrLocal(cfg.App.Env)), 0)
		if err != nil {
			logg.Error(context.Background(), "failed to create cron lock", err)
			os.Exit(1)
		}
	} else {
		logg.Warn(context.Background(), "redis not configured; cron lock is process-local")
	}

	ledgerSvc, err := ledger.NewService(ledger.NewRepository(dbClient.DB()))
	if err != nil {
		logg.Error(context.Background(), "failed to create ledger service", err)
		os.Exit(1)
	}
	inventorySvc, err := inventory.NewService(inventory.NewRepository(dbClient.DB()), ledgerSvc, dbClient, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create inventory service", err)
		os.Exit(1)
	}

	reconcileJob, err := cron.NewInventoryReconcileJob(cron.InventoryReconcileJobParams{
		Logger:    logg,
		Inventory: inventorySvc,
		Metrics:   metrics.NewInventoryMetrics(prometheus.DefaultRegisterer),
		Repair:    cfg.Reconcile.Repair,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create reconcile job", err)
		os.Exit(1)
	}

	registry, err := cron.NewRegistry(reconcileJob)
	if err != nil {
		logg.Error(context.Background(), "failed to build job registry", err)
		os.Exit(1)
	}

	service, err := cron.NewService(cron.ServiceParams{
		Logger:   logg,
		Registry: registry,
		Lock:     lock,
		Metrics:  metrics.NewCronJobMetrics(prometheus.DefaultRegisterer),
		Interval: cfg.Reconcile.Interval,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create cron service", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":      cfg.App.Env,
		"interval": service.Interval().String(),
		"repair":   cfg.Reconcile.Repair,
		"instance": instance.GetID(),
	})

	if *jobName != "" {
		if err := service.RunJob(ctx, *jobName); err != nil {
			logg.Error(ctx, "cron job failed", err)
			os.Exit(1)
		}
		return
	}

	if *once {
		if err := service.RunOnce(ctx); err != nil {
			logg.Error(ctx, "cron run failed", err)
			os.Exit(1)
		}
		return
	}

	logg.Info(ctx, "starting cron worker")
	if err := service.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(ctx, "cron worker stopped unexpectedly", err)
		os.Exit(1)
	}

	logg.Info(ctx, "cron worker shutting down gracefully")
}

func envOrLocal(env string) string {
	if env == "" {
		return "local"
	}
	return env
}
