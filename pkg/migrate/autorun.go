package migrate

import (
	"context"
	"fmt"

	"github.com/labledger/labledger-backend/pkg/config"
	"github.com/labledger/labledger-backend/pkg/db"
	"github.com/labledger/labledger-backend/pkg/logger"
)

// MaybeRun applies pending migrations at boot when the auto-migrate feature
// flag is enabled. SQLite deployments ship with the flag on so a fresh file
// database is usable immediately.
func MaybeRun(ctx context.Context, cfg *config.Config, logg *logger.Logger, client *db.Client) error {
	if !cfg.FeatureFlags.AutoMigrate {
		return nil
	}

	sqlDB, err := client.SQL()
	if err != nil {
		return fmt.Errorf("extracting sql.DB: %w", err)
	}

	meta := map[string]any{"env": cfg.App.Env, "driver": cfg.DB.Driver}
	ctx = logg.WithFields(ctx, meta)
	logg.Info(ctx, "running goose migrations (auto-run)")

	if err := Up(ctx, sqlDB, cfg.DB.Driver, logg); err != nil {
		return fmt.Errorf("running goose up: %w", err)
	}

	logg.Info(ctx, "goose migrations completed")
	return nil
}
