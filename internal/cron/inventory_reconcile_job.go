package cron

import (
	"context"
	"fmt"

	"github.com/labledger/labledger-backend/internal/inventory"
	"github.com/labledger/labledger-backend/pkg/logger"
)

// InventoryReconcileJobName identifies the drift job in logs and metrics.
const InventoryReconcileJobName = "inventory-reconcile"

type recomputer interface {
	Recompute(ctx context.Context, repair bool) (*inventory.DriftReport, error)
}

type recomputeObserver interface {
	ObserveRecompute(drifted, repaired int)
}

// InventoryReconcileJobParams configure the drift job.
type InventoryReconcileJobParams struct {
	Logger    *logger.Logger
	Inventory recomputer
	Metrics   recomputeObserver
	Repair    bool
}

type inventoryReconcileJob struct {
	logg      *logger.Logger
	inventory recomputer
	metrics   recomputeObserver
	repair    bool
}

// NewInventoryReconcileJob builds the job that compares cached availability
// against the movement log and optionally rewrites drifted rows.
func NewInventoryReconcileJob(params InventoryReconcileJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Inventory == nil {
		return nil, fmt.Errorf("inventory service required")
	}
	return &inventoryReconcileJob{
		logg:      params.Logger,
		inventory: params.Inventory,
		metrics:   params.Metrics,
		repair:    params.Repair,
	}, nil
}

func (j *inventoryReconcileJob) Name() string { return InventoryReconcileJobName }

func (j *inventoryReconcileJob) Run(ctx context.Context) error {
	report, err := j.inventory.Recompute(ctx, j.repair)
	if err != nil {
		return fmt.Errorf("recompute inventory: %w", err)
	}
	if j.metrics != nil {
		j.metrics.ObserveRecompute(len(report.Drifted), report.Repaired)
	}
	logCtx := j.logg.WithFields(ctx, map[string]any{
		"checked":  report.Checked,
		"drifted":  len(report.Drifted),
		"repaired": report.Repaired,
		"repair":   j.repair,
	})
	if len(report.Drifted) > 0 && !j.repair {
		j.logg.Warn(logCtx, "inventory drift left unrepaired")
		return nil
	}
	j.logg.Info(logCtx, "inventory reconcile finished")
	return nil
}
