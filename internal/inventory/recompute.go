package inventory

import (
	"context"

	"github.com/labledger/labledger-backend/internal/ledger"
	pkgerrors "github.com/labledger/labledger-backend/pkg/errors"
)

// Drift is one item whose cached available count disagrees with the log.
type Drift struct {
	ItemID       int64  `json:"item_id"`
	ItemName     string `json:"item_name"`
	Total        int    `json:"total"`
	Available    int    `json:"available"`
	Outstanding  int    `json:"outstanding"`
	Expected     int    `json:"expected"`
	OverCapacity bool   `json:"over_capacity"`
	Repaired     bool   `json:"repaired"`
}

// DriftReport summarises a recompute pass.
type DriftReport struct {
	Checked  int     `json:"checked"`
	Drifted  []Drift `json:"drifted"`
	Repaired int     `json:"repaired"`
}

// Recompute derives each item's available count from the movement log as
// total minus the units still held, clamped to [0, total], and reports every
// item whose cached value differs. With repair set the cached values are
// rewritten inside the same transaction as the reads.
func (s *service) Recompute(ctx context.Context, repair bool) (*DriftReport, error) {
	report := &DriftReport{Drifted: []Drift{}}

	err := s.atomically(ctx, func(repo Repository, ledgerSvc ledger.Service) error {
		items, err := repo.List(ctx)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list inventory")
		}
		outstanding, err := ledgerSvc.OutstandingByItem(ctx)
		if err != nil {
			return err
		}

		report.Checked = len(items)
		for _, item := range items {
			out := outstanding[item.Name]
			expected := item.TotalQuantity - out
			overCapacity := expected < 0
			if overCapacity {
				expected = 0
			}
			if expected == item.AvailableQuantity && !overCapacity {
				continue
			}

			drift := Drift{
				ItemID:       item.ID,
				ItemName:     item.Name,
				Total:        item.TotalQuantity,
				Available:    item.AvailableQuantity,
				Outstanding:  out,
				Expected:     expected,
				OverCapacity: overCapacity,
			}
			if repair && expected != item.AvailableQuantity {
				ok, err := repo.UpdateCounts(ctx, item.ID, item.TotalQuantity, expected, item.AvailableQuantity)
				if err != nil {
					return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "repair available quantity")
				}
				if !ok {
					return pkgerrors.New(pkgerrors.CodeConflict, "inventory item changed concurrently").
						WithDetails(map[string]any{"item": item.Name})
				}
				drift.Repaired = true
				report.Repaired++
			}
			report.Drifted = append(report.Drifted, drift)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	ctx = s.logg.WithFields(ctx, map[string]any{
		"checked":  report.Checked,
		"drifted":  len(report.Drifted),
		"repaired": report.Repaired,
		"repair":   repair,
	})
	if len(report.Drifted) > 0 {
		s.logg.Warn(ctx, "inventory.drift_detected")
	} else {
		s.logg.Info(ctx, "inventory.recompute_clean")
	}
	return report, nil
}
