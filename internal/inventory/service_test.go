package inventory

import (
	"bytes"
	"context"
	"testing"

	"github.com/labledger/labledger-backend/internal/ledger"
	"github.com/labledger/labledger-backend/pkg/db"
	"github.com/labledger/labledger-backend/pkg/db/dbtest"
	"github.com/labledger/labledger-backend/pkg/db/models"
	"github.com/labledger/labledger-backend/pkg/enums"
	pkgerrors "github.com/labledger/labledger-backend/pkg/errors"
	"github.com/labledger/labledger-backend/pkg/logger"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	client *db.Client
	ledger ledger.Service
	svc    Service
	logs   *bytes.Buffer
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	client := dbtest.New(t)
	logs := &bytes.Buffer{}
	logg := logger.New(logger.Options{ServiceName: "inventory-test", Output: logs})

	ledgerSvc, err := ledger.NewService(ledger.NewRepository(client.DB()))
	require.NoError(t, err)
	svc, err := NewService(NewRepository(client.DB()), ledgerSvc, client, logg)
	require.NoError(t, err)
	return fixture{client: client, ledger: ledgerSvc, svc: svc, logs: logs}
}

func (f fixture) borrow(t *testing.T, student, item string, qty int) {
	t.Helper()
	_, err := f.ledger.Append(context.Background(), ledger.AppendInput{StudentID: student, ItemName: item, Action: enums.MovementActionBorrow, Quantity: qty})
	require.NoError(t, err)
}

func (f fixture) setAvailable(t *testing.T, name string, available int) {
	t.Helper()
	require.NoError(t, f.client.DB().Model(&models.InventoryItem{}).Where("name = ?", name).Update("available_quantity", available).Error)
}

func TestAddListAndGet(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	beaker, err := f.svc.Add(ctx, " Beaker ", 10)
	require.NoError(t, err)
	require.Equal(t, "Beaker", beaker.Name)
	require.Equal(t, 10, beaker.AvailableQuantity)
	require.NotZero(t, beaker.ID)

	_, err = f.svc.Add(ctx, "Funnel", 2)
	require.NoError(t, err)

	_, err = f.svc.Add(ctx, "Beaker", 4)
	require.Equal(t, pkgerrors.CodeConflict, pkgerrors.CodeOf(err))

	_, err = f.svc.Add(ctx, "Tripod", -1)
	require.Equal(t, pkgerrors.CodeValidation, pkgerrors.CodeOf(err))

	_, err = f.svc.Add(ctx, "  ", 1)
	require.Equal(t, pkgerrors.CodeValidation, pkgerrors.CodeOf(err))

	items, err := f.svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, items, 2)
	require.Equal(t, "Beaker", items[0].Name)
	require.Equal(t, "Funnel", items[1].Name)

	got, err := f.svc.GetByID(ctx, beaker.ID)
	require.NoError(t, err)
	require.Equal(t, "Beaker", got.Name)

	_, err = f.svc.Get(ctx, "Compass")
	require.Equal(t, pkgerrors.CodeNotFound, pkgerrors.CodeOf(err))
}

func TestSetTotalPreservesCheckedOut(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Add(ctx, "Beaker", 10)
	require.NoError(t, err)
	f.setAvailable(t, "Beaker", 7)

	change, err := f.svc.SetTotal(ctx, "Beaker", 6)
	require.NoError(t, err)
	require.Nil(t, change.Warning)
	require.Equal(t, 10, change.PreviousTotal)
	require.Equal(t, 7, change.PreviousAvailable)
	require.Equal(t, 6, change.Item.TotalQuantity)
	require.Equal(t, 3, change.Item.AvailableQuantity)

	stored, err := f.svc.Get(ctx, "Beaker")
	require.NoError(t, err)
	require.Equal(t, 3, stored.AvailableQuantity)
	require.Equal(t, 3, stored.CheckedOut())

	change, err = f.svc.SetTotalByID(ctx, stored.ID, 12)
	require.NoError(t, err)
	require.Equal(t, 9, change.Item.AvailableQuantity)
}

func TestSetTotalClampsAndWarns(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Add(ctx, "Beaker", 10)
	require.NoError(t, err)
	f.setAvailable(t, "Beaker", 7)

	change, err := f.svc.SetTotal(ctx, "Beaker", 2)
	require.NoError(t, err)
	require.NotNil(t, change.Warning)
	require.Equal(t, pkgerrors.CodeInconsistency, change.Warning.Code())
	require.Equal(t, 2, change.Item.TotalQuantity)
	require.Zero(t, change.Item.AvailableQuantity)
	require.Contains(t, f.logs.String(), "inventory.total_clamped")

	_, err = f.svc.SetTotal(ctx, "Beaker", -1)
	require.Equal(t, pkgerrors.CodeValidation, pkgerrors.CodeOf(err))

	_, err = f.svc.SetTotal(ctx, "Compass", 3)
	require.Equal(t, pkgerrors.CodeNotFound, pkgerrors.CodeOf(err))
}

func TestAdjustAvailableBounds(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Add(ctx, "Funnel", 2)
	require.NoError(t, err)

	item, err := f.svc.AdjustAvailable(ctx, "Funnel", -2)
	require.NoError(t, err)
	require.Zero(t, item.AvailableQuantity)

	_, err = f.svc.AdjustAvailable(ctx, "Funnel", -1)
	require.Equal(t, pkgerrors.CodeInsufficientStock, pkgerrors.CodeOf(err))

	item, err = f.svc.AdjustAvailable(ctx, "Funnel", 5)
	require.NoError(t, err)
	require.Equal(t, 2, item.AvailableQuantity)
	require.Contains(t, f.logs.String(), "inventory.available_capped_at_total")
}

func TestDeleteLeavesHistory(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	tripod, err := f.svc.Add(ctx, "Tripod", 3)
	require.NoError(t, err)
	f.borrow(t, "S1", "Tripod", 1)

	require.NoError(t, f.svc.DeleteByID(ctx, tripod.ID))
	_, err = f.svc.Get(ctx, "Tripod")
	require.Equal(t, pkgerrors.CodeNotFound, pkgerrors.CodeOf(err))

	records, err := f.ledger.List(ctx, ledger.Filter{ItemName: "Tripod"}, "")
	require.NoError(t, err)
	require.Len(t, records, 1)

	err = f.svc.Delete(ctx, "Tripod")
	require.Equal(t, pkgerrors.CodeNotFound, pkgerrors.CodeOf(err))
}

func TestRecomputeReportsAndRepairsDrift(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Add(ctx, "Beaker", 10)
	require.NoError(t, err)
	_, err = f.svc.Add(ctx, "Funnel", 2)
	require.NoError(t, err)
	_, err = f.svc.Add(ctx, "Tripod", 1)
	require.NoError(t, err)

	f.borrow(t, "S1", "Beaker", 3)
	f.setAvailable(t, "Beaker", 9)
	f.borrow(t, "S2", "Funnel", 1)
	f.setAvailable(t, "Funnel", 1)
	f.borrow(t, "S1", "Tripod", 1)
	f.borrow(t, "S2", "Tripod", 1)
	f.setAvailable(t, "Tripod", 0)

	report, err := f.svc.Recompute(ctx, false)
	require.NoError(t, err)
	require.Equal(t, 3, report.Checked)
	require.Len(t, report.Drifted, 2)
	require.Zero(t, report.Repaired)

	byName := map[string]Drift{}
	for _, d := range report.Drifted {
		byName[d.ItemName] = d
	}
	require.Equal(t, 7, byName["Beaker"].Expected)
	require.Equal(t, 9, byName["Beaker"].Available)
	require.True(t, byName["Tripod"].OverCapacity)
	require.Equal(t, 2, byName["Tripod"].Outstanding)

	beaker, err := f.svc.Get(ctx, "Beaker")
	require.NoError(t, err)
	require.Equal(t, 9, beaker.AvailableQuantity, "report-only pass must not write")

	report, err = f.svc.Recompute(ctx, true)
	require.NoError(t, err)
	require.Equal(t, 1, report.Repaired)

	beaker, err = f.svc.Get(ctx, "Beaker")
	require.NoError(t, err)
	require.Equal(t, 7, beaker.AvailableQuantity)
}

func TestNewServiceRequiresDependencies(t *testing.T) {
	client := dbtest.New(t)
	ledgerSvc, err := ledger.NewService(ledger.NewRepository(client.DB()))
	require.NoError(t, err)
	logg := logger.New(logger.Options{Output: &bytes.Buffer{}})

	_, err = NewService(nil, ledgerSvc, client, logg)
	require.Error(t, err)
	_, err = NewService(NewRepository(client.DB()), nil, client, logg)
	require.Error(t, err)
	_, err = NewService(NewRepository(client.DB()), ledgerSvc, nil, logg)
	require.Error(t, err)
	_, err = NewService(NewRepository(client.DB()), ledgerSvc, client, nil)
	require.Error(t, err)
}
