package students

import (
	"bytes"
	"context"
	"testing"

	"github.com/labledger/labledger-backend/internal/ledger"
	"github.com/labledger/labledger-backend/pkg/db/dbtest"
	"github.com/labledger/labledger-backend/pkg/enums"
	pkgerrors "github.com/labledger/labledger-backend/pkg/errors"
	"github.com/labledger/labledger-backend/pkg/logger"
	"github.com/stretchr/testify/require"
)

func newTestService(t *testing.T) (Service, ledger.Service) {
	t.Helper()
	client := dbtest.New(t)
	ledgerSvc, err := ledger.NewService(ledger.NewRepository(client.DB()))
	require.NoError(t, err)
	logg := logger.New(logger.Options{ServiceName: "students-test", Output: &bytes.Buffer{}})
	svc, err := NewService(NewRepository(client.DB()), ledgerSvc, client, logg)
	require.NoError(t, err)
	return svc, ledgerSvc
}

func ptr[T any](v T) *T { return &v }

func TestRegisterAndGet(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	created, err := svc.Register(ctx, Input{StudentID: " 2024-0001 ", Name: "Ana Reyes", Course: ptr("BS Chemistry"), YearLevel: ptr(2)})
	require.NoError(t, err)
	require.Equal(t, "2024-0001", created.StudentID)
	require.Equal(t, enums.StudentCategoryCollege, created.Category)

	got, err := svc.Get(ctx, "2024-0001")
	require.NoError(t, err)
	require.Equal(t, "Ana Reyes", got.Name)
	require.Equal(t, "BS Chemistry", *got.Course)
	require.Equal(t, 2, *got.YearLevel)

	ok, err := svc.Exists(ctx, "2024-0001")
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = svc.Exists(ctx, "missing")
	require.NoError(t, err)
	require.False(t, ok)

	_, err = svc.Get(ctx, "missing")
	require.Equal(t, pkgerrors.CodeNotFound, pkgerrors.CodeOf(err))

	_, err = svc.Register(ctx, Input{StudentID: "2024-0001", Name: "Someone Else"})
	require.Equal(t, pkgerrors.CodeConflict, pkgerrors.CodeOf(err))
}

func TestRegisterValidation(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	cases := map[string]Input{
		"missing id":          {Name: "Ana"},
		"missing name":        {StudentID: "S1", Name: "   "},
		"bad category":        {StudentID: "S1", Name: "Ana", Category: "grad"},
		"college level zero":  {StudentID: "S1", Name: "Ana", YearLevel: ptr(0)},
		"ibed grade too high": {StudentID: "S1", Name: "Ana", Category: "ibed", YearLevel: ptr(13)},
		"ibed grade too low":  {StudentID: "S1", Name: "Ana", Category: "IBED", YearLevel: ptr(0)},
	}
	for name, input := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := svc.Register(ctx, input)
			require.Equal(t, pkgerrors.CodeValidation, pkgerrors.CodeOf(err))
		})
	}

	created, err := svc.Register(ctx, Input{StudentID: "S2", Name: "Ben", Category: "ibed", YearLevel: ptr(12), Course: ptr("  ")})
	require.NoError(t, err)
	require.Equal(t, enums.StudentCategoryIBED, created.Category)
	require.Nil(t, created.Course)
}

func TestListOrdersByName(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	for _, in := range []Input{{StudentID: "S2", Name: "Carla"}, {StudentID: "S1", Name: "Ana"}, {StudentID: "S3", Name: "Ben"}} {
		_, err := svc.Register(ctx, in)
		require.NoError(t, err)
	}

	list, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 3)
	require.Equal(t, []string{"S1", "S3", "S2"}, []string{list[0].StudentID, list[1].StudentID, list[2].StudentID})
}

func TestUpdateRenamesHistory(t *testing.T) {
	svc, ledgerSvc := newTestService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, Input{StudentID: "S1", Name: "Ana"})
	require.NoError(t, err)
	_, err = svc.Register(ctx, Input{StudentID: "S2", Name: "Ben"})
	require.NoError(t, err)
	_, err = ledgerSvc.Append(ctx, ledger.AppendInput{StudentID: "S1", ItemName: "Beaker", Action: enums.MovementActionBorrow, Quantity: 2})
	require.NoError(t, err)

	_, err = svc.Update(ctx, "S1", Input{StudentID: "S2", Name: "Ana"})
	require.Equal(t, pkgerrors.CodeConflict, pkgerrors.CodeOf(err))

	_, err = svc.Update(ctx, "S9", Input{StudentID: "S9", Name: "Nobody"})
	require.Equal(t, pkgerrors.CodeNotFound, pkgerrors.CodeOf(err))

	updated, err := svc.Update(ctx, "S1", Input{StudentID: "S1-B", Name: "Ana Cruz", Course: ptr("BSED")})
	require.NoError(t, err)
	require.Equal(t, "S1-B", updated.StudentID)

	_, err = svc.Get(ctx, "S1")
	require.Equal(t, pkgerrors.CodeNotFound, pkgerrors.CodeOf(err))

	got, err := svc.Get(ctx, "S1-B")
	require.NoError(t, err)
	require.Equal(t, "Ana Cruz", got.Name)

	net, err := ledgerSvc.NetHolding(ctx, "S1-B", "Beaker")
	require.NoError(t, err)
	require.Equal(t, 2, net)
}

func TestUpdateKeepsIDWhenUnchanged(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, Input{StudentID: "S1", Name: "Ana", YearLevel: ptr(1)})
	require.NoError(t, err)

	updated, err := svc.Update(ctx, "S1", Input{StudentID: "S1", Name: "Ana R.", YearLevel: ptr(3)})
	require.NoError(t, err)
	require.Equal(t, 3, *updated.YearLevel)

	_, err = svc.Update(ctx, "S1", Input{StudentID: "S1", Name: ""})
	require.Equal(t, pkgerrors.CodeValidation, pkgerrors.CodeOf(err))
}
