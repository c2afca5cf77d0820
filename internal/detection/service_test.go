package detection

import (
	"context"
	"encoding/base64"
	"errors"
	"io"
	"testing"

	"github.com/labledger/labledger-backend/internal/custody"
	"github.com/labledger/labledger-backend/pkg/db/models"
	pkgerrors "github.com/labledger/labledger-backend/pkg/errors"
	"github.com/labledger/labledger-backend/pkg/logger"
	"github.com/stretchr/testify/require"
)

type stubDetector struct {
	detections []Detection
	err        error
	got        []byte
}

func (s *stubDetector) Detect(_ context.Context, image []byte) ([]Detection, error) {
	s.got = image
	return s.detections, s.err
}

type stubInventory struct {
	items []models.InventoryItem
	err   error
}

func (s stubInventory) List(context.Context) ([]models.InventoryItem, error) {
	return s.items, s.err
}

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "detection-test", Output: io.Discard})
}

func TestSuggestBuildsRequestFromStockedItems(t *testing.T) {
	det := &stubDetector{detections: []Detection{
		{Class: "tripod", Confidence: 0.8},
		{Class: "beaker", Confidence: 0.9},
		{Class: "beaker", Confidence: 0.7},
		{Class: "compass", Confidence: 0.6},
	}}
	inv := stubInventory{items: []models.InventoryItem{{Name: "Beaker"}, {Name: "Tripod"}}}
	svc, err := NewService(det, nil, inv, testLogger())
	require.NoError(t, err)

	frame := "data:image/png;base64," + base64.StdEncoding.EncodeToString([]byte("png"))
	got, err := svc.Suggest(context.Background(), SuggestInput{StudentID: "S1", Action: "borrow", Image: frame})
	require.NoError(t, err)
	require.Equal(t, []byte("png"), det.got)
	require.Equal(t, []string{"Beaker", "Tripod"}, got.Items)
	require.Len(t, got.Classes, 4)
	require.Equal(t, custody.Request{
		StudentID: "S1",
		Action:    "borrow",
		Lines:     []custody.Line{{ItemName: "Beaker", Quantity: 1}, {ItemName: "Tripod", Quantity: 1}},
	}, got.Request)
}

func TestSuggestErrors(t *testing.T) {
	ctx := context.Background()
	frame := base64.StdEncoding.EncodeToString([]byte("img"))

	svc, err := NewService(&stubDetector{}, nil, stubInventory{}, testLogger())
	require.NoError(t, err)
	_, err = svc.Suggest(ctx, SuggestInput{Image: ""})
	require.Equal(t, pkgerrors.CodeValidation, pkgerrors.CodeOf(err))

	svc, err = NewService(DisabledDetector{}, nil, stubInventory{}, testLogger())
	require.NoError(t, err)
	_, err = svc.Suggest(ctx, SuggestInput{Image: frame})
	require.Equal(t, pkgerrors.CodeDependency, pkgerrors.CodeOf(err))

	svc, err = NewService(&stubDetector{}, nil, stubInventory{err: errors.New("db down")}, testLogger())
	require.NoError(t, err)
	_, err = svc.Suggest(ctx, SuggestInput{Image: frame})
	require.Equal(t, pkgerrors.CodeDependency, pkgerrors.CodeOf(err))
}

func TestNewServiceRequiresDependencies(t *testing.T) {
	_, err := NewService(nil, nil, stubInventory{}, testLogger())
	require.Error(t, err)
	_, err = NewService(&stubDetector{}, nil, nil, testLogger())
	require.Error(t, err)
	_, err = NewService(&stubDetector{}, nil, stubInventory{}, nil)
	require.Error(t, err)
}
