package detection

import (
	"context"

	"github.com/labledger/labledger-backend/internal/custody"
	"github.com/labledger/labledger-backend/pkg/db/models"
	pkgerrors "github.com/labledger/labledger-backend/pkg/errors"
	"github.com/labledger/labledger-backend/pkg/logger"
)

type inventoryLister interface {
	List(ctx context.Context) ([]models.InventoryItem, error)
}

// SuggestInput carries one captured frame plus the form context it came from.
type SuggestInput struct {
	StudentID string
	Action    string
	Image     string
}

// Suggestion is a pre-filled transaction request built from a frame. It is
// never applied by this package.
type Suggestion struct {
	Classes []string        `json:"classes"`
	Items   []string        `json:"items"`
	Request custody.Request `json:"request"`
}

// Service turns frames into suggested transaction lines.
type Service interface {
	Suggest(ctx context.Context, input SuggestInput) (*Suggestion, error)
}

type service struct {
	detector  Detector
	mapper    *Mapper
	inventory inventoryLister
	logg      *logger.Logger
}

// NewService wires the detector adapter. A nil mapper uses the default table.
func NewService(detector Detector, mapper *Mapper, inventory inventoryLister, logg *logger.Logger) (Service, error) {
	if detector == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "detector required")
	}
	if inventory == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "inventory lister required")
	}
	if logg == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "logger required")
	}
	if mapper == nil {
		mapper = NewMapper(nil)
	}
	return &service{detector: detector, mapper: mapper, inventory: inventory, logg: logg}, nil
}

// Suggest runs detection and keeps only items currently in inventory, one
// unit per detected item.
func (s *service) Suggest(ctx context.Context, input SuggestInput) (*Suggestion, error) {
	image, err := DecodeFrame(input.Image)
	if err != nil {
		return nil, err
	}
	detections, err := s.detector.Detect(ctx, image)
	if err != nil {
		return nil, err
	}
	items, err := s.inventory.List(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list inventory")
	}
	stocked := make(map[string]struct{}, len(items))
	for _, item := range items {
		stocked[item.Name] = struct{}{}
	}

	classes := make([]string, 0, len(detections))
	for _, det := range detections {
		classes = append(classes, det.Class)
	}
	names := s.mapper.Map(classes, stocked)

	lines := make([]custody.Line, 0, len(names))
	for _, name := range names {
		lines = append(lines, custody.Line{ItemName: name, Quantity: 1})
	}

	logCtx := s.logg.WithFields(ctx, map[string]any{
		"detections": len(detections),
		"suggested":  len(names),
	})
	s.logg.Info(logCtx, "detection.suggested")

	return &Suggestion{
		Classes: classes,
		Items:   names,
		Request: custody.Request{StudentID: input.StudentID, Action: input.Action, Lines: lines},
	}, nil
}
