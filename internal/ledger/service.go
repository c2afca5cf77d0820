package ledger

import (
	"context"
	"iter"
	"strings"
	"time"

	"github.com/labledger/labledger-backend/pkg/db/models"
	"github.com/labledger/labledger-backend/pkg/enums"
	pkgerrors "github.com/labledger/labledger-backend/pkg/errors"
	"gorm.io/gorm"
)

// Service is the movement log: an append-only record of borrow/return events
// and the source of truth for who holds what.
type Service interface {
	WithTx(tx *gorm.DB) Service
	Append(ctx context.Context, input AppendInput) (*models.MovementRecord, error)
	Query(ctx context.Context, filter Filter, sort enums.AuditSort) iter.Seq2[models.MovementRecord, error]
	List(ctx context.Context, filter Filter, sort enums.AuditSort) ([]models.MovementRecord, error)
	NetHolding(ctx context.Context, studentID, itemName string) (int, error)
	PendingByStudent(ctx context.Context, studentID string) ([]Holding, error)
	DistinctItemNames(ctx context.Context) ([]string, error)
	RenameStudent(ctx context.Context, oldID, newID string) (int64, error)
	OutstandingByItem(ctx context.Context) (map[string]int, error)
}

// AppendInput captures the immutable data of one movement.
type AppendInput struct {
	StudentID string
	ItemName  string
	Action    enums.MovementAction
	Quantity  int
}

type service struct {
	repo Repository
	now  func() time.Time
}

// Option customises the service.
type Option func(*service)

// WithClock overrides the timestamp source used by Append.
func WithClock(now func() time.Time) Option {
	return func(s *service) {
		if now != nil {
			s.now = now
		}
	}
}

// NewService wires a movement log service with the provided repository.
func NewService(repo Repository, opts ...Option) (Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "ledger repository required")
	}
	s := &service{repo: repo, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

func (s *service) WithTx(tx *gorm.DB) Service {
	if tx == nil {
		return s
	}
	return &service{repo: s.repo.WithTx(tx), now: s.now}
}

func (s *service) Append(ctx context.Context, input AppendInput) (*models.MovementRecord, error) {
	studentID := strings.TrimSpace(input.StudentID)
	itemName := strings.TrimSpace(input.ItemName)
	if studentID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "student id is required")
	}
	if itemName == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "item name is required")
	}
	if !input.Action.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid movement action")
	}
	if input.Quantity <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
	}

	record := &models.MovementRecord{
		StudentID:  studentID,
		ItemName:   itemName,
		Action:     input.Action,
		Quantity:   input.Quantity,
		RecordedAt: s.now().UTC(),
	}
	if err := s.repo.Create(ctx, record); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "append movement record")
	}
	return record, nil
}

func (s *service) Query(ctx context.Context, filter Filter, sort enums.AuditSort) iter.Seq2[models.MovementRecord, error] {
	if !sort.OrDefault().IsValid() {
		return func(yield func(models.MovementRecord, error) bool) {
			yield(models.MovementRecord{}, pkgerrors.New(pkgerrors.CodeValidation, "invalid sort"))
		}
	}
	if filter.Action != "" && !filter.Action.IsValid() {
		return func(yield func(models.MovementRecord, error) bool) {
			yield(models.MovementRecord{}, pkgerrors.New(pkgerrors.CodeValidation, "invalid movement action"))
		}
	}

	seq := s.repo.Query(ctx, filter, sort)
	return func(yield func(models.MovementRecord, error) bool) {
		for record, err := range seq {
			if err != nil {
				if pkgerrors.As(err) == nil {
					err = pkgerrors.Wrap(pkgerrors.CodeDependency, err, "query movement log")
				}
				yield(models.MovementRecord{}, err)
				return
			}
			if !yield(record, nil) {
				return
			}
		}
	}
}

func (s *service) List(ctx context.Context, filter Filter, sort enums.AuditSort) ([]models.MovementRecord, error) {
	records := []models.MovementRecord{}
	for record, err := range s.Query(ctx, filter, sort) {
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	return records, nil
}

func (s *service) NetHolding(ctx context.Context, studentID, itemName string) (int, error) {
	net, err := s.repo.NetHolding(ctx, strings.TrimSpace(studentID), strings.TrimSpace(itemName))
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "compute net holding")
	}
	return net, nil
}

func (s *service) PendingByStudent(ctx context.Context, studentID string) ([]Holding, error) {
	holdings, err := s.repo.PendingByStudent(ctx, strings.TrimSpace(studentID))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list pending items")
	}
	if holdings == nil {
		holdings = []Holding{}
	}
	return holdings, nil
}

func (s *service) DistinctItemNames(ctx context.Context) ([]string, error) {
	names, err := s.repo.DistinctItemNames(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list logged item names")
	}
	if names == nil {
		names = []string{}
	}
	return names, nil
}

// RenameStudent rewrites the student reference on every record of oldID. It
// is the only mutation of existing records and belongs to the student edit
// transaction.
func (s *service) RenameStudent(ctx context.Context, oldID, newID string) (int64, error) {
	oldID = strings.TrimSpace(oldID)
	newID = strings.TrimSpace(newID)
	if oldID == "" || newID == "" {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "student ids are required")
	}
	if oldID == newID {
		return 0, nil
	}
	n, err := s.repo.RenameStudent(ctx, oldID, newID)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "rename student references")
	}
	return n, nil
}

func (s *service) OutstandingByItem(ctx context.Context) (map[string]int, error) {
	out, err := s.repo.OutstandingByItem(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "sum outstanding holdings")
	}
	return out, nil
}
