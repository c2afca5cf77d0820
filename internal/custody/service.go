package custody

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/labledger/labledger-backend/internal/inventory"
	"github.com/labledger/labledger-backend/internal/ledger"
	"github.com/labledger/labledger-backend/internal/students"
	"github.com/labledger/labledger-backend/pkg/db"
	"github.com/labledger/labledger-backend/pkg/enums"
	pkgerrors "github.com/labledger/labledger-backend/pkg/errors"
	"github.com/labledger/labledger-backend/pkg/logger"
	"gorm.io/gorm"
)

// Service applies borrow/return transactions against the inventory store and
// the movement log as one all-or-nothing unit.
type Service interface {
	ApplyTransaction(ctx context.Context, req Request) (*Summary, error)
}

// Metrics receives transaction outcomes.
type Metrics interface {
	ObserveCommitted(action string, units int)
	ObserveRejected(action, code string)
}

type service struct {
	tx        db.TxRunner
	students  students.Service
	inventory inventory.Service
	ledger    ledger.Service
	metrics   Metrics
	logg      *logger.Logger

	// writers within one process queue here; the database transaction
	// serializes across processes.
	mu sync.Mutex
}

// NewService wires the custody engine. metrics may be nil.
func NewService(tx db.TxRunner, studentSvc students.Service, inventorySvc inventory.Service, ledgerSvc ledger.Service, metrics Metrics, logg *logger.Logger) (Service, error) {
	if tx == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "transaction runner required")
	}
	if studentSvc == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "student service required")
	}
	if inventorySvc == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "inventory service required")
	}
	if ledgerSvc == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "ledger service required")
	}
	if logg == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "logger required")
	}
	if metrics == nil {
		metrics = noopMetrics{}
	}
	return &service{
		tx:        tx,
		students:  studentSvc,
		inventory: inventorySvc,
		ledger:    ledgerSvc,
		metrics:   metrics,
		logg:      logg,
	}, nil
}

// ApplyTransaction validates the request, confirms the student and every item
// exist, then applies the lines in order. The first failing line aborts the
// whole transaction and nothing it wrote survives.
func (s *service) ApplyTransaction(ctx context.Context, req Request) (*Summary, error) {
	action, lines, err := normalizeRequest(&req)
	if err != nil {
		s.reject(ctx, req, string(action), err)
		return nil, err
	}

	ctx = s.logg.WithStudentID(ctx, req.StudentID)

	s.mu.Lock()
	defer s.mu.Unlock()

	var summary *Summary
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		var err error
		summary, err = s.apply(ctx, tx, req.StudentID, action, lines)
		return err
	})
	if err != nil {
		if pkgerrors.As(err) == nil {
			err = pkgerrors.Wrap(pkgerrors.CodeDependency, err, "apply transaction")
		}
		s.reject(ctx, req, string(action), err)
		return nil, err
	}

	s.metrics.ObserveCommitted(string(action), summary.TotalUnits)
	ctx = s.logg.WithFields(ctx, map[string]any{
		"action":      action,
		"lines":       len(summary.Lines),
		"total_units": summary.TotalUnits,
	})
	s.logg.Info(ctx, "custody.transaction_committed")
	return summary, nil
}

func (s *service) apply(ctx context.Context, tx *gorm.DB, studentID string, action enums.MovementAction, lines []Line) (*Summary, error) {
	studentSvc := s.students.WithTx(tx)
	inventorySvc := s.inventory.WithTx(tx)
	ledgerSvc := s.ledger.WithTx(tx)

	student, err := studentSvc.Get(ctx, studentID)
	if err != nil {
		return nil, err
	}

	// existence pass: no line is applied unless every item is known
	for _, line := range lines {
		if _, err := inventorySvc.Get(ctx, line.ItemName); err != nil {
			return nil, err
		}
	}

	summary := &Summary{
		StudentID:   student.StudentID,
		StudentName: student.Name,
		Course:      student.Course,
		YearLevel:   student.YearLevel,
		Action:      action,
		Lines:       make([]SummaryLine, 0, len(lines)),
	}

	for _, line := range lines {
		delta := -line.Quantity
		if action == enums.MovementActionReturn {
			held, err := ledgerSvc.NetHolding(ctx, studentID, line.ItemName)
			if err != nil {
				return nil, err
			}
			if line.Quantity > held {
				return nil, pkgerrors.New(pkgerrors.CodeOverReturn, "return exceeds units held").
					WithDetails(map[string]any{
						"item":      line.ItemName,
						"held":      held,
						"requested": line.Quantity,
					})
			}
			delta = line.Quantity
		}

		item, err := inventorySvc.AdjustAvailable(ctx, line.ItemName, delta)
		if err != nil {
			return nil, err
		}

		record, err := ledgerSvc.Append(ctx, ledger.AppendInput{
			StudentID: studentID,
			ItemName:  line.ItemName,
			Action:    action,
			Quantity:  line.Quantity,
		})
		if err != nil {
			return nil, err
		}

		summary.Lines = append(summary.Lines, SummaryLine{
			RecordID:  record.ID,
			ItemName:  item.Name,
			Quantity:  line.Quantity,
			Available: item.AvailableQuantity,
			Total:     item.TotalQuantity,
		})
		summary.TotalUnits += line.Quantity
		summary.CommittedAt = record.RecordedAt
	}

	if summary.CommittedAt.IsZero() {
		summary.CommittedAt = time.Now().UTC()
	}
	return summary, nil
}

func (s *service) reject(ctx context.Context, req Request, action string, err error) {
	code := pkgerrors.CodeOf(err)
	s.metrics.ObserveRejected(action, string(code))

	ctx = s.logg.WithFields(ctx, map[string]any{
		"student_id": req.StudentID,
		"action":     action,
		"lines":      len(req.Lines),
		"code":       code,
	})
	if pkgerrors.IsBusinessRule(code) {
		ctx = s.logg.WithField(ctx, "reason", err.Error())
		s.logg.Info(ctx, "custody.transaction_rejected")
		return
	}
	s.logg.Error(ctx, "custody.transaction_failed", err)
}

// normalizeRequest trims identifiers, drops blank lines and checks the
// request shape. It does not touch storage.
func normalizeRequest(req *Request) (enums.MovementAction, []Line, error) {
	req.StudentID = strings.TrimSpace(req.StudentID)
	if req.StudentID == "" {
		return "", nil, pkgerrors.New(pkgerrors.CodeValidation, "student id is required").
			WithDetails(map[string]string{"student_id": "is required"})
	}

	action, err := enums.ParseMovementAction(req.Action)
	if err != nil {
		return "", nil, pkgerrors.New(pkgerrors.CodeValidation, "action must be borrow or return").
			WithDetails(map[string]string{"action": "must be borrow or return"})
	}

	lines := make([]Line, 0, len(req.Lines))
	for _, line := range req.Lines {
		name := strings.TrimSpace(line.ItemName)
		if name == "" {
			continue
		}
		lines = append(lines, Line{ItemName: name, Quantity: line.Quantity})
	}
	if len(lines) == 0 {
		return action, nil, pkgerrors.New(pkgerrors.CodeValidation, "at least one item is required").
			WithDetails(map[string]string{"lines": "is required"})
	}
	for i, line := range lines {
		if line.Quantity <= 0 {
			return action, nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive").
				WithDetails(map[string]any{"line": i, "item": line.ItemName, "quantity": line.Quantity})
		}
	}
	return action, lines, nil
}

type noopMetrics struct{}

func (noopMetrics) ObserveCommitted(string, int)   {}
func (noopMetrics) ObserveRejected(string, string) {}
