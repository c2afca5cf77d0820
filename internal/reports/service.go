package reports

import (
	"context"
	"iter"
	"strings"

	"github.com/labledger/labledger-backend/internal/ledger"
	"github.com/labledger/labledger-backend/internal/students"
	"github.com/labledger/labledger-backend/pkg/enums"
	pkgerrors "github.com/labledger/labledger-backend/pkg/errors"
	"github.com/labledger/labledger-backend/pkg/pagination"
)

// Service derives read-only views from the movement log and the student
// directory. It holds no state of its own.
type Service interface {
	PendingForStudent(ctx context.Context, studentID string) ([]StudentPending, error)
	PendingForAll(ctx context.Context) ([]StudentPending, error)
	AuditLog(ctx context.Context, q AuditQuery) (*AuditResult, error)
	AuditRows(ctx context.Context, q AuditQuery) iter.Seq2[AuditRow, error]
	History(ctx context.Context) ([]AuditRow, error)
	HistoryPage(ctx context.Context, params pagination.Params) (*HistoryPage, error)
	StudentRecords(ctx context.Context, studentID string) (*StudentRecords, error)
	RegisteredStudentsWithStats(ctx context.Context) (*RegisteredStudents, error)
}

type service struct {
	repo     Repository
	ledger   ledger.Service
	students students.Service
}

// NewService wires the reports service.
func NewService(repo Repository, ledgerSvc ledger.Service, studentSvc students.Service) (Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "reports repository required")
	}
	if ledgerSvc == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "ledger service required")
	}
	if studentSvc == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "student service required")
	}
	return &service{repo: repo, ledger: ledgerSvc, students: studentSvc}, nil
}

// PendingForStudent returns at most one entry: the student's positive
// holdings. A student holding nothing yields an empty result.
func (s *service) PendingForStudent(ctx context.Context, studentID string) ([]StudentPending, error) {
	student, err := s.students.Get(ctx, studentID)
	if err != nil {
		return nil, err
	}
	holdings, err := s.ledger.PendingByStudent(ctx, student.StudentID)
	if err != nil {
		return nil, err
	}
	if len(holdings) == 0 {
		return []StudentPending{}, nil
	}

	entry := StudentPending{
		StudentID:   student.StudentID,
		StudentName: student.Name,
		Course:      student.Course,
		YearLevel:   student.YearLevel,
		Items:       holdings,
	}
	for _, h := range holdings {
		entry.TotalPending += h.Quantity
	}
	return []StudentPending{entry}, nil
}

// PendingForAll returns every registered student with a positive holding,
// ordered by student id.
func (s *service) PendingForAll(ctx context.Context) ([]StudentPending, error) {
	rows, err := s.repo.Pending(ctx, "")
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list pending items")
	}

	out := []StudentPending{}
	for _, row := range rows {
		if len(out) == 0 || out[len(out)-1].StudentID != row.StudentID {
			out = append(out, StudentPending{
				StudentID:   row.StudentID,
				StudentName: row.StudentName,
				Course:      row.Course,
				YearLevel:   row.YearLevel,
				Items:       []ledger.Holding{},
			})
		}
		last := &out[len(out)-1]
		last.Items = append(last.Items, ledger.Holding{ItemName: row.ItemName, Quantity: row.Quantity})
		last.TotalPending += row.Quantity
	}
	return out, nil
}

func (s *service) AuditRows(ctx context.Context, q AuditQuery) iter.Seq2[AuditRow, error] {
	q, err := normalizeQuery(q)
	if err != nil {
		return func(yield func(AuditRow, error) bool) {
			yield(AuditRow{}, err)
		}
	}
	seq := s.repo.Audit(ctx, q)
	return func(yield func(AuditRow, error) bool) {
		for row, err := range seq {
			if err != nil {
				yield(AuditRow{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "query audit log"))
				return
			}
			if !yield(row, nil) {
				return
			}
		}
	}
}

func (s *service) AuditLog(ctx context.Context, q AuditQuery) (*AuditResult, error) {
	q, err := normalizeQuery(q)
	if err != nil {
		return nil, err
	}

	rows, err := collect(s.AuditRows(ctx, q))
	if err != nil {
		return nil, err
	}

	ids, err := s.repo.StudentIDs(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list student ids")
	}
	if ids == nil {
		ids = []string{}
	}
	names, err := s.ledger.DistinctItemNames(ctx)
	if err != nil {
		return nil, err
	}

	return &AuditResult{
		Rows:    rows,
		Query:   q,
		Options: FilterOptions{StudentIDs: ids, ItemNames: names},
	}, nil
}

func (s *service) History(ctx context.Context) ([]AuditRow, error) {
	return collect(s.AuditRows(ctx, AuditQuery{Sort: enums.AuditSortTimestampDesc}))
}

// HistoryPage walks the movement log newest first in pages of
// params.Limit rows, following insertion order.
func (s *service) HistoryPage(ctx context.Context, params pagination.Params) (*HistoryPage, error) {
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor").
			WithDetails(map[string]string{"cursor": "is not a valid page cursor"})
	}
	var beforeID int64
	if cursor != nil {
		beforeID = cursor.BeforeID
	}

	rows, err := s.repo.AuditPage(ctx, beforeID, pagination.LimitWithBuffer(params.Limit))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "page movement log")
	}
	if rows == nil {
		rows = []AuditRow{}
	}
	rows, next := pagination.Trim(rows, params.Limit, func(row AuditRow) int64 { return row.ID })
	return &HistoryPage{Rows: rows, NextCursor: next}, nil
}

func (s *service) StudentRecords(ctx context.Context, studentID string) (*StudentRecords, error) {
	student, err := s.students.Get(ctx, studentID)
	if err != nil {
		return nil, err
	}
	rows, err := collect(s.AuditRows(ctx, AuditQuery{StudentID: student.StudentID, Sort: enums.AuditSortTimestampDesc}))
	if err != nil {
		return nil, err
	}
	return &StudentRecords{StudentID: student.StudentID, StudentName: student.Name, Records: rows}, nil
}

func (s *service) RegisteredStudentsWithStats(ctx context.Context) (*RegisteredStudents, error) {
	stats, err := s.repo.StudentStats(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "aggregate student stats")
	}
	if stats == nil {
		stats = []StudentStats{}
	}
	total, err := s.repo.CountStudents(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count students")
	}
	return &RegisteredStudents{Students: stats, TotalStudents: int(total)}, nil
}

func normalizeQuery(q AuditQuery) (AuditQuery, error) {
	q.StudentID = strings.TrimSpace(q.StudentID)
	q.ItemNameContains = strings.TrimSpace(q.ItemNameContains)
	q.Sort = q.Sort.OrDefault()
	if !q.Sort.IsValid() {
		return q, pkgerrors.New(pkgerrors.CodeValidation, "invalid sort").
			WithDetails(map[string]string{"sort": "must be timestamp_desc, timestamp_asc, student_id or action"})
	}
	if q.Action != "" && !q.Action.IsValid() {
		return q, pkgerrors.New(pkgerrors.CodeValidation, "invalid action").
			WithDetails(map[string]string{"action": "must be borrow or return"})
	}
	return q, nil
}

func collect(seq iter.Seq2[AuditRow, error]) ([]AuditRow, error) {
	rows := []AuditRow{}
	for row, err := range seq {
		if err != nil {
			return nil, err
		}
		rows = append(rows, row)
	}
	return rows, nil
}
