package reports

import (
	"context"
	"iter"

	"github.com/labledger/labledger-backend/internal/ledger"
	"github.com/labledger/labledger-backend/pkg/db/models"
	"gorm.io/gorm"
)

const holdingExpr = "SUM(CASE WHEN movement_records.action = 'borrow' THEN movement_records.quantity ELSE -movement_records.quantity END)"

// PendingRow is one (student, item) pair with a positive net holding.
type PendingRow struct {
	StudentID   string  `gorm:"column:student_id"`
	StudentName string  `gorm:"column:student_name"`
	Course      *string `gorm:"column:course"`
	YearLevel   *int    `gorm:"column:year_level"`
	ItemName    string  `gorm:"column:item_name"`
	Quantity    int     `gorm:"column:quantity"`
}

// Repository runs the read-only joins behind the reports.
type Repository interface {
	Pending(ctx context.Context, studentID string) ([]PendingRow, error)
	Audit(ctx context.Context, q AuditQuery) iter.Seq2[AuditRow, error]
	AuditPage(ctx context.Context, beforeID int64, limit int) ([]AuditRow, error)
	StudentIDs(ctx context.Context) ([]string, error)
	StudentStats(ctx context.Context) ([]StudentStats, error)
	CountStudents(ctx context.Context) (int64, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a reports repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

// Pending returns positive holdings of registered students, ordered by
// student id then item name. An empty studentID selects every student.
func (r *repository) Pending(ctx context.Context, studentID string) ([]PendingRow, error) {
	q := r.db.WithContext(ctx).
		Model(&models.MovementRecord{}).
		Select("students.student_id, students.name AS student_name, students.course, students.year_level, movement_records.item_name, " + holdingExpr + " AS quantity").
		Joins("JOIN students ON students.student_id = movement_records.student_id")
	if studentID != "" {
		q = q.Where("movement_records.student_id = ?", studentID)
	}

	var rows []PendingRow
	err := q.Group("students.student_id, students.name, students.course, students.year_level, movement_records.item_name").
		Having(holdingExpr + " > 0").
		Order("students.student_id ASC").
		Order("movement_records.item_name ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

const auditColumns = "movement_records.id, movement_records.student_id, students.name AS student_name, movement_records.item_name, movement_records.action, movement_records.quantity, movement_records.recorded_at"

// AuditPage returns up to limit rows with id below beforeID, newest first.
// A zero beforeID starts from the latest record.
func (r *repository) AuditPage(ctx context.Context, beforeID int64, limit int) ([]AuditRow, error) {
	q := r.db.WithContext(ctx).
		Model(&models.MovementRecord{}).
		Select(auditColumns).
		Joins("LEFT JOIN students ON students.student_id = movement_records.student_id")
	if beforeID > 0 {
		q = q.Where("movement_records.id < ?", beforeID)
	}
	var rows []AuditRow
	if err := q.Order("movement_records.id DESC").Limit(limit).Scan(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// Audit streams movement records left-joined with student names.
func (r *repository) Audit(ctx context.Context, aq AuditQuery) iter.Seq2[AuditRow, error] {
	return func(yield func(AuditRow, error) bool) {
		conn := r.db.WithContext(ctx)
		rows, err := conn.Model(&models.MovementRecord{}).
			Select(auditColumns).
			Joins("LEFT JOIN students ON students.student_id = movement_records.student_id").
			Scopes(
				ledger.FilterScope(ledger.Filter{
					StudentID:        aq.StudentID,
					ItemNameContains: aq.ItemNameContains,
					Action:           aq.Action,
				}),
				ledger.SortScope(aq.Sort),
			).
			Rows()
		if err != nil {
			yield(AuditRow{}, err)
			return
		}
		defer rows.Close()

		for rows.Next() {
			var row AuditRow
			if err := conn.ScanRows(rows, &row); err != nil {
				yield(AuditRow{}, err)
				return
			}
			if !yield(row, nil) {
				return
			}
		}
		if err := rows.Err(); err != nil {
			yield(AuditRow{}, err)
		}
	}
}

func (r *repository) StudentIDs(ctx context.Context) ([]string, error) {
	var ids []string
	err := r.db.WithContext(ctx).
		Model(&models.Student{}).
		Order("student_id ASC").
		Pluck("student_id", &ids).Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}

func (r *repository) StudentStats(ctx context.Context) ([]StudentStats, error) {
	var stats []StudentStats
	err := r.db.WithContext(ctx).
		Model(&models.Student{}).
		Select(`students.student_id, students.name, students.course, students.year_level, students.category,
			COUNT(CASE WHEN movement_records.action = 'borrow' THEN 1 END) AS total_borrows,
			COUNT(CASE WHEN movement_records.action = 'return' THEN 1 END) AS total_returns,
			COALESCE(` + holdingExpr + `, 0) AS currently_holding`).
		Joins("LEFT JOIN movement_records ON movement_records.student_id = students.student_id").
		Group("students.student_id, students.name, students.course, students.year_level, students.category").
		Order("students.student_id ASC").
		Scan(&stats).Error
	if err != nil {
		return nil, err
	}
	return stats, nil
}

func (r *repository) CountStudents(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.WithContext(ctx).Model(&models.Student{}).Count(&n).Error; err != nil {
		return 0, err
	}
	return n, nil
}
