package ledger

import (
	"context"
	"iter"
	"strings"

	"github.com/labledger/labledger-backend/pkg/db/models"
	"github.com/labledger/labledger-backend/pkg/enums"
	"gorm.io/gorm"
)

// netExpr sums a record set into a net holding: borrows add, returns subtract.
const netExpr = "COALESCE(SUM(CASE WHEN movement_records.action = 'borrow' THEN movement_records.quantity ELSE -movement_records.quantity END), 0)"

// Filter narrows movement log queries. Zero fields match everything.
type Filter struct {
	StudentID        string
	ItemName         string
	ItemNameContains string
	Action           enums.MovementAction
}

// Holding is a positive net holding of one item.
type Holding struct {
	ItemName string `gorm:"column:item_name" json:"item_name"`
	Quantity int    `gorm:"column:quantity" json:"quantity"`
}

// Repository manages persistence for movement records.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, record *models.MovementRecord) error
	Query(ctx context.Context, filter Filter, sort enums.AuditSort) iter.Seq2[models.MovementRecord, error]
	NetHolding(ctx context.Context, studentID, itemName string) (int, error)
	PendingByStudent(ctx context.Context, studentID string) ([]Holding, error)
	DistinctItemNames(ctx context.Context) ([]string, error)
	RenameStudent(ctx context.Context, oldID, newID string) (int64, error)
	OutstandingByItem(ctx context.Context) (map[string]int, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a movement log repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, record *models.MovementRecord) error {
	return r.db.WithContext(ctx).Create(record).Error
}

// Query streams matching records. Each range over the returned sequence runs
// the query again, so the sequence can be consumed more than once.
func (r *repository) Query(ctx context.Context, filter Filter, sort enums.AuditSort) iter.Seq2[models.MovementRecord, error] {
	return func(yield func(models.MovementRecord, error) bool) {
		conn := r.db.WithContext(ctx)
		rows, err := conn.Model(&models.MovementRecord{}).
			Scopes(FilterScope(filter), SortScope(sort)).
			Rows()
		if err != nil {
			yield(models.MovementRecord{}, err)
			return
		}
		defer rows.Close()

		for rows.Next() {
			var record models.MovementRecord
			if err := conn.ScanRows(rows, &record); err != nil {
				yield(models.MovementRecord{}, err)
				return
			}
			if !yield(record, nil) {
				return
			}
		}
		if err := rows.Err(); err != nil {
			yield(models.MovementRecord{}, err)
		}
	}
}

func (r *repository) NetHolding(ctx context.Context, studentID, itemName string) (int, error) {
	var net int64
	err := r.db.WithContext(ctx).
		Model(&models.MovementRecord{}).
		Select(netExpr).
		Where("student_id = ? AND item_name = ?", studentID, itemName).
		Scan(&net).Error
	if err != nil {
		return 0, err
	}
	return int(net), nil
}

func (r *repository) PendingByStudent(ctx context.Context, studentID string) ([]Holding, error) {
	var holdings []Holding
	err := r.db.WithContext(ctx).
		Model(&models.MovementRecord{}).
		Select("item_name, "+netExpr+" AS quantity").
		Where("student_id = ?", studentID).
		Group("item_name").
		Having(netExpr + " > 0").
		Order("item_name ASC").
		Scan(&holdings).Error
	if err != nil {
		return nil, err
	}
	return holdings, nil
}

func (r *repository) DistinctItemNames(ctx context.Context) ([]string, error) {
	var names []string
	err := r.db.WithContext(ctx).
		Model(&models.MovementRecord{}).
		Distinct("item_name").
		Order("item_name ASC").
		Pluck("item_name", &names).Error
	if err != nil {
		return nil, err
	}
	return names, nil
}

func (r *repository) RenameStudent(ctx context.Context, oldID, newID string) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&models.MovementRecord{}).
		Where("student_id = ?", oldID).
		Update("student_id", newID)
	return res.RowsAffected, res.Error
}

func (r *repository) OutstandingByItem(ctx context.Context) (map[string]int, error) {
	conn := r.db.WithContext(ctx)
	holdings := conn.Model(&models.MovementRecord{}).
		Select("item_name, " + netExpr + " AS quantity").
		Group("student_id, item_name").
		Having(netExpr + " > 0")

	var rows []Holding
	err := conn.Table("(?) AS holdings", holdings).
		Select("item_name, SUM(quantity) AS quantity").
		Group("item_name").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	out := make(map[string]int, len(rows))
	for _, row := range rows {
		out[row.ItemName] = row.Quantity
	}
	return out, nil
}

// FilterScope applies filter to a query over movement_records. Column names are
// table-qualified so the scope also works on joined queries.
func FilterScope(filter Filter) func(*gorm.DB) *gorm.DB {
	return func(q *gorm.DB) *gorm.DB {
		if id := strings.TrimSpace(filter.StudentID); id != "" {
			q = q.Where("movement_records.student_id = ?", id)
		}
		if name := strings.TrimSpace(filter.ItemName); name != "" {
			q = q.Where("movement_records.item_name = ?", name)
		}
		if sub := strings.TrimSpace(filter.ItemNameContains); sub != "" {
			// both sides go through the database's LOWER so folding matches
			q = q.Where(`LOWER(movement_records.item_name) LIKE LOWER(?) ESCAPE '\'`, "%"+escapeLike(sub)+"%")
		}
		if filter.Action != "" {
			q = q.Where("movement_records.action = ?", filter.Action)
		}
		return q
	}
}

// SortScope orders movement_records per sort. Timestamp ties break by id so
// the order is total.
func SortScope(sort enums.AuditSort) func(*gorm.DB) *gorm.DB {
	return func(q *gorm.DB) *gorm.DB {
		switch sort.OrDefault() {
		case enums.AuditSortTimestampAsc:
			return q.Order("movement_records.recorded_at ASC").Order("movement_records.id ASC")
		case enums.AuditSortStudentID:
			return q.Order("movement_records.student_id ASC").Order("movement_records.recorded_at DESC").Order("movement_records.id DESC")
		case enums.AuditSortAction:
			return q.Order("movement_records.action ASC").Order("movement_records.recorded_at DESC").Order("movement_records.id DESC")
		default:
			return q.Order("movement_records.recorded_at DESC").Order("movement_records.id DESC")
		}
	}
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
