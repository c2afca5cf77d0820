package reports

import (
	"time"

	"github.com/labledger/labledger-backend/internal/ledger"
	"github.com/labledger/labledger-backend/pkg/enums"
)

// StudentPending lists the items one student still holds.
type StudentPending struct {
	StudentID    string           `json:"student_id"`
	StudentName  string           `json:"student_name"`
	Course       *string          `json:"course,omitempty"`
	YearLevel    *int             `json:"year_level,omitempty"`
	Items        []ledger.Holding `json:"items"`
	TotalPending int              `json:"total_pending"`
}

// AuditRow is a movement record joined with the holder's display name. The
// name is nil when the student id no longer resolves.
type AuditRow struct {
	ID          int64                `gorm:"column:id" json:"id"`
	StudentID   string               `gorm:"column:student_id" json:"student_id"`
	StudentName *string              `gorm:"column:student_name" json:"student_name"`
	ItemName    string               `gorm:"column:item_name" json:"item_name"`
	Action      enums.MovementAction `gorm:"column:action" json:"action"`
	Quantity    int                  `gorm:"column:quantity" json:"quantity"`
	RecordedAt  time.Time            `gorm:"column:recorded_at" json:"recorded_at"`
}

// AuditQuery filters and orders the audit log. Zero fields match everything.
type AuditQuery struct {
	StudentID        string               `json:"student_id,omitempty"`
	ItemNameContains string               `json:"item_name,omitempty"`
	Action           enums.MovementAction `json:"action,omitempty"`
	Sort             enums.AuditSort      `json:"sort"`
}

// FilterOptions are the values a client can offer as audit filters.
type FilterOptions struct {
	StudentIDs []string `json:"student_ids"`
	ItemNames  []string `json:"item_names"`
}

// AuditResult is one audit page: rows, the applied query and filter options.
type AuditResult struct {
	Rows    []AuditRow    `json:"rows"`
	Query   AuditQuery    `json:"query"`
	Options FilterOptions `json:"options"`
}

// HistoryPage is one page of the movement log. NextCursor is empty on the
// last page.
type HistoryPage struct {
	Rows       []AuditRow `json:"rows"`
	NextCursor string     `json:"next_cursor,omitempty"`
}

// StudentRecords is a student's full movement history, newest first.
type StudentRecords struct {
	StudentID   string     `json:"student_id"`
	StudentName string     `json:"student_name"`
	Records     []AuditRow `json:"records"`
}

// StudentStats aggregates one registered student's movements.
type StudentStats struct {
	StudentID        string                `gorm:"column:student_id" json:"student_id"`
	Name             string                `gorm:"column:name" json:"name"`
	Course           *string               `gorm:"column:course" json:"course,omitempty"`
	YearLevel        *int                  `gorm:"column:year_level" json:"year_level,omitempty"`
	Category         enums.StudentCategory `gorm:"column:category" json:"category"`
	TotalBorrows     int                   `gorm:"column:total_borrows" json:"total_borrows"`
	TotalReturns     int                   `gorm:"column:total_returns" json:"total_returns"`
	CurrentlyHolding int                   `gorm:"column:currently_holding" json:"currently_holding"`
}

// RegisteredStudents is the student roster with movement statistics.
type RegisteredStudents struct {
	Students      []StudentStats `json:"students"`
	TotalStudents int            `json:"total_students"`
}
