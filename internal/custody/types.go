package custody

import (
	"time"

	"github.com/labledger/labledger-backend/pkg/enums"
)

// Line is one (item, quantity) entry of a transaction request.
type Line struct {
	ItemName string `json:"item_name"`
	Quantity int    `json:"quantity"`
}

// Request is a borrow or return of one or more lines by one student. Action
// is parsed case-insensitively; lines with a blank item name are ignored.
type Request struct {
	StudentID string `json:"student_id"`
	Action    string `json:"action"`
	Lines     []Line `json:"lines"`
}

// SummaryLine reports one applied line and the item's counts after it.
type SummaryLine struct {
	RecordID  int64  `json:"record_id"`
	ItemName  string `json:"item_name"`
	Quantity  int    `json:"quantity"`
	Available int    `json:"available"`
	Total     int    `json:"total"`
}

// Summary is the presentation projection of a committed transaction. It is
// not persisted.
type Summary struct {
	StudentID   string               `json:"student_id"`
	StudentName string               `json:"student_name"`
	Course      *string              `json:"course,omitempty"`
	YearLevel   *int                 `json:"year_level,omitempty"`
	Action      enums.MovementAction `json:"action"`
	Lines       []SummaryLine        `json:"lines"`
	TotalUnits  int                  `json:"total_units"`
	CommittedAt time.Time            `json:"committed_at"`
}
