package models

import (
	"time"

	"github.com/labledger/labledger-backend/pkg/enums"
)

// MovementRecord is an immutable borrow/return entry. StudentID and ItemName are
// plain references: rows outlive deleted students and inventory items.
type MovementRecord struct {
	ID         int64                `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	StudentID  string               `gorm:"column:student_id;not null" json:"student_id"`
	ItemName   string               `gorm:"column:item_name;not null" json:"item_name"`
	Action     enums.MovementAction `gorm:"column:action;not null" json:"action"`
	Quantity   int                  `gorm:"column:quantity;not null" json:"quantity"`
	RecordedAt time.Time            `gorm:"column:recorded_at;not null" json:"recorded_at"`
}

func (MovementRecord) TableName() string { return "movement_records" }

// SignedQuantity is the record's contribution to the holder's net holding.
func (m MovementRecord) SignedQuantity() int {
	return m.Action.Sign() * m.Quantity
}
