package models

import (
	"time"

	"github.com/labledger/labledger-backend/pkg/enums"
)

// Student is a registered borrower. The ledger only relies on the id existing.
type Student struct {
	StudentID string                `gorm:"column:student_id;primaryKey" json:"student_id"`
	Name      string                `gorm:"column:name;not null" json:"name"`
	Course    *string               `gorm:"column:course" json:"course,omitempty"`
	YearLevel *int                  `gorm:"column:year_level" json:"year_level,omitempty"`
	Category  enums.StudentCategory `gorm:"column:category;not null;default:college" json:"category"`
	CreatedAt time.Time             `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time             `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

func (Student) TableName() string { return "students" }
