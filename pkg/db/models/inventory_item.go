package models

import "time"

// InventoryItem tracks the administratively set capacity of an item and the
// cached count of units not currently checked out.
type InventoryItem struct {
	ID                int64     `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	Name              string    `gorm:"column:name;not null;uniqueIndex" json:"name"`
	TotalQuantity     int       `gorm:"column:total_quantity;not null;default:0" json:"total_quantity"`
	AvailableQuantity int       `gorm:"column:available_quantity;not null;default:0" json:"available_quantity"`
	CreatedAt         time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt         time.Time `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

func (InventoryItem) TableName() string { return "inventory_items" }

// CheckedOut returns how many units the cached counts say are out.
func (i InventoryItem) CheckedOut() int {
	return i.TotalQuantity - i.AvailableQuantity
}
