package inventory

import (
	"context"
	"time"

	"github.com/labledger/labledger-backend/pkg/db"
	"github.com/labledger/labledger-backend/pkg/db/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Repository manages persistence for inventory rows.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	GetByName(ctx context.Context, name string) (*models.InventoryItem, error)
	GetByID(ctx context.Context, id int64) (*models.InventoryItem, error)
	List(ctx context.Context) ([]models.InventoryItem, error)
	Create(ctx context.Context, item *models.InventoryItem) error
	UpdateCounts(ctx context.Context, id int64, total, available, expectedAvailable int) (bool, error)
	Delete(ctx context.Context, id int64) (bool, error)
}

type repository struct {
	db   *gorm.DB
	inTx bool
}

// NewRepository returns an inventory repository bound to the provided database.
func NewRepository(conn *gorm.DB) Repository {
	return &repository{db: conn}
}

// WithTx binds the repository to tx. Reads through a tx-bound repository take
// row locks where the engine supports them.
func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx, inTx: true}
}

func (r *repository) scoped(ctx context.Context) *gorm.DB {
	q := r.db.WithContext(ctx)
	if r.inTx && db.ForUpdate(r.db) {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	return q
}

func (r *repository) GetByName(ctx context.Context, name string) (*models.InventoryItem, error) {
	var item models.InventoryItem
	if err := r.scoped(ctx).Where("name = ?", name).First(&item).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *repository) GetByID(ctx context.Context, id int64) (*models.InventoryItem, error) {
	var item models.InventoryItem
	if err := r.scoped(ctx).Where("id = ?", id).First(&item).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *repository) List(ctx context.Context) ([]models.InventoryItem, error) {
	var items []models.InventoryItem
	if err := r.scoped(ctx).Order("name ASC").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repository) Create(ctx context.Context, item *models.InventoryItem) error {
	return r.db.WithContext(ctx).Create(item).Error
}

// UpdateCounts writes both counters only if available still equals
// expectedAvailable, reporting whether the row was updated.
func (r *repository) UpdateCounts(ctx context.Context, id int64, total, available, expectedAvailable int) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.InventoryItem{}).
		Where("id = ? AND available_quantity = ?", id, expectedAvailable).
		Updates(map[string]any{
			"total_quantity":     total,
			"available_quantity": available,
			"updated_at":         time.Now().UTC(),
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *repository) Delete(ctx context.Context, id int64) (bool, error) {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.InventoryItem{})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
