package inventory

import (
	"context"
	"strings"

	"github.com/labledger/labledger-backend/internal/ledger"
	"github.com/labledger/labledger-backend/pkg/db"
	"github.com/labledger/labledger-backend/pkg/db/models"
	pkgerrors "github.com/labledger/labledger-backend/pkg/errors"
	"github.com/labledger/labledger-backend/pkg/logger"
	"gorm.io/gorm"
)

// Service is the inventory store: item capacity plus the cached count of
// units not checked out.
type Service interface {
	WithTx(tx *gorm.DB) Service
	Get(ctx context.Context, name string) (*models.InventoryItem, error)
	GetByID(ctx context.Context, id int64) (*models.InventoryItem, error)
	List(ctx context.Context) ([]models.InventoryItem, error)
	Add(ctx context.Context, name string, total int) (*models.InventoryItem, error)
	SetTotal(ctx context.Context, name string, newTotal int) (*TotalChange, error)
	SetTotalByID(ctx context.Context, id int64, newTotal int) (*TotalChange, error)
	Delete(ctx context.Context, name string) error
	DeleteByID(ctx context.Context, id int64) error
	AdjustAvailable(ctx context.Context, name string, delta int) (*models.InventoryItem, error)
	Recompute(ctx context.Context, repair bool) (*DriftReport, error)
}

// TotalChange describes an applied capacity edit. Warning is set when the
// recomputed availability had to be clamped.
type TotalChange struct {
	Item              models.InventoryItem `json:"item"`
	PreviousTotal     int                  `json:"previous_total"`
	PreviousAvailable int                  `json:"previous_available"`
	Warning           *pkgerrors.Error     `json:"-"`
}

type service struct {
	repo   Repository
	ledger ledger.Service
	tx     db.TxRunner
	bound  *gorm.DB
	logg   *logger.Logger
}

// NewService wires the inventory store. The ledger is read by Recompute.
func NewService(repo Repository, ledgerSvc ledger.Service, tx db.TxRunner, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "inventory repository required")
	}
	if ledgerSvc == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "ledger service required")
	}
	if tx == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "transaction runner required")
	}
	if logg == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "logger required")
	}
	return &service{repo: repo, ledger: ledgerSvc, tx: tx, logg: logg}, nil
}

func (s *service) WithTx(tx *gorm.DB) Service {
	if tx == nil {
		return s
	}
	return &service{
		repo:   s.repo.WithTx(tx),
		ledger: s.ledger.WithTx(tx),
		tx:     s.tx,
		bound:  tx,
		logg:   s.logg,
	}
}

// atomically runs fn in the bound transaction, or a new one.
func (s *service) atomically(ctx context.Context, fn func(repo Repository, ledgerSvc ledger.Service) error) error {
	if s.bound != nil {
		return fn(s.repo, s.ledger)
	}
	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		return fn(s.repo.WithTx(tx), s.ledger.WithTx(tx))
	})
}

func (s *service) Get(ctx context.Context, name string) (*models.InventoryItem, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "item name is required")
	}
	item, err := s.repo.GetByName(ctx, name)
	if err != nil {
		return nil, lookupError(err, name)
	}
	return item, nil
}

func (s *service) GetByID(ctx context.Context, id int64) (*models.InventoryItem, error) {
	if id <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "item id must be positive")
	}
	item, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, lookupError(err, id)
	}
	return item, nil
}

func (s *service) List(ctx context.Context) ([]models.InventoryItem, error) {
	items, err := s.repo.List(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list inventory")
	}
	if items == nil {
		items = []models.InventoryItem{}
	}
	return items, nil
}

func (s *service) Add(ctx context.Context, name string, total int) (*models.InventoryItem, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "item name is required")
	}
	if total < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "total quantity must not be negative")
	}

	item := &models.InventoryItem{Name: name, TotalQuantity: total, AvailableQuantity: total}
	if err := s.repo.Create(ctx, item); err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "item already exists").
				WithDetails(map[string]any{"item": name})
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create inventory item")
	}

	ctx = s.logg.WithFields(ctx, map[string]any{"item": name, "total": total})
	s.logg.Info(ctx, "inventory.item_added")
	return item, nil
}

func (s *service) SetTotal(ctx context.Context, name string, newTotal int) (*TotalChange, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "item name is required")
	}
	return s.setTotal(ctx, newTotal, func(repo Repository) (*models.InventoryItem, error) {
		item, err := repo.GetByName(ctx, name)
		if err != nil {
			return nil, lookupError(err, name)
		}
		return item, nil
	})
}

func (s *service) SetTotalByID(ctx context.Context, id int64, newTotal int) (*TotalChange, error) {
	if id <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "item id must be positive")
	}
	return s.setTotal(ctx, newTotal, func(repo Repository) (*models.InventoryItem, error) {
		item, err := repo.GetByID(ctx, id)
		if err != nil {
			return nil, lookupError(err, id)
		}
		return item, nil
	})
}

// setTotal moves available by the capacity delta so the checked-out count is
// preserved. If that would drive available below zero it is clamped to zero
// and the change carries an inconsistency warning.
func (s *service) setTotal(ctx context.Context, newTotal int, load func(Repository) (*models.InventoryItem, error)) (*TotalChange, error) {
	if newTotal < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "total quantity must not be negative")
	}

	var change *TotalChange
	err := s.atomically(ctx, func(repo Repository, _ ledger.Service) error {
		item, err := load(repo)
		if err != nil {
			return err
		}

		available := item.AvailableQuantity + (newTotal - item.TotalQuantity)
		var warning *pkgerrors.Error
		if available < 0 {
			warning = pkgerrors.New(pkgerrors.CodeInconsistency, "total is below the quantity checked out; available clamped to zero").
				WithDetails(map[string]any{
					"item":               item.Name,
					"requested_total":    newTotal,
					"checked_out":        item.CheckedOut(),
					"computed_available": available,
					"previous_total":     item.TotalQuantity,
					"previous_available": item.AvailableQuantity,
				})
			available = 0
		}

		ok, err := repo.UpdateCounts(ctx, item.ID, newTotal, available, item.AvailableQuantity)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update inventory total")
		}
		if !ok {
			return pkgerrors.New(pkgerrors.CodeConflict, "inventory item changed concurrently").
				WithDetails(map[string]any{"item": item.Name})
		}

		change = &TotalChange{
			PreviousTotal:     item.TotalQuantity,
			PreviousAvailable: item.AvailableQuantity,
			Warning:           warning,
		}
		item.TotalQuantity = newTotal
		item.AvailableQuantity = available
		change.Item = *item
		return nil
	})
	if err != nil {
		return nil, err
	}

	ctx = s.logg.WithFields(ctx, map[string]any{
		"item":               change.Item.Name,
		"previous_total":     change.PreviousTotal,
		"total":              change.Item.TotalQuantity,
		"previous_available": change.PreviousAvailable,
		"available":          change.Item.AvailableQuantity,
	})
	if change.Warning != nil {
		s.logg.Warn(ctx, "inventory.total_clamped")
	} else {
		s.logg.Info(ctx, "inventory.total_updated")
	}
	return change, nil
}

// Delete removes the inventory row only. Movement records for the item stay
// as history.
func (s *service) Delete(ctx context.Context, name string) error {
	item, err := s.Get(ctx, name)
	if err != nil {
		return err
	}
	return s.deleteItem(ctx, item)
}

func (s *service) DeleteByID(ctx context.Context, id int64) error {
	item, err := s.GetByID(ctx, id)
	if err != nil {
		return err
	}
	return s.deleteItem(ctx, item)
}

func (s *service) deleteItem(ctx context.Context, item *models.InventoryItem) error {
	ok, err := s.repo.Delete(ctx, item.ID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete inventory item")
	}
	if !ok {
		return pkgerrors.New(pkgerrors.CodeNotFound, "item not found").
			WithDetails(map[string]any{"item": item.Name})
	}
	ctx = s.logg.WithFields(ctx, map[string]any{"item": item.Name, "checked_out": item.CheckedOut()})
	s.logg.Info(ctx, "inventory.item_deleted")
	return nil
}

// AdjustAvailable moves the available count by delta. It never goes below
// zero; a return that would exceed capacity, possible only after a clamped
// total edit, is capped at the total.
func (s *service) AdjustAvailable(ctx context.Context, name string, delta int) (*models.InventoryItem, error) {
	var result *models.InventoryItem
	err := s.atomically(ctx, func(repo Repository, _ ledger.Service) error {
		item, err := repo.GetByName(ctx, strings.TrimSpace(name))
		if err != nil {
			return lookupError(err, name)
		}

		available := item.AvailableQuantity + delta
		if available < 0 {
			return pkgerrors.New(pkgerrors.CodeInsufficientStock, "not enough units available").
				WithDetails(map[string]any{
					"item":      item.Name,
					"available": item.AvailableQuantity,
					"requested": -delta,
				})
		}
		if available > item.TotalQuantity {
			ctx := s.logg.WithFields(ctx, map[string]any{
				"item":      item.Name,
				"total":     item.TotalQuantity,
				"available": item.AvailableQuantity,
				"delta":     delta,
			})
			s.logg.Warn(ctx, "inventory.available_capped_at_total")
			available = item.TotalQuantity
		}

		ok, err := repo.UpdateCounts(ctx, item.ID, item.TotalQuantity, available, item.AvailableQuantity)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "adjust available quantity")
		}
		if !ok {
			return pkgerrors.New(pkgerrors.CodeConflict, "inventory item changed concurrently").
				WithDetails(map[string]any{"item": item.Name})
		}
		item.AvailableQuantity = available
		result = item
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func lookupError(err error, key any) error {
	if db.IsNotFound(err) {
		return pkgerrors.New(pkgerrors.CodeNotFound, "item not found").
			WithDetails(map[string]any{"item": key})
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load inventory item")
}
