package controllers

import (
	"context"
	"net/http"

	"github.com/labledger/labledger-backend/api/responses"
	"github.com/labledger/labledger-backend/api/validators"
	"github.com/labledger/labledger-backend/internal/inventory"
	"github.com/labledger/labledger-backend/pkg/db/models"
	pkgerrors "github.com/labledger/labledger-backend/pkg/errors"
	"github.com/labledger/labledger-backend/pkg/logger"
)

type inventoryStore interface {
	List(ctx context.Context) ([]models.InventoryItem, error)
	Add(ctx context.Context, name string, total int) (*models.InventoryItem, error)
	SetTotalByID(ctx context.Context, id int64, newTotal int) (*inventory.TotalChange, error)
	DeleteByID(ctx context.Context, id int64) error
	Recompute(ctx context.Context, repair bool) (*inventory.DriftReport, error)
}

type addItemRequest struct {
	Name          string `json:"name" validate:"required,max=200"`
	TotalQuantity *int   `json:"total_quantity" validate:"required,gte=0"`
}

type setTotalRequest struct {
	TotalQuantity *int `json:"total_quantity" validate:"required,gte=0"`
}

// ListInventory returns every item ordered by name.
func ListInventory(svc inventoryStore, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "inventory service unavailable"))
			return
		}
		items, err := svc.List(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, items)
	}
}

// AdminAddItem creates an item with available equal to total.
func AdminAddItem(svc inventoryStore, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "inventory service unavailable"))
			return
		}
		var body addItemRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		item, err := svc.Add(r.Context(), body.Name, *body.TotalQuantity)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, item)
	}
}

// AdminSetTotal changes an item's total. A clamp is reported as a warning
// next to the updated item.
func AdminSetTotal(svc inventoryStore, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "inventory service unavailable"))
			return
		}
		id, err := validators.PathInt64(r, "itemId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var body setTotalRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		change, err := svc.SetTotalByID(r.Context(), id, *body.TotalQuantity)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessWithWarnings(w, http.StatusOK, change, change.Warning)
	}
}

// AdminDeleteItem removes an item; its movement history is kept.
func AdminDeleteItem(svc inventoryStore, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "inventory service unavailable"))
			return
		}
		id, err := validators.PathInt64(r, "itemId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.DeleteByID(r.Context(), id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// AdminReconcile recomputes availability from the movement log. With
// ?repair=true drifted rows are rewritten.
func AdminReconcile(svc inventoryStore, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "inventory service unavailable"))
			return
		}
		repair, err := validators.QueryBool(r, "repair", false)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		report, err := svc.Recompute(r.Context(), repair)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, report)
	}
}
