package controllers

import (
	"context"
	"net/http"

	"github.com/labledger/labledger-backend/api/responses"
	"github.com/labledger/labledger-backend/api/validators"
	"github.com/labledger/labledger-backend/internal/custody"
	pkgerrors "github.com/labledger/labledger-backend/pkg/errors"
	"github.com/labledger/labledger-backend/pkg/logger"
)

type transactionApplier interface {
	ApplyTransaction(ctx context.Context, req custody.Request) (*custody.Summary, error)
}

// ApplyTransaction commits one borrow or return and answers with its summary.
func ApplyTransaction(svc transactionApplier, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "custody service unavailable"))
			return
		}

		// field rules live in the engine so a rejection names the first violated rule
		var body custody.Request
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		summary, err := svc.ApplyTransaction(r.Context(), body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, summary)
	}
}
