package controllers

import (
	"context"
	"net/http"

	"github.com/labledger/labledger-backend/api/responses"
	"github.com/labledger/labledger-backend/api/validators"
	"github.com/labledger/labledger-backend/internal/auth"
	pkgerrors "github.com/labledger/labledger-backend/pkg/errors"
	"github.com/labledger/labledger-backend/pkg/logger"
)

type adminAuthenticator interface {
	AdminLogin(ctx context.Context, req auth.LoginRequest) (*auth.LoginResponse, error)
}

// AdminLogin exchanges the lab-office credentials for a bearer token.
func AdminLogin(svc adminAuthenticator, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "auth service unavailable"))
			return
		}
		var body auth.LoginRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		resp, err := svc.AdminLogin(r.Context(), body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, resp)
	}
}
