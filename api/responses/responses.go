package responses

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"

	pkgerrors "github.com/labledger/labledger-backend/pkg/errors"
	"github.com/labledger/labledger-backend/pkg/logger"
	"github.com/labledger/labledger-backend/pkg/types"
)

func WriteSuccess(w http.ResponseWriter, data any) {
	WriteSuccessStatus(w, http.StatusOK, data)
}

func WriteSuccessStatus(w http.ResponseWriter, status int, data any) {
	writeJSON(w, status, types.SuccessEnvelope{Data: data})
}

// WriteSuccessWithWarnings attaches non-fatal conditions, such as a clamped
// inventory edit, next to the payload.
func WriteSuccessWithWarnings(w http.ResponseWriter, status int, data any, warnings ...*pkgerrors.Error) {
	envelope := types.SuccessEnvelope{Data: data}
	for _, warning := range warnings {
		if warning == nil {
			continue
		}
		envelope.Warnings = append(envelope.Warnings, toAPIError(warning))
	}
	writeJSON(w, status, envelope)
}

// WriteError maps err onto its HTTP status and the public error envelope.
// Business-rule rejections log at info; faults log at error with the full
// dump of the chain.
func WriteError(ctx context.Context, logg *logger.Logger, w http.ResponseWriter, err error) {
	if err == nil {
		err = errors.New("unknown error")
	}

	typed := pkgerrors.As(err)
	if typed == nil {
		typed = pkgerrors.Wrap(pkgerrors.CodeInternal, err, "unexpected error")
	}

	meta := pkgerrors.MetadataFor(typed.Code())
	payload := types.ErrorEnvelope{Error: toAPIError(typed)}

	if logg != nil {
		ctx = logg.WithFields(ctx, pkgerrors.Dump(err).Fields())
		if pkgerrors.IsBusinessRule(typed.Code()) {
			logg.Info(ctx, "request.rejected")
		} else {
			logg.Error(ctx, "request.error", err)
		}
	}

	writeJSON(w, meta.HTTPStatus, payload)
}

func toAPIError(typed *pkgerrors.Error) types.APIError {
	meta := pkgerrors.MetadataFor(typed.Code())

	msg := meta.PublicMessage
	switch typed.Code() {
	case pkgerrors.CodeValidation,
		pkgerrors.CodeForbidden,
		pkgerrors.CodeUnauthorized,
		pkgerrors.CodeNotFound,
		pkgerrors.CodeConflict,
		pkgerrors.CodeInsufficientStock,
		pkgerrors.CodeOverReturn,
		pkgerrors.CodeInconsistency,
		pkgerrors.CodeRateLimit:
		if m := typed.Message(); m != "" {
			msg = m
		}
	}

	out := types.APIError{Code: string(typed.Code()), Message: msg}
	if meta.DetailsAllowed {
		if details := typed.Details(); details != nil {
			out.Details = details
		}
	}
	return out
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Printf(`{"level":"error","msg":"failed to encode response","err":"%v"}`, err)
	}
}
