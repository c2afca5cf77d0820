package controllers

import (
	"net/http"

	"github.com/labledger/labledger-backend/api/responses"
	"github.com/labledger/labledger-backend/api/validators"
	"github.com/labledger/labledger-backend/internal/detection"
	pkgerrors "github.com/labledger/labledger-backend/pkg/errors"
	"github.com/labledger/labledger-backend/pkg/logger"
)

// Frames arrive base64-encoded inside JSON.
const maxDetectBodyBytes = 8 << 20

type detectRequest struct {
	StudentID string `json:"student_id" validate:"max=64"`
	Action    string `json:"action" validate:"max=16"`
	Image     string `json:"image" validate:"required"`
}

// Detect turns a captured frame into a suggested transaction request. Nothing
// is applied; the client submits the suggestion through /transactions.
func Detect(svc detection.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "detection service unavailable"))
			return
		}
		r.Body = http.MaxBytesReader(w, r.Body, maxDetectBodyBytes)
		var body detectRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		suggestion, err := svc.Suggest(r.Context(), detection.SuggestInput{
			StudentID: body.StudentID,
			Action:    body.Action,
			Image:     body.Image,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, suggestion)
	}
}
