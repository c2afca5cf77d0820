package controllers

import (
	"context"
	"net/http"

	"github.com/labledger/labledger-backend/api/responses"
	"github.com/labledger/labledger-backend/api/validators"
	"github.com/labledger/labledger-backend/internal/students"
	"github.com/labledger/labledger-backend/pkg/db/models"
	pkgerrors "github.com/labledger/labledger-backend/pkg/errors"
	"github.com/labledger/labledger-backend/pkg/logger"
)

type studentDirectory interface {
	Register(ctx context.Context, input students.Input) (*models.Student, error)
	Get(ctx context.Context, studentID string) (*models.Student, error)
	Update(ctx context.Context, oldID string, input students.Input) (*models.Student, error)
}

// RegisterStudent adds a student to the directory.
func RegisterStudent(svc studentDirectory, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "student service unavailable"))
			return
		}
		var body students.Input
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		student, err := svc.Register(r.Context(), body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, student)
	}
}

// GetStudent returns one student's directory entry.
func GetStudent(svc studentDirectory, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "student service unavailable"))
			return
		}
		studentID, err := validators.PathString(r, "studentId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		student, err := svc.Get(r.Context(), studentID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, student)
	}
}

// UpdateStudent edits a student. A changed student_id renames the student's
// movement history in the same transaction.
func UpdateStudent(svc studentDirectory, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "student service unavailable"))
			return
		}
		oldID, err := validators.PathString(r, "studentId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var body students.Input
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		student, err := svc.Update(r.Context(), oldID, body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, student)
	}
}
