package controllers

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/labledger/labledger-backend/api/responses"
	"github.com/labledger/labledger-backend/api/validators"
	"github.com/labledger/labledger-backend/internal/reports"
	"github.com/labledger/labledger-backend/pkg/enums"
	pkgerrors "github.com/labledger/labledger-backend/pkg/errors"
	"github.com/labledger/labledger-backend/pkg/logger"
	"github.com/labledger/labledger-backend/pkg/pagination"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// StudentPending lists what one student still holds.
func StudentPending(svc reports.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "reports service unavailable"))
			return
		}
		studentID, err := validators.PathString(r, "studentId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		pending, err := svc.PendingForStudent(r.Context(), studentID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, pending)
	}
}

// AllPending lists every student with a positive net holding.
func AllPending(svc reports.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "reports service unavailable"))
			return
		}
		pending, err := svc.PendingForAll(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, pending)
	}
}

// AuditLog returns filtered movement rows with the filter options.
func AuditLog(svc reports.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "reports service unavailable"))
			return
		}
		query, err := parseAuditQuery(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		result, err := svc.AuditLog(r.Context(), query)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

// AuditExport streams the filtered audit log as an XLSX download. The
// workbook is built before any byte is sent so failures still map to JSON.
func AuditExport(svc reports.Service, logg *logger.Logger, now func() time.Time) http.HandlerFunc {
	if now == nil {
		now = time.Now
	}
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "reports service unavailable"))
			return
		}
		query, err := parseAuditQuery(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var buf bytes.Buffer
		rows, err := reports.ExportAuditXLSX(r.Context(), svc, query, &buf)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		filename := fmt.Sprintf("audit-%s.xlsx", now().UTC().Format("20060102-150405"))
		w.Header().Set("Content-Type", xlsxContentType)
		w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
		w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
		w.Header().Set("X-Audit-Rows", strconv.Itoa(rows))
		w.WriteHeader(http.StatusOK)
		_, _ = buf.WriteTo(w)
	}
}

// History returns the full movement log, newest first.
func History(svc reports.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "reports service unavailable"))
			return
		}
		rows, err := svc.History(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, rows)
	}
}

// HistoryPage returns one page of the movement log. Clients pass back
// next_cursor to continue.
func HistoryPage(svc reports.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "reports service unavailable"))
			return
		}
		limit, err := validators.QueryInt(r, "limit", 0)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		page, err := svc.HistoryPage(r.Context(), pagination.Params{
			Limit:  limit,
			Cursor: r.URL.Query().Get("cursor"),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, page)
	}
}

// StudentRecords returns one student's movement history.
func StudentRecords(svc reports.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "reports service unavailable"))
			return
		}
		studentID, err := validators.PathString(r, "studentId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		records, err := svc.StudentRecords(r.Context(), studentID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, records)
	}
}

// StudentRoster lists registered students with movement statistics.
func StudentRoster(svc reports.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "reports service unavailable"))
			return
		}
		roster, err := svc.RegisteredStudentsWithStats(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, roster)
	}
}

func parseAuditQuery(r *http.Request) (reports.AuditQuery, error) {
	query := reports.AuditQuery{
		StudentID:        validators.QueryString(r, "student_id"),
		ItemNameContains: validators.QueryString(r, "item"),
	}
	if raw := validators.QueryString(r, "action"); raw != "" {
		action, err := enums.ParseMovementAction(raw)
		if err != nil {
			return query, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid action").
				WithDetails(map[string]string{"action": "must be borrow or return"})
		}
		query.Action = action
	}
	sort, err := enums.ParseAuditSort(validators.QueryString(r, "sort"))
	if err != nil {
		return query, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid sort").
			WithDetails(map[string]string{"sort": "must be timestamp_desc, timestamp_asc, student_id or action"})
	}
	query.Sort = sort
	return query, nil
}
