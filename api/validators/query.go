package validators

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	pkgerrors "github.com/labledger/labledger-backend/pkg/errors"
)

// maxQueryLen bounds free-text filters.
const maxQueryLen = 200

// QueryString returns a trimmed, length-bounded query parameter.
func QueryString(r *http.Request, key string) string {
	return SanitizeString(r.URL.Query().Get(key), maxQueryLen)
}

// QueryBool parses an optional boolean query parameter.
func QueryBool(r *http.Request, key string, defaultVal bool) (bool, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return defaultVal, nil
	}
	value, err := strconv.ParseBool(raw)
	if err != nil {
		return false, pkgerrors.New(pkgerrors.CodeValidation, "query parameter must be a boolean").WithDetails(map[string]any{"field": key})
	}
	return value, nil
}

// QueryInt parses an optional non-negative integer query parameter.
func QueryInt(r *http.Request, key string, defaultVal int) (int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return defaultVal, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value < 0 {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "query parameter must be a non-negative integer").WithDetails(map[string]any{"field": key})
	}
	return value, nil
}

// PathString returns a required, trimmed path parameter.
func PathString(r *http.Request, key string) (string, error) {
	value := strings.TrimSpace(chi.URLParam(r, key))
	if value == "" {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "path parameter is required").WithDetails(map[string]any{"field": key})
	}
	return value, nil
}

// PathInt64 parses a positive integer path parameter.
func PathInt64(r *http.Request, key string) (int64, error) {
	raw := strings.TrimSpace(chi.URLParam(r, key))
	value, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || value <= 0 {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "path parameter must be a positive integer").WithDetails(map[string]any{"field": key})
	}
	return value, nil
}
