package validators

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	pkgerrors "github.com/labledger/labledger-backend/pkg/errors"
	"github.com/stretchr/testify/require"
)

type sampleBody struct {
	StudentID string `json:"student_id" validate:"required"`
	Quantity  int    `json:"quantity" validate:"gt=0"`
}

func TestDecodeJSONBody(t *testing.T) {
	var body sampleBody
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"student_id":"S1","quantity":2}`))
	require.NoError(t, DecodeJSONBody(req, &body))
	require.Equal(t, sampleBody{StudentID: "S1", Quantity: 2}, body)

	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"student_id":"","quantity":0}`))
	err := DecodeJSONBody(req, &sampleBody{})
	require.Equal(t, pkgerrors.CodeValidation, pkgerrors.CodeOf(err))
	require.Equal(t, map[string]string{
		"student_id": "is required",
		"quantity":   "must be greater than 0",
	}, pkgerrors.As(err).Details())

	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"student_id":"S1","quantity":1,"extra":true}`))
	err = DecodeJSONBody(req, &sampleBody{})
	require.Equal(t, pkgerrors.CodeValidation, pkgerrors.CodeOf(err))
}

func TestQueryHelpers(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/?q=%20beak%20&repair=true&bad=maybe", nil)
	require.Equal(t, "beak", QueryString(req, "q"))

	repair, err := QueryBool(req, "repair", false)
	require.NoError(t, err)
	require.True(t, repair)

	missing, err := QueryBool(req, "missing", true)
	require.NoError(t, err)
	require.True(t, missing)

	_, err = QueryBool(req, "bad", false)
	require.Equal(t, pkgerrors.CodeValidation, pkgerrors.CodeOf(err))

	req = httptest.NewRequest(http.MethodGet, "/?limit=25&neg=-2&word=ten", nil)
	limit, err := QueryInt(req, "limit", 0)
	require.NoError(t, err)
	require.Equal(t, 25, limit)
	limit, err = QueryInt(req, "absent", 7)
	require.NoError(t, err)
	require.Equal(t, 7, limit)
	_, err = QueryInt(req, "neg", 0)
	require.Equal(t, pkgerrors.CodeValidation, pkgerrors.CodeOf(err))
	_, err = QueryInt(req, "word", 0)
	require.Equal(t, pkgerrors.CodeValidation, pkgerrors.CodeOf(err))
}

func TestPathHelpers(t *testing.T) {
	withParams := func(kv map[string]string) *http.Request {
		rctx := chi.NewRouteContext()
		for k, v := range kv {
			rctx.URLParams.Add(k, v)
		}
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
	}

	id, err := PathInt64(withParams(map[string]string{"itemId": "42"}), "itemId")
	require.NoError(t, err)
	require.Equal(t, int64(42), id)

	for _, raw := range []string{"", "0", "-3", "abc"} {
		_, err := PathInt64(withParams(map[string]string{"itemId": raw}), "itemId")
		require.Equal(t, pkgerrors.CodeValidation, pkgerrors.CodeOf(err), raw)
	}

	student, err := PathString(withParams(map[string]string{"studentId": " S1 "}), "studentId")
	require.NoError(t, err)
	require.Equal(t, "S1", student)

	_, err = PathString(withParams(nil), "studentId")
	require.Equal(t, pkgerrors.CodeValidation, pkgerrors.CodeOf(err))
}

func TestSanitizeString(t *testing.T) {
	require.Equal(t, "abc", SanitizeString("  abcdef ", 3))
	require.Equal(t, "abcdef", SanitizeString("abcdef", 0))
	require.Equal(t, "Erlenmeyer", SanitizeString("Erlen\x00meyer\n", 0))
	require.Equal(t, "Büc", SanitizeString("Büchner funnel", 3))
	require.Equal(t, "Test", SanitizeString("Test tube", 5))
}
