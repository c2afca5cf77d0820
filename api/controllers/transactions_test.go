package controllers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/labledger/labledger-backend/internal/custody"
	"github.com/labledger/labledger-backend/pkg/logger"
)

type recordingApplier struct {
	got   custody.Request
	calls int
}

func (a *recordingApplier) ApplyTransaction(_ context.Context, req custody.Request) (*custody.Summary, error) {
	a.got = req
	a.calls++
	return &custody.Summary{StudentID: req.StudentID}, nil
}

func TestApplyTransactionPassesBodyThrough(t *testing.T) {
	applier := &recordingApplier{}
	handler := ApplyTransaction(applier, logger.New(logger.Options{ServiceName: "test", Output: io.Discard}))

	body := `{"student_id":"S1","action":"Borrow","lines":[{"item_name":"Beaker","quantity":2},{"item_name":"Tripod","quantity":1}]}`
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/transactions", strings.NewReader(body)))

	require.Equal(t, http.StatusCreated, rec.Code)
	require.Equal(t, 1, applier.calls)
	assert.Equal(t, custody.Request{
		StudentID: "S1",
		Action:    "Borrow",
		Lines:     []custody.Line{{ItemName: "Beaker", Quantity: 2}, {ItemName: "Tripod", Quantity: 1}},
	}, applier.got)
}

func TestApplyTransactionRejectsUnknownFields(t *testing.T) {
	applier := &recordingApplier{}
	handler := ApplyTransaction(applier, logger.New(logger.Options{ServiceName: "test", Output: io.Discard}))

	rec := httptest.NewRecorder()
	body := `{"student_id":"S1","action":"borrow","lines":[],"idempotency_key":"x"}`
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/transactions", strings.NewReader(body)))

	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Zero(t, applier.calls)
	var payload struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	assert.Equal(t, "VALIDATION_ERROR", payload.Error.Code)
}
