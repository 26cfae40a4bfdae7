package interfaces

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rgodlewski/LedgerLoop/internal/ledger/domain"
	ledgerErrors "github.com/rgodlewski/LedgerLoop/internal/ledger/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func authenticated(req *http.Request, userID string) *http.Request {
	return req.WithContext(context.WithValue(req.Context(), "userID", userID))
}

func TestCreateTransaction_Unauthorized(t *testing.T) {
	handler := NewTransactionHandler(&MockTransactionService{}, &MockRecurringService{}, respondJSON, respondError)

	req := httptest.NewRequest(http.MethodPost, "/api/protected/transactions", bytes.NewBufferString("{}"))
	w := httptest.NewRecorder()
	handler.CreateTransaction(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Result().StatusCode)
}

func TestCreateTransaction_InvalidBody(t *testing.T) {
	handler := NewTransactionHandler(&MockTransactionService{}, &MockRecurringService{}, respondJSON, respondError)

	req := authenticated(httptest.NewRequest(http.MethodPost, "/api/protected/transactions", bytes.NewBufferString("not json")), "user-1")
	w := httptest.NewRecorder()
	handler.CreateTransaction(w, req)

	res := w.Result()
	defer res.Body.Close()
	assert.Equal(t, http.StatusBadRequest, res.StatusCode)

	var response map[string]interface{}
	assert.NoError(t, json.NewDecoder(res.Body).Decode(&response))
	assert.Equal(t, "error", response["status"])
	assert.Equal(t, "Invalid request body", response["message"])
}

func TestCreateTransaction_RecurringPassesIntervalThrough(t *testing.T) {
	nextRun := time.Date(2024, time.April, 10, 0, 0, 0, 0, time.UTC)
	service := &MockTransactionService{
		CreatedRecord: &domain.Template{
			Entry:    domain.Entry{ID: "tmpl-1", OwnerID: "user-1", Type: "expense"},
			Interval: domain.IntervalMonthly,
			NextRun:  &nextRun,
			Active:   true,
		},
	}
	handler := NewTransactionHandler(service, &MockRecurringService{}, respondJSON, respondError)

	body, err := json.Marshal(map[string]interface{}{
		"description":  "Rent",
		"amount":       "-1200",
		"category":     "Housing",
		"type":         "expense",
		"date_time":    "2024-03-10T00:00:00Z",
		"is_recurring": true,
		"interval":     "monthly",
	})
	assert.NoError(t, err)

	req := authenticated(httptest.NewRequest(http.MethodPost, "/api/protected/transactions", bytes.NewBuffer(body)), "user-1")
	w := httptest.NewRecorder()
	handler.CreateTransaction(w, req)

	assert.Equal(t, http.StatusCreated, w.Result().StatusCode)
	assert.Equal(t, "user-1", service.LastCreateInput.OwnerID)
	assert.True(t, service.LastCreateInput.IsRecurring)
	assert.Equal(t, domain.IntervalMonthly, service.LastCreateInput.Interval)
	assert.True(t, service.LastCreateInput.Amount.Equal(decimal.NewFromInt(-1200)))
}

func TestCreateTransaction_ValidationErrorBecomesBadRequest(t *testing.T) {
	service := &MockTransactionService{
		CreateErr: ledgerErrors.NewValidationError("Interval must be 'daily', 'weekly', 'monthly' or 'yearly'"),
	}
	handler := NewTransactionHandler(service, &MockRecurringService{}, respondJSON, respondError)

	body, _ := json.Marshal(map[string]interface{}{
		"type":      "income",
		"date_time": "2024-03-10T00:00:00Z",
	})
	req := authenticated(httptest.NewRequest(http.MethodPost, "/api/protected/transactions", bytes.NewBuffer(body)), "user-1")
	w := httptest.NewRecorder()
	handler.CreateTransaction(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Result().StatusCode)
}

func TestStopRecurring_Success(t *testing.T) {
	service := &MockRecurringService{
		StopResult: &domain.Template{
			Entry:    domain.Entry{ID: "tmpl-1", OwnerID: "user-1", Type: "expense"},
			Interval: domain.IntervalMonthly,
			Active:   false,
		},
	}
	handler := NewTransactionHandler(&MockTransactionService{}, service, respondJSON, respondError)

	req := authenticated(httptest.NewRequest(http.MethodPut, "/api/protected/transactions/tmpl-1/stop", nil), "user-1")
	req.SetPathValue("id", "tmpl-1")
	w := httptest.NewRecorder()
	handler.StopRecurring(w, req)

	res := w.Result()
	defer res.Body.Close()
	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.Equal(t, "tmpl-1", service.LastStopID)
	assert.Equal(t, "user-1", service.LastStopOwner)

	var response struct {
		Data domain.Template `json:"data"`
	}
	assert.NoError(t, json.NewDecoder(res.Body).Decode(&response))
	assert.False(t, response.Data.Active)
	assert.Nil(t, response.Data.NextRun)
}

func TestStopRecurring_NotFound(t *testing.T) {
	service := &MockRecurringService{StopErr: ledgerErrors.ErrTemplateNotFound}
	handler := NewTransactionHandler(&MockTransactionService{}, service, respondJSON, respondError)

	req := authenticated(httptest.NewRequest(http.MethodPut, "/api/protected/transactions/foreign/stop", nil), "user-1")
	req.SetPathValue("id", "foreign")
	w := httptest.NewRecorder()
	handler.StopRecurring(w, req)

	res := w.Result()
	defer res.Body.Close()
	assert.Equal(t, http.StatusNotFound, res.StatusCode)

	var response map[string]interface{}
	assert.NoError(t, json.NewDecoder(res.Body).Decode(&response))
	assert.Equal(t, "Transaction not found", response["message"])
}

func TestNextOccurrencePreview(t *testing.T) {
	handler := NewTransactionHandler(&MockTransactionService{}, &MockRecurringService{}, respondJSON, respondError)

	req := httptest.NewRequest(http.MethodGet, "/api/protected/transactions/next-occurrence?date=2024-01-31&interval=monthly", nil)
	w := httptest.NewRecorder()
	handler.NextOccurrencePreview(w, req)

	res := w.Result()
	defer res.Body.Close()
	assert.Equal(t, http.StatusOK, res.StatusCode)

	var response struct {
		Data map[string]string `json:"data"`
	}
	assert.NoError(t, json.NewDecoder(res.Body).Decode(&response))
	assert.Equal(t, "2024-02-29", response.Data["next_occurrence"])
}

func TestNextOccurrencePreview_BadInput(t *testing.T) {
	handler := NewTransactionHandler(&MockTransactionService{}, &MockRecurringService{}, respondJSON, respondError)

	req := httptest.NewRequest(http.MethodGet, "/api/protected/transactions/next-occurrence?date=31-01-2024&interval=monthly", nil)
	w := httptest.NewRecorder()
	handler.NextOccurrencePreview(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Result().StatusCode)

	req = httptest.NewRequest(http.MethodGet, "/api/protected/transactions/next-occurrence?date=2024-01-31&interval=hourly", nil)
	w = httptest.NewRecorder()
	handler.NextOccurrencePreview(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Result().StatusCode)
}

func TestGetUserTransactions_EmptyListIsAnArray(t *testing.T) {
	service := &MockTransactionService{Records: []domain.Record{}}
	handler := NewTransactionHandler(service, &MockRecurringService{}, respondJSON, respondError)

	req := authenticated(httptest.NewRequest(http.MethodGet, "/api/protected/transactions", nil), "user-1")
	w := httptest.NewRecorder()
	handler.GetUserTransactions(w, req)

	res := w.Result()
	defer res.Body.Close()
	assert.Equal(t, http.StatusOK, res.StatusCode)

	var response map[string]interface{}
	assert.NoError(t, json.NewDecoder(res.Body).Decode(&response))
	assert.Equal(t, []interface{}{}, response["data"])
}
