package interfaces

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/rgodlewski/LedgerLoop/internal/ledger/application"
	"github.com/rgodlewski/LedgerLoop/internal/ledger/domain"
	ledgerErrors "github.com/rgodlewski/LedgerLoop/internal/ledger/errors"
	"github.com/shopspring/decimal"
)

type TransactionServiceInterface interface {
	CreateTransaction(ctx context.Context, input application.NewTransaction) (domain.Record, error)
	ListUserTransactions(ctx context.Context, ownerID string) ([]domain.Record, error)
	MonthlyIncomeSummary(ctx context.Context, ownerID string) ([]application.MonthTotal, error)
}

type RecurringServiceInterface interface {
	Stop(ctx context.Context, templateID, ownerID string) (*domain.Template, error)
	Preview(anchor time.Time, interval domain.Interval) (time.Time, error)
}

type TransactionHandler struct {
	service      TransactionServiceInterface
	recurring    RecurringServiceInterface
	respondJSON  func(w http.ResponseWriter, status int, payload interface{})
	respondError func(w http.ResponseWriter, status int, message string)
}

func NewTransactionHandler(
	service TransactionServiceInterface,
	recurring RecurringServiceInterface,
	respondJSON func(w http.ResponseWriter, status int, payload interface{}),
	respondError func(w http.ResponseWriter, status int, message string),
) *TransactionHandler {
	if service == nil || recurring == nil {
		log.Fatal("Services must not be nil")
		return nil
	}
	if respondJSON == nil || respondError == nil {
		log.Fatal("Respond functions must not be nil")
		return nil
	}
	return &TransactionHandler{
		service:      service,
		recurring:    recurring,
		respondJSON:  respondJSON,
		respondError: respondError,
	}
}

type createTransactionRequest struct {
	Description string          `json:"description"`
	Amount      decimal.Decimal `json:"amount"`
	Category    string          `json:"category"`
	Type        string          `json:"type"`
	Date        time.Time       `json:"date_time"`
	IsRecurring bool            `json:"is_recurring"`
	Interval    string          `json:"interval"`
}

func (h *TransactionHandler) CreateTransaction(w http.ResponseWriter, r *http.Request) {
	userID, ok := r.Context().Value("userID").(string)
	if !ok {
		h.respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	var req createTransactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Date.IsZero() {
		h.respondError(w, http.StatusBadRequest, "date_time is required")
		return
	}

	record, err := h.service.CreateTransaction(r.Context(), application.NewTransaction{
		OwnerID:     userID,
		Description: req.Description,
		Amount:      req.Amount,
		Category:    req.Category,
		Type:        req.Type,
		Date:        req.Date,
		IsRecurring: req.IsRecurring,
		Interval:    domain.Interval(req.Interval),
	})
	if err != nil {
		if ledgerErrors.IsValidationError(err) {
			h.respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		log.Printf("Error during transaction creation: %v", err)
		h.respondError(w, http.StatusInternalServerError, "Failed to create transaction")
		return
	}

	h.respondJSON(w, http.StatusCreated, map[string]interface{}{
		"status":  "success",
		"message": "Transaction successfully created.",
		"data":    record,
	})
}

func (h *TransactionHandler) GetUserTransactions(w http.ResponseWriter, r *http.Request) {
	userID, ok := r.Context().Value("userID").(string)
	if !ok {
		h.respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	records, err := h.service.ListUserTransactions(r.Context(), userID)
	if err != nil {
		h.respondError(w, http.StatusInternalServerError, "Failed to retrieve transactions")
		return
	}

	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "success",
		"message": "Transactions retrieved successfully.",
		"data":    records,
	})
}

// StopRecurring halts the recurrence identified by the path id. The template
// itself and any already-realized occurrences stay in the ledger.
func (h *TransactionHandler) StopRecurring(w http.ResponseWriter, r *http.Request) {
	userID, ok := r.Context().Value("userID").(string)
	if !ok {
		h.respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	templateID := r.PathValue("id")
	if templateID == "" {
		h.respondError(w, http.StatusBadRequest, "Transaction id is required")
		return
	}

	template, err := h.recurring.Stop(r.Context(), templateID, userID)
	if err != nil {
		if errors.Is(err, ledgerErrors.ErrTemplateNotFound) {
			h.respondError(w, http.StatusNotFound, "Transaction not found")
			return
		}
		log.Printf("Error stopping recurring transaction %s: %v", templateID, err)
		h.respondError(w, http.StatusInternalServerError, "Failed to stop recurring transaction")
		return
	}

	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "success",
		"message": "Recurring transaction stopped.",
		"data":    template,
	})
}

// NextOccurrencePreview lets the UI show the first due date for a recurrence
// the user is about to create.
func (h *TransactionHandler) NextOccurrencePreview(w http.ResponseWriter, r *http.Request) {
	dateStr := r.URL.Query().Get("date")
	anchor, err := time.Parse("2006-01-02", dateStr)
	if err != nil {
		h.respondError(w, http.StatusBadRequest, "Invalid date format")
		return
	}

	next, err := h.recurring.Preview(anchor, domain.Interval(r.URL.Query().Get("interval")))
	if err != nil {
		h.respondError(w, http.StatusBadRequest, "Invalid interval")
		return
	}

	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"status": "success",
		"data": map[string]string{
			"next_occurrence": next.Format("2006-01-02"),
		},
	})
}

func (h *TransactionHandler) GetMonthlyIncomeSummary(w http.ResponseWriter, r *http.Request) {
	userID, ok := r.Context().Value("userID").(string)
	if !ok {
		h.respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	summary, err := h.service.MonthlyIncomeSummary(r.Context(), userID)
	if err != nil {
		h.respondError(w, http.StatusInternalServerError, "Failed to retrieve income summary")
		return
	}

	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "success",
		"message": "Income summary retrieved successfully.",
		"data":    summary,
	})
}
