package domain

import (
	"context"
	"time"

	ledgerErrors "github.com/rgodlewski/LedgerLoop/internal/ledger/errors"
	"github.com/shopspring/decimal"
)

type Interval string

const (
	IntervalDaily   Interval = "daily"
	IntervalWeekly  Interval = "weekly"
	IntervalMonthly Interval = "monthly"
	IntervalYearly  Interval = "yearly"
)

func IsValidInterval(interval Interval) bool {
	switch interval {
	case IntervalDaily, IntervalWeekly, IntervalMonthly, IntervalYearly:
		return true
	}
	return false
}

func IsValidTransactionType(transactionType string) bool {
	return transactionType == "income" || transactionType == "expense"
}

// Entry is the descriptive payload shared by templates and realized
// occurrences. The scheduler treats everything here as opaque.
type Entry struct {
	ID          string          `json:"id"`
	OwnerID     string          `json:"owner_id"`
	Description string          `json:"description"`
	Amount      decimal.Decimal `json:"amount"`
	Category    string          `json:"category"`
	Type        string          `json:"type"` // "income" or "expense"
}

// Occurrence is a concrete, one-time ledger entry. Once written by the
// scheduler it is never mutated again.
type Occurrence struct {
	Entry
	OccurredAt time.Time `json:"occurred_at"`
}

// Template is a transaction configured to repeat on a fixed interval.
// While Active, NextRun always holds the next due date; a stopped template
// has Active=false and NextRun=nil.
type Template struct {
	Entry
	Interval  Interval   `json:"interval"`
	StartedAt time.Time  `json:"started_at"`
	NextRun   *time.Time `json:"next_run"`
	Active    bool       `json:"active"`
}

// Record is either a *Template or an *Occurrence.
type Record interface {
	isRecord()
}

func (*Occurrence) isRecord() {}
func (*Template) isRecord()   {}

func (e *Entry) Validate() error {
	if !IsValidTransactionType(e.Type) {
		return ledgerErrors.NewValidationError("Type must be 'income' or 'expense'")
	}
	if len(e.Description) > 200 {
		return ledgerErrors.NewValidationError("Description must be of length less than 200")
	}
	return nil
}

func (t *Template) Validate() error {
	if err := t.Entry.Validate(); err != nil {
		return err
	}
	if !IsValidInterval(t.Interval) {
		return ledgerErrors.NewValidationError("Interval must be 'daily', 'weekly', 'monthly' or 'yearly'")
	}
	if t.Active && t.NextRun == nil {
		return ledgerErrors.NewValidationError("Active recurring transaction must have a next run date")
	}
	return nil
}

type LedgerRepository interface {
	InsertOccurrence(ctx context.Context, occurrence Occurrence) error
	InsertTemplate(ctx context.Context, template Template) error
	// FindDueTemplates returns every active template whose NextRun is
	// strictly before the given boundary.
	FindDueTemplates(ctx context.Context, before time.Time) ([]Template, error)
	// AdvanceTemplate moves NextRun from expected to next. It returns false
	// without error when the row no longer matches (stopped or already
	// advanced by someone else).
	AdvanceTemplate(ctx context.Context, templateID string, expected, next time.Time) (bool, error)
	// DeactivateTemplate sets Active=false and clears NextRun for the
	// owner's template. Returns false when no live matching row exists.
	DeactivateTemplate(ctx context.Context, templateID, ownerID string) (bool, error)
	FindTemplateByIDAndOwner(ctx context.Context, templateID, ownerID string) (*Template, error)
	FindByOwner(ctx context.Context, ownerID string) ([]Record, error)
	IncomeInRange(ctx context.Context, ownerID string, from, to time.Time) ([]Occurrence, error)
}
