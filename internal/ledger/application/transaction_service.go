package application

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rgodlewski/LedgerLoop/internal/ledger/domain"
	ledgerErrors "github.com/rgodlewski/LedgerLoop/internal/ledger/errors"
	"github.com/shopspring/decimal"
)

// NewTransaction is the user-supplied payload for adding a ledger entry.
// With IsRecurring set it becomes a template; otherwise a plain occurrence.
type NewTransaction struct {
	OwnerID     string
	Description string
	Amount      decimal.Decimal
	Category    string
	Type        string
	Date        time.Time
	IsRecurring bool
	Interval    domain.Interval
}

type MonthTotal struct {
	Name  string          `json:"name"` // short month name, e.g. "Mar"
	Total decimal.Decimal `json:"total"`
}

type TransactionService struct {
	repo domain.LedgerRepository
	now  func() time.Time
}

func NewTransactionService(repo domain.LedgerRepository, now func() time.Time) *TransactionService {
	if now == nil {
		now = time.Now
	}
	return &TransactionService{repo: repo, now: now}
}

// CreateTransaction stores a new ledger entry. For a recurring entry the
// first due date is seeded from the entered date, so the template's NextRun
// is always well-defined from the moment it exists.
func (s *TransactionService) CreateTransaction(ctx context.Context, input NewTransaction) (domain.Record, error) {
	entry := domain.Entry{
		ID:          uuid.NewString(),
		OwnerID:     input.OwnerID,
		Description: input.Description,
		Amount:      input.Amount,
		Category:    input.Category,
		Type:        input.Type,
	}

	if !input.IsRecurring {
		occurrence := domain.Occurrence{Entry: entry, OccurredAt: input.Date}
		if err := occurrence.Validate(); err != nil {
			return nil, err
		}
		if err := s.repo.InsertOccurrence(ctx, occurrence); err != nil {
			return nil, ledgerErrors.NewPersistenceError("insert occurrence", err)
		}
		return &occurrence, nil
	}

	nextRun, err := domain.NextOccurrence(input.Date, input.Interval)
	if err != nil {
		return nil, ledgerErrors.NewValidationError("Interval must be 'daily', 'weekly', 'monthly' or 'yearly'")
	}
	template := domain.Template{
		Entry:     entry,
		Interval:  input.Interval,
		StartedAt: input.Date,
		NextRun:   &nextRun,
		Active:    true,
	}
	if err := template.Validate(); err != nil {
		return nil, err
	}
	if err := s.repo.InsertTemplate(ctx, template); err != nil {
		return nil, ledgerErrors.NewPersistenceError("insert template", err)
	}
	return &template, nil
}

func (s *TransactionService) ListUserTransactions(ctx context.Context, ownerID string) ([]domain.Record, error) {
	records, err := s.repo.FindByOwner(ctx, ownerID)
	if err != nil {
		return nil, ledgerErrors.NewPersistenceError("list transactions", err)
	}
	if records == nil {
		return []domain.Record{}, nil
	}
	return records, nil
}

// MonthlyIncomeSummary totals realized income per calendar month for the
// trailing twelve months, oldest first. Months without income still appear
// with a zero total.
func (s *TransactionService) MonthlyIncomeSummary(ctx context.Context, ownerID string) ([]MonthTotal, error) {
	now := s.now().UTC()
	from := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, -11, 0)
	to := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, 1, 0)

	income, err := s.repo.IncomeInRange(ctx, ownerID, from, to)
	if err != nil {
		return nil, ledgerErrors.NewPersistenceError("income summary", err)
	}

	totals := make(map[string]decimal.Decimal)
	for _, occurrence := range income {
		key := occurrence.OccurredAt.UTC().Format("2006-01")
		totals[key] = totals[key].Add(occurrence.Amount)
	}

	summary := make([]MonthTotal, 0, 12)
	for month := from; month.Before(to); month = month.AddDate(0, 1, 0) {
		summary = append(summary, MonthTotal{
			Name:  month.Format("Jan"),
			Total: totals[month.Format("2006-01")],
		})
	}
	return summary, nil
}
