package application

import (
	"context"
	"testing"
	"time"

	"github.com/rgodlewski/LedgerLoop/internal/ledger/domain"
	ledgerErrors "github.com/rgodlewski/LedgerLoop/internal/ledger/errors"
	"github.com/rgodlewski/LedgerLoop/internal/ledger/infrastructure"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestCreateTransaction_PlainOccurrence(t *testing.T) {
	repo := &infrastructure.MockLedgerRepository{}
	service := NewTransactionService(repo, nil)

	record, err := service.CreateTransaction(context.Background(), NewTransaction{
		OwnerID:     "user-1",
		Description: "Groceries",
		Amount:      decimal.NewFromFloat(-54.20),
		Category:    "Food",
		Type:        "expense",
		Date:        time.Date(2024, time.March, 10, 0, 0, 0, 0, time.UTC),
	})
	assert.NoError(t, err)

	occurrence, ok := record.(*domain.Occurrence)
	assert.True(t, ok)
	assert.NotEmpty(t, occurrence.ID)
	assert.Len(t, repo.Occurrences, 1)
	assert.Empty(t, repo.Templates)
}

func TestCreateTransaction_RecurringSeedsNextRun(t *testing.T) {
	repo := &infrastructure.MockLedgerRepository{}
	service := NewTransactionService(repo, nil)
	entered := time.Date(2024, time.March, 10, 0, 0, 0, 0, time.UTC)

	record, err := service.CreateTransaction(context.Background(), NewTransaction{
		OwnerID:     "user-1",
		Description: "Salary",
		Amount:      decimal.NewFromInt(5000),
		Category:    "Work",
		Type:        "income",
		Date:        entered,
		IsRecurring: true,
		Interval:    domain.IntervalWeekly,
	})
	assert.NoError(t, err)

	template, ok := record.(*domain.Template)
	assert.True(t, ok)
	assert.True(t, template.Active)
	assert.Equal(t, entered, template.StartedAt)
	assert.Equal(t, entered.AddDate(0, 0, 7), *template.NextRun)
	assert.Len(t, repo.Templates, 1)
	assert.Empty(t, repo.Occurrences)
}

func TestCreateTransaction_RejectsUnknownInterval(t *testing.T) {
	repo := &infrastructure.MockLedgerRepository{}
	service := NewTransactionService(repo, nil)

	_, err := service.CreateTransaction(context.Background(), NewTransaction{
		OwnerID:     "user-1",
		Description: "Salary",
		Amount:      decimal.NewFromInt(5000),
		Category:    "Work",
		Type:        "income",
		Date:        time.Now(),
		IsRecurring: true,
		Interval:    domain.Interval("biweekly"),
	})
	assert.True(t, ledgerErrors.IsValidationError(err))
	assert.Empty(t, repo.Templates)
}

func TestCreateTransaction_RejectsBadType(t *testing.T) {
	service := NewTransactionService(&infrastructure.MockLedgerRepository{}, nil)

	_, err := service.CreateTransaction(context.Background(), NewTransaction{
		OwnerID: "user-1",
		Type:    "transfer",
		Date:    time.Now(),
	})
	assert.True(t, ledgerErrors.IsValidationError(err))
}

func TestMonthlyIncomeSummary_BucketsTrailingTwelveMonths(t *testing.T) {
	now := time.Date(2024, time.June, 15, 10, 0, 0, 0, time.UTC)
	income := func(day time.Time, amount int64) domain.Occurrence {
		return domain.Occurrence{
			Entry: domain.Entry{
				ID:      day.Format("2006-01-02"),
				OwnerID: "user-1",
				Amount:  decimal.NewFromInt(amount),
				Type:    "income",
			},
			OccurredAt: day,
		}
	}
	repo := &infrastructure.MockLedgerRepository{
		Occurrences: []domain.Occurrence{
			income(time.Date(2024, time.June, 1, 0, 0, 0, 0, time.UTC), 5000),
			income(time.Date(2024, time.June, 20, 0, 0, 0, 0, time.UTC), 300),
			income(time.Date(2024, time.March, 3, 0, 0, 0, 0, time.UTC), 1000),
			// 13 months back, outside the window
			income(time.Date(2023, time.May, 3, 0, 0, 0, 0, time.UTC), 9999),
			// expenses never count
			{
				Entry:      domain.Entry{ID: "exp", OwnerID: "user-1", Amount: decimal.NewFromInt(400), Type: "expense"},
				OccurredAt: time.Date(2024, time.June, 2, 0, 0, 0, 0, time.UTC),
			},
		},
	}
	service := NewTransactionService(repo, fixedClock(now))

	summary, err := service.MonthlyIncomeSummary(context.Background(), "user-1")
	assert.NoError(t, err)
	assert.Len(t, summary, 12)

	assert.Equal(t, "Jul", summary[0].Name)
	assert.Equal(t, "Jun", summary[11].Name)
	assert.True(t, summary[11].Total.Equal(decimal.NewFromInt(5300)))

	assert.Equal(t, "Mar", summary[8].Name)
	assert.True(t, summary[8].Total.Equal(decimal.NewFromInt(1000)))

	// untouched months report zero
	assert.True(t, summary[1].Total.IsZero())
}
