package interfaces

import (
	"context"
	"time"

	"github.com/rgodlewski/LedgerLoop/internal/ledger/application"
	"github.com/rgodlewski/LedgerLoop/internal/ledger/domain"
)

type MockTransactionService struct {
	CreatedRecord domain.Record
	CreateErr     error
	Records       []domain.Record
	ListErr       error
	Summary       []application.MonthTotal
	SummaryErr    error

	LastCreateInput *application.NewTransaction
}

func (m *MockTransactionService) CreateTransaction(_ context.Context, input application.NewTransaction) (domain.Record, error) {
	m.LastCreateInput = &input
	if m.CreateErr != nil {
		return nil, m.CreateErr
	}
	return m.CreatedRecord, nil
}

func (m *MockTransactionService) ListUserTransactions(_ context.Context, _ string) ([]domain.Record, error) {
	if m.ListErr != nil {
		return nil, m.ListErr
	}
	return m.Records, nil
}

func (m *MockTransactionService) MonthlyIncomeSummary(_ context.Context, _ string) ([]application.MonthTotal, error) {
	if m.SummaryErr != nil {
		return nil, m.SummaryErr
	}
	return m.Summary, nil
}

type MockRecurringService struct {
	StopResult *domain.Template
	StopErr    error

	LastStopID    string
	LastStopOwner string
}

func (m *MockRecurringService) Stop(_ context.Context, templateID, ownerID string) (*domain.Template, error) {
	m.LastStopID = templateID
	m.LastStopOwner = ownerID
	if m.StopErr != nil {
		return nil, m.StopErr
	}
	return m.StopResult, nil
}

func (m *MockRecurringService) Preview(anchor time.Time, interval domain.Interval) (time.Time, error) {
	return domain.NextOccurrence(anchor, interval)
}
