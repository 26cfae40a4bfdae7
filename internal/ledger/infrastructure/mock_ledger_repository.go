package infrastructure

import (
	"context"
	"sync"
	"time"

	"github.com/rgodlewski/LedgerLoop/internal/ledger/domain"
)

// MockLedgerRepository is an in-memory store with the same conditional-write
// semantics as the Postgres repository, so sweep and lifecycle races can be
// exercised without a database. Error fields force failures per operation;
// OnInsertOccurrence runs inside InsertOccurrence (before the write) to let
// tests interleave a concurrent stop with an in-flight sweep.
type MockLedgerRepository struct {
	mu          sync.Mutex
	Templates   []domain.Template
	Occurrences []domain.Occurrence

	FindDueErr          error
	InsertOccurrenceErr map[string]error // keyed by entry description; ids are fresh per occurrence
	AdvanceErr          error
	OnInsertOccurrence  func()
}

func (m *MockLedgerRepository) InsertOccurrence(_ context.Context, occurrence domain.Occurrence) error {
	if m.OnInsertOccurrence != nil {
		m.OnInsertOccurrence()
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.InsertOccurrenceErr[occurrence.Description]; err != nil {
		return err
	}
	m.Occurrences = append(m.Occurrences, occurrence)
	return nil
}

func (m *MockLedgerRepository) InsertTemplate(_ context.Context, template domain.Template) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Templates = append(m.Templates, template)
	return nil
}

func (m *MockLedgerRepository) FindDueTemplates(_ context.Context, before time.Time) ([]domain.Template, error) {
	if m.FindDueErr != nil {
		return nil, m.FindDueErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	var due []domain.Template
	for _, template := range m.Templates {
		if template.Active && template.NextRun != nil && template.NextRun.Before(before) {
			due = append(due, template)
		}
	}
	return due, nil
}

func (m *MockLedgerRepository) AdvanceTemplate(_ context.Context, templateID string, expected, next time.Time) (bool, error) {
	if m.AdvanceErr != nil {
		return false, m.AdvanceErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.Templates {
		template := &m.Templates[i]
		if template.ID != templateID || !template.Active {
			continue
		}
		if template.NextRun == nil || !template.NextRun.Equal(expected) {
			return false, nil
		}
		nextCopy := next
		template.NextRun = &nextCopy
		return true, nil
	}
	return false, nil
}

func (m *MockLedgerRepository) DeactivateTemplate(_ context.Context, templateID, ownerID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.Templates {
		template := &m.Templates[i]
		if template.ID == templateID && template.OwnerID == ownerID && template.Active {
			template.Active = false
			template.NextRun = nil
			return true, nil
		}
	}
	return false, nil
}

func (m *MockLedgerRepository) FindTemplateByIDAndOwner(_ context.Context, templateID, ownerID string) (*domain.Template, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.Templates {
		if m.Templates[i].ID == templateID && m.Templates[i].OwnerID == ownerID {
			found := m.Templates[i]
			return &found, nil
		}
	}
	return nil, nil
}

func (m *MockLedgerRepository) FindByOwner(_ context.Context, ownerID string) ([]domain.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var records []domain.Record
	for i := range m.Templates {
		if m.Templates[i].OwnerID == ownerID {
			template := m.Templates[i]
			records = append(records, &template)
		}
	}
	for i := range m.Occurrences {
		if m.Occurrences[i].OwnerID == ownerID {
			occurrence := m.Occurrences[i]
			records = append(records, &occurrence)
		}
	}
	return records, nil
}

func (m *MockLedgerRepository) IncomeInRange(_ context.Context, ownerID string, from, to time.Time) ([]domain.Occurrence, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var income []domain.Occurrence
	for _, occurrence := range m.Occurrences {
		if occurrence.OwnerID != ownerID || occurrence.Type != "income" {
			continue
		}
		if occurrence.OccurredAt.Before(from) || !occurrence.OccurredAt.Before(to) {
			continue
		}
		income = append(income, occurrence)
	}
	return income, nil
}

// TemplateByID is a test helper, not part of the repository contract.
func (m *MockLedgerRepository) TemplateByID(templateID string) *domain.Template {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.Templates {
		if m.Templates[i].ID == templateID {
			found := m.Templates[i]
			return &found
		}
	}
	return nil
}
