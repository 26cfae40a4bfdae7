package application

import (
	"context"
	"time"

	"github.com/rgodlewski/LedgerLoop/internal/ledger/domain"
	ledgerErrors "github.com/rgodlewski/LedgerLoop/internal/ledger/errors"
)

// RecurringService handles user-initiated state transitions on recurring
// templates. There is deliberately no resume operation: once stopped, a
// template stays stopped.
type RecurringService struct {
	repo domain.LedgerRepository
}

func NewRecurringService(repo domain.LedgerRepository) *RecurringService {
	return &RecurringService{repo: repo}
}

// Stop deactivates the owner's recurring template and clears its next run
// date. The lookup is scoped by owner: a template belonging to another user
// is indistinguishable from a missing one. Stopping an already-stopped
// template succeeds without touching state.
func (s *RecurringService) Stop(ctx context.Context, templateID, ownerID string) (*domain.Template, error) {
	template, err := s.repo.FindTemplateByIDAndOwner(ctx, templateID, ownerID)
	if err != nil {
		return nil, ledgerErrors.NewPersistenceError("find template", err)
	}
	if template == nil {
		return nil, ledgerErrors.ErrTemplateNotFound
	}
	if !template.Active {
		return template, nil
	}

	deactivated, err := s.repo.DeactivateTemplate(ctx, templateID, ownerID)
	if err != nil {
		return nil, ledgerErrors.NewPersistenceError("deactivate template", err)
	}
	if !deactivated {
		// The conditional write found no live row: a concurrent call already
		// stopped it. Re-read and return whatever survived.
		current, err := s.repo.FindTemplateByIDAndOwner(ctx, templateID, ownerID)
		if err != nil {
			return nil, ledgerErrors.NewPersistenceError("find template", err)
		}
		if current == nil {
			return nil, ledgerErrors.ErrTemplateNotFound
		}
		return current, nil
	}

	template.Active = false
	template.NextRun = nil
	return template, nil
}

// Preview exposes the recurrence calculator for form validation and UI
// preview without touching any state.
func (s *RecurringService) Preview(anchor time.Time, interval domain.Interval) (time.Time, error) {
	return domain.NextOccurrence(anchor, interval)
}
