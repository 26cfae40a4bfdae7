package application

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rgodlewski/LedgerLoop/internal/ledger/domain"
	ledgerErrors "github.com/rgodlewski/LedgerLoop/internal/ledger/errors"
)

const defaultTemplateTimeout = 10 * time.Second

// SweepReport summarizes one sweep cycle. A sweep with failures still
// completes; nothing here is fatal to the host process.
type SweepReport struct {
	StartedAt    time.Time      `json:"started_at"`
	FinishedAt   time.Time      `json:"finished_at"`
	Selected     int            `json:"selected"`
	Materialized int            `json:"materialized"`
	Advanced     int            `json:"advanced"`
	Failures     []SweepFailure `json:"failures,omitempty"`
}

type SweepFailure struct {
	TemplateID string `json:"template_id"`
	Stage      string `json:"stage"` // "materialize", "advance" or "conflict"
	Err        error  `json:"-"`
	Message    string `json:"message"`
}

func (r *SweepReport) fail(templateID, stage string, err error) {
	r.Failures = append(r.Failures, SweepFailure{
		TemplateID: templateID,
		Stage:      stage,
		Err:        err,
		Message:    err.Error(),
	})
}

type SweepService struct {
	repo            domain.LedgerRepository
	now             func() time.Time
	templateTimeout time.Duration

	// guards against a trigger firing while the previous sweep still runs
	mu sync.Mutex
}

func NewSweepService(repo domain.LedgerRepository, now func() time.Time) *SweepService {
	if now == nil {
		now = time.Now
	}
	return &SweepService{
		repo:            repo,
		now:             now,
		templateTimeout: defaultTemplateTimeout,
	}
}

// RunSweep selects every active template due before the start of the next
// calendar day (UTC), materializes one occurrence per template and advances
// its NextRun. Templates are processed in isolation: one failure never aborts
// the rest. Returns ErrSweepInProgress when a prior sweep has not finished.
func (s *SweepService) RunSweep(ctx context.Context) (*SweepReport, error) {
	if !s.mu.TryLock() {
		return nil, ledgerErrors.ErrSweepInProgress
	}
	defer s.mu.Unlock()

	report := &SweepReport{StartedAt: s.now()}

	due, err := s.repo.FindDueTemplates(ctx, startOfTomorrow(s.now()))
	if err != nil {
		return nil, ledgerErrors.NewPersistenceError("select due templates", err)
	}
	report.Selected = len(due)

	for i := range due {
		s.processTemplate(ctx, due[i], report)
	}

	report.FinishedAt = s.now()
	return report, nil
}

// processTemplate runs the materialize-then-advance sequence for a single
// template as a unit, under a bounded timeout so one slow store call cannot
// stall the whole cycle.
func (s *SweepService) processTemplate(ctx context.Context, template domain.Template, report *SweepReport) {
	ctx, cancel := context.WithTimeout(ctx, s.templateTimeout)
	defer cancel()

	if template.NextRun == nil {
		report.fail(template.ID, "materialize", ledgerErrors.NewValidationError("active template has no next run date"))
		return
	}
	dueAt := *template.NextRun

	if _, err := s.materialize(ctx, template); err != nil {
		// NextRun stays untouched so the next sweep retries this template
		report.fail(template.ID, "materialize", err)
		return
	}
	report.Materialized++

	next, err := domain.NextOccurrence(dueAt, template.Interval)
	if err != nil {
		// The occurrence is already written but the template cannot move.
		// Surface the inconsistency instead of absorbing it.
		log.Printf("template %s materialized but cannot advance: %v", template.ID, err)
		report.fail(template.ID, "advance", err)
		return
	}

	advanced, err := s.repo.AdvanceTemplate(ctx, template.ID, dueAt, next)
	if err != nil {
		report.fail(template.ID, "advance", ledgerErrors.NewPersistenceError("advance template", err))
		return
	}
	if !advanced {
		// Lost the conditional write. If the user stopped the template
		// mid-sweep that state wins; anything else is a real conflict.
		current, readErr := s.repo.FindTemplateByIDAndOwner(ctx, template.ID, template.OwnerID)
		if readErr == nil && current != nil && !current.Active {
			return
		}
		report.fail(template.ID, "conflict", ledgerErrors.ErrUpdateConflict)
		return
	}
	report.Advanced++
}

// materialize creates the realized occurrence for a due template: the
// descriptive payload is copied, a fresh id assigned and the entry dated at
// the template's due date. The input template is never mutated.
func (s *SweepService) materialize(ctx context.Context, template domain.Template) (domain.Occurrence, error) {
	occurrence := domain.Occurrence{
		Entry:      template.Entry,
		OccurredAt: *template.NextRun,
	}
	occurrence.ID = uuid.NewString()

	if err := s.repo.InsertOccurrence(ctx, occurrence); err != nil {
		return domain.Occurrence{}, ledgerErrors.NewPersistenceError("insert occurrence", err)
	}
	return occurrence, nil
}

// startOfTomorrow is the selection boundary: due means strictly before the
// next UTC midnight, matching a once-daily sweep that also catches overdue
// templates.
func startOfTomorrow(now time.Time) time.Time {
	now = now.UTC()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC).AddDate(0, 0, 1)
}

// IsSweepInProgress reports whether err is the overlap guard tripping, so
// trigger wrappers can log-and-skip instead of treating it as a failure.
func IsSweepInProgress(err error) bool {
	return errors.Is(err, ledgerErrors.ErrSweepInProgress)
}
