package infrastructure

import (
	"context"
	"database/sql"
	"time"

	"github.com/rgodlewski/LedgerLoop/internal/ledger/domain"
)

// Store calls never hang a sweep: every statement runs under this bound.
const queryTimeout = 5 * time.Second

// LedgerRepository persists templates and occurrences in a single
// transactions table; nullable interval/next_run/active columns exist only on
// template rows and the mapper rebuilds the right variant from is_recurring.
type LedgerRepository struct {
	db *sql.DB
}

func NewLedgerRepository(db *sql.DB) *LedgerRepository {
	return &LedgerRepository{db: db}
}

func (r *LedgerRepository) InsertOccurrence(ctx context.Context, occurrence domain.Occurrence) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO transactions
        (id, owner_id, description, amount, category, type, occurred_at, is_recurring)
        VALUES ($1, $2, $3, $4, $5, $6, $7, FALSE)`,
		occurrence.ID, occurrence.OwnerID, occurrence.Description, occurrence.Amount,
		occurrence.Category, occurrence.Type, occurrence.OccurredAt,
	)
	return err
}

func (r *LedgerRepository) InsertTemplate(ctx context.Context, template domain.Template) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO transactions
        (id, owner_id, description, amount, category, type, occurred_at, is_recurring, interval, next_run, active)
        VALUES ($1, $2, $3, $4, $5, $6, $7, TRUE, $8, $9, $10)`,
		template.ID, template.OwnerID, template.Description, template.Amount,
		template.Category, template.Type, template.StartedAt,
		string(template.Interval), template.NextRun, template.Active,
	)
	return err
}

func (r *LedgerRepository) FindDueTemplates(ctx context.Context, before time.Time) ([]domain.Template, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, owner_id, description, amount, category, type, occurred_at, interval, next_run, active
        FROM transactions
        WHERE is_recurring AND active AND next_run < $1`, before)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var templates []domain.Template
	for rows.Next() {
		template, err := scanTemplate(rows)
		if err != nil {
			return nil, err
		}
		templates = append(templates, *template)
	}
	return templates, rows.Err()
}

// AdvanceTemplate is a compare-and-set on next_run: the update applies only
// while the row is still active and holds the value read at selection time,
// so a stop or a competing sweep racing this write cannot be overwritten.
func (r *LedgerRepository) AdvanceTemplate(ctx context.Context, templateID string, expected, next time.Time) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()
	result, err := r.db.ExecContext(ctx,
		`UPDATE transactions SET next_run = $3
        WHERE id = $1 AND is_recurring AND active AND next_run = $2`,
		templateID, expected, next)
	if err != nil {
		return false, err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected == 1, nil
}

func (r *LedgerRepository) DeactivateTemplate(ctx context.Context, templateID, ownerID string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()
	result, err := r.db.ExecContext(ctx,
		`UPDATE transactions SET active = FALSE, next_run = NULL
        WHERE id = $1 AND owner_id = $2 AND is_recurring AND active`,
		templateID, ownerID)
	if err != nil {
		return false, err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected == 1, nil
}

func (r *LedgerRepository) FindTemplateByIDAndOwner(ctx context.Context, templateID, ownerID string) (*domain.Template, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()
	row := r.db.QueryRowContext(ctx,
		`SELECT id, owner_id, description, amount, category, type, occurred_at, interval, next_run, active
        FROM transactions
        WHERE id = $1 AND owner_id = $2 AND is_recurring`, templateID, ownerID)

	template, err := scanTemplate(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return template, nil
}

func (r *LedgerRepository) FindByOwner(ctx context.Context, ownerID string) ([]domain.Record, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, owner_id, description, amount, category, type, occurred_at, is_recurring, interval, next_run, active
        FROM transactions
        WHERE owner_id = $1
        ORDER BY occurred_at DESC`, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []domain.Record
	for rows.Next() {
		var (
			entry       domain.Entry
			occurredAt  time.Time
			isRecurring bool
			interval    sql.NullString
			nextRun     sql.NullTime
			active      sql.NullBool
		)
		if err := rows.Scan(&entry.ID, &entry.OwnerID, &entry.Description, &entry.Amount,
			&entry.Category, &entry.Type, &occurredAt, &isRecurring, &interval, &nextRun, &active); err != nil {
			return nil, err
		}
		if !isRecurring {
			records = append(records, &domain.Occurrence{Entry: entry, OccurredAt: occurredAt})
			continue
		}
		template := domain.Template{
			Entry:     entry,
			Interval:  domain.Interval(interval.String),
			StartedAt: occurredAt,
			Active:    active.Bool,
		}
		if nextRun.Valid {
			runAt := nextRun.Time
			template.NextRun = &runAt
		}
		records = append(records, &template)
	}
	return records, rows.Err()
}

func (r *LedgerRepository) IncomeInRange(ctx context.Context, ownerID string, from, to time.Time) ([]domain.Occurrence, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, owner_id, description, amount, category, type, occurred_at
        FROM transactions
        WHERE owner_id = $1 AND NOT is_recurring AND type = 'income'
          AND occurred_at >= $2 AND occurred_at < $3`, ownerID, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var income []domain.Occurrence
	for rows.Next() {
		var occurrence domain.Occurrence
		if err := rows.Scan(&occurrence.ID, &occurrence.OwnerID, &occurrence.Description,
			&occurrence.Amount, &occurrence.Category, &occurrence.Type, &occurrence.OccurredAt); err != nil {
			return nil, err
		}
		income = append(income, occurrence)
	}
	return income, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTemplate(row rowScanner) (*domain.Template, error) {
	var (
		template domain.Template
		interval string
		nextRun  sql.NullTime
	)
	if err := row.Scan(&template.ID, &template.OwnerID, &template.Description, &template.Amount,
		&template.Category, &template.Type, &template.StartedAt, &interval, &nextRun, &template.Active); err != nil {
		return nil, err
	}
	template.Interval = domain.Interval(interval)
	if nextRun.Valid {
		runAt := nextRun.Time
		template.NextRun = &runAt
	}
	return &template, nil
}
