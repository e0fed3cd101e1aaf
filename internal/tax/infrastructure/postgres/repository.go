package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	ledger "freelance-tax/internal/ledger/domain"
	tax "freelance-tax/internal/tax/domain"
)

// ProvisionRepository persists provisions.
type ProvisionRepository struct {
	db *sql.DB
}

// NewProvisionRepository constructs a repository.
func NewProvisionRepository(db *sql.DB) *ProvisionRepository {
	return &ProvisionRepository{db: db}
}

// UpsertProvision inserts or replaces a provision by id.
func (r *ProvisionRepository) UpsertProvision(ctx context.Context, p tax.Provision) error {
	if r == nil || r.db == nil {
		return errors.New("provision repo: nil db")
	}
	_, err := r.db.ExecContext(ctx, `
INSERT INTO provisions (id, kind, label, due_date, amount_cents, created_at)
VALUES ($1,$2,$3,$4,$5,$6)
ON CONFLICT (id) DO UPDATE SET
	kind = EXCLUDED.kind,
	label = EXCLUDED.label,
	due_date = EXCLUDED.due_date,
	amount_cents = EXCLUDED.amount_cents`,
		p.ID, string(p.Kind), p.Label, p.DueDate, p.AmountCents, p.CreatedAt)
	return ledger.WrapRepo("upsert provision", err)
}

// ListProvisions lists provisions, optionally restricted to a due month.
func (r *ProvisionRepository) ListProvisions(ctx context.Context, month *ledger.MonthID) ([]tax.Provision, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("provision repo: nil db")
	}
	query := `
SELECT id, kind, label, due_date, amount_cents, created_at
FROM provisions`
	var args []any
	if month != nil {
		query += "\nWHERE due_date >= $1 AND due_date < $2"
		args = append(args, month.Start(), month.Next().Start())
	}
	query += "\nORDER BY due_date ASC, id ASC"
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, ledger.WrapRepo("list provisions", err)
	}
	defer rows.Close()

	var result []tax.Provision
	for rows.Next() {
		var (
			p    tax.Provision
			kind string
		)
		if err := rows.Scan(&p.ID, &kind, &p.Label, &p.DueDate, &p.AmountCents, &p.CreatedAt); err != nil {
			return nil, ledger.WrapRepo("list provisions", err)
		}
		p.Kind = tax.ProvisionKind(kind)
		p.DueDate = ledger.CivilDate(p.DueDate)
		p.CreatedAt = p.CreatedAt.UTC()
		result = append(result, p)
	}
	if err := rows.Err(); err != nil {
		return nil, ledger.WrapRepo("list provisions", err)
	}
	return result, nil
}

// ScheduleRepository persists tax schedule entries.
type ScheduleRepository struct {
	db *sql.DB
}

// NewScheduleRepository constructs a repository.
func NewScheduleRepository(db *sql.DB) *ScheduleRepository {
	return &ScheduleRepository{db: db}
}

const scheduleColumns = `id, tax_type, due_date, amount_cents, period_start, period_end, status, paid_at, created_at`

// UpsertSchedule merges s into the entry for its tax type and period.
// Paid entries are left untouched and returned as stored.
func (r *ScheduleRepository) UpsertSchedule(ctx context.Context, s tax.TaxSchedule) (tax.TaxSchedule, error) {
	if r == nil || r.db == nil {
		return tax.TaxSchedule{}, errors.New("schedule repo: nil db")
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return tax.TaxSchedule{}, ledger.WrapRepo("upsert schedule", err)
	}
	_, err = tx.ExecContext(ctx, `
INSERT INTO tax_schedules (`+scheduleColumns+`)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
ON CONFLICT (tax_type, period_start, period_end) DO UPDATE SET
	due_date = EXCLUDED.due_date,
	amount_cents = EXCLUDED.amount_cents,
	status = EXCLUDED.status
WHERE tax_schedules.status <> 'paid'`,
		s.ID, string(s.TaxType), s.DueDate, s.AmountCents, s.PeriodStart, s.PeriodEnd, string(s.Status), nullTime(s.PaidAt), s.CreatedAt)
	if err != nil {
		_ = tx.Rollback()
		return tax.TaxSchedule{}, ledger.WrapRepo("upsert schedule", err)
	}
	row := tx.QueryRowContext(ctx, `
SELECT `+scheduleColumns+`
FROM tax_schedules
WHERE tax_type = $1 AND period_start = $2 AND period_end = $3`, string(s.TaxType), s.PeriodStart, s.PeriodEnd)
	stored, err := scanSchedule(row)
	if err != nil {
		_ = tx.Rollback()
		return tax.TaxSchedule{}, ledger.WrapRepo("upsert schedule", err)
	}
	if stored == nil {
		_ = tx.Rollback()
		return tax.TaxSchedule{}, ledger.ErrNotFound
	}
	if err := tx.Commit(); err != nil {
		return tax.TaxSchedule{}, ledger.WrapRepo("upsert schedule", err)
	}
	return *stored, nil
}

// DeletePendingSchedules removes unpaid entries matching keys in one transaction.
func (r *ScheduleRepository) DeletePendingSchedules(ctx context.Context, keys []tax.ScheduleKey) (int, error) {
	if r == nil || r.db == nil {
		return 0, errors.New("schedule repo: nil db")
	}
	if len(keys) == 0 {
		return 0, nil
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, ledger.WrapRepo("delete pending schedules", err)
	}
	removed := 0
	for _, key := range keys {
		res, err := tx.ExecContext(ctx, `
DELETE FROM tax_schedules
WHERE tax_type = $1 AND period_start = $2 AND status <> 'paid'`, string(key.TaxType), key.Period.Start())
		if err != nil {
			_ = tx.Rollback()
			return 0, ledger.WrapRepo("delete pending schedules", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			_ = tx.Rollback()
			return 0, ledger.WrapRepo("delete pending schedules", err)
		}
		removed += int(n)
	}
	if err := tx.Commit(); err != nil {
		return 0, ledger.WrapRepo("delete pending schedules", err)
	}
	return removed, nil
}

// GetSchedule fetches an entry by id.
func (r *ScheduleRepository) GetSchedule(ctx context.Context, id string) (*tax.TaxSchedule, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("schedule repo: nil db")
	}
	row := r.db.QueryRowContext(ctx, `
SELECT `+scheduleColumns+`
FROM tax_schedules
WHERE id = $1`, id)
	s, err := scanSchedule(row)
	if err != nil {
		return nil, ledger.WrapRepo("get schedule", err)
	}
	if s == nil {
		return nil, ledger.ErrNotFound
	}
	return s, nil
}

// UpdateSchedule rewrites amount, due date, status and payment date.
func (r *ScheduleRepository) UpdateSchedule(ctx context.Context, s tax.TaxSchedule) error {
	if r == nil || r.db == nil {
		return errors.New("schedule repo: nil db")
	}
	res, err := r.db.ExecContext(ctx, `
UPDATE tax_schedules
SET due_date = $2, amount_cents = $3, status = $4, paid_at = $5
WHERE id = $1`, s.ID, s.DueDate, s.AmountCents, string(s.Status), nullTime(s.PaidAt))
	if err != nil {
		return ledger.WrapRepo("update schedule", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return ledger.WrapRepo("update schedule", err)
	}
	if n == 0 {
		return ledger.ErrNotFound
	}
	return nil
}

// ListSchedules lists entries by due date; an empty status lists all.
func (r *ScheduleRepository) ListSchedules(ctx context.Context, status tax.ScheduleStatus) ([]tax.TaxSchedule, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("schedule repo: nil db")
	}
	query := `
SELECT ` + scheduleColumns + `
FROM tax_schedules`
	var args []any
	if status != "" {
		query += "\nWHERE status = $1"
		args = append(args, string(status))
	}
	query += "\nORDER BY due_date ASC, tax_type DESC"
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, ledger.WrapRepo("list schedules", err)
	}
	defer rows.Close()

	var result []tax.TaxSchedule
	for rows.Next() {
		s, err := scanSchedule(rows)
		if err != nil {
			return nil, ledger.WrapRepo("list schedules", err)
		}
		if s != nil {
			result = append(result, *s)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, ledger.WrapRepo("list schedules", err)
	}
	return result, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSchedule(row rowScanner) (*tax.TaxSchedule, error) {
	var (
		s       tax.TaxSchedule
		taxType string
		status  string
		paidAt  sql.NullTime
	)
	if err := row.Scan(&s.ID, &taxType, &s.DueDate, &s.AmountCents, &s.PeriodStart, &s.PeriodEnd, &status, &paidAt, &s.CreatedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	s.TaxType = tax.TaxType(taxType)
	s.Status = tax.ScheduleStatus(status)
	s.DueDate = ledger.CivilDate(s.DueDate)
	s.PeriodStart = ledger.CivilDate(s.PeriodStart)
	s.PeriodEnd = ledger.CivilDate(s.PeriodEnd)
	if paidAt.Valid {
		t := ledger.CivilDate(paidAt.Time)
		s.PaidAt = &t
	}
	s.CreatedAt = s.CreatedAt.UTC()
	return &s, nil
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}
