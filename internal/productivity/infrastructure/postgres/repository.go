package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	ledger "freelance-tax/internal/ledger/domain"
	productivity "freelance-tax/internal/productivity/domain"
)

// WorkingDayRepository persists working days.
type WorkingDayRepository struct {
	db *sql.DB
}

// NewWorkingDayRepository constructs a repository.
func NewWorkingDayRepository(db *sql.DB) *WorkingDayRepository {
	return &WorkingDayRepository{db: db}
}

const workingDayColumns = `id, work_date, hours_worked, billable_hours, hourly_rate_cents, description, created_at, updated_at`

// CreateWorkingDay inserts a day.
func (r *WorkingDayRepository) CreateWorkingDay(ctx context.Context, d *productivity.WorkingDay) error {
	if r == nil || r.db == nil {
		return errors.New("working day repo: nil db")
	}
	if d == nil {
		return errors.New("working day repo: nil day")
	}
	_, err := r.db.ExecContext(ctx, `
INSERT INTO working_days (`+workingDayColumns+`)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
		d.ID, d.Date, d.HoursWorked, d.BillableHours, d.HourlyRateCents, d.Description, d.CreatedAt, d.UpdatedAt)
	return ledger.WrapRepo("create working day", err)
}

// GetWorkingDay fetches a day by id.
func (r *WorkingDayRepository) GetWorkingDay(ctx context.Context, id string) (*productivity.WorkingDay, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("working day repo: nil db")
	}
	row := r.db.QueryRowContext(ctx, `
SELECT `+workingDayColumns+`
FROM working_days
WHERE id = $1`, id)
	d, err := scanWorkingDay(row)
	if err != nil {
		return nil, ledger.WrapRepo("get working day", err)
	}
	if d == nil {
		return nil, ledger.ErrNotFound
	}
	return d, nil
}

// UpdateWorkingDay rewrites the editable columns.
func (r *WorkingDayRepository) UpdateWorkingDay(ctx context.Context, d *productivity.WorkingDay) error {
	if r == nil || r.db == nil {
		return errors.New("working day repo: nil db")
	}
	if d == nil {
		return errors.New("working day repo: nil day")
	}
	res, err := r.db.ExecContext(ctx, `
UPDATE working_days
SET work_date = $2, hours_worked = $3, billable_hours = $4, hourly_rate_cents = $5,
	description = $6, updated_at = $7
WHERE id = $1`,
		d.ID, d.Date, d.HoursWorked, d.BillableHours, d.HourlyRateCents, d.Description, d.UpdatedAt)
	if err != nil {
		return ledger.WrapRepo("update working day", err)
	}
	return requireAffected(res)
}

// DeleteWorkingDay removes a day.
func (r *WorkingDayRepository) DeleteWorkingDay(ctx context.Context, id string) error {
	if r == nil || r.db == nil {
		return errors.New("working day repo: nil db")
	}
	res, err := r.db.ExecContext(ctx, `DELETE FROM working_days WHERE id = $1`, id)
	if err != nil {
		return ledger.WrapRepo("delete working day", err)
	}
	return requireAffected(res)
}

// ListWorkingDays lists days in [from, to]; zero bounds are open.
func (r *WorkingDayRepository) ListWorkingDays(ctx context.Context, from, to time.Time) ([]productivity.WorkingDay, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("working day repo: nil db")
	}
	rows, err := r.db.QueryContext(ctx, `
SELECT `+workingDayColumns+`
FROM working_days
WHERE ($1::date IS NULL OR work_date >= $1)
	AND ($2::date IS NULL OR work_date <= $2)
ORDER BY work_date ASC, id ASC`, optionalDate(from), optionalDate(to))
	if err != nil {
		return nil, ledger.WrapRepo("list working days", err)
	}
	defer rows.Close()

	var result []productivity.WorkingDay
	for rows.Next() {
		d, err := scanWorkingDay(rows)
		if err != nil {
			return nil, ledger.WrapRepo("list working days", err)
		}
		if d != nil {
			result = append(result, *d)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, ledger.WrapRepo("list working days", err)
	}
	return result, nil
}

// KPIRepository persists monthly KPI snapshots as JSON payloads.
type KPIRepository struct {
	db *sql.DB
}

// NewKPIRepository constructs a repository.
func NewKPIRepository(db *sql.DB) *KPIRepository {
	return &KPIRepository{db: db}
}

// UpsertKPI replaces the snapshot of kpi.Month.
func (r *KPIRepository) UpsertKPI(ctx context.Context, kpi productivity.MonthlyKPI) error {
	if r == nil || r.db == nil {
		return errors.New("kpi repo: nil db")
	}
	payload, err := json.Marshal(kpi)
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx, `
INSERT INTO monthly_kpis (id, year, month, payload, created_at)
VALUES ($1,$2,$3,$4,$5)
ON CONFLICT (year, month) DO UPDATE SET
	payload = EXCLUDED.payload`,
		kpi.ID, kpi.Month.Year, kpi.Month.Month, payload, kpi.CreatedAt)
	return ledger.WrapRepo("upsert kpi", err)
}

// GetKPI loads the snapshot for month.
func (r *KPIRepository) GetKPI(ctx context.Context, month ledger.MonthID) (*productivity.MonthlyKPI, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("kpi repo: nil db")
	}
	row := r.db.QueryRowContext(ctx, `
SELECT id, payload, created_at FROM monthly_kpis WHERE year = $1 AND month = $2`, month.Year, month.Month)
	kpi, err := scanKPI(row)
	if err != nil {
		return nil, ledger.WrapRepo("get kpi", err)
	}
	if kpi == nil {
		return nil, ledger.ErrNotFound
	}
	return kpi, nil
}

// ListKPIs lists a year's snapshots by month.
func (r *KPIRepository) ListKPIs(ctx context.Context, year int) ([]productivity.MonthlyKPI, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("kpi repo: nil db")
	}
	rows, err := r.db.QueryContext(ctx, `
SELECT id, payload, created_at FROM monthly_kpis WHERE year = $1 ORDER BY month ASC`, year)
	if err != nil {
		return nil, ledger.WrapRepo("list kpis", err)
	}
	defer rows.Close()

	var result []productivity.MonthlyKPI
	for rows.Next() {
		kpi, err := scanKPI(rows)
		if err != nil {
			return nil, ledger.WrapRepo("list kpis", err)
		}
		if kpi != nil {
			result = append(result, *kpi)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, ledger.WrapRepo("list kpis", err)
	}
	return result, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanWorkingDay(row rowScanner) (*productivity.WorkingDay, error) {
	var d productivity.WorkingDay
	if err := row.Scan(&d.ID, &d.Date, &d.HoursWorked, &d.BillableHours, &d.HourlyRateCents, &d.Description, &d.CreatedAt, &d.UpdatedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	d.Date = ledger.CivilDate(d.Date)
	d.CreatedAt = d.CreatedAt.UTC()
	d.UpdatedAt = d.UpdatedAt.UTC()
	return &d, nil
}

// scanKPI decodes the payload; the stored id and creation time win over
// the payload copies so recomputation keeps the first snapshot's identity.
func scanKPI(row rowScanner) (*productivity.MonthlyKPI, error) {
	var (
		id        string
		payload   []byte
		createdAt time.Time
	)
	if err := row.Scan(&id, &payload, &createdAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	var kpi productivity.MonthlyKPI
	if err := json.Unmarshal(payload, &kpi); err != nil {
		return nil, err
	}
	kpi.ID = id
	kpi.CreatedAt = createdAt.UTC()
	return &kpi, nil
}

func optionalDate(t time.Time) sql.NullTime {
	if t.IsZero() {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t, Valid: true}
}

func requireAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ledger.ErrNotFound
	}
	return nil
}
