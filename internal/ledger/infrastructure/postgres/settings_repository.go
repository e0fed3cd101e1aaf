package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	ledger "freelance-tax/internal/ledger/domain"
)

// SettingsRepository persists the singleton settings row and month closures.
type SettingsRepository struct {
	db *sql.DB
}

// NewSettingsRepository constructs a repository.
func NewSettingsRepository(db *sql.DB) *SettingsRepository {
	return &SettingsRepository{db: db}
}

// LoadSettings returns nil when no row exists.
func (r *SettingsRepository) LoadSettings(ctx context.Context) (*ledger.Settings, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("settings repo: nil db")
	}
	var s ledger.Settings
	err := r.db.QueryRowContext(ctx, `
SELECT default_vat_rate_ppm, urssaf_rate_ppm, vat_declare_day, vat_pay_day, urssaf_pay_day,
	buffer_cents, forecast_ht_cents, forecast_expenses_ttc_cents, forecast_expense_vat_rate_ppm
FROM settings
WHERE id = 1`).Scan(
		&s.DefaultVATRatePPM, &s.URSSAFRatePPM, &s.VATDeclareDay, &s.VATPayDay, &s.URSSAFPayDay,
		&s.BufferCents, &s.ForecastHTCents, &s.ForecastExpensesTTCCents, &s.ForecastExpenseVATRatePPM,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, ledger.WrapRepo("load settings", err)
	}
	return &s, nil
}

// SaveSettings upserts the settings row.
func (r *SettingsRepository) SaveSettings(ctx context.Context, s ledger.Settings) error {
	if r == nil || r.db == nil {
		return errors.New("settings repo: nil db")
	}
	_, err := r.db.ExecContext(ctx, `
INSERT INTO settings (
	id, default_vat_rate_ppm, urssaf_rate_ppm, vat_declare_day, vat_pay_day, urssaf_pay_day,
	buffer_cents, forecast_ht_cents, forecast_expenses_ttc_cents, forecast_expense_vat_rate_ppm, updated_at
) VALUES (1,$1,$2,$3,$4,$5,$6,$7,$8,$9,NOW())
ON CONFLICT (id) DO UPDATE SET
	default_vat_rate_ppm = EXCLUDED.default_vat_rate_ppm,
	urssaf_rate_ppm = EXCLUDED.urssaf_rate_ppm,
	vat_declare_day = EXCLUDED.vat_declare_day,
	vat_pay_day = EXCLUDED.vat_pay_day,
	urssaf_pay_day = EXCLUDED.urssaf_pay_day,
	buffer_cents = EXCLUDED.buffer_cents,
	forecast_ht_cents = EXCLUDED.forecast_ht_cents,
	forecast_expenses_ttc_cents = EXCLUDED.forecast_expenses_ttc_cents,
	forecast_expense_vat_rate_ppm = EXCLUDED.forecast_expense_vat_rate_ppm,
	updated_at = NOW()`,
		s.DefaultVATRatePPM, s.URSSAFRatePPM, s.VATDeclareDay, s.VATPayDay, s.URSSAFPayDay,
		s.BufferCents, s.ForecastHTCents, s.ForecastExpensesTTCCents, s.ForecastExpenseVATRatePPM)
	return ledger.WrapRepo("save settings", err)
}

// GetMonthStatus returns the closure state of month.
func (r *SettingsRepository) GetMonthStatus(ctx context.Context, month ledger.MonthID) (ledger.MonthStatus, error) {
	status := ledger.MonthStatus{Month: month}
	if r == nil || r.db == nil {
		return status, errors.New("settings repo: nil db")
	}
	var closedAt sql.NullTime
	err := r.db.QueryRowContext(ctx, `
SELECT closed_at FROM month_status WHERE year = $1 AND month = $2`, month.Year, month.Month).Scan(&closedAt)
	if err == sql.ErrNoRows {
		return status, nil
	}
	if err != nil {
		return status, ledger.WrapRepo("get month status", err)
	}
	if closedAt.Valid {
		t := closedAt.Time.UTC()
		status.ClosedAt = &t
	}
	return status, nil
}

// CloseMonth records the closure; an existing closure is kept.
func (r *SettingsRepository) CloseMonth(ctx context.Context, month ledger.MonthID, closedAt time.Time) error {
	if r == nil || r.db == nil {
		return errors.New("settings repo: nil db")
	}
	_, err := r.db.ExecContext(ctx, `
INSERT INTO month_status (year, month, closed_at)
VALUES ($1,$2,$3)
ON CONFLICT (year, month) DO NOTHING`, month.Year, month.Month, closedAt.UTC())
	return ledger.WrapRepo("close month", err)
}
