package productivity

import (
	"context"
	"time"

	ledger "freelance-tax/internal/ledger/domain"
)

// WorkingDayRepository stores working days.
type WorkingDayRepository interface {
	CreateWorkingDay(ctx context.Context, d *WorkingDay) error
	GetWorkingDay(ctx context.Context, id string) (*WorkingDay, error)
	UpdateWorkingDay(ctx context.Context, d *WorkingDay) error
	DeleteWorkingDay(ctx context.Context, id string) error
	// ListWorkingDays returns days within [from, to] ordered by date.
	ListWorkingDays(ctx context.Context, from, to time.Time) ([]WorkingDay, error)
}

// KPIRepository stores monthly KPI snapshots, one per month.
type KPIRepository interface {
	UpsertKPI(ctx context.Context, kpi MonthlyKPI) error
	GetKPI(ctx context.Context, month ledger.MonthID) (*MonthlyKPI, error)
	ListKPIs(ctx context.Context, year int) ([]MonthlyKPI, error)
}
