package tax

import (
	"context"

	ledger "freelance-tax/internal/ledger/domain"
)

// ProvisionRepository stores provisions. Upsert replaces by id.
type ProvisionRepository interface {
	UpsertProvision(ctx context.Context, p Provision) error
	ListProvisions(ctx context.Context, month *ledger.MonthID) ([]Provision, error)
}

// ScheduleRepository stores tax schedule entries. UpsertSchedule keeps at
// most one entry per (tax type, period); a paid entry is never replaced.
// DeletePendingSchedules removes the unpaid entries of keys and reports how
// many were removed; paid entries are never deleted.
type ScheduleRepository interface {
	UpsertSchedule(ctx context.Context, s TaxSchedule) (TaxSchedule, error)
	DeletePendingSchedules(ctx context.Context, keys []ScheduleKey) (int, error)
	GetSchedule(ctx context.Context, id string) (*TaxSchedule, error)
	UpdateSchedule(ctx context.Context, s TaxSchedule) error
	ListSchedules(ctx context.Context, status ScheduleStatus) ([]TaxSchedule, error)
}
