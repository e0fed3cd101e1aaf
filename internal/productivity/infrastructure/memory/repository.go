package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	ledger "freelance-tax/internal/ledger/domain"
	productivity "freelance-tax/internal/productivity/domain"
)

// WorkingDayRepository is an in-memory working day store.
type WorkingDayRepository struct {
	mu   sync.RWMutex
	data map[string]productivity.WorkingDay
}

// NewWorkingDayRepository constructs a repository.
func NewWorkingDayRepository() *WorkingDayRepository {
	return &WorkingDayRepository{data: make(map[string]productivity.WorkingDay)}
}

// CreateWorkingDay stores a new day.
func (r *WorkingDayRepository) CreateWorkingDay(ctx context.Context, d *productivity.WorkingDay) error {
	_ = ctx
	if d == nil {
		return ledger.NewValidationError("working_day", "journée vide")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.data[d.ID]; exists {
		return ledger.NewValidationError("id", "journée déjà existante: "+d.ID)
	}
	r.data[d.ID] = *d
	return nil
}

// GetWorkingDay loads a day by id.
func (r *WorkingDayRepository) GetWorkingDay(ctx context.Context, id string) (*productivity.WorkingDay, error) {
	_ = ctx
	r.mu.RLock()
	d, ok := r.data[id]
	r.mu.RUnlock()
	if !ok {
		return nil, ledger.ErrNotFound
	}
	return &d, nil
}

// UpdateWorkingDay overwrites a stored day.
func (r *WorkingDayRepository) UpdateWorkingDay(ctx context.Context, d *productivity.WorkingDay) error {
	_ = ctx
	if d == nil {
		return ledger.NewValidationError("working_day", "journée vide")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.data[d.ID]; !ok {
		return ledger.ErrNotFound
	}
	r.data[d.ID] = *d
	return nil
}

// DeleteWorkingDay removes a day.
func (r *WorkingDayRepository) DeleteWorkingDay(ctx context.Context, id string) error {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.data[id]; !ok {
		return ledger.ErrNotFound
	}
	delete(r.data, id)
	return nil
}

// ListWorkingDays returns days in [from, to] ordered by date. Zero bounds are open.
func (r *WorkingDayRepository) ListWorkingDays(ctx context.Context, from, to time.Time) ([]productivity.WorkingDay, error) {
	_ = ctx
	r.mu.RLock()
	out := make([]productivity.WorkingDay, 0, len(r.data))
	for _, d := range r.data {
		if !from.IsZero() && d.Date.Before(from) {
			continue
		}
		if !to.IsZero() && d.Date.After(to) {
			continue
		}
		out = append(out, d)
	}
	r.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.Before(out[j].Date)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// KPIRepository keeps one KPI snapshot per month.
type KPIRepository struct {
	mu   sync.RWMutex
	data map[ledger.MonthID]productivity.MonthlyKPI
}

// NewKPIRepository constructs a repository.
func NewKPIRepository() *KPIRepository {
	return &KPIRepository{data: make(map[ledger.MonthID]productivity.MonthlyKPI)}
}

// UpsertKPI replaces the month's snapshot, keeping the first id and creation time.
func (r *KPIRepository) UpsertKPI(ctx context.Context, kpi productivity.MonthlyKPI) error {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.data[kpi.Month]; ok {
		kpi.ID = existing.ID
		kpi.CreatedAt = existing.CreatedAt
	}
	r.data[kpi.Month] = kpi
	return nil
}

// GetKPI loads the snapshot for month.
func (r *KPIRepository) GetKPI(ctx context.Context, month ledger.MonthID) (*productivity.MonthlyKPI, error) {
	_ = ctx
	r.mu.RLock()
	kpi, ok := r.data[month]
	r.mu.RUnlock()
	if !ok {
		return nil, ledger.ErrNotFound
	}
	return &kpi, nil
}

// ListKPIs returns the year's snapshots by month.
func (r *KPIRepository) ListKPIs(ctx context.Context, year int) ([]productivity.MonthlyKPI, error) {
	_ = ctx
	r.mu.RLock()
	var out []productivity.MonthlyKPI
	for month, kpi := range r.data {
		if month.Year == year {
			out = append(out, kpi)
		}
	}
	r.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].Month.Before(out[j].Month) })
	return out, nil
}
