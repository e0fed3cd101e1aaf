package memory

import (
	"context"
	"sort"
	"sync"

	ledger "freelance-tax/internal/ledger/domain"
	tax "freelance-tax/internal/tax/domain"
)

// ProvisionRepository is an in-memory provision store.
type ProvisionRepository struct {
	mu   sync.RWMutex
	data map[string]tax.Provision
}

// NewProvisionRepository constructs a repository.
func NewProvisionRepository() *ProvisionRepository {
	return &ProvisionRepository{data: make(map[string]tax.Provision)}
}

// UpsertProvision stores p, replacing any provision with the same id.
func (r *ProvisionRepository) UpsertProvision(ctx context.Context, p tax.Provision) error {
	_ = ctx
	r.mu.Lock()
	r.data[p.ID] = p
	r.mu.Unlock()
	return nil
}

// ListProvisions returns provisions ordered by due date, filtered on the due month when given.
func (r *ProvisionRepository) ListProvisions(ctx context.Context, month *ledger.MonthID) ([]tax.Provision, error) {
	_ = ctx
	r.mu.RLock()
	out := make([]tax.Provision, 0, len(r.data))
	for _, p := range r.data {
		if month != nil && !month.Contains(p.DueDate) {
			continue
		}
		out = append(out, p)
	}
	r.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool {
		if !out[i].DueDate.Equal(out[j].DueDate) {
			return out[i].DueDate.Before(out[j].DueDate)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// ScheduleRepository is an in-memory schedule store.
type ScheduleRepository struct {
	mu   sync.RWMutex
	data map[string]tax.TaxSchedule
}

// NewScheduleRepository constructs a repository.
func NewScheduleRepository() *ScheduleRepository {
	return &ScheduleRepository{data: make(map[string]tax.TaxSchedule)}
}

// UpsertSchedule merges s into the entry for the same tax type and period.
func (r *ScheduleRepository) UpsertSchedule(ctx context.Context, s tax.TaxSchedule) (tax.TaxSchedule, error) {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, existing := range r.data {
		if existing.TaxType != s.TaxType || !existing.PeriodStart.Equal(s.PeriodStart) || !existing.PeriodEnd.Equal(s.PeriodEnd) {
			continue
		}
		if existing.Status == tax.SchedulePaid {
			return cloneSchedule(existing), nil
		}
		existing.DueDate = s.DueDate
		existing.AmountCents = s.AmountCents
		existing.Status = s.Status
		r.data[id] = existing
		return cloneSchedule(existing), nil
	}
	r.data[s.ID] = cloneSchedule(s)
	return cloneSchedule(s), nil
}

// DeletePendingSchedules removes unpaid entries matching keys.
func (r *ScheduleRepository) DeletePendingSchedules(ctx context.Context, keys []tax.ScheduleKey) (int, error) {
	_ = ctx
	wanted := make(map[tax.ScheduleKey]struct{}, len(keys))
	for _, k := range keys {
		wanted[k] = struct{}{}
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	removed := 0
	for id, existing := range r.data {
		if existing.Status == tax.SchedulePaid {
			continue
		}
		if _, ok := wanted[existing.Key()]; ok {
			delete(r.data, id)
			removed++
		}
	}
	return removed, nil
}

// GetSchedule loads an entry by id.
func (r *ScheduleRepository) GetSchedule(ctx context.Context, id string) (*tax.TaxSchedule, error) {
	_ = ctx
	r.mu.RLock()
	s, ok := r.data[id]
	r.mu.RUnlock()
	if !ok {
		return nil, ledger.ErrNotFound
	}
	out := cloneSchedule(s)
	return &out, nil
}

// UpdateSchedule overwrites an existing entry.
func (r *ScheduleRepository) UpdateSchedule(ctx context.Context, s tax.TaxSchedule) error {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.data[s.ID]; !ok {
		return ledger.ErrNotFound
	}
	r.data[s.ID] = cloneSchedule(s)
	return nil
}

// ListSchedules returns entries ordered by due date. An empty status lists all.
func (r *ScheduleRepository) ListSchedules(ctx context.Context, status tax.ScheduleStatus) ([]tax.TaxSchedule, error) {
	_ = ctx
	r.mu.RLock()
	out := make([]tax.TaxSchedule, 0, len(r.data))
	for _, s := range r.data {
		if status != "" && s.Status != status {
			continue
		}
		out = append(out, cloneSchedule(s))
	}
	r.mu.RUnlock()
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].DueDate.Equal(out[j].DueDate) {
			return out[i].DueDate.Before(out[j].DueDate)
		}
		return out[i].TaxType > out[j].TaxType
	})
	return out, nil
}

func cloneSchedule(s tax.TaxSchedule) tax.TaxSchedule {
	if s.PaidAt != nil {
		t := *s.PaidAt
		s.PaidAt = &t
	}
	return s
}
