package memory

import (
	"context"
	"sync"
	"time"

	ledger "freelance-tax/internal/ledger/domain"
)

// SettingsRepository keeps the settings row and month closures in memory.
type SettingsRepository struct {
	mu       sync.RWMutex
	settings *ledger.Settings
	closed   map[ledger.MonthID]time.Time
}

// NewSettingsRepository constructs a repository with nothing saved.
func NewSettingsRepository() *SettingsRepository {
	return &SettingsRepository{closed: make(map[ledger.MonthID]time.Time)}
}

// LoadSettings returns (nil, nil) until settings are saved.
func (r *SettingsRepository) LoadSettings(ctx context.Context) (*ledger.Settings, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.settings == nil {
		return nil, nil
	}
	s := *r.settings
	return &s, nil
}

// SaveSettings replaces the settings row.
func (r *SettingsRepository) SaveSettings(ctx context.Context, settings ledger.Settings) error {
	_ = ctx
	r.mu.Lock()
	r.settings = &settings
	r.mu.Unlock()
	return nil
}

// GetMonthStatus returns the closure state of month.
func (r *SettingsRepository) GetMonthStatus(ctx context.Context, month ledger.MonthID) (ledger.MonthStatus, error) {
	_ = ctx
	r.mu.RLock()
	closedAt, ok := r.closed[month]
	r.mu.RUnlock()
	status := ledger.MonthStatus{Month: month}
	if ok {
		status.ClosedAt = &closedAt
	}
	return status, nil
}

// CloseMonth records the closure; closing twice keeps the first timestamp.
func (r *SettingsRepository) CloseMonth(ctx context.Context, month ledger.MonthID, closedAt time.Time) error {
	_ = ctx
	r.mu.Lock()
	if _, ok := r.closed[month]; !ok {
		r.closed[month] = closedAt.UTC()
	}
	r.mu.Unlock()
	return nil
}
