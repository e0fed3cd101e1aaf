package memory

import (
	"context"
	"encoding/json"
	"sort"
	"sync"

	ledger "freelance-tax/internal/ledger/domain"
	simulation "freelance-tax/internal/simulation/domain"
)

// Repository is an in-memory simulation store.
type Repository struct {
	mu   sync.RWMutex
	data map[string][]byte
}

// NewRepository constructs a repository.
func NewRepository() *Repository {
	return &Repository{data: make(map[string][]byte)}
}

// CreateSimulation stores a new simulation.
func (r *Repository) CreateSimulation(ctx context.Context, sim *simulation.Simulation) error {
	_ = ctx
	if sim == nil {
		return ledger.NewValidationError("simulation", "simulation vide")
	}
	raw, err := json.Marshal(sim)
	if err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.data[sim.ID]; exists {
		return ledger.NewValidationError("id", "simulation déjà existante: "+sim.ID)
	}
	r.data[sim.ID] = raw
	return nil
}

// GetSimulation loads a simulation by id.
func (r *Repository) GetSimulation(ctx context.Context, id string) (*simulation.Simulation, error) {
	_ = ctx
	r.mu.RLock()
	raw, ok := r.data[id]
	r.mu.RUnlock()
	if !ok {
		return nil, ledger.ErrNotFound
	}
	var sim simulation.Simulation
	if err := json.Unmarshal(raw, &sim); err != nil {
		return nil, err
	}
	return &sim, nil
}

// UpdateSimulation overwrites a stored simulation.
func (r *Repository) UpdateSimulation(ctx context.Context, sim *simulation.Simulation) error {
	_ = ctx
	if sim == nil {
		return ledger.NewValidationError("simulation", "simulation vide")
	}
	raw, err := json.Marshal(sim)
	if err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.data[sim.ID]; !ok {
		return ledger.ErrNotFound
	}
	r.data[sim.ID] = raw
	return nil
}

// DeleteSimulation removes a simulation.
func (r *Repository) DeleteSimulation(ctx context.Context, id string) error {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.data[id]; !ok {
		return ledger.ErrNotFound
	}
	delete(r.data, id)
	return nil
}

// ListSimulations returns simulations, most recent first.
func (r *Repository) ListSimulations(ctx context.Context) ([]simulation.Simulation, error) {
	_ = ctx
	r.mu.RLock()
	out := make([]simulation.Simulation, 0, len(r.data))
	for _, raw := range r.data {
		var sim simulation.Simulation
		if err := json.Unmarshal(raw, &sim); err != nil {
			r.mu.RUnlock()
			return nil, err
		}
		out = append(out, sim)
	}
	r.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}
