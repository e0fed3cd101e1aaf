package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	ledger "freelance-tax/internal/ledger/domain"
	simulation "freelance-tax/internal/simulation/domain"
)

// Repository persists simulations with JSONB parameters and results.
type Repository struct {
	db *sql.DB
}

// NewRepository constructs a repository.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// CreateSimulation inserts a simulation.
func (r *Repository) CreateSimulation(ctx context.Context, sim *simulation.Simulation) error {
	if r == nil || r.db == nil {
		return errors.New("simulation repo: nil db")
	}
	if sim == nil {
		return errors.New("simulation repo: nil simulation")
	}
	params, results, err := encode(sim)
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx, `
INSERT INTO simulations (id, name, scenario_type, parameters, results, created_at, updated_at)
VALUES ($1,$2,$3,$4,$5,$6,$7)`,
		sim.ID, sim.Name, string(sim.Scenario), params, results, sim.CreatedAt, sim.UpdatedAt)
	return ledger.WrapRepo("create simulation", err)
}

// GetSimulation fetches a simulation by id.
func (r *Repository) GetSimulation(ctx context.Context, id string) (*simulation.Simulation, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("simulation repo: nil db")
	}
	row := r.db.QueryRowContext(ctx, `
SELECT id, name, scenario_type, parameters, results, created_at, updated_at
FROM simulations
WHERE id = $1`, id)
	sim, err := scanSimulation(row)
	if err != nil {
		return nil, ledger.WrapRepo("get simulation", err)
	}
	if sim == nil {
		return nil, ledger.ErrNotFound
	}
	return sim, nil
}

// UpdateSimulation rewrites name, parameters and results.
func (r *Repository) UpdateSimulation(ctx context.Context, sim *simulation.Simulation) error {
	if r == nil || r.db == nil {
		return errors.New("simulation repo: nil db")
	}
	if sim == nil {
		return errors.New("simulation repo: nil simulation")
	}
	params, results, err := encode(sim)
	if err != nil {
		return err
	}
	res, err := r.db.ExecContext(ctx, `
UPDATE simulations
SET name = $2, scenario_type = $3, parameters = $4, results = $5, updated_at = $6
WHERE id = $1`, sim.ID, sim.Name, string(sim.Scenario), params, results, sim.UpdatedAt)
	if err != nil {
		return ledger.WrapRepo("update simulation", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return ledger.WrapRepo("update simulation", err)
	}
	if n == 0 {
		return ledger.ErrNotFound
	}
	return nil
}

// DeleteSimulation removes a simulation.
func (r *Repository) DeleteSimulation(ctx context.Context, id string) error {
	if r == nil || r.db == nil {
		return errors.New("simulation repo: nil db")
	}
	res, err := r.db.ExecContext(ctx, `DELETE FROM simulations WHERE id = $1`, id)
	if err != nil {
		return ledger.WrapRepo("delete simulation", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return ledger.WrapRepo("delete simulation", err)
	}
	if n == 0 {
		return ledger.ErrNotFound
	}
	return nil
}

// ListSimulations lists simulations, most recent first.
func (r *Repository) ListSimulations(ctx context.Context) ([]simulation.Simulation, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("simulation repo: nil db")
	}
	rows, err := r.db.QueryContext(ctx, `
SELECT id, name, scenario_type, parameters, results, created_at, updated_at
FROM simulations
ORDER BY created_at DESC, id ASC`)
	if err != nil {
		return nil, ledger.WrapRepo("list simulations", err)
	}
	defer rows.Close()

	var result []simulation.Simulation
	for rows.Next() {
		sim, err := scanSimulation(rows)
		if err != nil {
			return nil, ledger.WrapRepo("list simulations", err)
		}
		if sim != nil {
			result = append(result, *sim)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, ledger.WrapRepo("list simulations", err)
	}
	return result, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSimulation(row rowScanner) (*simulation.Simulation, error) {
	var (
		sim      simulation.Simulation
		scenario string
		params   []byte
		results  []byte
	)
	if err := row.Scan(&sim.ID, &sim.Name, &scenario, &params, &results, &sim.CreatedAt, &sim.UpdatedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	sim.Scenario = simulation.ScenarioType(scenario)
	if err := json.Unmarshal(params, &sim.Parameters); err != nil {
		return nil, err
	}
	if len(results) > 0 {
		var res simulation.Results
		if err := json.Unmarshal(results, &res); err != nil {
			return nil, err
		}
		sim.Results = &res
	}
	sim.CreatedAt = sim.CreatedAt.UTC()
	sim.UpdatedAt = sim.UpdatedAt.UTC()
	return &sim, nil
}

func encode(sim *simulation.Simulation) ([]byte, []byte, error) {
	params, err := json.Marshal(sim.Parameters)
	if err != nil {
		return nil, nil, err
	}
	if sim.Results == nil {
		return params, nil, nil
	}
	results, err := json.Marshal(sim.Results)
	if err != nil {
		return nil, nil, err
	}
	return params, results, nil
}
