package simulation

import "context"

// Repository stores simulations.
type Repository interface {
	CreateSimulation(ctx context.Context, sim *Simulation) error
	GetSimulation(ctx context.Context, id string) (*Simulation, error)
	UpdateSimulation(ctx context.Context, sim *Simulation) error
	DeleteSimulation(ctx context.Context, id string) error
	ListSimulations(ctx context.Context) ([]Simulation, error)
}
