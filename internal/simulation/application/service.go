package application

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	ledger "freelance-tax/internal/ledger/domain"
	"freelance-tax/internal/observability/metrics"
	simulation "freelance-tax/internal/simulation/domain"
)

// Service manages what-if simulations.
type Service struct {
	repo   simulation.Repository
	clock  ledger.Clock
	newID  func() string
	logger zerolog.Logger
}

// NewService constructs a service.
func NewService(repo simulation.Repository, clock ledger.Clock, logger zerolog.Logger) (*Service, error) {
	if repo == nil {
		return nil, errors.New("simulation service: nil repo")
	}
	if clock == nil {
		clock = ledger.SystemClock{}
	}
	return &Service{
		repo:   repo,
		clock:  clock,
		newID:  uuid.NewString,
		logger: logger.With().Str("component", "simulation").Logger(),
	}, nil
}

// SimulationRequest is the boundary form of a simulation.
type SimulationRequest struct {
	Name       string                `json:"name"`
	Scenario   string                `json:"scenario_type"`
	Parameters simulation.Parameters `json:"parameters"`
}

// CreateSimulation stores a new simulation without results.
func (s *Service) CreateSimulation(ctx context.Context, req SimulationRequest) (sim *simulation.Simulation, err error) {
	defer observe("create_simulation", time.Now(), &err)
	scenario, err := simulation.ParseScenarioType(req.Scenario)
	if err != nil {
		return nil, err
	}
	sim, err = simulation.NewSimulation(s.newID(), req.Name, scenario, req.Parameters, s.clock.Now())
	if err != nil {
		return nil, err
	}
	if err := s.repo.CreateSimulation(ctx, sim); err != nil {
		return nil, err
	}
	return sim, nil
}

// GetSimulation loads a simulation.
func (s *Service) GetSimulation(ctx context.Context, id string) (*simulation.Simulation, error) {
	return s.repo.GetSimulation(ctx, id)
}

// ListSimulations lists simulations, newest first.
func (s *Service) ListSimulations(ctx context.Context) ([]simulation.Simulation, error) {
	return s.repo.ListSimulations(ctx)
}

// UpdateSimulation replaces name, scenario and parameters.
// Results of the previous run are kept until the next run.
func (s *Service) UpdateSimulation(ctx context.Context, id string, req SimulationRequest) (sim *simulation.Simulation, err error) {
	defer observe("update_simulation", time.Now(), &err)
	scenario, err := simulation.ParseScenarioType(req.Scenario)
	if err != nil {
		return nil, err
	}
	sim, err = s.repo.GetSimulation(ctx, id)
	if err != nil {
		return nil, err
	}
	// validate through the constructor, then carry identity and results over
	next, err := simulation.NewSimulation(sim.ID, req.Name, scenario, req.Parameters, s.clock.Now())
	if err != nil {
		return nil, err
	}
	next.CreatedAt = sim.CreatedAt
	next.Results = sim.Results
	if err := s.repo.UpdateSimulation(ctx, next); err != nil {
		return nil, err
	}
	return next, nil
}

// DeleteSimulation removes a simulation.
func (s *Service) DeleteSimulation(ctx context.Context, id string) (err error) {
	defer observe("delete_simulation", time.Now(), &err)
	return s.repo.DeleteSimulation(ctx, id)
}

// RunSimulation computes the scenario and persists its results.
func (s *Service) RunSimulation(ctx context.Context, id string) (sim *simulation.Simulation, err error) {
	defer observe("run_simulation", time.Now(), &err)
	sim, err = s.repo.GetSimulation(ctx, id)
	if err != nil {
		return nil, err
	}
	if _, err := simulation.Run(sim, s.clock.Now()); err != nil {
		return nil, err
	}
	if err := s.repo.UpdateSimulation(ctx, sim); err != nil {
		return nil, err
	}
	s.logger.Info().Str("simulation_id", sim.ID).Str("scenario", string(sim.Scenario)).Msg("simulation run")
	return sim, nil
}

// DailyRateRequest holds the inputs of a one-off daily rate calculation.
type DailyRateRequest struct {
	TargetAnnualIncomeCents int64   `json:"target_annual_income_cents"`
	WorkingDaysPerYear      float64 `json:"working_days_per_year"`
	AnnualExpensesCents     int64   `json:"annual_expenses_cents"`
	VATRatePPM              int64   `json:"vat_rate_ppm"`
	URSSAFRatePPM           int64   `json:"urssaf_rate_ppm"`
	IncomeTaxRatePPM        int64   `json:"income_tax_rate_ppm"`
}

// OptimalDailyRate computes the daily rate reaching the target net income.
// Without working days the rate is zero.
func (s *Service) OptimalDailyRate(req DailyRateRequest) (simulation.DailyRateCalculation, error) {
	for field, rate := range map[string]int64{
		"vat_rate_ppm":        req.VATRatePPM,
		"urssaf_rate_ppm":     req.URSSAFRatePPM,
		"income_tax_rate_ppm": req.IncomeTaxRatePPM,
	} {
		if err := ledger.ValidateRatePPM(field, rate); err != nil {
			return simulation.DailyRateCalculation{}, err
		}
	}
	calc := simulation.CalculateOptimalDailyRate(req.TargetAnnualIncomeCents, req.WorkingDaysPerYear,
		req.AnnualExpensesCents, req.VATRatePPM, req.URSSAFRatePPM, req.IncomeTaxRatePPM)
	if !calc.Reachable() {
		return calc, ledger.NewValidationError("urssaf_rate_ppm", "taux cumulés supérieurs ou égaux à 100%")
	}
	return calc, nil
}

// IncomeRequest holds the inputs of a one-off income projection.
type IncomeRequest struct {
	MonthlyAverageRevenueCents int64 `json:"monthly_average_revenue_cents"`
	WorkingMonths              int   `json:"working_months"`
	AnnualExpensesCents        int64 `json:"annual_expenses_cents"`
	VATRatePPM                 int64 `json:"vat_rate_ppm"`
	URSSAFRatePPM              int64 `json:"urssaf_rate_ppm"`
}

// ProjectAnnualIncome projects revenue, taxes and net income.
func (s *Service) ProjectAnnualIncome(req IncomeRequest) (simulation.AnnualIncomeProjection, error) {
	if req.WorkingMonths < 0 {
		return simulation.AnnualIncomeProjection{}, ledger.NewValidationError("working_months", "nombre de mois négatif")
	}
	if err := ledger.ValidateRatePPM("vat_rate_ppm", req.VATRatePPM); err != nil {
		return simulation.AnnualIncomeProjection{}, err
	}
	if err := ledger.ValidateRatePPM("urssaf_rate_ppm", req.URSSAFRatePPM); err != nil {
		return simulation.AnnualIncomeProjection{}, err
	}
	return simulation.ProjectAnnualIncome(req.MonthlyAverageRevenueCents, req.WorkingMonths,
		req.AnnualExpensesCents, req.VATRatePPM, req.URSSAFRatePPM), nil
}

func observe(command string, start time.Time, errp *error) {
	result := metrics.ResultSuccess
	if errp != nil && *errp != nil {
		result = metrics.ResultError
	}
	metrics.ObserveCommand(command, result, time.Since(start))
}
