package simulation

import (
	"errors"
	"fmt"
	"strings"
	"time"

	ledger "freelance-tax/internal/ledger/domain"
)

// ScenarioType is the closed set of simulation scenarios.
type ScenarioType string

const (
	ScenarioDailyRateOptimization  ScenarioType = "daily_rate_optimization"
	ScenarioAnnualIncomeProjection ScenarioType = "annual_income_projection"
	ScenarioTaxOptimization        ScenarioType = "tax_optimization"
	ScenarioWorkingDaysImpact      ScenarioType = "working_days_impact"
)

// ParseScenarioType accepts snake_case and CamelCase scenario names.
func ParseScenarioType(value string) (ScenarioType, error) {
	key := strings.ToLower(strings.ReplaceAll(strings.TrimSpace(value), "_", ""))
	switch key {
	case "dailyrateoptimization":
		return ScenarioDailyRateOptimization, nil
	case "annualincomeprojection":
		return ScenarioAnnualIncomeProjection, nil
	case "taxoptimization":
		return ScenarioTaxOptimization, nil
	case "workingdaysimpact":
		return ScenarioWorkingDaysImpact, nil
	}
	return "", ledger.NewValidationError("scenario_type", "scénario inconnu: "+value)
}

// ErrScenarioNotImplemented is returned for scenarios without a runner yet.
var ErrScenarioNotImplemented = &ledger.ValidationError{Field: "scenario_type", Message: "scénario non implémenté"}

// Parameters is the optional input bag shared by all scenarios.
type Parameters struct {
	TargetAnnualIncomeCents  *int64     `json:"target_annual_income_cents,omitempty"`
	WorkingDaysPerMonth      *float64   `json:"working_days_per_month,omitempty"`
	WorkingHoursPerDay       *float64   `json:"working_hours_per_day,omitempty"`
	CurrentHourlyRateCents   *int64     `json:"current_hourly_rate_cents,omitempty"`
	VATRatePPM               *int64     `json:"vat_rate_ppm,omitempty"`
	URSSAFRatePPM            *int64     `json:"urssaf_rate_ppm,omitempty"`
	IncomeTaxRatePPM         *int64     `json:"income_tax_rate_ppm,omitempty"`
	MonthlyFixedCostsCents   *int64     `json:"monthly_fixed_costs_cents,omitempty"`
	AnnualVariableCostsCents *int64     `json:"annual_variable_costs_cents,omitempty"`
	SimulationStartDate      *time.Time `json:"simulation_start_date,omitempty"`
	SimulationHorizonMonths  *int       `json:"simulation_horizon_months,omitempty"`
}

// AnnualExpensesCents is twelve months of fixed costs plus variable costs.
func (p Parameters) AnnualExpensesCents() int64 {
	var total int64
	if p.MonthlyFixedCostsCents != nil {
		total += *p.MonthlyFixedCostsCents * 12
	}
	if p.AnnualVariableCostsCents != nil {
		total += *p.AnnualVariableCostsCents
	}
	return total
}

// MonthBreakdown is one simulated month.
type MonthBreakdown struct {
	Month          ledger.MonthID `json:"month"`
	RevenueHTCents int64          `json:"revenue_ht_cents"`
	TaxesCents     int64          `json:"taxes_cents"`
	ExpensesCents  int64          `json:"expenses_cents"`
	NetCents       int64          `json:"net_cents"`
	WorkingDays    float64        `json:"working_days"`
}

// Results is the snapshot written by a run.
type Results struct {
	OptimalDailyRateCents        *int64           `json:"optimal_daily_rate_cents,omitempty"`
	OptimalHourlyRateCents       *int64           `json:"optimal_hourly_rate_cents,omitempty"`
	ProjectedAnnualIncomeHTCents *int64           `json:"projected_annual_income_ht_cents,omitempty"`
	ProjectedAnnualTaxesCents    *int64           `json:"projected_annual_taxes_cents,omitempty"`
	ProjectedNetIncomeCents      *int64           `json:"projected_net_income_cents,omitempty"`
	WorkingDaysNeeded            *float64         `json:"working_days_needed,omitempty"`
	MonthlyBreakdowns            []MonthBreakdown `json:"monthly_breakdowns"`
}

// Simulation is a named what-if scenario and its latest results.
// Editing parameters keeps previous results until the next run.
type Simulation struct {
	ID         string       `json:"id"`
	Name       string       `json:"name"`
	Scenario   ScenarioType `json:"scenario_type"`
	Parameters Parameters   `json:"parameters"`
	Results    *Results     `json:"results,omitempty"`
	CreatedAt  time.Time    `json:"created_at"`
	UpdatedAt  time.Time    `json:"updated_at"`
}

// NewSimulation creates a simulation without results.
func NewSimulation(id, name string, scenario ScenarioType, params Parameters, now time.Time) (*Simulation, error) {
	if id == "" {
		return nil, ledger.NewValidationError("id", "identifiant requis")
	}
	if strings.TrimSpace(name) == "" {
		return nil, ledger.NewValidationError("name", "nom requis")
	}
	if _, err := ParseScenarioType(string(scenario)); err != nil {
		return nil, err
	}
	return &Simulation{
		ID:         id,
		Name:       strings.TrimSpace(name),
		Scenario:   scenario,
		Parameters: params,
		CreatedAt:  now.UTC(),
		UpdatedAt:  now.UTC(),
	}, nil
}

// Run computes the scenario and overwrites the simulation's results.
func Run(sim *Simulation, now time.Time) (*Results, error) {
	if sim == nil {
		return nil, errors.New("simulation: nil simulation")
	}
	var (
		res *Results
		err error
	)
	switch sim.Scenario {
	case ScenarioDailyRateOptimization:
		res, err = runDailyRate(sim.Parameters)
	case ScenarioAnnualIncomeProjection:
		res, err = runAnnualIncome(sim.Parameters, now)
	case ScenarioTaxOptimization, ScenarioWorkingDaysImpact:
		err = ErrScenarioNotImplemented
	default:
		err = ledger.NewValidationError("scenario_type", fmt.Sprintf("scénario inconnu: %s", sim.Scenario))
	}
	if err != nil {
		return nil, err
	}
	sim.Results = res
	sim.UpdatedAt = now.UTC()
	return res, nil
}

func missing(field string) error {
	return ledger.NewValidationError(field, "paramètre requis")
}

func runDailyRate(p Parameters) (*Results, error) {
	if p.TargetAnnualIncomeCents == nil {
		return nil, missing("target_annual_income_cents")
	}
	if p.WorkingDaysPerMonth == nil {
		return nil, missing("working_days_per_month")
	}
	if p.URSSAFRatePPM == nil {
		return nil, missing("urssaf_rate_ppm")
	}
	daysPerYear := *p.WorkingDaysPerMonth * 12
	calc := CalculateOptimalDailyRate(*p.TargetAnnualIncomeCents, daysPerYear, p.AnnualExpensesCents(),
		valueOr(p.VATRatePPM, 0), *p.URSSAFRatePPM, valueOr(p.IncomeTaxRatePPM, 0))
	if !calc.Reachable() {
		return nil, ledger.NewValidationError("urssaf_rate_ppm", "taux cumulés supérieurs ou égaux à 100%")
	}

	res := &Results{
		OptimalDailyRateCents:        &calc.OptimalDailyRateCents,
		ProjectedAnnualIncomeHTCents: &calc.TotalRevenueHTNeededCents,
		ProjectedAnnualTaxesCents:    &calc.TotalTaxesCents,
		ProjectedNetIncomeCents:      &calc.TargetAnnualIncomeCents,
		WorkingDaysNeeded:            &daysPerYear,
		MonthlyBreakdowns:            []MonthBreakdown{},
	}
	if p.WorkingHoursPerDay != nil && *p.WorkingHoursPerDay > 0 {
		hourly := int64(float64(calc.OptimalDailyRateCents) / *p.WorkingHoursPerDay)
		res.OptimalHourlyRateCents = &hourly
		if p.CurrentHourlyRateCents != nil && *p.CurrentHourlyRateCents > 0 {
			needed := float64(calc.TotalRevenueHTNeededCents) / (float64(*p.CurrentHourlyRateCents) * *p.WorkingHoursPerDay)
			res.WorkingDaysNeeded = &needed
		}
	}
	return res, nil
}

func runAnnualIncome(p Parameters, now time.Time) (*Results, error) {
	if p.CurrentHourlyRateCents == nil {
		return nil, missing("current_hourly_rate_cents")
	}
	if p.WorkingHoursPerDay == nil {
		return nil, missing("working_hours_per_day")
	}
	if p.WorkingDaysPerMonth == nil {
		return nil, missing("working_days_per_month")
	}
	if p.URSSAFRatePPM == nil {
		return nil, missing("urssaf_rate_ppm")
	}
	months := valueOr(p.SimulationHorizonMonths, 12)
	if months <= 0 {
		return nil, ledger.NewValidationError("simulation_horizon_months", "horizon strictement positif requis")
	}
	monthly := int64(float64(*p.CurrentHourlyRateCents) * *p.WorkingHoursPerDay * *p.WorkingDaysPerMonth)
	vatPPM := valueOr(p.VATRatePPM, 0)
	expenses := p.AnnualExpensesCents()
	proj := ProjectAnnualIncome(monthly, months, expenses, vatPPM, *p.URSSAFRatePPM)

	start := ledger.MonthOf(now)
	if p.SimulationStartDate != nil {
		start = ledger.MonthOf(*p.SimulationStartDate)
	}
	monthlyTaxes := ledger.ApplyRatePPM(monthly, vatPPM) + ledger.ApplyRatePPM(monthly, *p.URSSAFRatePPM)
	breakdowns := make([]MonthBreakdown, 0, months)
	for i := 0; i < months; i++ {
		// spread expenses so the months add up to the annual figure
		monthExpenses := expenses*int64(i+1)/int64(months) - expenses*int64(i)/int64(months)
		breakdowns = append(breakdowns, MonthBreakdown{
			Month:          start.AddMonths(i),
			RevenueHTCents: monthly,
			TaxesCents:     monthlyTaxes,
			ExpensesCents:  monthExpenses,
			NetCents:       monthly - monthlyTaxes - monthExpenses,
			WorkingDays:    *p.WorkingDaysPerMonth,
		})
	}
	daysNeeded := *p.WorkingDaysPerMonth * float64(months)
	return &Results{
		ProjectedAnnualIncomeHTCents: &proj.TotalRevenueHTCents,
		ProjectedAnnualTaxesCents:    &proj.TotalTaxesCents,
		ProjectedNetIncomeCents:      &proj.NetIncomeCents,
		WorkingDaysNeeded:            &daysNeeded,
		MonthlyBreakdowns:            breakdowns,
	}, nil
}

func valueOr[T any](v *T, fallback T) T {
	if v == nil {
		return fallback
	}
	return *v
}
