package application

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	ledger "freelance-tax/internal/ledger/domain"
	"freelance-tax/internal/observability/metrics"
	productivity "freelance-tax/internal/productivity/domain"
)

// SettingsSource resolves the effective settings.
type SettingsSource interface {
	Settings(ctx context.Context) (ledger.Settings, error)
}

// Deps lists the collaborators of the productivity service.
type Deps struct {
	WorkingDays productivity.WorkingDayRepository
	KPIs        productivity.KPIRepository
	Invoices    ledger.InvoiceRepository
	Expenses    ledger.ExpenseRepository
	Settings    SettingsSource
	Clock       ledger.Clock
}

// Service tracks working days and derives productivity figures.
type Service struct {
	deps   Deps
	newID  func() string
	logger zerolog.Logger
}

// NewService constructs a service.
func NewService(deps Deps, logger zerolog.Logger) (*Service, error) {
	if deps.WorkingDays == nil {
		return nil, errors.New("productivity service: nil working day repo")
	}
	if deps.KPIs == nil {
		return nil, errors.New("productivity service: nil kpi repo")
	}
	if deps.Invoices == nil || deps.Expenses == nil {
		return nil, errors.New("productivity service: nil record repo")
	}
	if deps.Settings == nil {
		return nil, errors.New("productivity service: nil settings source")
	}
	if deps.Clock == nil {
		deps.Clock = ledger.SystemClock{}
	}
	return &Service{
		deps:   deps,
		newID:  uuid.NewString,
		logger: logger.With().Str("component", "productivity").Logger(),
	}, nil
}

// WorkingDayRequest is the boundary form of a working day.
type WorkingDayRequest struct {
	Date            string  `json:"date"`
	HoursWorked     float64 `json:"hours_worked"`
	BillableHours   float64 `json:"billable_hours"`
	HourlyRateCents int64   `json:"hourly_rate_cents"`
	Description     string  `json:"description,omitempty"`
}

func (r WorkingDayRequest) input() (productivity.WorkingDayInput, error) {
	date, err := ledger.ParseDate(r.Date)
	if err != nil {
		return productivity.WorkingDayInput{}, err
	}
	return productivity.WorkingDayInput{
		Date:            date,
		HoursWorked:     r.HoursWorked,
		BillableHours:   r.BillableHours,
		HourlyRateCents: r.HourlyRateCents,
		Description:     r.Description,
	}, nil
}

// CreateWorkingDay records a day of work.
func (s *Service) CreateWorkingDay(ctx context.Context, req WorkingDayRequest) (day *productivity.WorkingDay, err error) {
	defer observe("create_working_day", time.Now(), &err)
	in, err := req.input()
	if err != nil {
		return nil, err
	}
	day, err = productivity.NewWorkingDay(s.newID(), in, s.deps.Clock.Now())
	if err != nil {
		return nil, err
	}
	if err := s.deps.WorkingDays.CreateWorkingDay(ctx, day); err != nil {
		return nil, err
	}
	return day, nil
}

// GetWorkingDay loads a day.
func (s *Service) GetWorkingDay(ctx context.Context, id string) (*productivity.WorkingDay, error) {
	return s.deps.WorkingDays.GetWorkingDay(ctx, id)
}

// UpdateWorkingDay replaces the editable fields of a day.
func (s *Service) UpdateWorkingDay(ctx context.Context, id string, req WorkingDayRequest) (day *productivity.WorkingDay, err error) {
	defer observe("update_working_day", time.Now(), &err)
	in, err := req.input()
	if err != nil {
		return nil, err
	}
	day, err = s.deps.WorkingDays.GetWorkingDay(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := day.Update(in, s.deps.Clock.Now()); err != nil {
		return nil, err
	}
	if err := s.deps.WorkingDays.UpdateWorkingDay(ctx, day); err != nil {
		return nil, err
	}
	return day, nil
}

// DeleteWorkingDay removes a day.
func (s *Service) DeleteWorkingDay(ctx context.Context, id string) (err error) {
	defer observe("delete_working_day", time.Now(), &err)
	return s.deps.WorkingDays.DeleteWorkingDay(ctx, id)
}

// ListWorkingDays lists days in [from, to]; zero bounds are open.
func (s *Service) ListWorkingDays(ctx context.Context, from, to time.Time) ([]productivity.WorkingDay, error) {
	if !from.IsZero() && !to.IsZero() && to.Before(from) {
		return nil, ledger.NewValidationError("to", "fin avant début")
	}
	return s.deps.WorkingDays.ListWorkingDays(ctx, from, to)
}

// Stats aggregates the days in [from, to].
func (s *Service) Stats(ctx context.Context, from, to time.Time) (stats productivity.WorkingDaysStats, err error) {
	defer observe("working_days_stats", time.Now(), &err)
	if from.IsZero() || to.IsZero() {
		return productivity.WorkingDaysStats{}, ledger.NewValidationError("from", "période requise")
	}
	days, err := s.ListWorkingDays(ctx, from, to)
	if err != nil {
		return productivity.WorkingDaysStats{}, err
	}
	return productivity.ComputeWorkingDaysStats(days, from, to), nil
}

// AnalyzePatterns analyzes the days in [from, to] in date order.
func (s *Service) AnalyzePatterns(ctx context.Context, from, to time.Time) (analysis productivity.WorkingPatternAnalysis, err error) {
	defer observe("working_patterns", time.Now(), &err)
	days, err := s.ListWorkingDays(ctx, from, to)
	if err != nil {
		return productivity.WorkingPatternAnalysis{}, err
	}
	return productivity.AnalyzeWorkingPatterns(days), nil
}

// ComputeMonthlyKPIs recomputes and stores the KPI snapshot of month.
// The stored snapshot keeps the id of the first computation.
func (s *Service) ComputeMonthlyKPIs(ctx context.Context, month ledger.MonthID) (kpi *productivity.MonthlyKPI, err error) {
	defer observe("compute_kpis", time.Now(), &err)
	if !month.Valid() {
		return nil, ledger.NewValidationError("month", "mois invalide")
	}
	var (
		invoices []ledger.Invoice
		expenses []ledger.Expense
		days     []productivity.WorkingDay
		settings ledger.Settings
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		invoices, err = s.deps.Invoices.ListInvoices(gctx, nil)
		return err
	})
	g.Go(func() error {
		var err error
		expenses, err = s.deps.Expenses.ListExpenses(gctx, nil)
		return err
	})
	g.Go(func() error {
		var err error
		days, err = s.deps.WorkingDays.ListWorkingDays(gctx, month.Start(), month.End())
		return err
	})
	g.Go(func() error {
		var err error
		settings, err = s.deps.Settings.Settings(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	computed := productivity.ComputeMonthlyKPIs(month, invoices, expenses, days, settings, s.newID(), s.deps.Clock.Now())
	if err := s.deps.KPIs.UpsertKPI(ctx, computed); err != nil {
		return nil, err
	}
	s.logger.Info().Str("month", month.String()).Int64("revenue_ht", computed.RevenueHTCents).Msg("kpis computed")
	return s.deps.KPIs.GetKPI(ctx, month)
}

// GetMonthlyKPI loads the stored snapshot of month.
func (s *Service) GetMonthlyKPI(ctx context.Context, month ledger.MonthID) (*productivity.MonthlyKPI, error) {
	return s.deps.KPIs.GetKPI(ctx, month)
}

// ListMonthlyKPIs lists the stored snapshots of year.
func (s *Service) ListMonthlyKPIs(ctx context.Context, year int) ([]productivity.MonthlyKPI, error) {
	return s.deps.KPIs.ListKPIs(ctx, year)
}

func observe(command string, start time.Time, errp *error) {
	result := metrics.ResultSuccess
	if errp != nil && *errp != nil {
		result = metrics.ResultError
	}
	metrics.ObserveCommand(command, result, time.Since(start))
}
