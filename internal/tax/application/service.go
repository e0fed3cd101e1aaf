package application

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	ledger "freelance-tax/internal/ledger/domain"
	"freelance-tax/internal/observability/metrics"
	productivity "freelance-tax/internal/productivity/domain"
	tax "freelance-tax/internal/tax/domain"
	"freelance-tax/internal/tax/notify"
)

const (
	defaultScheduleHorizon = 3
	maxScheduleHorizon     = 36
	maxForecastHorizon     = 60
	upcomingLimit          = 5
)

// SettingsSource resolves the effective settings (defaults when unsaved).
type SettingsSource interface {
	Settings(ctx context.Context) (ledger.Settings, error)
}

// KPISource loads stored monthly KPIs.
type KPISource interface {
	GetKPI(ctx context.Context, month ledger.MonthID) (*productivity.MonthlyKPI, error)
}

// Deps lists the collaborators of the tax service. KPIs and Notifier are optional.
type Deps struct {
	Operations ledger.OperationRepository
	Invoices   ledger.InvoiceRepository
	Expenses   ledger.ExpenseRepository
	Settings   SettingsSource
	Provisions tax.ProvisionRepository
	Schedules  tax.ScheduleRepository
	KPIs       KPISource
	Notifier   notify.Notifier
	Clock      ledger.Clock
}

// Service prepares tax reports, dashboards, forecasts and schedules.
type Service struct {
	deps   Deps
	newID  func() string
	logger zerolog.Logger
}

// NewService constructs a service.
func NewService(deps Deps, logger zerolog.Logger) (*Service, error) {
	if deps.Operations == nil {
		return nil, errors.New("tax service: nil operation repo")
	}
	if deps.Invoices == nil || deps.Expenses == nil {
		return nil, errors.New("tax service: nil record repo")
	}
	if deps.Settings == nil {
		return nil, errors.New("tax service: nil settings source")
	}
	if deps.Provisions == nil {
		return nil, errors.New("tax service: nil provision repo")
	}
	if deps.Schedules == nil {
		return nil, errors.New("tax service: nil schedule repo")
	}
	if deps.Clock == nil {
		deps.Clock = ledger.SystemClock{}
	}
	return &Service{
		deps:   deps,
		newID:  uuid.NewString,
		logger: logger.With().Str("component", "tax").Logger(),
	}, nil
}

// PrepareVAT computes the month's VAT from legacy records.
func (s *Service) PrepareVAT(ctx context.Context, month ledger.MonthID) (report tax.VATReport, err error) {
	defer observe("prepare_vat", time.Now(), &err)
	snap, err := s.load(ctx, loadRecords)
	if err != nil {
		return tax.VATReport{}, err
	}
	return tax.ComputeVATForMonth(month, snap.invoices, snap.expenses), nil
}

// PrepareVATV2 computes the month's VAT from operations.
func (s *Service) PrepareVATV2(ctx context.Context, month ledger.MonthID) (report tax.VATReport, err error) {
	defer observe("prepare_vat_v2", time.Now(), &err)
	snap, err := s.load(ctx, loadOperations)
	if err != nil {
		return tax.VATReport{}, err
	}
	report = tax.ComputeVATForMonthV2(month, snap.operations)
	s.logger.Debug().Str("month", month.String()).Int64("due", report.DueCents).Msg("vat prepared")
	return report, nil
}

// PrepareURSSAF computes the month's contributions from legacy invoices.
func (s *Service) PrepareURSSAF(ctx context.Context, month ledger.MonthID) (report tax.URSSAFReport, err error) {
	defer observe("prepare_urssaf", time.Now(), &err)
	snap, err := s.load(ctx, loadRecords|loadSettings)
	if err != nil {
		return tax.URSSAFReport{}, err
	}
	return tax.ComputeURSSAFForMonth(month, snap.invoices, snap.settings.URSSAFRatePPM), nil
}

// PrepareURSSAFV2 computes the month's contributions from operations.
func (s *Service) PrepareURSSAFV2(ctx context.Context, month ledger.MonthID) (report tax.URSSAFReport, err error) {
	defer observe("prepare_urssaf_v2", time.Now(), &err)
	snap, err := s.load(ctx, loadOperations|loadSettings)
	if err != nil {
		return tax.URSSAFReport{}, err
	}
	return tax.ComputeURSSAFForMonthV2(month, snap.operations, snap.settings.URSSAFRatePPM), nil
}

// Dashboard builds the legacy dashboard for month.
func (s *Service) Dashboard(ctx context.Context, month ledger.MonthID) (summary tax.DashboardSummary, err error) {
	defer observe("dashboard", time.Now(), &err)
	snap, err := s.load(ctx, loadRecords|loadSettings|loadProvisions)
	if err != nil {
		return tax.DashboardSummary{}, err
	}
	return tax.ComputeDashboard(month, snap.invoices, snap.expenses, futureProvisions(snap.provisions, month), snap.settings), nil
}

// DashboardV2 builds the operation-based dashboard for month.
func (s *Service) DashboardV2(ctx context.Context, month ledger.MonthID) (summary tax.DashboardSummary, err error) {
	defer observe("dashboard_v2", time.Now(), &err)
	snap, err := s.load(ctx, loadOperations|loadSettings|loadProvisions)
	if err != nil {
		return tax.DashboardSummary{}, err
	}
	return tax.ComputeDashboardV2(month, snap.operations, futureProvisions(snap.provisions, month), snap.settings), nil
}

// MonthRecap builds the legacy month recap.
func (s *Service) MonthRecap(ctx context.Context, month ledger.MonthID) (recap tax.MonthRecap, err error) {
	defer observe("recap", time.Now(), &err)
	snap, err := s.load(ctx, loadRecords|loadSettings)
	if err != nil {
		return tax.MonthRecap{}, err
	}
	return tax.ComputeMonthRecap(month, snap.invoices, snap.expenses, snap.settings), nil
}

// MonthRecapV2 builds the operation-based month recap.
func (s *Service) MonthRecapV2(ctx context.Context, month ledger.MonthID) (recap tax.MonthRecap, err error) {
	defer observe("recap_v2", time.Now(), &err)
	snap, err := s.load(ctx, loadOperations|loadSettings)
	if err != nil {
		return tax.MonthRecap{}, err
	}
	return tax.ComputeMonthRecapV2(month, snap.operations, snap.settings), nil
}

// Forecast projects horizon months from start using the settings assumptions.
func (s *Service) Forecast(ctx context.Context, start ledger.MonthID, horizon int) (result tax.ForecastResult, err error) {
	defer observe("forecast", time.Now(), &err)
	if horizon < 0 || horizon > maxForecastHorizon {
		return tax.ForecastResult{}, ledger.NewValidationError("horizon", "horizon hors limites (0..60)")
	}
	settings, err := s.deps.Settings.Settings(ctx)
	if err != nil {
		return tax.ForecastResult{}, err
	}
	return tax.ForecastCashflow(start, horizon, settings), nil
}

// GenerateSchedule computes the operation-based obligations of horizon
// months from current and stores them. Re-running updates pending entries
// in place, removes pending entries whose due is no longer positive and
// leaves paid ones untouched.
func (s *Service) GenerateSchedule(ctx context.Context, current ledger.MonthID, horizon int) (stored []tax.TaxSchedule, err error) {
	defer observe("generate_schedule", time.Now(), &err)
	if horizon == 0 {
		horizon = defaultScheduleHorizon
	}
	if horizon < 0 || horizon > maxScheduleHorizon {
		return nil, ledger.NewValidationError("horizon_months", "horizon hors limites (1..36)")
	}
	snap, err := s.load(ctx, loadOperations|loadSettings)
	if err != nil {
		return nil, err
	}
	vatReports := make([]tax.VATReport, 0, horizon)
	urssafReports := make([]tax.URSSAFReport, 0, horizon)
	for i := 0; i < horizon; i++ {
		month := current.AddMonths(i)
		vatReports = append(vatReports, tax.ComputeVATForMonthV2(month, snap.operations))
		urssafReports = append(urssafReports, tax.ComputeURSSAFForMonthV2(month, snap.operations, snap.settings.URSSAFRatePPM))
	}
	computed := tax.ComputeTaxSchedule(current, horizon, vatReports, urssafReports, snap.settings, s.newID, s.deps.Clock.Now())

	stored = make([]tax.TaxSchedule, 0, len(computed))
	for _, entry := range computed {
		saved, err := s.deps.Schedules.UpsertSchedule(ctx, entry)
		if err != nil {
			return nil, err
		}
		stored = append(stored, saved)
	}
	removed, err := s.deps.Schedules.DeletePendingSchedules(ctx, tax.StaleScheduleKeys(current, horizon, computed))
	if err != nil {
		return nil, err
	}
	s.logger.Info().Str("from", current.String()).Int("horizon", horizon).Int("entries", len(stored)).Int("removed", removed).Msg("tax schedule generated")
	return stored, nil
}

// ListSchedules lists stored entries; an empty status lists all.
func (s *Service) ListSchedules(ctx context.Context, status tax.ScheduleStatus) ([]tax.TaxSchedule, error) {
	schedules, err := s.deps.Schedules.ListSchedules(ctx, status)
	if err != nil {
		return nil, err
	}
	if status == tax.SchedulePending {
		metrics.SetSchedulesPending(len(schedules))
	}
	return schedules, nil
}

// OverdueSchedules returns unpaid entries due before asOf, reported with
// the overdue status. Stored entries are not modified.
func (s *Service) OverdueSchedules(ctx context.Context, asOf time.Time) ([]tax.TaxSchedule, error) {
	entries, err := s.deps.Schedules.ListSchedules(ctx, "")
	if err != nil {
		return nil, err
	}
	var overdue []tax.TaxSchedule
	for _, entry := range entries {
		if entry.IsOverdue(asOf) {
			entry.Status = tax.ScheduleOverdue
			overdue = append(overdue, entry)
		}
	}
	metrics.SetSchedulesOverdue(len(overdue))
	return overdue, nil
}

// MarkSchedulePaid settles an entry on paidOn.
func (s *Service) MarkSchedulePaid(ctx context.Context, id string, paidOn time.Time) (entry *tax.TaxSchedule, err error) {
	defer observe("mark_schedule_paid", time.Now(), &err)
	entry, err = s.deps.Schedules.GetSchedule(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := entry.MarkPaid(paidOn); err != nil {
		return nil, err
	}
	if err := s.deps.Schedules.UpdateSchedule(ctx, *entry); err != nil {
		return nil, err
	}
	s.logger.Info().Str("id", id).Str("type", string(entry.TaxType)).Str("period", entry.Period().String()).Msg("schedule paid")
	return entry, nil
}

// OptimizeProvisions nets availableCash against pending obligations due
// within horizonDays plus the configured buffer.
func (s *Service) OptimizeProvisions(ctx context.Context, availableCash int64, horizonDays int) (result tax.ProvisionOptimization, err error) {
	defer observe("optimize_provisions", time.Now(), &err)
	if horizonDays < 0 {
		return tax.ProvisionOptimization{}, ledger.NewValidationError("horizon_days", "horizon négatif")
	}
	var (
		settings  ledger.Settings
		schedules []tax.TaxSchedule
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		settings, err = s.deps.Settings.Settings(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		schedules, err = s.deps.Schedules.ListSchedules(gctx, tax.SchedulePending)
		return err
	})
	if err := g.Wait(); err != nil {
		return tax.ProvisionOptimization{}, err
	}
	return tax.OptimizeProvisions(availableCash, schedules, settings.BufferCents, horizonDays, s.deps.Clock.Now()), nil
}

// ProvisionRequest is the boundary form of a provision.
type ProvisionRequest struct {
	ID          string `json:"id,omitempty"`
	Kind        string `json:"kind"`
	Label       string `json:"label"`
	DueDate     string `json:"due_date"`
	AmountCents int64  `json:"amount_cents"`
}

// UpsertProvision creates a provision, or replaces it when req.ID is set.
func (s *Service) UpsertProvision(ctx context.Context, req ProvisionRequest) (p tax.Provision, err error) {
	defer observe("upsert_provision", time.Now(), &err)
	kind, err := tax.ParseProvisionKind(req.Kind)
	if err != nil {
		return tax.Provision{}, err
	}
	due, err := ledger.ParseDate(req.DueDate)
	if err != nil {
		return tax.Provision{}, err
	}
	p = tax.Provision{
		ID:          req.ID,
		Kind:        kind,
		Label:       req.Label,
		DueDate:     due,
		AmountCents: req.AmountCents,
		CreatedAt:   s.deps.Clock.Now(),
	}
	if p.ID == "" {
		p.ID = s.newID()
	}
	if err := p.Validate(); err != nil {
		return tax.Provision{}, err
	}
	if err := s.deps.Provisions.UpsertProvision(ctx, p); err != nil {
		return tax.Provision{}, err
	}
	return p, nil
}

// ListProvisions lists provisions, optionally for one due month.
func (s *Service) ListProvisions(ctx context.Context, month *ledger.MonthID) ([]tax.Provision, error) {
	return s.deps.Provisions.ListProvisions(ctx, month)
}

// AnnualTaxData summarizes VAT and URSSAF for every month of year.
func (s *Service) AnnualTaxData(ctx context.Context, year int) (data tax.AnnualTaxData, err error) {
	defer observe("annual_tax", time.Now(), &err)
	if _, err := ledger.MonthFromParts(year, 1); err != nil {
		return tax.AnnualTaxData{}, err
	}
	snap, err := s.load(ctx, loadOperations|loadSettings)
	if err != nil {
		return tax.AnnualTaxData{}, err
	}
	return tax.ComputeAnnualTaxData(year, snap.operations, snap.settings), nil
}

// EnhancedDashboard combines the operation-based dashboard and recap with
// the next pending schedule entries and the stored KPI of month.
type EnhancedDashboard struct {
	Dashboard tax.DashboardSummary     `json:"dashboard"`
	Recap     tax.MonthRecap           `json:"recap"`
	Upcoming  []tax.TaxSchedule        `json:"upcoming_schedules"`
	KPI       *productivity.MonthlyKPI `json:"kpi,omitempty"`
}

// EnhancedDashboard assembles the enhanced dashboard of month.
func (s *Service) EnhancedDashboard(ctx context.Context, month ledger.MonthID) (out EnhancedDashboard, err error) {
	defer observe("dashboard_enhanced", time.Now(), &err)
	snap, err := s.load(ctx, loadOperations|loadSettings|loadProvisions)
	if err != nil {
		return EnhancedDashboard{}, err
	}
	var (
		pending []tax.TaxSchedule
		kpi     *productivity.MonthlyKPI
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		pending, err = s.deps.Schedules.ListSchedules(gctx, tax.SchedulePending)
		return err
	})
	if s.deps.KPIs != nil {
		g.Go(func() error {
			found, err := s.deps.KPIs.GetKPI(gctx, month)
			if ledger.IsNotFound(err) {
				return nil
			}
			kpi = found
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return EnhancedDashboard{}, err
	}

	today := ledger.CivilDate(s.deps.Clock.Now())
	upcoming := make([]tax.TaxSchedule, 0, upcomingLimit)
	for _, entry := range pending {
		if entry.DueDate.Before(today) {
			continue
		}
		upcoming = append(upcoming, entry)
		if len(upcoming) == upcomingLimit {
			break
		}
	}
	return EnhancedDashboard{
		Dashboard: tax.ComputeDashboardV2(month, snap.operations, futureProvisions(snap.provisions, month), snap.settings),
		Recap:     tax.ComputeMonthRecapV2(month, snap.operations, snap.settings),
		Upcoming:  upcoming,
		KPI:       kpi,
	}, nil
}

// SendReminders notifies overdue entries and those due within horizonDays.
// It returns the reminder, which is not sent when empty or when no
// notifier is configured.
func (s *Service) SendReminders(ctx context.Context, horizonDays int) (msg notify.Reminder, err error) {
	defer observe("send_reminders", time.Now(), &err)
	today := ledger.CivilDate(s.deps.Clock.Now())
	cutoff := today.AddDate(0, 0, horizonDays)
	pending, err := s.deps.Schedules.ListSchedules(ctx, tax.SchedulePending)
	if err != nil {
		return notify.Reminder{}, err
	}
	msg.AsOf = ledger.FormatDate(today)
	for _, entry := range pending {
		line := notify.ReminderLine{
			TaxType:     string(entry.TaxType),
			Period:      entry.Period().String(),
			DueDate:     ledger.FormatDate(entry.DueDate),
			AmountCents: entry.AmountCents,
		}
		switch {
		case entry.IsOverdue(today):
			msg.Overdue = append(msg.Overdue, line)
		case !entry.DueDate.After(cutoff):
			msg.Upcoming = append(msg.Upcoming, line)
		}
	}
	if msg.Empty() || s.deps.Notifier == nil {
		return msg, nil
	}
	if err := s.deps.Notifier.Notify(ctx, msg); err != nil {
		metrics.IncReminder(metrics.ResultError)
		s.logger.Warn().Err(err).Msg("reminder delivery failed")
		return msg, err
	}
	metrics.IncReminder(metrics.ResultSuccess)
	s.logger.Info().Int("overdue", len(msg.Overdue)).Int("upcoming", len(msg.Upcoming)).Msg("reminder sent")
	return msg, nil
}

type loadMask uint8

const (
	loadRecords loadMask = 1 << iota
	loadOperations
	loadSettings
	loadProvisions
)

type snapshot struct {
	invoices   []ledger.Invoice
	expenses   []ledger.Expense
	operations []ledger.Operation
	provisions []tax.Provision
	settings   ledger.Settings
}

// load reads the requested collections concurrently.
func (s *Service) load(ctx context.Context, mask loadMask) (snapshot, error) {
	var snap snapshot
	g, gctx := errgroup.WithContext(ctx)
	if mask&loadRecords != 0 {
		g.Go(func() error {
			var err error
			snap.invoices, err = s.deps.Invoices.ListInvoices(gctx, nil)
			return err
		})
		g.Go(func() error {
			var err error
			snap.expenses, err = s.deps.Expenses.ListExpenses(gctx, nil)
			return err
		})
	}
	if mask&loadOperations != 0 {
		g.Go(func() error {
			var err error
			snap.operations, err = s.deps.Operations.ListOperations(gctx, ledger.OperationFilter{})
			return err
		})
	}
	if mask&loadSettings != 0 {
		g.Go(func() error {
			var err error
			snap.settings, err = s.deps.Settings.Settings(gctx)
			return err
		})
	}
	if mask&loadProvisions != 0 {
		g.Go(func() error {
			var err error
			snap.provisions, err = s.deps.Provisions.ListProvisions(gctx, nil)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return snapshot{}, err
	}
	return snap, nil
}

// futureProvisions keeps provisions due on or after the start of month.
func futureProvisions(provisions []tax.Provision, month ledger.MonthID) []tax.Provision {
	start := month.Start()
	out := make([]tax.Provision, 0, len(provisions))
	for _, p := range provisions {
		if !p.DueDate.Before(start) {
			out = append(out, p)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].DueDate.Before(out[j].DueDate) })
	return out
}

func observe(command string, start time.Time, errp *error) {
	result := metrics.ResultSuccess
	if errp != nil && *errp != nil {
		result = metrics.ResultError
	}
	metrics.ObserveCommand(command, result, time.Since(start))
}
