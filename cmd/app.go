package cmd

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/rs/zerolog"

	"freelance-tax/internal/audit"
	"freelance-tax/internal/config"
	ledgerapp "freelance-tax/internal/ledger/application"
	ledger "freelance-tax/internal/ledger/domain"
	ledgermemory "freelance-tax/internal/ledger/infrastructure/memory"
	ledgerpostgres "freelance-tax/internal/ledger/infrastructure/postgres"
	prodapp "freelance-tax/internal/productivity/application"
	productivity "freelance-tax/internal/productivity/domain"
	prodmemory "freelance-tax/internal/productivity/infrastructure/memory"
	prodpostgres "freelance-tax/internal/productivity/infrastructure/postgres"
	"freelance-tax/internal/receipts"
	simapp "freelance-tax/internal/simulation/application"
	simulation "freelance-tax/internal/simulation/domain"
	simmemory "freelance-tax/internal/simulation/infrastructure/memory"
	simpostgres "freelance-tax/internal/simulation/infrastructure/postgres"
	"freelance-tax/internal/storage"
	taxapp "freelance-tax/internal/tax/application"
	tax "freelance-tax/internal/tax/domain"
	taxmemory "freelance-tax/internal/tax/infrastructure/memory"
	taxpostgres "freelance-tax/internal/tax/infrastructure/postgres"
	"freelance-tax/internal/tax/notify"
)

// app holds the wired services shared by the commands.
type app struct {
	db           *sql.DB
	clock        ledger.Clock
	ledger       *ledgerapp.Service
	tax          *taxapp.Service
	productivity *prodapp.Service
	simulation   *simapp.Service
	audit        audit.Logger
}

type repositories struct {
	operations  ledger.OperationRepository
	invoices    ledger.InvoiceRepository
	expenses    ledger.ExpenseRepository
	settings    ledger.SettingsRepository
	months      ledger.MonthStatusRepository
	provisions  tax.ProvisionRepository
	schedules   tax.ScheduleRepository
	workingDays productivity.WorkingDayRepository
	kpis        productivity.KPIRepository
	simulations simulation.Repository
}

func memoryRepositories() repositories {
	records := ledgermemory.NewRecordRepository()
	settings := ledgermemory.NewSettingsRepository()
	return repositories{
		operations:  ledgermemory.NewOperationRepository(),
		invoices:    records,
		expenses:    records,
		settings:    settings,
		months:      settings,
		provisions:  taxmemory.NewProvisionRepository(),
		schedules:   taxmemory.NewScheduleRepository(),
		workingDays: prodmemory.NewWorkingDayRepository(),
		kpis:        prodmemory.NewKPIRepository(),
		simulations: simmemory.NewRepository(),
	}
}

func postgresRepositories(db *sql.DB) repositories {
	records := ledgerpostgres.NewRecordRepository(db)
	settings := ledgerpostgres.NewSettingsRepository(db)
	return repositories{
		operations:  ledgerpostgres.NewOperationRepository(db),
		invoices:    records,
		expenses:    records,
		settings:    settings,
		months:      settings,
		provisions:  taxpostgres.NewProvisionRepository(db),
		schedules:   taxpostgres.NewScheduleRepository(db),
		workingDays: prodpostgres.NewWorkingDayRepository(db),
		kpis:        prodpostgres.NewKPIRepository(db),
		simulations: simpostgres.NewRepository(db),
	}
}

// newApp opens the configured store and wires every service.
func newApp(ctx context.Context, cfg config.Config, logger zerolog.Logger) (*app, error) {
	if err := cfg.RequireDatabase(); err != nil {
		return nil, err
	}
	a := &app{clock: ledger.SystemClock{}}

	var repos repositories
	if cfg.Store == config.StoreMemory {
		repos = memoryRepositories()
		a.audit = audit.NewLogLogger(logger)
	} else {
		db, err := storage.Open(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		if err := storage.Migrate(ctx, db); err != nil {
			_ = db.Close()
			return nil, err
		}
		a.db = db
		repos = postgresRepositories(db)
		a.audit = audit.NewRepository(db)
	}

	var err error
	a.ledger, err = ledgerapp.NewService(ledgerapp.Repositories{
		Operations: repos.operations,
		Invoices:   repos.invoices,
		Expenses:   repos.expenses,
		Settings:   repos.settings,
		Months:     repos.months,
	}, a.clock, logger)
	if err != nil {
		return nil, a.fail(err)
	}
	if cfg.Settings != nil {
		seeded, err := a.ledger.SeedSettings(ctx, *cfg.Settings)
		if err != nil {
			return nil, a.fail(fmt.Errorf("seed settings: %w", err))
		}
		if seeded {
			logger.Info().Msg("settings seeded from config")
		}
	}

	var notifier notify.Notifier
	if cfg.Reminders.WebhookURL != "" {
		notifier = notify.NewWebhookNotifier(cfg.Reminders.WebhookURL)
	}
	a.tax, err = taxapp.NewService(taxapp.Deps{
		Operations: repos.operations,
		Invoices:   repos.invoices,
		Expenses:   repos.expenses,
		Settings:   a.ledger,
		Provisions: repos.provisions,
		Schedules:  repos.schedules,
		KPIs:       repos.kpis,
		Notifier:   notifier,
		Clock:      a.clock,
	}, logger)
	if err != nil {
		return nil, a.fail(err)
	}

	a.productivity, err = prodapp.NewService(prodapp.Deps{
		WorkingDays: repos.workingDays,
		KPIs:        repos.kpis,
		Invoices:    repos.invoices,
		Expenses:    repos.expenses,
		Settings:    a.ledger,
		Clock:       a.clock,
	}, logger)
	if err != nil {
		return nil, a.fail(err)
	}

	a.simulation, err = simapp.NewService(repos.simulations, a.clock, logger)
	if err != nil {
		return nil, a.fail(err)
	}
	return a, nil
}

func newReceiptStore(cfg config.Config, clock ledger.Clock, logger zerolog.Logger) (*receipts.LocalStore, error) {
	return receipts.NewLocalStore(receipts.Config{
		Root:      cfg.Receipts.Root,
		PublicURL: cfg.Receipts.PublicURL,
		Bucket:    cfg.Receipts.Bucket,
	}, clock, logger)
}

func (a *app) fail(err error) error {
	a.Close()
	return err
}

// Close releases the database pool.
func (a *app) Close() {
	if a.db != nil {
		_ = a.db.Close()
		a.db = nil
	}
}
