package integration_test

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/rs/zerolog"

	ledgerapp "freelance-tax/internal/ledger/application"
	ledger "freelance-tax/internal/ledger/domain"
	ledgerpostgres "freelance-tax/internal/ledger/infrastructure/postgres"
	"freelance-tax/internal/storage"
	taxapp "freelance-tax/internal/tax/application"
	tax "freelance-tax/internal/tax/domain"
	taxpostgres "freelance-tax/internal/tax/infrastructure/postgres"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	dsn := os.Getenv("PG_DSN")
	if dsn == "" {
		t.Skip("PG_DSN not set")
	}
	ctx := context.Background()
	db, err := storage.Open(ctx, dsn)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	if err := storage.Migrate(ctx, db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	// Migrate is idempotent.
	if err := storage.Migrate(ctx, db); err != nil {
		t.Fatalf("migrate twice: %v", err)
	}
	for _, table := range []string{"operations", "invoices", "expenses", "settings", "month_status", "provisions", "tax_schedules"} {
		if _, err := db.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			t.Fatalf("clean %s: %v", table, err)
		}
	}
	return db
}

func TestEngine_PostgresRoundTrip(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	clock := ledger.FixedClock{At: time.Date(2024, time.March, 15, 9, 0, 0, 0, time.UTC)}

	records := ledgerpostgres.NewRecordRepository(db)
	settings := ledgerpostgres.NewSettingsRepository(db)
	operations := ledgerpostgres.NewOperationRepository(db)
	ledgerService, err := ledgerapp.NewService(ledgerapp.Repositories{
		Operations: operations,
		Invoices:   records,
		Expenses:   records,
		Settings:   settings,
		Months:     settings,
	}, clock, zerolog.Nop())
	if err != nil {
		t.Fatalf("ledger service: %v", err)
	}
	taxService, err := taxapp.NewService(taxapp.Deps{
		Operations: operations,
		Invoices:   records,
		Expenses:   records,
		Settings:   ledgerService,
		Provisions: taxpostgres.NewProvisionRepository(db),
		Schedules:  taxpostgres.NewScheduleRepository(db),
		Clock:      clock,
	}, zerolog.Nop())
	if err != nil {
		t.Fatalf("tax service: %v", err)
	}

	seeded, err := ledgerService.SeedSettings(ctx, ledger.DefaultSettings())
	if err != nil || !seeded {
		t.Fatalf("seed settings: seeded=%v err=%v", seeded, err)
	}

	ht := int64(100000)
	op, err := ledgerService.CreateOperation(ctx, ledgerapp.OperationRequest{
		InvoiceDate:   "2024-01-10",
		PaymentDate:   "2024-01-20",
		Type:          "vente",
		AmountHTCents: &ht,
		Label:         "Mission janvier",
	})
	if err != nil {
		t.Fatalf("create operation: %v", err)
	}
	stored, err := ledgerService.GetOperation(ctx, op.ID)
	if err != nil {
		t.Fatalf("get operation: %v", err)
	}
	if stored.VATAmountCents != 20000 || stored.AmountTTCCents != 120000 || stored.PaymentDate == nil {
		t.Fatalf("unexpected stored operation: %+v", stored)
	}

	january := ledger.MonthID{Year: 2024, Month: 1}
	vat, err := taxService.PrepareVATV2(ctx, january)
	if err != nil {
		t.Fatalf("vat: %v", err)
	}
	if vat.DueCents != 20000 {
		t.Fatalf("expected vat due 20000, got %d", vat.DueCents)
	}
	urssaf, err := taxService.PrepareURSSAFV2(ctx, january)
	if err != nil {
		t.Fatalf("urssaf: %v", err)
	}
	if urssaf.CAEncaisseCents != 100000 || urssaf.DueCents != 22000 {
		t.Fatalf("unexpected urssaf report: %+v", urssaf)
	}

	first, err := taxService.GenerateSchedule(ctx, january, 1)
	if err != nil {
		t.Fatalf("generate schedule: %v", err)
	}
	if len(first) != 2 {
		t.Fatalf("expected 2 schedule entries, got %d", len(first))
	}
	if _, err := taxService.GenerateSchedule(ctx, january, 1); err != nil {
		t.Fatalf("regenerate schedule: %v", err)
	}
	all, err := taxService.ListSchedules(ctx, "")
	if err != nil {
		t.Fatalf("list schedules: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("regeneration duplicated entries: %d", len(all))
	}

	var vatEntry tax.TaxSchedule
	for _, s := range all {
		if s.TaxType == tax.TaxVAT {
			vatEntry = s
		}
	}
	if _, err := taxService.MarkSchedulePaid(ctx, vatEntry.ID, clock.At); err != nil {
		t.Fatalf("mark paid: %v", err)
	}
	if _, err := taxService.MarkSchedulePaid(ctx, vatEntry.ID, clock.At); !errors.Is(err, tax.ErrScheduleAlreadyPaid) {
		t.Fatalf("expected already paid, got %v", err)
	}

	if err := ledgerService.DeleteOperation(ctx, op.ID); err != nil {
		t.Fatalf("delete operation: %v", err)
	}
	if _, err := taxService.GenerateSchedule(ctx, january, 1); err != nil {
		t.Fatalf("regenerate after delete: %v", err)
	}
	left, err := taxService.ListSchedules(ctx, "")
	if err != nil {
		t.Fatalf("list schedules: %v", err)
	}
	if len(left) != 1 || left[0].ID != vatEntry.ID || left[0].Status != tax.SchedulePaid {
		t.Fatalf("expected only the paid VAT entry to remain, got %+v", left)
	}

	if _, err := ledgerService.CloseMonth(ctx, january); err != nil {
		t.Fatalf("close month: %v", err)
	}
	_, err = ledgerService.CreateOperation(ctx, ledgerapp.OperationRequest{
		InvoiceDate:   "2024-01-25",
		Type:          "achat",
		AmountHTCents: &ht,
	})
	if !errors.Is(err, ledger.ErrMonthClosed) {
		t.Fatalf("expected month closed, got %v", err)
	}
}
