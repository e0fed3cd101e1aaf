package application

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	ledger "freelance-tax/internal/ledger/domain"
	ledgermemory "freelance-tax/internal/ledger/infrastructure/memory"
	productivity "freelance-tax/internal/productivity/domain"
	tax "freelance-tax/internal/tax/domain"
	taxmemory "freelance-tax/internal/tax/infrastructure/memory"
	"freelance-tax/internal/tax/notify"
)

type staticSettings struct {
	settings ledger.Settings
}

func (s staticSettings) Settings(context.Context) (ledger.Settings, error) { return s.settings, nil }

type stubKPIs struct {
	kpi *productivity.MonthlyKPI
}

func (s stubKPIs) GetKPI(_ context.Context, month ledger.MonthID) (*productivity.MonthlyKPI, error) {
	if s.kpi == nil || s.kpi.Month != month {
		return nil, ledger.ErrNotFound
	}
	return s.kpi, nil
}

type recordingNotifier struct {
	sent []notify.Reminder
	err  error
}

func (n *recordingNotifier) Notify(_ context.Context, msg notify.Reminder) error {
	n.sent = append(n.sent, msg)
	return n.err
}

type fixture struct {
	svc      *Service
	ops      *ledgermemory.OperationRepository
	prov     *taxmemory.ProvisionRepository
	notifier *recordingNotifier
}

var today = time.Date(2024, 3, 15, 9, 0, 0, 0, time.UTC)

func newFixture(t *testing.T) fixture {
	t.Helper()
	ops := ledgermemory.NewOperationRepository()
	records := ledgermemory.NewRecordRepository()
	prov := taxmemory.NewProvisionRepository()
	notifier := &recordingNotifier{}
	svc, err := NewService(Deps{
		Operations: ops,
		Invoices:   records,
		Expenses:   records,
		Settings:   staticSettings{settings: ledger.DefaultSettings()},
		Provisions: prov,
		Schedules:  taxmemory.NewScheduleRepository(),
		KPIs: stubKPIs{kpi: &productivity.MonthlyKPI{
			Month:          ledger.MonthID{Year: 2024, Month: 1},
			RevenueHTCents: 150000,
		}},
		Notifier: notifier,
		Clock:    ledger.FixedClock{At: today},
	}, zerolog.Nop())
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return fixture{svc: svc, ops: ops, prov: prov, notifier: notifier}
}

func (f fixture) addSale(t *testing.T, invoiceDay, paidDay int, ht, vat int64) {
	t.Helper()
	paid := time.Date(2024, 1, paidDay, 0, 0, 0, 0, time.UTC)
	op, err := ledger.NewOperation(uuid.NewString(), ledger.OperationInput{
		InvoiceDate:    time.Date(2024, 1, invoiceDay, 0, 0, 0, 0, time.UTC),
		PaymentDate:    &paid,
		Type:           ledger.OperationSale,
		AmountHTCents:  ht,
		VATAmountCents: vat,
		VATOnPayments:  false,
	}, today)
	if err != nil {
		t.Fatalf("new operation: %v", err)
	}
	if err := f.ops.CreateOperation(context.Background(), op); err != nil {
		t.Fatalf("create operation: %v", err)
	}
}

func TestGenerateSchedule_IdempotentAndKeepsPaidEntries(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	january := ledger.MonthID{Year: 2024, Month: 1}
	f.addSale(t, 10, 20, 100000, 20000)

	first, err := f.svc.GenerateSchedule(ctx, january, 3)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if len(first) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(first))
	}
	if first[0].TaxType != tax.TaxURSSAF || first[0].AmountCents != 22000 {
		t.Fatalf("unexpected first entry: %+v", first[0])
	}
	if first[1].TaxType != tax.TaxVAT || first[1].AmountCents != 20000 {
		t.Fatalf("unexpected second entry: %+v", first[1])
	}
	if !first[1].DueDate.Equal(time.Date(2024, 2, 20, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected VAT due date: %s", first[1].DueDate)
	}

	again, err := f.svc.GenerateSchedule(ctx, january, 3)
	if err != nil {
		t.Fatalf("regenerate: %v", err)
	}
	all, err := f.svc.ListSchedules(ctx, "")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(all) != 2 || again[0].ID != first[0].ID || again[1].ID != first[1].ID {
		t.Fatalf("regeneration should reuse entries, got %d entries", len(all))
	}

	if _, err := f.svc.MarkSchedulePaid(ctx, first[1].ID, today); err != nil {
		t.Fatalf("mark paid: %v", err)
	}
	if _, err := f.svc.MarkSchedulePaid(ctx, first[1].ID, today); !errors.Is(err, tax.ErrScheduleAlreadyPaid) {
		t.Fatalf("expected already paid, got %v", err)
	}

	f.addSale(t, 12, 25, 50000, 10000)
	updated, err := f.svc.GenerateSchedule(ctx, january, 3)
	if err != nil {
		t.Fatalf("regenerate after sale: %v", err)
	}
	for _, entry := range updated {
		switch entry.TaxType {
		case tax.TaxVAT:
			if entry.Status != tax.SchedulePaid || entry.AmountCents != 20000 {
				t.Fatalf("paid VAT entry changed: %+v", entry)
			}
		case tax.TaxURSSAF:
			if entry.AmountCents != 33000 || entry.Status != tax.SchedulePending {
				t.Fatalf("pending URSSAF entry not refreshed: %+v", entry)
			}
		}
	}
}

func TestGenerateSchedule_RemovesPendingEntriesNoLongerDue(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	january := ledger.MonthID{Year: 2024, Month: 1}
	f.addSale(t, 10, 20, 100000, 20000)

	first, err := f.svc.GenerateSchedule(ctx, january, 1)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if len(first) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(first))
	}
	var paidVAT string
	for _, entry := range first {
		if entry.TaxType == tax.TaxVAT {
			paidVAT = entry.ID
		}
	}
	if _, err := f.svc.MarkSchedulePaid(ctx, paidVAT, today); err != nil {
		t.Fatalf("mark paid: %v", err)
	}

	ops, err := f.ops.ListOperations(ctx, ledger.OperationFilter{})
	if err != nil {
		t.Fatalf("list operations: %v", err)
	}
	for _, op := range ops {
		if err := f.ops.DeleteOperation(ctx, op.ID); err != nil {
			t.Fatalf("delete operation: %v", err)
		}
	}

	again, err := f.svc.GenerateSchedule(ctx, january, 1)
	if err != nil {
		t.Fatalf("regenerate: %v", err)
	}
	if len(again) != 0 {
		t.Fatalf("expected no entries, got %+v", again)
	}
	pending, err := f.svc.ListSchedules(ctx, tax.SchedulePending)
	if err != nil {
		t.Fatalf("list pending: %v", err)
	}
	if len(pending) != 0 {
		t.Fatalf("stale pending entries kept: %+v", pending)
	}
	all, err := f.svc.ListSchedules(ctx, "")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(all) != 1 || all[0].ID != paidVAT || all[0].Status != tax.SchedulePaid {
		t.Fatalf("paid entry must survive regeneration: %+v", all)
	}

	opt, err := f.svc.OptimizeProvisions(ctx, 100000, 30)
	if err != nil {
		t.Fatalf("optimize: %v", err)
	}
	if opt.UpcomingObligationsCents != 0 {
		t.Fatalf("removed entries still counted: %d", opt.UpcomingObligationsCents)
	}
}

func TestGenerateSchedule_RejectsHorizon(t *testing.T) {
	f := newFixture(t)
	if _, err := f.svc.GenerateSchedule(context.Background(), ledger.MonthID{Year: 2024, Month: 1}, 99); !ledger.IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestOverdueAndOptimize(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.addSale(t, 10, 20, 100000, 20000)
	if _, err := f.svc.GenerateSchedule(ctx, ledger.MonthID{Year: 2024, Month: 1}, 1); err != nil {
		t.Fatalf("generate: %v", err)
	}

	overdue, err := f.svc.OverdueSchedules(ctx, today)
	if err != nil {
		t.Fatalf("overdue: %v", err)
	}
	if len(overdue) != 2 || overdue[0].Status != tax.ScheduleOverdue {
		t.Fatalf("unexpected overdue: %+v", overdue)
	}
	stored, err := f.svc.ListSchedules(ctx, tax.SchedulePending)
	if err != nil {
		t.Fatalf("list pending: %v", err)
	}
	if len(stored) != 2 {
		t.Fatalf("stored status should stay pending, got %d pending", len(stored))
	}

	opt, err := f.svc.OptimizeProvisions(ctx, 10000, 30)
	if err != nil {
		t.Fatalf("optimize: %v", err)
	}
	// 42000 pending + 30000 buffer against 10000 cash.
	if opt.RequiredProvisionsCents != 72000 || opt.Recommendation.Kind != tax.RecommendShortfall || opt.Recommendation.AmountCents != 62000 {
		t.Fatalf("unexpected optimization: %+v", opt)
	}
	if opt.Recommendation.Message != "Besoin de 620 € supplémentaires pour couvrir les obligations fiscales" {
		t.Fatalf("unexpected message: %q", opt.Recommendation.Message)
	}
}

func TestDashboardV2_CountsOnlyFutureProvisions(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.addSale(t, 10, 20, 100000, 20000)
	f.addSale(t, 12, 25, 50000, 10000)

	if _, err := f.svc.UpsertProvision(ctx, ProvisionRequest{Kind: "tva", Label: "old", DueDate: "2023-12-01", AmountCents: 5000}); err != nil {
		t.Fatalf("provision: %v", err)
	}
	if _, err := f.svc.UpsertProvision(ctx, ProvisionRequest{Kind: "urssaf", Label: "next", DueDate: "2024-02-10", AmountCents: 7000}); err != nil {
		t.Fatalf("provision: %v", err)
	}

	summary, err := f.svc.DashboardV2(ctx, ledger.MonthID{Year: 2024, Month: 1})
	if err != nil {
		t.Fatalf("dashboard: %v", err)
	}
	if summary.ProvisionsCents != 7000 {
		t.Fatalf("expected only future provisions, got %d", summary.ProvisionsCents)
	}
	if summary.DisponibleCents != 150000-30000-33000-7000-30000 {
		t.Fatalf("unexpected disponible: %d", summary.DisponibleCents)
	}

	enhanced, err := f.svc.EnhancedDashboard(ctx, ledger.MonthID{Year: 2024, Month: 1})
	if err != nil {
		t.Fatalf("enhanced: %v", err)
	}
	if enhanced.KPI == nil || enhanced.KPI.RevenueHTCents != 150000 {
		t.Fatalf("expected stored KPI, got %+v", enhanced.KPI)
	}
	if enhanced.Recap.ReceiptsHTCents != 150000 {
		t.Fatalf("unexpected recap: %+v", enhanced.Recap)
	}

	february, err := f.svc.EnhancedDashboard(ctx, ledger.MonthID{Year: 2024, Month: 2})
	if err != nil {
		t.Fatalf("enhanced february: %v", err)
	}
	if february.KPI != nil {
		t.Fatalf("expected no KPI for february")
	}
}

func TestUpsertProvision_RejectsUnknownKind(t *testing.T) {
	f := newFixture(t)
	if _, err := f.svc.UpsertProvision(context.Background(), ProvisionRequest{Kind: "cotisation", DueDate: "2024-01-01"}); !ledger.IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestSendReminders(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	msg, err := f.svc.SendReminders(ctx, 30)
	if err != nil {
		t.Fatalf("send empty: %v", err)
	}
	if !msg.Empty() || len(f.notifier.sent) != 0 {
		t.Fatalf("empty reminder should not be sent")
	}

	f.addSale(t, 10, 20, 100000, 20000)
	if _, err := f.svc.GenerateSchedule(ctx, ledger.MonthID{Year: 2024, Month: 1}, 1); err != nil {
		t.Fatalf("generate: %v", err)
	}
	msg, err = f.svc.SendReminders(ctx, 30)
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	if len(msg.Overdue) != 2 || len(f.notifier.sent) != 1 {
		t.Fatalf("expected one reminder with 2 overdue lines, got %+v", msg)
	}

	f.notifier.err = errors.New("boom")
	if _, err := f.svc.SendReminders(ctx, 30); err == nil {
		t.Fatalf("expected delivery error")
	}
}

func TestAnnualTaxData(t *testing.T) {
	f := newFixture(t)
	f.addSale(t, 10, 20, 100000, 20000)
	data, err := f.svc.AnnualTaxData(context.Background(), 2024)
	if err != nil {
		t.Fatalf("annual: %v", err)
	}
	if len(data.Months) != 12 || data.TotalVATDueCents != 20000 || data.TotalURSSAFDueCents != 22000 {
		t.Fatalf("unexpected annual data: %+v", data)
	}
}

func TestForecast_RejectsHorizon(t *testing.T) {
	f := newFixture(t)
	if _, err := f.svc.Forecast(context.Background(), ledger.MonthID{Year: 2024, Month: 1}, -1); !ledger.IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
}
