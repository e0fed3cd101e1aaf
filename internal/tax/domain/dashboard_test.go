package tax

import (
	"testing"

	ledger "freelance-tax/internal/ledger/domain"
)

func TestComputeDashboardV2(t *testing.T) {
	settings := ledger.DefaultSettings()
	month := ledger.MonthID{Year: 2024, Month: 3}
	ops := []ledger.Operation{
		saleOp(day(2024, 3, 5), nil, 100000, 20000, false),
		{InvoiceDate: day(2024, 3, 7), Type: ledger.OperationPurchase, AmountHTCents: 10000, VATAmountCents: 2000, AmountTTCCents: 12000},
	}
	provisions := []Provision{{AmountCents: 5000}, {AmountCents: 1000}}
	got := ComputeDashboardV2(month, ops, provisions, settings)
	// 100000 - 18000 - 22000 - 6000 - 30000
	if got.EncaissementsHTCents != 100000 || got.TVADueCents != 18000 || got.URSSAFDueCents != 22000 {
		t.Fatalf("unexpected components %+v", got)
	}
	if got.DisponibleCents != 24000 {
		t.Fatalf("expected disponible 24000, got %d", got.DisponibleCents)
	}
}

func TestComputeDashboard_SumsEveryProvisionGiven(t *testing.T) {
	settings := ledger.DefaultSettings()
	month := ledger.MonthID{Year: 2024, Month: 3}
	provisions := []Provision{
		{DueDate: day(2023, 12, 1), AmountCents: 5000},
		{DueDate: day(2024, 4, 10), AmountCents: 7000},
	}
	got := ComputeDashboard(month, nil, nil, provisions, settings)
	if got.ProvisionsCents != 12000 {
		t.Fatalf("expected every provision summed, got %d", got.ProvisionsCents)
	}
	if got.DisponibleCents != -12000-settings.BufferCents {
		t.Fatalf("unexpected disponible %d", got.DisponibleCents)
	}
}

func TestComputeMonthRecapV2(t *testing.T) {
	settings := ledger.DefaultSettings()
	settings.BufferCents = 0
	month := ledger.MonthID{Year: 2024, Month: 3}
	ops := []ledger.Operation{
		saleOp(day(2024, 2, 20), ptr(day(2024, 3, 2)), 100000, 20000, true),
		{InvoiceDate: day(2024, 3, 7), Type: ledger.OperationPurchase, AmountHTCents: 10000, VATAmountCents: 2000, AmountTTCCents: 12000},
	}
	got := ComputeMonthRecapV2(month, ops, settings)
	if got.ReceiptsTTCCents != 120000 || got.ExpensesTTCCents != 12000 {
		t.Fatalf("unexpected receipts/expenses %+v", got)
	}
	if got.NetFromMonthCents != 108000 {
		t.Fatalf("expected net 108000, got %d", got.NetFromMonthCents)
	}
	// 108000 - (20000-2000) - 22000
	if got.AfterProvisionsCents != 68000 {
		t.Fatalf("expected after provisions 68000, got %d", got.AfterProvisionsCents)
	}
}

func TestComputeMonthRecap_Legacy(t *testing.T) {
	settings := ledger.DefaultSettings()
	month := ledger.MonthID{Year: 2024, Month: 6}
	invoices := []ledger.Invoice{
		{AmountHT: 50000, AmountTVA: 10000, AmountTTC: 60000, PaidAt: ptr(day(2024, 6, 3))},
		{AmountHT: 70000, AmountTVA: 14000, AmountTTC: 84000},
	}
	expenses := []ledger.Expense{{AmountHT: 1000, AmountTVA: 200, AmountTTC: 1200, PaidAt: ptr(day(2024, 6, 9))}}
	got := ComputeMonthRecap(month, invoices, expenses, settings)
	if got.ReceiptsHTCents != 50000 || got.ReceiptsTTCCents != 60000 || got.ExpensesTTCCents != 1200 {
		t.Fatalf("unexpected recap %+v", got)
	}
	want := int64(60000-1200) - 9800 - 11000 - 30000
	if got.AfterProvisionsCents != want {
		t.Fatalf("expected %d, got %d", want, got.AfterProvisionsCents)
	}
	again := ComputeMonthRecap(month, invoices, expenses, settings)
	if again != got {
		t.Fatalf("recap must be idempotent")
	}
}

func TestForecastCashflow(t *testing.T) {
	settings := ledger.DefaultSettings()
	settings.ForecastHTCents = 500000
	settings.ForecastExpensesTTCCents = 12000
	res := ForecastCashflow(ledger.MonthID{Year: 2024, Month: 11}, 3, settings)
	if len(res.Months) != 3 {
		t.Fatalf("expected 3 lines, got %d", len(res.Months))
	}
	last := res.Months[2]
	if last.Year != 2025 || last.Month != 1 {
		t.Fatalf("expected rollover to 2025-01, got %d-%d", last.Year, last.Month)
	}
	line := res.Months[0]
	// collected 100000, expense VAT 2000, urssaf 110000
	if line.TVADueCents != 98000 || line.URSSAFDueCents != 110000 {
		t.Fatalf("unexpected taxes %+v", line)
	}
	if line.NetCents != 588000 {
		t.Fatalf("expected net 588000, got %d", line.NetCents)
	}
	if line.AfterProvisionsCents != 588000-98000-110000-30000 {
		t.Fatalf("unexpected after provisions %d", line.AfterProvisionsCents)
	}
}

func TestForecastCashflow_ZeroHorizon(t *testing.T) {
	res := ForecastCashflow(ledger.MonthID{Year: 2024, Month: 1}, 0, ledger.DefaultSettings())
	if len(res.Months) != 0 {
		t.Fatalf("expected no lines")
	}
}

func TestComputeAnnualTaxData(t *testing.T) {
	ops := []ledger.Operation{
		saleOp(day(2024, 1, 5), nil, 100000, 20000, false),
		saleOp(day(2024, 12, 5), nil, 50000, 10000, false),
		saleOp(day(2025, 1, 5), nil, 70000, 14000, false),
	}
	data := ComputeAnnualTaxData(2024, ops, ledger.DefaultSettings())
	if len(data.Months) != 12 {
		t.Fatalf("expected 12 months")
	}
	if data.TotalVATDueCents != 30000 || data.TotalCAEncaisseCents != 150000 || data.TotalURSSAFDueCents != 33000 {
		t.Fatalf("unexpected totals %+v", data)
	}
}
