package tax

import (
	"testing"
	"time"

	ledger "freelance-tax/internal/ledger/domain"
)

func day(y, m, d int) time.Time {
	return time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC)
}

func ptr(t time.Time) *time.Time { return &t }

func saleOp(invoice time.Time, paid *time.Time, ht, vat int64, onPayments bool) ledger.Operation {
	return ledger.Operation{
		ID:             "op",
		InvoiceDate:    invoice,
		PaymentDate:    paid,
		Type:           ledger.OperationSale,
		AmountHTCents:  ht,
		VATAmountCents: vat,
		AmountTTCCents: ht + vat,
		VATOnPayments:  onPayments,
	}
}

func TestComputeVATForMonthV2_InvoicingBasis(t *testing.T) {
	op := saleOp(day(2024, 3, 5), nil, 100000, 20000, false)
	report := ComputeVATForMonthV2(ledger.MonthID{Year: 2024, Month: 3}, []ledger.Operation{op})
	if report.CollectedCents != 20000 || report.DeductibleCents != 0 || report.DueCents != 20000 {
		t.Fatalf("unexpected report %+v", report)
	}
}

func TestComputeVATForMonthV2_InvoicingBasisIgnoresPaymentDate(t *testing.T) {
	op := saleOp(day(2024, 3, 5), ptr(day(2024, 4, 10)), 100000, 20000, false)
	april := ComputeVATForMonthV2(ledger.MonthID{Year: 2024, Month: 4}, []ledger.Operation{op})
	if april.DueCents != 0 {
		t.Fatalf("invoicing basis must not count on payment month, got %+v", april)
	}
}

func TestComputeVATForMonthV2_CollectionBasisWithoutPaymentNeverCounts(t *testing.T) {
	op := saleOp(day(2024, 3, 5), nil, 100000, 20000, true)
	start := ledger.MonthID{Year: 2023, Month: 1}
	for i := 0; i < 36; i++ {
		month := start.AddMonths(i)
		report := ComputeVATForMonthV2(month, []ledger.Operation{op})
		if report.CollectedCents != 0 || report.DeductibleCents != 0 || report.DueCents != 0 {
			t.Fatalf("month %s: expected zero report, got %+v", month, report)
		}
	}
}

func TestComputeVATForMonthV2_CollectionBasisUsesPaymentDate(t *testing.T) {
	sale := saleOp(day(2024, 3, 5), ptr(day(2024, 5, 2)), 100000, 20000, true)
	purchase := ledger.Operation{
		InvoiceDate:    day(2024, 5, 20),
		Type:           ledger.OperationPurchase,
		AmountHTCents:  10000,
		VATAmountCents: 2000,
	}
	ops := []ledger.Operation{sale, purchase}
	march := ComputeVATForMonthV2(ledger.MonthID{Year: 2024, Month: 3}, ops)
	if march.DueCents != 0 {
		t.Fatalf("expected nothing in March, got %+v", march)
	}
	may := ComputeVATForMonthV2(ledger.MonthID{Year: 2024, Month: 5}, ops)
	if may.CollectedCents != 20000 || may.DeductibleCents != 2000 || may.DueCents != 18000 {
		t.Fatalf("unexpected May report %+v", may)
	}
}

func TestComputeVATForMonth_NegativeDueIsKept(t *testing.T) {
	invoices := []ledger.Invoice{{AmountTVA: 100, PaidAt: ptr(day(2024, 2, 1))}}
	expenses := []ledger.Expense{{AmountTVA: 500, PaidAt: ptr(day(2024, 2, 28))}, {AmountTVA: 900}}
	report := ComputeVATForMonth(ledger.MonthID{Year: 2024, Month: 2}, invoices, expenses)
	if report.DueCents != -400 {
		t.Fatalf("expected credit of -400, got %+v", report)
	}
}

func TestComputeURSSAFForMonthV2(t *testing.T) {
	op := saleOp(day(2024, 3, 28), ptr(day(2024, 4, 10)), 500000, 100000, false)
	report := ComputeURSSAFForMonthV2(ledger.MonthID{Year: 2024, Month: 4}, []ledger.Operation{op}, 220000)
	if report.CAEncaisseCents != 500000 || report.DueCents != 110000 || report.RatePPM != 220000 {
		t.Fatalf("unexpected report %+v", report)
	}
	march := ComputeURSSAFForMonthV2(ledger.MonthID{Year: 2024, Month: 3}, []ledger.Operation{op}, 220000)
	if march.CAEncaisseCents != 0 {
		t.Fatalf("paid sale must count on payment month only, got %+v", march)
	}
}

func TestComputeURSSAFForMonthV2_FallsBackToInvoiceDate(t *testing.T) {
	op := saleOp(day(2024, 3, 28), nil, 1000, 200, true)
	purchase := ledger.Operation{InvoiceDate: day(2024, 3, 1), Type: ledger.OperationPurchase, AmountHTCents: 999}
	report := ComputeURSSAFForMonthV2(ledger.MonthID{Year: 2024, Month: 3}, []ledger.Operation{op, purchase}, 220000)
	if report.CAEncaisseCents != 1000 || report.DueCents != 220 {
		t.Fatalf("unexpected report %+v", report)
	}
}

func TestComputeURSSAFForMonth_Truncates(t *testing.T) {
	invoices := []ledger.Invoice{{AmountHT: 999, PaidAt: ptr(day(2024, 1, 3))}}
	report := ComputeURSSAFForMonth(ledger.MonthID{Year: 2024, Month: 1}, invoices, 220000)
	if report.DueCents != 219 {
		t.Fatalf("expected 219, got %d", report.DueCents)
	}
}
