package interfaces

import (
	"bytes"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"

	ledger "freelance-tax/internal/ledger/domain"
	tax "freelance-tax/internal/tax/domain"
)

func sampleDocument() RecapDocument {
	march := ledger.MonthID{Year: 2024, Month: 3}
	return RecapDocument{
		Month: march,
		Recap: tax.MonthRecap{Month: march, ReceiptsHTCents: 100000, ReceiptsTVACents: 20000, ReceiptsTTCCents: 120000, VATDueCents: 20000, URSSAFDueCents: 22000},
		Schedules: []tax.TaxSchedule{{
			ID:          "s-1",
			TaxType:     tax.TaxVAT,
			DueDate:     time.Date(2024, 4, 20, 0, 0, 0, 0, time.UTC),
			AmountCents: 20000,
			PeriodStart: march.Start(),
			PeriodEnd:   march.End(),
			Status:      tax.SchedulePending,
		}},
	}
}

func TestBuildRecapPDF(t *testing.T) {
	data, err := BuildRecapPDF(sampleDocument())
	if err != nil {
		t.Fatalf("pdf: %v", err)
	}
	if !bytes.HasPrefix(data, []byte("%PDF")) {
		t.Fatalf("output is not a pdf")
	}
}

func TestBuildRecapXLSX(t *testing.T) {
	data, err := BuildRecapXLSX(sampleDocument())
	if err != nil {
		t.Fatalf("xlsx: %v", err)
	}
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer f.Close()
	if v, _ := f.GetCellValue("recap", "B1"); v != "2024-03" {
		t.Fatalf("unexpected month cell %q", v)
	}
	if v, _ := f.GetCellValue("echeances", "A2"); v != "vat" {
		t.Fatalf("unexpected schedule cell %q", v)
	}
	if v, _ := f.GetCellValue("echeances", "D2"); v != "200" {
		t.Fatalf("unexpected amount cell %q", v)
	}
}

func TestBuildAnnualXLSX(t *testing.T) {
	data := tax.ComputeAnnualTaxData(2024, nil, ledger.DefaultSettings())
	data.TotalVATDueCents = 123456
	out, err := BuildAnnualXLSX(data)
	if err != nil {
		t.Fatalf("xlsx: %v", err)
	}
	f, err := excelize.OpenReader(bytes.NewReader(out))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer f.Close()
	if v, _ := f.GetCellValue("2024", "A13"); v != "2024-12" {
		t.Fatalf("unexpected last month %q", v)
	}
	if v, _ := f.GetCellValue("2024", "D14"); v != "1234.56" {
		t.Fatalf("unexpected total %q", v)
	}
}
