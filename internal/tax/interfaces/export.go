package interfaces

import (
	"bytes"
	"context"
	"fmt"

	"github.com/jung-kurt/gofpdf"
	"github.com/xuri/excelize/v2"

	ledger "freelance-tax/internal/ledger/domain"
	tax "freelance-tax/internal/tax/domain"
)

// RecapDocument gathers what the month recap exports render.
type RecapDocument struct {
	Month     ledger.MonthID
	Recap     tax.MonthRecap
	Dashboard tax.DashboardSummary
	Schedules []tax.TaxSchedule
}

// RecapSource provides the figures of a recap export.
type RecapSource interface {
	MonthRecapV2(ctx context.Context, month ledger.MonthID) (tax.MonthRecap, error)
	DashboardV2(ctx context.Context, month ledger.MonthID) (tax.DashboardSummary, error)
	ListSchedules(ctx context.Context, status tax.ScheduleStatus) ([]tax.TaxSchedule, error)
}

// LoadRecapDocument assembles the recap, dashboard and pending schedule of month.
func LoadRecapDocument(ctx context.Context, source RecapSource, month ledger.MonthID) (RecapDocument, error) {
	recap, err := source.MonthRecapV2(ctx, month)
	if err != nil {
		return RecapDocument{}, err
	}
	dashboard, err := source.DashboardV2(ctx, month)
	if err != nil {
		return RecapDocument{}, err
	}
	schedules, err := source.ListSchedules(ctx, tax.SchedulePending)
	if err != nil {
		return RecapDocument{}, err
	}
	return RecapDocument{Month: month, Recap: recap, Dashboard: dashboard, Schedules: schedules}, nil
}

func euros(cents int64) string {
	return ledger.FormatEuros(cents) + " €"
}

// BuildRecapPDF renders the month recap and its pending schedule.
func BuildRecapPDF(doc RecapDocument) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetFont("Arial", "", 12)
	pdf.AddPage()

	pdf.Cell(0, 8, tr(fmt.Sprintf("Récapitulatif %s", doc.Month)))
	pdf.Ln(10)
	pdf.SetFont("Arial", "", 10)
	lines := []struct {
		label  string
		amount int64
	}{
		{"Encaissements HT", doc.Recap.ReceiptsHTCents},
		{"TVA encaissée", doc.Recap.ReceiptsTVACents},
		{"Encaissements TTC", doc.Recap.ReceiptsTTCCents},
		{"Dépenses TTC", doc.Recap.ExpensesTTCCents},
		{"TVA due", doc.Recap.VATDueCents},
		{"URSSAF due", doc.Recap.URSSAFDueCents},
		{"Net du mois", doc.Recap.NetFromMonthCents},
		{"Après provisions", doc.Recap.AfterProvisionsCents},
		{"Provisions futures", doc.Dashboard.ProvisionsCents},
		{"Tampon", doc.Dashboard.BufferCents},
		{"Disponible", doc.Dashboard.DisponibleCents},
	}
	for _, line := range lines {
		pdf.CellFormat(70, 6, tr(line.label), "", 0, "L", false, 0, "")
		pdf.CellFormat(50, 6, tr(euros(line.amount)), "", 0, "R", false, 0, "")
		pdf.Ln(-1)
	}

	if len(doc.Schedules) > 0 {
		pdf.Ln(6)
		pdf.SetFont("Arial", "B", 10)
		pdf.CellFormat(30, 6, tr("Impôt"), "1", 0, "C", false, 0, "")
		pdf.CellFormat(30, 6, tr("Période"), "1", 0, "C", false, 0, "")
		pdf.CellFormat(35, 6, tr("Échéance"), "1", 0, "C", false, 0, "")
		pdf.CellFormat(40, 6, "Montant", "1", 0, "C", false, 0, "")
		pdf.CellFormat(30, 6, "Statut", "1", 0, "C", false, 0, "")
		pdf.Ln(-1)
		pdf.SetFont("Arial", "", 10)
		for _, s := range doc.Schedules {
			pdf.CellFormat(30, 6, string(s.TaxType), "1", 0, "C", false, 0, "")
			pdf.CellFormat(30, 6, s.Period().String(), "1", 0, "C", false, 0, "")
			pdf.CellFormat(35, 6, ledger.FormatDate(s.DueDate), "1", 0, "C", false, 0, "")
			pdf.CellFormat(40, 6, tr(euros(s.AmountCents)), "1", 0, "R", false, 0, "")
			pdf.CellFormat(30, 6, string(s.Status), "1", 0, "C", false, 0, "")
			pdf.Ln(-1)
		}
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// BuildRecapXLSX renders the month recap with a schedule sheet.
func BuildRecapXLSX(doc RecapDocument) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()
	recapSheet := "recap"
	scheduleSheet := "echeances"
	if err := f.SetSheetName("Sheet1", recapSheet); err != nil {
		return nil, err
	}
	if _, err := f.NewSheet(scheduleSheet); err != nil {
		return nil, err
	}

	_ = f.SetCellValue(recapSheet, "A1", "Récapitulatif")
	_ = f.SetCellValue(recapSheet, "B1", doc.Month.String())
	rows := []struct {
		label string
		cents int64
	}{
		{"Encaissements HT", doc.Recap.ReceiptsHTCents},
		{"TVA encaissée", doc.Recap.ReceiptsTVACents},
		{"Encaissements TTC", doc.Recap.ReceiptsTTCCents},
		{"Dépenses TTC", doc.Recap.ExpensesTTCCents},
		{"TVA due", doc.Recap.VATDueCents},
		{"URSSAF due", doc.Recap.URSSAFDueCents},
		{"Net du mois", doc.Recap.NetFromMonthCents},
		{"Après provisions", doc.Recap.AfterProvisionsCents},
		{"Provisions futures", doc.Dashboard.ProvisionsCents},
		{"Tampon", doc.Dashboard.BufferCents},
		{"Disponible", doc.Dashboard.DisponibleCents},
	}
	for i, row := range rows {
		line := i + 3
		_ = f.SetCellValue(recapSheet, fmt.Sprintf("A%d", line), row.label)
		_ = f.SetCellValue(recapSheet, fmt.Sprintf("B%d", line), centsToFloat(row.cents))
	}

	_ = f.SetCellValue(scheduleSheet, "A1", "Impôt")
	_ = f.SetCellValue(scheduleSheet, "B1", "Période")
	_ = f.SetCellValue(scheduleSheet, "C1", "Échéance")
	_ = f.SetCellValue(scheduleSheet, "D1", "Montant")
	_ = f.SetCellValue(scheduleSheet, "E1", "Statut")
	for i, s := range doc.Schedules {
		row := i + 2
		_ = f.SetCellValue(scheduleSheet, fmt.Sprintf("A%d", row), string(s.TaxType))
		_ = f.SetCellValue(scheduleSheet, fmt.Sprintf("B%d", row), s.Period().String())
		_ = f.SetCellValue(scheduleSheet, fmt.Sprintf("C%d", row), ledger.FormatDate(s.DueDate))
		_ = f.SetCellValue(scheduleSheet, fmt.Sprintf("D%d", row), centsToFloat(s.AmountCents))
		_ = f.SetCellValue(scheduleSheet, fmt.Sprintf("E%d", row), string(s.Status))
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// BuildAnnualXLSX renders the twelve months of VAT and URSSAF with totals.
func BuildAnnualXLSX(data tax.AnnualTaxData) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()
	sheet := fmt.Sprintf("%d", data.Year)
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return nil, err
	}

	headers := []string{"Mois", "TVA collectée", "TVA déductible", "TVA due", "CA encaissé", "URSSAF due"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, h)
	}
	for i, m := range data.Months {
		row := i + 2
		_ = f.SetCellValue(sheet, fmt.Sprintf("A%d", row), m.Month.String())
		_ = f.SetCellValue(sheet, fmt.Sprintf("B%d", row), centsToFloat(m.VAT.CollectedCents))
		_ = f.SetCellValue(sheet, fmt.Sprintf("C%d", row), centsToFloat(m.VAT.DeductibleCents))
		_ = f.SetCellValue(sheet, fmt.Sprintf("D%d", row), centsToFloat(m.VAT.DueCents))
		_ = f.SetCellValue(sheet, fmt.Sprintf("E%d", row), centsToFloat(m.URSSAF.CAEncaisseCents))
		_ = f.SetCellValue(sheet, fmt.Sprintf("F%d", row), centsToFloat(m.URSSAF.DueCents))
	}
	total := len(data.Months) + 2
	_ = f.SetCellValue(sheet, fmt.Sprintf("A%d", total), "Total")
	_ = f.SetCellValue(sheet, fmt.Sprintf("B%d", total), centsToFloat(data.TotalCollectedCents))
	_ = f.SetCellValue(sheet, fmt.Sprintf("C%d", total), centsToFloat(data.TotalDeductibleCents))
	_ = f.SetCellValue(sheet, fmt.Sprintf("D%d", total), centsToFloat(data.TotalVATDueCents))
	_ = f.SetCellValue(sheet, fmt.Sprintf("E%d", total), centsToFloat(data.TotalCAEncaisseCents))
	_ = f.SetCellValue(sheet, fmt.Sprintf("F%d", total), centsToFloat(data.TotalURSSAFDueCents))

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// centsToFloat is for spreadsheet display only.
func centsToFloat(cents int64) float64 {
	return float64(cents) / 100
}
