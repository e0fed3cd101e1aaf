package tax

import (
	ledger "freelance-tax/internal/ledger/domain"
)

// AnnualMonth is one month of the annual tax summary.
type AnnualMonth struct {
	Month  ledger.MonthID `json:"month"`
	VAT    VATReport      `json:"vat"`
	URSSAF URSSAFReport   `json:"urssaf"`
}

// AnnualTaxData summarizes VAT and URSSAF over a calendar year.
type AnnualTaxData struct {
	Year                 int           `json:"year"`
	Months               []AnnualMonth `json:"months"`
	TotalCollectedCents  int64         `json:"total_collected_cents"`
	TotalDeductibleCents int64         `json:"total_deductible_cents"`
	TotalVATDueCents     int64         `json:"total_vat_due_cents"`
	TotalCAEncaisseCents int64         `json:"total_ca_encaisse_cents"`
	TotalURSSAFDueCents  int64         `json:"total_urssaf_due_cents"`
}

// ComputeAnnualTaxData runs the operation-based VAT and URSSAF computations
// for every month of year.
func ComputeAnnualTaxData(year int, operations []ledger.Operation, settings ledger.Settings) AnnualTaxData {
	data := AnnualTaxData{Year: year, Months: make([]AnnualMonth, 0, 12)}
	for m := 1; m <= 12; m++ {
		month := ledger.MonthID{Year: year, Month: m}
		vat := ComputeVATForMonthV2(month, operations)
		urssaf := ComputeURSSAFForMonthV2(month, operations, settings.URSSAFRatePPM)
		data.Months = append(data.Months, AnnualMonth{Month: month, VAT: vat, URSSAF: urssaf})
		data.TotalCollectedCents += vat.CollectedCents
		data.TotalDeductibleCents += vat.DeductibleCents
		data.TotalVATDueCents += vat.DueCents
		data.TotalCAEncaisseCents += urssaf.CAEncaisseCents
		data.TotalURSSAFDueCents += urssaf.DueCents
	}
	return data
}
