package simulation

import (
	ledger "freelance-tax/internal/ledger/domain"

	"github.com/shopspring/decimal"
)

var ppm = decimal.NewFromInt(ledger.PPMScale)

// DailyRateCalculation is the daily rate needed to reach a net income target.
type DailyRateCalculation struct {
	TargetAnnualIncomeCents   int64   `json:"target_annual_income_cents"`
	WorkingDaysPerYear        float64 `json:"working_days_per_year"`
	AnnualExpensesCents       int64   `json:"annual_expenses_cents"`
	CombinedTaxRatePPM        int64   `json:"combined_tax_rate_ppm"`
	OptimalDailyRateCents     int64   `json:"optimal_daily_rate_cents"`
	TotalRevenueHTNeededCents int64   `json:"total_revenue_ht_needed_cents"`
	TotalTaxesCents           int64   `json:"total_taxes_cents"`
	NetMarginRatio            float64 `json:"net_margin_ratio"`
}

// Reachable reports whether the combined tax rate leaves any net income.
func (c DailyRateCalculation) Reachable() bool {
	return c.CombinedTaxRatePPM < ledger.PPMScale
}

// CalculateOptimalDailyRate grosses the net target up by 1/(1-combined rate),
// adds expenses and spreads the total over the working days. A combined rate
// of 100% or more has no solution and yields zero amounts.
func CalculateOptimalDailyRate(targetNetCents int64, workingDaysPerYear float64, annualExpensesCents int64, vatPPM, urssafPPM, incomeTaxPPM int64) DailyRateCalculation {
	calc := DailyRateCalculation{
		TargetAnnualIncomeCents: targetNetCents,
		WorkingDaysPerYear:      workingDaysPerYear,
		AnnualExpensesCents:     annualExpensesCents,
		CombinedTaxRatePPM:      vatPPM + urssafPPM + incomeTaxPPM,
	}
	if !calc.Reachable() {
		return calc
	}
	keep := decimal.NewFromInt(1).Sub(decimal.NewFromInt(calc.CombinedTaxRatePPM).Div(ppm))
	gross := decimal.NewFromInt(targetNetCents).Div(keep).IntPart()
	total := gross + annualExpensesCents

	calc.TotalRevenueHTNeededCents = total
	calc.TotalTaxesCents = total - targetNetCents - annualExpensesCents
	if workingDaysPerYear > 0 {
		calc.OptimalDailyRateCents = decimal.NewFromInt(total).Div(decimal.NewFromFloat(workingDaysPerYear)).IntPart()
	}
	if total > 0 {
		calc.NetMarginRatio = float64(targetNetCents) / float64(total)
	}
	return calc
}

// AnnualIncomeProjection is a straight-line annualization of monthly revenue.
type AnnualIncomeProjection struct {
	MonthlyAverageRevenueCents int64   `json:"monthly_average_revenue_cents"`
	WorkingMonths              int     `json:"working_months"`
	TotalRevenueHTCents        int64   `json:"total_revenue_ht_cents"`
	VATDueCents                int64   `json:"vat_due_cents"`
	URSSAFDueCents             int64   `json:"urssaf_due_cents"`
	TotalTaxesCents            int64   `json:"total_taxes_cents"`
	AnnualExpensesCents        int64   `json:"annual_expenses_cents"`
	NetIncomeCents             int64   `json:"net_income_cents"`
	EffectiveTaxRate           float64 `json:"effective_tax_rate"`
	ProfitMargin               float64 `json:"profit_margin"`
}

// ProjectAnnualIncome multiplies monthly revenue by working months and
// deducts VAT, URSSAF and expenses.
func ProjectAnnualIncome(monthlyAvgRevenueCents int64, workingMonths int, annualExpensesCents int64, vatPPM, urssafPPM int64) AnnualIncomeProjection {
	if workingMonths < 0 {
		workingMonths = 0
	}
	total := monthlyAvgRevenueCents * int64(workingMonths)
	vat := ledger.ApplyRatePPM(total, vatPPM)
	urssaf := ledger.ApplyRatePPM(total, urssafPPM)
	taxes := vat + urssaf
	p := AnnualIncomeProjection{
		MonthlyAverageRevenueCents: monthlyAvgRevenueCents,
		WorkingMonths:              workingMonths,
		TotalRevenueHTCents:        total,
		VATDueCents:                vat,
		URSSAFDueCents:             urssaf,
		TotalTaxesCents:            taxes,
		AnnualExpensesCents:        annualExpensesCents,
		NetIncomeCents:             total - taxes - annualExpensesCents,
	}
	if total > 0 {
		p.EffectiveTaxRate = float64(taxes) / float64(total)
		p.ProfitMargin = float64(p.NetIncomeCents) / float64(total)
	}
	return p
}
