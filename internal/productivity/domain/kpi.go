package productivity

import (
	"time"

	ledger "freelance-tax/internal/ledger/domain"
)

// MonthlyKPI is a recomputable monthly performance snapshot.
type MonthlyKPI struct {
	ID                     string         `json:"id"`
	Month                  ledger.MonthID `json:"month"`
	RevenueHTCents         int64          `json:"revenue_ht_cents"`
	RevenueTTCCents        int64          `json:"revenue_ttc_cents"`
	ExpensesTTCCents       int64          `json:"expenses_ttc_cents"`
	WorkingDays            float64        `json:"working_days"`
	BillableHours          float64        `json:"billable_hours"`
	AverageDailyRateCents  int64          `json:"average_daily_rate_cents"`
	AverageHourlyRateCents int64          `json:"average_hourly_rate_cents"`
	VATCollectedCents      int64          `json:"vat_collected_cents"`
	VATDueCents            int64          `json:"vat_due_cents"`
	URSSAFDueCents         int64          `json:"urssaf_due_cents"`
	NetMarginCents         int64          `json:"net_margin_cents"`
	ProfitabilityRatio     float64        `json:"profitability_ratio"`
	UtilizationRate        float64        `json:"utilization_rate"`
	CreatedAt              time.Time      `json:"created_at"`
	UpdatedAt              time.Time      `json:"updated_at"`
}

// ComputeMonthlyKPIs derives the month's KPIs from invoices and expenses paid
// in month and the working days dated in month.
func ComputeMonthlyKPIs(month ledger.MonthID, invoices []ledger.Invoice, expenses []ledger.Expense, days []WorkingDay, settings ledger.Settings, id string, now time.Time) MonthlyKPI {
	kpi := MonthlyKPI{ID: id, Month: month, CreatedAt: now.UTC(), UpdatedAt: now.UTC()}

	for _, inv := range invoices {
		if month.ContainsPtr(inv.PaidAt) {
			kpi.RevenueHTCents += inv.AmountHT
			kpi.RevenueTTCCents += inv.AmountTTC
			kpi.VATCollectedCents += inv.AmountTVA
		}
	}
	var deductible int64
	for _, exp := range expenses {
		if month.ContainsPtr(exp.PaidAt) {
			kpi.ExpensesTTCCents += exp.AmountTTC
			deductible += exp.AmountTVA
		}
	}
	var worked float64
	for _, d := range days {
		if month.Contains(d.Date) {
			kpi.WorkingDays++
			kpi.BillableHours += d.BillableHours
			worked += d.HoursWorked
		}
	}

	if kpi.WorkingDays > 0 {
		kpi.AverageDailyRateCents = int64(float64(kpi.RevenueHTCents) / kpi.WorkingDays)
	}
	if kpi.BillableHours > 0 {
		kpi.AverageHourlyRateCents = int64(float64(kpi.RevenueHTCents) / kpi.BillableHours)
	}
	kpi.VATDueCents = kpi.VATCollectedCents - deductible
	kpi.URSSAFDueCents = ledger.ApplyRatePPM(kpi.RevenueHTCents, settings.URSSAFRatePPM)
	kpi.NetMarginCents = kpi.RevenueTTCCents - kpi.ExpensesTTCCents - kpi.VATDueCents - kpi.URSSAFDueCents
	if kpi.RevenueTTCCents > 0 {
		kpi.ProfitabilityRatio = float64(kpi.NetMarginCents) / float64(kpi.RevenueTTCCents)
	}
	if worked > 0 {
		kpi.UtilizationRate = kpi.BillableHours / worked
	}
	return kpi
}
