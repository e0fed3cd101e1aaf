package tax

import (
	ledger "freelance-tax/internal/ledger/domain"
)

// DashboardSummary is the cash available after taxes, provisions and buffer.
type DashboardSummary struct {
	Month                ledger.MonthID `json:"month"`
	EncaissementsHTCents int64          `json:"encaissements_ht_cents"`
	TVADueCents          int64          `json:"tva_due_cents"`
	URSSAFDueCents       int64          `json:"urssaf_due_cents"`
	ProvisionsCents      int64          `json:"provisions_cents"`
	BufferCents          int64          `json:"buffer_cents"`
	DisponibleCents      int64          `json:"disponible_cents"`
}

// MonthRecap is the month's net cash before and after tax provisions.
type MonthRecap struct {
	Month                ledger.MonthID `json:"month"`
	ReceiptsHTCents      int64          `json:"receipts_ht_cents"`
	ReceiptsTVACents     int64          `json:"receipts_tva_cents"`
	ReceiptsTTCCents     int64          `json:"receipts_ttc_cents"`
	ExpensesTTCCents     int64          `json:"expenses_ttc_cents"`
	VATDueCents          int64          `json:"vat_due_cents"`
	URSSAFDueCents       int64          `json:"urssaf_due_cents"`
	NetFromMonthCents    int64          `json:"net_from_month_cents"`
	AfterProvisionsCents int64          `json:"after_provisions_cents"`
}

// ComputeDashboard builds the dashboard from legacy invoices and expenses.
// Every provision passed in is subtracted; callers pass only the provisions
// due on or after the month start.
func ComputeDashboard(month ledger.MonthID, invoices []ledger.Invoice, expenses []ledger.Expense, provisions []Provision, settings ledger.Settings) DashboardSummary {
	vat := ComputeVATForMonth(month, invoices, expenses)
	urssaf := ComputeURSSAFForMonth(month, invoices, settings.URSSAFRatePPM)
	return dashboard(month, urssaf.CAEncaisseCents, vat, urssaf, provisions, settings)
}

// ComputeDashboardV2 builds the dashboard from operations. Like
// ComputeDashboard, it sums every provision it is given.
func ComputeDashboardV2(month ledger.MonthID, operations []ledger.Operation, provisions []Provision, settings ledger.Settings) DashboardSummary {
	vat := ComputeVATForMonthV2(month, operations)
	urssaf := ComputeURSSAFForMonthV2(month, operations, settings.URSSAFRatePPM)
	return dashboard(month, urssaf.CAEncaisseCents, vat, urssaf, provisions, settings)
}

func dashboard(month ledger.MonthID, encaissements int64, vat VATReport, urssaf URSSAFReport, provisions []Provision, settings ledger.Settings) DashboardSummary {
	reserved := SumProvisions(provisions)
	return DashboardSummary{
		Month:                month,
		EncaissementsHTCents: encaissements,
		TVADueCents:          vat.DueCents,
		URSSAFDueCents:       urssaf.DueCents,
		ProvisionsCents:      reserved,
		BufferCents:          settings.BufferCents,
		DisponibleCents:      encaissements - vat.DueCents - urssaf.DueCents - reserved - settings.BufferCents,
	}
}

// ComputeMonthRecap builds the recap from legacy invoices and expenses paid in month.
func ComputeMonthRecap(month ledger.MonthID, invoices []ledger.Invoice, expenses []ledger.Expense, settings ledger.Settings) MonthRecap {
	vat := ComputeVATForMonth(month, invoices, expenses)
	urssaf := ComputeURSSAFForMonth(month, invoices, settings.URSSAFRatePPM)
	var ht, tva, expensesTTC int64
	for _, inv := range invoices {
		if month.ContainsPtr(inv.PaidAt) {
			ht += inv.AmountHT
			tva += inv.AmountTVA
		}
	}
	for _, exp := range expenses {
		if month.ContainsPtr(exp.PaidAt) {
			expensesTTC += exp.AmountTTC
		}
	}
	return recap(month, ht, tva, expensesTTC, vat, urssaf, settings)
}

// ComputeMonthRecapV2 builds the recap from operations, bucketed by payment
// date with the invoice date as fallback.
func ComputeMonthRecapV2(month ledger.MonthID, operations []ledger.Operation, settings ledger.Settings) MonthRecap {
	vat := ComputeVATForMonthV2(month, operations)
	urssaf := ComputeURSSAFForMonthV2(month, operations, settings.URSSAFRatePPM)
	var ht, tva, expensesTTC int64
	for _, op := range salesReceivedIn(month, operations) {
		ht += op.AmountHTCents
		tva += op.VATAmountCents
	}
	for _, op := range receivedIn(month, operations, ledger.OperationPurchase) {
		expensesTTC += op.AmountTTCCents
	}
	return recap(month, ht, tva, expensesTTC, vat, urssaf, settings)
}

func recap(month ledger.MonthID, ht, tva, expensesTTC int64, vat VATReport, urssaf URSSAFReport, settings ledger.Settings) MonthRecap {
	ttc := ht + tva
	net := ttc - expensesTTC
	return MonthRecap{
		Month:                month,
		ReceiptsHTCents:      ht,
		ReceiptsTVACents:     tva,
		ReceiptsTTCCents:     ttc,
		ExpensesTTCCents:     expensesTTC,
		VATDueCents:          vat.DueCents,
		URSSAFDueCents:       urssaf.DueCents,
		NetFromMonthCents:    net,
		AfterProvisionsCents: net - vat.DueCents - urssaf.DueCents - settings.BufferCents,
	}
}
