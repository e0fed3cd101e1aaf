package tax

import (
	ledger "freelance-tax/internal/ledger/domain"
)

// VATReport is the VAT position of one month. DueCents may be negative (a credit).
type VATReport struct {
	Month           ledger.MonthID `json:"month"`
	CollectedCents  int64          `json:"collected_cents"`
	DeductibleCents int64          `json:"deductible_cents"`
	DueCents        int64          `json:"due_cents"`
}

// URSSAFReport is the social contribution owed on one month's receipts.
type URSSAFReport struct {
	Month           ledger.MonthID `json:"month"`
	CAEncaisseCents int64          `json:"ca_encaisse_cents"`
	RatePPM         int64          `json:"rate_ppm"`
	DueCents        int64          `json:"due_cents"`
}

// ComputeVATForMonth sums invoice and expense VAT paid in month.
func ComputeVATForMonth(month ledger.MonthID, invoices []ledger.Invoice, expenses []ledger.Expense) VATReport {
	var collected, deductible int64
	for _, inv := range invoices {
		if month.ContainsPtr(inv.PaidAt) {
			collected += inv.AmountTVA
		}
	}
	for _, exp := range expenses {
		if month.ContainsPtr(exp.PaidAt) {
			deductible += exp.AmountTVA
		}
	}
	return VATReport{
		Month:           month,
		CollectedCents:  collected,
		DeductibleCents: deductible,
		DueCents:        collected - deductible,
	}
}

// ComputeVATForMonthV2 applies each operation's VAT regime: collection-basis
// operations count on their payment date only, invoicing-basis operations on
// their invoice date only.
func ComputeVATForMonthV2(month ledger.MonthID, operations []ledger.Operation) VATReport {
	var collected, deductible int64
	for _, op := range operations {
		if !month.ContainsPtr(op.VATDate()) {
			continue
		}
		switch op.Type {
		case ledger.OperationSale:
			collected += op.VATAmountCents
		case ledger.OperationPurchase:
			deductible += op.VATAmountCents
		}
	}
	return VATReport{
		Month:           month,
		CollectedCents:  collected,
		DeductibleCents: deductible,
		DueCents:        collected - deductible,
	}
}

// ComputeURSSAFForMonth applies the rate to invoice HT paid in month.
func ComputeURSSAFForMonth(month ledger.MonthID, invoices []ledger.Invoice, ratePPM int64) URSSAFReport {
	var ca int64
	for _, inv := range invoices {
		if month.ContainsPtr(inv.PaidAt) {
			ca += inv.AmountHT
		}
	}
	return urssafReport(month, ca, ratePPM)
}

// ComputeURSSAFForMonthV2 applies the rate to sales HT received in month.
// Sales without a payment date count on their invoice date.
func ComputeURSSAFForMonthV2(month ledger.MonthID, operations []ledger.Operation, ratePPM int64) URSSAFReport {
	var ca int64
	for _, op := range salesReceivedIn(month, operations) {
		ca += op.AmountHTCents
	}
	return urssafReport(month, ca, ratePPM)
}

func urssafReport(month ledger.MonthID, ca, ratePPM int64) URSSAFReport {
	return URSSAFReport{
		Month:           month,
		CAEncaisseCents: ca,
		RatePPM:         ratePPM,
		DueCents:        ledger.ApplyRatePPM(ca, ratePPM),
	}
}

func salesReceivedIn(month ledger.MonthID, operations []ledger.Operation) []ledger.Operation {
	return receivedIn(month, operations, ledger.OperationSale)
}

func receivedIn(month ledger.MonthID, operations []ledger.Operation, kind ledger.OperationType) []ledger.Operation {
	out := make([]ledger.Operation, 0, len(operations))
	for _, op := range operations {
		if op.Type == kind && month.Contains(op.CashDate()) {
			out = append(out, op)
		}
	}
	return out
}
