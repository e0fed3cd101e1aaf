package tax

import (
	ledger "freelance-tax/internal/ledger/domain"
)

// ForecastLine is one projected month.
type ForecastLine struct {
	Year                 int   `json:"year"`
	Month                int   `json:"month"`
	HTCents              int64 `json:"ht_cents"`
	TVADueCents          int64 `json:"tva_due_cents"`
	URSSAFDueCents       int64 `json:"urssaf_due_cents"`
	ExpensesTTCCents     int64 `json:"expenses_ttc_cents"`
	NetCents             int64 `json:"net_cents"`
	AfterProvisionsCents int64 `json:"after_provisions_cents"`
}

// ForecastResult is a flat projection starting at Start.
type ForecastResult struct {
	Start  ledger.MonthID `json:"start"`
	Months []ForecastLine `json:"months"`
}

// ForecastCashflow projects horizon months of flat revenue and expenses.
// Deductible VAT on expenses is estimated by grossing the TTC amount down.
func ForecastCashflow(start ledger.MonthID, horizon int, settings ledger.Settings) ForecastResult {
	if horizon < 0 {
		horizon = 0
	}
	ht := settings.ForecastHTCents
	expTTC := settings.ForecastExpensesTTCCents
	collected := ledger.ApplyRatePPM(ht, settings.DefaultVATRatePPM)
	urssaf := ledger.ApplyRatePPM(ht, settings.URSSAFRatePPM)
	expHT := ledger.MulDiv(expTTC, ledger.PPMScale, ledger.PPMScale+settings.ForecastExpenseVATRatePPM)
	expTVA := expTTC - expHT
	if expTVA < 0 {
		expTVA = 0
	}
	tvaDue := collected - expTVA
	net := ht + collected - expTTC
	after := net - tvaDue - urssaf - settings.BufferCents

	lines := make([]ForecastLine, 0, horizon)
	for i := 0; i < horizon; i++ {
		m := start.AddMonths(i)
		lines = append(lines, ForecastLine{
			Year:                 m.Year,
			Month:                m.Month,
			HTCents:              ht,
			TVADueCents:          tvaDue,
			URSSAFDueCents:       urssaf,
			ExpensesTTCCents:     expTTC,
			NetCents:             net,
			AfterProvisionsCents: after,
		})
	}
	return ForecastResult{Start: start, Months: lines}
}
