package ledger

import (
	"strings"
	"time"
)

// Invoice is a legacy sales record.
type Invoice struct {
	ID          string     `json:"id"`
	Number      string     `json:"number"`
	Client      string     `json:"client"`
	ServiceDate time.Time  `json:"service_date"`
	AmountHT    int64      `json:"amount_ht"`
	VATRatePPM  int64      `json:"vat_rate_ppm"`
	AmountTVA   int64      `json:"amount_tva"`
	AmountTTC   int64      `json:"amount_ttc"`
	PaidAt      *time.Time `json:"paid_at,omitempty"`
	Note        string     `json:"note,omitempty"`
}

// InvoiceInput carries the caller-supplied invoice fields.
// VATOverride replaces the rate-derived VAT amount when set.
type InvoiceInput struct {
	Number      string
	Client      string
	ServiceDate time.Time
	AmountHT    int64
	VATRatePPM  int64
	VATOverride *int64
	PaidAt      *time.Time
	Note        string
}

// NewInvoice validates input and finalizes the amount triangle.
func NewInvoice(id string, in InvoiceInput) (*Invoice, error) {
	if strings.TrimSpace(id) == "" {
		return nil, NewValidationError("id", "identifiant requis")
	}
	if in.ServiceDate.IsZero() {
		return nil, NewValidationError("service_date", "date de prestation requise")
	}
	if err := ValidateRatePPM("vat_rate_ppm", in.VATRatePPM); err != nil {
		return nil, err
	}
	tva, ttc := finalizeAmounts(in.AmountHT, in.VATRatePPM, in.VATOverride)
	inv := &Invoice{
		ID:          id,
		Number:      strings.TrimSpace(in.Number),
		Client:      strings.TrimSpace(in.Client),
		ServiceDate: CivilDate(in.ServiceDate),
		AmountHT:    in.AmountHT,
		VATRatePPM:  in.VATRatePPM,
		AmountTVA:   tva,
		AmountTTC:   ttc,
		PaidAt:      civilPtr(in.PaidAt),
		Note:        in.Note,
	}
	return inv, nil
}

// Expense is a legacy purchase record.
type Expense struct {
	ID          string     `json:"id"`
	Label       string     `json:"label"`
	Category    string     `json:"category"`
	BookingDate time.Time  `json:"booking_date"`
	AmountHT    int64      `json:"amount_ht"`
	VATRatePPM  int64      `json:"vat_rate_ppm"`
	AmountTVA   int64      `json:"amount_tva"`
	AmountTTC   int64      `json:"amount_ttc"`
	PaidAt      *time.Time `json:"paid_at,omitempty"`
	ReceiptPath string     `json:"receipt_path,omitempty"`
}

// ExpenseInput carries the caller-supplied expense fields.
type ExpenseInput struct {
	Label       string
	Category    string
	BookingDate time.Time
	AmountHT    int64
	VATRatePPM  int64
	VATOverride *int64
	PaidAt      *time.Time
	ReceiptPath string
}

// NewExpense validates input and finalizes the amount triangle.
func NewExpense(id string, in ExpenseInput) (*Expense, error) {
	if strings.TrimSpace(id) == "" {
		return nil, NewValidationError("id", "identifiant requis")
	}
	if in.BookingDate.IsZero() {
		return nil, NewValidationError("booking_date", "date de dépense requise")
	}
	if err := ValidateRatePPM("vat_rate_ppm", in.VATRatePPM); err != nil {
		return nil, err
	}
	tva, ttc := finalizeAmounts(in.AmountHT, in.VATRatePPM, in.VATOverride)
	return &Expense{
		ID:          id,
		Label:       strings.TrimSpace(in.Label),
		Category:    strings.TrimSpace(in.Category),
		BookingDate: CivilDate(in.BookingDate),
		AmountHT:    in.AmountHT,
		VATRatePPM:  in.VATRatePPM,
		AmountTVA:   tva,
		AmountTTC:   ttc,
		PaidAt:      civilPtr(in.PaidAt),
		ReceiptPath: in.ReceiptPath,
	}, nil
}

func finalizeAmounts(ht, ratePPM int64, override *int64) (tva, ttc int64) {
	tva = RoundRatePPM(ht, ratePPM)
	if override != nil {
		tva = *override
	}
	return tva, ht + tva
}

func civilPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	d := CivilDate(*t)
	return &d
}
