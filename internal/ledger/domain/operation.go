package ledger

import (
	"strings"
	"time"
)

// OperationType tells sales from purchases.
type OperationType string

const (
	OperationSale     OperationType = "sale"
	OperationPurchase OperationType = "purchase"
)

// ParseOperationType accepts sale/vente and purchase/achat, case-insensitively.
func ParseOperationType(value string) (OperationType, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "sale", "vente":
		return OperationSale, nil
	case "purchase", "achat":
		return OperationPurchase, nil
	}
	return "", NewValidationError("operation_type", "type d'opération inconnu: "+value)
}

// Operation is the unified ledger record.
type Operation struct {
	ID             string        `json:"id"`
	InvoiceDate    time.Time     `json:"invoice_date"`
	PaymentDate    *time.Time    `json:"payment_date,omitempty"`
	Type           OperationType `json:"operation_type"`
	AmountHTCents  int64         `json:"amount_ht_cents"`
	VATAmountCents int64         `json:"vat_amount_cents"`
	AmountTTCCents int64         `json:"amount_ttc_cents"`
	VATOnPayments  bool          `json:"vat_on_payments"`
	Label          string        `json:"label"`
	ReceiptURL     string        `json:"receipt_url,omitempty"`
	CreatedAt      time.Time     `json:"created_at"`
	UpdatedAt      time.Time     `json:"updated_at"`
}

// OperationInput holds the canonical fields an operation is built from.
type OperationInput struct {
	InvoiceDate    time.Time
	PaymentDate    *time.Time
	Type           OperationType
	AmountHTCents  int64
	VATAmountCents int64
	VATOnPayments  bool
	Label          string
	ReceiptURL     string
}

func (in OperationInput) validate() error {
	if in.InvoiceDate.IsZero() {
		return NewValidationError("invoice_date", "date de facture requise")
	}
	if in.Type != OperationSale && in.Type != OperationPurchase {
		return NewValidationError("operation_type", "type d'opération inconnu: "+string(in.Type))
	}
	if in.AmountHTCents < 0 {
		return NewValidationError("amount_ht_cents", "montant HT négatif")
	}
	if in.VATAmountCents < 0 {
		return NewValidationError("vat_amount_cents", "montant TVA négatif")
	}
	return nil
}

// NewOperation builds an operation; TTC is always HT + VAT.
func NewOperation(id string, in OperationInput, now time.Time) (*Operation, error) {
	if strings.TrimSpace(id) == "" {
		return nil, NewValidationError("id", "identifiant requis")
	}
	if err := in.validate(); err != nil {
		return nil, err
	}
	op := &Operation{ID: id, CreatedAt: now.UTC()}
	op.apply(in, now)
	return op, nil
}

// Amend replaces every editable field, re-deriving TTC.
func (o *Operation) Amend(in OperationInput, now time.Time) error {
	if err := in.validate(); err != nil {
		return err
	}
	o.apply(in, now)
	return nil
}

func (o *Operation) apply(in OperationInput, now time.Time) {
	o.InvoiceDate = CivilDate(in.InvoiceDate)
	o.PaymentDate = civilPtr(in.PaymentDate)
	o.Type = in.Type
	o.AmountHTCents = in.AmountHTCents
	o.VATAmountCents = in.VATAmountCents
	o.AmountTTCCents = in.AmountHTCents + in.VATAmountCents
	o.VATOnPayments = in.VATOnPayments
	o.Label = strings.TrimSpace(in.Label)
	o.ReceiptURL = in.ReceiptURL
	o.UpdatedAt = now.UTC()
}

// Input returns the canonical fields of the operation.
func (o Operation) Input() OperationInput {
	return OperationInput{
		InvoiceDate:    o.InvoiceDate,
		PaymentDate:    o.PaymentDate,
		Type:           o.Type,
		AmountHTCents:  o.AmountHTCents,
		VATAmountCents: o.VATAmountCents,
		VATOnPayments:  o.VATOnPayments,
		Label:          o.Label,
		ReceiptURL:     o.ReceiptURL,
	}
}

// IsSale reports whether the operation is a sale.
func (o Operation) IsSale() bool { return o.Type == OperationSale }

// VATDate is the date governing VAT timing: the payment date on the
// collection basis (nil until paid), the invoice date otherwise.
func (o Operation) VATDate() *time.Time {
	if o.VATOnPayments {
		return o.PaymentDate
	}
	d := o.InvoiceDate
	return &d
}

// CashDate is the payment date, falling back to the invoice date.
func (o Operation) CashDate() time.Time {
	if o.PaymentDate != nil {
		return *o.PaymentDate
	}
	return o.InvoiceDate
}
