package ledger

import (
	"testing"
	"time"
)

func date(y, m, d int) time.Time {
	return time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC)
}

func TestNewOperation_DerivesTTC(t *testing.T) {
	now := time.Date(2024, 3, 5, 10, 0, 0, 0, time.UTC)
	op, err := NewOperation("op-1", OperationInput{
		InvoiceDate:    date(2024, 3, 5),
		Type:           OperationSale,
		AmountHTCents:  100000,
		VATAmountCents: 20000,
	}, now)
	if err != nil {
		t.Fatalf("new operation: %v", err)
	}
	if op.AmountTTCCents != 120000 {
		t.Fatalf("expected ttc 120000, got %d", op.AmountTTCCents)
	}
	if !op.CreatedAt.Equal(now) || !op.UpdatedAt.Equal(now) {
		t.Fatalf("unexpected timestamps %v %v", op.CreatedAt, op.UpdatedAt)
	}
}

func TestOperation_AmendKeepsInvariant(t *testing.T) {
	created := date(2024, 3, 5)
	op, err := NewOperation("op-1", OperationInput{
		InvoiceDate:    date(2024, 3, 5),
		Type:           OperationPurchase,
		AmountHTCents:  1000,
		VATAmountCents: 200,
	}, created)
	if err != nil {
		t.Fatalf("new operation: %v", err)
	}
	in := op.Input()
	in.VATAmountCents = 55
	paid := date(2024, 4, 2)
	in.PaymentDate = &paid
	if err := op.Amend(in, date(2024, 4, 3)); err != nil {
		t.Fatalf("amend: %v", err)
	}
	if op.AmountTTCCents != 1055 {
		t.Fatalf("expected ttc 1055, got %d", op.AmountTTCCents)
	}
	if !op.CreatedAt.Equal(created) {
		t.Fatalf("created_at must not change")
	}
	if err := op.Amend(OperationInput{Type: OperationSale}, date(2024, 4, 4)); !IsValidation(err) {
		t.Fatalf("expected validation error for missing invoice date, got %v", err)
	}
	if op.AmountTTCCents != 1055 {
		t.Fatalf("failed amend must leave the operation untouched")
	}
}

func TestOperation_VATDate(t *testing.T) {
	op := Operation{InvoiceDate: date(2024, 3, 5), VATOnPayments: true}
	if op.VATDate() != nil {
		t.Fatalf("collection basis without payment must have no VAT date")
	}
	paid := date(2024, 5, 1)
	op.PaymentDate = &paid
	if got := op.VATDate(); got == nil || !got.Equal(paid) {
		t.Fatalf("expected payment date, got %v", got)
	}
	op.VATOnPayments = false
	if got := op.VATDate(); got == nil || !got.Equal(op.InvoiceDate) {
		t.Fatalf("expected invoice date, got %v", got)
	}
}

func TestParseOperationType(t *testing.T) {
	cases := map[string]OperationType{
		"vente":    OperationSale,
		"Sale":     OperationSale,
		"ACHAT":    OperationPurchase,
		"purchase": OperationPurchase,
	}
	for in, want := range cases {
		got, err := ParseOperationType(in)
		if err != nil || got != want {
			t.Fatalf("ParseOperationType(%q): expected %s, got %s (%v)", in, want, got, err)
		}
	}
	if _, err := ParseOperationType("refund"); !IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestNewInvoice_RoundsVATUnlessOverridden(t *testing.T) {
	inv, err := NewInvoice("inv-1", InvoiceInput{ServiceDate: date(2024, 1, 10), AmountHT: 999, VATRatePPM: 200000})
	if err != nil {
		t.Fatalf("new invoice: %v", err)
	}
	if inv.AmountTVA != 200 || inv.AmountTTC != 1199 {
		t.Fatalf("unexpected amounts %d/%d", inv.AmountTVA, inv.AmountTTC)
	}
	override := int64(0)
	inv, err = NewInvoice("inv-2", InvoiceInput{ServiceDate: date(2024, 1, 10), AmountHT: 999, VATRatePPM: 200000, VATOverride: &override})
	if err != nil {
		t.Fatalf("new invoice: %v", err)
	}
	if inv.AmountTVA != 0 || inv.AmountTTC != 999 {
		t.Fatalf("override not applied: %d/%d", inv.AmountTVA, inv.AmountTTC)
	}
}

func TestDefaultSettingsValidate(t *testing.T) {
	s := DefaultSettings()
	if err := s.Validate(); err != nil {
		t.Fatalf("defaults must validate: %v", err)
	}
	s.VATPayDay = 32
	if err := s.Validate(); !IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
}
