package tax

import (
	"strings"
	"time"

	ledger "freelance-tax/internal/ledger/domain"
)

// ProvisionKind tags what a provision is set aside for.
type ProvisionKind string

const (
	ProvisionVAT    ProvisionKind = "vat"
	ProvisionURSSAF ProvisionKind = "urssaf"
	ProvisionOther  ProvisionKind = "other"
)

// ParseProvisionKind accepts vat/tva, urssaf and other/autre.
func ParseProvisionKind(value string) (ProvisionKind, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "vat", "tva":
		return ProvisionVAT, nil
	case "urssaf":
		return ProvisionURSSAF, nil
	case "other", "autre":
		return ProvisionOther, nil
	}
	return "", ledger.NewValidationError("kind", "type de provision inconnu: "+value)
}

// Provision is an amount reserved for a future payment.
type Provision struct {
	ID          string        `json:"id"`
	Kind        ProvisionKind `json:"kind"`
	Label       string        `json:"label"`
	DueDate     time.Time     `json:"due_date"`
	AmountCents int64         `json:"amount_cents"`
	CreatedAt   time.Time     `json:"created_at"`
}

// Validate checks the provision before storage.
func (p Provision) Validate() error {
	if p.ID == "" {
		return ledger.NewValidationError("id", "identifiant requis")
	}
	if p.DueDate.IsZero() {
		return ledger.NewValidationError("due_date", "échéance requise")
	}
	if p.AmountCents < 0 {
		return ledger.NewValidationError("amount_cents", "montant négatif")
	}
	return nil
}

// SumProvisions totals provision amounts.
func SumProvisions(provisions []Provision) int64 {
	var total int64
	for _, p := range provisions {
		total += p.AmountCents
	}
	return total
}
