package tax

import (
	"fmt"
	"time"

	ledger "freelance-tax/internal/ledger/domain"
)

// RecommendationKind is the outcome of a provision optimization.
type RecommendationKind string

const (
	RecommendShortfall  RecommendationKind = "shortfall"
	RecommendDistribute RecommendationKind = "distribute"
	RecommendOptimal    RecommendationKind = "optimal"
)

// Recommendation carries the outcome and its amount (missing or distributable cash).
type Recommendation struct {
	Kind        RecommendationKind `json:"kind"`
	AmountCents int64              `json:"amount_cents"`
	Message     string             `json:"message"`
}

// ProvisionOptimization nets cash against upcoming obligations.
type ProvisionOptimization struct {
	AvailableCashCents            int64          `json:"available_cash_cents"`
	UpcomingObligationsCents      int64          `json:"upcoming_obligations_cents"`
	RequiredProvisionsCents       int64          `json:"required_provisions_cents"`
	AvailableForDistributionCents int64          `json:"available_for_distribution_cents"`
	Recommendation                Recommendation `json:"recommendation"`
	Recommendations               []string       `json:"recommendations"`
	OptimizationDate              time.Time      `json:"optimization_date"`
}

// OptimizeProvisions sums pending schedules due within horizonDays of today,
// adds the buffer and compares the requirement with availableCash.
func OptimizeProvisions(availableCash int64, schedules []TaxSchedule, buffer int64, horizonDays int, today time.Time) ProvisionOptimization {
	today = ledger.CivilDate(today)
	cutoff := today.AddDate(0, 0, horizonDays)
	var upcoming int64
	for _, s := range schedules {
		if s.Status == SchedulePending && !s.DueDate.After(cutoff) {
			upcoming += s.AmountCents
		}
	}
	required := upcoming + buffer
	surplus := availableCash - required

	var rec Recommendation
	switch {
	case surplus < 0:
		rec = Recommendation{
			Kind:        RecommendShortfall,
			AmountCents: -surplus,
			Message:     fmt.Sprintf("Besoin de %d € supplémentaires pour couvrir les obligations fiscales", -surplus/100),
		}
	case surplus > 2*buffer:
		rec = Recommendation{
			Kind:        RecommendDistribute,
			AmountCents: surplus,
			Message:     fmt.Sprintf("Possibilité de distribuer %d € après provisions", surplus/100),
		}
	default:
		rec = Recommendation{Kind: RecommendOptimal, Message: "Provisions optimales maintenues"}
	}

	return ProvisionOptimization{
		AvailableCashCents:            availableCash,
		UpcomingObligationsCents:      upcoming,
		RequiredProvisionsCents:       required,
		AvailableForDistributionCents: max(surplus, 0),
		Recommendation:                rec,
		Recommendations:               []string{rec.Message},
		OptimizationDate:              today,
	}
}
