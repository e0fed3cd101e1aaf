package tax

import (
	"testing"
)

func TestOptimizeProvisions_Shortfall(t *testing.T) {
	today := day(2024, 5, 1)
	schedules := []TaxSchedule{
		{AmountCents: 100000, DueDate: day(2024, 5, 20), Status: SchedulePending},
		{AmountCents: 50000, DueDate: day(2024, 5, 31), Status: SchedulePending},
		{AmountCents: 70000, DueDate: day(2024, 5, 5), Status: SchedulePaid},
		{AmountCents: 90000, DueDate: day(2024, 9, 5), Status: SchedulePending},
	}
	got := OptimizeProvisions(100000, schedules, 50000, 30, today)
	if got.UpcomingObligationsCents != 150000 || got.RequiredProvisionsCents != 200000 {
		t.Fatalf("unexpected totals %+v", got)
	}
	if got.AvailableForDistributionCents != 0 {
		t.Fatalf("expected nothing to distribute, got %d", got.AvailableForDistributionCents)
	}
	if got.Recommendation.Kind != RecommendShortfall || got.Recommendation.AmountCents != 100000 {
		t.Fatalf("unexpected recommendation %+v", got.Recommendation)
	}
	if got.Recommendations[0] != "Besoin de 1000 € supplémentaires pour couvrir les obligations fiscales" {
		t.Fatalf("unexpected message %q", got.Recommendations[0])
	}
}

func TestOptimizeProvisions_DistributeAndOptimal(t *testing.T) {
	today := day(2024, 5, 1)
	got := OptimizeProvisions(200001, nil, 50000, 30, today)
	if got.Recommendation.Kind != RecommendDistribute || got.AvailableForDistributionCents != 150001 {
		t.Fatalf("expected distribution, got %+v", got)
	}
	if got.Recommendation.Message != "Possibilité de distribuer 1500 € après provisions" {
		t.Fatalf("unexpected message %q", got.Recommendation.Message)
	}
	got = OptimizeProvisions(150000, nil, 50000, 30, today)
	if got.Recommendation.Kind != RecommendOptimal || got.AvailableForDistributionCents != 100000 {
		t.Fatalf("exactly twice the buffer is optimal, got %+v", got)
	}
	if got.Recommendation.Message != "Provisions optimales maintenues" {
		t.Fatalf("unexpected message %q", got.Recommendation.Message)
	}
}

func TestOptimizeProvisions_CutoffIsInclusive(t *testing.T) {
	today := day(2024, 5, 1)
	schedules := []TaxSchedule{{AmountCents: 1000, DueDate: day(2024, 5, 31), Status: SchedulePending}}
	got := OptimizeProvisions(0, schedules, 0, 30, today)
	if got.UpcomingObligationsCents != 1000 {
		t.Fatalf("expected entry due on cutoff to count, got %+v", got)
	}
}
