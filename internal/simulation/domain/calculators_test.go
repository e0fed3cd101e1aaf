package simulation

import (
	"testing"
)

func TestCalculateOptimalDailyRate(t *testing.T) {
	got := CalculateOptimalDailyRate(6_000_000, 220, 1_500_000, 0, 220000, 0)
	if got.TotalRevenueHTNeededCents != 9_192_307 {
		t.Fatalf("expected revenue 9192307, got %d", got.TotalRevenueHTNeededCents)
	}
	if got.OptimalDailyRateCents != 41_783 {
		t.Fatalf("expected daily rate 41783, got %d", got.OptimalDailyRateCents)
	}
	if got.TotalTaxesCents != 1_692_307 {
		t.Fatalf("expected taxes 1692307, got %d", got.TotalTaxesCents)
	}
	if got.NetMarginRatio <= 0.65 || got.NetMarginRatio >= 0.66 {
		t.Fatalf("unexpected margin ratio %v", got.NetMarginRatio)
	}
}

func TestCalculateOptimalDailyRate_NoWorkingDays(t *testing.T) {
	got := CalculateOptimalDailyRate(6_000_000, 0, 0, 0, 220000, 0)
	if got.OptimalDailyRateCents != 0 {
		t.Fatalf("expected zero daily rate, got %d", got.OptimalDailyRateCents)
	}
	if got.TotalRevenueHTNeededCents == 0 {
		t.Fatalf("revenue needed is still computed")
	}
}

func TestCalculateOptimalDailyRate_UnreachableRate(t *testing.T) {
	got := CalculateOptimalDailyRate(6_000_000, 220, 0, 500000, 300000, 200000)
	if got.Reachable() || got.OptimalDailyRateCents != 0 || got.TotalRevenueHTNeededCents != 0 {
		t.Fatalf("expected unreachable zero result, got %+v", got)
	}
}

func TestProjectAnnualIncome(t *testing.T) {
	got := ProjectAnnualIncome(500_000, 12, 600_000, 200000, 220000)
	if got.TotalRevenueHTCents != 6_000_000 {
		t.Fatalf("unexpected revenue %d", got.TotalRevenueHTCents)
	}
	if got.VATDueCents != 1_200_000 || got.URSSAFDueCents != 1_320_000 || got.TotalTaxesCents != 2_520_000 {
		t.Fatalf("unexpected taxes %+v", got)
	}
	if got.NetIncomeCents != 2_880_000 {
		t.Fatalf("unexpected net %d", got.NetIncomeCents)
	}
	if got.EffectiveTaxRate != 0.42 || got.ProfitMargin != 0.48 {
		t.Fatalf("unexpected ratios %v %v", got.EffectiveTaxRate, got.ProfitMargin)
	}
}

func TestProjectAnnualIncome_ZeroRevenue(t *testing.T) {
	got := ProjectAnnualIncome(0, 12, 100, 200000, 220000)
	if got.EffectiveTaxRate != 0 || got.ProfitMargin != 0 || got.NetIncomeCents != -100 {
		t.Fatalf("unexpected projection %+v", got)
	}
}
