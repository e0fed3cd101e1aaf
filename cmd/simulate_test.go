package cmd

import "testing"

func TestEurosToCents(t *testing.T) {
	cases := map[string]int64{
		"78000":  7_800_000,
		"450.50": 45_050,
		"0.005":  1,
		"0":      0,
	}
	for in, want := range cases {
		got, err := eurosToCents(in)
		if err != nil {
			t.Fatalf("eurosToCents(%q): %v", in, err)
		}
		if got != want {
			t.Fatalf("eurosToCents(%q) = %d, want %d", in, got, want)
		}
	}
	if _, err := eurosToCents("douze"); err == nil {
		t.Fatalf("expected error for non numeric amount")
	}
}

func TestPercentToPPM(t *testing.T) {
	if got := percentToPPM(22); got != 220_000 {
		t.Fatalf("22%% = %d ppm", got)
	}
	if got := percentToPPM(5.5); got != 55_000 {
		t.Fatalf("5.5%% = %d ppm", got)
	}
}
