package solar

import (
	"math"
	"testing"
)

func TestAnnualEnergy(t *testing.T) {
	t.Parallel()

	a := DefaultAssumptions()
	// 100m² roof at 50% coverage, 3.8 kWh/m²/day annualized.
	got := a.AnnualEnergyKWh(50, 3.8*365)
	want := 50 * 3.8 * 365 * 0.18 * 0.75 // ≈ 9362 kWh/year
	if math.Abs(got-want) > 1e-9 {
		t.Errorf("AnnualEnergyKWh = %v, want %v", got, want)
	}
	if math.Abs(got-9362.25) > 0.5 {
		t.Errorf("AnnualEnergyKWh = %v, want about 9362", got)
	}
}

func TestAnnualEnergyZeroArea(t *testing.T) {
	t.Parallel()

	if got := DefaultAssumptions().AnnualEnergyKWh(0, 1387); got != 0 {
		t.Errorf("AnnualEnergyKWh(0, ...) = %v, want 0", got)
	}
}

func TestRecommendedKWp(t *testing.T) {
	t.Parallel()

	got := DefaultAssumptions().RecommendedKWp(55)
	if math.Abs(got-10) > 1e-9 {
		t.Errorf("RecommendedKWp(55) = %v, want 10", got)
	}
}

func TestSavingsAndCO2(t *testing.T) {
	t.Parallel()

	a := DefaultAssumptions()
	if got := a.AnnualSavingsEUR(9362); math.Abs(got-1872.4) > 1e-9 {
		t.Errorf("AnnualSavingsEUR = %v, want 1872.4", got)
	}
	if got := a.CO2SavedKg(9362); math.Abs(got-561.72) > 1e-9 {
		t.Errorf("CO2SavedKg = %v, want 561.72", got)
	}
}

func TestInstallCost(t *testing.T) {
	t.Parallel()

	a := DefaultAssumptions()
	if got := a.InstallCostEUR(10); math.Abs(got-17200) > 1e-9 {
		t.Errorf("InstallCostEUR(10) = %v, want 17200", got)
	}
	if got := a.InstallCostEUR(0); got != 0 {
		t.Errorf("InstallCostEUR(0) = %v, want 0", got)
	}

	// The fixed share makes small systems cost more per kWp.
	small := a.InstallCostEUR(2) / 2
	large := a.InstallCostEUR(9) / 9
	if small <= large {
		t.Errorf("per-kWp cost %v (small) should exceed %v (large)", small, large)
	}
}

func TestPaybackYears(t *testing.T) {
	t.Parallel()

	if p := PaybackYears(17200, 1872.4); p == nil || math.Abs(*p-17200/1872.4) > 1e-9 {
		t.Errorf("PaybackYears = %v", p)
	}
	if p := PaybackYears(17200, 0); p != nil {
		t.Errorf("PaybackYears with zero savings = %v, want nil", *p)
	}
	if p := PaybackYears(17200, -5); p != nil {
		t.Errorf("PaybackYears with negative savings = %v, want nil", *p)
	}
}

func TestVerdict(t *testing.T) {
	t.Parallel()

	a := DefaultAssumptions()
	f := func(v float64) *float64 { return &v }

	tests := []struct {
		payback *float64
		want    Verdict
	}{
		{f(5), VerdictHighlyAttractive},
		{f(7.99), VerdictHighlyAttractive},
		{f(8), VerdictAttractive},
		{f(12), VerdictAttractive},
		{f(12.01), VerdictAcceptable},
		{f(20), VerdictAcceptable},
		{f(20.5), VerdictUnattractive},
		{nil, VerdictUnattractive},
	}

	for _, tt := range tests {
		if got := a.Verdict(tt.payback); got != tt.want {
			t.Errorf("Verdict(%v) = %v, want %v", tt.payback, got, tt.want)
		}
	}

	if VerdictUnattractive.Label() == "" || VerdictHighlyAttractive.Label() == "" {
		t.Error("verdicts must have display labels")
	}
}
