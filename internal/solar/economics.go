// Package solar holds the pure yield and economics arithmetic: no I/O, no
// state, nothing but the assumptions struct and closed-form products.
package solar

// Assumptions is the versioned set of economic and physical constants the
// calculator runs on. Every figure is a calibration lever: scenario
// comparisons are parameter sweeps over the same pure functions.
type Assumptions struct {
	// Version identifies the assumption set in output records.
	Version string `json:"version"`

	// PanelEfficiency is the module conversion efficiency, dimensionless.
	// 0.18 reflects current standard residential panels.
	PanelEfficiency float64 `json:"panel_efficiency"`

	// PerformanceRatio captures system losses (inverter, cabling, soiling,
	// temperature), dimensionless. 0.75 is the conservative industry rule
	// of thumb.
	PerformanceRatio float64 `json:"performance_ratio"`

	// ElectricityPrice in €/kWh, all taxes included. 0.20 matches the
	// 2025 French regulated residential tariff.
	ElectricityPrice float64 `json:"electricity_price_eur_kwh"`

	// CostPerKWp in €/kWp installed, French residential market order of
	// magnitude.
	CostPerKWp float64 `json:"cost_per_kwp_eur"`

	// FixedInstallCost in €, the size-independent share (scaffolding,
	// grid connection, paperwork). This is what makes small installations
	// disproportionately expensive per kWp.
	FixedInstallCost float64 `json:"fixed_install_cost_eur"`

	// AreaPerKWp in m²/kWp: panel area needed per kW-peak at the assumed
	// efficiency (about 5.5 m² at 18%).
	AreaPerKWp float64 `json:"area_per_kwp_m2"`

	// EmissionFactor in kg CO2/kWh displaced. The French grid is
	// low-carbon; 0.06 is the ADEME residential figure.
	EmissionFactor float64 `json:"emission_factor_kg_kwh"`

	// SystemLifetimeYears: paybacks beyond this are not worth having.
	SystemLifetimeYears float64 `json:"system_lifetime_years"`
}

// DefaultAssumptions returns the calibrated 2025 France assumption set.
func DefaultAssumptions() Assumptions {
	return Assumptions{
		Version:             "fr-2025.1",
		PanelEfficiency:     0.18,
		PerformanceRatio:    0.75,
		ElectricityPrice:    0.20,
		CostPerKWp:          1600,
		FixedInstallCost:    1200,
		AreaPerKWp:          5.5,
		EmissionFactor:      0.06,
		SystemLifetimeYears: 20,
	}
}

// AnnualEnergyKWh is the yield formula: a single product of exploitable
// area (m²), annual irradiance (kWh/m²/year), efficiency, and performance
// ratio.
func (a Assumptions) AnnualEnergyKWh(exploitableM2, annualIrradiance float64) float64 {
	return exploitableM2 * annualIrradiance * a.PanelEfficiency * a.PerformanceRatio
}

// RecommendedKWp converts exploitable area into installed peak power.
func (a Assumptions) RecommendedKWp(exploitableM2 float64) float64 {
	return exploitableM2 / a.AreaPerKWp
}

// AnnualSavingsEUR values self-consumed production at the retail tariff.
func (a Assumptions) AnnualSavingsEUR(annualEnergyKWh float64) float64 {
	return annualEnergyKWh * a.ElectricityPrice
}

// CO2SavedKg is the yearly grid emissions displaced by production.
func (a Assumptions) CO2SavedKg(annualEnergyKWh float64) float64 {
	return annualEnergyKWh * a.EmissionFactor
}

// InstallCostEUR estimates turnkey cost: linear in installed power plus
// the fixed component share, which corrects the per-kWp price upward for
// small systems.
func (a Assumptions) InstallCostEUR(kwp float64) float64 {
	if kwp <= 0 {
		return 0
	}
	return kwp*a.CostPerKWp + a.FixedInstallCost
}

// PaybackYears returns cost ÷ yearly savings, or nil when savings are
// non-positive and the investment never returns.
func PaybackYears(costEUR, annualSavingsEUR float64) *float64 {
	if annualSavingsEUR <= 0 {
		return nil
	}
	p := costEUR / annualSavingsEUR
	return &p
}

// Verdict is the qualitative payback label shown on the dashboard.
type Verdict string

const (
	VerdictHighlyAttractive Verdict = "highly_attractive"
	VerdictAttractive       Verdict = "attractive"
	VerdictAcceptable       Verdict = "acceptable"
	VerdictUnattractive     Verdict = "unattractive"
)

// Label returns the French display text for the verdict.
func (v Verdict) Label() string {
	switch v {
	case VerdictHighlyAttractive:
		return "Très intéressant"
	case VerdictAttractive:
		return "Intéressant"
	case VerdictAcceptable:
		return "Acceptable"
	default:
		return "Peu intéressant financièrement"
	}
}

// Verdict classifies a payback period. Breakpoints are half-open and
// contiguous: [0,8) highly attractive, [8,12] attractive, (12,lifetime]
// acceptable, beyond the system lifetime (or no payback at all)
// unattractive.
func (a Assumptions) Verdict(payback *float64) Verdict {
	switch {
	case payback == nil || *payback > a.SystemLifetimeYears:
		return VerdictUnattractive
	case *payback < 8:
		return VerdictHighlyAttractive
	case *payback <= 12:
		return VerdictAttractive
	default:
		return VerdictAcceptable
	}
}
