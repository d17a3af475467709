// Package pipeline sequences the evaluation stages: geocode the address,
// fetch candidate footprints, select the roof, estimate coverage, fetch
// irradiance, and run the yield and economics arithmetic.
package pipeline

import (
	"context"
	"log"
	"time"

	"github.com/mlecomte/toitsol/internal/geocode"
	"github.com/mlecomte/toitsol/internal/irradiance"
	"github.com/mlecomte/toitsol/internal/metrics"
	"github.com/mlecomte/toitsol/internal/osm"
	"github.com/mlecomte/toitsol/internal/roof"
	"github.com/mlecomte/toitsol/internal/solar"
)

// Geocoder resolves a free-text address to a coordinate.
type Geocoder interface {
	Geocode(ctx context.Context, address string) (geocode.Place, error)
}

// FootprintSource fetches building polygons around a point. Failures are
// normalized to an empty slice by the implementation; the selector then
// fails uniformly.
type FootprintSource interface {
	BuildingsNear(ctx context.Context, lat, lon, radiusM float64) []osm.Footprint
}

// IrradianceSource returns a daily-average irradiance sample. It never
// fails; degraded lookups carry the fallback flag.
type IrradianceSource interface {
	DailyAverage(ctx context.Context, lat, lon float64) irradiance.Sample
}

// Options configure one evaluator.
type Options struct {
	SearchRadiusM float64
	MaxDistanceM  float64
	MinRoofAreaM2 float64
	Coverage      roof.CoveragePolicy
	// Floors is nil unless the low-confidence story heuristic was enabled
	// explicitly.
	Floors      *roof.FloorPolicy
	Assumptions solar.Assumptions
}

// DefaultOptions returns the production defaults: 80m search radius,
// compactness-based coverage, floor heuristic off.
func DefaultOptions() Options {
	return Options{
		SearchRadiusM: 80,
		MaxDistanceM:  roof.DefaultMaxDistanceM,
		MinRoofAreaM2: roof.DefaultMinAreaM2,
		Coverage:      roof.DefaultCompactnessBased(),
		Assumptions:   solar.DefaultAssumptions(),
	}
}

// Evaluation is the immutable result of one address evaluation, the sole
// record handed to the presentation layer.
type Evaluation struct {
	Address     string  `json:"address"`
	DisplayName string  `json:"display_name"`
	Lat         float64 `json:"lat"`
	Lon         float64 `json:"lon"`

	FootprintKind string         `json:"footprint_kind"`
	FootprintID   int64          `json:"footprint_id"`
	Rings         [][]osm.LatLon `json:"rings"`
	DistanceM     float64        `json:"distance_m"`
	NeighborCount int            `json:"neighbor_count"`

	AreaM2      float64 `json:"area_m2"`
	PerimeterM  float64 `json:"perimeter_m"`
	Compactness float64 `json:"compactness"`

	CoveragePolicy  string  `json:"coverage_policy"`
	CoverageRatio   float64 `json:"coverage_ratio"`
	ShadeFactor     float64 `json:"shade_factor"`
	BuiltDensity    float64 `json:"built_density"`
	FloorMultiplier float64 `json:"floor_multiplier"`
	ExploitableM2   float64 `json:"exploitable_m2"`

	IrradianceDaily    float64 `json:"irradiance_daily_kwh_m2"`
	IrradianceAnnual   float64 `json:"irradiance_annual_kwh_m2"`
	IrradianceFallback bool    `json:"irradiance_fallback"`

	RecommendedKWp   float64       `json:"recommended_kwp"`
	AnnualEnergyKWh  float64       `json:"annual_energy_kwh"`
	CO2SavedKg       float64       `json:"co2_saved_kg"`
	AnnualSavingsEUR float64       `json:"annual_savings_eur"`
	InstallCostEUR   float64       `json:"install_cost_eur"`
	PaybackYears     *float64      `json:"payback_years"`
	Verdict          solar.Verdict `json:"verdict"`
	VerdictLabel     string        `json:"verdict_label"`

	// Assumptions carries the full constant set the figures were computed
	// with, so presentation layers reproduce the arithmetic from the
	// record instead of re-stating constants that may have been
	// overridden.
	Assumptions        solar.Assumptions `json:"assumptions"`
	AssumptionsVersion string            `json:"assumptions_version"`
	EvaluatedAt        time.Time         `json:"evaluated_at"`
}

// Evaluator runs the full pipeline against live or test providers.
type Evaluator struct {
	geocoder   Geocoder
	footprints FootprintSource
	irradiance IrradianceSource
	opts       Options
}

func New(g Geocoder, f FootprintSource, i IrradianceSource, opts Options) *Evaluator {
	if opts.Coverage == nil {
		opts.Coverage = roof.DefaultCompactnessBased()
	}
	if opts.SearchRadiusM <= 0 {
		opts.SearchRadiusM = 80
	}
	return &Evaluator{geocoder: g, footprints: f, irradiance: i, opts: opts}
}

// Evaluate runs the stages in strict order. Geocoding and roof selection
// failures abort with their typed errors; the irradiance stage never
// aborts. Identical inputs against a stable data snapshot produce
// identical figures.
func (e *Evaluator) Evaluate(ctx context.Context, address string) (*Evaluation, error) {
	place, err := e.geocoder.Geocode(ctx, address)
	if err != nil {
		metrics.EvaluationsTotal.WithLabelValues("geocoding_failed").Inc()
		return nil, err
	}
	log.Printf("pipeline: %q resolved to (%.5f, %.5f)", address, place.Lat, place.Lon)

	footprints := e.footprints.BuildingsNear(ctx, place.Lat, place.Lon, e.opts.SearchRadiusM)

	sel, err := roof.Select(footprints, place.Lat, place.Lon, roof.Options{
		SearchRadiusM: e.opts.SearchRadiusM,
		MaxDistanceM:  e.opts.MaxDistanceM,
		MinAreaM2:     e.opts.MinRoofAreaM2,
	})
	if err != nil {
		metrics.EvaluationsTotal.WithLabelValues("no_roof").Inc()
		return nil, err
	}

	coverage := e.opts.Coverage.Estimate(sel)

	neighborCount := len(sel.Candidates) - 1
	floorMult := 1.0
	if e.opts.Floors != nil {
		floorMult = e.opts.Floors.AreaMultiplier(neighborCount)
	}

	area := sel.Roof.Area() * floorMult
	exploitable := area * coverage.Ratio * coverage.Shade

	sample := e.irradiance.DailyAverage(ctx, place.Lat, place.Lon)
	annualIrr := sample.Annual()

	a := e.opts.Assumptions
	energy := a.AnnualEnergyKWh(exploitable, annualIrr)
	kwp := a.RecommendedKWp(exploitable)
	savings := a.AnnualSavingsEUR(energy)
	cost := a.InstallCostEUR(kwp)
	payback := solar.PaybackYears(cost, savings)
	verdict := a.Verdict(payback)

	metrics.EvaluationsTotal.WithLabelValues("ok").Inc()

	return &Evaluation{
		Address:     address,
		DisplayName: place.DisplayName,
		Lat:         place.Lat,
		Lon:         place.Lon,

		FootprintKind: sel.Roof.Source.Kind,
		FootprintID:   sel.Roof.Source.ID,
		Rings:         sel.Roof.Source.Rings,
		DistanceM:     sel.DistanceM,
		NeighborCount: neighborCount,

		AreaM2:      sel.Roof.Area(),
		PerimeterM:  sel.Roof.Perimeter(),
		Compactness: roof.Compactness(sel.Roof),

		CoveragePolicy:  coverage.Policy,
		CoverageRatio:   coverage.Ratio,
		ShadeFactor:     coverage.Shade,
		BuiltDensity:    coverage.Density,
		FloorMultiplier: floorMult,
		ExploitableM2:   exploitable,

		IrradianceDaily:    sample.DailyKWhM2,
		IrradianceAnnual:   annualIrr,
		IrradianceFallback: sample.Fallback,

		RecommendedKWp:   kwp,
		AnnualEnergyKWh:  energy,
		CO2SavedKg:       a.CO2SavedKg(energy),
		AnnualSavingsEUR: savings,
		InstallCostEUR:   cost,
		PaybackYears:     payback,
		Verdict:          verdict,
		VerdictLabel:     verdict.Label(),

		Assumptions:        a,
		AssumptionsVersion: a.Version,
		EvaluatedAt:        time.Now().UTC(),
	}, nil
}

// UserFacing is implemented by every fatal pipeline error; the serving
// layer renders UserMessage instead of the raw error text.
type UserFacing interface {
	error
	UserMessage() string
}
