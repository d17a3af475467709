package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"html/template"

	"github.com/mlecomte/toitsol/internal/geocode"
	"github.com/mlecomte/toitsol/internal/narrative"
	"github.com/mlecomte/toitsol/internal/pipeline"
	"github.com/mlecomte/toitsol/internal/roof"
)

// IndexData drives the single dashboard template through its three
// states: empty prompt, user-facing error, or a full result.
type IndexData struct {
	Address      string
	ErrorMessage string
	Result       *ResultView
}

// ResultView wraps an evaluation with presentation extras the template
// cannot derive itself.
type ResultView struct {
	*pipeline.Evaluation
	Summary     string
	AIComment   string
	GeoJSON     template.JS
	Explanation []string
	CardURL     string
}

func newResultView(ev *pipeline.Evaluation) *ResultView {
	return &ResultView{
		Evaluation:  ev,
		Summary:     narrative.Build(ev),
		GeoJSON:     template.JS(footprintGeoJSON(ev)),
		Explanation: explanationLines(ev),
		CardURL:     "/card.png?address=" + template.URLQueryEscaper(ev.Address),
	}
}

// footprintGeoJSON renders the selected footprint as a GeoJSON Feature
// for the Leaflet map and the JSON API. GeoJSON wants [lon, lat] vertex
// order. All stored rings are outer rings: several of them mean a
// multipolygon relation, not holes, so they become a MultiPolygon.
func footprintGeoJSON(ev *pipeline.Evaluation) json.RawMessage {
	rings := make([][][]float64, 0, len(ev.Rings))
	for _, ring := range ev.Rings {
		r := make([][]float64, 0, len(ring)+1)
		for _, v := range ring {
			r = append(r, []float64{v.Lon, v.Lat})
		}
		if len(ring) > 0 {
			r = append(r, []float64{ring[0].Lon, ring[0].Lat})
		}
		rings = append(rings, r)
	}

	geometry := map[string]any{
		"type":        "Polygon",
		"coordinates": rings,
	}
	if len(rings) > 1 {
		polygons := make([][][][]float64, 0, len(rings))
		for _, r := range rings {
			polygons = append(polygons, [][][]float64{r})
		}
		geometry = map[string]any{
			"type":        "MultiPolygon",
			"coordinates": polygons,
		}
	}

	feature := map[string]any{
		"type":     "Feature",
		"geometry": geometry,
		"properties": map[string]any{
			"area_m2": ev.AreaM2,
		},
	}
	data, err := json.Marshal(feature)
	if err != nil {
		return json.RawMessage("null")
	}
	return data
}

// explanationLines reproduces the estimate arithmetic with the actual
// numbers, so the dashboard can show how the figures were obtained. Every
// constant comes from the assumption set carried in the record; the
// displayed equations stay true when the defaults are overridden.
func explanationLines(ev *pipeline.Evaluation) []string {
	a := ev.Assumptions
	lines := []string{
		fmt.Sprintf("Surface du toit : %.1f m² (périmètre %.1f m, compacité %.3f)", ev.AreaM2, ev.PerimeterM, ev.Compactness),
	}
	if ev.FloorMultiplier != 1 {
		lines = append(lines, fmt.Sprintf("Correction étages : surface × %.1f", ev.FloorMultiplier))
	}
	lines = append(lines,
		fmt.Sprintf("Surface exploitable : %.1f × %.2f (couverture, politique %s) × %.2f (ombrage) = %.1f m²",
			ev.AreaM2*ev.FloorMultiplier, ev.CoverageRatio, ev.CoveragePolicy, ev.ShadeFactor, ev.ExploitableM2),
		fmt.Sprintf("Irradiation : %.2f kWh/m²/jour soit %.0f kWh/m²/an", ev.IrradianceDaily, ev.IrradianceAnnual),
		fmt.Sprintf("Production : %.1f m² × %.0f kWh/m²/an × %.2f (rendement) × %.2f (pertes) = %.0f kWh/an",
			ev.ExploitableM2, ev.IrradianceAnnual, a.PanelEfficiency, a.PerformanceRatio, ev.AnnualEnergyKWh),
		fmt.Sprintf("Puissance recommandée : %.1f / %.1f = %.1f kWc", ev.ExploitableM2, a.AreaPerKWp, ev.RecommendedKWp),
		fmt.Sprintf("Coût estimé : %.1f kWc × %.0f EUR + %.0f EUR = %.0f EUR", ev.RecommendedKWp, a.CostPerKWp, a.FixedInstallCost, ev.InstallCostEUR),
		fmt.Sprintf("Économies : %.0f kWh × %.2f EUR/kWh = %.0f EUR/an", ev.AnnualEnergyKWh, a.ElectricityPrice, ev.AnnualSavingsEUR),
	)
	if ev.PaybackYears != nil {
		lines = append(lines, fmt.Sprintf("Retour sur investissement : %.0f / %.0f = %.1f ans", ev.InstallCostEUR, ev.AnnualSavingsEUR, *ev.PaybackYears))
	}
	if ev.IrradianceFallback {
		lines = append(lines, fmt.Sprintf("Irradiation indisponible pour ce point, moyenne nationale utilisée (%.1f kWh/m²/jour).", ev.IrradianceDaily))
	}
	return lines
}

// errorCode maps user-facing pipeline errors to stable machine codes
// for API consumers.
func errorCode(err error) string {
	var geocodeErr *geocode.GeocodingError
	if errors.As(err, &geocodeErr) {
		return "geocoding_failed"
	}
	var notFound *roof.NoBuildingFoundError
	if errors.As(err, &notFound) {
		return "no_building_found"
	}
	var tooFar *roof.BuildingTooFarError
	if errors.As(err, &tooFar) {
		return "building_too_far"
	}
	var tooSmall *roof.RoofTooSmallError
	if errors.As(err, &tooSmall) {
		return "roof_too_small"
	}
	return "evaluation_failed"
}
