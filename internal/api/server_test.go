package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/mlecomte/toitsol/internal/geocode"
	"github.com/mlecomte/toitsol/internal/osm"
	"github.com/mlecomte/toitsol/internal/pipeline"
	"github.com/mlecomte/toitsol/internal/roof"
	"github.com/mlecomte/toitsol/internal/solar"
)

type stubEvaluator struct {
	result *pipeline.Evaluation
	err    error
}

func (s *stubEvaluator) Evaluate(ctx context.Context, address string) (*pipeline.Evaluation, error) {
	if s.err != nil {
		return nil, s.err
	}
	ev := *s.result
	ev.Address = address
	return &ev, nil
}

func sampleResult() *pipeline.Evaluation {
	payback := 9.2
	return &pipeline.Evaluation{
		DisplayName:   "10, Rue de la République, Lyon, France",
		Lat:           45.7640,
		Lon:           4.8357,
		FootprintKind: "way",
		FootprintID:   101,
		Rings: [][]osm.LatLon{{
			{Lat: 45.76395, Lon: 4.83560},
			{Lat: 45.76395, Lon: 4.83580},
			{Lat: 45.76410, Lon: 4.83580},
			{Lat: 45.76410, Lon: 4.83560},
		}},
		AreaM2:             120,
		PerimeterM:         44,
		Compactness:        0.062,
		CoveragePolicy:     "compactness",
		CoverageRatio:      0.65,
		ShadeFactor:        1.0,
		FloorMultiplier:    1.0,
		ExploitableM2:      78,
		IrradianceDaily:    3.8,
		IrradianceAnnual:   1387,
		RecommendedKWp:     14.2,
		AnnualEnergyKWh:    14605,
		AnnualSavingsEUR:   2629,
		InstallCostEUR:     23920,
		PaybackYears:       &payback,
		VerdictLabel:       "Rentable",
		Assumptions:        solar.DefaultAssumptions(),
		AssumptionsVersion: "fr-2025.1",
		EvaluatedAt:        time.Now(),
	}
}

func newTestServer(t *testing.T, eval Evaluator) *Server {
	t.Helper()
	t.Setenv("OPENAI_API_KEY", "")
	return NewServer(eval, "0")
}

func TestIndexPrompt(t *testing.T) {
	srv := newTestServer(t, &stubEvaluator{result: sampleResult()})
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "potentiel solaire") {
		t.Error("prompt page missing title")
	}
	if strings.Contains(body, "Résumé") {
		t.Error("prompt page should not show a result")
	}
}

func TestIndexResult(t *testing.T) {
	srv := newTestServer(t, &stubEvaluator{result: sampleResult()})
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/?address=10+rue+de+la+R%C3%A9publique%2C+Lyon", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	body := rec.Body.String()
	for _, want := range []string{
		"Rue de la République",
		"Rentable",
		"Comment ces chiffres sont calculés",
		"card.png",
		`"type":"Polygon"`,
	} {
		if !strings.Contains(body, want) {
			t.Errorf("result page missing %q", want)
		}
	}
}

func TestIndexUserError(t *testing.T) {
	evalErr := &roof.NoBuildingFoundError{RadiusM: 80}
	srv := newTestServer(t, &stubEvaluator{err: evalErr})
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/?address=nowhere", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), evalErr.UserMessage()) {
		t.Error("error page missing the user-facing message")
	}
}

func TestAPIEvaluate(t *testing.T) {
	srv := newTestServer(t, &stubEvaluator{result: sampleResult()})
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/api/evaluate?address=lyon", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("content type = %q", ct)
	}
	var ev pipeline.Evaluation
	if err := json.Unmarshal(rec.Body.Bytes(), &ev); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if ev.Address != "lyon" {
		t.Errorf("address = %q", ev.Address)
	}
	if ev.AnnualEnergyKWh != 14605 {
		t.Errorf("annual energy = %v", ev.AnnualEnergyKWh)
	}
	if !strings.Contains(rec.Body.String(), `"footprint_geojson"`) {
		t.Error("response missing the GeoJSON footprint")
	}
}

func TestAPIEvaluateMissingAddress(t *testing.T) {
	srv := newTestServer(t, &stubEvaluator{result: sampleResult()})
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/api/evaluate", nil))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestAPIEvaluateErrorCodes(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode string
		status   int
	}{
		{"geocoding", &geocode.GeocodingError{Address: "x"}, "geocoding_failed", http.StatusUnprocessableEntity},
		{"no building", &roof.NoBuildingFoundError{RadiusM: 80}, "no_building_found", http.StatusUnprocessableEntity},
		{"too far", &roof.BuildingTooFarError{DistanceM: 90, MaxM: 50}, "building_too_far", http.StatusUnprocessableEntity},
		{"too small", &roof.RoofTooSmallError{AreaM2: 3, MinM2: 15}, "roof_too_small", http.StatusUnprocessableEntity},
		{"internal", errors.New("boom"), "internal", http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newTestServer(t, &stubEvaluator{err: tt.err})
			rec := httptest.NewRecorder()
			srv.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/api/evaluate?address=x", nil))

			if rec.Code != tt.status {
				t.Fatalf("status = %d, want %d", rec.Code, tt.status)
			}
			var apiErr apiError
			if err := json.Unmarshal(rec.Body.Bytes(), &apiErr); err != nil {
				t.Fatalf("decode error body: %v", err)
			}
			if apiErr.Code != tt.wantCode {
				t.Errorf("code = %q, want %q", apiErr.Code, tt.wantCode)
			}
		})
	}
}

func TestCardPNG(t *testing.T) {
	srv := newTestServer(t, &stubEvaluator{result: sampleResult()})
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/card.png?address=lyon", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "image/png" {
		t.Errorf("content type = %q", ct)
	}
	if !bytesHasPNGHeader(rec.Body.Bytes()) {
		t.Error("response is not a PNG")
	}
}

func TestHealth(t *testing.T) {
	srv := newTestServer(t, &stubEvaluator{result: sampleResult()})
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/health", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"status":"ok"`) {
		t.Errorf("body = %s", rec.Body.String())
	}
}

func TestNotFound(t *testing.T) {
	srv := newTestServer(t, &stubEvaluator{result: sampleResult()})
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/nope", nil))

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d", rec.Code)
	}
}

func bytesHasPNGHeader(b []byte) bool {
	return len(b) > 8 && string(b[1:4]) == "PNG"
}

func TestExplanationUsesRecordAssumptions(t *testing.T) {
	ev := sampleResult()
	ev.Assumptions.CostPerKWp = 1400
	ev.Assumptions.FixedInstallCost = 900
	ev.Assumptions.ElectricityPrice = 0.25
	ev.InstallCostEUR = ev.RecommendedKWp*1400 + 900

	all := strings.Join(explanationLines(ev), "\n")
	for _, want := range []string{"1400 EUR", "900 EUR", "0.25 EUR/kWh"} {
		if !strings.Contains(all, want) {
			t.Errorf("explanation missing overridden constant %q:\n%s", want, all)
		}
	}
	for _, stale := range []string{"1600", "1200", "0.20"} {
		if strings.Contains(all, stale) {
			t.Errorf("explanation still shows default constant %q:\n%s", stale, all)
		}
	}
}

func TestFootprintGeoJSONSingleRing(t *testing.T) {
	ev := sampleResult()
	data := footprintGeoJSON(ev)
	if !strings.Contains(string(data), `"type":"Polygon"`) {
		t.Errorf("single-ring footprint should be a Polygon: %s", data)
	}
}

func TestFootprintGeoJSONMultipleOuterRings(t *testing.T) {
	ev := sampleResult()
	ev.Rings = append(ev.Rings, []osm.LatLon{
		{Lat: 45.76420, Lon: 4.83560},
		{Lat: 45.76420, Lon: 4.83580},
		{Lat: 45.76430, Lon: 4.83580},
		{Lat: 45.76430, Lon: 4.83560},
	})

	data := string(footprintGeoJSON(ev))
	if !strings.Contains(data, `"type":"MultiPolygon"`) {
		t.Errorf("multi-ring footprint should be a MultiPolygon: %s", data)
	}
	if strings.Contains(data, `"type":"Polygon"`) {
		t.Errorf("extra outer rings must not be emitted as Polygon holes: %s", data)
	}

	var feature struct {
		Geometry struct {
			Coordinates [][][][]float64 `json:"coordinates"`
		} `json:"geometry"`
	}
	if err := json.Unmarshal(footprintGeoJSON(ev), &feature); err != nil {
		t.Fatalf("decode feature: %v", err)
	}
	if len(feature.Geometry.Coordinates) != 2 {
		t.Errorf("want 2 polygons, got %d", len(feature.Geometry.Coordinates))
	}
	for i, poly := range feature.Geometry.Coordinates {
		if len(poly) != 1 {
			t.Errorf("polygon %d should carry one outer ring, got %d", i, len(poly))
		}
	}
}
