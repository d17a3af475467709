package mapimg

import (
	"bytes"
	"image/png"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/mlecomte/toitsol/internal/osm"
	"github.com/mlecomte/toitsol/internal/pipeline"
)

func sampleEvaluation() *pipeline.Evaluation {
	payback := 9.2
	return &pipeline.Evaluation{
		Address:     "10 rue de la République, Lyon",
		DisplayName: "10, Rue de la République, Lyon, France",
		Lat:         45.7640,
		Lon:         4.8357,
		Rings: [][]osm.LatLon{{
			{Lat: 45.76395, Lon: 4.83560},
			{Lat: 45.76395, Lon: 4.83580},
			{Lat: 45.76410, Lon: 4.83580},
			{Lat: 45.76410, Lon: 4.83560},
		}},
		AreaM2:           120,
		ExploitableM2:    60,
		RecommendedKWp:   10.9,
		AnnualEnergyKWh:  11234,
		AnnualSavingsEUR: 2022,
		InstallCostEUR:   18640,
		PaybackYears:     &payback,
		VerdictLabel:     "Rentable",
		EvaluatedAt:      time.Now(),
	}
}

func TestRender(t *testing.T) {
	data, err := Render(sampleEvaluation())
	if err != nil {
		t.Fatalf("Render: %v", err)
	}

	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("decode rendered card: %v", err)
	}
	b := img.Bounds()
	if b.Dx() != CardWidth || b.Dy() != CardHeight {
		t.Errorf("card is %dx%d, want %dx%d", b.Dx(), b.Dy(), CardWidth, CardHeight)
	}
}

func TestRenderNoPayback(t *testing.T) {
	ev := sampleEvaluation()
	ev.PaybackYears = nil
	ev.VerdictLabel = "Non rentable"
	if _, err := Render(ev); err != nil {
		t.Fatalf("Render without payback: %v", err)
	}
}

func TestRenderAccentedDisplayName(t *testing.T) {
	ev := sampleEvaluation()
	ev.DisplayName = "55, Avenue de l'Hôtel-de-Ville, Saint-Étienne, Auvergne-Rhône-Alpes, France"
	if _, err := Render(ev); err != nil {
		t.Fatalf("Render with accented name: %v", err)
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		in   string
		max  int
		want string
	}{
		{"short", 48, "short"},
		{strings.Repeat("a", 48), 48, strings.Repeat("a", 48)},
		{strings.Repeat("a", 49), 48, strings.Repeat("a", 45) + "..."},
		// The cut must never land inside a multi-byte character.
		{strings.Repeat("é", 49), 48, strings.Repeat("é", 45) + "..."},
	}
	for _, tt := range tests {
		got := truncate(tt.in, tt.max)
		if got != tt.want {
			t.Errorf("truncate(%q, %d) = %q, want %q", tt.in, tt.max, got, tt.want)
		}
		if !utf8.ValidString(got) {
			t.Errorf("truncate(%q, %d) produced invalid UTF-8", tt.in, tt.max)
		}
	}
}

func TestFoldASCII(t *testing.T) {
	tests := []struct{ in, want string }{
		{"Très intéressant", "Tres interessant"},
		{"Saint-Étienne", "Saint-Etienne"},
		{"cœur, ça", "coeur, ca"},
		{"120 m² — 9 000 €", "120 m2  9 000 EUR"},
		{"plain ascii", "plain ascii"},
	}
	for _, tt := range tests {
		if got := foldASCII(tt.in); got != tt.want {
			t.Errorf("foldASCII(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestRenderNoRings(t *testing.T) {
	ev := sampleEvaluation()
	ev.Rings = nil
	if _, err := Render(ev); err == nil {
		t.Fatal("expected error for evaluation without footprint rings")
	}
}
