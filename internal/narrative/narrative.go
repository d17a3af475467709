// Package narrative renders evaluation results as short prose for the
// dashboard and the CLI.
package narrative

import (
	"fmt"
	"strings"

	"github.com/mlecomte/toitsol/internal/pipeline"
)

// Build produces the deterministic one-paragraph summary. It never touches
// the network and is always available as the baseline text.
func Build(ev *pipeline.Evaluation) string {
	var parts []string

	parts = append(parts, fmt.Sprintf(
		"Toit détecté de %.0f m² (surface exploitable estimée : %.0f m²).",
		ev.AreaM2, ev.ExploitableM2))

	irr := fmt.Sprintf("Ensoleillement moyen : %.2f kWh/m²/jour", ev.IrradianceDaily)
	if ev.IrradianceFallback {
		irr += " (moyenne France, données satellite indisponibles)"
	}
	parts = append(parts, irr+".")

	parts = append(parts, fmt.Sprintf(
		"Production estimée : %.0f kWh/an pour une installation de %.1f kWc, soit environ %.0f € d'économies par an.",
		ev.AnnualEnergyKWh, ev.RecommendedKWp, ev.AnnualSavingsEUR))

	if ev.PaybackYears != nil {
		parts = append(parts, fmt.Sprintf(
			"Investissement d'environ %.0f €, rentabilisé en %.1f ans. %s.",
			ev.InstallCostEUR, *ev.PaybackYears, ev.VerdictLabel))
	} else {
		parts = append(parts, ev.VerdictLabel+".")
	}

	return strings.Join(parts, " ")
}
