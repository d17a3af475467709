package narrative

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"

	"github.com/mlecomte/toitsol/internal/pipeline"
)

// Generator produces an optional plain-language commentary on top of the
// deterministic summary, using an LLM. The dashboard works without it; a
// missing API key simply disables the feature.
type Generator struct {
	client openai.Client
	model  string
}

// NewGenerator creates a commentary generator. It reads the
// OPENAI_API_KEY environment variable for authentication.
func NewGenerator() (*Generator, error) {
	apiKey := os.Getenv("OPENAI_API_KEY")
	if apiKey == "" {
		return nil, errors.New("OPENAI_API_KEY environment variable not set")
	}

	client := openai.NewClient(
		option.WithAPIKey(apiKey),
	)

	return &Generator{
		client: client,
		model:  openai.ChatModelGPT4oMini,
	}, nil
}

// Comment returns two or three sentences of advice grounded in the
// evaluation figures. Callers treat failures as "no commentary".
func (g *Generator) Comment(ctx context.Context, ev *pipeline.Evaluation) (string, error) {
	prompt := buildPrompt(ev)

	resp, err := g.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: g.model,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage("Tu es un conseiller en installation photovoltaïque résidentielle en France. " +
				"Réponds en deux ou trois phrases sobres, sans chiffres inventés : utilise uniquement les chiffres fournis."),
			openai.UserMessage(prompt),
		},
	})
	if err != nil {
		return "", fmt.Errorf("commentary generation failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("no completion returned")
	}

	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

func buildPrompt(ev *pipeline.Evaluation) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Adresse : %s\n", ev.DisplayName)
	fmt.Fprintf(&b, "Surface de toit : %.0f m², exploitable %.0f m²\n", ev.AreaM2, ev.ExploitableM2)
	fmt.Fprintf(&b, "Ensoleillement : %.2f kWh/m²/jour\n", ev.IrradianceDaily)
	fmt.Fprintf(&b, "Production annuelle : %.0f kWh, puissance %.1f kWc\n", ev.AnnualEnergyKWh, ev.RecommendedKWp)
	fmt.Fprintf(&b, "Coût estimé : %.0f €, économies %.0f €/an\n", ev.InstallCostEUR, ev.AnnualSavingsEUR)
	if ev.PaybackYears != nil {
		fmt.Fprintf(&b, "Retour sur investissement : %.1f ans\n", *ev.PaybackYears)
	} else {
		b.WriteString("Retour sur investissement : non atteint\n")
	}
	fmt.Fprintf(&b, "Classification : %s\n", ev.VerdictLabel)
	b.WriteString("Donne un avis bref sur l'opportunité de cette installation.")
	return b.String()
}
