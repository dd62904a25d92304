// Package llm rewords a finished analysis into a short narrative.
//
// The narrative is produced after interpretation and never feeds back into
// the synthetic state, the confidence or the explanation.
package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ppiankov/canisense/internal/model"
)

// ErrNoProvider is returned when narration is requested but no provider is configured
var ErrNoProvider = errors.New("no LLM provider configured")

// ErrStateMismatch is returned when a narrative names a state other than the analyzed one
var ErrStateMismatch = errors.New("narrative contradicts analyzed state")

// Provider defines the interface for LLM providers
type Provider interface {
	// Name returns the provider name
	Name() string

	// Narrate rewords the report's explanation
	Narrate(ctx context.Context, req NarrateRequest) (*NarrateResponse, error)

	// IsAvailable checks if the provider is properly configured and accessible
	IsAvailable(ctx context.Context) bool
}

// NarrateRequest contains the input for narration
type NarrateRequest struct {
	Report model.Report

	// Prompt overrides the default prompt when set
	Prompt string

	// Model is the specific model to use (provider-specific)
	Model string

	// MaxTokens limits the response length
	MaxTokens int
}

// NarrateResponse contains the provider's output
type NarrateResponse struct {
	Text       string
	Model      string
	TokensUsed int
}

// Config holds LLM provider configuration
type Config struct {
	// Provider name: "openai", "ollama", ""
	Provider string

	// Model name (provider-specific)
	Model string

	// APIKey for OpenAI
	APIKey string

	// BaseURL for custom endpoints (OpenAI-compatible gateways, Ollama)
	BaseURL string

	// Timeout for API requests
	Timeout time.Duration

	// MaxTokens for response generation
	MaxTokens int
}

// DefaultConfig returns sensible defaults
func DefaultConfig() Config {
	return Config{
		Provider:  "", // Disabled by default
		Timeout:   30 * time.Second,
		MaxTokens: 300,
	}
}

const systemPrompt = "Tu aides des propriétaires de chiens à lire une analyse comportementale. " +
	"Tu reformules sans jamais changer l'état ni le niveau de confiance."

// BuildPrompt constructs the default narration prompt
func BuildPrompt(report model.Report) string {
	in := report.Interpretation
	var b strings.Builder

	fmt.Fprintf(&b, `Reformule cette analyse pour le propriétaire du chien en 2 ou 3 phrases, en français.

RÈGLES:
1. L'état est "%s". N'en nomme aucun autre.
2. La confiance est %s (%.0f%%). Ne la présente pas comme plus certaine.
3. Ne pose aucun diagnostic médical.
4. N'invente aucun signal absent de la liste.

Explication d'origine: %s

État latent:
- activation %.2f
- tension %.2f
- vigilance %.2f
- fatigue %.2f

Signaux dominants:
`, in.SyntheticState, report.Level, in.Confidence*100, in.Explanation,
		report.LatentState.Activation, report.LatentState.Tension,
		report.LatentState.Vigilance, report.LatentState.Fatigue)

	if len(in.Metrics) == 0 {
		b.WriteString("- (aucun)\n")
	}
	for _, m := range in.Metrics {
		fmt.Fprintf(&b, "- %s: %.2f\n", m.Name, m.Value)
	}
	return b.String()
}

var allStates = []model.SyntheticState{
	model.StateCalm, model.StateExcited, model.StateStress, model.StateMixed,
}

// foreignStates returns the state labels mentioned in text other than want
func foreignStates(text string, want model.SyntheticState) []model.SyntheticState {
	lower := strings.ToLower(text)
	var found []model.SyntheticState
	for _, s := range allStates {
		if s == want {
			continue
		}
		if strings.Contains(lower, strings.ToLower(string(s))) {
			found = append(found, s)
		}
	}
	return found
}

// checkNarrative rejects text that names a different state
func checkNarrative(text string, want model.SyntheticState) error {
	if foreign := foreignStates(text, want); len(foreign) > 0 {
		return fmt.Errorf("%w: mentions %v, analyzed %s", ErrStateMismatch, foreign, want)
	}
	return nil
}
