package llm

import (
	"context"
	"fmt"

	"github.com/ppiankov/canisense/internal/model"
)

// Narrator attaches optional narratives to reports
type Narrator struct {
	provider Provider
	config   Config
}

// NewNarrator creates a narrator. A config without provider yields a
// disabled narrator, not an error.
func NewNarrator(config Config) (*Narrator, error) {
	provider, err := NewProvider(config)
	if err != nil {
		return nil, err
	}
	return &Narrator{provider: provider, config: config}, nil
}

// NewNarratorWithProvider wraps an existing provider
func NewNarratorWithProvider(p Provider, config Config) *Narrator {
	return &Narrator{provider: p, config: config}
}

// IsEnabled reports whether a provider is configured
func (n *Narrator) IsEnabled() bool {
	return n != nil && n.provider != nil
}

// ProviderName returns the provider name, or "" when disabled
func (n *Narrator) ProviderName() string {
	if !n.IsEnabled() {
		return ""
	}
	return n.provider.Name()
}

// Narrate produces a narrative for the report. It returns ErrNoProvider
// when disabled. An unavailable provider yields a disabled narrative with
// a warning rather than an error.
func (n *Narrator) Narrate(ctx context.Context, report model.Report) (*model.Narrative, error) {
	if !n.IsEnabled() {
		return nil, ErrNoProvider
	}

	narrative := &model.Narrative{
		Provider: n.provider.Name(),
		Model:    n.config.Model,
	}

	if !n.provider.IsAvailable(ctx) {
		narrative.Warnings = append(narrative.Warnings,
			fmt.Sprintf("provider %s is not available", n.provider.Name()))
		return narrative, nil
	}

	resp, err := n.provider.Narrate(ctx, NarrateRequest{
		Report:    report,
		Model:     n.config.Model,
		MaxTokens: n.config.MaxTokens,
	})
	if err != nil {
		return nil, fmt.Errorf("narrate: %w", err)
	}

	narrative.Enabled = true
	narrative.Text = resp.Text
	if resp.Model != "" {
		narrative.Model = resp.Model
	}
	narrative.Warnings = append(narrative.Warnings, fmt.Sprintf("Tokens used: %d", resp.TokensUsed))
	return narrative, nil
}
