package model

import "time"

// Report is the complete result of one analysis session
type Report struct {
	ID           string    `json:"id"`            // History id (uuid)
	SessionStart time.Time `json:"session_start"` // When the first signal was expected
	GeneratedAt  time.Time `json:"generated_at"`  // When the analysis was computed
	Signals      int       `json:"signals"`       // Signals processed

	Interpretation UserInterpretation `json:"interpretation"`
	Level          ConfidenceLevel    `json:"level"`
	LatentState    LatentState        `json:"latent_state"`
	Engines        []EngineSummary    `json:"engines,omitempty"`

	Narrative *Narrative `json:"narrative,omitempty"` // Optional, never affects the interpretation
}

// EngineSummary counts what one active engine produced
type EngineSummary struct {
	ID      string `json:"id"`
	Metrics int    `json:"metrics"`
}

// Narrative is an optional LLM rewording of the explanation.
// It is kept separate from Interpretation and never feeds back into it.
type Narrative struct {
	Enabled  bool     `json:"enabled"`
	Provider string   `json:"provider,omitempty"`
	Model    string   `json:"model,omitempty"`
	Text     string   `json:"text,omitempty"`
	Warnings []string `json:"warnings,omitempty"`
}

// HistoryEntry reduces the report to what the store keeps
func (r Report) HistoryEntry() HistoryEntry {
	return HistoryEntry{
		ID:          r.ID,
		Date:        r.GeneratedAt,
		State:       r.Interpretation.SyntheticState,
		Explanation: r.Interpretation.Explanation,
		Confidence:  r.Interpretation.Confidence,
	}
}
