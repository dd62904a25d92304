package fusion

import (
	"github.com/ppiankov/canisense/internal/model"
)

// Base explanations per synthetic state
const (
	ExplainExcited = "Le chien montre des signes d'excitation élevés avec agitation et vocalisations."
	ExplainStress  = "Signes de tension élevés, possible stress."
	ExplainCalm    = "Comportement calme et détendu observé."
	ExplainMixed   = "Comportement mixte observé."

	NoteGrowling = " Grognements détectés."
	NoteWagging  = " Battement de queue fréquent."
)

// Decision thresholds
const (
	excitedActivation = 0.7
	excitedTension    = 0.7
	stressTension     = 0.8
	calmActivation    = 0.3
	calmFatigue       = 0.6
	growlingNote      = 0.5
	waggingNote       = 0.7
)

// Classify picks the synthetic state. Rules are evaluated in priority
// order and the first match wins.
func Classify(s model.LatentState) (model.SyntheticState, string) {
	switch {
	case s.Activation > excitedActivation && s.Tension > excitedTension:
		return model.StateExcited, ExplainExcited
	case s.Tension > stressTension:
		return model.StateStress, ExplainStress
	case s.Activation < calmActivation && s.Fatigue > calmFatigue:
		return model.StateCalm, ExplainCalm
	default:
		return model.StateMixed, ExplainMixed
	}
}

// Interpret maps a fusion result to the user-facing interpretation
func Interpret(r model.FusionResult) model.UserInterpretation {
	state, explanation := Classify(r.LatentState)

	if anyAbove(r.DominantSignals, model.MetricGrowling, growlingNote) {
		explanation += NoteGrowling
	}
	if anyAbove(r.DominantSignals, model.MetricWagFrequency, waggingNote) {
		explanation += NoteWagging
	}

	return model.UserInterpretation{
		SyntheticState: state,
		Confidence:     r.Confidence,
		Explanation:    explanation,
		Metrics:        r.DominantSignals,
	}
}

func anyAbove(metrics []model.Metric, name string, threshold float64) bool {
	for _, m := range metrics {
		if m.Name == name && m.Value > threshold {
			return true
		}
	}
	return false
}
