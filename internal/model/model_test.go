package model

import (
	"errors"
	"testing"
	"time"
)

func TestSignalValidate(t *testing.T) {
	tests := []struct {
		name string
		sig  Signal
		want error
	}{
		{"video ok", NewVideoSignal(make([]byte, 16), 2, 2, 0), nil},
		{"video missing", Signal{Type: SignalVideo}, ErrMissingPayload},
		{"video short buffer", NewVideoSignal(make([]byte, 15), 2, 2, 0), ErrBadFrame},
		{"video zero width", NewVideoSignal(nil, 0, 2, 0), ErrBadFrame},
		{"audio ok", NewAudioSignal([]float32{0.1}, 16000, 0), nil},
		{"audio empty ok", NewAudioSignal(nil, 16000, 0), nil},
		{"audio missing", Signal{Type: SignalAudio}, ErrMissingPayload},
		{"audio bad rate", NewAudioSignal([]float32{0.1}, 0, 0), ErrBadSampleRate},
		{"context", NewContextSignal(nil, 0), nil},
		{"unknown", Signal{Type: "thermal"}, ErrUnknownType},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.sig.Validate()
			if tt.want == nil {
				if err != nil {
					t.Errorf("Validate() = %v, want nil", err)
				}
				return
			}
			if !errors.Is(err, tt.want) {
				t.Errorf("Validate() = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestLevelOf(t *testing.T) {
	tests := []struct {
		confidence float64
		want       ConfidenceLevel
	}{
		{0, ConfidenceLow},
		{0.4, ConfidenceLow},
		{0.41, ConfidenceMedium},
		{0.7, ConfidenceMedium},
		{0.71, ConfidenceHigh},
		{1, ConfidenceHigh},
	}
	for _, tt := range tests {
		if got := LevelOf(tt.confidence); got != tt.want {
			t.Errorf("LevelOf(%v) = %s, want %s", tt.confidence, got, tt.want)
		}
	}
}

func TestAnalysisConfig(t *testing.T) {
	c := AnalysisConfig{
		ActiveEngines: []string{EngineTail},
		FusionWeights: map[string]float64{MetricAgitation: 0, MetricPeaks: 2},
	}

	if !c.IsActive(EngineTail) || c.IsActive(EngineEars) {
		t.Error("IsActive does not follow ActiveEngines")
	}
	if c.Weight(MetricAgitation) != 0 {
		t.Error("explicit zero weight must be kept")
	}
	if c.Weight(MetricPeaks) != 2 || c.Weight(MetricBarking) != 1 {
		t.Error("Weight should default to 1")
	}

	clone := c.Clone()
	clone.ActiveEngines[0] = EngineEars
	clone.FusionWeights[MetricPeaks] = 9
	if c.ActiveEngines[0] != EngineTail || c.FusionWeights[MetricPeaks] != 2 {
		t.Error("Clone shares state with the original")
	}
}

func TestEffectiveEnergy(t *testing.T) {
	if (Profile{}).EffectiveEnergy() != DefaultEnergy {
		t.Error("missing energy should fall back to the default")
	}
	if (Profile{Energy: 9}).EffectiveEnergy() != 9 {
		t.Error("set energy should be kept")
	}
}

func TestReportHistoryEntry(t *testing.T) {
	at := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	r := Report{
		ID:          "abc",
		GeneratedAt: at,
		Interpretation: UserInterpretation{
			SyntheticState: StateCalm,
			Confidence:     0.8,
			Explanation:    "Le chien est calme.",
		},
	}
	e := r.HistoryEntry()
	if e.ID != "abc" || !e.Date.Equal(at) || e.State != StateCalm || e.Confidence != 0.8 || e.Explanation != r.Interpretation.Explanation {
		t.Errorf("HistoryEntry() = %+v", e)
	}
}

func TestNameLists(t *testing.T) {
	engines := AllEngines()
	if len(engines) != 16 {
		t.Errorf("AllEngines() has %d ids, want 16", len(engines))
	}
	seen := map[string]bool{}
	for _, m := range AllMetrics() {
		if seen[m] {
			t.Errorf("metric %s listed twice", m)
		}
		seen[m] = true
	}
	if !seen[MetricGeneralOrientation] || !seen[MetricBaselineActivation] {
		t.Error("AllMetrics() is missing names")
	}
}
