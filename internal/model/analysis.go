package model

// Metric is one named, timestamped, reliability-weighted measurement
type Metric struct {
	Name        string  `json:"name" msgpack:"name"`
	Value       float64 `json:"value" msgpack:"value"`
	Unit        string  `json:"unit,omitempty" msgpack:"unit,omitempty"`
	Timestamp   int64   `json:"timestamp" msgpack:"timestamp"`     // ms since epoch
	Reliability float64 `json:"reliability" msgpack:"reliability"` // 0-1
}

// NewMetric creates a metric with full reliability
func NewMetric(name string, value float64, unit string, ts int64) Metric {
	return Metric{Name: name, Value: value, Unit: unit, Timestamp: ts, Reliability: 1}
}

// LatentState is the 4-dimensional summary produced by fusion.
// Each dimension is intended to lie in [0,1] but is not clamped.
type LatentState struct {
	Activation float64 `json:"activation"`
	Tension    float64 `json:"tension"`
	Vigilance  float64 `json:"vigilance"`
	Fatigue    float64 `json:"fatigue"`
}

// FusionResult is the output of metric fusion
type FusionResult struct {
	LatentState     LatentState `json:"latent_state"`
	Confidence      float64     `json:"confidence"`       // 0-1
	DominantSignals []Metric    `json:"dominant_signals"` // top 5 by value
}

// SyntheticState is the discrete label shown to the end user
type SyntheticState string

const (
	StateCalm    SyntheticState = "Calme"
	StateExcited SyntheticState = "Excité"
	StateStress  SyntheticState = "Stressé"
	StateMixed   SyntheticState = "Mixte"
)

// UserInterpretation is the sole structured result surfaced to callers
type UserInterpretation struct {
	SyntheticState SyntheticState `json:"synthetic_state"`
	Confidence     float64        `json:"confidence"`
	Explanation    string         `json:"explanation"`
	Metrics        []Metric       `json:"metrics"`
}

// ConfidenceLevel is the coarse confidence label used in reports
type ConfidenceLevel string

const (
	ConfidenceLow    ConfidenceLevel = "Faible"
	ConfidenceMedium ConfidenceLevel = "Moyen"
	ConfidenceHigh   ConfidenceLevel = "Élevé"
)

// LevelOf buckets a numeric confidence
func LevelOf(confidence float64) ConfidenceLevel {
	switch {
	case confidence > 0.7:
		return ConfidenceHigh
	case confidence > 0.4:
		return ConfidenceMedium
	default:
		return ConfidenceLow
	}
}

// AnalysisConfig is supplied once at pipeline construction
type AnalysisConfig struct {
	EnableDebug   bool               `json:"enable_debug" yaml:"enable_debug" mapstructure:"enable_debug"`
	ActiveEngines []string           `json:"active_engines" yaml:"active_engines" mapstructure:"active_engines"`
	FusionWeights map[string]float64 `json:"fusion_weights" yaml:"fusion_weights" mapstructure:"fusion_weights"`
}

// IsActive reports whether the engine id is enabled
func (c AnalysisConfig) IsActive(id string) bool {
	for _, active := range c.ActiveEngines {
		if active == id {
			return true
		}
	}
	return false
}

// Weight returns the fusion weight for a metric name (default 1)
func (c AnalysisConfig) Weight(name string) float64 {
	if w, ok := c.FusionWeights[name]; ok {
		return w
	}
	return 1
}

// Clone returns a deep copy so callers cannot mutate a running pipeline's config
func (c AnalysisConfig) Clone() AnalysisConfig {
	out := AnalysisConfig{
		EnableDebug:   c.EnableDebug,
		ActiveEngines: append([]string(nil), c.ActiveEngines...),
		FusionWeights: make(map[string]float64, len(c.FusionWeights)),
	}
	for k, v := range c.FusionWeights {
		out.FusionWeights[k] = v
	}
	return out
}
