package fusion

import (
	"sort"

	"github.com/ppiankov/canisense/internal/model"
)

// MaxDominant is how many top metrics are kept as dominant signals
const MaxDominant = 5

// Dimension names a latent-state axis
type Dimension int

const (
	Activation Dimension = iota
	Tension
	Vigilance
	Fatigue
)

func (d Dimension) String() string {
	switch d {
	case Activation:
		return "activation"
	case Tension:
		return "tension"
	case Vigilance:
		return "vigilance"
	case Fatigue:
		return "fatigue"
	default:
		return "unknown"
	}
}

// groups assigns each contributing metric name to exactly one dimension.
// Names absent here only count toward confidence and dominance.
var groups = map[string]Dimension{
	model.MetricAverageSpeed:  Activation,
	model.MetricAgitation:     Activation,
	model.MetricAverageVolume: Activation,
	model.MetricPeaks:         Activation,
	model.MetricWagFrequency:  Activation,
	model.MetricAmplitude:     Activation,
	model.MetricBarking:       Activation,
	model.MetricPanting:       Activation,

	model.MetricAccelerations:     Tension,
	model.MetricRigidity:          Tension,
	model.MetricAsymmetry:         Tension,
	model.MetricGrowling:          Tension,
	model.MetricRapidVariations:   Tension,
	model.MetricSuddenMovements:   Tension,
	model.MetricAccumulatedStress: Tension,

	model.MetricPosition:       Vigilance,
	model.MetricMicroMovements: Vigilance,
	model.MetricStability:      Vigilance,
	model.MetricOrientation:    Vigilance,

	model.MetricProlongedImmobility: Fatigue,
	model.MetricRecoveryLevel:       Fatigue,
	model.MetricSignalVariation:     Fatigue,
	model.MetricSessionDuration:     Fatigue,
}

// GroupOf returns the dimension a metric name feeds, if any
func GroupOf(name string) (Dimension, bool) {
	d, ok := groups[name]
	return d, ok
}

// Fuse aggregates normalized metrics into a latent state.
// Each dimension is the weighted mean of its group, 0 when the group is
// empty. Confidence is the mean reliability, 0 for an empty input; a
// metric without reliability (zero or negative) counts as fully reliable.
// weights may be nil; missing names weigh 1.
func Fuse(normalized []model.Metric, weights map[string]float64) model.FusionResult {
	var sums, counts [4]float64
	var reliability float64

	for _, m := range normalized {
		if m.Reliability > 0 {
			reliability += m.Reliability
		} else {
			reliability++
		}
		d, ok := groups[m.Name]
		if !ok {
			continue
		}
		w, ok := weights[m.Name]
		if !ok {
			w = 1
		}
		sums[d] += m.Value * w
		counts[d]++
	}

	mean := func(d Dimension) float64 {
		if counts[d] == 0 {
			return 0
		}
		return sums[d] / counts[d]
	}

	confidence := 0.0
	if len(normalized) > 0 {
		confidence = reliability / float64(len(normalized))
	}

	return model.FusionResult{
		LatentState: model.LatentState{
			Activation: mean(Activation),
			Tension:    mean(Tension),
			Vigilance:  mean(Vigilance),
			Fatigue:    mean(Fatigue),
		},
		Confidence:      confidence,
		DominantSignals: Dominant(normalized, MaxDominant),
	}
}

// Dominant returns the n highest-valued metrics, descending. Equal values
// keep their input order. The input is not modified.
func Dominant(metrics []model.Metric, n int) []model.Metric {
	sorted := make([]model.Metric, len(metrics))
	copy(sorted, metrics)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Value > sorted[j].Value
	})
	if len(sorted) > n {
		sorted = sorted[:n]
	}
	return sorted
}
