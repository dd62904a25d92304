// Package fusion normalizes raw engine metrics, fuses them into a latent
// state and interprets that state for the end user.
package fusion

import (
	"math"

	"github.com/ppiankov/canisense/internal/model"
)

// rule maps a raw metric value onto the unit interval
type rule func(v float64) float64

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(v, 1))
}

func scaled(max float64) rule {
	return func(v float64) float64 { return clamp01(v / max) }
}

func direction(v float64) float64   { return math.Abs(v) / 90 } // -90..90 degrees
func orientation(v float64) float64 { return v / 360 }          // 0..360 degrees
func capped(v float64) float64      { return math.Min(v, 1) }

// rules is keyed by metric name. Names missing here use clamp01.
var rules = map[string]rule{
	model.MetricAgitation:           clamp01,
	model.MetricRigidity:            clamp01,
	model.MetricAsymmetry:           clamp01,
	model.MetricMicroMovements:      clamp01,
	model.MetricStability:           clamp01,
	model.MetricRecoveryLevel:       clamp01,
	model.MetricSignalVariation:     clamp01,
	model.MetricBarking:             clamp01,
	model.MetricWhining:             clamp01,
	model.MetricGrowling:            clamp01,
	model.MetricPanting:             clamp01,
	model.MetricRepetition:          clamp01,
	model.MetricIrregularity:        clamp01,
	model.MetricHourOfDay:           clamp01,
	model.MetricAverageRecentStress: clamp01,
	model.MetricBaselineActivation:  clamp01,
	model.MetricBodyHeight:          clamp01,
	model.MetricPosition:            clamp01,
	model.MetricRapidVariations:     clamp01,
	model.MetricSuddenMovements:     clamp01,
	model.MetricProlongedSilence:    clamp01,
	model.MetricProlongedImmobility: clamp01,
	model.MetricBursts:              clamp01,
	model.MetricRapidTransition:     clamp01,

	model.MetricAverageSpeed:    scaled(10),
	model.MetricAccelerations:   scaled(5),
	model.MetricWagFrequency:    scaled(5),
	model.MetricAmplitude:       scaled(90),
	model.MetricAverageVolume:   scaled(100),
	model.MetricPeaks:           scaled(120),
	model.MetricSessionDuration: scaled(60), // minutes

	model.MetricDirection:          direction,
	model.MetricOrientation:        orientation,
	model.MetricGeneralOrientation: orientation,

	model.MetricAccumulatedStress: capped,
}

// NormalizeValue maps one raw value by metric name
func NormalizeValue(name string, v float64) float64 {
	if r, ok := rules[name]; ok {
		return r(v)
	}
	return clamp01(v)
}

// Normalize returns a new slice, in input order, where only Value changed
func Normalize(metrics []model.Metric) []model.Metric {
	out := make([]model.Metric, len(metrics))
	for i, m := range metrics {
		m.Value = NormalizeValue(m.Name, m.Value)
		out[i] = m
	}
	return out
}
