package engine

import (
	"context"

	"github.com/ppiankov/canisense/internal/model"
)

// GlobalMovementEngine measures speed, acceleration, agitation and immobility
type GlobalMovementEngine struct {
	base
	est MovementEstimator
}

func NewGlobalMovementEngine(est MovementEstimator, debug bool) *GlobalMovementEngine {
	return &GlobalMovementEngine{
		base: newBase(model.EngineGlobalMovement, "Mouvement global",
			"Vitesse moyenne, accélérations, agitation, immobilité prolongée.", debug, model.SignalVideo),
		est: est,
	}
}

func (e *GlobalMovementEngine) Process(_ context.Context, sig model.Signal) []model.Metric {
	if !e.admit(sig) {
		return nil
	}
	r := e.est.EstimateMovement(sig.Video, sig.Timestamp)

	var out []model.Metric
	out = e.emit(out, sig.Timestamp, model.MetricAverageSpeed, r.AverageSpeed, "m/s", 0.8)
	out = e.emit(out, sig.Timestamp, model.MetricAccelerations, r.Accelerations, "m/s²", 0.7)
	out = e.emit(out, sig.Timestamp, model.MetricAgitation, r.Agitation, "ratio", 0.9)
	out = e.emit(out, sig.Timestamp, model.MetricProlongedImmobility, boolValue(r.Immobile), "boolean", 0.6)
	e.debugf("processed global movement", "metrics", len(out))
	return out
}

// TailEngine measures wag frequency, amplitude, direction and asymmetry
type TailEngine struct {
	base
	est TailEstimator
}

func NewTailEngine(est TailEstimator, debug bool) *TailEngine {
	return &TailEngine{
		base: newBase(model.EngineTail, "Queue",
			"Fréquence de battement, amplitude, direction, asymétrie.", debug, model.SignalVideo),
		est: est,
	}
}

func (e *TailEngine) Process(_ context.Context, sig model.Signal) []model.Metric {
	if !e.admit(sig) {
		return nil
	}
	r := e.est.EstimateTail(sig.Video, sig.Timestamp)

	var out []model.Metric
	out = e.emit(out, sig.Timestamp, model.MetricWagFrequency, r.WagFrequency, "Hz", 0.8)
	out = e.emit(out, sig.Timestamp, model.MetricAmplitude, r.Amplitude, "degrees", 0.7)
	out = e.emit(out, sig.Timestamp, model.MetricDirection, r.Direction, "degrees", 0.9)
	out = e.emit(out, sig.Timestamp, model.MetricAsymmetry, r.Asymmetry, "ratio", 0.6)
	e.debugf("processed tail", "metrics", len(out))
	return out
}

// EarsEngine measures ear position, micro-movements and rapid variations
type EarsEngine struct {
	base
	est EarsEstimator
}

func NewEarsEngine(est EarsEstimator, debug bool) *EarsEngine {
	return &EarsEngine{
		base: newBase(model.EngineEars, "Oreilles",
			"Position, micro-mouvements, variations rapides.", debug, model.SignalVideo),
		est: est,
	}
}

func (e *EarsEngine) Process(_ context.Context, sig model.Signal) []model.Metric {
	if !e.admit(sig) {
		return nil
	}
	r := e.est.EstimateEars(sig.Video, sig.Timestamp)

	var out []model.Metric
	out = e.emit(out, sig.Timestamp, model.MetricPosition, boolValue(r.Up), "up/flat", 0.8)
	out = e.emit(out, sig.Timestamp, model.MetricMicroMovements, r.MicroMovements, "intensity", 0.7)
	out = e.emit(out, sig.Timestamp, model.MetricRapidVariations, boolValue(r.RapidVariation), "boolean", 0.9)
	e.debugf("processed ears", "metrics", len(out))
	return out
}

// HeadGazeEngine measures head orientation, stability and sudden movements
type HeadGazeEngine struct {
	base
	est HeadEstimator
}

func NewHeadGazeEngine(est HeadEstimator, debug bool) *HeadGazeEngine {
	return &HeadGazeEngine{
		base: newBase(model.EngineHeadGaze, "Tête et regard",
			"Orientation, stabilité, mouvements brusques.", debug, model.SignalVideo),
		est: est,
	}
}

func (e *HeadGazeEngine) Process(_ context.Context, sig model.Signal) []model.Metric {
	if !e.admit(sig) {
		return nil
	}
	r := e.est.EstimateHead(sig.Video, sig.Timestamp)

	var out []model.Metric
	out = e.emit(out, sig.Timestamp, model.MetricOrientation, r.Orientation, "degrees", 0.8)
	out = e.emit(out, sig.Timestamp, model.MetricStability, r.Stability, "ratio", 0.7)
	out = e.emit(out, sig.Timestamp, model.MetricSuddenMovements, boolValue(r.Sudden), "boolean", 0.9)
	e.debugf("processed head and gaze", "metrics", len(out))
	return out
}
