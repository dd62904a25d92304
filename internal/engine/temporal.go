package engine

import (
	"context"
	"math"

	"github.com/ppiankov/canisense/internal/model"
)

// TemporalVariationEngine measures how much the tracked signal level moved
// since the previous tick
type TemporalVariationEngine struct {
	base
	previous float64
}

func NewTemporalVariationEngine(debug bool) *TemporalVariationEngine {
	return &TemporalVariationEngine{
		base: newBase(model.EngineTemporalVariation, "Variation temporelle",
			"Variations des signaux dans le temps.", debug),
	}
}

func (e *TemporalVariationEngine) Process(_ context.Context, sig model.Signal) []model.Metric {
	if !e.admit(sig) {
		return nil
	}
	current := math.Sin(seconds(sig.Timestamp))*0.5 + 0.5
	variation := math.Abs(current - e.previous)
	e.previous = current

	out := e.emit(nil, sig.Timestamp, model.MetricSignalVariation, variation, "delta", 0.8)
	e.debugf("processed temporal variation", "variation", variation)
	return out
}

func (e *TemporalVariationEngine) Reset() {
	e.base.Reset()
	e.previous = 0
}

// accumulationAlpha is the EMA smoothing factor for accumulated stress
const accumulationAlpha = 0.1

// AccumulationEngine accumulates stress as an exponential moving average
type AccumulationEngine struct {
	base
	src         ValueSource
	accumulated float64
}

func NewAccumulationEngine(src ValueSource, debug bool) *AccumulationEngine {
	return &AccumulationEngine{
		base: newBase(model.EngineAccumulation, "Accumulation",
			"Accumule le stress ou l'excitation au fil du temps.", debug),
		src: src,
	}
}

func (e *AccumulationEngine) Process(_ context.Context, sig model.Signal) []model.Metric {
	if !e.admit(sig) {
		return nil
	}
	stress := e.src.Float64() * 0.1
	e.accumulated = accumulationAlpha*stress + (1-accumulationAlpha)*e.accumulated

	out := e.emit(nil, sig.Timestamp, model.MetricAccumulatedStress, e.accumulated, "level", 0.9)
	e.debugf("processed accumulation", "level", e.accumulated)
	return out
}

func (e *AccumulationEngine) Reset() {
	e.base.Reset()
	e.accumulated = 0
}

// RecoveryEngine tracks recovery after periods of activity. The level
// starts full, drains slowly and occasionally bounces back.
type RecoveryEngine struct {
	base
	src   ValueSource
	level float64
}

func NewRecoveryEngine(src ValueSource, debug bool) *RecoveryEngine {
	return &RecoveryEngine{
		base: newBase(model.EngineRecovery, "Récupération",
			"Récupération après des périodes d'activité.", debug),
		src:   src,
		level: 1,
	}
}

func (e *RecoveryEngine) Process(_ context.Context, sig model.Signal) []model.Metric {
	if !e.admit(sig) {
		return nil
	}
	if e.src.Float64() < 0.1 {
		e.level = math.Min(1, e.level+0.1)
	} else {
		e.level = math.Max(0, e.level-0.01)
	}

	out := e.emit(nil, sig.Timestamp, model.MetricRecoveryLevel, e.level, "ratio", 0.7)
	e.debugf("processed recovery", "level", e.level)
	return out
}

func (e *RecoveryEngine) Reset() {
	e.base.Reset()
	e.level = 1
}

// TransitionEngine flags rapid state flips between consecutive ticks
type TransitionEngine struct {
	base
	previous int
}

func NewTransitionEngine(debug bool) *TransitionEngine {
	return &TransitionEngine{
		base: newBase(model.EngineTransition, "Transitions",
			"Transitions rapides vs progressives.", debug),
	}
}

func (e *TransitionEngine) Process(_ context.Context, sig model.Signal) []model.Metric {
	if !e.admit(sig) {
		return nil
	}
	current := 0
	if math.Sin(seconds(sig.Timestamp)) > 0 {
		current = 1
	}
	transition := boolValue(current != e.previous)
	e.previous = current

	out := e.emit(nil, sig.Timestamp, model.MetricRapidTransition, transition, "boolean", 0.8)
	e.debugf("processed transition", "transition", transition)
	return out
}

func (e *TransitionEngine) Reset() {
	e.base.Reset()
	e.previous = 0
}
