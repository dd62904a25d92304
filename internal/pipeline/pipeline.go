// Package pipeline orchestrates the engine bank, fusion and interpretation.
//
// A Pipeline is driven by a single logical thread. It does no locking of
// its own; callers that share one across goroutines must serialize access.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/ppiankov/canisense/internal/engine"
	"github.com/ppiankov/canisense/internal/fusion"
	"github.com/ppiankov/canisense/internal/log"
	"github.com/ppiankov/canisense/internal/model"
)

// Pipeline owns one engine bank and the configuration it was built with
type Pipeline struct {
	config       model.AnalysisConfig
	engines      []engine.Engine
	sessionStart int64
	signals      int
	logger       *slog.Logger
}

// Analysis pairs the interpretation with the fusion result it came from
type Analysis struct {
	Fusion         model.FusionResult       `json:"fusion"`
	Interpretation model.UserInterpretation `json:"interpretation"`
}

// New creates a pipeline. Every known engine is instantiated, and those
// listed in cfg.ActiveEngines are marked active. Unknown ids are ignored.
func New(cfg model.AnalysisConfig, opts ...engine.Option) *Pipeline {
	cfg = cfg.Clone()

	// Resolve once so the session-duration engine and the report agree
	o := engine.NewOptions(opts...)
	all := append(append([]engine.Option(nil), opts...),
		engine.WithSessionStart(o.SessionStart),
		engine.WithLocation(o.Location),
		engine.WithSources(o.Sources),
		engine.WithDebug(cfg.EnableDebug),
		engine.WithActive(cfg.IsActive),
	)

	engines := engine.NewBank(all...)

	p := &Pipeline{
		config:       cfg,
		engines:      engines,
		sessionStart: o.SessionStart,
		logger:       log.With("component", "pipeline"),
	}

	if cfg.EnableDebug {
		p.logger.Debug("pipeline created",
			"engines", len(engines),
			"active", len(p.ActiveEngines()),
		)
	}
	return p
}

// ProcessSignal runs the signal through every active engine in
// registration order and returns the concatenation of their new metrics.
// An engine that panics contributes nothing and the others still run.
func (p *Pipeline) ProcessSignal(ctx context.Context, sig model.Signal) []model.Metric {
	var out []model.Metric
	for _, e := range p.engines {
		if !e.IsActive() {
			continue
		}
		out = append(out, p.runEngine(ctx, e, sig)...)
	}
	p.signals++

	if p.config.EnableDebug {
		p.logger.Debug("signal processed",
			"type", sig.Type,
			"timestamp", sig.Timestamp,
			"metrics", len(out),
		)
	}
	return out
}

func (p *Pipeline) runEngine(ctx context.Context, e engine.Engine, sig model.Signal) (metrics []model.Metric) {
	defer func() {
		if r := recover(); r != nil {
			p.logger.Error("engine failed",
				"engine", e.ID(),
				"error", fmt.Sprint(r),
			)
			metrics = nil
		}
	}()
	return e.Process(ctx, sig)
}

// GetAnalysis interprets everything the active engines have produced so far.
// It does not mutate any engine state.
func (p *Pipeline) GetAnalysis() model.UserInterpretation {
	return p.Analyze().Interpretation
}

// Analyze runs normalization, fusion and interpretation over the current
// histories and returns the intermediate fusion result alongside
func (p *Pipeline) Analyze() Analysis {
	normalized := fusion.Normalize(p.AllMetrics())
	result := fusion.Fuse(normalized, p.config.FusionWeights)
	interp := fusion.Interpret(result)

	if p.config.EnableDebug {
		p.logger.Debug("analysis computed",
			"metrics", len(normalized),
			"activation", result.LatentState.Activation,
			"tension", result.LatentState.Tension,
			"vigilance", result.LatentState.Vigilance,
			"fatigue", result.LatentState.Fatigue,
			"state", interp.SyntheticState,
			"confidence", interp.Confidence,
		)
	}

	return Analysis{Fusion: result, Interpretation: interp}
}

// Reset clears every engine, active or not
func (p *Pipeline) Reset() {
	for _, e := range p.engines {
		e.Reset()
	}
	p.signals = 0
}

// ActiveEngines returns the active engines in registration order
func (p *Pipeline) ActiveEngines() []engine.Engine {
	var active []engine.Engine
	for _, e := range p.engines {
		if e.IsActive() {
			active = append(active, e)
		}
	}
	return active
}

// Engines returns every engine in registration order
func (p *Pipeline) Engines() []engine.Engine {
	out := make([]engine.Engine, len(p.engines))
	copy(out, p.engines)
	return out
}

// AllMetrics concatenates the histories of the active engines in
// registration order
func (p *Pipeline) AllMetrics() []model.Metric {
	var out []model.Metric
	for _, e := range p.ActiveEngines() {
		out = append(out, e.Metrics()...)
	}
	return out
}

// Config returns a copy of the configuration the pipeline was built with
func (p *Pipeline) Config() model.AnalysisConfig {
	return p.config.Clone()
}

// SessionStart is the session start time in ms since epoch
func (p *Pipeline) SessionStart() int64 {
	return p.sessionStart
}

// Signals counts signals processed since creation or the last reset
func (p *Pipeline) Signals() int {
	return p.signals
}
