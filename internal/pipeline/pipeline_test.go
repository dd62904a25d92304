package pipeline

import (
	"context"
	"reflect"
	"testing"
	"time"

	"github.com/ppiankov/canisense/internal/engine"
	"github.com/ppiankov/canisense/internal/model"
)

func videoSignal(ts int64) model.Signal {
	return model.NewVideoSignal(make([]byte, 4*4*4), 4, 4, ts)
}

func audioSignal(ts int64) model.Signal {
	return model.NewAudioSignal([]float32{0.5, -0.5, 0.25, -0.25}, 44100, ts)
}

func allEngines() model.AnalysisConfig {
	return model.AnalysisConfig{ActiveEngines: model.AllEngines()}
}

func fixedOpts() []engine.Option {
	return []engine.Option{
		engine.WithSeed(42),
		engine.WithSessionStart(0),
		engine.WithLocation(time.UTC),
	}
}

type panickingVocal struct{}

func (panickingVocal) EstimateVocal(*model.AudioBuffer) engine.VocalReading {
	panic("classifier exploded")
}

func TestNew_ActivationFlags(t *testing.T) {
	p := New(model.AnalysisConfig{
		ActiveEngines: []string{model.EngineTail, "doesNotExist", model.EngineBaseline},
	}, fixedOpts()...)

	if got := len(p.Engines()); got != len(model.AllEngines()) {
		t.Fatalf("expected %d engines, got %d", len(model.AllEngines()), got)
	}

	active := p.ActiveEngines()
	if len(active) != 2 {
		t.Fatalf("expected 2 active engines, got %d", len(active))
	}
	if active[0].ID() != model.EngineTail || active[1].ID() != model.EngineBaseline {
		t.Errorf("unexpected active order: %s, %s", active[0].ID(), active[1].ID())
	}
}

func TestNew_ConfigIsCopied(t *testing.T) {
	cfg := allEngines()
	cfg.FusionWeights = map[string]float64{model.MetricAgitation: 2}

	p := New(cfg, fixedOpts()...)
	cfg.ActiveEngines[0] = "mutated"
	cfg.FusionWeights[model.MetricAgitation] = 9

	got := p.Config()
	if got.ActiveEngines[0] != model.EngineGlobalMovement {
		t.Errorf("active engines aliased caller slice: %v", got.ActiveEngines[0])
	}
	if got.FusionWeights[model.MetricAgitation] != 2 {
		t.Errorf("weights aliased caller map: %v", got.FusionWeights[model.MetricAgitation])
	}
}

func TestProcessSignal_InactiveEnginesContributeNothing(t *testing.T) {
	p := New(model.AnalysisConfig{ActiveEngines: []string{model.EngineSoundActivity}}, fixedOpts()...)
	ctx := context.Background()

	if out := p.ProcessSignal(ctx, videoSignal(1000)); len(out) != 0 {
		t.Errorf("video signal should produce nothing, got %d metrics", len(out))
	}

	out := p.ProcessSignal(ctx, audioSignal(2000))
	if len(out) != 3 {
		t.Fatalf("expected 3 sound metrics, got %d", len(out))
	}
	for _, m := range out {
		if m.Timestamp != 2000 {
			t.Errorf("metric %s has timestamp %d, want 2000", m.Name, m.Timestamp)
		}
	}

	if got := len(p.AllMetrics()); got != 3 {
		t.Errorf("AllMetrics = %d, want 3", got)
	}
}

func TestProcessSignal_RegistrationOrder(t *testing.T) {
	p := New(allEngines(), fixedOpts()...)

	out := p.ProcessSignal(context.Background(), videoSignal(1000))
	if len(out) == 0 {
		t.Fatal("expected metrics")
	}

	// globalMovement comes first, baseline last
	if out[0].Name != model.MetricAverageSpeed {
		t.Errorf("first metric = %s, want %s", out[0].Name, model.MetricAverageSpeed)
	}
	if last := out[len(out)-1]; last.Name != model.MetricBaselineActivation {
		t.Errorf("last metric = %s, want %s", last.Name, model.MetricBaselineActivation)
	}

	for _, m := range out {
		switch m.Name {
		case model.MetricAverageVolume, model.MetricBarking, model.MetricRepetition:
			t.Errorf("audio metric %s emitted for a video signal", m.Name)
		case model.MetricBodyHeight:
			t.Error("posture should emit nothing without a backend")
		}
	}
}

func TestProcessSignal_PanicIsContained(t *testing.T) {
	opts := append(fixedOpts(), engine.WithVocalEstimator(panickingVocal{}))
	p := New(allEngines(), opts...)

	out := p.ProcessSignal(context.Background(), audioSignal(1000))

	var sound, rhythm bool
	for _, m := range out {
		switch m.Name {
		case model.MetricBarking:
			t.Error("panicking engine should contribute nothing")
		case model.MetricAverageVolume:
			sound = true
		case model.MetricRepetition:
			rhythm = true
		}
	}
	if !sound || !rhythm {
		t.Errorf("engines around the failure should still run (sound=%v rhythm=%v)", sound, rhythm)
	}
}

func TestGetAnalysis_Empty(t *testing.T) {
	p := New(model.AnalysisConfig{}, fixedOpts()...)
	p.ProcessSignal(context.Background(), videoSignal(1000))

	got := p.GetAnalysis()
	if got.SyntheticState != model.StateMixed {
		t.Errorf("expected %s, got %s", model.StateMixed, got.SyntheticState)
	}
	if got.Confidence != 0 {
		t.Errorf("expected confidence 0, got %v", got.Confidence)
	}
	if len(got.Metrics) != 0 {
		t.Errorf("expected no dominant signals, got %d", len(got.Metrics))
	}
}

func TestGetAnalysis_DoesNotMutate(t *testing.T) {
	p := New(allEngines(), fixedOpts()...)
	ctx := context.Background()
	for i := int64(0); i < 5; i++ {
		p.ProcessSignal(ctx, videoSignal(i*200))
		p.ProcessSignal(ctx, audioSignal(i*200+100))
	}

	before := p.AllMetrics()
	first := p.GetAnalysis()
	second := p.GetAnalysis()

	if !reflect.DeepEqual(first, second) {
		t.Error("repeated analysis differs")
	}
	if !reflect.DeepEqual(before, p.AllMetrics()) {
		t.Error("analysis mutated engine histories")
	}
	if len(first.Metrics) != 5 {
		t.Errorf("expected 5 dominant signals, got %d", len(first.Metrics))
	}
	if first.Confidence <= 0 || first.Confidence > 1 {
		t.Errorf("confidence out of range: %v", first.Confidence)
	}
}

func TestReset(t *testing.T) {
	p := New(allEngines(), fixedOpts()...)
	ctx := context.Background()
	p.ProcessSignal(ctx, videoSignal(1000))
	p.ProcessSignal(ctx, audioSignal(1100))

	p.Reset()

	if got := len(p.AllMetrics()); got != 0 {
		t.Errorf("expected no metrics after reset, got %d", got)
	}
	if p.Signals() != 0 {
		t.Errorf("expected signal count reset, got %d", p.Signals())
	}
	if got := p.GetAnalysis(); got.SyntheticState != model.StateMixed || got.Confidence != 0 {
		t.Errorf("expected empty analysis after reset, got %+v", got)
	}
}

func TestReproducibleWithSeed(t *testing.T) {
	run := func() []model.Metric {
		p := New(allEngines(), fixedOpts()...)
		ctx := context.Background()
		for i := int64(0); i < 10; i++ {
			p.ProcessSignal(ctx, videoSignal(i*200))
			p.ProcessSignal(ctx, audioSignal(i*200+100))
		}
		return p.AllMetrics()
	}

	a, b := run(), run()
	if !reflect.DeepEqual(a, b) {
		t.Error("same seed and signals produced different metrics")
	}
}

func TestFusionWeightsApplied(t *testing.T) {
	ctx := context.Background()
	cfg := model.AnalysisConfig{ActiveEngines: []string{model.EngineSoundActivity}}

	plain := New(cfg, fixedOpts()...)
	plain.ProcessSignal(ctx, audioSignal(1000))

	cfg.FusionWeights = map[string]float64{model.MetricAverageVolume: 0, model.MetricPeaks: 0}
	zeroed := New(cfg, fixedOpts()...)
	zeroed.ProcessSignal(ctx, audioSignal(1000))

	if plain.Analyze().Fusion.LatentState.Activation == 0 {
		t.Fatal("expected non-zero activation from sound metrics")
	}
	if got := zeroed.Analyze().Fusion.LatentState.Activation; got != 0 {
		t.Errorf("zero weights should null activation, got %v", got)
	}
}

func TestReport(t *testing.T) {
	p := New(allEngines(), fixedOpts()...)
	p.ProcessSignal(context.Background(), audioSignal(1000))

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	r := p.Report("", now)

	if r.ID == "" {
		t.Error("expected generated id")
	}
	if r.Signals != 1 {
		t.Errorf("signals = %d, want 1", r.Signals)
	}
	if !r.GeneratedAt.Equal(now) {
		t.Errorf("generated at = %v, want %v", r.GeneratedAt, now)
	}
	if !r.SessionStart.Equal(time.UnixMilli(0)) {
		t.Errorf("session start = %v, want epoch", r.SessionStart)
	}
	if r.Level != model.LevelOf(r.Interpretation.Confidence) {
		t.Errorf("level %s does not match confidence %v", r.Level, r.Interpretation.Confidence)
	}
	if len(r.Engines) != len(model.AllEngines()) {
		t.Errorf("expected one summary per active engine, got %d", len(r.Engines))
	}

	entry := r.HistoryEntry()
	if entry.ID != r.ID || entry.State != r.Interpretation.SyntheticState {
		t.Errorf("history entry mismatch: %+v", entry)
	}
}
