package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/ppiankov/canisense/internal/capture"
	"github.com/ppiankov/canisense/internal/engine"
	"github.com/ppiankov/canisense/internal/llm"
	"github.com/ppiankov/canisense/internal/log"
	"github.com/ppiankov/canisense/internal/model"
)

// SnapshotSource supplies the context snapshot for a new pipeline
type SnapshotSource interface {
	Get(ctx context.Context) (model.Snapshot, error)
}

// HistorySink keeps finished analyses
type HistorySink interface {
	SaveHistory(ctx context.Context, e model.HistoryEntry) error
}

// Runner drives one pipeline per run from a capture source to a report.
// All fields are optional except Config.
type Runner struct {
	Config model.AnalysisConfig

	// Options returns fresh engine options for each run. Value sources are
	// stateful, so runs must not share them.
	Options func() []engine.Option

	Snapshots SnapshotSource
	History   HistorySink
	Narrator  *llm.Narrator

	// PoseWait bounds how long a run waits for the pose backend before
	// processing the first signal. Zero does not wait.
	PoseWait time.Duration

	// OnSignal observes every processed signal with the metrics it produced
	OnSignal func(sig model.Signal, metrics []model.Metric)

	// Now defaults to time.Now
	Now func() time.Time
}

// Run consumes src until io.EOF or until ctx ends. A cancelled or expired
// context stops capture but still produces a report of what was seen.
func (r *Runner) Run(ctx context.Context, src capture.Source, sessionStart time.Time) (*model.Report, error) {
	return r.run(ctx, src, sessionStart, nil)
}

// AnalyzeRecording replays a recording file. The recording's creation time
// becomes the session start and its embedded profile, if any, replaces the
// stored one.
func (r *Runner) AnalyzeRecording(ctx context.Context, path string) (*model.Report, error) {
	rec, err := capture.OpenFile(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rec.Close() }()

	report, err := r.RunRecording(ctx, rec, rec.Header())
	if err != nil {
		return nil, fmt.Errorf("analyze %s: %w", path, err)
	}
	return report, nil
}

// RunRecording consumes src under the session start and profile of h.
// src is usually the recording itself, possibly paced.
func (r *Runner) RunRecording(ctx context.Context, src capture.Source, h capture.Header) (*model.Report, error) {
	return r.run(ctx, src, time.UnixMilli(h.Created), h.Profile)
}

func (r *Runner) run(ctx context.Context, src capture.Source, sessionStart time.Time, profile *model.Profile) (*model.Report, error) {
	logger := log.With("component", "runner")

	snap := r.snapshot(ctx)
	if profile != nil {
		snap.Profile = *profile
	}

	var opts []engine.Option
	if r.Options != nil {
		opts = r.Options()
	}
	opts = append(opts,
		engine.WithSnapshot(snap),
		engine.WithSessionStart(sessionStart.UnixMilli()),
	)
	p := New(r.Config, opts...)

	if r.PoseWait > 0 {
		if pose, ok := engine.Find(p.Engines(), model.EngineBodyPosture).(*engine.BodyPostureEngine); ok {
			state := pose.WaitLoaded(r.PoseWait)
			logger.Debug("pose backend", "state", state)
		}
	}

	for {
		sig, err := src.Next(ctx)
		if errors.Is(err, io.EOF) {
			break
		}
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			logger.Debug("capture stopped", "reason", err)
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read signal: %w", err)
		}

		metrics := p.ProcessSignal(ctx, sig)
		if r.OnSignal != nil {
			r.OnSignal(sig, metrics)
		}
	}

	report := p.Report("", r.now())

	// The capture context may be done by now; the tail of the run still
	// completes.
	tail := context.WithoutCancel(ctx)
	r.narrate(tail, &report)

	if r.History != nil {
		if err := r.History.SaveHistory(tail, report.HistoryEntry()); err != nil {
			return nil, fmt.Errorf("save history: %w", err)
		}
	}

	logger.Info("analysis complete",
		"id", report.ID,
		"signals", report.Signals,
		"state", report.Interpretation.SyntheticState,
		"confidence", report.Interpretation.Confidence,
	)
	return &report, nil
}

func (r *Runner) snapshot(ctx context.Context) model.Snapshot {
	if r.Snapshots == nil {
		return model.Snapshot{}
	}
	snap, err := r.Snapshots.Get(ctx)
	if err != nil {
		log.Warn("context snapshot unavailable, continuing without history", "error", err)
		return model.Snapshot{}
	}
	return snap
}

// narrate attaches a narrative. Failures become warnings on the report.
func (r *Runner) narrate(ctx context.Context, report *model.Report) {
	if !r.Narrator.IsEnabled() {
		return
	}
	narrative, err := r.Narrator.Narrate(ctx, *report)
	if err != nil {
		log.Warn("narration failed", "provider", r.Narrator.ProviderName(), "error", err)
		report.Narrative = &model.Narrative{
			Provider: r.Narrator.ProviderName(),
			Warnings: []string{err.Error()},
		}
		return
	}
	report.Narrative = narrative
}

func (r *Runner) now() time.Time {
	if r.Now != nil {
		return r.Now()
	}
	return time.Now()
}
