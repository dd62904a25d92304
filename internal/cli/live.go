package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/ppiankov/canisense/internal/capture"
	"github.com/ppiankov/canisense/internal/log"
	"github.com/ppiankov/canisense/internal/model"
	"github.com/ppiankov/canisense/internal/pipeline"
	"github.com/ppiankov/canisense/internal/worker"
)

var (
	liveDuration time.Duration
	liveRate     float64
	liveSeed     int64
	liveNoAudio  bool
	liveFast     bool
	liveNoSave   bool
	liveRecord   string
	outJSON      string
	outMD        string
)

// liveCmd represents the live command
var liveCmd = &cobra.Command{
	Use:   "live",
	Short: "Run a live analysis session on the synthetic capture",
	Long: `Live runs a capture session and analyzes it as signals arrive:
- Generate video frames and audio buffers at the configured rate
- Run every active engine on each signal
- Fuse the metrics and interpret them when the session ends
- Save the result to history

The session ends after --duration or on Ctrl-C; both produce a report.

Example:
  canisense live
  canisense live --duration 1m --record session.cnr
  canisense live --fast --json report.json --md report.md`,
	Args: cobra.NoArgs,
	RunE: runLive,
}

func init() {
	rootCmd.AddCommand(liveCmd)

	liveCmd.Flags().DurationVar(&liveDuration, "duration", 0, "session length (default from config, 0 runs until Ctrl-C)")
	liveCmd.Flags().Float64Var(&liveRate, "rate", 0, "capture ticks per second (default from config)")
	liveCmd.Flags().Int64Var(&liveSeed, "seed", 0, "seed for the synthetic capture and engines")
	liveCmd.Flags().BoolVar(&liveNoAudio, "no-audio", false, "disable the audio channel")
	liveCmd.Flags().BoolVar(&liveFast, "fast", false, "do not pace capture to real time")
	liveCmd.Flags().BoolVar(&liveNoSave, "no-save", false, "do not save the result to history")
	liveCmd.Flags().StringVar(&liveRecord, "record", "", "also write the signals to a recording file")
	liveCmd.Flags().StringVar(&outJSON, "json", "", "output JSON path (optional)")
	liveCmd.Flags().StringVar(&outMD, "md", "", "output Markdown path (optional)")
}

func runLive(cmd *cobra.Command, args []string) (err error) {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("duration") {
		cfg.Capture.Duration = liveDuration
	}
	if cmd.Flags().Changed("rate") {
		cfg.Capture.SignalsPerSecond = liveRate
	}
	if cmd.Flags().Changed("seed") {
		cfg.Capture.Seed = liveSeed
	}
	if liveNoAudio {
		cfg.Capture.Audio = false
	}
	if cfg.Capture.SignalsPerSecond <= 0 {
		return fmt.Errorf("capture rate must be positive, got %v", cfg.Capture.SignalsPerSecond)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, snaps, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = st.Close() }()

	start := time.Now()
	src, interval := syntheticSource(cfg, start)
	var source capture.Source = src
	if !liveFast {
		perTick := src.SignalsPerTick()
		limiter := worker.NewLimiter(cfg.Capture.SignalsPerSecond*float64(perTick), cfg.Capture.Burst*perTick)
		source = capture.Paced(src, limiter, "live")
	}

	runner := &pipeline.Runner{
		Config:    cfg.Analysis,
		Options:   engineOptions(cfg),
		Snapshots: snaps,
		Narrator:  newNarrator(cfg),
		PoseWait:  2 * time.Second,
	}
	if !liveNoSave {
		runner.History = snaps
	}

	var rec *recordingFile
	if liveRecord != "" {
		profile, perr := st.LoadProfile(ctx)
		if perr != nil {
			return perr
		}
		if rec, err = createRecording(liveRecord, start, &profile); err != nil {
			return err
		}
		defer func() {
			if closeErr := rec.Close(); closeErr != nil && err == nil {
				err = closeErr
			}
		}()
	}

	runner.OnSignal = func(sig model.Signal, metrics []model.Metric) {
		if rec != nil {
			if werr := rec.Write(sig); werr != nil {
				log.Error("recording failed", "path", liveRecord, "error", werr)
			}
		}
		log.Debug("signal", "type", sig.Type, "timestamp", sig.Timestamp, "metrics", len(metrics))
	}

	log.Info("live session started",
		"duration", cfg.Capture.Duration,
		"interval", interval,
		"audio", cfg.Capture.Audio,
		"paced", !liveFast,
	)

	report, err := runner.Run(ctx, source, start)
	if err != nil {
		return fmt.Errorf("live session failed: %w", err)
	}
	return renderOutputs(cmd, *report, outJSON, outMD)
}

// syntheticSource builds the capture generator from config
func syntheticSource(cfg *model.Config, start time.Time) (*capture.SyntheticSource, time.Duration) {
	interval := time.Duration(float64(time.Second) / cfg.Capture.SignalsPerSecond)
	ticks := 0
	if cfg.Capture.Duration > 0 {
		ticks = int(cfg.Capture.Duration / interval)
		if ticks == 0 {
			ticks = 1
		}
	}
	return capture.NewSynthetic(capture.SyntheticConfig{
		Start:      start.UnixMilli(),
		Interval:   interval,
		Ticks:      ticks,
		Width:      cfg.Capture.FrameWidth,
		Height:     cfg.Capture.FrameHeight,
		SampleRate: cfg.Capture.SampleRate,
		BufferSize: cfg.Capture.BufferSize,
		Audio:      cfg.Capture.Audio,
		Seed:       cfg.Capture.Seed,
	}), interval
}

// renderOutputs prints the summary card and writes the optional files
func renderOutputs(cmd *cobra.Command, report model.Report, jsonPath, mdPath string) error {
	renderer := pipeline.NewRenderer()
	renderer.RenderSummary(cmd.OutOrStdout(), report)

	if jsonPath != "" {
		if err := renderer.RenderJSON(report, jsonPath); err != nil {
			return fmt.Errorf("render JSON: %w", err)
		}
		fmt.Fprintf(os.Stderr, "✓ JSON report: %s\n", jsonPath)
	}
	if mdPath != "" {
		if err := renderer.RenderMarkdown(report, mdPath); err != nil {
			return fmt.Errorf("render Markdown: %w", err)
		}
		fmt.Fprintf(os.Stderr, "✓ Markdown report: %s\n", mdPath)
	}
	return nil
}
