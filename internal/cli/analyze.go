package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/ppiankov/canisense/internal/capture"
	"github.com/ppiankov/canisense/internal/pipeline"
	"github.com/ppiankov/canisense/internal/worker"
)

var (
	analyzeList     string
	analyzeWorkers  int
	analyzeOutDir   string
	analyzeTimeout  time.Duration
	analyzeNoSave   bool
	analyzeRealtime bool
)

// analyzeCmd represents the analyze command
var analyzeCmd = &cobra.Command{
	Use:   "analyze <recording...>",
	Short: "Analyze recorded sessions, several in parallel",
	Long: `Analyze replays recordings through a fresh pipeline each:
- Read recordings from arguments and/or a list file (one path per line)
- Process them in parallel with a configurable worker count
- Write a JSON and a Markdown report per recording
- Save each result to history

The embedded profile and creation time of each recording are used, so a
recording analyzes the same way it did live.

Example:
  canisense analyze session.cnr
  canisense analyze a.cnr b.cnr --workers 4 --output-dir ./reports
  canisense analyze --list recordings.txt --timeout 5m`,
	RunE: runAnalyze,
}

func init() {
	rootCmd.AddCommand(analyzeCmd)

	analyzeCmd.Flags().StringVar(&analyzeList, "list", "", "file listing recordings, one per line")
	analyzeCmd.Flags().IntVar(&analyzeWorkers, "workers", 0, "number of concurrent workers (default from config)")
	analyzeCmd.Flags().StringVar(&analyzeOutDir, "output-dir", "", "output directory for reports (default from config)")
	analyzeCmd.Flags().DurationVar(&analyzeTimeout, "timeout", 10*time.Minute, "total timeout for the batch")
	analyzeCmd.Flags().BoolVar(&analyzeNoSave, "no-save", false, "do not save results to history")
	analyzeCmd.Flags().BoolVar(&analyzeRealtime, "realtime", false, "replay a single recording at capture speed")
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("workers") {
		cfg.Concurrency.Workers = analyzeWorkers
	}
	if analyzeOutDir != "" {
		cfg.Output.Dir = analyzeOutDir
	}

	paths := append([]string(nil), args...)
	if analyzeList != "" {
		listed, err := worker.ReadPathsFromFile(analyzeList)
		if err != nil {
			return err
		}
		paths = append(paths, listed...)
	}
	if len(paths) == 0 {
		return fmt.Errorf("no recordings given (pass paths or --list)")
	}

	ctx, cancel := withTimeout(context.Background(), analyzeTimeout)
	defer cancel()

	st, snaps, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = st.Close() }()

	runner := &pipeline.Runner{
		Config:    cfg.Analysis,
		Options:   engineOptions(cfg),
		Snapshots: snaps,
		Narrator:  newNarrator(cfg),
		PoseWait:  2 * time.Second,
	}
	if !analyzeNoSave {
		runner.History = snaps
	}

	if analyzeRealtime {
		if len(paths) != 1 {
			return fmt.Errorf("--realtime replays exactly one recording, got %d", len(paths))
		}
		return analyzeRealtimeReplay(ctx, cmd, runner, cfg.Capture.SignalsPerSecond, cfg.Capture.Burst, paths[0])
	}

	if err := os.MkdirAll(cfg.Output.Dir, 0755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	fmt.Fprintf(os.Stderr, "⚙️  Analyzing %d recordings with %d workers...\n\n", len(paths), cfg.Concurrency.Workers)

	processor := worker.NewBatchProcessor(runner, cfg.Concurrency.Workers)
	results := processor.ProcessRecordings(ctx, paths)

	renderer := pipeline.NewRenderer()
	success, failure := 0, 0
	for _, result := range results {
		if result.Error != nil {
			failure++
			fmt.Fprintf(os.Stderr, "✗ %s: %v\n", result.Path, result.Error)
			continue
		}

		// Several recordings may share a base name
		slug := sanitizeFilename(result.Path) + "-" + result.Report.ID[:8]
		jsonPath := filepath.Join(cfg.Output.Dir, slug+".json")
		mdPath := filepath.Join(cfg.Output.Dir, slug+".md")
		if err := renderer.RenderJSON(*result.Report, jsonPath); err != nil {
			failure++
			fmt.Fprintf(os.Stderr, "✗ %s: failed to write JSON: %v\n", result.Path, err)
			continue
		}
		if err := renderer.RenderMarkdown(*result.Report, mdPath); err != nil {
			failure++
			fmt.Fprintf(os.Stderr, "✗ %s: failed to write Markdown: %v\n", result.Path, err)
			continue
		}

		success++
		in := result.Report.Interpretation
		fmt.Fprintf(cmd.OutOrStdout(), "✓ %s: %s (%.0f%%, %d signals)\n",
			result.Path, in.SyntheticState, in.Confidence*100, result.Report.Signals)
	}

	fmt.Fprintf(os.Stderr, "\n  Total: %d  Success: %d  Failures: %d  Output: %s\n",
		len(results), success, failure, cfg.Output.Dir)
	if failure > 0 {
		return fmt.Errorf("%d of %d recordings failed", failure, len(results))
	}
	return nil
}

// analyzeRealtimeReplay paces one recording at the capture rate
func analyzeRealtimeReplay(ctx context.Context, cmd *cobra.Command, runner *pipeline.Runner, tickRate float64, burst int, path string) error {
	rec, err := capture.OpenFile(path)
	if err != nil {
		return err
	}
	defer func() { _ = rec.Close() }()

	// Recordings interleave audio and video ticks; pace on both
	limiter := worker.NewLimiter(tickRate*2, burst*2)

	report, err := runner.RunRecording(ctx, capture.Paced(rec, limiter, path), rec.Header())
	if err != nil {
		return fmt.Errorf("replay %s: %w", path, err)
	}
	return renderOutputs(cmd, *report, "", "")
}

// sanitizeFilename sanitizes a path for use as a report file name
func sanitizeFilename(s string) string {
	s = filepath.Base(filepath.Clean(s))
	s = strings.TrimSuffix(s, filepath.Ext(s))

	replacer := strings.NewReplacer(
		"/", "_",
		"\\", "_",
		":", "_",
		"*", "_",
		"?", "_",
		"\"", "_",
		"<", "_",
		">", "_",
		"|", "_",
		" ", "_",
	)
	s = replacer.Replace(s)
	if s == "" || s == "." {
		s = "report"
	}
	return s
}
