package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/ppiankov/canisense/internal/capture"
	"github.com/ppiankov/canisense/internal/model"
	"github.com/ppiankov/canisense/internal/worker"
)

var recordFast bool

// recordCmd represents the record command
var recordCmd = &cobra.Command{
	Use:   "record <out>",
	Short: "Capture a session to a recording file without analyzing it",
	Long: `Record writes the synthetic capture to a msgpack recording. The stored
profile is embedded so the recording can be analyzed later, elsewhere.

Example:
  canisense record session.cnr --duration 2m
  canisense analyze session.cnr`,
	Args: cobra.ExactArgs(1),
	RunE: runRecord,
}

func init() {
	rootCmd.AddCommand(recordCmd)

	recordCmd.Flags().DurationVar(&liveDuration, "duration", 0, "session length (default from config)")
	recordCmd.Flags().Int64Var(&liveSeed, "seed", 0, "seed for the synthetic capture")
	recordCmd.Flags().BoolVar(&recordFast, "fast", false, "do not pace capture to real time")
}

// recordingFile is a recording writer that owns its file
type recordingFile struct {
	*capture.Writer
	f *os.File
}

func createRecording(path string, created time.Time, profile *model.Profile) (*recordingFile, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("create recording directory: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create recording: %w", err)
	}
	w, err := capture.NewWriter(f, created, profile)
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	return &recordingFile{Writer: w, f: f}, nil
}

// Close flushes buffered signals and closes the file
func (r *recordingFile) Close() error {
	if err := r.Flush(); err != nil {
		_ = r.f.Close()
		return fmt.Errorf("flush recording: %w", err)
	}
	return r.f.Close()
}

func runRecord(cmd *cobra.Command, args []string) (err error) {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("duration") {
		cfg.Capture.Duration = liveDuration
	}
	if cmd.Flags().Changed("seed") {
		cfg.Capture.Seed = liveSeed
	}
	if cfg.Capture.Duration <= 0 {
		return fmt.Errorf("record needs a positive --duration")
	}
	if cfg.Capture.SignalsPerSecond <= 0 {
		return fmt.Errorf("capture rate must be positive, got %v", cfg.Capture.SignalsPerSecond)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, _, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = st.Close() }()

	profile, err := st.LoadProfile(ctx)
	if err != nil {
		return err
	}

	start := time.Now()
	src, _ := syntheticSource(cfg, start)
	var source capture.Source = src
	if !recordFast {
		perTick := src.SignalsPerTick()
		source = capture.Paced(src, worker.NewLimiter(cfg.Capture.SignalsPerSecond*float64(perTick), cfg.Capture.Burst*perTick), "record")
	}

	rec, err := createRecording(args[0], start, &profile)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := rec.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()

	err = capture.Drain(ctx, source, rec.Write)
	if err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, io.EOF) {
		return fmt.Errorf("record: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "✓ Recorded %d signals to %s\n", rec.Count(), args[0])
	return nil
}
