package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/ppiankov/canisense/internal/log"
	"github.com/ppiankov/canisense/internal/web"
)

var serveAddr string

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the analysis API over HTTP",
	Long: `Serve exposes analysis sessions as a JSON API. Clients create a
session, post signals to it, read the analysis at any time and delete the
session to keep the result in history. Idle sessions expire.

Routes:
  GET    /api/engines
  POST   /api/sessions
  POST   /api/sessions/:id/signals
  GET    /api/sessions/:id/analysis
  GET    /api/sessions/:id/metrics
  POST   /api/sessions/:id/reset
  DELETE /api/sessions/:id

Example:
  canisense serve --addr :8080`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default from config)")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if serveAddr != "" {
		cfg.Server.Addr = serveAddr
	}

	st, snaps, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = st.Close() }()

	srv := web.NewServer(web.Config{
		Analysis:    cfg.Analysis,
		SessionTTL:  cfg.Server.SessionTTL,
		MaxBodySize: cfg.Server.MaxBodySize,
		SignalRate:  cfg.Server.SignalRate,
		SignalBurst: cfg.Server.SignalBurst,
		Options:     engineOptions(cfg),
		Snapshots:   snaps,
		History:     snaps,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Listen(cfg.Server.Addr) }()

	fmt.Fprintf(os.Stderr, "🌐 Canisense API: http://localhost%s/api\n", cfg.Server.Addr)

	select {
	case err := <-errCh:
		return fmt.Errorf("server: %w", err)
	case <-ctx.Done():
	}

	log.Info("shutting down", "sessions", srv.Sessions())
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
