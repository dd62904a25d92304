// Package web exposes analysis sessions over a JSON HTTP API
package web

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/ppiankov/canisense/internal/cache"
	"github.com/ppiankov/canisense/internal/engine"
	"github.com/ppiankov/canisense/internal/log"
	"github.com/ppiankov/canisense/internal/model"
	"github.com/ppiankov/canisense/internal/pipeline"
	"github.com/ppiankov/canisense/internal/worker"
)

// Config wires the server to the rest of the application
type Config struct {
	Analysis    model.AnalysisConfig
	SessionTTL  time.Duration
	MaxBodySize int

	// SignalRate caps signals per second per session. Zero or less means no cap.
	SignalRate  float64
	SignalBurst int

	// Options returns fresh engine options for each session
	Options func() []engine.Option

	Snapshots pipeline.SnapshotSource
	History   pipeline.HistorySink

	// Now defaults to time.Now
	Now func() time.Time
}

// session is one live pipeline. mu serializes every pipeline call.
type session struct {
	mu       sync.Mutex
	id       string
	pipeline *pipeline.Pipeline
	created  time.Time
	closed   bool
}

// Server is the HTTP API server
type Server struct {
	app      *fiber.App
	cfg      Config
	sessions *cache.MemoryCache[*session]
	limiter  *worker.Limiter
	logger   *slog.Logger
}

// NewServer creates a server and registers its routes
func NewServer(cfg Config) *Server {
	if cfg.SessionTTL <= 0 {
		cfg.SessionTTL = 15 * time.Minute
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	limiter := worker.Unlimited()
	if cfg.SignalRate > 0 {
		limiter = worker.NewLimiter(cfg.SignalRate, cfg.SignalBurst)
	}

	s := &Server{
		cfg:      cfg,
		sessions: cache.NewMemoryCache[*session](cfg.SessionTTL, cfg.SessionTTL/2),
		limiter:  limiter,
		logger:   log.With("component", "web"),
	}
	s.sessions.OnEvicted(func(id string, sess *session) {
		sess.mu.Lock()
		sess.closed = true
		sess.mu.Unlock()
		s.limiter.Forget(id)
		s.logger.Debug("session evicted", "id", id)
	})

	app := fiber.New(fiber.Config{
		AppName:               "Canisense",
		DisableStartupMessage: true,
		BodyLimit:             cfg.MaxBodySize,
	})
	app.Use(recover.New())
	app.Use(cors.New())

	api := app.Group("/api")
	api.Get("/engines", s.handleEngines)
	api.Post("/sessions", s.handleCreateSession)
	api.Post("/sessions/:id/signals", s.handleSignal)
	api.Get("/sessions/:id/analysis", s.handleAnalysis)
	api.Get("/sessions/:id/metrics", s.handleMetrics)
	api.Post("/sessions/:id/reset", s.handleReset)
	api.Delete("/sessions/:id", s.handleDeleteSession)

	s.app = app
	return s
}

// App exposes the underlying fiber app, mainly for tests
func (s *Server) App() *fiber.App {
	return s.app
}

// Listen serves on addr until Shutdown is called
func (s *Server) Listen(addr string) error {
	s.logger.Info("listening", "addr", addr)
	return s.app.Listen(addr)
}

// Shutdown stops accepting requests and waits for in-flight ones
func (s *Server) Shutdown(ctx context.Context) error {
	return s.app.ShutdownWithContext(ctx)
}

// Sessions counts live sessions. Expired sessions are evicted first.
func (s *Server) Sessions() int {
	s.sessions.DeleteExpired()
	return s.sessions.Len()
}

func (s *Server) engineOptions() []engine.Option {
	if s.cfg.Options == nil {
		return nil
	}
	return s.cfg.Options()
}

// lookup returns the session and refreshes its expiry
func (s *Server) lookup(id string) (*session, bool) {
	sess, ok := s.sessions.Get(id)
	if !ok {
		return nil, false
	}
	s.sessions.Touch(id, s.cfg.SessionTTL)
	return sess, true
}
