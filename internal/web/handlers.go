package web

import (
	"encoding/json"
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/ppiankov/canisense/internal/engine"
	"github.com/ppiankov/canisense/internal/model"
	"github.com/ppiankov/canisense/internal/pipeline"
)

const mimeMsgpack = "application/msgpack"

var errSessionNotFound = errors.New("session not found")

func notFound(c *fiber.Ctx) error {
	return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
		"error": errSessionNotFound.Error(),
	})
}

func badRequest(c *fiber.Ctx, err error) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"error": err.Error(),
	})
}

// withSession runs fn with the session locked. Closed sessions are 404.
func (s *Server) withSession(c *fiber.Ctx, fn func(sess *session) error) error {
	sess, ok := s.lookup(c.Params("id"))
	if !ok {
		return notFound(c)
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	if sess.closed {
		return notFound(c)
	}
	return fn(sess)
}

// handleEngines lists every engine with its activation under the server config
func (s *Server) handleEngines(c *fiber.Ctx) error {
	p := pipeline.New(s.cfg.Analysis, s.engineOptions()...)
	out := make([]engine.Descriptor, 0, len(p.Engines()))
	for _, e := range p.Engines() {
		out = append(out, engine.Describe(e))
	}
	return c.JSON(out)
}

// CreateSessionRequest optionally overrides the server's analysis config
// and, for this session only, the signal rate limit
type CreateSessionRequest struct {
	Config     *model.AnalysisConfig `json:"config,omitempty"`
	SignalRate float64               `json:"signal_rate,omitempty"`
}

// handleCreateSession starts a new pipeline
func (s *Server) handleCreateSession(c *fiber.Ctx) error {
	var req CreateSessionRequest
	if len(c.Body()) > 0 {
		if err := json.Unmarshal(c.Body(), &req); err != nil {
			return badRequest(c, err)
		}
	}

	cfg := s.cfg.Analysis
	if req.Config != nil {
		cfg = *req.Config
	}

	snap := model.Snapshot{}
	if s.cfg.Snapshots != nil {
		var err error
		if snap, err = s.cfg.Snapshots.Get(c.UserContext()); err != nil {
			s.logger.Warn("context snapshot unavailable", "error", err)
			snap = model.Snapshot{}
		}
	}

	now := s.cfg.Now()
	opts := append(s.engineOptions(),
		engine.WithSnapshot(snap),
		engine.WithSessionStart(now.UnixMilli()),
	)

	sess := &session{
		id:       uuid.NewString(),
		pipeline: pipeline.New(cfg, opts...),
		created:  now,
	}
	if !s.sessions.Add(sess.id, sess, s.cfg.SessionTTL) {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "session id already in use",
		})
	}
	if req.SignalRate > 0 {
		s.limiter.SetRate(sess.id, req.SignalRate, s.cfg.SignalBurst)
	}
	s.logger.Info("session created", "id", sess.id, "active", len(sess.pipeline.ActiveEngines()))

	active := make([]string, 0)
	for _, e := range sess.pipeline.ActiveEngines() {
		active = append(active, e.ID())
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"id":             sess.id,
		"active_engines": active,
	})
}

// decodeSignal accepts JSON by default and msgpack when the content type says so
func decodeSignal(c *fiber.Ctx) (model.Signal, error) {
	var sig model.Signal
	var err error
	if strings.HasPrefix(c.Get(fiber.HeaderContentType), mimeMsgpack) {
		err = msgpack.Unmarshal(c.Body(), &sig)
	} else {
		err = json.Unmarshal(c.Body(), &sig)
	}
	if err != nil {
		return sig, err
	}
	return sig, sig.Validate()
}

// handleSignal feeds one signal to the session's pipeline
func (s *Server) handleSignal(c *fiber.Ctx) error {
	sig, err := decodeSignal(c)
	if err != nil {
		return badRequest(c, err)
	}

	return s.withSession(c, func(sess *session) error {
		if !s.limiter.Allow(sess.id) {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error": "signal rate exceeded",
			})
		}
		metrics := sess.pipeline.ProcessSignal(c.UserContext(), sig)
		if metrics == nil {
			metrics = []model.Metric{}
		}
		return c.JSON(fiber.Map{
			"metrics": metrics,
			"signals": sess.pipeline.Signals(),
		})
	})
}

// handleAnalysis returns the current report without ending the session
func (s *Server) handleAnalysis(c *fiber.Ctx) error {
	return s.withSession(c, func(sess *session) error {
		return c.JSON(sess.pipeline.Report(sess.id, s.cfg.Now()))
	})
}

// handleMetrics returns every metric the session's engines hold
func (s *Server) handleMetrics(c *fiber.Ctx) error {
	return s.withSession(c, func(sess *session) error {
		metrics := sess.pipeline.AllMetrics()
		if metrics == nil {
			metrics = []model.Metric{}
		}
		return c.JSON(metrics)
	})
}

// handleReset clears the session's engine histories
func (s *Server) handleReset(c *fiber.Ctx) error {
	return s.withSession(c, func(sess *session) error {
		sess.pipeline.Reset()
		return c.JSON(fiber.Map{"id": sess.id, "reset": true})
	})
}

// handleDeleteSession finalizes the session and keeps it in history
func (s *Server) handleDeleteSession(c *fiber.Ctx) error {
	sess, ok := s.lookup(c.Params("id"))
	if !ok {
		return notFound(c)
	}

	sess.mu.Lock()
	if sess.closed {
		sess.mu.Unlock()
		return notFound(c)
	}
	report := sess.pipeline.Report(sess.id, s.cfg.Now())
	sess.closed = true
	sess.mu.Unlock()

	// Eviction takes the session lock, so delete only after releasing it
	s.sessions.Delete(sess.id)

	if s.cfg.History != nil {
		if err := s.cfg.History.SaveHistory(c.UserContext(), report.HistoryEntry()); err != nil {
			s.logger.Error("save history failed", "id", sess.id, "error", err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": err.Error(),
			})
		}
	}

	s.logger.Info("session closed",
		"id", sess.id,
		"signals", report.Signals,
		"state", report.Interpretation.SyntheticState,
	)
	return c.JSON(report)
}
