// Package engine implements the bank of feature extractors that turn
// signals into metrics.
//
// Engines are independent: each owns its metric history and running state,
// and nothing mutable is shared between instances. None of them is safe for
// concurrent use; the pipeline serializes every call.
package engine

import (
	"context"
	"log/slog"

	"github.com/ppiankov/canisense/internal/log"
	"github.com/ppiankov/canisense/internal/model"
)

// Engine is a stateful feature extractor
type Engine interface {
	ID() string
	Name() string
	Description() string

	// Accepts reports whether the engine handles this signal type
	Accepts(t model.SignalType) bool

	// Process returns the metrics produced for this signal, possibly none,
	// and appends them to the engine's history. Signals of a type the
	// engine does not accept produce nothing and leave history untouched.
	Process(ctx context.Context, sig model.Signal) []model.Metric

	// Metrics returns a copy of every metric produced since the last reset
	Metrics() []model.Metric

	// Reset clears history and running state
	Reset()

	// IsActive is fixed when the bank is built, see WithActive
	IsActive() bool
}

// Descriptor is the static identity of an engine
type Descriptor struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Accepts     []string `json:"accepts"`
	Active      bool     `json:"active"`
}

// Describe builds a descriptor for display
func Describe(e Engine) Descriptor {
	d := Descriptor{
		ID:          e.ID(),
		Name:        e.Name(),
		Description: e.Description(),
		Active:      e.IsActive(),
	}
	for _, t := range []model.SignalType{model.SignalVideo, model.SignalAudio, model.SignalContext} {
		if e.Accepts(t) {
			d.Accepts = append(d.Accepts, string(t))
		}
	}
	return d
}

// base carries the identity and history shared by every engine
type base struct {
	id          string
	name        string
	description string
	accepts     []model.SignalType // nil accepts every type
	active      bool
	debug       bool
	logger      *slog.Logger
	history     []model.Metric
}

func newBase(id, name, description string, debug bool, accepts ...model.SignalType) base {
	return base{
		id:          id,
		name:        name,
		description: description,
		accepts:     accepts,
		active:      true,
		debug:       debug,
		logger:      log.With("engine", id),
	}
}

func (b *base) ID() string            { return b.id }
func (b *base) Name() string          { return b.name }
func (b *base) Description() string   { return b.description }
func (b *base) IsActive() bool        { return b.active }
func (b *base) setActive(active bool) { b.active = active }

func (b *base) Accepts(t model.SignalType) bool {
	if b.accepts == nil {
		return true
	}
	for _, a := range b.accepts {
		if a == t {
			return true
		}
	}
	return false
}

func (b *base) Metrics() []model.Metric {
	out := make([]model.Metric, len(b.history))
	copy(out, b.history)
	return out
}

func (b *base) Reset() {
	b.history = nil
}

// admit filters out signals the engine must ignore
func (b *base) admit(sig model.Signal) bool {
	if !b.Accepts(sig.Type) {
		return false
	}
	if err := sig.Validate(); err != nil {
		b.debugf("dropping invalid signal", "error", err)
		return false
	}
	return true
}

// emit records a metric in history and appends it to out
func (b *base) emit(out []model.Metric, ts int64, name string, value float64, unit string, reliability float64) []model.Metric {
	m := model.Metric{
		Name:        name,
		Value:       value,
		Unit:        unit,
		Timestamp:   ts,
		Reliability: reliability,
	}
	b.history = append(b.history, m)
	return append(out, m)
}

func (b *base) debugf(msg string, args ...any) {
	if b.debug {
		b.logger.Debug(msg, args...)
	}
}
