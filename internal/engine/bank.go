package engine

import (
	"time"

	"github.com/ppiankov/canisense/internal/model"
)

// Options configure the engine bank
type Options struct {
	Sources      SourceFactory
	PoseLoader   PoseLoader
	Snapshot     model.Snapshot
	SessionStart int64 // ms since epoch
	Location     *time.Location
	Debug        bool

	// Active decides which engines run. Nil activates every engine.
	Active func(id string) bool

	Movement MovementEstimator
	Tail     TailEstimator
	Ears     EarsEstimator
	Head     HeadEstimator
	Vocal    VocalEstimator
	Rhythm   RhythmEstimator
}

// Option mutates Options
type Option func(*Options)

// WithSources sets the per-engine value source factory
func WithSources(f SourceFactory) Option {
	return func(o *Options) { o.Sources = f }
}

// WithSeed derives every engine's value source from seed
func WithSeed(seed int64) Option {
	return WithSources(SeededSources(seed))
}

// WithPoseLoader sets the perception backend loader for the posture engine
func WithPoseLoader(l PoseLoader) Option {
	return func(o *Options) { o.PoseLoader = l }
}

// WithSnapshot injects recent history and profile into the context engines
func WithSnapshot(s model.Snapshot) Option {
	return func(o *Options) { o.Snapshot = s }
}

// WithSessionStart overrides the session start timestamp (ms since epoch)
func WithSessionStart(ms int64) Option {
	return func(o *Options) { o.SessionStart = ms }
}

// WithLocation sets the time zone used by the time-of-day engine
func WithLocation(loc *time.Location) Option {
	return func(o *Options) { o.Location = loc }
}

// WithDebug enables per-engine diagnostic logging
func WithDebug(debug bool) Option {
	return func(o *Options) { o.Debug = debug }
}

// WithActive sets the activation policy applied at construction
func WithActive(active func(id string) bool) Option {
	return func(o *Options) { o.Active = active }
}

// WithVocalEstimator replaces the simulated vocalization classifier
func WithVocalEstimator(v VocalEstimator) Option {
	return func(o *Options) { o.Vocal = v }
}

// WithRhythmEstimator replaces the simulated rhythm estimator
func WithRhythmEstimator(r RhythmEstimator) Option {
	return func(o *Options) { o.Rhythm = r }
}

// WithMovementEstimator replaces the simulated movement estimator
func WithMovementEstimator(m MovementEstimator) Option {
	return func(o *Options) { o.Movement = m }
}

// WithTailEstimator replaces the simulated tail estimator
func WithTailEstimator(t TailEstimator) Option {
	return func(o *Options) { o.Tail = t }
}

// WithEarsEstimator replaces the simulated ears estimator
func WithEarsEstimator(e EarsEstimator) Option {
	return func(o *Options) { o.Ears = e }
}

// WithHeadEstimator replaces the simulated head estimator
func WithHeadEstimator(h HeadEstimator) Option {
	return func(o *Options) { o.Head = h }
}

// NewOptions applies opts over the defaults
func NewOptions(opts ...Option) Options {
	o := Options{
		SessionStart: time.Now().UnixMilli(),
		Location:     time.Local,
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.Sources == nil {
		o.Sources = SeededSources(time.Now().UnixNano())
	}
	return o
}

// NewBank instantiates one of every known engine in registration order.
// Activation comes from WithActive and cannot change afterwards.
func NewBank(opts ...Option) []Engine {
	o := NewOptions(opts...)

	sim := func(id string) *Simulated { return NewSimulated(o.Sources(id)) }

	movement := o.Movement
	if movement == nil {
		movement = sim(model.EngineGlobalMovement)
	}
	tail := o.Tail
	if tail == nil {
		tail = sim(model.EngineTail)
	}
	ears := o.Ears
	if ears == nil {
		ears = sim(model.EngineEars)
	}
	head := o.Head
	if head == nil {
		head = sim(model.EngineHeadGaze)
	}
	vocal := o.Vocal
	if vocal == nil {
		vocal = sim(model.EngineVocalSignature)
	}
	rhythm := o.Rhythm
	if rhythm == nil {
		rhythm = sim(model.EngineRhythm)
	}

	bank := []Engine{
		// Visual
		NewGlobalMovementEngine(movement, o.Debug),
		NewBodyPostureEngine(o.PoseLoader, o.Debug),
		NewTailEngine(tail, o.Debug),
		NewEarsEngine(ears, o.Debug),
		NewHeadGazeEngine(head, o.Debug),

		// Audio
		NewSoundActivityEngine(o.Debug),
		NewVocalSignatureEngine(vocal, o.Debug),
		NewRhythmEngine(rhythm, o.Debug),

		// Temporal
		NewTemporalVariationEngine(o.Debug),
		NewAccumulationEngine(o.Sources(model.EngineAccumulation), o.Debug),
		NewRecoveryEngine(o.Sources(model.EngineRecovery), o.Debug),
		NewTransitionEngine(o.Debug),

		// Context
		NewTimeOfDayEngine(o.Location, o.Debug),
		NewSessionDurationEngine(o.SessionStart, o.Debug),
		NewRecentHistoryEngine(o.Snapshot, o.Debug),
		NewBaselineEngine(o.Snapshot, o.Debug),
	}

	if o.Active != nil {
		for _, e := range bank {
			if a, ok := e.(interface{ setActive(bool) }); ok {
				a.setActive(o.Active(e.ID()))
			}
		}
	}
	return bank
}

// Find returns the engine with the given id, or nil
func Find(engines []Engine, id string) Engine {
	for _, e := range engines {
		if e.ID() == id {
			return e
		}
	}
	return nil
}

// IDs lists every engine id NewBank registers, in order
func IDs() []string {
	return model.AllEngines()
}
