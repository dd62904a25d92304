package engine

import (
	"hash/fnv"
	"math"
	"math/rand/v2"

	"github.com/ppiankov/canisense/internal/model"
)

// ValueSource yields uniform values in [0,1). *rand.Rand satisfies it.
type ValueSource interface {
	Float64() float64
}

// SourceFactory hands each engine its own value source so that no random
// state is shared between engines
type SourceFactory func(engineID string) ValueSource

// NewSeededSource returns a deterministic PCG-backed source
func NewSeededSource(seed int64, stream uint64) ValueSource {
	return rand.New(rand.NewPCG(uint64(seed), stream))
}

// SeededSources derives one independent stream per engine id from a seed
func SeededSources(seed int64) SourceFactory {
	return func(engineID string) ValueSource {
		h := fnv.New64a()
		_, _ = h.Write([]byte(engineID))
		return NewSeededSource(seed, h.Sum64())
	}
}

// FixedSource cycles through a fixed list of values
type FixedSource struct {
	Values []float64
	next   int
}

// Float64 returns the next value, wrapping around. An empty list yields 0.
func (s *FixedSource) Float64() float64 {
	if len(s.Values) == 0 {
		return 0
	}
	v := s.Values[s.next%len(s.Values)]
	s.next++
	return v
}

// FixedSources gives every engine its own FixedSource over the same values
func FixedSources(values ...float64) SourceFactory {
	return func(string) ValueSource {
		return &FixedSource{Values: values}
	}
}

// Readings produced by the pluggable estimators. A real perception model
// replaces the simulated implementation without touching fusion.

// MovementReading feeds the globalMovement engine
type MovementReading struct {
	AverageSpeed  float64 // m/s, 0-10
	Accelerations float64 // m/s², 0-5
	Agitation     float64 // 0-1
	Immobile      bool
}

// TailReading feeds the tail engine
type TailReading struct {
	WagFrequency float64 // Hz, 0-5
	Amplitude    float64 // degrees, 0-90
	Direction    float64 // degrees, -90..90
	Asymmetry    float64 // 0-0.5
}

// EarsReading feeds the ears engine
type EarsReading struct {
	Up             bool
	MicroMovements float64
	RapidVariation bool
}

// HeadReading feeds the headGaze engine
type HeadReading struct {
	Orientation float64 // degrees, 0-360
	Stability   float64 // 0.5-1
	Sudden      bool
}

// VocalReading holds vocalization probabilities
type VocalReading struct {
	Barking  float64
	Whining  float64
	Growling float64
	Panting  float64
}

// RhythmReading holds rhythm features of the audio stream
type RhythmReading struct {
	Repetition   float64
	Irregularity float64
	Bursts       bool
}

// MovementEstimator estimates global movement from a frame
type MovementEstimator interface {
	EstimateMovement(frame *model.VideoFrame, ts int64) MovementReading
}

// TailEstimator estimates tail motion from a frame
type TailEstimator interface {
	EstimateTail(frame *model.VideoFrame, ts int64) TailReading
}

// EarsEstimator estimates ear carriage from a frame
type EarsEstimator interface {
	EstimateEars(frame *model.VideoFrame, ts int64) EarsReading
}

// HeadEstimator estimates head orientation from a frame
type HeadEstimator interface {
	EstimateHead(frame *model.VideoFrame, ts int64) HeadReading
}

// VocalEstimator classifies vocalizations in an audio buffer
type VocalEstimator interface {
	EstimateVocal(buf *model.AudioBuffer) VocalReading
}

// RhythmEstimator measures rhythm in an audio buffer
type RhythmEstimator interface {
	EstimateRhythm(buf *model.AudioBuffer) RhythmReading
}

// Simulated stands in for every estimator. Periodic channels follow the
// signal clock; the rest draw from the value source.
type Simulated struct {
	src ValueSource
}

// NewSimulated creates a simulated estimator over src
func NewSimulated(src ValueSource) *Simulated {
	return &Simulated{src: src}
}

func seconds(ts int64) float64 {
	return float64(ts) / 1000
}

func (s *Simulated) EstimateMovement(_ *model.VideoFrame, ts int64) MovementReading {
	return MovementReading{
		AverageSpeed:  math.Abs(math.Sin(seconds(ts))) * 10,
		Accelerations: s.src.Float64() * 5,
		Agitation:     s.src.Float64(),
		Immobile:      s.src.Float64() < 0.3,
	}
}

func (s *Simulated) EstimateTail(_ *model.VideoFrame, ts int64) TailReading {
	return TailReading{
		WagFrequency: math.Abs(math.Sin(seconds(ts))) * 5,
		Amplitude:    s.src.Float64() * 90,
		Direction:    s.src.Float64()*180 - 90,
		Asymmetry:    s.src.Float64() * 0.5,
	}
}

func (s *Simulated) EstimateEars(_ *model.VideoFrame, _ int64) EarsReading {
	return EarsReading{
		Up:             s.src.Float64() < 0.5,
		MicroMovements: s.src.Float64(),
		RapidVariation: s.src.Float64() < 0.2,
	}
}

func (s *Simulated) EstimateHead(_ *model.VideoFrame, _ int64) HeadReading {
	return HeadReading{
		Orientation: s.src.Float64() * 360,
		Stability:   1 - s.src.Float64()*0.5,
		Sudden:      s.src.Float64() < 0.3,
	}
}

func (s *Simulated) EstimateVocal(_ *model.AudioBuffer) VocalReading {
	return VocalReading{
		Barking:  s.src.Float64(),
		Whining:  s.src.Float64(),
		Growling: s.src.Float64(),
		Panting:  s.src.Float64(),
	}
}

func (s *Simulated) EstimateRhythm(_ *model.AudioBuffer) RhythmReading {
	return RhythmReading{
		Repetition:   s.src.Float64(),
		Irregularity: s.src.Float64(),
		Bursts:       s.src.Float64() < 0.5,
	}
}

func boolValue(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
