// Package capture produces signals for a pipeline: a synthetic generator,
// msgpack session recordings and paced replay.
package capture

import (
	"context"
	"errors"
	"io"
	"math"
	"math/rand/v2"
	"time"

	"github.com/ppiankov/canisense/internal/model"
)

// Source yields signals until it returns io.EOF
type Source interface {
	Next(ctx context.Context) (model.Signal, error)
}

// SyntheticConfig configures the synthetic generator
type SyntheticConfig struct {
	Start      int64         // ms since epoch of the first tick
	Interval   time.Duration // time between ticks
	Ticks      int           // 0 runs until cancelled
	Width      int
	Height     int
	SampleRate int
	BufferSize int
	Audio      bool // emit an audio buffer after every frame
	Seed       int64
}

// SyntheticSource fabricates RGBA frames and audio buffers on a virtual
// clock. The same config always yields the same signals.
type SyntheticSource struct {
	cfg     SyntheticConfig
	rng     *rand.Rand
	tick    int
	pending *model.Signal
}

// NewSynthetic creates a generator. Zero dimensions fall back to 64x48,
// 44.1kHz and 1024 samples.
func NewSynthetic(cfg SyntheticConfig) *SyntheticSource {
	if cfg.Width <= 0 {
		cfg.Width = 64
	}
	if cfg.Height <= 0 {
		cfg.Height = 48
	}
	if cfg.SampleRate <= 0 {
		cfg.SampleRate = 44100
	}
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = 1024
	}
	if cfg.Interval <= 0 {
		cfg.Interval = 200 * time.Millisecond
	}
	return &SyntheticSource{
		cfg: cfg,
		rng: rand.New(rand.NewPCG(uint64(cfg.Seed), 0x9e3779b97f4a7c15)),
	}
}

// Next returns the next signal. Each tick yields a video frame, then an
// audio buffer with the same timestamp when audio is enabled.
func (s *SyntheticSource) Next(ctx context.Context) (model.Signal, error) {
	if err := ctx.Err(); err != nil {
		return model.Signal{}, err
	}
	if s.pending != nil {
		sig := *s.pending
		s.pending = nil
		return sig, nil
	}
	if s.cfg.Ticks > 0 && s.tick >= s.cfg.Ticks {
		return model.Signal{}, io.EOF
	}

	ts := s.cfg.Start + int64(s.tick)*s.cfg.Interval.Milliseconds()
	s.tick++

	video := model.NewVideoSignal(s.frame(), s.cfg.Width, s.cfg.Height, ts)
	if s.cfg.Audio {
		audio := model.NewAudioSignal(s.samples(ts), s.cfg.SampleRate, ts)
		s.pending = &audio
	}
	return video, nil
}

// SignalsPerTick is 2 with audio enabled, 1 otherwise
func (s *SyntheticSource) SignalsPerTick() int {
	if s.cfg.Audio {
		return 2
	}
	return 1
}

func (s *SyntheticSource) frame() []byte {
	pixels := make([]byte, s.cfg.Width*s.cfg.Height*4)
	for i := 0; i < len(pixels); i += 4 {
		pixels[i] = byte(s.rng.IntN(256))
		pixels[i+1] = byte(s.rng.IntN(256))
		pixels[i+2] = byte(s.rng.IntN(256))
		pixels[i+3] = 255
	}
	return pixels
}

// samples is a quiet tone with noise whose loudness drifts over time
func (s *SyntheticSource) samples(ts int64) []float32 {
	out := make([]float32, s.cfg.BufferSize)
	gain := 0.05 + 0.25*(math.Sin(float64(ts)/7000)*0.5+0.5)
	for i := range out {
		t := float64(i) / float64(s.cfg.SampleRate)
		tone := math.Sin(2 * math.Pi * 440 * t)
		noise := s.rng.Float64()*2 - 1
		out[i] = float32(gain * (0.7*tone + 0.3*noise))
	}
	return out
}

// Drain reads src until io.EOF, handing every signal to fn. It stops early
// on a context error or when fn fails.
func Drain(ctx context.Context, src Source, fn func(model.Signal) error) error {
	for {
		sig, err := src.Next(ctx)
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		if err := fn(sig); err != nil {
			return err
		}
	}
}
