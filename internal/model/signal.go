package model

import (
	"errors"
	"fmt"
)

// SignalType tags the payload carried by a Signal
type SignalType string

const (
	SignalVideo   SignalType = "video"
	SignalAudio   SignalType = "audio"
	SignalContext SignalType = "context"
)

// Payload validation errors
var (
	ErrMissingPayload = errors.New("signal payload missing")
	ErrBadFrame       = errors.New("video frame size mismatch")
	ErrBadSampleRate  = errors.New("audio sample rate must be positive")
	ErrUnknownType    = errors.New("unknown signal type")
)

// VideoFrame is a decoded RGBA pixel buffer (row-major, 4 bytes per pixel)
type VideoFrame struct {
	Pixels []byte `json:"pixels" msgpack:"pixels"`
	Width  int    `json:"width" msgpack:"width"`
	Height int    `json:"height" msgpack:"height"`
}

// AudioBuffer is a decoded mono sample buffer in [-1, 1]
type AudioBuffer struct {
	Samples    []float32 `json:"samples" msgpack:"samples"`
	SampleRate int       `json:"sample_rate" msgpack:"sample_rate"`
}

// Signal is one timestamped unit of sensor input. Exactly the payload
// matching Type is set.
type Signal struct {
	Type      SignalType     `json:"type" msgpack:"type"`
	Timestamp int64          `json:"timestamp" msgpack:"timestamp"` // ms since epoch
	Video     *VideoFrame    `json:"video,omitempty" msgpack:"video,omitempty"`
	Audio     *AudioBuffer   `json:"audio,omitempty" msgpack:"audio,omitempty"`
	Context   map[string]any `json:"context,omitempty" msgpack:"context,omitempty"`
}

// NewVideoSignal wraps a pixel buffer into a video signal
func NewVideoSignal(pixels []byte, width, height int, ts int64) Signal {
	return Signal{
		Type:      SignalVideo,
		Timestamp: ts,
		Video:     &VideoFrame{Pixels: pixels, Width: width, Height: height},
	}
}

// NewAudioSignal wraps a sample buffer into an audio signal
func NewAudioSignal(samples []float32, sampleRate int, ts int64) Signal {
	return Signal{
		Type:      SignalAudio,
		Timestamp: ts,
		Audio:     &AudioBuffer{Samples: samples, SampleRate: sampleRate},
	}
}

// NewContextSignal wraps a free-form record into a context signal
func NewContextSignal(data map[string]any, ts int64) Signal {
	return Signal{
		Type:      SignalContext,
		Timestamp: ts,
		Context:   data,
	}
}

// Validate reports whether the payload matches the declared type
func (s Signal) Validate() error {
	switch s.Type {
	case SignalVideo:
		if s.Video == nil {
			return fmt.Errorf("%s: %w", s.Type, ErrMissingPayload)
		}
		if s.Video.Width <= 0 || s.Video.Height <= 0 || len(s.Video.Pixels) != s.Video.Width*s.Video.Height*4 {
			return fmt.Errorf("%dx%d with %d bytes: %w", s.Video.Width, s.Video.Height, len(s.Video.Pixels), ErrBadFrame)
		}
	case SignalAudio:
		if s.Audio == nil {
			return fmt.Errorf("%s: %w", s.Type, ErrMissingPayload)
		}
		if s.Audio.SampleRate <= 0 {
			return ErrBadSampleRate
		}
	case SignalContext:
		// Context records are free-form
	default:
		return fmt.Errorf("%q: %w", s.Type, ErrUnknownType)
	}
	return nil
}
