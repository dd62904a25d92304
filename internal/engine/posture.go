package engine

import (
	"context"
	"errors"
	"math"
	"sync/atomic"
	"time"

	"github.com/ppiankov/canisense/internal/model"
)

// MinLandmarks is the number of anatomical points a pose backend must return
const MinLandmarks = 33

// Landmark indices used by the posture engine
const (
	landmarkNose          = 0
	landmarkLeftShoulder  = 11
	landmarkRightShoulder = 12
	landmarkLeftAnkle     = 27
	landmarkRightAnkle    = 28
)

// ErrNoBackend is reported when no pose loader was configured
var ErrNoBackend = errors.New("no pose backend configured")

// Landmark is one anatomical point in normalized image coordinates
type Landmark struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// PoseBackend estimates landmarks from a frame
type PoseBackend interface {
	Estimate(ctx context.Context, frame *model.VideoFrame) ([]Landmark, error)
}

// PoseLoader loads a backend, possibly slowly
type PoseLoader func(ctx context.Context) (PoseBackend, error)

// PoseState is the backend lifecycle seen by the posture engine
type PoseState int32

const (
	PoseLoading PoseState = iota
	PoseReady
	PoseFailed
)

func (s PoseState) String() string {
	switch s {
	case PoseReady:
		return "ready"
	case PoseFailed:
		return "failed"
	default:
		return "loading"
	}
}

// BodyPostureEngine measures body height, orientation and rigidity from
// pose landmarks. The backend loads in the background; until it is ready
// every frame yields no metrics.
type BodyPostureEngine struct {
	base
	state   atomic.Int32
	backend PoseBackend // written once before state becomes PoseReady
	loaded  chan struct{}
}

func NewBodyPostureEngine(loader PoseLoader, debug bool) *BodyPostureEngine {
	e := &BodyPostureEngine{
		base: newBase(model.EngineBodyPosture, "Posture corporelle",
			"Hauteur du corps, orientation générale, rigidité vs relâchement.", debug, model.SignalVideo),
		loaded: make(chan struct{}),
	}
	e.state.Store(int32(PoseLoading))

	if loader == nil {
		e.state.Store(int32(PoseFailed))
		close(e.loaded)
		e.logger.Debug("posture metrics disabled", "error", ErrNoBackend)
		return e
	}

	go func() {
		backend, err := loader(context.Background())
		if err == nil && backend == nil {
			err = ErrNoBackend
		}
		if err != nil {
			e.fail(err)
			return
		}
		e.backend = backend
		e.state.Store(int32(PoseReady))
		close(e.loaded)
		e.logger.Info("pose backend loaded")
	}()
	return e
}

func (e *BodyPostureEngine) fail(err error) {
	e.state.Store(int32(PoseFailed))
	close(e.loaded)
	e.logger.Warn("pose backend unavailable, posture metrics disabled", "error", err)
}

// State reports the backend lifecycle
func (e *BodyPostureEngine) State() PoseState {
	return PoseState(e.state.Load())
}

// Loaded is closed once loading finished, successfully or not
func (e *BodyPostureEngine) Loaded() <-chan struct{} {
	return e.loaded
}

// WaitLoaded blocks until loading finished or the timeout elapsed
func (e *BodyPostureEngine) WaitLoaded(timeout time.Duration) PoseState {
	select {
	case <-e.loaded:
	case <-time.After(timeout):
	}
	return e.State()
}

func (e *BodyPostureEngine) Process(ctx context.Context, sig model.Signal) []model.Metric {
	if !e.admit(sig) || e.State() != PoseReady {
		return nil
	}

	landmarks, err := e.backend.Estimate(ctx, sig.Video)
	if err != nil {
		e.debugf("pose estimation failed", "error", err)
		return nil
	}
	if len(landmarks) < MinLandmarks {
		e.debugf("not enough landmarks", "count", len(landmarks))
		return nil
	}

	height, orientation, rigidity := postureFeatures(landmarks)

	var out []model.Metric
	out = e.emit(out, sig.Timestamp, model.MetricBodyHeight, height, "ratio", 0.8)
	out = e.emit(out, sig.Timestamp, model.MetricGeneralOrientation, orientation, "degrees", 0.7)
	out = e.emit(out, sig.Timestamp, model.MetricRigidity, rigidity, "ratio", 0.9)
	e.debugf("extracted posture metrics", "metrics", len(out))
	return out
}

// postureFeatures derives body height (nose to ankles), shoulder-line
// orientation shifted to [0,360] degrees, and rigidity from coordinate variance
func postureFeatures(lm []Landmark) (height, orientation, rigidity float64) {
	ankleY := (lm[landmarkLeftAnkle].Y + lm[landmarkRightAnkle].Y) / 2
	height = math.Abs(lm[landmarkNose].Y - ankleY)

	dx := lm[landmarkRightShoulder].X - lm[landmarkLeftShoulder].X
	dy := lm[landmarkRightShoulder].Y - lm[landmarkLeftShoulder].Y
	orientation = math.Atan2(dy, dx)*180/math.Pi + 180

	var sum float64
	for _, l := range lm {
		sum += l.X + l.Y
	}
	n := float64(2 * len(lm))
	mean := sum / n
	var variance float64
	for _, l := range lm {
		variance += (l.X-mean)*(l.X-mean) + (l.Y-mean)*(l.Y-mean)
	}
	variance /= n
	rigidity = math.Min(variance*1000, 1)

	return height, orientation, rigidity
}

// syntheticPose is a stand-in backend: a side-view skeleton template with
// per-frame jitter
type syntheticPose struct {
	src ValueSource
}

// SyntheticPoseLoader returns a loader for the stand-in backend. delay
// simulates model download time.
func SyntheticPoseLoader(src ValueSource, delay time.Duration) PoseLoader {
	return func(ctx context.Context) (PoseBackend, error) {
		if delay > 0 {
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}
		return &syntheticPose{src: src}, nil
	}
}

func (p *syntheticPose) Estimate(ctx context.Context, _ *model.VideoFrame) ([]Landmark, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	lm := make([]Landmark, MinLandmarks)
	for i := range lm {
		// spread points along the body, head left, tail right
		x := 0.2 + 0.6*float64(i)/float64(MinLandmarks-1)
		y := 0.4 + 0.2*math.Sin(float64(i))
		lm[i] = Landmark{X: x + (p.src.Float64()-0.5)*0.02, Y: y + (p.src.Float64()-0.5)*0.02}
	}
	lm[landmarkNose].Y = 0.25
	lm[landmarkLeftAnkle].Y = 0.85
	lm[landmarkRightAnkle].Y = 0.85
	return lm, nil
}
