package engine

import (
	"context"
	"math"

	"github.com/ppiankov/canisense/internal/model"
)

// silenceRMS is the RMS level below which a buffer counts as silent
const silenceRMS = 0.01

// SoundActivityEngine computes volume, peaks and silence from raw samples
type SoundActivityEngine struct {
	base
}

func NewSoundActivityEngine(debug bool) *SoundActivityEngine {
	return &SoundActivityEngine{
		base: newBase(model.EngineSoundActivity, "Activité sonore",
			"Volume moyen, pics, silence prolongé.", debug, model.SignalAudio),
	}
}

func (e *SoundActivityEngine) Process(_ context.Context, sig model.Signal) []model.Metric {
	if !e.admit(sig) || len(sig.Audio.Samples) == 0 {
		return nil
	}
	rms, peak := levels(sig.Audio.Samples)

	var out []model.Metric
	out = e.emit(out, sig.Timestamp, model.MetricAverageVolume, rms*100, "dB", 0.8)
	out = e.emit(out, sig.Timestamp, model.MetricPeaks, peak*120, "dB", 0.9)
	out = e.emit(out, sig.Timestamp, model.MetricProlongedSilence, boolValue(rms < silenceRMS), "boolean", 0.7)
	e.debugf("processed sound activity", "rms", rms, "peak", peak)
	return out
}

// levels returns the RMS and the absolute peak of a buffer
func levels(samples []float32) (rms, peak float64) {
	var sum float64
	for _, s := range samples {
		v := float64(s)
		sum += v * v
		if a := math.Abs(v); a > peak {
			peak = a
		}
	}
	return math.Sqrt(sum / float64(len(samples))), peak
}

// VocalSignatureEngine reports barking, whining, growling and panting
type VocalSignatureEngine struct {
	base
	est VocalEstimator
}

func NewVocalSignatureEngine(est VocalEstimator, debug bool) *VocalSignatureEngine {
	return &VocalSignatureEngine{
		base: newBase(model.EngineVocalSignature, "Signature vocale",
			"Aboiement, gémissement, grognement, souffle.", debug, model.SignalAudio),
		est: est,
	}
}

func (e *VocalSignatureEngine) Process(_ context.Context, sig model.Signal) []model.Metric {
	if !e.admit(sig) {
		return nil
	}
	r := e.est.EstimateVocal(sig.Audio)

	var out []model.Metric
	out = e.emit(out, sig.Timestamp, model.MetricBarking, r.Barking, "probability", 0.8)
	out = e.emit(out, sig.Timestamp, model.MetricWhining, r.Whining, "probability", 0.7)
	out = e.emit(out, sig.Timestamp, model.MetricGrowling, r.Growling, "probability", 0.9)
	out = e.emit(out, sig.Timestamp, model.MetricPanting, r.Panting, "probability", 0.6)
	e.debugf("processed vocal signature", "metrics", len(out))
	return out
}

// RhythmEngine reports repetition, irregularity and bursts
type RhythmEngine struct {
	base
	est RhythmEstimator
}

func NewRhythmEngine(est RhythmEstimator, debug bool) *RhythmEngine {
	return &RhythmEngine{
		base: newBase(model.EngineRhythm, "Rythme",
			"Répétition, irrégularité, salves.", debug, model.SignalAudio),
		est: est,
	}
}

func (e *RhythmEngine) Process(_ context.Context, sig model.Signal) []model.Metric {
	if !e.admit(sig) {
		return nil
	}
	r := e.est.EstimateRhythm(sig.Audio)

	var out []model.Metric
	out = e.emit(out, sig.Timestamp, model.MetricRepetition, r.Repetition, "ratio", 0.8)
	out = e.emit(out, sig.Timestamp, model.MetricIrregularity, r.Irregularity, "ratio", 0.7)
	out = e.emit(out, sig.Timestamp, model.MetricBursts, boolValue(r.Bursts), "boolean", 0.9)
	e.debugf("processed rhythm", "metrics", len(out))
	return out
}
