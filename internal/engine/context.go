package engine

import (
	"context"
	"time"

	"github.com/ppiankov/canisense/internal/model"
)

// recentWindow is how many past analyses the recent-history engine considers
const recentWindow = 5

// TimeOfDayEngine reports the hour of the signal as a fraction of the day
type TimeOfDayEngine struct {
	base
	loc *time.Location
}

func NewTimeOfDayEngine(loc *time.Location, debug bool) *TimeOfDayEngine {
	if loc == nil {
		loc = time.Local
	}
	return &TimeOfDayEngine{
		base: newBase(model.EngineTimeOfDay, "Heure de la journée",
			"Heure actuelle pour contextualiser les comportements.", debug),
		loc: loc,
	}
}

func (e *TimeOfDayEngine) Process(_ context.Context, sig model.Signal) []model.Metric {
	if !e.admit(sig) {
		return nil
	}
	hour := time.UnixMilli(sig.Timestamp).In(e.loc).Hour()
	return e.emit(nil, sig.Timestamp, model.MetricHourOfDay, float64(hour)/24, "ratio", 1)
}

// SessionDurationEngine reports minutes elapsed since the session started
type SessionDurationEngine struct {
	base
	start int64 // ms since epoch
}

func NewSessionDurationEngine(start int64, debug bool) *SessionDurationEngine {
	return &SessionDurationEngine{
		base: newBase(model.EngineSessionDuration, "Durée de la session",
			"Temps écoulé depuis le début de la session.", debug),
		start: start,
	}
}

func (e *SessionDurationEngine) Process(_ context.Context, sig model.Signal) []model.Metric {
	if !e.admit(sig) {
		return nil
	}
	minutes := float64(sig.Timestamp-e.start) / 1000 / 60
	return e.emit(nil, sig.Timestamp, model.MetricSessionDuration, minutes, "minutes", 1)
}

// RecentHistoryEngine reports the share of the newest analyses that ended
// stressed. Snapshot.Recent is newest first.
type RecentHistoryEngine struct {
	base
	recent []model.HistoryEntry
}

func NewRecentHistoryEngine(snap model.Snapshot, debug bool) *RecentHistoryEngine {
	recent := snap.Recent
	if len(recent) > recentWindow {
		recent = recent[:recentWindow]
	}
	return &RecentHistoryEngine{
		base: newBase(model.EngineRecentHistory, "Historique récent",
			"Analyse les analyses passées récentes.", debug),
		recent: append([]model.HistoryEntry(nil), recent...),
	}
}

func (e *RecentHistoryEngine) Process(_ context.Context, sig model.Signal) []model.Metric {
	if !e.admit(sig) {
		return nil
	}
	return e.emit(nil, sig.Timestamp, model.MetricAverageRecentStress, e.stressShare(), "ratio", 0.8)
}

func (e *RecentHistoryEngine) stressShare() float64 {
	if len(e.recent) == 0 {
		return 0
	}
	stressed := 0
	for _, h := range e.recent {
		if h.State == model.StateStress {
			stressed++
		}
	}
	return float64(stressed) / float64(len(e.recent))
}

// BaselineEngine reports the dog's baseline activation from its profile
type BaselineEngine struct {
	base
	profile model.Profile
}

func NewBaselineEngine(snap model.Snapshot, debug bool) *BaselineEngine {
	return &BaselineEngine{
		base: newBase(model.EngineBaseline, "Baseline individuelle",
			"Compare aux comportements de base du chien.", debug),
		profile: snap.Profile,
	}
}

func (e *BaselineEngine) Process(_ context.Context, sig model.Signal) []model.Metric {
	if !e.admit(sig) {
		return nil
	}
	activation := float64(e.profile.EffectiveEnergy()) / 10
	return e.emit(nil, sig.Timestamp, model.MetricBaselineActivation, activation, "ratio", 0.7)
}
