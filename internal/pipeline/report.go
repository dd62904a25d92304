package pipeline

import (
	"time"

	"github.com/google/uuid"

	"github.com/ppiankov/canisense/internal/model"
)

// Report builds a report from the current analysis. A new id is generated
// when id is empty.
func (p *Pipeline) Report(id string, now time.Time) model.Report {
	if id == "" {
		id = uuid.NewString()
	}
	analysis := p.Analyze()

	var engines []model.EngineSummary
	for _, e := range p.ActiveEngines() {
		engines = append(engines, model.EngineSummary{
			ID:      e.ID(),
			Metrics: len(e.Metrics()),
		})
	}

	return model.Report{
		ID:             id,
		SessionStart:   time.UnixMilli(p.sessionStart).UTC(),
		GeneratedAt:    now.UTC(),
		Signals:        p.signals,
		Interpretation: analysis.Interpretation,
		Level:          model.LevelOf(analysis.Interpretation.Confidence),
		LatentState:    analysis.Fusion.LatentState,
		Engines:        engines,
	}
}
