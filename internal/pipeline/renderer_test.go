package pipeline

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/ppiankov/canisense/internal/model"
)

func sampleReport() model.Report {
	return model.Report{
		ID:           "r-1",
		SessionStart: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		GeneratedAt:  time.Date(2026, 3, 1, 12, 0, 30, 0, time.UTC),
		Signals:      150,
		Interpretation: model.UserInterpretation{
			SyntheticState: model.StateStress,
			Confidence:     0.82,
			Explanation:    "Signes de tension élevés, possible stress. Grognements détectés.",
			Metrics: []model.Metric{
				{Name: model.MetricGrowling, Value: 0.9, Reliability: 0.8},
			},
		},
		Level:       model.ConfidenceHigh,
		LatentState: model.LatentState{Activation: 0.4, Tension: 0.85, Vigilance: 0.5, Fatigue: 0.2},
		Engines:     []model.EngineSummary{{ID: model.EngineVocalSignature, Metrics: 600}},
	}
}

func TestRenderJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "report.json")
	r := NewRenderer()

	if err := r.RenderJSON(sampleReport(), path); err != nil {
		t.Fatalf("RenderJSON failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var got model.Report
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if got.Interpretation.SyntheticState != model.StateStress {
		t.Errorf("state = %s, want %s", got.Interpretation.SyntheticState, model.StateStress)
	}
	if got.Narrative != nil {
		t.Error("narrative should be omitted when absent")
	}
}

func TestMarkdown(t *testing.T) {
	report := sampleReport()
	md := Markdown(report)

	for _, want := range []string{
		"## État: Stressé",
		"Grognements détectés.",
		"**Confiance:** 82% (Élevé)",
		"| Tension | 0.85 |",
		"| growling | 0.90 | 0.80 |",
		"`vocalSignature`: 600",
	} {
		if !strings.Contains(md, want) {
			t.Errorf("markdown missing %q", want)
		}
	}
	if strings.Contains(md, "Récit") {
		t.Error("narrative section rendered without a narrative")
	}

	report.Narrative = &model.Narrative{Enabled: true, Provider: "openai", Model: "gpt-4o-mini", Text: "Votre chien semble tendu."}
	md = Markdown(report)
	if !strings.Contains(md, "## Récit (openai/gpt-4o-mini)") || !strings.Contains(md, "Votre chien semble tendu.") {
		t.Error("narrative section missing")
	}
}

func TestRenderSummary(t *testing.T) {
	var buf bytes.Buffer
	NewRenderer().RenderSummary(&buf, sampleReport())

	out := buf.String()
	for _, want := range []string{"Canisense", "Stressé", "82%", "Élevé", "Activation", "Fatigue"} {
		if !strings.Contains(out, want) {
			t.Errorf("summary missing %q", want)
		}
	}
}

func TestBarClamps(t *testing.T) {
	r := NewRenderer()
	// Must not panic on out-of-range values
	_ = r.bar(-1)
	_ = r.bar(3)
}
