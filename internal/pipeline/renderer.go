package pipeline

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/ppiankov/canisense/internal/model"
)

// Renderer writes reports to disk and to the terminal
type Renderer struct {
	styles Styles
}

// Styles holds the lipgloss styles of the terminal summary card
type Styles struct {
	Card      lipgloss.Style
	Title     lipgloss.Style
	Label     lipgloss.Style
	Value     lipgloss.Style
	Dim       lipgloss.Style
	BarFill   lipgloss.Style
	BarEmpty  lipgloss.Style
	States    map[model.SyntheticState]lipgloss.Style
	Narrative lipgloss.Style
}

// DefaultStyles returns the default card look
func DefaultStyles() Styles {
	return Styles{
		Card: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("62")).
			Padding(0, 1),
		Title:    lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("86")),
		Label:    lipgloss.NewStyle().Foreground(lipgloss.Color("255")).Width(12),
		Value:    lipgloss.NewStyle().Bold(true),
		Dim:      lipgloss.NewStyle().Foreground(lipgloss.Color("242")),
		BarFill:  lipgloss.NewStyle().Foreground(lipgloss.Color("86")),
		BarEmpty: lipgloss.NewStyle().Foreground(lipgloss.Color("236")),
		States: map[model.SyntheticState]lipgloss.Style{
			model.StateCalm:    lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("42")),
			model.StateExcited: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("227")),
			model.StateStress:  lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("202")),
			model.StateMixed:   lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212")),
		},
		Narrative: lipgloss.NewStyle().Italic(true).Foreground(lipgloss.Color("250")),
	}
}

// NewRenderer creates a renderer with the default styles
func NewRenderer() *Renderer {
	return &Renderer{styles: DefaultStyles()}
}

// RenderJSON writes the report as indented JSON
func (r *Renderer) RenderJSON(report model.Report, path string) error {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}
	return writeFile(path, append(data, '\n'))
}

// RenderMarkdown writes the report as Markdown
func (r *Renderer) RenderMarkdown(report model.Report, path string) error {
	return writeFile(path, []byte(Markdown(report)))
}

// Markdown formats the report as a Markdown document
func Markdown(report model.Report) string {
	var b strings.Builder
	in := report.Interpretation

	fmt.Fprintf(&b, "# Analyse comportementale\n\n")
	fmt.Fprintf(&b, "- **ID:** `%s`\n", report.ID)
	fmt.Fprintf(&b, "- **Session:** %s\n", report.SessionStart.Format("2006-01-02 15:04:05 MST"))
	fmt.Fprintf(&b, "- **Généré:** %s\n", report.GeneratedAt.Format("2006-01-02 15:04:05 MST"))
	fmt.Fprintf(&b, "- **Signaux:** %d\n\n", report.Signals)

	fmt.Fprintf(&b, "## État: %s\n\n", in.SyntheticState)
	fmt.Fprintf(&b, "%s\n\n", in.Explanation)
	fmt.Fprintf(&b, "**Confiance:** %.0f%% (%s)\n\n", in.Confidence*100, report.Level)

	fmt.Fprintf(&b, "## État latent\n\n")
	fmt.Fprintf(&b, "| Dimension | Valeur |\n|---|---|\n")
	fmt.Fprintf(&b, "| Activation | %.2f |\n", report.LatentState.Activation)
	fmt.Fprintf(&b, "| Tension | %.2f |\n", report.LatentState.Tension)
	fmt.Fprintf(&b, "| Vigilance | %.2f |\n", report.LatentState.Vigilance)
	fmt.Fprintf(&b, "| Fatigue | %.2f |\n\n", report.LatentState.Fatigue)

	if len(in.Metrics) > 0 {
		fmt.Fprintf(&b, "## Signaux dominants\n\n")
		fmt.Fprintf(&b, "| Métrique | Valeur | Fiabilité |\n|---|---|---|\n")
		for _, m := range in.Metrics {
			fmt.Fprintf(&b, "| %s | %.2f | %.2f |\n", m.Name, m.Value, m.Reliability)
		}
		b.WriteString("\n")
	}

	if len(report.Engines) > 0 {
		fmt.Fprintf(&b, "## Moteurs actifs\n\n")
		for _, e := range report.Engines {
			fmt.Fprintf(&b, "- `%s`: %d métriques\n", e.ID, e.Metrics)
		}
		b.WriteString("\n")
	}

	if n := report.Narrative; n != nil && n.Enabled && n.Text != "" {
		fmt.Fprintf(&b, "## Récit (%s/%s)\n\n", n.Provider, n.Model)
		fmt.Fprintf(&b, "%s\n\n", n.Text)
		fmt.Fprintf(&b, "_Le récit reformule l'explication et ne modifie pas l'état._\n")
	}

	return b.String()
}

// RenderSummary prints a compact card to w
func (r *Renderer) RenderSummary(w io.Writer, report model.Report) {
	fmt.Fprintln(w, r.Summary(report))
}

// Summary formats the terminal card
func (r *Renderer) Summary(report model.Report) string {
	s := r.styles
	in := report.Interpretation

	stateStyle, ok := s.States[in.SyntheticState]
	if !ok {
		stateStyle = s.Value
	}

	lines := []string{
		s.Title.Render("Canisense") + " " + s.Dim.Render(report.ID),
		"",
		s.Label.Render("État") + stateStyle.Render(string(in.SyntheticState)),
		s.Label.Render("Confiance") + s.Value.Render(fmt.Sprintf("%.0f%%", in.Confidence*100)) +
			" " + s.Dim.Render(string(report.Level)),
		s.Label.Render("Signaux") + s.Value.Render(fmt.Sprintf("%d", report.Signals)),
		"",
		s.Label.Render("Activation") + r.bar(report.LatentState.Activation),
		s.Label.Render("Tension") + r.bar(report.LatentState.Tension),
		s.Label.Render("Vigilance") + r.bar(report.LatentState.Vigilance),
		s.Label.Render("Fatigue") + r.bar(report.LatentState.Fatigue),
		"",
		lipgloss.NewStyle().Width(48).Render(in.Explanation),
	}

	if n := report.Narrative; n != nil && n.Enabled && n.Text != "" {
		lines = append(lines, "", s.Narrative.Width(48).Render(n.Text))
	}

	return s.Card.Render(strings.Join(lines, "\n"))
}

const barWidth = 20

func (r *Renderer) bar(v float64) string {
	filled := int(clamp01(v)*barWidth + 0.5)
	return r.styles.BarFill.Render(strings.Repeat("█", filled)) +
		r.styles.BarEmpty.Render(strings.Repeat("░", barWidth-filled)) +
		r.styles.Dim.Render(fmt.Sprintf(" %.2f", v))
}

func clamp01(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}

func writeFile(path string, data []byte) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output dir: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
