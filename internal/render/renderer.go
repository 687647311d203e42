package render

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/architect-xyz/logterm/internal/config"
	"github.com/architect-xyz/logterm/pkg/logformat"
)

// Renderer turns display lines into terminal output
type Renderer interface {
	Render(line logformat.DisplayLine) string
}

// SpanRenderer colors each span by its semantic label
type SpanRenderer struct {
	styles map[logformat.SpanLabel]lipgloss.Style
	levels map[logformat.Level]lipgloss.Style
}

// NewSpanRenderer creates a renderer with config
func NewSpanRenderer(cfg *config.Config) *SpanRenderer {
	styles := map[logformat.SpanLabel]lipgloss.Style{
		logformat.LabelText:      lipgloss.NewStyle(),
		logformat.LabelNoise:     lipgloss.NewStyle().Foreground(lipgloss.Color(cfg.Theme.Noise)),
		logformat.LabelTimestamp: lipgloss.NewStyle().Foreground(lipgloss.Color(cfg.Theme.Timestamp)),
		logformat.LabelTarget:    lipgloss.NewStyle().Foreground(lipgloss.Color(cfg.Theme.Target)),
		logformat.LabelTextMatch: lipgloss.NewStyle().Foreground(lipgloss.Color(cfg.Theme.Match)).Bold(true),
	}

	levels := map[logformat.Level]lipgloss.Style{
		logformat.LevelTrace: lipgloss.NewStyle().Foreground(lipgloss.Color(cfg.Theme.Levels.Trace)),
		logformat.LevelDebug: lipgloss.NewStyle().Foreground(lipgloss.Color(cfg.Theme.Levels.Debug)),
		logformat.LevelInfo:  lipgloss.NewStyle().Foreground(lipgloss.Color(cfg.Theme.Levels.Info)),
		logformat.LevelWarn:  lipgloss.NewStyle().Foreground(lipgloss.Color(cfg.Theme.Levels.Warn)),
		logformat.LevelError: lipgloss.NewStyle().Foreground(lipgloss.Color(cfg.Theme.Levels.Error)),
	}

	return &SpanRenderer{styles: styles, levels: levels}
}

// Render applies per-span styling to a display line
func (r *SpanRenderer) Render(line logformat.DisplayLine) string {
	var b strings.Builder
	for _, span := range line.Spans {
		style, ok := r.styles[span.Label]
		if span.Label == logformat.LabelLevel && line.Level != nil {
			style, ok = r.levels[*line.Level]
		}
		if !ok {
			style = lipgloss.NewStyle()
		}
		b.WriteString(style.Render(span.Text))
	}
	return b.String()
}

// PlainRenderer renders without styling
type PlainRenderer struct{}

// NewPlainRenderer creates a plain renderer
func NewPlainRenderer() *PlainRenderer {
	return &PlainRenderer{}
}

// Render returns the line text as-is
func (r *PlainRenderer) Render(line logformat.DisplayLine) string {
	return line.Text()
}
