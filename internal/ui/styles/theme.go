package styles

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Theme colors
var (
	Primary   = lipgloss.Color("#7C3AED")
	Secondary = lipgloss.Color("#A78BFA")
	Success   = lipgloss.Color("#10B981")
	Warning   = lipgloss.Color("#F59E0B")
	Danger    = lipgloss.Color("#EF4444")
	Info      = lipgloss.Color("#3B82F6")
	Muted     = lipgloss.Color("#6B7280")
	Text      = lipgloss.Color("#F3F4F6")
	TextDim   = lipgloss.Color("#9CA3AF")
)

// Theme is the set of styles bound to one renderer. Output written to a
// pipe or buffer gets a renderer without color.
type Theme struct {
	Title     lipgloss.Style
	Subtitle  lipgloss.Style
	Header    lipgloss.Style
	FilePath  lipgloss.Style
	FileSize  lipgloss.Style
	Category  lipgloss.Style
	Error     lipgloss.Style
	Success   lipgloss.Style
	Warning   lipgloss.Style
	Highlight lipgloss.Style
	Dim       lipgloss.Style
	Bold      lipgloss.Style
	Help      lipgloss.Style
}

// NewTheme builds the theme for r
func NewTheme(r *lipgloss.Renderer) *Theme {
	return &Theme{
		Title:     r.NewStyle().Bold(true).Foreground(Primary),
		Subtitle:  r.NewStyle().Foreground(Secondary),
		Header:    r.NewStyle().Bold(true).Foreground(Text),
		FilePath:  r.NewStyle().Foreground(Info),
		FileSize:  r.NewStyle().Foreground(Warning),
		Category:  r.NewStyle().Foreground(Secondary).Italic(true),
		Error:     r.NewStyle().Foreground(Danger).Bold(true),
		Success:   r.NewStyle().Foreground(Success).Bold(true),
		Warning:   r.NewStyle().Foreground(Warning).Bold(true),
		Highlight: r.NewStyle().Foreground(Text).Background(Primary).Bold(true),
		Dim:       r.NewStyle().Foreground(TextDim),
		Bold:      r.NewStyle().Bold(true),
		Help:      r.NewStyle().Foreground(Muted).Italic(true),
	}
}

// Default is the theme for the process's stdout
var Default = NewTheme(lipgloss.DefaultRenderer())

// ProgressBar renders a fixed-width bar for current out of total
func (t *Theme) ProgressBar(current, total, width int) string {
	if total <= 0 || width <= 0 {
		return ""
	}
	if current > total {
		current = total
	}

	filled := current * width / total
	bar := strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
	return t.Title.UnsetBold().Render(bar)
}
