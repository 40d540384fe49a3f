package models

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/fenilsonani/homesweep/internal/cleaner"
	"github.com/fenilsonani/homesweep/internal/ui/styles"
	"github.com/fenilsonani/homesweep/pkg/utils"
)

// RiskLevel represents the risk level of an apply
type RiskLevel int

const (
	RiskLow RiskLevel = iota
	RiskMedium
	RiskHigh
)

// ConfirmViewModel asks before a plan is applied for real. It is shown the
// dry-run preview of the same plan.
type ConfirmViewModel struct {
	preview   *cleaner.ApplyResult
	mode      cleaner.Mode
	theme     *styles.Theme
	cursor    int // 0 = Yes, 1 = Cancel
	riskLevel RiskLevel
	decided   bool
	confirmed bool
}

// NewConfirmViewModel creates a confirmation for applying preview's plan in mode
func NewConfirmViewModel(preview *cleaner.ApplyResult, mode cleaner.Mode) *ConfirmViewModel {
	risk := CalculateRiskLevel(preview, mode)

	cursor := 0
	if risk == RiskHigh {
		cursor = 1
	}

	return &ConfirmViewModel{
		preview:   preview,
		mode:      mode,
		theme:     styles.Default,
		cursor:    cursor,
		riskLevel: risk,
	}
}

// CalculateRiskLevel grades an apply by mode, size and categories
func CalculateRiskLevel(preview *cleaner.ApplyResult, mode cleaner.Mode) RiskLevel {
	count := preview.Summary.Count
	categories := make(map[string]bool)
	for _, d := range preview.Details {
		if d.Status.Counted() {
			categories[d.Category] = true
		}
	}

	if mode == cleaner.ModeDelete {
		// Permanent removal of a large or hard-to-rebuild set
		if count > 500 || categories["downloads"] || categories["deep"] {
			return RiskHigh
		}
		return RiskMedium
	}

	if count >= 500 || categories["downloads"] || categories["deep"] {
		return RiskMedium
	}
	return RiskLow
}

// Init initializes the confirm view
func (m *ConfirmViewModel) Init() tea.Cmd {
	return nil
}

// Update handles messages
func (m *ConfirmViewModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	switch key.String() {
	case "left", "h", "right", "l", "tab":
		m.cursor = 1 - m.cursor
	case "enter":
		return m.decide(m.cursor == 0)
	case "y", "Y":
		return m.decide(true)
	case "n", "N", "q", "esc", "ctrl+c":
		return m.decide(false)
	}

	return m, nil
}

func (m *ConfirmViewModel) decide(yes bool) (tea.Model, tea.Cmd) {
	m.decided = true
	m.confirmed = yes
	return m, tea.Quit
}

// Confirmed reports whether the user chose to proceed
func (m *ConfirmViewModel) Confirmed() bool {
	return m.decided && m.confirmed
}

// View renders the confirmation view
func (m *ConfirmViewModel) View() string {
	if m.decided {
		return ""
	}

	var b strings.Builder

	verb := "move to trash"
	if m.mode == cleaner.ModeDelete {
		verb = "permanently delete"
	}

	b.WriteString(m.theme.Title.Render("Confirm " + string(m.mode)))
	b.WriteString("\n\n")
	b.WriteString(m.theme.Bold.Render(fmt.Sprintf("You are about to %s %d items (%s)",
		verb, m.preview.Summary.Count, utils.FormatBytes(m.preview.Summary.Bytes))))
	b.WriteString("\n")

	skipped := len(m.preview.Details) - m.preview.Summary.Count
	if skipped > 0 {
		b.WriteString(m.theme.Dim.Render(fmt.Sprintf("%d plan entries will be skipped", skipped)))
		b.WriteString("\n")
	}
	b.WriteString("\n")

	riskText, riskStyle := m.riskDisplay()
	b.WriteString("Risk level: ")
	b.WriteString(riskStyle.Render(riskText))
	b.WriteString("\n")

	if m.mode == cleaner.ModeDelete {
		b.WriteString("\n")
		b.WriteString(m.theme.Warning.Render("This action cannot be undone!"))
		b.WriteString("\n")
	}
	b.WriteString("\n")

	yesBtn, cancelBtn := "[ Yes ]", "[ Cancel ]"
	if m.cursor == 0 {
		yesBtn = m.theme.Highlight.Render(yesBtn)
	} else {
		cancelBtn = m.theme.Highlight.Render(cancelBtn)
	}
	b.WriteString(yesBtn + "  " + cancelBtn)
	b.WriteString("\n\n")
	b.WriteString(m.theme.Help.Render("y:confirm  n:cancel  ←/→:navigate"))

	return b.String()
}

func (m *ConfirmViewModel) riskDisplay() (string, lipgloss.Style) {
	switch m.riskLevel {
	case RiskHigh:
		return "HIGH (permanent removal of downloads, app data or many files)", m.theme.Error
	case RiskMedium:
		return "MEDIUM", m.theme.Warning
	default:
		return "LOW (cache files, reversible)", m.theme.Success
	}
}
