package models

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/fenilsonani/homesweep/internal/engine"
	"github.com/fenilsonani/homesweep/internal/progress"
	"github.com/fenilsonani/homesweep/internal/ui/styles"
	uiutils "github.com/fenilsonani/homesweep/internal/ui/utils"
	"github.com/fenilsonani/homesweep/pkg/utils"
)

// ScanFunc runs one scan
type ScanFunc func(ctx context.Context) (*engine.ScanResult, error)

// ScanProgressMsg carries a progress snapshot into the model
type ScanProgressMsg struct {
	Progress *progress.ScanProgress
}

// ScanCompleteMsg is sent when the scan returns
type ScanCompleteMsg struct {
	Result *engine.ScanResult
	Err    error
}

// ScanViewModel shows a spinner and running totals while a scan runs
type ScanViewModel struct {
	ctx        context.Context
	cancel     context.CancelFunc
	run        ScanFunc
	updates    <-chan interface{}
	theme      *styles.Theme
	home       string
	categories []string
	spinner    spinner.Model
	startTime  time.Time
	current    *progress.ScanProgress
	width      int

	done   bool
	result *engine.ScanResult
	err    error
}

// NewScanViewModel creates the model. updates may be nil when no progress
// reporter is attached.
func NewScanViewModel(ctx context.Context, run ScanFunc, updates <-chan interface{}, home string, categories []string) *ScanViewModel {
	ctx, cancel := context.WithCancel(ctx)

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = styles.Default.Title

	return &ScanViewModel{
		ctx:        ctx,
		cancel:     cancel,
		run:        run,
		updates:    updates,
		theme:      styles.Default,
		home:       home,
		categories: categories,
		spinner:    s,
		startTime:  time.Now(),
		width:      uiutils.DefaultWidth,
	}
}

// Init starts the spinner, the scan and the progress listener
func (m *ScanViewModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.performScan, m.waitForProgress)
}

// Update handles messages
func (m *ScanViewModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q", "esc":
			m.cancel()
		}
		return m, nil

	case spinner.TickMsg:
		if m.done {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case ScanProgressMsg:
		if msg.Progress != nil {
			m.current = msg.Progress
		}
		return m, m.waitForProgress

	case ScanCompleteMsg:
		m.done = true
		m.result = msg.Result
		m.err = msg.Err
		m.cancel()
		return m, tea.Quit
	}

	return m, nil
}

// View renders the scan view
func (m *ScanViewModel) View() string {
	var b strings.Builder

	b.WriteString(m.theme.Title.Render("Scanning " + strings.Join(m.categories, ", ")))
	b.WriteString("\n\n")

	if m.done {
		switch {
		case m.err != nil:
			b.WriteString(m.theme.Error.Render("Scan failed: " + m.err.Error()))
		case m.result != nil:
			b.WriteString(m.theme.Success.Render("Scan complete"))
			b.WriteString(fmt.Sprintf(": %d files, %s\n",
				m.result.Report.Totals.Count, utils.FormatBytes(m.result.Report.Totals.Bytes)))
		}
		b.WriteString("\n")
		return b.String()
	}

	b.WriteString(m.spinner.View())
	b.WriteString(" ")
	b.WriteString(m.theme.Dim.Render(fmt.Sprintf("(%s)", time.Since(m.startTime).Round(time.Second))))
	b.WriteString("\n\n")

	if p := m.current; p != nil {
		if p.Category != "" {
			b.WriteString(fmt.Sprintf("Category: %s  [%d/%d]\n",
				m.theme.Category.Render(p.Category), p.CategoriesDone, p.CategoriesTotal))
			b.WriteString(m.theme.ProgressBar(p.CategoriesDone, p.CategoriesTotal, 30))
			b.WriteString("\n")
		}
		if p.CurrentPath != "" {
			path := uiutils.ShortenHome(p.CurrentPath, m.home)
			b.WriteString(m.theme.Dim.Render("Current: "))
			b.WriteString(m.theme.FilePath.Render(uiutils.TruncatePath(path, m.width-12)))
			b.WriteString("\n")
		}
		b.WriteString(m.theme.Bold.Render(fmt.Sprintf("Found: %d files, %s",
			p.FilesFound, utils.FormatBytes(p.TotalSize))))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(m.theme.Help.Render("Press q or ctrl+c to cancel"))
	return b.String()
}

// Result returns the scan outcome once the program has exited
func (m *ScanViewModel) Result() (*engine.ScanResult, error) {
	if !m.done {
		return nil, context.Canceled
	}
	return m.result, m.err
}

func (m *ScanViewModel) performScan() tea.Msg {
	res, err := m.run(m.ctx)
	return ScanCompleteMsg{Result: res, Err: err}
}

func (m *ScanViewModel) waitForProgress() tea.Msg {
	if m.updates == nil {
		return nil
	}
	select {
	case update, ok := <-m.updates:
		if !ok {
			return nil
		}
		p, _ := update.(*progress.ScanProgress)
		return ScanProgressMsg{Progress: p}
	case <-m.ctx.Done():
		return nil
	}
}
