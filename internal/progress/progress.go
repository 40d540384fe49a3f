package progress

import (
	"fmt"
	"sync"
	"time"

	"github.com/fenilsonani/homesweep/pkg/utils"
)

// Phase represents the current phase of operation
type Phase string

const (
	PhaseScanning Phase = "scanning"
	PhaseApplying Phase = "applying"
	PhaseComplete Phase = "complete"
	PhaseError    Phase = "error"
)

// ScanProgress represents progress during scanning
type ScanProgress struct {
	Phase           Phase
	Category        string
	CurrentPath     string
	FilesFound      int
	TotalSize       int64
	CategoriesTotal int
	CategoriesDone  int
	StartTime       time.Time
	Error           error
}

// ApplyProgress represents progress while a plan is applied
type ApplyProgress struct {
	Phase       Phase
	CurrentPath string
	Processed   int
	TotalItems  int
	Reclaimed   int64
	Failed      int
	DryRun      bool
	StartTime   time.Time
	Error       error
}

// Reporter provides thread-safe progress reporting. A nil *Reporter is valid
// and drops every update.
type Reporter struct {
	scanProgress  *ScanProgress
	applyProgress *ApplyProgress
	mu            sync.RWMutex
	listeners     []chan interface{}
}

// NewReporter creates a new progress reporter
func NewReporter() *Reporter {
	return &Reporter{
		listeners: make([]chan interface{}, 0),
	}
}

// Subscribe returns a channel that receives progress updates
func (pr *Reporter) Subscribe() <-chan interface{} {
	pr.mu.Lock()
	defer pr.mu.Unlock()

	ch := make(chan interface{}, 10)
	pr.listeners = append(pr.listeners, ch)
	return ch
}

// Unsubscribe closes and removes a listener channel
func (pr *Reporter) Unsubscribe(ch <-chan interface{}) {
	pr.mu.Lock()
	defer pr.mu.Unlock()

	for i, listener := range pr.listeners {
		if listener == ch {
			close(listener)
			pr.listeners = append(pr.listeners[:i], pr.listeners[i+1:]...)
			return
		}
	}
}

// UpdateScanProgress updates scan progress and notifies listeners
func (pr *Reporter) UpdateScanProgress(update *ScanProgress) {
	if pr == nil {
		return
	}
	pr.mu.Lock()
	pr.scanProgress = update
	pr.mu.Unlock()
	pr.notify(update)
}

// UpdateApplyProgress updates apply progress and notifies listeners
func (pr *Reporter) UpdateApplyProgress(update *ApplyProgress) {
	if pr == nil {
		return
	}
	pr.mu.Lock()
	pr.applyProgress = update
	pr.mu.Unlock()
	pr.notify(update)
}

// notify delivers without blocking; slow listeners miss intermediate updates
func (pr *Reporter) notify(update interface{}) {
	pr.mu.RLock()
	defer pr.mu.RUnlock()

	for _, listener := range pr.listeners {
		select {
		case listener <- update:
		default:
		}
	}
}

// GetScanProgress returns the current scan progress
func (pr *Reporter) GetScanProgress() *ScanProgress {
	pr.mu.RLock()
	defer pr.mu.RUnlock()
	return pr.scanProgress
}

// GetApplyProgress returns the current apply progress
func (pr *Reporter) GetApplyProgress() *ApplyProgress {
	pr.mu.RLock()
	defer pr.mu.RUnlock()
	return pr.applyProgress
}

// FormatScanProgress returns a human-readable scan progress string
func FormatScanProgress(p *ScanProgress) string {
	if p == nil {
		return "Initializing..."
	}

	elapsed := time.Since(p.StartTime)

	switch p.Phase {
	case PhaseScanning:
		return fmt.Sprintf("Scanning %s (%d/%d)... Found %d files (%s) [%s]",
			p.Category,
			p.CategoriesDone,
			p.CategoriesTotal,
			p.FilesFound,
			utils.FormatBytes(p.TotalSize),
			FormatDuration(elapsed))
	case PhaseComplete:
		return fmt.Sprintf("Scan complete: %d files (%s) in %s",
			p.FilesFound,
			utils.FormatBytes(p.TotalSize),
			FormatDuration(elapsed))
	case PhaseError:
		return fmt.Sprintf("Scan error: %v", p.Error)
	default:
		return "Scanning..."
	}
}

// FormatApplyProgress returns a human-readable apply progress string
func FormatApplyProgress(p *ApplyProgress) string {
	if p == nil {
		return "Preparing..."
	}

	elapsed := time.Since(p.StartTime)
	verb := "Removing"
	if p.DryRun {
		verb = "Previewing"
	}

	switch p.Phase {
	case PhaseApplying:
		percentage := 0
		if p.TotalItems > 0 {
			percentage = (p.Processed * 100) / p.TotalItems
		}
		return fmt.Sprintf("%s... %d/%d items (%d%%) - %s reclaimed",
			verb,
			p.Processed,
			p.TotalItems,
			percentage,
			utils.FormatBytes(p.Reclaimed))
	case PhaseComplete:
		return fmt.Sprintf("Apply complete: %d items (%s) in %s, %d failed",
			p.Processed,
			utils.FormatBytes(p.Reclaimed),
			FormatDuration(elapsed),
			p.Failed)
	case PhaseError:
		return fmt.Sprintf("Apply error: %v", p.Error)
	default:
		return "Preparing..."
	}
}

// FormatDuration formats duration in human-readable format
func FormatDuration(d time.Duration) string {
	d = d.Round(time.Second)

	h := d / time.Hour
	d -= h * time.Hour
	m := d / time.Minute
	d -= m * time.Minute
	s := d / time.Second

	if h > 0 {
		return fmt.Sprintf("%dh%dm%ds", h, m, s)
	}
	if m > 0 {
		return fmt.Sprintf("%dm%ds", m, s)
	}
	return fmt.Sprintf("%ds", s)
}
