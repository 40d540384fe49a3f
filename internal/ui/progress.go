package ui

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/fenilsonani/homesweep/internal/progress"
	"github.com/fenilsonani/homesweep/internal/ui/styles"
	uiutils "github.com/fenilsonani/homesweep/internal/ui/utils"
)

// LiveProgress redraws one status line on a terminal while a plan is
// applied. It consumes updates from a progress.Reporter subscription.
type LiveProgress struct {
	mu         sync.Mutex
	out        io.Writer
	home       string
	termWidth  int
	theme      *styles.Theme
	lastUpdate time.Time
	interval   time.Duration
	drawn      bool
}

// NewLiveProgress creates a live progress line writing to out
func NewLiveProgress(out io.Writer, home string) *LiveProgress {
	return &LiveProgress{
		out:       out,
		home:      home,
		termWidth: uiutils.Width(out),
		theme:     styles.Default,
		interval:  100 * time.Millisecond,
	}
}

// Follow renders updates from ch until it is closed or done is closed
func (lp *LiveProgress) Follow(ch <-chan interface{}, done <-chan struct{}) {
	for {
		select {
		case update, ok := <-ch:
			if !ok {
				return
			}
			if p, ok := update.(*progress.ApplyProgress); ok {
				lp.Update(p)
			}
		case <-done:
			return
		}
	}
}

// Update redraws the line, at most ten times per second
func (lp *LiveProgress) Update(p *progress.ApplyProgress) {
	lp.mu.Lock()
	defer lp.mu.Unlock()

	now := time.Now()
	if p.Phase == progress.PhaseApplying && now.Sub(lp.lastUpdate) < lp.interval {
		return
	}
	lp.lastUpdate = now

	width := lp.termWidth - 2
	line := progress.FormatApplyProgress(p)
	if p.CurrentPath != "" && p.Phase == progress.PhaseApplying {
		line += " " + uiutils.ShortenHome(p.CurrentPath, lp.home)
	}
	bar := lp.theme.ProgressBar(p.Processed, p.TotalItems, 20)

	fmt.Fprintf(lp.out, "\r\033[K%s %s", bar, uiutils.TruncateString(line, width-22))
	lp.drawn = true
}

// Finish moves past the status line
func (lp *LiveProgress) Finish() {
	lp.mu.Lock()
	defer lp.mu.Unlock()

	if lp.drawn {
		fmt.Fprint(lp.out, "\r\033[K")
		lp.drawn = false
	}
}
