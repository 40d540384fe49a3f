// Package scanner walks category roots under the safety policy and collects
// reclaimable files.
package scanner

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/fenilsonani/homesweep/internal/category"
	"github.com/fenilsonani/homesweep/internal/logger"
	"github.com/fenilsonani/homesweep/internal/progress"
	"github.com/fenilsonani/homesweep/internal/report"
	"github.com/fenilsonani/homesweep/internal/security"
)

// progressEvery is how many examined files pass between progress updates
const progressEvery = 256

// Collector walks category roots and emits report items
type Collector struct {
	registry         *category.Registry
	policy           *security.Policy
	progressReporter *progress.Reporter
	log              *logger.Logger
	now              func() time.Time
}

// Option configures a Collector
type Option func(*Collector)

// WithProgress publishes scan progress to pr
func WithProgress(pr *progress.Reporter) Option {
	return func(c *Collector) { c.progressReporter = pr }
}

// WithLogger sets the collector's logger
func WithLogger(l *logger.Logger) Option {
	return func(c *Collector) { c.log = l }
}

// WithClock overrides the time source used for file ages
func WithClock(now func() time.Time) Option {
	return func(c *Collector) { c.now = now }
}

// New creates a Collector
func New(registry *category.Registry, policy *security.Policy, opts ...Option) *Collector {
	c := &Collector{
		registry: registry,
		policy:   policy,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SetProgressReporter sets a custom progress reporter
func (c *Collector) SetProgressReporter(pr *progress.Reporter) {
	c.progressReporter = pr
}

// scanState is shared by every root of one scan
type scanState struct {
	filters     Filters
	now         time.Time
	emitted     map[string]bool
	visitedDirs map[string]bool
	items       []report.Item
	totalBytes  int64
	stats       Stats
	start       time.Time
	catTotal    int
	catDone     int
}

// Scan walks every root of every category in order. Per-entry I/O errors are
// counted and skipped. On cancellation the items collected so far are
// returned together with ctx.Err().
func (c *Collector) Scan(ctx context.Context, categories []category.Category, filters Filters) ([]report.Item, Stats, error) {
	st := &scanState{
		filters:     filters,
		now:         c.now(),
		emitted:     make(map[string]bool),
		visitedDirs: make(map[string]bool),
		items:       []report.Item{},
		start:       time.Now(),
		catTotal:    len(categories),
	}
	home := c.registry.Home()

	for _, cat := range categories {
		if err := ctx.Err(); err != nil {
			return c.finish(st, err)
		}
		c.reportProgress(st, progress.PhaseScanning, string(cat), "")

		for _, root := range c.registry.Resolve(ctx, cat) {
			if err := c.walkRoot(ctx, st, home, cat, root); err != nil {
				return c.finish(st, err)
			}
		}

		st.catDone++
		c.reportProgress(st, progress.PhaseScanning, string(cat), "")
	}

	return c.finish(st, nil)
}

func (c *Collector) finish(st *scanState, err error) ([]report.Item, Stats, error) {
	st.stats.Duration = time.Since(st.start)
	if err != nil {
		c.progressReporter.UpdateScanProgress(&progress.ScanProgress{
			Phase:     progress.PhaseError,
			StartTime: st.start,
			Error:     err,
		})
		return st.items, st.stats, err
	}
	c.reportProgress(st, progress.PhaseComplete, "", "")
	c.log.Debug("scan finished: %d items, %d files examined, %d errors in %s",
		len(st.items), st.stats.Files, st.stats.Errors, st.stats.Duration)
	return st.items, st.stats, nil
}

// walkRoot traverses one root depth first with an explicit stack. The root
// gets the full policy evaluation; below it only deny-listing is rechecked,
// since every directory pushed is already in scope and not a symlink.
func (c *Collector) walkRoot(ctx context.Context, st *scanState, home string, cat category.Category, root category.Root) error {
	info, err := os.Lstat(root.Path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			st.stats.Errors++
			c.log.Debug("cannot stat root %s: %v", root.Path, err)
		}
		return nil
	}
	if info.Mode()&os.ModeSymlink != 0 || !c.policy.Evaluate(root.Path, home).Allowed() {
		st.stats.Skipped++
		return nil
	}
	st.stats.Roots++

	if !info.IsDir() {
		c.consider(st, cat, root, root.Path, info)
		return nil
	}

	stack := []string{root.Path}
	for len(stack) > 0 {
		if err := ctx.Err(); err != nil {
			return err
		}

		dir := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if st.visitedDirs[dir] {
			continue
		}
		st.visitedDirs[dir] = true
		st.stats.Dirs++

		// ReadDir returns entries sorted by name
		entries, err := os.ReadDir(dir)
		if err != nil {
			st.stats.Errors++
			c.log.Debug("cannot read %s: %v", dir, err)
			continue
		}

		var subdirs []string
		for _, entry := range entries {
			if err := ctx.Err(); err != nil {
				return err
			}

			path := filepath.Join(dir, entry.Name())
			if entry.Type()&os.ModeSymlink != 0 || c.policy.IsDenyListed(path, home) {
				st.stats.Skipped++
				continue
			}
			if entry.IsDir() {
				subdirs = append(subdirs, path)
				continue
			}

			info, err := entry.Info()
			if err != nil {
				// Vanished or unreadable since the directory was listed
				st.stats.Errors++
				continue
			}
			c.consider(st, cat, root, path, info)
		}

		slices.Reverse(subdirs)
		stack = append(stack, subdirs...)
	}

	return nil
}

// consider filter-tests one entry and records it when it matches
func (c *Collector) consider(st *scanState, cat category.Category, root category.Root, path string, info os.FileInfo) {
	if !info.Mode().IsRegular() {
		st.stats.Skipped++
		return
	}
	st.stats.Files++
	if st.stats.Files%progressEvery == 0 {
		c.reportProgress(st, progress.PhaseScanning, string(cat), path)
	}

	if !st.filters.Match(info.Size(), st.now.Sub(info.ModTime())) {
		return
	}
	if st.emitted[path] {
		return
	}
	st.emitted[path] = true
	st.stats.Matched++
	st.totalBytes += info.Size()

	st.items = append(st.items, report.Item{
		Path:      path,
		Bytes:     info.Size(),
		MTime:     info.ModTime().Unix(),
		Category:  string(cat),
		Reason:    root.Reason,
		Trashable: true,
	})
}

func (c *Collector) reportProgress(st *scanState, phase progress.Phase, cat, currentPath string) {
	if c.progressReporter == nil {
		return
	}

	c.progressReporter.UpdateScanProgress(&progress.ScanProgress{
		Phase:           phase,
		Category:        cat,
		CurrentPath:     currentPath,
		FilesFound:      len(st.items),
		TotalSize:       st.totalBytes,
		CategoriesTotal: st.catTotal,
		CategoriesDone:  st.catDone,
		StartTime:       st.start,
	})
}
