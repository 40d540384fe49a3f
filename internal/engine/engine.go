// Package engine ties the scan, report and apply components together behind
// one gate and owns the scan cache.
package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/fenilsonani/homesweep/internal/cache"
	"github.com/fenilsonani/homesweep/internal/category"
	"github.com/fenilsonani/homesweep/internal/cleaner"
	"github.com/fenilsonani/homesweep/internal/config"
	"github.com/fenilsonani/homesweep/internal/logger"
	"github.com/fenilsonani/homesweep/internal/platform"
	"github.com/fenilsonani/homesweep/internal/progress"
	"github.com/fenilsonani/homesweep/internal/report"
	"github.com/fenilsonani/homesweep/internal/scanner"
	"github.com/fenilsonani/homesweep/internal/security"
	"github.com/fenilsonani/homesweep/internal/trash"
)

// ErrInvalidRequest marks caller errors: bad categories, filters or plans
var ErrInvalidRequest = errors.New("invalid request")

// ScanRequest selects what to scan
type ScanRequest struct {
	Include []string // Category names or "all"
	Exclude []string
	Filters scanner.Filters
	Fresh   bool // Bypass the cache for this call
}

// ScanResult is a report plus how it was obtained
type ScanResult struct {
	Report *report.Report
	Stats  scanner.Stats // Zero on a cache hit
	Cached bool
}

// Status describes the engine's environment
type Status struct {
	Home          string              `json:"home"`
	Platform      string              `json:"platform"`
	TrashDir      string              `json:"trashDir"`
	Categories    []string            `json:"categories"`
	CacheEntries  int                 `json:"cacheEntries"`
	CacheTTL      string              `json:"cacheTtl"`
	TrashedItems  int                 `json:"trashedItems"`
	Disk          *platform.DiskUsage `json:"disk,omitempty"`
	DiskError     string              `json:"diskError,omitempty"`
	DefaultFilter scanner.Filters     `json:"defaultFilters"`
}

// Engine is the entry point for scans and applies. Scan walks and applies
// are serialized behind one gate; cached reports are served without it.
type Engine struct {
	gate sync.Mutex

	info      *platform.Info
	home      string
	trashDir  string
	defaults  scanner.Filters
	policy    *security.Policy
	registry  *category.Registry
	collector *scanner.Collector
	mover     *trash.Mover
	executor  *cleaner.Executor
	cache     *cache.ScanCache
	progress  *progress.Reporter
	log       *logger.Logger
}

// Option customizes an Engine
type Option func(*options)

type options struct {
	toolRunner category.ToolRunner
	progress   *progress.Reporter
	log        *logger.Logger
	info       *platform.Info
}

// WithToolRunner replaces how external tools are queried for cache roots
func WithToolRunner(run category.ToolRunner) Option {
	return func(o *options) { o.toolRunner = run }
}

// WithProgress attaches a progress reporter to scans and applies
func WithProgress(pr *progress.Reporter) Option {
	return func(o *options) { o.progress = pr }
}

// WithLogger sets the logger
func WithLogger(l *logger.Logger) Option {
	return func(o *options) { o.log = l }
}

// WithPlatformInfo overrides the detected platform layout
func WithPlatformInfo(info *platform.Info) Option {
	return func(o *options) { o.info = info }
}

// New builds an Engine from configuration
func New(cfg *config.Config, opts ...Option) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	o := &options{}
	for _, opt := range opts {
		opt(o)
	}

	info := o.info
	if info == nil {
		home, err := cfg.ResolveHome()
		if err != nil {
			return nil, err
		}
		detected, err := platform.GetInfo()
		if err != nil {
			return nil, fmt.Errorf("failed to detect platform: %w", err)
		}
		info, err = platform.InfoFor(detected.OS, home, detected.Username)
		if err != nil {
			return nil, err
		}
	}

	policy, err := security.NewPolicy(cfg.ExtraDenyPaths...)
	if err != nil {
		return nil, err
	}

	regOpts := []category.Option{category.WithToolTimeout(cfg.ToolTimeout())}
	if o.toolRunner != nil {
		regOpts = append(regOpts, category.WithToolRunner(o.toolRunner))
	}
	registry := category.NewRegistry(info, regOpts...)

	collector := scanner.New(registry, policy, scanner.WithLogger(o.log), scanner.WithProgress(o.progress))
	mover := trash.NewMover(o.log)
	executor := cleaner.NewExecutor(info.HomeDir, policy, mover, o.log)
	executor.SetProgressReporter(o.progress)

	e := &Engine{
		info:      info,
		home:      info.HomeDir,
		trashDir:  cfg.ResolveTrashDir(info),
		defaults:  scanner.Filters{MinSizeBytes: cfg.MinSizeBytes(), MinAgeDays: cfg.MinAgeDays},
		policy:    policy,
		registry:  registry,
		collector: collector,
		mover:     mover,
		executor:  executor,
		cache:     cache.New(cfg.CacheTTLDuration()),
		progress:  o.progress,
		log:       o.log,
	}

	e.log.Debug("engine ready: home=%s trash=%s ttl=%s", e.home, e.trashDir, e.cache.TTL())
	return e, nil
}

// Home returns the home directory the engine is scoped to
func (e *Engine) Home() string {
	return e.home
}

// TrashDir returns the holding area used by trash mode
func (e *Engine) TrashDir() string {
	return e.trashDir
}

// DefaultFilters returns the filters from configuration
func (e *Engine) DefaultFilters() scanner.Filters {
	return e.defaults
}

// Progress returns the attached progress reporter, if any
func (e *Engine) Progress() *progress.Reporter {
	return e.progress
}

// Scan returns a report for the selected categories, from the cache when an
// identical scan finished within the TTL.
func (e *Engine) Scan(ctx context.Context, req ScanRequest) (*ScanResult, error) {
	selection, err := category.ParseSelection(req.Include, req.Exclude)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	}
	if req.Filters.MinSizeBytes < 0 || req.Filters.MinAgeDays < 0 {
		return nil, fmt.Errorf("%w: filters must be >= 0", ErrInvalidRequest)
	}

	names := category.Strings(selection)
	key := cache.Key{
		Home:         e.home,
		Categories:   names,
		MinSizeBytes: req.Filters.MinSizeBytes,
		MinAgeDays:   req.Filters.MinAgeDays,
	}

	var stats scanner.Stats
	scan := func(ctx context.Context) (*report.Report, error) {
		e.gate.Lock()
		defer e.gate.Unlock()

		items, st, err := e.collector.Scan(ctx, selection, req.Filters)
		stats = st
		if err != nil {
			return nil, err
		}
		return report.Build(e.home, names, items), nil
	}

	if req.Fresh {
		gen := e.cache.Generation()
		r, err := scan(ctx)
		if err != nil {
			return nil, err
		}
		e.cache.PutIfGeneration(key, r, gen)
		return &ScanResult{Report: r, Stats: stats}, nil
	}

	r, hit, err := e.cache.Do(ctx, key, scan)
	if err != nil {
		return nil, err
	}
	if hit {
		e.log.Debug("scan served from cache: %v", names)
	}
	return &ScanResult{Report: r, Stats: stats, Cached: hit}, nil
}

// Apply runs a plan. Every completed call invalidates the scan cache.
func (e *Engine) Apply(plan *cleaner.Plan, opts cleaner.Options) (*cleaner.ApplyResult, error) {
	if opts.TrashDir == "" {
		opts.TrashDir = e.trashDir
	}

	e.gate.Lock()
	defer e.gate.Unlock()

	result, err := e.executor.Apply(plan, opts)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	}
	e.cache.InvalidateAll()

	counts := result.StatusCounts()
	e.log.Info("apply %s: mode=%s dryRun=%t counted=%d bytes=%d errors=%d",
		result.ID, result.Summary.Mode, result.Summary.DryRun,
		result.Summary.Count, result.Summary.Bytes, counts[cleaner.StatusError])
	return result, nil
}

// ApplyData parses a plan body and applies it
func (e *Engine) ApplyData(data []byte, contentType string, opts cleaner.Options) (*cleaner.ApplyResult, error) {
	plan, err := cleaner.ParsePlan(data, contentType)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	}
	return e.Apply(plan, opts)
}

// Restore moves a trashed entry back to where it came from
func (e *Engine) Restore(id string) (*trash.Record, error) {
	e.gate.Lock()
	defer e.gate.Unlock()

	rec, err := e.mover.Restore(id, e.trashDir, e.home, e.policy)
	if err != nil {
		return nil, err
	}
	e.cache.InvalidateAll()
	e.log.Info("restored %s from %s", rec.OriginalPath, rec.TrashPath)
	return rec, nil
}

// Trashed lists the entries held in the trash directory
func (e *Engine) Trashed() ([]trash.Record, error) {
	return e.mover.List(e.trashDir)
}

// InvalidateCache drops every cached report
func (e *Engine) InvalidateCache() {
	e.cache.InvalidateAll()
}

// PruneCache drops expired reports and returns how many were removed
func (e *Engine) PruneCache() int {
	return e.cache.Prune()
}

// Status reports the environment and free space of the home volume
func (e *Engine) Status(ctx context.Context) *Status {
	st := &Status{
		Home:          e.home,
		Platform:      string(e.info.OS),
		TrashDir:      e.trashDir,
		Categories:    category.Strings(category.All),
		CacheEntries:  e.cache.Len(),
		CacheTTL:      e.cache.TTL().String(),
		DefaultFilter: e.defaults,
	}

	if recs, err := e.mover.List(e.trashDir); err == nil {
		st.TrashedItems = len(recs)
	}

	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	usage, err := platform.GetDiskUsage(ctx, e.home)
	if err != nil {
		st.DiskError = err.Error()
	} else {
		st.Disk = usage
	}

	return st
}
