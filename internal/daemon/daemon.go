// Package daemon runs scheduled report-only scans while homesweep serve is
// up. Scheduled jobs never trash or delete anything.
package daemon

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/fenilsonani/homesweep/internal/config"
	"github.com/fenilsonani/homesweep/internal/engine"
	"github.com/fenilsonani/homesweep/internal/logger"
	"github.com/fenilsonani/homesweep/internal/report"
	"github.com/fenilsonani/homesweep/internal/scanner"
)

// ReportJob is one scheduled scan
type ReportJob struct {
	Name       string
	Schedule   string
	Categories []string
	Filters    scanner.Filters
	ReportDir  string
	KeepDays   int
}

// JobResult describes one finished run
type JobResult struct {
	Job      string
	ReportID string // Empty when the job has no report_dir
	Totals   report.Totals
	Pruned   int
	Duration time.Duration
}

// Daemon runs report jobs against an engine
type Daemon struct {
	engine    *engine.Engine
	scheduler *Scheduler
	notifier  *Notifier
	logger    *logger.Logger
	running   bool
	mu        sync.RWMutex
	now       func() time.Time
}

// New creates a daemon for the schedules in cfg
func New(eng *engine.Engine, cfg *config.Config, log *logger.Logger) *Daemon {
	d := &Daemon{
		engine: eng,
		logger: log,
		now:    time.Now,
	}

	jobs := make([]ReportJob, 0, len(cfg.Schedules))
	for _, s := range cfg.Schedules {
		jobs = append(jobs, JobFromConfig(s))
	}
	d.scheduler = NewScheduler(d, jobs)

	if cfg.Notifications.WebhookURL != "" {
		d.notifier = NewNotifier(cfg.Notifications, log)
	}

	return d
}

// JobFromConfig converts a schedule entry into a job
func JobFromConfig(s config.ScheduleConfig) ReportJob {
	return ReportJob{
		Name:       s.Name,
		Schedule:   s.Schedule,
		Categories: append([]string{}, s.Categories...),
		Filters:    scanner.Filters{MinSizeBytes: s.MinSizeBytes(), MinAgeDays: s.MinAgeDays},
		ReportDir:  s.ResolveReportDir(),
		KeepDays:   s.KeepDays,
	}
}

// Scheduler returns the job scheduler
func (d *Daemon) Scheduler() *Scheduler {
	return d.scheduler
}

// Run starts the scheduler and blocks until ctx is cancelled
func (d *Daemon) Run(ctx context.Context) error {
	d.mu.Lock()
	if d.running {
		d.mu.Unlock()
		return fmt.Errorf("daemon already running")
	}
	d.running = true
	d.mu.Unlock()

	defer func() {
		d.mu.Lock()
		d.running = false
		d.mu.Unlock()
	}()

	if err := d.scheduler.Start(ctx); err != nil {
		return fmt.Errorf("failed to start scheduler: %w", err)
	}
	defer d.scheduler.Stop()

	<-ctx.Done()
	d.logger.Info("Scheduler shutting down")
	return nil
}

// IsRunning returns whether the daemon is running
func (d *Daemon) IsRunning() bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.running
}

// RunReportJob scans fresh, which also refreshes the engine cache, then
// stores the report and prunes old ones when the job has a report_dir.
func (d *Daemon) RunReportJob(ctx context.Context, job ReportJob) (*JobResult, error) {
	d.logger.Info("Running report job: %s", job.Name)
	start := d.now()

	res, err := d.engine.Scan(ctx, engine.ScanRequest{
		Include: job.Categories,
		Filters: job.Filters,
		Fresh:   true,
	})
	if err != nil {
		return nil, fmt.Errorf("scan failed: %w", err)
	}

	out := &JobResult{Job: job.Name, Totals: res.Report.Totals}

	if job.ReportDir != "" {
		store, err := report.NewStore(job.ReportDir)
		if err != nil {
			return nil, err
		}
		out.ReportID, err = store.Save(job.Name, res.Report)
		if err != nil {
			return nil, err
		}
		out.Pruned, err = store.Prune(job.KeepDays, d.now())
		if err != nil {
			d.logger.Warn("Job %s could not prune old reports: %v", job.Name, err)
		}
	}

	out.Duration = d.now().Sub(start)
	d.logger.Info("Report job %s completed in %v: %d files, %d bytes reclaimable",
		job.Name, out.Duration.Round(time.Millisecond), out.Totals.Count, out.Totals.Bytes)

	if d.notifier != nil {
		d.notifier.SendReportNotification(ctx, out)
	}

	return out, nil
}
