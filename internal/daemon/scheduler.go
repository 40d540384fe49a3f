package daemon

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

// Scheduler manages scheduled report jobs
type Scheduler struct {
	daemon  *Daemon
	cron    *cron.Cron
	entries map[string]cron.EntryID
	jobs    map[string]ReportJob
	order   []string
	mu      sync.RWMutex
	running bool
	ctx     context.Context
}

// NewScheduler creates a new scheduler
func NewScheduler(daemon *Daemon, jobs []ReportJob) *Scheduler {
	parser := cron.NewParser(
		cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
	)

	// A slow scan is never started twice; the late tick is skipped
	c := cron.New(cron.WithParser(parser), cron.WithChain(
		cron.Recover(cron.DefaultLogger),
		cron.SkipIfStillRunning(cron.DefaultLogger),
	))

	s := &Scheduler{
		daemon:  daemon,
		cron:    c,
		entries: make(map[string]cron.EntryID),
		jobs:    make(map[string]ReportJob),
		ctx:     context.Background(),
	}
	for _, job := range jobs {
		s.jobs[job.Name] = job
		s.order = append(s.order, job.Name)
	}
	return s
}

// Start registers every job and starts cron. Jobs run with ctx.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return fmt.Errorf("scheduler already running")
	}
	s.ctx = ctx

	for _, name := range s.order {
		if err := s.addEntry(s.jobs[name]); err != nil {
			return fmt.Errorf("failed to add schedule %s: %w", name, err)
		}
	}

	s.cron.Start()
	s.running = true

	s.daemon.logger.Info("Scheduler started with %d jobs", len(s.entries))
	return nil
}

// Stop stops the scheduler and waits for running jobs
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return
	}

	ctx := s.cron.Stop()
	select {
	case <-ctx.Done():
	case <-time.After(10 * time.Second):
		s.daemon.logger.Warn("Scheduler stop timed out")
	}

	s.running = false
	s.daemon.logger.Info("Scheduler stopped")
}

func (s *Scheduler) addEntry(job ReportJob) error {
	id, err := s.cron.AddFunc(job.Schedule, func() {
		if _, err := s.daemon.RunReportJob(s.ctx, job); err != nil {
			s.daemon.logger.Error("Job %s failed: %v", job.Name, err)
		}
	})
	if err != nil {
		return fmt.Errorf("failed to add cron job: %w", err)
	}

	s.entries[job.Name] = id
	s.daemon.logger.Info("Added job: %s, next run: %v", job.Name, s.cron.Entry(id).Next)
	return nil
}

// AddJob adds a job, scheduling it right away when the scheduler runs
func (s *Scheduler) AddJob(job ReportJob) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.jobs[job.Name]; exists {
		return fmt.Errorf("job %s already exists", job.Name)
	}
	if s.running {
		if err := s.addEntry(job); err != nil {
			return err
		}
	} else if _, err := cron.ParseStandard(job.Schedule); err != nil {
		return fmt.Errorf("failed to add cron job: %w", err)
	}

	s.jobs[job.Name] = job
	s.order = append(s.order, job.Name)
	return nil
}

// RemoveJob removes a job from the scheduler
func (s *Scheduler) RemoveJob(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.jobs[name]; !exists {
		return fmt.Errorf("job %s not found", name)
	}
	if id, ok := s.entries[name]; ok {
		s.cron.Remove(id)
		delete(s.entries, name)
	}
	delete(s.jobs, name)
	for i, n := range s.order {
		if n == name {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}

	s.daemon.logger.Info("Removed job: %s", name)
	return nil
}

// JobInfo contains information about a scheduled job
type JobInfo struct {
	Name     string    `json:"name"`
	Schedule string    `json:"schedule"`
	NextRun  time.Time `json:"nextRun"`
	PrevRun  time.Time `json:"prevRun"`
}

// ListJobs returns every job sorted by name. Run times are zero until the
// scheduler has started.
func (s *Scheduler) ListJobs() []JobInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()

	jobs := make([]JobInfo, 0, len(s.jobs))
	for name, job := range s.jobs {
		info := JobInfo{Name: name, Schedule: job.Schedule}
		if id, ok := s.entries[name]; ok {
			entry := s.cron.Entry(id)
			info.NextRun = entry.Next
			info.PrevRun = entry.Prev
		}
		jobs = append(jobs, info)
	}

	sort.Slice(jobs, func(i, j int) bool { return jobs[i].Name < jobs[j].Name })
	return jobs
}

// TriggerJob runs a job now, outside its schedule
func (s *Scheduler) TriggerJob(ctx context.Context, name string) (*JobResult, error) {
	s.mu.RLock()
	job, exists := s.jobs[name]
	s.mu.RUnlock()

	if !exists {
		return nil, fmt.Errorf("job %s not found", name)
	}

	s.daemon.logger.Info("Manually triggering job: %s", name)
	return s.daemon.RunReportJob(ctx, job)
}
