package daemon

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/fenilsonani/homesweep/internal/config"
	"github.com/fenilsonani/homesweep/internal/engine"
	"github.com/fenilsonani/homesweep/internal/logger"
	"github.com/fenilsonani/homesweep/internal/platform"
	"github.com/fenilsonani/homesweep/internal/report"
	"github.com/fenilsonani/homesweep/internal/testutil"
)

func noTools(ctx context.Context, name string, args ...string) (string, error) {
	return "", context.Canceled
}

func newDaemon(t *testing.T, f *testutil.HomeFixture, cfg *config.Config) (*Daemon, *engine.Engine) {
	t.Helper()

	info, err := platform.InfoFor(platform.MacOS, f.Home, "tester")
	if err != nil {
		t.Fatalf("InfoFor() error = %v", err)
	}
	eng, err := engine.New(cfg, engine.WithPlatformInfo(info), engine.WithToolRunner(noTools))
	if err != nil {
		t.Fatalf("engine.New() error = %v", err)
	}
	return New(eng, cfg, logger.Discard()), eng
}

type webhookRecorder struct {
	mu       sync.Mutex
	messages []NotificationMessage
	headers  []http.Header
	methods  []string
}

func (w *webhookRecorder) handler(status int) http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		var msg NotificationMessage
		if err := json.NewDecoder(r.Body).Decode(&msg); err != nil {
			http.Error(rw, err.Error(), http.StatusBadRequest)
			return
		}
		w.mu.Lock()
		w.messages = append(w.messages, msg)
		w.headers = append(w.headers, r.Header.Clone())
		w.methods = append(w.methods, r.Method)
		w.mu.Unlock()
		rw.WriteHeader(status)
	}
}

func (w *webhookRecorder) count() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.messages)
}

// =============================================================================
// Report Job Tests
// =============================================================================

func TestRunReportJobSavesAndWarmsCache(t *testing.T) {
	f := testutil.NewHome(t)
	f.CreateFile("Library/Caches/app/a.bin", []byte("aaaa"))
	f.CreateFile("Library/Caches/app/b.bin", []byte("bbbbbb"))
	reportDir := f.Path("reports")

	cfg := config.GetDefault()
	cfg.Schedules = []config.ScheduleConfig{{
		Name:       "nightly",
		Schedule:   "@daily",
		Categories: []string{"user-caches"},
		ReportDir:  reportDir,
		KeepDays:   7,
	}}
	d, eng := newDaemon(t, f, cfg)

	res, err := d.Scheduler().TriggerJob(context.Background(), "nightly")
	if err != nil {
		t.Fatalf("TriggerJob() error = %v", err)
	}
	if res.Totals.Count != 2 || res.Totals.Bytes != 10 {
		t.Errorf("Totals = %+v, want 2 files / 10 bytes", res.Totals)
	}
	if !strings.HasPrefix(res.ReportID, "nightly_") {
		t.Errorf("ReportID = %q, want nightly_ prefix", res.ReportID)
	}

	saved, err := report.NewStore(reportDir)
	if err != nil {
		t.Fatalf("NewStore() error = %v", err)
	}
	got, err := saved.Load(res.ReportID)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if got.Totals != res.Totals {
		t.Errorf("saved Totals = %+v, want %+v", got.Totals, res.Totals)
	}

	// The scheduled scan leaves a fresh entry behind for interactive callers
	again, err := eng.Scan(context.Background(), engine.ScanRequest{Include: []string{"user-caches"}})
	if err != nil {
		t.Fatalf("Scan() error = %v", err)
	}
	if !again.Cached {
		t.Error("Scan() after report job should be served from the cache")
	}
}

func TestRunReportJobWithoutReportDir(t *testing.T) {
	f := testutil.NewHome(t)
	dmg := f.CreateFile("Downloads/setup.dmg", []byte("dmg"))

	d, _ := newDaemon(t, f, config.GetDefault())
	res, err := d.RunReportJob(context.Background(), ReportJob{
		Name:       "adhoc",
		Schedule:   "@hourly",
		Categories: []string{"downloads"},
	})
	if err != nil {
		t.Fatalf("RunReportJob() error = %v", err)
	}
	if res.ReportID != "" {
		t.Errorf("ReportID = %q, want empty", res.ReportID)
	}
	if res.Totals.Count != 1 {
		t.Errorf("Totals.Count = %d, want 1", res.Totals.Count)
	}
	f.AssertFileExists(dmg)
}

func TestRunReportJobBadSelection(t *testing.T) {
	f := testutil.NewHome(t)
	d, _ := newDaemon(t, f, config.GetDefault())

	_, err := d.RunReportJob(context.Background(), ReportJob{Name: "broken", Categories: []string{"nope"}})
	if err == nil {
		t.Fatal("RunReportJob() with unknown category should fail")
	}
}

func TestJobFromConfig(t *testing.T) {
	got := JobFromConfig(config.ScheduleConfig{
		Name:       "weekly",
		Schedule:   "0 3 * * 0",
		Categories: []string{"browsers"},
		MinSize:    "1MB",
		MinAgeDays: 14,
		KeepDays:   30,
	})

	if got.Filters.MinSizeBytes != 1<<20 {
		t.Errorf("MinSizeBytes = %d, want %d", got.Filters.MinSizeBytes, 1<<20)
	}
	if got.Filters.MinAgeDays != 14 || got.KeepDays != 30 || got.ReportDir != "" {
		t.Errorf("JobFromConfig() = %+v", got)
	}
}

// =============================================================================
// Scheduler Tests
// =============================================================================

func TestSchedulerJobManagement(t *testing.T) {
	f := testutil.NewHome(t)
	d, _ := newDaemon(t, f, config.GetDefault())
	s := d.Scheduler()

	if err := s.AddJob(ReportJob{Name: "b", Schedule: "@daily", Categories: []string{"browsers"}}); err != nil {
		t.Fatalf("AddJob() error = %v", err)
	}
	if err := s.AddJob(ReportJob{Name: "a", Schedule: "*/5 * * * *", Categories: []string{"browsers"}}); err != nil {
		t.Fatalf("AddJob() error = %v", err)
	}

	tests := []struct {
		name string
		job  ReportJob
	}{
		{"duplicate", ReportJob{Name: "a", Schedule: "@daily"}},
		{"bad cron", ReportJob{Name: "c", Schedule: "not a schedule"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := s.AddJob(tt.job); err == nil {
				t.Error("AddJob() error = nil, want error")
			}
		})
	}

	jobs := s.ListJobs()
	if len(jobs) != 2 || jobs[0].Name != "a" || jobs[1].Name != "b" {
		t.Fatalf("ListJobs() = %+v, want [a b]", jobs)
	}

	if err := s.RemoveJob("a"); err != nil {
		t.Fatalf("RemoveJob() error = %v", err)
	}
	if err := s.RemoveJob("a"); err == nil {
		t.Error("RemoveJob() twice should fail")
	}
	if _, err := s.TriggerJob(context.Background(), "a"); err == nil {
		t.Error("TriggerJob() on removed job should fail")
	}
}

func TestDaemonRunSchedulesJobs(t *testing.T) {
	f := testutil.NewHome(t)
	cfg := config.GetDefault()
	cfg.Schedules = []config.ScheduleConfig{{
		Name:       "hourly",
		Schedule:   "@hourly",
		Categories: []string{"browsers"},
	}}
	d, _ := newDaemon(t, f, cfg)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- d.Run(ctx) }()

	scheduled := func() bool {
		jobs := d.Scheduler().ListJobs()
		return len(jobs) == 1 && !jobs[0].NextRun.IsZero()
	}
	deadline := time.Now().Add(2 * time.Second)
	for !scheduled() && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if !d.IsRunning() || !scheduled() {
		t.Fatalf("daemon did not schedule its job: %+v", d.Scheduler().ListJobs())
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run() error = %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run() did not return after cancel")
	}
	if d.IsRunning() {
		t.Error("IsRunning() = true after shutdown")
	}
}

// =============================================================================
// Notifier Tests
// =============================================================================

func TestReportJobSendsWebhook(t *testing.T) {
	rec := &webhookRecorder{}
	srv := httptest.NewServer(rec.handler(http.StatusNoContent))
	defer srv.Close()

	f := testutil.NewHome(t)
	f.CreateFile("Library/Caches/app/a.bin", []byte("aaaa"))

	cfg := config.GetDefault()
	cfg.Notifications = config.NotificationConfig{
		WebhookURL: srv.URL,
		Method:     "put",
		Headers:    map[string]string{"X-Token": "secret"},
	}
	d, _ := newDaemon(t, f, cfg)

	if _, err := d.RunReportJob(context.Background(), ReportJob{Name: "n", Categories: []string{"user-caches"}}); err != nil {
		t.Fatalf("RunReportJob() error = %v", err)
	}

	if rec.count() != 1 {
		t.Fatalf("webhook calls = %d, want 1", rec.count())
	}
	msg := rec.messages[0]
	if msg.Type != "report" || msg.Title != "homesweep: n" {
		t.Errorf("message = %+v", msg)
	}
	if rec.methods[0] != http.MethodPut {
		t.Errorf("method = %s, want PUT", rec.methods[0])
	}
	if rec.headers[0].Get("X-Token") != "secret" {
		t.Errorf("X-Token header = %q, want secret", rec.headers[0].Get("X-Token"))
	}
}

func TestNotifierThresholdAndFailures(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		threshold string
		bytes     int64
		wantSent  bool
		wantCalls int
	}{
		{"above threshold", http.StatusOK, "1KB", 4096, true, 1},
		{"below threshold", http.StatusOK, "1MB", 4096, false, 0},
		{"no threshold", http.StatusOK, "", 0, true, 1},
		{"server error", http.StatusInternalServerError, "", 10, false, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := &webhookRecorder{}
			srv := httptest.NewServer(rec.handler(tt.status))
			defer srv.Close()

			n := NewNotifier(config.NotificationConfig{
				WebhookURL:     srv.URL,
				MinReclaimable: tt.threshold,
			}, logger.Discard())

			sent := n.SendReportNotification(context.Background(), &JobResult{
				Job:    "t",
				Totals: report.Totals{Count: 1, Bytes: tt.bytes},
			})
			if sent != tt.wantSent {
				t.Errorf("SendReportNotification() = %v, want %v", sent, tt.wantSent)
			}
			if rec.count() != tt.wantCalls {
				t.Errorf("webhook calls = %d, want %d", rec.count(), tt.wantCalls)
			}
		})
	}
}
