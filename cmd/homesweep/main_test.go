package main

import (
	"context"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/fenilsonani/homesweep/internal/scanner"
	"github.com/fenilsonani/homesweep/internal/testutil"
)

func TestScanFilters(t *testing.T) {
	defaults := scanner.Filters{MinSizeBytes: 1024, MinAgeDays: 7}

	tests := []struct {
		name    string
		minSize string
		minAge  int
		want    scanner.Filters
		wantErr bool
	}{
		{"keep config", "", -1, defaults, false},
		{"override size", "2MB", -1, scanner.Filters{MinSizeBytes: 2 << 20, MinAgeDays: 7}, false},
		{"override age to zero", "", 0, scanner.Filters{MinSizeBytes: 1024}, false},
		{"bad size", "lots", -1, defaults, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := scanFilters(defaults, tt.minSize, tt.minAge)
			if (err != nil) != tt.wantErr {
				t.Fatalf("scanFilters() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("scanFilters() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestReadPlan(t *testing.T) {
	f := testutil.NewHome(t)
	planFile := f.CreateFile("plan.txt", []byte("/tmp/a\n"))

	got, err := readPlan([]string{planFile}, strings.NewReader("ignored"))
	if err != nil || string(got) != "/tmp/a\n" {
		t.Errorf("readPlan(file) = %q, %v", got, err)
	}

	got, err = readPlan([]string{"-"}, strings.NewReader("from stdin"))
	if err != nil || string(got) != "from stdin" {
		t.Errorf("readPlan(-) = %q, %v", got, err)
	}

	got, err = readPlan(nil, strings.NewReader("{}"))
	if err != nil || string(got) != "{}" {
		t.Errorf("readPlan() = %q, %v", got, err)
	}

	if _, err := readPlan([]string{f.Path("missing.txt")}, nil); err == nil {
		t.Error("readPlan() on a missing file should fail")
	}

	big := strings.NewReader(strings.Repeat("x", maxPlanSize+1))
	if _, err := readPlan(nil, big); err == nil {
		t.Error("readPlan() over the size limit should fail")
	}
}

func TestPruneCacheStopsWithContext(t *testing.T) {
	var calls atomic.Int32
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		pruneCache(ctx, 5*time.Millisecond, func() int {
			calls.Add(1)
			return 0
		})
		close(done)
	}()

	deadline := time.Now().Add(2 * time.Second)
	for calls.Load() == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("pruneCache() did not return after cancel")
	}
	if calls.Load() == 0 {
		t.Error("pruneCache() never pruned")
	}
}

func TestRootCommandWiring(t *testing.T) {
	want := []string{"apply", "config", "restore", "scan", "serve", "status"}
	for _, name := range want {
		cmd, _, err := rootCmd.Find([]string{name})
		if err != nil || cmd.Name() != name {
			t.Errorf("rootCmd.Find(%q) = %v, %v", name, cmd, err)
		}
	}
	if f := scanCmd.Flags().Lookup("categories"); f == nil {
		t.Error("scan is missing --categories")
	}
}
