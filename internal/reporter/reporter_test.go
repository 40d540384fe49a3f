package reporter

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	"gopkg.in/yaml.v3"

	"github.com/fenilsonani/homesweep/internal/cleaner"
	"github.com/fenilsonani/homesweep/internal/report"
	"github.com/fenilsonani/homesweep/internal/scanner"
)

func sampleReport() *report.Report {
	return report.Build("/Users/alice", []string{"user-caches", "downloads"}, []report.Item{
		{Path: "/Users/alice/Library/Caches/app/a.bin", Bytes: 2048, MTime: 1700000000, Category: "user-caches", Reason: "cache", Trashable: true},
		{Path: "/Users/alice/Library/Caches/app/b.bin", Bytes: 1024, MTime: 1700000000, Category: "user-caches", Reason: "cache", Trashable: true},
		{Path: "/Users/alice/Downloads/setup.dmg", Bytes: 4096, MTime: 1600000000, Category: "downloads", Reason: "download", Trashable: true},
	})
}

func sampleResult() *cleaner.ApplyResult {
	return &cleaner.ApplyResult{
		ID: "run-1",
		OK: false,
		Summary: cleaner.Summary{
			Count: 1, Bytes: 2048, HumanReadableSize: "2.0 KiB", Mode: cleaner.ModeTrash,
		},
		Details: []cleaner.Detail{
			{Path: "/Users/alice/Library/Caches/app/a.bin", Status: cleaner.StatusTrashed, Bytes: 2048},
			{Path: "/Users/alice/Documents/x", Status: cleaner.StatusDenyListed},
			{Path: "/Users/alice/Downloads/y", Status: cleaner.StatusError, Error: "permission denied"},
		},
	}
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    OutputFormat
		wantErr bool
	}{
		{"", FormatSummary, false},
		{"JSON", FormatJSON, false},
		{"tree", FormatTree, false},
		{"csv", "", true},
	}

	for _, tt := range tests {
		got, err := ParseFormat(tt.in)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("ParseFormat(%q) = %q, %v", tt.in, got, err)
		}
	}
}

// =============================================================================
// Scan Report Output
// =============================================================================

func TestReportSummary(t *testing.T) {
	var buf bytes.Buffer
	stats := &scanner.Stats{Files: 10, Dirs: 3, Errors: 2}
	if err := New(&buf, FormatSummary).Report(sampleReport(), stats); err != nil {
		t.Fatal(err)
	}

	out := buf.String()
	for _, want := range []string{"Total Files: 3", "7.0 KiB", "user-caches: 2 files, 3.0 KiB", "downloads: 1 files", "Errors: 2"} {
		if !strings.Contains(out, want) {
			t.Errorf("summary missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "\x1b[") {
		t.Error("output to a buffer should not contain color codes")
	}
}

func TestReportTable(t *testing.T) {
	var buf bytes.Buffer
	if err := New(&buf, FormatTable).Report(sampleReport(), nil); err != nil {
		t.Fatal(err)
	}

	out := buf.String()
	if !strings.Contains(out, "~/Downloads/setup.dmg") {
		t.Errorf("table should show home-relative paths:\n%s", out)
	}
	if !strings.Contains(out, "Total: 3 files, 7.0 KiB") {
		t.Errorf("table missing total:\n%s", out)
	}
}

func TestReportTree(t *testing.T) {
	var buf bytes.Buffer
	if err := New(&buf, FormatTree).Report(sampleReport(), nil); err != nil {
		t.Fatal(err)
	}

	out := buf.String()
	if !strings.Contains(out, "~/Library/Caches/app (3.0 KiB)") || !strings.Contains(out, "setup.dmg (4.0 KiB)") {
		t.Errorf("unexpected tree:\n%s", out)
	}
}

func TestReportJSONMatchesWireShape(t *testing.T) {
	var buf bytes.Buffer
	rep := sampleReport()
	if err := New(&buf, FormatJSON).Report(rep, nil); err != nil {
		t.Fatal(err)
	}

	var decoded report.Report
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("output is not a report: %v", err)
	}
	if err := decoded.Validate(); err != nil || len(decoded.Items) != 3 || !decoded.GeneratedAt.Equal(rep.GeneratedAt) {
		t.Errorf("decoded report = %+v, %v", decoded, err)
	}
}

func TestReportYAML(t *testing.T) {
	var buf bytes.Buffer
	if err := New(&buf, FormatYAML).Report(sampleReport(), nil); err != nil {
		t.Fatal(err)
	}

	var decoded report.Report
	if err := yaml.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("output is not yaml: %v", err)
	}
	if decoded.Totals.Bytes != 7168 || decoded.Items[2].Path != "/Users/alice/Downloads/setup.dmg" {
		t.Errorf("decoded report = %+v", decoded)
	}
}

func TestSaveToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "report.json")
	if err := SaveToFile(sampleReport(), path, FormatJSON); err != nil {
		t.Fatalf("SaveToFile failed: %v", err)
	}

	loaded, err := report.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	if loaded.Totals.Count != 3 {
		t.Errorf("loaded count = %d", loaded.Totals.Count)
	}
}

// =============================================================================
// Apply Result Output
// =============================================================================

func TestApplySummary(t *testing.T) {
	var buf bytes.Buffer
	if err := New(&buf, FormatSummary).Apply(sampleResult()); err != nil {
		t.Fatal(err)
	}

	out := buf.String()
	for _, want := range []string{"Mode: trash", "Items: 1 (2.0 KiB)", "DENY_LISTED", "ERROR"} {
		if !strings.Contains(out, want) {
			t.Errorf("apply summary missing %q:\n%s", want, out)
		}
	}
}

func TestApplyTableShowsErrors(t *testing.T) {
	var buf bytes.Buffer
	if err := New(&buf, FormatTable).Apply(sampleResult()); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "(permission denied)") {
		t.Errorf("table should show item errors:\n%s", buf.String())
	}
}

func TestApplyYAMLOmitsInternalErrors(t *testing.T) {
	var buf bytes.Buffer
	res := sampleResult()
	res.Errors = []*cleaner.DeletionError{{Path: "/x", Reason: cleaner.ErrorPermissionDenied}}
	if err := New(&buf, FormatYAML).Apply(res); err != nil {
		t.Fatal(err)
	}

	out := buf.String()
	if !strings.Contains(out, "humanReadableSize: 2.0 KiB") || strings.Contains(out, "errors:") {
		t.Errorf("unexpected yaml:\n%s", out)
	}
}
