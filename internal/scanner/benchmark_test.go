package scanner

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/fenilsonani/homesweep/internal/category"
	"github.com/fenilsonani/homesweep/internal/platform"
	"github.com/fenilsonani/homesweep/internal/report"
	"github.com/fenilsonani/homesweep/internal/security"
)

// =============================================================================
// Collector Benchmarks
// =============================================================================

// benchHome builds dirs x filesPerDir small files under Library/Caches
func benchHome(b *testing.B, dirs, filesPerDir int) *Collector {
	b.Helper()

	home, err := filepath.EvalSymlinks(b.TempDir())
	if err != nil {
		b.Fatal(err)
	}
	for d := 0; d < dirs; d++ {
		dir := filepath.Join(home, "Library", "Caches", fmt.Sprintf("app%03d", d))
		if err := os.MkdirAll(dir, 0755); err != nil {
			b.Fatal(err)
		}
		for i := 0; i < filesPerDir; i++ {
			if err := os.WriteFile(filepath.Join(dir, fmt.Sprintf("f%04d.bin", i)), []byte("data"), 0644); err != nil {
				b.Fatal(err)
			}
		}
	}

	info, err := platform.InfoFor(platform.MacOS, home, "bench")
	if err != nil {
		b.Fatal(err)
	}
	policy, err := security.NewPolicy()
	if err != nil {
		b.Fatal(err)
	}
	return New(category.NewRegistry(info, category.WithToolRunner(noTools)), policy)
}

func benchmarkScan(b *testing.B, dirs, filesPerDir int, filters Filters) {
	c := benchHome(b, dirs, filesPerDir)
	cats := []category.Category{category.UserCaches}
	ctx := context.Background()

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, _, err := c.Scan(ctx, cats, filters); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkScanSmallDirectory(b *testing.B) {
	benchmarkScan(b, 5, 20, Filters{})
}

func BenchmarkScanMediumDirectory(b *testing.B) {
	benchmarkScan(b, 50, 100, Filters{})
}

func BenchmarkScanFilteredOut(b *testing.B) {
	benchmarkScan(b, 50, 100, Filters{MinSizeBytes: 1 << 20})
}

func BenchmarkPolicyEvaluate(b *testing.B) {
	policy, err := security.NewPolicy()
	if err != nil {
		b.Fatal(err)
	}
	home := "/Users/bench"
	paths := []string{
		"/Users/bench/Library/Caches/app/blob",
		"/Users/bench/.ssh/id_ed25519",
		"/Users/bench/projects/web/node_modules/react/index.js",
		"/etc/passwd",
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		for _, p := range paths {
			policy.Evaluate(p, home)
		}
	}
}

func BenchmarkReportBuild(b *testing.B) {
	items := make([]report.Item, 0, 10000)
	for i := 0; i < cap(items); i++ {
		items = append(items, report.Item{
			Path:     fmt.Sprintf("/Users/bench/Library/Caches/app%d/f%d", i%50, i),
			Bytes:    int64(i),
			Category: "user-caches",
		})
	}

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		report.Build("/Users/bench", []string{"user-caches"}, items)
	}
}
