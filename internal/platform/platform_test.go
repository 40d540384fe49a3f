package platform

import (
	"context"
	"path/filepath"
	"testing"
)

func TestInfoFor(t *testing.T) {
	home := "/Users/alice"

	tests := []struct {
		name      string
		platform  Platform
		wantTrash string
		wantCache string
	}{
		{"macOS", MacOS, filepath.Join(home, ".Trash"), filepath.Join(home, "Library/Caches")},
		{"linux", Linux, filepath.Join(home, ".local/share/homesweep/trash"), filepath.Join(home, ".cache")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("XDG_CACHE_HOME", "")
			info, err := InfoFor(tt.platform, home, "alice")
			if err != nil {
				t.Fatalf("InfoFor() error = %v", err)
			}
			if info.OS != tt.platform {
				t.Errorf("OS = %v, want %v", info.OS, tt.platform)
			}
			if info.TrashDir != tt.wantTrash {
				t.Errorf("TrashDir = %v, want %v", info.TrashDir, tt.wantTrash)
			}
			if info.CacheDir != tt.wantCache {
				t.Errorf("CacheDir = %v, want %v", info.CacheDir, tt.wantCache)
			}
		})
	}
}

func TestInfoForUnsupported(t *testing.T) {
	if _, err := InfoFor(Unknown, "/home/x", "x"); err != ErrUnsupportedPlatform {
		t.Errorf("InfoFor(Unknown) error = %v, want %v", err, ErrUnsupportedPlatform)
	}
}

func TestLinuxXDGCacheOutsideHomeIgnored(t *testing.T) {
	t.Setenv("XDG_CACHE_HOME", "/var/cache/elsewhere")
	info := getLinuxInfo("/home/bob", "bob")
	if info.CacheDir != "/home/bob/.cache" {
		t.Errorf("CacheDir = %v, want /home/bob/.cache", info.CacheDir)
	}

	t.Setenv("XDG_CACHE_HOME", "/home/bob/.xdg-cache")
	info = getLinuxInfo("/home/bob", "bob")
	if info.CacheDir != "/home/bob/.xdg-cache" {
		t.Errorf("CacheDir = %v, want /home/bob/.xdg-cache", info.CacheDir)
	}
}

func TestGetDiskUsage(t *testing.T) {
	usage, err := GetDiskUsage(context.Background(), t.TempDir())
	if err != nil {
		t.Skipf("disk usage unavailable: %v", err)
	}
	if usage.Total == 0 {
		t.Error("Total = 0, want a positive volume size")
	}
	if usage.Free > usage.Total {
		t.Errorf("Free %d exceeds Total %d", usage.Free, usage.Total)
	}
}
