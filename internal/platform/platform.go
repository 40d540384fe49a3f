package platform

import (
	"context"
	"fmt"
	"os"
	"os/user"
	"path/filepath"
	"runtime"

	"github.com/shirou/gopsutil/v4/disk"
)

// Platform represents the operating system platform
type Platform string

const (
	MacOS   Platform = "darwin"
	Linux   Platform = "linux"
	Unknown Platform = "unknown"
)

// Info contains platform-specific information and paths
type Info struct {
	OS       Platform
	HomeDir  string
	Username string
	TrashDir string // Default reversible holding area
	CacheDir string // Per-user application cache root
	LogDir   string // Per-user log root
}

// Detect returns the current platform
func Detect() Platform {
	switch runtime.GOOS {
	case "darwin":
		return MacOS
	case "linux":
		return Linux
	default:
		return Unknown
	}
}

// GetInfo returns platform-specific information for the current user
func GetInfo() (*Info, error) {
	currentUser, err := user.Current()
	if err != nil {
		return nil, err
	}
	return InfoFor(Detect(), currentUser.HomeDir, currentUser.Username)
}

// InfoFor returns the layout of the given platform rooted at homeDir
func InfoFor(p Platform, homeDir, username string) (*Info, error) {
	switch p {
	case MacOS:
		return getMacOSInfo(homeDir, username), nil
	case Linux:
		return getLinuxInfo(homeDir, username), nil
	default:
		return nil, ErrUnsupportedPlatform
	}
}

// HomeDir returns the canonical home directory of the current user.
// Symlinks are resolved so scope checks compare like with like.
func HomeDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		currentUser, uerr := user.Current()
		if uerr != nil {
			return "", fmt.Errorf("failed to determine home directory: %w", err)
		}
		home = currentUser.HomeDir
	}

	resolved, err := filepath.EvalSymlinks(home)
	if err != nil {
		return "", fmt.Errorf("failed to resolve home directory %s: %w", home, err)
	}
	return resolved, nil
}

// GetUserConfigDir returns the directory holding homesweep's config file
func GetUserConfigDir() (string, error) {
	if configDir := os.Getenv("XDG_CONFIG_HOME"); configDir != "" {
		return configDir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config"), nil
}

// DiskUsage describes the volume holding a path
type DiskUsage struct {
	Path        string  `json:"path"`
	Total       uint64  `json:"total"`
	Free        uint64  `json:"free"`
	Used        uint64  `json:"used"`
	UsedPercent float64 `json:"usedPercent"`
}

// GetDiskUsage reports usage of the volume containing path
func GetDiskUsage(ctx context.Context, path string) (*DiskUsage, error) {
	stat, err := disk.UsageWithContext(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("failed to read disk usage for %s: %w", path, err)
	}
	return &DiskUsage{
		Path:        path,
		Total:       stat.Total,
		Free:        stat.Free,
		Used:        stat.Used,
		UsedPercent: stat.UsedPercent,
	}, nil
}

// Errors
var (
	ErrUnsupportedPlatform = &PlatformError{"unsupported platform"}
)

// PlatformError represents a platform-related error
type PlatformError struct {
	Message string
}

func (e *PlatformError) Error() string {
	return e.Message
}
