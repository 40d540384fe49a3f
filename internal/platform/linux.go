package platform

import (
	"os"
	"path/filepath"
	"strings"
)

// getLinuxInfo returns platform-specific information for Linux
func getLinuxInfo(homeDir, username string) *Info {
	cacheDir := filepath.Join(homeDir, ".cache")
	// Honor XDG_CACHE_HOME only when it stays inside home
	if xdg := os.Getenv("XDG_CACHE_HOME"); xdg != "" && strings.HasPrefix(xdg, homeDir+string(filepath.Separator)) {
		cacheDir = filepath.Clean(xdg)
	}

	return &Info{
		OS:       Linux,
		HomeDir:  homeDir,
		Username: username,
		TrashDir: filepath.Join(homeDir, ".local/share/homesweep/trash"),
		CacheDir: cacheDir,
		LogDir:   filepath.Join(homeDir, ".local/state"),
	}
}
