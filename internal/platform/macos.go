package platform

import "path/filepath"

// getMacOSInfo returns platform-specific information for macOS
func getMacOSInfo(homeDir, username string) *Info {
	return &Info{
		OS:       MacOS,
		HomeDir:  homeDir,
		Username: username,
		TrashDir: filepath.Join(homeDir, ".Trash"),
		CacheDir: filepath.Join(homeDir, "Library/Caches"),
		LogDir:   filepath.Join(homeDir, "Library/Logs"),
	}
}
