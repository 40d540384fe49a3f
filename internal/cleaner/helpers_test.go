package cleaner

import (
	"io/fs"
	"os"
	"testing"
)

func mustLstat(t *testing.T, path string) fs.FileInfo {
	t.Helper()
	info, err := os.Lstat(path)
	if err != nil {
		t.Fatalf("lstat %s: %v", path, err)
	}
	return info
}

func chmod(path string, mode fs.FileMode) error {
	return os.Chmod(path, mode)
}
