package cleaner

import (
	"io/fs"
	"os"
	"testing"

	"github.com/fenilsonani/homesweep/internal/testutil"
)

func TestSpecialFileKind(t *testing.T) {
	tests := []struct {
		name string
		mode fs.FileMode
		want string
	}{
		{"regular", 0644, ""},
		{"directory", fs.ModeDir | 0755, ""},
		{"socket", fs.ModeSocket, "socket"},
		{"pipe", fs.ModeNamedPipe, "named pipe (FIFO)"},
		{"block device", fs.ModeDevice, "device file"},
		{"char device", fs.ModeDevice | fs.ModeCharDevice, "character device"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := specialFileKind(tt.mode); got != tt.want {
				t.Errorf("specialFileKind(%v) = %q, want %q", tt.mode, got, tt.want)
			}
		})
	}
}

func TestSizeOf(t *testing.T) {
	f := testutil.NewHome(t)
	f.CreateFile("dir/a.bin", make([]byte, 100))
	f.CreateFile("dir/sub/b.bin", make([]byte, 50))
	f.CreateFile("outside/c.bin", make([]byte, 1000))
	f.CreateSymlink(f.Path("outside"), "dir/link")

	info, err := os.Lstat(f.Path("dir"))
	if err != nil {
		t.Fatal(err)
	}
	if got := sizeOf(f.Path("dir"), info); got != 150 {
		t.Errorf("sizeOf(dir) = %d, want 150 (symlinks not followed)", got)
	}

	info, _ = os.Lstat(f.Path("dir/a.bin"))
	if got := sizeOf(f.Path("dir/a.bin"), info); got != 100 {
		t.Errorf("sizeOf(file) = %d, want 100", got)
	}
}

func TestOverlaps(t *testing.T) {
	tests := []struct {
		a, b string
		want bool
	}{
		{"/h/.Trash", "/h/.Trash", true},
		{"/h/.Trash/x", "/h/.Trash", true},
		{"/h", "/h/.Trash", true},
		{"/h/.Trash2", "/h/.Trash", false},
		{"/h/Downloads", "/h/.Trash", false},
	}
	for _, tt := range tests {
		if got := overlaps(tt.a, tt.b); got != tt.want {
			t.Errorf("overlaps(%s, %s) = %v, want %v", tt.a, tt.b, got, tt.want)
		}
	}
}
