package utils

import (
	"io"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/term"
)

// DefaultWidth is used when the output is not a terminal
const DefaultWidth = 100

// Width returns the terminal width of w, or DefaultWidth
func Width(w io.Writer) int {
	f, ok := w.(*os.File)
	if !ok {
		return DefaultWidth
	}
	if width, _, err := term.GetSize(int(f.Fd())); err == nil && width > 0 {
		return width
	}
	return DefaultWidth
}

// ShortenHome replaces a leading home directory with ~
func ShortenHome(path, home string) string {
	if home == "" {
		return path
	}
	if path == home {
		return "~"
	}
	if strings.HasPrefix(path, home+string(filepath.Separator)) {
		return "~" + path[len(home):]
	}
	return path
}

// TruncatePath shortens a path to maxWidth, keeping the file name and
// dropping directories from the middle.
func TruncatePath(path string, maxWidth int) string {
	if len(path) <= maxWidth {
		return path
	}
	if maxWidth < 10 {
		return TruncateString(path, maxWidth)
	}

	dir, file := filepath.Split(path)
	if len(file) > maxWidth-4 {
		return "..." + file[len(file)-(maxWidth-3):]
	}

	// Keep the first directory, then as many trailing ones as fit
	parts := strings.Split(filepath.Clean(dir), string(filepath.Separator))
	head := parts[0]
	if head == "" && len(parts) > 1 {
		head = string(filepath.Separator) + parts[1]
		parts = parts[1:]
	}

	tail := file
	for i := len(parts) - 1; i > 0; i-- {
		candidate := parts[i] + string(filepath.Separator) + tail
		if len(head)+len("/.../")+len(candidate) > maxWidth {
			break
		}
		tail = candidate
	}

	out := head + string(filepath.Separator) + "..." + string(filepath.Separator) + tail
	if len(out) > maxWidth {
		return "..." + string(filepath.Separator) + file
	}
	return out
}

// TruncateString truncates a string to maxLen, adding ellipsis if needed
func TruncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen < 3 {
		return "..."
	}
	return s[:maxLen-3] + "..."
}

// TruncateMiddle truncates a string from the middle, preserving start and end
func TruncateMiddle(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen < 10 {
		return TruncateString(s, maxLen)
	}

	sideLen := (maxLen - 3) / 2
	return s[:sideLen] + "..." + s[len(s)-sideLen:]
}
