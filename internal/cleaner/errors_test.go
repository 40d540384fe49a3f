package cleaner

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"syscall"
	"testing"
)

func TestCategorizeError(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		reason ErrorReason
	}{
		{"EACCES", syscall.EACCES, ErrorPermissionDenied},
		{"EPERM", syscall.EPERM, ErrorPermissionDenied},
		{"EROFS", syscall.EROFS, ErrorPermissionDenied},
		{"ENOENT", syscall.ENOENT, ErrorFileNotFound},
		{"EBUSY", syscall.EBUSY, ErrorFileInUse},
		{"EXDEV", &os.LinkError{Op: "rename", Old: "/a", New: "/b", Err: syscall.EXDEV}, ErrorCrossDevice},
		{"ENAMETOOLONG", syscall.ENAMETOOLONG, ErrorInvalidPath},
		{"wrapped EACCES", fmt.Errorf("failed to remove: %w", syscall.EACCES), ErrorPermissionDenied},
		{"PathError EBUSY", fmt.Errorf("failed: %w", &os.PathError{Op: "remove", Path: "/x", Err: syscall.EBUSY}), ErrorFileInUse},
		{"os.ErrNotExist", os.ErrNotExist, ErrorFileNotFound},
		{"os.ErrPermission", os.ErrPermission, ErrorPermissionDenied},
		{"generic", errors.New("unknown error"), ErrorUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			delErr := CategorizeError("/some/path", tt.err)
			if delErr.Reason != tt.reason {
				t.Errorf("CategorizeError(%v) reason = %v, want %v", tt.err, delErr.Reason, tt.reason)
			}
			if delErr.Path != "/some/path" {
				t.Errorf("path = %s, want /some/path", delErr.Path)
			}
			if !errors.Is(delErr, tt.err) {
				t.Errorf("DeletionError must unwrap to %v", tt.err)
			}
		})
	}
}

func TestCategorizeErrorNil(t *testing.T) {
	if delErr := CategorizeError("/x", nil); delErr != nil {
		t.Errorf("CategorizeError(nil) = %v, want nil", delErr)
	}
}

func TestCategorizeErrorKeepsDeletionError(t *testing.T) {
	orig := invalidPath("/x", "bad")
	if got := CategorizeError("/y", fmt.Errorf("wrapped: %w", orig)); got != orig {
		t.Errorf("CategorizeError() = %v, want the wrapped DeletionError", got)
	}
}

func TestErrorReasonString(t *testing.T) {
	tests := []struct {
		reason   ErrorReason
		expected string
	}{
		{ErrorPermissionDenied, "Permission denied"},
		{ErrorFileNotFound, "File not found"},
		{ErrorFileInUse, "File is in use"},
		{ErrorInvalidPath, "Invalid path"},
		{ErrorCrossDevice, "Trash is on another volume"},
		{ErrorUnknown, "Unknown error"},
		{ErrorReason(99), "Unspecified error"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			if result := tt.reason.String(); result != tt.expected {
				t.Errorf("ErrorReason(%d).String() = %s, want %s", tt.reason, result, tt.expected)
			}
		})
	}
}

func TestDeletionError_UserMessage(t *testing.T) {
	tests := []struct {
		name          string
		delErr        *DeletionError
		shouldContain string
	}{
		{"permission", &DeletionError{Path: "/f", Reason: ErrorPermissionDenied, Original: os.ErrPermission}, "Permission denied"},
		{"in use", &DeletionError{Path: "/f", Reason: ErrorFileInUse, Original: errors.New("busy")}, "being used"},
		{"not found", &DeletionError{Path: "/f", Reason: ErrorFileNotFound, Original: os.ErrNotExist}, "Already gone"},
		{"cross device", &DeletionError{Path: "/f", Reason: ErrorCrossDevice, Original: syscall.EXDEV}, "delete mode"},
		{"invalid", invalidPath("/f", "refusing to remove a socket"), "socket"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if result := tt.delErr.UserMessage(); !strings.Contains(result, tt.shouldContain) {
				t.Errorf("UserMessage() = %s, should contain %s", result, tt.shouldContain)
			}
		})
	}
}

func TestGroupErrorsAndSummary(t *testing.T) {
	delErrors := []*DeletionError{
		{Reason: ErrorPermissionDenied, Path: "/a", Original: os.ErrPermission},
		{Reason: ErrorPermissionDenied, Path: "/b", Original: os.ErrPermission},
		{Reason: ErrorFileInUse, Path: "/c", Original: errors.New("busy")},
		{Reason: ErrorFileNotFound, Path: "/d", Original: os.ErrNotExist},
	}

	grouped := GroupErrors(delErrors)
	if len(grouped[ErrorPermissionDenied]) != 2 {
		t.Errorf("permission errors = %d, want 2", len(grouped[ErrorPermissionDenied]))
	}
	if len(grouped[ErrorUnknown]) != 0 {
		t.Errorf("unknown errors = %d, want 0", len(grouped[ErrorUnknown]))
	}

	summary := FormatErrorSummary(delErrors)
	for _, want := range []string{"Permission denied: 2 items", "In use: 1 items", "Vanished during apply: 1 items"} {
		if !strings.Contains(summary, want) {
			t.Errorf("summary missing %q:\n%s", want, summary)
		}
	}

	if got := FormatErrorSummary(nil); got != "" {
		t.Errorf("FormatErrorSummary(nil) = %q, want empty", got)
	}
}
