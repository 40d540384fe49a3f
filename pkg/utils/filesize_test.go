package utils

import "testing"

func TestParseSize(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  int64
	}{
		{"empty", "", 0},
		{"plain bytes", "1024", 1024},
		{"KB", "1KB", KB},
		{"MB", "50MB", 50 * MB},
		{"lowercase mb", "50mb", 50 * MB},
		{"GiB", "2GiB", 2 * GB},
		{"spaced", " 1 MB ", MB},
		{"K shorthand", "4K", 4 * KB},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseSize(tt.input)
			if err != nil {
				t.Fatalf("ParseSize(%q) error: %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("ParseSize(%q) = %d, want %d", tt.input, got, tt.want)
			}
		})
	}
}

func TestParseSizeInvalid(t *testing.T) {
	for _, input := range []string{"abc", "MB", "12XB"} {
		if _, err := ParseSize(input); err == nil {
			t.Errorf("ParseSize(%q) expected error", input)
		}
	}
}

func TestFormatBytes(t *testing.T) {
	tests := []struct {
		in   int64
		want string
	}{
		{-5, "0 B"},
		{0, "0 B"},
		{512, "512 B"},
		{KB, "1.0 KiB"},
		{60 * MB, "60 MiB"},
	}

	for _, tt := range tests {
		if got := FormatBytes(tt.in); got != tt.want {
			t.Errorf("FormatBytes(%d) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestSumSizes(t *testing.T) {
	if got := SumSizes([]int64{1, 2, 3}); got != 6 {
		t.Errorf("SumSizes = %d, want 6", got)
	}
}
