package utils

import (
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"
)

const (
	B  = 1
	KB = 1024 * B
	MB = 1024 * KB
	GB = 1024 * MB
	TB = 1024 * GB
)

// FormatBytes converts bytes to human-readable format
func FormatBytes(bytes int64) string {
	if bytes < 0 {
		return "0 B"
	}
	return humanize.IBytes(uint64(bytes))
}

// ParseSize converts a human-readable size ("50MB", "1.5 GiB", "1024") to bytes.
// Decimal and binary suffixes are both treated as binary multiples, matching
// how sizes are displayed.
func ParseSize(size string) (int64, error) {
	s := strings.TrimSpace(size)
	if s == "" {
		return 0, nil
	}

	// humanize treats "MB" as 10^6; we want 2^20 like FormatBytes prints.
	upper := strings.ToUpper(s)
	if !strings.HasSuffix(upper, "IB") {
		for _, unit := range []string{"K", "M", "G", "T"} {
			if strings.HasSuffix(upper, unit+"B") {
				s = s[:len(s)-2] + unit + "iB"
				break
			}
			if strings.HasSuffix(upper, unit) {
				s = s[:len(s)-1] + unit + "iB"
				break
			}
		}
	}

	n, err := humanize.ParseBytes(s)
	if err != nil {
		return 0, fmt.Errorf("invalid size format: %s", size)
	}
	if n > uint64(1<<63-1) {
		return 0, fmt.Errorf("size out of range: %s", size)
	}
	return int64(n), nil
}

// SumSizes adds up a slice of sizes
func SumSizes(sizes []int64) int64 {
	var total int64
	for _, size := range sizes {
		total += size
	}
	return total
}
