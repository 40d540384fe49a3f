package scanner

import "time"

// Filters are inclusive lower bounds applied to every regular file.
// Zero means unset.
type Filters struct {
	MinSizeBytes int64 `json:"minSizeBytes"`
	MinAgeDays   int   `json:"minAgeDays"`
}

// Match reports whether a file of the given size and age passes the filters
func (f Filters) Match(size int64, age time.Duration) bool {
	if f.MinSizeBytes > 0 && size < f.MinSizeBytes {
		return false
	}
	if f.MinAgeDays > 0 && int(age/(24*time.Hour)) < f.MinAgeDays {
		return false
	}
	return true
}

// Stats summarizes one scan
type Stats struct {
	Roots    int // Roots that existed and were walked
	Dirs     int
	Files    int // Regular files examined
	Matched  int
	Skipped  int // Symlinks, special files and policy rejections
	Errors   int // Entries that could not be read
	Duration time.Duration
}
