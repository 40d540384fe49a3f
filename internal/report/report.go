// Package report holds the scan report data model and the builder that
// turns collected items into a report with totals.
package report

import (
	"fmt"
	"time"
)

// Item is one reclaimable file found during a scan
type Item struct {
	Path      string `json:"path" yaml:"path"`
	Bytes     int64  `json:"bytes" yaml:"bytes"`
	MTime     int64  `json:"mtime" yaml:"mtime"` // epoch seconds
	Category  string `json:"category" yaml:"category"`
	Reason    string `json:"reason" yaml:"reason"` // Why this file was flagged for cleanup
	Trashable bool   `json:"trashable" yaml:"trashable"`
}

// ModTime returns the item's modification time
func (i Item) ModTime() time.Time {
	return time.Unix(i.MTime, 0)
}

// Totals aggregates item count and size
type Totals struct {
	Count int   `json:"count" yaml:"count"`
	Bytes int64 `json:"bytes" yaml:"bytes"`
}

// Report is the canonical result of a scan
type Report struct {
	GeneratedAt time.Time `json:"generatedAt" yaml:"generatedAt"`
	Home        string    `json:"home" yaml:"home"`
	Totals      Totals    `json:"totals" yaml:"totals"`
	Categories  []string  `json:"categories" yaml:"categories"`
	Items       []Item    `json:"items" yaml:"items"`
}

// Build stamps the current time, sums totals and keeps items in the order
// the collector produced them.
func Build(home string, categories []string, items []Item) *Report {
	r := &Report{
		GeneratedAt: time.Now().UTC().Truncate(time.Second),
		Home:        home,
		Categories:  append([]string{}, categories...),
		Items:       make([]Item, len(items)),
	}
	copy(r.Items, items)

	for _, item := range r.Items {
		r.Totals.Count++
		r.Totals.Bytes += item.Bytes
	}

	return r
}

// Validate checks the totals invariant
func (r *Report) Validate() error {
	var bytes int64
	for _, item := range r.Items {
		if item.Bytes < 0 {
			return fmt.Errorf("item %s has negative size", item.Path)
		}
		bytes += item.Bytes
	}
	if r.Totals.Count != len(r.Items) {
		return fmt.Errorf("totals.count %d does not match %d items", r.Totals.Count, len(r.Items))
	}
	if r.Totals.Bytes != bytes {
		return fmt.Errorf("totals.bytes %d does not match item sum %d", r.Totals.Bytes, bytes)
	}
	return nil
}

// CategoryTotals groups totals by category, in report category order
func (r *Report) CategoryTotals() []CategoryTotal {
	index := make(map[string]int, len(r.Categories))
	out := make([]CategoryTotal, 0, len(r.Categories))
	for _, c := range r.Categories {
		if _, ok := index[c]; ok {
			continue
		}
		index[c] = len(out)
		out = append(out, CategoryTotal{Category: c})
	}

	for _, item := range r.Items {
		i, ok := index[item.Category]
		if !ok {
			index[item.Category] = len(out)
			i = len(out)
			out = append(out, CategoryTotal{Category: item.Category})
		}
		out[i].Count++
		out[i].Bytes += item.Bytes
	}

	return out
}

// CategoryTotal is the per-category breakdown of a report
type CategoryTotal struct {
	Category string
	Count    int
	Bytes    int64
}
