package report

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// ErrNoReports is returned by Latest when the store is empty
var ErrNoReports = errors.New("no saved reports")

// Store keeps generated reports as JSON files in a directory
type Store struct {
	dir string
}

// NewStore creates a store rooted at dir, creating it if needed
func NewStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create reports directory: %w", err)
	}
	return &Store{dir: dir}, nil
}

// Dir returns the store directory
func (s *Store) Dir() string {
	return s.dir
}

// Save writes r under a name derived from prefix and its generation time
// and returns the ID it was stored under.
func (s *Store) Save(prefix string, r *Report) (string, error) {
	if r.GeneratedAt.IsZero() {
		r.GeneratedAt = time.Now().UTC().Truncate(time.Second)
	}

	id := r.GeneratedAt.UTC().Format("20060102-150405")
	if prefix != "" {
		id = prefix + "_" + id
	}

	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal report: %w", err)
	}

	// Write then rename so readers never see a partial file
	filename := filepath.Join(s.dir, id+".json")
	tmp := filename + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write report file: %w", err)
	}
	if err := os.Rename(tmp, filename); err != nil {
		os.Remove(tmp)
		return "", fmt.Errorf("failed to write report file: %w", err)
	}

	return id, nil
}

// Load reads a report by ID and checks its totals
func (s *Store) Load(id string) (*Report, error) {
	if id == "" || strings.ContainsAny(id, `/\`) {
		return nil, fmt.Errorf("invalid report id: %q", id)
	}
	return ReadFile(filepath.Join(s.dir, id+".json"))
}

// ReadFile reads and validates a report written by Save or by the JSON reporter
func ReadFile(path string) (*Report, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read report file: %w", err)
	}

	var r Report
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("failed to unmarshal report: %w", err)
	}
	if err := r.Validate(); err != nil {
		return nil, fmt.Errorf("report %s: %w", filepath.Base(path), err)
	}

	return &r, nil
}

// Entry describes one stored report
type Entry struct {
	ID          string
	GeneratedAt time.Time
	Totals      Totals
}

// List returns stored reports, newest first. Unreadable files are skipped.
func (s *Store) List() ([]Entry, error) {
	files, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read reports directory: %w", err)
	}

	var entries []Entry
	for _, f := range files {
		if f.IsDir() || filepath.Ext(f.Name()) != ".json" {
			continue
		}

		id := strings.TrimSuffix(f.Name(), ".json")
		r, err := s.Load(id)
		if err != nil {
			continue
		}
		entries = append(entries, Entry{ID: id, GeneratedAt: r.GeneratedAt, Totals: r.Totals})
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].GeneratedAt.After(entries[j].GeneratedAt)
	})

	return entries, nil
}

// Latest returns the most recent stored report
func (s *Store) Latest() (*Report, error) {
	entries, err := s.List()
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, ErrNoReports
	}
	return s.Load(entries[0].ID)
}

// Delete removes a stored report
func (s *Store) Delete(id string) error {
	if err := os.Remove(filepath.Join(s.dir, id+".json")); err != nil {
		return fmt.Errorf("failed to delete report file: %w", err)
	}
	return nil
}

// Prune removes reports generated before now minus days and returns how
// many were removed. Zero days keeps everything.
func (s *Store) Prune(days int, now time.Time) (int, error) {
	if days <= 0 {
		return 0, nil
	}

	entries, err := s.List()
	if err != nil {
		return 0, err
	}

	cutoff := now.AddDate(0, 0, -days)
	removed := 0
	for _, e := range entries {
		if e.GeneratedAt.Before(cutoff) {
			if err := s.Delete(e.ID); err != nil {
				continue
			}
			removed++
		}
	}

	return removed, nil
}
