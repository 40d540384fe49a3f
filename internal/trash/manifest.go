package trash

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// ManifestName is the manifest file kept in every trash root
const ManifestName = ".homesweep-manifest.jsonl"

// Actions recorded in the manifest
const (
	ActionTrash   = "trash"
	ActionRestore = "restore"
)

// Record is one manifest line
type Record struct {
	ID           string    `json:"id"`
	Action       string    `json:"action"`
	OriginalPath string    `json:"originalPath"`
	TrashPath    string    `json:"trashPath"`
	Bytes        int64     `json:"bytes"`
	Category     string    `json:"category,omitempty"`
	Time         time.Time `json:"time"`
}

// Manifest is an append-only JSON lines log of trash moves
type Manifest struct {
	mu   sync.Mutex
	path string
}

// OpenManifest returns the manifest of trashRoot. The file is created on the
// first append.
func OpenManifest(trashRoot string) *Manifest {
	return &Manifest{path: filepath.Join(trashRoot, ManifestName)}
}

// Path returns the manifest file path
func (m *Manifest) Path() string {
	return m.path
}

// Append writes one record
func (m *Manifest) Append(rec Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to encode manifest record: %w", err)
	}

	f, err := os.OpenFile(m.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0600)
	if err != nil {
		return fmt.Errorf("failed to open manifest: %w", err)
	}
	if _, err := f.Write(append(data, '\n')); err != nil {
		f.Close()
		return fmt.Errorf("failed to write manifest: %w", err)
	}
	return f.Close()
}

// Records returns every record in file order. A missing manifest is empty.
// Lines that do not decode are skipped.
func (m *Manifest) Records() ([]Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	f, err := os.Open(m.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to open manifest: %w", err)
	}
	defer f.Close()

	var records []Record
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		var rec Record
		if err := json.Unmarshal(scanner.Bytes(), &rec); err != nil {
			continue
		}
		records = append(records, rec)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}
	return records, nil
}

// Active returns trash records that have not been restored, oldest first
func (m *Manifest) Active() ([]Record, error) {
	records, err := m.Records()
	if err != nil {
		return nil, err
	}

	restored := make(map[string]bool)
	for _, rec := range records {
		if rec.Action == ActionRestore {
			restored[rec.ID] = true
		}
	}

	var active []Record
	for _, rec := range records {
		if rec.Action == ActionTrash && !restored[rec.ID] {
			active = append(active, rec)
		}
	}
	return active, nil
}

// Find returns the active record with the given id or id prefix
func (m *Manifest) Find(id string) (*Record, error) {
	active, err := m.Active()
	if err != nil {
		return nil, err
	}

	var match *Record
	for i := range active {
		rec := &active[i]
		if rec.ID == id {
			return rec, nil
		}
		if len(id) >= 8 && len(rec.ID) > len(id) && rec.ID[:len(id)] == id {
			if match != nil {
				return nil, fmt.Errorf("%w: %s is ambiguous", ErrRecordNotFound, id)
			}
			match = rec
		}
	}
	if match == nil {
		return nil, fmt.Errorf("%w: %s", ErrRecordNotFound, id)
	}
	return match, nil
}
