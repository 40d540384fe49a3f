// Package trash moves files into a reversible holding area and restores
// them from it.
package trash

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/fenilsonani/homesweep/internal/logger"
	"github.com/fenilsonani/homesweep/internal/security"
)

// timestampLayout is the collision suffix, second granularity
const timestampLayout = "20060102-150405"

var (
	// ErrRecordNotFound is returned when no active manifest record matches
	ErrRecordNotFound = errors.New("trash record not found")
	// ErrRestoreConflict is returned when the original path is occupied
	ErrRestoreConflict = errors.New("original path already exists")
	// ErrRestoreDenied is returned when the original path fails the policy
	ErrRestoreDenied = errors.New("original path is not allowed by policy")
)

// Meta describes the item being moved, for the manifest
type Meta struct {
	Category string
	Bytes    int64
}

// Mover relocates paths into a trash root. Moves through one Mover are
// serialized; the naming scheme assumes a single writer per trash root.
type Mover struct {
	mu  sync.Mutex
	now func() time.Time
	log *logger.Logger
}

// NewMover creates a Mover
func NewMover(log *logger.Logger) *Mover {
	return &Mover{now: time.Now, log: log}
}

// MoveToTrash moves path into trashRoot and returns the destination
func (m *Mover) MoveToTrash(path, trashRoot string) (string, error) {
	rec, err := m.Move(path, trashRoot, Meta{})
	if err != nil {
		return "", err
	}
	return rec.TrashPath, nil
}

// Move moves path into trashRoot keeping its base name. On collision a
// timestamp is inserted before the extension, then a counter if the
// timestamped name is also taken. Successful moves are recorded in the
// trash root's manifest.
func (m *Mover) Move(path, trashRoot string, meta Meta) (*Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := os.MkdirAll(trashRoot, 0700); err != nil {
		return nil, fmt.Errorf("failed to create trash directory: %w", err)
	}

	dest, err := m.destination(filepath.Base(path), trashRoot)
	if err != nil {
		return nil, err
	}
	if err := os.Rename(path, dest); err != nil {
		return nil, fmt.Errorf("failed to move to trash: %w", err)
	}

	rec := &Record{
		ID:           uuid.NewString(),
		Action:       ActionTrash,
		OriginalPath: path,
		TrashPath:    dest,
		Bytes:        meta.Bytes,
		Category:     meta.Category,
		Time:         m.now().UTC(),
	}
	if err := OpenManifest(trashRoot).Append(*rec); err != nil {
		// The move already happened; losing the record only loses restore
		m.log.Warn("trashed %s but could not record it: %v", path, err)
	}
	return rec, nil
}

// destination picks a free name for base inside trashRoot
func (m *Mover) destination(base, trashRoot string) (string, error) {
	candidate := filepath.Join(trashRoot, base)
	free, err := isFree(candidate)
	if err != nil || free {
		return candidate, err
	}

	stem, ext := splitExt(base)
	stamped := stem + "-" + m.now().Format(timestampLayout)

	candidate = filepath.Join(trashRoot, stamped+ext)
	for n := 1; ; n++ {
		free, err := isFree(candidate)
		if err != nil || free {
			return candidate, err
		}
		candidate = filepath.Join(trashRoot, stamped+"-"+strconv.Itoa(n)+ext)
	}
}

// Restore moves the trashed entry with the given record id back to its
// original path. The original must be free and still pass the policy.
func (m *Mover) Restore(id, trashRoot, home string, policy *security.Policy) (*Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	manifest := OpenManifest(trashRoot)
	rec, err := manifest.Find(id)
	if err != nil {
		return nil, err
	}

	if !policy.Evaluate(rec.OriginalPath, home).Allowed() {
		return nil, fmt.Errorf("%w: %s", ErrRestoreDenied, rec.OriginalPath)
	}
	free, err := isFree(rec.OriginalPath)
	if err != nil {
		return nil, err
	}
	if !free {
		return nil, fmt.Errorf("%w: %s", ErrRestoreConflict, rec.OriginalPath)
	}
	if _, err := os.Lstat(rec.TrashPath); err != nil {
		return nil, fmt.Errorf("trashed entry is gone: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(rec.OriginalPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to recreate parent directory: %w", err)
	}
	if err := os.Rename(rec.TrashPath, rec.OriginalPath); err != nil {
		return nil, fmt.Errorf("failed to restore: %w", err)
	}

	restored := *rec
	restored.Action = ActionRestore
	restored.Time = m.now().UTC()
	if err := manifest.Append(restored); err != nil {
		m.log.Warn("restored %s but could not record it: %v", rec.OriginalPath, err)
	}
	return &restored, nil
}

// List returns the entries currently held in trashRoot
func (m *Mover) List(trashRoot string) ([]Record, error) {
	return OpenManifest(trashRoot).Active()
}

func isFree(path string) (bool, error) {
	_, err := os.Lstat(path)
	if err == nil {
		return false, nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		return true, nil
	}
	return false, err
}

// splitExt splits "archive.tar.gz" into "archive.tar" and ".gz". Dotfiles
// without a further extension keep their whole name as the stem.
func splitExt(base string) (string, string) {
	ext := filepath.Ext(base)
	stem := strings.TrimSuffix(base, ext)
	if stem == "" || stem == "." {
		return base, ""
	}
	return stem, ext
}
