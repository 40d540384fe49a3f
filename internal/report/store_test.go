package report

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func reportAt(at time.Time) *Report {
	r := Build("/h", []string{"user-caches", "downloads"}, sampleItems())
	r.GeneratedAt = at
	return r
}

func TestStoreSaveAndLoad(t *testing.T) {
	store, err := NewStore(filepath.Join(t.TempDir(), "reports"))
	if err != nil {
		t.Fatalf("NewStore failed: %v", err)
	}

	at := time.Date(2024, 3, 1, 10, 30, 0, 0, time.UTC)
	id, err := store.Save("nightly", reportAt(at))
	if err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if id != "nightly_20240301-103000" {
		t.Errorf("Save() id = %s", id)
	}

	loaded, err := store.Load(id)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if !loaded.GeneratedAt.Equal(at) || loaded.Totals.Bytes != 300 || len(loaded.Items) != 3 {
		t.Errorf("loaded report differs: %+v", loaded)
	}
}

func TestStoreLoadRejectsBadTotals(t *testing.T) {
	dir := t.TempDir()
	store, _ := NewStore(dir)

	bad := `{"generatedAt":"2024-03-01T10:30:00Z","home":"/h","totals":{"count":1,"bytes":5},"categories":[],"items":[]}`
	os.WriteFile(filepath.Join(dir, "bad.json"), []byte(bad), 0644)

	if _, err := store.Load("bad"); err == nil {
		t.Error("Load should reject a report whose totals do not match its items")
	}
	if _, err := store.Load("../bad"); err == nil {
		t.Error("Load should reject ids with path separators")
	}
}

func TestStoreListNewestFirst(t *testing.T) {
	dir := t.TempDir()
	store, _ := NewStore(dir)

	base := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	for _, d := range []int{2, 0, 1} {
		if _, err := store.Save("", reportAt(base.AddDate(0, 0, d))); err != nil {
			t.Fatal(err)
		}
	}
	os.WriteFile(filepath.Join(dir, "junk.json"), []byte("{"), 0644)
	os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0644)

	entries, err := store.List()
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("List() returned %d entries, want 3", len(entries))
	}
	for i := 1; i < len(entries); i++ {
		if entries[i].GeneratedAt.After(entries[i-1].GeneratedAt) {
			t.Errorf("entries not newest first: %v", entries)
		}
	}

	latest, err := store.Latest()
	if err != nil {
		t.Fatal(err)
	}
	if !latest.GeneratedAt.Equal(base.AddDate(0, 0, 2)) {
		t.Errorf("Latest() = %v", latest.GeneratedAt)
	}
}

func TestStoreLatestEmpty(t *testing.T) {
	store, _ := NewStore(t.TempDir())
	if _, err := store.Latest(); !errors.Is(err, ErrNoReports) {
		t.Errorf("Latest() error = %v, want ErrNoReports", err)
	}
}

func TestStorePrune(t *testing.T) {
	store, _ := NewStore(t.TempDir())
	now := time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC)

	store.Save("old", reportAt(now.AddDate(0, 0, -10)))
	store.Save("new", reportAt(now.AddDate(0, 0, -1)))

	if n, _ := store.Prune(0, now); n != 0 {
		t.Errorf("Prune(0) removed %d, want 0", n)
	}

	removed, err := store.Prune(7, now)
	if err != nil {
		t.Fatalf("Prune failed: %v", err)
	}
	if removed != 1 {
		t.Errorf("Prune(7) removed %d, want 1", removed)
	}

	entries, _ := store.List()
	if len(entries) != 1 || entries[0].ID != "new_20240330-000000" {
		t.Errorf("remaining entries = %+v", entries)
	}
}
