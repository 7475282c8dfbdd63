package storage

import (
	"path/filepath"
	"testing"
	"time"

	"zonaprop_scraper/models"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := NewSQLiteStore(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("NewSQLiteStore: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestSQLiteStore_RunLifecycle(t *testing.T) {
	store := newTestStore(t)

	run := &models.ScrapeRun{
		SiteID:     "zonaprop",
		SearchURL:  "https://example.test/casas-venta.html",
		StartedAt:  time.Now().Add(-time.Minute),
		Status:     models.RunStatusRunning,
		OutputPath: "data/out.csv",
	}
	id, err := store.CreateRun(run)
	if err != nil {
		t.Fatalf("CreateRun: %v", err)
	}
	run.ID = id

	now := time.Now()
	run.FinishedAt = &now
	run.Status = models.RunStatusCompleted
	run.ListingsFound = 45
	run.RowsExported = 45
	run.DetailErrors = 2
	if err := store.UpdateRun(run); err != nil {
		t.Fatalf("UpdateRun: %v", err)
	}

	last, err := store.LastRun("zonaprop")
	if err != nil {
		t.Fatalf("LastRun: %v", err)
	}
	if last == nil {
		t.Fatal("expected a run, got nil")
	}
	if last.ID != id || last.Status != models.RunStatusCompleted {
		t.Fatalf("unexpected run: %+v", last)
	}
	if last.RowsExported != 45 || last.DetailErrors != 2 {
		t.Fatalf("counters lost on update: %+v", last)
	}
	if last.FinishedAt == nil {
		t.Fatal("finished_at lost on update")
	}
}

func TestSQLiteStore_LastRunPicksMostRecent(t *testing.T) {
	store := newTestStore(t)

	older := &models.ScrapeRun{
		SiteID:    "zonaprop",
		StartedAt: time.Now().Add(-2 * time.Hour),
		Status:    models.RunStatusFailed,
	}
	if _, err := store.CreateRun(older); err != nil {
		t.Fatalf("CreateRun: %v", err)
	}
	newer := &models.ScrapeRun{
		SiteID:    "zonaprop",
		StartedAt: time.Now().Add(-time.Hour),
		Status:    models.RunStatusCompleted,
	}
	newerID, err := store.CreateRun(newer)
	if err != nil {
		t.Fatalf("CreateRun: %v", err)
	}

	last, err := store.LastRun("zonaprop")
	if err != nil {
		t.Fatalf("LastRun: %v", err)
	}
	if last == nil || last.ID != newerID {
		t.Fatalf("expected run %d, got %+v", newerID, last)
	}
}

func TestSQLiteStore_LastRunEmpty(t *testing.T) {
	store := newTestStore(t)

	last, err := store.LastRun("zonaprop")
	if err != nil {
		t.Fatalf("LastRun: %v", err)
	}
	if last != nil {
		t.Fatalf("expected nil for a fresh store, got %+v", last)
	}
}
