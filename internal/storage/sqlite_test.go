//go:build sqlite

package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"evoselect/internal/model"
)

func TestSQLiteStoreGenerationAndNotesRoundTrip(t *testing.T) {
	ctx := context.Background()
	dbPath := filepath.Join(t.TempDir(), "evoselect.db")

	store := NewSQLiteStore(dbPath)
	if err := store.Init(ctx); err != nil {
		t.Fatalf("init: %v", err)
	}
	t.Cleanup(func() {
		_ = store.Close()
	})

	generation := sampleGeneration("run-1", 3)
	if err := store.SaveGeneration(ctx, generation); err != nil {
		t.Fatalf("save generation: %v", err)
	}
	generation.BestID = "c2"
	if err := store.SaveGeneration(ctx, generation); err != nil {
		t.Fatalf("overwrite generation: %v", err)
	}

	loaded, ok, err := store.GetGeneration(ctx, "run-1", 3)
	if err != nil {
		t.Fatalf("get generation: %v", err)
	}
	if !ok {
		t.Fatal("expected generation")
	}
	if loaded.BestID != "c2" || len(loaded.Chromosomes) != 2 {
		t.Fatalf("unexpected generation loaded: %+v", loaded)
	}

	for i := 0; i < 3; i++ {
		note := model.PhaseNote{
			VersionedRecord: CurrentVersion(),
			RunID:           "run-1",
			Generation:      i,
			Phase:           "selected_parents",
			ChromosomeIDs:   []string{"c1"},
			Fitness:         []float64{0.75},
			CreatedAt:       time.Date(2026, 1, 1, 0, 0, i, 0, time.UTC),
		}
		if err := store.SavePhaseNote(ctx, note); err != nil {
			t.Fatalf("save note %d: %v", i, err)
		}
	}
	notes, err := store.ListPhaseNotes(ctx, "run-1")
	if err != nil {
		t.Fatalf("list notes: %v", err)
	}
	if len(notes) != 3 {
		t.Fatalf("unexpected note count: got=%d want=3", len(notes))
	}
	for i, note := range notes {
		if note.Generation != i {
			t.Fatalf("unexpected note order at %d: %+v", i, note)
		}
	}
}

func TestSQLiteStoreRequiresPath(t *testing.T) {
	if err := NewSQLiteStore("").Init(context.Background()); err == nil {
		t.Fatal("expected missing path error")
	}
}

func TestNewStoreSQLite(t *testing.T) {
	store, err := NewStore("sqlite", filepath.Join(t.TempDir(), "evoselect.db"))
	if err != nil {
		t.Fatalf("new sqlite store: %v", err)
	}
	if err := store.Init(context.Background()); err != nil {
		t.Fatalf("init: %v", err)
	}
	if err := CloseIfSupported(store); err != nil {
		t.Fatalf("close: %v", err)
	}
}
