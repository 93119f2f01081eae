package storage

import (
	"context"
	"testing"
	"time"

	"evoselect/internal/model"
)

func sampleGeneration(runID string, number int) model.GenerationRecord {
	fitness := 0.75
	return model.GenerationRecord{
		VersionedRecord: CurrentVersion(),
		RunID:           runID,
		Number:          number,
		Chromosomes: []model.ChromosomeRecord{
			{ID: "c1", Fitness: &fitness, Genes: []float64{0.1, 0.2}},
			{ID: "c2"},
		},
		BestID: "c1",
	}
}

func TestMemoryStoreGenerationRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	if err := store.Init(ctx); err != nil {
		t.Fatalf("init: %v", err)
	}

	input := sampleGeneration("run-1", 2)
	if err := store.SaveGeneration(ctx, input); err != nil {
		t.Fatalf("save generation: %v", err)
	}
	*input.Chromosomes[0].Fitness = 99
	input.Chromosomes[0].Genes[0] = 99

	output, ok, err := store.GetGeneration(ctx, "run-1", 2)
	if err != nil {
		t.Fatalf("get generation: %v", err)
	}
	if !ok {
		t.Fatal("expected persisted generation")
	}
	if len(output.Chromosomes) != 2 || output.Chromosomes[0].ID != "c1" || output.BestID != "c1" {
		t.Fatalf("unexpected generation: %+v", output)
	}
	if *output.Chromosomes[0].Fitness != 0.75 || output.Chromosomes[0].Genes[0] != 0.1 {
		t.Fatal("expected stored generation to be isolated from caller mutation")
	}
	if output.Chromosomes[1].Fitness != nil {
		t.Fatal("expected unevaluated chromosome to stay without fitness")
	}

	if _, ok, err := store.GetGeneration(ctx, "run-1", 3); ok || err != nil {
		t.Fatalf("expected missing generation: ok=%t err=%v", ok, err)
	}
}

func TestMemoryStorePhaseNotesKeepOrder(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	if err := store.Init(ctx); err != nil {
		t.Fatalf("init: %v", err)
	}

	for i, p := range []string{"beginning", "selected_parents"} {
		note := model.PhaseNote{
			VersionedRecord: CurrentVersion(),
			RunID:           "run-1",
			Generation:      i,
			Phase:           p,
			ChromosomeIDs:   []string{"c1"},
			Fitness:         []float64{1},
			CreatedAt:       time.Date(2026, 1, 1, 0, 0, i, 0, time.UTC),
		}
		if err := store.SavePhaseNote(ctx, note); err != nil {
			t.Fatalf("save note: %v", err)
		}
	}

	notes, err := store.ListPhaseNotes(ctx, "run-1")
	if err != nil {
		t.Fatalf("list notes: %v", err)
	}
	if len(notes) != 2 || notes[0].Phase != "beginning" || notes[1].Phase != "selected_parents" {
		t.Fatalf("unexpected notes: %+v", notes)
	}

	other, err := store.ListPhaseNotes(ctx, "run-2")
	if err != nil {
		t.Fatalf("list other notes: %v", err)
	}
	if len(other) != 0 {
		t.Fatalf("expected no notes for other run, got %d", len(other))
	}
}

func TestMemoryStoreRequiresInit(t *testing.T) {
	store := NewMemoryStore()
	if err := store.SaveGeneration(context.Background(), sampleGeneration("run-1", 1)); err == nil {
		t.Fatal("expected uninitialized store error")
	}
}
