package storage

import (
	"context"

	"evoselect/internal/model"
)

// Store defines persistence for generation snapshots and phase notes.
type Store interface {
	Init(ctx context.Context) error
	SaveGeneration(ctx context.Context, generation model.GenerationRecord) error
	GetGeneration(ctx context.Context, runID string, number int) (model.GenerationRecord, bool, error)
	SavePhaseNote(ctx context.Context, note model.PhaseNote) error
	ListPhaseNotes(ctx context.Context, runID string) ([]model.PhaseNote, error)
}
