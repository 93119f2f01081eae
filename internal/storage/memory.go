package storage

import (
	"context"
	"errors"
	"sync"

	"evoselect/internal/model"
)

type generationKey struct {
	runID  string
	number int
}

type MemoryStore struct {
	mu          sync.RWMutex
	initialized bool
	generations map[generationKey]model.GenerationRecord
	notes       map[string][]model.PhaseNote
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Init(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.initialized = true
	s.generations = make(map[generationKey]model.GenerationRecord)
	s.notes = make(map[string][]model.PhaseNote)
	return nil
}

func (s *MemoryStore) SaveGeneration(_ context.Context, generation model.GenerationRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.initialized {
		return errors.New("store is not initialized")
	}
	s.generations[generationKey{runID: generation.RunID, number: generation.Number}] = cloneGeneration(generation)
	return nil
}

func (s *MemoryStore) GetGeneration(_ context.Context, runID string, number int) (model.GenerationRecord, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.initialized {
		return model.GenerationRecord{}, false, errors.New("store is not initialized")
	}
	generation, ok := s.generations[generationKey{runID: runID, number: number}]
	if !ok {
		return model.GenerationRecord{}, false, nil
	}
	return cloneGeneration(generation), true, nil
}

func (s *MemoryStore) SavePhaseNote(_ context.Context, note model.PhaseNote) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.initialized {
		return errors.New("store is not initialized")
	}
	s.notes[note.RunID] = append(s.notes[note.RunID], clonePhaseNote(note))
	return nil
}

func (s *MemoryStore) ListPhaseNotes(_ context.Context, runID string) ([]model.PhaseNote, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.initialized {
		return nil, errors.New("store is not initialized")
	}
	notes := s.notes[runID]
	copied := make([]model.PhaseNote, 0, len(notes))
	for _, note := range notes {
		copied = append(copied, clonePhaseNote(note))
	}
	return copied, nil
}

func cloneGeneration(g model.GenerationRecord) model.GenerationRecord {
	chromosomes := make([]model.ChromosomeRecord, 0, len(g.Chromosomes))
	for _, c := range g.Chromosomes {
		copied := model.ChromosomeRecord{ID: c.ID, Genes: append([]float64(nil), c.Genes...)}
		if c.Fitness != nil {
			v := *c.Fitness
			copied.Fitness = &v
		}
		chromosomes = append(chromosomes, copied)
	}
	g.Chromosomes = chromosomes
	return g
}

func clonePhaseNote(n model.PhaseNote) model.PhaseNote {
	n.ChromosomeIDs = append([]string(nil), n.ChromosomeIDs...)
	n.Fitness = append([]float64(nil), n.Fitness...)
	return n
}
