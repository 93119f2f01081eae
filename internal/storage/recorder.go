package storage

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"evoselect/internal/model"
	"evoselect/internal/phase"
)

// Recorder is a phase collector that turns every notification into a
// PhaseNote. Notes are held until Flush, so a run that fails before it
// leaves nothing in the store. Flush failures are logged and the first one is
// kept for Err.
type Recorder struct {
	ctx    context.Context
	store  Store
	runID  string
	logger *slog.Logger
	now    func() time.Time

	mu         sync.Mutex
	generation int
	pending    []model.PhaseNote
	err        error
}

func NewRecorder(ctx context.Context, store Store, runID string, logger *slog.Logger) *Recorder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Recorder{
		ctx:    ctx,
		store:  store,
		runID:  runID,
		logger: logger,
		now:    time.Now,
	}
}

// SetGeneration tags subsequent notes with the given generation number.
func (r *Recorder) SetGeneration(number int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.generation = number
}

func (r *Recorder) NoteChromosomesAtPhase(p phase.Phase, chromosomes []*model.Chromosome) {
	r.mu.Lock()
	defer r.mu.Unlock()

	note := model.PhaseNote{
		VersionedRecord: CurrentVersion(),
		RunID:           r.runID,
		Generation:      r.generation,
		Phase:           p.String(),
		ChromosomeIDs:   make([]string, 0, len(chromosomes)),
		Fitness:         make([]float64, 0, len(chromosomes)),
		CreatedAt:       r.now().UTC(),
	}
	for _, c := range chromosomes {
		if c == nil {
			continue
		}
		f, _ := c.Fitness()
		note.ChromosomeIDs = append(note.ChromosomeIDs, c.ID)
		note.Fitness = append(note.Fitness, f)
	}

	r.pending = append(r.pending, note)
}

// Flush persists the pending notes in notification order and returns the
// first failure. Notes that were saved are not retried.
func (r *Recorder) Flush() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for len(r.pending) > 0 {
		note := r.pending[0]
		if err := r.store.SavePhaseNote(r.ctx, note); err != nil {
			r.logger.Error("save phase note failed",
				"run_id", r.runID,
				"generation", note.Generation,
				"phase", note.Phase,
				"error", err,
			)
			if r.err == nil {
				r.err = err
			}
			return err
		}
		r.pending = r.pending[1:]
	}
	return nil
}

// Err returns the first persistence failure, if any.
func (r *Recorder) Err() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.err
}
