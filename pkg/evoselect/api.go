package evoselect

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"evoselect/internal/evo"
	"evoselect/internal/model"
	"evoselect/internal/phase"
	"evoselect/internal/random"
	"evoselect/internal/selection"
	"evoselect/internal/stats"
	"evoselect/internal/storage"
)

const defaultDBPath = "evoselect.db"

type Options struct {
	StoreKind string
	DBPath    string
	// ArtifactsDir enables per-run artifact files and the run index when set.
	ArtifactsDir string
	Logger       *slog.Logger
}

type Client struct {
	store        storage.Store
	artifactsDir string
	logger       *slog.Logger

	mu          sync.Mutex
	initialized bool
}

type SelectRequest struct {
	RunID        string
	Generation   int
	Fitness      []float64
	Number       int
	PreserveBest bool
	// Seed makes the single SUS draw reproducible; zero uses the process-wide
	// provider.
	Seed int64
}

type SelectedItem struct {
	Position int
	Index    int
	ID       string
	Fitness  float64
}

// CountItem is the selection count of one generation member against its
// floor/ceil bounds. Elite marks the best chromosome appended by
// PreserveBest; that extra pick is included in Count but not in the bounds.
type CountItem struct {
	Index   int
	ID      string
	Fitness float64
	Count   int
	Min     int
	Max     int
	Elite   bool
}

type SelectSummary struct {
	RunID        string
	Generation   int
	Requested    int
	Selected     []SelectedItem
	Counts       []CountItem
	Population   stats.Summary
	Parents      stats.Summary
	ArtifactsDir string
}

type CompareRequest struct {
	Fitness []float64
	Number  int
	Trials  int
	Seed    int64
}

type CompareRow struct {
	Index       int
	Fitness     float64
	Expected    float64
	SUSMin      int
	SUSMax      int
	RouletteMin int
	RouletteMax int
}

type CompareSummary struct {
	Trials             int
	Rows               []CompareRow
	SUSViolations      int
	RouletteViolations int
}

func New(opts Options) (*Client, error) {
	storeKind := opts.StoreKind
	if storeKind == "" {
		storeKind = storage.DefaultStoreKind()
	}
	dbPath := opts.DBPath
	if dbPath == "" {
		dbPath = defaultDBPath
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	store, err := storage.NewStore(storeKind, dbPath)
	if err != nil {
		return nil, err
	}

	return &Client{
		store:        store,
		artifactsDir: opts.ArtifactsDir,
		logger:       logger,
	}, nil
}

func (c *Client) Close() error {
	return storage.CloseIfSupported(c.store)
}

func (c *Client) Init(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.initialized {
		return nil
	}
	if err := c.store.Init(ctx); err != nil {
		return err
	}
	c.initialized = true
	return nil
}

// Select builds a generation from the requested fitness values, runs
// stochastic universal sampling over it and persists the generation and the
// phase notes of the run. Requests that fail validation or selection persist
// nothing.
func (c *Client) Select(ctx context.Context, req SelectRequest) (SelectSummary, error) {
	if err := c.Init(ctx); err != nil {
		return SelectSummary{}, err
	}
	generation, err := model.GenerationFromFitness(req.Generation, req.Fitness)
	if err != nil {
		return SelectSummary{}, fmt.Errorf("%w: %v", selection.ErrInvalidArgument, err)
	}
	runID := req.RunID
	if runID == "" {
		runID = uuid.NewString()
	}

	bounds, err := selection.ExpectedCounts(req.Number, generation)
	if err != nil {
		return SelectSummary{}, err
	}

	var provider random.Provider
	if req.Seed != 0 {
		provider = random.NewSeeded(req.Seed)
	}
	selector := selection.NewStochasticUniversalSampling(provider, req.PreserveBest)

	collector := stats.NewCollector()
	recorder := storage.NewRecorder(ctx, c.store, runID, c.logger)
	recorder.SetGeneration(req.Generation)
	observers := phase.Multi{collector, recorder}

	driver, err := evo.NewParentSelector(evo.ParentSelectorConfig{
		Selector:  selector,
		Collector: observers,
		Logger:    c.logger,
	})
	if err != nil {
		return SelectSummary{}, err
	}

	observers.NoteChromosomesAtPhase(phase.Beginning, generation.Chromosomes)
	parents, err := driver.SelectParents(ctx, req.Number, generation)
	if err != nil {
		return SelectSummary{}, err
	}

	record := generation.Record(runID)
	record.VersionedRecord = storage.CurrentVersion()
	if err := c.store.SaveGeneration(ctx, record); err != nil {
		return SelectSummary{}, fmt.Errorf("save generation: %w", err)
	}
	if err := recorder.Flush(); err != nil {
		return SelectSummary{}, fmt.Errorf("record phase notes: %w", err)
	}

	summary := SelectSummary{
		RunID:      runID,
		Generation: req.Generation,
		Requested:  req.Number,
		Selected:   selectedItems(generation, parents),
		Counts:     countItems(generation, parents, req.Number, bounds),
	}
	summary.Population, _ = collector.Summary(phase.Beginning)
	summary.Parents, _ = collector.Summary(phase.SelectedParents)

	if c.artifactsDir != "" {
		dir, err := c.writeArtifacts(summary, parents, selector, collector, req.Seed)
		if err != nil {
			return SelectSummary{}, err
		}
		summary.ArtifactsDir = dir
	}

	c.logger.Info("selection complete",
		"run_id", runID,
		"generation", req.Generation,
		"requested", req.Number,
		"selected", len(parents),
		"preserve_best", req.PreserveBest,
	)
	return summary, nil
}

// Compare runs stochastic universal sampling and plain roulette-wheel
// selection over the same generation for many trials and reports the observed
// count range per chromosome against its floor/ceil bounds.
func (c *Client) Compare(_ context.Context, req CompareRequest) (CompareSummary, error) {
	if req.Trials <= 0 {
		return CompareSummary{}, fmt.Errorf("%w: trials must be > 0", selection.ErrInvalidArgument)
	}
	generation, err := model.GenerationFromFitness(0, req.Fitness)
	if err != nil {
		return CompareSummary{}, fmt.Errorf("%w: %v", selection.ErrInvalidArgument, err)
	}
	bounds, err := selection.ExpectedCounts(req.Number, generation)
	if err != nil {
		return CompareSummary{}, err
	}

	provider := random.NewSeeded(req.Seed)
	sus := selection.NewStochasticUniversalSampling(provider, false)
	roulette := selection.NewRouletteWheel(provider)

	total := 0.0
	for _, f := range req.Fitness {
		total += f
	}
	rows := make([]CompareRow, len(generation.Chromosomes))
	for i, f := range req.Fitness {
		rows[i] = CompareRow{
			Index:       i,
			Fitness:     f,
			Expected:    f * float64(req.Number) / total,
			SUSMin:      -1,
			RouletteMin: -1,
		}
	}

	out := CompareSummary{Trials: req.Trials}
	for trial := 0; trial < req.Trials; trial++ {
		susParents, err := sus.Select(req.Number, generation)
		if err != nil {
			return CompareSummary{}, err
		}
		rouletteParents, err := roulette.Select(req.Number, generation)
		if err != nil {
			return CompareSummary{}, err
		}
		susCounts := stats.CountsFor(generation, susParents)
		rouletteCounts := stats.CountsFor(generation, rouletteParents)
		for i := range rows {
			rows[i].SUSMin, rows[i].SUSMax = widen(rows[i].SUSMin, rows[i].SUSMax, susCounts[i])
			rows[i].RouletteMin, rows[i].RouletteMax = widen(rows[i].RouletteMin, rows[i].RouletteMax, rouletteCounts[i])
			if outside(bounds[i], susCounts[i]) {
				out.SUSViolations++
			}
			if outside(bounds[i], rouletteCounts[i]) {
				out.RouletteViolations++
			}
		}
	}
	out.Rows = rows
	return out, nil
}

// Notes lists the persisted phase notes of a run in notification order.
func (c *Client) Notes(ctx context.Context, runID string) ([]model.PhaseNote, error) {
	if runID == "" {
		return nil, errors.New("run id is required")
	}
	if err := c.Init(ctx); err != nil {
		return nil, err
	}
	return c.store.ListPhaseNotes(ctx, runID)
}

// Generation loads a persisted generation and recomputes its best chromosome
// from the stored fitness values.
func (c *Client) Generation(ctx context.Context, runID string, number int) (model.GenerationRecord, error) {
	if runID == "" {
		return model.GenerationRecord{}, errors.New("run id is required")
	}
	if err := c.Init(ctx); err != nil {
		return model.GenerationRecord{}, err
	}
	record, ok, err := c.store.GetGeneration(ctx, runID, number)
	if err != nil {
		return model.GenerationRecord{}, err
	}
	if !ok {
		return model.GenerationRecord{}, fmt.Errorf("generation not found: run=%s generation=%d", runID, number)
	}

	generation, err := model.GenerationFromRecord(record)
	if err != nil {
		return model.GenerationRecord{}, fmt.Errorf("decode generation: run=%s generation=%d: %w", runID, number, err)
	}
	record.BestID = ""
	if best := generation.BestChromosome(); best != nil {
		record.BestID = best.ID
	}
	return record, nil
}

// Runs lists the run index of the artifacts directory, newest first.
func (c *Client) Runs(_ context.Context, limit int) ([]stats.RunIndexEntry, error) {
	if c.artifactsDir == "" {
		return nil, errors.New("artifacts directory is not configured")
	}
	entries, err := stats.ListRunIndex(c.artifactsDir)
	if err != nil {
		return nil, err
	}
	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}
	return entries, nil
}

// RunDetail is the configuration and selection order written for one run.
type RunDetail struct {
	Config   stats.RunConfig
	Selected []stats.SelectedEntry
}

// Run reads the artifacts of one run back from the artifacts directory.
func (c *Client) Run(_ context.Context, runID string) (RunDetail, error) {
	if c.artifactsDir == "" {
		return RunDetail{}, errors.New("artifacts directory is not configured")
	}
	if runID == "" {
		return RunDetail{}, errors.New("run id is required")
	}
	cfg, ok, err := stats.ReadRunConfig(c.artifactsDir, runID)
	if err != nil {
		return RunDetail{}, err
	}
	if !ok {
		return RunDetail{}, fmt.Errorf("run artifacts not found: %s", runID)
	}
	selected, ok, err := stats.ReadSelected(c.artifactsDir, runID)
	if err != nil {
		return RunDetail{}, err
	}
	if !ok {
		return RunDetail{}, fmt.Errorf("selected.csv not found for run %s", runID)
	}
	return RunDetail{Config: cfg, Selected: selected}, nil
}

func (c *Client) writeArtifacts(summary SelectSummary, parents []*model.Chromosome, selector selection.Selector, collector *stats.Collector, seed int64) (string, error) {
	selected := make([]stats.SelectedEntry, 0, len(summary.Selected))
	for _, item := range summary.Selected {
		selected = append(selected, stats.SelectedEntry{
			Position: item.Position,
			Index:    item.Index,
			ID:       item.ID,
			Fitness:  item.Fitness,
		})
	}
	dir, err := stats.WriteRunArtifacts(c.artifactsDir, stats.RunArtifacts{
		Config: stats.RunConfig{
			RunID:        summary.RunID,
			Generation:   summary.Generation,
			Selection:    selector.Name(),
			Chromosomes:  len(summary.Counts),
			Number:       summary.Requested,
			PreserveBest: isPreserveBest(selector),
			Seed:         seed,
		},
		Selected:  selected,
		Counts:    stats.Tally(parents),
		Summaries: collector.Summaries(),
	})
	if err != nil {
		return "", fmt.Errorf("write artifacts: %w", err)
	}

	err = stats.AppendRunIndex(c.artifactsDir, stats.RunIndexEntry{
		RunID:        summary.RunID,
		Generation:   summary.Generation,
		Number:       summary.Requested,
		Selected:     len(summary.Selected),
		PreserveBest: isPreserveBest(selector),
		CreatedAtUTC: time.Now().UTC().Format(time.RFC3339Nano),
	})
	if err != nil {
		return "", fmt.Errorf("append run index: %w", err)
	}
	return dir, nil
}

func isPreserveBest(selector selection.Selector) bool {
	sus, ok := selector.(*selection.StochasticUniversalSampling)
	return ok && sus.PreserveBest
}

func selectedItems(generation *model.Generation, parents []*model.Chromosome) []SelectedItem {
	index := make(map[*model.Chromosome]int, len(generation.Chromosomes))
	for i, c := range generation.Chromosomes {
		index[c] = i
	}
	items := make([]SelectedItem, 0, len(parents))
	for pos, c := range parents {
		f, _ := c.Fitness()
		items = append(items, SelectedItem{Position: pos, Index: index[c], ID: c.ID, Fitness: f})
	}
	return items
}

func countItems(generation *model.Generation, parents []*model.Chromosome, number int, bounds []selection.CountBounds) []CountItem {
	counts := stats.CountsFor(generation, parents)
	var elite *model.Chromosome
	if len(parents) > number {
		elite = parents[len(parents)-1]
	}
	items := make([]CountItem, 0, len(generation.Chromosomes))
	for i, c := range generation.Chromosomes {
		f, _ := c.Fitness()
		items = append(items, CountItem{
			Index:   i,
			ID:      c.ID,
			Fitness: f,
			Count:   counts[i],
			Min:     bounds[i].Min,
			Max:     bounds[i].Max,
			Elite:   c == elite,
		})
	}
	return items
}

func widen(lo, hi, v int) (int, int) {
	if lo < 0 || v < lo {
		lo = v
	}
	if v > hi {
		hi = v
	}
	return lo, hi
}

func outside(b selection.CountBounds, v int) bool {
	return v < b.Min || v > b.Max
}
