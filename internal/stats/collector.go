package stats

import (
	"math"
	"sort"
	"sync"

	"gonum.org/v1/gonum/stat"

	"evoselect/internal/model"
	"evoselect/internal/phase"
)

// Summary describes the fitness of the chromosomes noted at a phase.
type Summary struct {
	Phase         string  `json:"phase"`
	Notifications int     `json:"notifications"`
	Count         int     `json:"count"`
	Distinct      int     `json:"distinct"`
	Mean          float64 `json:"mean"`
	StdDev        float64 `json:"std_dev"`
	Min           float64 `json:"min"`
	Max           float64 `json:"max"`
}

// Collector keeps the latest chromosomes noted per single phase. A combined
// phase notification is recorded under each of its bits.
type Collector struct {
	mu    sync.RWMutex
	notes map[phase.Phase][]*model.Chromosome
	calls map[phase.Phase]int
}

func NewCollector() *Collector {
	return &Collector{
		notes: make(map[phase.Phase][]*model.Chromosome),
		calls: make(map[phase.Phase]int),
	}
}

func (c *Collector) NoteChromosomesAtPhase(p phase.Phase, chromosomes []*model.Chromosome) {
	c.mu.Lock()
	defer c.mu.Unlock()

	copied := append([]*model.Chromosome(nil), chromosomes...)
	for _, single := range p.Split() {
		c.notes[single] = copied
		c.calls[single]++
	}
}

// Chromosomes returns the last chromosomes noted at p.
func (c *Collector) Chromosomes(p phase.Phase) ([]*model.Chromosome, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	noted, ok := c.notes[p]
	if !ok {
		return nil, false
	}
	return append([]*model.Chromosome(nil), noted...), true
}

// Notifications reports how many times p was noted.
func (c *Collector) Notifications(p phase.Phase) int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.calls[p]
}

func (c *Collector) Summary(p phase.Phase) (Summary, bool) {
	noted, ok := c.Chromosomes(p)
	if !ok {
		return Summary{}, false
	}
	summary := Summarize(noted)
	summary.Phase = p.String()
	summary.Notifications = c.Notifications(p)
	return summary, true
}

// Summaries returns one summary per noted phase in lifecycle order.
func (c *Collector) Summaries() []Summary {
	c.mu.RLock()
	phases := make([]phase.Phase, 0, len(c.notes))
	for p := range c.notes {
		phases = append(phases, p)
	}
	c.mu.RUnlock()

	sort.Slice(phases, func(i, j int) bool { return phases[i] < phases[j] })
	out := make([]Summary, 0, len(phases))
	for _, p := range phases {
		if s, ok := c.Summary(p); ok {
			out = append(out, s)
		}
	}
	return out
}

// Summarize computes fitness statistics over the evaluated chromosomes.
func Summarize(chromosomes []*model.Chromosome) Summary {
	fitness := make([]float64, 0, len(chromosomes))
	distinct := make(map[*model.Chromosome]struct{}, len(chromosomes))
	for _, c := range chromosomes {
		if c == nil {
			continue
		}
		distinct[c] = struct{}{}
		if f, ok := c.Fitness(); ok {
			fitness = append(fitness, f)
		}
	}

	summary := Summary{Count: len(chromosomes), Distinct: len(distinct)}
	if len(fitness) == 0 {
		return summary
	}
	summary.Mean, summary.StdDev = stat.MeanStdDev(fitness, nil)
	if len(fitness) < 2 {
		summary.StdDev = 0
	}
	summary.Min, summary.Max = math.Inf(1), math.Inf(-1)
	for _, f := range fitness {
		summary.Min = math.Min(summary.Min, f)
		summary.Max = math.Max(summary.Max, f)
	}
	return summary
}

// TallyEntry counts how often one chromosome appears in a selection.
type TallyEntry struct {
	ID      string  `json:"id"`
	Fitness float64 `json:"fitness"`
	Count   int     `json:"count"`
}

// Tally counts occurrences by identity, in first-seen order.
func Tally(chromosomes []*model.Chromosome) []TallyEntry {
	index := make(map[*model.Chromosome]int, len(chromosomes))
	out := make([]TallyEntry, 0, len(chromosomes))
	for _, c := range chromosomes {
		if c == nil {
			continue
		}
		if i, ok := index[c]; ok {
			out[i].Count++
			continue
		}
		f, _ := c.Fitness()
		index[c] = len(out)
		out = append(out, TallyEntry{ID: c.ID, Fitness: f, Count: 1})
	}
	return out
}

// CountsFor returns how often each generation member appears in selected, in
// generation order.
func CountsFor(generation *model.Generation, selected []*model.Chromosome) []int {
	index := make(map[*model.Chromosome]int, len(generation.Chromosomes))
	for i, c := range generation.Chromosomes {
		index[c] = i
	}
	counts := make([]int, len(generation.Chromosomes))
	for _, c := range selected {
		if i, ok := index[c]; ok {
			counts[i]++
		}
	}
	return counts
}
