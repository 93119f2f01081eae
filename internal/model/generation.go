package model

import "fmt"

// Generation is an ordered set of chromosomes considered in one evolutionary
// iteration. The order defines wheel slot order during selection.
type Generation struct {
	Number      int
	Chromosomes []*Chromosome

	best *Chromosome
}

func NewGeneration(number int, chromosomes []*Chromosome) (*Generation, error) {
	if len(chromosomes) == 0 {
		return nil, ErrEmptyGeneration
	}
	for i, c := range chromosomes {
		if c == nil {
			return nil, fmt.Errorf("%w at index %d", ErrNilChromosome, i)
		}
	}
	return &Generation{
		Number:      number,
		Chromosomes: append([]*Chromosome(nil), chromosomes...),
	}, nil
}

// GenerationFromFitness builds a generation of evaluated chromosomes with the
// given fitness values, in order.
func GenerationFromFitness(number int, fitness []float64) (*Generation, error) {
	chromosomes := make([]*Chromosome, 0, len(fitness))
	for _, f := range fitness {
		chromosomes = append(chromosomes, NewEvaluatedChromosome(f, nil))
	}
	return NewGeneration(number, chromosomes)
}

// BestChromosome returns the chromosome with maximal fitness, the first one in
// sequence order on ties. Unevaluated chromosomes are skipped and nil is
// returned when none is evaluated. The answer is cached once every
// chromosome has a fitness.
func (g *Generation) BestChromosome() *Chromosome {
	if g.best != nil {
		return g.best
	}

	var best *Chromosome
	complete := true
	for _, c := range g.Chromosomes {
		f, ok := c.Fitness()
		if !ok {
			complete = false
			continue
		}
		if best == nil || f > best.fitness {
			best = c
		}
	}
	if complete {
		g.best = best
	}
	return best
}

func (g *Generation) Record(runID string) GenerationRecord {
	record := GenerationRecord{
		RunID:       runID,
		Number:      g.Number,
		Chromosomes: make([]ChromosomeRecord, 0, len(g.Chromosomes)),
	}
	for _, c := range g.Chromosomes {
		record.Chromosomes = append(record.Chromosomes, c.Record())
	}
	if best := g.BestChromosome(); best != nil {
		record.BestID = best.ID
	}
	return record
}

func GenerationFromRecord(record GenerationRecord) (*Generation, error) {
	chromosomes := make([]*Chromosome, 0, len(record.Chromosomes))
	for _, c := range record.Chromosomes {
		chromosomes = append(chromosomes, ChromosomeFromRecord(c))
	}
	return NewGeneration(record.Number, chromosomes)
}
