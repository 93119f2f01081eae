package model

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

var (
	ErrFitnessAlreadySet = errors.New("fitness already set")
	ErrEmptyGeneration   = errors.New("generation has no chromosomes")
	ErrNilChromosome     = errors.New("nil chromosome")
)

// Chromosome is a scored candidate solution. Chromosomes are always handled
// by pointer: two chromosomes with equal fitness are still distinct
// individuals.
type Chromosome struct {
	ID    string
	Genes []float64

	fitness   float64
	evaluated bool
}

func NewChromosome(genes []float64) *Chromosome {
	return &Chromosome{
		ID:    uuid.NewString(),
		Genes: append([]float64(nil), genes...),
	}
}

// NewEvaluatedChromosome builds a chromosome whose fitness is already known.
func NewEvaluatedChromosome(fitness float64, genes []float64) *Chromosome {
	c := NewChromosome(genes)
	c.fitness = fitness
	c.evaluated = true
	return c
}

// Fitness returns the assigned fitness and whether it has been set.
func (c *Chromosome) Fitness() (float64, bool) {
	return c.fitness, c.evaluated
}

func (c *Chromosome) Evaluated() bool {
	return c.evaluated
}

// SetFitness assigns the fitness once. Selection reads it several times per
// call, so it cannot change afterwards.
func (c *Chromosome) SetFitness(v float64) error {
	if c.evaluated {
		return fmt.Errorf("%w: chromosome %s", ErrFitnessAlreadySet, c.ID)
	}
	c.fitness = v
	c.evaluated = true
	return nil
}

func (c *Chromosome) Record() ChromosomeRecord {
	record := ChromosomeRecord{
		ID:    c.ID,
		Genes: append([]float64(nil), c.Genes...),
	}
	if c.evaluated {
		v := c.fitness
		record.Fitness = &v
	}
	return record
}

// ChromosomeFromRecord rebuilds a chromosome, keeping the persisted ID.
func ChromosomeFromRecord(record ChromosomeRecord) *Chromosome {
	c := &Chromosome{
		ID:    record.ID,
		Genes: append([]float64(nil), record.Genes...),
	}
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	if record.Fitness != nil {
		c.fitness = *record.Fitness
		c.evaluated = true
	}
	return c
}
