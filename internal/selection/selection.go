package selection

import (
	"math"

	"evoselect/internal/model"
	"evoselect/internal/random"
)

// Selector chooses parents from a scored generation.
type Selector interface {
	Name() string
	Select(number int, generation *model.Generation) ([]*model.Chromosome, error)
}

// RouletteWheel is fitness-proportionate selection with one independent draw
// per selected chromosome.
type RouletteWheel struct {
	Random random.Provider
}

func NewRouletteWheel(provider random.Provider) *RouletteWheel {
	return &RouletteWheel{Random: provider}
}

func (*RouletteWheel) Name() string {
	return "roulette_wheel"
}

func (s *RouletteWheel) Select(number int, generation *model.Generation) ([]*model.Chromosome, error) {
	if err := validateRequest(number, generation); err != nil {
		return nil, err
	}
	wheel, err := BuildWheel(generation.Chromosomes)
	if err != nil {
		return nil, err
	}
	rng := random.Or(s.Random)
	return SelectFromWheel(number, generation.Chromosomes, wheel, rng.GetDouble), nil
}

// StochasticUniversalSampling spins the wheel once and places number equally
// spaced pointers from that offset. Each chromosome is selected either
// floor(share*number) or ceil(share*number) times.
//
// With PreserveBest set, the best chromosome of the generation is appended
// when the walk did not pick it, so the result holds number or number+1
// chromosomes. Membership is checked by identity, not by fitness value.
type StochasticUniversalSampling struct {
	Random       random.Provider
	PreserveBest bool
}

func NewStochasticUniversalSampling(provider random.Provider, preserveBest bool) *StochasticUniversalSampling {
	return &StochasticUniversalSampling{Random: provider, PreserveBest: preserveBest}
}

func (*StochasticUniversalSampling) Name() string {
	return "stochastic_universal_sampling"
}

func (s *StochasticUniversalSampling) Select(number int, generation *model.Generation) ([]*model.Chromosome, error) {
	if err := validateRequest(number, generation); err != nil {
		return nil, err
	}
	running, err := cumulativeFitness(generation.Chromosomes)
	if err != nil {
		return nil, err
	}

	first, phase := combStart(random.Or(s.Random).GetDouble(), number)
	wheel := combWheel(running, number, phase)
	selected := SelectFromWheel(number, generation.Chromosomes, wheel, combPointers(first, number))

	if s.PreserveBest {
		best := generation.BestChromosome()
		if best != nil && !containsChromosome(selected, best) {
			selected = append(selected, best)
		}
	}
	return selected, nil
}

// combStart splits the first pointer, offset*number in comb steps, into its
// whole step and the phase shared by every pointer of the comb.
func combStart(offset float64, number int) (int, float64) {
	position := offset * float64(number)
	if limit := math.Nextafter(float64(number), 0); position > limit {
		position = limit
	}
	if position < 0 {
		position = 0
	}
	first := math.Floor(position)
	return int(first), position - first
}

// combPointers returns the whole comb steps first, first+1, ... wrapped into
// [0, number).
func combPointers(first, number int) PointerFunc {
	step := first
	return func() float64 {
		if step >= number {
			step -= number
		}
		current := step
		step++
		return float64(current)
	}
}

func containsChromosome(chromosomes []*model.Chromosome, target *model.Chromosome) bool {
	for _, c := range chromosomes {
		if c == target {
			return true
		}
	}
	return false
}
