package selection

import (
	"fmt"
	"math"
	"sort"

	"evoselect/internal/model"
)

// Wheel holds cumulative slot boundaries in chromosome order. Chromosome i
// owns the half-open slot [wheel[i-1], wheel[i]). BuildWheel produces
// fitness shares ending at 1.0; the comb wheel used by stochastic universal
// sampling is measured in comb steps instead.
type Wheel []float64

// PointerFunc yields the next pointer on a wheel's scale.
type PointerFunc func() float64

// boundaryTolerance is the distance, per comb tooth, under which a slot
// boundary counts as sitting exactly on a comb pointer. It absorbs the
// rounding of fitness sums.
const boundaryTolerance = 1e-11

// BuildWheel validates the fitness of every chromosome and returns the
// cumulative wheel. Entries are the running fitness sum divided by the total,
// so the last entry is exactly 1.0.
func BuildWheel(chromosomes []*model.Chromosome) (Wheel, error) {
	running, err := cumulativeFitness(chromosomes)
	if err != nil {
		return nil, err
	}
	total := running[len(running)-1]
	wheel := make(Wheel, len(running))
	for i, sum := range running {
		wheel[i] = sum / total
	}
	return wheel, nil
}

// combWheel rescales the running fitness sums to the steps of a comb with number
// teeth whose pointers sit at phase, phase+1, ... On the returned wheel those
// pointers are the integers 0..number-1. A boundary within boundaryTolerance
// of an integer is moved onto it, so a pointer that lands on a slot boundary
// in exact arithmetic is not pushed across it by rounding.
func combWheel(running []float64, number int, phase float64) Wheel {
	steps := float64(number)
	total := running[len(running)-1]
	wheel := make(Wheel, len(running))
	for i, sum := range running {
		wheel[i] = snapToInteger(sum*steps/total-phase, steps)
	}
	return wheel
}

func snapToInteger(v, steps float64) float64 {
	if r := math.Round(v); math.Abs(v-r) <= boundaryTolerance*steps {
		return r
	}
	return v
}

func cumulativeFitness(chromosomes []*model.Chromosome) ([]float64, error) {
	if len(chromosomes) == 0 {
		return nil, fmt.Errorf("%w: no chromosomes", ErrInvalidArgument)
	}

	running := make([]float64, len(chromosomes))
	total := 0.0
	for i, c := range chromosomes {
		if c == nil {
			return nil, fmt.Errorf("%w: nil chromosome at index %d", ErrInvalidArgument, i)
		}
		f, ok := c.Fitness()
		switch {
		case !ok:
			return nil, fmt.Errorf("%w: chromosome %s at index %d is not evaluated", ErrInvalidFitness, c.ID, i)
		case math.IsNaN(f) || math.IsInf(f, 0):
			return nil, fmt.Errorf("%w: chromosome %s at index %d has non-finite fitness %v", ErrInvalidFitness, c.ID, i, f)
		case f < 0:
			return nil, fmt.Errorf("%w: chromosome %s at index %d has negative fitness %v", ErrInvalidFitness, c.ID, i, f)
		}
		total += f
		running[i] = total
	}
	if math.IsInf(total, 0) {
		return nil, fmt.Errorf("%w: total fitness overflows", ErrInvalidFitness)
	}
	if total == 0 {
		return nil, ErrDegenerateFitness
	}
	return running, nil
}

// Index maps a pointer to the smallest slot i with p < wheel[i]. Pointers at or
// past the last entry land on the last non-empty slot, so zero-fitness
// chromosomes are never chosen and the index stays in range.
func (w Wheel) Index(p float64) int {
	i := sort.Search(len(w), func(i int) bool { return p < w[i] })
	if i < len(w) {
		return i
	}
	for i = len(w) - 1; i > 0; i-- {
		if w[i] > w[i-1] {
			return i
		}
	}
	return 0
}

// SelectFromWheel walks the wheel once per requested chromosome, asking next
// for each pointer.
func SelectFromWheel(number int, chromosomes []*model.Chromosome, wheel Wheel, next PointerFunc) []*model.Chromosome {
	selected := make([]*model.Chromosome, 0, number+1)
	for i := 0; i < number; i++ {
		selected = append(selected, chromosomes[wheel.Index(next())])
	}
	return selected
}

// CountBounds is the floor/ceil range of the expected selection count of a
// chromosome.
type CountBounds struct {
	Min int
	Max int
}

// ExpectedCounts returns, per chromosome, the floor and ceil of number times
// its fitness share. A product within boundaryTolerance of an integer is that
// integer, matching the comb wheel.
func ExpectedCounts(number int, generation *model.Generation) ([]CountBounds, error) {
	if err := validateRequest(number, generation); err != nil {
		return nil, err
	}
	running, err := cumulativeFitness(generation.Chromosomes)
	if err != nil {
		return nil, err
	}

	total := running[len(running)-1]
	steps := float64(number)
	bounds := make([]CountBounds, len(generation.Chromosomes))
	for i, c := range generation.Chromosomes {
		f, _ := c.Fitness()
		expected := snapToInteger(f*steps/total, steps)
		bounds[i] = CountBounds{Min: int(math.Floor(expected)), Max: int(math.Ceil(expected))}
	}
	return bounds, nil
}

func validateRequest(number int, generation *model.Generation) error {
	if number <= 0 {
		return fmt.Errorf("%w: number must be > 0, got %d", ErrInvalidArgument, number)
	}
	if generation == nil {
		return fmt.Errorf("%w: generation is required", ErrInvalidArgument)
	}
	if len(generation.Chromosomes) == 0 {
		return fmt.Errorf("%w: generation %d has no chromosomes", ErrInvalidArgument, generation.Number)
	}
	return nil
}
