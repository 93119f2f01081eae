package selection

import (
	"errors"
	"math"
	"testing"

	"evoselect/internal/model"
	"evoselect/internal/random"
)

func newGeneration(t *testing.T, fitness ...float64) *model.Generation {
	t.Helper()
	gen, err := model.GenerationFromFitness(1, fitness)
	if err != nil {
		t.Fatalf("new generation: %v", err)
	}
	return gen
}

func countByIndex(gen *model.Generation, selected []*model.Chromosome) []int {
	counts := make([]int, len(gen.Chromosomes))
	for _, s := range selected {
		for i, c := range gen.Chromosomes {
			if s == c {
				counts[i]++
			}
		}
	}
	return counts
}

func TestBuildWheelIsMonotonicAndEndsAtOne(t *testing.T) {
	gen := newGeneration(t, 3.3, 0, 1.7, 5.1, 0.2, 12.75, 0.01)
	wheel, err := BuildWheel(gen.Chromosomes)
	if err != nil {
		t.Fatalf("build wheel: %v", err)
	}
	if len(wheel) != len(gen.Chromosomes) {
		t.Fatalf("unexpected wheel length: got=%d want=%d", len(wheel), len(gen.Chromosomes))
	}
	for i := 1; i < len(wheel); i++ {
		if wheel[i] < wheel[i-1] {
			t.Fatalf("wheel decreases at %d: %f < %f", i, wheel[i], wheel[i-1])
		}
	}
	if math.Abs(wheel[len(wheel)-1]-1.0) > 1e-9 {
		t.Fatalf("unexpected last wheel entry: %f", wheel[len(wheel)-1])
	}
}

func TestBuildWheelRejectsInvalidFitness(t *testing.T) {
	cases := map[string][]*model.Chromosome{
		"unevaluated": {model.NewEvaluatedChromosome(1, nil), model.NewChromosome(nil)},
		"negative":    {model.NewEvaluatedChromosome(1, nil), model.NewEvaluatedChromosome(-0.5, nil)},
		"nan":         {model.NewEvaluatedChromosome(math.NaN(), nil)},
		"inf":         {model.NewEvaluatedChromosome(math.Inf(1), nil)},
		"overflow":    {model.NewEvaluatedChromosome(math.MaxFloat64, nil), model.NewEvaluatedChromosome(math.MaxFloat64, nil)},
	}
	for name, chromosomes := range cases {
		wheel, err := BuildWheel(chromosomes)
		if !errors.Is(err, ErrInvalidFitness) {
			t.Fatalf("%s: expected ErrInvalidFitness, got %v", name, err)
		}
		if wheel != nil {
			t.Fatalf("%s: expected no partial wheel", name)
		}
	}
}

func TestBuildWheelRejectsZeroTotalFitness(t *testing.T) {
	gen := newGeneration(t, 0, 0, 0)
	wheel, err := BuildWheel(gen.Chromosomes)
	if !errors.Is(err, ErrDegenerateFitness) {
		t.Fatalf("expected ErrDegenerateFitness, got %v", err)
	}
	if wheel != nil {
		t.Fatal("expected no partial wheel")
	}

	_, err = NewStochasticUniversalSampling(random.NewSequence(0.5), true).Select(4, gen)
	if !errors.Is(err, ErrDegenerateFitness) {
		t.Fatalf("select: expected ErrDegenerateFitness, got %v", err)
	}
}

func TestWheelIndexClampsPastLastEntry(t *testing.T) {
	wheel := Wheel{0.5, 1.0, 1.0}
	if got := wheel.Index(0); got != 0 {
		t.Fatalf("index(0): got=%d want=0", got)
	}
	if got := wheel.Index(0.5); got != 1 {
		t.Fatalf("index(0.5): got=%d want=1", got)
	}
	if got := wheel.Index(1.0); got != 1 {
		t.Fatalf("index(1.0): got=%d want=1 (last non-empty slot)", got)
	}
	if got := (Wheel{0.25, 0.5, 0.75, 1.0}).Index(1.5); got != 3 {
		t.Fatalf("index(1.5): got=%d want=3", got)
	}
}

func TestSelectRejectsInvalidArguments(t *testing.T) {
	gen := newGeneration(t, 1, 2)
	selectors := []Selector{
		NewRouletteWheel(random.NewSequence(0.1)),
		NewStochasticUniversalSampling(random.NewSequence(0.1), false),
	}
	for _, s := range selectors {
		for _, number := range []int{0, -3} {
			if _, err := s.Select(number, gen); !errors.Is(err, ErrInvalidArgument) {
				t.Fatalf("%s number=%d: expected ErrInvalidArgument, got %v", s.Name(), number, err)
			}
		}
		if _, err := s.Select(2, nil); !errors.Is(err, ErrInvalidArgument) {
			t.Fatalf("%s nil generation: expected ErrInvalidArgument, got %v", s.Name(), err)
		}
		if _, err := s.Select(2, &model.Generation{}); !errors.Is(err, ErrInvalidArgument) {
			t.Fatalf("%s empty generation: expected ErrInvalidArgument, got %v", s.Name(), err)
		}
	}
}

func TestStochasticUniversalSamplingExactCountsForAnyOffset(t *testing.T) {
	gen := newGeneration(t, 10, 20, 30, 40)
	offsets := []float64{0, 0.05, 0.1, 0.25, 0.3, 0.5, 0.6, 0.73, 0.9, 0.99, 0.9999999999}
	want := []int{1, 2, 3, 4}

	for _, offset := range offsets {
		selector := NewStochasticUniversalSampling(random.NewSequence(offset), false)
		selected, err := selector.Select(10, gen)
		if err != nil {
			t.Fatalf("offset=%v: select: %v", offset, err)
		}
		if len(selected) != 10 {
			t.Fatalf("offset=%v: unexpected result length: got=%d want=10", offset, len(selected))
		}
		counts := countByIndex(gen, selected)
		for i := range want {
			if counts[i] != want[i] {
				t.Fatalf("offset=%v: unexpected counts: got=%v want=%v", offset, counts, want)
			}
		}
	}
}

func TestStochasticUniversalSamplingCountsWithinFloorCeil(t *testing.T) {
	fitnessSource := random.NewSeeded(7)
	offsets := random.NewSeeded(11)

	for trial := 0; trial < 50; trial++ {
		n := 1 + trial%9
		fitness := make([]float64, n)
		for i := range fitness {
			fitness[i] = fitnessSource.GetDouble() * 100
		}
		gen := newGeneration(t, fitness...)

		for _, number := range []int{1, 2, 3, 7, 10, 17, 50} {
			bounds, err := ExpectedCounts(number, gen)
			if err != nil {
				t.Fatalf("expected counts: %v", err)
			}
			for k := 0; k < 10; k++ {
				selector := NewStochasticUniversalSampling(random.NewSequence(offsets.GetDouble()), false)
				selected, err := selector.Select(number, gen)
				if err != nil {
					t.Fatalf("select: %v", err)
				}
				counts := countByIndex(gen, selected)
				for i, c := range counts {
					if c < bounds[i].Min || c > bounds[i].Max {
						t.Fatalf("trial=%d number=%d chromosome=%d count=%d outside [%d,%d] fitness=%v",
							trial, number, i, c, bounds[i].Min, bounds[i].Max, fitness)
					}
				}
			}
		}
	}
}

func TestStochasticUniversalSamplingPointerOnDecimalBoundary(t *testing.T) {
	gen := newGeneration(t, 1.8, 0.5, 0, 1.3)
	bounds, err := ExpectedCounts(12, gen)
	if err != nil {
		t.Fatalf("expected counts: %v", err)
	}
	if bounds[0] != (CountBounds{Min: 6, Max: 6}) {
		t.Fatalf("unexpected bounds for chromosome 0: got=%+v want={6 6}", bounds[0])
	}

	for _, offset := range []float64{0, 0.5, 0.5 / 12} {
		selected, err := NewStochasticUniversalSampling(random.NewSequence(offset), false).Select(12, gen)
		if err != nil {
			t.Fatalf("offset=%v: select: %v", offset, err)
		}
		counts := countByIndex(gen, selected)
		if counts[0] != 6 || counts[2] != 0 {
			t.Fatalf("offset=%v: unexpected counts: got=%v", offset, counts)
		}
		for i, c := range counts {
			if c < bounds[i].Min || c > bounds[i].Max {
				t.Fatalf("offset=%v: chromosome=%d count=%d outside [%d,%d]", offset, i, c, bounds[i].Min, bounds[i].Max)
			}
		}
	}
}

func TestStochasticUniversalSamplingDecimalFitnessExactBounds(t *testing.T) {
	source := random.NewSeeded(23)

	for trial := 0; trial < 2000; trial++ {
		size := 1 + int(source.GetDouble()*8)
		tenths := make([]int, size)
		fitness := make([]float64, size)
		total := 0
		for i := range tenths {
			tenths[i] = int(source.GetDouble() * 100)
			total += tenths[i]
		}
		if total == 0 {
			tenths[0], total = 1, 1
		}
		for i, v := range tenths {
			fitness[i] = float64(v) / 10
		}
		gen := newGeneration(t, fitness...)

		for _, number := range []int{1, 2, 3, 5, 6, 10, 12, 24, 36} {
			bounds, err := ExpectedCounts(number, gen)
			if err != nil {
				t.Fatalf("expected counts: %v", err)
			}
			for i, v := range tenths {
				lo := v * number / total
				hi := lo
				if v*number%total != 0 {
					hi++
				}
				if bounds[i] != (CountBounds{Min: lo, Max: hi}) {
					t.Fatalf("tenths=%v number=%d chromosome=%d: got=%+v want={%d %d}", tenths, number, i, bounds[i], lo, hi)
				}
			}

			for _, offset := range []float64{0, 0.5, 0.5 / float64(number), source.GetDouble()} {
				selected, err := NewStochasticUniversalSampling(random.NewSequence(offset), false).Select(number, gen)
				if err != nil {
					t.Fatalf("select: %v", err)
				}
				counts := countByIndex(gen, selected)
				for i, c := range counts {
					if c < bounds[i].Min || c > bounds[i].Max {
						t.Fatalf("tenths=%v number=%d offset=%v chromosome=%d count=%d outside [%d,%d]",
							tenths, number, offset, i, c, bounds[i].Min, bounds[i].Max)
					}
				}
			}
		}
	}
}

func TestCombStartKeepsFirstPointerInRange(t *testing.T) {
	first, phase := combStart(math.Nextafter(1, 0), 3)
	if first != 2 || phase < 0 || phase >= 1 {
		t.Fatalf("unexpected comb start: first=%d phase=%v", first, phase)
	}
	first, phase = combStart(0.25, 8)
	if first != 2 || phase != 0 {
		t.Fatalf("unexpected comb start: got=(%d,%v) want=(2,0)", first, phase)
	}
}

func TestStochasticUniversalSamplingDrawsOnce(t *testing.T) {
	seq := random.NewSequence(0.42)
	gen := newGeneration(t, 1, 2, 3)
	if _, err := NewStochasticUniversalSampling(seq, false).Select(25, gen); err != nil {
		t.Fatalf("select: %v", err)
	}
	if seq.Draws() != 1 {
		t.Fatalf("unexpected draws: got=%d want=1", seq.Draws())
	}
}

func TestRouletteWheelDrawsPerSelection(t *testing.T) {
	seq := random.NewSequence(0.05, 0.95, 0.5)
	gen := newGeneration(t, 1, 1, 1, 1)
	selected, err := NewRouletteWheel(seq).Select(3, gen)
	if err != nil {
		t.Fatalf("select: %v", err)
	}
	if seq.Draws() != 3 {
		t.Fatalf("unexpected draws: got=%d want=3", seq.Draws())
	}
	want := []*model.Chromosome{gen.Chromosomes[0], gen.Chromosomes[3], gen.Chromosomes[2]}
	for i := range want {
		if selected[i] != want[i] {
			t.Fatalf("unexpected selection at %d", i)
		}
	}
}

func TestStochasticUniversalSamplingWrapsPointers(t *testing.T) {
	gen := newGeneration(t, 1, 1, 1, 1)
	selected, err := NewStochasticUniversalSampling(random.NewSequence(0.95), false).Select(4, gen)
	if err != nil {
		t.Fatalf("select: %v", err)
	}
	want := []int{3, 0, 1, 2}
	for i, idx := range want {
		if selected[i] != gen.Chromosomes[idx] {
			t.Fatalf("unexpected chromosome at %d: want index %d", i, idx)
		}
	}
}

func TestStochasticUniversalSamplingPointerOnOneWrapsToFirstSlot(t *testing.T) {
	gen := newGeneration(t, 1, 1)
	selected, err := NewStochasticUniversalSampling(random.NewSequence(0.5), false).Select(2, gen)
	if err != nil {
		t.Fatalf("select: %v", err)
	}
	counts := countByIndex(gen, selected)
	if counts[0] != 1 || counts[1] != 1 {
		t.Fatalf("unexpected counts: got=%v want=[1 1]", counts)
	}
}

func TestStochasticUniversalSamplingIsDeterministicForFixedOffset(t *testing.T) {
	gen := newGeneration(t, 4, 9, 0.5, 3, 7)
	a, err := NewStochasticUniversalSampling(random.NewSequence(0.37), false).Select(13, gen)
	if err != nil {
		t.Fatalf("select a: %v", err)
	}
	b, err := NewStochasticUniversalSampling(random.NewSequence(0.37), false).Select(13, gen)
	if err != nil {
		t.Fatalf("select b: %v", err)
	}
	if len(a) != len(b) {
		t.Fatalf("length mismatch: %d vs %d", len(a), len(b))
	}
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("selection differs at %d", i)
		}
	}
}

func TestStochasticUniversalSamplingSingleChromosome(t *testing.T) {
	gen := newGeneration(t, 0.3)
	selected, err := NewStochasticUniversalSampling(random.NewSequence(0.8), true).Select(5, gen)
	if err != nil {
		t.Fatalf("select: %v", err)
	}
	if len(selected) != 5 {
		t.Fatalf("unexpected length: got=%d want=5", len(selected))
	}
	for i, c := range selected {
		if c != gen.Chromosomes[0] {
			t.Fatalf("unexpected chromosome at %d", i)
		}
	}
}

func TestStochasticUniversalSamplingNeverPicksZeroFitness(t *testing.T) {
	gen := newGeneration(t, 0, 1, 0)
	for _, offset := range []float64{0, 0.3, 0.999} {
		selected, err := NewStochasticUniversalSampling(random.NewSequence(offset), false).Select(5, gen)
		if err != nil {
			t.Fatalf("select: %v", err)
		}
		for _, c := range selected {
			if c != gen.Chromosomes[1] {
				t.Fatalf("offset=%v: selected zero-fitness chromosome", offset)
			}
		}
	}
}

func TestStochasticUniversalSamplingPreserveBestAppendsMissingBest(t *testing.T) {
	gen := newGeneration(t, 5, 4, 4, 4, 4)
	best := gen.BestChromosome()

	plain, err := NewStochasticUniversalSampling(random.NewSequence(0.9), false).Select(1, gen)
	if err != nil {
		t.Fatalf("select: %v", err)
	}
	if len(plain) != 1 || plain[0] == best {
		t.Fatal("expected the walk alone to miss the best chromosome")
	}

	elite, err := NewStochasticUniversalSampling(random.NewSequence(0.9), true).Select(1, gen)
	if err != nil {
		t.Fatalf("select: %v", err)
	}
	if len(elite) != 2 {
		t.Fatalf("unexpected length: got=%d want=2", len(elite))
	}
	if elite[0] != plain[0] || elite[1] != best {
		t.Fatal("expected best chromosome appended after the walk result")
	}
}

func TestStochasticUniversalSamplingPreserveBestUsesIdentity(t *testing.T) {
	gen := newGeneration(t, 5, 5)
	best := gen.BestChromosome()
	if best != gen.Chromosomes[0] {
		t.Fatal("expected first chromosome to be best on tie")
	}

	selected, err := NewStochasticUniversalSampling(random.NewSequence(0.75), true).Select(1, gen)
	if err != nil {
		t.Fatalf("select: %v", err)
	}
	if len(selected) != 2 {
		t.Fatalf("expected equal-fitness twin not to count as best: got length %d", len(selected))
	}
	if selected[0] != gen.Chromosomes[1] || selected[1] != best {
		t.Fatal("unexpected elitism result order")
	}
}

func TestStochasticUniversalSamplingPreserveBestNoDuplicate(t *testing.T) {
	gen := newGeneration(t, 10, 20, 30, 40)
	selected, err := NewStochasticUniversalSampling(random.NewSequence(0.2), true).Select(10, gen)
	if err != nil {
		t.Fatalf("select: %v", err)
	}
	if len(selected) != 10 {
		t.Fatalf("unexpected length: got=%d want=10", len(selected))
	}
}

func TestExpectedCounts(t *testing.T) {
	gen := newGeneration(t, 10, 20, 30, 40)
	bounds, err := ExpectedCounts(10, gen)
	if err != nil {
		t.Fatalf("expected counts: %v", err)
	}
	for i, want := range []int{1, 2, 3, 4} {
		if bounds[i].Min != want || bounds[i].Max != want {
			t.Fatalf("chromosome %d: got=%+v want=%d", i, bounds[i], want)
		}
	}

	bounds, err = ExpectedCounts(3, newGeneration(t, 1, 1))
	if err != nil {
		t.Fatalf("expected counts: %v", err)
	}
	if bounds[0] != (CountBounds{Min: 1, Max: 2}) {
		t.Fatalf("unexpected bounds: %+v", bounds[0])
	}
}
