package phase

import (
	"fmt"
	"strings"

	"evoselect/internal/model"
)

// Phase marks points in the generation lifecycle. Values are independent bits
// so several phases can be reported in one notification.
type Phase uint8

const (
	BeforeGeneration Phase = 1 << iota
	Beginning
	SelectedParents
	Offspring
	Reinserted
	NewGenerationCreated
	GenerationEnded
	AfterGeneration
)

var names = []struct {
	phase Phase
	name  string
}{
	{BeforeGeneration, "before_generation"},
	{Beginning, "beginning"},
	{SelectedParents, "selected_parents"},
	{Offspring, "offspring"},
	{Reinserted, "reinserted"},
	{NewGenerationCreated, "new_generation_created"},
	{GenerationEnded, "generation_ended"},
	{AfterGeneration, "after_generation"},
}

// Has reports whether every bit of other is set in p.
func (p Phase) Has(other Phase) bool {
	return other != 0 && p&other == other
}

func (p Phase) With(other Phase) Phase {
	return p | other
}

// Split returns the single phases contained in p, in lifecycle order.
func (p Phase) Split() []Phase {
	out := make([]Phase, 0, len(names))
	for _, n := range names {
		if p&n.phase != 0 {
			out = append(out, n.phase)
		}
	}
	return out
}

func (p Phase) String() string {
	if p == 0 {
		return "none"
	}
	parts := make([]string, 0, len(names))
	for _, n := range names {
		if p&n.phase != 0 {
			parts = append(parts, n.name)
		}
	}
	return strings.Join(parts, "|")
}

// Parse reads the "|"-joined form produced by String.
func Parse(s string) (Phase, error) {
	s = strings.TrimSpace(s)
	if s == "" || s == "none" {
		return 0, nil
	}
	var out Phase
	for _, part := range strings.Split(s, "|") {
		part = strings.TrimSpace(part)
		found := false
		for _, n := range names {
			if n.name == part {
				out |= n.phase
				found = true
				break
			}
		}
		if !found {
			return 0, fmt.Errorf("unknown phase: %q", part)
		}
	}
	return out, nil
}

// Collector receives the chromosomes observed at a lifecycle phase. The
// selection core never calls it; drivers do after each step.
type Collector interface {
	NoteChromosomesAtPhase(p Phase, chromosomes []*model.Chromosome)
}

// CollectorFunc adapts a function to Collector.
type CollectorFunc func(p Phase, chromosomes []*model.Chromosome)

func (f CollectorFunc) NoteChromosomesAtPhase(p Phase, chromosomes []*model.Chromosome) {
	f(p, chromosomes)
}

// Multi fans a notification out to every non-nil collector in order.
type Multi []Collector

func (m Multi) NoteChromosomesAtPhase(p Phase, chromosomes []*model.Chromosome) {
	for _, c := range m {
		if c != nil {
			c.NoteChromosomesAtPhase(p, chromosomes)
		}
	}
}
