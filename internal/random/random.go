package random

import (
	"math/rand"
	"sync"

	"lukechampine.com/frand"
)

// Provider is a source of uniform doubles in [0,1).
type Provider interface {
	GetDouble() float64
}

var current = struct {
	mu sync.RWMutex
	p  Provider
}{
	p: FastSource{},
}

// Current returns the process-wide provider.
func Current() Provider {
	current.mu.RLock()
	defer current.mu.RUnlock()
	return current.p
}

// SetCurrent replaces the process-wide provider and returns the previous one.
// A nil provider restores the default.
func SetCurrent(p Provider) Provider {
	current.mu.Lock()
	defer current.mu.Unlock()

	prev := current.p
	if p == nil {
		p = FastSource{}
	}
	current.p = p
	return prev
}

// Or returns p, or the current provider when p is nil.
func Or(p Provider) Provider {
	if p == nil {
		return Current()
	}
	return p
}

// FastSource draws from frand's buffered ChaCha generator.
type FastSource struct{}

func (FastSource) GetDouble() float64 {
	return frand.Float64()
}

// Seeded is a reproducible provider. math/rand sources are not safe for
// concurrent use, so draws are serialised.
type Seeded struct {
	mu  sync.Mutex
	rng *rand.Rand
}

func NewSeeded(seed int64) *Seeded {
	return &Seeded{rng: rand.New(rand.NewSource(seed))}
}

func (s *Seeded) GetDouble() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rng.Float64()
}

// Sequence replays fixed values in order, wrapping at the end.
type Sequence struct {
	mu     sync.Mutex
	values []float64
	next   int
	draws  int
}

func NewSequence(values ...float64) *Sequence {
	return &Sequence{values: append([]float64(nil), values...)}
}

func (s *Sequence) GetDouble() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.draws++
	if len(s.values) == 0 {
		return 0
	}
	v := s.values[s.next]
	s.next = (s.next + 1) % len(s.values)
	return v
}

// Draws reports how many values have been handed out.
func (s *Sequence) Draws() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.draws
}
