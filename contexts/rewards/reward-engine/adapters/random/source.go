package random

import (
	"math/rand/v2"
	"sync"
)

// Source is a goroutine-safe uniform integer source. A fixed seed makes
// every draw sequence reproducible.
type Source struct {
	mu  sync.Mutex
	rng *rand.Rand
}

func NewSource(seed uint64) *Source {
	return &Source{rng: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

// NewUnseededSource draws from the runtime's random state.
func NewUnseededSource() *Source {
	return &Source{rng: rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))}
}

func (s *Source) Int64Inclusive(min int64, max int64) int64 {
	if max <= min {
		return min
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return min + s.rng.Int64N(max-min+1)
}

// Fixed always returns Value clamped into the requested range.
type Fixed struct {
	Value int64
}

func (f Fixed) Int64Inclusive(min int64, max int64) int64 {
	switch {
	case f.Value < min:
		return min
	case f.Value > max:
		return max
	}
	return f.Value
}
