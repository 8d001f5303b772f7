// Package random provides the seeded random source that drives every roll in
// a battle.
//
// A Source is deterministic with respect to its seed: two sources created with
// the same seed produce the same sequence of draws, which is what makes a
// battle replayable from {seed, roster}.
package random

import "math/rand"

// Source is a deterministic uniform generator. It is not safe for concurrent
// use; a battle owns exactly one.
type Source struct {
	seed  int64
	rng   *rand.Rand
	draws uint64
}

// New creates a source seeded with seed.
func New(seed int64) *Source {
	return &Source{
		seed: seed,
		rng:  rand.New(rand.NewSource(seed)),
	}
}

// Seed returns the seed the source was created with.
func (s *Source) Seed() int64 {
	return s.seed
}

// Real returns a uniform sample in [0, 1).
func (s *Source) Real() float64 {
	s.draws++
	return s.rng.Float64()
}

// Integer returns a uniform integer in [min, max]. When max < min it returns min
// without consuming a draw.
func (s *Source) Integer(min, max int) int {
	if max <= min {
		return min
	}
	s.draws++
	return min + s.rng.Intn(max-min+1)
}

// Hit performs a single Bernoulli draw with probability p.
func (s *Source) Hit(p float64) bool {
	return s.Real() < p
}

// Draws returns how many samples have been consumed so far.
func (s *Source) Draws() uint64 {
	return s.draws
}
