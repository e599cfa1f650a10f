// Package rng abstracts seeded randomness so every generator produces the
// same output for the same seed on any platform.
package rng

import "math/rand/v2"

// Source is the randomness every stage draws from.
type Source interface {
	Float64() float64
}

// New returns a deterministic PCG-backed source for seed.
func New(seed int64) Source {
	return rand.New(rand.NewPCG(uint64(seed), 0x9e3779b97f4a7c15))
}

// Derive returns an independent stream for a sub-stage (e.g. cliff sites
// after generation) without disturbing the parent stream.
func Derive(seed int64, stream uint64) Source {
	return rand.New(rand.NewPCG(uint64(seed), stream))
}
