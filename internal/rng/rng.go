// Package rng provides the random source every resolver draws from.
package rng

import (
	cryptoRand "crypto/rand"
	"encoding/binary"
	"math/rand/v2"
)

// RandomSource abstract
type RandomSource interface {
	Float64() float64 // [0, 1)
	IntN(n int) int   // [0, n)
}

// crypto random : default generation method
type cryptoRNG struct{}

func (cryptoRNG) Float64() float64 {
	// Read 53bit random => [0, 1)
	var buf [8]byte
	if _, err := cryptoRand.Read(buf[:]); err != nil {
		// back to math/rand/v2
		return rand.Float64()
	}
	u := binary.BigEndian.Uint64(buf[:]) >> 11 // 53 bits
	return float64(u) / (1 << 53)
}

func (cryptoRNG) IntN(n int) int {
	if n <= 0 {
		return 0
	}
	var buf [8]byte
	if _, err := cryptoRand.Read(buf[:]); err != nil {
		return rand.IntN(n)
	}
	// rejection sampling keeps the result unbiased
	bound := uint64(n)
	limit := ^uint64(0) - (^uint64(0) % bound)
	for {
		u := binary.BigEndian.Uint64(buf[:])
		if u < limit {
			return int(u % bound)
		}
		if _, err := cryptoRand.Read(buf[:]); err != nil {
			return rand.IntN(n)
		}
	}
}

func Default() RandomSource { return cryptoRNG{} }

// Replicable RNG (tests, Monte Carlo, PROGRESSION_RNG_SEED)
type seededRNG struct{ r *rand.Rand }

func NewSeeded(seed uint64) RandomSource {
	return &seededRNG{r: rand.New(rand.NewPCG(seed, 0))}
}

func (s *seededRNG) Float64() float64 { return s.r.Float64() }

func (s *seededRNG) IntN(n int) int {
	if n <= 0 {
		return 0
	}
	return s.r.IntN(n)
}

// Roll returns a uniform integer in [lo, hi].
func Roll(src RandomSource, lo, hi int) int {
	if hi <= lo {
		return lo
	}
	return lo + src.IntN(hi-lo+1)
}

// Pick returns a uniformly chosen element of items. items must be non-empty.
func Pick[T any](src RandomSource, items []T) T {
	return items[src.IntN(len(items))]
}

// Sample returns k distinct elements of items chosen uniformly without
// replacement, in draw order. items is not modified. k is clamped to len(items).
func Sample[T any](src RandomSource, items []T, k int) []T {
	if k > len(items) {
		k = len(items)
	}
	pool := append([]T(nil), items...)
	out := make([]T, 0, k)
	for i := 0; i < k; i++ {
		j := i + src.IntN(len(pool)-i)
		pool[i], pool[j] = pool[j], pool[i]
		out = append(out, pool[i])
	}
	return out
}
