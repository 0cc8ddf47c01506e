package rng

import "sync"

type lockedRNG struct {
	mu  sync.Mutex
	src RandomSource
}

// Locked makes src safe for concurrent use. The crypto default already is.
func Locked(src RandomSource) RandomSource {
	if _, ok := src.(cryptoRNG); ok {
		return src
	}
	return &lockedRNG{src: src}
}

func (l *lockedRNG) Float64() float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.src.Float64()
}

func (l *lockedRNG) IntN(n int) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.src.IntN(n)
}
