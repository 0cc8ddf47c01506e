package rng

// Script replays fixed values, then falls back to Next (or zero values when
// Next is nil). It lets callers force exact branches of a resolver.
type Script struct {
	Floats []float64
	Ints   []int
	Next   RandomSource
}

func (s *Script) Float64() float64 {
	if len(s.Floats) > 0 {
		v := s.Floats[0]
		s.Floats = s.Floats[1:]
		return v
	}
	if s.Next != nil {
		return s.Next.Float64()
	}
	return 0
}

// IntN pops the next scripted int, reduced into [0, n).
func (s *Script) IntN(n int) int {
	if n <= 0 {
		return 0
	}
	if len(s.Ints) > 0 {
		v := s.Ints[0]
		s.Ints = s.Ints[1:]
		if v < 0 {
			// |v| in unsigned arithmetic, valid for math.MinInt.
			return int((uint(^v) + 1) % uint(n))
		}
		return v % n
	}
	if s.Next != nil {
		return s.Next.IntN(n)
	}
	return 0
}
