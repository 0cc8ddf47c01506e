package rng

import (
	"math"
	"testing"
)

func TestSeededDeterministic(t *testing.T) {
	a := NewSeeded(42)
	b := NewSeeded(42)
	for i := 0; i < 50; i++ {
		if x, y := a.Float64(), b.Float64(); x != y {
			t.Fatalf("draw %d: %v != %v from same seed", i, x, y)
		}
		if x, y := a.IntN(100), b.IntN(100); x != y {
			t.Fatalf("int draw %d: %d != %d from same seed", i, x, y)
		}
	}
}

func TestRollRange(t *testing.T) {
	for _, src := range []RandomSource{NewSeeded(7), Default()} {
		for i := 0; i < 2000; i++ {
			v := Roll(src, 20, 50)
			if v < 20 || v > 50 {
				t.Fatalf("roll out of [20,50]: %d", v)
			}
		}
	}
	if v := Roll(NewSeeded(1), 5, 5); v != 5 {
		t.Fatalf("degenerate range should return lo; got %d", v)
	}
}

func TestRollHitsBothEnds(t *testing.T) {
	src := NewSeeded(3)
	seen := map[int]bool{}
	for i := 0; i < 5000; i++ {
		seen[Roll(src, 1, 100)] = true
	}
	if !seen[1] || !seen[100] {
		t.Fatalf("expected both bounds to appear; 1=%v 100=%v", seen[1], seen[100])
	}
}

func TestSampleDistinct(t *testing.T) {
	src := NewSeeded(11)
	items := []string{"HP", "ATK", "CRIT Rate%", "CRIT DMG%"}
	for i := 0; i < 500; i++ {
		got := Sample(src, items, 2)
		if len(got) != 2 {
			t.Fatalf("want 2 samples, got %d", len(got))
		}
		if got[0] == got[1] {
			t.Fatalf("samples must be distinct: %v", got)
		}
	}
	if items[0] != "HP" || items[3] != "CRIT DMG%" {
		t.Fatalf("Sample must not reorder its input: %v", items)
	}
	if got := Sample(src, items, 10); len(got) != len(items) {
		t.Fatalf("k larger than pool should clamp; got %d", len(got))
	}
}

func TestScriptReplaysThenFallsBack(t *testing.T) {
	s := &Script{Floats: []float64{0.25}, Ints: []int{7}}
	if v := s.Float64(); v != 0.25 {
		t.Fatalf("scripted float: %v", v)
	}
	if v := s.IntN(5); v != 2 {
		t.Fatalf("scripted int should be reduced mod n: %d", v)
	}
	if v := s.Float64(); v != 0 {
		t.Fatalf("exhausted script without Next should yield 0; got %v", v)
	}
}

func TestScriptNegativeIntsStayInRange(t *testing.T) {
	s := &Script{Ints: []int{-3, math.MinInt, math.MinInt}}
	if v := s.IntN(5); v != 3 {
		t.Fatalf("-3 mod 5: got %d", v)
	}
	// 2^63 = 2 (mod 3)
	if v := s.IntN(3); v != 2 {
		t.Fatalf("MinInt mod 3: got %d", v)
	}
	if got := Pick(s, []string{"a", "b", "c", "d"}); got != "a" {
		t.Fatalf("MinInt pick over 4 items: got %q", got)
	}
}
