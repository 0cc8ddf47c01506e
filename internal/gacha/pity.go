package gacha

import "github.com/xtding233/progression-core/internal/catalog"

// PityState is the part of a profile one sub-pull reads and writes.
type PityState struct {
	Pity4      int  // pulls since the last 4-star
	Pity5      int  // pulls since the last 5-star
	Guaranteed bool // flipped each time the off-banner 5-star is drawn
}

// PitySystem handles the two "hard pity" counters: once a counter reaches its
// threshold the pull is forced to that rarity.
type PitySystem struct {
	Four int // 4-star threshold
	Five int // 5-star threshold
}

func NewPitySystem(r catalog.Rules) PitySystem {
	return PitySystem{Four: r.Pity4, Five: r.Pity5}
}

// Advance counts one pull on both counters.
func (ps PitySystem) Advance(s *PityState) {
	s.Pity4++
	s.Pity5++
}

// FourDue reports whether the 4-star pity triggers. Checked before FiveDue;
// the 4-star branch never touches Pity5.
func (ps PitySystem) FourDue(s PityState) bool { return s.Pity4 >= ps.Four }

// FiveDue reports whether the 5-star pity triggers.
func (ps PitySystem) FiveDue(s PityState) bool { return s.Pity5 >= ps.Five }

// RemainingFour is how many pulls until the 4-star pity fires, counting the
// pull that fires it.
func (ps PitySystem) RemainingFour(s PityState) int { return remaining(ps.Four, s.Pity4) }

// RemainingFive is the 5-star counterpart of RemainingFour.
func (ps PitySystem) RemainingFive(s PityState) int { return remaining(ps.Five, s.Pity5) }

func remaining(threshold, count int) int {
	if n := threshold - count; n > 1 {
		return n
	}
	return 1
}
