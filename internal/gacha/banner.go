package gacha

import (
	"github.com/xtding233/progression-core/internal/catalog"
	"github.com/xtding233/progression-core/internal/rng"
)

// BannerSystem decides which 5-star a 5-star outcome becomes.
//
// Every 5-star goes through the same rate-up draw whether or not the
// guarantee flag is set. The flag toggles each time the standard character
// comes out and never forces the rate-up one.
type BannerSystem struct {
	RateUp     catalog.CharacterDef
	Standard   catalog.CharacterDef
	RateUpProb float64
	RNG        rng.RandomSource
}

func NewBannerSystem(cat *catalog.Catalog, src rng.RandomSource) *BannerSystem {
	return &BannerSystem{
		RateUp:     cat.RateUp(),
		Standard:   cat.Standard(),
		RateUpProb: cat.Rules().RateUpProb,
		RNG:        src,
	}
}

// Draw picks the 5-star for this outcome and updates the guarantee flag.
func (b *BannerSystem) Draw(s *PityState) (catalog.CharacterDef, error) {
	up, err := Draw(b.RateUpProb, b.RNG)
	if err != nil {
		return catalog.CharacterDef{}, err
	}
	if up {
		return b.RateUp, nil
	}
	s.Guaranteed = !s.Guaranteed
	return b.Standard, nil
}
