// Package gacha resolves banner pulls against a player's pity state.
package gacha

import (
	"github.com/xtding233/progression-core/internal/catalog"
	"github.com/xtding233/progression-core/internal/ledger"
	"github.com/xtding233/progression-core/internal/rng"
	"github.com/xtding233/progression-core/internal/token"
)

// Source tells which branch produced a pull.
type Source string

const (
	SourceRoll  Source = "roll"
	SourcePity4 Source = "pity_4star"
	SourcePity5 Source = "pity_5star"
)

// PullResult is one sub-pull in pull order.
type PullResult struct {
	Name      string `json:"name"`
	Rarity    int    `json:"rarity"`
	Element   string `json:"element,omitempty"`
	Emoji     string `json:"emoji"`
	Character bool   `json:"character"`
	RateUp    bool   `json:"rate_up,omitempty"`
	Source    Source `json:"source"`
}

// PullOutcome is what one Pull call returns besides the new profile.
type PullOutcome struct {
	Results    []PullResult `json:"results"`
	Cost       int          `json:"cost"`
	Currency   int          `json:"currency"`
	Pity4      int          `json:"pity_4star"`
	Pity5      int          `json:"pity_5star"`
	Guaranteed bool         `json:"is_guaranteed"`
	// Pulls until each pity fires, counting the firing pull.
	Next4 int `json:"next_4star_in"`
	Next5 int `json:"next_5star_in"`
}

// Resolver runs pulls. It holds no player state; a Resolver may serve any
// number of players as long as its RandomSource is safe for the callers.
type Resolver struct {
	cat    *catalog.Catalog
	rules  catalog.Rules
	price  token.Token
	pity   PitySystem
	banner *BannerSystem
	rng    rng.RandomSource
}

func NewResolver(cat *catalog.Catalog, src rng.RandomSource) *Resolver {
	if src == nil {
		src = rng.Default()
	}
	return &Resolver{
		cat:    cat,
		rules:  cat.Rules(),
		price:  token.FromRules(cat.Rules()),
		pity:   NewPitySystem(cat.Rules()),
		banner: NewBannerSystem(cat, src),
		rng:    src,
	}
}

// Pull performs count sub-pulls (1 or 10) in sequence. It either fails before
// touching anything or returns the fully updated copy of p; p itself is never
// modified.
func (r *Resolver) Pull(p ledger.Profile, count int) (PullOutcome, ledger.Profile, error) {
	cost, err := r.price.Cost(count)
	if err != nil {
		return PullOutcome{}, p, err
	}
	if err := p.CanSpend(cost); err != nil {
		return PullOutcome{}, p, err
	}

	next := p.Clone()
	st := PityState{Pity4: next.Pity4, Pity5: next.Pity5, Guaranteed: next.Guaranteed}
	results := make([]PullResult, 0, count)
	for i := 0; i < count; i++ {
		res, err := r.pullOnce(&st)
		if err != nil {
			return PullOutcome{}, p, err
		}
		if res.Character {
			next.Grant(res.Name)
		}
		results = append(results, res)
	}

	next.Pity4, next.Pity5, next.Guaranteed = st.Pity4, st.Pity5, st.Guaranteed
	if err := next.Spend(cost); err != nil {
		return PullOutcome{}, p, err
	}
	four, five := r.Pity(next)
	return PullOutcome{
		Results:    results,
		Cost:       cost,
		Currency:   next.Currency,
		Pity4:      next.Pity4,
		Pity5:      next.Pity5,
		Guaranteed: next.Guaranteed,
		Next4:      four,
		Next5:      five,
	}, next, nil
}

// Pity reports the pulls left before each pity fires for p.
func (r *Resolver) Pity(p ledger.Profile) (four, five int) {
	st := PityState{Pity4: p.Pity4, Pity5: p.Pity5}
	return r.pity.RemainingFour(st), r.pity.RemainingFive(st)
}

// pullOnce resolves one sub-pull against st.
func (r *Resolver) pullOnce(st *PityState) (PullResult, error) {
	r.pity.Advance(st)

	if r.pity.FourDue(*st) {
		st.Pity4 = 0
		return r.fourStar(SourcePity4), nil
	}
	if r.pity.FiveDue(*st) {
		st.Pity5 = 0
		return r.fiveStar(st, SourcePity5)
	}

	roll := r.rng.Float64() * 100
	switch {
	case roll < r.rules.FiveStarBelow:
		st.Pity5 = 0
		return r.fiveStar(st, SourceRoll)
	case roll < r.rules.FourStarBelow:
		st.Pity4 = 0
		return r.fourStar(SourceRoll), nil
	default:
		f := r.cat.Filler()
		return PullResult{Name: f.Name, Rarity: f.Rarity, Emoji: f.Emoji, Source: SourceRoll}, nil
	}
}

func (r *Resolver) fourStar(src Source) PullResult {
	return characterResult(r.cat.FourStar(), src)
}

func (r *Resolver) fiveStar(st *PityState, src Source) (PullResult, error) {
	ch, err := r.banner.Draw(st)
	if err != nil {
		return PullResult{}, err
	}
	return characterResult(ch, src), nil
}

func characterResult(ch catalog.CharacterDef, src Source) PullResult {
	return PullResult{
		Name:      ch.Name,
		Rarity:    ch.Rarity,
		Element:   ch.Element,
		Emoji:     ch.Emoji,
		Character: true,
		RateUp:    ch.RateUp,
		Source:    src,
	}
}
