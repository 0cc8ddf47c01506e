// Package catalog holds the static game data: characters, the filler reward,
// monsters, artifact sets and the numeric rules of the banner, dungeons and
// combat. A Catalog is built once and never mutated; accessors hand out copies.
package catalog

import (
	"fmt"
	"sort"
)

type Catalog struct {
	rules      Rules
	characters map[string]CharacterDef
	rateUp     string
	standard   string
	fourStar   string
	filler     RewardDef
	monsters   []MonsterDef
	sets       map[string]ArtifactSetDef
	setIDs     []string
}

// Build validates a merged config and normalizes it into a Catalog.
func Build(cfg RawConfig) (*Catalog, error) {
	if err := ValidateRaw(cfg); err != nil {
		return nil, err
	}
	b := cfg.Banner
	st := cfg.Defaults.Stats
	c := &Catalog{
		rules: Rules{
			PullCost:      *b.Tokens.PerDraw,
			TenPullCost:   *b.Tokens.PerTenDraw,
			Pity4:         *b.Pity4,
			Pity5:         *b.Pity5,
			FiveStarBelow: *b.FiveStarBelow,
			FourStarBelow: *b.FourStarBelow,
			RateUpProb:    *b.RateUpProb,
			EnergyCost:    *cfg.Dungeon.EnergyCost,
			EnergyMax:     *cfg.Dungeon.EnergyMax,
			HPScale:       *cfg.Combat.HPScalePerLevel,
			RewardMin:     *cfg.Combat.RewardMin,
			RewardMax:     *cfg.Combat.RewardMax,
			StartCurrency: deref(cfg.Defaults.Currency, 0),
			StartEnergy:   deref(cfg.Defaults.Energy, *cfg.Dungeon.EnergyMax),
			StartAttack:   *st.Attack,
			StartHP:       *st.HP,
			StartCritRate: *st.CritRate,
			StartCritDmg:  *st.CritDmg,
			Version:       cfg.Version,
		},
		characters: make(map[string]CharacterDef, len(cfg.Characters)),
		filler:     *cfg.Filler,
		monsters:   append([]MonsterDef(nil), cfg.Monsters...),
		sets:       make(map[string]ArtifactSetDef, len(cfg.ArtifactSets)),
	}
	for _, ch := range cfg.Characters {
		c.characters[ch.Name] = cloneCharacter(ch)
		switch {
		case ch.Rarity == 5 && ch.RateUp:
			c.rateUp = ch.Name
		case ch.Rarity == 5:
			c.standard = ch.Name
		case ch.Rarity == 4:
			c.fourStar = ch.Name
		}
	}
	for _, s := range cfg.ArtifactSets {
		c.sets[s.ID] = cloneSet(s)
		c.setIDs = append(c.setIDs, s.ID)
	}
	sort.Strings(c.setIDs)
	return c, nil
}

func (c *Catalog) Rules() Rules { return c.rules }

// Character looks up a character by name.
func (c *Catalog) Character(name string) (CharacterDef, bool) {
	ch, ok := c.characters[name]
	if !ok {
		return CharacterDef{}, false
	}
	return cloneCharacter(ch), true
}

func (c *Catalog) RateUp() CharacterDef   { return cloneCharacter(c.characters[c.rateUp]) }
func (c *Catalog) Standard() CharacterDef { return cloneCharacter(c.characters[c.standard]) }
func (c *Catalog) FourStar() CharacterDef { return cloneCharacter(c.characters[c.fourStar]) }
func (c *Catalog) Filler() RewardDef      { return c.filler }

func (c *Catalog) Monsters() []MonsterDef {
	return append([]MonsterDef(nil), c.monsters...)
}

// Set looks up an artifact set by id.
func (c *Catalog) Set(id string) (ArtifactSetDef, bool) {
	s, ok := c.sets[id]
	if !ok {
		return ArtifactSetDef{}, false
	}
	return cloneSet(s), true
}

// SetIDs returns the artifact set ids sorted.
func (c *Catalog) SetIDs() []string {
	return append([]string(nil), c.setIDs...)
}

func (c *Catalog) String() string {
	return fmt.Sprintf("catalog v%s: %d characters, %d monsters, %d artifact sets",
		c.rules.Version, len(c.characters), len(c.monsters), len(c.sets))
}

func cloneCharacter(ch CharacterDef) CharacterDef {
	ch.Abilities = append([]string(nil), ch.Abilities...)
	ch.Ascension = append([]string(nil), ch.Ascension...)
	return ch
}

func cloneSet(s ArtifactSetDef) ArtifactSetDef {
	main := make(map[Slot][]string, len(s.MainStats))
	for k, v := range s.MainStats {
		main[k] = append([]string(nil), v...)
	}
	s.MainStats = main
	s.SubStats = append([]string(nil), s.SubStats...)
	return s
}

func deref[T any](p *T, def T) T {
	if p == nil {
		return def
	}
	return *p
}
