package catalog

import (
	"fmt"
	"strings"
)

// ValidateRaw checks semantic constraints of a merged RawConfig.
func ValidateRaw(cfg RawConfig) error {
	var errs []string

	// banner
	b := cfg.Banner
	if b.Tokens == nil || b.Tokens.PerDraw == nil || b.Tokens.PerTenDraw == nil {
		errs = append(errs, "banner.tokens.per_draw and per_ten_draw are required")
	} else {
		if *b.Tokens.PerDraw < 0 {
			errs = append(errs, "banner.tokens.per_draw must be >= 0")
		}
		if *b.Tokens.PerTenDraw < 0 {
			errs = append(errs, "banner.tokens.per_ten_draw must be >= 0")
		}
	}
	if b.Pity4 == nil || *b.Pity4 < 1 {
		errs = append(errs, "banner.pity_4star must be >= 1")
	}
	if b.Pity5 == nil || *b.Pity5 < 1 {
		errs = append(errs, "banner.pity_5star must be >= 1")
	}
	if b.FiveStarBelow == nil || b.FourStarBelow == nil {
		errs = append(errs, "banner.five_star_below and four_star_below are required")
	} else if !(*b.FiveStarBelow > 0 && *b.FiveStarBelow < *b.FourStarBelow && *b.FourStarBelow <= 100) {
		errs = append(errs, "banner thresholds must satisfy 0 < five_star_below < four_star_below <= 100")
	}
	if b.RateUpProb == nil || *b.RateUpProb <= 0 || *b.RateUpProb > 1 {
		errs = append(errs, "banner.rate_up_prob must be in (0,1]")
	}

	// dungeon / combat
	if cfg.Dungeon.EnergyCost == nil || *cfg.Dungeon.EnergyCost < 0 {
		errs = append(errs, "dungeon.energy_cost must be >= 0")
	}
	if cfg.Dungeon.EnergyMax == nil || *cfg.Dungeon.EnergyMax < 0 {
		errs = append(errs, "dungeon.energy_max must be >= 0")
	}
	if cfg.Combat.HPScalePerLevel == nil || *cfg.Combat.HPScalePerLevel < 0 {
		errs = append(errs, "combat.hp_scale_per_level must be >= 0")
	}
	if cfg.Combat.RewardMin == nil || cfg.Combat.RewardMax == nil {
		errs = append(errs, "combat.reward_min and reward_max are required")
	} else if *cfg.Combat.RewardMin < 0 || *cfg.Combat.RewardMin > *cfg.Combat.RewardMax {
		errs = append(errs, "combat rewards must satisfy 0 <= reward_min <= reward_max")
	}

	// defaults
	d := cfg.Defaults
	if d.Currency != nil && *d.Currency < 0 {
		errs = append(errs, "defaults.currency must be >= 0")
	}
	if d.Energy != nil && cfg.Dungeon.EnergyMax != nil && (*d.Energy < 0 || *d.Energy > *cfg.Dungeon.EnergyMax) {
		errs = append(errs, "defaults.energy must be in [0, dungeon.energy_max]")
	}
	if d.Stats == nil || d.Stats.Attack == nil || d.Stats.HP == nil || d.Stats.CritRate == nil || d.Stats.CritDmg == nil {
		errs = append(errs, "defaults.stats.attack, hp, crit_rate and crit_dmg are required")
	} else if *d.Stats.Attack < 0 || *d.Stats.HP < 0 || *d.Stats.CritRate < 0 || *d.Stats.CritDmg < 0 {
		errs = append(errs, "defaults.stats must be >= 0")
	}

	// characters
	var rateUp, standard, fourStar int
	seen := map[string]bool{}
	for i, c := range cfg.Characters {
		if c.Name == "" {
			errs = append(errs, fmt.Sprintf("characters[%d].name is required", i))
		}
		if seen[c.Name] {
			errs = append(errs, fmt.Sprintf("characters[%d]: duplicate name %q", i, c.Name))
		}
		seen[c.Name] = true
		switch c.Rarity {
		case 5:
			if c.RateUp {
				rateUp++
			} else {
				standard++
			}
		case 4:
			fourStar++
			if c.RateUp {
				errs = append(errs, fmt.Sprintf("characters[%d]: rate_up is only meaningful for 5-star", i))
			}
		default:
			errs = append(errs, fmt.Sprintf("characters[%d].rarity must be 4 or 5", i))
		}
	}
	if rateUp != 1 || standard != 1 {
		errs = append(errs, "characters must contain exactly one rate-up and one standard 5-star")
	}
	if fourStar != 1 {
		errs = append(errs, "characters must contain exactly one 4-star")
	}
	if cfg.Filler == nil || cfg.Filler.Name == "" {
		errs = append(errs, "filler.name is required")
	} else if seen[cfg.Filler.Name] {
		errs = append(errs, "filler must not share a name with a character")
	}

	// monsters
	if len(cfg.Monsters) == 0 {
		errs = append(errs, "monsters must not be empty")
	}
	for i, m := range cfg.Monsters {
		if m.HP <= 0 {
			errs = append(errs, fmt.Sprintf("monsters[%d].hp must be > 0", i))
		}
		if m.Attack < 0 {
			errs = append(errs, fmt.Sprintf("monsters[%d].attack must be >= 0", i))
		}
	}

	// artifact sets
	if len(cfg.ArtifactSets) == 0 {
		errs = append(errs, "artifact_sets must not be empty")
	}
	ids := map[string]bool{}
	for i, s := range cfg.ArtifactSets {
		if s.ID == "" {
			errs = append(errs, fmt.Sprintf("artifact_sets[%d].id is required", i))
		}
		if ids[s.ID] {
			errs = append(errs, fmt.Sprintf("artifact_sets[%d]: duplicate id %q", i, s.ID))
		}
		ids[s.ID] = true
		for _, slot := range Slots {
			if len(s.MainStats[slot]) == 0 {
				errs = append(errs, fmt.Sprintf("artifact_sets[%d].main_stats.%s must not be empty", i, slot))
			}
		}
		for slot := range s.MainStats {
			if !validSlot(slot) {
				errs = append(errs, fmt.Sprintf("artifact_sets[%d].main_stats: unknown slot %q", i, slot))
			}
		}
		distinct := map[string]bool{}
		for _, st := range s.SubStats {
			distinct[st] = true
		}
		if len(distinct) != len(s.SubStats) {
			errs = append(errs, fmt.Sprintf("artifact_sets[%d].sub_stats must be distinct", i))
		}
		if len(distinct) < 2 {
			errs = append(errs, fmt.Sprintf("artifact_sets[%d].sub_stats needs at least 2 stats", i))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}

func validSlot(s Slot) bool {
	for _, v := range Slots {
		if v == s {
			return true
		}
	}
	return false
}
