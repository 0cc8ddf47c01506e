package catalog

import (
	_ "embed"
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed default.yaml
var defaultYAML []byte

// Load reads the embedded defaults, merges the override file at path over
// them (path may be empty), validates and returns the immutable catalog.
func Load(path string) (*Catalog, error) {
	defCfg, err := parseYAML(defaultYAML)
	if err != nil {
		return nil, fmt.Errorf("read default: %w", err)
	}
	merged := defCfg
	if path != "" {
		over, err := readYAML(path)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", path, err)
		}
		merged = mergeRaw(merged, over)
	}
	return Build(merged)
}

// Parse merges the given YAML documents over the embedded defaults in order.
func Parse(docs ...[]byte) (*Catalog, error) {
	merged, err := parseYAML(defaultYAML)
	if err != nil {
		return nil, fmt.Errorf("read default: %w", err)
	}
	for i, doc := range docs {
		cfg, err := parseYAML(doc)
		if err != nil {
			return nil, fmt.Errorf("parse document %d: %w", i, err)
		}
		merged = mergeRaw(merged, cfg)
	}
	return Build(merged)
}

// Default returns the catalog built from the embedded defaults only.
func Default() *Catalog {
	c, err := Parse()
	if err != nil {
		panic(fmt.Sprintf("embedded catalog is invalid: %v", err))
	}
	return c
}

// readYAML loads a YAML file into RawConfig. Missing files return zero cfg, no error.
func readYAML(path string) (RawConfig, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return RawConfig{}, nil
		}
		return RawConfig{}, err
	}
	return parseYAML(b)
}

func parseYAML(b []byte) (RawConfig, error) {
	var cfg RawConfig
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return RawConfig{}, err
	}
	return cfg, nil
}

// mergeRaw overlays b on a: set scalars in b win, non-empty lists in b
// replace the lists in a.
func mergeRaw(a, b RawConfig) RawConfig {
	out := a

	if b.Version != "" {
		out.Version = b.Version
	}
	if b.Notes != "" {
		out.Notes = b.Notes
	}

	// banner
	if b.Banner.Tokens != nil {
		var t TokenConfig
		if out.Banner.Tokens != nil {
			t = *out.Banner.Tokens
		}
		t.PerDraw = pick(t.PerDraw, b.Banner.Tokens.PerDraw)
		t.PerTenDraw = pick(t.PerTenDraw, b.Banner.Tokens.PerTenDraw)
		out.Banner.Tokens = &t
	}
	out.Banner.Pity4 = pick(out.Banner.Pity4, b.Banner.Pity4)
	out.Banner.Pity5 = pick(out.Banner.Pity5, b.Banner.Pity5)
	out.Banner.FiveStarBelow = pick(out.Banner.FiveStarBelow, b.Banner.FiveStarBelow)
	out.Banner.FourStarBelow = pick(out.Banner.FourStarBelow, b.Banner.FourStarBelow)
	out.Banner.RateUpProb = pick(out.Banner.RateUpProb, b.Banner.RateUpProb)

	// dungeon / combat
	out.Dungeon.EnergyCost = pick(out.Dungeon.EnergyCost, b.Dungeon.EnergyCost)
	out.Dungeon.EnergyMax = pick(out.Dungeon.EnergyMax, b.Dungeon.EnergyMax)
	out.Combat.HPScalePerLevel = pick(out.Combat.HPScalePerLevel, b.Combat.HPScalePerLevel)
	out.Combat.RewardMin = pick(out.Combat.RewardMin, b.Combat.RewardMin)
	out.Combat.RewardMax = pick(out.Combat.RewardMax, b.Combat.RewardMax)

	// defaults
	out.Defaults.Currency = pick(out.Defaults.Currency, b.Defaults.Currency)
	out.Defaults.Energy = pick(out.Defaults.Energy, b.Defaults.Energy)
	if b.Defaults.Stats != nil {
		var s StatsConfig
		if out.Defaults.Stats != nil {
			s = *out.Defaults.Stats
		}
		s.Attack = pick(s.Attack, b.Defaults.Stats.Attack)
		s.HP = pick(s.HP, b.Defaults.Stats.HP)
		s.CritRate = pick(s.CritRate, b.Defaults.Stats.CritRate)
		s.CritDmg = pick(s.CritDmg, b.Defaults.Stats.CritDmg)
		out.Defaults.Stats = &s
	}

	// lists
	if len(b.Characters) > 0 {
		out.Characters = append([]CharacterDef(nil), b.Characters...)
	}
	if b.Filler != nil {
		f := *b.Filler
		out.Filler = &f
	}
	if len(b.Monsters) > 0 {
		out.Monsters = append([]MonsterDef(nil), b.Monsters...)
	}
	if len(b.ArtifactSets) > 0 {
		out.ArtifactSets = append([]ArtifactSetDef(nil), b.ArtifactSets...)
	}
	return out
}

func pick[T any](a, b *T) *T {
	if b != nil {
		v := *b
		return &v
	}
	return a
}
