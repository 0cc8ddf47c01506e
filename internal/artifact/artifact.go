// Package artifact rolls equipment pieces for dungeon runs.
package artifact

import (
	"github.com/xtding233/progression-core/internal/catalog"
	perr "github.com/xtding233/progression-core/internal/errors"
	"github.com/xtding233/progression-core/internal/ledger"
	"github.com/xtding233/progression-core/internal/rng"
)

// RunOutcome reports one dungeon run.
type RunOutcome struct {
	Artifact  ledger.ArtifactInstance `json:"artifact"`
	SetName   string                  `json:"set_name"`
	Emoji     string                  `json:"emoji,omitempty"`
	Energy    int                     `json:"energy"`
	EnergyMax int                     `json:"energy_max"`
	Level     int                     `json:"dungeon_level"`
}

type Generator struct {
	cat   *catalog.Catalog
	rules catalog.Rules
	rng   rng.RandomSource
}

func NewGenerator(cat *catalog.Catalog, src rng.RandomSource) *Generator {
	if src == nil {
		src = rng.Default()
	}
	return &Generator{cat: cat, rules: cat.Rules(), rng: src}
}

// Generate rolls one level-0 piece of set: a uniform slot, a uniform main
// stat from that slot's pool and two distinct sub stats.
func Generate(set catalog.ArtifactSetDef, src rng.RandomSource) ledger.ArtifactInstance {
	slot := rng.Pick(src, catalog.Slots)
	main := rng.Pick(src, set.MainStats[slot])
	subs := rng.Sample(src, set.SubStats, 2)
	return ledger.ArtifactInstance{
		Set:      set.ID,
		Slot:     slot,
		MainStat: main,
		SubStats: [2]string{subs[0], subs[1]},
		Level:    0,
	}
}

// RunDungeon spends energy on one run of the set's dungeon. On success the
// returned copy of p has the new artifact appended, the energy cost debited
// and the set's dungeon level raised by one; on failure nothing changes.
func (g *Generator) RunDungeon(p ledger.Profile, setID string) (RunOutcome, ledger.Profile, error) {
	set, ok := g.cat.Set(setID)
	if !ok {
		return RunOutcome{}, p, perr.ErrUnknownSet.WithMetadata("set", setID)
	}
	if err := p.CanDrain(g.rules.EnergyCost); err != nil {
		return RunOutcome{}, p, err
	}

	next := p.Clone()
	a := Generate(set, g.rng)
	if err := next.Drain(g.rules.EnergyCost); err != nil {
		return RunOutcome{}, p, err
	}
	next.Artifacts = append(next.Artifacts, a)
	next.DungeonProgress[setID]++

	return RunOutcome{
		Artifact:  a,
		SetName:   set.Name,
		Emoji:     set.Emoji,
		Energy:    next.Energy,
		EnergyMax: g.rules.EnergyMax,
		Level:     next.DungeonProgress[setID],
	}, next, nil
}
