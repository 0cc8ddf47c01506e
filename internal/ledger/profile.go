// Package ledger owns a player's mutable economy state. Resolvers receive a
// Profile value, work on a Clone and hand the clone back; nothing here is
// shared between players.
package ledger

import (
	"strconv"
	"time"

	"github.com/xtding233/progression-core/internal/catalog"
	perr "github.com/xtding233/progression-core/internal/errors"
)

// CombatStats are persistent: HP carries over between encounters and is only
// restored by whoever owns the healing policy.
type CombatStats struct {
	Attack   int `json:"attack"`
	HP       int `json:"hp"`
	CritRate int `json:"crit_rate"` // percent
	CritDmg  int `json:"crit_dmg"`  // percent
}

// ArtifactInstance is immutable once created.
type ArtifactInstance struct {
	Set      string       `json:"set"`
	Slot     catalog.Slot `json:"type"`
	MainStat string       `json:"main_stat"`
	SubStats [2]string    `json:"sub_stats"`
	Level    int          `json:"level"`
}

// ArtifactRef points at an entry of Profile.Artifacts by index.
type ArtifactRef int

type Profile struct {
	Currency         int                          `json:"currency"`
	Energy           int                          `json:"energy"`
	EnergyLastUpdate time.Time                    `json:"energy_last_update"`
	Characters       map[string]int               `json:"characters"`
	Artifacts        []ArtifactInstance           `json:"artifacts"`
	Equipped         map[catalog.Slot]ArtifactRef `json:"equipped"`
	Stats            CombatStats                  `json:"stats"`
	DungeonProgress  map[string]int               `json:"dungeon_progress"`
	Pity4            int                          `json:"pity_4star"`
	Pity5            int                          `json:"pity_5star"`
	Guaranteed       bool                         `json:"is_guaranteed"`
}

// New returns the default profile handed to a player on first contact.
// Timestamps carry millisecond precision so every store round-trips them.
func New(rules catalog.Rules, now time.Time) Profile {
	return Profile{
		Currency:         rules.StartCurrency,
		Energy:           rules.StartEnergy,
		EnergyLastUpdate: now.UTC().Truncate(time.Millisecond),
		Characters:       map[string]int{},
		Artifacts:        []ArtifactInstance{},
		Equipped:         map[catalog.Slot]ArtifactRef{},
		Stats: CombatStats{
			Attack:   rules.StartAttack,
			HP:       rules.StartHP,
			CritRate: rules.StartCritRate,
			CritDmg:  rules.StartCritDmg,
		},
		DungeonProgress: map[string]int{},
	}
}

// Clone returns a deep copy.
func (p Profile) Clone() Profile {
	out := p
	out.Characters = make(map[string]int, len(p.Characters))
	for k, v := range p.Characters {
		out.Characters[k] = v
	}
	out.Artifacts = append(make([]ArtifactInstance, 0, len(p.Artifacts)), p.Artifacts...)
	out.Equipped = make(map[catalog.Slot]ArtifactRef, len(p.Equipped))
	for k, v := range p.Equipped {
		out.Equipped[k] = v
	}
	out.DungeonProgress = make(map[string]int, len(p.DungeonProgress))
	for k, v := range p.DungeonProgress {
		out.DungeonProgress[k] = v
	}
	return out
}

// Normalize replaces nil collections with empty ones, e.g. after decoding.
func (p *Profile) Normalize() {
	if p.Characters == nil {
		p.Characters = map[string]int{}
	}
	if p.Artifacts == nil {
		p.Artifacts = []ArtifactInstance{}
	}
	if p.Equipped == nil {
		p.Equipped = map[catalog.Slot]ArtifactRef{}
	}
	if p.DungeonProgress == nil {
		p.DungeonProgress = map[string]int{}
	}
	p.EnergyLastUpdate = p.EnergyLastUpdate.UTC()
}

// TotalDungeonLevel sums every dungeon level.
func (p Profile) TotalDungeonLevel() int {
	total := 0
	for _, lvl := range p.DungeonProgress {
		total += lvl
	}
	return total
}

// CanSpend reports whether amount can be debited from currency.
func (p Profile) CanSpend(amount int) error {
	if amount < 0 {
		return perr.New(perr.CodeInvalidArgument, "negative spend %d", amount)
	}
	if p.Currency < amount {
		return perr.ErrInsufficientCurrency.WithMetadata("need", strconv.Itoa(amount), "have", strconv.Itoa(p.Currency))
	}
	return nil
}

// Spend debits currency. Callers check CanSpend before mutating anything else.
func (p *Profile) Spend(amount int) error {
	if err := p.CanSpend(amount); err != nil {
		return err
	}
	p.Currency -= amount
	return nil
}

// Earn credits currency.
func (p *Profile) Earn(amount int) {
	if amount > 0 {
		p.Currency += amount
	}
}

// CanDrain reports whether amount energy is available.
func (p Profile) CanDrain(amount int) error {
	if amount < 0 {
		return perr.New(perr.CodeInvalidArgument, "negative energy cost %d", amount)
	}
	if p.Energy < amount {
		return perr.ErrInsufficientEnergy.WithMetadata("need", strconv.Itoa(amount), "have", strconv.Itoa(p.Energy))
	}
	return nil
}

// Drain debits energy.
func (p *Profile) Drain(amount int) error {
	if err := p.CanDrain(amount); err != nil {
		return err
	}
	p.Energy -= amount
	return nil
}

// Grant adds one copy of a character.
func (p *Profile) Grant(name string) {
	if p.Characters == nil {
		p.Characters = map[string]int{}
	}
	p.Characters[name]++
}

// TakeHit applies damage to persistent HP, floored at zero, and returns the
// remaining HP.
func (p *Profile) TakeHit(damage int) int {
	if damage < 0 {
		damage = 0
	}
	p.Stats.HP -= damage
	if p.Stats.HP < 0 {
		p.Stats.HP = 0
	}
	return p.Stats.HP
}
