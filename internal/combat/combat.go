// Package combat resolves turn-based encounters against one random monster.
package combat

import (
	"context"
	"fmt"
	"math"

	"github.com/xtding233/progression-core/internal/catalog"
	perr "github.com/xtding233/progression-core/internal/errors"
	"github.com/xtding233/progression-core/internal/ledger"
	"github.com/xtding233/progression-core/internal/rng"
)

// AttackOutcome reports one exchange.
type AttackOutcome struct {
	SessionID     string  `json:"session_id"`
	Monster       string  `json:"monster"`
	Roll          int     `json:"roll"`
	Crit          bool    `json:"crit"`
	Damage        float64 `json:"damage"`
	MonsterHP     float64 `json:"monster_hp"`
	MaxHP         float64 `json:"monster_max_hp"`
	MonsterDamage int     `json:"monster_damage"` // zero on victory
	PlayerHP      int     `json:"player_hp"`
	Reward        int     `json:"reward"`
	Currency      int     `json:"currency"`
	State         State   `json:"state"`
}

type Resolver struct {
	cat   *catalog.Catalog
	rules catalog.Rules
	rng   rng.RandomSource
}

func NewResolver(cat *catalog.Catalog, src rng.RandomSource) *Resolver {
	if src == nil {
		src = rng.Default()
	}
	return &Resolver{cat: cat, rules: cat.Rules(), rng: src}
}

// Damage computes a player hit. A crit doubles the attack and then applies
// the crit damage bonus on top.
func Damage(attack, critDmgPercent int, crit bool) float64 {
	d := float64(attack)
	if crit {
		d = d * 2 * (1 + float64(critDmgPercent)/100)
	}
	return math.Max(0, d)
}

// ScaledHP is a monster's HP after dungeon scaling.
func ScaledHP(baseHP int, scalePerLevel float64, totalDungeonLevel int) float64 {
	return float64(baseHP) * (1 + scalePerLevel*float64(totalDungeonLevel))
}

// StartBattle picks a monster uniformly and scales it to the player's total
// dungeon level. The returned session is already in combat.
func (r *Resolver) StartBattle(ctx context.Context, p ledger.Profile) (*Session, error) {
	monsters := r.cat.Monsters()
	if len(monsters) == 0 {
		return nil, perr.New(perr.CodeInternal, "catalog has no monsters")
	}
	m := rng.Pick(r.rng, monsters)
	hp := ScaledHP(m.HP, r.rules.HPScale, p.TotalDungeonLevel())
	s := newSession(m.Name, m.Emoji, hp, m.Attack)
	if err := s.fire(ctx, eventEngage); err != nil {
		return nil, fmt.Errorf("engage: %w", err)
	}
	return s, nil
}

// Attack runs one exchange: the player strikes, then a surviving monster
// strikes back. s is advanced in place; p is not modified and the updated
// copy is returned.
func (r *Resolver) Attack(ctx context.Context, s *Session, p ledger.Profile) (AttackOutcome, ledger.Profile, error) {
	if !s.Active() {
		return AttackOutcome{}, p, perr.ErrNoActiveSession
	}
	next := p.Clone()

	roll := rng.Roll(r.rng, 1, 100)
	crit := roll <= next.Stats.CritRate
	dmg := Damage(next.Stats.Attack, next.Stats.CritDmg, crit)
	s.CurrentHP -= dmg

	out := AttackOutcome{
		SessionID: s.ID,
		Monster:   s.Monster,
		Roll:      roll,
		Crit:      crit,
		Damage:    dmg,
		MaxHP:     s.MaxHP,
	}

	if s.CurrentHP <= 0 {
		if err := s.fire(ctx, eventWin); err != nil {
			return AttackOutcome{}, p, fmt.Errorf("win: %w", err)
		}
		out.Reward = rng.Roll(r.rng, r.rules.RewardMin, r.rules.RewardMax)
		next.Earn(out.Reward)
	} else {
		out.MonsterDamage = s.Attack
		if next.TakeHit(s.Attack) <= 0 {
			if err := s.fire(ctx, eventLose); err != nil {
				return AttackOutcome{}, p, fmt.Errorf("lose: %w", err)
			}
		}
	}

	out.MonsterHP = math.Max(0, s.CurrentHP)
	out.PlayerHP = next.Stats.HP
	out.Currency = next.Currency
	out.State = s.State()
	return out, next, nil
}

// Flee ends an active session with no reward and no HP change.
func (r *Resolver) Flee(ctx context.Context, s *Session) (State, error) {
	if !s.Active() {
		return s.State(), perr.ErrNoActiveSession
	}
	if err := s.fire(ctx, eventFlee); err != nil {
		return s.State(), fmt.Errorf("flee: %w", err)
	}
	return s.State(), nil
}
