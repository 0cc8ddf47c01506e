// Package service exposes the progression operations keyed by player id.
// Each call holds the player's lock, loads the profile once, runs one
// resolver and saves once; a failed call saves nothing.
package service

import (
	"context"
	"fmt"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	otelcodes "go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/xtding233/progression-core/internal/artifact"
	"github.com/xtding233/progression-core/internal/catalog"
	"github.com/xtding233/progression-core/internal/combat"
	perr "github.com/xtding233/progression-core/internal/errors"
	"github.com/xtding233/progression-core/internal/gacha"
	"github.com/xtding233/progression-core/internal/ledger"
	"github.com/xtding233/progression-core/internal/rng"
	"github.com/xtding233/progression-core/internal/store"
)

const tracerName = "github.com/xtding233/progression-core/internal/service"

// Encounter describes a combat session as seen by a caller.
type Encounter struct {
	SessionID string       `json:"session_id"`
	Monster   string       `json:"monster"`
	Emoji     string       `json:"emoji,omitempty"`
	HP        float64      `json:"monster_hp"`
	MaxHP     float64      `json:"monster_max_hp"`
	Attack    int          `json:"monster_attack"`
	PlayerHP  int          `json:"player_hp"`
	State     combat.State `json:"state"`
}

// FleeOutcome reports the end of a fled encounter.
type FleeOutcome struct {
	SessionID string       `json:"session_id"`
	Monster   string       `json:"monster"`
	State     combat.State `json:"state"`
}

type Options struct {
	LockMode ledger.LockMode
	// RNG is shared by every resolver. Nil means crypto randomness.
	RNG rng.RandomSource
	// Tracing defaults to the global provider.
	Tracing trace.TracerProvider
}

type Service struct {
	cat       *catalog.Catalog
	store     store.Store
	locker    *ledger.Locker
	gacha     *gacha.Resolver
	combat    *combat.Resolver
	artifacts *artifact.Generator
	tracer    trace.Tracer

	mu       sync.Mutex
	sessions map[string]*combat.Session
}

func New(cat *catalog.Catalog, st store.Store, opts Options) *Service {
	src := opts.RNG
	if src == nil {
		src = rng.Default()
	}
	src = rng.Locked(src)
	tp := opts.Tracing
	if tp == nil {
		tp = otel.GetTracerProvider()
	}
	return &Service{
		cat:       cat,
		store:     st,
		locker:    ledger.NewLocker(opts.LockMode),
		gacha:     gacha.NewResolver(cat, src),
		combat:    combat.NewResolver(cat, src),
		artifacts: artifact.NewGenerator(cat, src),
		tracer:    tp.Tracer(tracerName),
		sessions:  map[string]*combat.Session{},
	}
}

func (s *Service) Catalog() *catalog.Catalog { return s.cat }

// begin opens the operation span and takes the player's lock.
func (s *Service) begin(ctx context.Context, op, playerID string) (context.Context, func(error), error) {
	ctx, span := s.tracer.Start(ctx, "progression."+op, trace.WithAttributes(attribute.String("player.id", playerID)))
	end := func(err error) {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(otelcodes.Error, err.Error())
			span.SetAttributes(attribute.String("error.code", string(perr.GetCode(err))))
		}
		span.End()
	}
	if err := store.CheckID(playerID); err != nil {
		end(err)
		return ctx, nil, err
	}
	release, err := s.locker.Acquire(ctx, playerID)
	if err != nil {
		end(err)
		return ctx, nil, err
	}
	return ctx, func(err error) {
		release()
		end(err)
	}, nil
}

func (s *Service) Pull(ctx context.Context, playerID string, count int) (out gacha.PullOutcome, err error) {
	ctx, done, err := s.begin(ctx, "Pull", playerID)
	if err != nil {
		return gacha.PullOutcome{}, err
	}
	defer func() { done(err) }()

	p, err := s.load(ctx, playerID)
	if err != nil {
		return gacha.PullOutcome{}, err
	}
	out, next, err := s.gacha.Pull(p, count)
	if err != nil {
		return gacha.PullOutcome{}, err
	}
	if err := s.save(ctx, playerID, next); err != nil {
		return gacha.PullOutcome{}, err
	}
	trace.SpanFromContext(ctx).SetAttributes(
		attribute.Int("pull.count", count),
		attribute.Int("pull.pity_5star", out.Pity5),
	)
	return out, nil
}

// StartBattle opens a new encounter, replacing any the player already has.
func (s *Service) StartBattle(ctx context.Context, playerID string) (enc Encounter, err error) {
	ctx, done, err := s.begin(ctx, "StartBattle", playerID)
	if err != nil {
		return Encounter{}, err
	}
	defer func() { done(err) }()

	p, err := s.load(ctx, playerID)
	if err != nil {
		return Encounter{}, err
	}
	sess, err := s.combat.StartBattle(ctx, p)
	if err != nil {
		return Encounter{}, err
	}
	s.putSession(playerID, sess)
	trace.SpanFromContext(ctx).SetAttributes(attribute.String("combat.monster", sess.Monster))
	return encounterOf(sess, p), nil
}

func (s *Service) Attack(ctx context.Context, playerID string) (out combat.AttackOutcome, err error) {
	ctx, done, err := s.begin(ctx, "Attack", playerID)
	if err != nil {
		return combat.AttackOutcome{}, err
	}
	defer func() { done(err) }()

	sess, ok := s.session(playerID)
	if !ok {
		return combat.AttackOutcome{}, perr.ErrNoActiveSession
	}
	p, err := s.load(ctx, playerID)
	if err != nil {
		return combat.AttackOutcome{}, err
	}
	work := sess.Copy()
	out, next, err := s.combat.Attack(ctx, work, p)
	if err != nil {
		return combat.AttackOutcome{}, err
	}
	if err := s.save(ctx, playerID, next); err != nil {
		return combat.AttackOutcome{}, err
	}
	s.putSession(playerID, work)
	trace.SpanFromContext(ctx).SetAttributes(
		attribute.Bool("combat.crit", out.Crit),
		attribute.String("combat.state", string(out.State)),
	)
	return out, nil
}

func (s *Service) Flee(ctx context.Context, playerID string) (out FleeOutcome, err error) {
	ctx, done, err := s.begin(ctx, "Flee", playerID)
	if err != nil {
		return FleeOutcome{}, err
	}
	defer func() { done(err) }()

	sess, ok := s.session(playerID)
	if !ok {
		return FleeOutcome{}, perr.ErrNoActiveSession
	}
	state, err := s.combat.Flee(ctx, sess)
	if err != nil {
		return FleeOutcome{}, err
	}
	s.putSession(playerID, sess)
	return FleeOutcome{SessionID: sess.ID, Monster: sess.Monster, State: state}, nil
}

func (s *Service) RunDungeon(ctx context.Context, playerID, setID string) (out artifact.RunOutcome, err error) {
	ctx, done, err := s.begin(ctx, "RunDungeon", playerID)
	if err != nil {
		return artifact.RunOutcome{}, err
	}
	defer func() { done(err) }()

	p, err := s.load(ctx, playerID)
	if err != nil {
		return artifact.RunOutcome{}, err
	}
	out, next, err := s.artifacts.RunDungeon(p, setID)
	if err != nil {
		return artifact.RunOutcome{}, err
	}
	if err := s.save(ctx, playerID, next); err != nil {
		return artifact.RunOutcome{}, err
	}
	trace.SpanFromContext(ctx).SetAttributes(
		attribute.String("dungeon.set", setID),
		attribute.Int("dungeon.level", out.Level),
	)
	return out, nil
}

// GetProfile returns the stored profile, creating the default one for a new
// player.
func (s *Service) GetProfile(ctx context.Context, playerID string) (p ledger.Profile, err error) {
	ctx, done, err := s.begin(ctx, "GetProfile", playerID)
	if err != nil {
		return ledger.Profile{}, err
	}
	defer func() { done(err) }()
	return s.load(ctx, playerID)
}

// Encounter reports the player's current encounter. It takes the player's
// lock like every other operation, so it never observes a half-applied
// attack.
func (s *Service) Encounter(ctx context.Context, playerID string) (enc Encounter, err error) {
	ctx, done, err := s.begin(ctx, "Encounter", playerID)
	if err != nil {
		return Encounter{}, err
	}
	defer func() { done(err) }()

	sess, ok := s.session(playerID)
	if !ok {
		return Encounter{}, perr.ErrNoActiveSession
	}
	p, err := s.load(ctx, playerID)
	if err != nil {
		return Encounter{}, err
	}
	return encounterOf(sess, p), nil
}

func (s *Service) load(ctx context.Context, playerID string) (ledger.Profile, error) {
	p, err := s.store.Load(ctx, playerID)
	if err != nil {
		return ledger.Profile{}, fmt.Errorf("load profile: %w", err)
	}
	return p, nil
}

func (s *Service) save(ctx context.Context, playerID string, p ledger.Profile) error {
	if err := s.store.Save(ctx, playerID, p); err != nil {
		return fmt.Errorf("save profile: %w", err)
	}
	return nil
}

func (s *Service) session(playerID string) (*combat.Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[playerID]
	return sess, ok && sess.Active()
}

// putSession stores sess for the player; finished sessions are dropped.
func (s *Service) putSession(playerID string, sess *combat.Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sess == nil || sess.Terminal() {
		delete(s.sessions, playerID)
		return
	}
	s.sessions[playerID] = sess
}

func encounterOf(sess *combat.Session, p ledger.Profile) Encounter {
	return Encounter{
		SessionID: sess.ID,
		Monster:   sess.Monster,
		Emoji:     sess.Emoji,
		HP:        sess.CurrentHP,
		MaxHP:     sess.MaxHP,
		Attack:    sess.Attack,
		PlayerHP:  p.Stats.HP,
		State:     sess.State(),
	}
}

// Operations is the per-player surface the transports adapt.
type Operations interface {
	Pull(ctx context.Context, playerID string, count int) (gacha.PullOutcome, error)
	StartBattle(ctx context.Context, playerID string) (Encounter, error)
	Encounter(ctx context.Context, playerID string) (Encounter, error)
	Attack(ctx context.Context, playerID string) (combat.AttackOutcome, error)
	Flee(ctx context.Context, playerID string) (FleeOutcome, error)
	RunDungeon(ctx context.Context, playerID, setID string) (artifact.RunOutcome, error)
	GetProfile(ctx context.Context, playerID string) (ledger.Profile, error)
}

var _ Operations = (*Service)(nil)
