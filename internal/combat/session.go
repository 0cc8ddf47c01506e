package combat

import (
	"context"

	"github.com/google/uuid"
	"github.com/looplab/fsm"
)

// State is a combat session state.
type State string

const (
	StateIdle     State = "idle"
	StateInCombat State = "in_combat"
	StateVictory  State = "victory"
	StateDefeat   State = "defeat"
	StateFled     State = "fled"
)

const (
	eventEngage = "engage"
	eventWin    = "win"
	eventLose   = "lose"
	eventFlee   = "flee"
)

// Session is one ephemeral encounter. It is owned by the caller and never
// persisted; once it reaches a terminal state it accepts no more events.
type Session struct {
	ID        string  `json:"id"`
	Monster   string  `json:"monster"`
	Emoji     string  `json:"emoji,omitempty"`
	CurrentHP float64 `json:"hp"`
	MaxHP     float64 `json:"max_hp"`
	Attack    int     `json:"attack"`

	machine *fsm.FSM
}

func newSession(monster string, emoji string, hp float64, attack int) *Session {
	return &Session{
		ID:        uuid.NewString(),
		Monster:   monster,
		Emoji:     emoji,
		CurrentHP: hp,
		MaxHP:     hp,
		Attack:    attack,
		machine:   newMachine(StateIdle),
	}
}

func newMachine(initial State) *fsm.FSM {
	return fsm.NewFSM(
		string(initial),
		fsm.Events{
			{Name: eventEngage, Src: []string{string(StateIdle)}, Dst: string(StateInCombat)},
			{Name: eventWin, Src: []string{string(StateInCombat)}, Dst: string(StateVictory)},
			{Name: eventLose, Src: []string{string(StateInCombat)}, Dst: string(StateDefeat)},
			{Name: eventFlee, Src: []string{string(StateInCombat)}, Dst: string(StateFled)},
		},
		fsm.Callbacks{},
	)
}

// Copy returns an independent session in the same state.
func (s *Session) Copy() *Session {
	if s == nil {
		return nil
	}
	c := *s
	c.machine = newMachine(s.State())
	return &c
}

// State returns the current state. A nil session is idle.
func (s *Session) State() State {
	if s == nil || s.machine == nil {
		return StateIdle
	}
	return State(s.machine.Current())
}

// Active reports whether the session still accepts Attack and Flee.
func (s *Session) Active() bool { return s.State() == StateInCombat }

// Terminal reports whether the encounter is over.
func (s *Session) Terminal() bool {
	switch s.State() {
	case StateVictory, StateDefeat, StateFled:
		return true
	}
	return false
}

func (s *Session) fire(ctx context.Context, event string) error {
	return s.machine.Event(ctx, event)
}
