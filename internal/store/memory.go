package store

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/xtding233/progression-core/internal/ledger"
)

// Memory keeps each profile as its JSON encoding, so callers never share
// maps or slices with the stored state.
type Memory struct {
	mu       sync.Mutex
	rows     map[string][]byte
	defaults Defaults
}

func NewMemory(defaults Defaults) *Memory {
	return &Memory{rows: map[string][]byte{}, defaults: defaults}
}

func (m *Memory) Load(ctx context.Context, playerID string) (ledger.Profile, error) {
	if err := ctx.Err(); err != nil {
		return ledger.Profile{}, err
	}
	if err := CheckID(playerID); err != nil {
		return ledger.Profile{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	raw, ok := m.rows[playerID]
	if !ok {
		p := m.defaults()
		raw, err := encode(p)
		if err != nil {
			return ledger.Profile{}, err
		}
		m.rows[playerID] = raw
		return decode(raw)
	}
	return decode(raw)
}

func (m *Memory) Save(ctx context.Context, playerID string, p ledger.Profile) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := CheckID(playerID); err != nil {
		return err
	}
	raw, err := encode(p)
	if err != nil {
		return err
	}
	m.mu.Lock()
	m.rows[playerID] = raw
	m.mu.Unlock()
	return nil
}

// Raw returns the stored encoding of a profile.
func (m *Memory) Raw(playerID string) ([]byte, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	raw, ok := m.rows[playerID]
	if !ok {
		return nil, false
	}
	return append([]byte(nil), raw...), true
}

func encode(p ledger.Profile) ([]byte, error) {
	p.Normalize()
	raw, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("encode profile: %w", err)
	}
	return raw, nil
}

func decode(raw []byte) (ledger.Profile, error) {
	var p ledger.Profile
	if err := json.Unmarshal(raw, &p); err != nil {
		return ledger.Profile{}, fmt.Errorf("decode profile: %w", err)
	}
	p.Normalize()
	return p, nil
}
