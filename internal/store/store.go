// Package store persists player profiles.
package store

import (
	"context"
	"strings"
	"time"

	"github.com/xtding233/progression-core/internal/catalog"
	perr "github.com/xtding233/progression-core/internal/errors"
	"github.com/xtding233/progression-core/internal/ledger"
)

// Store loads and saves whole profiles. Load on an unknown id creates,
// persists and returns the default profile.
type Store interface {
	Load(ctx context.Context, playerID string) (ledger.Profile, error)
	Save(ctx context.Context, playerID string, p ledger.Profile) error
}

// Defaults builds the profile handed to a player on first contact.
type Defaults func() ledger.Profile

// DefaultsFrom returns a Defaults stamping profiles with now().
func DefaultsFrom(rules catalog.Rules, now func() time.Time) Defaults {
	if now == nil {
		now = time.Now
	}
	return func() ledger.Profile { return ledger.New(rules, now()) }
}

// CheckID rejects blank player ids.
func CheckID(playerID string) error {
	if strings.TrimSpace(playerID) == "" {
		return perr.New(perr.CodeInvalidArgument, "player id is required")
	}
	return nil
}
