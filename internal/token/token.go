package token

import (
	"github.com/xtding233/progression-core/internal/catalog"
	perr "github.com/xtding233/progression-core/internal/errors"
)

// Token defines how much currency a pull batch costs.
type Token struct {
	Name       string // e.g. "Chrono Shards"
	PerDraw    int    // currency per single draw, e.g. 100
	PerTenDraw int    // price of a ten-pull batch, e.g. 900
}

// FromRules builds the price table of a catalog.
func FromRules(r catalog.Rules) Token {
	return Token{Name: "currency", PerDraw: r.PullCost, PerTenDraw: r.TenPullCost}
}

// Cost returns the price of one Pull call. Only batches of 1 and 10 are sold.
func (t Token) Cost(n int) (int, error) {
	switch n {
	case 1:
		return t.PerDraw, nil
	case 10:
		return t.PerTenDraw, nil
	default:
		return 0, perr.New(perr.CodeInvalidArgument, "pull count must be 1 or 10, got %d", n)
	}
}

// TokensForDraws returns how much currency n draws cost when bought in as
// many ten-pull batches as possible.
func (t Token) TokensForDraws(n int) int {
	if n <= 0 {
		return 0
	}
	if t.PerTenDraw > 0 && n >= 10 {
		tens := n / 10
		rem := n % 10
		return tens*t.PerTenDraw + rem*t.PerDraw
	}
	return n * t.PerDraw
}
