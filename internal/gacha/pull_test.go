package gacha

import (
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/xtding233/progression-core/internal/catalog"
	perr "github.com/xtding233/progression-core/internal/errors"
	"github.com/xtding233/progression-core/internal/ledger"
	"github.com/xtding233/progression-core/internal/rng"
)

func newProfile(currency int) ledger.Profile {
	p := ledger.New(catalog.Default().Rules(), time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	p.Currency = currency
	return p
}

func TestPullInsufficientCurrencyLeavesProfile(t *testing.T) {
	r := NewResolver(catalog.Default(), rng.NewSeeded(1))
	p := newProfile(50)
	p.Pity4, p.Pity5 = 3, 7
	before := p.Clone()

	_, got, err := r.Pull(p, 1)
	if !errors.Is(err, perr.ErrInsufficientCurrency) {
		t.Fatalf("want insufficient currency, got %v", err)
	}
	if !reflect.DeepEqual(got, before) || !reflect.DeepEqual(p, before) {
		t.Fatalf("profile changed on failed pull")
	}

	p.Currency = 899
	if _, _, err := r.Pull(p, 10); !errors.Is(err, perr.ErrInsufficientCurrency) {
		t.Fatalf("ten pull with 899 should fail, got %v", err)
	}
}

func TestPullRejectsOtherCounts(t *testing.T) {
	r := NewResolver(catalog.Default(), rng.NewSeeded(1))
	for _, n := range []int{0, 2, 9, 100} {
		if _, _, err := r.Pull(newProfile(10000), n); !errors.Is(err, perr.ErrInvalidArgument) {
			t.Errorf("count %d: want invalid argument, got %v", n, err)
		}
	}
}

func TestFourStarPityAtNine(t *testing.T) {
	r := NewResolver(catalog.Default(), &rng.Script{Floats: []float64{0.99}})
	p := newProfile(100)
	p.Pity4, p.Pity5 = 9, 20

	out, next, err := r.Pull(p, 1)
	if err != nil {
		t.Fatal(err)
	}
	res := out.Results[0]
	if res.Rarity != 4 || res.Source != SourcePity4 {
		t.Fatalf("want pity 4-star, got %+v", res)
	}
	if next.Pity4 != 0 || next.Pity5 != 21 {
		t.Fatalf("counters after 4-star pity: %d/%d", next.Pity4, next.Pity5)
	}
	if next.Characters["Kasa Ebardov"] != 1 {
		t.Fatalf("4-star should be granted: %v", next.Characters)
	}
	if next.Currency != 0 || p.Currency != 100 {
		t.Fatalf("currency: next=%d original=%d", next.Currency, p.Currency)
	}
}

func TestFiveStarPityAtFortyNine(t *testing.T) {
	// the 50/50 draw comes out rate-up
	r := NewResolver(catalog.Default(), &rng.Script{Floats: []float64{0.1}})
	p := newProfile(100)
	p.Pity4, p.Pity5 = 2, 49

	out, next, err := r.Pull(p, 1)
	if err != nil {
		t.Fatal(err)
	}
	res := out.Results[0]
	if res.Rarity != 5 || res.Source != SourcePity5 || !res.RateUp {
		t.Fatalf("want pity rate-up 5-star, got %+v", res)
	}
	if next.Pity5 != 0 || next.Pity4 != 3 {
		t.Fatalf("counters after 5-star pity: %d/%d", next.Pity4, next.Pity5)
	}
	if next.Guaranteed {
		t.Fatalf("rate-up must not toggle the guarantee flag")
	}
}

func TestFourStarPityWinsTies(t *testing.T) {
	r := NewResolver(catalog.Default(), &rng.Script{Floats: []float64{0.1}})
	p := newProfile(200)
	p.Pity4, p.Pity5 = 9, 49

	out, next, err := r.Pull(p, 1)
	if err != nil {
		t.Fatal(err)
	}
	if out.Results[0].Rarity != 4 || next.Pity5 != 50 {
		t.Fatalf("4-star pity should take precedence: %+v pity5=%d", out.Results[0], next.Pity5)
	}
	out, next, err = r.Pull(next, 1)
	if err != nil {
		t.Fatal(err)
	}
	if out.Results[0].Rarity != 5 || out.Results[0].Source != SourcePity5 || next.Pity5 != 0 {
		t.Fatalf("5-star pity should fire next: %+v pity5=%d", out.Results[0], next.Pity5)
	}
}

func TestRollBranches(t *testing.T) {
	tests := []struct {
		name   string
		floats []float64
		rarity int
		rateUp bool
		pity4  int
		pity5  int
	}{
		{"five star rate-up", []float64{0.005, 0.2}, 5, true, 4, 0},
		{"five star standard", []float64{0.005, 0.8}, 5, false, 4, 0},
		{"four star", []float64{0.05}, 4, false, 0, 4},
		{"four star upper edge", []float64{0.0569}, 4, false, 0, 4},
		{"filler at 5.7", []float64{0.057}, 3, false, 4, 4},
		{"filler", []float64{0.5}, 3, false, 4, 4},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewResolver(catalog.Default(), &rng.Script{Floats: tt.floats})
			p := newProfile(100)
			p.Pity4, p.Pity5 = 3, 3
			out, next, err := r.Pull(p, 1)
			if err != nil {
				t.Fatal(err)
			}
			res := out.Results[0]
			if res.Rarity != tt.rarity || res.RateUp != tt.rateUp || res.Source != SourceRoll {
				t.Fatalf("got %+v", res)
			}
			if next.Pity4 != tt.pity4 || next.Pity5 != tt.pity5 {
				t.Fatalf("counters %d/%d, want %d/%d", next.Pity4, next.Pity5, tt.pity4, tt.pity5)
			}
			if res.Rarity == 3 && (res.Character || len(next.Characters) != 0) {
				t.Fatalf("filler must not be owned: %+v %v", res, next.Characters)
			}
		})
	}
}

func TestGuaranteeStillRollsFiftyFifty(t *testing.T) {
	r := NewResolver(catalog.Default(), &rng.Script{Floats: []float64{0.001, 0.9}})
	p := newProfile(100)
	p.Guaranteed = true

	out, next, err := r.Pull(p, 1)
	if err != nil {
		t.Fatal(err)
	}
	if out.Results[0].RateUp {
		t.Fatalf("scripted loss should give the standard character even when guaranteed")
	}
	if next.Guaranteed {
		t.Fatalf("standard draw should toggle the flag back off")
	}
}

func TestTenPullDebitsOnce(t *testing.T) {
	r := NewResolver(catalog.Default(), rng.NewSeeded(5))
	p := newProfile(1000)

	out, next, err := r.Pull(p, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(out.Results) != 10 {
		t.Fatalf("want 10 results, got %d", len(out.Results))
	}
	if next.Currency != 100 || out.Cost != 900 || out.Currency != 100 {
		t.Fatalf("currency after ten pull: %d (cost %d)", next.Currency, out.Cost)
	}
	// ten pulls from fresh counters always contain the 4-star pity
	owned := 0
	for _, n := range next.Characters {
		owned += n
	}
	chars := 0
	for _, res := range out.Results {
		if res.Character {
			chars++
		}
	}
	if chars == 0 || owned != chars {
		t.Fatalf("ownership %d should match character results %d", owned, chars)
	}
	if out.Pity4 != next.Pity4 || out.Pity5 != next.Pity5 || out.Guaranteed != next.Guaranteed {
		t.Fatalf("outcome should report end-state counters")
	}
}

func TestPityCountersProperty(t *testing.T) {
	r := NewResolver(catalog.Default(), rng.NewSeeded(2026))
	p := newProfile(1 << 30)
	for i := 0; i < 5000; i++ {
		prev := p
		out, next, err := r.Pull(p, 1)
		if err != nil {
			t.Fatal(err)
		}
		res := out.Results[0]

		if prev.Pity4 == 9 && res.Rarity != 4 {
			t.Fatalf("pull %d: pity4=9 must give a 4-star, got %+v", i, res)
		}
		if prev.Pity5 == 49 && prev.Pity4 != 9 && res.Rarity != 5 {
			t.Fatalf("pull %d: pity5=49 must give a 5-star, got %+v", i, res)
		}
		if res.Rarity == 4 {
			if next.Pity4 != 0 {
				t.Fatalf("pull %d: 4-star must reset pity4", i)
			}
		} else if next.Pity4 != prev.Pity4+1 {
			t.Fatalf("pull %d: pity4 %d -> %d", i, prev.Pity4, next.Pity4)
		}
		if res.Rarity == 5 {
			if next.Pity5 != 0 {
				t.Fatalf("pull %d: 5-star must reset pity5", i)
			}
		} else if next.Pity5 != prev.Pity5+1 {
			t.Fatalf("pull %d: pity5 %d -> %d", i, prev.Pity5, next.Pity5)
		}

		toggled := next.Guaranteed != prev.Guaranteed
		standard := res.Rarity == 5 && !res.RateUp
		if toggled != standard {
			t.Fatalf("pull %d: guarantee toggled=%v but standard=%v", i, toggled, standard)
		}
		p = next
	}
}

func TestPityRemaining(t *testing.T) {
	r := NewResolver(catalog.Default(), nil)
	p := newProfile(0)
	p.Pity4, p.Pity5 = 3, 49
	four, five := r.Pity(p)
	if four != 7 || five != 1 {
		t.Fatalf("remaining: %d/%d", four, five)
	}
}
