package gacha

import (
	"math"
	"sort"

	"github.com/xtding233/progression-core/internal/catalog"
	perr "github.com/xtding233/progression-core/internal/errors"
	"github.com/xtding233/progression-core/internal/rng"
)

// TrialGoal selects what the simulation measures per trial.
type TrialGoal string

const (
	// Pulls until the first 5-star of either kind.
	GoalFirstFiveStar TrialGoal = "first_five_star"
	// Pulls until the first rate-up 5-star.
	GoalFirstRateUp TrialGoal = "first_rate_up"
	// Given a fixed budget N, count 5-stars obtained.
	GoalFixedBudget TrialGoal = "fixed_budget"
)

// Goals lists every supported goal.
var Goals = []TrialGoal{GoalFirstFiveStar, GoalFirstRateUp, GoalFixedBudget}

// ParseGoal maps a goal name to its TrialGoal.
func ParseGoal(name string) (TrialGoal, error) {
	for _, g := range Goals {
		if string(g) == name {
			return g, nil
		}
	}
	return "", perr.New(perr.CodeInvalidArgument, "unknown goal %q", name)
}

// SimParams describes the starting point of every trial.
type SimParams struct {
	Pity4      int  // carried-over 4-star counter
	Pity5      int  // carried-over 5-star counter
	Guaranteed bool // carried-over guarantee flag
}

// SimBudget controls the number of draws used in GoalFixedBudget.
type SimBudget struct {
	NumDraws int // number of draws in one trial
}

// Stats summarizes simulation results.
type Stats struct {
	Goal   TrialGoal `json:"goal"`
	Trials int       `json:"trials"`
	Mean   float64   `json:"mean"`
	Var    float64   `json:"var"`
	StdDev float64   `json:"stddev"`
	P50    float64   `json:"p50"`
	P90    float64   `json:"p90"`
	P99    float64   `json:"p99"`
	// Observed rarity mix over every sub-pull of every trial.
	Tally Tally `json:"tally"`
	// Optional: raw samples if caller needs histograms/exports
	Samples []int `json:"-"`
}

// Tally counts sub-pull outcomes by rarity.
type Tally struct {
	Draws  int `json:"draws"`
	Five   int `json:"five_star"`
	RateUp int `json:"rate_up"`
	Four   int `json:"four_star"`
	Filler int `json:"filler"`
}

func (t *Tally) add(res PullResult) {
	t.Draws++
	switch {
	case res.Rarity == 5:
		t.Five++
		if res.RateUp {
			t.RateUp++
		}
	case res.Rarity == 4:
		t.Four++
	default:
		t.Filler++
	}
}

// calcStats computes mean/variance/percentiles for integer samples.
func calcStats(xs []int) Stats {
	n := len(xs)
	if n == 0 {
		return Stats{}
	}
	// mean
	var sum float64
	for _, v := range xs {
		sum += float64(v)
	}
	mean := sum / float64(n)

	// variance (population)
	var acc float64
	for _, v := range xs {
		d := float64(v) - mean
		acc += d * d
	}
	variance := acc / float64(n)
	stddev := math.Sqrt(variance)

	// percentiles
	cp := append([]int(nil), xs...)
	sort.Ints(cp)
	percentile := func(p float64) float64 {
		if n == 1 || p <= 0 {
			return float64(cp[0])
		}
		if p >= 1 {
			return float64(cp[n-1])
		}
		pos := p * float64(n-1)
		i := int(math.Floor(pos))
		f := pos - float64(i)
		if i+1 >= n {
			return float64(cp[i])
		}
		return float64(cp[i])*(1-f) + float64(cp[i+1])*f
	}

	return Stats{
		Trials:  n,
		Mean:    mean,
		Var:     variance,
		StdDev:  stddev,
		P50:     percentile(0.50),
		P90:     percentile(0.90),
		P99:     percentile(0.99),
		Samples: xs,
	}
}

// simulateOne returns the primary metric for one trial depending on the goal.
// Trials run the same per-pull algorithm as Pull, without the currency check.
func (r *Resolver) simulateOne(p SimParams, goal TrialGoal, budget *SimBudget, tally *Tally) (int, error) {
	st := PityState{Pity4: p.Pity4, Pity5: p.Pity5, Guaranteed: p.Guaranteed}

	switch goal {
	case GoalFirstFiveStar, GoalFirstRateUp:
		draws := 0
		for {
			draws++
			res, err := r.pullOnce(&st)
			if err != nil {
				return 0, err
			}
			tally.add(res)
			if res.Rarity == 5 && (goal == GoalFirstFiveStar || res.RateUp) {
				return draws, nil
			}
		}

	case GoalFixedBudget:
		if budget == nil || budget.NumDraws <= 0 {
			return 0, nil
		}
		count := 0
		for i := 0; i < budget.NumDraws; i++ {
			res, err := r.pullOnce(&st)
			if err != nil {
				return 0, err
			}
			tally.add(res)
			if res.Rarity == 5 {
				count++
			}
		}
		return count, nil
	}

	return 0, nil
}

// RunMonteCarlo repeats trials against the catalog's banner and returns
// summary stats. src may be nil for crypto randomness.
func RunMonteCarlo(cat *catalog.Catalog, src rng.RandomSource, p SimParams, goal TrialGoal, trials int, budget *SimBudget) (Stats, error) {
	if trials <= 0 {
		return Stats{Goal: goal}, nil
	}
	r := NewResolver(cat, src)
	samples := make([]int, trials)
	var tally Tally
	for i := 0; i < trials; i++ {
		v, err := r.simulateOne(p, goal, budget, &tally)
		if err != nil {
			return Stats{}, err
		}
		samples[i] = v
	}
	stats := calcStats(samples)
	stats.Goal = goal
	stats.Tally = tally
	return stats, nil
}
