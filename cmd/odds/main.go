// Command odds estimates banner odds by Monte Carlo simulation.
package main

import (
	"fmt"
	"io"
	"log"
	"math"
	"os"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/xtding233/progression-core/internal/catalog"
	"github.com/xtding233/progression-core/internal/gacha"
	"github.com/xtding233/progression-core/internal/report"
	"github.com/xtding233/progression-core/internal/rng"
	"github.com/xtding233/progression-core/internal/token"
)

type options struct {
	goal       string
	trials     int
	draws      int
	pity4      int
	pity5      int
	guaranteed bool
	seed       uint64
	xlsx       string
	catalog    string
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var opts options
	cmd := &cobra.Command{
		Use:   "odds",
		Short: "Simulate banner pulls and report how many it takes",
		Long: "odds runs the pull resolver against the catalog's banner many times and reports\n" +
			"mean, spread and percentiles for each goal. Use --goal all to run every goal.",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd.OutOrStdout(), opts)
		},
	}
	f := cmd.Flags()
	f.StringVar(&opts.goal, "goal", string(gacha.GoalFirstFiveStar), "first_five_star, first_rate_up, fixed_budget or all")
	f.IntVar(&opts.trials, "trials", 100000, "number of trials per goal")
	f.IntVar(&opts.draws, "draws", 90, "pulls per trial for fixed_budget")
	f.IntVar(&opts.pity4, "pity4", 0, "carried-over 4-star pity counter")
	f.IntVar(&opts.pity5, "pity5", 0, "carried-over 5-star pity counter")
	f.BoolVar(&opts.guaranteed, "guaranteed", false, "start with the rate-up guarantee")
	f.Uint64Var(&opts.seed, "seed", 0, "seed for reproducible runs (0 uses crypto randomness)")
	f.StringVar(&opts.xlsx, "xlsx", "", "also write the results to this xlsx file")
	f.StringVar(&opts.catalog, "catalog", "", "YAML file merged over the built-in catalog")
	return cmd
}

func run(w io.Writer, opts options) error {
	cat, err := catalog.Load(opts.catalog)
	if err != nil {
		return err
	}
	if opts.trials <= 0 {
		return fmt.Errorf("--trials must be positive")
	}
	if opts.pity4 < 0 || opts.pity5 < 0 {
		return fmt.Errorf("pity counters cannot be negative")
	}

	goals := gacha.Goals
	if opts.goal != "all" {
		g, err := gacha.ParseGoal(opts.goal)
		if err != nil {
			return err
		}
		goals = []gacha.TrialGoal{g}
	}

	var src rng.RandomSource
	if opts.seed != 0 {
		src = rng.NewSeeded(opts.seed)
	}
	params := gacha.SimParams{Pity4: opts.pity4, Pity5: opts.pity5, Guaranteed: opts.guaranteed}

	results := make([]gacha.Stats, 0, len(goals))
	for _, g := range goals {
		var budget *gacha.SimBudget
		if g == gacha.GoalFixedBudget {
			if opts.draws <= 0 {
				return fmt.Errorf("--draws must be positive for %s", g)
			}
			budget = &gacha.SimBudget{NumDraws: opts.draws}
		}
		stats, err := gacha.RunMonteCarlo(cat, src, params, g, opts.trials, budget)
		if err != nil {
			return err
		}
		results = append(results, stats)
	}

	printTable(w, results, token.FromRules(cat.Rules()))
	if opts.xlsx != "" {
		path, err := report.ExportXLSX(opts.xlsx, results, cat.Rules())
		if err != nil {
			return fmt.Errorf("export xlsx: %w", err)
		}
		log.Printf("wrote %s", path)
	}
	return nil
}

// printTable writes one row per goal. P90 COST prices the P90 pull count for
// the pull goals.
func printTable(w io.Writer, results []gacha.Stats, price token.Token) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "GOAL\tTRIALS\tMEAN\tSTDDEV\tP50\tP90\tP99\t5★/PULL\tP90 COST")
	for _, s := range results {
		rate := 0.0
		if s.Tally.Draws > 0 {
			rate = float64(s.Tally.Five) / float64(s.Tally.Draws)
		}
		cost := "-"
		if s.Goal != gacha.GoalFixedBudget {
			cost = strconv.Itoa(price.TokensForDraws(int(math.Ceil(s.P90))))
		}
		fmt.Fprintf(tw, "%s\t%d\t%.2f\t%.2f\t%.0f\t%.0f\t%.0f\t%.4f\t%s\n",
			s.Goal, s.Trials, s.Mean, s.StdDev, s.P50, s.P90, s.P99, rate, cost)
	}
	_ = tw.Flush()
}
