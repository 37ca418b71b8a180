package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/signalsfoundry/orbital-fleet-economics/internal/forecast"
	"github.com/signalsfoundry/orbital-fleet-economics/internal/logging"
)

func newForecastCommand(a *app) *cobra.Command {
	var (
		rf         rangeFlags
		replicates int
		jitter     float64
		seed       uint64
		workers    int
		asJSON     bool
	)

	cmd := &cobra.Command{
		Use:   "forecast",
		Short: "Generate Monte Carlo percentile bands",
		Long: `Run jittered replicates of a scenario and print the p10/p50/p90 bands of
the blended cost per compute, latency and carbon intensity.

Replicates, jitter, seed and workers default to the forecast section of the
config file. The same seed always yields the same bands.

Examples:
  fleetsim forecast --scenario baseline
  fleetsim forecast --scenario orbital-bear --replicates 1000 --jitter 0.25
  fleetsim forecast --spec configs/aggressive.yaml --json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			keys, err := rf.keys()
			if err != nil {
				return err
			}
			if len(keys) != 1 {
				return fmt.Errorf("forecast takes exactly one scenario, got %d", len(keys))
			}
			cfg, err := rf.baseConfig()
			if err != nil {
				return err
			}
			cfg.Scenario = keys[0]

			defaults := a.cfg.Forecast
			if !cmd.Flags().Changed("replicates") {
				replicates = defaults.Replicates
			}
			if !cmd.Flags().Changed("jitter") {
				jitter = defaults.Jitter
			}
			if !cmd.Flags().Changed("seed") {
				seed = defaults.Seed
			}
			if !cmd.Flags().Changed("workers") {
				workers = defaults.Workers
			}

			engine := forecast.NewEngine(a.catalog, a.log,
				forecast.WithWorkers(workers),
				forecast.WithJitter(jitter),
				forecast.WithSeed(seed),
				forecast.WithMetrics(a.metrics),
			)
			bands, err := engine.GenerateBands(ctx, forecast.NewSpec(cfg), replicates)
			if err != nil {
				return err
			}
			a.log.Debug(ctx, "forecast bands ready",
				logging.String("scenario", string(cfg.Scenario)),
				logging.Int("years", len(bands.CostPerCompute)),
			)

			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(bands)
			}
			fmt.Fprintf(out, "%s (%d replicates, jitter %.2f, seed %d)\n",
				headerColor.Sprintf("Forecast %s", cfg.Scenario), replicates, jitter, seed)
			printBands(out, "Mix cost per compute ($/PFLOPS-yr)", bands.CostPerCompute)
			printBands(out, "Mix latency (ms)", bands.Latency)
			printBands(out, "Mix carbon intensity (tCO2/PFLOPS-yr)", bands.Carbon)
			return nil
		},
	}

	rf.register(cmd, []string{"baseline"})
	cmd.Flags().IntVarP(&replicates, "replicates", "n", 0, "Number of replicates")
	cmd.Flags().Float64Var(&jitter, "jitter", 0, "Relative jitter applied to each replicate")
	cmd.Flags().Uint64Var(&seed, "seed", 0, "Random seed")
	cmd.Flags().IntVar(&workers, "workers", 0, "Concurrent replicates (0 = GOMAXPROCS)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the bands as JSON")

	return cmd
}

func printBands(w io.Writer, title string, points []forecast.BandPoint) {
	fmt.Fprintf(w, "\n%s\n", title)
	tw := newTable(w)
	printHeader(tw, "YEAR", "P10", "P50", "P90", "SAMPLES")
	for _, p := range points {
		if p.Empty() {
			fmt.Fprintf(tw, "%d\t-\t-\t-\t%s\n", p.Year, dimColor.Sprint("0"))
			continue
		}
		fmt.Fprintf(tw, "%d\t%.2f\t%.2f\t%.2f\t%d\n", p.Year, p.P10, p.P50, p.P90, p.Samples)
	}
	tw.Flush()
}
