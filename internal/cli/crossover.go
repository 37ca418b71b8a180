package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/signalsfoundry/orbital-fleet-economics/internal/crossover"
	"github.com/signalsfoundry/orbital-fleet-economics/model"
)

func newCrossoverCommand(a *app) *cobra.Command {
	var (
		sf          sourceFlags
		metricName  string
		maxYear     int
		confirm     int
		fallback    bool
		interpolate bool
		verbose     bool
	)

	cmd := &cobra.Command{
		Use:   "crossover",
		Short: "Find the year orbit undercuts ground",
		Long: `Find the year the orbital segment's metric is confirmed below the ground
segment's: the year that completes --confirm consecutive compared years with
orbit below ground. Metrics: cost, latency, carbon, opex.

With --fallback, a scenario with no crossover up to --max-year reports the
latest compared year when orbit is below ground there. With --interpolate,
interior gaps in either series are filled linearly instead of skipped.

Examples:
  fleetsim crossover --scenario baseline
  fleetsim crossover --metric carbon --max-year 2035 --fallback
  fleetsim crossover --metric opex --confirm 1
  fleetsim crossover --from results.json --verbose`,
		RunE: func(cmd *cobra.Command, args []string) error {
			metric, err := model.ParseMetric(metricName)
			if err != nil {
				return err
			}
			store, keys, err := sf.load(cmd.Context(), a)
			if err != nil {
				return err
			}

			var opts []crossover.Option
			if fallback {
				opts = append(opts, crossover.WithLatestYearFallback())
			}
			if interpolate {
				opts = append(opts, crossover.WithMissingYearPolicy(crossover.Interpolate))
			}
			if confirm < 1 {
				return fmt.Errorf("--confirm must be at least 1, got %d", confirm)
			}
			opts = append(opts, crossover.WithConfirmYears(confirm))

			out := cmd.OutOrStdout()
			for _, key := range keys {
				entries := store.AllEntries(key)
				limit := maxYear
				if limit == 0 {
					limit = entries[len(entries)-1].Year
				}
				orbit, ground := model.SegmentSeries(entries, metric)
				res := crossover.Detect(orbit, ground, limit, opts...)

				switch {
				case !res.Found():
					fmt.Fprintf(out, "%s %s: %s\n", key, metric, dimColor.Sprintf("no crossover through %d", limit))
				case res.Implicit:
					fmt.Fprintf(out, "%s %s: %s\n", key, metric, yellowColor.Sprintf("%d (latest compared year)", *res.Year))
				default:
					fmt.Fprintf(out, "%s %s: %s\n", key, metric, greenColor.Sprintf("%d", *res.Year))
				}

				if verbose {
					tw := newTable(out)
					printHeader(tw, "YEAR", "ORBIT", "GROUND", "ORBIT BELOW")
					for _, c := range res.Comparisons {
						mark := ""
						if c.Interpolated {
							mark = " (interpolated)"
						}
						fmt.Fprintf(tw, "%d\t%.2f\t%.2f\t%t%s\n", c.Year, c.Orbit, c.Ground, c.OrbitBelow, mark)
					}
					tw.Flush()
				}
			}
			return nil
		},
	}

	sf.register(cmd)
	cmd.Flags().StringVarP(&metricName, "metric", "m", string(model.MetricCostPerCompute), "Metric to compare")
	cmd.Flags().IntVar(&maxYear, "max-year", 0, "Last year the scan may report (default last stored year)")
	cmd.Flags().IntVar(&confirm, "confirm", crossover.DefaultConfirmYears, "Consecutive years orbit must stay below ground")
	cmd.Flags().BoolVar(&fallback, "fallback", false, "Report the latest compared year when orbit ends below ground")
	cmd.Flags().BoolVar(&interpolate, "interpolate", false, "Interpolate interior missing years")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Print every compared year")

	return cmd
}
