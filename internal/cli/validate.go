package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/signalsfoundry/orbital-fleet-economics/internal/sim/state"
)

func newValidateCommand(a *app) *cobra.Command {
	var (
		sf     sourceFlags
		strict bool
	)

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Check stored entries against the model invariants",
		Long: `Validate every entry of the selected scenarios and scan each series for
degenerate regimes (maintenance never binding, backhaul saturated).

Warnings never change the data. With --strict the command fails when any
invariant-severity warning is raised.

Examples:
  fleetsim validate
  fleetsim validate --from results.json --strict
  fleetsim validate --archive fleetsim.db --scenario orbital-bear`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			store, keys, err := sf.load(ctx, a)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			invariants := 0
			for _, key := range keys {
				entries := store.AllEntries(key)
				var warnings []state.Warning
				for _, e := range entries {
					warnings = append(warnings, state.ValidateEntry(e).Warnings...)
				}
				warnings = append(warnings, store.ValidateAcrossYears(ctx, key)...)

				fmt.Fprintf(out, "%s (%d entries): ", headerColor.Sprint(string(key)), len(entries))
				printWarnings(out, warnings)
				for _, w := range warnings {
					if w.Severity == state.SeverityInvariant {
						invariants++
					}
				}
			}
			if strict && invariants > 0 {
				return fmt.Errorf("%d invariant violation(s)", invariants)
			}
			return nil
		},
	}

	sf.register(cmd)
	cmd.Flags().BoolVar(&strict, "strict", false, "Fail on invariant violations")

	return cmd
}
