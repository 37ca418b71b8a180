package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/signalsfoundry/orbital-fleet-economics/internal/logging"
	"github.com/signalsfoundry/orbital-fleet-economics/internal/persist"
)

func newRunCommand(a *app) *cobra.Command {
	var (
		rf          rangeFlags
		exportPath  string
		archivePath string
		showStages  bool
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Simulate scenarios year by year",
		Long: `Simulate one or more scenarios over a year range and print the yearly
constraint utilizations, unit costs and cumulative savings.

Utilizations are coloured green (<= 90%), yellow (<= 110%) or red.

Examples:
  fleetsim run
  fleetsim run --scenario baseline --start 2025 --end 2040 --stages
  fleetsim run --spec configs/aggressive.yaml --export out.json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			keys, err := rf.keys()
			if err != nil {
				return err
			}
			base, err := rf.baseConfig()
			if err != nil {
				return err
			}

			runner := a.newRunner(a.newStore())
			reports, err := runner.RunAll(ctx, base, keys...)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for _, rep := range reports {
				ledger := printEntries(out, rep.Scenario, rep.Entries)
				if showStages && len(rep.Entries) > 0 {
					printStages(out, rep.Entries[len(rep.Entries)-1])
				}
				printSummary(out, ledger, rep.Warnings)
				fmt.Fprintf(out, "run %s took %s\n", rep.RunID, elapsed(rep.Duration))
			}

			if exportPath != "" {
				if err := persist.ExportFile(exportPath, runner.Store()); err != nil {
					return err
				}
				a.log.Info(ctx, "exported scenario entries", logging.String("path", exportPath))
			}

			arc, err := a.archive(archivePath)
			if err != nil {
				return err
			}
			if arc != nil {
				defer arc.Close()
				for _, rep := range reports {
					if err := arc.Save(ctx, rep.Scenario, rep.RunID, rep.Entries); err != nil {
						return err
					}
				}
				a.log.Info(ctx, "archived scenario entries", logging.Int("scenarios", len(reports)))
			}
			return nil
		},
	}

	rf.register(cmd, nil)
	cmd.Flags().StringVar(&exportPath, "export", "", "Write all entries to this JSON file")
	cmd.Flags().StringVar(&archivePath, "archive", "", "SQLite archive to upsert entries into (default from config)")
	cmd.Flags().BoolVar(&showStages, "stages", false, "Print the factory stages of the last year")

	return cmd
}
