// Package cli implements the fleetsim command line.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// NewRootCommand creates the root command for the CLI.
func NewRootCommand() *cobra.Command {
	a := &app{}

	rootCmd := &cobra.Command{
		Use:   "fleetsim",
		Short: "Hybrid compute fleet economics simulator",
		Long: `fleetsim forecasts the multi-year economics of a hybrid compute fleet:
terrestrial data centers against an orbital compute constellation.

Examples:
  fleetsim run --scenario baseline --end 2035
  fleetsim run --export results.json --archive fleetsim.db
  fleetsim forecast --scenario orbital-bull --replicates 500
  fleetsim crossover --scenario baseline --metric carbon
  fleetsim validate --from results.json
  fleetsim serve --addr :50061 --metrics-addr :9464`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			a.teardown(cmd.Context())
			return nil
		},
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
	}

	rootCmd.PersistentFlags().StringVar(&a.configPath, "config", "",
		"Path to a YAML config file (default ./fleetsim.yaml if present)")
	rootCmd.PersistentFlags().StringVar(&a.logLevel, "log-level", "",
		"Override the configured log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&a.overrides, "overrides", "",
		"YAML file with scenario parameter overrides")

	rootCmd.AddCommand(newRunCommand(a))
	rootCmd.AddCommand(newForecastCommand(a))
	rootCmd.AddCommand(newCrossoverCommand(a))
	rootCmd.AddCommand(newValidateCommand(a))
	rootCmd.AddCommand(newServeCommand(a))

	return rootCmd
}

// Execute runs the root command.
func Execute() {
	rootCmd := NewRootCommand()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
