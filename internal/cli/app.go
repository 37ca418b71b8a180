package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/signalsfoundry/orbital-fleet-economics/internal/config"
	"github.com/signalsfoundry/orbital-fleet-economics/internal/forecast"
	"github.com/signalsfoundry/orbital-fleet-economics/internal/logging"
	"github.com/signalsfoundry/orbital-fleet-economics/internal/observability"
	"github.com/signalsfoundry/orbital-fleet-economics/internal/persist"
	"github.com/signalsfoundry/orbital-fleet-economics/internal/sim"
	"github.com/signalsfoundry/orbital-fleet-economics/internal/sim/state"
	"github.com/signalsfoundry/orbital-fleet-economics/kb"
	"github.com/signalsfoundry/orbital-fleet-economics/model"
)

// app carries what every command needs once flags and config are resolved.
type app struct {
	configPath string
	logLevel   string
	overrides  string

	cfg      *config.Config
	log      logging.Logger
	catalog  *kb.Catalog
	registry *prometheus.Registry
	metrics  *observability.SimCollector
	shutdown func(context.Context) error
}

func (a *app) setup(cmd *cobra.Command) error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		// The configured logger does not exist yet.
		logging.NewFromEnv().Error(context.Background(), "config load failed",
			logging.String("path", a.configPath), logging.Err(err))
		return fmt.Errorf("failed to load config: %w", err)
	}
	if a.logLevel != "" {
		cfg.Logging.Level = a.logLevel
	}
	if a.overrides != "" {
		cfg.Scenarios.OverridesFile = a.overrides
	}
	a.cfg = cfg

	lc := cfg.LoggerConfig()
	lc.Output = cmd.ErrOrStderr()
	a.log = logging.New(lc)

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	a.catalog = kb.NewCatalog()
	if path := cfg.Scenarios.OverridesFile; path != "" {
		keys, err := a.catalog.ApplyOverridesFile(path)
		if err != nil {
			return fmt.Errorf("failed to apply scenario overrides: %w", err)
		}
		a.log.Info(ctx, "applied scenario overrides",
			logging.String("path", path),
			logging.Int("scenarios", len(keys)),
		)
	}

	a.registry = prometheus.NewRegistry()
	a.metrics, err = observability.NewSimCollector(a.registry)
	if err != nil {
		return fmt.Errorf("failed to initialise metrics: %w", err)
	}

	a.shutdown, err = observability.InitTracing(ctx, cfg.Tracing, a.log)
	if err != nil {
		return fmt.Errorf("failed to initialise tracing: %w", err)
	}
	return nil
}

func (a *app) teardown(ctx context.Context) {
	if a.shutdown == nil {
		return
	}
	if ctx == nil {
		ctx = context.Background()
	}
	observability.ShutdownWithTimeout(ctx, a.shutdown, a.log)
}

func (a *app) newStore() *state.Store {
	return state.NewStore(a.log, state.WithMetricsRecorder(a.metrics))
}

func (a *app) newRunner(store *state.Store) *sim.Runner {
	return sim.NewRunner(store, a.catalog, a.log, sim.WithMetrics(a.metrics))
}

// archive opens the configured archive, or returns nil when none is set.
func (a *app) archive(path string) (*persist.Archive, error) {
	if path == "" {
		path = a.cfg.Archive.Path
	}
	if path == "" {
		return nil, nil
	}
	arc, err := persist.OpenArchive(path)
	if err != nil {
		return nil, err
	}
	return arc, nil
}

// rangeFlags are the scenario and year-range flags shared by most commands.
type rangeFlags struct {
	scenarios []string
	specPath  string
	startYear int
	endYear   int
}

func (f *rangeFlags) register(cmd *cobra.Command, defaultScenarios []string) {
	cmd.Flags().StringSliceVarP(&f.scenarios, "scenario", "s", defaultScenarios,
		"Scenario(s) to use: baseline, orbital-bull, orbital-bear")
	cmd.Flags().StringVar(&f.specPath, "spec", "", "YAML simulation config to start from")
	cmd.Flags().IntVar(&f.startYear, "start", 0, "First simulated year (default from spec)")
	cmd.Flags().IntVar(&f.endYear, "end", 0, "Last simulated year (default from spec)")
}

// baseConfig resolves the spec file and year overrides.
func (f *rangeFlags) baseConfig() (model.SimConfig, error) {
	cfg := model.DefaultSimConfig()
	if f.specPath != "" {
		spec, err := forecast.LoadSpecFile(f.specPath)
		if err != nil {
			return model.SimConfig{}, err
		}
		cfg = spec.Config
	}
	if f.startYear != 0 {
		cfg.StartYear = f.startYear
	}
	if f.endYear != 0 {
		cfg.EndYear = f.endYear
	}
	return cfg, nil
}

func (f *rangeFlags) keys() ([]model.ScenarioKey, error) {
	if len(f.scenarios) == 0 {
		return model.AllScenarios, nil
	}
	keys := make([]model.ScenarioKey, 0, len(f.scenarios))
	seen := make(map[model.ScenarioKey]bool)
	for _, s := range f.scenarios {
		if s == "all" {
			return model.AllScenarios, nil
		}
		key, err := model.ParseScenarioKey(s)
		if err != nil {
			return nil, err
		}
		if !seen[key] {
			seen[key] = true
			keys = append(keys, key)
		}
	}
	return keys, nil
}

func elapsed(d time.Duration) string {
	return d.Round(time.Millisecond).String()
}
