// Package sim drives scenario runs: it steps the yearly model over a year
// range, persists the snapshots into a state store and validates the result.
package sim

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/signalsfoundry/orbital-fleet-economics/core"
	"github.com/signalsfoundry/orbital-fleet-economics/internal/logging"
	"github.com/signalsfoundry/orbital-fleet-economics/internal/observability"
	"github.com/signalsfoundry/orbital-fleet-economics/internal/sim/state"
	"github.com/signalsfoundry/orbital-fleet-economics/model"
	"github.com/signalsfoundry/orbital-fleet-economics/timectrl"
)

// ParamsSource resolves scenario parameters. *kb.Catalog implements it.
type ParamsSource interface {
	Get(key model.ScenarioKey) (model.ScenarioParams, error)
}

// Metrics receives run-level measurements.
type Metrics interface {
	ObserveScenarioRun(scenario string, years int, d time.Duration)
}

// YearHook observes every simulated year. state is the state after the year,
// so state.Upgrades holds that year's upgrade attempts.
type YearHook func(ctx context.Context, next core.State, entry model.DebugStateEntry)

// Simulate runs cfg from StartYear to EndYear under params and returns one
// entry per year in ascending order. It touches no shared state, so forecast
// replicates can call it concurrently. An empty year range returns no entries.
func Simulate(ctx context.Context, cfg model.SimConfig, params model.ScenarioParams) ([]model.DebugStateEntry, error) {
	return simulate(ctx, cfg, params, nil)
}

func simulate(ctx context.Context, cfg model.SimConfig, params model.ScenarioParams, hook YearHook) ([]model.DebugStateEntry, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	yp := core.YearParams{Config: &cfg, Params: params}
	s := core.NewState(cfg, params)
	entries := make([]model.DebugStateEntry, 0, cfg.Years())

	yc := timectrl.NewYearController(cfg.StartYear, cfg.EndYear)
	yc.AddListener(func(ctx context.Context, year int) error {
		if s.Year != year {
			return fmt.Errorf("state year %d out of step with controller year %d", s.Year, year)
		}
		next, entry := core.RunYear(s, yp)
		entries = append(entries, entry)
		if hook != nil {
			hook(ctx, next, entry)
		}
		s = next
		return nil
	})
	if err := yc.Run(ctx); err != nil {
		return nil, err
	}
	return entries, nil
}

// Report summarises one scenario run.
type Report struct {
	RunID    string
	Scenario model.ScenarioKey
	Entries  []model.DebugStateEntry
	Warnings []state.Warning
	Duration time.Duration
}

// Runner runs scenarios into a state store.
type Runner struct {
	store   *state.Store
	params  ParamsSource
	log     logging.Logger
	metrics Metrics
	tracer  trace.Tracer
}

// RunnerOption customises a Runner.
type RunnerOption func(*Runner)

// WithMetrics attaches a run metrics recorder.
func WithMetrics(m Metrics) RunnerOption {
	return func(r *Runner) { r.metrics = m }
}

// WithTracer overrides the tracer used for run spans.
func WithTracer(t trace.Tracer) RunnerOption {
	return func(r *Runner) { r.tracer = t }
}

// NewRunner wires a runner to a store and a parameter source.
func NewRunner(store *state.Store, params ParamsSource, log logging.Logger, opts ...RunnerOption) *Runner {
	if log == nil {
		log = logging.Noop()
	}
	r := &Runner{
		store:  store,
		params: params,
		log:    log,
		tracer: observability.Tracer(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}
	return r
}

// Store returns the runner's state store.
func (r *Runner) Store() *state.Store { return r.store }

// Run simulates cfg.Scenario and replaces that scenario's entries in the
// store once the whole range has been computed. A cancelled run leaves the
// previous entries untouched.
func (r *Runner) Run(ctx context.Context, cfg model.SimConfig) (Report, error) {
	ctx, log := logging.WithRunLogger(ctx, r.log)
	log = log.With(logging.String("scenario", string(cfg.Scenario)))
	ctx = logging.ContextWithLogger(ctx, log)

	ctx, span := r.tracer.Start(ctx, "sim.Run", trace.WithAttributes(
		attribute.String("scenario", string(cfg.Scenario)),
		attribute.Int("start_year", cfg.StartYear),
		attribute.Int("end_year", cfg.EndYear),
	))
	defer span.End()

	report := Report{RunID: logging.RunIDFromContext(ctx), Scenario: cfg.Scenario}
	fail := func(err error) (Report, error) {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		log.Error(ctx, "scenario run failed", logging.Err(err))
		return report, err
	}

	params, err := r.params.Get(cfg.Scenario)
	if err != nil {
		return fail(fmt.Errorf("resolve scenario params: %w", err))
	}

	start := time.Now()
	entries, err := simulate(ctx, cfg, params, r.logUpgrades)
	if err != nil {
		return fail(fmt.Errorf("simulate %s: %w", cfg.Scenario, err))
	}
	if err := r.store.Replace(ctx, cfg.Scenario, entries); err != nil {
		return fail(fmt.Errorf("store %s: %w", cfg.Scenario, err))
	}
	report.Entries = entries
	report.Warnings = r.store.ValidateAcrossYears(ctx, cfg.Scenario)
	report.Duration = time.Since(start)

	if r.metrics != nil {
		r.metrics.ObserveScenarioRun(string(cfg.Scenario), len(entries), report.Duration)
	}
	span.SetAttributes(
		attribute.Int("entries", len(entries)),
		attribute.Int("warnings", len(report.Warnings)),
	)
	log.Info(ctx, "scenario run complete",
		logging.Int("years", len(entries)),
		logging.Int("warnings", len(report.Warnings)),
		logging.String("duration", report.Duration.String()),
	)
	return report, nil
}

// RunAll runs base once per scenario, concurrently, each on its own config
// clone. Reports come back in the order of scenarios.
func (r *Runner) RunAll(ctx context.Context, base model.SimConfig, scenarios ...model.ScenarioKey) ([]Report, error) {
	if len(scenarios) == 0 {
		scenarios = model.AllScenarios
	}
	reports := make([]Report, len(scenarios))
	g, ctx := errgroup.WithContext(ctx)
	for i, key := range scenarios {
		cfg := base.Clone()
		cfg.Scenario = key
		g.Go(func() error {
			rep, err := r.Run(ctx, cfg)
			if err != nil {
				return err
			}
			reports[i] = rep
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return reports, nil
}

func (r *Runner) logUpgrades(ctx context.Context, next core.State, entry model.DebugStateEntry) {
	log := logging.LoggerFromContext(ctx, r.log)
	for _, u := range next.Upgrades {
		fields := []logging.Field{
			logging.Int("year", entry.Year),
			logging.String("stage", string(u.Plan.Stage)),
			logging.Int("to_tier", int(u.Plan.ToTier)),
			logging.Int("points_left", next.AllocationPoints),
		}
		if u.Applied {
			log.Info(ctx, "stage upgraded", append(fields, logging.Int("cost", u.Cost))...)
			continue
		}
		log.Warn(ctx, "stage upgrade skipped", append(fields, logging.String("reason", u.Reason))...)
	}
}
