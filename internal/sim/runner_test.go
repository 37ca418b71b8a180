package sim

import (
	"context"
	"errors"
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/signalsfoundry/orbital-fleet-economics/internal/logging"
	"github.com/signalsfoundry/orbital-fleet-economics/internal/sim/state"
	"github.com/signalsfoundry/orbital-fleet-economics/kb"
	"github.com/signalsfoundry/orbital-fleet-economics/model"
	"github.com/signalsfoundry/orbital-fleet-economics/timectrl"
)

type recordedLog struct {
	level string
	msg   string
}

type recordingLogger struct {
	mu      sync.Mutex
	entries []recordedLog
}

func newRecordingLogger() *recordingLogger {
	return &recordingLogger{}
}

func (l *recordingLogger) record(level, msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, recordedLog{level: level, msg: msg})
}

func (l *recordingLogger) count(level, msg string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	n := 0
	for _, e := range l.entries {
		if e.level == level && e.msg == msg {
			n++
		}
	}
	return n
}

func (l *recordingLogger) Debug(_ context.Context, msg string, _ ...logging.Field) { l.record("debug", msg) }
func (l *recordingLogger) Info(_ context.Context, msg string, _ ...logging.Field)  { l.record("info", msg) }
func (l *recordingLogger) Warn(_ context.Context, msg string, _ ...logging.Field)  { l.record("warn", msg) }
func (l *recordingLogger) Error(_ context.Context, msg string, _ ...logging.Field) { l.record("error", msg) }
func (l *recordingLogger) With(...logging.Field) logging.Logger                    { return l }

type recordingRunMetrics struct {
	mu    sync.Mutex
	years map[string]int
}

func (m *recordingRunMetrics) ObserveScenarioRun(scenario string, years int, _ time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.years == nil {
		m.years = map[string]int{}
	}
	m.years[scenario] += years
}

func shortRun(key model.ScenarioKey, end int) model.SimConfig {
	cfg := model.DefaultSimConfig()
	cfg.Scenario = key
	cfg.EndYear = end
	return cfg
}

func TestSimulateYearsAscending(t *testing.T) {
	entries, err := Simulate(context.Background(), shortRun(model.ScenarioBaseline, 2030), kb.Preset(model.ScenarioBaseline))
	if err != nil {
		t.Fatalf("Simulate() error = %v", err)
	}
	if len(entries) != 6 {
		t.Fatalf("len(entries) = %d, want 6", len(entries))
	}
	for i, e := range entries {
		if e.Year != 2025+i {
			t.Fatalf("entries[%d].Year = %d, want %d", i, e.Year, 2025+i)
		}
		if e.Scenario != model.ScenarioBaseline {
			t.Fatalf("entries[%d].Scenario = %s, want BASELINE", i, e.Scenario)
		}
	}
	if entries[5].Fleet.CumulativeLaunches <= entries[0].Fleet.CumulativeLaunches {
		t.Fatalf("cumulative launches did not grow: %v -> %v",
			entries[0].Fleet.CumulativeLaunches, entries[5].Fleet.CumulativeLaunches)
	}
}

func TestSimulateIsDeterministic(t *testing.T) {
	cfg := shortRun(model.ScenarioOrbitalBear, 2032)
	params := kb.Preset(model.ScenarioOrbitalBear)

	a, err := Simulate(context.Background(), cfg, params)
	if err != nil {
		t.Fatalf("Simulate() error = %v", err)
	}
	b, err := Simulate(context.Background(), cfg, params)
	if err != nil {
		t.Fatalf("Simulate() error = %v", err)
	}
	if !reflect.DeepEqual(a, b) {
		t.Fatalf("Simulate() is not deterministic")
	}
}

func TestSimulateDefaultsStayWithinCeilings(t *testing.T) {
	for _, key := range model.AllScenarios {
		cfg := model.DefaultSimConfig()
		cfg.Scenario = key
		entries, err := Simulate(context.Background(), cfg, kb.Preset(key))
		if err != nil {
			t.Fatalf("Simulate(%s) error = %v", key, err)
		}
		if len(entries) != 21 {
			t.Fatalf("Simulate(%s) = %d entries, want 21", key, len(entries))
		}
		for _, e := range entries {
			for _, w := range state.ValidateEntry(e).Warnings {
				if w.Kind == state.WarnUtilizationRange || w.Severity == state.SeverityInvariant {
					t.Fatalf("%s: utilization %+v", w, e.Utilization)
				}
			}
		}
		if last := entries[len(entries)-1]; last.Fleet.FleetUnits <= entries[0].Fleet.FleetUnits {
			t.Fatalf("%s fleet did not grow: %v -> %v", key, entries[0].Fleet.FleetUnits, last.Fleet.FleetUnits)
		}
	}
}

func TestSimulateEmptyRange(t *testing.T) {
	cfg := shortRun(model.ScenarioBaseline, 2024)
	entries, err := Simulate(context.Background(), cfg, kb.Preset(model.ScenarioBaseline))
	if err != nil {
		t.Fatalf("Simulate() error = %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("len(entries) = %d, want 0", len(entries))
	}
}

func TestSimulateRejectsInvalidConfig(t *testing.T) {
	cfg := shortRun(model.ScenarioBaseline, 2026)
	cfg.PodsPerLaunch = 0
	if _, err := Simulate(context.Background(), cfg, kb.Preset(model.ScenarioBaseline)); !errors.Is(err, model.ErrInvalidConfig) {
		t.Fatalf("Simulate() error = %v, want ErrInvalidConfig", err)
	}
}

func TestRunnerRunStoresAndReplaces(t *testing.T) {
	store := state.NewStore(logging.Noop())
	metrics := &recordingRunMetrics{}
	r := NewRunner(store, kb.NewCatalog(), logging.Noop(), WithMetrics(metrics))

	rep, err := r.Run(context.Background(), shortRun(model.ScenarioBaseline, 2030))
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if rep.RunID == "" || rep.Scenario != model.ScenarioBaseline || len(rep.Entries) != 6 {
		t.Fatalf("report = {%q %s %d entries}", rep.RunID, rep.Scenario, len(rep.Entries))
	}
	if got := len(store.AllEntries(model.ScenarioBaseline)); got != 6 {
		t.Fatalf("stored entries = %d, want 6", got)
	}

	// A re-run overwrites the whole scenario, including years it no longer covers.
	if _, err := r.Run(context.Background(), shortRun(model.ScenarioBaseline, 2026)); err != nil {
		t.Fatalf("re-Run() error = %v", err)
	}
	if got := len(store.AllEntries(model.ScenarioBaseline)); got != 2 {
		t.Fatalf("stored entries after re-run = %d, want 2", got)
	}
	if metrics.years["BASELINE"] != 8 {
		t.Fatalf("observed years = %d, want 8", metrics.years["BASELINE"])
	}
}

func TestRunnerCancelledRunKeepsPreviousEntries(t *testing.T) {
	store := state.NewStore(logging.Noop())
	r := NewRunner(store, kb.NewCatalog(), logging.Noop())
	if _, err := r.Run(context.Background(), shortRun(model.ScenarioOrbitalBull, 2027)); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := r.Run(ctx, shortRun(model.ScenarioOrbitalBull, 2040))
	if !errors.Is(err, timectrl.ErrStopped) || !errors.Is(err, context.Canceled) {
		t.Fatalf("Run(cancelled) error = %v, want ErrStopped and context.Canceled", err)
	}
	if got := len(store.AllEntries(model.ScenarioOrbitalBull)); got != 3 {
		t.Fatalf("stored entries = %d, want previous 3", got)
	}
}

func TestRunnerUnknownScenario(t *testing.T) {
	r := NewRunner(state.NewStore(logging.Noop()), kb.NewCatalog(), logging.Noop())
	_, err := r.Run(context.Background(), shortRun(model.ScenarioKey("LEGACY"), 2026))
	if !errors.Is(err, model.ErrUnknownScenario) {
		t.Fatalf("Run() error = %v, want ErrUnknownScenario", err)
	}
}

func TestRunnerRunAllKeepsOrder(t *testing.T) {
	store := state.NewStore(logging.Noop())
	r := NewRunner(store, kb.NewCatalog(), logging.Noop())

	order := []model.ScenarioKey{model.ScenarioOrbitalBear, model.ScenarioBaseline, model.ScenarioOrbitalBull}
	reports, err := r.RunAll(context.Background(), shortRun(model.ScenarioBaseline, 2028), order...)
	if err != nil {
		t.Fatalf("RunAll() error = %v", err)
	}
	for i, rep := range reports {
		if rep.Scenario != order[i] {
			t.Fatalf("reports[%d].Scenario = %s, want %s", i, rep.Scenario, order[i])
		}
		if len(rep.Entries) != 4 {
			t.Fatalf("reports[%d] has %d entries, want 4", i, len(rep.Entries))
		}
	}
	if got := store.Scenarios(); len(got) != 3 {
		t.Fatalf("Scenarios() = %v, want all three", got)
	}
}

func TestRunnerLogsUpgradeOutcomes(t *testing.T) {
	log := newRecordingLogger()
	r := NewRunner(state.NewStore(logging.Noop()), kb.NewCatalog(), log)

	cfg := shortRun(model.ScenarioBaseline, 2026)
	cfg.InitialAllocationPoints = 5
	cfg.Upgrades = []model.UpgradePlan{
		{Year: 2025, Stage: model.StagePods, ToTier: 2},
		{Year: 2025, Stage: model.StageLaunch, ToTier: 3},
	}
	if _, err := r.Run(context.Background(), cfg); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if got := log.count("info", "stage upgraded"); got != 1 {
		t.Fatalf("stage upgraded logs = %d, want 1", got)
	}
	if got := log.count("warn", "stage upgrade skipped"); got != 1 {
		t.Fatalf("stage upgrade skipped logs = %d, want 1", got)
	}
}
