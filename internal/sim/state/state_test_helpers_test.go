package state

import (
	"context"
	"sync"
	"testing"

	"github.com/signalsfoundry/orbital-fleet-economics/model"
)

type recordingMetrics struct {
	mu       sync.Mutex
	entries  map[string]int
	warnings map[string]int
}

func newRecordingMetrics() *recordingMetrics {
	return &recordingMetrics{entries: map[string]int{}, warnings: map[string]int{}}
}

func (r *recordingMetrics) SetScenarioEntries(scenario string, n int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries[scenario] = n
}

func (r *recordingMetrics) IncValidationWarning(kind string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.warnings[kind]++
}

// healthyEntry is a self-consistent entry that raises no per-entry warnings.
func healthyEntry(scenario model.ScenarioKey, year int) model.DebugStateEntry {
	return model.DebugStateEntry{
		Scenario:           scenario,
		Year:               year,
		DominantConstraint: model.ConstraintLaunch,
		Utilization: model.ConstraintUtilization{
			Launch: 0.9, Heat: 0.7, Backhaul: 0.8, Autonomy: 0.6, Overall: 0.6,
		},
		Power: model.PowerCompute{
			PowerRawMW:              10,
			PowerEffectiveMW:        10,
			ComputeRawPFLOPS:        200,
			ComputeEffectivePFLOPS:  190,
			ComputeExportablePFLOPS: 190,
		},
		Fleet: model.FleetCounts{
			FleetUnits: 100, PodsBuilt: 90, LiveUnits: 86, Launches: 22,
			CumulativeLaunches: 22, Failures: 5, Recoveries: 5,
		},
		Stages: []model.FactoryStage{{ID: model.StagePods, Tier: 1, BaseThroughput: 90}},
	}
}

func mustPut(t *testing.T, s *Store, e model.DebugStateEntry) {
	t.Helper()
	if err := s.Put(context.Background(), e); err != nil {
		t.Fatalf("Put(%s/%d) error = %v", e.Scenario, e.Year, err)
	}
}
