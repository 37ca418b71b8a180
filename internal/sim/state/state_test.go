package state

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/signalsfoundry/orbital-fleet-economics/internal/logging"
	"github.com/signalsfoundry/orbital-fleet-economics/model"
)

func TestStorePutGet(t *testing.T) {
	s := NewStore(logging.Noop())
	e := healthyEntry(model.ScenarioBaseline, 2025)
	mustPut(t, s, e)

	got, err := s.Get(model.ScenarioBaseline, 2025)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.Fleet.FleetUnits != 100 || got.DominantConstraint != model.ConstraintLaunch {
		t.Fatalf("Get() = %+v, want stored entry", got)
	}

	if _, err := s.Get(model.ScenarioBaseline, 2026); !errors.Is(err, ErrEntryNotFound) {
		t.Fatalf("Get(missing year) error = %v, want ErrEntryNotFound", err)
	}
	if _, err := s.Get(model.ScenarioOrbitalBull, 2025); !errors.Is(err, ErrEntryNotFound) {
		t.Fatalf("Get(other scenario) error = %v, want ErrEntryNotFound", err)
	}
}

func TestStoreEntriesAreImmutable(t *testing.T) {
	s := NewStore(logging.Noop())
	e := healthyEntry(model.ScenarioBaseline, 2025)
	mustPut(t, s, e)

	// Mutating the caller's copy or a returned copy never reaches the store.
	e.Stages[0].Tier = 3
	got, _ := s.Get(model.ScenarioBaseline, 2025)
	got.Stages[0].Tier = 2
	again, _ := s.Get(model.ScenarioBaseline, 2025)
	if again.Stages[0].Tier != 1 {
		t.Fatalf("stored stage tier = %d, want 1", again.Stages[0].Tier)
	}

	if err := s.Put(context.Background(), healthyEntry(model.ScenarioBaseline, 2025)); !errors.Is(err, ErrEntryExists) {
		t.Fatalf("second Put error = %v, want ErrEntryExists", err)
	}
}

func TestStoreRejectsUnknownScenario(t *testing.T) {
	s := NewStore(nil)
	err := s.Put(context.Background(), healthyEntry(model.ScenarioKey("LEGACY"), 2025))
	if !errors.Is(err, ErrUnknownScenario) {
		t.Fatalf("Put(unknown scenario) error = %v, want ErrUnknownScenario", err)
	}
}

func TestStoreAllEntriesSorted(t *testing.T) {
	s := NewStore(logging.Noop())
	for _, year := range []int{2030, 2025, 2027, 2026} {
		mustPut(t, s, healthyEntry(model.ScenarioOrbitalBear, year))
	}
	entries := s.AllEntries(model.ScenarioOrbitalBear)
	want := []int{2025, 2026, 2027, 2030}
	if len(entries) != len(want) {
		t.Fatalf("AllEntries() returned %d entries, want %d", len(entries), len(want))
	}
	for i, e := range entries {
		if e.Year != want[i] {
			t.Fatalf("AllEntries()[%d].Year = %d, want %d", i, e.Year, want[i])
		}
	}
	if got := s.AllEntries(model.ScenarioBaseline); len(got) != 0 {
		t.Fatalf("AllEntries(empty scenario) = %d entries, want 0", len(got))
	}
}

func TestStoreClear(t *testing.T) {
	metrics := newRecordingMetrics()
	s := NewStore(logging.Noop(), WithMetricsRecorder(metrics))
	for _, key := range model.AllScenarios {
		mustPut(t, s, healthyEntry(key, 2025))
	}
	if metrics.entries["BASELINE"] != 1 {
		t.Fatalf("entries gauge = %d, want 1", metrics.entries["BASELINE"])
	}

	s.Clear(model.ScenarioBaseline)
	if got := s.Scenarios(); len(got) != 2 || got[0] != model.ScenarioOrbitalBull {
		t.Fatalf("Scenarios() after Clear(BASELINE) = %v", got)
	}
	if metrics.entries["BASELINE"] != 0 {
		t.Fatalf("entries gauge after clear = %d, want 0", metrics.entries["BASELINE"])
	}

	// A cleared year can be written again.
	mustPut(t, s, healthyEntry(model.ScenarioBaseline, 2025))

	s.Clear()
	if got := s.Scenarios(); len(got) != 0 {
		t.Fatalf("Scenarios() after Clear() = %v, want none", got)
	}
	if snap := s.Snapshot(); len(snap) != 0 {
		t.Fatalf("Snapshot() after Clear() = %d scenarios, want 0", len(snap))
	}
}

func TestStoreReplace(t *testing.T) {
	s := NewStore(logging.Noop())
	mustPut(t, s, healthyEntry(model.ScenarioBaseline, 2025))
	mustPut(t, s, healthyEntry(model.ScenarioBaseline, 2026))

	rerun := []model.DebugStateEntry{healthyEntry(model.ScenarioBaseline, 2030)}
	if err := s.Replace(context.Background(), model.ScenarioBaseline, rerun); err != nil {
		t.Fatalf("Replace() error = %v", err)
	}
	entries := s.AllEntries(model.ScenarioBaseline)
	if len(entries) != 1 || entries[0].Year != 2030 {
		t.Fatalf("AllEntries() after Replace = %+v, want only 2030", entries)
	}

	mixed := []model.DebugStateEntry{healthyEntry(model.ScenarioOrbitalBull, 2025)}
	if err := s.Replace(context.Background(), model.ScenarioBaseline, mixed); err == nil {
		t.Fatalf("Replace() with a foreign entry succeeded, want error")
	}
	dup := []model.DebugStateEntry{healthyEntry(model.ScenarioBaseline, 2025), healthyEntry(model.ScenarioBaseline, 2025)}
	if err := s.Replace(context.Background(), model.ScenarioBaseline, dup); !errors.Is(err, ErrEntryExists) {
		t.Fatalf("Replace() with duplicate years error = %v, want ErrEntryExists", err)
	}
	if got := s.AllEntries(model.ScenarioBaseline); len(got) != 1 || got[0].Year != 2030 {
		t.Fatalf("failed Replace changed the store: %+v", got)
	}
}

func TestStorePutReportsWarnings(t *testing.T) {
	metrics := newRecordingMetrics()
	s := NewStore(logging.Noop(), WithMetricsRecorder(metrics))

	bad := healthyEntry(model.ScenarioBaseline, 2025)
	bad.Power.ComputeEffectivePFLOPS = 250
	bad.Power.ComputeExportablePFLOPS = 240
	mustPut(t, s, bad)

	if metrics.warnings[string(WarnComputeExceedsRaw)] != 1 {
		t.Fatalf("compute warnings = %d, want 1", metrics.warnings[string(WarnComputeExceedsRaw)])
	}
	if _, err := s.Get(model.ScenarioBaseline, 2025); err != nil {
		t.Fatalf("entry with warnings was not stored: %v", err)
	}
}

func TestStoreConcurrentReadersAndWriters(t *testing.T) {
	s := NewStore(logging.Noop())
	const years = 50

	var wg sync.WaitGroup
	for _, key := range model.AllScenarios {
		wg.Add(1)
		go func(key model.ScenarioKey) {
			defer wg.Done()
			for y := 0; y < years; y++ {
				if err := s.Put(context.Background(), healthyEntry(key, 2025+y)); err != nil {
					t.Errorf("Put(%s/%d): %v", key, 2025+y, err)
					return
				}
			}
		}(key)
	}
	for r := 0; r < 4; r++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				for _, key := range model.AllScenarios {
					entries := s.AllEntries(key)
					for j := 1; j < len(entries); j++ {
						if entries[j].Year <= entries[j-1].Year {
							t.Errorf("AllEntries(%s) out of order", key)
							return
						}
					}
				}
				_ = s.Snapshot()
			}
		}()
	}
	wg.Wait()

	for _, key := range model.AllScenarios {
		if got := len(s.AllEntries(key)); got != years {
			t.Fatalf("%s entries = %d, want %d", key, got, years)
		}
	}
	if got := fmt.Sprint(s.Scenarios()); got != "[BASELINE ORBITAL_BULL ORBITAL_BEAR]" {
		t.Fatalf("Scenarios() = %s", got)
	}
}
