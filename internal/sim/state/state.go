// internal/sim/state/state.go
package state

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/signalsfoundry/orbital-fleet-economics/internal/logging"
	"github.com/signalsfoundry/orbital-fleet-economics/model"
)

var (
	// ErrEntryNotFound indicates no entry exists for a (scenario, year).
	ErrEntryNotFound = errors.New("debug state entry not found")
	// ErrEntryExists indicates an entry for (scenario, year) is already stored.
	// Entries are only replaced by clearing the scenario and re-running it.
	ErrEntryExists = errors.New("debug state entry already exists")
	// ErrUnknownScenario is re-exported so callers can depend on state.* only.
	ErrUnknownScenario = model.ErrUnknownScenario
)

// Store is the scenario-keyed repository of per-year DebugStateEntry
// snapshots. Writers are expected to be one run per scenario at a time;
// any number of readers may proceed concurrently.
type Store struct {
	// mu guards entries. Readers take RLock; Put/Clear/Replace take Lock.
	mu sync.RWMutex

	// entries maps scenario -> year -> snapshot. Stored values are deep
	// copies and are copied again on the way out.
	entries map[model.ScenarioKey]map[int]model.DebugStateEntry

	// log is an optional structured logger for validation warnings.
	log logging.Logger

	// metrics is an optional recorder for Prometheus-friendly gauges.
	metrics MetricsRecorder
}

// MetricsRecorder receives entry counts and validation warnings.
type MetricsRecorder interface {
	SetScenarioEntries(scenario string, entries int)
	IncValidationWarning(kind string)
}

// StoreOption customises Store construction.
type StoreOption func(*Store)

// WithMetricsRecorder attaches an optional metrics recorder.
func WithMetricsRecorder(m MetricsRecorder) StoreOption {
	return func(s *Store) {
		s.metrics = m
	}
}

// NewStore constructs an empty store.
func NewStore(log logging.Logger, opts ...StoreOption) *Store {
	if log == nil {
		log = logging.Noop()
	}
	s := &Store{
		entries: make(map[model.ScenarioKey]map[int]model.DebugStateEntry),
		log:     log,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// Put stores a new entry. It validates the entry first and logs any warnings,
// but warnings never prevent the write. Writing a (scenario, year) that is
// already present returns ErrEntryExists.
func (s *Store) Put(ctx context.Context, entry model.DebugStateEntry) error {
	if !entry.Scenario.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownScenario, entry.Scenario)
	}

	s.mu.Lock()
	years, ok := s.entries[entry.Scenario]
	if !ok {
		years = make(map[int]model.DebugStateEntry)
		s.entries[entry.Scenario] = years
	}
	if _, exists := years[entry.Year]; exists {
		s.mu.Unlock()
		return fmt.Errorf("%w: %s/%d", ErrEntryExists, entry.Scenario, entry.Year)
	}
	years[entry.Year] = entry.Clone()
	count := len(years)
	s.mu.Unlock()

	s.report(ctx, ValidateEntry(entry).Warnings)
	s.setEntries(entry.Scenario, count)
	return nil
}

// Replace atomically swaps the full set of entries for a scenario, which is
// how a completed re-run overwrites its previous results.
func (s *Store) Replace(ctx context.Context, scenario model.ScenarioKey, entries []model.DebugStateEntry) error {
	if !scenario.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownScenario, scenario)
	}
	years := make(map[int]model.DebugStateEntry, len(entries))
	var warnings []Warning
	for _, e := range entries {
		if e.Scenario != scenario {
			return fmt.Errorf("entry for %s/%d does not belong to scenario %s", e.Scenario, e.Year, scenario)
		}
		if _, dup := years[e.Year]; dup {
			return fmt.Errorf("%w: %s/%d", ErrEntryExists, scenario, e.Year)
		}
		years[e.Year] = e.Clone()
		warnings = append(warnings, ValidateEntry(e).Warnings...)
	}

	s.mu.Lock()
	s.entries[scenario] = years
	s.mu.Unlock()

	s.report(ctx, warnings)
	s.setEntries(scenario, len(years))
	return nil
}

// Get returns the entry for (scenario, year).
func (s *Store) Get(scenario model.ScenarioKey, year int) (model.DebugStateEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.entries[scenario][year]
	if !ok {
		return model.DebugStateEntry{}, fmt.Errorf("%w: %s/%d", ErrEntryNotFound, scenario, year)
	}
	return e.Clone(), nil
}

// AllEntries returns a scenario's entries sorted ascending by year.
func (s *Store) AllEntries(scenario model.ScenarioKey) []model.DebugStateEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return sortedLocked(s.entries[scenario])
}

// Scenarios lists the scenarios that currently hold entries, in
// model.AllScenarios order.
func (s *Store) Scenarios() []model.ScenarioKey {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.ScenarioKey, 0, len(s.entries))
	for _, key := range model.AllScenarios {
		if len(s.entries[key]) > 0 {
			out = append(out, key)
		}
	}
	return out
}

// Snapshot captures a consistent copy of every scenario's entries.
func (s *Store) Snapshot() map[model.ScenarioKey][]model.DebugStateEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[model.ScenarioKey][]model.DebugStateEntry, len(s.entries))
	for key, years := range s.entries {
		if len(years) == 0 {
			continue
		}
		out[key] = sortedLocked(years)
	}
	return out
}

// Clear removes the entries of the given scenarios, or of every scenario when
// called with no arguments.
func (s *Store) Clear(scenarios ...model.ScenarioKey) {
	s.mu.Lock()
	if len(scenarios) == 0 {
		scenarios = make([]model.ScenarioKey, 0, len(s.entries))
		for key := range s.entries {
			scenarios = append(scenarios, key)
		}
	}
	for _, key := range scenarios {
		delete(s.entries, key)
	}
	s.mu.Unlock()

	for _, key := range scenarios {
		s.setEntries(key, 0)
	}
}

// ValidateAcrossYears runs the multi-year degenerate-pattern checks over a
// scenario's stored entries. Warnings are logged and returned; they are
// never fatal.
func (s *Store) ValidateAcrossYears(ctx context.Context, scenario model.ScenarioKey) []Warning {
	warnings := ValidateSeries(s.AllEntries(scenario))
	s.report(ctx, warnings)
	return warnings
}

func (s *Store) report(ctx context.Context, warnings []Warning) {
	for _, w := range warnings {
		s.log.Warn(ctx, "validation warning",
			logging.String("scenario", string(w.Scenario)),
			logging.Int("year", w.Year),
			logging.String("kind", string(w.Kind)),
			logging.String("detail", w.Message),
		)
		if s.metrics != nil {
			s.metrics.IncValidationWarning(string(w.Kind))
		}
	}
}

func (s *Store) setEntries(scenario model.ScenarioKey, n int) {
	if s.metrics != nil {
		s.metrics.SetScenarioEntries(string(scenario), n)
	}
}

func sortedLocked(years map[int]model.DebugStateEntry) []model.DebugStateEntry {
	out := make([]model.DebugStateEntry, 0, len(years))
	for _, e := range years {
		out = append(out, e.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Year < out[j].Year })
	return out
}
