// Package persist moves DebugStateEntry series in and out of a state.Store:
// a JSON export document and a SQLite archive.
package persist

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/signalsfoundry/orbital-fleet-economics/internal/sim/state"
	"github.com/signalsfoundry/orbital-fleet-economics/model"
)

// ErrMalformedExport indicates an export document whose keys and entries
// disagree.
var ErrMalformedExport = errors.New("malformed export")

// Document is the export layout: scenario -> year -> entry. Years encode as
// JSON object keys.
type Document struct {
	PerScenario map[model.ScenarioKey]map[int]model.DebugStateEntry `json:"perScenario"`
}

// NewDocument builds a document from a store snapshot.
func NewDocument(snapshot map[model.ScenarioKey][]model.DebugStateEntry) Document {
	doc := Document{PerScenario: make(map[model.ScenarioKey]map[int]model.DebugStateEntry, len(snapshot))}
	for key, entries := range snapshot {
		years := make(map[int]model.DebugStateEntry, len(entries))
		for _, e := range entries {
			years[e.Year] = e.Clone()
		}
		doc.PerScenario[key] = years
	}
	return doc
}

// Entries returns a scenario's entries sorted by year.
func (d Document) Entries(key model.ScenarioKey) []model.DebugStateEntry {
	years := d.PerScenario[key]
	out := make([]model.DebugStateEntry, 0, len(years))
	for _, e := range years {
		out = append(out, e.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Year < out[j].Year })
	return out
}

// Export writes every scenario held by store as an indented JSON document.
func Export(w io.Writer, store *state.Store) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(NewDocument(store.Snapshot())); err != nil {
		return fmt.Errorf("encode export: %w", err)
	}
	return nil
}

// ExportFile writes the export to path, replacing any existing file.
func ExportFile(path string, store *state.Store) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create export file: %w", err)
	}
	if err := Export(f, store); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// Decode reads and checks an export document. Every scenario key must be
// known, and an entry's own scenario and year must match the keys it sits
// under; an entry with an empty scenario inherits its key.
func Decode(r io.Reader) (Document, error) {
	var doc Document
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return Document{}, fmt.Errorf("decode export: %w", err)
	}
	for key, years := range doc.PerScenario {
		if !key.Valid() {
			return Document{}, fmt.Errorf("%w: %q", model.ErrUnknownScenario, key)
		}
		for year, e := range years {
			if e.Scenario == "" {
				e.Scenario = key
			}
			if e.Scenario != key || e.Year != year {
				return Document{}, fmt.Errorf("%w: entry %s/%d filed under %s/%d",
					ErrMalformedExport, e.Scenario, e.Year, key, year)
			}
			years[year] = e
		}
	}
	return doc, nil
}

// Import decodes an export and replaces the stored series of every scenario
// it contains. Scenarios absent from the document are left alone.
func Import(ctx context.Context, r io.Reader, store *state.Store) ([]model.ScenarioKey, error) {
	doc, err := Decode(r)
	if err != nil {
		return nil, err
	}
	var imported []model.ScenarioKey
	for _, key := range model.AllScenarios {
		if _, ok := doc.PerScenario[key]; !ok {
			continue
		}
		if err := store.Replace(ctx, key, doc.Entries(key)); err != nil {
			return imported, fmt.Errorf("import %s: %w", key, err)
		}
		imported = append(imported, key)
	}
	return imported, nil
}

// ImportFile is Import over a file.
func ImportFile(ctx context.Context, path string, store *state.Store) ([]model.ScenarioKey, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open export file: %w", err)
	}
	defer f.Close()
	return Import(ctx, f, store)
}
