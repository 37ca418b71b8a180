package persist

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"github.com/signalsfoundry/orbital-fleet-economics/internal/sim/state"
	"github.com/signalsfoundry/orbital-fleet-economics/model"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS debug_state (
	scenario   TEXT    NOT NULL,
	year       INTEGER NOT NULL,
	run_id     TEXT    NOT NULL DEFAULT '',
	payload    TEXT    NOT NULL,
	updated_at TEXT    NOT NULL DEFAULT (datetime('now')),
	PRIMARY KEY (scenario, year)
);
`

const upsertSQL = `
INSERT INTO debug_state (scenario, year, run_id, payload, updated_at)
VALUES (?, ?, ?, ?, datetime('now'))
ON CONFLICT(scenario, year) DO UPDATE SET
	run_id     = excluded.run_id,
	payload    = excluded.payload,
	updated_at = excluded.updated_at
`

// Archive keeps the latest run of each scenario in a SQLite table keyed by
// (scenario, year).
type Archive struct {
	db *sql.DB
}

// OpenArchive opens (creating if needed) the archive at path. ":memory:"
// gives a private in-memory archive.
func OpenArchive(path string) (*Archive, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open archive: %w", err)
	}
	// One connection: SQLite serialises writers anyway, and an in-memory
	// database exists per connection.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize archive schema: %w", err)
	}
	return &Archive{db: db}, nil
}

// Close releases the database handle.
func (a *Archive) Close() error { return a.db.Close() }

// Save upserts a scenario's series and prunes archived years outside the
// series' range, so a re-run overwrites the previous one.
func (a *Archive) Save(ctx context.Context, scenario model.ScenarioKey, runID string, entries []model.DebugStateEntry) error {
	if !scenario.Valid() {
		return fmt.Errorf("%w: %q", model.ErrUnknownScenario, scenario)
	}
	if len(entries) == 0 {
		_, err := a.db.ExecContext(ctx, `DELETE FROM debug_state WHERE scenario = ?`, string(scenario))
		if err != nil {
			return fmt.Errorf("clear archived %s: %w", scenario, err)
		}
		return nil
	}

	tx, err := a.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin archive transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, upsertSQL)
	if err != nil {
		return fmt.Errorf("prepare upsert: %w", err)
	}
	defer stmt.Close()

	minYear, maxYear := entries[0].Year, entries[0].Year
	for _, e := range entries {
		if e.Scenario != scenario {
			return fmt.Errorf("entry for %s/%d does not belong to scenario %s", e.Scenario, e.Year, scenario)
		}
		payload, err := json.Marshal(e)
		if err != nil {
			return fmt.Errorf("encode %s/%d: %w", scenario, e.Year, err)
		}
		if _, err := stmt.ExecContext(ctx, string(scenario), e.Year, runID, string(payload)); err != nil {
			return fmt.Errorf("upsert %s/%d: %w", scenario, e.Year, err)
		}
		minYear = min(minYear, e.Year)
		maxYear = max(maxYear, e.Year)
	}

	_, err = tx.ExecContext(ctx,
		`DELETE FROM debug_state WHERE scenario = ? AND (year < ? OR year > ?)`,
		string(scenario), minYear, maxYear)
	if err != nil {
		return fmt.Errorf("prune archived %s: %w", scenario, err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit archive transaction: %w", err)
	}
	return nil
}

// SaveStore archives every scenario currently held by store.
func (a *Archive) SaveStore(ctx context.Context, store *state.Store, runID string) error {
	for _, key := range store.Scenarios() {
		if err := a.Save(ctx, key, runID, store.AllEntries(key)); err != nil {
			return err
		}
	}
	return nil
}

// Load returns a scenario's archived entries sorted by year.
func (a *Archive) Load(ctx context.Context, scenario model.ScenarioKey) ([]model.DebugStateEntry, error) {
	rows, err := a.db.QueryContext(ctx,
		`SELECT year, payload FROM debug_state WHERE scenario = ? ORDER BY year`, string(scenario))
	if err != nil {
		return nil, fmt.Errorf("query archived %s: %w", scenario, err)
	}
	defer rows.Close()

	var out []model.DebugStateEntry
	for rows.Next() {
		var (
			year    int
			payload string
		)
		if err := rows.Scan(&year, &payload); err != nil {
			return nil, fmt.Errorf("scan archived %s: %w", scenario, err)
		}
		var e model.DebugStateEntry
		if err := json.Unmarshal([]byte(payload), &e); err != nil {
			return nil, fmt.Errorf("decode archived %s/%d: %w", scenario, year, err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate archived %s: %w", scenario, err)
	}
	return out, nil
}

// Scenarios lists the scenarios with archived entries, in model.AllScenarios
// order.
func (a *Archive) Scenarios(ctx context.Context) ([]model.ScenarioKey, error) {
	rows, err := a.db.QueryContext(ctx, `SELECT DISTINCT scenario FROM debug_state`)
	if err != nil {
		return nil, fmt.Errorf("query archived scenarios: %w", err)
	}
	defer rows.Close()

	present := make(map[model.ScenarioKey]bool)
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, fmt.Errorf("scan archived scenario: %w", err)
		}
		present[model.ScenarioKey(s)] = true
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate archived scenarios: %w", err)
	}

	var out []model.ScenarioKey
	for _, key := range model.AllScenarios {
		if present[key] {
			out = append(out, key)
		}
	}
	return out, nil
}

// LoadInto restores every archived scenario into store, replacing what the
// store held for those scenarios.
func (a *Archive) LoadInto(ctx context.Context, store *state.Store) ([]model.ScenarioKey, error) {
	keys, err := a.Scenarios(ctx)
	if err != nil {
		return nil, err
	}
	for _, key := range keys {
		entries, err := a.Load(ctx, key)
		if err != nil {
			return nil, err
		}
		if err := store.Replace(ctx, key, entries); err != nil {
			return nil, fmt.Errorf("restore %s: %w", key, err)
		}
	}
	return keys, nil
}
