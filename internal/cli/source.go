package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/signalsfoundry/orbital-fleet-economics/internal/persist"
	"github.com/signalsfoundry/orbital-fleet-economics/internal/sim/state"
	"github.com/signalsfoundry/orbital-fleet-economics/model"
)

// sourceFlags choose where stored entries come from: an export file, an
// archive, or a fresh run.
type sourceFlags struct {
	rangeFlags
	fromPath    string
	archivePath string
}

func (f *sourceFlags) register(cmd *cobra.Command) {
	f.rangeFlags.register(cmd, nil)
	cmd.Flags().StringVar(&f.fromPath, "from", "", "Read entries from a JSON export instead of running")
	cmd.Flags().StringVar(&f.archivePath, "archive", "", "Read entries from a SQLite archive instead of running")
}

// load fills a fresh store and returns the selected scenarios it holds.
func (f *sourceFlags) load(ctx context.Context, a *app) (*state.Store, []model.ScenarioKey, error) {
	keys, err := f.keys()
	if err != nil {
		return nil, nil, err
	}
	store := a.newStore()

	switch {
	case f.fromPath != "":
		if _, err := persist.ImportFile(ctx, f.fromPath, store); err != nil {
			return nil, nil, err
		}
	case f.archivePath != "":
		arc, err := persist.OpenArchive(f.archivePath)
		if err != nil {
			return nil, nil, err
		}
		defer arc.Close()
		if _, err := arc.LoadInto(ctx, store); err != nil {
			return nil, nil, err
		}
	default:
		base, err := f.baseConfig()
		if err != nil {
			return nil, nil, err
		}
		if _, err := a.newRunner(store).RunAll(ctx, base, keys...); err != nil {
			return nil, nil, err
		}
	}

	var present []model.ScenarioKey
	for _, key := range keys {
		if len(store.AllEntries(key)) > 0 {
			present = append(present, key)
		}
	}
	if len(present) == 0 {
		return nil, nil, fmt.Errorf("%w: no entries for the selected scenarios", state.ErrEntryNotFound)
	}
	return store, present, nil
}
