package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/signalsfoundry/orbital-fleet-economics/internal/forecast"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCommand()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(append([]string{"--log-level", "error"}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func TestRunExportAndValidate(t *testing.T) {
	dir := t.TempDir()
	exportPath := filepath.Join(dir, "results.json")
	archivePath := filepath.Join(dir, "fleetsim.db")

	out, err := execute(t, "run", "--scenario", "baseline", "--end", "2027",
		"--export", exportPath, "--archive", archivePath, "--stages")
	require.NoError(t, err)
	assert.Contains(t, out, "Scenario BASELINE")
	assert.Contains(t, out, "2027")
	assert.Contains(t, out, "LAUNCH")
	assert.Contains(t, out, "Factory stages BASELINE/2027")
	assert.Contains(t, out, "cumulative savings")
	assert.NotContains(t, out, "ORBITAL_BULL")

	info, err := os.Stat(exportPath)
	require.NoError(t, err)
	assert.Positive(t, info.Size())

	out, err = execute(t, "validate", "--from", exportPath, "--strict")
	require.NoError(t, err)
	assert.Contains(t, out, "BASELINE (3 entries)")

	out, err = execute(t, "crossover", "--archive", archivePath, "--metric", "opex", "--verbose")
	require.NoError(t, err)
	assert.Contains(t, out, "BASELINE opex:")
	assert.Contains(t, out, "ORBIT BELOW")
}

func TestRunAllScenarios(t *testing.T) {
	out, err := execute(t, "run", "--start", "2025", "--end", "2026")
	require.NoError(t, err)
	for _, name := range []string{"BASELINE", "ORBITAL_BULL", "ORBITAL_BEAR"} {
		assert.Contains(t, out, "Scenario "+name)
	}
}

func TestForecastJSON(t *testing.T) {
	out, err := execute(t, "forecast", "--scenario", "orbital-bull", "--end", "2026",
		"-n", "6", "--seed", "3", "--json")
	require.NoError(t, err)

	var bands forecast.Bands
	require.NoError(t, json.Unmarshal([]byte(out), &bands))
	require.Len(t, bands.CostPerCompute, 2)
	for _, p := range bands.CostPerCompute {
		assert.Equal(t, 6, p.Samples)
		assert.LessOrEqual(t, p.P10, p.P50)
		assert.LessOrEqual(t, p.P50, p.P90)
	}
}

func TestForecastTable(t *testing.T) {
	out, err := execute(t, "forecast", "--end", "2025", "-n", "4", "--jitter", "0")
	require.NoError(t, err)
	assert.Contains(t, out, "Forecast BASELINE (4 replicates, jitter 0.00")
	assert.Contains(t, out, "Mix latency (ms)")
}

func TestCommandErrors(t *testing.T) {
	_, err := execute(t, "forecast", "--scenario", "baseline,orbital-bear", "-n", "2")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "exactly one scenario")

	_, err = execute(t, "run", "--scenario", "legacy")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown scenario")

	_, err = execute(t, "crossover", "--metric", "speed", "--end", "2025")
	require.Error(t, err)

	_, err = execute(t, "validate", "--from", filepath.Join(t.TempDir(), "missing.json"))
	require.Error(t, err)
}

func TestRangeFlagsKeys(t *testing.T) {
	rf := rangeFlags{scenarios: []string{"orbital-bear", "ORBITAL_BEAR", "baseline"}}
	keys, err := rf.keys()
	require.NoError(t, err)
	assert.Len(t, keys, 2)

	rf = rangeFlags{scenarios: []string{"all"}}
	keys, err = rf.keys()
	require.NoError(t, err)
	assert.Len(t, keys, 3)
}
