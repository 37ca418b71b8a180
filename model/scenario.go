package model

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownScenario indicates a scenario key outside the supported set.
var ErrUnknownScenario = errors.New("unknown scenario")

// ScenarioKey names one of the macro-assumption scenarios.
type ScenarioKey string

const (
	ScenarioBaseline    ScenarioKey = "BASELINE"
	ScenarioOrbitalBull ScenarioKey = "ORBITAL_BULL"
	ScenarioOrbitalBear ScenarioKey = "ORBITAL_BEAR"
)

// AllScenarios lists every scenario in a stable order.
var AllScenarios = []ScenarioKey{ScenarioBaseline, ScenarioOrbitalBull, ScenarioOrbitalBear}

// Valid reports whether k is a known scenario.
func (k ScenarioKey) Valid() bool {
	switch k {
	case ScenarioBaseline, ScenarioOrbitalBull, ScenarioOrbitalBear:
		return true
	}
	return false
}

// ParseScenarioKey accepts the canonical names case-insensitively, with
// dashes allowed in place of underscores.
func ParseScenarioKey(s string) (ScenarioKey, error) {
	k := ScenarioKey(strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(s), "-", "_")))
	if !k.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownScenario, s)
	}
	return k, nil
}

// ConstraintKind names one of the four orbital resource ceilings.
type ConstraintKind string

const (
	ConstraintNone     ConstraintKind = "NONE"
	ConstraintLaunch   ConstraintKind = "LAUNCH"
	ConstraintHeat     ConstraintKind = "HEAT"
	ConstraintBackhaul ConstraintKind = "BACKHAUL"
	ConstraintAutonomy ConstraintKind = "AUTONOMY"
)

// ConstraintPriority is the tie-break order used when two ceilings have the
// same headroom.
var ConstraintPriority = []ConstraintKind{ConstraintLaunch, ConstraintHeat, ConstraintBackhaul, ConstraintAutonomy}
