package core

import (
	"math"
	"reflect"
	"testing"

	"github.com/signalsfoundry/orbital-fleet-economics/kb"
	"github.com/signalsfoundry/orbital-fleet-economics/model"
)

func baselineYear(t *testing.T) (State, YearParams) {
	t.Helper()
	cfg := model.DefaultSimConfig()
	params := kb.Preset(model.ScenarioBaseline)
	return NewState(cfg, params), YearParams{Config: &cfg, Params: params}
}

func TestRunYearBaselineFirstYear(t *testing.T) {
	s, p := baselineYear(t)
	next, entry := RunYear(s, p)

	if entry.Scenario != model.ScenarioBaseline || entry.Year != 2025 {
		t.Fatalf("entry key = %s/%d, want BASELINE/2025", entry.Scenario, entry.Year)
	}
	switch entry.DominantConstraint {
	case model.ConstraintLaunch, model.ConstraintHeat, model.ConstraintBackhaul, model.ConstraintAutonomy, model.ConstraintNone:
	default:
		t.Fatalf("dominant constraint = %q, not a known kind", entry.DominantConstraint)
	}
	if entry.DominantConstraint != model.ConstraintLaunch {
		t.Fatalf("dominant constraint = %s, want LAUNCH at 90%% of the launch ceiling", entry.DominantConstraint)
	}
	if entry.Economics.Orbit.OpexMUSD <= entry.Economics.Ground.OpexMUSD {
		t.Fatalf("orbit opex %.1f <= ground opex %.1f, want orbit more expensive in year one",
			entry.Economics.Orbit.OpexMUSD, entry.Economics.Ground.OpexMUSD)
	}
	if math.Abs(float64(entry.Economics.Ground.OpexMUSD)-880) > 1e-9 {
		t.Fatalf("ground opex = %v, want 880", entry.Economics.Ground.OpexMUSD)
	}
	if entry.Power.ComputeEffectivePFLOPS > entry.Power.ComputeRawPFLOPS {
		t.Fatalf("effective compute %v exceeds raw %v", entry.Power.ComputeEffectivePFLOPS, entry.Power.ComputeRawPFLOPS)
	}
	if entry.Power.ComputeExportablePFLOPS > entry.Power.ComputeEffectivePFLOPS {
		t.Fatalf("exportable compute %v exceeds effective %v", entry.Power.ComputeExportablePFLOPS, entry.Power.ComputeEffectivePFLOPS)
	}
	if u := entry.Utilization.Overall; u < 0 || u > 1 {
		t.Fatalf("overall utilization = %v, want within [0,1]", u)
	}
	if len(entry.Stages) != len(model.StageOrder) {
		t.Fatalf("stages = %d, want %d", len(entry.Stages), len(model.StageOrder))
	}

	if next.Year != 2026 || next.YearsElapsed != 1 {
		t.Fatalf("next = year %d elapsed %d, want 2026/1", next.Year, next.YearsElapsed)
	}
	if next.FleetUnits <= 0 || next.FleetUnits > entry.Fleet.FleetUnits {
		t.Fatalf("next fleet = %v, want in (0, %v]", next.FleetUnits, entry.Fleet.FleetUnits)
	}
	if next.Ceilings.HeatRejectionMW <= s.Ceilings.HeatRejectionMW {
		t.Fatalf("heat ceiling did not grow: %v -> %v", s.Ceilings.HeatRejectionMW, next.Ceilings.HeatRejectionMW)
	}
}

func TestRunYearIsPure(t *testing.T) {
	s, p := baselineYear(t)
	before := s.Pipeline.Stages()

	next1, entry1 := RunYear(s, p)
	next2, entry2 := RunYear(s, p)

	if !reflect.DeepEqual(entry1, entry2) {
		t.Fatalf("RunYear not deterministic:\n%+v\n%+v", entry1, entry2)
	}
	if !reflect.DeepEqual(next1, next2) {
		t.Fatalf("RunYear next state not deterministic")
	}
	if !reflect.DeepEqual(before, s.Pipeline.Stages()) {
		t.Fatalf("RunYear modified the input pipeline")
	}
	if s.Year != 2025 || s.FleetUnits != 0 {
		t.Fatalf("RunYear modified the input state: %+v", s)
	}
}

func TestRunYearScheduledUpgrades(t *testing.T) {
	cfg := model.DefaultSimConfig()
	cfg.InitialAllocationPoints = 5
	cfg.Upgrades = []model.UpgradePlan{
		{Year: 2025, Stage: model.StagePods, ToTier: 2},
		{Year: 2025, Stage: model.StageLaunch, ToTier: 3},
	}
	params := kb.Preset(model.ScenarioBaseline)

	next, entry := RunYear(NewState(cfg, params), YearParams{Config: &cfg, Params: params})

	if entry.Diagnostics.UpgradesApplied != 1 || entry.Diagnostics.UpgradesRejected != 1 {
		t.Fatalf("upgrades applied/rejected = %d/%d, want 1/1",
			entry.Diagnostics.UpgradesApplied, entry.Diagnostics.UpgradesRejected)
	}
	if next.AllocationPoints != 0 {
		t.Fatalf("allocation points = %d, want 0 after spending 10", next.AllocationPoints)
	}
	if len(next.Upgrades) != 2 || !next.Upgrades[0].Applied || next.Upgrades[1].Applied {
		t.Fatalf("upgrade outcomes = %+v", next.Upgrades)
	}
	// Pods at tier 2 (144/yr) no longer cap the 100-pod target.
	if entry.Fleet.PodsBuilt != 100 {
		t.Fatalf("pods built = %v, want 100", entry.Fleet.PodsBuilt)
	}
}

func TestRunYearHigherTierNeverShrinksFleet(t *testing.T) {
	for _, stage := range model.StageOrder {
		base := model.DefaultSimConfig()
		upgraded := model.DefaultSimConfig()
		upgraded.StageTiers[stage] = 3
		params := kb.Preset(model.ScenarioBaseline)

		_, lo := RunYear(NewState(base, params), YearParams{Config: &base, Params: params})
		_, hi := RunYear(NewState(upgraded, params), YearParams{Config: &upgraded, Params: params})
		if hi.Fleet.PodsBuilt < lo.Fleet.PodsBuilt {
			t.Fatalf("%s at tier 3 built %v pods, fewer than tier 1 (%v)", stage, hi.Fleet.PodsBuilt, lo.Fleet.PodsBuilt)
		}
	}
}

func TestRunYearEmptyFleetHasNoDominantConstraint(t *testing.T) {
	cfg := model.DefaultSimConfig()
	cfg.PodsPerDeploymentBase = 0
	params := kb.Preset(model.ScenarioBaseline)

	_, entry := RunYear(NewState(cfg, params), YearParams{Config: &cfg, Params: params})
	if entry.DominantConstraint != model.ConstraintNone {
		t.Fatalf("dominant = %s, want NONE for an empty fleet", entry.DominantConstraint)
	}
	if !math.IsInf(float64(entry.Economics.Orbit.CostPerCompute), 1) {
		t.Fatalf("orbit cost per compute = %v, want +Inf with nothing assigned", entry.Economics.Orbit.CostPerCompute)
	}
	if math.IsNaN(float64(entry.Economics.Mix.CostPerCompute)) || math.IsInf(float64(entry.Economics.Mix.CostPerCompute), 0) {
		t.Fatalf("mix cost per compute = %v, want finite", entry.Economics.Mix.CostPerCompute)
	}
}
