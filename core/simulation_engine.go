package core

import (
	"math"

	"github.com/signalsfoundry/orbital-fleet-economics/model"
)

// State is the physical state of a scenario at the start of a year.
type State struct {
	Scenario            model.ScenarioKey
	Year                int
	YearsElapsed        int
	Pipeline            FactoryPipeline
	FleetUnits          float64
	CumulativeLaunches  float64
	AllocationPoints    int
	EnvironmentalStress float64
	Ceilings            model.ConstraintCeilings
	GroundComputePFLOPS model.PetaFLOPS
	GroundPowerMW       model.Megawatts

	// Upgrades are the scheduled upgrade attempts of the year that produced
	// this state.
	Upgrades []UpgradeOutcome
}

// NewState builds the start-of-run state for cfg under scenario params p.
func NewState(cfg model.SimConfig, p model.ScenarioParams) State {
	return State{
		Scenario:            cfg.Scenario,
		Year:                cfg.StartYear,
		Pipeline:            NewFactoryPipeline(cfg.StageBaseThroughput, cfg.StageTiers),
		AllocationPoints:    cfg.InitialAllocationPoints,
		EnvironmentalStress: clamp01(cfg.GroundEnergyStress),
		Ceilings:            InitialCeilings(p),
		GroundComputePFLOPS: p.GroundComputePFLOPS,
		GroundPowerMW:       p.GroundPowerMW,
	}
}

// YearInputs are the read-only inputs to Step.
type YearInputs struct {
	Config              *model.SimConfig
	Params              model.ScenarioParams
	DeploymentIntensity float64
}

// UpgradeOutcome records one scheduled upgrade attempt.
type UpgradeOutcome struct {
	Plan    model.UpgradePlan
	Applied bool
	Cost    int
	Reason  string
}

// YearOutcome is everything the physical model produced for one year.
type YearOutcome struct {
	Year                int
	EnvironmentalStress float64
	DeploymentIntensity float64
	AllocationPoints    int
	Stages              []model.FactoryStage
	Flow                FlowResult
	Ceilings            model.ConstraintCeilings
	Demands             model.ConstraintDemands
	Utilization         model.ConstraintUtilization
	Dominant            model.ConstraintKind
	Power               model.PowerCompute
	Fleet               model.FleetCounts
	Upgrades            []UpgradeOutcome
}

// Step advances s by one year. It is pure: s is not modified and the same
// inputs always produce the same outputs.
func Step(s State, in YearInputs) (State, YearOutcome) {
	cfg := in.Config
	out := YearOutcome{
		Year:                s.Year,
		EnvironmentalStress: s.EnvironmentalStress,
		DeploymentIntensity: model.ClampIntensity(in.DeploymentIntensity),
		Ceilings:            s.Ceilings,
	}

	// Allocation points accrue before the year's scheduled upgrades.
	pipeline := s.Pipeline
	points := s.AllocationPoints + cfg.AllocationPointsPerYear
	for _, plan := range cfg.Upgrades {
		if plan.Year != s.Year {
			continue
		}
		res := pipeline.Upgrade(plan.Stage, plan.ToTier, points)
		pipeline, points = res.Pipeline, res.Budget
		out.Upgrades = append(out.Upgrades, UpgradeOutcome{
			Plan: plan, Applied: res.Applied, Cost: res.Cost, Reason: res.Reason,
		})
	}
	out.AllocationPoints = points

	// Deployment is bounded by the ceilings: pods that would push launch
	// mass, heat or backhaul past this year's limits stay on the ground.
	load := UnitLoad{
		MassKg:       cfg.PodMassKg,
		HeatMW:       cfg.PodPowerKW.Megawatts(),
		BackhaulGbps: cfg.PodBackhaulGbps,
	}
	podTarget := cfg.PodsPerDeploymentBase * out.DeploymentIntensity * cfg.OutputMultiplier()
	pipeline, flow := pipeline.Advance(podTarget, LaunchParams{
		PodsPerLaunch:   cfg.PodsPerLaunch,
		BaseFailureRate: cfg.BaseLaunchFailureRate,
		Manifest:        func(_, failureRate float64) float64 {
			return LaunchManifest(s.Ceilings, load, s.FleetUnits, failureRate)
		},
	})
	out.Flow = flow
	out.Stages = pipeline.Stages()

	fleet := s.FleetUnits + flow.LiveUnits
	failures := fleet * cfg.UnitFailureRate
	recoveries := math.Min(failures, s.Ceilings.AutonomyRecoveries)

	out.Demands = model.ConstraintDemands{
		LaunchMassKg:       model.Kilograms(flow.PodsLaunched) * cfg.PodMassKg,
		HeatRejectionMW:    model.Megawatts(fleet) * cfg.PodPowerKW.Megawatts(),
		BackhaulGbps:       model.Gbps(fleet) * cfg.PodBackhaulGbps,
		AutonomyRecoveries: failures,
	}
	out.Utilization, out.Dominant = EvaluateConstraints(s.Ceilings, out.Demands, fleet)

	thermal := throttle(out.Utilization.Heat)
	network := throttle(out.Utilization.Backhaul)
	online := fleet - (failures - recoveries)
	rawCompute := model.PetaFLOPS(fleet) * cfg.PodComputePFLOPS
	effectiveCompute := model.PetaFLOPS(online*thermal) * cfg.PodComputePFLOPS
	rawPower := out.Demands.HeatRejectionMW
	out.Power = model.PowerCompute{
		PowerRawMW:              rawPower,
		PowerEffectiveMW:        rawPower * model.Megawatts(thermal),
		ComputeRawPFLOPS:        rawCompute,
		ComputeEffectivePFLOPS:  effectiveCompute,
		ComputeExportablePFLOPS: effectiveCompute * model.PetaFLOPS(network),
		GroundComputePFLOPS:     s.GroundComputePFLOPS,
		GroundPowerMW:           s.GroundPowerMW,
	}

	out.Fleet = model.FleetCounts{
		FleetUnits:         fleet,
		PodTarget:          flow.PodTarget,
		PodsBuilt:          flow.PodFlow,
		PodsHeld:           flow.PodsHeld,
		LiveUnits:          flow.LiveUnits,
		LostAtLaunch:       flow.LostAtLaunch,
		Launches:           flow.Launches,
		CumulativeLaunches: s.CumulativeLaunches + flow.Launches,
		Failures:           failures,
		Recoveries:         recoveries,
	}

	next := State{
		Scenario:            s.Scenario,
		Year:                s.Year + 1,
		YearsElapsed:        s.YearsElapsed + 1,
		Pipeline:            pipeline,
		FleetUnits:          online,
		CumulativeLaunches:  out.Fleet.CumulativeLaunches,
		AllocationPoints:    points,
		EnvironmentalStress: clamp01(s.EnvironmentalStress + in.Params.EnvironmentalStressDrift),
		Ceilings:            GrowCeilings(s.Ceilings, in.Params),
		GroundComputePFLOPS: s.GroundComputePFLOPS * model.PetaFLOPS(1+in.Params.GroundComputeGrowth),
		GroundPowerMW:       s.GroundPowerMW * model.Megawatts(1+in.Params.GroundComputeGrowth),
		Upgrades:            out.Upgrades,
	}
	return next, out
}

// throttle is the fraction of capacity usable under a constraint at the given
// utilization: 1 while within the ceiling, ceiling/demand above it.
func throttle(utilization float64) float64 {
	if utilization <= 1 {
		return 1
	}
	return 1 / utilization
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}
