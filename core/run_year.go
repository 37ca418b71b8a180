package core

import (
	"github.com/signalsfoundry/orbital-fleet-economics/internal/economics"
	"github.com/signalsfoundry/orbital-fleet-economics/model"
)

// YearParams are the inputs to RunYear that stay fixed across a run.
type YearParams struct {
	Config *model.SimConfig
	Params model.ScenarioParams
}

// RunYear simulates the year s.Year: it steps the physical model, prices the
// result and returns the next state together with the year's snapshot. The
// upgrade attempts of the year are kept on next.Upgrades. It is pure and
// performs no I/O.
func RunYear(s State, p YearParams) (State, model.DebugStateEntry) {
	next, out := Step(s, YearInputs{
		Config:              p.Config,
		Params:              p.Params,
		DeploymentIntensity: p.Config.IntensityFor(s.Year),
	})

	econ := economics.Calculate(economics.Inputs{
		YearsElapsed:          s.YearsElapsed,
		GroundComputePFLOPS:   out.Power.GroundComputePFLOPS,
		GroundPowerMW:         out.Power.GroundPowerMW,
		OrbitExportablePFLOPS: out.Power.ComputeExportablePFLOPS,
		Launches:              out.Fleet.Launches,
		CumulativeLaunches:    out.Fleet.CumulativeLaunches,
		FleetUnits:            out.Fleet.FleetUnits,
		LaunchMassKg:          out.Demands.LaunchMassKg,
		BacklogFactor:         out.Flow.BacklogFactor,
	}, out.EnvironmentalStress, p.Params, p.Config.RouterWeights)

	diag := model.Diagnostics{
		EnvironmentalStress: out.EnvironmentalStress,
		DeploymentIntensity: out.DeploymentIntensity,
		BacklogFactor:       out.Flow.BacklogFactor,
		LaunchFailureRate:   out.Flow.LaunchFailureRate,
		RouterUptake:        economics.RouterUptake(p.Config.RouterWeights, p.Params),
		AllocationPoints:    out.AllocationPoints,
	}
	for _, u := range out.Upgrades {
		if u.Applied {
			diag.UpgradesApplied++
		} else {
			diag.UpgradesRejected++
		}
	}

	entry := model.DebugStateEntry{
		Scenario:           s.Scenario,
		Year:               out.Year,
		Ceilings:           out.Ceilings,
		Demands:            out.Demands,
		Utilization:        out.Utilization,
		DominantConstraint: out.Dominant,
		Power:              out.Power,
		Fleet:              out.Fleet,
		Economics:          econ,
		Stages:             out.Stages,
		Diagnostics:        diag,
	}
	return next, entry
}
