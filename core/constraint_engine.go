package core

import (
	"math"

	"github.com/signalsfoundry/orbital-fleet-economics/model"
)

// headroomEpsilon treats headrooms this close as tied so priority decides.
const headroomEpsilon = 1e-12

// InitialCeilings returns the start-year ceilings of a scenario.
func InitialCeilings(p model.ScenarioParams) model.ConstraintCeilings {
	return model.ConstraintCeilings{
		LaunchMassKg:       p.LaunchCeilingKg,
		HeatRejectionMW:    p.HeatCeilingMW,
		BackhaulGbps:       p.BackhaulCeilingGbps,
		AutonomyRecoveries: p.AutonomyCeiling,
	}
}

// GrowCeilings applies one year of scenario growth to every ceiling.
func GrowCeilings(c model.ConstraintCeilings, p model.ScenarioParams) model.ConstraintCeilings {
	return model.ConstraintCeilings{
		LaunchMassKg:       c.LaunchMassKg * model.Kilograms(1+p.LaunchCeilingGrowth),
		HeatRejectionMW:    c.HeatRejectionMW * model.Megawatts(1+p.HeatCeilingGrowth),
		BackhaulGbps:       c.BackhaulGbps * model.Gbps(1+p.BackhaulCeilingGrowth),
		AutonomyRecoveries: c.AutonomyRecoveries * (1 + p.AutonomyCeilingGrowth),
	}
}

// UnitLoad is what one pod draws from each ceiling.
type UnitLoad struct {
	MassKg       model.Kilograms
	HeatMW       model.Megawatts
	BackhaulGbps model.Gbps
}

// LaunchManifest returns how many pods may fly this year without exceeding a
// ceiling: their launch mass must fit the launch ceiling, and the units
// expected to survive launch must fit the heat and backhaul headroom left by
// the fleet already in orbit. A load of zero never limits.
func LaunchManifest(c model.ConstraintCeilings, load UnitLoad, fleetUnits, failureRate float64) float64 {
	limit := unitsWithin(float64(c.LaunchMassKg), float64(load.MassKg), 0)
	survival := 1 - failureRate
	if survival <= 0 {
		return limit
	}
	orbital := math.Min(
		unitsWithin(float64(c.HeatRejectionMW), float64(load.HeatMW), fleetUnits),
		unitsWithin(float64(c.BackhaulGbps), float64(load.BackhaulGbps), fleetUnits),
	)
	return math.Min(limit, orbital/survival)
}

func unitsWithin(ceiling, perUnit, used float64) float64 {
	if perUnit <= 0 {
		return math.Inf(1)
	}
	return math.Max(0, ceiling/perUnit-used)
}

// EvaluateConstraints computes per-ceiling utilization and the dominant
// constraint. Overall utilization is the minimum of the heat, backhaul and
// autonomy ratios. An empty fleet has no dominant constraint.
func EvaluateConstraints(c model.ConstraintCeilings, d model.ConstraintDemands, fleetUnits float64) (model.ConstraintUtilization, model.ConstraintKind) {
	u := model.ConstraintUtilization{
		Launch:   ratio(float64(d.LaunchMassKg), float64(c.LaunchMassKg)),
		Heat:     ratio(float64(d.HeatRejectionMW), float64(c.HeatRejectionMW)),
		Backhaul: ratio(float64(d.BackhaulGbps), float64(c.BackhaulGbps)),
		Autonomy: ratio(d.AutonomyRecoveries, c.AutonomyRecoveries),
	}
	u.Overall = math.Min(u.Heat, math.Min(u.Backhaul, u.Autonomy))
	return u, DominantConstraint(u, fleetUnits)
}

// DominantConstraint returns the ceiling with the least headroom, breaking
// ties in model.ConstraintPriority order, or NONE when the fleet is empty.
func DominantConstraint(u model.ConstraintUtilization, fleetUnits float64) model.ConstraintKind {
	if fleetUnits <= 0 {
		return model.ConstraintNone
	}
	best := model.ConstraintNone
	bestHeadroom := math.Inf(1)
	for _, kind := range model.ConstraintPriority {
		headroom := 1 - u.Of(kind)
		if headroom < bestHeadroom-headroomEpsilon {
			best = kind
			bestHeadroom = headroom
		}
	}
	return best
}
