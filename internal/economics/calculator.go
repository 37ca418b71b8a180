// Package economics compares the yearly cost, latency and carbon of the
// ground and orbital segments. Everything here is a pure function of its
// inputs so forecast replicates stay reproducible.
package economics

import (
	"math"

	"github.com/signalsfoundry/orbital-fleet-economics/model"
)

// Orbit scale breakpoints on the orbit share of assigned compute. The factors
// are a step function on purpose and must not be interpolated.
const (
	ScaleShareHigh  = 0.20
	ScaleShareLow   = 0.05
	ScaleFactorHigh = 0.6
	ScaleFactorLow  = 0.9
	ScaleFactorNone = 1.2

	// OrbitLatencyFloorMs is the lowest orbit latency the model reports.
	OrbitLatencyFloorMs = 20.0

	usdPerMillion = 1e6
)

// Inputs is the slice of a simulated year the calculator needs.
type Inputs struct {
	YearsElapsed          int
	GroundComputePFLOPS   model.PetaFLOPS
	GroundPowerMW         model.Megawatts
	OrbitExportablePFLOPS model.PetaFLOPS
	Launches              float64
	CumulativeLaunches    float64
	FleetUnits            float64
	LaunchMassKg          model.Kilograms
	BacklogFactor         float64
}

// Calculate produces the ground/orbit/mix economics of one year under the
// given environmental stress (clamped to [0,1]).
func Calculate(in Inputs, stress float64, p model.ScenarioParams, w model.RouterWeights) model.Economics {
	stress = math.Max(0, math.Min(1, stress))

	uptake := RouterUptake(w, p)
	orbitAssigned := in.OrbitExportablePFLOPS * model.PetaFLOPS(uptake)
	groundShare, orbitShare := shares(in.GroundComputePFLOPS, orbitAssigned)

	ground := model.SegmentEconomics{
		OpexMUSD:        GroundOpex(p, stress, in.GroundPowerMW),
		LatencyMs:       GroundLatency(p, stress),
		CarbonIntensity: p.GroundCarbonIntensity * model.CO2PerPFLOPS(1+stress),
	}
	ground.CostPerCompute = costPerCompute(ground.OpexMUSD, in.GroundComputePFLOPS, 1)

	orbitCarbon := model.TonnesCO2(in.LaunchMassKg.Tonnes() * p.LaunchCO2PerTonne)
	scale := ScaleFactor(orbitShare)
	orbit := model.SegmentEconomics{
		OpexMUSD:        OrbitOpex(p, in.Launches, in.CumulativeLaunches, in.FleetUnits, in.YearsElapsed),
		LatencyMs:       OrbitLatency(p, orbitShare, in.BacklogFactor),
		CarbonIntensity: carbonIntensity(orbitCarbon, orbitAssigned),
	}
	orbit.CostPerCompute = costPerCompute(orbit.OpexMUSD, orbitAssigned, scale)

	return model.Economics{
		Ground: ground,
		Orbit:  orbit,
		Mix: model.SegmentEconomics{
			OpexMUSD:        model.MillionUSD(blend(groundShare, float64(ground.OpexMUSD), orbitShare, float64(orbit.OpexMUSD))),
			CostPerCompute:  model.USDPerPFLOPS(blend(groundShare, float64(ground.CostPerCompute), orbitShare, float64(orbit.CostPerCompute))),
			LatencyMs:       model.Milliseconds(blend(groundShare, float64(ground.LatencyMs), orbitShare, float64(orbit.LatencyMs))),
			CarbonIntensity: model.CO2PerPFLOPS(blend(groundShare, float64(ground.CarbonIntensity), orbitShare, float64(orbit.CarbonIntensity))),
		},
		GroundShare:         groundShare,
		OrbitShare:          orbitShare,
		OrbitScaleFactor:    scale,
		OrbitAssignedPFLOPS: orbitAssigned,
		OrbitCarbonTonnes:   orbitCarbon,
	}
}

// GroundOpex = base + energy(1+1.5s) + cooling(1+0.05h) + water + penalty*s*2,
// where h is the facility heat load in tens of MW.
func GroundOpex(p model.ScenarioParams, stress float64, groundPower model.Megawatts) model.MillionUSD {
	heatLoad := float64(groundPower) / 10
	return p.GroundBaseOpexMUSD +
		p.GroundEnergyMUSD*model.MillionUSD(1+1.5*stress) +
		p.GroundCoolingMUSD*model.MillionUSD(1+0.05*heatLoad) +
		p.GroundWaterMUSD +
		p.GroundCarbonPenaltyMUSD*model.MillionUSD(stress*2)
}

// OrbitOpex = base*learning(cumulative launches) + launch cost + maintenance.
func OrbitOpex(p model.ScenarioParams, launches, cumulativeLaunches, fleetUnits float64, yearsElapsed int) model.MillionUSD {
	return p.OrbitBaseOpexMUSD*model.MillionUSD(LearningFactor(p.LearningRate, cumulativeLaunches)) +
		LaunchCost(p, launches, yearsElapsed) +
		p.MaintenanceMUSDPerUnit*model.MillionUSD(fleetUnits)
}

// LearningFactor = 1 / (1 + rate*sqrt(launches+1)).
func LearningFactor(rate, launches float64) float64 {
	return 1 / (1 + rate*math.Sqrt(math.Max(0, launches)+1))
}

// LaunchCost prices a year's launches; the per-launch price declines
// geometrically with years elapsed since the start of the run.
func LaunchCost(p model.ScenarioParams, launches float64, yearsElapsed int) model.MillionUSD {
	perLaunch := float64(p.LaunchCostMUSD) * math.Pow(1-p.LaunchCostDecline, float64(yearsElapsed))
	return model.MillionUSD(perLaunch * launches)
}

// ScaleFactor is the discrete orbit cost multiplier for an orbit share.
func ScaleFactor(orbitShare float64) float64 {
	switch {
	case orbitShare >= ScaleShareHigh:
		return ScaleFactorHigh
	case orbitShare >= ScaleShareLow:
		return ScaleFactorLow
	default:
		return ScaleFactorNone
	}
}

// GroundLatency = base*(1+0.2*stress).
func GroundLatency(p model.ScenarioParams, stress float64) model.Milliseconds {
	return p.GroundBaseLatencyMs * model.Milliseconds(1+0.2*stress)
}

// OrbitLatency = base - 40*share + 5*backlog, floored at OrbitLatencyFloorMs.
func OrbitLatency(p model.ScenarioParams, orbitShare, backlog float64) model.Milliseconds {
	l := float64(p.OrbitBaseLatencyMs) - 40*orbitShare + 5*backlog
	return model.Milliseconds(math.Max(OrbitLatencyFloorMs, l))
}

func shares(ground, orbit model.PetaFLOPS) (float64, float64) {
	total := float64(ground + orbit)
	if total <= 0 {
		return 1, 0
	}
	return float64(ground) / total, float64(orbit) / total
}

// costPerCompute converts million-USD opex into USD per assigned PFLOP/s-year.
// Unassigned capacity has an unbounded unit cost.
func costPerCompute(opex model.MillionUSD, assigned model.PetaFLOPS, scale float64) model.USDPerPFLOPS {
	if assigned <= 0 {
		return model.USDPerPFLOPS(math.Inf(1))
	}
	return model.USDPerPFLOPS(float64(opex) * usdPerMillion / float64(assigned) * scale)
}

func carbonIntensity(tonnes model.TonnesCO2, assigned model.PetaFLOPS) model.CO2PerPFLOPS {
	if assigned <= 0 {
		if tonnes <= 0 {
			return 0
		}
		return model.CO2PerPFLOPS(math.Inf(1))
	}
	return model.CO2PerPFLOPS(float64(tonnes) / float64(assigned))
}

// blend is the share-weighted mix. Zero-weight terms are skipped so an idle
// segment with an unbounded unit metric does not turn the mix into NaN.
func blend(wa, a, wb, b float64) float64 {
	var sum float64
	if wa != 0 {
		sum += wa * a
	}
	if wb != 0 {
		sum += wb * b
	}
	return sum
}
