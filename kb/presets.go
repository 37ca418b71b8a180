package kb

import "github.com/signalsfoundry/orbital-fleet-economics/model"

// Preset returns the built-in parameters for a scenario. Unknown keys get the
// baseline values with the key preserved.
func Preset(key model.ScenarioKey) model.ScenarioParams {
	p := baseline()
	p.Key = key
	switch key {
	case model.ScenarioOrbitalBull:
		p.LaunchCeilingGrowth = 0.18
		p.HeatCeilingGrowth = 0.20
		p.BackhaulCeilingGrowth = 0.16
		p.AutonomyCeilingGrowth = 0.12
		p.LearningRate = 0.08
		p.LaunchCostMUSD = 50
		p.LaunchCostDecline = 0.15
		p.MaintenanceMUSDPerUnit = 0.15
		p.EnvironmentalStressDrift = 0.03
	case model.ScenarioOrbitalBear:
		p.LaunchCeilingGrowth = 0.06
		p.HeatCeilingGrowth = 0.08
		p.BackhaulCeilingGrowth = 0.05
		p.AutonomyCeilingGrowth = 0.04
		p.LearningRate = 0.03
		p.LaunchCostMUSD = 80
		p.LaunchCostDecline = 0.05
		p.MaintenanceMUSDPerUnit = 0.3
		p.EnvironmentalStressDrift = 0.01
	}
	return p
}

func baseline() model.ScenarioParams {
	return model.ScenarioParams{
		Key: model.ScenarioBaseline,

		LaunchCeilingKg:       150_000,
		LaunchCeilingGrowth:   0.12,
		HeatCeilingMW:         12,
		HeatCeilingGrowth:     0.15,
		BackhaulCeilingGbps:   200,
		BackhaulCeilingGrowth: 0.10,
		AutonomyCeiling:       10,
		AutonomyCeilingGrowth: 0.08,

		OrbitBaseOpexMUSD:      400,
		LearningRate:           0.05,
		LaunchCostMUSD:         60,
		LaunchCostDecline:      0.10,
		MaintenanceMUSDPerUnit: 0.2,
		LaunchCO2PerTonne:      20,
		OrbitBaseLatencyMs:     120,

		GroundBaseOpexMUSD:       300,
		GroundEnergyMUSD:         200,
		GroundCoolingMUSD:        80,
		GroundWaterMUSD:          20,
		GroundCarbonPenaltyMUSD:  50,
		GroundBaseLatencyMs:      45,
		GroundCarbonIntensity:    2,
		GroundComputePFLOPS:      2000,
		GroundComputeGrowth:      0.08,
		GroundPowerMW:            400,
		EnvironmentalStressDrift: 0.02,

		LatencyAffinity: 0.6,
		CarbonAffinity:  0.9,
	}
}
