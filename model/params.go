package model

import (
	"errors"
	"fmt"
)

// ErrInvalidConfig indicates a SimConfig that cannot be simulated.
var ErrInvalidConfig = errors.New("invalid simulation config")

// ScenarioParams are the macro assumptions that distinguish scenarios. Money
// is in million USD per year unless noted otherwise.
type ScenarioParams struct {
	Key ScenarioKey `json:"key" yaml:"key"`

	// Orbital ceilings at the start year and their annual growth rates.
	LaunchCeilingKg       Kilograms `json:"launchCeilingKg" yaml:"launchCeilingKg"`
	LaunchCeilingGrowth   float64   `json:"launchCeilingGrowth" yaml:"launchCeilingGrowth"`
	HeatCeilingMW         Megawatts `json:"heatCeilingMW" yaml:"heatCeilingMW"`
	HeatCeilingGrowth     float64   `json:"heatCeilingGrowth" yaml:"heatCeilingGrowth"`
	BackhaulCeilingGbps   Gbps      `json:"backhaulCeilingGbps" yaml:"backhaulCeilingGbps"`
	BackhaulCeilingGrowth float64   `json:"backhaulCeilingGrowth" yaml:"backhaulCeilingGrowth"`
	AutonomyCeiling       float64   `json:"autonomyCeiling" yaml:"autonomyCeiling"`
	AutonomyCeilingGrowth float64   `json:"autonomyCeilingGrowth" yaml:"autonomyCeilingGrowth"`

	// Orbit economics.
	OrbitBaseOpexMUSD      MillionUSD   `json:"orbitBaseOpexMUSD" yaml:"orbitBaseOpexMUSD"`
	LearningRate           float64      `json:"learningRate" yaml:"learningRate"`
	LaunchCostMUSD         MillionUSD   `json:"launchCostMUSD" yaml:"launchCostMUSD"`
	LaunchCostDecline      float64      `json:"launchCostDecline" yaml:"launchCostDecline"`
	MaintenanceMUSDPerUnit MillionUSD   `json:"maintenanceMUSDPerUnit" yaml:"maintenanceMUSDPerUnit"`
	LaunchCO2PerTonne      float64      `json:"launchCO2PerTonne" yaml:"launchCO2PerTonne"`
	OrbitBaseLatencyMs     Milliseconds `json:"orbitBaseLatencyMs" yaml:"orbitBaseLatencyMs"`

	// Ground economics.
	GroundBaseOpexMUSD       MillionUSD   `json:"groundBaseOpexMUSD" yaml:"groundBaseOpexMUSD"`
	GroundEnergyMUSD         MillionUSD   `json:"groundEnergyMUSD" yaml:"groundEnergyMUSD"`
	GroundCoolingMUSD        MillionUSD   `json:"groundCoolingMUSD" yaml:"groundCoolingMUSD"`
	GroundWaterMUSD          MillionUSD   `json:"groundWaterMUSD" yaml:"groundWaterMUSD"`
	GroundCarbonPenaltyMUSD  MillionUSD   `json:"groundCarbonPenaltyMUSD" yaml:"groundCarbonPenaltyMUSD"`
	GroundBaseLatencyMs      Milliseconds `json:"groundBaseLatencyMs" yaml:"groundBaseLatencyMs"`
	GroundCarbonIntensity    CO2PerPFLOPS `json:"groundCarbonIntensity" yaml:"groundCarbonIntensity"`
	GroundComputePFLOPS      PetaFLOPS    `json:"groundComputePFLOPS" yaml:"groundComputePFLOPS"`
	GroundComputeGrowth      float64      `json:"groundComputeGrowth" yaml:"groundComputeGrowth"`
	GroundPowerMW            Megawatts    `json:"groundPowerMW" yaml:"groundPowerMW"`
	EnvironmentalStressDrift float64      `json:"environmentalStressDrift" yaml:"environmentalStressDrift"`

	// Share of latency-tolerant and carbon-motivated workloads the router may
	// place in orbit.
	LatencyAffinity float64 `json:"latencyAffinity" yaml:"latencyAffinity"`
	CarbonAffinity  float64 `json:"carbonAffinity" yaml:"carbonAffinity"`
}

// RouterWeights weight the cost, latency and carbon motives of the workload
// router. They are normalised before use.
type RouterWeights struct {
	Cost    float64 `json:"cost" yaml:"cost"`
	Latency float64 `json:"latency" yaml:"latency"`
	Carbon  float64 `json:"carbon" yaml:"carbon"`
}

// YearPlan sets the deployment intensity for one simulated year.
type YearPlan struct {
	Year                int     `json:"year" yaml:"year"`
	DeploymentIntensity float64 `json:"deploymentIntensity" yaml:"deploymentIntensity"`
}

// UpgradePlan schedules a stage tier upgrade at the start of a year.
type UpgradePlan struct {
	Year   int     `json:"year" yaml:"year"`
	Stage  StageID `json:"stage" yaml:"stage"`
	ToTier Tier    `json:"toTier" yaml:"toTier"`
}

// Intensity bounds for YearPlan.DeploymentIntensity.
const (
	MinDeploymentIntensity = 0.1
	MaxDeploymentIntensity = 1.0
)

// SimConfig describes one deterministic scenario run.
type SimConfig struct {
	Scenario  ScenarioKey `json:"scenario" yaml:"scenario"`
	StartYear int         `json:"startYear" yaml:"startYear"`
	EndYear   int         `json:"endYear" yaml:"endYear"`

	PodsPerDeploymentBase   float64 `json:"podsPerDeploymentBase" yaml:"podsPerDeploymentBase"`
	FactoryOutputMultiplier float64 `json:"factoryOutputMultiplier,omitempty" yaml:"factoryOutputMultiplier,omitempty"`
	GroundEnergyStress      float64 `json:"groundEnergyStress" yaml:"groundEnergyStress"`

	StageTiers          map[StageID]Tier    `json:"stageTiers" yaml:"stageTiers"`
	StageBaseThroughput map[StageID]float64 `json:"stageBaseThroughput" yaml:"stageBaseThroughput"`

	PodsPerLaunch         float64   `json:"podsPerLaunch" yaml:"podsPerLaunch"`
	PodMassKg             Kilograms `json:"podMassKg" yaml:"podMassKg"`
	PodPowerKW            Kilowatts `json:"podPowerKW" yaml:"podPowerKW"`
	PodComputePFLOPS      PetaFLOPS `json:"podComputePFLOPS" yaml:"podComputePFLOPS"`
	PodBackhaulGbps       Gbps      `json:"podBackhaulGbps" yaml:"podBackhaulGbps"`
	BaseLaunchFailureRate float64   `json:"baseLaunchFailureRate" yaml:"baseLaunchFailureRate"`
	UnitFailureRate       float64   `json:"unitFailureRate" yaml:"unitFailureRate"`

	RouterWeights RouterWeights `json:"routerWeights" yaml:"routerWeights"`

	InitialAllocationPoints int           `json:"initialAllocationPoints" yaml:"initialAllocationPoints"`
	AllocationPointsPerYear int           `json:"allocationPointsPerYear" yaml:"allocationPointsPerYear"`
	Upgrades                []UpgradePlan `json:"upgrades,omitempty" yaml:"upgrades,omitempty"`
	Plans                   []YearPlan    `json:"plans,omitempty" yaml:"plans,omitempty"`
}

// DefaultSimConfig returns a baseline configuration with every stage at tier 1.
func DefaultSimConfig() SimConfig {
	return SimConfig{
		Scenario:              ScenarioBaseline,
		StartYear:             2025,
		EndYear:               2045,
		PodsPerDeploymentBase: 100,
		GroundEnergyStress:    0.3,
		StageTiers: map[StageID]Tier{
			StageSilicon: 1, StageChips: 1, StageRacks: 1,
			StagePods: 1, StageLaunch: 1, StageOrbit: 1,
		},
		StageBaseThroughput: map[StageID]float64{
			StageSilicon: 120,
			StageChips:   110,
			StageRacks:   100,
			StagePods:    90,
			StageLaunch:  20,
			StageOrbit:   120,
		},
		PodsPerLaunch:           4,
		PodMassKg:               1500,
		PodPowerKW:              100,
		PodComputePFLOPS:        2,
		PodBackhaulGbps:         2,
		BaseLaunchFailureRate:   0.02,
		UnitFailureRate:         0.05,
		RouterWeights:           RouterWeights{Cost: 0.5, Latency: 0.3, Carbon: 0.2},
		InitialAllocationPoints: 0,
		AllocationPointsPerYear: 5,
	}
}

// Years returns the inclusive number of simulated years, or 0 when the range
// is empty.
func (c SimConfig) Years() int {
	if c.EndYear < c.StartYear {
		return 0
	}
	return c.EndYear - c.StartYear + 1
}

// IntensityFor returns the deployment intensity planned for year, defaulting
// to 1.0 and clamped to [MinDeploymentIntensity, MaxDeploymentIntensity].
func (c SimConfig) IntensityFor(year int) float64 {
	for _, p := range c.Plans {
		if p.Year == year {
			return ClampIntensity(p.DeploymentIntensity)
		}
	}
	return MaxDeploymentIntensity
}

// OutputMultiplier returns the factory output multiplier, treating an unset
// value as 1.
func (c SimConfig) OutputMultiplier() float64 {
	if c.FactoryOutputMultiplier <= 0 {
		return 1
	}
	return c.FactoryOutputMultiplier
}

// ClampIntensity clamps v to the allowed deployment intensity range.
func ClampIntensity(v float64) float64 {
	if v < MinDeploymentIntensity {
		return MinDeploymentIntensity
	}
	if v > MaxDeploymentIntensity {
		return MaxDeploymentIntensity
	}
	return v
}

// Clone returns a deep copy of the config.
func (c SimConfig) Clone() SimConfig {
	out := c
	if c.StageTiers != nil {
		out.StageTiers = make(map[StageID]Tier, len(c.StageTiers))
		for k, v := range c.StageTiers {
			out.StageTiers[k] = v
		}
	}
	if c.StageBaseThroughput != nil {
		out.StageBaseThroughput = make(map[StageID]float64, len(c.StageBaseThroughput))
		for k, v := range c.StageBaseThroughput {
			out.StageBaseThroughput[k] = v
		}
	}
	out.Upgrades = append([]UpgradePlan(nil), c.Upgrades...)
	out.Plans = append([]YearPlan(nil), c.Plans...)
	return out
}

// Validate reports structural problems that would make a run meaningless.
func (c SimConfig) Validate() error {
	if !c.Scenario.Valid() {
		return fmt.Errorf("%w: %w: %q", ErrInvalidConfig, ErrUnknownScenario, c.Scenario)
	}
	if c.PodsPerDeploymentBase < 0 {
		return fmt.Errorf("%w: podsPerDeploymentBase must be >= 0", ErrInvalidConfig)
	}
	if c.PodsPerLaunch <= 0 {
		return fmt.Errorf("%w: podsPerLaunch must be > 0", ErrInvalidConfig)
	}
	if c.GroundEnergyStress < 0 || c.GroundEnergyStress > 1 {
		return fmt.Errorf("%w: groundEnergyStress must be within [0,1]", ErrInvalidConfig)
	}
	for id, tier := range c.StageTiers {
		if !id.Valid() {
			return fmt.Errorf("%w: unknown stage %q", ErrInvalidConfig, id)
		}
		if !tier.Valid() {
			return fmt.Errorf("%w: stage %s tier %d out of range", ErrInvalidConfig, id, tier)
		}
	}
	for id, base := range c.StageBaseThroughput {
		if !id.Valid() {
			return fmt.Errorf("%w: unknown stage %q", ErrInvalidConfig, id)
		}
		if base < 0 {
			return fmt.Errorf("%w: stage %s base throughput must be >= 0", ErrInvalidConfig, id)
		}
	}
	return nil
}
