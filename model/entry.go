package model

// ConstraintCeilings are the four independent per-year limits on the orbital
// segment.
type ConstraintCeilings struct {
	LaunchMassKg       Kilograms `json:"launchMassKg"`
	HeatRejectionMW    Megawatts `json:"heatRejectionMW"`
	BackhaulGbps       Gbps      `json:"backhaulGbps"`
	AutonomyRecoveries float64   `json:"autonomyRecoveriesPerYear"`
}

// ConstraintDemands are the loads placed against each ceiling in a year.
type ConstraintDemands struct {
	LaunchMassKg       Kilograms `json:"launchMassKg"`
	HeatRejectionMW    Megawatts `json:"heatRejectionMW"`
	BackhaulGbps       Gbps      `json:"backhaulGbps"`
	AutonomyRecoveries float64   `json:"autonomyRecoveriesPerYear"`
}

// ConstraintUtilization holds demand/ceiling ratios. Overall is the minimum of
// the heat, backhaul and autonomy ratios.
type ConstraintUtilization struct {
	Launch   float64 `json:"launch"`
	Heat     float64 `json:"heat"`
	Backhaul float64 `json:"backhaul"`
	Autonomy float64 `json:"autonomy"`
	Overall  float64 `json:"overall"`
}

// Of returns the utilization for a single constraint kind.
func (u ConstraintUtilization) Of(kind ConstraintKind) float64 {
	switch kind {
	case ConstraintLaunch:
		return u.Launch
	case ConstraintHeat:
		return u.Heat
	case ConstraintBackhaul:
		return u.Backhaul
	case ConstraintAutonomy:
		return u.Autonomy
	}
	return 0
}

// PowerCompute captures orbital power and compute for a year. Effective values
// never exceed raw values; exportable never exceeds effective.
type PowerCompute struct {
	PowerRawMW              Megawatts `json:"powerRawMW"`
	PowerEffectiveMW        Megawatts `json:"powerEffectiveMW"`
	ComputeRawPFLOPS        PetaFLOPS `json:"computeRawPFLOPS"`
	ComputeEffectivePFLOPS  PetaFLOPS `json:"computeEffectivePFLOPS"`
	ComputeExportablePFLOPS PetaFLOPS `json:"computeExportablePFLOPS"`
	GroundComputePFLOPS     PetaFLOPS `json:"groundComputePFLOPS"`
	GroundPowerMW           Megawatts `json:"groundPowerMW"`
}

// FleetCounts tracks the orbital fleet in pod units.
type FleetCounts struct {
	FleetUnits         float64 `json:"fleetUnits"`
	PodTarget          float64 `json:"podTarget"`
	PodsBuilt          float64 `json:"podsBuilt"`
	PodsHeld           float64 `json:"podsHeld"`
	LiveUnits          float64 `json:"liveUnits"`
	LostAtLaunch       float64 `json:"lostAtLaunch"`
	Launches           float64 `json:"launches"`
	CumulativeLaunches float64 `json:"cumulativeLaunches"`
	Failures           float64 `json:"failures"`
	Recoveries         float64 `json:"recoveries"`
}

// SegmentEconomics is the economic view of one segment (ground, orbit or mix).
type SegmentEconomics struct {
	OpexMUSD        MillionUSD   `json:"opexMUSD"`
	CostPerCompute  USDPerPFLOPS `json:"costPerCompute"`
	LatencyMs       Milliseconds `json:"latencyMs"`
	CarbonIntensity CO2PerPFLOPS `json:"carbonIntensity"`
}

// Economics holds the ground/orbit/mix comparison for a year.
type Economics struct {
	Ground              SegmentEconomics `json:"ground"`
	Orbit               SegmentEconomics `json:"orbit"`
	Mix                 SegmentEconomics `json:"mix"`
	GroundShare         float64          `json:"groundShare"`
	OrbitShare          float64          `json:"orbitShare"`
	OrbitScaleFactor    float64          `json:"orbitScaleFactor"`
	OrbitAssignedPFLOPS PetaFLOPS        `json:"orbitAssignedPFLOPS"`
	OrbitCarbonTonnes   TonnesCO2        `json:"orbitCarbonTonnes"`
}

// Diagnostics carries scenario inputs and intermediate factors useful when
// debugging a run.
type Diagnostics struct {
	EnvironmentalStress float64 `json:"environmentalStress"`
	DeploymentIntensity float64 `json:"deploymentIntensity"`
	BacklogFactor       float64 `json:"backlogFactor"`
	LaunchFailureRate   float64 `json:"launchFailureRate"`
	RouterUptake        float64 `json:"routerUptake"`
	AllocationPoints    int     `json:"allocationPoints"`
	UpgradesApplied     int     `json:"upgradesApplied"`
	UpgradesRejected    int     `json:"upgradesRejected"`
}

// DebugStateEntry is the immutable snapshot produced for one simulated year of
// one scenario.
type DebugStateEntry struct {
	Scenario           ScenarioKey           `json:"scenario"`
	Year               int                   `json:"year"`
	Ceilings           ConstraintCeilings    `json:"ceilings"`
	Demands            ConstraintDemands     `json:"demands"`
	Utilization        ConstraintUtilization `json:"utilization"`
	DominantConstraint ConstraintKind        `json:"dominantConstraint"`
	Power              PowerCompute          `json:"power"`
	Fleet              FleetCounts           `json:"fleet"`
	Economics          Economics             `json:"economics"`
	Stages             []FactoryStage        `json:"stages"`
	Diagnostics        Diagnostics           `json:"diagnostics"`
}

// Clone returns a deep copy so callers never share the stage slice.
func (e DebugStateEntry) Clone() DebugStateEntry {
	out := e
	if e.Stages != nil {
		out.Stages = append([]FactoryStage(nil), e.Stages...)
	}
	return out
}
