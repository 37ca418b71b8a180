// core/factory_pipeline.go
package core

import (
	"math"

	"github.com/signalsfoundry/orbital-fleet-economics/model"
)

// tierMultipliers scale a stage's base throughput by tier. The sequence must
// stay non-decreasing so an upgrade never lowers capacity.
var tierMultipliers = map[model.Tier]float64{
	1: 1.0,
	2: 1.6,
	3: 2.4,
}

// Launch failure model constants.
const (
	MaxBacklogFactor    = 3.0
	BacklogFailureSlope = 0.2

	// saturatedUtilization is reported when a ceiling is zero but demand is not.
	saturatedUtilization = 10.0
)

// TierCapacity returns base throughput scaled by the tier multiplier. Tiers
// outside [1,3] are clamped to the nearest valid tier.
func TierCapacity(base float64, tier model.Tier) float64 {
	if tier < model.TierMin {
		tier = model.TierMin
	}
	if tier > model.TierMax {
		tier = model.TierMax
	}
	return base * tierMultipliers[tier]
}

// FactoryPipeline is the ordered set of factory stages. It is a value type:
// every mutating operation returns a new pipeline.
type FactoryPipeline struct {
	stages []model.FactoryStage
}

// NewFactoryPipeline builds a pipeline in model.StageOrder. Stages missing
// from tiers start at tier 1; stages missing from base get zero throughput.
func NewFactoryPipeline(base map[model.StageID]float64, tiers map[model.StageID]model.Tier) FactoryPipeline {
	stages := make([]model.FactoryStage, 0, len(model.StageOrder))
	for _, id := range model.StageOrder {
		tier := tiers[id]
		if !tier.Valid() {
			tier = model.TierMin
		}
		stages = append(stages, model.FactoryStage{
			ID:             id,
			Tier:           tier,
			BaseThroughput: base[id],
			Bottleneck:     model.BottleneckGreen,
		})
	}
	return FactoryPipeline{stages: stages}
}

// Stages returns a copy of the stages in flow order.
func (p FactoryPipeline) Stages() []model.FactoryStage {
	return append([]model.FactoryStage(nil), p.stages...)
}

// Stage looks up a stage by ID.
func (p FactoryPipeline) Stage(id model.StageID) (model.FactoryStage, bool) {
	for _, s := range p.stages {
		if s.ID == id {
			return s, true
		}
	}
	return model.FactoryStage{}, false
}

// Capacity returns the tier-scaled capacity of a stage, or 0 if it is unknown.
func (p FactoryPipeline) Capacity(id model.StageID) float64 {
	s, ok := p.Stage(id)
	if !ok {
		return 0
	}
	return TierCapacity(s.BaseThroughput, s.Tier)
}

func (p FactoryPipeline) clone() FactoryPipeline {
	return FactoryPipeline{stages: p.Stages()}
}

func (p FactoryPipeline) index(id model.StageID) int {
	for i, s := range p.stages {
		if s.ID == id {
			return i
		}
	}
	return -1
}

// LaunchParams are the per-pod and failure inputs of the launch stage.
//
// Manifest, when set, limits how many of the built pods fly this year. It
// receives the pod flow and the year's launch failure rate; pods it does not
// admit are held on the ground.
type LaunchParams struct {
	PodsPerLaunch   float64
	BaseFailureRate float64
	Manifest        func(podFlow, failureRate float64) float64
}

// FlowResult summarises one year of factory and launch flow.
type FlowResult struct {
	PodTarget         float64
	PodFlow           float64
	PodsLaunched      float64
	PodsHeld          float64
	RequiredLaunches  float64
	Launches          float64
	LaunchCapacity    float64
	BacklogFactor     float64
	LaunchFailureRate float64
	LiveUnits         float64
	LostAtLaunch      float64
}

// Advance recomputes throughput, utilization and bottleneck level of every
// stage for a year whose pod target is podTarget.
//
// Manufacturing stages run at min(own capacity, upstream rate) and carry the
// pod target as demand. The launch stage turns pod flow into launches and a
// backlog-driven failure rate; the orbit stage receives the surviving units.
func (p FactoryPipeline) Advance(podTarget float64, lp LaunchParams) (FactoryPipeline, FlowResult) {
	next := p.clone()
	if podTarget < 0 || math.IsNaN(podTarget) {
		podTarget = 0
	}
	res := FlowResult{PodTarget: podTarget}

	rate := podTarget
	for _, id := range model.ManufacturingStages {
		i := next.index(id)
		if i < 0 {
			continue
		}
		capacity := TierCapacity(next.stages[i].BaseThroughput, next.stages[i].Tier)
		rate = math.Min(capacity, rate)
		next.stages[i].EffectiveThroughput = rate
		next.stages[i].Utilization = ratio(podTarget, capacity)
		next.stages[i].Bottleneck = model.ClassifyBottleneck(next.stages[i].Utilization)
	}
	res.PodFlow = rate

	podsPerLaunch := lp.PodsPerLaunch
	if podsPerLaunch <= 0 {
		podsPerLaunch = 1
	}
	res.RequiredLaunches = res.PodFlow / podsPerLaunch
	res.LaunchCapacity = next.Capacity(model.StageLaunch)
	res.BacklogFactor = BacklogFactor(res.RequiredLaunches, res.LaunchCapacity)
	res.LaunchFailureRate = LaunchFailureRate(lp.BaseFailureRate, res.BacklogFactor)

	res.PodsLaunched = res.PodFlow
	if lp.Manifest != nil {
		res.PodsLaunched = math.Max(0, math.Min(res.PodFlow, lp.Manifest(res.PodFlow, res.LaunchFailureRate)))
	}
	res.PodsHeld = res.PodFlow - res.PodsLaunched
	res.Launches = res.PodsLaunched / podsPerLaunch
	res.LiveUnits = res.PodsLaunched * (1 - res.LaunchFailureRate)
	res.LostAtLaunch = res.PodsLaunched - res.LiveUnits

	if i := next.index(model.StageLaunch); i >= 0 {
		next.stages[i].EffectiveThroughput = res.Launches
		next.stages[i].Utilization = ratio(res.RequiredLaunches, res.LaunchCapacity)
		next.stages[i].Bottleneck = model.ClassifyBottleneck(next.stages[i].Utilization)
	}
	if i := next.index(model.StageOrbit); i >= 0 {
		capacity := TierCapacity(next.stages[i].BaseThroughput, next.stages[i].Tier)
		next.stages[i].EffectiveThroughput = res.LiveUnits
		next.stages[i].Utilization = ratio(res.LiveUnits, capacity)
		next.stages[i].Bottleneck = model.ClassifyBottleneck(next.stages[i].Utilization)
	}

	return next, res
}

// BacklogFactor is required/available launches clamped to [0, MaxBacklogFactor].
// With no launch capacity and positive demand the backlog is saturated.
func BacklogFactor(required, available float64) float64 {
	if required <= 0 {
		return 0
	}
	if available <= 0 {
		return MaxBacklogFactor
	}
	return math.Min(required/available, MaxBacklogFactor)
}

// LaunchFailureRate grows linearly with backlog above 1 and is clamped to [0,1].
func LaunchFailureRate(base, backlog float64) float64 {
	rate := base + math.Max(0, backlog-1)*BacklogFailureSlope
	return math.Max(0, math.Min(1, rate))
}

// ratio returns demand/ceiling. Zero demand is always 0; positive demand
// against a non-positive ceiling reports saturatedUtilization.
func ratio(demand, ceiling float64) float64 {
	if demand <= 0 {
		return 0
	}
	if ceiling <= 0 {
		return saturatedUtilization
	}
	return demand / ceiling
}
