package model

import "fmt"

// StageID identifies one step of the orbital compute factory.
type StageID string

const (
	StageSilicon StageID = "silicon"
	StageChips   StageID = "chips"
	StageRacks   StageID = "racks"
	StagePods    StageID = "pods"
	StageLaunch  StageID = "launch"
	StageOrbit   StageID = "orbit"
)

// StageOrder lists the stages in flow order, upstream first.
var StageOrder = []StageID{StageSilicon, StageChips, StageRacks, StagePods, StageLaunch, StageOrbit}

// ManufacturingStages are the stages whose rate propagates as min(own, upstream).
var ManufacturingStages = []StageID{StageSilicon, StageChips, StageRacks, StagePods}

// Valid reports whether id names a known stage.
func (id StageID) Valid() bool {
	for _, s := range StageOrder {
		if s == id {
			return true
		}
	}
	return false
}

// Tier is the upgrade level of a factory stage.
type Tier int

const (
	TierMin Tier = 1
	TierMax Tier = 3
)

// Valid reports whether t lies in [TierMin, TierMax].
func (t Tier) Valid() bool { return t >= TierMin && t <= TierMax }

// BottleneckLevel classifies a stage's utilization.
type BottleneckLevel string

const (
	BottleneckGreen  BottleneckLevel = "green"
	BottleneckYellow BottleneckLevel = "yellow"
	BottleneckRed    BottleneckLevel = "red"
)

// ClassifyBottleneck maps a utilization ratio onto a bottleneck level:
// green <= 0.9, yellow in (0.9, 1.1], red > 1.1.
func ClassifyBottleneck(utilization float64) BottleneckLevel {
	switch {
	case utilization > 1.1:
		return BottleneckRed
	case utilization > 0.9:
		return BottleneckYellow
	default:
		return BottleneckGreen
	}
}

// FactoryStage is the per-year view of one pipeline stage. Throughputs are in
// pod-equivalents per year for manufacturing stages, launches per year for the
// launch stage and managed units per year for the orbit stage.
type FactoryStage struct {
	ID                  StageID         `json:"id"`
	Tier                Tier            `json:"tier"`
	BaseThroughput      float64         `json:"baseThroughput"`
	EffectiveThroughput float64         `json:"effectiveThroughput"`
	Utilization         float64         `json:"utilization"`
	Bottleneck          BottleneckLevel `json:"bottleneckLevel"`
}

func (s FactoryStage) String() string {
	return fmt.Sprintf("%s[t%d %.1f/%.1f %s]", s.ID, s.Tier, s.EffectiveThroughput, s.BaseThroughput, s.Bottleneck)
}
