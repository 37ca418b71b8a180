package core

import (
	"fmt"

	"github.com/signalsfoundry/orbital-fleet-economics/model"
)

type tierStep struct {
	from, to model.Tier
}

// upgradeCosts is the allocation-point price of each permitted tier jump.
var upgradeCosts = map[tierStep]int{
	{1, 2}: 10,
	{2, 3}: 20,
	{1, 3}: 30,
}

// UpgradeCost returns the allocation-point cost of moving from one tier to
// another and whether that jump is permitted at all.
func UpgradeCost(from, to model.Tier) (int, bool) {
	cost, ok := upgradeCosts[tierStep{from, to}]
	return cost, ok
}

// UpgradeResult reports the outcome of an upgrade request. When Applied is
// false, Pipeline and Budget are the unchanged inputs and Reason says why.
type UpgradeResult struct {
	Pipeline FactoryPipeline
	Budget   int
	Applied  bool
	Cost     int
	Reason   string
}

// Upgrade raises a stage to the requested tier if the jump is permitted and
// the budget covers it. Rejected requests are not errors: the pipeline and
// budget come back untouched.
func (p FactoryPipeline) Upgrade(stage model.StageID, to model.Tier, budget int) UpgradeResult {
	reject := func(reason string) UpgradeResult {
		return UpgradeResult{Pipeline: p, Budget: budget, Reason: reason}
	}

	i := p.index(stage)
	if i < 0 {
		return reject(fmt.Sprintf("unknown stage %q", stage))
	}
	if !to.Valid() {
		return reject(fmt.Sprintf("tier %d out of range", to))
	}
	from := p.stages[i].Tier
	cost, ok := UpgradeCost(from, to)
	if !ok {
		return reject(fmt.Sprintf("no upgrade path from tier %d to %d", from, to))
	}
	if budget < cost {
		return reject(fmt.Sprintf("insufficient allocation points: have %d, need %d", budget, cost))
	}

	next := p.clone()
	next.stages[i].Tier = to
	return UpgradeResult{
		Pipeline: next,
		Budget:   budget - cost,
		Applied:  true,
		Cost:     cost,
	}
}
