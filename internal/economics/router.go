package economics

import (
	"math"

	"github.com/signalsfoundry/orbital-fleet-economics/model"
)

// NormalizeWeights scales w so its components sum to 1. Negative components
// count as zero; an all-zero input falls back to pure cost routing.
func NormalizeWeights(w model.RouterWeights) model.RouterWeights {
	c, l, k := math.Max(0, w.Cost), math.Max(0, w.Latency), math.Max(0, w.Carbon)
	sum := c + l + k
	if sum <= 0 {
		return model.RouterWeights{Cost: 1}
	}
	return model.RouterWeights{Cost: c / sum, Latency: l / sum, Carbon: k / sum}
}

// RouterUptake is the fraction of exportable orbital compute the workload
// router fills: cost-motivated demand takes everything it is offered, while
// latency- and carbon-motivated demand is limited to the scenario affinities.
func RouterUptake(w model.RouterWeights, p model.ScenarioParams) float64 {
	n := NormalizeWeights(w)
	u := n.Cost + n.Latency*p.LatencyAffinity + n.Carbon*p.CarbonAffinity
	return math.Max(0, math.Min(1, u))
}
