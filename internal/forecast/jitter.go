package forecast

import (
	"math/rand/v2"

	"github.com/signalsfoundry/orbital-fleet-economics/model"
)

// DefaultJitter is the default half-width of the multiplicative jitter.
const DefaultJitter = 0.18

// replicateRNG returns the generator for replicate i. Seeding from the pair
// (seed, i) makes every replicate reproducible regardless of which worker
// runs it.
func replicateRNG(seed uint64, i int) *rand.Rand {
	return rand.New(rand.NewPCG(seed, uint64(i)))
}

// Jitter returns a perturbed clone of cfg. Router weights, the pod base, the
// factory output multiplier (when set) and the deployment intensity of every
// simulated year are each scaled by an independent factor drawn uniformly
// from [1-delta, 1+delta]. Intensities are clamped back into range. cfg is
// not modified.
func Jitter(cfg model.SimConfig, delta float64, rng *rand.Rand) model.SimConfig {
	out := cfg.Clone()
	if delta <= 0 {
		return out
	}
	factor := func() float64 { return 1 - delta + 2*delta*rng.Float64() }

	out.RouterWeights.Cost *= factor()
	out.RouterWeights.Latency *= factor()
	out.RouterWeights.Carbon *= factor()
	out.PodsPerDeploymentBase *= factor()
	if out.FactoryOutputMultiplier > 0 {
		out.FactoryOutputMultiplier *= factor()
	}

	plans := make([]model.YearPlan, 0, cfg.Years())
	for year := cfg.StartYear; year <= cfg.EndYear; year++ {
		plans = append(plans, model.YearPlan{
			Year:                year,
			DeploymentIntensity: model.ClampIntensity(cfg.IntensityFor(year) * factor()),
		})
	}
	out.Plans = plans
	return out
}
