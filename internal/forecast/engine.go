package forecast

import (
	"context"
	"fmt"
	"math"
	"runtime"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/signalsfoundry/orbital-fleet-economics/internal/logging"
	"github.com/signalsfoundry/orbital-fleet-economics/internal/observability"
	"github.com/signalsfoundry/orbital-fleet-economics/internal/sim"
	"github.com/signalsfoundry/orbital-fleet-economics/model"
)

// BandPoint is the percentile summary of one metric in one year. Samples is
// the number of finite replicate values behind it; a point with no samples
// carries zero percentiles.
type BandPoint struct {
	Year    int     `json:"year"`
	P10     float64 `json:"p10"`
	P50     float64 `json:"p50"`
	P90     float64 `json:"p90"`
	Samples int     `json:"samples"`
}

// Empty reports whether no replicate produced a finite value.
func (b BandPoint) Empty() bool { return b.Samples == 0 }

// Bands are the per-year percentile bands of the tracked mix metrics.
type Bands struct {
	CostPerCompute []BandPoint `json:"costPerCompute"`
	Latency        []BandPoint `json:"latency"`
	Carbon         []BandPoint `json:"carbon"`
}

// Metrics receives forecast measurements.
type Metrics interface {
	ObserveReplicate(d time.Duration)
	AddDroppedDatapoints(metric string, n int)
}

// Engine runs Monte Carlo replicates of the yearly pipeline.
type Engine struct {
	params  sim.ParamsSource
	log     logging.Logger
	metrics Metrics
	tracer  trace.Tracer

	workers int
	jitter  float64
	seed    uint64
}

// Option customises an Engine.
type Option func(*Engine)

// WithWorkers bounds the number of concurrently running replicates. Values
// below 1 mean runtime.GOMAXPROCS(0).
func WithWorkers(n int) Option {
	return func(e *Engine) { e.workers = n }
}

// WithJitter sets the jitter half-width delta.
func WithJitter(delta float64) Option {
	return func(e *Engine) { e.jitter = delta }
}

// WithSeed sets the base seed of the replicate generators.
func WithSeed(seed uint64) Option {
	return func(e *Engine) { e.seed = seed }
}

// WithMetrics attaches a forecast metrics recorder.
func WithMetrics(m Metrics) Option {
	return func(e *Engine) { e.metrics = m }
}

// WithTracer overrides the tracer used for forecast spans.
func WithTracer(t trace.Tracer) Option {
	return func(e *Engine) { e.tracer = t }
}

// NewEngine constructs an engine resolving scenario parameters from params.
func NewEngine(params sim.ParamsSource, log logging.Logger, opts ...Option) *Engine {
	if log == nil {
		log = logging.Noop()
	}
	e := &Engine{
		params: params,
		log:    log,
		tracer: observability.Tracer(),
		jitter: DefaultJitter,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(e)
		}
	}
	return e
}

// sample is one replicate's tracked metrics for one year.
type sample struct {
	cost, latency, carbon float64
}

// GenerateBands runs n jittered replicates of spec and reduces them to
// p10/p50/p90 bands per year. A spec with an empty year range returns empty
// bands without running anything.
func (e *Engine) GenerateBands(ctx context.Context, spec Spec, n int) (Bands, error) {
	cfg := spec.Config
	if cfg.Years() == 0 {
		return Bands{CostPerCompute: []BandPoint{}, Latency: []BandPoint{}, Carbon: []BandPoint{}}, nil
	}
	if err := spec.Validate(); err != nil {
		return Bands{}, err
	}
	if n < 1 {
		return Bands{}, fmt.Errorf("%w: replicates must be >= 1, got %d", ErrInvalidSpec, n)
	}

	ctx, log := logging.WithRunLogger(ctx, e.log)
	ctx, span := e.tracer.Start(ctx, "forecast.GenerateBands", trace.WithAttributes(
		attribute.String("scenario", string(cfg.Scenario)),
		attribute.Int("replicates", n),
		attribute.Float64("jitter", e.jitter),
	))
	defer span.End()

	params, err := e.params.Get(cfg.Scenario)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return Bands{}, fmt.Errorf("resolve scenario params: %w", err)
	}

	workers := e.workers
	if workers < 1 {
		workers = runtime.GOMAXPROCS(0)
	}

	start := time.Now()
	results := make([][]sample, n)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i := 0; i < n; i++ {
		g.Go(func() error {
			began := time.Now()
			replicate := Jitter(cfg, e.jitter, replicateRNG(e.seed, i))
			entries, err := sim.Simulate(gctx, replicate, params)
			if err != nil {
				return fmt.Errorf("replicate %d: %w", i, err)
			}
			results[i] = samplesOf(entries)
			if e.metrics != nil {
				e.metrics.ObserveReplicate(time.Since(began))
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return Bands{}, err
	}

	bands, dropped := reduce(cfg.StartYear, cfg.Years(), results)
	for metric, count := range dropped {
		if e.metrics != nil {
			e.metrics.AddDroppedDatapoints(metric, count)
		}
		if count > 0 {
			log.Debug(ctx, "dropped non-finite forecast datapoints",
				logging.String("metric", metric), logging.Int("count", count))
		}
	}
	log.Info(ctx, "forecast complete",
		logging.String("scenario", string(cfg.Scenario)),
		logging.Int("replicates", n),
		logging.Int("years", cfg.Years()),
		logging.Int("workers", workers),
		logging.String("duration", time.Since(start).String()),
	)
	return bands, nil
}

func samplesOf(entries []model.DebugStateEntry) []sample {
	out := make([]sample, len(entries))
	for i, e := range entries {
		out[i] = sample{
			cost:    float64(e.Economics.Mix.CostPerCompute),
			latency: float64(e.Economics.Mix.LatencyMs),
			carbon:  float64(e.Economics.Mix.CarbonIntensity),
		}
	}
	return out
}

// reduce turns the replicate matrix into bands. It also returns how many
// non-finite datapoints were dropped per metric.
func reduce(startYear, years int, results [][]sample) (Bands, map[string]int) {
	bands := Bands{
		CostPerCompute: make([]BandPoint, 0, years),
		Latency:        make([]BandPoint, 0, years),
		Carbon:         make([]BandPoint, 0, years),
	}
	dropped := map[string]int{
		string(model.MetricCostPerCompute): 0,
		string(model.MetricLatency):        0,
		string(model.MetricCarbon):         0,
	}

	cost := make([]float64, 0, len(results))
	latency := make([]float64, 0, len(results))
	carbon := make([]float64, 0, len(results))
	for y := 0; y < years; y++ {
		cost, latency, carbon = cost[:0], latency[:0], carbon[:0]
		for _, r := range results {
			if y >= len(r) {
				continue
			}
			cost = append(cost, r[y].cost)
			latency = append(latency, r[y].latency)
			carbon = append(carbon, r[y].carbon)
		}
		year := startYear + y
		bands.CostPerCompute = append(bands.CostPerCompute, bandPoint(year, cost, dropped, model.MetricCostPerCompute))
		bands.Latency = append(bands.Latency, bandPoint(year, latency, dropped, model.MetricLatency))
		bands.Carbon = append(bands.Carbon, bandPoint(year, carbon, dropped, model.MetricCarbon))
	}
	return bands, dropped
}

func bandPoint(year int, values []float64, dropped map[string]int, metric model.Metric) BandPoint {
	finite := finiteSorted(values)
	dropped[string(metric)] += len(values) - len(finite)

	bp := BandPoint{Year: year, Samples: len(finite)}
	if len(finite) == 0 {
		return bp
	}
	bp.P10 = rank(finite, 0.10)
	bp.P50 = rank(finite, 0.50)
	bp.P90 = rank(finite, 0.90)
	return bp
}

// Spread is p90 - p10, or NaN for an empty point.
func (b BandPoint) Spread() float64 {
	if b.Empty() {
		return math.NaN()
	}
	return b.P90 - b.P10
}
