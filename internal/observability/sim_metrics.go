package observability

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// SimCollector exposes simulation, validation and forecast metrics. It
// satisfies the state store's MetricsRecorder as well as the recorder
// interfaces of the scenario runner and the forecast engine. A nil collector
// is a valid no-op.
type SimCollector struct {
	gatherer prometheus.Gatherer

	YearsSimulated     *prometheus.CounterVec
	RunDuration        *prometheus.HistogramVec
	ScenarioEntries    *prometheus.GaugeVec
	ValidationWarnings *prometheus.CounterVec
	ForecastReplicates prometheus.Counter
	DroppedDatapoints  *prometheus.CounterVec
	ReplicateDuration  prometheus.Histogram
}

// NewSimCollector registers simulation metrics against reg.
func NewSimCollector(reg prometheus.Registerer) (*SimCollector, error) {
	reg, gatherer := resolve(reg)

	years, err := register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "fleetsim_years_simulated_total",
		Help: "Simulated scenario years, labeled by scenario.",
	}, []string{"scenario"}), "fleetsim_years_simulated_total")
	if err != nil {
		return nil, err
	}

	runs, err := register(reg, prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "fleetsim_scenario_run_duration_seconds",
		Help:    "Wall-clock duration of full scenario runs.",
		Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
	}, []string{"scenario"}), "fleetsim_scenario_run_duration_seconds")
	if err != nil {
		return nil, err
	}

	entries, err := register(reg, prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "fleetsim_scenario_entries",
		Help: "Debug state entries currently stored per scenario.",
	}, []string{"scenario"}), "fleetsim_scenario_entries")
	if err != nil {
		return nil, err
	}

	warnings, err := register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "fleetsim_validation_warnings_total",
		Help: "Validation warnings raised, labeled by kind.",
	}, []string{"kind"}), "fleetsim_validation_warnings_total")
	if err != nil {
		return nil, err
	}

	replicates, err := register(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "fleetsim_forecast_replicates_total",
		Help: "Monte Carlo forecast replicates completed.",
	}), "fleetsim_forecast_replicates_total")
	if err != nil {
		return nil, err
	}

	dropped, err := register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "fleetsim_forecast_dropped_datapoints_total",
		Help: "Non-finite forecast datapoints dropped before the percentile reduce, labeled by metric.",
	}, []string{"metric"}), "fleetsim_forecast_dropped_datapoints_total")
	if err != nil {
		return nil, err
	}

	replicateDuration, err := register(reg, prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "fleetsim_forecast_replicate_duration_seconds",
		Help:    "Duration of a single forecast replicate.",
		Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5},
	}), "fleetsim_forecast_replicate_duration_seconds")
	if err != nil {
		return nil, err
	}

	return &SimCollector{
		gatherer:           gatherer,
		YearsSimulated:     years,
		RunDuration:        runs,
		ScenarioEntries:    entries,
		ValidationWarnings: warnings,
		ForecastReplicates: replicates,
		DroppedDatapoints:  dropped,
		ReplicateDuration:  replicateDuration,
	}, nil
}

// Gatherer returns the Prometheus gatherer associated with the collector.
func (c *SimCollector) Gatherer() prometheus.Gatherer {
	if c == nil {
		return nil
	}
	return c.gatherer
}

// Handler exposes a /metrics handler over the collector's gatherer.
func (c *SimCollector) Handler() http.Handler {
	return handlerFor(c.Gatherer())
}

// ObserveScenarioRun records a completed scenario run.
func (c *SimCollector) ObserveScenarioRun(scenario string, years int, d time.Duration) {
	if c == nil {
		return
	}
	c.YearsSimulated.WithLabelValues(scenario).Add(float64(years))
	c.RunDuration.WithLabelValues(scenario).Observe(d.Seconds())
}

// SetScenarioEntries updates the stored entry gauge for a scenario.
func (c *SimCollector) SetScenarioEntries(scenario string, entries int) {
	if c == nil {
		return
	}
	c.ScenarioEntries.WithLabelValues(scenario).Set(float64(entries))
}

// IncValidationWarning counts one validation warning.
func (c *SimCollector) IncValidationWarning(kind string) {
	if c == nil {
		return
	}
	c.ValidationWarnings.WithLabelValues(kind).Inc()
}

// ObserveReplicate records one completed forecast replicate.
func (c *SimCollector) ObserveReplicate(d time.Duration) {
	if c == nil {
		return
	}
	c.ForecastReplicates.Inc()
	c.ReplicateDuration.Observe(d.Seconds())
}

// AddDroppedDatapoints counts non-finite datapoints dropped for a metric.
func (c *SimCollector) AddDroppedDatapoints(metric string, n int) {
	if c == nil || n <= 0 {
		return
	}
	c.DroppedDatapoints.WithLabelValues(metric).Add(float64(n))
}
