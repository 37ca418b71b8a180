package query

import (
	"context"
	"fmt"

	"google.golang.org/protobuf/types/known/structpb"

	"github.com/signalsfoundry/orbital-fleet-economics/internal/crossover"
	"github.com/signalsfoundry/orbital-fleet-economics/internal/economics"
	"github.com/signalsfoundry/orbital-fleet-economics/internal/forecast"
	"github.com/signalsfoundry/orbital-fleet-economics/internal/logging"
	"github.com/signalsfoundry/orbital-fleet-economics/internal/sim"
	"github.com/signalsfoundry/orbital-fleet-economics/internal/sim/state"
	"github.com/signalsfoundry/orbital-fleet-economics/model"
)

// MaxReplicates bounds GenerateForecast requests.
const MaxReplicates = 10000

// RunScenarioRequest runs one scenario over an optional year range. Zero
// years fall back to the server's base configuration.
type RunScenarioRequest struct {
	Scenario  string `json:"scenario"`
	StartYear int    `json:"startYear,omitempty"`
	EndYear   int    `json:"endYear,omitempty"`
}

// RunScenarioResponse summarises a completed run.
type RunScenarioResponse struct {
	RunID       string          `json:"runId"`
	Scenario    string          `json:"scenario"`
	Years       int             `json:"years"`
	Warnings    []state.Warning `json:"warnings"`
	SavingsMUSD string          `json:"savingsMUSD"`
	BreakEven   int             `json:"breakEvenYear,omitempty"`
}

// GetSeriesRequest selects a metric of a stored scenario.
type GetSeriesRequest struct {
	Scenario string `json:"scenario"`
	Metric   string `json:"metric"`
}

// GetSeriesResponse carries the ground, orbit and mix series of a metric.
// Years where a segment's value is unbounded are absent from its series.
type GetSeriesResponse struct {
	Scenario string        `json:"scenario"`
	Metric   string        `json:"metric"`
	Orbit    []model.Point `json:"orbit"`
	Ground   []model.Point `json:"ground"`
	Mix      []model.Point `json:"mix"`
}

// DetectCrossoverRequest runs crossover detection on a stored scenario.
// MaxYear of 0 means the last stored year; Metric defaults to cost;
// ConfirmYears of 0 uses crossover.DefaultConfirmYears.
type DetectCrossoverRequest struct {
	Scenario     string `json:"scenario"`
	Metric       string `json:"metric,omitempty"`
	MaxYear      int    `json:"maxYear,omitempty"`
	ConfirmYears int    `json:"confirmYears,omitempty"`
	Fallback     bool   `json:"fallback,omitempty"`
	Interpolate  bool   `json:"interpolate,omitempty"`
}

// DetectCrossoverResponse is the detection result.
type DetectCrossoverResponse struct {
	Scenario string           `json:"scenario"`
	Metric   string           `json:"metric"`
	Result   crossover.Result `json:"result"`
}

// GenerateForecastRequest asks for forecast bands. Unset fields use the
// server's forecast defaults.
type GenerateForecastRequest struct {
	Scenario   string   `json:"scenario"`
	StartYear  int      `json:"startYear,omitempty"`
	EndYear    int      `json:"endYear,omitempty"`
	Replicates int      `json:"replicates,omitempty"`
	Jitter     *float64 `json:"jitter,omitempty"`
	Seed       *uint64  `json:"seed,omitempty"`
}

// GenerateForecastResponse carries the bands.
type GenerateForecastResponse struct {
	Scenario   string         `json:"scenario"`
	Replicates int            `json:"replicates"`
	Bands      forecast.Bands `json:"bands"`
}

// ValidateRequest re-validates the stored entries of a scenario.
type ValidateRequest struct {
	Scenario string `json:"scenario"`
}

// ValidateResponse lists every warning raised.
type ValidateResponse struct {
	Scenario string          `json:"scenario"`
	Entries  int             `json:"entries"`
	Warnings []state.Warning `json:"warnings"`
}

// ForecastDefaults fill unset GenerateForecast fields.
type ForecastDefaults struct {
	Replicates int
	Jitter     float64
	Seed       uint64
	Workers    int
}

// Server implements QueryServer on top of a scenario runner.
type Server struct {
	runner   *sim.Runner
	params   sim.ParamsSource
	log      logging.Logger
	base     model.SimConfig
	defaults ForecastDefaults
	metrics  forecast.Metrics
}

// ServerOption customises a Server.
type ServerOption func(*Server)

// WithBaseConfig sets the configuration runs and forecasts start from.
func WithBaseConfig(cfg model.SimConfig) ServerOption {
	return func(s *Server) { s.base = cfg.Clone() }
}

// WithForecastDefaults sets the defaults for GenerateForecast.
func WithForecastDefaults(d ForecastDefaults) ServerOption {
	return func(s *Server) { s.defaults = d }
}

// WithForecastMetrics attaches a forecast metrics recorder.
func WithForecastMetrics(m forecast.Metrics) ServerOption {
	return func(s *Server) { s.metrics = m }
}

// NewServer builds a query server. params must be the source runner uses.
func NewServer(runner *sim.Runner, params sim.ParamsSource, log logging.Logger, opts ...ServerOption) *Server {
	if log == nil {
		log = logging.Noop()
	}
	s := &Server{
		runner: runner,
		params: params,
		log:    log,
		base:   model.DefaultSimConfig(),
		defaults: ForecastDefaults{
			Replicates: 200,
			Jitter:     forecast.DefaultJitter,
			Seed:       1,
		},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

var _ QueryServer = (*Server)(nil)

// RunScenario simulates a scenario into the store, replacing its entries.
func (s *Server) RunScenario(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	var req RunScenarioRequest
	if err := decode(in, &req); err != nil {
		return nil, ToStatusError(err)
	}
	cfg, err := s.config(req.Scenario, req.StartYear, req.EndYear)
	if err != nil {
		return nil, ToStatusError(err)
	}

	report, err := s.runner.Run(ctx, cfg)
	if err != nil {
		return nil, ToStatusError(err)
	}
	ledger := economics.NewLedger(report.Entries)
	return respond(RunScenarioResponse{
		RunID:       report.RunID,
		Scenario:    string(report.Scenario),
		Years:       len(report.Entries),
		Warnings:    nonNilWarnings(report.Warnings),
		SavingsMUSD: ledger.Total().StringFixed(2),
		BreakEven:   ledger.BreakEvenYear(),
	})
}

// GetSeries returns the ground, orbit and mix series of a stored metric.
func (s *Server) GetSeries(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	var req GetSeriesRequest
	if err := decode(in, &req); err != nil {
		return nil, ToStatusError(err)
	}
	key, entries, err := s.stored(req.Scenario)
	if err != nil {
		return nil, ToStatusError(err)
	}
	metric, err := parseMetric(req.Metric)
	if err != nil {
		return nil, ToStatusError(err)
	}

	orbit, ground := model.SegmentSeries(entries, metric)
	return respond(GetSeriesResponse{
		Scenario: string(key),
		Metric:   string(metric),
		Orbit:    nonNilPoints(orbit),
		Ground:   nonNilPoints(ground),
		Mix:      model.MixSeries(entries, metric),
	})
}

// DetectCrossover finds the year the orbit metric is confirmed below ground.
func (s *Server) DetectCrossover(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	var req DetectCrossoverRequest
	if err := decode(in, &req); err != nil {
		return nil, ToStatusError(err)
	}
	key, entries, err := s.stored(req.Scenario)
	if err != nil {
		return nil, ToStatusError(err)
	}
	metric, err := parseMetric(req.Metric)
	if err != nil {
		return nil, ToStatusError(err)
	}

	maxYear := req.MaxYear
	if maxYear == 0 {
		maxYear = entries[len(entries)-1].Year
	}
	var opts []crossover.Option
	if req.Fallback {
		opts = append(opts, crossover.WithLatestYearFallback())
	}
	if req.Interpolate {
		opts = append(opts, crossover.WithMissingYearPolicy(crossover.Interpolate))
	}
	if req.ConfirmYears < 0 {
		return nil, ToStatusError(fmt.Errorf("%w: confirmYears must be >= 0", ErrInvalidRequest))
	}
	if req.ConfirmYears > 0 {
		opts = append(opts, crossover.WithConfirmYears(req.ConfirmYears))
	}

	orbit, ground := model.SegmentSeries(entries, metric)
	result := crossover.Detect(orbit, ground, maxYear, opts...)
	if result.Comparisons == nil {
		result.Comparisons = []crossover.Comparison{}
	}
	return respond(DetectCrossoverResponse{
		Scenario: string(key),
		Metric:   string(metric),
		Result:   result,
	})
}

// GenerateForecast runs Monte Carlo replicates and returns percentile bands.
func (s *Server) GenerateForecast(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	var req GenerateForecastRequest
	if err := decode(in, &req); err != nil {
		return nil, ToStatusError(err)
	}
	cfg, err := s.config(req.Scenario, req.StartYear, req.EndYear)
	if err != nil {
		return nil, ToStatusError(err)
	}

	n := req.Replicates
	if n == 0 {
		n = s.defaults.Replicates
	}
	if n < 1 || n > MaxReplicates {
		return nil, ToStatusError(fmt.Errorf("%w: replicates must be within [1,%d]", ErrInvalidRequest, MaxReplicates))
	}
	jitter := s.defaults.Jitter
	if req.Jitter != nil {
		jitter = *req.Jitter
	}
	if jitter < 0 || jitter > 1 {
		return nil, ToStatusError(fmt.Errorf("%w: jitter must be within [0,1]", ErrInvalidRequest))
	}
	seed := s.defaults.Seed
	if req.Seed != nil {
		seed = *req.Seed
	}

	engine := forecast.NewEngine(s.params, logging.LoggerFromContext(ctx, s.log),
		forecast.WithWorkers(s.defaults.Workers),
		forecast.WithJitter(jitter),
		forecast.WithSeed(seed),
		forecast.WithMetrics(s.metrics),
	)
	bands, err := engine.GenerateBands(ctx, forecast.NewSpec(cfg), n)
	if err != nil {
		return nil, ToStatusError(err)
	}
	return respond(GenerateForecastResponse{
		Scenario:   string(cfg.Scenario),
		Replicates: n,
		Bands:      bands,
	})
}

// Validate re-runs the per-entry and multi-year checks on a stored scenario.
func (s *Server) Validate(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	var req ValidateRequest
	if err := decode(in, &req); err != nil {
		return nil, ToStatusError(err)
	}
	key, entries, err := s.stored(req.Scenario)
	if err != nil {
		return nil, ToStatusError(err)
	}

	var warnings []state.Warning
	for _, e := range entries {
		warnings = append(warnings, state.ValidateEntry(e).Warnings...)
	}
	warnings = append(warnings, s.runner.Store().ValidateAcrossYears(ctx, key)...)
	return respond(ValidateResponse{
		Scenario: string(key),
		Entries:  len(entries),
		Warnings: nonNilWarnings(warnings),
	})
}

func (s *Server) config(scenario string, startYear, endYear int) (model.SimConfig, error) {
	key, err := model.ParseScenarioKey(scenario)
	if err != nil {
		return model.SimConfig{}, err
	}
	cfg := s.base.Clone()
	cfg.Scenario = key
	if startYear != 0 {
		cfg.StartYear = startYear
	}
	if endYear != 0 {
		cfg.EndYear = endYear
	}
	return cfg, nil
}

// stored returns a scenario's entries, or ErrEntryNotFound when it has not
// been run.
func (s *Server) stored(scenario string) (model.ScenarioKey, []model.DebugStateEntry, error) {
	key, err := model.ParseScenarioKey(scenario)
	if err != nil {
		return "", nil, err
	}
	entries := s.runner.Store().AllEntries(key)
	if len(entries) == 0 {
		return "", nil, fmt.Errorf("%w: scenario %s has not been run", state.ErrEntryNotFound, key)
	}
	return key, entries, nil
}

func parseMetric(name string) (model.Metric, error) {
	if name == "" {
		return model.MetricCostPerCompute, nil
	}
	m, err := model.ParseMetric(name)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	}
	return m, nil
}

func respond(v any) (*structpb.Struct, error) {
	out, err := encode(v)
	if err != nil {
		return nil, ToStatusError(err)
	}
	return out, nil
}

func nonNilWarnings(w []state.Warning) []state.Warning {
	if w == nil {
		return []state.Warning{}
	}
	return w
}

func nonNilPoints(p []model.Point) []model.Point {
	if p == nil {
		return []model.Point{}
	}
	return p
}
