package model

import (
	"fmt"
	"math"
	"strings"
)

// Point is one (year, value) sample of a time series.
type Point struct {
	Year  int     `json:"year"`
	Value float64 `json:"value"`
}

// Metric names an economic quantity that exists for both segments.
type Metric string

const (
	MetricCostPerCompute Metric = "cost"
	MetricLatency        Metric = "latency"
	MetricCarbon         Metric = "carbon"
	MetricOpex           Metric = "opex"
)

// AllMetrics lists every comparable metric.
var AllMetrics = []Metric{MetricCostPerCompute, MetricLatency, MetricCarbon, MetricOpex}

// ParseMetric accepts a metric name case-insensitively.
func ParseMetric(s string) (Metric, error) {
	m := Metric(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range AllMetrics {
		if m == known {
			return m, nil
		}
	}
	return "", fmt.Errorf("unknown metric %q", s)
}

// Of reads the metric from a segment.
func (m Metric) Of(s SegmentEconomics) float64 {
	switch m {
	case MetricCostPerCompute:
		return float64(s.CostPerCompute)
	case MetricLatency:
		return float64(s.LatencyMs)
	case MetricCarbon:
		return float64(s.CarbonIntensity)
	case MetricOpex:
		return float64(s.OpexMUSD)
	}
	return math.NaN()
}

// SegmentSeries extracts the orbit and ground series for m from entries,
// preserving their order. Non-finite values are left out, so a year with no
// assigned orbital compute is simply missing from the orbit series.
func SegmentSeries(entries []DebugStateEntry, m Metric) (orbit, ground []Point) {
	for _, e := range entries {
		if v := m.Of(e.Economics.Orbit); isFinite(v) {
			orbit = append(orbit, Point{Year: e.Year, Value: v})
		}
		if v := m.Of(e.Economics.Ground); isFinite(v) {
			ground = append(ground, Point{Year: e.Year, Value: v})
		}
	}
	return orbit, ground
}

// MixSeries extracts the blended series for m from entries.
func MixSeries(entries []DebugStateEntry, m Metric) []Point {
	out := make([]Point, 0, len(entries))
	for _, e := range entries {
		out = append(out, Point{Year: e.Year, Value: m.Of(e.Economics.Mix)})
	}
	return out
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
