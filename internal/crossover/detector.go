// Package crossover finds the year in which the orbital segment overtakes the
// ground segment on a metric.
//
// A crossover is only reported once orbit has stayed below ground for a run
// of consecutive compared years (DefaultConfirmYears unless configured). The
// year reported is the one that completes the run, so a single favourable
// year at the end of a series is never a crossover on its own.
package crossover

import (
	"sort"

	"github.com/signalsfoundry/orbital-fleet-economics/model"
)

// MissingYearPolicy controls how years present in only one series are handled.
type MissingYearPolicy int

const (
	// Skip compares only the years both series share.
	Skip MissingYearPolicy = iota
	// Interpolate fills interior gaps of either series linearly and compares
	// on the union of years. Years outside a series' own range are still
	// skipped.
	Interpolate
)

func (p MissingYearPolicy) String() string {
	switch p {
	case Skip:
		return "skip"
	case Interpolate:
		return "interpolate"
	}
	return "unknown"
}

// Comparison is one compared year.
type Comparison struct {
	Year         int     `json:"year"`
	Orbit        float64 `json:"orbit"`
	Ground       float64 `json:"ground"`
	Interpolated bool    `json:"interpolated,omitempty"`
	OrbitBelow   bool    `json:"orbitBelow"`
}

// DefaultConfirmYears is the number of consecutive compared years orbit must
// stay below ground before a crossover is reported.
const DefaultConfirmYears = 2

// Result is the outcome of Detect. Year is nil when no crossover was found.
//
// Implicit is set when Year came from the latest-year fallback rather than
// the ascending scan. The fallback looks at every compared year, so an
// implicit Year may lie beyond the maxYear passed to Detect; Comparisons
// still stop at maxYear.
type Result struct {
	Year        *int         `json:"year"`
	Implicit    bool         `json:"implicit,omitempty"`
	Comparisons []Comparison `json:"comparisons"`
}

// Found reports whether a crossover year was detected.
func (r Result) Found() bool { return r.Year != nil }

type options struct {
	latestYearFallback bool
	missing            MissingYearPolicy
	confirmYears       int
}

// Option configures Detect.
type Option func(*options)

// WithLatestYearFallback returns the latest compared year when the scan finds
// no crossover but orbit is below ground in that year.
func WithLatestYearFallback() Option {
	return func(o *options) { o.latestYearFallback = true }
}

// WithConfirmYears sets how many consecutive compared years orbit must stay
// below ground. Values below 1 are treated as 1, which reports the first
// favourable year.
func WithConfirmYears(n int) Option {
	return func(o *options) {
		if n < 1 {
			n = 1
		}
		o.confirmYears = n
	}
}

// WithMissingYearPolicy selects how years missing from one series are treated.
func WithMissingYearPolicy(p MissingYearPolicy) Option {
	return func(o *options) { o.missing = p }
}

// Detect scans the compared years in ascending order and returns the year in
// which orbit < ground has held for the confirmation run of consecutive
// compared years. Years after maxYear are not scanned; maxYear <= 0 means no
// bound. Duplicate years keep their last value. The inputs are not modified
// and need not be sorted.
//
// With WithLatestYearFallback, a scan that finds nothing still reports the
// latest year present in both series when orbit is already below ground
// there, even if that year lies beyond maxYear. Such results are Implicit.
func Detect(orbit, ground []model.Point, maxYear int, opts ...Option) Result {
	o := options{confirmYears: DefaultConfirmYears}
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}

	orbitByYear, groundByYear := index(orbit), index(ground)

	var all []Comparison
	switch o.missing {
	case Interpolate:
		all = compareInterpolated(orbitByYear, groundByYear)
	default:
		all = compareShared(orbitByYear, groundByYear)
	}

	scanned := all
	if maxYear > 0 {
		n := sort.Search(len(all), func(i int) bool { return all[i].Year > maxYear })
		scanned = all[:n]
	}

	res := Result{Comparisons: scanned}
	run := 0
	for _, c := range scanned {
		if !c.OrbitBelow {
			run = 0
			continue
		}
		run++
		if run == o.confirmYears {
			year := c.Year
			res.Year = &year
			return res
		}
	}
	if o.latestYearFallback && len(all) > 0 {
		if last := all[len(all)-1]; last.OrbitBelow {
			year := last.Year
			res.Year = &year
			res.Implicit = true
		}
	}
	return res
}

func index(points []model.Point) map[int]float64 {
	out := make(map[int]float64, len(points))
	for _, p := range points {
		out[p.Year] = p.Value
	}
	return out
}

func compareShared(orbit, ground map[int]float64) []Comparison {
	var years []int
	for y := range orbit {
		if _, ok := ground[y]; ok {
			years = append(years, y)
		}
	}
	sort.Ints(years)

	out := make([]Comparison, 0, len(years))
	for _, y := range years {
		out = append(out, newComparison(y, orbit[y], ground[y], false))
	}
	return out
}

func compareInterpolated(orbit, ground map[int]float64) []Comparison {
	years := unionYears(orbit, ground)
	orbitYears, groundYears := sortedYears(orbit), sortedYears(ground)

	out := make([]Comparison, 0, len(years))
	for _, y := range years {
		ov, oInterp, ok := valueAt(orbit, orbitYears, y)
		if !ok {
			continue
		}
		gv, gInterp, ok := valueAt(ground, groundYears, y)
		if !ok {
			continue
		}
		out = append(out, newComparison(y, ov, gv, oInterp || gInterp))
	}
	return out
}

func newComparison(year int, orbit, ground float64, interpolated bool) Comparison {
	return Comparison{
		Year:         year,
		Orbit:        orbit,
		Ground:       ground,
		Interpolated: interpolated,
		OrbitBelow:   orbit < ground,
	}
}

// valueAt returns the series value at year, interpolating linearly between
// the nearest known neighbours. ok is false outside the series' range.
func valueAt(series map[int]float64, years []int, year int) (v float64, interpolated, ok bool) {
	if v, found := series[year]; found {
		return v, false, true
	}
	i := sort.SearchInts(years, year)
	if i == 0 || i == len(years) {
		return 0, false, false
	}
	lo, hi := years[i-1], years[i]
	frac := float64(year-lo) / float64(hi-lo)
	return series[lo] + frac*(series[hi]-series[lo]), true, true
}

func unionYears(a, b map[int]float64) []int {
	seen := make(map[int]struct{}, len(a)+len(b))
	for y := range a {
		seen[y] = struct{}{}
	}
	for y := range b {
		seen[y] = struct{}{}
	}
	out := make([]int, 0, len(seen))
	for y := range seen {
		out = append(out, y)
	}
	sort.Ints(out)
	return out
}

func sortedYears(series map[int]float64) []int {
	out := make([]int, 0, len(series))
	for y := range series {
		out = append(out, y)
	}
	sort.Ints(out)
	return out
}
