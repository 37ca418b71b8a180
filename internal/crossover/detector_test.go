package crossover

import (
	"testing"

	"github.com/signalsfoundry/orbital-fleet-economics/model"
)

func series(start int, values ...float64) []model.Point {
	out := make([]model.Point, 0, len(values))
	for i, v := range values {
		out = append(out, model.Point{Year: start + i, Value: v})
	}
	return out
}

func TestDetectFirstCrossover(t *testing.T) {
	orbit := series(2025, 500, 400, 300, 200)
	ground := series(2025, 350, 340, 330, 320)

	res := Detect(orbit, ground, 0)
	if !res.Found() {
		t.Fatalf("Detect found no crossover, want 2028")
	}
	if *res.Year != 2028 {
		t.Fatalf("crossover year = %d, want 2028", *res.Year)
	}
	if res.Implicit {
		t.Fatalf("Implicit = true, want false for a scanned crossover")
	}
	if len(res.Comparisons) != 4 {
		t.Fatalf("comparisons = %d, want 4", len(res.Comparisons))
	}
}

func TestDetectIsIdempotent(t *testing.T) {
	orbit := series(2025, 500, 400, 300, 200)
	ground := series(2025, 350, 340, 330, 320)

	first := Detect(orbit, ground, 0)
	second := Detect(orbit, ground, 0)
	if *first.Year != *second.Year {
		t.Fatalf("repeated Detect = %d then %d", *first.Year, *second.Year)
	}
	if orbit[0].Value != 500 || ground[3].Value != 320 {
		t.Fatalf("Detect modified its inputs")
	}
}

func TestDetectIgnoresInputOrder(t *testing.T) {
	orbit := []model.Point{{Year: 2028, Value: 200}, {Year: 2025, Value: 500}, {Year: 2027, Value: 300}, {Year: 2026, Value: 400}}
	ground := series(2025, 350, 340, 330, 320)

	res := Detect(orbit, ground, 0)
	if !res.Found() || *res.Year != 2028 {
		t.Fatalf("Detect(unsorted) = %+v, want 2028", res.Year)
	}
	for i := 1; i < len(res.Comparisons); i++ {
		if res.Comparisons[i].Year <= res.Comparisons[i-1].Year {
			t.Fatalf("comparisons not ascending: %+v", res.Comparisons)
		}
	}
}

func TestDetectNoCrossover(t *testing.T) {
	res := Detect(series(2025, 500, 450), series(2025, 100, 100), 0)
	if res.Found() {
		t.Fatalf("crossover = %d, want none", *res.Year)
	}

	res = Detect(nil, series(2025, 100), 0)
	if res.Found() || len(res.Comparisons) != 0 {
		t.Fatalf("Detect(nil orbit) = %+v, want empty result", res)
	}
}

func TestDetectRespectsMaxYear(t *testing.T) {
	orbit := series(2025, 500, 400, 300, 200)
	ground := series(2025, 350, 340, 330, 320)

	res := Detect(orbit, ground, 2027)
	if res.Found() {
		t.Fatalf("crossover = %d, want none before 2028", *res.Year)
	}
	if len(res.Comparisons) != 3 {
		t.Fatalf("comparisons = %d, want 3", len(res.Comparisons))
	}
}

func TestDetectLatestYearFallback(t *testing.T) {
	orbit := series(2025, 500, 400, 300, 200)
	ground := series(2025, 350, 340, 330, 320)

	res := Detect(orbit, ground, 2027, WithLatestYearFallback())
	if !res.Found() {
		t.Fatalf("fallback found nothing, want 2028")
	}
	if *res.Year != 2028 || !res.Implicit {
		t.Fatalf("fallback = (%d, implicit=%v), want (2028, true)", *res.Year, res.Implicit)
	}

	// The fallback never fires when orbit is above ground in the latest year.
	res = Detect(series(2025, 500, 500), series(2025, 100, 100), 2025, WithLatestYearFallback())
	if res.Found() {
		t.Fatalf("fallback = %d, want none", *res.Year)
	}
}

func TestDetectMissingYears(t *testing.T) {
	orbit := []model.Point{{Year: 2025, Value: 500}, {Year: 2027, Value: 300}}
	ground := []model.Point{{Year: 2025, Value: 450}, {Year: 2026, Value: 380}, {Year: 2027, Value: 320}}

	skip := Detect(orbit, ground, 0, WithConfirmYears(1))
	if !skip.Found() || *skip.Year != 2027 {
		t.Fatalf("skip policy = %v, want 2027", skip.Year)
	}
	if len(skip.Comparisons) != 2 {
		t.Fatalf("skip comparisons = %d, want 2", len(skip.Comparisons))
	}

	// Interpolated orbit in 2026 is 400, still above ground 380.
	interp := Detect(orbit, ground, 0, WithMissingYearPolicy(Interpolate), WithConfirmYears(1))
	if len(interp.Comparisons) != 3 {
		t.Fatalf("interpolated comparisons = %d, want 3", len(interp.Comparisons))
	}
	mid := interp.Comparisons[1]
	if mid.Year != 2026 || mid.Orbit != 400 || !mid.Interpolated {
		t.Fatalf("2026 comparison = %+v, want interpolated orbit 400", mid)
	}
	if *interp.Year != 2027 {
		t.Fatalf("interpolate policy = %d, want 2027", *interp.Year)
	}

	// Interpolation picks up a crossover that only exists between samples.
	ground[1].Value = 420
	interp = Detect(orbit, ground, 0, WithMissingYearPolicy(Interpolate), WithConfirmYears(1))
	if *interp.Year != 2026 {
		t.Fatalf("interpolate policy = %d, want 2026", *interp.Year)
	}

	// With the default confirmation the interpolated 2026 starts the run.
	interp = Detect(orbit, ground, 0, WithMissingYearPolicy(Interpolate))
	if !interp.Found() || *interp.Year != 2027 {
		t.Fatalf("interpolate policy (confirmed) = %v, want 2027", interp.Year)
	}
	skip = Detect(orbit, ground, 0)
	if skip.Found() {
		t.Fatalf("skip policy (confirmed) = %d, want none from one compared favourable year", *skip.Year)
	}
}

func TestDetectInterpolateDoesNotExtrapolate(t *testing.T) {
	orbit := series(2026, 100, 90)
	ground := series(2025, 200, 200, 200, 200)

	res := Detect(orbit, ground, 0, WithMissingYearPolicy(Interpolate))
	if len(res.Comparisons) != 2 {
		t.Fatalf("comparisons = %d, want 2 (no extrapolation)", len(res.Comparisons))
	}
	if *res.Year != 2027 {
		t.Fatalf("crossover = %d, want 2027", *res.Year)
	}
}

func TestDetectRequiresConsecutiveYears(t *testing.T) {
	orbit := series(2025, 300, 400, 300, 250)
	ground := series(2025, 350, 350, 350, 350)

	if res := Detect(orbit, ground, 0); !res.Found() || *res.Year != 2028 {
		t.Fatalf("Detect() = %v, want 2028 after the 2025 dip is broken by 2026", res.Year)
	}
	if res := Detect(orbit, ground, 0, WithConfirmYears(1)); !res.Found() || *res.Year != 2025 {
		t.Fatalf("Detect(confirm=1) = %v, want 2025", res.Year)
	}
	if res := Detect(orbit, ground, 0, WithConfirmYears(0)); !res.Found() || *res.Year != 2025 {
		t.Fatalf("Detect(confirm=0) = %v, want 2025 (treated as 1)", res.Year)
	}
	if res := Detect(orbit, ground, 0, WithConfirmYears(3)); res.Found() {
		t.Fatalf("Detect(confirm=3) = %d, want none", *res.Year)
	}

	res := Detect(orbit, ground, 0, WithConfirmYears(3), WithLatestYearFallback())
	if !res.Found() || *res.Year != 2028 || !res.Implicit {
		t.Fatalf("Detect(confirm=3, fallback) = %v implicit=%v, want 2028 implicit", res.Year, res.Implicit)
	}
}

func TestDetectUnconfirmedFinalYear(t *testing.T) {
	orbit := series(2025, 500, 400, 300)
	ground := series(2025, 350, 340, 330)

	if res := Detect(orbit, ground, 0); res.Found() {
		t.Fatalf("Detect() = %d, want none from a single favourable final year", *res.Year)
	}
	res := Detect(orbit, ground, 0, WithLatestYearFallback())
	if !res.Found() || *res.Year != 2027 || !res.Implicit {
		t.Fatalf("Detect(fallback) = %v implicit=%v, want 2027 implicit", res.Year, res.Implicit)
	}
}
