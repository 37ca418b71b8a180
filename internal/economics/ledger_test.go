package economics

import (
	"testing"

	"github.com/shopspring/decimal"

	"github.com/signalsfoundry/orbital-fleet-economics/model"
)

func ledgerEntry(year int, ground, orbit, groundShare float64) model.DebugStateEntry {
	orbitShare := 1 - groundShare
	return model.DebugStateEntry{
		Scenario: model.ScenarioBaseline,
		Year:     year,
		Economics: model.Economics{
			Ground:      model.SegmentEconomics{OpexMUSD: model.MillionUSD(ground)},
			Orbit:       model.SegmentEconomics{OpexMUSD: model.MillionUSD(orbit)},
			Mix:         model.SegmentEconomics{OpexMUSD: model.MillionUSD(groundShare*ground + orbitShare*orbit)},
			GroundShare: groundShare,
			OrbitShare:  orbitShare,
		},
	}
}

func TestLedgerAccumulatesInYearOrder(t *testing.T) {
	l := NewLedger([]model.DebugStateEntry{
		// reference 800, mix 640+80: +80
		ledgerEntry(2026, 800, 400, 0.8),
		// reference 500, mix 250+300: -50
		ledgerEntry(2025, 500, 600, 0.5),
		// reference 500, mix 250+50: +200
		ledgerEntry(2027, 500, 100, 0.5),
	})

	lines := l.Lines()
	if len(lines) != 3 || lines[0].Year != 2025 || lines[2].Year != 2027 {
		t.Fatalf("lines = %+v, want 2025..2027", lines)
	}
	wantCumulative := []string{"-50", "30", "230"}
	for i, line := range lines {
		if !line.Cumulative.Equal(decimal.RequireFromString(wantCumulative[i])) {
			t.Fatalf("cumulative[%d] = %s, want %s", i, line.Cumulative, wantCumulative[i])
		}
	}
	if !l.Total().Equal(decimal.NewFromInt(230)) {
		t.Fatalf("Total() = %s, want 230", l.Total())
	}
	if got := l.BreakEvenYear(); got != 2026 {
		t.Fatalf("BreakEvenYear() = %d, want 2026", got)
	}
}

func TestLedgerSavingsIsGroundTimesTotalShareMinusMix(t *testing.T) {
	e := ledgerEntry(2030, 900, 300, 0.75)
	// ground 900 * (0.75+0.25) - mix (675+75)
	l := NewLedger([]model.DebugStateEntry{e})
	if got := l.Lines()[0].Savings; !got.Equal(decimal.NewFromInt(150)) {
		t.Fatalf("savings = %s, want 150", got)
	}

	// An idle orbit segment leaves the mix equal to ground: nothing saved.
	idle := ledgerEntry(2031, 880, 1700, 1)
	l = NewLedger([]model.DebugStateEntry{idle})
	if !l.Total().IsZero() {
		t.Fatalf("idle orbit savings = %s, want 0", l.Total())
	}
}

func TestLedgerNoBreakEven(t *testing.T) {
	l := NewLedger([]model.DebugStateEntry{ledgerEntry(2025, 500, 900, 0.9)})
	if got := l.BreakEvenYear(); got != 0 {
		t.Fatalf("BreakEvenYear() = %d, want 0", got)
	}
	if !l.Total().IsNegative() {
		t.Fatalf("Total() = %s, want negative", l.Total())
	}
}
