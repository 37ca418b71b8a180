package economics

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/signalsfoundry/orbital-fleet-economics/model"
)

// LedgerLine is one year of the savings ledger.
type LedgerLine struct {
	Year       int
	Savings    decimal.Decimal
	Cumulative decimal.Decimal
}

// Ledger accumulates the yearly opex saved by the hybrid mix relative to
// serving the same assigned share from the ground. Amounts are in million
// USD, rounded to whole dollars so long runs do not drift.
type Ledger struct {
	lines []LedgerLine
	total decimal.Decimal
}

// NewLedger builds a ledger from entries in any order.
func NewLedger(entries []model.DebugStateEntry) *Ledger {
	sorted := append([]model.DebugStateEntry(nil), entries...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Year < sorted[j].Year })

	l := &Ledger{}
	for _, e := range sorted {
		l.Add(e)
	}
	return l
}

// Add appends an entry's savings: ground opex times the total assigned share
// minus the mix opex.
func (l *Ledger) Add(e model.DebugStateEntry) {
	econ := e.Economics
	totalShare := decimal.NewFromFloat(econ.GroundShare).Add(decimal.NewFromFloat(econ.OrbitShare))
	reference := decimal.NewFromFloat(float64(econ.Ground.OpexMUSD)).Mul(totalShare)
	savings := reference.Sub(decimal.NewFromFloat(float64(econ.Mix.OpexMUSD))).Round(6)

	l.total = l.total.Add(savings)
	l.lines = append(l.lines, LedgerLine{Year: e.Year, Savings: savings, Cumulative: l.total})
}

// Lines returns the ledger lines in insertion order.
func (l *Ledger) Lines() []LedgerLine {
	return append([]LedgerLine(nil), l.lines...)
}

// Total is the cumulative savings across all lines.
func (l *Ledger) Total() decimal.Decimal { return l.total }

// BreakEvenYear is the first year cumulative savings turn non-negative after
// having been negative, or 0 when that never happens.
func (l *Ledger) BreakEvenYear() int {
	negative := false
	for _, line := range l.lines {
		if line.Cumulative.IsNegative() {
			negative = true
			continue
		}
		if negative {
			return line.Year
		}
	}
	return 0
}
