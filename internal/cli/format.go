package cli

import (
	"fmt"
	"io"
	"math"
	"strings"
	"text/tabwriter"

	"github.com/fatih/color"

	"github.com/signalsfoundry/orbital-fleet-economics/internal/economics"
	"github.com/signalsfoundry/orbital-fleet-economics/internal/sim/state"
	"github.com/signalsfoundry/orbital-fleet-economics/model"
)

var (
	headerColor = color.New(color.Bold)
	greenColor  = color.New(color.FgGreen)
	yellowColor = color.New(color.FgYellow)
	redColor    = color.New(color.FgRed)
	dimColor    = color.New(color.FgHiBlack)
)

func bottleneckColor(level model.BottleneckLevel) *color.Color {
	switch level {
	case model.BottleneckRed:
		return redColor
	case model.BottleneckYellow:
		return yellowColor
	default:
		return greenColor
	}
}

// utilization renders a ratio as a percentage coloured by bottleneck level.
func utilization(u float64) string {
	return bottleneckColor(model.ClassifyBottleneck(u)).Sprintf("%.0f%%", u*100)
}

func constraint(e model.DebugStateEntry) string {
	if e.DominantConstraint == model.ConstraintNone || e.DominantConstraint == "" {
		return dimColor.Sprint(string(model.ConstraintNone))
	}
	u := e.Utilization.Of(e.DominantConstraint)
	return bottleneckColor(model.ClassifyBottleneck(u)).Sprint(string(e.DominantConstraint))
}

func number(v float64, format string) string {
	if math.IsInf(v, 0) || math.IsNaN(v) {
		return "-"
	}
	return fmt.Sprintf(format, v)
}

func newTable(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
}

func printHeader(tw *tabwriter.Writer, cols ...string) {
	fmt.Fprintln(tw, headerColor.Sprint(strings.Join(cols, "\t")))
}

// printEntries writes the per-year table of one scenario, with the
// cumulative savings column fed by the ledger.
func printEntries(w io.Writer, key model.ScenarioKey, entries []model.DebugStateEntry) *economics.Ledger {
	fmt.Fprintf(w, "\n%s\n", headerColor.Sprintf("Scenario %s", key))

	ledger := economics.NewLedger(entries)
	lines := ledger.Lines()

	tw := newTable(w)
	printHeader(tw, "YEAR", "DOMINANT", "LAUNCH", "HEAT", "BACKHAUL", "AUTONOMY",
		"FLEET", "GROUND $/PF", "ORBIT $/PF", "MIX $/PF", "SAVINGS (M$)")
	for i, e := range entries {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\t%.1f\t%s\t%s\t%s\t%s\n",
			e.Year,
			constraint(e),
			utilization(e.Utilization.Launch),
			utilization(e.Utilization.Heat),
			utilization(e.Utilization.Backhaul),
			utilization(e.Utilization.Autonomy),
			e.Fleet.FleetUnits,
			number(float64(e.Economics.Ground.CostPerCompute), "%.0f"),
			number(float64(e.Economics.Orbit.CostPerCompute), "%.0f"),
			number(float64(e.Economics.Mix.CostPerCompute), "%.0f"),
			lines[i].Cumulative.StringFixed(1),
		)
	}
	tw.Flush()
	return ledger
}

func printStages(w io.Writer, e model.DebugStateEntry) {
	fmt.Fprintf(w, "\n%s\n", headerColor.Sprintf("Factory stages %s/%d", e.Scenario, e.Year))
	tw := newTable(w)
	printHeader(tw, "STAGE", "TIER", "BASE", "EFFECTIVE", "UTILIZATION", "BOTTLENECK")
	for _, s := range e.Stages {
		fmt.Fprintf(tw, "%s\t%d\t%.1f\t%.1f\t%.2f\t%s\n",
			s.ID, s.Tier, s.BaseThroughput, s.EffectiveThroughput, s.Utilization,
			bottleneckColor(s.Bottleneck).Sprint(string(s.Bottleneck)))
	}
	tw.Flush()
}

func printSummary(w io.Writer, ledger *economics.Ledger, warnings []state.Warning) {
	fmt.Fprintf(w, "cumulative savings: %s M$", ledger.Total().StringFixed(2))
	if year := ledger.BreakEvenYear(); year != 0 {
		fmt.Fprintf(w, " (break-even %d)", year)
	}
	fmt.Fprintln(w)
	printWarnings(w, warnings)
}

func printWarnings(w io.Writer, warnings []state.Warning) {
	if len(warnings) == 0 {
		fmt.Fprintln(w, greenColor.Sprint("no validation warnings"))
		return
	}
	fmt.Fprintf(w, "%d validation warning(s):\n", len(warnings))
	for _, warn := range warnings {
		c := yellowColor
		if warn.Severity == state.SeverityInvariant {
			c = redColor
		}
		fmt.Fprintf(w, "  %s %s\n", c.Sprintf("[%s]", warn.Severity), warn)
	}
}
