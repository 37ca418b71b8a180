package state

import (
	"fmt"
	"math"

	"github.com/signalsfoundry/orbital-fleet-economics/model"
)

// WarningKind classifies a validation warning.
type WarningKind string

const (
	WarnUtilizationRange       WarningKind = "utilization_out_of_range"
	WarnComputeExceedsRaw      WarningKind = "compute_effective_exceeds_raw"
	WarnPowerExceedsRaw        WarningKind = "power_effective_exceeds_raw"
	WarnExportExceedsEffective WarningKind = "compute_exportable_exceeds_effective"
	WarnNegativeCount          WarningKind = "negative_count"
	WarnMissingDominant        WarningKind = "missing_dominant_constraint"
	WarnMaintenanceNeverBinds  WarningKind = "maintenance_never_binds"
	WarnBackhaulSaturated      WarningKind = "backhaul_saturated"
)

// Severity distinguishes soft warnings from invariant violations. Neither
// stops a run.
type Severity string

const (
	SeveritySoft      Severity = "soft"
	SeverityInvariant Severity = "invariant"
)

// Warning is one non-fatal validation finding.
type Warning struct {
	Scenario model.ScenarioKey `json:"scenario"`
	Year     int               `json:"year"`
	Kind     WarningKind       `json:"kind"`
	Severity Severity          `json:"severity"`
	Message  string            `json:"message"`
}

func (w Warning) String() string {
	return fmt.Sprintf("%s/%d %s: %s", w.Scenario, w.Year, w.Kind, w.Message)
}

// Result collects the warnings raised for one entry.
type Result struct {
	Warnings []Warning
}

// OK reports whether no warnings were raised.
func (r Result) OK() bool { return len(r.Warnings) == 0 }

// Degenerate-pattern thresholds.
const (
	MaintenanceUtilizationMax = 0.30
	MaintenanceMinFleet       = 10.0

	// MaintenanceStreak is the number of consecutive years that must be
	// exceeded before the pattern is reported.
	MaintenanceStreak = 5

	BackhaulPinnedMin     = 0.999
	BackhaulExportMaxFrac = 0.90
	BackhaulMinFleet      = 50.0
	BackhaulStreak        = 20

	tolerance = 1e-9
)

// ValidateEntry checks the per-entry invariants. It never rejects an entry.
func ValidateEntry(e model.DebugStateEntry) Result {
	var r Result
	add := func(kind WarningKind, sev Severity, format string, args ...any) {
		r.Warnings = append(r.Warnings, Warning{
			Scenario: e.Scenario,
			Year:     e.Year,
			Kind:     kind,
			Severity: sev,
			Message:  fmt.Sprintf(format, args...),
		})
	}

	if u := e.Utilization.Overall; u < -tolerance || u > 1+tolerance || math.IsNaN(u) {
		add(WarnUtilizationRange, SeverityInvariant, "overall utilization %.4f outside [0,1]", u)
	}
	if e.Power.ComputeEffectivePFLOPS > e.Power.ComputeRawPFLOPS+tolerance {
		add(WarnComputeExceedsRaw, SeverityInvariant, "effective compute %.3f PFLOPS exceeds raw %.3f",
			e.Power.ComputeEffectivePFLOPS, e.Power.ComputeRawPFLOPS)
	}
	if e.Power.PowerEffectiveMW > e.Power.PowerRawMW+tolerance {
		add(WarnPowerExceedsRaw, SeverityInvariant, "effective power %.3f MW exceeds raw %.3f",
			e.Power.PowerEffectiveMW, e.Power.PowerRawMW)
	}
	if e.Power.ComputeExportablePFLOPS > e.Power.ComputeEffectivePFLOPS+tolerance {
		add(WarnExportExceedsEffective, SeverityInvariant, "exportable compute %.3f PFLOPS exceeds effective %.3f",
			e.Power.ComputeExportablePFLOPS, e.Power.ComputeEffectivePFLOPS)
	}

	counts := []struct {
		name  string
		value float64
	}{
		{"fleetUnits", e.Fleet.FleetUnits},
		{"podsBuilt", e.Fleet.PodsBuilt},
		{"podsHeld", e.Fleet.PodsHeld},
		{"liveUnits", e.Fleet.LiveUnits},
		{"launches", e.Fleet.Launches},
		{"cumulativeLaunches", e.Fleet.CumulativeLaunches},
		{"failures", e.Fleet.Failures},
		{"recoveries", e.Fleet.Recoveries},
	}
	for _, c := range counts {
		if c.value < 0 {
			add(WarnNegativeCount, SeverityInvariant, "%s is negative (%.3f)", c.name, c.value)
		}
	}

	if e.Fleet.FleetUnits > 0 && (e.DominantConstraint == "" || e.DominantConstraint == model.ConstraintNone) {
		add(WarnMissingDominant, SeveritySoft, "fleet of %.1f units has no dominant constraint", e.Fleet.FleetUnits)
	}
	return r
}

// ValidateSeries flags degenerate modelling regimes across consecutive years.
// entries must belong to one scenario; they are assumed sorted by year, and a
// gap in years breaks any streak.
//
// Maintenance never binds: autonomy utilization below 30% while failures and
// recoveries match on a fleet above 10 units, for more than 5 consecutive
// years. Backhaul saturated: backhaul utilization pinned at 1 with exportable
// compute under 90% of raw on a fleet above 50 units, for more than 20
// consecutive years. Each streak is reported once, in the year it first
// exceeds its limit.
func ValidateSeries(entries []model.DebugStateEntry) []Warning {
	var (
		warnings       []Warning
		maintStreak    int
		backhaulStreak int
		prevYear       int
	)
	for i, e := range entries {
		if i > 0 && e.Year != prevYear+1 {
			maintStreak, backhaulStreak = 0, 0
		}
		prevYear = e.Year

		if maintenanceNeverBinds(e) {
			maintStreak++
			if maintStreak == MaintenanceStreak+1 {
				warnings = append(warnings, Warning{
					Scenario: e.Scenario,
					Year:     e.Year,
					Kind:     WarnMaintenanceNeverBinds,
					Severity: SeveritySoft,
					Message: fmt.Sprintf("autonomy utilization below %.0f%% with failures matching recoveries for %d consecutive years",
						MaintenanceUtilizationMax*100, maintStreak),
				})
			}
		} else {
			maintStreak = 0
		}

		if backhaulSaturated(e) {
			backhaulStreak++
			if backhaulStreak == BackhaulStreak+1 {
				warnings = append(warnings, Warning{
					Scenario: e.Scenario,
					Year:     e.Year,
					Kind:     WarnBackhaulSaturated,
					Severity: SeveritySoft,
					Message: fmt.Sprintf("backhaul pinned at capacity with exportable compute below %.0f%% of raw for %d consecutive years",
						BackhaulExportMaxFrac*100, backhaulStreak),
				})
			}
		} else {
			backhaulStreak = 0
		}
	}
	return warnings
}

func maintenanceNeverBinds(e model.DebugStateEntry) bool {
	f, r := e.Fleet.Failures, e.Fleet.Recoveries
	return e.Utilization.Autonomy < MaintenanceUtilizationMax &&
		e.Fleet.FleetUnits > MaintenanceMinFleet &&
		f > 0 &&
		math.Abs(f-r) <= math.Max(1, 0.05*f)
}

func backhaulSaturated(e model.DebugStateEntry) bool {
	raw := float64(e.Power.ComputeRawPFLOPS)
	return e.Utilization.Backhaul >= BackhaulPinnedMin &&
		e.Fleet.FleetUnits > BackhaulMinFleet &&
		raw > 0 &&
		float64(e.Power.ComputeExportablePFLOPS) < BackhaulExportMaxFrac*raw
}
