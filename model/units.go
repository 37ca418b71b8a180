package model

import (
	"encoding/json"
	"math"
)

// Physical quantities carry their unit in the type name. Conversions between
// related units are explicit methods; there is no implicit scaling anywhere.

// Kilowatts is electrical or thermal power in kW.
type Kilowatts float64

// Megawatts is electrical or thermal power in MW.
type Megawatts float64

// Megawatts converts kW to MW.
func (k Kilowatts) Megawatts() Megawatts { return Megawatts(float64(k) / 1000) }

// Kilowatts converts MW to kW.
func (m Megawatts) Kilowatts() Kilowatts { return Kilowatts(float64(m) * 1000) }

// PetaFLOPS is sustained compute throughput in PFLOP/s.
type PetaFLOPS float64

// Kilograms is a mass in kg.
type Kilograms float64

// Tonnes converts kg to metric tonnes.
func (k Kilograms) Tonnes() float64 { return float64(k) / 1000 }

// Gbps is network throughput in gigabits per second.
type Gbps float64

// Milliseconds is a latency in ms.
type Milliseconds float64

// MillionUSD is a monetary amount in millions of US dollars.
type MillionUSD float64

// TonnesCO2 is an emitted carbon mass in metric tonnes of CO2.
type TonnesCO2 float64

// USDPerPFLOPS is the annual cost in USD of one PFLOP/s of assigned compute.
type USDPerPFLOPS float64

// CO2PerPFLOPS is the annual carbon intensity in tonnes CO2 per PFLOP/s-year.
type CO2PerPFLOPS float64

// Unit costs and intensities are unbounded when a segment has no assigned
// compute. JSON has no infinity, so non-finite values travel as null.

func (v USDPerPFLOPS) MarshalJSON() ([]byte, error) { return marshalFinite(float64(v)) }

func (v *USDPerPFLOPS) UnmarshalJSON(b []byte) error {
	f, err := unmarshalFinite(b)
	*v = USDPerPFLOPS(f)
	return err
}

func (v CO2PerPFLOPS) MarshalJSON() ([]byte, error) { return marshalFinite(float64(v)) }

func (v *CO2PerPFLOPS) UnmarshalJSON(b []byte) error {
	f, err := unmarshalFinite(b)
	*v = CO2PerPFLOPS(f)
	return err
}

func marshalFinite(f float64) ([]byte, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return []byte("null"), nil
	}
	return json.Marshal(f)
}

func unmarshalFinite(b []byte) (float64, error) {
	if string(b) == "null" {
		return math.Inf(1), nil
	}
	var f float64
	err := json.Unmarshal(b, &f)
	return f, err
}
