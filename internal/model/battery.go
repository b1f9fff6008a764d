package model

import (
	"math"
)

// BatteryParams defines one candidate battery for a simulation run.
// Units:
// - CapacityKWh: nameplate kWh
// - UsableFraction: 0..1 share of nameplate that may be cycled
// - RoundTripEfficiency: 0..1 share of stored energy recovered on discharge
type BatteryParams struct {
	CapacityKWh         float64 `json:"capacity_kwh"`
	UsableFraction      float64 `json:"usable_fraction"`
	RoundTripEfficiency float64 `json:"round_trip_efficiency"`
}

// BatteryState captures the carried-over state between periods.
type BatteryState struct {
	// SOCKWh is stored energy in [0, UsableKWh].
	SOCKWh float64
}

func (p BatteryParams) UsableKWh() float64 {
	return p.CapacityKWh * p.UsableFraction
}

func (p BatteryParams) Validate() error {
	if p.CapacityKWh <= 0 || math.IsNaN(p.CapacityKWh) || math.IsInf(p.CapacityKWh, 0) {
		return NewConfigError("capacity_kwh", "must be > 0, got %v", p.CapacityKWh)
	}
	if !(p.UsableFraction > 0 && p.UsableFraction <= 1) {
		return NewConfigError("usable_fraction", "must be in (0, 1], got %v", p.UsableFraction)
	}
	if !(p.RoundTripEfficiency > 0 && p.RoundTripEfficiency <= 1) {
		return NewConfigError("round_trip_efficiency", "must be in (0, 1], got %v", p.RoundTripEfficiency)
	}
	return nil
}

// Dispatch is the energy a strategy asks the battery to move in one period.
// Both fields are non-negative requests; the battery clips them.
type Dispatch struct {
	ChargeKWh    float64
	DischargeKWh float64
}

// PeriodResult captures what happened in one period.
type PeriodResult struct {
	ChargedKWh float64 // export absorbed into the battery
	ServedKWh  float64 // import delivered from the battery to the home
	DrawnKWh   float64 // stored energy removed to deliver ServedKWh (ServedKWh / efficiency)
	SOCStart   float64
	SOCEnd     float64
}

// Apply is the per-period transition. It does not mutate anything: the new
// state is returned so callers can fold it over an ordered period sequence.
//
// Charging runs first and is bounded by headroom. Discharging is bounded by the
// energy the stored charge can deliver after efficiency loss; the loss is taken
// once here, on the discharge event.
func (p BatteryParams) Apply(s BatteryState, d Dispatch) (BatteryState, PeriodResult) {
	usable := p.UsableKWh()
	soc := clamp(s.SOCKWh, 0, usable)
	res := PeriodResult{SOCStart: soc}

	if d.ChargeKWh > 0 {
		headroom := usable - soc
		if headroom > 0 {
			res.ChargedKWh = math.Min(d.ChargeKWh, headroom)
			soc = clamp(soc+res.ChargedKWh, 0, usable)
		}
	}

	if d.DischargeKWh > 0 && soc > 0 {
		deliverable := soc * p.RoundTripEfficiency
		res.ServedKWh = math.Min(d.DischargeKWh, deliverable)
		res.DrawnKWh = res.ServedKWh / p.RoundTripEfficiency
		soc = clamp(soc-res.DrawnKWh, 0, usable)
	}

	res.SOCEnd = soc
	return BatteryState{SOCKWh: soc}, res
}

func clamp(x, lo, hi float64) float64 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}
