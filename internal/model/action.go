package model

// Action is a human-friendly operating mode for a period.
// Keep these values stable; they are intended for CSV output.
type Action string

const (
	ActionCharging    Action = "CHARGING"
	ActionIdle        Action = "IDLE"
	ActionDischarging Action = "DISCHARGING"
)

// ActionFromEnergy reports what the battery mostly did during a period.
// A period that both charges and discharges is labelled by the larger flow.
func ActionFromEnergy(chargedKWh, servedKWh float64) Action {
	switch {
	case chargedKWh <= 0 && servedKWh <= 0:
		return ActionIdle
	case chargedKWh >= servedKWh:
		return ActionCharging
	default:
		return ActionDischarging
	}
}
