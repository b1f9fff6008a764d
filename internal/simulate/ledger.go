package simulate

import (
	"time"

	"solar-sizing/internal/model"
)

// LedgerRow is one row of per-period output.
// This is the primary artifact for "what happened" in a simulation.
type LedgerRow struct {
	Index int
	Start time.Time

	Action model.Action

	ImportKWh      float64
	ExportKWh      float64
	NightImportKWh float64

	ChargedKWh float64
	ServedKWh  float64

	SimulatedImportKWh float64
	SimulatedExportKWh float64

	SOCStart float64
	SOCEnd   float64
}

// DailyRow rolls ledger rows up to one calendar day.
type DailyRow struct {
	Date   time.Time
	Season model.Season

	NightImportKWh          float64
	SimulatedNightImportKWh float64
	SimulatedImportKWh      float64
	SimulatedExportKWh      float64

	ChargedKWh float64
	ServedKWh  float64

	SOCEndOfDay float64
}

// Stats are the whole-run totals and ratios.
type Stats struct {
	Periods int
	Days    int

	TotalImportKWh     float64
	TotalExportKWh     float64
	NightImportKWh     float64
	SimulatedImportKWh float64
	SimulatedExportKWh float64

	ChargedKWh float64
	ServedKWh  float64
	// SelfConsumedKWh is battery energy delivered to the home (equals ServedKWh).
	SelfConsumedKWh float64

	GridReductionPct   float64
	ExportReductionPct float64
	NightCoveragePct   float64

	EquivalentCycles float64
	FinalSOC         float64

	MeanSOCBySeason map[model.Season]float64
}

type Result struct {
	Params model.BatteryParams
	Ledger []LedgerRow
	Daily  []DailyRow
	Stats  Stats
}
