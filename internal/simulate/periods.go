package simulate

import "solar-sizing/internal/model"

// Granularity selects the simulation step.
type Granularity string

const (
	Interval Granularity = "interval"
	Daily    Granularity = "daily"
)

func (g Granularity) Valid() bool {
	return g == Interval || g == Daily
}

// PeriodsFromReadings builds one period per classified reading. Import is
// dischargeable only at night and outside the free power window.
func PeriodsFromReadings(readings []model.ClassifiedReading) []model.Period {
	out := make([]model.Period, len(readings))
	for i, r := range readings {
		p := model.Period{
			Start:     r.Timestamp,
			ImportKWh: r.GridImportKWh,
			ExportKWh: r.SolarExportKWh,
		}
		if !r.IsDaytime && !r.InFreeWindow {
			p.NightImportKWh = r.GridImportKWh
		}
		out[i] = p
	}
	return out
}

// PeriodsFromDaily builds one period per day: the day's export charges the
// battery, then the day's paid night import is served from it.
func PeriodsFromDaily(days []model.DailyRecord) []model.Period {
	out := make([]model.Period, len(days))
	for i, d := range days {
		out[i] = model.Period{
			Start:          d.Date,
			ImportKWh:      d.TotalImport,
			ExportKWh:      d.TotalExport,
			NightImportKWh: d.PaidNightImport,
		}
	}
	return out
}
