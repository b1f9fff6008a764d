package analysis

import (
	"math"
	"sort"

	"solar-sizing/internal/model"
)

// UsageSummary holds whole-range import/export totals.
type UsageSummary struct {
	Days int `json:"days"`

	SunlightImport     float64 `json:"sunlight_import"`
	NightImport        float64 `json:"night_import"`
	TotalImport        float64 `json:"total_import"`
	FreeWindowImport   float64 `json:"free_window_import"`
	PaidSunlightImport float64 `json:"paid_sunlight_import"`
	TotalExport        float64 `json:"total_export"`

	AvgDailyImport float64 `json:"avg_daily_import"`
	AvgDailyExport float64 `json:"avg_daily_export"`

	SunlightPct   float64 `json:"sunlight_pct"`
	NightPct      float64 `json:"night_pct"`
	FreeWindowPct float64 `json:"free_window_pct"`
}

func Summarise(days []model.DailyRecord) UsageSummary {
	s := UsageSummary{Days: len(days)}
	freeNight := 0.0
	for _, d := range days {
		s.SunlightImport += d.DayImport
		s.NightImport += d.NightImport
		s.TotalImport += d.TotalImport
		s.FreeWindowImport += d.FreeImport
		s.TotalExport += d.TotalExport
		freeNight += d.NightImport - d.PaidNightImport
	}
	s.PaidSunlightImport = math.Max(0, s.SunlightImport-(s.FreeWindowImport-freeNight))
	if s.Days > 0 {
		s.AvgDailyImport = s.TotalImport / float64(s.Days)
		s.AvgDailyExport = s.TotalExport / float64(s.Days)
	}
	if s.TotalImport > 0 {
		s.SunlightPct = 100 * s.SunlightImport / s.TotalImport
		s.NightPct = 100 * s.NightImport / s.TotalImport
		s.FreeWindowPct = 100 * s.FreeWindowImport / s.TotalImport
	}
	return s
}

// SeasonStats describes paid night import and export for one season.
type SeasonStats struct {
	Days            int     `json:"days"`
	MeanNightImport float64 `json:"mean_night_import"`
	P90NightImport  float64 `json:"p90_night_import"`
	P99NightImport  float64 `json:"p99_night_import"`
	MeanExport      float64 `json:"mean_export"`
}

// NightStats describes the distribution of paid night import per day.
type NightStats struct {
	Mean   float64 `json:"mean"`
	Median float64 `json:"median"`
	P75    float64 `json:"p75"`
	P90    float64 `json:"p90"`
	Max    float64 `json:"max"`

	AvgDailyExport    float64 `json:"avg_daily_export"`
	MedianDailyExport float64 `json:"median_daily_export"`

	// AvgPotentialStorage is the mean of min(export, night import) per day:
	// what an unbounded battery could shift.
	AvgPotentialStorage float64 `json:"avg_potential_storage"`

	BySeason map[model.Season]SeasonStats `json:"by_season"`
}

func ComputeNightStats(days []model.DailyRecord) NightStats {
	ns := NightStats{BySeason: map[model.Season]SeasonStats{}}
	if len(days) == 0 {
		return ns
	}
	nights := make([]float64, 0, len(days))
	exports := make([]float64, 0, len(days))
	potential := make([]float64, 0, len(days))
	maxv := math.Inf(-1)
	for _, d := range days {
		nights = append(nights, d.PaidNightImport)
		exports = append(exports, d.TotalExport)
		potential = append(potential, math.Min(d.TotalExport, d.PaidNightImport))
		if d.PaidNightImport > maxv {
			maxv = d.PaidNightImport
		}
	}
	sort.Float64s(nights)
	ns.Mean = mean(nights)
	ns.Median = percentileSorted(nights, 0.5)
	ns.P75 = percentileSorted(nights, 0.75)
	ns.P90 = percentileSorted(nights, 0.90)
	ns.Max = maxv
	ns.AvgDailyExport = mean(exports)
	ns.MedianDailyExport = Percentile(exports, 50)
	ns.AvgPotentialStorage = mean(potential)

	for _, s := range model.Seasons {
		sd := FilterSeason(days, s)
		if len(sd) == 0 {
			continue
		}
		n := NightImports(sd)
		e := make([]float64, len(sd))
		for i, d := range sd {
			e[i] = d.TotalExport
		}
		ns.BySeason[s] = SeasonStats{
			Days:            len(sd),
			MeanNightImport: mean(n),
			P90NightImport:  Percentile(n, 90),
			P99NightImport:  Percentile(n, 99),
			MeanExport:      mean(e),
		}
	}
	return ns
}

// NightImports extracts paid night import per day, in input order.
func NightImports(days []model.DailyRecord) []float64 {
	out := make([]float64, len(days))
	for i, d := range days {
		out[i] = d.PaidNightImport
	}
	return out
}

// HourlyProfile is the mean per-interval import and export for each hour of day.
type HourlyProfile struct {
	Hours  []int     `json:"hours"`
	Import []float64 `json:"import"`
	Export []float64 `json:"export"`
}

func ComputeHourlyProfile(readings []model.ClassifiedReading) HourlyProfile {
	var sumImp, sumExp [24]float64
	var count [24]int
	for _, r := range readings {
		h := r.Timestamp.Hour()
		sumImp[h] += r.GridImportKWh
		sumExp[h] += r.SolarExportKWh
		count[h]++
	}
	p := HourlyProfile{
		Hours:  make([]int, 24),
		Import: make([]float64, 24),
		Export: make([]float64, 24),
	}
	for h := 0; h < 24; h++ {
		p.Hours[h] = h
		if count[h] > 0 {
			p.Import[h] = sumImp[h] / float64(count[h])
			p.Export[h] = sumExp[h] / float64(count[h])
		}
	}
	return p
}

// MonthTotals is one YYYY-MM row of sunlight import, night import and export.
type MonthTotals struct {
	Month          string  `json:"month"`
	SunlightImport float64 `json:"sunlight_import"`
	NightImport    float64 `json:"night_import"`
	Export         float64 `json:"export"`
}

func ComputeMonthlyTotals(days []model.DailyRecord) []MonthTotals {
	idx := map[string]int{}
	var out []MonthTotals
	for _, d := range days {
		key := d.Date.Format("2006-01")
		i, ok := idx[key]
		if !ok {
			i = len(out)
			idx[key] = i
			out = append(out, MonthTotals{Month: key})
		}
		out[i].SunlightImport += d.DayImport
		out[i].NightImport += d.NightImport
		out[i].Export += d.TotalExport
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Month < out[j].Month })
	return out
}

// DefaultTrendWindowDays is the rolling window for Trends.
const DefaultTrendWindowDays = 7

// Trends holds rolling means of daily sunlight import, night import and export.
// Dates[i] is the last day of the i-th window.
type Trends struct {
	Window   int       `json:"window_days"`
	Dates    []string  `json:"dates"`
	Sunlight []float64 `json:"sunlight"`
	Night    []float64 `json:"night"`
	Export   []float64 `json:"export"`
}

// ComputeTrends averages over each run of window consecutive daily records.
// Days without readings are not synthesised, so a window spans records, not
// calendar days. Fewer records than window gives empty series.
func ComputeTrends(days []model.DailyRecord, window int) Trends {
	t := Trends{
		Window:   window,
		Dates:    []string{},
		Sunlight: []float64{},
		Night:    []float64{},
		Export:   []float64{},
	}
	if window <= 0 || len(days) < window {
		return t
	}
	var sun, night, exp float64
	for i, d := range days {
		sun += d.DayImport
		night += d.NightImport
		exp += d.TotalExport
		if i >= window {
			old := days[i-window]
			sun -= old.DayImport
			night -= old.NightImport
			exp -= old.TotalExport
		}
		if i < window-1 {
			continue
		}
		n := float64(window)
		t.Dates = append(t.Dates, d.DateKey())
		t.Sunlight = append(t.Sunlight, sun/n)
		t.Night = append(t.Night, night/n)
		t.Export = append(t.Export, exp/n)
	}
	return t
}
