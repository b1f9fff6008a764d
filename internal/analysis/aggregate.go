package analysis

import (
	"sort"
	"time"

	"solar-sizing/internal/model"
)

type dayKey struct {
	y int
	m time.Month
	d int
}

// Aggregate reduces classified readings to one DailyRecord per calendar date.
//
// Dates are taken from each timestamp in its own location, so a reading stamped
// 00:00:00 belongs to the day it names. Only readings that exist are summed;
// missing intervals are not filled. Output is ascending with no duplicates.
func Aggregate(readings []model.ClassifiedReading) []model.DailyRecord {
	byDay := make(map[dayKey]*model.DailyRecord)
	for _, r := range readings {
		ts := r.Timestamp
		y, m, d := ts.Date()
		k := dayKey{y, m, d}
		rec, ok := byDay[k]
		if !ok {
			rec = &model.DailyRecord{
				Date:   time.Date(y, m, d, 0, 0, 0, 0, ts.Location()),
				Season: model.SeasonOf(m),
			}
			byDay[k] = rec
		}

		imp := r.GridImportKWh
		rec.TotalImport += imp
		rec.TotalExport += r.SolarExportKWh
		rec.Readings++
		if r.IsDaytime {
			rec.DayImport += imp
			rec.GeneratingIntervals++
		} else {
			rec.NightImport += imp
			if !r.InFreeWindow {
				rec.PaidNightImport += imp
			}
		}
		if r.InFreeWindow {
			rec.FreeImport += imp
		}
	}

	out := make([]model.DailyRecord, 0, len(byDay))
	for _, rec := range byDay {
		out = append(out, *rec)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Date.Before(out[j].Date)
	})
	return out
}

// HasExport reports whether any day carries positive solar export.
func HasExport(days []model.DailyRecord) bool {
	for _, d := range days {
		if d.TotalExport > 0 {
			return true
		}
	}
	return false
}

// FilterSeason returns the days whose season is selected by s.
func FilterSeason(days []model.DailyRecord, s model.Season) []model.DailyRecord {
	out := make([]model.DailyRecord, 0, len(days))
	for _, d := range days {
		if s.Contains(d.Season) {
			out = append(out, d)
		}
	}
	return out
}
