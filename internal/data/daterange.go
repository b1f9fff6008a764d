package data

import (
	"time"

	"solar-sizing/internal/model"
)

// SolarStart returns the date of the first reading with any solar export.
// ok is false when the readings never export.
func SolarStart(readings []model.Reading) (time.Time, bool) {
	for _, r := range readings {
		if r.SolarExportKWh > 0 {
			return dateOf(r.Timestamp), true
		}
	}
	return time.Time{}, false
}

// DataEnd returns the date of the last reading. readings must be sorted.
func DataEnd(readings []model.Reading) time.Time {
	if len(readings) == 0 {
		return time.Time{}
	}
	return dateOf(readings[len(readings)-1].Timestamp)
}

// SuggestRange picks an analysis window: the most recent full year when more
// than a year is available, otherwise everything from start to end.
func SuggestRange(start, end time.Time) (time.Time, time.Time) {
	if end.Sub(start) < 365*24*time.Hour {
		return start, end
	}
	from := end.AddDate(-1, 0, 0)
	to := end
	if from.Before(start) {
		from = start
		to = start.AddDate(1, 0, 0)
		if to.After(end) {
			to = end
		}
	}
	return from, to
}

// FilterRange keeps readings whose local date is within [from, to], inclusive.
// A zero bound is open.
func FilterRange(readings []model.Reading, from, to time.Time) []model.Reading {
	fromKey, toKey := "", ""
	if !from.IsZero() {
		fromKey = from.Format("2006-01-02")
	}
	if !to.IsZero() {
		toKey = to.Format("2006-01-02")
	}
	out := make([]model.Reading, 0, len(readings))
	for _, r := range readings {
		k := r.Timestamp.Format("2006-01-02")
		if fromKey != "" && k < fromKey {
			continue
		}
		if toKey != "" && k > toKey {
			continue
		}
		out = append(out, r)
	}
	return out
}

// ParseDate parses a YYYY-MM-DD bound in loc. Empty input gives the zero time.
func ParseDate(s string, loc *time.Location) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	if loc == nil {
		loc = time.UTC
	}
	return time.ParseInLocation("2006-01-02", s, loc)
}

func dateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
