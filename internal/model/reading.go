package model

import (
	"errors"
	"time"
)

// Reading is one metered interval (5 minutes at source).
// Units are kWh for the interval, not kW.
type Reading struct {
	Timestamp      time.Time `json:"timestamp"`
	GridImportKWh  float64   `json:"grid_import_kwh"`
	SolarExportKWh float64   `json:"solar_export_kwh"`
}

func (r Reading) Validate() error {
	if r.Timestamp.IsZero() {
		return errors.New("timestamp is required")
	}
	if r.GridImportKWh < 0 {
		return errors.New("grid_import_kwh must be >= 0")
	}
	if r.SolarExportKWh < 0 {
		return errors.New("solar_export_kwh must be >= 0")
	}
	return nil
}

// ClassifiedReading is a Reading labelled by the interval classifier.
type ClassifiedReading struct {
	Reading
	IsDaytime    bool `json:"is_daytime"`
	InFreeWindow bool `json:"in_free_window"`
}

// DailyRecord is one calendar day of classified readings.
//
// NightImport + DayImport == TotalImport. FreeImport is the part of TotalImport
// that fell inside the free power window (either day or night), and
// PaidNightImport is NightImport minus its free-window share.
type DailyRecord struct {
	Date   time.Time `json:"date"`
	Season Season    `json:"season"`

	TotalImport     float64 `json:"total_import"`
	TotalExport     float64 `json:"total_export"`
	NightImport     float64 `json:"night_import"`
	DayImport       float64 `json:"day_import"`
	FreeImport      float64 `json:"free_import"`
	PaidNightImport float64 `json:"paid_night_import"`

	Readings            int `json:"readings"`
	GeneratingIntervals int `json:"generating_intervals"`
}

// DateKey formats the record's date as YYYY-MM-DD.
func (d DailyRecord) DateKey() string {
	return d.Date.Format("2006-01-02")
}
