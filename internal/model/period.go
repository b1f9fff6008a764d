package model

import "time"

// Period is one simulation step: a single interval or a whole day,
// depending on the chosen granularity.
type Period struct {
	Start time.Time

	ImportKWh float64
	ExportKWh float64

	// NightImportKWh is the share of ImportKWh the battery may serve:
	// night-time import outside the free power window.
	NightImportKWh float64
}
