package models

import (
	"encoding/json"

	"solar-sizing/internal/model"
)

// AnalysisRequest represents the request body for running an analysis
type AnalysisRequest struct {
	Source    string          `json:"source,omitempty"`
	Readings  []model.Reading `json:"readings" binding:"required"`
	StartDate string          `json:"start_date,omitempty"` // YYYY-MM-DD, inclusive
	EndDate   string          `json:"end_date,omitempty"`   // YYYY-MM-DD, inclusive
	// Config overrides the server defaults key by key, in the config file's
	// shape. Explicit zeros are applied.
	Config json.RawMessage `json:"config,omitempty"`
}

// UploadOptions are the query parameters accepted with a CSV upload
type UploadOptions struct {
	StartDate         string `form:"start_date"`
	EndDate           string `form:"end_date"`
	Timezone          string `form:"timezone"`
	FreeWindowEnabled *bool  `form:"free_window_enabled"`
	FreeWindowStart   string `form:"free_window_start"`
	FreeWindowEnd     string `form:"free_window_end"`
	// AutoRange picks the most recent full year after the first solar export
	// when no explicit dates are given.
	AutoRange bool `form:"auto_range"`
}
