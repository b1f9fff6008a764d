package models

import (
	"solar-sizing/internal/report"
	"solar-sizing/internal/sizing"
)

// AnalysisResponse wraps a report with its run id
type AnalysisResponse struct {
	ID     string         `json:"id"`
	Status string         `json:"status"`
	Cached bool           `json:"cached"`
	Report *report.Report `json:"report"`
}

// BatteryInfo describes one candidate capacity
type BatteryInfo struct {
	CapacityKWh   float64 `json:"capacity_kwh"`
	UsableKWh     float64 `json:"usable_kwh"`
	EstimatedCost float64 `json:"estimated_cost"`
}

// TiersResponse lists the configured recommendation tiers
type TiersResponse struct {
	Tiers            []sizing.Tier `json:"tiers"`
	MinConfidentDays int           `json:"min_confident_days"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail contains error information
type ErrorDetail struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}
