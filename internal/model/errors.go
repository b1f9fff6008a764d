package model

import "fmt"

// ConfigError is returned before any simulation runs when a parameter is invalid.
type ConfigError struct {
	Param  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Param, e.Reason)
}

func NewConfigError(param, format string, args ...any) *ConfigError {
	return &ConfigError{Param: param, Reason: fmt.Sprintf(format, args...)}
}

// Annotation codes for soft data-quality conditions. They travel alongside
// best-effort results and never replace them.
const (
	CodeInsufficientData = "INSUFFICIENT_DATA"
	CodeNoExportData     = "NO_EXPORT_DATA"
	CodeSeasonFallback   = "SEASON_FALLBACK"
)

type Annotation struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
