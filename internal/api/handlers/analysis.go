package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"sync"
	"time"

	"solar-sizing/internal/api/models"
	"solar-sizing/internal/config"
	"solar-sizing/internal/data"
	"solar-sizing/internal/model"
	"solar-sizing/internal/report"
	"solar-sizing/internal/simulate"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// maxUploadBytes bounds the multipart body. A year of 5-minute OVO rows is ~25 MB.
const maxUploadBytes = 64 << 20

// AnalysisHandler handles analysis requests
type AnalysisHandler struct {
	defaults *config.Config
	cache    *report.Cache

	mu   sync.RWMutex
	runs map[string]*report.Report
}

// NewAnalysisHandler creates a new analysis handler. defaults is the server
// configuration that request overrides are merged onto; cache may be nil.
func NewAnalysisHandler(defaults *config.Config, cache *report.Cache) *AnalysisHandler {
	if defaults == nil {
		defaults = config.Default()
	}
	return &AnalysisHandler{
		defaults: defaults,
		cache:    cache,
		runs:     make(map[string]*report.Report),
	}
}

// RunAnalysis handles POST /api/v1/analysis
func (h *AnalysisHandler) RunAnalysis(c *gin.Context) {
	var req models.AnalysisRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error: models.ErrorDetail{
				Code:    "INVALID_REQUEST",
				Message: err.Error(),
			},
		})
		return
	}

	for i, r := range req.Readings {
		if err := r.Validate(); err != nil {
			c.JSON(http.StatusBadRequest, models.ErrorResponse{
				Error: models.ErrorDetail{
					Code:    "INVALID_DATA",
					Message: err.Error(),
					Details: map[string]interface{}{"index": i},
				},
			})
			return
		}
	}

	cfg, err := config.Overlay(h.defaults, req.Config, json.Unmarshal)
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error: models.ErrorDetail{
				Code:    "INVALID_CONFIG",
				Message: err.Error(),
			},
		})
		return
	}
	readings := append([]model.Reading(nil), req.Readings...)
	data.SortReadings(readings)

	from, to, err := parseRange(req.StartDate, req.EndDate, cfg)
	if err != nil {
		badRange(c, err)
		return
	}
	if !from.IsZero() || !to.IsZero() {
		readings = data.FilterRange(readings, from, to)
	}

	source := req.Source
	if source == "" {
		source = "request"
	}
	h.respond(c, model.Series{Source: source, Readings: readings}, cfg)
}

// UploadCSV handles POST /api/v1/analysis/upload
func (h *AnalysisHandler) UploadCSV(c *gin.Context) {
	var opts models.UploadOptions
	if err := c.ShouldBindQuery(&opts); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error: models.ErrorDetail{
				Code:    "INVALID_REQUEST",
				Message: err.Error(),
			},
		})
		return
	}

	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxUploadBytes)
	fh, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error: models.ErrorDetail{
				Code:    "INVALID_REQUEST",
				Message: "multipart field \"file\" is required",
			},
		})
		return
	}

	override := &config.Config{
		Timezone: opts.Timezone,
		FreeWindow: config.FreeWindowConfig{
			Enabled: opts.FreeWindowEnabled,
			Start:   opts.FreeWindowStart,
			End:     opts.FreeWindowEnd,
		},
	}
	cfg := config.Merge(h.defaults, override)
	if err := cfg.Validate(); err != nil {
		configError(c, err)
		return
	}

	f, err := fh.Open()
	if err != nil {
		log.Printf("AnalysisHandler: Failed to open upload %s: %v", fh.Filename, err)
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error: models.ErrorDetail{
				Code:    "INVALID_REQUEST",
				Message: err.Error(),
			},
		})
		return
	}
	defer f.Close()

	readings, err := data.ParseOVOCSV(f, cfg.Location())
	if err != nil {
		log.Printf("AnalysisHandler: Failed to parse upload %s: %v", fh.Filename, err)
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error: models.ErrorDetail{
				Code:    "INVALID_DATA",
				Message: err.Error(),
			},
		})
		return
	}
	log.Printf("AnalysisHandler: Parsed %d readings from %s", len(readings), fh.Filename)

	from, to, err := parseRange(opts.StartDate, opts.EndDate, cfg)
	if err != nil {
		badRange(c, err)
		return
	}
	if from.IsZero() && to.IsZero() && opts.AutoRange {
		if start, ok := data.SolarStart(readings); ok {
			from, to = data.SuggestRange(start, data.DataEnd(readings))
			log.Printf("AnalysisHandler: Suggested range %s to %s", from.Format("2006-01-02"), to.Format("2006-01-02"))
		}
	}
	if !from.IsZero() || !to.IsZero() {
		readings = data.FilterRange(readings, from, to)
	}

	h.respond(c, model.Series{Source: fh.Filename, Readings: readings}, cfg)
}

// GetAnalysis handles GET /api/v1/analysis/:id
func (h *AnalysisHandler) GetAnalysis(c *gin.Context) {
	id := c.Param("id")
	rep, ok := h.lookup(id)
	if !ok {
		notFound(c, id)
		return
	}
	c.JSON(http.StatusOK, models.AnalysisResponse{ID: id, Status: "completed", Cached: true, Report: rep})
}

// GetLedger handles GET /api/v1/analysis/:id/ledger?capacity_kwh=16
// and streams the per-interval ledger of one simulated capacity as CSV.
func (h *AnalysisHandler) GetLedger(c *gin.Context) {
	id := c.Param("id")
	rep, ok := h.lookup(id)
	if !ok {
		notFound(c, id)
		return
	}
	if len(rep.Simulations) == 0 {
		notFound(c, id)
		return
	}

	sim := rep.Simulations[0]
	if raw := c.Query("capacity_kwh"); raw != "" {
		kwh, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, models.ErrorResponse{
				Error: models.ErrorDetail{
					Code:    "INVALID_REQUEST",
					Message: fmt.Sprintf("capacity_kwh: %v", err),
				},
			})
			return
		}
		found := false
		for _, s := range rep.Simulations {
			if s.CapacityKWh == kwh {
				sim, found = s, true
				break
			}
		}
		if !found {
			notFound(c, fmt.Sprintf("%s/%v", id, kwh))
			return
		}
	}

	c.Header("Content-Type", "text/csv")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=ledger_%vkwh.csv", sim.CapacityKWh))
	if err := simulate.EncodeLedgerCSV(c.Writer, sim.Result.Ledger); err != nil {
		log.Printf("AnalysisHandler: Failed to write ledger for %s: %v", id, err)
	}
}

func (h *AnalysisHandler) respond(c *gin.Context, series model.Series, cfg *config.Config) {
	key := report.CacheKey(series.Fingerprint(), cfg.Hash())
	rep, hit, err := h.cache.GetOrCompute(key, func() (*report.Report, error) {
		return report.Analyze(series, cfg)
	})
	if err != nil {
		var cfgErr *model.ConfigError
		if errors.As(err, &cfgErr) {
			configError(c, err)
			return
		}
		log.Printf("AnalysisHandler: Analysis failed for %s: %v", series.Source, err)
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error: models.ErrorDetail{
				Code:    "ANALYSIS_ERROR",
				Message: err.Error(),
			},
		})
		return
	}

	id := uuid.NewString()
	h.mu.Lock()
	h.runs[id] = rep
	h.mu.Unlock()

	log.Printf("AnalysisHandler: Run %s source=%s days=%d cached=%v", id, series.Source, rep.Days, hit)
	c.JSON(http.StatusOK, models.AnalysisResponse{
		ID:     id,
		Status: "completed",
		Cached: hit,
		Report: rep,
	})
}

func (h *AnalysisHandler) lookup(id string) (*report.Report, bool) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, false
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	rep, ok := h.runs[id]
	return rep, ok
}

// parseRange reads optional inclusive YYYY-MM-DD bounds in the configured zone.
func parseRange(start, end string, cfg *config.Config) (time.Time, time.Time, error) {
	from, err := data.ParseDate(start, cfg.Location())
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	to, err := data.ParseDate(end, cfg.Location())
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	if !from.IsZero() && !to.IsZero() && to.Before(from) {
		return time.Time{}, time.Time{}, fmt.Errorf("end_date %s is before start_date %s", end, start)
	}
	return from, to, nil
}

func configError(c *gin.Context, err error) {
	detail := models.ErrorDetail{Code: "INVALID_CONFIG", Message: err.Error()}
	var cfgErr *model.ConfigError
	if errors.As(err, &cfgErr) {
		detail.Details = map[string]interface{}{"param": cfgErr.Param}
	}
	c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: detail})
}

func badRange(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, models.ErrorResponse{
		Error: models.ErrorDetail{
			Code:    "INVALID_REQUEST",
			Message: fmt.Sprintf("date range: %v", err),
		},
	})
}

func notFound(c *gin.Context, id string) {
	c.JSON(http.StatusNotFound, models.ErrorResponse{
		Error: models.ErrorDetail{
			Code:    "NOT_FOUND",
			Message: fmt.Sprintf("no analysis %q", id),
		},
	})
}
