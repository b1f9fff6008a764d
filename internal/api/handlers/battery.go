package handlers

import (
	"log"
	"net/http"
	"sort"

	"solar-sizing/internal/api/models"
	"solar-sizing/internal/config"
	"solar-sizing/internal/report"
	"solar-sizing/internal/sizing"

	"github.com/gin-gonic/gin"
)

// BatteryHandler handles battery-related requests
type BatteryHandler struct {
	cfg *config.Config
}

// NewBatteryHandler creates a new battery handler
func NewBatteryHandler(cfg *config.Config) *BatteryHandler {
	if cfg == nil {
		cfg = config.Default()
	}
	return &BatteryHandler{cfg: cfg}
}

// ListBatteries handles GET /api/v1/batteries
func (h *BatteryHandler) ListBatteries(c *gin.Context) {
	capacities := append([]float64(nil), h.cfg.Battery.CandidatesKWh...)
	sort.Float64s(capacities)

	batteries := make([]models.BatteryInfo, 0, len(capacities))
	for _, kwh := range capacities {
		batteries = append(batteries, models.BatteryInfo{
			CapacityKWh:   kwh,
			UsableKWh:     report.KWh(h.cfg.BatteryParams(kwh).UsableKWh()),
			EstimatedCost: sizing.InstalledCost(kwh, h.cfg.Tariffs.CostPerKWh).InexactFloat64(),
		})
	}

	log.Printf("BatteryHandler: Returning %d batteries", len(batteries))
	c.JSON(http.StatusOK, gin.H{"batteries": batteries})
}

// ListTiers handles GET /api/v1/tiers
func (h *BatteryHandler) ListTiers(c *gin.Context) {
	c.JSON(http.StatusOK, models.TiersResponse{
		Tiers:            h.cfg.Tiers,
		MinConfidentDays: h.cfg.MinConfidentDays,
	})
}
