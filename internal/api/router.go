package api

import (
	"net/http"

	"solar-sizing/internal/api/handlers"
	"solar-sizing/internal/api/middleware"
	"solar-sizing/internal/config"
	"solar-sizing/internal/report"

	"github.com/gin-gonic/gin"
)

// NewRouter wires middleware and routes. cache may be nil to disable memoisation.
func NewRouter(cfg *config.Config, cache *report.Cache) *gin.Engine {
	router := gin.New()

	router.Use(middleware.CORS())
	router.Use(middleware.Logger())
	router.Use(middleware.ErrorHandler())

	analysisHandler := handlers.NewAnalysisHandler(cfg, cache)
	batteryHandler := handlers.NewBatteryHandler(cfg)

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "cached_reports": cache.Len()})
	})

	api := router.Group("/api/v1")
	{
		api.POST("/analysis", analysisHandler.RunAnalysis)
		api.POST("/analysis/upload", analysisHandler.UploadCSV)
		api.GET("/analysis/:id", analysisHandler.GetAnalysis)
		api.GET("/analysis/:id/ledger", analysisHandler.GetLedger)

		api.GET("/batteries", batteryHandler.ListBatteries)
		api.GET("/tiers", batteryHandler.ListTiers)
	}
	return router
}
