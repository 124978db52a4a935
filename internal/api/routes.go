package api

import (
	"os"
	"strings"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/flipforce/pack-tracker/internal/api/handlers"
	"github.com/flipforce/pack-tracker/internal/services"
	"github.com/flipforce/pack-tracker/internal/store"
)

// SetupRouter wires the read-only dashboard API. The dashboard never
// mutates tracker state through here; the only non-read endpoint is the
// manual sweep trigger.
func SetupRouter(st *store.Store, engine *services.ReconciliationEngine) *gin.Engine {
	router := gin.Default()

	config := cors.DefaultConfig()
	if corsOrigins := os.Getenv("CORS_ALLOWED_ORIGINS"); corsOrigins != "" {
		config.AllowOrigins = strings.Split(corsOrigins, ",")
	} else {
		config.AllowOrigins = []string{"http://localhost:5173", "http://localhost:3000"}
	}
	config.AllowMethods = []string{"GET", "POST", "OPTIONS"}
	config.AllowHeaders = []string{"Origin", "Content-Type", "Accept"}
	router.Use(cors.New(config))

	seriesHandler := handlers.NewSeriesHandler(st)
	trackerHandler := handlers.NewTrackerHandler(engine)

	api := router.Group("/api")
	{
		series := api.Group("/series")
		{
			series.GET("", seriesHandler.ListSeries)
			series.GET("/:id/ev-roi", seriesHandler.GetEvRoi)
			series.GET("/:id/ev-roi/history", seriesHandler.GetEvRoiHistory)
			series.GET("/:id/value-trend", seriesHandler.GetValueTrend)
			series.GET("/:id/counters", seriesHandler.GetCounters)
			series.GET("/:id/sold-events", seriesHandler.GetSoldEvents)
			series.GET("/:id/swaps", seriesHandler.GetSuspectedSwaps)
		}

		tracker := api.Group("/tracker")
		{
			tracker.GET("/status", trackerHandler.GetStatus)
			tracker.POST("/sweep", trackerHandler.TriggerSweep)
		}
	}

	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return router
}
