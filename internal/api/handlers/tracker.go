package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/flipforce/pack-tracker/internal/services"
)

type TrackerHandler struct {
	engine *services.ReconciliationEngine
}

func NewTrackerHandler(engine *services.ReconciliationEngine) *TrackerHandler {
	return &TrackerHandler{engine: engine}
}

// GetStatus returns the engine's sweep counters and timing.
func (h *TrackerHandler) GetStatus(c *gin.Context) {
	c.JSON(http.StatusOK, h.engine.Status())
}

// TriggerSweep runs one sweep immediately (manual refresh from the
// dashboard). The per-series locks keep it safe alongside the scheduled
// loop.
func (h *TrackerHandler) TriggerSweep(c *gin.Context) {
	processed := h.engine.RunSweep(c.Request.Context())
	c.JSON(http.StatusOK, gin.H{"series_processed": processed})
}
