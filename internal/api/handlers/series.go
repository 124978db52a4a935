package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/flipforce/pack-tracker/internal/store"
)

const defaultEventLimit = 100

type SeriesHandler struct {
	store *store.Store
}

func NewSeriesHandler(st *store.Store) *SeriesHandler {
	return &SeriesHandler{store: st}
}

// ListSeries returns every tracked series with its latest aggregates.
// Aggregates that have not been computed yet come back null; the dashboard
// renders those as N/A.
func (h *SeriesHandler) ListSeries(c *gin.Context) {
	overviews, err := h.store.ListSeriesOverviews()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"series": overviews})
}

// GetEvRoi returns the latest EV/ROI snapshot with its tier breakdown and
// the historical EV extremes.
func (h *SeriesHandler) GetEvRoi(c *gin.Context) {
	seriesID := c.Param("id")

	latest, err := h.store.LatestEvRoi(seriesID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if latest == nil {
		c.JSON(http.StatusOK, gin.H{"latest": nil})
		return
	}

	tiers, err := h.store.TierContributions(latest.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	resp := gin.H{"latest": latest, "tiers": tiers}
	if minEv, maxEv, ok, err := h.store.EvRoiExtremes(seriesID); err == nil && ok {
		resp["min_expected_value_cents"] = minEv
		resp["max_expected_value_cents"] = maxEv
	}
	c.JSON(http.StatusOK, resp)
}

func (h *SeriesHandler) GetEvRoiHistory(c *gin.Context) {
	snapshots, err := h.store.EvRoiHistory(c.Param("id"), periodStart(c.Query("period")))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"snapshots": snapshots})
}

func (h *SeriesHandler) GetValueTrend(c *gin.Context) {
	snapshots, err := h.store.TotalValueTrend(c.Param("id"), periodStart(c.Query("period")))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"snapshots": snapshots})
}

func (h *SeriesHandler) GetCounters(c *gin.Context) {
	snapshots, err := h.store.CountersHistory(c.Param("id"), periodStart(c.Query("period")))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"snapshots": snapshots})
}

func (h *SeriesHandler) GetSoldEvents(c *gin.Context) {
	events, err := h.store.SoldEvents(c.Param("id"), queryLimit(c))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"events": events})
}

func (h *SeriesHandler) GetSuspectedSwaps(c *gin.Context) {
	swaps, err := h.store.SuspectedSwaps(c.Param("id"), queryLimit(c))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"swaps": swaps})
}

func queryLimit(c *gin.Context) int {
	if raw := c.Query("limit"); raw != "" {
		if limit, err := strconv.Atoi(raw); err == nil && limit > 0 {
			return limit
		}
	}
	return defaultEventLimit
}

func periodStart(period string) time.Time {
	now := time.Now()
	switch period {
	case "day":
		return now.AddDate(0, 0, -1)
	case "week":
		return now.AddDate(0, 0, -7)
	case "month":
		return now.AddDate(0, -1, 0)
	case "all", "":
		return time.Time{} // no filter
	default:
		return now.AddDate(0, -1, 0)
	}
}
