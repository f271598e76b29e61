package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/bomkr/revenue-analytics/internal/services"
)

type ReportsHandler struct {
	analytics *services.AnalyticsService
}

func NewReportsHandler(analytics *services.AnalyticsService) *ReportsHandler {
	return &ReportsHandler{analytics: analytics}
}

// GetRanking returns the top-K coin usage ranking for the window, with
// launch-date flags for titles that debuted inside it.
func (h *ReportsHandler) GetRanking(c *gin.Context) {
	from, to, ok := parseDateRange(c)
	if !ok {
		return
	}
	if from.IsZero() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "from and to parameters are required"})
		return
	}

	topN := 0
	if raw := c.Query("top_n"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid top_n parameter"})
			return
		}
		topN = parsed
	}

	view, err := h.analytics.GetRanking(c.Request.Context(), from, to, topN)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, view)
}

// GetCycle returns the per-user interval between two payment sequence
// numbers, with amount and platform breakdowns.
func (h *ReportsHandler) GetCycle(c *gin.Context) {
	from, to, ok := parseDateRange(c)
	if !ok {
		return
	}
	if from.IsZero() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "from and to parameters are required"})
		return
	}

	firstSeq, err := strconv.Atoi(c.DefaultQuery("first", "1"))
	if err != nil || firstSeq < 1 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid first parameter"})
		return
	}
	targetSeq, err := strconv.Atoi(c.DefaultQuery("target", "2"))
	if err != nil || targetSeq <= firstSeq {
		c.JSON(http.StatusBadRequest, gin.H{"error": "target must exceed first"})
		return
	}

	view, err := h.analytics.GetCycle(c.Request.Context(), firstSeq, targetSeq, from, to)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, view)
}

// GetSummary returns the home dashboard headline metrics.
func (h *ReportsHandler) GetSummary(c *gin.Context) {
	summary, err := h.analytics.GetSummary(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"summary":   summary,
		"timestamp": time.Now().UTC(),
	})
}
