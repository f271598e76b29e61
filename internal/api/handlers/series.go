package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/bomkr/revenue-analytics/internal/models"
	"github.com/bomkr/revenue-analytics/internal/services"
)

const dateLayout = "2006-01-02"

type SeriesHandler struct {
	analytics *services.AnalyticsService
}

func NewSeriesHandler(analytics *services.AnalyticsService) *SeriesHandler {
	return &SeriesHandler{analytics: analytics}
}

// GetDailySeries returns the cleaned daily payment series annotated with
// baselines and event flags for the requested window.
func (h *SeriesHandler) GetDailySeries(c *gin.Context) {
	params, ok := parseSeriesParams(c)
	if !ok {
		return
	}

	view, err := h.analytics.GetDailySeries(c.Request.Context(), params)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"series":        view.Series,
		"weekday_stats": view.WeekdayStats,
		"load_report":   view.LoadReport,
		"event_count":   view.EventCount,
		"timestamp":     time.Now().UTC(),
	})
}

// parseSeriesParams reads the shared series query parameters. On a parse
// failure it writes the 400 response itself and returns ok=false.
func parseSeriesParams(c *gin.Context) (services.SeriesParams, bool) {
	var params services.SeriesParams

	from, to, ok := parseDateRange(c)
	if !ok {
		return params, false
	}
	params.From = from
	params.To = to

	if raw := c.Query("window"); raw != "" {
		window, err := strconv.Atoi(raw)
		if err != nil || window < 1 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid window parameter"})
			return params, false
		}
		params.Window = window
	}

	if raw := c.Query("threshold"); raw != "" {
		threshold, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid threshold parameter"})
			return params, false
		}
		if err := services.ValidateThreshold(threshold); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return params, false
		}
		params.Threshold = threshold
	}

	if raw := c.Query("comparator"); raw != "" {
		comparator, err := services.ParseComparator(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid comparator parameter"})
			return params, false
		}
		params.Comparator = comparator
	}

	return params, true
}

// parseDateRange reads the optional from/to pair. Both must be supplied
// together; omitting both selects the full dataset.
func parseDateRange(c *gin.Context) (time.Time, time.Time, bool) {
	fromRaw := c.Query("from")
	toRaw := c.Query("to")
	if fromRaw == "" && toRaw == "" {
		return time.Time{}, time.Time{}, true
	}
	if fromRaw == "" || toRaw == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "from and to must be supplied together"})
		return time.Time{}, time.Time{}, false
	}

	from, err := time.Parse(dateLayout, fromRaw)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid from parameter"})
		return time.Time{}, time.Time{}, false
	}
	to, err := time.Parse(dateLayout, toRaw)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid to parameter"})
		return time.Time{}, time.Time{}, false
	}
	if to.Before(from) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "to precedes from"})
		return time.Time{}, time.Time{}, false
	}
	return from, to, true
}

// respondError maps pipeline errors to HTTP statuses. Caller mistakes are
// 400, structurally valid requests the data cannot satisfy are 422, and
// anything else is a 500 with a generic body.
func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, models.ErrInvalidThreshold),
		errors.Is(err, models.ErrUnsupportedRegion):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, models.ErrEmptySeries),
		errors.Is(err, models.ErrInsufficientData):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}
