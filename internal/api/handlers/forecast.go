package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/bomkr/revenue-analytics/internal/services"
)

type ForecastHandler struct {
	analytics *services.AnalyticsService
}

func NewForecastHandler(analytics *services.AnalyticsService) *ForecastHandler {
	return &ForecastHandler{analytics: analytics}
}

// GetForecast fits the additive model over the selected payment series and
// returns the projection. future_only=true trims the fitted history from the
// response.
func (h *ForecastHandler) GetForecast(c *gin.Context) {
	seriesParams, ok := parseSeriesParams(c)
	if !ok {
		return
	}

	params := services.ForecastParams{
		SeriesParams:   seriesParams,
		HolidayCountry: c.Query("country"),
	}

	if raw := c.Query("horizon"); raw != "" {
		horizon, err := strconv.Atoi(raw)
		if err != nil || horizon < 1 || horizon > 365 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid horizon parameter"})
			return
		}
		params.HorizonDays = horizon
	}

	if raw := c.Query("with_events"); raw != "" {
		withEvents, err := strconv.ParseBool(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid with_events parameter"})
			return
		}
		params.WithEvents = withEvents
	}

	futureOnly := false
	if raw := c.Query("future_only"); raw != "" {
		parsed, err := strconv.ParseBool(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid future_only parameter"})
			return
		}
		futureOnly = parsed
	}

	result, err := h.analytics.GetForecast(c.Request.Context(), params)
	if err != nil {
		respondError(c, err)
		return
	}

	points := result.Points
	if futureOnly {
		points = result.FutureOnly()
	}

	c.JSON(http.StatusOK, gin.H{
		"points":             points,
		"horizon_days":       result.HorizonDays,
		"sigma":              result.Sigma,
		"missing_regressors": result.MissingRegressors,
		"from_cache":         result.FromCache,
		"generated_at":       result.GeneratedAt,
		"timestamp":          time.Now().UTC(),
	})
}
