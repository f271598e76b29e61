package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/bomkr/revenue-analytics/internal/api/handlers"
	"github.com/bomkr/revenue-analytics/internal/database"
	"github.com/bomkr/revenue-analytics/internal/services"
)

type HealthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Version   string    `json:"version"`
	Services  Services  `json:"services"`
}

type Services struct {
	Database string `json:"database"`
	Redis    string `json:"redis"`
}

func SetupRoutes(router *gin.Engine, db *database.PostgresDB, redis *database.RedisClient, analytics *services.AnalyticsService) {
	router.Use(requestID())

	// Health check endpoint
	router.GET("/health", healthCheck(db, redis))

	seriesHandler := handlers.NewSeriesHandler(analytics)
	forecastHandler := handlers.NewForecastHandler(analytics)
	reportsHandler := handlers.NewReportsHandler(analytics)

	// API v1 routes
	v1 := router.Group("/api/v1")
	{
		series := v1.Group("/series")
		{
			series.GET("/daily", seriesHandler.GetDailySeries)
		}

		v1.GET("/forecast", forecastHandler.GetForecast)

		reports := v1.Group("/reports")
		{
			reports.GET("/ranking", reportsHandler.GetRanking)
			reports.GET("/cycle", reportsHandler.GetCycle)
			reports.GET("/summary", reportsHandler.GetSummary)
		}
	}
}

// requestID tags every response with a request id, honoring one supplied by
// the caller.
func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader("X-Request-ID")
		if id == "" {
			id = uuid.New().String()
		}
		c.Header("X-Request-ID", id)
		c.Next()
	}
}

func healthCheck(db *database.PostgresDB, redis *database.RedisClient) gin.HandlerFunc {
	return func(c *gin.Context) {
		response := HealthResponse{
			Status:    "ok",
			Timestamp: time.Now(),
			Version:   "1.0.0",
			Services: Services{
				Database: "ok",
				Redis:    "ok",
			},
		}

		// Check database health
		if db == nil || db.HealthCheck(c.Request.Context()) != nil {
			response.Services.Database = "error"
			response.Status = "degraded"
		}

		// Check Redis health
		if redis == nil || redis.HealthCheck(c.Request.Context()) != nil {
			response.Services.Redis = "error"
			response.Status = "degraded"
		}

		statusCode := http.StatusOK
		if response.Status == "degraded" {
			statusCode = http.StatusServiceUnavailable
		}

		c.JSON(statusCode, response)
	}
}
