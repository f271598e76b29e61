package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/bomkr/revenue-analytics/internal/models"
)

// ForecastCacheStats is a snapshot of cache performance counters.
type ForecastCacheStats struct {
	Hits   int64 `json:"hits"`
	Misses int64 `json:"misses"`
	Sets   int64 `json:"sets"`
}

// ForecastCache memoizes fitted forecasts in Redis, keyed by a hash of the
// series content and the full model configuration. Refitting is CPU-bound and
// blocking, so repeated requests with unchanged inputs skip it entirely. Any
// Redis failure degrades to a refit rather than an error.
type ForecastCache struct {
	redis  *redis.Client
	ttl    time.Duration
	logger *logrus.Logger
	prefix string

	mu    sync.RWMutex
	stats ForecastCacheStats
}

func NewForecastCache(redisClient *redis.Client, ttl time.Duration, logger *logrus.Logger) *ForecastCache {
	return &ForecastCache{
		redis:  redisClient,
		ttl:    ttl,
		logger: logger,
		prefix: "forecast:",
	}
}

// Key derives the cache key from everything that would change the fit: series
// dates and values, holiday set, regressor names, options, and horizon.
func (c *ForecastCache) Key(series *models.DailySeries, holidays []models.Holiday, regressorNames []string, opts ForecastOptions, horizonDays int) string {
	h := sha256.New()
	for _, obs := range series.Observations {
		fmt.Fprintf(h, "%s=%s;", obs.Date.Format("2006-01-02"), obs.Value.String())
	}
	for _, holiday := range holidays {
		fmt.Fprintf(h, "h:%s:%s:%d:%d;", holiday.Date.Format("2006-01-02"), holiday.Name,
			holiday.LowerWindow, holiday.UpperWindow)
	}
	for _, name := range regressorNames {
		fmt.Fprintf(h, "r:%s;", name)
	}
	fmt.Fprintf(h, "o:%+v;n:%d", opts, horizonDays)
	return c.prefix + hex.EncodeToString(h.Sum(nil))
}

func (c *ForecastCache) Get(ctx context.Context, key string) (*models.ForecastResult, bool) {
	if c.redis == nil {
		return nil, false
	}

	data, err := c.redis.Get(ctx, key).Result()
	if err == redis.Nil {
		c.miss()
		return nil, false
	}
	if err != nil {
		c.logger.WithError(err).Warn("Forecast cache read failed")
		c.miss()
		return nil, false
	}

	var result models.ForecastResult
	if err := json.Unmarshal([]byte(data), &result); err != nil {
		c.logger.WithError(err).Warn("Failed to deserialize cached forecast")
		c.miss()
		return nil, false
	}

	c.mu.Lock()
	c.stats.Hits++
	c.mu.Unlock()

	result.FromCache = true
	return &result, true
}

func (c *ForecastCache) Set(ctx context.Context, key string, result *models.ForecastResult) {
	if c.redis == nil {
		return
	}

	data, err := json.Marshal(result)
	if err != nil {
		c.logger.WithError(err).Warn("Failed to serialize forecast for cache")
		return
	}
	if err := c.redis.Set(ctx, key, data, c.ttl).Err(); err != nil {
		c.logger.WithError(err).Warn("Forecast cache write failed")
		return
	}

	c.mu.Lock()
	c.stats.Sets++
	c.mu.Unlock()
}

// Stats returns a copy of the counters.
func (c *ForecastCache) Stats() ForecastCacheStats {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.stats
}

func (c *ForecastCache) miss() {
	c.mu.Lock()
	c.stats.Misses++
	c.mu.Unlock()
}
