package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Environment string          `mapstructure:"environment"`
	LogLevel    string          `mapstructure:"log_level"`
	Server      ServerConfig    `mapstructure:"server"`
	Database    DatabaseConfig  `mapstructure:"database"`
	Redis       RedisConfig     `mapstructure:"redis"`
	Analytics   AnalyticsConfig `mapstructure:"analytics"`
	Forecast    ForecastConfig  `mapstructure:"forecast"`
}

type ServerConfig struct {
	Port           int      `mapstructure:"port"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

type DatabaseConfig struct {
	Host         string `mapstructure:"host"`
	Port         int    `mapstructure:"port"`
	User         string `mapstructure:"user"`
	Password     string `mapstructure:"password"`
	DBName       string `mapstructure:"dbname"`
	SSLMode      string `mapstructure:"sslmode"`
	MaxOpenConns int    `mapstructure:"max_open_conns"`
}

type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// AnalyticsConfig holds the defaults for event detection and reporting views.
// Every value is a per-request parameter; these are only the fallbacks when a
// request does not override them.
type AnalyticsConfig struct {
	BaselineWindow  int     `mapstructure:"baseline_window"`
	EventThreshold  float64 `mapstructure:"event_threshold"`
	Comparator      string  `mapstructure:"comparator"`
	TopN            int     `mapstructure:"top_n"`
	TopNIncrement   int     `mapstructure:"top_n_increment"`
	RecentTrendDays int     `mapstructure:"recent_trend_days"`
}

type ForecastConfig struct {
	HorizonDays    int    `mapstructure:"horizon_days"`
	HolidayCountry string `mapstructure:"holiday_country"`
	CacheTTL       string `mapstructure:"cache_ttl"`
	FitTimeout     string `mapstructure:"fit_timeout"`
}

func Load() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("./configs")
	viper.AddConfigPath(".")

	setDefaults()

	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		// Config file not found, use defaults and environment variables
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, err
	}

	config.Environment = strings.ToLower(config.Environment)

	if config.Analytics.EventThreshold < 1.0 || config.Analytics.EventThreshold > 5.0 {
		return nil, fmt.Errorf("analytics.event_threshold must be in [1.0, 5.0], got %v",
			config.Analytics.EventThreshold)
	}
	if config.Analytics.BaselineWindow < 1 {
		return nil, fmt.Errorf("analytics.baseline_window must be positive, got %d",
			config.Analytics.BaselineWindow)
	}
	if config.Forecast.CacheTTL != "" {
		if _, err := time.ParseDuration(config.Forecast.CacheTTL); err != nil {
			return nil, fmt.Errorf("invalid forecast cache TTL: %w", err)
		}
	}
	if config.Forecast.FitTimeout != "" {
		if _, err := time.ParseDuration(config.Forecast.FitTimeout); err != nil {
			return nil, fmt.Errorf("invalid forecast fit timeout: %w", err)
		}
	}

	return &config, nil
}

// CacheTTLDuration returns the parsed cache TTL, falling back to one hour.
func (c ForecastConfig) CacheTTLDuration() time.Duration {
	d, err := time.ParseDuration(c.CacheTTL)
	if err != nil || d <= 0 {
		return time.Hour
	}
	return d
}

// FitTimeoutDuration returns the parsed fit timeout, falling back to 30 seconds.
// Changepoint search has no hard upper bound on pathological inputs, so fits
// always run under a deadline.
func (c ForecastConfig) FitTimeoutDuration() time.Duration {
	d, err := time.ParseDuration(c.FitTimeout)
	if err != nil || d <= 0 {
		return 30 * time.Second
	}
	return d
}

func setDefaults() {
	viper.SetDefault("environment", "development")
	viper.SetDefault("log_level", "info")

	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.allowed_origins", []string{"http://localhost:3000"})

	viper.SetDefault("database.host", "localhost")
	viper.SetDefault("database.port", 5432)
	viper.SetDefault("database.user", "postgres")
	viper.SetDefault("database.password", "postgres")
	viper.SetDefault("database.dbname", "bomkr_revenue")
	viper.SetDefault("database.sslmode", "disable")
	viper.SetDefault("database.max_open_conns", 25)

	viper.SetDefault("redis.host", "localhost")
	viper.SetDefault("redis.port", 6379)
	viper.SetDefault("redis.password", "")
	viper.SetDefault("redis.db", 0)

	viper.SetDefault("analytics.baseline_window", 7)
	viper.SetDefault("analytics.event_threshold", 1.5)
	viper.SetDefault("analytics.comparator", "baseline")
	viper.SetDefault("analytics.top_n", 10)
	viper.SetDefault("analytics.top_n_increment", 10)
	viper.SetDefault("analytics.recent_trend_days", 30)

	viper.SetDefault("forecast.horizon_days", 30)
	viper.SetDefault("forecast.holiday_country", "KR")
	viper.SetDefault("forecast.cache_ttl", "1h")
	viper.SetDefault("forecast.fit_timeout", "30s")
}
