package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/bobby-s-dev/weather-viewer/internal/models"
	"github.com/bobby-s-dev/weather-viewer/pkg/client"
	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

const defaultOpenWeatherURL = client.DefaultOpenWeatherURL

type Config struct {
	Server struct {
		Port         string
		ReadTimeout  time.Duration
		WriteTimeout time.Duration
		LogLevel     string
	}

	WeatherAPI struct {
		OpenWeatherAPIKey string
		OpenWeatherURL    string
		RequestTimeout    time.Duration
	}

	Display struct {
		Mode     models.Mode
		Timezone *time.Location
	}

	Session struct {
		TTL           time.Duration
		MaxSessions   int
		SweepSchedule string
	}

	CircuitBreaker struct {
		Threshold int
		Timeout   time.Duration
	}

	Retry struct {
		MaxRetries int
		Delay      time.Duration
		Multiplier float64
	}
}

func LoadConfig() (*Config, error) {
	// Load .env file if exists
	if err := godotenv.Load(); err != nil {
		zap.L().Info("No .env file found, using environment variables")
	}

	cfg := &Config{}

	// Server configuration
	cfg.Server.Port = getEnv("FIBER_PORT", "8080")
	cfg.Server.ReadTimeout = parseDuration(getEnv("FIBER_READ_TIMEOUT", "10s"))
	cfg.Server.WriteTimeout = parseDuration(getEnv("FIBER_WRITE_TIMEOUT", "10s"))
	cfg.Server.LogLevel = getEnv("LOG_LEVEL", "info")

	// Weather API configuration
	cfg.WeatherAPI.OpenWeatherAPIKey = getEnv("OPENWEATHER_API_KEY", "")
	cfg.WeatherAPI.OpenWeatherURL = getEnv("OPENWEATHER_BASE_URL", defaultOpenWeatherURL)
	cfg.WeatherAPI.RequestTimeout = parseDuration(getEnv("REQUEST_TIMEOUT", "10s"))

	// Display configuration
	mode, err := models.ParseMode(getEnv("DISPLAY_MODE", string(models.ModeForecast)))
	if err != nil {
		return nil, fmt.Errorf("invalid DISPLAY_MODE: %w", err)
	}
	cfg.Display.Mode = mode

	tz, err := time.LoadLocation(getEnv("DISPLAY_TIMEZONE", "Local"))
	if err != nil {
		return nil, fmt.Errorf("invalid DISPLAY_TIMEZONE: %w", err)
	}
	cfg.Display.Timezone = tz

	// Session configuration
	cfg.Session.TTL = parseDuration(getEnv("SESSION_TTL", "30m"))
	cfg.Session.MaxSessions = parseInt(getEnv("MAX_SESSIONS", "1000"))
	cfg.Session.SweepSchedule = getEnv("SESSION_SWEEP_SCHEDULE", "@every 1m")

	// Circuit breaker configuration
	cfg.CircuitBreaker.Threshold = parseInt(getEnv("CIRCUIT_BREAKER_THRESHOLD", "3"))
	cfg.CircuitBreaker.Timeout = parseDuration(getEnv("CIRCUIT_BREAKER_TIMEOUT", "30s"))

	// Retry configuration
	cfg.Retry.MaxRetries = parseInt(getEnv("MAX_RETRIES", "0"))
	cfg.Retry.Delay = parseDuration(getEnv("RETRY_DELAY", "1s"))
	cfg.Retry.Multiplier = parseFloat(getEnv("RETRY_MULTIPLIER", "2"))

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if c.WeatherAPI.OpenWeatherAPIKey == "" {
		return errors.New("OPENWEATHER_API_KEY is required")
	}
	if c.WeatherAPI.RequestTimeout <= 0 {
		return errors.New("invalid REQUEST_TIMEOUT")
	}
	if c.Session.TTL <= 0 {
		return errors.New("invalid SESSION_TTL")
	}
	if c.Session.MaxSessions <= 0 {
		return errors.New("invalid MAX_SESSIONS")
	}
	if _, err := cron.ParseStandard(c.Session.SweepSchedule); err != nil {
		return fmt.Errorf("invalid SESSION_SWEEP_SCHEDULE: %w", err)
	}
	if c.Retry.MaxRetries < 0 {
		return errors.New("invalid MAX_RETRIES")
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func parseDuration(value string) time.Duration {
	duration, err := time.ParseDuration(value)
	if err != nil {
		zap.L().Warn("Failed to parse duration", zap.String("value", value), zap.Error(err))
		return 0
	}
	return duration
}

func parseInt(value string) int {
	intValue, err := strconv.Atoi(value)
	if err != nil {
		zap.L().Warn("Failed to parse int", zap.String("value", value), zap.Error(err))
		return 0
	}
	return intValue
}

func parseFloat(value string) float64 {
	floatValue, err := strconv.ParseFloat(value, 64)
	if err != nil {
		zap.L().Warn("Failed to parse float", zap.String("value", value), zap.Error(err))
		return 0
	}
	return floatValue
}
