package main

import (
	"context"
	"encoding/json"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bobby-s-dev/weather-viewer/internal/api"
	"github.com/bobby-s-dev/weather-viewer/internal/config"
	"github.com/bobby-s-dev/weather-viewer/internal/observability"
	"github.com/bobby-s-dev/weather-viewer/internal/scheduler"
	"github.com/bobby-s-dev/weather-viewer/internal/services"
	"github.com/bobby-s-dev/weather-viewer/pkg/client"
	"github.com/gofiber/fiber/v2"
	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"
)

func main() {
	// Bootstrap logger until the configured level is known
	logger, _ := zap.NewProduction()
	zap.ReplaceGlobals(logger)

	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Fatal("Failed to load configuration", zap.Error(err))
	}

	logger, err = observability.NewLogger(cfg.Server.LogLevel)
	if err != nil {
		zap.L().Fatal("Failed to build logger", zap.Error(err))
	}
	defer logger.Sync()
	zap.ReplaceGlobals(logger)

	logger.Info("Starting Weather Viewer",
		zap.String("mode", string(cfg.Display.Mode)),
		zap.String("timezone", cfg.Display.Timezone.String()))

	metrics := observability.NewMetrics()

	// Lifetime context for in-flight fetches
	appCtx, cancelFetches := context.WithCancel(context.Background())
	defer cancelFetches()

	weatherClient := client.NewOpenWeatherClient(
		cfg.WeatherAPI.OpenWeatherAPIKey,
		cfg.WeatherAPI.OpenWeatherURL,
		client.ClientConfig{
			Timeout:        cfg.WeatherAPI.RequestTimeout,
			MaxRetries:     cfg.Retry.MaxRetries,
			RetryDelay:     cfg.Retry.Delay,
			Multiplier:     cfg.Retry.Multiplier,
			Threshold:      cfg.CircuitBreaker.Threshold,
			BreakerTimeout: cfg.CircuitBreaker.Timeout,
		},
		logger,
	)
	fetcher := services.NewFetcher(weatherClient, cfg.Display.Mode, metrics, logger)

	// Each fetch gets the HTTP timeout plus room for the retry budget.
	fetchTimeout := cfg.WeatherAPI.RequestTimeout * time.Duration(cfg.Retry.MaxRetries+1)
	sessions := services.NewSessionStore(
		func() *services.Screen {
			return services.NewScreen(appCtx, fetcher, fetchTimeout, metrics, logger)
		},
		cfg.Session.TTL,
		cfg.Session.MaxSessions,
		clockwork.NewRealClock(),
		metrics,
		logger,
	)

	sweepScheduler, err := scheduler.NewScheduler(sessions, cfg.Session.SweepSchedule, logger)
	if err != nil {
		logger.Fatal("Failed to initialize scheduler", zap.Error(err))
	}

	// Create Fiber app
	app := fiber.New(fiber.Config{
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		JSONEncoder:  json.Marshal,
		ErrorHandler: api.ErrorHandler,
	})

	// Setup handlers and routes
	handler := api.NewHandler(sessions, cfg.Display.Mode, cfg.Display.Timezone, weatherClient, logger)
	api.SetupRoutes(app, handler, logger)

	// Start scheduler
	sweepScheduler.Start()

	// Start server in goroutine
	go func() {
		addr := ":" + cfg.Server.Port
		logger.Info("Starting server", zap.String("address", addr))

		if err := app.Listen(addr); err != nil {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	// Create shutdown context with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// Stop scheduler
	sweepScheduler.Stop()

	// Shutdown Fiber app
	if err := app.ShutdownWithContext(ctx); err != nil {
		logger.Error("Server shutdown failed", zap.Error(err))
	}

	cancelFetches()
	logger.Info("Server stopped")
}
