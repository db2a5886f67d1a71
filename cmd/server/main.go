package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/evyataryagoni/boundary-checker/internal/app"
	"github.com/evyataryagoni/boundary-checker/internal/config"
	"github.com/evyataryagoni/boundary-checker/internal/geocoder"
	"github.com/evyataryagoni/boundary-checker/internal/handler"
	"github.com/evyataryagoni/boundary-checker/internal/limiter"
	"github.com/evyataryagoni/boundary-checker/internal/logger"
	"github.com/evyataryagoni/boundary-checker/internal/metrics"
	"github.com/evyataryagoni/boundary-checker/internal/router"
	"github.com/prometheus/client_golang/prometheus"
)

func main() {
	// Load configuration
	appConfig := config.Load()

	// Initialize components
	appLogger := setupLogger(appConfig)
	if err := appConfig.Validate(); err != nil {
		appLogger.Fatal().Err(err).Msg("Invalid configuration")
	}

	metricsCollector := setupMetrics(appLogger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Build application layers; a bad boundary file stops the process
	pipeline, err := app.Build(ctx, appConfig, metricsCollector, appLogger)
	if err != nil {
		appLogger.Fatal().Err(err).Msg("Failed to initialize lookup pipeline")
	}

	// One session for the process: the primary is probed once at startup
	session := pipeline.Resolver.NewSession(ctx)

	rateLimiter := setupRateLimiter(appConfig, appLogger)
	defer rateLimiter.Close()

	appRouter := router.SetupRouter(router.Deps{
		Check:       handler.NewCheckHandler(pipeline.Service, session),
		Health:      handler.NewHealthHandler(pipeline.Boundary, session),
		Limiter:     rateLimiter,
		LimitWindow: appConfig.RateLimitWindow,
		Metrics:     metricsCollector,
		Logger:      appLogger,
	})

	// Start server
	startServer(ctx, appConfig, appRouter, session, appLogger)
}

// setupLogger initializes the structured logger
func setupLogger(appConfig *config.Config) *logger.Logger {
	appLogger := logger.New(logger.Config{
		Level:  appConfig.LogLevel,
		Pretty: appConfig.LogPretty,
	})

	appLogger.Info().Msg("Starting Boundary Checker Server...")
	if !appConfig.DotEnvLoaded {
		appLogger.Debug().Msg("No .env file found, using environment variables or defaults")
	}
	appLogger.Info().
		Str("port", appConfig.Port).
		Str("boundary_path", appConfig.BoundaryPath).
		Bool("primary_configured", appConfig.PrimaryConfigured()).
		Str("nominatim_url", appConfig.NominatimURL).
		Dur("nominatim_timeout", appConfig.NominatimTimeout).
		Dur("nominatim_min_delay", appConfig.NominatimMinDelay).
		Bool("fallback_on_not_found", appConfig.FallbackOnNotFound).
		Str("rate_limiter_type", appConfig.RateLimitType).
		Int("rate_limit", appConfig.RateLimit).
		Dur("rate_limit_window", appConfig.RateLimitWindow).
		Msg("Configuration loaded")

	return appLogger
}

// setupRateLimiter initializes the rate limiter
// Supports in-memory and Redis-based rate limiting
func setupRateLimiter(appConfig *config.Config, log *logger.Logger) limiter.Limiter {
	rateLimiter, err := limiter.New(limiter.Config{
		Type:          appConfig.RateLimitType,
		Limit:         appConfig.RateLimit,
		Window:        appConfig.RateLimitWindow,
		RedisAddr:     appConfig.RedisAddr,
		RedisPassword: appConfig.RedisPassword,
		RedisDB:       appConfig.RedisDB,
	}, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize rate limiter")
	}

	log.Info().
		Str("type", appConfig.RateLimitType).
		Int("limit", appConfig.RateLimit).
		Dur("window", appConfig.RateLimitWindow).
		Msg("Rate limiter initialized")

	return rateLimiter
}

// setupMetrics initializes the Prometheus metrics collector
func setupMetrics(log *logger.Logger) *metrics.Metrics {
	metricsCollector := metrics.New(prometheus.DefaultRegisterer)
	log.Info().Msg("Metrics initialized")
	return metricsCollector
}

// startServer serves until ctx is cancelled, then drains in-flight lookups
func startServer(ctx context.Context, appConfig *config.Config, appRouter http.Handler, session *geocoder.Session, log *logger.Logger) {
	server := &http.Server{
		Addr:              ":" + appConfig.Port,
		Handler:           appRouter,
		ReadHeaderTimeout: 5 * time.Second,
		// A lookup may spend a primary timeout plus the fallback delay and timeout
		WriteTimeout: 30 * time.Second,
	}

	go func() {
		log.Info().
			Str("session_id", session.ID).
			Bool("primary_available", session.PrimaryAvailable()).
			Str("api_endpoint", "http://localhost:"+appConfig.Port+"/v1/check?address=<address>").
			Str("health_check", "http://localhost:"+appConfig.Port+"/health").
			Str("metrics", "http://localhost:"+appConfig.Port+"/metrics").
			Msg("Server is running")

		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Server failed")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Graceful shutdown failed")
	}
}
