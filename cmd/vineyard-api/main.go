package main

import (
	"context"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/jackc/pgx/v4/log/zapadapter"
	"github.com/jackc/pgx/v4/pgxpool"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	httpapi "github.com/vineyardhq/vineyard-api/internal/api/http"
	"github.com/vineyardhq/vineyard-api/internal/assistant"
	"github.com/vineyardhq/vineyard-api/internal/config"
	"github.com/vineyardhq/vineyard-api/internal/scheduler"
	"github.com/vineyardhq/vineyard-api/internal/sites"
	"github.com/vineyardhq/vineyard-api/internal/store"
	"github.com/vineyardhq/vineyard-api/internal/weather"
	"github.com/vineyardhq/vineyard-api/internal/weather/providers"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logg := setupLogging(cfg.LogLevel)
	defer logg.Sync()

	// Database pool with pgx logs routed through zap.
	poolConfig, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		zap.L().Fatal("unable to parse database url", zap.Error(err))
	}
	poolConfig.ConnConfig.Logger = zapadapter.NewLogger(logg)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	db, err := pgxpool.ConnectConfig(ctx, poolConfig)
	cancel()
	if err != nil {
		zap.L().Fatal("failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	if err := store.SetupSchema(context.Background(), db); err != nil {
		zap.L().Fatal("unable to setup database", zap.Error(err))
	}

	// Shared HTTP client for outbound weather calls.
	httpClient := &http.Client{
		Timeout: cfg.HTTPTimeout,
	}

	source := providers.NewOpenMeteoSource(httpClient, cfg.ArchiveBaseURL, cfg.ForecastBaseURL, cfg.Units, providers.BackoffConfig{
		MaxRetries:      cfg.SourceMaxRetries,
		InitialInterval: 500 * time.Millisecond,
		MaxInterval:     5 * time.Second,
	})

	service := weather.NewService(store.NewPostgresStore(db), source, cfg.BaseTemp)
	registry := sites.NewRegistry(db, sites.NewGoogleGeocoder(cfg.GeocoderAPIKey))

	// Background refresh keeps every site's history and forecast current.
	sched := scheduler.New(registry, service, cfg.RefreshInterval, cfg.RefreshLookbackDays, cfg.ForecastDays)
	if err := sched.Start(); err != nil {
		zap.L().Fatal("failed to start scheduler", zap.Error(err))
	}
	defer sched.Stop()

	app := fiber.New(fiber.Config{
		AppName:               "vineyard-api",
		DisableStartupMessage: true,
		ReadTimeout:           10 * time.Second,
		WriteTimeout:          30 * time.Second,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			// Centralized error response
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{
				"error":   true,
				"message": err.Error(),
			})
		},
	})

	app.Use(logger.New())
	app.Use(recover.New())

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "ok",
			"service": "vineyard-api",
		})
	})

	httpapi.RegisterRoutes(app, service, registry, assistant.NewCanned())

	go func() {
		if err := app.Listen(":" + cfg.Port); err != nil {
			zap.S().Errorf("fiber server stopped: %v", err)
		}
	}()
	zap.L().Info("vineyard-api listening", zap.String("port", cfg.Port))

	// Wait for termination signal
	sigCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-sigCtx.Done()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		zap.S().Errorf("error during shutdown: %v", err)
	}
}

// setupLogging builds the global zap logger from the configured level.
func setupLogging(level string) *zap.Logger {
	loggerConfig := zap.NewProductionConfig()
	loggerConfig.Sampling = nil
	loggerConfig.Level.UnmarshalText([]byte(level))
	loggerConfig.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	loggerConfig.EncoderConfig.TimeKey = "ts"
	loggerConfig.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	loggerConfig.OutputPaths = []string{"stdout"}
	loggerConfig.ErrorOutputPaths = []string{"stderr"}
	logg, _ := loggerConfig.Build()
	zap.ReplaceGlobals(logg)
	return logg
}
