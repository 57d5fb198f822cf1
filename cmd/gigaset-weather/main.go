package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	httpapi "github.com/i474232898/gigaset-weather/internal/api/http"
	"github.com/i474232898/gigaset-weather/internal/config"
	"github.com/i474232898/gigaset-weather/internal/logging"
	"github.com/i474232898/gigaset-weather/internal/scheduler"
	"github.com/i474232898/gigaset-weather/internal/store"
	"github.com/i474232898/gigaset-weather/internal/weather"
	"github.com/i474232898/gigaset-weather/internal/weather/providers"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", slog.Any("error", err))
		os.Exit(1)
	}

	log := logging.New(os.Stdout, cfg.LogLevel)
	slog.SetDefault(log)

	// Shared HTTP client for outbound provider calls.
	httpClient := &http.Client{
		Timeout: cfg.HTTPTimeout,
	}

	var provider weather.ForecastProvider
	switch cfg.Provider {
	case config.ProviderOpenMeteo:
		provider = providers.NewOpenMeteoProvider(httpClient)
	default:
		provider = providers.NewOpenWeatherProvider(httpClient, cfg.OpenWeatherAPIKey, providers.OpenWeatherOptions{
			Lang:              cfg.Lang,
			MissingRainAsZero: cfg.MissingRainAsZero,
		}, log.With("module", "openweathermap"))
	}
	limited := providers.NewRateLimitedProvider(provider, cfg.RateLimitRPS, cfg.RateLimitBurst)

	memStore := store.NewMemoryStore(cfg.StoreMaxAge)
	service := weather.NewService(memStore, limited, cfg.Location, cfg.Timezone, log.With("module", "weather"))

	sched := scheduler.New(cfg.FetchInterval, scheduler.RefreshFunc(func(ctx context.Context) error {
		_, err := service.FetchAndStore(ctx)
		return err
	}), log.With("module", "scheduler"))
	if err := sched.Start(); err != nil {
		log.Error("failed to start scheduler", slog.Any("error", err))
		os.Exit(1)
	}
	defer sched.Stop()

	app := fiber.New(fiber.Config{
		AppName:               "gigaset-weather",
		DisableStartupMessage: true,
		ReadTimeout:           10 * time.Second,
		WriteTimeout:          10 * time.Second,
		ErrorHandler:          httpapi.ErrorHandler,
	})

	app.Use(logger.New())
	app.Use(recover.New())

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":   "ok",
			"service":  "gigaset-weather",
			"provider": limited.Name(),
		})
	})

	httpapi.RegisterRoutes(app, service)

	go func() {
		log.Info("listening", slog.String("port", cfg.Port), slog.String("provider", limited.String()))
		if err := app.Listen(":" + cfg.Port); err != nil {
			log.Error("fiber server stopped", slog.Any("error", err))
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error("error during shutdown", slog.Any("error", err))
	}
}
