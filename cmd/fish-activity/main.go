package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	"github.com/gofiber/fiber/v2"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	httpapi "github.com/i474232898/fish-activity/internal/api/http"
	"github.com/i474232898/fish-activity/internal/config"
	"github.com/i474232898/fish-activity/internal/geocode"
	"github.com/i474232898/fish-activity/internal/logger"
	"github.com/i474232898/fish-activity/internal/scheduler"
	"github.com/i474232898/fish-activity/internal/store"
	"github.com/i474232898/fish-activity/internal/weather"
	"github.com/i474232898/fish-activity/internal/weather/providers"
)

const serviceName = "fish-activity"

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("failed to load config")
	}

	log := logger.New(cfg.LogLevel, cfg.AppEnv)

	// Shared HTTP client for outbound provider calls.
	httpClient := &http.Client{
		Timeout: cfg.HTTPTimeout,
	}
	backoff := providers.BackoffFromFactor(cfg.ProviderRetries, cfg.ProviderBackoffFactor, cfg.ProviderMaxBackoff)

	// Open-Meteo needs no key; the others join when their key is configured.
	provs := []weather.ForecastProvider{providers.NewOpenMeteoProvider(httpClient, backoff)}
	if cfg.OpenWeatherAPIKey != "" {
		provs = append(provs, providers.NewOpenWeatherProvider(httpClient, cfg.OpenWeatherAPIKey, backoff))
	}
	if cfg.WeatherAPIKey != "" {
		provs = append(provs, providers.NewWeatherAPIProvider(httpClient, cfg.WeatherAPIKey, backoff))
	}

	cache, closeCache := newCache(cfg, log)
	defer closeCache()

	service := weather.NewService(cache, provs, log)

	// Keep the watched locations warm in the cache.
	sched := scheduler.New(cfg.WatchLocations, cfg.ForecastDays, cfg.SchedulerInterval, service, log)
	if err := sched.Start(); err != nil {
		log.WithError(err).Fatal("failed to start scheduler")
	}
	defer sched.Stop()

	resolver := geocode.NewResolver(cfg.GeocoderAPIKey)
	if !resolver.Enabled() {
		log.Info("GEOCODER_API_KEY not set; city lookups are disabled")
	}

	app := fiber.New(fiber.Config{
		AppName:               serviceName,
		DisableStartupMessage: true,
		ReadTimeout:           10 * time.Second,
		WriteTimeout:          30 * time.Second,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			// Centralized error response
			code := fiber.StatusInternalServerError
			var e *fiber.Error
			if errors.As(err, &e) {
				code = e.Code
			}
			if code >= fiber.StatusInternalServerError {
				log.WithError(err).WithField("path", c.Path()).Error("request failed")
			}
			return c.Status(code).JSON(fiber.Map{
				"error":   true,
				"message": err.Error(),
			})
		},
	})

	app.Use(requestid.New(requestid.Config{Generator: uuid.NewString}))
	app.Use(fiberlogger.New(fiberlogger.Config{
		Format: "${time} | ${locals:requestid} | ${status} | ${latency} | ${method} ${path}\n",
		Output: log.Writer(),
	}))
	app.Use(recover.New())

	app.Get("/health", func(c *fiber.Ctx) error {
		names := make([]string, len(provs))
		for i, p := range provs {
			names[i] = p.Name()
		}
		if p, ok := cache.(interface{ Ping(context.Context) error }); ok {
			if err := p.Ping(c.UserContext()); err != nil {
				return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
					"status":  "degraded",
					"service": serviceName,
					"message": err.Error(),
				})
			}
		}
		return c.JSON(fiber.Map{
			"status":    "ok",
			"service":   serviceName,
			"providers": names,
		})
	})

	httpapi.RegisterRoutes(app, service, httpapi.Options{
		Resolver:        resolver,
		DefaultLocation: cfg.DefaultLocation(),
		DefaultDays:     cfg.ForecastDays,
		ScoreWorkers:    cfg.ScoreWorkers,
		Log:             log,
	})

	go func() {
		log.WithField("port", cfg.Port).Info("starting http server")
		if err := app.Listen(":" + cfg.Port); err != nil {
			log.WithError(err).Error("fiber server stopped")
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.WithError(err).Error("error during shutdown")
	}
}

// newCache returns a Redis cache when REDIS_ADDR is set and reachable, the in-memory cache otherwise.
func newCache(cfg *config.AppConfig, log logrus.FieldLogger) (weather.Cache, func()) {
	if cfg.RedisAddr != "" {
		rs, err := store.NewRedisStore(context.Background(), store.RedisOptions{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
			TTL:      cfg.CacheTTL,
		})
		if err == nil {
			log.WithField("addr", cfg.RedisAddr).Info("using redis forecast cache")
			return rs, func() { _ = rs.Close() }
		}
		log.WithError(err).Warn("redis unavailable; falling back to in-memory cache")
	}

	return store.NewMemoryStore(cfg.CacheTTL, cfg.CacheMaxEntries), func() {}
}
