package config

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/i474232898/fish-activity/internal/weather"
)

type AppConfig struct {
	AppEnv   string `mapstructure:"app_env" validate:"oneof=development production"`
	LogLevel string `mapstructure:"log_level"`
	Port     string `mapstructure:"port" validate:"required,numeric"`

	// HTTPTimeout bounds every outbound provider call.
	HTTPTimeout time.Duration `mapstructure:"http_timeout" validate:"gt=0"`

	// Forecast horizon used when a request does not ask for one.
	ForecastDays int `mapstructure:"forecast_days" validate:"min=1,max=16"`

	// Location used when a request names neither coordinates nor a city (Bologna).
	DefaultLatitude  float64 `mapstructure:"default_latitude" validate:"latitude"`
	DefaultLongitude float64 `mapstructure:"default_longitude" validate:"longitude"`

	// Forecast cache retention.
	CacheTTL        time.Duration `mapstructure:"cache_ttl" validate:"gte=0"`
	CacheMaxEntries int           `mapstructure:"cache_max_entries" validate:"gte=0"`

	// Provider retry policy: the n-th retry waits factor * 2^n seconds, capped at ProviderMaxBackoff.
	ProviderRetries       int           `mapstructure:"provider_retries" validate:"gte=0,lte=10"`
	ProviderBackoffFactor float64       `mapstructure:"provider_backoff_factor" validate:"gt=0"`
	ProviderMaxBackoff    time.Duration `mapstructure:"provider_max_backoff" validate:"gt=0"`

	// Redis cache; empty address keeps the cache in memory.
	RedisAddr     string `mapstructure:"redis_addr"`
	RedisPassword string `mapstructure:"redis_password"`
	RedisDB       int    `mapstructure:"redis_db" validate:"gte=0"`

	// SchedulerInterval controls how often watched locations are refreshed; at least a minute.
	SchedulerInterval time.Duration `mapstructure:"scheduler_interval" validate:"min=1m"`

	// Locations kept warm in the cache by the scheduler.
	WatchLocations []weather.Location `mapstructure:"-"`

	OpenWeatherAPIKey string `mapstructure:"openweather_api_key"`
	WeatherAPIKey     string `mapstructure:"weatherapi_api_key"`
	GeocoderAPIKey    string `mapstructure:"geocoder_api_key"`

	// ScoreWorkers > 1 scores long series concurrently.
	ScoreWorkers int `mapstructure:"score_workers" validate:"gte=1"`
}

var defaults = map[string]any{
	"app_env":                 "development",
	"log_level":               "info",
	"port":                    "8080",
	"http_timeout":            "10s",
	"forecast_days":           7,
	"default_latitude":        44.59,
	"default_longitude":       11.34,
	"cache_ttl":               "1h",
	"cache_max_entries":       256,
	"provider_retries":        5,
	"provider_backoff_factor": 0.2,
	"provider_max_backoff":    "5s",
	"redis_addr":              "",
	"redis_password":          "",
	"redis_db":                0,
	"scheduler_interval":      "30m",
	"watch_locations":         "",
	"openweather_api_key":     "",
	"weatherapi_api_key":      "",
	"geocoder_api_key":        "",
	"score_workers":           1,
}

var validate = validator.New()

// Load reads configuration from .env, an optional config.yaml and the environment, in
// increasing order of precedence, with sensible defaults.
func Load() (*AppConfig, error) {
	// .env is optional.
	_ = godotenv.Load()

	v := viper.New()
	for k, def := range defaults {
		v.SetDefault(k, def)
	}

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	cfg := &AppConfig{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	locs, err := ParseLocations(v.GetString("watch_locations"))
	if err != nil {
		return nil, fmt.Errorf("invalid WATCH_LOCATIONS: %w", err)
	}
	cfg.WatchLocations = locs

	if err := validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// DefaultLocation is the location served when a request does not name one.
func (c *AppConfig) DefaultLocation() weather.Location {
	return weather.Location{Latitude: c.DefaultLatitude, Longitude: c.DefaultLongitude}
}

// ParseLocations parses "lat,lon;lat,lon". An empty string yields no locations.
func ParseLocations(s string) ([]weather.Location, error) {
	var locs []weather.Location
	for _, pair := range strings.Split(s, ";") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}

		parts := strings.Split(pair, ",")
		if len(parts) != 2 {
			return nil, fmt.Errorf("expected lat,lon, got %q", pair)
		}
		lat, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
		if err != nil || lat < -90 || lat > 90 {
			return nil, fmt.Errorf("invalid latitude in %q", pair)
		}
		lon, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
		if err != nil || lon < -180 || lon > 180 {
			return nil, fmt.Errorf("invalid longitude in %q", pair)
		}

		locs = append(locs, weather.Location{Latitude: lat, Longitude: lon})
	}
	return locs, nil
}
