package weather

import (
	"context"
	"errors"
)

var (
	// ErrCacheMiss is returned by a Cache when it holds no fresh forecast for a key.
	ErrCacheMiss = errors.New("forecast not cached")
	// ErrNoProviders is returned when the service has no forecast providers configured.
	ErrNoProviders = errors.New("no forecast providers configured")
	// ErrNoForecastData is returned when every provider failed or returned nothing.
	ErrNoForecastData = errors.New("no forecast data available")
	// ErrInvalidDays is returned for a forecast horizon outside MinForecastDays..MaxForecastDays.
	ErrInvalidDays = errors.New("invalid forecast horizon")
)

// ForecastProvider abstracts an hourly forecast source (e.g. Open-Meteo, OpenWeatherMap, WeatherAPI).
type ForecastProvider interface {
	Name() string
	FetchForecast(ctx context.Context, loc Location, days int) ([]Observation, error)
}

// Cache is the contract the in-memory cache (and the Redis one) must satisfy.
type Cache interface {
	Get(ctx context.Context, key string) (Forecast, error)
	Set(ctx context.Context, key string, forecast Forecast) error
}
