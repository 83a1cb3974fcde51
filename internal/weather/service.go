package weather

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"

	"github.com/sirupsen/logrus"
)

// Service orchestrates fetching hourly forecasts from multiple providers and caching them.
type Service struct {
	cache     Cache
	providers []ForecastProvider
	log       logrus.FieldLogger
}

// NewService creates a new Service.
func NewService(cache Cache, providers []ForecastProvider, log logrus.FieldLogger) *Service {
	return &Service{
		cache:     cache,
		providers: providers,
		log:       log.WithField("component", "weather_service"),
	}
}

// GetForecast returns the cached forecast for loc when it is still fresh,
// otherwise it refreshes it from the providers.
func (s *Service) GetForecast(ctx context.Context, loc Location, days int) (Forecast, error) {
	if err := validateDays(days); err != nil {
		return Forecast{}, err
	}

	key := cacheKey(loc, days)
	cached, err := s.cache.Get(ctx, key)
	if err == nil {
		s.log.WithField("key", key).Debug("serving forecast from cache")
		return cached, nil
	}
	if !errors.Is(err, ErrCacheMiss) {
		// Cache errors are not fatal; fall through to the providers.
		s.log.WithError(err).WithField("key", key).Warn("forecast cache lookup failed")
	}

	return s.Refresh(ctx, loc, days)
}

// Refresh fetches from all providers concurrently for the given location,
// aggregates successful readings hour by hour, and caches the result.
func (s *Service) Refresh(ctx context.Context, loc Location, days int) (Forecast, error) {
	if err := validateDays(days); err != nil {
		return Forecast{}, err
	}

	log := s.log.WithFields(logrus.Fields{"location": loc.Key(), "days": days})
	if len(s.providers) == 0 {
		log.Error("no providers available to fetch forecast")
		return Forecast{}, ErrNoProviders
	}

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		readings = make(map[string][]Observation)
	)

	for _, p := range s.providers {
		wg.Add(1)
		go func(p ForecastProvider) {
			defer wg.Done()

			obs, err := p.FetchForecast(ctx, loc, days)
			if err != nil {
				// Log and continue; we want partial success when possible.
				log.WithError(err).WithField("provider", p.Name()).Warn("provider forecast failed")
				return
			}
			if len(obs) == 0 {
				return
			}

			mu.Lock()
			readings[p.Name()] = obs
			mu.Unlock()
		}(p)
	}

	wg.Wait()

	if len(readings) == 0 {
		log.Warn("no successful provider forecasts")
		return Forecast{}, ErrNoForecastData
	}

	forecast := AggregateHourly(loc, days, readings)
	if len(forecast.Observations) == 0 {
		return Forecast{}, ErrNoForecastData
	}

	if err := s.cache.Set(ctx, cacheKey(loc, days), forecast); err != nil {
		log.WithError(err).Warn("failed to cache forecast")
	}

	log.WithFields(logrus.Fields{
		"providers": forecast.Providers,
		"hours":     len(forecast.Observations),
	}).Info("forecast refreshed")

	return forecast, nil
}

func validateDays(days int) error {
	if days < MinForecastDays || days > MaxForecastDays {
		return fmt.Errorf("%w: %d (allowed %d-%d)", ErrInvalidDays, days, MinForecastDays, MaxForecastDays)
	}
	return nil
}

func cacheKey(loc Location, days int) string {
	return loc.Key() + ":" + strconv.Itoa(days)
}
