package geocode

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/kelvins/geocoder"

	"github.com/i474232898/fish-activity/internal/weather"
)

var (
	// ErrDisabled is returned when no geocoding API key is configured.
	ErrDisabled = errors.New("geocoding is not configured")
	// ErrEmptyQuery is returned when no city is given.
	ErrEmptyQuery = errors.New("city is required")
)

// Resolver turns a city name into coordinates using the Google geocoding API.
type Resolver struct {
	enabled bool
	lookup  func(geocoder.Address) (geocoder.Location, error)
}

// NewResolver configures the geocoder. An empty apiKey yields a disabled resolver.
func NewResolver(apiKey string) *Resolver {
	if apiKey == "" {
		return &Resolver{}
	}
	// The geocoder package keeps its key in a package variable.
	geocoder.ApiKey = apiKey
	return &Resolver{enabled: true, lookup: geocoder.Geocoding}
}

// Enabled reports whether Resolve can be used.
func (r *Resolver) Enabled() bool {
	return r != nil && r.enabled
}

// Resolve returns the location of city (optionally qualified by country).
func (r *Resolver) Resolve(ctx context.Context, city, country string) (weather.Location, error) {
	if !r.Enabled() {
		return weather.Location{}, ErrDisabled
	}
	city = strings.TrimSpace(city)
	if city == "" {
		return weather.Location{}, ErrEmptyQuery
	}
	if err := ctx.Err(); err != nil {
		return weather.Location{}, err
	}

	loc, err := r.lookup(geocoder.Address{City: city, Country: strings.TrimSpace(country)})
	if err != nil {
		return weather.Location{}, fmt.Errorf("geocode %q: %w", city, err)
	}

	name := city
	if country != "" {
		name = city + ", " + country
	}
	return weather.Location{Latitude: loc.Latitude, Longitude: loc.Longitude, Name: name}, nil
}
