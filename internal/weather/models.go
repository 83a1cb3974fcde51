package weather

import (
	"fmt"
	"time"
)

const (
	// MinForecastDays and MaxForecastDays bound the forecast horizon accepted by the service.
	MinForecastDays = 1
	MaxForecastDays = 16
)

// Location is a coordinate we fetch forecasts for.
// Name is informational only (e.g. the geocoded city).
type Location struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Name      string  `json:"name,omitempty"`
}

// Key returns a canonical string key for indexing this location in caches.
func (l Location) Key() string {
	return fmt.Sprintf("%.4f,%.4f", l.Latitude, l.Longitude)
}

// Observation is one forecast hour.
//
// WindSpeed is in km/h; every provider converts to that unit.
// Rain is the amount accumulated during the hour in millimeters.
type Observation struct {
	Timestamp   time.Time `json:"timestamp"`
	Temperature float64   `json:"temperatureC"`
	Pressure    float64   `json:"pressureHpa"`
	WindSpeed   float64   `json:"windSpeedKmh"`
	CloudCover  float64   `json:"cloudCoverPercent"`
	Rain        float64   `json:"rainMm"`
}

// Forecast is an hourly forecast for a location, ordered by Timestamp ascending.
type Forecast struct {
	Location     Location      `json:"location"`
	Days         int           `json:"days"`
	Providers    []string      `json:"providers,omitempty"`
	GeneratedAt  time.Time     `json:"generatedAt"`
	Observations []Observation `json:"observations"`
}
