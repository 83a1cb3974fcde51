package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/sony/gobreaker"

	"github.com/i474232898/fish-activity/internal/weather"
)

const openMeteoHourlyFields = "temperature_2m,wind_speed_10m,surface_pressure,cloud_cover,rain"

// OpenMeteoProvider implements weather.ForecastProvider for Open-Meteo.
// It needs no API key and reports wind speed in km/h natively.
type OpenMeteoProvider struct {
	name    string
	baseURL string
	httpCfg HTTPClientConfig
	circuit *gobreaker.CircuitBreaker
}

func NewOpenMeteoProvider(client *http.Client, backoff BackoffConfig) *OpenMeteoProvider {
	return &OpenMeteoProvider{
		name:    "openmeteo",
		baseURL: "https://api.open-meteo.com/v1/forecast",
		httpCfg: HTTPClientConfig{
			Client:  client,
			Backoff: backoff,
		},
		circuit: newCircuitBreaker("openmeteo"),
	}
}

func (p *OpenMeteoProvider) Name() string {
	return p.name
}

type openMeteoPayload struct {
	Timezone string `json:"timezone"`
	Hourly   struct {
		Time            []string   `json:"time"`
		Temperature2m   []*float64 `json:"temperature_2m"`
		WindSpeed10m    []*float64 `json:"wind_speed_10m"`
		SurfacePressure []*float64 `json:"surface_pressure"`
		CloudCover      []*float64 `json:"cloud_cover"`
		Rain            []*float64 `json:"rain"`
	} `json:"hourly"`
}

func (p *OpenMeteoProvider) FetchForecast(ctx context.Context, loc weather.Location, days int) ([]weather.Observation, error) {
	buildRequest := func(ctx context.Context) (*http.Request, error) {
		values := url.Values{}
		values.Set("latitude", strconv.FormatFloat(loc.Latitude, 'f', 4, 64))
		values.Set("longitude", strconv.FormatFloat(loc.Longitude, 'f', 4, 64))
		values.Set("hourly", openMeteoHourlyFields)
		values.Set("forecast_days", strconv.Itoa(days))
		values.Set("timezone", "auto")

		u := fmt.Sprintf("%s?%s", p.baseURL, values.Encode())
		return http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	}

	resp, err := doRequestWithResilience(ctx, p.httpCfg, p.circuit, buildRequest)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var payload openMeteoPayload
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("openmeteo: decode response: %w", err)
	}

	return payload.observations()
}

func (pl openMeteoPayload) observations() ([]weather.Observation, error) {
	h := pl.Hourly
	n := len(h.Time)
	if len(h.Temperature2m) != n || len(h.WindSpeed10m) != n || len(h.SurfacePressure) != n ||
		len(h.CloudCover) != n || len(h.Rain) != n {
		return nil, fmt.Errorf("%w: openmeteo hourly arrays have different lengths", errBadPayload)
	}

	tz := time.UTC
	if pl.Timezone != "" {
		if l, err := time.LoadLocation(pl.Timezone); err == nil {
			tz = l
		}
	}

	out := make([]weather.Observation, 0, n)
	for i, raw := range h.Time {
		ts, err := time.ParseInLocation("2006-01-02T15:04", raw, tz)
		if err != nil {
			return nil, fmt.Errorf("%w: openmeteo time %q: %v", errBadPayload, raw, err)
		}

		// Far-horizon hours can come back as null; they are not observations.
		if h.Temperature2m[i] == nil || h.WindSpeed10m[i] == nil || h.SurfacePressure[i] == nil ||
			h.CloudCover[i] == nil || h.Rain[i] == nil {
			continue
		}

		out = append(out, weather.Observation{
			Timestamp:   ts,
			Temperature: *h.Temperature2m[i],
			Pressure:    *h.SurfacePressure[i],
			WindSpeed:   *h.WindSpeed10m[i],
			CloudCover:  *h.CloudCover[i],
			Rain:        *h.Rain[i],
		})
	}

	return out, nil
}
