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

// WeatherAPIProvider implements weather.ForecastProvider for WeatherAPI.com hourly forecasts.
type WeatherAPIProvider struct {
	name    string
	apiKey  string
	baseURL string
	httpCfg HTTPClientConfig
	circuit *gobreaker.CircuitBreaker
}

func NewWeatherAPIProvider(client *http.Client, apiKey string, backoff BackoffConfig) *WeatherAPIProvider {
	return &WeatherAPIProvider{
		name:    "weatherapi",
		apiKey:  apiKey,
		baseURL: "https://api.weatherapi.com/v1/forecast.json",
		httpCfg: HTTPClientConfig{
			Client:  client,
			Backoff: backoff,
		},
		circuit: newCircuitBreaker("weatherapi"),
	}
}

func (p *WeatherAPIProvider) Name() string {
	return p.name
}

type weatherAPIPayload struct {
	Location struct {
		TzID string `json:"tz_id"`
	} `json:"location"`
	Forecast struct {
		ForecastDay []struct {
			Hour []struct {
				TimeEpoch  int64   `json:"time_epoch"`
				TempC      float64 `json:"temp_c"`
				WindKph    float64 `json:"wind_kph"`
				PressureMb float64 `json:"pressure_mb"`
				Cloud      float64 `json:"cloud"`
				PrecipMm   float64 `json:"precip_mm"`
			} `json:"hour"`
		} `json:"forecastday"`
	} `json:"forecast"`
}

func (p *WeatherAPIProvider) FetchForecast(ctx context.Context, loc weather.Location, days int) ([]weather.Observation, error) {
	if p.apiKey == "" {
		return nil, fmt.Errorf("weatherapi: %w", errMissingAPIKey)
	}

	buildRequest := func(ctx context.Context) (*http.Request, error) {
		values := url.Values{}
		values.Set("key", p.apiKey)
		// WeatherAPI uses "q" for location; it accepts "lat,lon".
		values.Set("q", fmt.Sprintf("%.4f,%.4f", loc.Latitude, loc.Longitude))
		values.Set("days", strconv.Itoa(days))
		values.Set("aqi", "no")
		values.Set("alerts", "no")

		u := fmt.Sprintf("%s?%s", p.baseURL, values.Encode())
		return http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	}

	resp, err := doRequestWithResilience(ctx, p.httpCfg, p.circuit, buildRequest)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var payload weatherAPIPayload
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("weatherapi: decode response: %w", err)
	}

	tz := time.UTC
	if payload.Location.TzID != "" {
		if l, err := time.LoadLocation(payload.Location.TzID); err == nil {
			tz = l
		}
	}

	var out []weather.Observation
	for _, day := range payload.Forecast.ForecastDay {
		for _, h := range day.Hour {
			out = append(out, weather.Observation{
				Timestamp:   time.Unix(h.TimeEpoch, 0).In(tz),
				Temperature: h.TempC,
				Pressure:    h.PressureMb,
				WindSpeed:   h.WindKph,
				CloudCover:  h.Cloud,
				Rain:        h.PrecipMm,
			})
		}
	}

	return out, nil
}
