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

// OpenWeatherProvider implements weather.ForecastProvider for the OpenWeatherMap 5 day / 3 hour forecast.
// Every 3-hour step becomes one observation whose rain is the per-hour share of the step.
type OpenWeatherProvider struct {
	name    string
	apiKey  string
	baseURL string
	httpCfg HTTPClientConfig
	circuit *gobreaker.CircuitBreaker
}

func NewOpenWeatherProvider(client *http.Client, apiKey string, backoff BackoffConfig) *OpenWeatherProvider {
	return &OpenWeatherProvider{
		name:    "openweathermap",
		apiKey:  apiKey,
		baseURL: "https://api.openweathermap.org/data/2.5/forecast",
		httpCfg: HTTPClientConfig{
			Client:  client,
			Backoff: backoff,
		},
		circuit: newCircuitBreaker("openweather"),
	}
}

func (p *OpenWeatherProvider) Name() string {
	return p.name
}

type openWeatherPayload struct {
	City struct {
		// Timezone is the shift from UTC in seconds.
		Timezone int `json:"timezone"`
	} `json:"city"`
	List []struct {
		Dt   int64 `json:"dt"`
		Main struct {
			Temp      float64 `json:"temp"`
			Pressure  float64 `json:"pressure"`
			GrndLevel float64 `json:"grnd_level"`
		} `json:"main"`
		Wind struct {
			Speed float64 `json:"speed"`
		} `json:"wind"`
		Clouds struct {
			All float64 `json:"all"`
		} `json:"clouds"`
		Rain struct {
			ThreeH float64 `json:"3h"`
		} `json:"rain"`
	} `json:"list"`
}

func (p *OpenWeatherProvider) FetchForecast(ctx context.Context, loc weather.Location, days int) ([]weather.Observation, error) {
	if p.apiKey == "" {
		return nil, fmt.Errorf("openweather: %w", errMissingAPIKey)
	}

	buildRequest := func(ctx context.Context) (*http.Request, error) {
		values := url.Values{}
		values.Set("appid", p.apiKey)
		values.Set("units", "metric")
		values.Set("lat", strconv.FormatFloat(loc.Latitude, 'f', 4, 64))
		values.Set("lon", strconv.FormatFloat(loc.Longitude, 'f', 4, 64))
		// 8 steps of 3 hours per day; the API caps the list at 40 entries.
		values.Set("cnt", strconv.Itoa(min(days*8, 40)))

		u := fmt.Sprintf("%s?%s", p.baseURL, values.Encode())
		return http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	}

	resp, err := doRequestWithResilience(ctx, p.httpCfg, p.circuit, buildRequest)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var payload openWeatherPayload
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("openweather: decode response: %w", err)
	}

	// Steps are reported in the local time of the forecast city.
	tz := time.UTC
	if payload.City.Timezone != 0 {
		tz = time.FixedZone("", payload.City.Timezone)
	}

	out := make([]weather.Observation, 0, len(payload.List))
	for _, item := range payload.List {
		// Ground level pressure is closest to the surface pressure Open-Meteo reports.
		pressure := item.Main.GrndLevel
		if pressure == 0 {
			pressure = item.Main.Pressure
		}

		out = append(out, weather.Observation{
			Timestamp:   time.Unix(item.Dt, 0).In(tz),
			Temperature: item.Main.Temp,
			Pressure:    pressure,
			WindSpeed:   item.Wind.Speed * 3.6,
			CloudCover:  item.Clouds.All,
			Rain:        item.Rain.ThreeH / 3,
		})
	}

	return out, nil
}
