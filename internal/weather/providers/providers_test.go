package providers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/i474232898/fish-activity/internal/weather"
)

var bologna = weather.Location{Latitude: 44.59, Longitude: 11.34}

func jsonServer(t *testing.T, body string, check func(r *http.Request)) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if check != nil {
			check(r)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

const openMeteoBody = `{
  "timezone": "UTC",
  "hourly": {
    "time": ["2024-05-01T00:00", "2024-05-01T01:00", "2024-05-01T02:00"],
    "temperature_2m": [12.5, 12.0, null],
    "wind_speed_10m": [7.2, 5.4, 3.0],
    "surface_pressure": [1003.1, 1003.4, 1003.9],
    "cloud_cover": [80, 60, 40],
    "rain": [0.2, 0.0, 0.0]
  }
}`

func TestOpenMeteoProvider_FetchForecast(t *testing.T) {
	srv := jsonServer(t, openMeteoBody, func(r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "44.5900", q.Get("latitude"))
		assert.Equal(t, "11.3400", q.Get("longitude"))
		assert.Equal(t, "2", q.Get("forecast_days"))
		assert.Equal(t, openMeteoHourlyFields, q.Get("hourly"))
	})

	p := NewOpenMeteoProvider(srv.Client(), fastBackoff)
	p.baseURL = srv.URL

	obs, err := p.FetchForecast(context.Background(), bologna, 2)
	require.NoError(t, err)

	// The third hour has a null temperature and is skipped.
	require.Len(t, obs, 2)
	assert.True(t, obs[0].Timestamp.Equal(time.Date(2024, time.May, 1, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, 12.5, obs[0].Temperature)
	assert.Equal(t, 1003.1, obs[0].Pressure)
	assert.Equal(t, 7.2, obs[0].WindSpeed)
	assert.Equal(t, 80.0, obs[0].CloudCover)
	assert.Equal(t, 0.2, obs[0].Rain)
	assert.Equal(t, "openmeteo", p.Name())
}

func TestOpenMeteoPayload_Malformed(t *testing.T) {
	var pl openMeteoPayload
	pl.Hourly.Time = []string{"2024-05-01T00:00"}
	_, err := pl.observations()
	assert.ErrorIs(t, err, errBadPayload)

	v := 1.0
	pl.Hourly.Time = []string{"yesterday"}
	pl.Hourly.Temperature2m = []*float64{&v}
	pl.Hourly.WindSpeed10m = []*float64{&v}
	pl.Hourly.SurfacePressure = []*float64{&v}
	pl.Hourly.CloudCover = []*float64{&v}
	pl.Hourly.Rain = []*float64{&v}
	_, err = pl.observations()
	assert.ErrorIs(t, err, errBadPayload)
}

func TestOpenMeteoProvider_DecodeError(t *testing.T) {
	srv := jsonServer(t, `{"hourly":`, nil)
	p := NewOpenMeteoProvider(srv.Client(), fastBackoff)
	p.baseURL = srv.URL

	_, err := p.FetchForecast(context.Background(), bologna, 1)
	assert.ErrorContains(t, err, "openmeteo: decode response")
}

const openWeatherBody = `{
  "city": {"name": "Bologna", "timezone": 7200},
  "list": [
    {"dt": 1714521600, "main": {"temp": 14.2, "pressure": 1015, "grnd_level": 1001},
     "wind": {"speed": 2.5}, "clouds": {"all": 75}, "rain": {"3h": 0.9}},
    {"dt": 1714532400, "main": {"temp": 15.0, "pressure": 1014},
     "wind": {"speed": 1.0}, "clouds": {"all": 20}}
  ]
}`

func TestOpenWeatherProvider_FetchForecast(t *testing.T) {
	srv := jsonServer(t, openWeatherBody, func(r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "secret", q.Get("appid"))
		assert.Equal(t, "metric", q.Get("units"))
		assert.Equal(t, "40", q.Get("cnt"))
	})

	p := NewOpenWeatherProvider(srv.Client(), "secret", fastBackoff)
	p.baseURL = srv.URL

	obs, err := p.FetchForecast(context.Background(), bologna, 7)
	require.NoError(t, err)
	require.Len(t, obs, 2)

	assert.True(t, obs[0].Timestamp.Equal(time.Unix(1714521600, 0)))
	// 2024-05-01 00:00 UTC in the city's local time.
	_, offset := obs[0].Timestamp.Zone()
	assert.Equal(t, 7200, offset)
	assert.Equal(t, 2, obs[0].Timestamp.Hour())
	assert.Equal(t, 14.2, obs[0].Temperature)
	assert.Equal(t, 1001.0, obs[0].Pressure)
	assert.InDelta(t, 9.0, obs[0].WindSpeed, 1e-9)
	assert.InDelta(t, 0.3, obs[0].Rain, 1e-9)

	// Without a ground level reading the sea level pressure is used.
	assert.Equal(t, 1014.0, obs[1].Pressure)
	assert.Zero(t, obs[1].Rain)
}

func TestOpenWeatherProvider_NoCityTimezone(t *testing.T) {
	srv := jsonServer(t, `{"list": [{"dt": 1714521600, "main": {"temp": 10, "pressure": 1010}}]}`, nil)
	p := NewOpenWeatherProvider(srv.Client(), "secret", fastBackoff)
	p.baseURL = srv.URL

	obs, err := p.FetchForecast(context.Background(), bologna, 1)
	require.NoError(t, err)
	require.Len(t, obs, 1)
	assert.Equal(t, time.UTC, obs[0].Timestamp.Location())
}

func TestOpenWeatherProvider_MissingKey(t *testing.T) {
	p := NewOpenWeatherProvider(http.DefaultClient, "", fastBackoff)
	_, err := p.FetchForecast(context.Background(), bologna, 1)
	assert.ErrorIs(t, err, errMissingAPIKey)
}

const weatherAPIBody = `{
  "location": {"tz_id": "UTC"},
  "forecast": {"forecastday": [
    {"hour": [
      {"time_epoch": 1714521600, "temp_c": 11.1, "wind_kph": 13.0, "pressure_mb": 1012, "cloud": 90, "precip_mm": 1.4},
      {"time_epoch": 1714525200, "temp_c": 10.8, "wind_kph": 9.0, "pressure_mb": 1013, "cloud": 85, "precip_mm": 0.6}
    ]},
    {"hour": [
      {"time_epoch": 1714608000, "temp_c": 9.5, "wind_kph": 4.0, "pressure_mb": 1016, "cloud": 10, "precip_mm": 0}
    ]}
  ]}
}`

func TestWeatherAPIProvider_FetchForecast(t *testing.T) {
	srv := jsonServer(t, weatherAPIBody, func(r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "key", q.Get("key"))
		assert.Equal(t, "44.5900,11.3400", q.Get("q"))
		assert.Equal(t, "2", q.Get("days"))
	})

	p := NewWeatherAPIProvider(srv.Client(), "key", fastBackoff)
	p.baseURL = srv.URL

	obs, err := p.FetchForecast(context.Background(), bologna, 2)
	require.NoError(t, err)
	require.Len(t, obs, 3)

	assert.Equal(t, 11.1, obs[0].Temperature)
	assert.Equal(t, 13.0, obs[0].WindSpeed)
	assert.Equal(t, 1012.0, obs[0].Pressure)
	assert.Equal(t, 90.0, obs[0].CloudCover)
	assert.Equal(t, 1.4, obs[0].Rain)
	assert.True(t, obs[2].Timestamp.Equal(time.Unix(1714608000, 0)))
}

func TestWeatherAPIProvider_ServerErrorExhaustsRetries(t *testing.T) {
	srv, _ := statusSequence(t, http.StatusBadGateway)
	p := NewWeatherAPIProvider(srv.Client(), "key", fastBackoff)
	p.baseURL = srv.URL

	_, err := p.FetchForecast(context.Background(), bologna, 1)
	assert.ErrorIs(t, err, errServerError)
}
