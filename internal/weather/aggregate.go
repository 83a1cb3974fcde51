package weather

import (
	"sort"
	"time"
)

// AggregateHourly combines the hourly forecasts of several providers into a single Forecast.
// Every reading is converted to one forecast zone (see forecastZone) and bucketed by its
// wall-clock hour there, so half-hour offsets keep their local hours. Numeric fields are
// averaged across the providers that reported that hour. The result is ordered by Timestamp
// ascending and every Timestamp is in the forecast zone.
func AggregateHourly(loc Location, days int, readings map[string][]Observation) Forecast {
	type bucket struct {
		ts       time.Time
		sumTemp  float64
		sumPress float64
		sumWind  float64
		sumCloud float64
		sumRain  float64
		n        int
	}

	providers := make([]string, 0, len(readings))
	for name, obs := range readings {
		if len(obs) > 0 {
			providers = append(providers, name)
		}
	}
	sort.Strings(providers)

	zone := forecastZone(providers, readings)

	buckets := make(map[int64]*bucket)
	for _, name := range providers {
		for _, o := range readings[name] {
			hour := wallHour(o.Timestamp.In(zone))
			k := hour.Unix()

			b, ok := buckets[k]
			if !ok {
				b = &bucket{ts: hour}
				buckets[k] = b
			}
			b.sumTemp += o.Temperature
			b.sumPress += o.Pressure
			b.sumWind += o.WindSpeed
			b.sumCloud += o.CloudCover
			b.sumRain += o.Rain
			b.n++
		}
	}

	keys := make([]int64, 0, len(buckets))
	for k := range buckets {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })

	observations := make([]Observation, 0, len(keys))
	for _, k := range keys {
		b := buckets[k]
		n := float64(b.n)
		observations = append(observations, Observation{
			Timestamp:   b.ts,
			Temperature: b.sumTemp / n,
			Pressure:    b.sumPress / n,
			WindSpeed:   b.sumWind / n,
			CloudCover:  b.sumCloud / n,
			Rain:        b.sumRain / n,
		})
	}

	return Forecast{
		Location:     loc,
		Days:         days,
		Providers:    providers,
		GeneratedAt:  time.Now().UTC(),
		Observations: observations,
	}
}

// forecastZone is the zone of the first provider (by name) reporting local time, or UTC when
// every provider reports UTC.
func forecastZone(providers []string, readings map[string][]Observation) *time.Location {
	if len(providers) == 0 {
		return time.UTC
	}
	for _, name := range providers {
		if loc := readings[name][0].Timestamp.Location(); loc != time.UTC {
			return loc
		}
	}
	return time.UTC
}

// wallHour truncates t to the start of its wall-clock hour.
func wallHour(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), 0, 0, 0, t.Location())
}
