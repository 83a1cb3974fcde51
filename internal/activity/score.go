// Package activity scores how favourable a forecast hour is for fish feeding activity.
package activity

import (
	"errors"
	"fmt"
	"math"

	"github.com/i474232898/fish-activity/internal/weather"
)

var (
	// ErrInvalidSpecies is returned for a species outside the supported set.
	ErrInvalidSpecies = errors.New("invalid species")
	// ErrInvalidObservation is returned when an observation carries a NaN or infinite value.
	ErrInvalidObservation = errors.New("invalid observation")
)

const (
	baseScore       = 100.0
	idealCloudCover = 50.0
)

// Breakdown is a scored hour with every factor that went into it.
type Breakdown struct {
	Species    Species `json:"species"`
	Season     Season  `json:"season"`
	LunarPhase float64 `json:"lunarPhase"`

	Lunar       float64 `json:"lunarFactor"`
	Temperature float64 `json:"temperatureFactor"`
	Seasonal    float64 `json:"seasonalFactor"`
	Pressure    float64 `json:"pressureFactor"`
	CloudCover  float64 `json:"cloudCoverFactor"`
	Rain        float64 `json:"rainFactor"`
	Wind        float64 `json:"windFactor"`

	Score float64 `json:"score"`
}

// Score returns the activity score of species s for one forecast hour.
func Score(obs weather.Observation, s Species) (float64, error) {
	b, err := Explain(obs, s)
	if err != nil {
		return 0, err
	}
	return b.Score, nil
}

// Explain scores one forecast hour and reports each factor.
//
// The score starts at 100 and is multiplied by the lunar, temperature, seasonal, pressure,
// cloud cover, rain and wind factors, in that order. The lunar factor is 0 at the new moon,
// so every hour scores 0 then.
func Explain(obs weather.Observation, s Species) (Breakdown, error) {
	p, err := lookupProfile(s)
	if err != nil {
		return Breakdown{}, err
	}
	if err := validateObservation(obs); err != nil {
		return Breakdown{}, err
	}

	phase := LunarPhase(obs.Timestamp)
	season := SeasonOf(obs.Timestamp.Month())

	b := Breakdown{
		Species:     s,
		Season:      season,
		LunarPhase:  phase,
		Lunar:       1 - math.Abs(phase-0.5)*2,
		Temperature: temperatureFactor(obs.Temperature, p.IdealTemperature),
		Seasonal:    p.Seasonal.For(season),
		Pressure:    deviationFactor(obs.Pressure, p.IdealPressure, p.IdealPressure),
		CloudCover:  deviationFactor(obs.CloudCover, idealCloudCover, idealCloudCover),
		Rain:        tierFactor(obs.Rain, p.Rain),
		Wind:        tierFactor(obs.WindSpeed, p.Wind),
	}

	score := baseScore
	for _, f := range [...]float64{b.Lunar, b.Temperature, b.Seasonal, b.Pressure, b.CloudCover, b.Rain, b.Wind} {
		score *= f
	}
	b.Score = score

	return b, nil
}

func validateObservation(obs weather.Observation) error {
	fields := [...]struct {
		name  string
		value float64
	}{
		{"temperature", obs.Temperature},
		{"pressure", obs.Pressure},
		{"wind speed", obs.WindSpeed},
		{"cloud cover", obs.CloudCover},
		{"rain", obs.Rain},
	}
	for _, f := range fields {
		if math.IsNaN(f.value) || math.IsInf(f.value, 0) {
			return fmt.Errorf("%w: %s is %v", ErrInvalidObservation, f.name, f.value)
		}
	}
	return nil
}

// temperatureFactor penalizes quadratically outside the ideal range (zero 10°C beyond it)
// and lightly inside it, down to 0.75 at the range bounds.
func temperatureFactor(t float64, ideal Range) float64 {
	switch {
	case t < ideal.Min:
		d := (ideal.Min - t) / 10
		return math.Max(0, 1-d*d)
	case t > ideal.Max:
		d := (t - ideal.Max) / 10
		return math.Max(0, 1-d*d)
	default:
		center := (ideal.Min + ideal.Max) / 2
		dev := math.Abs(t-center) / ((ideal.Max - ideal.Min) / 2)
		return math.Max(0, 1-dev*dev/4)
	}
}

// deviationFactor is 1 at ideal, 0.75 one scale away, and 0 beyond that.
func deviationFactor(v, ideal, scale float64) float64 {
	dev := math.Abs(v-ideal) / scale
	if dev <= 1 {
		return 1 - dev*dev/4
	}
	return math.Max(0, 1-dev*dev)
}

func tierFactor(v float64, tiers []Tier) float64 {
	for _, t := range tiers {
		if v <= t.UpTo {
			return t.Multiplier
		}
	}
	// Only reachable with a closed last tier.
	return 1
}
