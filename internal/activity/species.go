package activity

import (
	"encoding/json"
	"fmt"
	"math"
	"slices"
	"strings"
)

// Species is the closed set of fish the scorer knows about.
type Species string

const (
	Pike       Species = "pike"
	TroutPerch Species = "trout_perch"
)

// Range is an inclusive interval.
type Range struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// Tier applies Multiplier to values up to and including UpTo.
type Tier struct {
	UpTo       float64 `json:"upTo"`
	Multiplier float64 `json:"multiplier"`
}

// MarshalJSON encodes the open-ended tier with a null bound.
func (t Tier) MarshalJSON() ([]byte, error) {
	type tier struct {
		UpTo       *float64 `json:"upTo"`
		Multiplier float64  `json:"multiplier"`
	}
	out := tier{Multiplier: t.Multiplier}
	if !math.IsInf(t.UpTo, 1) {
		out.UpTo = &t.UpTo
	}
	return json.Marshal(out)
}

// SeasonalMultipliers holds one multiplier per season.
type SeasonalMultipliers struct {
	Winter float64 `json:"winter"`
	Spring float64 `json:"spring"`
	Summer float64 `json:"summer"`
	Autumn float64 `json:"autumn"`
}

// For returns the multiplier of season s, or 0 when s is not a known season.
func (m SeasonalMultipliers) For(s Season) float64 {
	switch s {
	case Winter:
		return m.Winter
	case Spring:
		return m.Spring
	case Summer:
		return m.Summer
	case Autumn:
		return m.Autumn
	}
	return 0
}

// Profile carries the tunable parameters of a species.
// Rain and Wind tiers are sorted by UpTo; the last tier is open ended.
type Profile struct {
	Species          Species             `json:"species"`
	Name             string              `json:"name"`
	IdealTemperature Range               `json:"idealTemperatureC"`
	IdealPressure    float64             `json:"idealPressureHpa"`
	Seasonal         SeasonalMultipliers `json:"seasonal"`
	Rain             []Tier              `json:"rainTiersMm"`
	Wind             []Tier              `json:"windTiersKmh"`
}

var defaultWindTiers = []Tier{
	{UpTo: 5, Multiplier: 1.0},
	{UpTo: 15, Multiplier: 0.9},
	{UpTo: math.Inf(1), Multiplier: 0.5},
}

var profiles = map[Species]Profile{
	Pike: {
		Species:          Pike,
		Name:             "Pike",
		IdealTemperature: Range{Min: 10, Max: 22},
		IdealPressure:    1015,
		Seasonal:         SeasonalMultipliers{Winter: 0.8, Spring: 1.15, Summer: 0.9, Autumn: 1.2},
		Rain: []Tier{
			{UpTo: 2, Multiplier: 1.3},
			{UpTo: 10, Multiplier: 1.1},
			{UpTo: math.Inf(1), Multiplier: 0.6},
		},
		Wind: defaultWindTiers,
	},
	TroutPerch: {
		Species:          TroutPerch,
		Name:             "Trout perch (black bass)",
		IdealTemperature: Range{Min: 18, Max: 26},
		IdealPressure:    1020,
		Seasonal:         SeasonalMultipliers{Winter: 0.7, Spring: 1.2, Summer: 0.9, Autumn: 1.15},
		Rain: []Tier{
			{UpTo: 2, Multiplier: 1.2},
			{UpTo: 10, Multiplier: 1.0},
			{UpTo: math.Inf(1), Multiplier: 0.7},
		},
		Wind: defaultWindTiers,
	},
}

var aliases = map[string]Species{
	"pike":            Pike,
	"luccio":          Pike,
	"trout_perch":     TroutPerch,
	"trout perch":     TroutPerch,
	"persico trota":   TroutPerch,
	"persico_trota":   TroutPerch,
	"black bass":      TroutPerch,
	"largemouth bass": TroutPerch,
}

// AllSpecies lists every supported species in a stable order.
func AllSpecies() []Species {
	return []Species{Pike, TroutPerch}
}

// ParseSpecies resolves a species name or one of its common aliases (case-insensitive).
func ParseSpecies(name string) (Species, error) {
	s, ok := aliases[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrInvalidSpecies, name)
	}
	return s, nil
}

// ProfileOf returns the parameters of s.
func ProfileOf(s Species) (Profile, error) {
	p, err := lookupProfile(s)
	if err != nil {
		return Profile{}, err
	}
	p.Rain = slices.Clone(p.Rain)
	p.Wind = slices.Clone(p.Wind)
	return p, nil
}

func lookupProfile(s Species) (Profile, error) {
	p, ok := profiles[s]
	if !ok {
		return Profile{}, fmt.Errorf("%w: %q", ErrInvalidSpecies, string(s))
	}
	return p, nil
}
