package activity

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSpecies(t *testing.T) {
	tests := map[string]Species{
		"pike":          Pike,
		"Luccio":        Pike,
		" PIKE ":        Pike,
		"trout_perch":   TroutPerch,
		"persico trota": TroutPerch,
		"Black Bass":    TroutPerch,
	}
	for in, want := range tests {
		got, err := ParseSpecies(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseSpecies("carp")
	assert.ErrorIs(t, err, ErrInvalidSpecies)
}

func TestProfileOf(t *testing.T) {
	p, err := ProfileOf(Pike)
	require.NoError(t, err)
	assert.Equal(t, Range{Min: 10, Max: 22}, p.IdealTemperature)
	assert.Equal(t, 1015.0, p.IdealPressure)

	p, err = ProfileOf(TroutPerch)
	require.NoError(t, err)
	assert.Equal(t, Range{Min: 18, Max: 26}, p.IdealTemperature)
	assert.Equal(t, 1020.0, p.IdealPressure)

	_, err = ProfileOf("eel")
	assert.ErrorIs(t, err, ErrInvalidSpecies)
}

func TestProfileOf_ReturnsCopy(t *testing.T) {
	p, err := ProfileOf(Pike)
	require.NoError(t, err)
	p.Rain[0].Multiplier = 99

	again, err := ProfileOf(Pike)
	require.NoError(t, err)
	assert.Equal(t, 1.3, again.Rain[0].Multiplier)
}

func TestProfile_JSON(t *testing.T) {
	p, err := ProfileOf(TroutPerch)
	require.NoError(t, err)

	raw, err := json.Marshal(p)
	require.NoError(t, err)

	var decoded struct {
		Species string `json:"species"`
		Rain    []struct {
			UpTo       *float64 `json:"upTo"`
			Multiplier float64  `json:"multiplier"`
		} `json:"rainTiersMm"`
	}
	require.NoError(t, json.Unmarshal(raw, &decoded))

	assert.Equal(t, "trout_perch", decoded.Species)
	require.Len(t, decoded.Rain, 3)
	require.NotNil(t, decoded.Rain[0].UpTo)
	assert.Equal(t, 2.0, *decoded.Rain[0].UpTo)
	assert.Nil(t, decoded.Rain[2].UpTo)
	assert.Equal(t, 0.7, decoded.Rain[2].Multiplier)
}
