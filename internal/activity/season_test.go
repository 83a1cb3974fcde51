package activity

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSeasonOf(t *testing.T) {
	want := map[time.Month]Season{
		time.January:   Winter,
		time.February:  Winter,
		time.March:     Spring,
		time.April:     Spring,
		time.May:       Spring,
		time.June:      Summer,
		time.July:      Summer,
		time.August:    Summer,
		time.September: Autumn,
		time.October:   Autumn,
		time.November:  Autumn,
		time.December:  Winter,
	}

	for m := time.January; m <= time.December; m++ {
		assert.Equal(t, want[m], SeasonOf(m), "month %s", m)
	}
}

func TestSeasonOf_OutOfRange(t *testing.T) {
	assert.Equal(t, Season(""), SeasonOf(13))
	assert.Equal(t, 0.0, profiles[Pike].Seasonal.For(SeasonOf(0)))
}
