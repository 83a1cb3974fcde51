package activity

import (
	"math"
	"time"
)

// SynodicMonth is the mean length of a lunar cycle in days.
const SynodicMonth = 29.53

// referenceNewMoon is the new moon every phase is measured from.
var referenceNewMoon = time.Date(2000, time.January, 6, 0, 0, 0, 0, time.UTC)

// LunarPhase returns the position of t within the synodic cycle, in [0,1).
// 0 is new moon, 0.5 full moon.
//
// The wall clock of t is used as is: a forecast hour at 06:00 local time counts as 06:00 on
// that calendar day, whatever its offset from UTC.
func LunarPhase(t time.Time) float64 {
	wall := time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), time.UTC)

	secs := float64(wall.Unix()-referenceNewMoon.Unix()) + float64(wall.Nanosecond())/1e9
	days := secs / 86400

	phase := math.Mod(days, SynodicMonth) / SynodicMonth
	if phase < 0 {
		phase++
	}
	if phase >= 1 {
		phase = 0
	}
	return phase
}
