package activity

import "time"

// Season of the northern-hemisphere temperate year.
type Season string

const (
	Winter Season = "winter"
	Spring Season = "spring"
	Summer Season = "summer"
	Autumn Season = "autumn"
)

// SeasonOf maps a calendar month to its season:
// winter Dec-Feb, spring Mar-May, summer Jun-Aug, autumn Sep-Nov.
// A month outside 1..12 has no season and yields "".
func SeasonOf(m time.Month) Season {
	switch m {
	case time.December, time.January, time.February:
		return Winter
	case time.March, time.April, time.May:
		return Spring
	case time.June, time.July, time.August:
		return Summer
	case time.September, time.October, time.November:
		return Autumn
	default:
		return ""
	}
}
