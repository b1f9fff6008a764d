package model

import "time"

// Season is a Southern Hemisphere meteorological season.
type Season string

const (
	Summer Season = "Summer"
	Autumn Season = "Autumn"
	Winter Season = "Winter"
	Spring Season = "Spring"

	// SeasonAll selects every day regardless of month.
	SeasonAll Season = "All"
)

// Seasons lists the four real seasons in calendar-year order starting at Summer.
var Seasons = []Season{Summer, Autumn, Winter, Spring}

func SeasonOf(m time.Month) Season {
	switch m {
	case time.December, time.January, time.February:
		return Summer
	case time.March, time.April, time.May:
		return Autumn
	case time.June, time.July, time.August:
		return Winter
	default:
		return Spring
	}
}

// Contains reports whether a day of season other is selected by s.
func (s Season) Contains(other Season) bool {
	return s == SeasonAll || s == other
}

func (s Season) Valid() bool {
	switch s {
	case Summer, Autumn, Winter, Spring, SeasonAll:
		return true
	}
	return false
}
