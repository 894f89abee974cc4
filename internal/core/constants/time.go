package constants

import "time"

const (
	// Calendar
	Day            = 24 * time.Hour
	MinutesPerHour = 60

	// Trailing analytics windows, inclusive of today
	TrailingWeekDays  = 7
	TrailingMonthDays = 30

	// Backing store fetch bound used by commands and the API
	StoreFetchTimeout = 10 * time.Second

	// Default placeholder for a day without sleep data
	NoDataLabel = "No data"
)
