package utils

// Constants
const (
	// DATE_LAYOUT is the day-month abbreviation-year form the search endpoint expects, e.g. 22-Jun-2024.
	DATE_LAYOUT = "02-Jan-2006"
	// ISO_DATE_LAYOUT is accepted in configuration files alongside DATE_LAYOUT.
	ISO_DATE_LAYOUT = "2006-01-02"
	// CLOCK_LAYOUT is the raw 24-hour time-of-day form used by the upstream listings.
	CLOCK_LAYOUT = "15:04"
)
