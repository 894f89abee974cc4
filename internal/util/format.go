package util

import (
	"fmt"
	"math"
	"time"
)

// minuteEpsilon absorbs float error when splitting decimal hours back into minutes.
const minuteEpsilon = 1e-9

// FormatDuration renders d as "7h 30m" or "45m", truncating to whole minutes.
func FormatDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	hours := int(d / time.Hour)
	minutes := int((d % time.Hour) / time.Minute)

	if hours > 0 {
		return fmt.Sprintf("%dh %dm", hours, minutes)
	}
	return fmt.Sprintf("%dm", minutes)
}

// HourOfDay encodes the wall-clock time of t as hour + minute/60.
func HourOfDay(t time.Time) float64 {
	return float64(t.Hour()) + float64(t.Minute())/60
}

// FormatHourOfDay renders a decimal hour as "HH:MM", truncating to whole minutes.
func FormatHourOfDay(hour float64) string {
	if hour < 0 {
		hour = 0
	}
	whole := math.Floor(hour)
	minutes := int(math.Floor((hour-whole)*60 + minuteEpsilon))
	h := int(whole)
	if minutes >= 60 {
		h++
		minutes -= 60
	}
	return fmt.Sprintf("%02d:%02d", h%24, minutes)
}

// FormatHours renders a decimal hour count as a duration string, e.g. 7.5 -> "7h 30m".
func FormatHours(hours float64) string {
	if hours <= 0 {
		return FormatDuration(0)
	}
	minutes := math.Floor(hours*60 + minuteEpsilon)
	return FormatDuration(time.Duration(minutes) * time.Minute)
}

// FormatOptionalHour renders a possibly absent decimal hour, using placeholder when nil.
func FormatOptionalHour(hour *float64, placeholder string) string {
	if hour == nil {
		return placeholder
	}
	return FormatHourOfDay(*hour)
}

// FormatElapsed renders the time since start as a duration string.
func FormatElapsed(start, now time.Time) string {
	return FormatDuration(now.Sub(start))
}
