package util

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		name     string
		input    time.Duration
		expected string
	}{
		{name: "zero duration", input: 0, expected: "0m"},
		{name: "minutes only", input: 45 * time.Minute, expected: "45m"},
		{name: "exactly 1 hour", input: time.Hour, expected: "1h 0m"},
		{name: "main sleep", input: 7*time.Hour + 30*time.Minute, expected: "7h 30m"},
		{name: "seconds truncated", input: 6*time.Hour + 59*time.Minute + 59*time.Second, expected: "6h 59m"},
		{name: "negative clamps to zero", input: -30 * time.Minute, expected: "0m"},
		{name: "very long duration", input: 30 * time.Hour, expected: "30h 0m"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, FormatDuration(tt.input))
		})
	}
}

func TestHourOfDay(t *testing.T) {
	tests := []struct {
		name     string
		input    time.Time
		expected float64
	}{
		{name: "midnight", input: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), expected: 0},
		{name: "quarter to three", input: time.Date(2024, 1, 1, 2, 45, 0, 0, time.UTC), expected: 2.75},
		{name: "seconds ignored", input: time.Date(2024, 1, 1, 23, 30, 59, 0, time.UTC), expected: 23.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.expected, HourOfDay(tt.input), 1e-9)
		})
	}
}

func TestFormatHourOfDay(t *testing.T) {
	tests := []struct {
		name     string
		input    float64
		expected string
	}{
		{name: "midnight", input: 0, expected: "00:00"},
		{name: "quarter to three", input: 2.75, expected: "02:45"},
		{name: "thirds survive float error", input: 7 + 20.0/60, expected: "07:20"},
		{name: "truncates partial minute", input: 23.999, expected: "23:59"},
		{name: "late evening", input: 22.5, expected: "22:30"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, FormatHourOfDay(tt.input))
		})
	}
}

func TestFormatHours(t *testing.T) {
	assert.Equal(t, "0m", FormatHours(0))
	assert.Equal(t, "7h 30m", FormatHours(7.5))
	assert.Equal(t, "8h 20m", FormatHours(8+20.0/60))
	assert.Equal(t, "40m", FormatHours(2.0/3))
}

func TestFormatOptionalHour(t *testing.T) {
	hour := 6.5
	assert.Equal(t, "06:30", FormatOptionalHour(&hour, "-"))
	assert.Equal(t, "-", FormatOptionalHour(nil, "-"))
}

func TestFormatElapsed(t *testing.T) {
	start := time.Date(2024, 1, 1, 23, 0, 0, 0, time.UTC)
	assert.Equal(t, "1h 15m", FormatElapsed(start, start.Add(75*time.Minute)))
}
