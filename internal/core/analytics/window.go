// Package analytics builds per-day chart series and summary statistics over a
// contiguous window of calendar days.
package analytics

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"cloud.google.com/go/civil"
	"github.com/penwyp/go-sleep-monitor/internal/core/constants"
	"github.com/penwyp/go-sleep-monitor/internal/core/model"
)

var (
	ErrUnknownRange  = errors.New("unknown date range")
	ErrInvalidWindow = errors.New("invalid date window")
)

// DateRange names a window relative to today.
type DateRange string

const (
	RangeLast7Days  DateRange = "7days"
	RangeLast30Days DateRange = "30days"
	RangeThisMonth  DateRange = "thisMonth"
	RangeLastMonth  DateRange = "lastMonth"
)

// Ranges lists the supported named ranges in display order.
var Ranges = []DateRange{RangeLast7Days, RangeLast30Days, RangeThisMonth, RangeLastMonth}

var rangeAliases = map[string]DateRange{
	"7days":      RangeLast7Days,
	"7d":         RangeLast7Days,
	"week":       RangeLast7Days,
	"30days":     RangeLast30Days,
	"30d":        RangeLast30Days,
	"thismonth":  RangeThisMonth,
	"this-month": RangeThisMonth,
	"month":      RangeThisMonth,
	"lastmonth":  RangeLastMonth,
	"last-month": RangeLastMonth,
}

// ParseDateRange accepts the canonical range names and a few CLI-friendly aliases.
func ParseDateRange(s string) (DateRange, error) {
	if r, ok := rangeAliases[strings.ToLower(strings.TrimSpace(s))]; ok {
		return r, nil
	}
	return "", fmt.Errorf("%w: %q (valid: 7days, 30days, thisMonth, lastMonth)", ErrUnknownRange, s)
}

// Window is an inclusive span of calendar days.
type Window struct {
	Start civil.Date `json:"start"`
	End   civil.Date `json:"end"`
}

// NewWindow builds an explicit window.
func NewWindow(start, end civil.Date) (Window, error) {
	if !start.IsValid() || !end.IsValid() {
		return Window{}, fmt.Errorf("%w: invalid date %s..%s", ErrInvalidWindow, start, end)
	}
	if end.Before(start) {
		return Window{}, fmt.Errorf("%w: end %s is before start %s", ErrInvalidWindow, end, start)
	}
	return Window{Start: start, End: end}, nil
}

// Resolve turns a named range into concrete dates, using now's location for "today".
func Resolve(r DateRange, now time.Time) (Window, error) {
	today := civil.DateOf(now)

	switch r {
	case RangeLast7Days:
		return Window{Start: today.AddDays(-(constants.TrailingWeekDays - 1)), End: today}, nil
	case RangeLast30Days:
		return Window{Start: today.AddDays(-(constants.TrailingMonthDays - 1)), End: today}, nil
	case RangeThisMonth:
		return monthWindow(today.Year, today.Month), nil
	case RangeLastMonth:
		prev := time.Date(today.Year, today.Month-1, 1, 0, 0, 0, 0, time.UTC)
		return monthWindow(prev.Year(), prev.Month()), nil
	default:
		return Window{}, fmt.Errorf("%w: %q", ErrUnknownRange, r)
	}
}

func monthWindow(year int, month time.Month) Window {
	last := time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC)
	return Window{
		Start: civil.Date{Year: year, Month: month, Day: 1},
		End:   civil.DateOf(last),
	}
}

// Len is the number of days in the window.
func (w Window) Len() int {
	return w.End.DaysSince(w.Start) + 1
}

// Days lists every date in the window in ascending order.
func (w Window) Days() []civil.Date {
	n := w.Len()
	if n <= 0 {
		return nil
	}
	days := make([]civil.Date, 0, n)
	for d := w.Start; !d.After(w.End); d = d.AddDays(1) {
		days = append(days, d)
	}
	return days
}

// Contains reports whether d falls inside the window.
func (w Window) Contains(d civil.Date) bool {
	return !d.Before(w.Start) && !d.After(w.End)
}

// FilterBuckets keeps the buckets dated inside the window, preserving order.
func (w Window) FilterBuckets(buckets []model.DailyBucket) []model.DailyBucket {
	filtered := make([]model.DailyBucket, 0, len(buckets))
	for _, b := range buckets {
		if w.Contains(b.Date) {
			filtered = append(filtered, b)
		}
	}
	return filtered
}

func (w Window) String() string {
	if w.Start == w.End {
		return w.Start.String()
	}
	return w.Start.String() + " to " + w.End.String()
}
