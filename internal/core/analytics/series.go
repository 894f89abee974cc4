package analytics

import (
	"fmt"
	"time"

	"cloud.google.com/go/civil"
	"github.com/penwyp/go-sleep-monitor/internal/core/constants"
	"github.com/penwyp/go-sleep-monitor/internal/core/model"
	"github.com/penwyp/go-sleep-monitor/internal/data/aggregator"
	"github.com/penwyp/go-sleep-monitor/internal/util"
)

// BuildSeries emits one point per day of the window, zero-filled where the
// day has no completed cycle. Clock times are read in loc.
func BuildSeries(buckets map[civil.Date]*model.DailyBucket, w Window, loc *time.Location) []model.ChartDataPoint {
	if loc == nil {
		loc = time.Local
	}

	days := w.Days()
	series := make([]model.ChartDataPoint, 0, len(days))
	for _, day := range days {
		var completed []model.SleepCycle
		if b, ok := buckets[day]; ok {
			completed = b.CompletedCycles()
		}
		series = append(series, dayPoint(day, completed, loc))
	}
	return series
}

func dayPoint(day civil.Date, completed []model.SleepCycle, loc *time.Location) model.ChartDataPoint {
	point := model.ChartDataPoint{
		Date:              day,
		Label:             fmt.Sprintf("%02d-%02d", int(day.Month), day.Day),
		DurationFormatted: constants.NoDataLabel,
	}
	if len(completed) == 0 {
		return point
	}

	var total time.Duration
	main := completed[0]
	for _, c := range completed {
		total += c.Duration()
		if c.Duration() > main.Duration() {
			main = c
		}
	}

	sleepHour := util.HourOfDay(main.StartTime.In(loc))
	wakeHour := util.HourOfDay(main.EndTime.In(loc))
	sleepFormatted := util.FormatHourOfDay(sleepHour)
	wakeFormatted := util.FormatHourOfDay(wakeHour)

	point.TotalDurationHours = total.Hours()
	point.SleepHour = &sleepHour
	point.WakeHour = &wakeHour
	point.SleepTimeFormatted = &sleepFormatted
	point.WakeTimeFormatted = &wakeFormatted
	point.DurationFormatted = util.FormatDuration(total)

	if len(completed) > 1 {
		point.Cycles = make([]model.CycleDetail, 0, len(completed))
		for _, c := range completed {
			point.Cycles = append(point.Cycles, model.CycleDetail{
				StartTime: util.FormatHourOfDay(util.HourOfDay(c.StartTime.In(loc))),
				EndTime:   util.FormatHourOfDay(util.HourOfDay(c.EndTime.In(loc))),
				Duration:  util.FormatDuration(c.Duration()),
			})
		}
	}

	return point
}

// Analyze buckets result with agg and builds the window's series and statistics.
// An empty event log yields an empty series rather than a run of zero days.
func Analyze(result model.ReconcileResult, w Window, agg *aggregator.Aggregator) model.AnalyticsReport {
	report := model.AnalyticsReport{
		Start:  w.Start,
		End:    w.End,
		Series: []model.ChartDataPoint{},
	}
	if isEmpty(result) {
		return report
	}

	report.Series = BuildSeries(agg.BucketByDay(result), w, agg.Location())
	report.Statistics = Summarize(report.Series)
	return report
}

func isEmpty(result model.ReconcileResult) bool {
	return len(result.Cycles) == 0 && len(result.UnpairedStarts) == 0 && len(result.UnpairedEnds) == 0
}
