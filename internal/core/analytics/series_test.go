package analytics

import (
	"testing"
	"time"

	"github.com/penwyp/go-sleep-monitor/internal/core/cycle"
	"github.com/penwyp/go-sleep-monitor/internal/core/model"
	"github.com/penwyp/go-sleep-monitor/internal/data/aggregator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func utc(day, hour, minute int) time.Time {
	return time.Date(2024, time.March, day, hour, minute, 0, 0, time.UTC)
}

type eventLog struct {
	events []model.SleepEvent
}

func (l *eventLog) sleep(id string, from, to time.Time) *eventLog {
	l.events = append(l.events,
		model.SleepEvent{ID: id + "-s", UserID: "u1", Timestamp: from, Kind: model.KindStart},
		model.SleepEvent{ID: id + "-e", UserID: "u1", Timestamp: to, Kind: model.KindEnd},
	)
	return l
}

func (l *eventLog) analyze(t *testing.T, from, to int) model.AnalyticsReport {
	t.Helper()
	w, err := NewWindow(d(2024, 3, from), d(2024, 3, to))
	require.NoError(t, err)
	return Analyze(cycle.Reconcile(l.events), w, aggregator.NewAggregator(time.UTC))
}

func TestAnalyze_OvernightSleepLandsOnWakeDay(t *testing.T) {
	report := (&eventLog{}).sleep("n1", utc(1, 23, 0), utc(2, 7, 0)).analyze(t, 1, 2)

	require.Len(t, report.Series, 2)
	day1, day2 := report.Series[0], report.Series[1]

	assert.False(t, day1.HasData())
	assert.Equal(t, "No data", day1.DurationFormatted)
	assert.Nil(t, day1.SleepHour)
	assert.Nil(t, day1.WakeHour)

	assert.Equal(t, "03-02", day2.Label)
	assert.InDelta(t, 8.0, day2.TotalDurationHours, 1e-9)
	assert.Equal(t, "8h 0m", day2.DurationFormatted)
	require.NotNil(t, day2.SleepHour)
	assert.InDelta(t, 23.0, *day2.SleepHour, 1e-9)
	assert.InDelta(t, 7.0, *day2.WakeHour, 1e-9)
	assert.Equal(t, "23:00", *day2.SleepTimeFormatted)
	assert.Equal(t, "07:00", *day2.WakeTimeFormatted)
	assert.Empty(t, day2.Cycles)
}

func TestAnalyze_NapPlusMainSleep(t *testing.T) {
	log := (&eventLog{}).
		sleep("main", utc(1, 23, 30), utc(2, 6, 30)).
		sleep("nap", utc(2, 13, 0), utc(2, 15, 0))

	report := log.analyze(t, 2, 2)
	require.Len(t, report.Series, 1)
	point := report.Series[0]

	assert.InDelta(t, 9.0, point.TotalDurationHours, 1e-9)
	assert.Equal(t, "9h 0m", point.DurationFormatted)
	assert.Equal(t, "23:30", *point.SleepTimeFormatted)
	assert.Equal(t, "06:30", *point.WakeTimeFormatted)

	require.Len(t, point.Cycles, 2)
	assert.Equal(t, model.CycleDetail{StartTime: "23:30", EndTime: "06:30", Duration: "7h 0m"}, point.Cycles[0])
	assert.Equal(t, model.CycleDetail{StartTime: "13:00", EndTime: "15:00", Duration: "2h 0m"}, point.Cycles[1])
}

func TestAnalyze_LongestCycleTieKeepsEarliest(t *testing.T) {
	log := (&eventLog{}).
		sleep("a", utc(2, 1, 0), utc(2, 4, 0)).
		sleep("b", utc(2, 13, 0), utc(2, 16, 0))

	point := log.analyze(t, 2, 2).Series[0]
	assert.Equal(t, "01:00", *point.SleepTimeFormatted)
	assert.Equal(t, "04:00", *point.WakeTimeFormatted)
}

func TestAnalyze_OpenCycleIgnoredInSeries(t *testing.T) {
	log := (&eventLog{}).sleep("n1", utc(1, 23, 0), utc(2, 7, 0))
	log.events = append(log.events, model.SleepEvent{ID: "open", Timestamp: utc(3, 22, 0), Kind: model.KindStart})

	report := log.analyze(t, 1, 3)
	require.Len(t, report.Series, 3)
	assert.False(t, report.Series[2].HasData())
	assert.Equal(t, 1, report.Statistics.TotalSleepDays)
}

func TestAnalyze_EmptyLogYieldsEmptySeries(t *testing.T) {
	report := (&eventLog{}).analyze(t, 1, 7)
	assert.Empty(t, report.Series)
	assert.NotNil(t, report.Series)
	assert.Equal(t, 0, report.Statistics.TotalSleepDays)
	assert.Nil(t, report.Statistics.AverageSleepHour)
	assert.Nil(t, report.Statistics.AverageWakeHour)
	assert.Equal(t, d(2024, 3, 1), report.Start)
	assert.Equal(t, d(2024, 3, 7), report.End)
}

func TestAnalyze_SparseDataIsZeroFilled(t *testing.T) {
	report := (&eventLog{}).sleep("n1", utc(10, 23, 0), utc(11, 7, 0)).analyze(t, 1, 31)

	require.Len(t, report.Series, 31)
	for i, p := range report.Series {
		assert.Equal(t, d(2024, 3, i+1), p.Date)
		assert.Equal(t, i == 10, p.HasData(), "day %d", i+1)
	}
}

func TestAnalyze_DataOutsideWindowIgnored(t *testing.T) {
	report := (&eventLog{}).
		sleep("before", utc(1, 23, 0), utc(2, 7, 0)).
		sleep("inside", utc(4, 23, 0), utc(5, 6, 0)).
		analyze(t, 3, 5)

	require.Len(t, report.Series, 3)
	assert.Equal(t, 1, report.Statistics.TotalSleepDays)
	assert.InDelta(t, 7.0, report.Statistics.AverageDurationHours, 1e-9)
}

func TestBuildSeries_UsesLocationForClockTimes(t *testing.T) {
	shanghai, err := time.LoadLocation("Asia/Shanghai")
	require.NoError(t, err)

	// 15:00-23:00 UTC is 23:00-07:00 in Shanghai, ending on the 2nd
	result := cycle.Reconcile((&eventLog{}).sleep("n1", utc(1, 15, 0), utc(1, 23, 0)).events)
	agg := aggregator.NewAggregator(shanghai)
	w, err := NewWindow(d(2024, 3, 1), d(2024, 3, 2))
	require.NoError(t, err)

	series := BuildSeries(agg.BucketByDay(result), w, shanghai)
	require.Len(t, series, 2)
	assert.False(t, series[0].HasData())
	assert.Equal(t, "23:00", *series[1].SleepTimeFormatted)
	assert.Equal(t, "07:00", *series[1].WakeTimeFormatted)
}

func TestBuildSeries_TruncatesMinutes(t *testing.T) {
	start := utc(1, 23, 0)
	end := start.Add(7*time.Hour + 29*time.Minute + 59*time.Second)
	result := cycle.Reconcile([]model.SleepEvent{
		{ID: "s", Timestamp: start, Kind: model.KindStart},
		{ID: "e", Timestamp: end, Kind: model.KindEnd},
	})

	w, err := NewWindow(d(2024, 3, 2), d(2024, 3, 2))
	require.NoError(t, err)
	point := BuildSeries(aggregator.NewAggregator(time.UTC).BucketByDay(result), w, time.UTC)[0]
	assert.Equal(t, "7h 29m", point.DurationFormatted)
	assert.Equal(t, "06:29", *point.WakeTimeFormatted)
}
