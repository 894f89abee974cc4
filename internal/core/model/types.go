package model

import (
	"time"

	"cloud.google.com/go/civil"
)

// SleepEvent is a single check-in marker recorded by a user.
type SleepEvent struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	Timestamp time.Time `json:"timestamp"`
	Kind      EventKind `json:"kind"`
}

// TimestampMs returns the event time in Unix milliseconds.
func (e SleepEvent) TimestampMs() int64 {
	return e.Timestamp.UnixMilli()
}

// SleepCycle is a reconciled sleep session. EndEventID, EndTime and DurationMs
// are only set when Completed is true.
type SleepCycle struct {
	StartEventID string     `json:"startEventId"`
	EndEventID   string     `json:"endEventId,omitempty"`
	StartTime    time.Time  `json:"startTime"`
	EndTime      *time.Time `json:"endTime,omitempty"`
	DurationMs   *int64     `json:"durationMs,omitempty"`
	Completed    bool       `json:"completed"`
}

// Duration returns the cycle length, or zero for a cycle still in progress.
func (c SleepCycle) Duration() time.Duration {
	if !c.Completed || c.DurationMs == nil {
		return 0
	}
	return time.Duration(*c.DurationMs) * time.Millisecond
}

// ReconcileResult holds the cycles and anomalies produced from one event log.
type ReconcileResult struct {
	Cycles         []SleepCycle `json:"cycles"`
	UnpairedStarts []SleepEvent `json:"unpairedStarts"`
	UnpairedEnds   []SleepEvent `json:"unpairedEnds"`
}

// DailyBucket groups cycles and anomalies attributed to one calendar day.
type DailyBucket struct {
	Date           civil.Date   `json:"date"`
	Cycles         []SleepCycle `json:"cycles"`
	UnpairedStarts []SleepEvent `json:"unpairedStarts"`
	UnpairedEnds   []SleepEvent `json:"unpairedEnds"`
}

// CompletedCycles returns the completed cycles of the bucket in order.
func (b DailyBucket) CompletedCycles() []SleepCycle {
	completed := make([]SleepCycle, 0, len(b.Cycles))
	for _, c := range b.Cycles {
		if c.Completed {
			completed = append(completed, c)
		}
	}
	return completed
}

// CycleDetail is the formatted view of one cycle on a multi-cycle day.
type CycleDetail struct {
	StartTime string `json:"startTime"`
	EndTime   string `json:"endTime"`
	Duration  string `json:"duration"`
}

// ChartDataPoint is one day of an analytics window.
type ChartDataPoint struct {
	Date               civil.Date    `json:"fullDate"`
	Label              string        `json:"date"`
	TotalDurationHours float64       `json:"duration"`
	SleepHour          *float64      `json:"sleepTime"`
	WakeHour           *float64      `json:"wakeTime"`
	SleepTimeFormatted *string       `json:"sleepTimeFormatted"`
	WakeTimeFormatted  *string       `json:"wakeTimeFormatted"`
	DurationFormatted  string        `json:"durationFormatted"`
	Cycles             []CycleDetail `json:"sleepCycles,omitempty"`
}

// HasData reports whether any completed sleep was attributed to the day.
func (p ChartDataPoint) HasData() bool {
	return p.TotalDurationHours > 0
}

// StatisticsSummary aggregates a chart series. Nil fields mean no data.
type StatisticsSummary struct {
	AverageDurationHours float64  `json:"averageDuration"`
	TotalSleepDays       int      `json:"totalSleepDays"`
	AverageSleepHour     *float64 `json:"averageSleepTime"`
	AverageWakeHour      *float64 `json:"averageWakeTime"`
}

// AnalyticsReport is the full result for one analytics window.
type AnalyticsReport struct {
	Start      civil.Date        `json:"start"`
	End        civil.Date        `json:"end"`
	Series     []ChartDataPoint  `json:"chartData"`
	Statistics StatisticsSummary `json:"statistics"`
}
