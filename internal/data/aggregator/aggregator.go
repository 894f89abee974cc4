package aggregator

import (
	"fmt"
	"sort"
	"time"

	"cloud.google.com/go/civil"
	"github.com/penwyp/go-sleep-monitor/internal/core/model"
	"github.com/penwyp/go-sleep-monitor/internal/util"
)

// Aggregator groups reconciled cycles and anomalies into calendar days.
type Aggregator struct {
	location *time.Location
}

// NewAggregator creates an Aggregator that resolves calendar days in loc.
func NewAggregator(loc *time.Location) *Aggregator {
	if loc == nil {
		loc = time.Local
	}
	return &Aggregator{location: loc}
}

// Location returns the timezone used for day attribution.
func (a *Aggregator) Location() *time.Location {
	return a.location
}

// DateOf returns the calendar day of t in the aggregator's timezone.
func (a *Aggregator) DateOf(t time.Time) civil.Date {
	return civil.DateOf(t.In(a.location))
}

// AttributionDate is the day a cycle belongs to: the wake-up day for completed
// cycles, the start day for a cycle still in progress.
func (a *Aggregator) AttributionDate(c model.SleepCycle) civil.Date {
	if c.Completed && c.EndTime != nil {
		return a.DateOf(*c.EndTime)
	}
	return a.DateOf(c.StartTime)
}

// BucketByDay assigns every cycle and unpaired event to its calendar day.
// Days without anything attributed to them get no bucket.
func (a *Aggregator) BucketByDay(result model.ReconcileResult) map[civil.Date]*model.DailyBucket {
	buckets := make(map[civil.Date]*model.DailyBucket)

	get := func(date civil.Date) *model.DailyBucket {
		if b, ok := buckets[date]; ok {
			return b
		}
		b := &model.DailyBucket{
			Date:           date,
			Cycles:         []model.SleepCycle{},
			UnpairedStarts: []model.SleepEvent{},
			UnpairedEnds:   []model.SleepEvent{},
		}
		buckets[date] = b
		return b
	}

	for _, c := range result.Cycles {
		b := get(a.AttributionDate(c))
		b.Cycles = append(b.Cycles, c)
	}
	for _, e := range result.UnpairedStarts {
		b := get(a.DateOf(e.Timestamp))
		b.UnpairedStarts = append(b.UnpairedStarts, e)
	}
	for _, e := range result.UnpairedEnds {
		b := get(a.DateOf(e.Timestamp))
		b.UnpairedEnds = append(b.UnpairedEnds, e)
	}

	for _, b := range buckets {
		sort.SliceStable(b.Cycles, func(i, j int) bool {
			return b.Cycles[i].StartTime.Before(b.Cycles[j].StartTime)
		})
		sortEvents(b.UnpairedStarts)
		sortEvents(b.UnpairedEnds)
	}

	util.LogDebug(fmt.Sprintf("Bucketed %d cycles, %d unpaired starts, %d unpaired ends into %d days",
		len(result.Cycles), len(result.UnpairedStarts), len(result.UnpairedEnds), len(buckets)))

	return buckets
}

// History returns the buckets newest day first, for calendar and history views.
func (a *Aggregator) History(result model.ReconcileResult) []model.DailyBucket {
	return SortedBuckets(a.BucketByDay(result))
}

// SortedBuckets flattens a bucket map into a slice ordered by date descending.
func SortedBuckets(buckets map[civil.Date]*model.DailyBucket) []model.DailyBucket {
	out := make([]model.DailyBucket, 0, len(buckets))
	for _, b := range buckets {
		out = append(out, *b)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Date.After(out[j].Date)
	})
	return out
}

func sortEvents(events []model.SleepEvent) {
	sort.SliceStable(events, func(i, j int) bool {
		return events[i].Timestamp.Before(events[j].Timestamp)
	})
}
