package formatter

import (
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/penwyp/go-sleep-monitor/internal/core/model"
	"github.com/penwyp/go-sleep-monitor/internal/util"
)

// Formatter renders analytics reports and calendar history.
type Formatter interface {
	FormatReport(w io.Writer, report model.AnalyticsReport) error
	FormatHistory(w io.Writer, history []model.DailyBucket) error
}

// New returns the formatter for an output format name. Clock times in
// history output are shown in loc.
func New(format string, loc *time.Location) (Formatter, error) {
	if loc == nil {
		loc = time.Local
	}
	switch format {
	case model.OutputTable, "":
		return NewTableFormatter(loc), nil
	case model.OutputJSON:
		return NewJSONFormatter(), nil
	case model.OutputCSV:
		return NewCSVFormatter(loc), nil
	case model.OutputSummary:
		return NewSummaryFormatter(), nil
	default:
		return nil, fmt.Errorf("unknown output format %q", format)
	}
}

var kindLabels = map[model.EventKind]string{
	model.KindStart: "Fell asleep",
	model.KindEnd:   "Woke up",
}

// KindLabel returns the display label for an event kind.
func KindLabel(k model.EventKind) string {
	if label, ok := kindLabels[k]; ok {
		return label
	}
	return string(k)
}

// HistoryRow is one displayable line of a day in the calendar history.
type HistoryRow struct {
	Date     string
	Event    string
	Start    string
	End      string
	Duration string
	Status   string
	sortKey  time.Time
}

const (
	statusCompleted  = "completed"
	statusInProgress = "in progress"
	statusUnpaired   = "unpaired"
)

// historyRows flattens a bucket into chronological rows: cycles first by
// start time, anomalies interleaved by their own timestamps.
func historyRows(b model.DailyBucket, loc *time.Location) []HistoryRow {
	date := b.Date.String()
	clock := func(t time.Time) string { return t.In(loc).Format("15:04") }

	rows := make([]HistoryRow, 0, len(b.Cycles)+len(b.UnpairedStarts)+len(b.UnpairedEnds))
	for _, c := range b.Cycles {
		row := HistoryRow{
			Date:    date,
			Event:   "Sleep",
			Start:   clock(c.StartTime),
			sortKey: c.StartTime,
		}
		if c.Completed && c.EndTime != nil {
			row.End = clock(*c.EndTime)
			row.Duration = util.FormatDuration(c.Duration())
			row.Status = statusCompleted
		} else {
			row.Status = statusInProgress
		}
		rows = append(rows, row)
	}
	for _, e := range b.UnpairedStarts {
		rows = append(rows, HistoryRow{Date: date, Event: KindLabel(e.Kind), Start: clock(e.Timestamp), Status: statusUnpaired, sortKey: e.Timestamp})
	}
	for _, e := range b.UnpairedEnds {
		rows = append(rows, HistoryRow{Date: date, Event: KindLabel(e.Kind), End: clock(e.Timestamp), Status: statusUnpaired, sortKey: e.Timestamp})
	}

	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].sortKey.Before(rows[j].sortKey)
	})
	return rows
}
