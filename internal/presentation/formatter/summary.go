package formatter

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/penwyp/go-sleep-monitor/internal/core/model"
	"github.com/penwyp/go-sleep-monitor/internal/util"
)

// SummaryFormatter prints the statistics block of a report without the
// per-day series.
type SummaryFormatter struct{}

// NewSummaryFormatter creates a new instance of SummaryFormatter.
func NewSummaryFormatter() *SummaryFormatter {
	return &SummaryFormatter{}
}

func (f *SummaryFormatter) FormatReport(w io.Writer, report model.AnalyticsReport) error {
	stats := report.Statistics

	var b strings.Builder
	b.WriteString(strings.Repeat("=", 48) + "\n")
	b.WriteString("Sleep Summary Report\n")
	b.WriteString(strings.Repeat("=", 48) + "\n\n")

	if report.Start == report.End {
		fmt.Fprintf(&b, "Period:            %s\n", report.Start)
	} else {
		fmt.Fprintf(&b, "Period:            %s to %s\n", report.Start, report.End)
	}
	fmt.Fprintf(&b, "Days with sleep:   %d\n", stats.TotalSleepDays)
	fmt.Fprintf(&b, "Average duration:  %s\n", averageDuration(stats))
	fmt.Fprintf(&b, "Average bedtime:   %s\n", util.FormatOptionalHour(stats.AverageSleepHour, "-"))
	fmt.Fprintf(&b, "Average wake time: %s\n", util.FormatOptionalHour(stats.AverageWakeHour, "-"))

	if longest, ok := longestDay(report.Series); ok {
		fmt.Fprintf(&b, "Longest night:     %s (%s)\n", longest.DurationFormatted, longest.Date)
	}

	_, err := io.WriteString(w, b.String())
	return err
}

// FormatHistory prints one line per day with its cycle and anomaly counts.
func (f *SummaryFormatter) FormatHistory(w io.Writer, history []model.DailyBucket) error {
	var b strings.Builder
	fmt.Fprintf(&b, "%d days with records\n", len(history))
	for _, day := range history {
		var total time.Duration
		for _, c := range day.CompletedCycles() {
			total += c.Duration()
		}
		anomalies := len(day.UnpairedStarts) + len(day.UnpairedEnds)
		fmt.Fprintf(&b, "%s  %d cycles  %s", day.Date, len(day.Cycles), util.FormatDuration(total))
		if anomalies > 0 {
			fmt.Fprintf(&b, "  %d unpaired", anomalies)
		}
		b.WriteString("\n")
	}
	_, err := io.WriteString(w, b.String())
	return err
}

func longestDay(series []model.ChartDataPoint) (model.ChartDataPoint, bool) {
	var best model.ChartDataPoint
	found := false
	for _, p := range series {
		if p.HasData() && (!found || p.TotalDurationHours > best.TotalDurationHours) {
			best = p
			found = true
		}
	}
	return best, found
}
