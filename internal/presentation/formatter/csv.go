package formatter

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/penwyp/go-sleep-monitor/internal/core/model"
)

type CSVFormatter struct {
	loc *time.Location
}

func NewCSVFormatter(loc *time.Location) *CSVFormatter {
	return &CSVFormatter{loc: loc}
}

func (f *CSVFormatter) FormatReport(out io.Writer, report model.AnalyticsReport) error {
	w := csv.NewWriter(out)

	headers := []string{"Date", "Label", "Duration (h)", "Duration", "Bedtime", "Wake", "Cycles"}
	if err := w.Write(headers); err != nil {
		return err
	}

	for _, p := range report.Series {
		record := []string{
			p.Date.String(),
			p.Label,
			strconv.FormatFloat(p.TotalDurationHours, 'f', 2, 64),
			p.DurationFormatted,
			optional(p.SleepTimeFormatted),
			optional(p.WakeTimeFormatted),
			fmt.Sprintf("%d", cycleCount(p)),
		}
		if err := w.Write(record); err != nil {
			return err
		}
	}

	w.Flush()
	return w.Error()
}

func (f *CSVFormatter) FormatHistory(out io.Writer, history []model.DailyBucket) error {
	w := csv.NewWriter(out)

	if err := w.Write(historyHeaders); err != nil {
		return err
	}
	for _, b := range history {
		for _, r := range historyRows(b, f.loc) {
			if err := w.Write([]string{r.Date, r.Event, r.Start, r.End, r.Duration, r.Status}); err != nil {
				return err
			}
		}
	}

	w.Flush()
	return w.Error()
}

func optional(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func cycleCount(p model.ChartDataPoint) int {
	if len(p.Cycles) > 0 {
		return len(p.Cycles)
	}
	if p.HasData() {
		return 1
	}
	return 0
}
