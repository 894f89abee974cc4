package formatter

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/penwyp/go-sleep-monitor/internal/core/constants"
	"github.com/penwyp/go-sleep-monitor/internal/core/model"
	"github.com/penwyp/go-sleep-monitor/internal/presentation/layout"
	"github.com/penwyp/go-sleep-monitor/internal/util"
)

type TableFormatter struct {
	loc   *time.Location
	sizer *layout.Sizer
}

func NewTableFormatter(loc *time.Location) *TableFormatter {
	return &TableFormatter{loc: loc, sizer: layout.Shared()}
}

var (
	reportHeaders  = []string{"Date", "Bedtime", "Wake", "Duration", "Cycles"}
	historyHeaders = []string{"Date", "Event", "Start", "End", "Duration", "Status"}
)

func (f *TableFormatter) FormatReport(w io.Writer, report model.AnalyticsReport) error {
	if len(report.Series) == 0 {
		_, err := fmt.Fprintf(w, "No sleep records for %s to %s\n", report.Start, report.End)
		return err
	}

	rows := make([][]string, 0, len(report.Series)+1)
	for _, p := range report.Series {
		cycles := ""
		if n := len(p.Cycles); n > 1 {
			cycles = fmt.Sprintf("%d", n)
		} else if p.HasData() {
			cycles = "1"
		}
		rows = append(rows, []string{
			fmt.Sprintf("%s (%s)", p.Date, p.Date.In(time.UTC).Format("Mon")),
			util.FormatOptionalHour(p.SleepHour, "-"),
			util.FormatOptionalHour(p.WakeHour, "-"),
			p.DurationFormatted,
			cycles,
		})
	}

	stats := report.Statistics
	average := []string{
		"Average",
		util.FormatOptionalHour(stats.AverageSleepHour, "-"),
		util.FormatOptionalHour(stats.AverageWakeHour, "-"),
		averageDuration(stats),
		fmt.Sprintf("%d days", stats.TotalSleepDays),
	}

	t := newTable(w, f.sizer, reportHeaders)
	for _, r := range rows {
		t.measure(r)
	}
	t.measure(average)

	t.border("top")
	t.row(reportHeaders)
	t.border("middle")
	for _, r := range rows {
		t.row(r)
	}
	t.border("middle")
	t.row(average)
	t.border("bottom")
	return t.err
}

func (f *TableFormatter) FormatHistory(w io.Writer, history []model.DailyBucket) error {
	if len(history) == 0 {
		_, err := fmt.Fprintln(w, "No sleep records")
		return err
	}

	t := newTable(w, f.sizer, historyHeaders)
	var groups [][][]string
	for _, b := range history {
		var group [][]string
		for i, r := range historyRows(b, f.loc) {
			date := r.Date
			if i > 0 {
				date = ""
			}
			group = append(group, []string{date, r.Event, dash(r.Start), dash(r.End), dash(r.Duration), r.Status})
		}
		groups = append(groups, group)
	}
	for _, group := range groups {
		for _, r := range group {
			t.measure(r)
		}
	}

	t.border("top")
	t.row(historyHeaders)
	for _, group := range groups {
		t.border("middle")
		for _, r := range group {
			t.row(r)
		}
	}
	t.border("bottom")
	return t.err
}

func averageDuration(stats model.StatisticsSummary) string {
	if stats.TotalSleepDays == 0 {
		return constants.NoDataLabel
	}
	return util.FormatHours(stats.AverageDurationHours)
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

// table draws box-bordered rows; widths grow to fit every measured row.
type table struct {
	w      io.Writer
	sizer  *layout.Sizer
	widths []int
	err    error
}

func newTable(w io.Writer, sizer *layout.Sizer, headers []string) *table {
	t := &table{w: w, sizer: sizer, widths: make([]int, len(headers))}
	t.measure(headers)
	return t
}

func (t *table) measure(values []string) {
	for i, v := range values {
		if width := t.sizer.DisplayWidth(v); width > t.widths[i] {
			t.widths[i] = width
		}
	}
}

func (t *table) print(s string) {
	if t.err != nil {
		return
	}
	_, t.err = io.WriteString(t.w, s)
}

// border prints table borders (top, middle, bottom)
func (t *table) border(borderType string) {
	var left, middle, right string
	switch borderType {
	case "top":
		left, middle, right = "┌", "┬", "┐"
	case "middle":
		left, middle, right = "├", "┼", "┤"
	default:
		left, middle, right = "└", "┴", "┘"
	}

	var b strings.Builder
	b.WriteString(left)
	for i, width := range t.widths {
		b.WriteString(strings.Repeat("─", width+2))
		if i < len(t.widths)-1 {
			b.WriteString(middle)
		}
	}
	b.WriteString(right)
	b.WriteString("\n")
	t.print(b.String())
}

// row prints a measured row; the first column is left aligned, the rest right aligned.
func (t *table) row(values []string) {
	var b strings.Builder
	b.WriteString("│")
	for i, v := range values {
		b.WriteString(" ")
		b.WriteString(t.sizer.PadString(v, t.widths[i], i == 0))
		b.WriteString(" │")
	}
	b.WriteString("\n")
	t.print(b.String())
}
