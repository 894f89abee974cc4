package formatter

import (
	"io"

	"github.com/bytedance/sonic"

	"github.com/penwyp/go-sleep-monitor/internal/core/model"
)

type JSONFormatter struct{}

func NewJSONFormatter() *JSONFormatter {
	return &JSONFormatter{}
}

func (f *JSONFormatter) FormatReport(w io.Writer, report model.AnalyticsReport) error {
	return writeJSON(w, report)
}

func (f *JSONFormatter) FormatHistory(w io.Writer, history []model.DailyBucket) error {
	if history == nil {
		history = []model.DailyBucket{}
	}
	return writeJSON(w, history)
}

// FormatEvents writes raw events as a JSON array, the export format.
func (f *JSONFormatter) FormatEvents(w io.Writer, events []model.SleepEvent) error {
	if events == nil {
		events = []model.SleepEvent{}
	}
	return writeJSON(w, events)
}

func writeJSON(w io.Writer, v interface{}) error {
	content, err := sonic.ConfigStd.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	content = append(content, '\n')
	_, err = w.Write(content)
	return err
}

// FormatStatus writes the check-in state of a user.
func (f *JSONFormatter) FormatStatus(w io.Writer, status model.UserStatus) error {
	return writeJSON(w, status)
}
