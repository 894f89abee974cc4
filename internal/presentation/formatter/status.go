package formatter

import (
	"fmt"
	"io"
	"time"

	"github.com/penwyp/go-sleep-monitor/internal/core/model"
	"github.com/penwyp/go-sleep-monitor/internal/util"
)

// FormatStatusText writes a one or two line description of a user's state.
func FormatStatusText(w io.Writer, status model.UserStatus, now time.Time, loc *time.Location) error {
	if !status.IsSleeping || status.Current == nil {
		_, err := fmt.Fprintf(w, "%s is awake. Next check-in: %s\n", status.UserID, KindLabel(status.NextKind))
		return err
	}

	start := status.Current.StartTime.In(loc)
	_, err := fmt.Fprintf(w, "%s is asleep since %s (%s ago). Next check-in: %s\n",
		status.UserID, start.Format("2006-01-02 15:04"), util.FormatElapsed(start, now), KindLabel(status.NextKind))
	return err
}

// FormatEventText writes a single recorded event.
func FormatEventText(w io.Writer, event model.SleepEvent, loc *time.Location) error {
	_, err := fmt.Fprintf(w, "%s at %s (id %s)\n",
		KindLabel(event.Kind), event.Timestamp.In(loc).Format("2006-01-02 15:04"), event.ID)
	return err
}
