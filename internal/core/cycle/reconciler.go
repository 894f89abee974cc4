// Package cycle turns a user's raw check-in log into sleep cycles.
package cycle

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/penwyp/go-sleep-monitor/internal/core/model"
	"github.com/penwyp/go-sleep-monitor/internal/util"
)

// ErrInvalidTimeOrder is returned when a manual entry does not end after it starts.
var ErrInvalidTimeOrder = errors.New("wake time must be after sleep time")

// Reconcile pairs start and end events into sleep cycles.
//
// Events are stable-sorted by timestamp and scanned once while tracking at most
// one open start. A start arriving while another is open pushes the older one
// into UnpairedStarts; an end with nothing open goes to UnpairedEnds. A start
// still open after the scan becomes the single incomplete cycle.
//
// The input slice is not modified.
func Reconcile(events []model.SleepEvent) model.ReconcileResult {
	result := model.ReconcileResult{
		Cycles:         []model.SleepCycle{},
		UnpairedStarts: []model.SleepEvent{},
		UnpairedEnds:   []model.SleepEvent{},
	}
	if len(events) == 0 {
		return result
	}

	sorted := make([]model.SleepEvent, len(events))
	copy(sorted, events)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Timestamp.Before(sorted[j].Timestamp)
	})

	var open *model.SleepEvent
	for i := range sorted {
		event := sorted[i]

		switch event.Kind {
		case model.KindStart:
			if open != nil {
				result.UnpairedStarts = append(result.UnpairedStarts, *open)
			}
			open = &sorted[i]

		case model.KindEnd:
			if open == nil {
				result.UnpairedEnds = append(result.UnpairedEnds, event)
				continue
			}
			result.Cycles = append(result.Cycles, completedCycle(*open, event))
			open = nil

		default:
			util.LogDebugf("Skip event %s with unknown kind %q", event.ID, event.Kind)
		}
	}

	if open != nil {
		result.Cycles = append(result.Cycles, model.SleepCycle{
			StartEventID: open.ID,
			StartTime:    open.Timestamp,
		})
	}

	return result
}

func completedCycle(start, end model.SleepEvent) model.SleepCycle {
	endTime := end.Timestamp
	durationMs := end.Timestamp.UnixMilli() - start.Timestamp.UnixMilli()
	return model.SleepCycle{
		StartEventID: start.ID,
		EndEventID:   end.ID,
		StartTime:    start.Timestamp,
		EndTime:      &endTime,
		DurationMs:   &durationMs,
		Completed:    true,
	}
}

// CurrentCycle returns the cycle still in progress, if any.
func CurrentCycle(result model.ReconcileResult) *model.SleepCycle {
	for i := len(result.Cycles) - 1; i >= 0; i-- {
		if !result.Cycles[i].Completed {
			c := result.Cycles[i]
			return &c
		}
	}
	return nil
}

// IsSleeping reports whether the user is currently asleep, i.e. the log ends
// with an open start.
func IsSleeping(result model.ReconcileResult) bool {
	return CurrentCycle(result) != nil
}

// NextKind is the event a one-tap check-in should record next.
func NextKind(result model.ReconcileResult) model.EventKind {
	if IsSleeping(result) {
		return model.KindEnd
	}
	return model.KindStart
}

// Status derives the check-in state of userID from its reconciled log.
func Status(userID string, result model.ReconcileResult) model.UserStatus {
	current := CurrentCycle(result)
	return model.UserStatus{
		UserID:     userID,
		IsSleeping: current != nil,
		Current:    current,
		NextKind:   NextKind(result),
	}
}

// ValidateManualEntry checks a backfilled cycle before it is stored.
func ValidateManualEntry(start, end time.Time) error {
	if !end.After(start) {
		return fmt.Errorf("%w: sleep %s, wake %s", ErrInvalidTimeOrder,
			start.Format("2006-01-02 15:04"), end.Format("2006-01-02 15:04"))
	}
	return nil
}
