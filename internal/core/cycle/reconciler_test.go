package cycle

import (
	"errors"
	"testing"
	"time"

	"github.com/penwyp/go-sleep-monitor/internal/core/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var day1 = time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

func at(day, hour, minute int) time.Time {
	return day1.AddDate(0, 0, day-1).Add(time.Duration(hour)*time.Hour + time.Duration(minute)*time.Minute)
}

func start(id string, ts time.Time) model.SleepEvent {
	return model.SleepEvent{ID: id, UserID: "u1", Timestamp: ts, Kind: model.KindStart}
}

func end(id string, ts time.Time) model.SleepEvent {
	return model.SleepEvent{ID: id, UserID: "u1", Timestamp: ts, Kind: model.KindEnd}
}

func TestReconcile_Scenarios(t *testing.T) {
	tests := []struct {
		name            string
		events          []model.SleepEvent
		completed       int
		incomplete      int
		unpairedStarts  []string
		unpairedEnds    []string
		firstDurationMs int64
	}{
		{
			name:            "overnight pair",
			events:          []model.SleepEvent{start("s1", at(1, 23, 0)), end("e1", at(2, 7, 0))},
			completed:       1,
			firstDurationMs: (8 * time.Hour).Milliseconds(),
		},
		{
			name: "forgot to wake before sleeping again",
			events: []model.SleepEvent{
				start("s1", at(1, 23, 0)),
				start("s2", at(2, 1, 0)),
				end("e1", at(2, 7, 0)),
			},
			completed:       1,
			unpairedStarts:  []string{"s1"},
			firstDurationMs: (6 * time.Hour).Milliseconds(),
		},
		{
			name:         "lone end",
			events:       []model.SleepEvent{end("e1", at(1, 7, 0))},
			unpairedEnds: []string{"e1"},
		},
		{
			name:       "lone start is sleep in progress",
			events:     []model.SleepEvent{start("s1", at(1, 23, 0))},
			incomplete: 1,
		},
		{
			name: "double end",
			events: []model.SleepEvent{
				start("s1", at(1, 23, 0)),
				end("e1", at(2, 7, 0)),
				end("e2", at(2, 7, 5)),
			},
			completed:       1,
			unpairedEnds:    []string{"e2"},
			firstDurationMs: (8 * time.Hour).Milliseconds(),
		},
		{
			name: "three starts then open",
			events: []model.SleepEvent{
				start("s1", at(1, 21, 0)),
				start("s2", at(1, 22, 0)),
				start("s3", at(1, 23, 0)),
			},
			incomplete:     1,
			unpairedStarts: []string{"s1", "s2"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Reconcile(tt.events)

			var completed, incomplete int
			for _, c := range result.Cycles {
				if c.Completed {
					completed++
				} else {
					incomplete++
				}
			}
			assert.Equal(t, tt.completed, completed)
			assert.Equal(t, tt.incomplete, incomplete)
			assert.Equal(t, tt.unpairedStarts, eventIDs(result.UnpairedStarts))
			assert.Equal(t, tt.unpairedEnds, eventIDs(result.UnpairedEnds))

			if tt.firstDurationMs > 0 {
				require.NotNil(t, result.Cycles[0].DurationMs)
				assert.Equal(t, tt.firstDurationMs, *result.Cycles[0].DurationMs)
			}
		})
	}
}

func TestReconcile_EmptyInput(t *testing.T) {
	result := Reconcile(nil)
	assert.Empty(t, result.Cycles)
	assert.Empty(t, result.UnpairedStarts)
	assert.Empty(t, result.UnpairedEnds)
	assert.NotNil(t, result.Cycles)
}

func TestReconcile_SortsUnorderedInput(t *testing.T) {
	events := []model.SleepEvent{
		end("e2", at(3, 6, 30)),
		start("s1", at(1, 23, 0)),
		start("s2", at(2, 22, 30)),
		end("e1", at(2, 7, 0)),
	}

	result := Reconcile(events)
	require.Len(t, result.Cycles, 2)
	assert.Equal(t, "s1", result.Cycles[0].StartEventID)
	assert.Equal(t, "e1", result.Cycles[0].EndEventID)
	assert.Equal(t, "s2", result.Cycles[1].StartEventID)
	assert.Equal(t, "e2", result.Cycles[1].EndEventID)

	// caller's slice is untouched
	assert.Equal(t, "e2", events[0].ID)
}

func TestReconcile_IncompleteCycleHasNoEnd(t *testing.T) {
	result := Reconcile([]model.SleepEvent{
		start("s1", at(1, 22, 0)),
		end("e1", at(2, 6, 0)),
		start("s2", at(2, 23, 0)),
	})

	require.Len(t, result.Cycles, 2)
	open := result.Cycles[1]
	assert.False(t, open.Completed)
	assert.Equal(t, "s2", open.StartEventID)
	assert.Empty(t, open.EndEventID)
	assert.Nil(t, open.EndTime)
	assert.Nil(t, open.DurationMs)
	assert.Empty(t, result.UnpairedStarts)
}

func TestReconcile_EqualTimestampsKeepInputOrder(t *testing.T) {
	ts := at(1, 23, 0)
	result := Reconcile([]model.SleepEvent{start("s1", ts), end("e1", ts)})

	require.Len(t, result.Cycles, 1)
	assert.True(t, result.Cycles[0].Completed)
	assert.Equal(t, int64(0), *result.Cycles[0].DurationMs)

	reversed := Reconcile([]model.SleepEvent{end("e1", ts), start("s1", ts)})
	assert.Equal(t, []string{"e1"}, eventIDs(reversed.UnpairedEnds))
	require.Len(t, reversed.Cycles, 1)
	assert.False(t, reversed.Cycles[0].Completed)
}

func TestReconcile_SkipsUnknownKinds(t *testing.T) {
	result := Reconcile([]model.SleepEvent{
		start("s1", at(1, 23, 0)),
		{ID: "x", Timestamp: at(2, 3, 0), Kind: "morning"},
		end("e1", at(2, 7, 0)),
	})

	require.Len(t, result.Cycles, 1)
	assert.True(t, result.Cycles[0].Completed)
	assert.Empty(t, result.UnpairedStarts)
	assert.Empty(t, result.UnpairedEnds)
}

func TestStatusDerivation(t *testing.T) {
	awake := Reconcile([]model.SleepEvent{start("s1", at(1, 23, 0)), end("e1", at(2, 7, 0))})
	assert.False(t, IsSleeping(awake))
	assert.Nil(t, CurrentCycle(awake))
	assert.Equal(t, model.KindStart, NextKind(awake))

	asleep := Reconcile([]model.SleepEvent{start("s1", at(1, 23, 0))})
	status := Status("u1", asleep)
	assert.True(t, status.IsSleeping)
	require.NotNil(t, status.Current)
	assert.Equal(t, "s1", status.Current.StartEventID)
	assert.Equal(t, model.KindEnd, status.NextKind)

	empty := Status("u1", Reconcile(nil))
	assert.False(t, empty.IsSleeping)
	assert.Equal(t, model.KindStart, empty.NextKind)
}

func TestValidateManualEntry(t *testing.T) {
	tests := []struct {
		name    string
		start   time.Time
		end     time.Time
		wantErr bool
	}{
		{name: "overnight", start: at(1, 23, 0), end: at(2, 7, 0)},
		{name: "one minute nap", start: at(1, 13, 0), end: at(1, 13, 1)},
		{name: "equal times", start: at(1, 23, 0), end: at(1, 23, 0), wantErr: true},
		{name: "end before start", start: at(2, 7, 0), end: at(1, 23, 0), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateManualEntry(tt.start, tt.end)
			if tt.wantErr {
				assert.True(t, errors.Is(err, ErrInvalidTimeOrder))
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func eventIDs(events []model.SleepEvent) []string {
	if len(events) == 0 {
		return nil
	}
	ids := make([]string, len(events))
	for i, e := range events {
		ids[i] = e.ID
	}
	return ids
}
