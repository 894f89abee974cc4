package store

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/penwyp/go-sleep-monitor/internal/core/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func event(id, user string, minute int, kind model.EventKind) model.SleepEvent {
	return model.SleepEvent{
		ID:        id,
		UserID:    user,
		Timestamp: time.Date(2024, 3, 1, 22, minute, 0, 0, time.UTC),
		Kind:      kind,
	}
}

func openStores(t *testing.T) map[string]Store {
	t.Helper()

	jsonl, err := NewJSONLStore(filepath.Join(t.TempDir(), "jsonl"))
	require.NoError(t, err)
	sqlite, err := OpenSQLite(filepath.Join(t.TempDir(), "db", "sleep.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlite.Close() })

	return map[string]Store{"jsonl": jsonl, "sqlite": sqlite}
}

func TestStoreContract(t *testing.T) {
	ctx := context.Background()

	for name, s := range openStores(t) {
		t.Run(name, func(t *testing.T) {
			events, err := s.List(ctx, "alice")
			require.NoError(t, err)
			assert.NotNil(t, events)
			assert.Empty(t, events)

			users, err := s.Users(ctx)
			require.NoError(t, err)
			assert.Empty(t, users)

			require.NoError(t, s.Append(ctx,
				event("a1", "alice", 0, model.KindStart),
				event("b1", "bob", 5, model.KindStart),
			))
			require.NoError(t, s.Append(ctx, event("a2", "alice", 30, model.KindEnd)))

			events, err = s.List(ctx, "alice")
			require.NoError(t, err)
			require.Len(t, events, 2)
			assert.Equal(t, "a1", events[0].ID)
			assert.Equal(t, model.KindStart, events[0].Kind)
			assert.True(t, events[0].Timestamp.Equal(time.Date(2024, 3, 1, 22, 0, 0, 0, time.UTC)))
			assert.Equal(t, "a2", events[1].ID)

			bob, err := s.List(ctx, "bob")
			require.NoError(t, err)
			assert.Len(t, bob, 1)

			users, err = s.Users(ctx)
			require.NoError(t, err)
			assert.Equal(t, []string{"alice", "bob"}, users)

			require.NoError(t, s.Delete(ctx, "alice", "a1"))
			events, err = s.List(ctx, "alice")
			require.NoError(t, err)
			require.Len(t, events, 1)
			assert.Equal(t, "a2", events[0].ID)

			err = s.Delete(ctx, "alice", "a1")
			assert.True(t, errors.Is(err, ErrEventNotFound))

			err = s.Delete(ctx, "alice", "b1")
			assert.True(t, errors.Is(err, ErrEventNotFound), "events of other users are not reachable")
		})
	}
}

func TestStoreRejectsInvalidUsers(t *testing.T) {
	ctx := context.Background()

	for name, s := range openStores(t) {
		t.Run(name, func(t *testing.T) {
			for _, user := range []string{"", "..", "a/b", `a\b`} {
				_, err := s.List(ctx, user)
				assert.True(t, errors.Is(err, ErrInvalidUser), "user %q", user)

				err = s.Append(ctx, event("x", user, 0, model.KindStart))
				assert.True(t, errors.Is(err, ErrInvalidUser), "user %q", user)
			}

			err := s.Append(ctx, event("", "alice", 0, model.KindStart))
			assert.Error(t, err)

			err = s.Append(ctx, event("n1", "alice", 0, model.EventKind("nap")))
			assert.ErrorContains(t, err, "unknown kind")
			events, err := s.List(ctx, "alice")
			require.NoError(t, err)
			assert.Empty(t, events)
		})
	}
}

func TestStoreListAll(t *testing.T) {
	ctx := context.Background()

	for name, s := range openStores(t) {
		t.Run(name, func(t *testing.T) {
			events, err := s.ListAll(ctx)
			require.NoError(t, err)
			assert.Empty(t, events)

			require.NoError(t, s.Append(ctx,
				event("b1", "bob", 5, model.KindStart),
				event("a1", "alice", 0, model.KindStart),
				event("a2", "alice", 30, model.KindEnd),
				event("c1", "carol", 10, model.KindStart),
			))

			events, err = s.ListAll(ctx)
			require.NoError(t, err)
			require.Len(t, events, 4)

			perUser := make(map[string][]string)
			for _, e := range events {
				perUser[e.UserID] = append(perUser[e.UserID], e.ID)
			}
			assert.Equal(t, []string{"a1", "a2"}, perUser["alice"])
			assert.Equal(t, []string{"b1"}, perUser["bob"])
			assert.Equal(t, []string{"c1"}, perUser["carol"])
		})
	}
}

type failingWriter struct {
	err error
}

func (w failingWriter) Write(p []byte) (int, error) {
	return 0, w.err
}

func TestWriteLinesReportsWriteErrors(t *testing.T) {
	diskFull := errors.New("no space left on device")

	// a single line stays buffered until Flush
	err := writeLines(failingWriter{err: diskFull}, []model.SleepEvent{event("a1", "alice", 0, model.KindStart)})
	assert.True(t, errors.Is(err, diskFull))

	// enough lines to overflow the buffer fail inside the write loop
	many := make([]model.SleepEvent, 0, 200)
	for i := 0; i < 200; i++ {
		many = append(many, event(fmt.Sprintf("e%03d", i), "alice", i%60, model.KindStart))
	}
	err = writeLines(failingWriter{err: diskFull}, many)
	assert.True(t, errors.Is(err, diskFull))

	var buf bytes.Buffer
	require.NoError(t, writeLines(&buf, many[:2]))
	assert.Equal(t, 2, strings.Count(buf.String(), "\n"))
}

func TestJSONLStoreFileLayout(t *testing.T) {
	dir := t.TempDir()
	s, err := NewJSONLStore(dir)
	require.NoError(t, err)

	require.NoError(t, s.Append(context.Background(), event("a1", "alice", 0, model.KindStart)))
	assert.Equal(t, filepath.Join(dir, "alice.jsonl"), s.Path("alice"))

	content, err := os.ReadFile(s.Path("alice"))
	require.NoError(t, err)
	assert.Equal(t, `{"id":"a1","user_id":"alice","timestamp":1709330400000,"type":"sleep_start"}`+"\n", string(content))
}

func TestJSONLStoreToleratesCorruptLines(t *testing.T) {
	dir := t.TempDir()
	s, err := NewJSONLStore(dir)
	require.NoError(t, err)

	lines := []string{
		`{"id":"a1","user_id":"alice","timestamp":1709330400000,"type":"sleep_start"}`,
		`garbage`,
		`{"id":"a2","user_id":"alice","timestamp":1709359200000,"type":"sleep_end"}`,
	}
	require.NoError(t, os.WriteFile(s.Path("alice"), []byte(strings.Join(lines, "\n")), 0644))

	events, err := s.List(context.Background(), "alice")
	require.NoError(t, err)
	assert.Len(t, events, 2)

	require.NoError(t, s.Delete(context.Background(), "alice", "a2"))
	events, err = s.List(context.Background(), "alice")
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "a1", events[0].ID)
}

func TestJSONLStoreCancelledContext(t *testing.T) {
	s, err := NewJSONLStore(t.TempDir())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = s.List(ctx, "alice")
	assert.True(t, errors.Is(err, context.Canceled))
	assert.True(t, errors.Is(s.Append(ctx, event("a", "alice", 0, model.KindStart)), context.Canceled))
}

func TestOpen(t *testing.T) {
	dir := t.TempDir()

	s, err := Open(model.StoreJSONL, dir)
	require.NoError(t, err)
	assert.IsType(t, &JSONLStore{}, s)

	s, err = Open(model.StoreSQLite, dir)
	require.NoError(t, err)
	assert.IsType(t, &SQLiteStore{}, s)
	assert.FileExists(t, filepath.Join(dir, "sleep.db"))
	require.NoError(t, s.Close())

	_, err = Open("postgres", dir)
	assert.Error(t, err)
}
