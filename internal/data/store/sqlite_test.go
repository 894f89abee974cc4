package store

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/penwyp/go-sleep-monitor/internal/core/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockStore(t *testing.T) (*SQLiteStore, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	mock.ExpectExec(regexp.QuoteMeta("CREATE TABLE IF NOT EXISTS check_in_records")).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta("CREATE INDEX IF NOT EXISTS idx_check_in_records_user")).
		WillReturnResult(sqlmock.NewResult(0, 0))

	s, err := NewSQLiteStore(db)
	require.NoError(t, err)
	return s, mock
}

func TestSQLiteStore_MigrateFailure(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec("CREATE TABLE").WillReturnError(errors.New("disk full"))

	_, err = NewSQLiteStore(db)
	assert.ErrorContains(t, err, "disk full")
}

func TestSQLiteStore_List(t *testing.T) {
	s, mock := newMockStore(t)

	rows := sqlmock.NewRows([]string{"id", "user_id", "timestamp", "type"}).
		AddRow("e1", "alice", int64(1709330400000), "sleep_start").
		AddRow("e2", "alice", int64(1709359200000), "sleep_end")
	mock.ExpectQuery(regexp.QuoteMeta("FROM check_in_records")).
		WithArgs("alice").
		WillReturnRows(rows)

	events, err := s.List(context.Background(), "alice")
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, model.KindStart, events[0].Kind)
	assert.Equal(t, int64(1709359200000), events[1].TimestampMs())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLiteStore_ListAll(t *testing.T) {
	s, mock := newMockStore(t)

	rows := sqlmock.NewRows([]string{"id", "user_id", "timestamp", "type"}).
		AddRow("e1", "alice", int64(1709330400000), "sleep_start").
		AddRow("e2", "bob", int64(1709330400000), "sleep_start")
	mock.ExpectQuery(regexp.QuoteMeta("ORDER BY user_id, timestamp, rowid")).
		WillReturnRows(rows)

	events, err := s.ListAll(context.Background())
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, "alice", events[0].UserID)
	assert.Equal(t, "bob", events[1].UserID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLiteStore_ListQueryError(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectQuery("SELECT").WithArgs("alice").WillReturnError(errors.New("connection reset"))

	_, err := s.List(context.Background(), "alice")
	assert.ErrorContains(t, err, "connection reset")
}

func TestSQLiteStore_AppendRollsBack(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO check_in_records")).
		WithArgs("e1", "alice", sqlmock.AnyArg(), "sleep_start").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO check_in_records")).
		WithArgs("e2", "alice", sqlmock.AnyArg(), "sleep_end").
		WillReturnError(errors.New("UNIQUE constraint failed"))
	mock.ExpectRollback()

	err := s.Append(context.Background(),
		event("e1", "alice", 0, model.KindStart),
		event("e2", "alice", 30, model.KindEnd),
	)
	assert.ErrorContains(t, err, "e2")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLiteStore_AppendCommits(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO check_in_records")).
		WithArgs("e1", "alice", int64(1709330400000), "sleep_start").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	require.NoError(t, s.Append(context.Background(), event("e1", "alice", 0, model.KindStart)))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLiteStore_DeleteNotFound(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM check_in_records")).
		WithArgs("alice", "missing").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := s.Delete(context.Background(), "alice", "missing")
	assert.True(t, errors.Is(err, ErrEventNotFound))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLiteStore_Users(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT DISTINCT user_id FROM check_in_records")).
		WillReturnRows(sqlmock.NewRows([]string{"user_id"}).AddRow("alice").AddRow("bob"))

	users, err := s.Users(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"alice", "bob"}, users)

	mock.ExpectQuery("SELECT DISTINCT").WillReturnError(errors.New("locked"))
	_, err = s.Users(context.Background())
	assert.ErrorContains(t, err, "query users")
	assert.NoError(t, mock.ExpectationsWereMet())
}
