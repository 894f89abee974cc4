package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/penwyp/go-sleep-monitor/internal/core/model"

	_ "modernc.org/sqlite"
)

// SQLiteStore keeps events in a check_in_records table.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite opens (and creates) the database file at path.
func OpenSQLite(path string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	db.SetMaxOpenConns(1)

	s, err := NewSQLiteStore(db)
	if err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// NewSQLiteStore wraps an open database and applies the schema.
func NewSQLiteStore(db *sql.DB) (*SQLiteStore, error) {
	s := &SQLiteStore{db: db}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

func (s *SQLiteStore) migrate() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS check_in_records (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL,
			timestamp INTEGER NOT NULL,
			type TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_check_in_records_user ON check_in_records (user_id, timestamp)`,
	}
	for _, q := range statements {
		if _, err := s.db.ExecContext(context.Background(), q); err != nil {
			return err
		}
	}
	return nil
}

func (s *SQLiteStore) List(ctx context.Context, userID string) ([]model.SleepEvent, error) {
	if err := validateUserID(userID); err != nil {
		return nil, err
	}

	query := `
		SELECT id, user_id, timestamp, type
		FROM check_in_records
		WHERE user_id = ?
		ORDER BY timestamp, rowid
	`
	rows, err := s.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("query events for %s: %w", userID, err)
	}
	defer func() { _ = rows.Close() }()

	return scanEvents(rows)
}

func scanEvents(rows *sql.Rows) ([]model.SleepEvent, error) {
	events := []model.SleepEvent{}
	for rows.Next() {
		var (
			e    model.SleepEvent
			ts   int64
			kind string
		)
		if err := rows.Scan(&e.ID, &e.UserID, &ts, &kind); err != nil {
			return nil, err
		}
		e.Timestamp = time.UnixMilli(ts)
		e.Kind = model.EventKind(kind)
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return events, nil
}

func (s *SQLiteStore) ListAll(ctx context.Context) ([]model.SleepEvent, error) {
	query := `
		SELECT id, user_id, timestamp, type
		FROM check_in_records
		ORDER BY user_id, timestamp, rowid
	`
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query all events: %w", err)
	}
	defer func() { _ = rows.Close() }()
	return scanEvents(rows)
}

func (s *SQLiteStore) Append(ctx context.Context, events ...model.SleepEvent) error {
	if err := validateEvents(events); err != nil {
		return err
	}
	if len(events) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	query := `INSERT INTO check_in_records (id, user_id, timestamp, type) VALUES (?, ?, ?, ?)`
	for _, e := range events {
		if _, err := tx.ExecContext(ctx, query, e.ID, e.UserID, e.TimestampMs(), string(e.Kind)); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("failed to insert event %s: %w", e.ID, err)
		}
	}
	return tx.Commit()
}

func (s *SQLiteStore) Delete(ctx context.Context, userID, eventID string) error {
	if err := validateUserID(userID); err != nil {
		return err
	}

	res, err := s.db.ExecContext(ctx, `DELETE FROM check_in_records WHERE user_id = ? AND id = ?`, userID, eventID)
	if err != nil {
		return fmt.Errorf("failed to delete event %s: %w", eventID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrEventNotFound, eventID)
	}
	return nil
}

func (s *SQLiteStore) Users(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT DISTINCT user_id FROM check_in_records ORDER BY user_id`)
	if err != nil {
		return nil, fmt.Errorf("query users: %w", err)
	}
	defer func() { _ = rows.Close() }()

	users := []string{}
	for rows.Next() {
		var user string
		if err := rows.Scan(&user); err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	return users, rows.Err()
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
