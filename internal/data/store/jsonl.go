package store

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"sync"

	"github.com/penwyp/go-sleep-monitor/internal/core/model"
	"github.com/penwyp/go-sleep-monitor/internal/data/parser"
	"github.com/penwyp/go-sleep-monitor/internal/data/scanner"
	"github.com/penwyp/go-sleep-monitor/internal/util"
)

// JSONLStore keeps one append-only <user>.jsonl file per user.
type JSONLStore struct {
	dir    string
	parser *parser.Parser
	mu     sync.Mutex
}

// NewJSONLStore creates dir if needed and returns a store rooted there.
func NewJSONLStore(dir string) (*JSONLStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	return &JSONLStore{dir: dir, parser: parser.NewParser(runtime.NumCPU())}, nil
}

// Path returns the log file backing userID.
func (s *JSONLStore) Path(userID string) string {
	return filepath.Join(s.dir, userID+scanner.LogExt)
}

// Dir returns the data directory.
func (s *JSONLStore) Dir() string {
	return s.dir
}

func (s *JSONLStore) List(ctx context.Context, userID string) ([]model.SleepEvent, error) {
	if err := validateUserID(userID); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.read(userID)
}

func (s *JSONLStore) read(userID string) ([]model.SleepEvent, error) {
	events, err := s.parser.ParseFile(s.Path(userID))
	if os.IsNotExist(err) {
		return []model.SleepEvent{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read log for %s: %w", userID, err)
	}
	if events == nil {
		events = []model.SleepEvent{}
	}
	return events, nil
}

func (s *JSONLStore) Append(ctx context.Context, events ...model.SleepEvent) error {
	if err := validateEvents(events); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	byUser := make(map[string][]model.SleepEvent)
	var order []string
	for _, e := range events {
		if _, ok := byUser[e.UserID]; !ok {
			order = append(order, e.UserID)
		}
		byUser[e.UserID] = append(byUser[e.UserID], e)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, userID := range order {
		if err := s.appendLines(userID, byUser[userID]); err != nil {
			return err
		}
	}
	return nil
}

func (s *JSONLStore) appendLines(userID string, events []model.SleepEvent) error {
	f, err := os.OpenFile(s.Path(userID), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("open log for %s: %w", userID, err)
	}
	defer f.Close()

	if err := writeLines(f, events); err != nil {
		return fmt.Errorf("write log for %s: %w", userID, err)
	}

	util.LogDebugf("Appended %d events to %s", len(events), s.Path(userID))
	return nil
}

// Delete rewrites the user's log without eventID.
func (s *JSONLStore) Delete(ctx context.Context, userID, eventID string) error {
	if err := validateUserID(userID); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	events, err := s.read(userID)
	if err != nil {
		return err
	}

	kept := events[:0]
	found := false
	for _, e := range events {
		if e.ID == eventID {
			found = true
			continue
		}
		kept = append(kept, e)
	}
	if !found {
		return fmt.Errorf("%w: %s", ErrEventNotFound, eventID)
	}

	return s.rewrite(userID, kept)
}

func (s *JSONLStore) rewrite(userID string, events []model.SleepEvent) error {
	tmp, err := os.CreateTemp(s.dir, userID+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp log: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if err := writeLines(tmp, events); err != nil {
		tmp.Close()
		return fmt.Errorf("write temp log: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return err
	}

	if err := os.Rename(tmpName, s.Path(userID)); err != nil {
		return fmt.Errorf("replace log for %s: %w", userID, err)
	}
	return nil
}

// writeLines encodes events as JSONL onto dst.
func writeLines(dst io.Writer, events []model.SleepEvent) error {
	w := bufio.NewWriter(dst)
	for _, e := range events {
		line, err := parser.MarshalRecord(e)
		if err != nil {
			return fmt.Errorf("encode event %s: %w", e.ID, err)
		}
		if _, err := w.Write(append(line, '\n')); err != nil {
			return err
		}
	}
	return w.Flush()
}

// ListAll parses every user log concurrently. Events of one user keep
// their file order; the order between users is unspecified.
func (s *JSONLStore) ListAll(ctx context.Context) ([]model.SleepEvent, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	files, err := scanner.NewFileScanner(s.dir).Scan()
	if err != nil {
		return nil, fmt.Errorf("scan data dir: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	events, err := s.parser.Collect(files)
	if err != nil {
		return nil, fmt.Errorf("read logs: %w", err)
	}
	if events == nil {
		events = []model.SleepEvent{}
	}
	return events, nil
}

func (s *JSONLStore) Users(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	users, err := scanner.NewFileScanner(s.dir).ScanUsers()
	if err != nil {
		return nil, fmt.Errorf("scan data dir: %w", err)
	}
	return users, nil
}

func (s *JSONLStore) Close() error {
	return nil
}
