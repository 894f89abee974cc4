package store

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/penwyp/go-sleep-monitor/internal/core/model"
)

var (
	// ErrEventNotFound is returned by Delete when the user has no event with the given id.
	ErrEventNotFound = errors.New("event not found")
	// ErrInvalidUser is returned for user ids that cannot name a log.
	ErrInvalidUser = errors.New("invalid user id")
)

// Store persists check-in events. Implementations must be safe for
// concurrent use. List returns events in insertion order; callers sort.
type Store interface {
	List(ctx context.Context, userID string) ([]model.SleepEvent, error)
	Append(ctx context.Context, events ...model.SleepEvent) error
	Delete(ctx context.Context, userID, eventID string) error
	// ListAll returns the events of every user.
	ListAll(ctx context.Context) ([]model.SleepEvent, error)
	// Users returns the ids of users with at least one stored event, sorted.
	Users(ctx context.Context) ([]string, error)
	Close() error
}

// Open returns the store named by kind rooted at dataDir.
func Open(kind, dataDir string) (Store, error) {
	switch kind {
	case model.StoreJSONL, "":
		return NewJSONLStore(dataDir)
	case model.StoreSQLite:
		return OpenSQLite(filepath.Join(dataDir, "sleep.db"))
	default:
		return nil, fmt.Errorf("unknown store %q", kind)
	}
}

func validateUserID(userID string) error {
	if userID == "" || userID == "." || userID == ".." ||
		strings.ContainsAny(userID, `/\`) || strings.ContainsRune(userID, 0) {
		return fmt.Errorf("%w: %q", ErrInvalidUser, userID)
	}
	return nil
}

func validateEvents(events []model.SleepEvent) error {
	for _, e := range events {
		if err := validateUserID(e.UserID); err != nil {
			return err
		}
		if e.ID == "" {
			return fmt.Errorf("event for user %s has no id", e.UserID)
		}
		if !e.Kind.Valid() {
			return fmt.Errorf("event %s has unknown kind %q", e.ID, e.Kind)
		}
	}
	return nil
}
