package journal

import (
	"context"
	"time"

	"github.com/mindful-finance-ledger/internal/domain/shared"
)

// Repository manages journal entry persistence with pagination support
type Repository interface {
	Create(ctx context.Context, entry *Entry) error
	GetByEventID(ctx context.Context, eventID string) (*Entry, error)
	ListByOwner(ctx context.Context, ownerID string, eventType EventType, limit, offset int) ([]*Entry, error)
	CountByOwner(ctx context.Context, ownerID string, eventType EventType) (int64, error)
	GetByTimeRange(ctx context.Context, ownerID string, startTime, endTime time.Time, limit, offset int) ([]*Entry, error)
}

// ErrEntryNotFound indicates missing journal entry
type ErrEntryNotFound struct {
	EventID string
}

func (e ErrEntryNotFound) Error() string {
	return "journal entry not found: " + e.EventID
}

// Is implements the errors.Is interface for ErrEntryNotFound
func (e ErrEntryNotFound) Is(target error) bool {
	if target == shared.ErrNotFound {
		return true
	}
	t, ok := target.(ErrEntryNotFound)
	if !ok {
		return false
	}
	// An empty target EventID matches any ErrEntryNotFound
	return t.EventID == "" || e.EventID == t.EventID
}

// ErrDuplicateEntry indicates the event was already journaled
type ErrDuplicateEntry struct {
	EventID string
}

func (e ErrDuplicateEntry) Error() string {
	return "duplicate journal entry: " + e.EventID
}

func (e ErrDuplicateEntry) Is(target error) bool {
	t, ok := target.(ErrDuplicateEntry)
	if !ok {
		return false
	}
	return t.EventID == "" || e.EventID == t.EventID
}
