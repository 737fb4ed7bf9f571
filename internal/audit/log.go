package audit

import (
	"context"
	"sync"
	"time"

	"auction-core/internal/models"
	"auction-core/utils"
)

// Filter narrows a Query to matching entries. Zero values match everything.
type Filter struct {
	UserID    string
	Email     string
	IPAddress string
	Action    models.AuditAction
	Status    models.AuditStatus
	Limit     int
	Offset    int
}

// Log is the append-only record of security-relevant events. Entries are
// never mutated or deleted by the core; retention is an external policy.
type Log interface {
	Append(ctx context.Context, entry models.AuditEntry) error
	Query(ctx context.Context, filter Filter) ([]models.AuditEntry, error)
	// CountSince returns how many matching entries carry a timestamp strictly
	// after since. Used for sliding-window behavioral checks.
	CountSince(ctx context.Context, filter Filter, since time.Time) (int, error)
}

// MemoryLog is a concurrency-safe in-memory implementation of Log. Entries
// are kept in insertion order, which gives per-subject ordering for free.
type MemoryLog struct {
	mu      sync.RWMutex
	entries []models.AuditEntry
}

// NewMemoryLog creates an empty in-memory audit log.
func NewMemoryLog() *MemoryLog {
	return &MemoryLog{}
}

// Append records an entry, assigning an ID and timestamp if missing.
func (l *MemoryLog) Append(_ context.Context, entry models.AuditEntry) error {
	if entry.EntryID == "" {
		entry.EntryID = utils.GenerateID()
	}
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now().UTC()
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, entry)
	return nil
}

// Query returns entries matching the filter in insertion order, honoring
// offset/limit pagination.
func (l *MemoryLog) Query(_ context.Context, filter Filter) ([]models.AuditEntry, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	matched := make([]models.AuditEntry, 0)
	for _, e := range l.entries {
		if matches(e, filter) {
			matched = append(matched, e)
		}
	}

	if filter.Offset > 0 {
		if filter.Offset >= len(matched) {
			return []models.AuditEntry{}, nil
		}
		matched = matched[filter.Offset:]
	}
	if filter.Limit > 0 && filter.Limit < len(matched) {
		matched = matched[:filter.Limit]
	}
	return matched, nil
}

// CountSince counts matching entries with a timestamp strictly after since.
func (l *MemoryLog) CountSince(_ context.Context, filter Filter, since time.Time) (int, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	count := 0
	for _, e := range l.entries {
		if e.Timestamp.After(since) && matches(e, filter) {
			count++
		}
	}
	return count, nil
}

func matches(e models.AuditEntry, f Filter) bool {
	if f.UserID != "" && e.UserID != f.UserID {
		return false
	}
	if f.Email != "" && e.Email != f.Email {
		return false
	}
	if f.IPAddress != "" && e.IPAddress != f.IPAddress {
		return false
	}
	if f.Action != "" && e.Action != f.Action {
		return false
	}
	if f.Status != "" && e.Status != f.Status {
		return false
	}
	return true
}
