// Package logbuf holds the in-memory activity log: a fixed-capacity ring
// of entries with FIFO eviction. It is shared by both store backends and
// is never database-backed.
package logbuf

import (
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"relaychat-backend/internal/models"
)

const DefaultCapacity = 1000

// Noise filter for the errors view. Routine bad-credential attempts are
// excluded so the diagnostics page does not alert on them.
var authNoiseMarkers = []string{"invalid credentials", "login failed"}

// Option attaches optional fields to an entry.
type Option func(*models.LogEntry)

func WithUser(id uuid.UUID, username string) Option {
	return func(e *models.LogEntry) {
		uid := id
		e.UserID = &uid
		e.Username = username
	}
}

func WithAction(action string) Option {
	return func(e *models.LogEntry) { e.Action = action }
}

func WithData(data map[string]string) Option {
	return func(e *models.LogEntry) { e.Data = data }
}

func WithRelay(relay *models.RelayLogData) Option {
	return func(e *models.LogEntry) { e.Relay = relay }
}

type Buffer struct {
	mu       sync.Mutex
	entries  []models.LogEntry // oldest first
	capacity int
	nextID   uint64
	subs     map[chan models.LogEntry]struct{}
}

func New(capacity int) *Buffer {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Buffer{
		entries:  make([]models.LogEntry, 0, capacity),
		capacity: capacity,
		subs:     make(map[chan models.LogEntry]struct{}),
	}
}

func (b *Buffer) Append(level, message string, opts ...Option) {
	entry := models.LogEntry{
		Timestamp: time.Now(),
		Level:     level,
		Message:   message,
	}
	for _, opt := range opts {
		opt(&entry)
	}

	b.mu.Lock()
	b.nextID++
	entry.ID = b.nextID
	if len(b.entries) == b.capacity {
		// FIFO eviction: drop the oldest entry.
		copy(b.entries, b.entries[1:])
		b.entries = b.entries[:b.capacity-1]
	}
	b.entries = append(b.entries, entry)
	for ch := range b.subs {
		select {
		case ch <- entry:
		default: // slow subscriber, drop rather than block
		}
	}
	b.mu.Unlock()
}

// Recent returns up to limit entries, newest first.
func (b *Buffer) Recent(limit int) []models.LogEntry {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.collect(limit, func(models.LogEntry) bool { return true })
}

// RecentErrors returns up to limit error-level entries, newest first,
// excluding routine authentication failures.
func (b *Buffer) RecentErrors(limit int) []models.LogEntry {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.collect(limit, func(e models.LogEntry) bool {
		if e.Level != models.LevelError {
			return false
		}
		lower := strings.ToLower(e.Message)
		for _, marker := range authNoiseMarkers {
			if strings.Contains(lower, marker) {
				return false
			}
		}
		return true
	})
}

func (b *Buffer) collect(limit int, keep func(models.LogEntry) bool) []models.LogEntry {
	if limit <= 0 {
		limit = 50
	}
	out := make([]models.LogEntry, 0, limit)
	for i := len(b.entries) - 1; i >= 0 && len(out) < limit; i-- {
		if keep(b.entries[i]) {
			out = append(out, b.entries[i])
		}
	}
	return out
}

func (b *Buffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.entries)
}

// Subscribe returns a channel that receives every entry appended after the
// call. The channel is buffered; entries are dropped for slow readers.
func (b *Buffer) Subscribe() chan models.LogEntry {
	ch := make(chan models.LogEntry, 64)
	b.mu.Lock()
	b.subs[ch] = struct{}{}
	b.mu.Unlock()
	return ch
}

func (b *Buffer) Unsubscribe(ch chan models.LogEntry) {
	b.mu.Lock()
	if _, ok := b.subs[ch]; ok {
		delete(b.subs, ch)
		close(ch)
	}
	b.mu.Unlock()
}
