package audit

import (
	"context"
	"sync"
	"time"
)

const DefaultCapacity = 500

// MemoryStore keeps the most recent events in a fixed-size ring.
type MemoryStore struct {
	mu     sync.Mutex
	buf    []Event
	next   int
	full   bool
	lastID int64
	now    func() time.Time
}

var (
	_ Recorder = (*MemoryStore)(nil)
	_ Recorder = (*Store)(nil)
)

func NewMemoryStore(capacity int) *MemoryStore {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &MemoryStore{buf: make([]Event, capacity), now: time.Now}
}

func (m *MemoryStore) Record(_ context.Context, e *Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.lastID++
	e.ID = m.lastID
	if e.CreatedAt.IsZero() {
		e.CreatedAt = m.now().UTC()
	}
	if e.Tags == nil {
		e.Tags = []string{}
	}
	m.buf[m.next] = *e
	m.next = (m.next + 1) % len(m.buf)
	if m.next == 0 {
		m.full = true
	}
	return nil
}

// List returns matching events newest first.
func (m *MemoryStore) List(_ context.Context, f Filter) ([]Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	n := m.next
	if m.full {
		n = len(m.buf)
	}
	limit := f.limit()
	out := make([]Event, 0, min(n, limit))
	for i := 0; i < n && len(out) < limit; i++ {
		idx := (m.next - 1 - i + len(m.buf)) % len(m.buf)
		e := m.buf[idx]
		if f.matches(&e) {
			out = append(out, e)
		}
	}
	return out, nil
}
