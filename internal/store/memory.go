// internal/store/memory.go
//
// In-memory registry of live game sessions for the HTTP adapter.
//
// Characteristics:
//   - Sessions are keyed by game.Session.ID.
//   - Every action on a session runs inside Update while holding that
//     session's lock, so actions on one game never interleave; different
//     games proceed in parallel.
//   - Idle sessions are dropped by Sweep. State is lost on restart.

package store

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/robalobadob/minesweeper/internal/game"
)

// ErrNotFound is returned for an unknown or expired session ID.
var ErrNotFound = errors.New("not found")

// Store defines the session registry used by the HTTP layer.
type Store interface {
	// Save adds a session, replacing any session with the same ID.
	Save(ctx context.Context, s *game.Session) error

	// Update runs fn with exclusive access to the session.
	// Returns ErrNotFound if the ID is unknown.
	Update(ctx context.Context, id string, fn func(*game.Session) error) error

	// Delete removes a session; unknown IDs are ignored.
	Delete(ctx context.Context, id string) error

	// Sweep drops sessions idle for longer than idle and reports how many.
	Sweep(idle time.Duration) int
}

type entry struct {
	mu       sync.Mutex // serializes actions on this session
	session  *game.Session
	lastSeen time.Time
}

// memory is an in-memory map-based Store implementation.
type memory struct {
	mu      sync.RWMutex      // guards entries
	entries map[string]*entry // keyed by Session.ID
	now     func() time.Time
}

// NewMemoryStore constructs a new in-memory Store.
func NewMemoryStore() Store {
	return &memory{entries: make(map[string]*entry), now: time.Now}
}

// Save adds or replaces the session in the map.
func (m *memory) Save(ctx context.Context, s *game.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[s.ID] = &entry{session: s, lastSeen: m.now()}
	return nil
}

// Update looks up a session by ID and runs fn under its lock.
func (m *memory) Update(ctx context.Context, id string, fn func(*game.Session) error) error {
	m.mu.RLock()
	e, ok := m.entries[id]
	m.mu.RUnlock()
	if !ok {
		return ErrNotFound
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.lastSeen = m.now()
	return fn(e.session)
}

func (m *memory) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, id)
	return nil
}

func (m *memory) Sweep(idle time.Duration) int {
	cutoff := m.now().Add(-idle)
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for id, e := range m.entries {
		// TryLock skips sessions mid-action; they are fresh anyway.
		if !e.mu.TryLock() {
			continue
		}
		if e.lastSeen.Before(cutoff) {
			delete(m.entries, id)
			n++
		}
		e.mu.Unlock()
	}
	return n
}
