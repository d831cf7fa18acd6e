// Package session keeps per-caller escalation state between requests.
package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/kalambet/relbot/internal/escalation"
)

// ErrNotFound is returned by Backend.Get when a session has no stored state.
var ErrNotFound = errors.New("session not found")

// Backend persists pending-contact state keyed by session id.
type Backend interface {
	Get(ctx context.Context, id string) (escalation.PendingContact, error)
	Put(ctx context.Context, id string, p escalation.PendingContact, ttl time.Duration) error
	Delete(ctx context.Context, id string) error
}

type memoryEntry struct {
	value   escalation.PendingContact
	expires time.Time
}

// MemoryBackend stores state in process memory. State is lost on restart.
type MemoryBackend struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	now     func() time.Time
}

// NewMemoryBackend creates an empty in-memory backend.
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{entries: make(map[string]memoryEntry), now: time.Now}
}

func (m *MemoryBackend) Get(_ context.Context, id string) (escalation.PendingContact, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.entries[id]
	if !ok {
		return escalation.PendingContact{}, ErrNotFound
	}
	if !e.expires.After(m.now()) {
		delete(m.entries, id)
		return escalation.PendingContact{}, ErrNotFound
	}
	return e.value, nil
}

func (m *MemoryBackend) Put(_ context.Context, id string, p escalation.PendingContact, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	m.entries[id] = memoryEntry{value: p, expires: now.Add(ttl)}

	// Opportunistic sweep keeps abandoned sessions from piling up.
	for k, e := range m.entries {
		if !e.expires.After(now) {
			delete(m.entries, k)
		}
	}
	return nil
}

func (m *MemoryBackend) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, id)
	return nil
}

// Len returns the number of stored sessions, expired ones included.
func (m *MemoryBackend) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}
