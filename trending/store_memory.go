package trending

import (
	"context"
	"sync"
	"time"
)

// MemoryStore keeps entries in process memory. Last writer wins.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[Kind]Entry
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[Kind]Entry)}
}

var _ Store = (*MemoryStore)(nil)

func (m *MemoryStore) Get(_ context.Context, kind Kind) (*Entry, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.entries[kind]
	if !ok {
		return nil, false, nil
	}
	e.Items = append([]Item(nil), e.Items...)
	return &e, true, nil
}

// Set stores entry. Freshness is judged by Entry.LastUpdated, so ttl is unused here.
func (m *MemoryStore) Set(_ context.Context, kind Kind, entry Entry, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	entry.Items = append([]Item(nil), entry.Items...)
	m.entries[kind] = entry
	return nil
}
