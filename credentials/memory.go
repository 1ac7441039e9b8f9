package credentials

import "sync"

var _ Store = (*InMemoryStore)(nil)

// InMemoryStore is a thread-safe in-memory implementation of Store
type InMemoryStore struct {
	mu     sync.RWMutex
	values map[string]string
}

// NewInMemoryStore creates a new in-memory store
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		values: make(map[string]string),
	}
}

func (s *InMemoryStore) Get(key string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	v, ok := s.values[key]
	return v, ok
}

// Set stores or replaces a value
func (s *InMemoryStore) Set(key, value string) error {
	if key == "" {
		return ErrEmptyKey
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.values[key] = value
	return nil
}

// Delete removes a value. Deleting a missing key is not an error.
func (s *InMemoryStore) Delete(key string) error {
	if key == "" {
		return ErrEmptyKey
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.values, key)
	return nil
}
