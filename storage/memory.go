package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
)

// memStore is an in-memory Store used by tests.
type memStore struct {
	mu   sync.RWMutex
	data map[string]json.RawMessage
}

// NewMemoryStore returns an empty in-memory Store.
func NewMemoryStore() Store {
	return &memStore{data: map[string]json.RawMessage{}}
}

func (s *memStore) Get(_ context.Context, key string) (json.RawMessage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	raw, ok := s.data[key]
	if !ok {
		return nil, nil
	}
	out := make(json.RawMessage, len(raw))
	copy(out, raw)
	return out, nil
}

func (s *memStore) Set(ctx context.Context, key string, value any) error {
	return s.SetMulti(ctx, map[string]any{key: value})
}

func (s *memStore) SetMulti(_ context.Context, values map[string]any) error {
	encoded := make(map[string]json.RawMessage, len(values))
	for key, value := range values {
		raw, err := json.Marshal(value)
		if err != nil {
			return fmt.Errorf("storage: encode %s: %w", key, err)
		}
		encoded[key] = raw
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for key, raw := range encoded {
		s.data[key] = raw
	}
	return nil
}
