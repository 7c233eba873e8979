package cache

import (
	"context"
	"encoding/json"
	"sync"
	"time"
)

// MemoryStore is an in-process Store. It keeps serialized values so readers
// never share memory with writers.
type MemoryStore struct {
	mu    sync.RWMutex
	items map[string]memoryItem
	now   func() time.Time
}

type memoryItem struct {
	value      []byte
	expiration time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		items: make(map[string]memoryItem),
		now:   time.Now,
	}
}

func (s *MemoryStore) Get(ctx context.Context, key string, dest interface{}) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	s.mu.RLock()
	item, found := s.items[key]
	s.mu.RUnlock()
	if !found {
		return false, nil
	}
	if !item.expiration.IsZero() && s.now().After(item.expiration) {
		// lazy expiry
		s.mu.Lock()
		delete(s.items, key)
		s.mu.Unlock()
		return false, nil
	}
	if err := json.Unmarshal(item.value, dest); err != nil {
		return false, err
	}
	return true, nil
}

func (s *MemoryStore) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	b, err := json.Marshal(value)
	if err != nil {
		return err
	}
	item := memoryItem{value: b}
	if ttl > 0 {
		item.expiration = s.now().Add(ttl)
	}
	s.mu.Lock()
	s.items[key] = item
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) DeleteMatching(ctx context.Context, pattern string) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	re, err := compileGlob(pattern)
	if err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	count := 0
	for key := range s.items {
		if re.MatchString(key) {
			delete(s.items, key)
			count++
		}
	}
	return count, nil
}

func (s *MemoryStore) Delete(ctx context.Context, keys ...string) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	count := 0
	for _, key := range keys {
		if _, found := s.items[key]; found {
			delete(s.items, key)
			count++
		}
	}
	return count, nil
}

// Sweep drops expired items and returns how many were removed.
func (s *MemoryStore) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	count := 0
	for key, item := range s.items {
		if !item.expiration.IsZero() && now.After(item.expiration) {
			delete(s.items, key)
			count++
		}
	}
	return count
}
