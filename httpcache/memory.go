package httpcache

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/angas/strompris-go/database"
)

// MemoryStore is an in-process Store, used when no cache file is configured.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]database.CacheEntryRow
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string]database.CacheEntryRow)}
}

func (s *MemoryStore) GetCacheEntry(_ context.Context, url string) (database.CacheEntryRow, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.entries[url]
	if !ok {
		return database.CacheEntryRow{}, database.ErrNotFound
	}
	return r, nil
}

func (s *MemoryStore) SaveCacheEntry(_ context.Context, r database.CacheEntryRow) error {
	r.Body = slices.Clone(r.Body)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[r.URL] = r
	return nil
}

func (s *MemoryStore) DeleteCacheEntry(_ context.Context, url string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, url)
	return nil
}

func (s *MemoryStore) PurgeCacheEntries(_ context.Context, before time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for url, r := range s.entries {
		if !r.StoredAt.After(before) {
			delete(s.entries, url)
			n++
		}
	}
	return n, nil
}

func (s *MemoryStore) CacheStats(_ context.Context) (database.CacheStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st := database.CacheStats{Entries: len(s.entries)}
	for _, r := range s.entries {
		st.Bytes += int64(len(r.Body))
	}
	return st, nil
}
