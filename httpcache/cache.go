package httpcache

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/angas/strompris-go/database"
)

// Store persists raw response bodies keyed by request URL. Implementations
// must be safe for concurrent use and return database.ErrNotFound for
// missing keys.
type Store interface {
	GetCacheEntry(ctx context.Context, url string) (database.CacheEntryRow, error)
	SaveCacheEntry(ctx context.Context, r database.CacheEntryRow) error
	DeleteCacheEntry(ctx context.Context, url string) error
	PurgeCacheEntries(ctx context.Context, before time.Time) (int64, error)
	CacheStats(ctx context.Context) (database.CacheStats, error)
}

type Stats struct {
	database.CacheStats
	Hits   int64
	Misses int64
}

// Cache is a URL keyed response body cache. Entries older than ttl are
// treated as missing; a zero ttl keeps entries forever.
type Cache struct {
	logger *slog.Logger
	store  Store
	ttl    time.Duration
	now    func() time.Time
	hits   atomic.Int64
	misses atomic.Int64
}

func New(store Store, ttl time.Duration) *Cache {
	return &Cache{
		logger: slog.Default().With("module", "httpcache"),
		store:  store,
		ttl:    ttl,
		now:    time.Now,
	}
}

func (c *Cache) TTL() time.Duration {
	return c.ttl
}

func (c *Cache) expired(storedAt time.Time) bool {
	return c.ttl > 0 && c.now().Sub(storedAt) >= c.ttl
}

func (c *Cache) Get(ctx context.Context, url string) ([]byte, bool, error) {
	r, err := c.store.GetCacheEntry(ctx, url)
	if errors.Is(err, database.ErrNotFound) {
		c.misses.Add(1)
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to get cache entry: %w", err)
	}
	if c.expired(r.StoredAt) {
		c.misses.Add(1)
		c.logger.DebugContext(ctx, "cache entry expired", slog.String("url", url), slog.Time("storedAt", r.StoredAt))
		return nil, false, nil
	}
	c.hits.Add(1)
	return r.Body, true, nil
}

func (c *Cache) Put(ctx context.Context, url string, body []byte) error {
	err := c.store.SaveCacheEntry(ctx, database.CacheEntryRow{
		URL:      url,
		Body:     body,
		StoredAt: c.now(),
	})
	if err != nil {
		return fmt.Errorf("failed to put cache entry: %w", err)
	}
	return nil
}

func (c *Cache) Invalidate(ctx context.Context, url string) error {
	if err := c.store.DeleteCacheEntry(ctx, url); err != nil {
		return fmt.Errorf("failed to invalidate cache entry: %w", err)
	}
	return nil
}

// Purge removes expired entries and returns how many were removed.
func (c *Cache) Purge(ctx context.Context) (int64, error) {
	if c.ttl <= 0 {
		return 0, nil
	}
	n, err := c.store.PurgeCacheEntries(ctx, c.now().Add(-c.ttl))
	if err != nil {
		return 0, fmt.Errorf("failed to purge cache: %w", err)
	}
	return n, nil
}

func (c *Cache) Stats(ctx context.Context) (Stats, error) {
	s, err := c.store.CacheStats(ctx)
	if err != nil {
		return Stats{}, fmt.Errorf("failed to get cache stats: %w", err)
	}
	return Stats{CacheStats: s, Hits: c.hits.Load(), Misses: c.misses.Load()}, nil
}
