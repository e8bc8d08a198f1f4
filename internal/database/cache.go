package database

import (
	"context"
	"fmt"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"

	"FitAI_V1.0/internal/dietplan"
)

// CachedPlanStore serves history reads from an LRU keyed by email and sort
// order. Every Put for an email drops that email's entries.
type CachedPlanStore struct {
	Service
	cache *lru.Cache[string, []dietplan.PlanRecord]

	// writes counts completed Puts. A read that overlapped a Put is
	// returned but not cached.
	mu     sync.Mutex
	writes uint64
}

func NewCachedPlanStore(inner Service, size int) (*CachedPlanStore, error) {
	cache, err := lru.New[string, []dietplan.PlanRecord](size)
	if err != nil {
		return nil, fmt.Errorf("history cache: %w", err)
	}
	return &CachedPlanStore{Service: inner, cache: cache}, nil
}

func cacheKey(email string, newestFirst bool) string {
	if newestFirst {
		return email + "|desc"
	}
	return email + "|asc"
}

func (c *CachedPlanStore) Put(ctx context.Context, email, createdAt string, plan dietplan.DietPlan) error {
	err := c.Service.Put(ctx, email, createdAt, plan)

	c.mu.Lock()
	c.writes++
	c.cache.Remove(cacheKey(email, true))
	c.cache.Remove(cacheKey(email, false))
	c.mu.Unlock()
	return err
}

func (c *CachedPlanStore) Query(ctx context.Context, email string, newestFirst bool) ([]dietplan.PlanRecord, error) {
	key := cacheKey(email, newestFirst)
	if records, ok := c.cache.Get(key); ok {
		return records, nil
	}

	c.mu.Lock()
	seen := c.writes
	c.mu.Unlock()

	records, err := c.Service.Query(ctx, email, newestFirst)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	if c.writes == seen {
		c.cache.Add(key, records)
	}
	c.mu.Unlock()
	return records, nil
}

func (c *CachedPlanStore) Health(ctx context.Context) map[string]string {
	stats := c.Service.Health(ctx)
	stats["history_cache_entries"] = fmt.Sprintf("%d", c.cache.Len())
	return stats
}
