package cache

import (
	"context"
	"sync"
	"time"

	"github.com/careerbuddy/careerbuddy/internal/domain"
)

// Memory is an in-process TTL cache. Safe for concurrent use.
type Memory struct {
	mu  sync.RWMutex
	m   map[string]domain.CacheEntry
	now func() time.Time
}

// NewMemory creates an empty in-process cache.
func NewMemory() *Memory {
	return &Memory{m: make(map[string]domain.CacheEntry), now: time.Now}
}

// Get returns the cached result for key. An entry past its expiry is treated
// as a miss and removed.
func (c *Memory) Get(_ context.Context, key string) (domain.AnalysisResult, bool, error) {
	c.mu.RLock()
	e, ok := c.m[key]
	c.mu.RUnlock()
	if !ok {
		return domain.AnalysisResult{}, false, nil
	}
	if c.now().After(e.ExpiresAt) {
		c.mu.Lock()
		// Re-check under the write lock; another goroutine may have
		// replaced the entry with a fresh one.
		if cur, ok := c.m[key]; ok && c.now().After(cur.ExpiresAt) {
			delete(c.m, key)
		}
		c.mu.Unlock()
		return domain.AnalysisResult{}, false, nil
	}
	return e.Value, true, nil
}

// Set stores v under key for ttl.
func (c *Memory) Set(_ context.Context, key string, v domain.AnalysisResult, ttl time.Duration) error {
	c.mu.Lock()
	c.m[key] = domain.CacheEntry{Value: v, ExpiresAt: c.now().Add(ttl)}
	c.mu.Unlock()
	return nil
}

// Sweep removes all expired entries and reports how many were dropped.
func (c *Memory) Sweep(_ context.Context) (int, error) {
	now := c.now()
	c.mu.Lock()
	defer c.mu.Unlock()
	removed := 0
	for k, e := range c.m {
		if now.After(e.ExpiresAt) {
			delete(c.m, k)
			removed++
		}
	}
	return removed, nil
}

// Len reports the number of live plus expired-but-unswept entries.
func (c *Memory) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.m)
}

// SetClock overrides the time source. Test hook.
func (c *Memory) SetClock(now func() time.Time) { c.now = now }
