package provider

import (
	"context"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/tripsync/tripsync/internal/models"
	"github.com/tripsync/tripsync/internal/picks"
)

const cacheName = "provider"

// CachedSource is a read-through TTL cache in front of a Source. Concurrent
// misses for the same key share one upstream call. Failed fetches are not cached.
type CachedSource struct {
	source   Source
	ttl      time.Duration
	recorder Recorder
	now      func() time.Time

	mu      sync.RWMutex
	entries map[string]cachedResult
	group   singleflight.Group
}

type cachedResult struct {
	events    []models.RawEvent
	expiresAt time.Time
}

// NewCachedSource wraps source. A non-positive ttl disables caching.
func NewCachedSource(source Source, ttl time.Duration, recorder Recorder) *CachedSource {
	return &CachedSource{
		source:   source,
		ttl:      ttl,
		recorder: recorder,
		now:      time.Now,
		entries:  make(map[string]cachedResult),
	}
}

// Events implements Source.
func (c *CachedSource) Events(ctx context.Context, pick models.Pick, r models.DateRange) FetchResult {
	if c.ttl <= 0 {
		return c.source.Events(ctx, pick, r)
	}

	key := cacheKey(pick, r)
	if events, ok := c.lookup(key); ok {
		c.observe(true)
		return FetchResult{Events: events}
	}
	c.observe(false)

	// The shared fetch outlives any one caller; each caller still stops waiting
	// when its own context ends.
	shared := context.WithoutCancel(ctx)
	ch := c.group.DoChan(key, func() (any, error) {
		res := c.source.Events(shared, pick, r)
		if res.Err == nil {
			c.mu.Lock()
			c.entries[key] = cachedResult{events: res.Events, expiresAt: c.now().Add(c.ttl)}
			c.mu.Unlock()
		}
		return res, nil
	})

	select {
	case v := <-ch:
		return v.Val.(FetchResult)
	case <-ctx.Done():
		return FetchResult{Err: ctx.Err()}
	}
}

// Purge drops expired entries and returns how many were removed.
func (c *CachedSource) Purge() int {
	now := c.now()
	c.mu.Lock()
	defer c.mu.Unlock()

	removed := 0
	for key, entry := range c.entries {
		if !now.Before(entry.expiresAt) {
			delete(c.entries, key)
			removed++
		}
	}
	return removed
}

func (c *CachedSource) lookup(key string) ([]models.RawEvent, bool) {
	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok || !c.now().Before(entry.expiresAt) {
		return nil, false
	}
	return entry.events, true
}

func (c *CachedSource) observe(hit bool) {
	if c.recorder != nil {
		c.recorder.ObserveCache(cacheName, hit)
	}
}

// cacheKey ignores the slot so the same pick in two slots shares an entry.
func cacheKey(pick models.Pick, r models.DateRange) string {
	return strings.Join([]string{picks.Key(pick, false), r.Start, r.End}, "|")
}
