package routing

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/example/ride-booking-bot/internal/models"
	"github.com/example/ride-booking-bot/internal/observability"
)

// Cache wraps a Router and memoizes legs keyed by coords for a TTL.
// Expired entries are swept on write at most once per TTL.
type Cache struct {
	next      Router
	mu        sync.RWMutex
	store     map[string]cacheEntry
	ttl       time.Duration
	now       func() time.Time
	lastSweep time.Time
}

type cacheEntry struct {
	v  models.Leg
	ts time.Time
}

func NewCache(next Router, ttl time.Duration) *Cache {
	return &Cache{next: next, store: make(map[string]cacheEntry), ttl: ttl, now: time.Now}
}

func keyFor(a, b models.Coord) string {
	return fmtCoord(a) + "->" + fmtCoord(b)
}

func fmtCoord(c models.Coord) string {
	return fmt.Sprintf("%.6f,%.6f", c.Lat, c.Lon)
}

func (c *Cache) Route(ctx context.Context, from, to models.Coord) (models.Leg, error) {
	if v, ok := c.get(from, to); ok {
		observability.RouteCacheHits.Inc()
		return v, nil
	}
	v, err := c.next.Route(ctx, from, to)
	if err != nil {
		return models.Leg{}, err
	}
	c.set(from, to, v)
	return v, nil
}

func (c *Cache) get(a, b models.Coord) (models.Leg, bool) {
	k := keyFor(a, b)
	c.mu.RLock()
	e, ok := c.store[k]
	c.mu.RUnlock()
	if !ok {
		return models.Leg{}, false
	}
	if c.now().Sub(e.ts) > c.ttl {
		c.mu.Lock()
		delete(c.store, k)
		c.mu.Unlock()
		return models.Leg{}, false
	}
	return e.v, true
}

func (c *Cache) set(a, b models.Coord, v models.Leg) {
	k := keyFor(a, b)
	now := c.now()
	c.mu.Lock()
	defer c.mu.Unlock()
	if now.Sub(c.lastSweep) > c.ttl {
		for key, e := range c.store {
			if now.Sub(e.ts) > c.ttl {
				delete(c.store, key)
			}
		}
		c.lastSweep = now
	}
	c.store[k] = cacheEntry{v: v, ts: now}
}
