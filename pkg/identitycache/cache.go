// Package identitycache provides the process-local TTL cache backing the
// standard verifier's fallback path: a mapping from user id to the profile
// snapshot last fetched from the credential store.
//
// The cache is local to one server process. There is no cross-process
// invalidation: in a multi-instance deployment a role downgrade propagates to
// other instances only after their entries age out, bounded by the TTL.
package identitycache

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/truckwise/fleet-server/pkg/auth"
)

// DefaultTTL is the maximum entry age before a read treats it as a miss
const DefaultTTL = 10 * time.Minute

type entry struct {
	identity   auth.Identity
	insertedAt time.Time
}

// Cache is a TTL cache of identity snapshots keyed by user id. Safe for
// concurrent use. Entries are evicted lazily on read and in bulk by Sweep,
// which the server schedules every few minutes.
type Cache struct {
	mu      sync.RWMutex
	entries map[int64]entry
	ttl     time.Duration

	hits   atomic.Int64
	misses atomic.Int64

	// now is swapped out in tests to exercise TTL behavior without sleeping
	now func() time.Time
}

// New creates a cache with the given TTL. A non-positive TTL falls back to
// DefaultTTL.
func New(ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Cache{
		entries: make(map[int64]entry),
		ttl:     ttl,
		now:     time.Now,
	}
}

// Get returns the cached snapshot for id if one exists and is younger than
// the TTL. An expired entry is removed and reported as a miss.
func (c *Cache) Get(id int64) (auth.Identity, bool) {
	c.mu.RLock()
	e, ok := c.entries[id]
	c.mu.RUnlock()

	if !ok {
		c.misses.Add(1)
		return auth.Identity{}, false
	}

	if c.now().Sub(e.insertedAt) >= c.ttl {
		c.mu.Lock()
		// Re-check under the write lock; a concurrent Put may have refreshed it
		if cur, ok := c.entries[id]; ok && cur.insertedAt.Equal(e.insertedAt) {
			delete(c.entries, id)
		}
		c.mu.Unlock()
		c.misses.Add(1)
		return auth.Identity{}, false
	}

	c.hits.Add(1)
	return e.identity, true
}

// Put inserts or refreshes the snapshot for identity.ID. Concurrent writers
// racing on the same id overwrite each other, which is fine: both carry the
// same store row.
func (c *Cache) Put(identity auth.Identity) {
	c.mu.Lock()
	c.entries[identity.ID] = entry{identity: identity, insertedAt: c.now()}
	c.mu.Unlock()
}

// Invalidate removes the entry for id. Called by every administrative action
// that mutates a user's stored profile so the fallback verification path does
// not serve stale privilege data.
func (c *Cache) Invalidate(id int64) {
	c.mu.Lock()
	delete(c.entries, id)
	c.mu.Unlock()
}

// Sweep removes every entry older than the TTL and returns how many were
// evicted. It runs on a scheduler goroutine, never on the request path.
func (c *Cache) Sweep() int {
	now := c.now()

	c.mu.Lock()
	defer c.mu.Unlock()

	evicted := 0
	for id, e := range c.entries {
		if now.Sub(e.insertedAt) >= c.ttl {
			delete(c.entries, id)
			evicted++
		}
	}
	return evicted
}

// Len returns the number of entries currently held, including any that have
// expired but not yet been swept
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Stats reports cache occupancy and hit counters
type Stats struct {
	Size   int     `json:"size"`
	Keys   []int64 `json:"keys"`
	Hits   int64   `json:"hits"`
	Misses int64   `json:"misses"`
}

// Stats returns a snapshot of the cache state for the admin endpoint
func (c *Cache) Stats() Stats {
	c.mu.RLock()
	keys := make([]int64, 0, len(c.entries))
	for id := range c.entries {
		keys = append(keys, id)
	}
	c.mu.RUnlock()

	return Stats{
		Size:   len(keys),
		Keys:   keys,
		Hits:   c.hits.Load(),
		Misses: c.misses.Load(),
	}
}
