// Package metacache caches extracted tag metadata keyed by file fingerprint
// for the lifetime of the process, so rescans of an unchanged library avoid
// re-reading tags from every file.
package metacache

import (
	"sync"
	"time"

	"github.com/cesargomez89/powerhour/internal/constants"
	"github.com/cesargomez89/powerhour/internal/domain"
)

type entry struct {
	metadata   domain.Metadata
	capturedAt time.Time
}

// Cache maps a (path, modTime, size) fingerprint to extracted tags. Entries
// expire after a fixed TTL; an expired entry is deleted on read.
type Cache struct {
	mu  sync.Mutex
	ttl time.Duration
	// now is swapped in tests to control expiry.
	now     func() time.Time
	entries map[string]entry
}

// New creates a cache with the standard 24h TTL.
func New() *Cache {
	return NewWithTTL(constants.MetadataCacheTTL)
}

// NewWithTTL creates a cache with a custom TTL.
func NewWithTTL(ttl time.Duration) *Cache {
	return &Cache{
		ttl:     ttl,
		now:     time.Now,
		entries: make(map[string]entry),
	}
}

// Get returns the cached tags for a fingerprint. A stale entry counts as a
// miss and is removed.
func (c *Cache) Get(fingerprint string) (domain.Metadata, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[fingerprint]
	if !ok {
		return domain.Metadata{}, false
	}
	if c.now().Sub(e.capturedAt) > c.ttl {
		delete(c.entries, fingerprint)
		return domain.Metadata{}, false
	}
	return e.metadata, true
}

// Put inserts or overwrites an entry.
func (c *Cache) Put(fingerprint string, md domain.Metadata) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[fingerprint] = entry{metadata: md, capturedAt: c.now()}
}

// Invalidate removes an entry whose fingerprint no longer matches the file.
func (c *Cache) Invalidate(fingerprint string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, fingerprint)
}

// Len reports the live entry count.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
