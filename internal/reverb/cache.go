package reverb

import (
	"strings"
	"sync"
	"time"
)

// responseCache holds decoded read responses for a short fixed TTL, keyed
// by path+query. It exists to absorb redundant calls between poll cycles,
// not to persist anything: entries die with the session.
type responseCache struct {
	mu      sync.Mutex
	ttl     time.Duration
	entries map[string]timedEntry

	// now is swept out in tests.
	now func() time.Time
}

type timedEntry struct {
	value   any
	expires time.Time
}

func newResponseCache(ttl time.Duration) *responseCache {
	return &responseCache{
		ttl:     ttl,
		entries: make(map[string]timedEntry),
		now:     time.Now,
	}
}

func (c *responseCache) get(key string) (any, bool) {
	if c.ttl <= 0 {
		return nil, false
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	if c.now().After(entry.expires) {
		delete(c.entries, key)
		return nil, false
	}
	return entry.value, true
}

func (c *responseCache) put(key string, value any) {
	if c.ttl <= 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = timedEntry{value: value, expires: c.now().Add(c.ttl)}
}

// invalidate drops every entry whose key starts with prefix. Mutations call
// it so the next read observes its own write instead of a stale cache hit.
func (c *responseCache) invalidate(prefix string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for key := range c.entries {
		if strings.HasPrefix(key, prefix) {
			delete(c.entries, key)
		}
	}
}

func (c *responseCache) clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]timedEntry)
}
