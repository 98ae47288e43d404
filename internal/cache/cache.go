// Package cache is an in-process response cache partitioned into groups.
// Entries expire after their TTL; a write path drops a whole group with
// Invalidate once its transaction has committed. Write paths never read
// from the cache.
package cache

import (
	"net/http"
	"sync"
	"time"

	"github.com/petabencana/sitioss-server/internal/observability"
)

// Cache groups.
const (
	GroupCards        = "/cards"
	GroupFloods       = "/floods"
	GroupFloodsStates = "/floods/states"
)

// Entry is a stored response.
type Entry struct {
	Status  int
	Header  http.Header
	Body    []byte
	Expires time.Time
}

// Cache is safe for concurrent use. A nil *Cache is a valid, always-empty
// cache.
type Cache struct {
	mu     sync.RWMutex
	groups map[string]map[string]Entry
	now    func() time.Time
}

// New returns an empty cache.
func New() *Cache {
	return &Cache{groups: map[string]map[string]Entry{}, now: time.Now}
}

// Get returns the live entry for key in group.
func (c *Cache) Get(group, key string) (Entry, bool) {
	if c == nil {
		return Entry{}, false
	}
	c.mu.RLock()
	e, ok := c.groups[group][key]
	c.mu.RUnlock()
	if !ok || !c.now().Before(e.Expires) {
		observability.CacheEvents.WithLabelValues(group, "miss").Inc()
		return Entry{}, false
	}
	observability.CacheEvents.WithLabelValues(group, "hit").Inc()
	return e, true
}

// Set stores e under key in group, expiring after ttl.
func (c *Cache) Set(group, key string, e Entry, ttl time.Duration) {
	if c == nil || ttl <= 0 {
		return
	}
	e.Expires = c.now().Add(ttl)
	c.mu.Lock()
	defer c.mu.Unlock()
	g, ok := c.groups[group]
	if !ok {
		g = map[string]Entry{}
		c.groups[group] = g
	}
	g[key] = e
}

// Invalidate drops every entry of group.
func (c *Cache) Invalidate(group string) {
	if c == nil {
		return
	}
	c.mu.Lock()
	delete(c.groups, group)
	c.mu.Unlock()
	observability.CacheEvents.WithLabelValues(group, "invalidate").Inc()
}

// Len reports the number of entries stored in group, expired ones included.
func (c *Cache) Len(group string) int {
	if c == nil {
		return 0
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.groups[group])
}
