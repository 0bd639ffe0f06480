// Package cache provides the in-memory store for fetched gauge payloads
package cache

import (
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"golang.org/x/sync/singleflight"
)

// DefaultTTL is how long a stored payload stays readable
const DefaultTTL = 10 * time.Minute

// Entry is a stored payload together with the time it was written
type Entry struct {
	Key      string
	Payload  []byte
	StoredAt time.Time
}

// Source tells how GetOrLoad produced its payload
type Source int

const (
	// Hit means a fresh entry was already stored
	Hit Source = iota
	// Loaded means this caller ran the loader
	Loaded
	// Shared means this caller waited on another caller's in-flight load
	Shared
)

// TTLCache maps keys to payloads that expire a fixed duration after being stored.
// Expired entries are ignored on read but stay in memory until overwritten or cleared.
type TTLCache struct {
	ttl     time.Duration
	clock   clockwork.Clock
	mu      sync.RWMutex
	entries map[string]Entry
	loads   singleflight.Group
}

// New creates a cache; a nil clock means real time and a non-positive ttl means DefaultTTL
func New(ttl time.Duration, clock clockwork.Clock) *TTLCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &TTLCache{
		ttl:     ttl,
		clock:   clock,
		entries: make(map[string]Entry),
	}
}

// Get returns a copy of the payload if the entry exists and is younger than the TTL
func (c *TTLCache) Get(key string) ([]byte, bool) {
	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()

	if !ok || c.clock.Since(e.StoredAt) >= c.ttl {
		return nil, false
	}
	return clone(e.Payload), true
}

// Set stores a copy of payload under key, replacing any previous entry
func (c *TTLCache) Set(key string, payload []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[key] = Entry{
		Key:      key,
		Payload:  clone(payload),
		StoredAt: c.clock.Now(),
	}
}

// Clear drops every entry
func (c *TTLCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = make(map[string]Entry)
}

// Len is the raw number of stored entries, stale ones included
func (c *TTLCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return len(c.entries)
}

// TTL returns the configured time-to-live
func (c *TTLCache) TTL() time.Duration {
	return c.ttl
}

// GetOrLoad returns the fresh payload for key, or runs load and stores its result.
// Concurrent callers missing the same key share a single load. A failed load stores nothing.
func (c *TTLCache) GetOrLoad(key string, load func() ([]byte, error)) ([]byte, Source, error) {
	if payload, ok := c.Get(key); ok {
		return payload, Hit, nil
	}

	// The closure only runs for the caller that owns the in-flight load
	src := Shared
	v, err, _ := c.loads.Do(key, func() (any, error) {
		// Another caller may have finished a load between our miss and Do
		if payload, ok := c.Get(key); ok {
			src = Hit
			return payload, nil
		}
		src = Loaded
		payload, err := load()
		if err != nil {
			return nil, err
		}
		c.Set(key, payload)
		return payload, nil
	})
	if err != nil {
		return nil, src, err
	}
	return clone(v.([]byte)), src, nil
}

func clone(b []byte) []byte {
	if b == nil {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}
