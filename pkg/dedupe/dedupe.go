// Package dedupe remembers recently seen drive notifications so redelivered
// ones do not run workflows or spend credits twice.
package dedupe

import (
	"time"

	c "github.com/patrickmn/go-cache"
)

// DefaultTTL is how long a notification key is remembered.
const DefaultTTL = 10 * time.Minute

type Cache struct {
	cache *c.Cache
	ttl   time.Duration
}

// New creates a cache remembering keys for ttl. A non-positive ttl uses
// DefaultTTL.
func New(ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}

	return &Cache{
		cache: c.New(ttl, 2*ttl),
		ttl:   ttl,
	}
}

// Key identifies one delivery. It is empty when the message number is
// missing, and an empty key is never deduplicated.
func Key(channelID string, messageNumber string) string {
	if messageNumber == "" {
		return ""
	}

	return channelID + "/" + messageNumber
}

// Seen records key and reports whether it was already present. Add is
// atomic, so concurrent deliveries of the same key see exactly one first.
func (ch *Cache) Seen(key string) bool {
	if key == "" {
		return false
	}

	return ch.cache.Add(key, struct{}{}, ch.ttl) != nil
}

// Forget drops key, letting a later delivery through. The dispatcher uses
// it when processing failed before any workflow ran.
func (ch *Cache) Forget(key string) {
	if key == "" {
		return
	}

	ch.cache.Delete(key)
}
