// Package cache is a small in-memory TTL cache for fetched documents.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// Cache holds page bodies keyed by Key. It is safe for concurrent use.
type Cache struct {
	lru *expirable.LRU[string, string]
}

// New creates a Cache holding at most maxEntries bodies for ttl each; the
// least recently used body goes first when it is full.
// It returns nil when maxEntries or ttl is not positive; a nil *Cache is a
// valid cache that never hits.
func New(maxEntries int, ttl time.Duration) *Cache {
	if maxEntries <= 0 || ttl <= 0 {
		return nil
	}
	return &Cache{lru: expirable.NewLRU[string, string](maxEntries, nil, ttl)}
}

// Key derives a cache key from the request parts, typically the URL plus
// anything that changes the response.
func Key(parts ...string) string {
	h := sha256.New()
	for i, p := range parts {
		if i > 0 {
			h.Write([]byte("|"))
		}
		h.Write([]byte(p))
	}
	return hex.EncodeToString(h.Sum(nil))
}

// Get returns the body stored under key if it has not expired.
func (c *Cache) Get(key string) (string, bool) {
	if c == nil {
		return "", false
	}
	return c.lru.Get(key)
}

// Set stores body under key, replacing any previous body.
func (c *Cache) Set(key, body string) {
	if c == nil {
		return
	}
	c.lru.Add(key, body)
}

// Len returns the number of stored entries.
func (c *Cache) Len() int {
	if c == nil {
		return 0
	}
	return c.lru.Len()
}
