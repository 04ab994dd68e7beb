package main

import (
	"sync"
	"time"
)

// ContentCache provides thread-safe TTL caching for fetched URL content,
// so repeatedly attaching the same page to council queries doesn't re-fetch it
type ContentCache struct {
	mu      sync.Mutex
	entries map[string]contentEntry
	ttl     time.Duration
}

type contentEntry struct {
	content   string
	fetchedAt time.Time
}

// NewContentCache creates a new content cache with the specified TTL
func NewContentCache(ttl time.Duration) *ContentCache {
	return &ContentCache{
		entries: make(map[string]contentEntry),
		ttl:     ttl,
	}
}

// Get retrieves cached content for a URL if not expired, evicting the entry
// when it has expired.
// Returns the content and a boolean indicating if the cache hit was successful
func (c *ContentCache) Get(url string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[url]
	if !ok {
		return "", false
	}

	if time.Since(entry.fetchedAt) > c.ttl {
		delete(c.entries, url)
		return "", false
	}

	return entry.content, true
}

// Set stores content for a URL and sweeps out expired entries, keeping the
// cache bounded across distinct URLs
func (c *ContentCache) Set(url string, content string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	for key, entry := range c.entries {
		if now.Sub(entry.fetchedAt) > c.ttl {
			delete(c.entries, key)
		}
	}

	c.entries[url] = contentEntry{
		content:   content,
		fetchedAt: now,
	}
}

// Clear removes all entries from the cache
func (c *ContentCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = make(map[string]contentEntry)
}

// Size returns the number of entries currently held
func (c *ContentCache) Size() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return len(c.entries)
}
