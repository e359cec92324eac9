// Embarq - Boarding Pass Validation Service
// Copyright 2026 Tom Dupuis (tomdupuis)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomdupuis/embarq

// Package cache provides the thread-safe expiring key/value store shared by
// the extraction and reconciliation stages of the validation pipeline.
//
// Entries are stored as JSON text rather than live objects so that a caller
// mutating a previously returned value can never alias the cached copy.
// Expired entries are evicted lazily on the next Get; no background sweep
// goroutine is required, which keeps cache lifetime tied to its owner.
package cache

import (
	"crypto/sha256"
	"fmt"
	"sync"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomdupuis/embarq/internal/logging"
	"github.com/tomdupuis/embarq/internal/metrics"
)

// entry is a cached value with its expiry instant.
type entry struct {
	value     string
	expiresAt time.Time
}

// Stats is a point-in-time snapshot of cache counters.
type Stats struct {
	Hits      int64
	Misses    int64
	Evictions int64
	TotalKeys int64
}

// Cache is a thread-safe in-memory TTL cache. A single mutex serializes all
// map access, including the deletion performed by lazy eviction. Lock hold
// time is O(1); callers must never perform I/O while interacting with the
// cache.
type Cache struct {
	mu      sync.Mutex
	entries map[string]entry
	name    string

	hits      int64
	misses    int64
	evictions int64
}

// New creates an empty cache. The name labels the cache in metrics and logs
// (e.g. "extraction", "reconciliation").
func New(name string) *Cache {
	return &Cache{
		entries: make(map[string]entry),
		name:    name,
	}
}

// Get retrieves the value stored under key.
//
// A Get on an expired key removes the entry and reports a miss: the first
// call past expiry mutates state, but repeated calls agree on the returned
// absence.
func (c *Cache) Get(key string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, exists := c.entries[key]
	if !exists {
		c.misses++
		metrics.CacheMisses.WithLabelValues(c.name).Inc()
		return "", false
	}

	if time.Now().After(e.expiresAt) {
		delete(c.entries, key)
		c.misses++
		c.evictions++
		metrics.CacheMisses.WithLabelValues(c.name).Inc()
		metrics.CacheEvictions.WithLabelValues(c.name).Inc()
		return "", false
	}

	c.hits++
	metrics.CacheHits.WithLabelValues(c.name).Inc()
	return e.value, true
}

// Set stores value under key for the given TTL, overwriting any previous
// entry. Returns true on success.
func (c *Cache) Set(key, value string, ttl time.Duration) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[key] = entry{
		value:     value,
		expiresAt: time.Now().Add(ttl),
	}
	metrics.CacheSize.WithLabelValues(c.name).Set(float64(len(c.entries)))
	return true
}

// Delete removes the entry under key. Returns true if an entry existed.
func (c *Cache) Delete(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.entries[key]; !exists {
		return false
	}
	delete(c.entries, key)
	c.evictions++
	metrics.CacheEvictions.WithLabelValues(c.name).Inc()
	metrics.CacheSize.WithLabelValues(c.name).Set(float64(len(c.entries)))
	return true
}

// Clear removes all entries in a single O(1) map replacement.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.evictions += int64(len(c.entries))
	c.entries = make(map[string]entry)
	metrics.CacheSize.WithLabelValues(c.name).Set(0)
	logging.Info().Str("cache", c.name).Msg("Cache cleared")
}

// GetStats returns a snapshot of the cache counters.
func (c *Cache) GetStats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	return Stats{
		Hits:      c.hits,
		Misses:    c.misses,
		Evictions: c.evictions,
		TotalKeys: int64(len(c.entries)),
	}
}

// GetJSON retrieves the entry under key and unmarshals it into out.
// A decode failure is treated as a cache miss: the corrupt entry is
// dropped, logged, and false is returned (the pipeline recomputes).
func (c *Cache) GetJSON(key string, out interface{}) bool {
	raw, ok := c.Get(key)
	if !ok {
		return false
	}
	if err := json.Unmarshal([]byte(raw), out); err != nil {
		logging.Warn().Err(err).Str("cache", c.name).Msg("Dropping undecodable cache entry")
		c.Delete(key)
		return false
	}
	return true
}

// SetJSON serializes v to JSON and stores it under key. A serialization
// failure is logged and reported as false; it never propagates to the
// caller's pipeline.
func (c *Cache) SetJSON(key string, v interface{}, ttl time.Duration) bool {
	data, err := json.Marshal(v)
	if err != nil {
		logging.Warn().Err(err).Str("cache", c.name).Msg("Cache serialization failed")
		return false
	}
	return c.Set(key, string(data), ttl)
}

// ContentKey derives a cache key from raw content bytes (e.g. the encoded
// image of a boarding pass). Identical bytes always map to the same key.
func ContentKey(data []byte) string {
	sum := sha256.Sum256(data)
	return fmt.Sprintf("%x", sum)
}

// FlightKey derives the reconciliation cache key from a flight number and
// its ISO departure date.
func FlightKey(flightNumber, departureDate string) string {
	return flightNumber + "_" + departureDate
}
