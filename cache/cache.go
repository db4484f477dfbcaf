package cache

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/use-agent/winnow/models"
	"github.com/use-agent/winnow/winnow"
)

// entry holds a cached fingerprint with its creation timestamp.
type entry struct {
	fp        *winnow.Fingerprint
	createdAt time.Time
}

// Cache is an in-memory cache of document fingerprints.
// It is safe for concurrent use.
type Cache struct {
	mu         sync.RWMutex
	entries    map[string]*entry
	maxEntries int
	ttl        time.Duration

	hits   atomic.Uint64
	misses atomic.Uint64

	// disk, when set, backs the in-memory map.
	disk *Store

	done chan struct{}
}

// Option configures a Cache.
type Option func(*Cache)

// WithStore makes s a write-through second tier: memory misses are looked
// up in s, and every Set is persisted to it.
func WithStore(s *Store) Option {
	return func(c *Cache) { c.disk = s }
}

// New creates a new Cache holding at most maxEntries fingerprints for ttl.
// A background goroutine evicts expired entries every ttl/4 (at least once
// a minute) until Close is called.
func New(maxEntries int, ttl time.Duration, opts ...Option) *Cache {
	if ttl <= 0 {
		ttl = time.Hour
	}
	c := &Cache{
		entries:    make(map[string]*entry),
		maxEntries: maxEntries,
		ttl:        ttl,
		done:       make(chan struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}

	go c.cleanupLoop()
	return c
}

// Key derives a cache key from the document text and every policy field
// that changes the selected hashes.
func Key(text string, cfg winnow.Config) string {
	h := sha256.New()
	var buf [8]byte
	for _, v := range []uint64{uint64(cfg.K), uint64(cfg.Window), cfg.Base, uint64(cfg.Selection)} {
		binary.LittleEndian.PutUint64(buf[:], v)
		h.Write(buf[:])
	}
	if cfg.Positional {
		h.Write([]byte{1})
	} else {
		h.Write([]byte{0})
	}
	h.Write([]byte(text))
	return hex.EncodeToString(h.Sum(nil))
}

// Get retrieves a cached fingerprint if it exists and has not expired.
func (c *Cache) Get(key string) (*winnow.Fingerprint, bool) {
	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()

	if ok && time.Since(e.createdAt) <= c.ttl {
		c.hits.Add(1)
		return e.fp, true
	}

	if c.disk != nil {
		fp, created, found, err := c.disk.Get(key, time.Now().Add(-c.ttl))
		if err != nil {
			slog.Warn("cache: store read failed", "key", key, "error", err)
		}
		if found {
			c.put(key, fp, created)
			c.hits.Add(1)
			return fp, true
		}
	}

	c.misses.Add(1)
	return nil, false
}

// Set stores a fingerprint. If the cache is at capacity, a random entry is
// evicted to make room. A cache with maxEntries <= 0 stores nothing.
func (c *Cache) Set(key string, fp *winnow.Fingerprint) {
	if c.maxEntries <= 0 {
		return
	}

	now := time.Now()
	c.put(key, fp, now)

	if c.disk != nil {
		if err := c.disk.Put(key, fp, now); err != nil {
			slog.Warn("cache: store write failed", "key", key, "error", err)
		}
	}
}

func (c *Cache) put(key string, fp *winnow.Fingerprint, createdAt time.Time) {
	if c.maxEntries <= 0 {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	// Evict one random entry if at capacity (map iteration is random in Go).
	if _, exists := c.entries[key]; !exists && len(c.entries) >= c.maxEntries {
		for k := range c.entries {
			delete(c.entries, k)
			break
		}
	}

	c.entries[key] = &entry{
		fp:        fp,
		createdAt: createdAt,
	}
}

// Stats reports the current size and hit counters.
func (c *Cache) Stats() models.CacheStats {
	c.mu.RLock()
	n := len(c.entries)
	c.mu.RUnlock()

	stats := models.CacheStats{
		Entries:    n,
		MaxEntries: c.maxEntries,
		Hits:       c.hits.Load(),
		Misses:     c.misses.Load(),
	}
	if c.disk != nil {
		stats.Persisted = c.disk.Len()
	}
	return stats
}

// Close stops the background cleanup goroutine. The store, if any, is
// owned by the caller and stays open.
func (c *Cache) Close() {
	close(c.done)
}

// cleanupLoop evicts expired entries until Close is called.
func (c *Cache) cleanupLoop() {
	interval := c.ttl / 4
	if interval > time.Minute {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-c.done:
			return
		case <-ticker.C:
			c.evictExpired(time.Now())
		}
	}
}

func (c *Cache) evictExpired(now time.Time) {
	cutoff := now.Add(-c.ttl)
	c.mu.Lock()
	for k, e := range c.entries {
		if e.createdAt.Before(cutoff) {
			delete(c.entries, k)
		}
	}
	c.mu.Unlock()

	if c.disk != nil {
		if n, err := c.disk.Prune(cutoff); err != nil {
			slog.Warn("cache: store prune failed", "error", err)
		} else if n > 0 {
			slog.Debug("cache: pruned stored fingerprints", "removed", n)
		}
	}
}
