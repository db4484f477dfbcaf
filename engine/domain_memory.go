package engine

import (
	"sync"
	"time"
)

type domainEntry struct {
	engineName string
	expiresAt  time.Time
}

// DomainMemory remembers which engine last won for each domain.
// Entries expire after the configured TTL.
type DomainMemory struct {
	mu      sync.RWMutex
	entries map[string]domainEntry
	ttl     time.Duration
	now     func() time.Time
	done    chan struct{}
}

// NewDomainMemory creates a DomainMemory and starts a goroutine that prunes
// expired entries until Stop is called.
func NewDomainMemory(ttl time.Duration) *DomainMemory {
	dm := &DomainMemory{
		entries: make(map[string]domainEntry),
		ttl:     ttl,
		now:     time.Now,
		done:    make(chan struct{}),
	}
	go dm.cleanupLoop()
	return dm
}

// Get returns the remembered engine name for a domain, or "".
func (dm *DomainMemory) Get(domain string) string {
	dm.mu.RLock()
	e, ok := dm.entries[domain]
	dm.mu.RUnlock()
	if !ok || dm.now().After(e.expiresAt) {
		return ""
	}
	return e.engineName
}

// Set records which engine succeeded for a domain.
func (dm *DomainMemory) Set(domain, engineName string) {
	dm.mu.Lock()
	dm.entries[domain] = domainEntry{engineName: engineName, expiresAt: dm.now().Add(dm.ttl)}
	dm.mu.Unlock()
}

// Delete forgets a domain.
func (dm *DomainMemory) Delete(domain string) {
	dm.mu.Lock()
	delete(dm.entries, domain)
	dm.mu.Unlock()
}

// Len returns the number of remembered domains, expired or not.
func (dm *DomainMemory) Len() int {
	dm.mu.RLock()
	defer dm.mu.RUnlock()
	return len(dm.entries)
}

// Stop terminates the background cleanup goroutine.
func (dm *DomainMemory) Stop() {
	close(dm.done)
}

func (dm *DomainMemory) cleanupLoop() {
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()
	for {
		select {
		case <-dm.done:
			return
		case <-ticker.C:
			dm.prune()
		}
	}
}

func (dm *DomainMemory) prune() {
	now := dm.now()
	dm.mu.Lock()
	for domain, e := range dm.entries {
		if now.After(e.expiresAt) {
			delete(dm.entries, domain)
		}
	}
	dm.mu.Unlock()
}
